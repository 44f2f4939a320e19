package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "clubaccess/internal/model"
    "clubaccess/internal/repository"
)

// VehicleHandler manages the watercraft registry.  The latest entry
// per member doubles as the default vehicle at the gate, so ordering
// matters to the access engine.
type VehicleHandler struct {
    Vehicles *repository.VehicleRepo
    Members  *repository.MemberRepo
}

func NewVehicleHandler(v *repository.VehicleRepo, m *repository.MemberRepo) *VehicleHandler {
    return &VehicleHandler{Vehicles: v, Members: m}
}

type vehicleReq struct {
    MemberID           uint64  `json:"member_id"`
    RegistrationNumber string  `json:"registration_number"`
    Type               string  `json:"type"`
    Model              *string `json:"model"`
    Color              *string `json:"color"`
}

func validVehicleType(t string) bool {
    return t == model.VehicleJetSki || t == model.VehicleBoat
}

// Create handles POST /v1/vehicles.
func (h *VehicleHandler) Create(c echo.Context) error {
    var req vehicleReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    reg := strings.ToUpper(strings.TrimSpace(req.RegistrationNumber))
    vtype := strings.ToLower(strings.TrimSpace(req.Type))
    if req.MemberID == 0 || reg == "" || !validVehicleType(vtype) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_id, registration_number and a valid type are required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Members.GetByID(ctx, req.MemberID); err != nil {
        if err == repository.ErrMemberNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    v := model.Vehicle{
        MemberID:           req.MemberID,
        RegistrationNumber: reg,
        Type:               vtype,
        Model:              req.Model,
        Color:              req.Color,
    }
    if err := h.Vehicles.Create(ctx, &v); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "registration number already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create vehicle failed"})
    }
    return c.JSON(http.StatusCreated, v)
}

// ListByMember handles GET /v1/members/:id/vehicles, newest first.
func (h *VehicleHandler) ListByMember(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    vehicles, err := h.Vehicles.ListByMember(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, vehicles)
}

// Update handles PUT/PATCH /v1/vehicles/:id.
func (h *VehicleHandler) Update(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req vehicleReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    v, err := h.Vehicles.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrVehicleNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    if reg := strings.ToUpper(strings.TrimSpace(req.RegistrationNumber)); reg != "" {
        v.RegistrationNumber = reg
    }
    if vtype := strings.ToLower(strings.TrimSpace(req.Type)); vtype != "" {
        if !validVehicleType(vtype) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type"})
        }
        v.Type = vtype
    }
    if req.Model != nil {
        v.Model = req.Model
    }
    if req.Color != nil {
        v.Color = req.Color
    }
    if err := h.Vehicles.Update(ctx, &v); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "registration number already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    return c.JSON(http.StatusOK, v)
}

// Delete handles DELETE /v1/vehicles/:id.  A vehicle referenced by a
// visit cannot be removed; the ledger keeps its history.
func (h *VehicleHandler) Delete(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Vehicles.Delete(ctx, id); err != nil {
        switch err {
        case repository.ErrVehicleNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
        case repository.ErrConflict:
            return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle has recorded visits"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
        }
    }
    return c.NoContent(http.StatusNoContent)
}
