package handler

import (
    "context"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "clubaccess/internal/config"
    "clubaccess/internal/model"
    "clubaccess/internal/repository"
    "clubaccess/internal/utils"
)

// MemberHandler implements the administrative member registry: CRUD,
// status changes, badge reissue and credential generation.
type MemberHandler struct {
    Cfg     config.Config
    Members *repository.MemberRepo
    Users   *repository.UserRepo
}

func NewMemberHandler(cfg config.Config, m *repository.MemberRepo, u *repository.UserRepo) *MemberHandler {
    return &MemberHandler{Cfg: cfg, Members: m, Users: u}
}

type memberReq struct {
    FullName        string  `json:"full_name"`
    Email           *string `json:"email"`
    Phone           *string `json:"phone"`
    Address         *string `json:"address"`
    MonthlyFeeCents *uint32 `json:"monthly_fee_cents"`
    Status          *string `json:"status"`
}

type memberResp struct {
    ID               uint64  `json:"id"`
    MemberNumber     string  `json:"member_number"`
    FullName         string  `json:"full_name"`
    QRCode           string  `json:"qr_code"`
    MembershipStatus string  `json:"membership_status"`
    Email            *string `json:"email,omitempty"`
    Phone            *string `json:"phone,omitempty"`
    Address          *string `json:"address,omitempty"`
    MonthlyFeeCents  uint32  `json:"monthly_fee_cents"`
    LastPaymentDate  *string `json:"last_payment_date,omitempty"`
    CreatedAt        string  `json:"created_at"`
}

func toMemberResp(m model.Member) memberResp {
    resp := memberResp{
        ID:               m.ID,
        MemberNumber:     m.MemberNumber,
        FullName:         m.FullName,
        QRCode:           m.QRCode,
        MembershipStatus: m.MembershipStatus,
        Email:            m.Email,
        Phone:            m.Phone,
        Address:          m.Address,
        MonthlyFeeCents:  m.MonthlyFeeCents,
        CreatedAt:        m.CreatedAt.UTC().Format(time.RFC3339),
    }
    if m.LastPaymentDate != nil {
        d := m.LastPaymentDate.UTC().Format("2006-01-02")
        resp.LastPaymentDate = &d
    }
    return resp
}

func validStatus(s string) bool {
    return s == model.StatusActive || s == model.StatusOverdue || s == model.StatusInactive
}

// Create handles POST /v1/members: assigns the next sequential member
// number, generates the badge code and stores the profile.
func (h *MemberHandler) Create(c echo.Context) error {
    var req memberReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    name := strings.TrimSpace(req.FullName)
    if name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name required"})
    }
    status := model.StatusActive
    if req.Status != nil {
        s := strings.ToLower(strings.TrimSpace(*req.Status))
        if !validStatus(s) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
        }
        status = s
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    number, err := h.Members.NextMemberNumber(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "allocate member number failed"})
    }
    code, err := utils.NewBadgeCode(number)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate badge failed"})
    }

    m := model.Member{
        MemberNumber:     number,
        FullName:         name,
        QRCode:           code,
        MembershipStatus: status,
        Email:            req.Email,
        Phone:            req.Phone,
        Address:          req.Address,
    }
    if req.MonthlyFeeCents != nil {
        m.MonthlyFeeCents = *req.MonthlyFeeCents
    }
    if err := h.Members.Create(ctx, &m); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "member number or badge already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create member failed"})
    }
    return c.JSON(http.StatusCreated, toMemberResp(m))
}

// List handles GET /v1/members with optional ?search= over name and
// member number, plus limit/offset paging.
func (h *MemberHandler) List(c echo.Context) error {
    search := strings.TrimSpace(c.QueryParam("search"))
    limit := queryLimit(c, 50, 200)
    offset := 0
    if raw := c.QueryParam("offset"); raw != "" {
        if n, err := strconv.Atoi(raw); err == nil && n > 0 {
            offset = n
        }
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    members, err := h.Members.List(ctx, search, limit, offset)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]memberResp, 0, len(members))
    for _, m := range members {
        out = append(out, toMemberResp(m))
    }
    return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/members/:id.
func (h *MemberHandler) Get(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    m, err := h.Members.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrMemberNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, toMemberResp(m))
}

// Update handles PUT/PATCH /v1/members/:id.  Only profile fields are
// editable here; number, badge and status have dedicated endpoints.
func (h *MemberHandler) Update(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req memberReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    m, err := h.Members.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrMemberNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    if name := strings.TrimSpace(req.FullName); name != "" {
        m.FullName = name
    }
    if req.Email != nil {
        m.Email = req.Email
    }
    if req.Phone != nil {
        m.Phone = req.Phone
    }
    if req.Address != nil {
        m.Address = req.Address
    }
    if req.MonthlyFeeCents != nil {
        m.MonthlyFeeCents = *req.MonthlyFeeCents
    }
    if err := h.Members.Update(ctx, &m); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    got, err := h.Members.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, toMemberResp(got))
}

// UpdateStatus handles PATCH /v1/members/:id/status.  Setting a member
// inactive is what makes the gate refuse their badge.
func (h *MemberHandler) UpdateStatus(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    status := strings.ToLower(strings.TrimSpace(body.Status))
    if !validStatus(status) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Members.UpdateStatus(ctx, id, status); err != nil {
        if err == repository.ErrMemberNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"id": id, "membership_status": status})
}

// Delete handles DELETE /v1/members/:id.  Members with recorded
// visits or payments cannot be removed; deactivate them instead.
func (h *MemberHandler) Delete(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Members.Delete(ctx, id); err != nil {
        switch err {
        case repository.ErrMemberNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
        case repository.ErrConflict:
            return c.JSON(http.StatusConflict, echo.Map{"error": "member has history; set status inactive instead"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
        }
    }
    return c.NoContent(http.StatusNoContent)
}

// ReissueBadge handles POST /v1/members/:id/badge: generates a new
// badge code, invalidating the old card immediately.
func (h *MemberHandler) ReissueBadge(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    m, err := h.Members.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrMemberNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    code, err := utils.NewBadgeCode(m.MemberNumber)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate badge failed"})
    }
    if err := h.Members.UpdateBadge(ctx, id, code); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"id": id, "qr_code": code})
}

// IssueCredentials handles POST /v1/members/:id/credentials.  It
// creates (or resets) the member's self-service login and returns the
// generated password once; it is never stored in plain text.
func (h *MemberHandler) IssueCredentials(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    m, err := h.Members.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrMemberNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    password, err := utils.GeneratePassword(12)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate password failed"})
    }
    login := fmt.Sprintf("%s@%s", m.MemberNumber, h.Cfg.MemberDomain)
    userID, err := h.Users.UpsertMemberLogin(ctx, login, password, m.FullName, m.ID, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue credentials failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "user_id":  userID,
        "email":    login,
        "password": password,
    })
}
