package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "clubaccess/internal/access"
    "clubaccess/internal/offline"
    "clubaccess/internal/repository"
)

// ScanHandler exposes the gate endpoints used by the security station:
// the scan itself plus the dashboards fed by the entry ledger and the
// audit trail.
type ScanHandler struct {
    Engine *access.Engine
    Queue  *offline.Queue
    Visits *repository.VisitRepo
    Events *repository.CardEventRepo
}

func NewScanHandler(engine *access.Engine, queue *offline.Queue, visits *repository.VisitRepo, events *repository.CardEventRepo) *ScanHandler {
    return &ScanHandler{Engine: engine, Queue: queue, Visits: visits, Events: events}
}

type scanReq struct {
    Code       string `json:"code"`
    DeviceInfo string `json:"device_info"`
}

// Scan handles POST /v1/scan.  One request is one badge read; the
// response is the single outcome the engine produced for it.
//
//  recorded/rejected -> 200 with the outcome body
//  deferred          -> 202, the scan is queued for replay
//  lost race         -> 409, operator should re-scan
func (h *ScanHandler) Scan(c echo.Context) error {
    operatorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req scanReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    code := strings.TrimSpace(req.Code)
    if code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    outcome, err := h.Engine.ProcessScan(ctx, code, access.ScanContext{
        OperatorID: operatorID,
        Timestamp:  time.Now().UTC(),
        DeviceInfo: strings.TrimSpace(req.DeviceInfo),
    })
    if err != nil {
        if err == access.ErrScanConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan processing failed"})
    }
    if outcome.Kind == access.KindDeferred {
        return c.JSON(http.StatusAccepted, outcome)
    }
    return c.JSON(http.StatusOK, outcome)
}

// QueueStatus handles GET /v1/scan/queue and reports how many scans
// are waiting for replay at this station.
func (h *ScanHandler) QueueStatus(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    pending, err := h.Queue.Len(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "queue unavailable"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "station": h.Queue.Station(),
        "pending": pending,
    })
}

// ListInside handles GET /v1/visits/inside: everyone currently on
// premises, newest entry first.
func (h *ScanHandler) ListInside(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    visits, err := h.Visits.ListInside(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, visits)
}

// MemberVisits handles GET /v1/members/:id/visits.
func (h *ScanHandler) MemberVisits(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    limit := queryLimit(c, 50, 200)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    visits, err := h.Visits.ListByMember(ctx, id, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, visits)
}

// RecentEvents handles GET /v1/card-events: the latest rows of the
// scan audit trail.
func (h *ScanHandler) RecentEvents(c echo.Context) error {
    limit := queryLimit(c, 50, 200)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    events, err := h.Events.ListRecent(ctx, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, events)
}

// queryLimit parses the ?limit= parameter with a default and a cap.
func queryLimit(c echo.Context, def, max int) int {
    if raw := c.QueryParam("limit"); raw != "" {
        if n, err := strconv.Atoi(raw); err == nil && n > 0 {
            if n > max {
                return max
            }
            return n
        }
    }
    return def
}
