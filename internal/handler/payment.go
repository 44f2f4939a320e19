package handler

import (
    "context"
    "database/sql"
    "fmt"
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "clubaccess/internal/model"
    "clubaccess/internal/repository"
)

// PaymentHandler implements the cashier flow: recording payments,
// moving them through their lifecycle and listing a member's history.
type PaymentHandler struct {
    Payments      *repository.PaymentRepo
    Members       *repository.MemberRepo
    Notifications *repository.NotificationRepo
}

func NewPaymentHandler(p *repository.PaymentRepo, m *repository.MemberRepo, n *repository.NotificationRepo) *PaymentHandler {
    return &PaymentHandler{Payments: p, Members: m, Notifications: n}
}

type paymentReq struct {
    MemberID    uint64  `json:"member_id"`
    AmountCents uint32  `json:"amount_cents"`
    Type        string  `json:"type"`
    Method      *string `json:"method"`
    Status      *string `json:"status"`
    Reference   *string `json:"reference"`
    Notes       *string `json:"notes"`
    PaymentDate *string `json:"payment_date"` // RFC3339; defaults to now
}

func validPaymentStatus(s string) bool {
    return s == model.PaymentPending || s == model.PaymentCompleted || s == model.PaymentCancelled
}

// Create handles POST /v1/payments.  The cashier records the payment
// after the money changed hands, so the default status is completed.
func (h *PaymentHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req paymentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.MemberID == 0 || req.AmountCents == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_id and amount_cents are required"})
    }
    ptype := strings.TrimSpace(req.Type)
    if ptype == "" {
        ptype = "monthly_fee"
    }
    status := model.PaymentCompleted
    if req.Status != nil {
        s := strings.ToLower(strings.TrimSpace(*req.Status))
        if !validPaymentStatus(s) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
        }
        status = s
    }
    paymentDate := time.Now().UTC()
    if req.PaymentDate != nil {
        t, err := time.Parse(time.RFC3339, *req.PaymentDate)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_date must be RFC3339"})
        }
        paymentDate = t.UTC()
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    m, err := h.Members.GetByID(ctx, req.MemberID)
    if err != nil {
        if err == repository.ErrMemberNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    p := model.Payment{
        MemberID:    req.MemberID,
        AmountCents: req.AmountCents,
        Type:        ptype,
        Method:      req.Method,
        Status:      status,
        Reference:   req.Reference,
        Notes:       req.Notes,
        RecordedBy:  &uid,
        PaymentDate: paymentDate,
    }
    if err := h.Payments.Create(ctx, &p); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create payment failed"})
    }

    if status == model.PaymentCompleted {
        h.notifyPayment(ctx, m, p)
    }
    return c.JSON(http.StatusCreated, p)
}

// UpdateStatus handles PATCH /v1/payments/:id/status.  Completing a
// pending payment stamps the member and clears an overdue status.
func (h *PaymentHandler) UpdateStatus(c echo.Context) error {
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
    if !validPaymentStatus(status) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    p, err := h.Payments.UpdateStatus(ctx, id, status)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }

    if status == model.PaymentCompleted {
        if m, err := h.Members.GetByID(ctx, p.MemberID); err == nil {
            h.notifyPayment(ctx, m, p)
        }
    }
    return c.JSON(http.StatusOK, p)
}

// ListByMember handles GET /v1/members/:id/payments.
func (h *PaymentHandler) ListByMember(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    payments, err := h.Payments.ListByMember(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, payments)
}

// notifyPayment emits a dashboard alert for a completed payment.  The
// payment itself is already committed; a failed alert is only logged.
func (h *PaymentHandler) notifyPayment(ctx context.Context, m model.Member, p model.Payment) {
    memberID := m.ID
    n := model.Notification{
        Title:    "Payment received",
        Message:  fmt.Sprintf("Payment of %.2f received from %s (%s).", float64(p.AmountCents)/100, m.FullName, m.MemberNumber),
        Type:     model.NotifPayment,
        MemberID: &memberID,
    }
    if err := h.Notifications.Create(ctx, &n); err != nil {
        log.Printf("payment: notification write failed: %v", err)
    }
}
