package router // router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "clubaccess/internal/handler"    // cashier handlers
    "clubaccess/internal/middleware" // JWT + role middlewares
    "clubaccess/internal/model"
)

// RegisterCashier registers the payment endpoints under /v1.  Payments
// are entered by the cashier; admin keeps access for corrections.
func RegisterCashier(e *echo.Echo, p *handler.PaymentHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleCashier, model.RoleAdmin),
    )

    g.POST("/payments", p.Create)
    g.PATCH("/payments/:id/status", p.UpdateStatus)
    g.GET("/members/:id/payments", p.ListByMember)
}
