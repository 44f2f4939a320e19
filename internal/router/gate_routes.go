package router // router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "clubaccess/internal/handler"    // gate handlers
    "clubaccess/internal/middleware" // JWT + role middlewares
    "clubaccess/internal/model"
)

// RegisterGate registers the gate-station endpoints under /v1.  The
// scan itself is restricted to security and admin; the dashboards are
// readable by all staff roles.  The limiter guards the scan endpoint
// against a stuck or looping scanner device; pass nil to skip it.
func RegisterGate(e *echo.Echo, s *handler.ScanHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleSecurity, model.RoleAdmin),
    )

    // ---- Scanning ----
    if limiter != nil {
        g.POST("/scan", s.Scan, limiter)
    } else {
        g.POST("/scan", s.Scan)
    }
    g.GET("/scan/queue", s.QueueStatus)

    // ---- Dashboards ----
    staff := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleSecurity, model.RoleAdmin, model.RoleCashier),
    )
    staff.GET("/visits/inside", s.ListInside)
    staff.GET("/members/:id/visits", s.MemberVisits)
    staff.GET("/card-events", s.RecentEvents)
}

// RegisterNotifications registers the alert feed for all staff roles.
func RegisterNotifications(e *echo.Echo, n *handler.NotificationHandler, jwtSecret string) {
    g := e.Group(
        "/v1/notifications",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin, model.RoleSecurity, model.RoleCashier),
    )
    g.GET("", n.List)
    g.PATCH("/:id/read", n.MarkRead)
}
