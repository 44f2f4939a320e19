package router // router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "clubaccess/internal/handler"    // admin handlers
    "clubaccess/internal/middleware" // JWT + role middlewares
    "clubaccess/internal/model"
)

// RegisterAdmin registers the member and vehicle registries under /v1.
// All routes require a valid JWT and the admin role.
func RegisterAdmin(e *echo.Echo, m *handler.MemberHandler, v *handler.VehicleHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin),
    )

    // ---- Members ----
    g.POST("/members", m.Create)
    g.GET("/members", m.List)
    g.GET("/members/:id", m.Get)
    g.PUT("/members/:id", m.Update)
    g.PATCH("/members/:id", m.Update)
    g.PATCH("/members/:id/status", m.UpdateStatus)
    g.DELETE("/members/:id", m.Delete)
    g.POST("/members/:id/badge", m.ReissueBadge)
    g.POST("/members/:id/credentials", m.IssueCredentials)

    // ---- Vehicles ----
    g.POST("/vehicles", v.Create)
    g.GET("/members/:id/vehicles", v.ListByMember)
    g.PUT("/vehicles/:id", v.Update)
    g.PATCH("/vehicles/:id", v.Update)
    g.DELETE("/vehicles/:id", v.Delete)
}
