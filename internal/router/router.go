package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "clubaccess/internal/handler"    // import the handlers that implement business logic
    "clubaccess/internal/middleware" // import middleware for JWT authentication and role enforcement
    "clubaccess/internal/model"      // role constants shared with the users table
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // The health endpoint is used by load balancers and monitoring
    // systems to verify that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.  The limiter is
// applied to the unauthenticated group to slow down credential
// guessing; pass nil to skip it.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
    g := e.Group("/v1/auth")
    if limiter != nil {
        g.Use(limiter)
    }
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Refresh rotates the refresh token; refresh-access only issues a
    // new access token.
    g.POST("/refresh", a.Refresh)
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout accepts a refresh token in the body or a bearer access
    // token, so it is registered outside the JWT middleware.
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole(
        model.RoleAdmin, model.RoleSecurity, model.RoleCashier, model.RoleMember,
    ))
    auth.GET("/me", a.Me)
}
