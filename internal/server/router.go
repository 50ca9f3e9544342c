// Package server wires the gin router for the auth HTTP surface.
package server

import (
	"github.com/gin-gonic/gin"

	healthhandler "school-admin-platform/backend/internal/health/handler"
	"school-admin-platform/backend/internal/server/middleware"
	tokenhandler "school-admin-platform/backend/internal/token/handler"
)

// NewRouter builds the gin engine with all routes registered. Public routes
// (register, login, refresh, health) carry no auth middleware; everything else
// requires a valid access token.
func NewRouter(auth *tokenhandler.AuthHandler, health *healthhandler.Handler, validator middleware.AccessValidator) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", health.Live)
	r.GET("/readyz", health.Ready)

	v1 := r.Group("/v1/auth")
	{
		v1.POST("/register", auth.Register)
		v1.POST("/login", auth.Login)
		v1.POST("/refresh", auth.Refresh)
	}

	protected := r.Group("/v1/auth")
	protected.Use(middleware.Auth(validator))
	{
		protected.POST("/logout", auth.Logout)
		protected.POST("/password", auth.ChangePassword)
		protected.GET("/session", auth.Session)
	}

	return r
}
