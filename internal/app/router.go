// internal/app/router.go
package app

import (
	"net/http"

	"ebeauty-client/internal/domain/auth"
	authHandler "ebeauty-client/internal/handlers/auth"
	bookingHandler "ebeauty-client/internal/handlers/booking"
	catalogHandler "ebeauty-client/internal/handlers/catalog"
	wsHandler "ebeauty-client/internal/handlers/websocket"
	"ebeauty-client/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler    *authHandler.AuthHandler
	ArtistHandler  *catalogHandler.ArtistHandler
	BookingHandler *bookingHandler.BookingHandler
	WSHandler      *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Auth ====================
	api.POST("/auth/login", h.AuthHandler.Login)

	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.GET("/me", h.AuthHandler.GetMe)
	}

	// ==================== Catalog ====================
	api.GET("/artists", h.ArtistHandler.ListArtists)

	// ==================== Bookings ====================
	bookings := api.Group("/bookings")
	bookings.Use(h.AuthMiddleware.WithRole(string(auth.RoleClient))...)
	{
		bookings.POST("", h.BookingHandler.CreateBooking)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.WithRole(string(auth.RoleAdmin))...)
	{
		admin.GET("/ws/stats", h.WSHandler.GetStats)
		admin.POST("/users/:id/logout", h.WSHandler.ForceLogout)
	}
}
