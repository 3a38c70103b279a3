package handler

import (
	"github.com/dafibh/loandesk/loandesk-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers groups the handlers served under /api/v1
type Handlers struct {
	Calculator *CalculatorHandler
	Customer   *CustomerHandler
	Collection *CollectionHandler
	Overdue    *OverdueHandler
	WebSocket  *WebSocketHandler
}

// RegisterRoutes sets up all API routes. collectLimiter throttles payment
// collection per staff member.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, collectLimiter *middleware.RateLimiter, h Handlers, servers []Server) {
	// API docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", OpenAPI3Handler(servers))

	// WebSocket authenticates with a query token
	if h.WebSocket != nil {
		e.GET("/ws", h.WebSocket.HandleWS)
	}

	// API version 1
	api := e.Group("/api/v1")

	// Calculator routes (public)
	calculator := api.Group("/calculator")
	calculator.POST("/simple", h.Calculator.CalculateSimple)
	calculator.POST("/lra", h.Calculator.CalculateLRA)
	calculator.POST("/lra/rederive", h.Calculator.RederiveLRA)
	calculator.GET("/stl", h.Calculator.GetSTL)

	// Customer routes (protected)
	customers := api.Group("/customers")
	customers.Use(authMiddleware.Authenticate())
	customers.GET("/:product/:id", h.Customer.GetCustomer)
	customers.POST("/:product/:id/refresh", h.Customer.RefreshCustomer)
	customers.POST("/:product/:id/collect", h.Collection.CollectPayment, middleware.RateLimitMiddleware(collectLimiter))

	// Collection journal routes (protected)
	collections := api.Group("/collections")
	collections.Use(authMiddleware.Authenticate())
	collections.GET("/:key", h.Collection.GetAttempt)

	// Overdue routes (protected)
	overdue := api.Group("/overdue")
	overdue.Use(authMiddleware.Authenticate())
	overdue.GET("", h.Overdue.GetOverdue)
}
