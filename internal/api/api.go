// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/harveystores/reorder-backend/internal/api/handlers"
	"github.com/harveystores/reorder-backend/internal/api/middleware"
	"github.com/harveystores/reorder-backend/internal/service"
)

func NewRouter(orderService *service.OrderService, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	orderHandler := handlers.NewOrderHandler(orderService)
	orderGroup := apiGroup.Group("/orders")
	{
		orderGroup.POST("", orderHandler.CreateSession)
		orderGroup.GET("", orderHandler.ListSessions)
		orderGroup.GET("/:id", orderHandler.GetSession)
		orderGroup.DELETE("/:id", orderHandler.DeleteSession)
		orderGroup.PUT("/:id/notes", orderHandler.UpdateNotes)
		orderGroup.POST("/:id/complete", orderHandler.CompleteSession)
		orderGroup.POST("/:id/duplicate", orderHandler.DuplicateSession)
		orderGroup.POST("/:id/auto_approve_safe", orderHandler.AutoApproveSafe)
		orderGroup.POST("/:id/bulk_update", orderHandler.BulkUpdate)
		orderGroup.GET("/:id/statistics", orderHandler.GetStatistics)
		orderGroup.GET("/:id/export", orderHandler.ExportCSV)
		orderGroup.PUT("/:id/items/:item_id/quantity", orderHandler.UpdateItemQuantity)
		orderGroup.PUT("/:id/items/:item_id/cases", orderHandler.UpdateItemCases)
		orderGroup.PUT("/:id/items/:item_id/cost", orderHandler.UpdateItemCost)
	}

	productGroup := apiGroup.Group("/products")
	{
		productGroup.PUT("/:id/priority", orderHandler.UpdateProductPriority)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
