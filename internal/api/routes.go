package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robnorris1/property-management-system-sub000/internal/metrics"
)

// NewRouter builds the gin engine with middleware, probes and the /api group.
func NewRouter(handler *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(handler.logger))
	router.Use(metrics.GinMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", handler.Healthz)
	router.GET("/readyz", handler.Readyz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	api.Use(Authenticate(handler.tokens))
	{
		api.GET("/properties", handler.ListProperties)
		api.POST("/properties", handler.CreateProperty)
		api.GET("/properties/:id", handler.GetProperty)
		api.PUT("/properties/:id", handler.UpdateProperty)
		api.DELETE("/properties/:id", handler.DeleteProperty)
		api.GET("/properties/:id/appliances", handler.ListAppliances)
		api.GET("/properties/:id/rent-payments", handler.ListRentPayments)
		api.GET("/property-map", handler.PropertyMap)

		api.POST("/appliances", handler.CreateAppliance)
		api.GET("/appliances/:id", handler.GetAppliance)
		api.PUT("/appliances/:id", handler.UpdateAppliance)
		api.DELETE("/appliances/:id", handler.DeleteAppliance)
		api.GET("/appliances/:id/maintenance-records", handler.ListMaintenance)
		api.GET("/appliances/:id/issues", handler.ListIssues)

		api.POST("/maintenance-records", handler.CreateMaintenance)
		api.GET("/maintenance-records/upcoming", handler.UpcomingMaintenance)
		api.GET("/maintenance-records/:id", handler.GetMaintenance)
		api.PUT("/maintenance-records/:id", handler.UpdateMaintenance)
		api.DELETE("/maintenance-records/:id", handler.DeleteMaintenance)

		api.POST("/issues", handler.CreateIssue)
		api.GET("/issues/:id", handler.GetIssue)
		api.PUT("/issues/:id", handler.UpdateIssue)
		api.DELETE("/issues/:id", handler.DeleteIssue)

		api.POST("/rent-payments", handler.CreateRentPayment)
		api.GET("/rent-payments/:id", handler.GetRentPayment)
		api.PUT("/rent-payments/:id", handler.UpdateRentPayment)
		api.DELETE("/rent-payments/:id", handler.DeleteRentPayment)

		api.GET("/dashboard", handler.Dashboard)
		api.GET("/property-analytics", handler.PropertyAnalytics)
		api.GET("/monthly-analytics", handler.MonthlyAnalytics)
	}
}
