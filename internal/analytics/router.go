package analytics

import (
	"skytrip/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAnalyticsRoutes(router *gin.RouterGroup, controller Controller) {
	// All analytics are admin-only
	adminAnalytics := router.Group("/admin/analytics")
	adminAnalytics.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminAnalytics.GET("/dashboard", controller.GetDashboard)              // GET /api/v1/admin/analytics/dashboard
		adminAnalytics.GET("/bookings", controller.GetBookingOverview)         // GET /api/v1/admin/analytics/bookings
		adminAnalytics.GET("/bookings/daily", controller.GetDailyBookingStats) // GET /api/v1/admin/analytics/bookings/daily?days=30
		adminAnalytics.GET("/refunds", controller.GetRefundOverview)           // GET /api/v1/admin/analytics/refunds
		adminAnalytics.GET("/routes", controller.GetTopRoutes)                 // GET /api/v1/admin/analytics/routes?limit=10
	}
}
