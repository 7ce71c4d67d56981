package refunds

import (
	"skytrip/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRefundRoutes configures all refund-related routes
func SetupRefundRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Payment-provider callback, authenticated by the provider not by users
	rg.POST("/refunds/webhook/payment", controller.HandlePaymentWebhook)

	refunds := rg.Group("/refunds")
	refunds.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		refunds.POST("", controller.CreateRefundRequest)     // POST /api/v1/refunds
		refunds.GET("/mine", controller.GetMyRefundRequests) // GET /api/v1/refunds/mine

		refunds.GET("", middleware.RequireAdmin(), controller.GetAllRefundRequests)                   // GET /api/v1/refunds (admin)
		refunds.PATCH("/:requestId/status", middleware.RequireAdmin(), controller.UpdateRefundStatus) // PATCH /api/v1/refunds/:requestId/status (admin)
	}

	adminRefunds := rg.Group("/admin/refunds")
	adminRefunds.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminRefunds.GET("/policy", controller.GetRefundPolicy)    // GET /api/v1/admin/refunds/policy
		adminRefunds.PUT("/policy", controller.UpsertRefundPolicy) // PUT /api/v1/admin/refunds/policy
	}
}
