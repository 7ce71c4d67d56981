package flights

import (
	"skytrip/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupFlightRoutes(router *gin.RouterGroup, controller Controller) {
	// Public routes - browsing and searching the catalog needs no account
	publicFlights := router.Group("/flights")
	{
		publicFlights.GET("", controller.GetAllFlights)        // GET /api/v1/flights - Browse catalog
		publicFlights.GET("/search", controller.SearchFlights) // GET /api/v1/flights/search?from=&to=&date=&returnDate=
		publicFlights.GET("/:flightId", controller.GetFlight)  // GET /api/v1/flights/:flightId - Flight details
	}

	// Admin routes - catalog management
	adminFlights := router.Group("/admin/flights")
	adminFlights.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminFlights.POST("", controller.CreateFlight)             // POST /api/v1/admin/flights - Create flight
		adminFlights.PUT("/:flightId", controller.UpdateFlight)    // PUT /api/v1/admin/flights/:flightId - Update flight
		adminFlights.DELETE("/:flightId", controller.DeleteFlight) // DELETE /api/v1/admin/flights/:flightId - Delete flight
	}
}
