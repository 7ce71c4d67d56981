package bookings

import (
	"skytrip/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		bookings.POST("", controller.CreateBooking)                         // POST /api/v1/bookings
		bookings.GET("/mine", controller.GetMyBookings)                     // GET /api/v1/bookings/mine
		bookings.GET("/flight/:flightId/seats", controller.GetBookedSeats)  // GET /api/v1/bookings/flight/:flightId/seats
		bookings.GET("/:bookingId", controller.GetBooking)                  // GET /api/v1/bookings/:bookingId
		bookings.PUT("/:bookingId/attach-return", controller.AttachReturn)  // PUT /api/v1/bookings/:bookingId/attach-return
		bookings.PATCH("/:bookingId/confirm", controller.ConfirmPayment)    // PATCH /api/v1/bookings/:bookingId/confirm
		bookings.PATCH("/:bookingId/cancel", controller.CancelBooking)      // PATCH /api/v1/bookings/:bookingId/cancel
	}

	adminBookings := rg.Group("/admin/bookings")
	adminBookings.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminBookings.GET("", controller.GetAllBookings) // GET /api/v1/admin/bookings
	}
}
