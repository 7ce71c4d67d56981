package bookings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"skytrip/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// actorFromContext reads the identity the auth middleware stored.
func actorFromContext(c *gin.Context) (Actor, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return Actor{}, false
	}

	userUUID, err := uuid.Parse(userID.(string))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Invalid user ID format", nil, nil)
		return Actor{}, false
	}

	role, _ := c.Get("user_role")
	roleStr, _ := role.(string)

	return Actor{ID: userUUID, Admin: roleStr == "ADMIN"}, true
}

// CreateBooking handles POST /bookings
func (ctrl *Controller) CreateBooking(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.CreateOutboundBooking(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Booking created successfully", booking, nil)
}

// AttachReturn handles PUT /bookings/:bookingId/attach-return
func (ctrl *Controller) AttachReturn(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	var req AttachReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.AttachReturnFlight(c.Request.Context(), bookingID, actor, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Return flight attached successfully", booking, nil)
}

// ConfirmPayment handles PATCH /bookings/:bookingId/confirm
func (ctrl *Controller) ConfirmPayment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := ctrl.service.ConfirmPayment(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking confirmed successfully", booking, nil)
}

// CancelBooking handles PATCH /bookings/:bookingId/cancel
func (ctrl *Controller) CancelBooking(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	if err := ctrl.service.CancelBooking(c.Request.Context(), bookingID, actor); err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled successfully", nil, nil)
}

// GetBooking handles GET /bookings/:bookingId
func (ctrl *Controller) GetBooking(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// GetMyBookings handles GET /bookings/mine
func (ctrl *Controller) GetMyBookings(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	bookingList, err := ctrl.service.GetUserBookings(c.Request.Context(), actor.ID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", bookingList, nil)
}

// GetAllBookings handles GET /bookings (admin)
func (ctrl *Controller) GetAllBookings(c *gin.Context) {
	bookingList, err := ctrl.service.GetAllBookings(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", bookingList, nil)
}

// GetBookedSeats handles GET /bookings/flight/:flightId/seats
func (ctrl *Controller) GetBookedSeats(c *gin.Context) {
	flightID, err := uuid.Parse(c.Param("flightId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid flight ID", nil, err.Error())
		return
	}

	seats, err := ctrl.service.GetBookedSeats(c.Request.Context(), flightID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	if seats == nil {
		seats = []string{}
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booked seats retrieved successfully", BookedSeatsResponse{
		FlightID:    flightID.String(),
		BookedSeats: seats,
	}, nil)
}
