package refunds

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"skytrip/internal/bookings"
	"skytrip/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func actorFromContext(c *gin.Context) (bookings.Actor, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return bookings.Actor{}, false
	}

	userUUID, err := uuid.Parse(userID.(string))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Invalid user ID format", nil, nil)
		return bookings.Actor{}, false
	}

	role, _ := c.Get("user_role")
	roleStr, _ := role.(string)

	return bookings.Actor{ID: userUUID, Admin: roleStr == "ADMIN"}, true
}

// CreateRefundRequest handles POST /refunds
func (ctrl *Controller) CreateRefundRequest(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var input CreateRefundRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	request, err := ctrl.service.CreateRefundRequest(c.Request.Context(), actor, input)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Refund request created successfully", request, nil)
}

// GetMyRefundRequests handles GET /refunds/mine
func (ctrl *Controller) GetMyRefundRequests(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	requests, err := ctrl.service.GetMyRefundRequests(c.Request.Context(), actor.ID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Refund requests retrieved successfully", requests, nil)
}

// GetAllRefundRequests handles GET /refunds (admin)
func (ctrl *Controller) GetAllRefundRequests(c *gin.Context) {
	requests, err := ctrl.service.GetAllRefundRequests(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Refund requests retrieved successfully", requests, nil)
}

// UpdateRefundStatus handles PATCH /refunds/:requestId/status (admin)
func (ctrl *Controller) UpdateRefundStatus(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid refund request ID", nil, err.Error())
		return
	}

	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	request, err := ctrl.service.UpdateStatus(c.Request.Context(), requestID, input)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Refund request updated successfully", request, nil)
}

// HandlePaymentWebhook handles POST /refunds/webhook/payment
func (ctrl *Controller) HandlePaymentWebhook(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid webhook payload", nil, err.Error())
		return
	}

	if err := ctrl.service.HandlePaymentWebhook(c.Request.Context(), payload); err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Webhook received", map[string]interface{}{"received": true}, nil)
}

// GetRefundPolicy handles GET /admin/refunds/policy
func (ctrl *Controller) GetRefundPolicy(c *gin.Context) {
	policy, err := ctrl.service.GetActivePolicy(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Refund policy retrieved successfully", policy, nil)
}

// UpsertRefundPolicy handles PUT /admin/refunds/policy
func (ctrl *Controller) UpsertRefundPolicy(c *gin.Context) {
	var input UpsertPolicyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	policy, err := ctrl.service.UpsertPolicy(c.Request.Context(), input)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Refund policy updated successfully", policy, nil)
}
