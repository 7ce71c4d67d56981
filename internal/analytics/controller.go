package analytics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"skytrip/internal/shared/utils/response"
)

type Controller interface {
	GetDashboard(c *gin.Context)
	GetBookingOverview(c *gin.Context)
	GetRefundOverview(c *gin.Context)
	GetTopRoutes(c *gin.Context)
	GetDailyBookingStats(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) GetDashboard(c *gin.Context) {
	dashboard, err := ctrl.service.GetDashboardAnalytics()
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Dashboard analytics retrieved successfully", dashboard, nil)
}

func (ctrl *controller) GetBookingOverview(c *gin.Context) {
	overview, err := ctrl.service.GetBookingOverview()
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking analytics retrieved successfully", overview, nil)
}

func (ctrl *controller) GetRefundOverview(c *gin.Context) {
	overview, err := ctrl.service.GetRefundOverview()
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Refund analytics retrieved successfully", overview, nil)
}

func (ctrl *controller) GetTopRoutes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	routes, err := ctrl.service.GetTopRoutes(limit)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Top routes retrieved successfully", routes, nil)
}

func (ctrl *controller) GetDailyBookingStats(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	stats, err := ctrl.service.GetDailyBookingStats(days)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Daily booking stats retrieved successfully", stats, nil)
}
