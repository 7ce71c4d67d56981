// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"skytrip/internal/analytics"
	"skytrip/internal/auth"
	"skytrip/internal/bookings"
	"skytrip/internal/flights"
	"skytrip/internal/notifications"
	"skytrip/internal/refunds"
	"skytrip/internal/seats"
	"skytrip/internal/shared/config"
	"skytrip/internal/shared/database"
	"skytrip/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config              *config.Config
	db                  *database.DB
	cacheService        cache.Service
	notificationService notifications.NotificationService

	// Services shared across modules
	flightService  flights.Service
	seatService    seats.Service
	bookingService bookings.Service
	userService    *auth.UserServiceAdapter
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB) *Router {
	return &Router{
		config: cfg,
		db:     db,
	}
}

// SetCacheService injects the cache service used by catalog and seat reads
func (r *Router) SetCacheService(cacheService cache.Service) {
	r.cacheService = cacheService
}

// SetNotificationService injects the Kafka-backed notification pipeline
func (r *Router) SetNotificationService(notificationService notifications.NotificationService) {
	r.notificationService = notificationService
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Auth first: it owns the user repository the notification
		// adapters resolve recipients through
		r.setupAuthRoutes(api)

		// Flight catalog and seat ledger feed the booking aggregate
		r.setupFlightRoutes(api)

		// Bookings before refunds: the refund ledger mutates bookings
		// through the booking service only
		r.setupBookingRoutes(api)
		r.setupRefundRoutes(api)

		r.setupAnalyticsRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		// Perform health checks
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "skytrip-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "skytrip-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController)

	// Notification adapters resolve recipients through this
	r.userService = auth.NewUserServiceAdapter(authRepo)

	authRouter.SetupRoutes(rg)
}

// setupFlightRoutes configures the flight catalog routes
func (r *Router) setupFlightRoutes(rg *gin.RouterGroup) {
	flightRepo := flights.NewRepository(r.db.GetPostgreSQL())
	flightService := flights.NewService(flightRepo)
	if r.cacheService != nil {
		flightService.SetCacheService(r.cacheService)
	}
	flightController := flights.NewController(flightService)

	r.flightService = flightService

	flights.SetupFlightRoutes(rg, flightController)
}

// setupBookingRoutes configures booking management routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	seatRepo := seats.NewRepository(r.db.GetPostgreSQL())
	seatService := seats.NewService(seatRepo)
	if r.cacheService != nil {
		seatService.SetCacheService(r.cacheService)
	}
	r.seatService = seatService

	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	bookingService := bookings.NewService(bookingRepo, r.flightService, seatService)
	if r.cacheService != nil {
		bookingService.SetCacheService(r.cacheService)
	}
	if r.notificationService != nil {
		bookingService.SetNotifier(notifications.NewBookingNotifierAdapter(r.notificationService, r.userService))
	}
	r.bookingService = bookingService

	bookingController := bookings.NewController(bookingService)
	bookings.SetupBookingRoutes(rg, bookingController)
}

// setupRefundRoutes configures the refund request ledger routes
func (r *Router) setupRefundRoutes(rg *gin.RouterGroup) {
	refundRepo := refunds.NewRepository(r.db.GetPostgreSQL())
	refundService := refunds.NewService(refundRepo, r.bookingService)
	if r.notificationService != nil {
		refundService.SetNotifier(notifications.NewRefundNotifierAdapter(r.notificationService, r.userService))
	}

	refundController := refunds.NewController(refundService)
	refunds.SetupRefundRoutes(rg, refundController)
}

// setupAnalyticsRoutes configures admin analytics routes
func (r *Router) setupAnalyticsRoutes(rg *gin.RouterGroup) {
	analyticsRepo := analytics.NewRepository(r.db.GetPostgreSQL())
	analyticsService := analytics.NewService(analyticsRepo)
	if r.cacheService != nil {
		analyticsService.SetCacheService(r.cacheService)
	}
	analyticsController := analytics.NewController(analyticsService)

	analytics.SetupAnalyticsRoutes(rg, analyticsController)
}
