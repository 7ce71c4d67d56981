package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository defines the analytics repository interface
type Repository interface {
	GetDashboardAnalytics() (*DashboardAnalytics, error)
	GetOverviewMetrics() (*OverviewMetrics, error)
	GetBookingOverview() (*BookingOverview, error)
	GetRefundOverview() (*RefundOverview, error)
	GetTopRoutes(limit int) ([]RoutePerformance, error)
	GetDailyBookingStats(days int) ([]DailyBookingStats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new analytics repository instance
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetDashboardAnalytics() (*DashboardAnalytics, error) {
	overview, err := r.GetOverviewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get overview metrics: %w", err)
	}

	bookingMetrics, err := r.GetBookingOverview()
	if err != nil {
		return nil, fmt.Errorf("failed to get booking metrics: %w", err)
	}

	refundMetrics, err := r.GetRefundOverview()
	if err != nil {
		return nil, fmt.Errorf("failed to get refund metrics: %w", err)
	}

	topRoutes, err := r.GetTopRoutes(10)
	if err != nil {
		return nil, fmt.Errorf("failed to get top routes: %w", err)
	}

	bookingTrends, err := r.GetDailyBookingStats(30)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily booking stats: %w", err)
	}

	return &DashboardAnalytics{
		Overview:       *overview,
		BookingMetrics: *bookingMetrics,
		RefundMetrics:  *refundMetrics,
		TopRoutes:      topRoutes,
		BookingTrends:  bookingTrends,
		GeneratedAt:    time.Now(),
	}, nil
}

func (r *repository) GetOverviewMetrics() (*OverviewMetrics, error) {
	var metrics OverviewMetrics

	var totalFlights int64
	if err := r.db.Table("flights").Count(&totalFlights).Error; err != nil {
		return nil, fmt.Errorf("failed to count flights: %w", err)
	}
	metrics.TotalFlights = int(totalFlights)

	var totalUsers int64
	if err := r.db.Table("users").Count(&totalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	metrics.TotalUsers = int(totalUsers)

	var totalBookings int64
	if err := r.db.Table("bookings").Count(&totalBookings).Error; err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	metrics.TotalBookings = int(totalBookings)

	// Revenue counts money actually collected, so pending and cancelled
	// bookings are excluded.
	err := r.db.Table("bookings").
		Select("COALESCE(SUM(total_price + COALESCE(return_total_price, 0)), 0)").
		Where("status NOT IN ?", []string{"pending", "cancelled"}).
		Scan(&metrics.TotalRevenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return &metrics, nil
}

func (r *repository) GetBookingOverview() (*BookingOverview, error) {
	var overview BookingOverview

	type statusCount struct {
		Status string
		Count  int
	}

	var counts []statusCount
	err := r.db.Table("bookings").
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	total := 0
	for _, sc := range counts {
		total += sc.Count
		switch sc.Status {
		case "pending":
			overview.PendingBookings = sc.Count
		case "confirmed":
			overview.ConfirmedBookings = sc.Count
		case "cancelled":
			overview.CancelledBookings = sc.Count
		case "refunded":
			overview.RefundedBookings = sc.Count
		}
	}

	var returnLegs int64
	err = r.db.Table("bookings").
		Where("return_flight_id IS NOT NULL").
		Count(&returnLegs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count return-leg bookings: %w", err)
	}
	overview.ReturnLegBookings = int(returnLegs)

	err = r.db.Table("bookings").
		Select("COALESCE(AVG(total_price + COALESCE(return_total_price, 0)), 0)").
		Where("status NOT IN ?", []string{"pending", "cancelled"}).
		Scan(&overview.AverageBookingValue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute average booking value: %w", err)
	}

	if total > 0 {
		overview.ConfirmationRate = float64(overview.ConfirmedBookings) / float64(total) * 100
		overview.CancellationRate = float64(overview.CancelledBookings) / float64(total) * 100
	}

	return &overview, nil
}

func (r *repository) GetRefundOverview() (*RefundOverview, error) {
	var overview RefundOverview

	type statusCount struct {
		Status string
		Count  int
	}

	var counts []statusCount
	err := r.db.Table("refund_requests").
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count refund requests by status: %w", err)
	}

	for _, sc := range counts {
		overview.TotalRequests += sc.Count
		switch sc.Status {
		case "Pending":
			overview.PendingRequests = sc.Count
		case "Approved":
			overview.ApprovedRequests = sc.Count
		case "Rejected":
			overview.RejectedRequests = sc.Count
		case "Processed":
			overview.ProcessedRequests = sc.Count
		}
	}

	err = r.db.Table("refund_requests").
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", "Processed").
		Scan(&overview.TotalRefunded).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum processed refunds: %w", err)
	}

	decided := overview.ApprovedRequests + overview.RejectedRequests + overview.ProcessedRequests
	if decided > 0 {
		overview.ApprovalRate = float64(overview.ApprovedRequests+overview.ProcessedRequests) / float64(decided) * 100
	}

	return &overview, nil
}

func (r *repository) GetTopRoutes(limit int) ([]RoutePerformance, error) {
	var routes []RoutePerformance

	// Outbound legs only keep the route aggregation simple. Return legs show
	// up as bookings on the reverse route's flights either way.
	err := r.db.Raw(`
		SELECT
			f.origin AS "from",
			f.destination AS "to",
			COUNT(b.id) AS bookings,
			COALESCE(SUM(b.total_price), 0) AS revenue,
			COUNT(DISTINCT f.id) AS flights_count
		FROM bookings b
		JOIN flights f ON f.id = b.flight_id
		WHERE b.status NOT IN ('pending', 'cancelled')
		GROUP BY f.origin, f.destination
		ORDER BY bookings DESC
		LIMIT ?
	`, limit).Scan(&routes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top routes: %w", err)
	}

	return routes, nil
}

func (r *repository) GetDailyBookingStats(days int) ([]DailyBookingStats, error) {
	var stats []DailyBookingStats

	since := time.Now().AddDate(0, 0, -days)

	err := r.db.Raw(`
		SELECT
			DATE(created_at) AS date,
			COUNT(*) AS total_bookings,
			COUNT(*) FILTER (WHERE status = 'confirmed') AS confirmed,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled,
			COALESCE(SUM(CASE WHEN status NOT IN ('pending', 'cancelled')
				THEN total_price + COALESCE(return_total_price, 0) ELSE 0 END), 0) AS revenue
		FROM bookings
		WHERE created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY date
	`, since).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get daily booking stats: %w", err)
	}

	return stats, nil
}
