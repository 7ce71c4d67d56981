package analytics

import "time"

// DashboardAnalytics is the admin dashboard payload.
type DashboardAnalytics struct {
	Overview       OverviewMetrics     `json:"overview"`
	BookingMetrics BookingOverview     `json:"booking_metrics"`
	RefundMetrics  RefundOverview      `json:"refund_metrics"`
	TopRoutes      []RoutePerformance  `json:"top_routes"`
	BookingTrends  []DailyBookingStats `json:"booking_trends"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

type OverviewMetrics struct {
	TotalFlights  int     `json:"total_flights"`
	TotalUsers    int     `json:"total_users"`
	TotalBookings int     `json:"total_bookings"`
	TotalRevenue  float64 `json:"total_revenue"`
}

type BookingOverview struct {
	PendingBookings     int     `json:"pending_bookings"`
	ConfirmedBookings   int     `json:"confirmed_bookings"`
	CancelledBookings   int     `json:"cancelled_bookings"`
	RefundedBookings    int     `json:"refunded_bookings"`
	ReturnLegBookings   int     `json:"return_leg_bookings"`
	AverageBookingValue float64 `json:"average_booking_value"`
	ConfirmationRate    float64 `json:"confirmation_rate"`
	CancellationRate    float64 `json:"cancellation_rate"`
}

type RefundOverview struct {
	TotalRequests     int     `json:"total_requests"`
	PendingRequests   int     `json:"pending_requests"`
	ApprovedRequests  int     `json:"approved_requests"`
	RejectedRequests  int     `json:"rejected_requests"`
	ProcessedRequests int     `json:"processed_requests"`
	TotalRefunded     float64 `json:"total_refunded"`
	ApprovalRate      float64 `json:"approval_rate"`
}

type RoutePerformance struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	Bookings     int     `json:"bookings"`
	Revenue      float64 `json:"revenue"`
	FlightsCount int     `json:"flights_count"`
}

type DailyBookingStats struct {
	Date          time.Time `json:"date"`
	TotalBookings int       `json:"total_bookings"`
	Confirmed     int       `json:"confirmed"`
	Cancelled     int       `json:"cancelled"`
	Revenue       float64   `json:"revenue"`
}
