package analytics

import (
	"context"
	"fmt"

	"skytrip/internal/shared/constants"
	"skytrip/pkg/cache"
)

// Service defines the analytics service interface
type Service interface {
	GetDashboardAnalytics() (*DashboardAnalytics, error)
	GetBookingOverview() (*BookingOverview, error)
	GetRefundOverview() (*RefundOverview, error)
	GetTopRoutes(limit int) ([]RoutePerformance, error)
	GetDailyBookingStats(days int) ([]DailyBookingStats, error)
	SetCacheService(cacheService cache.Service)
}

type service struct {
	repo         Repository
	cacheService cache.Service
}

// NewService creates a new analytics service instance
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// SetCacheService injects the cache service dependency
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) GetDashboardAnalytics() (*DashboardAnalytics, error) {
	ctx := context.Background()
	cacheKey := constants.CACHE_KEY_ANALYTICS_DASHBOARD

	if s.cacheService != nil {
		var cachedDashboard DashboardAnalytics
		if err := s.cacheService.Get(ctx, cacheKey, &cachedDashboard); err == nil {
			return &cachedDashboard, nil
		}
	}

	dashboard, err := s.repo.GetDashboardAnalytics()
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard analytics: %w", err)
	}

	if s.cacheService != nil {
		if err := s.cacheService.Set(ctx, cacheKey, dashboard, constants.TTL_ANALYTICS_DASHBOARD); err != nil {
			fmt.Printf("Warning: failed to cache dashboard analytics: %v\n", err)
		}
	}

	return dashboard, nil
}

func (s *service) GetBookingOverview() (*BookingOverview, error) {
	return s.repo.GetBookingOverview()
}

func (s *service) GetRefundOverview() (*RefundOverview, error) {
	return s.repo.GetRefundOverview()
}

func (s *service) GetTopRoutes(limit int) ([]RoutePerformance, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	ctx := context.Background()
	cacheKey := fmt.Sprintf("%s:limit:%d", constants.CACHE_KEY_ANALYTICS_ROUTES, limit)

	if s.cacheService != nil {
		var cachedRoutes []RoutePerformance
		if err := s.cacheService.Get(ctx, cacheKey, &cachedRoutes); err == nil {
			return cachedRoutes, nil
		}
	}

	routes, err := s.repo.GetTopRoutes(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top routes: %w", err)
	}

	if s.cacheService != nil {
		if err := s.cacheService.Set(ctx, cacheKey, routes, constants.TTL_ANALYTICS_ROUTES); err != nil {
			fmt.Printf("Warning: failed to cache top routes: %v\n", err)
		}
	}

	return routes, nil
}

func (s *service) GetDailyBookingStats(days int) ([]DailyBookingStats, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	return s.repo.GetDailyBookingStats(days)
}
