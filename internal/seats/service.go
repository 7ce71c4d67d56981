package seats

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"skytrip/internal/shared/constants"
	"skytrip/pkg/cache"
)

type Service interface {
	SetCacheService(cacheService cache.Service)

	IsSeatTaken(ctx context.Context, flightID uuid.UUID, seatCode string) (bool, error)
	ListTakenSeats(ctx context.Context, flightID uuid.UUID) ([]string, error)
}

type service struct {
	repo         Repository
	cacheService cache.Service
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

// IsSeatTaken always reads the store directly. The answer gates a write, so
// a stale cached value here would reopen the double-booking window the
// seat_allocations index exists to close.
func (s *service) IsSeatTaken(ctx context.Context, flightID uuid.UUID, seatCode string) (bool, error) {
	return s.repo.IsSeatTaken(ctx, flightID, strings.ToUpper(strings.TrimSpace(seatCode)))
}

// ListTakenSeats serves the seat-map view. A short cache window is fine here
// because booking writes invalidate the key.
func (s *service) ListTakenSeats(ctx context.Context, flightID uuid.UUID) ([]string, error) {
	if s.cacheService == nil {
		return s.repo.ListTakenSeats(ctx, flightID)
	}

	key := constants.BookedSeatsKey(flightID.String())

	var seatCodes []string
	err := s.cacheService.GetOrSet(ctx, key, constants.TTL_BOOKED_SEATS, func() (interface{}, error) {
		return s.repo.ListTakenSeats(ctx, flightID)
	}, &seatCodes)
	if err != nil {
		fmt.Printf("Warning: seat cache unavailable for flight %s: %v\n", flightID, err)
		return s.repo.ListTakenSeats(ctx, flightID)
	}

	if seatCodes == nil {
		seatCodes = []string{}
	}
	return seatCodes, nil
}
