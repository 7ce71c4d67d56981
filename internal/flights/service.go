package flights

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"skytrip/internal/shared/apperrors"
	"skytrip/internal/shared/constants"
	"skytrip/pkg/cache"
	"skytrip/pkg/logger"
)

type Service interface {
	SetCacheService(cacheService cache.Service)

	CreateFlight(adminID uuid.UUID, req CreateFlightRequest) (*Flight, error)
	GetFlightByID(id uuid.UUID) (*Flight, error)
	UpdateFlight(id uuid.UUID, adminID uuid.UUID, req UpdateFlightRequest) (*Flight, error)
	DeleteFlight(id uuid.UUID, adminID uuid.UUID) error

	GetAllFlights(query ListQuery) (*PaginatedFlights, error)
	SearchFlights(query SearchQuery) (*SearchResult, error)
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

// invalidateCatalogCache drops every catalog-derived key after an admin write.
// A failed invalidation is logged by the caller, never surfaced to the client.
func (s *service) invalidateCatalogCache(ctx context.Context) error {
	if s.cacheService == nil {
		return nil
	}
	return s.cacheService.DeletePattern(ctx, constants.FlightCachePattern())
}

func validateFlightDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}
	return nil
}

func validateDepartureTime(t string) error {
	if t == "" {
		return nil
	}
	if _, err := time.Parse("15:04", t); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("invalid time %q, expected HH:MM", t))
	}
	return nil
}

func (s *service) CreateFlight(adminID uuid.UUID, req CreateFlightRequest) (*Flight, error) {
	if err := validateFlightDate(req.Date); err != nil {
		return nil, err
	}
	if err := validateDepartureTime(req.DepartureTime); err != nil {
		return nil, err
	}
	if err := validateDepartureTime(req.ArrivalTime); err != nil {
		return nil, err
	}
	if strings.EqualFold(strings.TrimSpace(req.From), strings.TrimSpace(req.To)) {
		return nil, apperrors.InvalidInput("origin and destination must differ")
	}

	class := req.Class
	if class == "" {
		class = "Economy"
	}

	flight := &Flight{
		From:          strings.TrimSpace(req.From),
		To:            strings.TrimSpace(req.To),
		Date:          req.Date,
		Price:         req.Price,
		Airline:       req.Airline,
		FlightNumber:  req.FlightNumber,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		Duration:      req.Duration,
		Class:         class,
		Seats:         SeatList(dedupeSeats(req.Seats)),
	}

	if err := s.repo.Create(flight); err != nil {
		return nil, err
	}

	logger.GetDefault().LogFlightCreated(context.Background(), flight.ID.String(), adminID.String())

	if err := s.invalidateCatalogCache(context.Background()); err != nil {
		fmt.Printf("Warning: failed to invalidate flight cache after create: %v\n", err)
	}

	return flight, nil
}

func (s *service) GetFlightByID(id uuid.UUID) (*Flight, error) {
	ctx := context.Background()

	if s.cacheService != nil {
		var cached Flight
		if err := s.cacheService.Get(ctx, constants.FlightDetailKey(id.String()), &cached); err == nil {
			return &cached, nil
		}
	}

	flight, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if s.cacheService != nil {
		if err := s.cacheService.Set(ctx, constants.FlightDetailKey(id.String()), flight, constants.TTL_CATALOG_DETAIL); err != nil {
			fmt.Printf("Warning: failed to cache flight %s: %v\n", id, err)
		}
	}

	return flight, nil
}

func (s *service) UpdateFlight(id uuid.UUID, adminID uuid.UUID, req UpdateFlightRequest) (*Flight, error) {
	updates := make(map[string]interface{})

	if req.From != nil {
		updates["origin"] = strings.TrimSpace(*req.From)
	}
	if req.To != nil {
		updates["destination"] = strings.TrimSpace(*req.To)
	}
	if req.Date != nil {
		if err := validateFlightDate(*req.Date); err != nil {
			return nil, err
		}
		updates["date"] = *req.Date
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Airline != nil {
		updates["airline"] = *req.Airline
	}
	if req.FlightNumber != nil {
		updates["flight_number"] = *req.FlightNumber
	}
	if req.DepartureTime != nil {
		if err := validateDepartureTime(*req.DepartureTime); err != nil {
			return nil, err
		}
		updates["departure_time"] = *req.DepartureTime
	}
	if req.ArrivalTime != nil {
		updates["arrival_time"] = *req.ArrivalTime
	}
	if req.Duration != nil {
		updates["duration"] = *req.Duration
	}
	if req.Class != nil {
		updates["class"] = *req.Class
	}
	if req.Seats != nil {
		updates["seats"] = SeatList(dedupeSeats(req.Seats))
	}

	if len(updates) == 0 {
		return nil, apperrors.InvalidInput("no fields to update")
	}

	flight, err := s.repo.Update(id, updates)
	if err != nil {
		return nil, err
	}

	if err := s.invalidateCatalogCache(context.Background()); err != nil {
		fmt.Printf("Warning: failed to invalidate flight cache after update: %v\n", err)
	}

	return flight, nil
}

func (s *service) DeleteFlight(id uuid.UUID, adminID uuid.UUID) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}

	if err := s.invalidateCatalogCache(context.Background()); err != nil {
		fmt.Printf("Warning: failed to invalidate flight cache after delete: %v\n", err)
	}

	return nil
}

func (s *service) GetAllFlights(query ListQuery) (*PaginatedFlights, error) {
	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	flightList, totalCount, err := s.repo.GetAll(query)
	if err != nil {
		return nil, err
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(query.Limit)))

	return &PaginatedFlights{
		Flights:    flightList,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
	}, nil
}

// SearchFlights resolves outbound candidates and, when a return date is given,
// return candidates on the reversed route. An empty result set is a valid
// answer, not an error.
func (s *service) SearchFlights(query SearchQuery) (*SearchResult, error) {
	if err := validateFlightDate(query.Date); err != nil {
		return nil, err
	}
	if query.ReturnDate != "" {
		if err := validateFlightDate(query.ReturnDate); err != nil {
			return nil, err
		}
		if query.ReturnDate < query.Date {
			return nil, apperrors.InvalidInput("return date must not be before the outbound date")
		}
	}
	if strings.EqualFold(strings.TrimSpace(query.From), strings.TrimSpace(query.To)) {
		return nil, apperrors.InvalidInput("origin and destination must differ")
	}

	ctx := context.Background()

	outbound, err := s.searchCached(ctx, query.From, query.To, query.Date)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		OutboundFlights: outbound,
		ReturnFlights:   []Flight{},
	}

	if query.ReturnDate != "" {
		returns, err := s.searchCached(ctx, query.To, query.From, query.ReturnDate)
		if err != nil {
			return nil, err
		}
		result.ReturnFlights = returns
	}

	return result, nil
}

func (s *service) searchCached(ctx context.Context, from, to, date string) ([]Flight, error) {
	if s.cacheService == nil {
		return s.repo.Search(from, to, date)
	}

	key := constants.FlightSearchKey(strings.ToLower(from), strings.ToLower(to), date)

	var flightList []Flight
	err := s.cacheService.GetOrSet(ctx, key, constants.TTL_CATALOG_SEARCH, func() (interface{}, error) {
		return s.repo.Search(from, to, date)
	}, &flightList)
	if err != nil {
		// Cache layer trouble must not take the search down
		return s.repo.Search(from, to, date)
	}

	if flightList == nil {
		flightList = []Flight{}
	}
	return flightList, nil
}

func dedupeSeats(seats []string) []string {
	seen := make(map[string]bool, len(seats))
	var out []string
	for _, seat := range seats {
		seat = strings.ToUpper(strings.TrimSpace(seat))
		if seat == "" || seen[seat] {
			continue
		}
		seen[seat] = true
		out = append(out, seat)
	}
	return out
}
