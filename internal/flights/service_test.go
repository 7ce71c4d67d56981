package flights

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skytrip/internal/shared/apperrors"
)

type memoryFlightRepository struct {
	flights map[uuid.UUID]*Flight
}

func newMemoryFlightRepository() *memoryFlightRepository {
	return &memoryFlightRepository{flights: make(map[uuid.UUID]*Flight)}
}

func (r *memoryFlightRepository) Create(flight *Flight) error {
	flight.ID = uuid.New()
	flight.CreatedAt = time.Now()
	copied := *flight
	r.flights[flight.ID] = &copied
	return nil
}

func (r *memoryFlightRepository) GetByID(id uuid.UUID) (*Flight, error) {
	flight, ok := r.flights[id]
	if !ok {
		return nil, apperrors.NotFound("flight not found")
	}
	copied := *flight
	return &copied, nil
}

func (r *memoryFlightRepository) Update(id uuid.UUID, updates map[string]interface{}) (*Flight, error) {
	flight, ok := r.flights[id]
	if !ok {
		return nil, apperrors.NotFound("flight not found")
	}

	for column, value := range updates {
		switch column {
		case "origin":
			flight.From = value.(string)
		case "destination":
			flight.To = value.(string)
		case "date":
			flight.Date = value.(string)
		case "price":
			flight.Price = value.(float64)
		case "airline":
			flight.Airline = value.(string)
		case "flight_number":
			flight.FlightNumber = value.(string)
		case "departure_time":
			flight.DepartureTime = value.(string)
		case "arrival_time":
			flight.ArrivalTime = value.(string)
		case "duration":
			flight.Duration = value.(string)
		case "class":
			flight.Class = value.(string)
		case "seats":
			flight.Seats = value.(SeatList)
		}
	}

	copied := *flight
	return &copied, nil
}

func (r *memoryFlightRepository) Delete(id uuid.UUID) error {
	if _, ok := r.flights[id]; !ok {
		return apperrors.NotFound("flight not found")
	}
	delete(r.flights, id)
	return nil
}

func (r *memoryFlightRepository) GetAll(query ListQuery) ([]Flight, int64, error) {
	var result []Flight
	for _, flight := range r.flights {
		result = append(result, *flight)
	}
	return result, int64(len(result)), nil
}

func (r *memoryFlightRepository) Search(from, to, date string) ([]Flight, error) {
	var result []Flight
	for _, flight := range r.flights {
		if flight.From == from && flight.To == to && flight.Date == date {
			result = append(result, *flight)
		}
	}
	return result, nil
}

func validFlightRequest() CreateFlightRequest {
	return CreateFlightRequest{
		From:          "Amsterdam",
		To:            "Barcelona",
		Date:          "2026-10-15",
		Price:         120,
		Airline:       "KLM",
		FlightNumber:  "KL1671",
		DepartureTime: "08:15",
		ArrivalTime:   "10:30",
		Duration:      "2h 15m",
		Seats:         []string{"1A", "1B", "2A"},
	}
}

func TestCreateFlight(t *testing.T) {
	svc := NewService(newMemoryFlightRepository())
	adminID := uuid.New()

	flight, err := svc.CreateFlight(adminID, validFlightRequest())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, flight.ID)
	assert.Equal(t, "Amsterdam", flight.From)
	assert.Equal(t, "Economy", flight.Class, "class defaults when omitted")
	assert.Equal(t, SeatList{"1A", "1B", "2A"}, flight.Seats)
}

func TestCreateFlightNormalizesSeats(t *testing.T) {
	svc := NewService(newMemoryFlightRepository())

	req := validFlightRequest()
	req.Seats = []string{" 1a", "1A", "2b ", "", "2B"}

	flight, err := svc.CreateFlight(uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, SeatList{"1A", "2B"}, flight.Seats, "seats are uppercased, trimmed and deduplicated")
}

func TestCreateFlightValidation(t *testing.T) {
	svc := NewService(newMemoryFlightRepository())

	cases := []struct {
		name   string
		mutate func(*CreateFlightRequest)
	}{
		{"bad date format", func(r *CreateFlightRequest) { r.Date = "15-10-2026" }},
		{"bad departure time", func(r *CreateFlightRequest) { r.DepartureTime = "8am" }},
		{"bad arrival time", func(r *CreateFlightRequest) { r.ArrivalTime = "25:99" }},
		{"same origin and destination", func(r *CreateFlightRequest) { r.To = "amsterdam " }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validFlightRequest()
			tc.mutate(&req)

			_, err := svc.CreateFlight(uuid.New(), req)
			require.Error(t, err)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
		})
	}
}

func TestUpdateFlight(t *testing.T) {
	repo := newMemoryFlightRepository()
	svc := NewService(repo)
	adminID := uuid.New()

	flight, err := svc.CreateFlight(adminID, validFlightRequest())
	require.NoError(t, err)

	newPrice := 145.0
	updated, err := svc.UpdateFlight(flight.ID, adminID, UpdateFlightRequest{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 145.0, updated.Price)
	assert.Equal(t, flight.FlightNumber, updated.FlightNumber, "untouched fields survive")

	_, err = svc.UpdateFlight(flight.ID, adminID, UpdateFlightRequest{})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
}

func TestDeleteFlight(t *testing.T) {
	repo := newMemoryFlightRepository()
	svc := NewService(repo)
	adminID := uuid.New()

	flight, err := svc.CreateFlight(adminID, validFlightRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFlight(flight.ID, adminID))

	_, err = svc.GetFlightByID(flight.ID)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestSearchFlightsOneWay(t *testing.T) {
	repo := newMemoryFlightRepository()
	svc := NewService(repo)
	adminID := uuid.New()

	_, err := svc.CreateFlight(adminID, validFlightRequest())
	require.NoError(t, err)

	otherDay := validFlightRequest()
	otherDay.Date = "2026-10-16"
	_, err = svc.CreateFlight(adminID, otherDay)
	require.NoError(t, err)

	result, err := svc.SearchFlights(SearchQuery{From: "Amsterdam", To: "Barcelona", Date: "2026-10-15"})
	require.NoError(t, err)
	require.Len(t, result.OutboundFlights, 1)
	assert.Equal(t, "2026-10-15", result.OutboundFlights[0].Date)
	assert.Empty(t, result.ReturnFlights)
}

func TestSearchFlightsRoundTrip(t *testing.T) {
	repo := newMemoryFlightRepository()
	svc := NewService(repo)
	adminID := uuid.New()

	_, err := svc.CreateFlight(adminID, validFlightRequest())
	require.NoError(t, err)

	back := validFlightRequest()
	back.From, back.To = "Barcelona", "Amsterdam"
	back.Date = "2026-10-20"
	back.FlightNumber = "KL1672"
	_, err = svc.CreateFlight(adminID, back)
	require.NoError(t, err)

	result, err := svc.SearchFlights(SearchQuery{
		From: "Amsterdam", To: "Barcelona",
		Date: "2026-10-15", ReturnDate: "2026-10-20",
	})
	require.NoError(t, err)
	require.Len(t, result.OutboundFlights, 1)
	require.Len(t, result.ReturnFlights, 1)
	assert.Equal(t, "Barcelona", result.ReturnFlights[0].From, "return candidates run the reversed route")
}

func TestSearchFlightsValidation(t *testing.T) {
	svc := NewService(newMemoryFlightRepository())

	cases := []struct {
		name  string
		query SearchQuery
	}{
		{"bad date", SearchQuery{From: "Amsterdam", To: "Barcelona", Date: "soon"}},
		{"return before outbound", SearchQuery{From: "Amsterdam", To: "Barcelona", Date: "2026-10-15", ReturnDate: "2026-10-10"}},
		{"same origin and destination", SearchQuery{From: "Amsterdam", To: "Amsterdam", Date: "2026-10-15"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SearchFlights(tc.query)
			require.Error(t, err)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
		})
	}
}

func TestSearchFlightsEmptyResultIsNotError(t *testing.T) {
	svc := NewService(newMemoryFlightRepository())

	result, err := svc.SearchFlights(SearchQuery{From: "Amsterdam", To: "Barcelona", Date: "2026-10-15"})
	require.NoError(t, err)
	assert.Empty(t, result.OutboundFlights)
}

func TestGetAllFlightsPagination(t *testing.T) {
	repo := newMemoryFlightRepository()
	svc := NewService(repo)
	adminID := uuid.New()

	for i := 0; i < 3; i++ {
		req := validFlightRequest()
		req.FlightNumber = []string{"KL1671", "KL1673", "KL1675"}[i]
		_, err := svc.CreateFlight(adminID, req)
		require.NoError(t, err)
	}

	result, err := svc.GetAllFlights(ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.TotalCount)
	assert.Equal(t, 1, result.Page, "page defaults to 1")
	assert.Equal(t, 10, result.Limit, "limit defaults to 10")
	assert.Equal(t, 1, result.TotalPages)
}

func TestDepartureInstant(t *testing.T) {
	flight := &Flight{Date: "2026-10-15", DepartureTime: "08:15"}
	instant := flight.DepartureInstant()
	assert.Equal(t, time.Date(2026, 10, 15, 8, 15, 0, 0, time.UTC), instant)

	// Missing time falls back to the start of the day
	dateOnly := &Flight{Date: "2026-10-15"}
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), dateOnly.DepartureInstant())

	// Unparseable date yields the zero instant
	broken := &Flight{Date: "someday"}
	assert.True(t, broken.DepartureInstant().IsZero())
}
