package bookings

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skytrip/internal/flights"
	"skytrip/internal/shared/apperrors"
)

// seatHold is one row of the in-memory seat_allocations mirror.
type seatHold struct {
	bookingID uuid.UUID
	leg       string
}

// memoryRepository is an in-memory stand-in for the PostgreSQL repository. It
// keeps an allocations map keyed by (flight, seat), mirroring the
// seat_allocations unique index, so both legs contend for the same key and
// concurrency behavior can be exercised without a database.
type memoryRepository struct {
	mu          sync.Mutex
	bookings    map[uuid.UUID]*Booking
	allocations map[string]seatHold
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		bookings:    make(map[uuid.UUID]*Booking),
		allocations: make(map[string]seatHold),
	}
}

func seatKey(flightID uuid.UUID, seat string) string {
	return flightID.String() + "|" + strings.ToUpper(seat)
}

func (r *memoryRepository) Create(ctx context.Context, booking *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking.ID = uuid.New()
	booking.CreatedAt = time.Now()

	if booking.SeatNumber != nil {
		key := seatKey(booking.FlightID, *booking.SeatNumber)
		if _, held := r.allocations[key]; held {
			return apperrors.SeatConflict("seat is already booked on this flight")
		}
		r.allocations[key] = seatHold{bookingID: booking.ID, leg: LegOutbound}
	}

	copied := *booking
	r.bookings[booking.ID] = &copied
	return nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking not found")
	}
	copied := *booking
	return &copied, nil
}

func (r *memoryRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Booking
	for _, b := range r.bookings {
		if b.UserID == userID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (r *memoryRepository) GetAll(ctx context.Context) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Booking
	for _, b := range r.bookings {
		result = append(result, *b)
	}
	return result, nil
}

func (r *memoryRepository) ReplaceReturnLeg(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return apperrors.NotFound("booking not found")
	}

	returnFlightID := updates["return_flight_id"].(uuid.UUID)
	seat, _ := updates["return_seat_number"].(*string)
	if seat != nil {
		key := seatKey(returnFlightID, *seat)
		if hold, held := r.allocations[key]; held && !(hold.bookingID == id && hold.leg == LegReturn) {
			return apperrors.SeatConflict("seat is already booked on the return flight")
		}
	}
	for key, hold := range r.allocations {
		if hold.bookingID == id && hold.leg == LegReturn {
			delete(r.allocations, key)
		}
	}
	if seat != nil {
		r.allocations[seatKey(returnFlightID, *seat)] = seatHold{bookingID: id, leg: LegReturn}
	}

	booking.ReturnFlightID = &returnFlightID
	booking.ReturnSeatNumber = seat
	booking.ReturnPassengers = updates["return_passengers"].(PassengerList)
	booking.ReturnExtraWeight = updates["return_extra_weight"].(float64)
	booking.ReturnPet, _ = updates["return_pet"].(*PetDetails)
	booking.ReturnContact, _ = updates["return_contact"].(*ContactInfo)
	booking.ReturnTotalPrice = updates["return_total_price"].(float64)
	return nil
}

func (r *memoryRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return apperrors.NotFound("booking not found")
	}
	booking.Status = status
	if status == StatusCancelled {
		now := time.Now()
		booking.CancelledAt = &now
		for key, hold := range r.allocations {
			if hold.bookingID == id {
				delete(r.allocations, key)
			}
		}
	}
	return nil
}

func (r *memoryRepository) SetStatusIf(ctx context.Context, id uuid.UUID, expected, next Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return false, apperrors.NotFound("booking not found")
	}
	if booking.Status != expected {
		return false, nil
	}
	booking.Status = next
	return true, nil
}

func (r *memoryRepository) SetRefundMirror(ctx context.Context, id uuid.UUID, status *Status, refundStatus RefundStatus, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return apperrors.NotFound("booking not found")
	}
	if status != nil {
		booking.Status = *status
	}
	booking.RefundStatus = refundStatus
	booking.RefundAmount = amount
	return nil
}

// stubCatalog serves flights from a fixed map.
type stubCatalog struct {
	flights map[uuid.UUID]*flights.Flight
}

func (c *stubCatalog) GetFlightByID(id uuid.UUID) (*flights.Flight, error) {
	flight, ok := c.flights[id]
	if !ok {
		return nil, apperrors.NotFound("flight not found")
	}
	return flight, nil
}

// repoSeatLedger answers occupancy questions straight from the repository.
type repoSeatLedger struct {
	repo *memoryRepository
}

func (l *repoSeatLedger) IsSeatTaken(ctx context.Context, flightID uuid.UUID, seatCode string) (bool, error) {
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()
	_, held := l.repo.allocations[seatKey(flightID, seatCode)]
	return held, nil
}

func (l *repoSeatLedger) ListTakenSeats(ctx context.Context, flightID uuid.UUID) ([]string, error) {
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()

	var seats []string
	for _, b := range l.repo.bookings {
		if b.Status == StatusCancelled {
			continue
		}
		if b.SeatNumber != nil && b.FlightID == flightID {
			seats = append(seats, *b.SeatNumber)
		}
		if b.ReturnSeatNumber != nil && b.ReturnFlightID != nil && *b.ReturnFlightID == flightID {
			seats = append(seats, *b.ReturnSeatNumber)
		}
	}
	return seats, nil
}

// blindSeatLedger never reports a seat as taken, simulating concurrent
// requests whose pre-checks all pass before any insert lands.
type blindSeatLedger struct{}

func (blindSeatLedger) IsSeatTaken(ctx context.Context, flightID uuid.UUID, seatCode string) (bool, error) {
	return false, nil
}

func (blindSeatLedger) ListTakenSeats(ctx context.Context, flightID uuid.UUID) ([]string, error) {
	return nil, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []BookingConfirmedEvent
}

func (n *recordingNotifier) PublishBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func testFlight(price float64) *flights.Flight {
	return &flights.Flight{
		ID:            uuid.New(),
		From:          "Amsterdam",
		To:            "Barcelona",
		Date:          time.Now().AddDate(0, 0, 10).Format("2006-01-02"),
		Price:         price,
		Airline:       "KLM",
		FlightNumber:  "KL1671",
		DepartureTime: "08:15",
		Seats:         flights.SeatList{"1A", "1B", "2A", "2B"},
	}
}

func newTestService(t *testing.T, catalogFlights ...*flights.Flight) (Service, *memoryRepository, *stubCatalog) {
	t.Helper()

	repo := newMemoryRepository()
	catalog := &stubCatalog{flights: make(map[uuid.UUID]*flights.Flight)}
	for _, f := range catalogFlights {
		catalog.flights[f.ID] = f
	}

	svc := NewService(repo, catalog, &repoSeatLedger{repo: repo})
	return svc, repo, catalog
}

func validCreateRequest(flightID uuid.UUID) CreateBookingRequest {
	return CreateBookingRequest{
		FlightID: flightID.String(),
		Passengers: PassengerList{
			{Name: "Alice Johnson", PassportNumber: "NL123456", DateOfBirth: "1990-04-12"},
		},
		SeatNumber:    "1a",
		PaymentMethod: "card",
		Contact:       ContactInfo{Email: "alice@example.com"},
	}
}

func TestCreateOutboundBooking(t *testing.T) {
	flight := testFlight(120)
	svc, _, _ := newTestService(t, flight)
	userID := uuid.New()

	booking, err := svc.CreateOutboundBooking(context.Background(), userID, validCreateRequest(flight.ID))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, booking.Status)
	assert.Equal(t, RefundStatusNone, booking.RefundStatus)
	assert.Equal(t, userID, booking.UserID)
	assert.Equal(t, 120.0, booking.TotalPrice)
	require.NotNil(t, booking.SeatNumber)
	assert.Equal(t, "1A", *booking.SeatNumber, "seat codes are normalized to upper case")
	assert.Regexp(t, `^SKT-\d{8}-[A-Z]{6}$`, booking.BookingRef)
}

func TestCreateOutboundBookingPriceOverride(t *testing.T) {
	flight := testFlight(120)
	svc, _, _ := newTestService(t, flight)

	override := 165.50
	req := validCreateRequest(flight.ID)
	req.TotalPrice = &override

	booking, err := svc.CreateOutboundBooking(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, override, booking.TotalPrice)
}

func TestCreateOutboundBookingUnknownFlight(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := validCreateRequest(uuid.New())
	_, err := svc.CreateOutboundBooking(context.Background(), uuid.New(), req)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestCreateOutboundBookingSeatOutsideInventory(t *testing.T) {
	flight := testFlight(120)
	svc, _, _ := newTestService(t, flight)

	req := validCreateRequest(flight.ID)
	req.SeatNumber = "99Z"

	_, err := svc.CreateOutboundBooking(context.Background(), uuid.New(), req)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
}

func TestCreateOutboundBookingSeatTaken(t *testing.T) {
	flight := testFlight(120)
	svc, _, _ := newTestService(t, flight)

	_, err := svc.CreateOutboundBooking(context.Background(), uuid.New(), validCreateRequest(flight.ID))
	require.NoError(t, err)

	_, err = svc.CreateOutboundBooking(context.Background(), uuid.New(), validCreateRequest(flight.ID))
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeSeatConflict, appErr.Code)
}

func TestCreateOutboundBookingWithoutSeat(t *testing.T) {
	flight := testFlight(120)
	svc, _, _ := newTestService(t, flight)

	req := validCreateRequest(flight.ID)
	req.SeatNumber = ""

	first, err := svc.CreateOutboundBooking(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Nil(t, first.SeatNumber)

	// Seatless bookings never collide with each other
	_, err = svc.CreateOutboundBooking(context.Background(), uuid.New(), req)
	require.NoError(t, err)
}

// Concurrent requests for the same seat must produce exactly one booking.
// The ledger pre-check is blinded so every request reaches the store, where
// uniqueness is enforced the same way the seat_allocations index does it.
func TestConcurrentSeatRequestsSingleWinner(t *testing.T) {
	flight := testFlight(120)
	repo := newMemoryRepository()
	catalog := &stubCatalog{flights: map[uuid.UUID]*flights.Flight{flight.ID: flight}}
	svc := NewService(repo, catalog, blindSeatLedger{})

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateOutboundBooking(context.Background(), uuid.New(), validCreateRequest(flight.ID))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeSeatConflict, appErr.Code)
	}
	assert.Equal(t, 1, winners)
}

// A seat held by an outbound leg must also block a return-leg attach on the
// same flight, even when the pre-check misses it.
func TestSeatHeldAcrossLegs(t *testing.T) {
	shared := testFlight(120)
	other := testFlight(95)
	repo := newMemoryRepository()
	catalog := &stubCatalog{flights: map[uuid.UUID]*flights.Flight{shared.ID: shared, other.ID: other}}
	svc := NewService(repo, catalog, blindSeatLedger{})

	_, err := svc.CreateOutboundBooking(context.Background(), uuid.New(), validCreateRequest(shared.ID))
	require.NoError(t, err)

	userID := uuid.New()
	baseReq := validCreateRequest(other.ID)
	baseReq.SeatNumber = ""
	base, err := svc.CreateOutboundBooking(context.Background(), userID, baseReq)
	require.NoError(t, err)

	_, err = svc.AttachReturnFlight(context.Background(), base.ID, Actor{ID: userID}, AttachReturnRequest{
		ReturnFlightID: shared.ID.String(),
		Passengers: PassengerList{
			{Name: "Alice Johnson", PassportNumber: "NL123456", DateOfBirth: "1990-04-12"},
		},
		SeatNumber: "1A",
	})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeSeatConflict, appErr.Code)
}

// An outbound create and a return-leg attach racing for the same (flight,
// seat) pair must produce exactly one holder. Both paths write into the same
// allocation table, so the store decides regardless of which leg asks.
func TestConcurrentCrossLegSeatRequestsSingleWinner(t *testing.T) {
	shared := testFlight(120)
	other := testFlight(95)
	repo := newMemoryRepository()
	catalog := &stubCatalog{flights: map[uuid.UUID]*flights.Flight{shared.ID: shared, other.ID: other}}
	svc := NewService(repo, catalog, blindSeatLedger{})

	userID := uuid.New()
	baseReq := validCreateRequest(other.ID)
	baseReq.SeatNumber = ""
	base, err := svc.CreateOutboundBooking(context.Background(), userID, baseReq)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var createErr, attachErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, createErr = svc.CreateOutboundBooking(context.Background(), uuid.New(), validCreateRequest(shared.ID))
	}()
	go func() {
		defer wg.Done()
		_, attachErr = svc.AttachReturnFlight(context.Background(), base.ID, Actor{ID: userID}, AttachReturnRequest{
			ReturnFlightID: shared.ID.String(),
			Passengers: PassengerList{
				{Name: "Alice Johnson", PassportNumber: "NL123456", DateOfBirth: "1990-04-12"},
			},
			SeatNumber: "1A",
		})
	}()
	wg.Wait()

	winners := 0
	for _, err := range []error{createErr, attachErr} {
		if err == nil {
			winners++
			continue
		}
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeSeatConflict, appErr.Code)
	}
	assert.Equal(t, 1, winners)
}

func TestAttachReturnFlightReplacesWholeLeg(t *testing.T) {
	outbound := testFlight(120)
	ret := testFlight(115)
	svc, _, _ := newTestService(t, outbound, ret)
	userID := uuid.New()
	actor := Actor{ID: userID}

	booking, err := svc.CreateOutboundBooking(context.Background(), userID, validCreateRequest(outbound.ID))
	require.NoError(t, err)

	attachReq := AttachReturnRequest{
		ReturnFlightID: ret.ID.String(),
		Passengers: PassengerList{
			{Name: "Alice Johnson", PassportNumber: "NL123456", DateOfBirth: "1990-04-12"},
		},
		SeatNumber:  "2B",
		ExtraWeight: 15,
	}

	updated, err := svc.AttachReturnFlight(context.Background(), booking.ID, actor, attachReq)
	require.NoError(t, err)
	require.NotNil(t, updated.ReturnFlightID)
	assert.Equal(t, ret.ID, *updated.ReturnFlightID)
	require.NotNil(t, updated.ReturnSeatNumber)
	assert.Equal(t, "2B", *updated.ReturnSeatNumber)
	assert.Equal(t, 15.0, updated.ReturnExtraWeight)
	assert.Equal(t, 115.0, updated.ReturnTotalPrice)

	// A second attach replaces everything, including fields the new payload
	// leaves empty
	attachReq.SeatNumber = "1B"
	attachReq.ExtraWeight = 0

	updated, err = svc.AttachReturnFlight(context.Background(), booking.ID, actor, attachReq)
	require.NoError(t, err)
	require.NotNil(t, updated.ReturnSeatNumber)
	assert.Equal(t, "1B", *updated.ReturnSeatNumber)
	assert.Equal(t, 0.0, updated.ReturnExtraWeight, "replaced, not merged")
}

func TestAttachReturnFlightTerminalBooking(t *testing.T) {
	outbound := testFlight(120)
	ret := testFlight(115)
	svc, _, _ := newTestService(t, outbound, ret)
	userID := uuid.New()
	actor := Actor{ID: userID}

	booking, err := svc.CreateOutboundBooking(context.Background(), userID, validCreateRequest(outbound.ID))
	require.NoError(t, err)
	require.NoError(t, svc.CancelBooking(context.Background(), booking.ID, actor))

	attachReq := AttachReturnRequest{
		ReturnFlightID: ret.ID.String(),
		Passengers: PassengerList{
			{Name: "Alice Johnson", PassportNumber: "NL123456", DateOfBirth: "1990-04-12"},
		},
	}

	_, err = svc.AttachReturnFlight(context.Background(), booking.ID, actor, attachReq)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
}

func TestAttachReturnFlightForbiddenForStranger(t *testing.T) {
	outbound := testFlight(120)
	ret := testFlight(115)
	svc, _, _ := newTestService(t, outbound, ret)

	booking, err := svc.CreateOutboundBooking(context.Background(), uuid.New(), validCreateRequest(outbound.ID))
	require.NoError(t, err)

	attachReq := AttachReturnRequest{
		ReturnFlightID: ret.ID.String(),
		Passengers: PassengerList{
			{Name: "Mallory", PassportNumber: "XX000000", DateOfBirth: "1985-01-01"},
		},
	}

	_, err = svc.AttachReturnFlight(context.Background(), booking.ID, Actor{ID: uuid.New()}, attachReq)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeForbidden, appErr.Code)
}

func TestConfirmPayment(t *testing.T) {
	flight := testFlight(120)
	svc, _, _ := newTestService(t, flight)
	userID := uuid.New()
	actor := Actor{ID: userID}

	notifier := &recordingNotifier{}
	svc.SetNotifier(notifier)

	booking, err := svc.CreateOutboundBooking(context.Background(), userID, validCreateRequest(flight.ID))
	require.NoError(t, err)

	detail, err := svc.ConfirmPayment(context.Background(), booking.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, detail.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, booking.ID, notifier.events[0].BookingID)
	assert.Equal(t, 120.0, notifier.events[0].TotalPaid)

	// Confirming again is a no-op success and publishes nothing new
	detail, err = svc.ConfirmPayment(context.Background(), booking.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, detail.Status)
	assert.Len(t, notifier.events, 1)
}

func TestConfirmPaymentCancelledBooking(t *testing.T) {
	flight := testFlight(120)
	svc, _, _ := newTestService(t, flight)
	userID := uuid.New()
	actor := Actor{ID: userID}

	booking, err := svc.CreateOutboundBooking(context.Background(), userID, validCreateRequest(flight.ID))
	require.NoError(t, err)
	require.NoError(t, svc.CancelBooking(context.Background(), booking.ID, actor))

	_, err = svc.ConfirmPayment(context.Background(), booking.ID, actor)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
}

func TestCancelBooking(t *testing.T) {
	flight := testFlight(120)
	svc, repo, _ := newTestService(t, flight)
	userID := uuid.New()
	actor := Actor{ID: userID}

	booking, err := svc.CreateOutboundBooking(context.Background(), userID, validCreateRequest(flight.ID))
	require.NoError(t, err)

	require.NoError(t, svc.CancelBooking(context.Background(), booking.ID, actor))

	stored, err := repo.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.NotNil(t, stored.CancelledAt)

	// Cancelling a cancelled booking errors instead of silently succeeding
	err = svc.CancelBooking(context.Background(), booking.ID, actor)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
	assert.Contains(t, appErr.Message, "already cancelled")
}

func TestCancelReleasesSeat(t *testing.T) {
	flight := testFlight(120)
	svc, _, _ := newTestService(t, flight)
	userID := uuid.New()

	booking, err := svc.CreateOutboundBooking(context.Background(), userID, validCreateRequest(flight.ID))
	require.NoError(t, err)
	require.NoError(t, svc.CancelBooking(context.Background(), booking.ID, Actor{ID: userID}))

	// The seat is free again once the holder is cancelled
	_, err = svc.CreateOutboundBooking(context.Background(), uuid.New(), validCreateRequest(flight.ID))
	require.NoError(t, err)
}

func TestApplyRefundEvent(t *testing.T) {
	flight := testFlight(150)
	svc, repo, _ := newTestService(t, flight)
	userID := uuid.New()
	actor := Actor{ID: userID}
	requestID := uuid.New()

	booking, err := svc.CreateOutboundBooking(context.Background(), userID, validCreateRequest(flight.ID))
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), booking.ID, actor)
	require.NoError(t, err)

	steps := []struct {
		event      string
		wantStatus Status
		wantRefund RefundStatus
		wantAmount float64
	}{
		{"Pending", StatusRefundPending, RefundStatusPending, 150},
		{"Approved", StatusRefundApproved, RefundStatusApproved, 150},
		{"Processed", StatusRefunded, RefundStatusProcessed, 150},
	}

	for _, step := range steps {
		err := svc.ApplyRefundEvent(context.Background(), RefundStatusChanged{
			RequestID: requestID,
			BookingID: booking.ID,
			NewStatus: step.event,
			Amount:    step.wantAmount,
		})
		require.NoError(t, err, "event %s", step.event)

		stored, err := repo.GetByID(context.Background(), booking.ID)
		require.NoError(t, err)
		assert.Equal(t, step.wantStatus, stored.Status, "event %s", step.event)
		assert.Equal(t, step.wantRefund, stored.RefundStatus, "event %s", step.event)
		assert.Equal(t, step.wantAmount, stored.RefundAmount, "event %s", step.event)
	}
}

func TestApplyRefundEventRejectedRestoresConfirmed(t *testing.T) {
	flight := testFlight(150)
	svc, repo, _ := newTestService(t, flight)
	userID := uuid.New()
	actor := Actor{ID: userID}

	booking, err := svc.CreateOutboundBooking(context.Background(), userID, validCreateRequest(flight.ID))
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), booking.ID, actor)
	require.NoError(t, err)

	require.NoError(t, svc.ApplyRefundEvent(context.Background(), RefundStatusChanged{
		RequestID: uuid.New(), BookingID: booking.ID, NewStatus: "Pending", Amount: 150,
	}))
	require.NoError(t, svc.ApplyRefundEvent(context.Background(), RefundStatusChanged{
		RequestID: uuid.New(), BookingID: booking.ID, NewStatus: "Rejected", Amount: 0,
	}))

	stored, err := repo.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, stored.Status)
	assert.Equal(t, RefundStatusRejected, stored.RefundStatus)
}

// A rejection landing after the user cancelled must not resurrect the booking.
func TestApplyRefundEventRejectedDoesNotClobberCancel(t *testing.T) {
	flight := testFlight(150)
	svc, repo, _ := newTestService(t, flight)
	userID := uuid.New()
	actor := Actor{ID: userID}

	booking, err := svc.CreateOutboundBooking(context.Background(), userID, validCreateRequest(flight.ID))
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), booking.ID, actor)
	require.NoError(t, err)

	require.NoError(t, svc.ApplyRefundEvent(context.Background(), RefundStatusChanged{
		RequestID: uuid.New(), BookingID: booking.ID, NewStatus: "Pending", Amount: 150,
	}))
	require.NoError(t, svc.CancelBooking(context.Background(), booking.ID, actor))

	require.NoError(t, svc.ApplyRefundEvent(context.Background(), RefundStatusChanged{
		RequestID: uuid.New(), BookingID: booking.ID, NewStatus: "Rejected", Amount: 0,
	}))

	stored, err := repo.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
}

func TestApplyRefundEventUnknownStatus(t *testing.T) {
	flight := testFlight(150)
	svc, _, _ := newTestService(t, flight)

	err := svc.ApplyRefundEvent(context.Background(), RefundStatusChanged{
		RequestID: uuid.New(), BookingID: uuid.New(), NewStatus: "Exploded",
	})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
}

func TestGetBookingAuthorization(t *testing.T) {
	flight := testFlight(120)
	svc, _, _ := newTestService(t, flight)
	owner := uuid.New()

	booking, err := svc.CreateOutboundBooking(context.Background(), owner, validCreateRequest(flight.ID))
	require.NoError(t, err)

	// Owner sees it with the flight resolved
	detail, err := svc.GetBooking(context.Background(), booking.ID, Actor{ID: owner})
	require.NoError(t, err)
	require.NotNil(t, detail.Flight)
	assert.Equal(t, flight.ID, detail.Flight.ID)

	// Admin sees it too
	_, err = svc.GetBooking(context.Background(), booking.ID, Actor{ID: uuid.New(), Admin: true})
	require.NoError(t, err)

	// Anyone else does not
	_, err = svc.GetBooking(context.Background(), booking.ID, Actor{ID: uuid.New()})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeForbidden, appErr.Code)
}

func TestGetBookedSeatsCoversBothLegs(t *testing.T) {
	outbound := testFlight(120)
	ret := testFlight(115)
	svc, _, _ := newTestService(t, outbound, ret)
	userID := uuid.New()

	booking, err := svc.CreateOutboundBooking(context.Background(), userID, validCreateRequest(outbound.ID))
	require.NoError(t, err)

	_, err = svc.AttachReturnFlight(context.Background(), booking.ID, Actor{ID: userID}, AttachReturnRequest{
		ReturnFlightID: ret.ID.String(),
		Passengers: PassengerList{
			{Name: "Alice Johnson", PassportNumber: "NL123456", DateOfBirth: "1990-04-12"},
		},
		SeatNumber: "2B",
	})
	require.NoError(t, err)

	outboundSeats, err := svc.GetBookedSeats(context.Background(), outbound.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1A"}, outboundSeats)

	returnSeats, err := svc.GetBookedSeats(context.Background(), ret.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2B"}, returnSeats)
}

func TestGenerateBookingReferenceShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref, err := generateBookingReference()
		require.NoError(t, err)
		assert.Regexp(t, fmt.Sprintf(`^SKT-%s-[A-Z]{6}$`, time.Now().Format("20060102")), ref)
		seen[ref] = true
	}
	assert.Greater(t, len(seen), 90, "references should be effectively unique")
}
