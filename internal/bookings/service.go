package bookings

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"skytrip/internal/flights"
	"skytrip/internal/shared/apperrors"
	"skytrip/internal/shared/constants"
	"skytrip/pkg/cache"
	"skytrip/pkg/logger"
)

// FlightCatalog resolves flight references (to avoid circular dependency)
type FlightCatalog interface {
	GetFlightByID(id uuid.UUID) (*flights.Flight, error)
}

// SeatLedger answers seat-occupancy questions for a flight
type SeatLedger interface {
	IsSeatTaken(ctx context.Context, flightID uuid.UUID, seatCode string) (bool, error)
	ListTakenSeats(ctx context.Context, flightID uuid.UUID) ([]string, error)
}

// Notifier publishes booking lifecycle events; wired only when Kafka is enabled
type Notifier interface {
	PublishBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error
}

// Actor identifies the caller of an operation.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

// BookingConfirmedEvent is emitted after payment confirmation succeeds.
type BookingConfirmedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	UserID     uuid.UUID `json:"user_id"`
	BookingRef string    `json:"booking_ref"`
	TotalPaid  float64   `json:"total_paid"`
}

// RefundStatusChanged is the cross-aggregate event the refund ledger emits
// when a refund request changes state. ApplyRefundEvent is the only path that
// mutates a booking's refund mirror fields.
type RefundStatusChanged struct {
	RequestID uuid.UUID `json:"request_id"`
	BookingID uuid.UUID `json:"booking_id"`
	NewStatus string    `json:"new_status"` // Pending | Approved | Rejected | Processed
	Amount    float64   `json:"amount"`
}

// BookingDetail is a booking with its flight references resolved for display.
type BookingDetail struct {
	Booking
	Flight       *flights.Flight `json:"flight,omitempty"`
	ReturnFlight *flights.Flight `json:"return_flight,omitempty"`
}

// Service interface defines the contract for booking business logic
type Service interface {
	SetCacheService(cacheService cache.Service)
	SetNotifier(notifier Notifier)

	CreateOutboundBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*Booking, error)
	AttachReturnFlight(ctx context.Context, bookingID uuid.UUID, actor Actor, req AttachReturnRequest) (*Booking, error)
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID, actor Actor) (*BookingDetail, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error

	GetBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) (*BookingDetail, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID) ([]BookingDetail, error)
	GetAllBookings(ctx context.Context) ([]BookingDetail, error)
	GetBookedSeats(ctx context.Context, flightID uuid.UUID) ([]string, error)

	ApplyRefundEvent(ctx context.Context, event RefundStatusChanged) error
}

type service struct {
	repo         Repository
	catalog      FlightCatalog
	seatLedger   SeatLedger
	cacheService cache.Service
	notifier     Notifier
}

// NewService creates a new booking service instance
func NewService(repo Repository, catalog FlightCatalog, seatLedger SeatLedger) Service {
	return &service{
		repo:       repo,
		catalog:    catalog,
		seatLedger: seatLedger,
	}
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

func (s *service) authorize(booking *Booking, actor Actor) error {
	if actor.Admin || booking.UserID == actor.ID {
		return nil
	}
	return apperrors.Forbidden("you do not own this booking")
}

func (s *service) invalidateSeatCache(ctx context.Context, flightIDs ...*uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	for _, id := range flightIDs {
		if id == nil {
			continue
		}
		if err := s.cacheService.Delete(ctx, constants.BookedSeatsKey(id.String())); err != nil {
			fmt.Printf("Warning: failed to invalidate seat cache for flight %s: %v\n", id, err)
		}
	}
}

func normalizeSeat(seat string) string {
	return strings.ToUpper(strings.TrimSpace(seat))
}

// checkSeat validates the seat against the flight inventory and current
// occupancy. The pre-check keeps the common error path friendly; the unique
// index on seat_allocations is what actually closes the race.
func (s *service) checkSeat(ctx context.Context, flight *flights.Flight, seatCode string) error {
	if len(flight.Seats) > 0 {
		found := false
		for _, inv := range flight.Seats {
			if strings.EqualFold(inv, seatCode) {
				found = true
				break
			}
		}
		if !found {
			return apperrors.InvalidInput(fmt.Sprintf("seat %s is not part of flight %s inventory", seatCode, flight.FlightNumber))
		}
	}

	taken, err := s.seatLedger.IsSeatTaken(ctx, flight.ID, seatCode)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.SeatConflict(fmt.Sprintf("seat %s is already booked on this flight", seatCode))
	}
	return nil
}

// CreateOutboundBooking reserves the outbound leg. It never contacts payment;
// the new booking starts in pending.
func (s *service) CreateOutboundBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*Booking, error) {
	flightID, err := uuid.Parse(req.FlightID)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid flight ID")
	}

	flight, err := s.catalog.GetFlightByID(flightID)
	if err != nil {
		return nil, err
	}

	if len(req.Passengers) == 0 {
		return nil, apperrors.InvalidInput("at least one passenger is required")
	}

	var seatNumber *string
	if req.SeatNumber != "" {
		seat := normalizeSeat(req.SeatNumber)
		if err := s.checkSeat(ctx, flight, seat); err != nil {
			return nil, err
		}
		seatNumber = &seat
	}

	// Catalog price unless the caller supplies an override covering add-ons
	// priced client-side (baggage, seat fee, pet fee).
	totalPrice := flight.Price
	if req.TotalPrice != nil {
		totalPrice = *req.TotalPrice
	}
	if totalPrice < 0 {
		return nil, apperrors.InvalidInput("total price cannot be negative")
	}

	bookingRef, err := generateBookingReference()
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	booking := &Booking{
		UserID:        userID,
		FlightID:      flight.ID,
		SeatNumber:    seatNumber,
		Passengers:    req.Passengers,
		ExtraWeight:   req.ExtraWeight,
		Pet:           req.PetDetails,
		Contact:       req.Contact,
		TotalPrice:    totalPrice,
		PaymentMethod: req.PaymentMethod,
		BookingRef:    bookingRef,
		Status:        StatusPending,
		RefundStatus:  RefundStatusNone,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, err
	}

	logger.GetDefault().LogBookingCreated(ctx, booking.ID.String(), flight.ID.String(), userID.String())
	s.invalidateSeatCache(ctx, &flight.ID)

	return booking, nil
}

// AttachReturnFlight replaces the booking's entire return leg. A second call
// overwrites the first leg wholesale, it never merges.
func (s *service) AttachReturnFlight(ctx context.Context, bookingID uuid.UUID, actor Actor, req AttachReturnRequest) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(booking, actor); err != nil {
		return nil, err
	}

	if booking.Status.IsTerminal() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot attach a return flight to a %s booking", booking.Status))
	}

	returnFlightID, err := uuid.Parse(req.ReturnFlightID)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid return flight ID")
	}

	returnFlight, err := s.catalog.GetFlightByID(returnFlightID)
	if err != nil {
		return nil, err
	}

	if len(req.Passengers) == 0 {
		return nil, apperrors.InvalidInput("at least one passenger is required")
	}

	var seatNumber *string
	if req.SeatNumber != "" {
		seat := normalizeSeat(req.SeatNumber)
		if err := s.checkSeat(ctx, returnFlight, seat); err != nil {
			return nil, err
		}
		seatNumber = &seat
	}

	totalPrice := returnFlight.Price
	if req.TotalPrice != nil {
		totalPrice = *req.TotalPrice
	}
	if totalPrice < 0 {
		return nil, apperrors.InvalidInput("total price cannot be negative")
	}

	updates := map[string]interface{}{
		"return_flight_id":    returnFlight.ID,
		"return_seat_number":  seatNumber,
		"return_passengers":   req.Passengers,
		"return_extra_weight": req.ExtraWeight,
		"return_pet":          req.PetDetails,
		"return_contact":      req.Contact,
		"return_total_price":  totalPrice,
	}

	if err := s.repo.ReplaceReturnLeg(ctx, bookingID, updates); err != nil {
		return nil, err
	}

	s.invalidateSeatCache(ctx, &returnFlight.ID, booking.ReturnFlightID)

	return s.repo.GetByID(ctx, bookingID)
}

// ConfirmPayment moves pending to confirmed. Confirming an already-confirmed
// booking (or one in a refund state) is a no-op success; status never
// regresses here.
func (s *service) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, actor Actor) (*BookingDetail, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(booking, actor); err != nil {
		return nil, err
	}

	if booking.Status == StatusCancelled {
		return nil, apperrors.InvalidInput("cannot confirm a cancelled booking")
	}

	if booking.Status == StatusPending {
		if err := s.repo.SetStatus(ctx, bookingID, StatusConfirmed); err != nil {
			return nil, err
		}
		booking.Status = StatusConfirmed

		if s.notifier != nil {
			event := BookingConfirmedEvent{
				BookingID:  booking.ID,
				UserID:     booking.UserID,
				BookingRef: booking.BookingRef,
				TotalPaid:  booking.TotalPaid(),
			}
			if err := s.notifier.PublishBookingConfirmed(ctx, event); err != nil {
				fmt.Printf("Warning: failed to publish booking confirmation for %s: %v\n", booking.ID, err)
			}
		}
	}

	return s.resolveDetail(booking), nil
}

// CancelBooking cancels from any non-terminal state. No refund is triggered;
// a refund must be requested separately.
func (s *service) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := s.authorize(booking, actor); err != nil {
		return err
	}

	if booking.Status.IsTerminal() {
		return apperrors.InvalidInput(fmt.Sprintf("booking is already %s", booking.Status))
	}

	if err := s.repo.SetStatus(ctx, bookingID, StatusCancelled); err != nil {
		return err
	}

	logger.GetDefault().LogBookingCancelled(ctx, booking.ID.String(), booking.FlightID.String(), booking.UserID.String())
	s.invalidateSeatCache(ctx, &booking.FlightID, booking.ReturnFlightID)

	return nil
}

func (s *service) GetBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) (*BookingDetail, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(booking, actor); err != nil {
		return nil, err
	}

	return s.resolveDetail(booking), nil
}

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID) ([]BookingDetail, error) {
	bookingList, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolveDetails(bookingList), nil
}

func (s *service) GetAllBookings(ctx context.Context) ([]BookingDetail, error) {
	bookingList, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolveDetails(bookingList), nil
}

func (s *service) GetBookedSeats(ctx context.Context, flightID uuid.UUID) ([]string, error) {
	return s.seatLedger.ListTakenSeats(ctx, flightID)
}

// ApplyRefundEvent projects a refund-request state change onto the booking.
// A rejected refund returns the booking to confirmed only when it is still
// refund_pending, so an interleaved cancel is never clobbered.
func (s *service) ApplyRefundEvent(ctx context.Context, event RefundStatusChanged) error {
	switch event.NewStatus {
	case "Pending":
		status := StatusRefundPending
		return s.repo.SetRefundMirror(ctx, event.BookingID, &status, RefundStatusPending, event.Amount)
	case "Approved":
		status := StatusRefundApproved
		return s.repo.SetRefundMirror(ctx, event.BookingID, &status, RefundStatusApproved, event.Amount)
	case "Rejected":
		if _, err := s.repo.SetStatusIf(ctx, event.BookingID, StatusRefundPending, StatusConfirmed); err != nil {
			return err
		}
		return s.repo.SetRefundMirror(ctx, event.BookingID, nil, RefundStatusRejected, event.Amount)
	case "Processed":
		status := StatusRefunded
		return s.repo.SetRefundMirror(ctx, event.BookingID, &status, RefundStatusProcessed, event.Amount)
	default:
		return apperrors.InvalidInput(fmt.Sprintf("unknown refund status %q", event.NewStatus))
	}
}

func (s *service) resolveDetail(booking *Booking) *BookingDetail {
	detail := &BookingDetail{Booking: *booking}

	if flight, err := s.catalog.GetFlightByID(booking.FlightID); err == nil {
		detail.Flight = flight
	}
	if booking.ReturnFlightID != nil {
		if flight, err := s.catalog.GetFlightByID(*booking.ReturnFlightID); err == nil {
			detail.ReturnFlight = flight
		}
	}

	return detail
}

func (s *service) resolveDetails(bookingList []Booking) []BookingDetail {
	details := make([]BookingDetail, len(bookingList))
	for i := range bookingList {
		details[i] = *s.resolveDetail(&bookingList[i])
	}
	return details
}

// generateBookingReference generates a unique booking reference
func generateBookingReference() (string, error) {
	timestamp := time.Now().Format("20060102")

	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)

	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("SKT-%s-%s", timestamp, string(randomPart)), nil
}
