package refunds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"skytrip/internal/bookings"
	"skytrip/internal/shared/apperrors"
	"skytrip/pkg/logger"
)

// BookingService is the slice of the booking aggregate the refund ledger
// needs: resolving a booking (with ownership enforced) and projecting refund
// state changes onto it (to avoid circular dependency).
type BookingService interface {
	GetBooking(ctx context.Context, bookingID uuid.UUID, actor bookings.Actor) (*bookings.BookingDetail, error)
	ApplyRefundEvent(ctx context.Context, event bookings.RefundStatusChanged) error
}

// Notifier publishes refund lifecycle events; wired only when Kafka is enabled
type Notifier interface {
	PublishRefundStatusUpdated(ctx context.Context, event RefundStatusNotification) error
}

// RefundStatusNotification is the outbound notification payload.
type RefundStatusNotification struct {
	RequestID uuid.UUID     `json:"request_id"`
	BookingID uuid.UUID     `json:"booking_id"`
	UserID    uuid.UUID     `json:"user_id"`
	Status    RequestStatus `json:"status"`
	Amount    float64       `json:"amount"`
}

// RefundDetail is a request with its booking context resolved for display.
type RefundDetail struct {
	RefundRequest
	Booking *bookings.BookingDetail `json:"booking,omitempty"`
}

type Service interface {
	SetNotifier(notifier Notifier)

	CreateRefundRequest(ctx context.Context, actor bookings.Actor, input CreateRefundRequestInput) (*RefundRequest, error)
	GetMyRefundRequests(ctx context.Context, userID uuid.UUID) ([]RefundDetail, error)
	GetAllRefundRequests(ctx context.Context) ([]RefundDetail, error)
	UpdateStatus(ctx context.Context, requestID uuid.UUID, input UpdateStatusInput) (*RefundRequest, error)
	HandlePaymentWebhook(ctx context.Context, payload map[string]interface{}) error

	GetActivePolicy(ctx context.Context) (*RefundPolicy, error)
	UpsertPolicy(ctx context.Context, input UpsertPolicyInput) (*RefundPolicy, error)
}

type service struct {
	repo           Repository
	bookingService BookingService
	notifier       Notifier
}

func NewService(repo Repository, bookingService BookingService) Service {
	return &service{
		repo:           repo,
		bookingService: bookingService,
	}
}

func (s *service) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// mirror pushes the state change onto the booking before the caller responds.
// The write is best-effort: a failure is logged for reconciliation, never
// surfaced, so a user-facing refund request is not lost over a transient
// secondary write.
func (s *service) mirror(ctx context.Context, request *RefundRequest, status RequestStatus) {
	event := bookings.RefundStatusChanged{
		RequestID: request.ID,
		BookingID: request.BookingID,
		NewStatus: string(status),
		Amount:    request.Amount,
	}
	if err := s.bookingService.ApplyRefundEvent(ctx, event); err != nil {
		fmt.Printf("Warning: failed to mirror refund status %s onto booking %s (request %s): %v\n",
			status, request.BookingID, request.ID, err)
	}
}

func (s *service) notify(ctx context.Context, request *RefundRequest) {
	if s.notifier == nil {
		return
	}
	event := RefundStatusNotification{
		RequestID: request.ID,
		BookingID: request.BookingID,
		UserID:    request.UserID,
		Status:    request.Status,
		Amount:    request.Amount,
	}
	if err := s.notifier.PublishRefundStatusUpdated(ctx, event); err != nil {
		fmt.Printf("Warning: failed to publish refund notification for request %s: %v\n", request.ID, err)
	}
}

// CreateRefundRequest computes the refundable amount at call time and stores
// a Pending request. Duplicate suppression is settled by the partial unique
// index, not the pre-check; the pre-check only produces the friendlier error
// carrying the existing request's id.
func (s *service) CreateRefundRequest(ctx context.Context, actor bookings.Actor, input CreateRefundRequestInput) (*RefundRequest, error) {
	bookingID, err := uuid.Parse(input.BookingID)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid booking ID")
	}

	detail, err := s.bookingService.GetBooking(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetActiveByBookingID(ctx, bookingID); err == nil {
		return nil, duplicateConflict(existing)
	}

	now := time.Now()
	amount, err := s.computeAmount(ctx, detail, now)
	if err != nil {
		return nil, err
	}
	totalPaid := detail.TotalPaid()

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = "No reason provided"
	}

	request := &RefundRequest{
		BookingID:    bookingID,
		UserID:       detail.UserID,
		Amount:       amount,
		IsFullRefund: totalPaid > 0 && amount >= totalPaid,
		Reason:       reason,
		Status:       RequestStatusPending,
	}

	if err := s.repo.Create(ctx, request); err != nil {
		if errors.Is(err, ErrDuplicateActive) {
			if existing, lookupErr := s.repo.GetActiveByBookingID(ctx, bookingID); lookupErr == nil {
				return nil, duplicateConflict(existing)
			}
			return nil, apperrors.Conflict("an active refund request already exists for this booking")
		}
		return nil, err
	}

	s.mirror(ctx, request, RequestStatusPending)
	s.notify(ctx, request)

	return request, nil
}

// computeAmount prices the refund against the active policy, falling back to
// the built-in tiers only when no policy is installed. Any other store
// failure propagates: pricing against the fallback while a stricter admin
// policy exists would hand out the wrong amount.
func (s *service) computeAmount(ctx context.Context, detail *bookings.BookingDetail, now time.Time) (float64, error) {
	var departure time.Time
	if detail.Flight != nil {
		departure = detail.Flight.DepartureInstant()
	}

	rctx := RefundContext{
		TotalPaid: detail.TotalPaid(),
		Departure: departure,
		BookedAt:  detail.CreatedAt,
	}

	policy, err := s.repo.GetActivePolicy(ctx)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.CodeNotFound) {
			return 0, err
		}
		policy = nil
	}

	return ComputeRefund(rctx, policy, now), nil
}

func duplicateConflict(existing *RefundRequest) error {
	return apperrors.Conflict("an active refund request already exists for this booking").
		WithDetail("request_id", existing.ID.String())
}

func (s *service) GetMyRefundRequests(ctx context.Context, userID uuid.UUID) ([]RefundDetail, error) {
	requests, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolveDetails(ctx, requests, bookings.Actor{ID: userID}), nil
}

func (s *service) GetAllRefundRequests(ctx context.Context) ([]RefundDetail, error) {
	requests, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolveDetails(ctx, requests, bookings.Actor{Admin: true}), nil
}

func (s *service) resolveDetails(ctx context.Context, requests []RefundRequest, actor bookings.Actor) []RefundDetail {
	details := make([]RefundDetail, len(requests))
	for i := range requests {
		details[i] = RefundDetail{RefundRequest: requests[i]}
		if booking, err := s.bookingService.GetBooking(ctx, requests[i].BookingID, actor); err == nil {
			details[i].Booking = booking
		}
	}
	return details
}

// UpdateStatus applies an admin transition and mirrors it onto the booking
// before responding, so the response is consistent with stored state.
func (s *service) UpdateStatus(ctx context.Context, requestID uuid.UUID, input UpdateStatusInput) (*RefundRequest, error) {
	status := RequestStatus(input.Status)
	if !status.IsValid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown refund status %q", input.Status))
	}

	var processedAt *time.Time
	if status == RequestStatusProcessed {
		now := time.Now()
		processedAt = &now
	}

	request, err := s.repo.UpdateStatus(ctx, requestID, status, input.AdminNote, processedAt)
	if err != nil {
		return nil, err
	}

	logger.GetDefault().LogRefundStatusChanged(ctx, request.ID.String(), request.BookingID.String(), string(status))
	s.mirror(ctx, request, status)
	s.notify(ctx, request)

	return request, nil
}

// HandlePaymentWebhook acknowledges external payment-provider events. No
// verification or automatic transition happens here; operators act on the log.
func (s *service) HandlePaymentWebhook(ctx context.Context, payload map[string]interface{}) error {
	fmt.Printf("Payment webhook received: %v\n", payload)
	return nil
}

func (s *service) GetActivePolicy(ctx context.Context) (*RefundPolicy, error) {
	policy, err := s.repo.GetActivePolicy(ctx)
	if err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Code == apperrors.CodeNotFound {
			return DefaultPolicy(), nil
		}
		return nil, err
	}
	return policy, nil
}

func (s *service) UpsertPolicy(ctx context.Context, input UpsertPolicyInput) (*RefundPolicy, error) {
	for i, rule := range input.Rules {
		if rule.Percent < 0 || rule.Percent > 100 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("rule %d: percent must be between 0 and 100", i))
		}
		if rule.MaxHoursBeforeDeparture < rule.MinHoursBeforeDeparture {
			return nil, apperrors.InvalidInput(fmt.Sprintf("rule %d: max hours must not be below min hours", i))
		}
		if rule.FixedFee < 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("rule %d: fixed fee cannot be negative", i))
		}
	}

	version := 1
	if current, err := s.repo.GetActivePolicy(ctx); err == nil {
		version = current.Version + 1
	}

	policy := &RefundPolicy{
		Name:    input.Name,
		Version: version,
		Rules:   RuleList(input.Rules),
	}

	if err := s.repo.SavePolicy(ctx, policy); err != nil {
		return nil, err
	}

	return policy, nil
}
