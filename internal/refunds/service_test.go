package refunds

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skytrip/internal/bookings"
	"skytrip/internal/flights"
	"skytrip/internal/shared/apperrors"
)

// memoryRefundRepository enforces the one-active-request-per-booking rule the
// partial unique index gives the real repository.
type memoryRefundRepository struct {
	mu        sync.Mutex
	requests  map[uuid.UUID]*RefundRequest
	policy    *RefundPolicy
	policyErr error
}

func newMemoryRefundRepository() *memoryRefundRepository {
	return &memoryRefundRepository{requests: make(map[uuid.UUID]*RefundRequest)}
}

func (r *memoryRefundRepository) Create(ctx context.Context, request *RefundRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.requests {
		if existing.BookingID == request.BookingID && existing.Status.IsActive() {
			return ErrDuplicateActive
		}
	}

	request.ID = uuid.New()
	request.CreatedAt = time.Now()
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *memoryRefundRepository) GetByID(ctx context.Context, id uuid.UUID) (*RefundRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[id]
	if !ok {
		return nil, apperrors.NotFound("refund request not found")
	}
	copied := *request
	return &copied, nil
}

func (r *memoryRefundRepository) GetActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*RefundRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, request := range r.requests {
		if request.BookingID == bookingID && request.Status.IsActive() {
			copied := *request
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("no active refund request for this booking")
}

func (r *memoryRefundRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]RefundRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []RefundRequest
	for _, request := range r.requests {
		if request.UserID == userID {
			result = append(result, *request)
		}
	}
	return result, nil
}

func (r *memoryRefundRepository) GetAll(ctx context.Context) ([]RefundRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []RefundRequest
	for _, request := range r.requests {
		result = append(result, *request)
	}
	return result, nil
}

func (r *memoryRefundRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status RequestStatus, adminNote string, processedAt *time.Time) (*RefundRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[id]
	if !ok {
		return nil, apperrors.NotFound("refund request not found")
	}
	request.Status = status
	request.AdminNote = adminNote
	if processedAt != nil {
		request.ProcessedAt = processedAt
	}
	copied := *request
	return &copied, nil
}

func (r *memoryRefundRepository) GetActivePolicy(ctx context.Context) (*RefundPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.policyErr != nil {
		return nil, r.policyErr
	}
	if r.policy == nil {
		return nil, apperrors.NotFound("no active refund policy")
	}
	copied := *r.policy
	return &copied, nil
}

func (r *memoryRefundRepository) SavePolicy(ctx context.Context, policy *RefundPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if policy.ID == uuid.Nil {
		policy.ID = uuid.New()
	}
	policy.Active = true
	copied := *policy
	r.policy = &copied
	return nil
}

// stubBookingService serves canned booking details and records the refund
// events projected onto them.
type stubBookingService struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookings.BookingDetail
	events   []bookings.RefundStatusChanged
}

func newStubBookingService() *stubBookingService {
	return &stubBookingService{bookings: make(map[uuid.UUID]*bookings.BookingDetail)}
}

func (s *stubBookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, actor bookings.Actor) (*bookings.BookingDetail, error) {
	detail, ok := s.bookings[bookingID]
	if !ok {
		return nil, apperrors.NotFound("booking not found")
	}
	if !actor.Admin && detail.UserID != actor.ID {
		return nil, apperrors.Forbidden("you do not own this booking")
	}
	return detail, nil
}

func (s *stubBookingService) ApplyRefundEvent(ctx context.Context, event bookings.RefundStatusChanged) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

type recordingRefundNotifier struct {
	events []RefundStatusNotification
}

func (n *recordingRefundNotifier) PublishRefundStatusUpdated(ctx context.Context, event RefundStatusNotification) error {
	n.events = append(n.events, event)
	return nil
}

// confirmedBooking builds a detail whose flight departs hoursOut from now.
func confirmedBooking(userID uuid.UUID, totalPaid, hoursOut float64) *bookings.BookingDetail {
	departure := time.Now().Add(time.Duration(hoursOut * float64(time.Hour)))

	detail := &bookings.BookingDetail{
		Booking: bookings.Booking{
			ID:         uuid.New(),
			UserID:     userID,
			TotalPrice: totalPaid,
			Status:     bookings.StatusConfirmed,
			CreatedAt:  time.Now().Add(-48 * time.Hour),
		},
		Flight: &flights.Flight{
			ID:            uuid.New(),
			Date:          departure.Format("2006-01-02"),
			DepartureTime: departure.Format("15:04"),
		},
	}
	detail.Booking.FlightID = detail.Flight.ID
	return detail
}

func TestCreateRefundRequestFullTier(t *testing.T) {
	repo := newMemoryRefundRepository()
	bookingSvc := newStubBookingService()
	svc := NewService(repo, bookingSvc)

	notifier := &recordingRefundNotifier{}
	svc.SetNotifier(notifier)

	userID := uuid.New()
	detail := confirmedBooking(userID, 150, 100)
	bookingSvc.bookings[detail.ID] = detail

	request, err := svc.CreateRefundRequest(context.Background(), bookings.Actor{ID: userID}, CreateRefundRequestInput{
		BookingID: detail.ID.String(),
		Reason:    "change of plans",
	})
	require.NoError(t, err)

	assert.Equal(t, RequestStatusPending, request.Status)
	assert.Equal(t, 150.0, request.Amount, "departure over 72h out refunds in full")
	assert.True(t, request.IsFullRefund)
	assert.Equal(t, userID, request.UserID)

	// The booking mirror and the notification both saw the pending state
	require.Len(t, bookingSvc.events, 1)
	assert.Equal(t, "Pending", bookingSvc.events[0].NewStatus)
	assert.Equal(t, 150.0, bookingSvc.events[0].Amount)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, RequestStatusPending, notifier.events[0].Status)
}

func TestCreateRefundRequestHalfTier(t *testing.T) {
	repo := newMemoryRefundRepository()
	bookingSvc := newStubBookingService()
	svc := NewService(repo, bookingSvc)

	userID := uuid.New()
	detail := confirmedBooking(userID, 200, 48)
	bookingSvc.bookings[detail.ID] = detail

	request, err := svc.CreateRefundRequest(context.Background(), bookings.Actor{ID: userID}, CreateRefundRequestInput{
		BookingID: detail.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, 100.0, request.Amount)
	assert.False(t, request.IsFullRefund)
}

func TestCreateRefundRequestDefaultsReason(t *testing.T) {
	repo := newMemoryRefundRepository()
	bookingSvc := newStubBookingService()
	svc := NewService(repo, bookingSvc)

	userID := uuid.New()
	detail := confirmedBooking(userID, 150, 100)
	bookingSvc.bookings[detail.ID] = detail

	request, err := svc.CreateRefundRequest(context.Background(), bookings.Actor{ID: userID}, CreateRefundRequestInput{
		BookingID: detail.ID.String(),
		Reason:    "   ",
	})
	require.NoError(t, err)
	assert.Equal(t, "No reason provided", request.Reason)

	stored, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, "No reason provided", stored.Reason)
}

// A store failure while loading the active policy must fail the request
// instead of silently pricing against the built-in tiers; an installed
// stricter policy would otherwise be bypassed.
func TestCreateRefundRequestPolicyStoreFailure(t *testing.T) {
	repo := newMemoryRefundRepository()
	bookingSvc := newStubBookingService()
	svc := NewService(repo, bookingSvc)

	userID := uuid.New()
	detail := confirmedBooking(userID, 150, 100)
	bookingSvc.bookings[detail.ID] = detail

	repo.policyErr = apperrors.StoreUnavailable(errors.New("connection reset"))

	_, err := svc.CreateRefundRequest(context.Background(), bookings.Actor{ID: userID}, CreateRefundRequestInput{
		BookingID: detail.ID.String(),
	})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeStoreUnavailable, appErr.Code)

	// Nothing was stored or mirrored
	assert.Empty(t, repo.requests)
	assert.Empty(t, bookingSvc.events)
}

func TestCreateRefundRequestDuplicateCarriesWinnerID(t *testing.T) {
	repo := newMemoryRefundRepository()
	bookingSvc := newStubBookingService()
	svc := NewService(repo, bookingSvc)

	userID := uuid.New()
	detail := confirmedBooking(userID, 150, 100)
	bookingSvc.bookings[detail.ID] = detail
	actor := bookings.Actor{ID: userID}
	input := CreateRefundRequestInput{BookingID: detail.ID.String()}

	first, err := svc.CreateRefundRequest(context.Background(), actor, input)
	require.NoError(t, err)

	_, err = svc.CreateRefundRequest(context.Background(), actor, input)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
	assert.Equal(t, first.ID.String(), appErr.Details["request_id"])
}

func TestCreateRefundRequestAfterRejection(t *testing.T) {
	repo := newMemoryRefundRepository()
	bookingSvc := newStubBookingService()
	svc := NewService(repo, bookingSvc)

	userID := uuid.New()
	detail := confirmedBooking(userID, 150, 100)
	bookingSvc.bookings[detail.ID] = detail
	actor := bookings.Actor{ID: userID}
	input := CreateRefundRequestInput{BookingID: detail.ID.String()}

	first, err := svc.CreateRefundRequest(context.Background(), actor, input)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), first.ID, UpdateStatusInput{Status: "Rejected", AdminNote: "no"})
	require.NoError(t, err)

	// Rejected requests do not block a new attempt
	second, err := svc.CreateRefundRequest(context.Background(), actor, input)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateRefundRequestForbiddenForStranger(t *testing.T) {
	repo := newMemoryRefundRepository()
	bookingSvc := newStubBookingService()
	svc := NewService(repo, bookingSvc)

	detail := confirmedBooking(uuid.New(), 150, 100)
	bookingSvc.bookings[detail.ID] = detail

	_, err := svc.CreateRefundRequest(context.Background(), bookings.Actor{ID: uuid.New()}, CreateRefundRequestInput{
		BookingID: detail.ID.String(),
	})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeForbidden, appErr.Code)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	repo := newMemoryRefundRepository()
	bookingSvc := newStubBookingService()
	svc := NewService(repo, bookingSvc)

	notifier := &recordingRefundNotifier{}
	svc.SetNotifier(notifier)

	userID := uuid.New()
	detail := confirmedBooking(userID, 150, 100)
	bookingSvc.bookings[detail.ID] = detail

	request, err := svc.CreateRefundRequest(context.Background(), bookings.Actor{ID: userID}, CreateRefundRequestInput{
		BookingID: detail.ID.String(),
	})
	require.NoError(t, err)

	approved, err := svc.UpdateStatus(context.Background(), request.ID, UpdateStatusInput{Status: "Approved", AdminNote: "ok"})
	require.NoError(t, err)
	assert.Equal(t, RequestStatusApproved, approved.Status)
	assert.Equal(t, "ok", approved.AdminNote)
	assert.Nil(t, approved.ProcessedAt)

	processed, err := svc.UpdateStatus(context.Background(), request.ID, UpdateStatusInput{Status: "Processed"})
	require.NoError(t, err)
	assert.Equal(t, RequestStatusProcessed, processed.Status)
	require.NotNil(t, processed.ProcessedAt)

	// Create, approve and process each mirrored onto the booking and notified
	require.Len(t, bookingSvc.events, 3)
	assert.Equal(t, "Approved", bookingSvc.events[1].NewStatus)
	assert.Equal(t, "Processed", bookingSvc.events[2].NewStatus)
	assert.Len(t, notifier.events, 3)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := newMemoryRefundRepository()
	svc := NewService(repo, newStubBookingService())

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), UpdateStatusInput{Status: "Maybe"})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
}

func TestUpdateStatusUnknownRequest(t *testing.T) {
	repo := newMemoryRefundRepository()
	svc := NewService(repo, newStubBookingService())

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), UpdateStatusInput{Status: "Approved"})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestGetActivePolicyFallsBackToDefault(t *testing.T) {
	repo := newMemoryRefundRepository()
	svc := NewService(repo, newStubBookingService())

	policy, err := svc.GetActivePolicy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "standard", policy.Name)
	assert.NotEmpty(t, policy.Rules)
}

func TestUpsertPolicyValidation(t *testing.T) {
	repo := newMemoryRefundRepository()
	svc := NewService(repo, newStubBookingService())

	cases := []struct {
		name string
		rule Rule
	}{
		{"percent above 100", Rule{MinHoursBeforeDeparture: 0, MaxHoursBeforeDeparture: 24, Percent: 120}},
		{"negative percent", Rule{MinHoursBeforeDeparture: 0, MaxHoursBeforeDeparture: 24, Percent: -5}},
		{"max below min", Rule{MinHoursBeforeDeparture: 48, MaxHoursBeforeDeparture: 24, Percent: 50}},
		{"negative fee", Rule{MinHoursBeforeDeparture: 0, MaxHoursBeforeDeparture: 24, Percent: 50, FixedFee: -10}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpsertPolicy(context.Background(), UpsertPolicyInput{
				Name:  "broken",
				Rules: []Rule{tc.rule},
			})
			require.Error(t, err)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
		})
	}
}

func TestUpsertPolicyIncrementsVersion(t *testing.T) {
	repo := newMemoryRefundRepository()
	bookingSvc := newStubBookingService()
	svc := NewService(repo, bookingSvc)

	input := UpsertPolicyInput{
		Name: "strict",
		Rules: []Rule{
			{MinHoursBeforeDeparture: 48, MaxHoursBeforeDeparture: 8760, Percent: 100},
			{MinHoursBeforeDeparture: 0, MaxHoursBeforeDeparture: 48, Percent: 25, FixedFee: 10},
		},
	}

	first, err := svc.UpsertPolicy(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := svc.UpsertPolicy(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	// New requests price against the installed rules
	userID := uuid.New()
	detail := confirmedBooking(userID, 200, 30)
	bookingSvc.bookings[detail.ID] = detail

	request, err := svc.CreateRefundRequest(context.Background(), bookings.Actor{ID: userID}, CreateRefundRequestInput{
		BookingID: detail.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, request.Amount, "25% of 200 minus the 10 fee")
}

func TestGetMyRefundRequestsResolvesBooking(t *testing.T) {
	repo := newMemoryRefundRepository()
	bookingSvc := newStubBookingService()
	svc := NewService(repo, bookingSvc)

	userID := uuid.New()
	detail := confirmedBooking(userID, 150, 100)
	bookingSvc.bookings[detail.ID] = detail

	_, err := svc.CreateRefundRequest(context.Background(), bookings.Actor{ID: userID}, CreateRefundRequestInput{
		BookingID: detail.ID.String(),
	})
	require.NoError(t, err)

	mine, err := svc.GetMyRefundRequests(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Booking)
	assert.Equal(t, detail.ID, mine[0].Booking.ID)

	// Someone else's listing is empty
	other, err := svc.GetMyRefundRequests(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestHandlePaymentWebhookAcknowledges(t *testing.T) {
	repo := newMemoryRefundRepository()
	svc := NewService(repo, newStubBookingService())

	err := svc.HandlePaymentWebhook(context.Background(), map[string]interface{}{
		"event": "payment.refunded",
		"id":    "evt_123",
	})
	require.NoError(t, err)
}
