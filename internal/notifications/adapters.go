package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"skytrip/internal/bookings"
	"skytrip/internal/refunds"
)

// UserService resolves recipient details for outbound notifications.
// auth.UserServiceAdapter satisfies this.
type UserService interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (email, firstName, lastName string, err error)
}

// BookingNotifierAdapter bridges booking events onto the notification pipeline.
type BookingNotifierAdapter struct {
	service NotificationService
	users   UserService
}

func NewBookingNotifierAdapter(service NotificationService, users UserService) *BookingNotifierAdapter {
	return &BookingNotifierAdapter{
		service: service,
		users:   users,
	}
}

// PublishBookingConfirmed implements bookings.Notifier.
func (bna *BookingNotifierAdapter) PublishBookingConfirmed(ctx context.Context, event bookings.BookingConfirmedEvent) error {
	email, firstName, lastName, err := bna.users.GetUserByID(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient for booking %s: %w", event.BookingID, err)
	}

	templateData := map[string]interface{}{
		"booking_ref": event.BookingRef,
		"total_paid":  event.TotalPaid,
	}

	return bna.service.SendBookingNotification(ctx, event.UserID, email,
		fmt.Sprintf("%s %s", firstName, lastName), event.BookingID,
		NotificationTypeBookingConfirmed, templateData)
}

// RefundNotifierAdapter bridges refund ledger events onto the notification pipeline.
type RefundNotifierAdapter struct {
	service NotificationService
	users   UserService
}

func NewRefundNotifierAdapter(service NotificationService, users UserService) *RefundNotifierAdapter {
	return &RefundNotifierAdapter{
		service: service,
		users:   users,
	}
}

// PublishRefundStatusUpdated implements refunds.Notifier.
func (rna *RefundNotifierAdapter) PublishRefundStatusUpdated(ctx context.Context, event refunds.RefundStatusNotification) error {
	email, firstName, lastName, err := rna.users.GetUserByID(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient for refund request %s: %w", event.RequestID, err)
	}

	templateData := map[string]interface{}{
		"booking_ref":   event.BookingID.String(),
		"refund_status": string(event.Status),
		"refund_amount": event.Amount,
	}

	return rna.service.SendRefundNotification(ctx, event.UserID, email,
		fmt.Sprintf("%s %s", firstName, lastName), event.BookingID, event.RequestID,
		NotificationTypeRefundStatusUpdated, templateData)
}
