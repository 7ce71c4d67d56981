package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"skytrip/internal/shared/apperrors"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]Booking, error)
	GetAll(ctx context.Context) ([]Booking, error)

	ReplaceReturnLeg(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	// SetStatusIf transitions only when the stored status matches expected.
	// Returns false without error when the guard does not hold.
	SetStatusIf(ctx context.Context, id uuid.UUID, expected, next Status) (bool, error)
	SetRefundMirror(ctx context.Context, id uuid.UUID, status *Status, refundStatus RefundStatus, amount float64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create inserts the booking and its seat allocation in one transaction.
// The unique index on seat_allocations (flight_id, seat_number) makes the
// allocation insert the race arbiter across both legs of every booking, so a
// duplicate-key failure here means the seat was taken between the pre-check
// and the write.
func (r *repository) Create(ctx context.Context, booking *Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booking).Error; err != nil {
			return err
		}
		if booking.SeatNumber != nil {
			allocation := SeatAllocation{
				FlightID:   booking.FlightID,
				SeatNumber: *booking.SeatNumber,
				BookingID:  booking.ID,
				Leg:        LegOutbound,
			}
			if err := tx.Create(&allocation).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.SeatConflict("seat is already booked on this flight")
		}
		return apperrors.StoreUnavailable(err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("booking not found")
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	return &booking, nil
}

func (r *repository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	var bookingList []Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookingList).Error
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return bookingList, nil
}

func (r *repository) GetAll(ctx context.Context) ([]Booking, error) {
	var bookingList []Booking
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&bookingList).Error
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return bookingList, nil
}

// ReplaceReturnLeg overwrites every return-leg column in one update so a
// second attach never merges with the first. The previous return-leg seat
// allocation is released and the new one taken inside the same transaction,
// so the seat_allocations unique index arbitrates the return seat against
// every live booking, outbound legs included.
func (r *repository) ReplaceReturnLeg(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	returnFlightID, _ := updates["return_flight_id"].(uuid.UUID)
	returnSeat, _ := updates["return_seat_number"].(*string)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Booking{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		err := tx.Where("booking_id = ? AND leg = ?", id, LegReturn).
			Delete(&SeatAllocation{}).Error
		if err != nil {
			return err
		}
		if returnSeat != nil {
			allocation := SeatAllocation{
				FlightID:   returnFlightID,
				SeatNumber: *returnSeat,
				BookingID:  id,
				Leg:        LegReturn,
			}
			if err := tx.Create(&allocation).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.SeatConflict("seat is already booked on the return flight")
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("booking not found")
		}
		return apperrors.StoreUnavailable(err)
	}
	return nil
}

// SetStatus writes the status. Cancellation also releases the booking's seat
// allocations in the same transaction so the seats become takeable again.
func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	updates := map[string]interface{}{"status": status}
	if status == StatusCancelled {
		now := time.Now().UTC()
		updates["cancelled_at"] = &now
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Booking{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if status == StatusCancelled {
			return tx.Where("booking_id = ?", id).Delete(&SeatAllocation{}).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("booking not found")
		}
		return apperrors.StoreUnavailable(err)
	}
	return nil
}

func (r *repository) SetStatusIf(ctx context.Context, id uuid.UUID, expected, next Status) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if result.Error != nil {
		return false, apperrors.StoreUnavailable(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) SetRefundMirror(ctx context.Context, id uuid.UUID, status *Status, refundStatus RefundStatus, amount float64) error {
	updates := map[string]interface{}{
		"refund_status": refundStatus,
		"refund_amount": amount,
	}
	if status != nil {
		updates["status"] = *status
	}

	result := r.db.WithContext(ctx).Model(&Booking{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return apperrors.StoreUnavailable(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("booking not found")
	}
	return nil
}

