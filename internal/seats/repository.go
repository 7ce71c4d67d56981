package seats

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"skytrip/internal/shared/apperrors"
)

// Repository reads occupancy from seat_allocations, the table the booking
// writes maintain transactionally. A seat is taken exactly when an allocation
// row references it, on either leg.
type Repository interface {
	ListTakenSeats(ctx context.Context, flightID uuid.UUID) ([]string, error)
	IsSeatTaken(ctx context.Context, flightID uuid.UUID, seatCode string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListTakenSeats(ctx context.Context, flightID uuid.UUID) ([]string, error) {
	var seatCodes []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT seat_number FROM seat_allocations
		WHERE flight_id = ?
	`, flightID).Scan(&seatCodes).Error
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return seatCodes, nil
}

func (r *repository) IsSeatTaken(ctx context.Context, flightID uuid.UUID, seatCode string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM seat_allocations
		WHERE flight_id = ? AND seat_number = ?
	`, flightID, seatCode).Scan(&count).Error
	if err != nil {
		return false, apperrors.StoreUnavailable(err)
	}
	return count > 0, nil
}
