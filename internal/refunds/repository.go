package refunds

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"skytrip/internal/shared/apperrors"
)

// ErrDuplicateActive is returned when the partial unique index rejects a
// second active request for the same booking. The service layer resolves the
// winning request's identity before reporting the conflict.
var ErrDuplicateActive = errors.New("active refund request already exists")

type Repository interface {
	Create(ctx context.Context, request *RefundRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*RefundRequest, error)
	GetActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*RefundRequest, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]RefundRequest, error)
	GetAll(ctx context.Context) ([]RefundRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status RequestStatus, adminNote string, processedAt *time.Time) (*RefundRequest, error)

	GetActivePolicy(ctx context.Context) (*RefundPolicy, error)
	SavePolicy(ctx context.Context, policy *RefundPolicy) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, request *RefundRequest) error {
	err := r.db.WithContext(ctx).Create(request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateActive
		}
		return apperrors.StoreUnavailable(err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*RefundRequest, error) {
	var request RefundRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("refund request not found")
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	return &request, nil
}

func (r *repository) GetActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*RefundRequest, error) {
	var request RefundRequest
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status IN ?", bookingID,
			[]RequestStatus{RequestStatusPending, RequestStatusApproved, RequestStatusProcessed}).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("no active refund request for this booking")
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	return &request, nil
}

func (r *repository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]RefundRequest, error) {
	var requests []RefundRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return requests, nil
}

func (r *repository) GetAll(ctx context.Context) ([]RefundRequest, error) {
	var requests []RefundRequest
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return requests, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status RequestStatus, adminNote string, processedAt *time.Time) (*RefundRequest, error) {
	updates := map[string]interface{}{
		"status": status,
	}
	if adminNote != "" {
		updates["admin_note"] = adminNote
	}
	if processedAt != nil {
		updates["processed_at"] = processedAt
	}

	result := r.db.WithContext(ctx).Model(&RefundRequest{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, apperrors.StoreUnavailable(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("refund request not found")
	}

	return r.GetByID(ctx, id)
}

func (r *repository) GetActivePolicy(ctx context.Context) (*RefundPolicy, error) {
	var policy RefundPolicy
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("version DESC").First(&policy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("no active refund policy")
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	return &policy, nil
}

// SavePolicy deactivates the current policy and stores the new one as active.
func (r *repository) SavePolicy(ctx context.Context, policy *RefundPolicy) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&RefundPolicy{}).Where("active = ?", true).Update("active", false).Error; err != nil {
			return err
		}
		policy.Active = true
		return tx.Create(policy).Error
	})
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	return nil
}
