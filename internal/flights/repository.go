package flights

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"skytrip/internal/shared/apperrors"
)

type Repository interface {
	Create(flight *Flight) error
	GetByID(id uuid.UUID) (*Flight, error)
	Update(id uuid.UUID, updates map[string]interface{}) (*Flight, error)
	Delete(id uuid.UUID) error
	GetAll(query ListQuery) ([]Flight, int64, error)
	Search(from, to, date string) ([]Flight, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(flight *Flight) error {
	if err := r.db.Create(flight).Error; err != nil {
		return apperrors.StoreUnavailable(err)
	}
	return nil
}

func (r *repository) GetByID(id uuid.UUID) (*Flight, error) {
	var flight Flight
	err := r.db.Where("id = ?", id).First(&flight).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("flight not found")
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	return &flight, nil
}

func (r *repository) Update(id uuid.UUID, updates map[string]interface{}) (*Flight, error) {
	var flight Flight

	if err := r.db.Where("id = ?", id).First(&flight).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("flight not found")
		}
		return nil, apperrors.StoreUnavailable(err)
	}

	if err := r.db.Model(&flight).Updates(updates).Error; err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	// Re-read so computed columns and timestamps come back fresh
	if err := r.db.Where("id = ?", id).First(&flight).Error; err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	return &flight, nil
}

func (r *repository) Delete(id uuid.UUID) error {
	result := r.db.Where("id = ?", id).Delete(&Flight{})
	if result.Error != nil {
		return apperrors.StoreUnavailable(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("flight not found")
	}
	return nil
}

func (r *repository) GetAll(query ListQuery) ([]Flight, int64, error) {
	var flightList []Flight
	var totalCount int64

	db := r.db.Model(&Flight{})

	if query.From != "" {
		db = db.Where("LOWER(origin) LIKE ?", "%"+strings.ToLower(query.From)+"%")
	}
	if query.To != "" {
		db = db.Where("LOWER(destination) LIKE ?", "%"+strings.ToLower(query.To)+"%")
	}
	if query.Date != "" {
		db = db.Where("date = ?", query.Date)
	}
	if query.Airline != "" {
		db = db.Where("LOWER(airline) LIKE ?", "%"+strings.ToLower(query.Airline)+"%")
	}

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, apperrors.StoreUnavailable(err)
	}

	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	offset := (query.Page - 1) * query.Limit

	err := db.Order("date ASC, departure_time ASC").
		Offset(offset).
		Limit(query.Limit).
		Find(&flightList).Error
	if err != nil {
		return nil, 0, apperrors.StoreUnavailable(err)
	}

	return flightList, totalCount, nil
}

// Search matches the exact route and calendar day. Route matching is
// case-insensitive because city names arrive from free-text inputs.
func (r *repository) Search(from, to, date string) ([]Flight, error) {
	var flightList []Flight

	err := r.db.
		Where("LOWER(origin) = ? AND LOWER(destination) = ? AND date = ?",
			strings.ToLower(strings.TrimSpace(from)),
			strings.ToLower(strings.TrimSpace(to)),
			date).
		Order("departure_time ASC").
		Find(&flightList).Error
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	return flightList, nil
}
