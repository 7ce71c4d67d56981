package refunds

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the refund request lifecycle state. Pending, Approved and
// Processed block new requests for the same booking; Rejected does not.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "Pending"
	RequestStatusApproved  RequestStatus = "Approved"
	RequestStatusRejected  RequestStatus = "Rejected"
	RequestStatusProcessed RequestStatus = "Processed"
)

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusProcessed:
		return true
	}
	return false
}

// IsActive reports whether this status blocks a new request for the booking.
func (s RequestStatus) IsActive() bool {
	return s == RequestStatusPending || s == RequestStatusApproved || s == RequestStatusProcessed
}

// RefundRequest tracks one refund attempt against a booking. The computed
// amount here is authoritative; the copy on the booking row is a display
// cache.
type RefundRequest struct {
	ID           uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID    uuid.UUID     `gorm:"type:uuid;index;not null" json:"booking_id"`
	UserID       uuid.UUID     `gorm:"type:uuid;index;not null" json:"user_id"`
	Amount       float64       `gorm:"not null;check:amount >= 0" json:"amount"`
	IsFullRefund bool          `gorm:"default:false" json:"is_full_refund"`
	Reason       string        `gorm:"size:500" json:"reason"`
	Status       RequestStatus `gorm:"type:varchar(20);default:'Pending';index" json:"status"`
	AdminNote    string        `gorm:"size:500" json:"admin_note,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	ProcessedAt  *time.Time    `json:"processed_at,omitempty"`
}

func (RefundRequest) TableName() string {
	return "refund_requests"
}

// Rule is one refund tier. A rule matches when the hours-before-departure
// value falls inside [MinHoursBeforeDeparture, MaxHoursBeforeDeparture] and
// the booking is at least MinHoursSinceBooking old.
type Rule struct {
	MinHoursBeforeDeparture float64 `json:"min_hours_before_departure"`
	MaxHoursBeforeDeparture float64 `json:"max_hours_before_departure"`
	MinHoursSinceBooking    float64 `json:"min_hours_since_booking"`
	Percent                 float64 `json:"percent"`
	FixedFee                float64 `json:"fixed_fee"`
	Description             string  `json:"description"`
}

// RuleList is stored as JSONB, preserving declaration order. First match wins.
type RuleList []Rule

func (r RuleList) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	return json.Marshal(r)
}

func (r *RuleList) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return fmt.Errorf("unsupported type for RuleList: %T", value)
		}
	}
	return json.Unmarshal(bytes, r)
}

// RefundPolicy is a named, versioned rule set. At most one policy is active
// at a time; when none is configured the engine falls back to the built-in
// default tiers.
type RefundPolicy struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Version   int       `gorm:"default:1" json:"version"`
	Rules     RuleList  `gorm:"type:jsonb;not null" json:"rules"`
	Active    bool      `gorm:"default:false;index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RefundPolicy) TableName() string {
	return "refund_policies"
}

// CreateRefundRequestInput is the user-facing creation payload.
type CreateRefundRequestInput struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	Reason    string `json:"reason" binding:"omitempty,max=500"`
}

// UpdateStatusInput is the admin transition payload.
type UpdateStatusInput struct {
	Status    string `json:"status" binding:"required"`
	AdminNote string `json:"admin_note" binding:"omitempty,max=500"`
}

// UpsertPolicyInput replaces the active policy's rule set.
type UpsertPolicyInput struct {
	Name  string `json:"name" binding:"required,max=100"`
	Rules []Rule `json:"rules" binding:"required,min=1,dive"`
}
