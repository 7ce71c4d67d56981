package bookings

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Passenger is one traveller on a leg.
type Passenger struct {
	Name           string `json:"name" binding:"required"`
	PassportNumber string `json:"passport_number" binding:"required"`
	DateOfBirth    string `json:"date_of_birth" binding:"required"`
	Email          string `json:"email,omitempty" binding:"omitempty,email"`
	Gender         string `json:"gender,omitempty"`
}

// PassengerList is stored as JSONB on the booking row.
type PassengerList []Passenger

func (p PassengerList) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

func (p *PassengerList) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// PetDetails describes an animal travelling with the booking, nil when none.
type PetDetails struct {
	Type        string  `json:"type"`
	Weight      float64 `json:"weight,omitempty"`
	Description string  `json:"description,omitempty"`
}

func (p PetDetails) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PetDetails) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// ContactInfo is the reachable contact for a leg.
type ContactInfo struct {
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

func (c ContactInfo) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *ContactInfo) Scan(value interface{}) error {
	return scanJSON(value, c)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return fmt.Errorf("unsupported type for JSONB scan: %T", value)
		}
	}
	return json.Unmarshal(bytes, dest)
}

// Booking is the two-leg reservation aggregate. The outbound leg is always
// present; the return leg exists once attach-return has been called
// (ReturnFlightID non-nil). Leg money fields are written once at
// creation/attach time; only the refund mirror fields are mutated by another
// component, via ApplyRefundEvent.
type Booking struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`

	// Outbound leg
	FlightID    uuid.UUID     `gorm:"type:uuid;not null" json:"flight_id"`
	SeatNumber  *string       `gorm:"size:10" json:"seat_number,omitempty"`
	Passengers  PassengerList `gorm:"type:jsonb;not null" json:"passengers"`
	ExtraWeight float64       `gorm:"default:0" json:"extra_weight"`
	Pet         *PetDetails   `gorm:"type:jsonb" json:"pet_details,omitempty"`
	Contact     ContactInfo   `gorm:"type:jsonb" json:"contact"`
	TotalPrice  float64       `gorm:"not null;check:total_price >= 0" json:"total_price"`

	// Return leg, absent until attached
	ReturnFlightID    *uuid.UUID    `gorm:"type:uuid" json:"return_flight_id,omitempty"`
	ReturnSeatNumber  *string       `gorm:"size:10" json:"return_seat_number,omitempty"`
	ReturnPassengers  PassengerList `gorm:"type:jsonb" json:"return_passengers,omitempty"`
	ReturnExtraWeight float64       `gorm:"default:0" json:"return_extra_weight"`
	ReturnPet         *PetDetails   `gorm:"type:jsonb" json:"return_pet_details,omitempty"`
	ReturnContact     *ContactInfo  `gorm:"type:jsonb" json:"return_contact,omitempty"`
	ReturnTotalPrice  float64       `gorm:"default:0;check:return_total_price >= 0" json:"return_total_price"`

	PaymentMethod string `gorm:"size:50;not null" json:"payment_method"`
	BookingRef    string `gorm:"unique;not null" json:"booking_ref"`

	Status       Status       `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	RefundStatus RefundStatus `gorm:"type:varchar(20);default:'none'" json:"refund_status"`
	RefundAmount float64      `gorm:"default:0" json:"refund_amount"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

const (
	LegOutbound = "outbound"
	LegReturn   = "return"
)

// SeatAllocation is the arbiter row for seat exclusivity. Both legs write
// into this one table inside the booking transaction, so the unique index on
// (flight_id, seat_number) holds across outbound and return legs of any two
// bookings. Rows are removed when the booking is cancelled or when a return
// leg is replaced.
type SeatAllocation struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	FlightID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_seat_allocations_flight_seat"`
	SeatNumber string    `gorm:"size:10;not null;uniqueIndex:uq_seat_allocations_flight_seat"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Leg        string    `gorm:"type:varchar(10);not null"`
	CreatedAt  time.Time
}

func (SeatAllocation) TableName() string {
	return "seat_allocations"
}

func (b *Booking) HasReturnLeg() bool {
	return b.ReturnFlightID != nil
}

// TotalPaid is the money value across both legs.
func (b *Booking) TotalPaid() float64 {
	return b.TotalPrice + b.ReturnTotalPrice
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}
