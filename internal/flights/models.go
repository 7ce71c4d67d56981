package flights

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SeatList is a JSONB-backed list of seat codes making up a flight's
// inventory (e.g. "12A"). Bookings reference these codes by value.
type SeatList []string

func (s SeatList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *SeatList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return fmt.Errorf("unsupported type for SeatList: %T", value)
		}
	}
	return json.Unmarshal(bytes, s)
}

// Flight is immutable reference data owned by the catalog. Bookings hold a
// flight id plus a price snapshot, never a copy of the seat inventory.
type Flight struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	From          string    `json:"from" gorm:"column:origin;not null;size:100;index:idx_flights_route"`
	To            string    `json:"to" gorm:"column:destination;not null;size:100;index:idx_flights_route"`
	Date          string    `json:"date" gorm:"not null;size:10;index"` // calendar day, YYYY-MM-DD
	Price         float64   `json:"price" gorm:"not null;check:price >= 0"`
	Airline       string    `json:"airline" gorm:"not null;size:100"`
	FlightNumber  string    `json:"flight_number" gorm:"not null;size:20"`
	DepartureTime string    `json:"departure_time" gorm:"size:5"` // HH:MM, local
	ArrivalTime   string    `json:"arrival_time" gorm:"size:5"`
	Duration      string    `json:"duration" gorm:"size:20"`
	Class         string    `json:"class" gorm:"size:30;default:'Economy'"`
	Seats         SeatList  `json:"seats" gorm:"type:jsonb"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Flight) TableName() string {
	return "flights"
}

// DepartureInstant resolves the flight's departure to an instant. Returns the
// zero time when the stored calendar day cannot be parsed; callers treat that
// as "departure unknown".
func (f *Flight) DepartureInstant() time.Time {
	if f == nil || f.Date == "" {
		return time.Time{}
	}
	if f.DepartureTime != "" {
		if t, err := time.Parse("2006-01-02 15:04", f.Date+" "+f.DepartureTime); err == nil {
			return t
		}
	}
	t, err := time.Parse("2006-01-02", f.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

type CreateFlightRequest struct {
	From          string   `json:"from" binding:"required,min=2,max=100"`
	To            string   `json:"to" binding:"required,min=2,max=100"`
	Date          string   `json:"date" binding:"required"`
	Price         float64  `json:"price" binding:"required,min=0"`
	Airline       string   `json:"airline" binding:"required"`
	FlightNumber  string   `json:"flight_number" binding:"required"`
	DepartureTime string   `json:"departure_time"`
	ArrivalTime   string   `json:"arrival_time"`
	Duration      string   `json:"duration"`
	Class         string   `json:"class"`
	Seats         []string `json:"seats"`
}

type UpdateFlightRequest struct {
	From          *string  `json:"from" binding:"omitempty,min=2,max=100"`
	To            *string  `json:"to" binding:"omitempty,min=2,max=100"`
	Date          *string  `json:"date"`
	Price         *float64 `json:"price" binding:"omitempty,min=0"`
	Airline       *string  `json:"airline"`
	FlightNumber  *string  `json:"flight_number"`
	DepartureTime *string  `json:"departure_time"`
	ArrivalTime   *string  `json:"arrival_time"`
	Duration      *string  `json:"duration"`
	Class         *string  `json:"class"`
	Seats         []string `json:"seats"`
}

type SearchQuery struct {
	From       string `form:"from" binding:"required"`
	To         string `form:"to" binding:"required"`
	Date       string `form:"date" binding:"required"`
	ReturnDate string `form:"returnDate"`
}

type ListQuery struct {
	From    string `form:"from"`
	To      string `form:"to"`
	Date    string `form:"date"`
	Airline string `form:"airline"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type PaginatedFlights struct {
	Flights    []Flight `json:"flights"`
	TotalCount int64    `json:"total_count"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"total_pages"`
}

// SearchResult groups outbound and (optional) return candidates for a
// one-way or round-trip search.
type SearchResult struct {
	OutboundFlights []Flight `json:"outbound_flights"`
	ReturnFlights   []Flight `json:"return_flights"`
}
