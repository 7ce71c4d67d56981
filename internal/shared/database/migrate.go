package database

import (
	"skytrip/internal/bookings"
	"skytrip/internal/flights"
	"skytrip/internal/refunds"
	"skytrip/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&flights.Flight{},
		&bookings.Booking{},
		&bookings.SeatAllocation{},
		&refunds.RefundRequest{},
		&refunds.RefundPolicy{},
	)
}
