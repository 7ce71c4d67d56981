package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the partial unique index that closes the
// read-then-write race on refund-request creation, plus the seat-ledger read
// indexes. AutoMigrate cannot express partial indexes, so they live here as
// raw DDL. Seat exclusivity itself is enforced by the unique index on
// seat_allocations (flight_id, seat_number), which both legs write into
// inside the booking transaction.
func MigrateConstraints(db *gorm.DB) error {
	// One active refund request per booking. Rejected requests do not block
	// a re-request.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_refund_requests_active_booking
		ON refund_requests (booking_id)
		WHERE status IN ('Pending', 'Approved', 'Processed');
	`).Error
	if err != nil {
		return err
	}

	// Seat-ledger scans filter by flight and liveness.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_flight_status
		ON bookings (flight_id, status);
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_return_flight_status
		ON bookings (return_flight_id, status)
		WHERE return_flight_id IS NOT NULL;
	`).Error
	if err != nil {
		return err
	}

	return nil
}
