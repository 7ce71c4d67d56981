package bookings

// CreateBookingRequest is the outbound-leg reservation payload.
type CreateBookingRequest struct {
	FlightID      string        `json:"flight_id" binding:"required,uuid"`
	Passengers    PassengerList `json:"passengers" binding:"required,min=1,dive"`
	SeatNumber    string        `json:"seat_number"`
	ExtraWeight   float64       `json:"extra_weight" binding:"omitempty,min=0"`
	TotalPrice    *float64      `json:"total_price" binding:"omitempty,min=0"`
	PaymentMethod string        `json:"payment_method" binding:"required"`
	PetDetails    *PetDetails   `json:"pet_details"`
	Contact       ContactInfo   `json:"contact"`
}

// AttachReturnRequest carries the full return leg. Re-sending it replaces the
// previously attached leg.
type AttachReturnRequest struct {
	ReturnFlightID string        `json:"return_flight_id" binding:"required,uuid"`
	Passengers     PassengerList `json:"passengers" binding:"required,min=1,dive"`
	SeatNumber     string        `json:"seat_number"`
	ExtraWeight    float64       `json:"extra_weight" binding:"omitempty,min=0"`
	TotalPrice     *float64      `json:"total_price" binding:"omitempty,min=0"`
	PetDetails     *PetDetails   `json:"pet_details"`
	Contact        *ContactInfo  `json:"contact"`
}

// BookedSeatsResponse lists occupied seat codes for a flight.
type BookedSeatsResponse struct {
	FlightID    string   `json:"flight_id"`
	BookedSeats []string `json:"booked_seats"`
}
