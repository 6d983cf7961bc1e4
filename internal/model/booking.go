package model

import "time"

// Booking records a paid stay at a hotel.  Rows in the `bookings`
// table are append-only: a booking is inserted exactly once, after the
// payment authorization has been reconciled against the provider, and
// is never updated or deleted afterwards.  Its existence is the
// durable proof that payment was verified.
//
// Fields:
//
//	ID              – primary key identifier.
//	HotelID         – hotel being booked.
//	IdentityID      – identity that paid for the stay.
//	CheckIn         – first night of the stay.
//	CheckOut        – departure date.
//	Guests          – party size.
//	TotalAmount     – total cost in major currency units.
//	ContactName     – display name for the receipt.
//	ContactEmail    – address the confirmation notice is sent to.
//	AuthorizationID – payment provider authorization this booking settles.
//	CreatedAt       – creation timestamp.
type Booking struct {
	ID              uint64    // bookings.id
	HotelID         uint64    // bookings.hotel_id
	IdentityID      uint64    // bookings.identity_id
	CheckIn         time.Time // bookings.check_in
	CheckOut        time.Time // bookings.check_out
	Guests          int       // bookings.guests
	TotalAmount     int64     // bookings.total_amount
	ContactName     string    // bookings.contact_name
	ContactEmail    string    // bookings.contact_email
	AuthorizationID string    // bookings.authorization_id
	CreatedAt       time.Time // bookings.created_at
}
