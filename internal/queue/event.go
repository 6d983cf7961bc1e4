// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published after a booking has been durably
// persisted.  It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID       uint64 `json:"booking_id"`
	IdentityID      uint64 `json:"identity_id"`
	HotelID         uint64 `json:"hotel_id"`
	HotelName       string `json:"hotel_name"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	Guests          int    `json:"guests"`
	TotalAmount     int64  `json:"total_amount"`
	Currency        string `json:"currency"`
	AuthorizationID string `json:"authorization_id"`
	ConfirmedAt     string `json:"confirmed_at"`
}
