package model

import "time"

// Hotel represents a property available for booking.  This struct
// corresponds to a row in the `hotels` table.  The nightly rate is
// stored in major currency units; conversion to minor units happens
// only at the payment provider boundary.
//
// Fields:
//
//	ID          – primary key identifier.
//	Name        – display name of the property.
//	City        – city used for catalogue filtering.
//	Description – free-form description shown in listings.
//	NightlyRate – price of one night in major currency units.
//	CreatedAt   – timestamp when the hotel was created.
type Hotel struct {
	ID          uint64    // hotels.id
	Name        string    // hotels.name
	City        string    // hotels.city
	Description string    // hotels.description
	NightlyRate int64     // hotels.nightly_rate
	CreatedAt   time.Time // hotels.created_at
}
