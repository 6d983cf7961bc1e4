// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios with errors.Is rather than string matching.
package repository

import "errors"

// ErrEmailExists is returned when an identity with the given email
// address already exists, verified or not. Handlers should translate
// this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrIdentityNotFound is returned when no identity matches the given
// id or email address.
var ErrIdentityNotFound = errors.New("identity not found")

// ErrHotelNotFound is returned when a hotel id does not resolve, either
// on lookup or at booking-append time. The conditional booking insert
// reports it instead of silently writing nothing.
var ErrHotelNotFound = errors.New("hotel not found")
