// Package payment defines the boundary to the external payment
// provider.  The provider owns every authorization after creation and
// is the sole authority on its status; nothing in this package mutates
// an authorization locally.  The Provider interface is injected into
// the booking workflow so tests can substitute a double for the HTTP
// client.
package payment

import "context"

// Metadata binds an authorization to exactly one {hotel, identity}
// pair.  It is attached when the authorization is created, stored by
// the provider, and echoed back on status fetches so the booking
// workflow can detect replays against a different hotel or caller.
type Metadata struct {
	HotelID    string `json:"hotel_id"`
	IdentityID string `json:"identity_id"`
}

// Authorization is the provider-side record of a charge attempt.
// Amount is in minor currency units.  CompletionToken is the
// client-side secret the caller needs to finish the payment with the
// provider; it is only populated on creation.
type Authorization struct {
	ID              string   `json:"id"`
	CompletionToken string   `json:"completion_token"`
	Status          string   `json:"status"`
	Amount          int64    `json:"amount"`
	Currency        string   `json:"currency"`
	Metadata        Metadata `json:"metadata"`
}

// StatusSucceeded is the literal provider status that permits a booking
// to be committed.  Any other value fails reconciliation.
const StatusSucceeded = "succeeded"

// Provider is the payment provider boundary.  Both calls are blocking
// I/O from the workflow's perspective and are never retried here;
// callers may retry at their own layer.
type Provider interface {
	// CreateAuthorization mints a new authorization for the given amount
	// in minor units, carrying meta as immutable context.
	CreateAuthorization(ctx context.Context, amountMinor int64, currency string, meta Metadata) (Authorization, error)

	// FetchStatus returns the live authoritative state of an
	// authorization.  Client-supplied status strings are never trusted;
	// this call is the only source of truth during reconciliation.
	FetchStatus(ctx context.Context, id string) (Authorization, error)
}
