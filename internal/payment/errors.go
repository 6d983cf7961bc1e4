package payment

import "errors"

// ErrAuthorizationNotFound is returned when the provider has no record
// of the requested authorization id.
var ErrAuthorizationNotFound = errors.New("authorization not found")

// ErrUnavailable is returned when the provider cannot be reached or
// answers with a server-side failure.  It is transient from the
// caller's point of view; this package never retries.
var ErrUnavailable = errors.New("payment provider unavailable")

// ErrRejected is returned when the provider refuses an authorization
// request outright (e.g. invalid amount or currency).
var ErrRejected = errors.New("payment provider rejected the request")
