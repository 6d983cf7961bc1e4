package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/stayhub/hotel-reservation/internal/mailer"
	"github.com/stayhub/hotel-reservation/internal/model"
	"github.com/stayhub/hotel-reservation/internal/payment"
	"github.com/stayhub/hotel-reservation/internal/queue"
)

// ErrIntentIncomplete is returned when the provider mints an
// authorization without a usable client-side completion token, leaving
// the caller no way to finish the payment.
var ErrIntentIncomplete = errors.New("provider returned no completion token")

// ErrContextMismatch is returned when the provider-held metadata does
// not match the confirming request's hotel or identity.  This is the
// anti-tampering check that stops a paid authorization for one
// hotel/user from being replayed against another.
var ErrContextMismatch = errors.New("authorization context mismatch")

// ErrPaymentNotSucceeded is returned when the provider reports any
// status other than succeeded.  The literal provider status is included
// in the wrapped message for diagnostics.
var ErrPaymentNotSucceeded = errors.New("payment has not succeeded")

// HotelStore is the hotel storage boundary the booking workflow depends
// on.  *repository.HotelRepo satisfies it; tests substitute fakes.
type HotelStore interface {
	GetByID(ctx context.Context, id uint64) (model.Hotel, error)
	AppendBooking(ctx context.Context, b *model.Booking) error
}

// PaymentIntent is the result of phase 1: everything the caller needs
// to complete the payment directly with the provider.  Total is in
// major currency units; the provider was given the minor-unit amount.
type PaymentIntent struct {
	AuthorizationID string `json:"authorization_id"`
	CompletionToken string `json:"completion_token"`
	Total           int64  `json:"total"`
	Currency        string `json:"currency"`
}

// BookingDetails carries the stay parameters and receipt fields the
// caller submits when confirming a booking.
type BookingDetails struct {
	CheckIn      time.Time
	CheckOut     time.Time
	Guests       int
	ContactName  string
	ContactEmail string
}

// BookingService is the two-phase booking-payment reconciliation
// workflow.  Phase 1 mints a payment authorization bound to one
// {hotel, identity} pair; phase 2 cross-checks the provider's
// authoritative record against the confirming request and appends the
// booking only when every check passes.  There is no transaction
// spanning the two phases; the authorization id is the sole
// correlation token, and no local timeout is enforced between them.
type BookingService struct {
	hotels   HotelStore
	provider payment.Provider
	mail     mailer.Mailer
	publish  func(ctx context.Context, ev queue.BookingConfirmedEvent) error
	currency string
	now      func() time.Time
}

// NewBookingService wires the workflow to its collaborators.  The
// provider is injected rather than shared globally so tests can
// substitute a double.  publish may be nil to disable event publishing.
func NewBookingService(hotels HotelStore, provider payment.Provider, mail mailer.Mailer,
	publish func(ctx context.Context, ev queue.BookingConfirmedEvent) error, currency string) *BookingService {
	return &BookingService{
		hotels:   hotels,
		provider: provider,
		mail:     mail,
		publish:  publish,
		currency: currency,
		now:      time.Now,
	}
}

// CreateAuthorization is phase 1.  It prices the stay at nightlyRate
// times the integer night count (no partial-night proration) and asks
// the provider to mint an authorization for the minor-unit amount,
// carrying the {hotel, identity} pair as immutable metadata.  The
// caller completes payment with the provider out of band.
func (s *BookingService) CreateAuthorization(ctx context.Context, hotelID uint64, nights int, identityID uint64) (PaymentIntent, error) {
	hotel, err := s.hotels.GetByID(ctx, hotelID)
	if err != nil {
		return PaymentIntent{}, err
	}
	total := hotel.NightlyRate * int64(nights)
	auth, err := s.provider.CreateAuthorization(ctx, total*100, s.currency, payment.Metadata{
		HotelID:    strconv.FormatUint(hotelID, 10),
		IdentityID: strconv.FormatUint(identityID, 10),
	})
	if err != nil {
		return PaymentIntent{}, err
	}
	if auth.CompletionToken == "" {
		return PaymentIntent{}, ErrIntentIncomplete
	}
	return PaymentIntent{
		AuthorizationID: auth.ID,
		CompletionToken: auth.CompletionToken,
		Total:           total,
		Currency:        s.currency,
	}, nil
}

// ConfirmBooking is phase 2.  It fetches the authorization's live state
// from the provider (never trusting a client-supplied status), verifies
// the metadata still names this hotel and this caller, requires the
// succeeded status, and then appends the booking with a single
// conditional write.  The confirmation email and broker event fire only
// after durable persistence, and their failures are logged without
// unwinding the booking.
//
// Repeated confirms against the same authorization id are not
// deduplicated here; each successful call appends another booking.
func (s *BookingService) ConfirmBooking(ctx context.Context, hotelID uint64, authorizationID string, identityID uint64, d BookingDetails) (model.Booking, error) {
	auth, err := s.provider.FetchStatus(ctx, authorizationID)
	if err != nil {
		return model.Booking{}, err
	}
	if auth.Metadata.HotelID != strconv.FormatUint(hotelID, 10) ||
		auth.Metadata.IdentityID != strconv.FormatUint(identityID, 10) {
		return model.Booking{}, ErrContextMismatch
	}
	if auth.Status != payment.StatusSucceeded {
		return model.Booking{}, fmt.Errorf("%w: provider status %q", ErrPaymentNotSucceeded, auth.Status)
	}
	hotel, err := s.hotels.GetByID(ctx, hotelID)
	if err != nil {
		return model.Booking{}, err
	}

	booking := model.Booking{
		HotelID:         hotelID,
		IdentityID:      identityID,
		CheckIn:         d.CheckIn,
		CheckOut:        d.CheckOut,
		Guests:          d.Guests,
		TotalAmount:     auth.Amount / 100, // paid minor units back to major
		ContactName:     d.ContactName,
		ContactEmail:    d.ContactEmail,
		AuthorizationID: auth.ID,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.hotels.AppendBooking(ctx, &booking); err != nil {
		return model.Booking{}, err
	}

	s.notify(ctx, hotel, booking)
	return booking, nil
}

// notify sends the confirmation email and publishes the broker event.
// Both are strictly post-commit and fire-and-forget: booking durability
// takes precedence over notification delivery.
func (s *BookingService) notify(ctx context.Context, hotel model.Hotel, b model.Booking) {
	if s.mail != nil {
		msg := mailer.Message{
			To:      b.ContactEmail,
			Subject: fmt.Sprintf("Booking confirmed: %s", hotel.Name),
			HTMLBody: fmt.Sprintf(
				"<p>Hi %s,</p><p>Your stay at <strong>%s</strong> from %s to %s is confirmed.</p><p>Total charged: %d %s.</p>",
				b.ContactName, hotel.Name,
				b.CheckIn.Format("2006-01-02"), b.CheckOut.Format("2006-01-02"),
				b.TotalAmount, s.currency),
		}
		if err := s.mail.Send(msg); err != nil {
			log.Printf("booking %d: confirmation email to %s failed: %v", b.ID, b.ContactEmail, err)
		}
	}
	if s.publish != nil {
		ev := queue.BookingConfirmedEvent{
			BookingID:       b.ID,
			IdentityID:      b.IdentityID,
			HotelID:         hotel.ID,
			HotelName:       hotel.Name,
			CheckIn:         b.CheckIn.Format("2006-01-02"),
			CheckOut:        b.CheckOut.Format("2006-01-02"),
			Guests:          b.Guests,
			TotalAmount:     b.TotalAmount,
			Currency:        s.currency,
			AuthorizationID: b.AuthorizationID,
			ConfirmedAt:     s.now().UTC().Format(time.RFC3339),
		}
		if err := s.publish(ctx, ev); err != nil {
			log.Printf("booking %d: publish confirmed event failed: %v", b.ID, err)
		}
	}
}
