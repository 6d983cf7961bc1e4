package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stayhub/hotel-reservation/internal/model"
	"github.com/stayhub/hotel-reservation/internal/payment"
	"github.com/stayhub/hotel-reservation/internal/queue"
	"github.com/stayhub/hotel-reservation/internal/repository"
)

// fakeHotelStore mirrors the SQL repo's conditional-append behavior: an
// append against a vanished hotel fails, and success assigns an id.
type fakeHotelStore struct {
	hotels   map[uint64]model.Hotel
	bookings []model.Booking
}

func (f *fakeHotelStore) GetByID(_ context.Context, id uint64) (model.Hotel, error) {
	h, ok := f.hotels[id]
	if !ok {
		return model.Hotel{}, repository.ErrHotelNotFound
	}
	return h, nil
}

func (f *fakeHotelStore) AppendBooking(_ context.Context, b *model.Booking) error {
	if _, ok := f.hotels[b.HotelID]; !ok {
		return repository.ErrHotelNotFound
	}
	b.ID = uint64(len(f.bookings) + 1)
	f.bookings = append(f.bookings, *b)
	return nil
}

// fakeProvider scripts both provider calls and records what it was
// asked to authorize.
type fakeProvider struct {
	createdAmount   int64
	createdCurrency string
	createdMeta     payment.Metadata
	createResult    payment.Authorization
	createErr       error

	fetchedID   string
	fetchResult payment.Authorization
	fetchErr    error
}

func (p *fakeProvider) CreateAuthorization(_ context.Context, amountMinor int64, currency string, meta payment.Metadata) (payment.Authorization, error) {
	p.createdAmount = amountMinor
	p.createdCurrency = currency
	p.createdMeta = meta
	return p.createResult, p.createErr
}

func (p *fakeProvider) FetchStatus(_ context.Context, id string) (payment.Authorization, error) {
	p.fetchedID = id
	return p.fetchResult, p.fetchErr
}

const (
	testHotelID    = uint64(7)
	testIdentityID = uint64(42)
)

func newBookingFixture() (*BookingService, *fakeHotelStore, *fakeProvider, *recordingMailer, *[]queue.BookingConfirmedEvent) {
	store := &fakeHotelStore{hotels: map[uint64]model.Hotel{
		testHotelID: {ID: testHotelID, Name: "Harbor View", City: "Lisbon", NightlyRate: 100},
	}}
	provider := &fakeProvider{}
	mail := &recordingMailer{}
	var events []queue.BookingConfirmedEvent
	publish := func(_ context.Context, ev queue.BookingConfirmedEvent) error {
		events = append(events, ev)
		return nil
	}
	svc := NewBookingService(store, provider, mail, publish, "usd")
	return svc, store, provider, mail, &events
}

func succeededAuth() payment.Authorization {
	return payment.Authorization{
		ID:       "auth_123",
		Status:   payment.StatusSucceeded,
		Amount:   30000,
		Currency: "usd",
		Metadata: payment.Metadata{HotelID: "7", IdentityID: "42"},
	}
}

func stayDetails() BookingDetails {
	return BookingDetails{
		CheckIn:      time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:     time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
		Guests:       2,
		ContactName:  "Guest One",
		ContactEmail: "guest@example.com",
	}
}

func TestCreateAuthorization(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("prices stay and binds metadata", func(t *testing.T) {
		svc, _, provider, _, _ := newBookingFixture()
		provider.createResult = payment.Authorization{ID: "auth_123", CompletionToken: "tok_secret"}

		intent, err := svc.CreateAuthorization(ctx, testHotelID, 3, testIdentityID)
		if err != nil {
			t.Fatalf("CreateAuthorization() error = %v", err)
		}
		// Nightly rate 100 over 3 nights: 300 major units to the caller,
		// 30000 minor units to the provider.
		if intent.Total != 300 {
			t.Fatalf("intent.Total = %d, want 300", intent.Total)
		}
		if provider.createdAmount != 30000 {
			t.Fatalf("provider amount = %d, want 30000", provider.createdAmount)
		}
		if provider.createdCurrency != "usd" || intent.Currency != "usd" {
			t.Fatalf("currency = %q / %q, want usd", provider.createdCurrency, intent.Currency)
		}
		if provider.createdMeta.HotelID != "7" || provider.createdMeta.IdentityID != "42" {
			t.Fatalf("metadata = %+v, want hotel 7 identity 42", provider.createdMeta)
		}
		if intent.AuthorizationID != "auth_123" || intent.CompletionToken != "tok_secret" {
			t.Fatalf("intent = %+v", intent)
		}
	})

	t.Run("unknown hotel", func(t *testing.T) {
		svc, _, provider, _, _ := newBookingFixture()
		if _, err := svc.CreateAuthorization(ctx, 999, 3, testIdentityID); !errors.Is(err, repository.ErrHotelNotFound) {
			t.Fatalf("error = %v, want ErrHotelNotFound", err)
		}
		if provider.createdAmount != 0 {
			t.Fatal("provider was called for an unknown hotel")
		}
	})

	t.Run("provider error passes through", func(t *testing.T) {
		svc, _, provider, _, _ := newBookingFixture()
		provider.createErr = payment.ErrUnavailable
		if _, err := svc.CreateAuthorization(ctx, testHotelID, 1, testIdentityID); !errors.Is(err, payment.ErrUnavailable) {
			t.Fatalf("error = %v, want ErrUnavailable", err)
		}
	})

	t.Run("missing completion token", func(t *testing.T) {
		svc, _, provider, _, _ := newBookingFixture()
		provider.createResult = payment.Authorization{ID: "auth_123"} // no token
		if _, err := svc.CreateAuthorization(ctx, testHotelID, 1, testIdentityID); !errors.Is(err, ErrIntentIncomplete) {
			t.Fatalf("error = %v, want ErrIntentIncomplete", err)
		}
	})
}

func TestConfirmBooking(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("success appends exactly one record", func(t *testing.T) {
		svc, store, provider, mail, events := newBookingFixture()
		provider.fetchResult = succeededAuth()

		booking, err := svc.ConfirmBooking(ctx, testHotelID, "auth_123", testIdentityID, stayDetails())
		if err != nil {
			t.Fatalf("ConfirmBooking() error = %v", err)
		}
		if provider.fetchedID != "auth_123" {
			t.Fatalf("fetched authorization %q, want auth_123", provider.fetchedID)
		}
		if len(store.bookings) != 1 {
			t.Fatalf("appended %d bookings, want 1", len(store.bookings))
		}
		// The total recorded is the amount the provider says was paid,
		// not a recomputation from the request.
		if booking.TotalAmount != 300 {
			t.Fatalf("TotalAmount = %d, want 300", booking.TotalAmount)
		}
		if booking.AuthorizationID != "auth_123" {
			t.Fatalf("AuthorizationID = %q", booking.AuthorizationID)
		}
		if len(mail.sent) != 1 {
			t.Fatalf("sent %d confirmation mails, want 1", len(mail.sent))
		}
		if !strings.Contains(mail.sent[0].HTMLBody, "Harbor View") {
			t.Fatal("confirmation mail does not name the hotel")
		}
		if len(*events) != 1 || (*events)[0].BookingID != booking.ID {
			t.Fatalf("published events = %+v", *events)
		}
	})

	t.Run("hotel metadata mismatch", func(t *testing.T) {
		svc, store, provider, _, _ := newBookingFixture()
		auth := succeededAuth()
		auth.Metadata.HotelID = "8"
		provider.fetchResult = auth

		if _, err := svc.ConfirmBooking(ctx, testHotelID, "auth_123", testIdentityID, stayDetails()); !errors.Is(err, ErrContextMismatch) {
			t.Fatalf("error = %v, want ErrContextMismatch", err)
		}
		if len(store.bookings) != 0 {
			t.Fatal("booking appended despite context mismatch")
		}
	})

	t.Run("identity metadata mismatch", func(t *testing.T) {
		svc, store, provider, _, _ := newBookingFixture()
		auth := succeededAuth()
		auth.Metadata.IdentityID = "43"
		provider.fetchResult = auth

		if _, err := svc.ConfirmBooking(ctx, testHotelID, "auth_123", testIdentityID, stayDetails()); !errors.Is(err, ErrContextMismatch) {
			t.Fatalf("error = %v, want ErrContextMismatch", err)
		}
		if len(store.bookings) != 0 {
			t.Fatal("booking appended despite context mismatch")
		}
	})

	t.Run("non-succeeded status", func(t *testing.T) {
		svc, store, provider, _, _ := newBookingFixture()
		auth := succeededAuth()
		auth.Status = "processing"
		provider.fetchResult = auth

		_, err := svc.ConfirmBooking(ctx, testHotelID, "auth_123", testIdentityID, stayDetails())
		if !errors.Is(err, ErrPaymentNotSucceeded) {
			t.Fatalf("error = %v, want ErrPaymentNotSucceeded", err)
		}
		if !strings.Contains(err.Error(), "processing") {
			t.Fatalf("error %q does not carry the provider status", err)
		}
		if len(store.bookings) != 0 {
			t.Fatal("booking appended despite unpaid authorization")
		}
	})

	t.Run("authorization not found", func(t *testing.T) {
		svc, store, provider, _, _ := newBookingFixture()
		provider.fetchErr = payment.ErrAuthorizationNotFound

		if _, err := svc.ConfirmBooking(ctx, testHotelID, "auth_gone", testIdentityID, stayDetails()); !errors.Is(err, payment.ErrAuthorizationNotFound) {
			t.Fatalf("error = %v, want ErrAuthorizationNotFound", err)
		}
		if len(store.bookings) != 0 {
			t.Fatal("booking appended for unknown authorization")
		}
	})

	t.Run("hotel vanished between phases", func(t *testing.T) {
		svc, store, provider, _, _ := newBookingFixture()
		provider.fetchResult = succeededAuth()
		delete(store.hotels, testHotelID)

		if _, err := svc.ConfirmBooking(ctx, testHotelID, "auth_123", testIdentityID, stayDetails()); !errors.Is(err, repository.ErrHotelNotFound) {
			t.Fatalf("error = %v, want ErrHotelNotFound", err)
		}
		if len(store.bookings) != 0 {
			t.Fatal("booking appended for vanished hotel")
		}
	})

	t.Run("mail failure does not unwind the booking", func(t *testing.T) {
		svc, store, provider, mail, _ := newBookingFixture()
		provider.fetchResult = succeededAuth()
		mail.err = errors.New("smtp down")

		if _, err := svc.ConfirmBooking(ctx, testHotelID, "auth_123", testIdentityID, stayDetails()); err != nil {
			t.Fatalf("ConfirmBooking() error = %v, want nil despite mail failure", err)
		}
		if len(store.bookings) != 1 {
			t.Fatalf("appended %d bookings, want 1", len(store.bookings))
		}
	})

	t.Run("publish failure does not unwind the booking", func(t *testing.T) {
		store := &fakeHotelStore{hotels: map[uint64]model.Hotel{
			testHotelID: {ID: testHotelID, Name: "Harbor View", NightlyRate: 100},
		}}
		provider := &fakeProvider{fetchResult: succeededAuth()}
		publish := func(context.Context, queue.BookingConfirmedEvent) error {
			return errors.New("broker down")
		}
		svc := NewBookingService(store, provider, &recordingMailer{}, publish, "usd")

		if _, err := svc.ConfirmBooking(ctx, testHotelID, "auth_123", testIdentityID, stayDetails()); err != nil {
			t.Fatalf("ConfirmBooking() error = %v, want nil despite publish failure", err)
		}
		if len(store.bookings) != 1 {
			t.Fatalf("appended %d bookings, want 1", len(store.bookings))
		}
	})
}
