package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stayhub/hotel-reservation/internal/mailer"
	"github.com/stayhub/hotel-reservation/internal/model"
	"github.com/stayhub/hotel-reservation/internal/repository"
)

// fakeIdentityStore is an in-memory IdentityStore with the same
// conditional-write semantics as the SQL repository.
type fakeIdentityStore struct {
	byEmail map[string]*model.Identity
	byID    map[uint64]*model.Identity
	nextID  uint64
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{
		byEmail: map[string]*model.Identity{},
		byID:    map[uint64]*model.Identity{},
	}
}

func (f *fakeIdentityStore) Create(_ context.Context, email, passwordHash, fullName string) (uint64, error) {
	if _, ok := f.byEmail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	f.nextID++
	ident := &model.Identity{ID: f.nextID, Email: email, PasswordHash: passwordHash, FullName: fullName}
	f.byEmail[email] = ident
	f.byID[ident.ID] = ident
	return ident.ID, nil
}

func (f *fakeIdentityStore) GetByEmail(_ context.Context, email string) (model.Identity, error) {
	ident, ok := f.byEmail[email]
	if !ok {
		return model.Identity{}, repository.ErrIdentityNotFound
	}
	return *ident, nil
}

func (f *fakeIdentityStore) SetChallenge(_ context.Context, id uint64, code string, expiresAt time.Time) error {
	ident, ok := f.byID[id]
	if !ok {
		return repository.ErrIdentityNotFound
	}
	ident.OTPCode = &code
	ident.OTPExpiresAt = &expiresAt
	return nil
}

func (f *fakeIdentityStore) ConsumeChallenge(_ context.Context, id uint64, code string) (bool, error) {
	ident, ok := f.byID[id]
	if !ok {
		return false, repository.ErrIdentityNotFound
	}
	if ident.IsVerified || ident.OTPCode == nil || *ident.OTPCode != code {
		return false, nil
	}
	ident.IsVerified = true
	ident.OTPCode = nil
	ident.OTPExpiresAt = nil
	return true, nil
}

// recordingMailer captures every message; it can be told to fail.
type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

func (f *fakeIdentityStore) storedCode(t *testing.T, email string) string {
	t.Helper()
	ident, ok := f.byEmail[email]
	if !ok || ident.OTPCode == nil {
		t.Fatalf("no challenge stored for %s", email)
	}
	return *ident.OTPCode
}

func newVerification(store *fakeIdentityStore, mail *recordingMailer) *VerificationService {
	return NewVerificationService(store, mail, 4) // minimum bcrypt cost keeps tests fast
}

func TestRegisterIssuesChallenge(t *testing.T) {
	t.Parallel()

	store := newFakeIdentityStore()
	mail := &recordingMailer{}
	svc := newVerification(store, mail)

	id, err := svc.Register(context.Background(), "guest@example.com", "hunter2", "Guest One")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if id == 0 {
		t.Fatal("Register() returned zero id")
	}

	code := store.storedCode(t, "guest@example.com")
	if len(code) != 6 {
		t.Fatalf("stored code %q is not 6 digits", code)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mail.sent))
	}
	// The code handed to the transport must be the one later accepted.
	if !strings.Contains(mail.sent[0].HTMLBody, code) {
		t.Fatalf("mail body does not contain stored code %q", code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	store := newFakeIdentityStore()
	svc := newVerification(store, &recordingMailer{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dup@example.com", "pw", "A"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	// Duplicate registration fails whether or not the first is verified.
	if _, err := svc.Register(ctx, "dup@example.com", "pw", "B"); !errors.Is(err, repository.ErrEmailExists) {
		t.Fatalf("second Register() error = %v, want ErrEmailExists", err)
	}
}

func TestRegisterSucceedsWhenMailFails(t *testing.T) {
	t.Parallel()

	store := newFakeIdentityStore()
	mail := &recordingMailer{err: errors.New("smtp down")}
	svc := newVerification(store, mail)

	if _, err := svc.Register(context.Background(), "guest@example.com", "pw", "G"); err != nil {
		t.Fatalf("Register() error = %v, want nil despite mail failure", err)
	}
}

func TestVerifyChallenge(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	setup := func(t *testing.T) (*VerificationService, *fakeIdentityStore, string) {
		store := newFakeIdentityStore()
		svc := newVerification(store, &recordingMailer{})
		svc.now = func() time.Time { return base }
		if _, err := svc.Register(ctx, "guest@example.com", "pw", "G"); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		return svc, store, store.storedCode(t, "guest@example.com")
	}

	t.Run("success before expiry", func(t *testing.T) {
		svc, store, code := setup(t)
		svc.now = func() time.Time { return base.Add(9 * time.Minute) }

		if err := svc.VerifyChallenge(ctx, "guest@example.com", code); err != nil {
			t.Fatalf("VerifyChallenge() error = %v", err)
		}
		ident := store.byEmail["guest@example.com"]
		if !ident.IsVerified {
			t.Fatal("identity not marked verified")
		}
		// Challenge fields must be erased, not merely marked used.
		if ident.OTPCode != nil || ident.OTPExpiresAt != nil {
			t.Fatal("challenge fields survived a successful verify")
		}
	})

	t.Run("second attempt after success is rejected", func(t *testing.T) {
		svc, _, code := setup(t)
		if err := svc.VerifyChallenge(ctx, "guest@example.com", code); err != nil {
			t.Fatalf("first VerifyChallenge() error = %v", err)
		}
		if err := svc.VerifyChallenge(ctx, "guest@example.com", code); !errors.Is(err, ErrAlreadyVerified) {
			t.Fatalf("second VerifyChallenge() error = %v, want ErrAlreadyVerified", err)
		}
	})

	t.Run("code mismatch", func(t *testing.T) {
		svc, _, code := setup(t)
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		if err := svc.VerifyChallenge(ctx, "guest@example.com", wrong); !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("VerifyChallenge() error = %v, want ErrCodeMismatch", err)
		}
	})

	t.Run("expired even when code matches", func(t *testing.T) {
		svc, _, code := setup(t)
		svc.now = func() time.Time { return base.Add(ChallengeTTL + time.Millisecond) }
		if err := svc.VerifyChallenge(ctx, "guest@example.com", code); !errors.Is(err, ErrChallengeExpired) {
			t.Fatalf("VerifyChallenge() error = %v, want ErrChallengeExpired", err)
		}
	})

	t.Run("exactly at expiry still passes", func(t *testing.T) {
		svc, _, code := setup(t)
		svc.now = func() time.Time { return base.Add(ChallengeTTL) }
		if err := svc.VerifyChallenge(ctx, "guest@example.com", code); err != nil {
			t.Fatalf("VerifyChallenge() error = %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, _ := setup(t)
		if err := svc.VerifyChallenge(ctx, "nobody@example.com", "123456"); !errors.Is(err, repository.ErrIdentityNotFound) {
			t.Fatalf("VerifyChallenge() error = %v, want ErrIdentityNotFound", err)
		}
	})

	t.Run("no challenge issued", func(t *testing.T) {
		store := newFakeIdentityStore()
		svc := newVerification(store, &recordingMailer{})
		if _, err := store.Create(ctx, "bare@example.com", "hash", "B"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := svc.VerifyChallenge(ctx, "bare@example.com", "123456"); !errors.Is(err, ErrNoChallenge) {
			t.Fatalf("VerifyChallenge() error = %v, want ErrNoChallenge", err)
		}
	})
}

func TestResendChallenge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("new code invalidates the old one", func(t *testing.T) {
		store := newFakeIdentityStore()
		svc := newVerification(store, &recordingMailer{})
		if _, err := svc.Register(ctx, "guest@example.com", "pw", "G"); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		oldCode := store.storedCode(t, "guest@example.com")

		// Reissue until the stored code actually differs; the 900000-value
		// space makes more than a couple of collisions implausible.
		newCode := oldCode
		for i := 0; i < 5 && newCode == oldCode; i++ {
			if err := svc.ResendChallenge(ctx, "guest@example.com"); err != nil {
				t.Fatalf("ResendChallenge() error = %v", err)
			}
			newCode = store.storedCode(t, "guest@example.com")
		}
		if newCode == oldCode {
			t.Fatal("resend never produced a distinct code")
		}

		if err := svc.VerifyChallenge(ctx, "guest@example.com", oldCode); !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("verify with stale code error = %v, want ErrCodeMismatch", err)
		}
		if err := svc.VerifyChallenge(ctx, "guest@example.com", newCode); err != nil {
			t.Fatalf("verify with fresh code error = %v", err)
		}
	})

	t.Run("rejected for verified identity", func(t *testing.T) {
		store := newFakeIdentityStore()
		svc := newVerification(store, &recordingMailer{})
		if _, err := svc.Register(ctx, "done@example.com", "pw", "D"); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		code := store.storedCode(t, "done@example.com")
		if err := svc.VerifyChallenge(ctx, "done@example.com", code); err != nil {
			t.Fatalf("VerifyChallenge() error = %v", err)
		}
		if err := svc.ResendChallenge(ctx, "done@example.com"); !errors.Is(err, ErrAlreadyVerified) {
			t.Fatalf("ResendChallenge() error = %v, want ErrAlreadyVerified", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		svc := newVerification(newFakeIdentityStore(), &recordingMailer{})
		if err := svc.ResendChallenge(ctx, "nobody@example.com"); !errors.Is(err, repository.ErrIdentityNotFound) {
			t.Fatalf("ResendChallenge() error = %v, want ErrIdentityNotFound", err)
		}
	})
}
