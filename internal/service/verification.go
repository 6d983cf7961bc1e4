package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stayhub/hotel-reservation/internal/mailer"
	"github.com/stayhub/hotel-reservation/internal/model"
	"github.com/stayhub/hotel-reservation/internal/utils"
)

// ChallengeTTL is the fixed window an issued verification code stays
// live.  Expiry is judged at verify time, not at issue time: a code
// submitted one millisecond past the window fails.
const ChallengeTTL = 10 * time.Minute

// ErrAlreadyVerified is returned when a challenge is issued for, or a
// verify is attempted against, an identity that is already verified.
// A second verify after success is rejected, not silently accepted.
var ErrAlreadyVerified = errors.New("identity already verified")

// ErrNoChallenge is returned when a verify arrives and no challenge
// fields are present on the identity.
var ErrNoChallenge = errors.New("no verification challenge issued")

// ErrCodeMismatch is returned when the submitted code differs from the
// stored one.  Comparison is exact; no normalization is applied.
var ErrCodeMismatch = errors.New("verification code mismatch")

// ErrChallengeExpired is returned when the submitted code matches but
// the challenge window has passed.
var ErrChallengeExpired = errors.New("verification challenge expired")

// IdentityStore is the identity storage boundary the verification state
// machine depends on.  *repository.IdentityRepo satisfies it; tests
// substitute fakes.
type IdentityStore interface {
	Create(ctx context.Context, email, passwordHash, fullName string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.Identity, error)
	SetChallenge(ctx context.Context, id uint64, code string, expiresAt time.Time) error
	ConsumeChallenge(ctx context.Context, id uint64, code string) (bool, error)
}

// VerificationService drives each identity through the
// Unregistered -> PendingVerification -> Verified lifecycle.  An
// identity in PendingVerification holds at most one live challenge;
// issuing a new one overwrites the previous outright, so there is no
// history of old codes to try.
type VerificationService struct {
	store      IdentityStore
	mail       mailer.Mailer
	bcryptCost int
	now        func() time.Time
}

// NewVerificationService wires the state machine to its collaborators.
func NewVerificationService(store IdentityStore, mail mailer.Mailer, bcryptCost int) *VerificationService {
	return &VerificationService{
		store:      store,
		mail:       mail,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register creates a new unverified identity and issues its first
// verification challenge.  Duplicate emails fail with
// repository.ErrEmailExists whether or not the existing identity is
// verified.
func (s *VerificationService) Register(ctx context.Context, email, password, fullName string) (uint64, error) {
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.store.Create(ctx, email, hash, fullName)
	if err != nil {
		return 0, err
	}
	if err := s.issue(ctx, id, email); err != nil {
		return 0, err
	}
	return id, nil
}

// ResendChallenge issues a fresh challenge for an existing unverified
// identity, invalidating whatever code was outstanding.  The previous
// email already in the user's inbox becomes inert.
func (s *VerificationService) ResendChallenge(ctx context.Context, email string) error {
	ident, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if ident.IsVerified {
		return ErrAlreadyVerified
	}
	return s.issue(ctx, ident.ID, ident.Email)
}

// issue generates a fresh code, atomically overwrites any previous
// challenge with it, and hands the plaintext to the mail transport.
// The stored code is exactly the one a later verify will accept.
// Delivery failure is logged and does not undo the issued challenge;
// the caller can always resend.
func (s *VerificationService) issue(ctx context.Context, id uint64, email string) error {
	code, err := utils.GenerateOTPCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	expiresAt := s.now().UTC().Add(ChallengeTTL)
	if err := s.store.SetChallenge(ctx, id, code, expiresAt); err != nil {
		return err
	}
	msg := mailer.Message{
		To:      email,
		Subject: "Verify your email address",
		HTMLBody: fmt.Sprintf(
			"<p>Your verification code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>",
			code, int(ChallengeTTL.Minutes())),
	}
	if err := s.mail.Send(msg); err != nil {
		log.Printf("verification: send code to %s failed: %v", email, err)
	}
	return nil
}

// VerifyChallenge validates a submitted code against the identity's
// stored challenge and, on success, marks the identity verified and
// erases the challenge in one atomic write, so a matching code can
// never be replayed.
func (s *VerificationService) VerifyChallenge(ctx context.Context, email, code string) error {
	ident, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if ident.IsVerified {
		return ErrAlreadyVerified
	}
	if !ident.HasChallenge() {
		return ErrNoChallenge
	}
	if *ident.OTPCode != code {
		return ErrCodeMismatch
	}
	if s.now().After(*ident.OTPExpiresAt) {
		return ErrChallengeExpired
	}
	ok, err := s.store.ConsumeChallenge(ctx, ident.ID, code)
	if err != nil {
		return err
	}
	if !ok {
		// The challenge changed between our read and the conditional
		// write: a concurrent reissue invalidated this code.
		return ErrCodeMismatch
	}
	return nil
}
