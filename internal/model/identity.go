package model

import "time"

// Identity represents a registered account as stored in the
// `identities` table.  An identity is distinct from any credential or
// token used to authenticate as it.  The OTP columns hold the live
// email verification challenge: they are set together when a challenge
// is issued and cleared together when it is consumed, so they are
// either both present or both absent.
//
// Fields:
//
//	ID           – primary key identifier.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	FullName     – display name used on booking receipts.
//	IsVerified   – whether the email address has been proven.
//	OTPCode      – live 6-digit challenge code (nullable).
//	OTPExpiresAt – absolute expiry of the live challenge (nullable).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type Identity struct {
	ID           uint64     // identities.id
	Email        string     // identities.email
	PasswordHash string     // identities.password_hash
	FullName     string     // identities.full_name
	IsVerified   bool       // identities.is_verified
	OTPCode      *string    // identities.otp_code (nullable)
	OTPExpiresAt *time.Time // identities.otp_expires_at (nullable)
	CreatedAt    time.Time  // identities.created_at
	UpdatedAt    time.Time  // identities.updated_at
}

// HasChallenge reports whether a verification challenge is currently
// stored on the identity, live or stale.
func (i Identity) HasChallenge() bool {
	return i.OTPCode != nil && i.OTPExpiresAt != nil
}
