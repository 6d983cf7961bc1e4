package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/stayhub/hotel-reservation/internal/model"
)

// IdentityRepo provides storage operations for identities.  The OTP
// challenge columns are always written by single UPDATE statements so
// overwrite-on-reissue and consume-on-verify are atomic: there is no
// read-then-write window in which a stale challenge can survive a
// concurrent reissue, or a verified row can keep a usable code.
type IdentityRepo struct{ DB *sql.DB }

func NewIdentityRepo(db *sql.DB) *IdentityRepo { return &IdentityRepo{DB: db} }

const identityColumns = "id,email,password_hash,full_name,is_verified,otp_code,otp_expires_at,created_at,updated_at"

// Create inserts a new, unverified identity and returns its ID.
// Duplicate emails are reported as ErrEmailExists regardless of the
// existing row's verification state.
func (r *IdentityRepo) Create(ctx context.Context, email, passwordHash, fullName string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO identities (email, password_hash, full_name) VALUES (?,?,?)",
		email, passwordHash, fullName)
	if err != nil {
		// MySQL duplicate-key error code
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an identity by normalized email.
func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (model.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE email=? LIMIT 1", email))
}

// GetByID fetches an identity by id.
func (r *IdentityRepo) GetByID(ctx context.Context, id uint64) (model.Identity, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE id=? LIMIT 1", id))
}

// SetChallenge stores a fresh verification challenge on the identity,
// unconditionally replacing any previous one.  A single UPDATE keeps
// the code/expiry pair consistent under concurrent reissues.
func (r *IdentityRepo) SetChallenge(ctx context.Context, id uint64, code string, expiresAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE identities SET otp_code=?, otp_expires_at=? WHERE id=?",
		code, expiresAt.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

// ConsumeChallenge marks the identity verified and erases the challenge
// columns in one statement, keyed on the exact code that was validated.
// Zero rows affected means the challenge changed between the caller's
// read and this write (a concurrent reissue), in which case the caller
// must treat the submitted code as a mismatch.
func (r *IdentityRepo) ConsumeChallenge(ctx context.Context, id uint64, code string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE identities SET is_verified=1, otp_code=NULL, otp_expires_at=NULL WHERE id=? AND otp_code=? AND is_verified=0",
		id, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *IdentityRepo) scanOne(row *sql.Row) (model.Identity, error) {
	var (
		ident   model.Identity
		code    sql.NullString
		expires sql.NullTime
	)
	err := row.Scan(&ident.ID, &ident.Email, &ident.PasswordHash, &ident.FullName,
		&ident.IsVerified, &code, &expires, &ident.CreatedAt, &ident.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Identity{}, ErrIdentityNotFound
	}
	if err != nil {
		return model.Identity{}, err
	}
	if code.Valid {
		ident.OTPCode = &code.String
	}
	if expires.Valid {
		t := expires.Time
		ident.OTPExpiresAt = &t
	}
	return ident, nil
}
