package middleware

// auth.go implements the identity token verifier that gates every
// protected endpoint.  A credential is looked up in a fixed, documented
// order of carrier locations: the access_token cookie first, then the
// Authorization bearer header.  Both carriers are equally authoritative;
// the ordering only exists so behavior is reproducible when a request
// carries both.  Verification is read-only and idempotent, so it is safe
// to run on every request.

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// TokenCookieName is the cookie carrying the access token.
const TokenCookieName = "access_token"

// IdentityIDKey is the echo context key under which RequireAuth stores
// the verified caller identity.
const IdentityIDKey = "identity_id"

// ErrUnauthenticated is returned when no credential is present in any
// carrier location.
var ErrUnauthenticated = errors.New("no credential provided")

// ErrInvalidCredential is returned when a credential was found but
// cannot be accepted: malformed, bad signature, or expired.  The
// sub-reason is carried in the wrapped message only; callers branch on
// this single sentinel.
var ErrInvalidCredential = errors.New("invalid credential")

// CredentialFromRequest extracts the raw bearer credential from the
// request, trying the cookie first and the Authorization header second.
// It fails with ErrUnauthenticated when neither carrier holds one.
func CredentialFromRequest(r *http.Request) (string, error) {
	if ck, err := r.Cookie(TokenCookieName); err == nil && ck.Value != "" {
		return ck.Value, nil
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		if raw := strings.TrimPrefix(auth, "Bearer "); raw != "" {
			return raw, nil
		}
	}
	return "", ErrUnauthenticated
}

// VerifyToken validates a raw credential against the signing secret and
// resolves the caller identity id.  Failures are reported as
// ErrInvalidCredential with a human-readable sub-reason (malformed
// token, invalid signature, or expired token).
func VerifyToken(secret, raw string) (uint64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return 0, fmt.Errorf("%w: malformed token", ErrInvalidCredential)
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, fmt.Errorf("%w: token expired", ErrInvalidCredential)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return 0, fmt.Errorf("%w: invalid signature", ErrInvalidCredential)
		default:
			return 0, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
		}
	}
	if !tok.Valid {
		return 0, fmt.Errorf("%w: token not valid", ErrInvalidCredential)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected claims shape", ErrInvalidCredential)
	}
	switch sub := claims["sub"].(type) {
	case float64:
		// JWT numeric values decode as float64; convert to uint64.
		return uint64(sub), nil
	case string:
		if id, err := strconv.ParseUint(sub, 10, 64); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: missing subject claim", ErrInvalidCredential)
}

// RequireAuth returns an Echo middleware that verifies the caller's
// credential and injects the resolved identity id into the request
// context under IdentityIDKey.  Requests without a credential get 401
// with a generic message; requests with a bad credential get 401 with
// the verifier's sub-reason text.
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := CredentialFromRequest(c.Request())
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			id, err := VerifyToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			}
			c.Set(IdentityIDKey, id)
			return next(c)
		}
	}
}

// IdentityID extracts the verified identity id stored by RequireAuth.
// It returns false when the middleware did not run or stored nothing.
func IdentityID(c echo.Context) (uint64, bool) {
	v := c.Get(IdentityIDKey)
	id, ok := v.(uint64)
	return id, ok
}
