package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stayhub/hotel-reservation/internal/config"
	"github.com/stayhub/hotel-reservation/internal/middleware"
	"github.com/stayhub/hotel-reservation/internal/repository"
	"github.com/stayhub/hotel-reservation/internal/service"
	"github.com/stayhub/hotel-reservation/internal/utils"
)

// AuthHandler bundles dependencies for registration, email
// verification and login endpoints.  All request bodies are bound into
// typed DTOs and validated here, before any workflow logic runs, so the
// services below only ever see well-formed input.
type AuthHandler struct {
	Cfg          config.Config
	Identities   *repository.IdentityRepo
	Verification *service.VerificationService
}

func NewAuthHandler(cfg config.Config, ids *repository.IdentityRepo, v *service.VerificationService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Identities: ids, Verification: v}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}
type verifyReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
type resendReq struct {
	Email string `json:"email"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}

// Register creates an unverified identity and emails its first
// verification code.  The account stays unusable until verified.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if !validEmail(req.Email) || req.Password == "" || req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password and full_name are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	id, err := h.Verification.Register(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":      id,
		"email":   req.Email,
		"message": "verification code sent",
	})
}

// Verify consumes a verification code and flips the identity to
// verified.  Every distinguishable failure of the state machine maps to
// its own message so clients can react (resend, re-register, etc).
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(req.Email) || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and code are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Verification.VerifyChallenge(ctx, req.Email, req.Code)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
	case errors.Is(err, repository.ErrIdentityNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "identity not found"})
	case errors.Is(err, service.ErrAlreadyVerified):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already verified"})
	case errors.Is(err, service.ErrNoChallenge):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no verification code issued"})
	case errors.Is(err, service.ErrCodeMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "incorrect verification code"})
	case errors.Is(err, service.ErrChallengeExpired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification code expired"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
}

// Resend issues a fresh verification code, invalidating the previous
// one outright.
func (h *AuthHandler) Resend(c echo.Context) error {
	var req resendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(req.Email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	err := h.Verification.ResendChallenge(ctx, req.Email)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "verification code sent"})
	case errors.Is(err, repository.ErrIdentityNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "identity not found"})
	case errors.Is(err, service.ErrAlreadyVerified):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already verified"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resend failed"})
	}
}

// Login verifies credentials for a verified identity and issues an
// access token, returned in the body and also set as the access_token
// cookie so either carrier location works on later requests.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ident, err := h.Identities.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(ident.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !ident.IsVerified {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "email not verified"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, ident.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    access.Token,
		Path:     "/",
		Expires:  access.Exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":        ident.ID,
			"email":     ident.Email,
			"full_name": ident.FullName,
		},
		"access": echo.Map{
			"token":   access.Token,
			"expires": access.Exp,
		},
	})
}
