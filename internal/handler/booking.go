package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stayhub/hotel-reservation/internal/middleware"
	"github.com/stayhub/hotel-reservation/internal/payment"
	"github.com/stayhub/hotel-reservation/internal/repository"
	"github.com/stayhub/hotel-reservation/internal/service"
)

// BookingHandler exposes the two phases of the booking-payment
// workflow plus the caller's booking listing.  All routes require a
// verified access token; the identity id is taken from the request
// context, never from the body.
type BookingHandler struct {
	Bookings   *service.BookingService
	Hotels     *repository.HotelRepo
	Identities *repository.IdentityRepo
}

func NewBookingHandler(b *service.BookingService, hotels *repository.HotelRepo, ids *repository.IdentityRepo) *BookingHandler {
	return &BookingHandler{Bookings: b, Hotels: hotels, Identities: ids}
}

type authorizeReq struct {
	Nights int `json:"nights"`
}

type confirmReq struct {
	AuthorizationID string `json:"authorization_id"`
	CheckIn         string `json:"check_in"`  // YYYY-MM-DD
	CheckOut        string `json:"check_out"` // YYYY-MM-DD
	Guests          int    `json:"guests"`
}

// Authorize handles POST /v1/hotels/:id/authorize (phase 1).  It prices
// the stay and returns the provider authorization id, the completion
// token the client needs to pay, and the computed total.
func (h *BookingHandler) Authorize(c echo.Context) error {
	identityID, ok := middleware.IdentityID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hotelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || hotelID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	var req authorizeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Nights < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nights must be at least 1"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	intent, err := h.Bookings.CreateAuthorization(ctx, hotelID, req.Nights, identityID)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, intent)
	case errors.Is(err, repository.ErrHotelNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
	case errors.Is(err, payment.ErrRejected):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, payment.ErrUnavailable):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	case errors.Is(err, service.ErrIntentIncomplete):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider returned no completion token"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authorization failed"})
	}
}

// Confirm handles POST /v1/hotels/:id/book (phase 2).  The provider is
// the only source of truth for payment status; the request merely names
// the authorization to reconcile.
func (h *BookingHandler) Confirm(c echo.Context) error {
	identityID, ok := middleware.IdentityID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hotelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || hotelID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.AuthorizationID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "authorization_id is required"})
	}
	checkIn, err := time.Parse("2006-01-02", req.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in date"})
	}
	checkOut, err := time.Parse("2006-01-02", req.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out date"})
	}
	if !checkOut.After(checkIn) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out must be after check_in"})
	}
	if req.Guests < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guests must be at least 1"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	// Receipt fields come from the verified identity record, not the body.
	ident, err := h.Identities.GetByID(ctx, identityID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	booking, err := h.Bookings.ConfirmBooking(ctx, hotelID, req.AuthorizationID, identityID, service.BookingDetails{
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Guests:       req.Guests,
		ContactName:  ident.FullName,
		ContactEmail: ident.Email,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{
			"booking_id":       booking.ID,
			"hotel_id":         booking.HotelID,
			"total_amount":     booking.TotalAmount,
			"authorization_id": booking.AuthorizationID,
		})
	case errors.Is(err, payment.ErrAuthorizationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "authorization not found"})
	case errors.Is(err, service.ErrContextMismatch):
		return c.JSON(http.StatusConflict, echo.Map{"error": "authorization does not match this hotel and account"})
	case errors.Is(err, service.ErrPaymentNotSucceeded):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrHotelNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
	case errors.Is(err, payment.ErrUnavailable):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
}

// MyBookings handles GET /v1/my-bookings.  It returns all bookings made
// by the current identity, newest first.  When none exist it returns an
// empty array.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	identityID, ok := middleware.IdentityID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Hotels.ListBookingsByIdentity(ctx, identityID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": rows})
}
