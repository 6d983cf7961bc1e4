package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stayhub/hotel-reservation/internal/model"
	"github.com/stayhub/hotel-reservation/internal/repository"
)

// HotelHandler exposes the public hotel catalogue: a filtered,
// paginated listing and a detail view.  These routes require no
// authentication and sit behind the response cache middleware.
type HotelHandler struct {
	Hotels *repository.HotelRepo
}

func NewHotelHandler(hotels *repository.HotelRepo) *HotelHandler {
	return &HotelHandler{Hotels: hotels}
}

type publicHotel struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	City        string `json:"city"`
	Description string `json:"description"`
	NightlyRate int64  `json:"nightly_rate"`
}

func toPublicHotel(h model.Hotel) publicHotel {
	return publicHotel{
		ID:          h.ID,
		Name:        h.Name,
		City:        h.City,
		Description: h.Description,
		NightlyRate: h.NightlyRate,
	}
}

// List handles GET /v1/hotels.  Optional query parameters: city, name,
// page, page_size.
func (h *HotelHandler) List(c echo.Context) error {
	q := repository.HotelSearchQuery{
		City: c.QueryParam("city"),
		Name: c.QueryParam("name"),
	}
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		q.Page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("page_size")); err == nil {
		q.PageSize = ps
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hotels, total, err := h.Hotels.Search(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	out := make([]publicHotel, 0, len(hotels))
	for _, ht := range hotels {
		out = append(out, toPublicHotel(ht))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hotels": out,
		"total":  total,
	})
}

// Get handles GET /v1/hotels/:id.
func (h *HotelHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hotel, err := h.Hotels.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toPublicHotel(hotel))
}
