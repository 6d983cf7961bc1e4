package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/stayhub/hotel-reservation/internal/model"
)

// HotelRepo provides read access to the hotel catalogue and the
// append-only booking collection attached to each hotel.  Bookings are
// never updated or deleted here; the only write is AppendBooking.
type HotelRepo struct{ DB *sql.DB }

func NewHotelRepo(db *sql.DB) *HotelRepo { return &HotelRepo{DB: db} }

// HotelSearchQuery defines filters & pagination for browsing hotels.
type HotelSearchQuery struct {
	City     string
	Name     string
	Page     int
	PageSize int
}

// GetByID fetches a hotel by id.
func (r *HotelRepo) GetByID(ctx context.Context, id uint64) (model.Hotel, error) {
	var h model.Hotel
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,city,description,nightly_rate,created_at FROM hotels WHERE id=? LIMIT 1",
		id).Scan(&h.ID, &h.Name, &h.City, &h.Description, &h.NightlyRate, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Hotel{}, ErrHotelNotFound
	}
	if err != nil {
		return model.Hotel{}, err
	}
	return h, nil
}

// Search returns a page of hotels matching the optional city and name
// filters, plus the total match count for pagination.
func (r *HotelRepo) Search(ctx context.Context, q HotelSearchQuery) ([]model.Hotel, int64, error) {
	where := []string{}
	args := []any{}

	if q.City != "" {
		where = append(where, "LOWER(city) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.City)+"%")
	}
	if q.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM hotels"+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	offset := (q.Page - 1) * q.PageSize

	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,city,description,nightly_rate,created_at FROM hotels"+cond+" ORDER BY id LIMIT ? OFFSET ?",
		append(args, q.PageSize, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	hotels := []model.Hotel{}
	for rows.Next() {
		var h model.Hotel
		if err := rows.Scan(&h.ID, &h.Name, &h.City, &h.Description, &h.NightlyRate, &h.CreatedAt); err != nil {
			return nil, 0, err
		}
		hotels = append(hotels, h)
	}
	return hotels, total, rows.Err()
}

// AppendBooking appends a booking to a hotel's booking collection as a
// single conditional INSERT keyed by hotel id: the row is written only
// if the hotel still exists at write time.  This avoids the lost-update
// risk of a read-modify-write pair when two bookings for the same hotel
// commit concurrently.  Zero rows affected means the hotel vanished
// between validation and commit, reported as ErrHotelNotFound rather
// than a silent no-op.  On success the generated ID is populated on b.
func (r *HotelRepo) AppendBooking(ctx context.Context, b *model.Booking) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO bookings
		   (hotel_id, identity_id, check_in, check_out, guests, total_amount, contact_name, contact_email, authorization_id)
		 SELECT h.id, ?, ?, ?, ?, ?, ?, ?, ?
		   FROM hotels h WHERE h.id = ?`,
		b.IdentityID, b.CheckIn.UTC(), b.CheckOut.UTC(), b.Guests, b.TotalAmount,
		b.ContactName, b.ContactEmail, b.AuthorizationID, b.HotelID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrHotelNotFound
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// ListBookingsByIdentity returns all bookings made by the given
// identity, newest first, with the hotel name joined in for display.
func (r *HotelRepo) ListBookingsByIdentity(ctx context.Context, identityID uint64) ([]BookingRow, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT b.id, b.hotel_id, h.name, b.check_in, b.check_out, b.guests,
		        b.total_amount, b.authorization_id, b.created_at
		   FROM bookings b JOIN hotels h ON h.id = b.hotel_id
		  WHERE b.identity_id = ?
		  ORDER BY b.created_at DESC, b.id DESC`, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []BookingRow{}
	for rows.Next() {
		var br BookingRow
		if err := rows.Scan(&br.ID, &br.HotelID, &br.HotelName, &br.CheckIn, &br.CheckOut,
			&br.Guests, &br.TotalAmount, &br.AuthorizationID, &br.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

// BookingRow is the shape returned by ListBookingsByIdentity.  It joins
// the hotel name so list responses do not need a second query.
type BookingRow struct {
	ID              uint64    `json:"id"`
	HotelID         uint64    `json:"hotel_id"`
	HotelName       string    `json:"hotel_name"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	Guests          int       `json:"guests"`
	TotalAmount     int64     `json:"total_amount"`
	AuthorizationID string    `json:"authorization_id"`
	CreatedAt       time.Time `json:"created_at"`
}
