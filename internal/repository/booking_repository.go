package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// BookingRepo provides access to the `bookings` table. Bookings are
// append-only: there is no update or delete path. The capacity
// accounting that accompanies a booking lives in EventRepo; the
// composition of the two writes is orchestrated by the booking handler.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

// Create inserts a booking row. The ID is generated here when empty.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO bookings (id, user_id, event_id, quantity, created_at) VALUES (?,?,?,?,?)",
		b.ID, b.UserID, b.EventID, b.Quantity, b.CreatedAt)
	return err
}

// GetByID fetches a single booking, returning ErrBookingNotFound when
// the id does not match a row.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, event_id, quantity, created_at FROM bookings WHERE id=? LIMIT 1",
		id).Scan(&b.ID, &b.UserID, &b.EventID, &b.Quantity, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// BookingFilter narrows a listing. Empty strings mean "no filter".
// The authorization layer decides what may be filtered on; the
// repository applies whatever it is given.
type BookingFilter struct {
	UserID  string
	EventID string
}

// List returns bookings matching the filter, newest first. An empty
// result is an empty slice, never nil.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	q := "SELECT id, user_id, event_id, quantity, created_at FROM bookings"
	var (
		conds []string
		args  []interface{}
	)
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.EventID != "" {
		conds = append(conds, "event_id = ?")
		args = append(args, f.EventID)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.EventID, &b.Quantity, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
