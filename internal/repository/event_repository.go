package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// EventRepo provides access to the `events` table. It owns the only
// write path for the booked_seats counter: AdjustBookedSeats performs
// the check and the increment in a single conditional UPDATE, so the
// database row lock serializes concurrent adjustments on the same
// event while adjustments on different events never contend.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// ErrCapacityBelowBooked is returned when an admin tries to shrink
// seat_capacity below the current booked_seats counter.
var ErrCapacityBelowBooked = errors.New("seat capacity cannot be less than booked seats")

// ErrBookedAboveCapacity is returned when an admin tries to set
// booked_seats above the current seat_capacity.
var ErrBookedAboveCapacity = errors.New("booked seats cannot exceed seat capacity")

const eventColumns = `id, title, description, category, venue, date, time,
       seat_capacity, booked_seats, price_cents, created_at, updated_at`

// Create inserts a new event. The ID is generated here when empty and
// booked_seats starts at zero.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO events
		 (id, title, description, category, venue, date, time, seat_capacity, booked_seats, price_cents, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,0,?,?,?)`,
		e.ID, e.Title, e.Description, e.Category, e.Venue,
		e.Date.UTC().Format("2006-01-02"), e.Time,
		e.SeatCapacity, e.PriceCents, now, now)
	return err
}

// GetByID fetches a single event, returning ErrEventNotFound when the
// id does not match a row.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id=? LIMIT 1`, id).
		Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.Venue, &e.Date, &e.Time,
			&e.SeatCapacity, &e.BookedSeats, &e.PriceCents, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// EventFilter narrows a listing. Zero values mean "no filter".
type EventFilter struct {
	Category string
	Date     *time.Time // exact calendar date match
}

// List returns events matching the filter ordered by date. An empty
// result is returned as an empty slice, never nil, so callers can
// distinguish "no rows" from scan failures.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events`
	var (
		conds []string
		args  []interface{}
	)
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Date != nil {
		conds = append(conds, "date = ?")
		args = append(args, f.Date.UTC().Format("2006-01-02"))
	}
	for i, c := range conds {
		if i == 0 {
			q += " WHERE " + c
		} else {
			q += " AND " + c
		}
	}
	q += " ORDER BY date, title"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.Venue, &e.Date, &e.Time,
			&e.SeatCapacity, &e.BookedSeats, &e.PriceCents, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// AdjustBookedSeats moves booked_seats by delta and returns the new
// counter value. The capacity check and the write happen in one
// statement, so two concurrent bookings racing for the last seats can
// never both succeed. Delta is int64 so any uint32 quantity converts
// without overflow; an absurdly large request simply fails the guard.
// Failure modes:
//
//	ErrEventNotFound  – id does not exist
//	*CapacityError    – delta > 0 and the event lacks that many seats
//	ErrNegativeSeats  – delta < 0 would drive the counter below zero
//
// On any failure the row is left unchanged. The whole call runs in one
// transaction: the row lock taken by the UPDATE is held until commit,
// so the counter read back is exactly this adjustment's result, not a
// concurrent writer's.
func (r *EventRepo) AdjustBookedSeats(ctx context.Context, eventID string, delta int64) (uint32, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE events
		    SET booked_seats = booked_seats + ?, updated_at = ?
		  WHERE id = ?
		    AND CAST(booked_seats AS SIGNED) + ? BETWEEN 0 AND seat_capacity`,
		delta, time.Now().UTC(), eventID, delta)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// The guard rejected: distinguish a missing row from a
		// capacity violation by reading the current counters.
		var capacity, booked uint32
		err := tx.QueryRowContext(ctx,
			`SELECT seat_capacity, booked_seats FROM events WHERE id=? LIMIT 1`, eventID).
			Scan(&capacity, &booked)
		if err == sql.ErrNoRows {
			return 0, ErrEventNotFound
		}
		if err != nil {
			return 0, err
		}
		if delta < 0 {
			return 0, ErrNegativeSeats
		}
		return 0, &CapacityError{Available: capacity - booked}
	}
	var booked uint32
	if err := tx.QueryRowContext(ctx,
		`SELECT booked_seats FROM events WHERE id=? LIMIT 1`, eventID).Scan(&booked); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return booked, nil
}

// EventUpdate carries a partial admin edit. Nil pointers leave the
// corresponding column untouched.
type EventUpdate struct {
	Title        *string
	Description  *string
	Category     *string
	Venue        *string
	Date         *time.Time
	Time         *string
	SeatCapacity *uint32
	BookedSeats  *uint32
	PriceCents   *uint32
}

// Update applies a partial edit. Capacity-field edits run as guarded
// conditional updates under the same serialization discipline as
// AdjustBookedSeats: shrinking seat_capacity below booked_seats or
// raising booked_seats above seat_capacity fails without touching the
// row. The whole edit runs in one transaction so a rejected capacity
// change also rolls back any metadata changes.
func (r *EventRepo) Update(ctx context.Context, id string, upd EventUpdate) (*model.Event, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		sets []string
		args []interface{}
	)
	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Venue != nil {
		add("venue", *upd.Venue)
	}
	if upd.Date != nil {
		add("date", upd.Date.UTC().Format("2006-01-02"))
	}
	if upd.Time != nil {
		add("time", *upd.Time)
	}
	if upd.PriceCents != nil {
		add("price_cents", *upd.PriceCents)
	}
	if len(sets) > 0 {
		q := "UPDATE events SET updated_at = ?"
		qargs := []interface{}{time.Now().UTC()}
		for i := range sets {
			q += ", " + sets[i]
			qargs = append(qargs, args[i])
		}
		q += " WHERE id = ?"
		qargs = append(qargs, id)
		res, err := tx.ExecContext(ctx, q, qargs...)
		if err != nil {
			return nil, err
		}
		// Relies on clientFoundRows in the DSN: zero here means the
		// row does not exist, not that the values were unchanged.
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrEventNotFound
		}
	}
	if upd.SeatCapacity != nil {
		res, err := tx.ExecContext(ctx,
			`UPDATE events SET seat_capacity = ?, updated_at = ? WHERE id = ? AND ? >= booked_seats`,
			*upd.SeatCapacity, time.Now().UTC(), id, *upd.SeatCapacity)
		if err != nil {
			return nil, err
		}
		if err := classifyGuardedEdit(ctx, tx, res, id, ErrCapacityBelowBooked); err != nil {
			return nil, err
		}
	}
	if upd.BookedSeats != nil {
		res, err := tx.ExecContext(ctx,
			`UPDATE events SET booked_seats = ?, updated_at = ? WHERE id = ? AND ? <= seat_capacity`,
			*upd.BookedSeats, time.Now().UTC(), id, *upd.BookedSeats)
		if err != nil {
			return nil, err
		}
		if err := classifyGuardedEdit(ctx, tx, res, id, ErrBookedAboveCapacity); err != nil {
			return nil, err
		}
	}

	var e model.Event
	err = tx.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id=? LIMIT 1`, id).
		Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.Venue, &e.Date, &e.Time,
			&e.SeatCapacity, &e.BookedSeats, &e.PriceCents, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &e, nil
}

// Delete removes an event that has no bookings. The booked_seats check
// rides on the DELETE itself so a concurrent booking cannot slip in
// between a check and the delete.
func (r *EventRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM events WHERE id = ? AND booked_seats = 0`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var booked uint32
		err := r.DB.QueryRowContext(ctx,
			`SELECT booked_seats FROM events WHERE id=? LIMIT 1`, id).Scan(&booked)
		if err == sql.ErrNoRows {
			return ErrEventNotFound
		}
		if err != nil {
			return err
		}
		return ErrEventHasBookings
	}
	return nil
}

// eventExistsTx reports whether an event row exists inside tx.
func eventExistsTx(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id=? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// classifyGuardedEdit turns a zero-rows guarded update into the
// appropriate error: ErrEventNotFound when the row is gone, otherwise
// the supplied guard violation.
func classifyGuardedEdit(ctx context.Context, tx *sql.Tx, res sql.Result, id string, guardErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	exists, err := eventExistsTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrEventNotFound
	}
	return guardErr
}
