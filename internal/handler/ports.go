package handler

// The handler layer depends on narrow store interfaces rather than the
// concrete *sql.DB repositories so that handler tests can run against
// in-memory implementations. The repository types satisfy these
// interfaces without adapters.

import (
	"context"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// EventStore is the catalog of events. AdjustBookedSeats is the single
// mutating primitive for the booked_seats counter; implementations
// must make the capacity check and the write atomic per event id.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
	AdjustBookedSeats(ctx context.Context, eventID string, delta int64) (uint32, error)
	Update(ctx context.Context, id string, upd repository.EventUpdate) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

// BookingStore is the append-only ledger of bookings.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error)
}

// UserStore resolves and creates user accounts.
type UserStore interface {
	Create(ctx context.Context, name, email, password string, role model.Role, cost int) (string, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

// TokenStore persists and validates refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}
