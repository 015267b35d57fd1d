package router

// In-memory implementations of the handler store interfaces, used to
// exercise the full HTTP surface (routing, middleware, handlers)
// without a database. AdjustBookedSeats honors the same atomicity
// contract as the SQL implementation: the capacity check and the
// counter move happen under one lock per store.

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

type memEventStore struct {
	mu     sync.Mutex
	events map[string]*model.Event
}

func newMemEventStore() *memEventStore {
	return &memEventStore{events: make(map[string]*model.Event)}
}

func (s *memEventStore) Create(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *memEventStore) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *memEventStore) List(_ context.Context, f repository.EventFilter) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, 0)
	for _, e := range s.events {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.Date != nil && !e.Date.Equal(*f.Date) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (s *memEventStore) AdjustBookedSeats(_ context.Context, eventID string, delta int64) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return 0, repository.ErrEventNotFound
	}
	next := int64(e.BookedSeats) + delta
	if next < 0 {
		return 0, repository.ErrNegativeSeats
	}
	if next > int64(e.SeatCapacity) {
		return 0, &repository.CapacityError{Available: e.SeatCapacity - e.BookedSeats}
	}
	e.BookedSeats = uint32(next)
	return e.BookedSeats, nil
}

func (s *memEventStore) Update(_ context.Context, id string, upd repository.EventUpdate) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	if upd.SeatCapacity != nil && *upd.SeatCapacity < e.BookedSeats {
		return nil, repository.ErrCapacityBelowBooked
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.Venue != nil {
		e.Venue = *upd.Venue
	}
	if upd.Date != nil {
		e.Date = *upd.Date
	}
	if upd.Time != nil {
		e.Time = *upd.Time
	}
	if upd.PriceCents != nil {
		e.PriceCents = *upd.PriceCents
	}
	if upd.SeatCapacity != nil {
		e.SeatCapacity = *upd.SeatCapacity
	}
	if upd.BookedSeats != nil {
		if *upd.BookedSeats > e.SeatCapacity {
			return nil, repository.ErrBookedAboveCapacity
		}
		e.BookedSeats = *upd.BookedSeats
	}
	e.UpdatedAt = time.Now().UTC()
	cp := *e
	return &cp, nil
}

func (s *memEventStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return repository.ErrEventNotFound
	}
	if e.BookedSeats > 0 {
		return repository.ErrEventHasBookings
	}
	delete(s.events, id)
	return nil
}

type memBookingStore struct {
	mu       sync.Mutex
	order    []string
	bookings map[string]*model.Booking
	// createErr, when set, makes Create fail. Used to test the
	// seat-counter rollback.
	createErr error
}

func newMemBookingStore() *memBookingStore {
	return &memBookingStore{bookings: make(map[string]*model.Booking)}
}

func (s *memBookingStore) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now().UTC()
	cp := *b
	s.bookings[b.ID] = &cp
	s.order = append(s.order, b.ID)
	return nil
}

func (s *memBookingStore) GetByID(_ context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *memBookingStore) List(_ context.Context, f repository.BookingFilter) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0)
	for i := len(s.order) - 1; i >= 0; i-- { // newest first
		b := s.bookings[s.order[i]]
		if f.UserID != "" && b.UserID != f.UserID {
			continue
		}
		if f.EventID != "" && b.EventID != f.EventID {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

type memUserStore struct {
	mu      sync.Mutex
	users   map[string]model.User
	byEmail map[string]string
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]model.User), byEmail: make(map[string]string)}
}

func (s *memUserStore) Create(_ context.Context, name, email, password string, role model.Role, cost int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	if _, exists := s.byEmail[email]; exists {
		return "", repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	s.users[id] = model.User{
		ID: id, Name: name, Email: email, PasswordHash: hash,
		Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	s.byEmail[email] = id
	return id, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return s.users[id], nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *memUserStore) deactivate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.IsActive = false
	s.users[id] = u
}

func (s *memUserStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		delete(s.byEmail, u.Email)
		delete(s.users, id)
	}
}

type refreshRecord struct {
	userID  string
	exp     time.Time
	revoked bool
}

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*refreshRecord
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]*refreshRecord)}
}

func (s *memTokenStore) StoreRefresh(_ context.Context, userID, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = &refreshRecord{userID: userID, exp: exp}
	return nil
}

func (s *memTokenStore) ValidateRefresh(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[tokenHash]
	if !ok || rec.revoked || time.Now().UTC().After(rec.exp) {
		return "", sql.ErrNoRows
	}
	return rec.userID, nil
}

func (s *memTokenStore) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.tokens[tokenHash]; ok {
		rec.revoked = true
	}
	return nil
}

func (s *memTokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.tokens {
		if rec.userID == userID {
			rec.revoked = true
		}
	}
	return nil
}
