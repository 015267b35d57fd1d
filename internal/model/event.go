package model

import "time"

// Event represents a bookable event as stored in the `events` table.
// SeatCapacity and BookedSeats together carry the core invariant of the
// service: 0 <= BookedSeats <= SeatCapacity at every instant, including
// across concurrent bookings. BookedSeats is mutated only through
// EventRepo.AdjustBookedSeats or a guarded admin edit.
//
// Fields:
//  ID           – primary key (UUID string).
//  Title        – event title (required).
//  Description  – optional free-form description.
//  Category     – optional category used for public filtering.
//  Venue        – optional venue name.
//  Date         – calendar date of the event (stored as DATE, UTC).
//  Time         – optional free-form start time ("19:30").
//  SeatCapacity – fixed number of seats available.
//  BookedSeats  – running total of seats committed by bookings.
//  PriceCents   – ticket price in cents.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Event struct {
    ID           string    `json:"id"`
    Title        string    `json:"title"`
    Description  string    `json:"description,omitempty"`
    Category     string    `json:"category,omitempty"`
    Venue        string    `json:"venue,omitempty"`
    Date         time.Time `json:"date"`
    Time         string    `json:"time,omitempty"`
    SeatCapacity uint32    `json:"seat_capacity"`
    BookedSeats  uint32    `json:"booked_seats"`
    PriceCents   uint32    `json:"price_cents"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}

// AvailableSeats returns the number of seats still bookable. The value
// is derived; it is never stored.
func (e *Event) AvailableSeats() uint32 {
    if e.BookedSeats > e.SeatCapacity {
        return 0
    }
    return e.SeatCapacity - e.BookedSeats
}
