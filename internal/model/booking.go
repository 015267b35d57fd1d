package model

import "time"

// Booking is a commitment of Quantity seats on one event by one user.
// Bookings are immutable once created; there is no update or cancel
// path. The sum of Quantity over an event's bookings always equals that
// event's BookedSeats counter.
type Booking struct {
    ID        string    `json:"id"`
    UserID    string    `json:"user_id"`
    EventID   string    `json:"event_id"`
    Quantity  uint32    `json:"quantity"`
    CreatedAt time.Time `json:"created_at"`
}
