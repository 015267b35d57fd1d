// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking has been created
// and the event's seat counter committed. It carries enough for
// downstream consumers to log or notify without querying the primary
// database.
type BookingConfirmedEvent struct {
    BookingID   string `json:"booking_id"`
    UserID      string `json:"user_id"`
    EventID     string `json:"event_id"`
    EventTitle  string `json:"event_title"`
    Quantity    uint32 `json:"quantity"`
    PriceCents  uint32 `json:"price_cents"`
    ConfirmedAt string `json:"confirmed_at"`
}
