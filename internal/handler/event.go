package handler

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// EventHandler serves the public event reads and the admin-only event
// mutations. Role enforcement happens in the router middleware; the
// handlers here only validate input shape and map store errors onto
// the HTTP taxonomy.
type EventHandler struct {
	Events EventStore
}

func NewEventHandler(events EventStore) *EventHandler {
	if events == nil {
		panic("nil store passed to NewEventHandler")
	}
	return &EventHandler{Events: events}
}

// dateRe matches the only accepted query/body date shape, YYYY-MM-DD.
var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func parseDate(s string) (time.Time, error) {
	if !dateRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date format: %s", s)
	}
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

// ----- DTOs -----

type createEventReq struct {
	Title        string  `json:"title" validate:"required"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Venue        string  `json:"venue"`
	Date         string  `json:"date" validate:"required"`
	Time         string  `json:"time"`
	SeatCapacity uint32  `json:"seat_capacity" validate:"required"`
	PriceCents   *uint32 `json:"price_cents" validate:"required"` // pointer: a free event (0) is valid
}

type updateEventReq struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Venue        *string `json:"venue"`
	Date         *string `json:"date"`
	Time         *string `json:"time"`
	SeatCapacity *uint32 `json:"seat_capacity"`
	BookedSeats  *uint32 `json:"booked_seats"`
	PriceCents   *uint32 `json:"price_cents"`
}

// GetAllEvents handles GET /v1/events. Public. Optional query filters:
// category (exact match) and date (YYYY-MM-DD, 400 otherwise). An empty
// result is a 404, with a distinct message when filters were applied.
func (h *EventHandler) GetAllEvents(c echo.Context) error {
	var filter repository.EventFilter
	filter.Category = c.QueryParam("category")
	if ds := c.QueryParam("date"); ds != "" {
		d, err := parseDate(ds)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date format, use YYYY-MM-DD"})
		}
		filter.Date = &d
	}
	events, err := h.Events.List(c.Request().Context(), filter)
	if err != nil {
		c.Logger().Errorf("list events: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error while fetching events"})
	}
	if len(events) == 0 {
		if filter.Category != "" || filter.Date != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no events found matching your criteria"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no events found"})
	}
	return c.JSON(http.StatusOK, events)
}

// GetEventByID handles GET /v1/events/:id. Public.
func (h *EventHandler) GetEventByID(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id format"})
	}
	event, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		c.Logger().Errorf("get event %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error while fetching event"})
	}
	return c.JSON(http.StatusOK, event)
}

// CreateEvent handles POST /v1/events. Admin only. Title, date,
// seat_capacity and price_cents are required; the rest is optional.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, date, seat capacity and price are required"})
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date format, use YYYY-MM-DD"})
	}
	event := &model.Event{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Venue:        req.Venue,
		Date:         date,
		Time:         req.Time,
		SeatCapacity: req.SeatCapacity,
		PriceCents:   *req.PriceCents,
	}
	if err := h.Events.Create(c.Request().Context(), event); err != nil {
		c.Logger().Errorf("create event: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error while creating event"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "event created successfully", "event": event})
}

// UpdateEvent handles PUT /v1/events/:id. Admin only. The body is a
// partial update; capacity fields are re-validated against the current
// counters under the store's serialization discipline, so a shrink
// below booked_seats can never slip past a concurrent booking.
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("invalid event id format: %s", id)})
	}
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	upd := repository.EventUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Venue:        req.Venue,
		Time:         req.Time,
		SeatCapacity: req.SeatCapacity,
		BookedSeats:  req.BookedSeats,
		PriceCents:   req.PriceCents,
	}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date format, use YYYY-MM-DD"})
		}
		upd.Date = &d
	}
	if upd == (repository.EventUpdate{}) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no update data provided"})
	}
	event, err := h.Events.Update(c.Request().Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": fmt.Sprintf("no event matches ID %s", id)})
		case errors.Is(err, repository.ErrCapacityBelowBooked):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "new seat capacity cannot be less than currently booked seats"})
		case errors.Is(err, repository.ErrBookedAboveCapacity):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "booked seats cannot exceed seat capacity"})
		}
		c.Logger().Errorf("update event %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error while updating event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "event updated successfully", "event": event})
}

// DeleteEvent handles DELETE /v1/events/:id. Admin only. Events with
// existing bookings cannot be deleted.
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("invalid event id format: %s", id)})
	}
	err := h.Events.Delete(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": fmt.Sprintf("no event matches ID %s", id)})
		case errors.Is(err, repository.ErrEventHasBookings):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete an event with existing bookings"})
		}
		c.Logger().Errorf("delete event %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error while deleting event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "event deleted"})
}
