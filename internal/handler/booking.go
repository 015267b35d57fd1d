package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// BookingHandler serves the booking ledger: creation with capacity
// accounting, filtered listing and single-record fetch. All routes sit
// behind JWTAuth, so an identity is always bound to the context.
//
// Creation is the composite operation of the service: the event's
// booked_seats counter moves first (atomically, in the store), and the
// booking row is inserted only afterwards. If that insert fails the
// counter is compensated back down, so no increment ever survives
// without its booking.
type BookingHandler struct {
	Events   EventStore
	Bookings BookingStore
	// Publish pushes a confirmation to the message broker after a
	// successful booking. Best-effort: failures are logged, never
	// surfaced to the client. Nil disables publishing.
	Publish func(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

func NewBookingHandler(events EventStore, bookings BookingStore,
	publish func(ctx context.Context, ev queue.BookingConfirmedEvent) error) *BookingHandler {
	if events == nil || bookings == nil {
		panic("nil store passed to NewBookingHandler")
	}
	return &BookingHandler{Events: events, Bookings: bookings, Publish: publish}
}

type createBookingReq struct {
	User     string `json:"user" validate:"required"`
	Event    string `json:"event" validate:"required"`
	Quantity uint32 `json:"quantity" validate:"required"`
}

// GetAllBookings handles GET /v1/bookings. Admins may filter by any
// user and/or event id; everyone else is always narrowed to their own
// bookings with an optional event filter. The user query parameter is
// ignored for non-admins rather than rejected, matching the listing
// policy the service has always had.
func (h *BookingHandler) GetAllBookings(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	queryUser := c.QueryParam("user")
	queryEvent := c.QueryParam("event")
	if queryUser != "" {
		if _, err := uuid.Parse(queryUser); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("invalid user id format: %s", queryUser)})
		}
	}
	if queryEvent != "" {
		if _, err := uuid.Parse(queryEvent); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("invalid event id format: %s", queryEvent)})
		}
	}

	var filter repository.BookingFilter
	if identity.Role == model.RoleAdmin {
		filter.UserID = queryUser
		filter.EventID = queryEvent
	} else {
		filter.UserID = identity.ID
		filter.EventID = queryEvent
	}

	bookings, err := h.Bookings.List(c.Request().Context(), filter)
	if err != nil {
		c.Logger().Errorf("list bookings: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error while fetching bookings"})
	}
	if len(bookings) == 0 {
		if filter != (repository.BookingFilter{}) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no bookings found matching your criteria"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no bookings found"})
	}
	return c.JSON(http.StatusOK, bookings)
}

// GetBookingByID handles GET /v1/bookings/:id. The route is registered
// with RequireRole(USER), so admins cannot reach it even though they
// can list every booking.
func (h *BookingHandler) GetBookingByID(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id format"})
	}
	booking, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		c.Logger().Errorf("get booking %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error while fetching booking"})
	}
	return c.JSON(http.StatusOK, booking)
}

// CreateBooking handles POST /v1/bookings. USER role only. The seat
// adjustment and the booking insert are two storage writes; see the
// type comment for the atomicity strategy between them.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user, event and quantity are required"})
	}
	if _, err := uuid.Parse(req.User); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("invalid user id format: %s", req.User)})
	}
	if _, err := uuid.Parse(req.Event); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("invalid event id format: %s", req.Event)})
	}
	// The acting identity was fixed by the auth gate; a booking may
	// only be created for that identity.
	if req.User != identity.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot create a booking for another user"})
	}

	ctx := c.Request().Context()
	if _, err := h.Events.AdjustBookedSeats(ctx, req.Event, int64(req.Quantity)); err != nil {
		var capErr *repository.CapacityError
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.As(err, &capErr):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":     capErr.Error(),
				"available": capErr.Available,
			})
		}
		c.Logger().Errorf("adjust seats for event %s: %v", req.Event, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error while creating booking"})
	}

	booking := &model.Booking{
		UserID:   req.User,
		EventID:  req.Event,
		Quantity: req.Quantity,
	}
	if err := h.Bookings.Create(ctx, booking); err != nil {
		// Roll the counter back so the increment does not outlive
		// the failed insert. The adjustment cannot hit the capacity
		// guard on the way down, so a failure here is a storage
		// fault worth shouting about.
		if _, rbErr := h.Events.AdjustBookedSeats(ctx, req.Event, -int64(req.Quantity)); rbErr != nil {
			c.Logger().Errorf("CRITICAL: rollback of %d seats on event %s failed: %v (original: %v)",
				req.Quantity, req.Event, rbErr, err)
		} else {
			c.Logger().Errorf("create booking: %v (seat adjustment rolled back)", err)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error while creating booking"})
	}

	if h.Publish != nil {
		event, err := h.Events.GetByID(ctx, req.Event)
		if err == nil {
			ev := queue.BookingConfirmedEvent{
				BookingID:   booking.ID,
				UserID:      booking.UserID,
				EventID:     booking.EventID,
				EventTitle:  event.Title,
				Quantity:    booking.Quantity,
				PriceCents:  event.PriceCents,
				ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
			}
			go func() {
				pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = h.Publish(pctx, ev)
			}()
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "booking created successfully", "booking": booking})
}
