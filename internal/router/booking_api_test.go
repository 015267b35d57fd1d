package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
)

func bookingBody(userID, eventID string, quantity uint32) map[string]interface{} {
	return map[string]interface{}{"user": userID, "event": eventID, "quantity": quantity}
}

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)
	userID, userTok := env.addUser(t, "gina", model.RoleUser)
	ev := env.addEvent(t, "Jazz Night", 5, 0)

	rec := env.request(t, http.MethodPost, "/v1/bookings", userTok, bookingBody(userID, ev.ID, 3))
	require.Equal(t, http.StatusCreated, rec.Code)
	booking := decode(t, rec)["booking"].(map[string]interface{})
	assert.Equal(t, userID, booking["user_id"])
	assert.Equal(t, ev.ID, booking["event_id"])
	assert.Equal(t, float64(3), booking["quantity"])

	// The counter moved with the booking.
	rec = env.request(t, http.MethodGet, "/v1/events/"+ev.ID, "", nil)
	assert.Equal(t, float64(3), decode(t, rec)["booked_seats"])
}

func TestCreateBooking_CapacityExceeded(t *testing.T) {
	env := newTestEnv(t)
	aID, aTok := env.addUser(t, "gina", model.RoleUser)
	bID, bTok := env.addUser(t, "hugo", model.RoleUser)
	ev := env.addEvent(t, "Small Club", 5, 0)

	rec := env.request(t, http.MethodPost, "/v1/bookings", aTok, bookingBody(aID, ev.ID, 3))
	require.Equal(t, http.StatusCreated, rec.Code)

	// 2 seats remain; asking for 3 fails and reports the remainder.
	rec = env.request(t, http.MethodPost, "/v1/bookings", bTok, bookingBody(bID, ev.ID, 3))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "not enough seats left to book, available seats: 2", body["error"])
	assert.Equal(t, float64(2), body["available"])

	// The failed attempt did not move the counter.
	rec = env.request(t, http.MethodGet, "/v1/events/"+ev.ID, "", nil)
	assert.Equal(t, float64(3), decode(t, rec)["booked_seats"])

	// The remainder itself is still bookable.
	rec = env.request(t, http.MethodPost, "/v1/bookings", bTok, bookingBody(bID, ev.ID, 2))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateBooking_HugeQuantity(t *testing.T) {
	env := newTestEnv(t)
	userID, userTok := env.addUser(t, "gina", model.RoleUser)
	ev := env.addEvent(t, "Small Club", 10, 0)

	// A quantity past the int32 range must still read as a capacity
	// rejection, not a conversion artifact.
	rec := env.request(t, http.MethodPost, "/v1/bookings", userTok, bookingBody(userID, ev.ID, 3_000_000_000))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "not enough seats left to book, available seats: 10", body["error"])
	assert.Equal(t, float64(10), body["available"])

	rec = env.request(t, http.MethodGet, "/v1/events/"+ev.ID, "", nil)
	assert.Equal(t, float64(0), decode(t, rec)["booked_seats"])
}

func TestCreateBooking_ConcurrentContention(t *testing.T) {
	env := newTestEnv(t)
	aID, aTok := env.addUser(t, "gina", model.RoleUser)
	bID, bTok := env.addUser(t, "hugo", model.RoleUser)
	ev := env.addEvent(t, "Nearly Full", 10, 8)

	// Two seats left, two racing requests for two seats each: exactly
	// one may win, and the counter must land on the capacity, never
	// beyond it.
	recs := make([]*httptest.ResponseRecorder, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		recs[0] = env.request(t, http.MethodPost, "/v1/bookings", aTok, bookingBody(aID, ev.ID, 2))
	}()
	go func() {
		defer wg.Done()
		recs[1] = env.request(t, http.MethodPost, "/v1/bookings", bTok, bookingBody(bID, ev.ID, 2))
	}()
	wg.Wait()

	codes := []int{recs[0].Code, recs[1].Code}
	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusBadRequest}, codes)

	rec := env.request(t, http.MethodGet, "/v1/events/"+ev.ID, "", nil)
	assert.Equal(t, float64(10), decode(t, rec)["booked_seats"])
}

func TestCreateBooking_RollbackOnInsertFailure(t *testing.T) {
	env := newTestEnv(t)
	userID, userTok := env.addUser(t, "gina", model.RoleUser)
	ev := env.addEvent(t, "Jazz Night", 10, 0)

	env.bookings.createErr = errors.New("storage down")
	rec := env.request(t, http.MethodPost, "/v1/bookings", userTok, bookingBody(userID, ev.ID, 4))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// The seat increment was compensated back down.
	rec = env.request(t, http.MethodGet, "/v1/events/"+ev.ID, "", nil)
	assert.Equal(t, float64(0), decode(t, rec)["booked_seats"])

	// And nothing was persisted.
	rec = env.request(t, http.MethodGet, "/v1/bookings", userTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Recovery: once storage is healthy the same request succeeds.
	env.bookings.createErr = nil
	rec = env.request(t, http.MethodPost, "/v1/bookings", userTok, bookingBody(userID, ev.ID, 4))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateBooking_Validation(t *testing.T) {
	env := newTestEnv(t)
	userID, userTok := env.addUser(t, "gina", model.RoleUser)
	ev := env.addEvent(t, "Jazz Night", 10, 0)

	rec := env.request(t, http.MethodPost, "/v1/bookings", userTok, map[string]interface{}{
		"user": userID, "event": ev.ID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "user, event and quantity are required", decode(t, rec)["error"])

	// Zero quantity reads as missing.
	rec = env.request(t, http.MethodPost, "/v1/bookings", userTok, bookingBody(userID, ev.ID, 0))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodPost, "/v1/bookings", userTok, bookingBody("not-a-uuid", ev.ID, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodPost, "/v1/bookings", userTok, bookingBody(userID, "not-a-uuid", 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodPost, "/v1/bookings", userTok, bookingBody(userID, uuid.NewString(), 1))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "event not found", decode(t, rec)["error"])
}

func TestCreateBooking_IdentityEnforcement(t *testing.T) {
	env := newTestEnv(t)
	_, userTok := env.addUser(t, "gina", model.RoleUser)
	otherID, _ := env.addUser(t, "hugo", model.RoleUser)
	adminID, adminTok := env.addUser(t, "theadmin", model.RoleAdmin)
	ev := env.addEvent(t, "Jazz Night", 10, 0)

	// Booking on behalf of someone else is refused, and the counter
	// stays put.
	rec := env.request(t, http.MethodPost, "/v1/bookings", userTok, bookingBody(otherID, ev.ID, 2))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "cannot create a booking for another user", decode(t, rec)["error"])
	rec = env.request(t, http.MethodGet, "/v1/events/"+ev.ID, "", nil)
	assert.Equal(t, float64(0), decode(t, rec)["booked_seats"])

	// Admins administer, they do not book.
	rec = env.request(t, http.MethodPost, "/v1/bookings", adminTok, bookingBody(adminID, ev.ID, 2))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListBookings(t *testing.T) {
	env := newTestEnv(t)
	aID, aTok := env.addUser(t, "gina", model.RoleUser)
	bID, bTok := env.addUser(t, "hugo", model.RoleUser)
	_, adminTok := env.addUser(t, "theadmin", model.RoleAdmin)
	ev1 := env.addEvent(t, "Jazz Night", 10, 0)
	ev2 := env.addEvent(t, "Rock Fest", 10, 0)

	require.Equal(t, http.StatusCreated,
		env.request(t, http.MethodPost, "/v1/bookings", aTok, bookingBody(aID, ev1.ID, 1)).Code)
	require.Equal(t, http.StatusCreated,
		env.request(t, http.MethodPost, "/v1/bookings", aTok, bookingBody(aID, ev2.ID, 2)).Code)
	require.Equal(t, http.StatusCreated,
		env.request(t, http.MethodPost, "/v1/bookings", bTok, bookingBody(bID, ev1.ID, 3)).Code)

	// Admin sees everything and may filter freely.
	rec := env.request(t, http.MethodGet, "/v1/bookings", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 3)

	rec = env.request(t, http.MethodGet, "/v1/bookings?user="+aID, adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 2)

	rec = env.request(t, http.MethodGet, "/v1/bookings?event="+ev1.ID, adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 2)

	// A user only ever sees their own, even when asking for another's.
	rec = env.request(t, http.MethodGet, "/v1/bookings?user="+bID, aTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	own := decodeList(t, rec)
	require.Len(t, own, 2)
	for _, b := range own {
		assert.Equal(t, aID, b["user_id"])
	}

	rec = env.request(t, http.MethodGet, "/v1/bookings?event="+ev2.ID, aTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 1)

	// Malformed filter ids are rejected outright.
	rec = env.request(t, http.MethodGet, "/v1/bookings?user=not-a-uuid", adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodGet, "/v1/bookings?event=not-a-uuid", adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBookings_EmptyMessages(t *testing.T) {
	env := newTestEnv(t)
	_, userTok := env.addUser(t, "gina", model.RoleUser)
	_, adminTok := env.addUser(t, "theadmin", model.RoleAdmin)

	// Admin with no filters and no rows at all.
	rec := env.request(t, http.MethodGet, "/v1/bookings", adminTok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no bookings found", decode(t, rec)["error"])

	// A user's listing is always filtered to themselves, so the
	// criteria wording applies.
	rec = env.request(t, http.MethodGet, "/v1/bookings", userTok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no bookings found matching your criteria", decode(t, rec)["error"])
}

func TestGetBookingByID(t *testing.T) {
	env := newTestEnv(t)
	userID, userTok := env.addUser(t, "gina", model.RoleUser)
	_, adminTok := env.addUser(t, "theadmin", model.RoleAdmin)
	ev := env.addEvent(t, "Jazz Night", 10, 0)

	created := env.request(t, http.MethodPost, "/v1/bookings", userTok, bookingBody(userID, ev.ID, 2))
	require.Equal(t, http.StatusCreated, created.Code)
	bookingID := decode(t, created)["booking"].(map[string]interface{})["id"].(string)

	rec := env.request(t, http.MethodGet, "/v1/bookings/"+bookingID, userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bookingID, decode(t, rec)["id"])

	// The single-record route is reserved for the USER role.
	rec = env.request(t, http.MethodGet, "/v1/bookings/"+bookingID, adminTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodGet, "/v1/bookings/not-a-uuid", userTok, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid booking id format", decode(t, rec)["error"])

	rec = env.request(t, http.MethodGet, "/v1/bookings/"+uuid.NewString(), userTok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "booking not found", decode(t, rec)["error"])
}
