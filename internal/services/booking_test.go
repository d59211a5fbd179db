package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sahyadri-heights/carpool-backend/internal/apperr"
	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

type bookingEnv struct {
	store  *storage.MemoryStore
	svc    *BookingService
	driver *models.User
	riderA *models.User
	riderB *models.User
	admin  *models.User
}

func newBookingEnv(t *testing.T) *bookingEnv {
	t.Helper()
	store := storage.NewMemoryStore()

	mustUser := func(email, role string) *models.User {
		user, err := store.CreateUser(&models.User{
			Email:  email,
			Role:   role,
			Status: models.UserStatusApproved,
		})
		if err != nil {
			t.Fatalf("creating user %s: %v", email, err)
		}
		return user
	}

	return &bookingEnv{
		store:  store,
		svc:    NewBookingService(store, nil),
		driver: mustUser("driver@society.test", models.RoleUser),
		riderA: mustUser("rider-a@society.test", models.RoleUser),
		riderB: mustUser("rider-b@society.test", models.RoleUser),
		admin:  mustUser("admin@society.test", models.RoleAdmin),
	}
}

func (e *bookingEnv) newTrip(t *testing.T, seats int) *models.Trip {
	t.Helper()
	trip, err := e.store.CreateTrip(&models.Trip{
		DriverID:       e.driver.UserID,
		Type:           models.TripTypeOneTime,
		Origin:         "Sahyadri Heights",
		Destination:    "Hinjawadi Phase 2",
		DepartAt:       time.Now().Add(2 * time.Hour),
		SeatsAvailable: seats,
	})
	if err != nil {
		t.Fatalf("creating trip: %v", err)
	}
	return trip
}

func expectKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %s, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected error kind %s, got %s (%v)", kind, got, err)
	}
}

func TestCreateRequest_OwnTrip(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 2)

	_, err := e.svc.CreateRequest(trip.TripID, e.driver, "")
	expectKind(t, err, apperr.KindOwnTripRequest)
}

func TestCreateRequest_TripNotFound(t *testing.T) {
	e := newBookingEnv(t)

	_, err := e.svc.CreateRequest("TRP99999", e.riderA, "")
	expectKind(t, err, apperr.KindNotFound)
}

func TestCreateRequest_DepartedOneTimeTrip(t *testing.T) {
	e := newBookingEnv(t)
	trip, err := e.store.CreateTrip(&models.Trip{
		DriverID:       e.driver.UserID,
		Type:           models.TripTypeOneTime,
		DepartAt:       time.Now().Add(-1 * time.Hour),
		SeatsAvailable: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.svc.CreateRequest(trip.TripID, e.riderA, "")
	expectKind(t, err, apperr.KindTripEnded)
}

func TestCreateRequest_CancelledTrip(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 2)

	if err := e.svc.CancelTrip(trip.TripID, e.driver); err != nil {
		t.Fatalf("cancelling trip: %v", err)
	}

	_, err := e.svc.CreateRequest(trip.TripID, e.riderA, "")
	expectKind(t, err, apperr.KindTripEnded)
}

func TestCreateRequest_Duplicate(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 2)

	if _, err := e.svc.CreateRequest(trip.TripID, e.riderA, ""); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err := e.svc.CreateRequest(trip.TripID, e.riderA, "")
	expectKind(t, err, apperr.KindInvalidState)
}

func TestUpdateStatus_RiderCannotDecide(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 2)

	req, err := e.svc.CreateRequest(trip.TripID, e.riderA, "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.svc.UpdateStatus(req.RequestID, models.RequestStatusConfirmed, e.riderA)
	expectKind(t, err, apperr.KindForbidden)
}

func TestUpdateStatus_InvalidValue(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 2)

	req, err := e.svc.CreateRequest(trip.TripID, e.riderA, "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.svc.UpdateStatus(req.RequestID, "APPROVED", e.driver)
	expectKind(t, err, apperr.KindInvalidState)
}

// Single-seat scenario: confirm A, fail B, reject A, confirm B.
func TestSeatHandoverScenario(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 1)

	reqA, err := e.svc.CreateRequest(trip.TripID, e.riderA, "")
	if err != nil {
		t.Fatal(err)
	}
	reqB, err := e.svc.CreateRequest(trip.TripID, e.riderB, "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.svc.UpdateStatus(reqA.RequestID, models.RequestStatusConfirmed, e.driver); err != nil {
		t.Fatalf("confirming rider A: %v", err)
	}
	if got := seatsBooked(t, e, trip.TripID); got != 1 {
		t.Fatalf("expected 1 seat booked, got %d", got)
	}

	_, err = e.svc.UpdateStatus(reqB.RequestID, models.RequestStatusConfirmed, e.driver)
	expectKind(t, err, apperr.KindNoSeatsAvailable)

	if _, err := e.svc.UpdateStatus(reqA.RequestID, models.RequestStatusRejected, e.driver); err != nil {
		t.Fatalf("rejecting rider A: %v", err)
	}
	if got := seatsBooked(t, e, trip.TripID); got != 0 {
		t.Fatalf("expected 0 seats booked after rejection, got %d", got)
	}

	if _, err := e.svc.UpdateStatus(reqB.RequestID, models.RequestStatusConfirmed, e.driver); err != nil {
		t.Fatalf("confirming rider B after seat freed: %v", err)
	}
	if got := seatsBooked(t, e, trip.TripID); got != 1 {
		t.Fatalf("expected 1 seat booked, got %d", got)
	}
}

func TestConfirmThenDelete_RestoresSeat(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 3)

	req, err := e.svc.CreateRequest(trip.TripID, e.riderA, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.UpdateStatus(req.RequestID, models.RequestStatusConfirmed, e.driver); err != nil {
		t.Fatal(err)
	}
	if got := seatsBooked(t, e, trip.TripID); got != 1 {
		t.Fatalf("expected 1 seat booked, got %d", got)
	}

	if err := e.svc.DeleteRequest(req.RequestID, e.riderA); err != nil {
		t.Fatalf("deleting request: %v", err)
	}
	if got := seatsBooked(t, e, trip.TripID); got != 0 {
		t.Fatalf("expected seat released on delete, got %d", got)
	}
}

func TestRejectConfirmed_DecrementsExactlyOnce(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 2)

	req, err := e.svc.CreateRequest(trip.TripID, e.riderA, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.UpdateStatus(req.RequestID, models.RequestStatusConfirmed, e.driver); err != nil {
		t.Fatal(err)
	}

	if _, err := e.svc.UpdateStatus(req.RequestID, models.RequestStatusRejected, e.driver); err != nil {
		t.Fatal(err)
	}
	if got := seatsBooked(t, e, trip.TripID); got != 0 {
		t.Fatalf("expected 0 after reject, got %d", got)
	}

	// Repeating the rejection must not push the counter below zero
	if _, err := e.svc.UpdateStatus(req.RequestID, models.RequestStatusRejected, e.driver); err != nil {
		t.Fatal(err)
	}
	if got := seatsBooked(t, e, trip.TripID); got != 0 {
		t.Fatalf("expected counter floored at 0, got %d", got)
	}
}

func TestReopenConfirmed_ReleasesSeat(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 1)

	req, err := e.svc.CreateRequest(trip.TripID, e.riderA, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.UpdateStatus(req.RequestID, models.RequestStatusConfirmed, e.admin); err != nil {
		t.Fatal(err)
	}

	if _, err := e.svc.UpdateStatus(req.RequestID, models.RequestStatusPending, e.admin); err != nil {
		t.Fatal(err)
	}
	if got := seatsBooked(t, e, trip.TripID); got != 0 {
		t.Fatalf("expected seat released on re-open, got %d", got)
	}
}

func TestUpdateNote_Rules(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 2)

	req, err := e.svc.CreateRequest(trip.TripID, e.riderA, "pickup at gate 2")
	if err != nil {
		t.Fatal(err)
	}

	// Rider may edit while pending
	if _, err := e.svc.UpdateNote(req.RequestID, "gate 3 instead", e.riderA); err != nil {
		t.Fatalf("rider editing pending note: %v", err)
	}

	// Another resident may not
	_, err = e.svc.UpdateNote(req.RequestID, "hijack", e.riderB)
	expectKind(t, err, apperr.KindForbidden)

	if _, err := e.svc.UpdateStatus(req.RequestID, models.RequestStatusConfirmed, e.driver); err != nil {
		t.Fatal(err)
	}

	// Rider is locked out once the request left PENDING
	_, err = e.svc.UpdateNote(req.RequestID, "too late", e.riderA)
	expectKind(t, err, apperr.KindInvalidState)

	// Admin may still edit
	if _, err := e.svc.UpdateNote(req.RequestID, "admin note", e.admin); err != nil {
		t.Fatalf("admin editing confirmed note: %v", err)
	}
}

func TestUpdateRequest_RejectsMixedPayload(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 2)

	req, err := e.svc.CreateRequest(trip.TripID, e.riderA, "")
	if err != nil {
		t.Fatal(err)
	}

	status := models.RequestStatusConfirmed
	note := "both at once"
	_, err = e.svc.UpdateRequest(req.RequestID, e.admin, RequestUpdate{Status: &status, Note: &note})
	expectKind(t, err, apperr.KindInvalidState)

	// Nothing was applied
	stored, err := e.store.GetTripRequest(req.RequestID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.RequestStatusPending || stored.Note != "" {
		t.Fatalf("mixed payload mutated state: status=%s note=%q", stored.Status, stored.Note)
	}
}

func TestDeleteRequest_StrangerForbidden(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 2)

	req, err := e.svc.CreateRequest(trip.TripID, e.riderA, "")
	if err != nil {
		t.Fatal(err)
	}

	err = e.svc.DeleteRequest(req.RequestID, e.riderB)
	expectKind(t, err, apperr.KindForbidden)
}

// Exactly seatsAvailable confirmations succeed under concurrent
// confirmation attempts; the rest fail with NoSeatsAvailable.
func TestConcurrentConfirmations_RespectCapacity(t *testing.T) {
	e := newBookingEnv(t)
	trip := e.newTrip(t, 2)

	const riders = 6
	requestIDs := make([]string, riders)
	for i := 0; i < riders; i++ {
		rider, err := e.store.CreateUser(&models.User{
			Email:  fmt.Sprintf("rider%d@society.test", i),
			Status: models.UserStatusApproved,
		})
		if err != nil {
			t.Fatal(err)
		}
		req, err := e.svc.CreateRequest(trip.TripID, rider, "")
		if err != nil {
			t.Fatal(err)
		}
		requestIDs[i] = req.RequestID
	}

	var wg sync.WaitGroup
	errs := make([]error, riders)
	for i := 0; i < riders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.UpdateStatus(requestIDs[i], models.RequestStatusConfirmed, e.driver)
		}(i)
	}
	wg.Wait()

	confirmed := 0
	for _, err := range errs {
		if err == nil {
			confirmed++
		} else {
			expectKind(t, err, apperr.KindNoSeatsAvailable)
		}
	}
	if confirmed != 2 {
		t.Fatalf("expected exactly 2 confirmations, got %d", confirmed)
	}
	if got := seatsBooked(t, e, trip.TripID); got != 2 {
		t.Fatalf("expected 2 seats booked, got %d", got)
	}
}

func seatsBooked(t *testing.T, e *bookingEnv, tripID string) int {
	t.Helper()
	trip, err := e.store.GetTrip(tripID)
	if err != nil {
		t.Fatalf("fetching trip: %v", err)
	}
	if trip.SeatsBooked < 0 || trip.SeatsBooked > trip.SeatsAvailable {
		t.Fatalf("seat invariant violated: booked=%d available=%d", trip.SeatsBooked, trip.SeatsAvailable)
	}
	return trip.SeatsBooked
}
