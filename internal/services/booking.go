package services

import (
	"fmt"
	"log"
	"time"

	"github.com/sahyadri-heights/carpool-backend/internal/apperr"
	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

// Notifier delivers short out-of-band messages to residents. Nil means
// notifications are disabled; booking outcomes never depend on them.
type Notifier interface {
	SendMessage(to, body string) error
}

// BookingService owns the trip-request state machine: every change to a
// request's status and every seat-counter mutation goes through here.
type BookingService struct {
	store    storage.Store
	notifier Notifier
}

// NewBookingService creates a new booking service
func NewBookingService(store storage.Store, notifier Notifier) *BookingService {
	return &BookingService{store: store, notifier: notifier}
}

// RequestUpdate is the payload for changing an existing trip request.
// Status and Note changes are mutually exclusive per call.
type RequestUpdate struct {
	Status *string `json:"status"`
	Note   *string `json:"note"`
}

// CreateRequest creates a PENDING seat request for the rider on a trip
func (s *BookingService) CreateRequest(tripID string, rider *models.User, note string) (*models.TripRequest, error) {
	trip, err := s.store.GetTrip(tripID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if trip.Status != models.TripStatusActive || trip.HasEnded(now) {
		return nil, apperr.New(apperr.KindTripEnded, "Trip is no longer taking requests")
	}
	if trip.DriverID == rider.UserID {
		return nil, apperr.New(apperr.KindOwnTripRequest, "You cannot request a seat on your own trip")
	}
	if !trip.HasFreeSeat() {
		return nil, apperr.New(apperr.KindNoSeatsAvailable, "No seats available")
	}

	// One open request per rider per trip
	if existing, err := s.store.GetRequestByTripAndRider(tripID, rider.UserID); err == nil {
		if existing.Status != models.RequestStatusRejected {
			return nil, apperr.New(apperr.KindInvalidState, "You already have a request on this trip")
		}
	}

	req := &models.TripRequest{
		TripID:  tripID,
		RiderID: rider.UserID,
		Status:  models.RequestStatusPending,
		Note:    note,
	}
	return s.store.CreateTripRequest(req)
}

// UpdateRequest applies either a status transition or a note edit.
// Payloads attempting both at once are rejected before any mutation.
func (s *BookingService) UpdateRequest(requestID string, actor *models.User, update RequestUpdate) (*models.TripRequest, error) {
	if update.Status != nil && update.Note != nil {
		return nil, apperr.New(apperr.KindInvalidState, "Update either the status or the note, not both")
	}
	if update.Status != nil {
		return s.UpdateStatus(requestID, *update.Status, actor)
	}
	if update.Note != nil {
		return s.UpdateNote(requestID, *update.Note, actor)
	}
	return nil, apperr.New(apperr.KindInvalidState, "Nothing to update")
}

// UpdateStatus transitions a request. Only the trip's driver or an
// admin may do this. The seat counter moves with the transition inside
// a single store transaction; the capacity check for confirmations
// happens there, not here.
func (s *BookingService) UpdateStatus(requestID, newStatus string, actor *models.User) (*models.TripRequest, error) {
	if !models.ValidRequestStatus(newStatus) {
		return nil, apperr.New(apperr.KindInvalidState, "Invalid status value")
	}

	req, err := s.store.GetTripRequest(requestID)
	if err != nil {
		return nil, err
	}
	trip, err := s.store.GetTrip(req.TripID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && trip.DriverID != actor.UserID {
		return nil, apperr.New(apperr.KindForbidden, "Only the driver or an admin can decide requests")
	}

	updated, err := s.store.UpdateTripRequestStatus(requestID, newStatus)
	if err != nil {
		return nil, err
	}

	s.notifyRider(updated, trip)
	return updated, nil
}

// UpdateNote edits the rider's note. Admins may always edit; the rider
// only while the request is still PENDING.
func (s *BookingService) UpdateNote(requestID, note string, actor *models.User) (*models.TripRequest, error) {
	req, err := s.store.GetTripRequest(requestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if req.RiderID != actor.UserID {
			return nil, apperr.New(apperr.KindForbidden, "Only the rider or an admin can edit the note")
		}
		if req.Status != models.RequestStatusPending {
			return nil, apperr.New(apperr.KindInvalidState, "Note can only be edited while the request is pending")
		}
	}

	if err := s.store.UpdateTripRequestNote(requestID, note); err != nil {
		return nil, err
	}
	req.Note = note
	return req, nil
}

// DeleteRequest removes a request. The rider or an admin may delete;
// a CONFIRMED request releases its seat atomically with the deletion.
func (s *BookingService) DeleteRequest(requestID string, actor *models.User) error {
	req, err := s.store.GetTripRequest(requestID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && req.RiderID != actor.UserID {
		return apperr.New(apperr.KindForbidden, "Only the rider or an admin can delete the request")
	}
	return s.store.DeleteTripRequest(requestID)
}

// CancelTrip marks a trip CANCELLED. Confirmed riders keep their seats
// on record; the trip just stops accepting requests.
func (s *BookingService) CancelTrip(tripID string, actor *models.User) error {
	trip, err := s.store.GetTrip(tripID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && trip.DriverID != actor.UserID {
		return apperr.New(apperr.KindForbidden, "Only the driver or an admin can cancel the trip")
	}
	if trip.Status != models.TripStatusActive {
		return apperr.New(apperr.KindInvalidState, "Trip is already cancelled")
	}
	return s.store.UpdateTripStatus(tripID, models.TripStatusCancelled)
}

// notifyRider sends a best-effort status update to the rider's phone
func (s *BookingService) notifyRider(req *models.TripRequest, trip *models.Trip) {
	if s.notifier == nil {
		return
	}
	rider, err := s.store.GetUserByID(req.RiderID)
	if err != nil || rider.Phone == "" {
		return
	}

	var body string
	switch req.Status {
	case models.RequestStatusConfirmed:
		body = fmt.Sprintf("Your seat for %s → %s on %s is confirmed. 🚗",
			trip.Origin, trip.Destination, trip.DepartAt.Format("Mon 3:04 PM"))
	case models.RequestStatusRejected:
		body = fmt.Sprintf("Your seat request for %s → %s was declined.",
			trip.Origin, trip.Destination)
	default:
		return
	}

	if err := s.notifier.SendMessage(rider.Phone, body); err != nil {
		log.Printf("Failed to notify rider %s: %v", rider.UserID, err)
	}
}
