package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahyadri-heights/carpool-backend/internal/apperr"
	"github.com/sahyadri-heights/carpool-backend/internal/middleware"
	"github.com/sahyadri-heights/carpool-backend/internal/services"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

// RequestHandler handles trip seat requests
type RequestHandler struct {
	store   storage.Store
	booking *services.BookingService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(store storage.Store, booking *services.BookingService) *RequestHandler {
	return &RequestHandler{store: store, booking: booking}
}

// CreateRequest asks for a seat on a trip
func (h *RequestHandler) CreateRequest(c *fiber.Ctx) error {
	rider := middleware.CurrentUser(c)

	var req struct {
		TripID string `json:"trip_id"`
		Note   string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.TripID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Trip ID is required",
		})
	}

	created, err := h.booking.CreateRequest(req.TripID, rider, req.Note)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Seat requested",
		"request": created,
	})
}

// GetMyRequests lists the resident's own seat requests
func (h *RequestHandler) GetMyRequests(c *fiber.Ctx) error {
	rider := middleware.CurrentUser(c)
	requests, err := h.store.GetRequestsByRider(rider.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"requests": requests,
		"count":    len(requests),
	})
}

// GetTripRequests lists requests on a trip for its driver or an admin
func (h *RequestHandler) GetTripRequests(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)

	trip, err := h.store.GetTrip(c.Params("tripID"))
	if err != nil {
		return respondError(c, err)
	}
	if !actor.IsAdmin() && trip.DriverID != actor.UserID {
		return respondError(c, apperr.New(apperr.KindForbidden, "Only the driver or an admin can view trip requests"))
	}

	requests, err := h.store.GetRequestsByTrip(trip.TripID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"requests": requests,
		"count":    len(requests),
	})
}

// UpdateRequest changes a request's status (driver/admin) or note
// (rider/admin), never both in one call.
func (h *RequestHandler) UpdateRequest(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)

	var update services.RequestUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, err := h.booking.UpdateRequest(c.Params("requestID"), actor, update)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Request updated",
		"request": updated,
	})
}

// DeleteRequest withdraws a seat request
func (h *RequestHandler) DeleteRequest(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)
	if err := h.booking.DeleteRequest(c.Params("requestID"), actor); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Request deleted",
	})
}
