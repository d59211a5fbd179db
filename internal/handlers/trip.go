package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sahyadri-heights/carpool-backend/internal/middleware"
	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/services"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

// TripHandler handles trip-related requests
type TripHandler struct {
	store   storage.Store
	booking *services.BookingService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(store storage.Store, booking *services.BookingService) *TripHandler {
	return &TripHandler{store: store, booking: booking}
}

// CreateTrip posts a new ride offer
func (h *TripHandler) CreateTrip(c *fiber.Ctx) error {
	driver := middleware.CurrentUser(c)

	var req struct {
		Type           string     `json:"type"`
		Origin         string     `json:"origin"`
		Destination    string     `json:"destination"`
		PickupPoint    string     `json:"pickup_point"`
		DepartAt       time.Time  `json:"depart_at"`
		ExpiresAt      *time.Time `json:"expires_at"`
		SeatsAvailable int        `json:"seats_available"`
		Notes          string     `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Origin == "" || req.Destination == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Origin and destination are required",
		})
	}
	if req.Type != models.TripTypeDaily && req.Type != models.TripTypeOneTime {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Type must be DAILY or ONE_TIME",
		})
	}
	if req.SeatsAvailable < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one seat must be offered",
		})
	}
	if req.Type == models.TripTypeDaily && req.ExpiresAt != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only one-time trips can have an expiry",
		})
	}

	trip, err := h.store.CreateTrip(&models.Trip{
		DriverID:       driver.UserID,
		Type:           req.Type,
		Origin:         req.Origin,
		Destination:    req.Destination,
		PickupPoint:    req.PickupPoint,
		DepartAt:       req.DepartAt,
		ExpiresAt:      req.ExpiresAt,
		SeatsAvailable: req.SeatsAvailable,
		Notes:          req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Trip posted successfully",
		"trip":    trip,
	})
}

// GetTrips lists active, non-expired trips
func (h *TripHandler) GetTrips(c *fiber.Ctx) error {
	trips, err := h.store.GetActiveTrips(time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"trips": trips,
		"count": len(trips),
	})
}

// GetTrip retrieves a single trip by ID
func (h *TripHandler) GetTrip(c *fiber.Ctx) error {
	trip, err := h.store.GetTrip(c.Params("tripID"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(trip)
}

// GetMyTrips lists the trips the resident is driving
func (h *TripHandler) GetMyTrips(c *fiber.Ctx) error {
	driver := middleware.CurrentUser(c)
	trips, err := h.store.GetTripsByDriver(driver.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"trips": trips,
		"count": len(trips),
	})
}

// CancelTrip marks a trip as cancelled
func (h *TripHandler) CancelTrip(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)
	if err := h.booking.CancelTrip(c.Params("tripID"), actor); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Trip cancelled",
	})
}
