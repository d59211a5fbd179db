package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

// AnalyticsHandler serves admin overview counts
type AnalyticsHandler struct {
	store storage.Store
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(store storage.Store) *AnalyticsHandler {
	return &AnalyticsHandler{store: store}
}

// Overview returns headline counts for the admin dashboard
func (h *AnalyticsHandler) Overview(c *fiber.Ctx) error {
	pendingUsers, err := h.store.CountUsersByStatus(models.UserStatusPending)
	if err != nil {
		return respondError(c, err)
	}
	approvedUsers, err := h.store.CountUsersByStatus(models.UserStatusApproved)
	if err != nil {
		return respondError(c, err)
	}
	activeTrips, err := h.store.CountActiveTrips()
	if err != nil {
		return respondError(c, err)
	}
	pendingRequests, err := h.store.CountRequestsByStatus(models.RequestStatusPending)
	if err != nil {
		return respondError(c, err)
	}
	confirmedRequests, err := h.store.CountRequestsByStatus(models.RequestStatusConfirmed)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"users": fiber.Map{
			"pending":  pendingUsers,
			"approved": approvedUsers,
		},
		"trips": fiber.Map{
			"active": activeTrips,
		},
		"requests": fiber.Map{
			"pending":   pendingRequests,
			"confirmed": confirmedRequests,
		},
	})
}
