package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sahyadri-heights/carpool-backend/internal/apperr"
	"github.com/sahyadri-heights/carpool-backend/internal/middleware"
	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

// PoolHandler handles the looking-for-a-ride board
type PoolHandler struct {
	store storage.Store
}

// NewPoolHandler creates a new pool request handler
func NewPoolHandler(store storage.Store) *PoolHandler {
	return &PoolHandler{store: store}
}

// CreatePool posts a new ride-wanted request
func (h *PoolHandler) CreatePool(c *fiber.Ctx) error {
	requester := middleware.CurrentUser(c)

	var req struct {
		Origin      string    `json:"origin"`
		Destination string    `json:"destination"`
		TravelAt    time.Time `json:"travel_at"`
		Seats       int       `json:"seats"`
		Notes       string    `json:"notes"`
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

	pool, err := h.store.CreatePoolRequest(&models.PoolRequest{
		RequesterID: requester.UserID,
		Origin:      req.Origin,
		Destination: req.Destination,
		TravelAt:    req.TravelAt,
		Seats:       req.Seats,
		Notes:       req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Pool request posted",
		"pool":    pool,
	})
}

// GetOpenPools lists open pool requests
func (h *PoolHandler) GetOpenPools(c *fiber.Ctx) error {
	pools, err := h.store.GetOpenPoolRequests()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"pools": pools,
		"count": len(pools),
	})
}

// ClosePool marks a pool request as closed
func (h *PoolHandler) ClosePool(c *fiber.Ctx) error {
	actor := middleware.CurrentUser(c)

	pool, err := h.store.GetPoolRequest(c.Params("poolID"))
	if err != nil {
		return respondError(c, err)
	}
	if !actor.IsAdmin() && pool.RequesterID != actor.UserID {
		return respondError(c, apperr.New(apperr.KindForbidden, "Only the requester or an admin can close this"))
	}
	if pool.Status != models.PoolStatusOpen {
		return respondError(c, apperr.New(apperr.KindInvalidState, "Pool request is already closed"))
	}

	pool.Status = models.PoolStatusClosed
	if err := h.store.UpdatePoolRequest(pool); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Pool request closed",
	})
}
