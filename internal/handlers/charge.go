package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

// ChargeHandler handles the shared-cost charges list
type ChargeHandler struct {
	store storage.Store
}

// NewChargeHandler creates a new charge handler
func NewChargeHandler(store storage.Store) *ChargeHandler {
	return &ChargeHandler{store: store}
}

// GetCharges lists all charges
func (h *ChargeHandler) GetCharges(c *fiber.Ctx) error {
	charges, err := h.store.GetCharges()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"charges": charges,
		"count":   len(charges),
	})
}

// CreateCharge adds a charge entry (admin only)
func (h *ChargeHandler) CreateCharge(c *fiber.Ctx) error {
	var req struct {
		Label  string  `json:"label"`
		Amount float64 `json:"amount"`
		Period string  `json:"period"`
		Notes  string  `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Label == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Label is required",
		})
	}

	charge, err := h.store.CreateCharge(&models.Charge{
		Label:  req.Label,
		Amount: req.Amount,
		Period: req.Period,
		Notes:  req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Charge added",
		"charge":  charge,
	})
}

// UpdateCharge edits a charge entry (admin only)
func (h *ChargeHandler) UpdateCharge(c *fiber.Ctx) error {
	charge, err := h.store.GetCharge(c.Params("chargeID"))
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Label  *string  `json:"label"`
		Amount *float64 `json:"amount"`
		Period *string  `json:"period"`
		Notes  *string  `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Label != nil {
		charge.Label = *req.Label
	}
	if req.Amount != nil {
		charge.Amount = *req.Amount
	}
	if req.Period != nil {
		charge.Period = *req.Period
	}
	if req.Notes != nil {
		charge.Notes = *req.Notes
	}

	if err := h.store.UpdateCharge(charge); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Charge updated",
		"charge":  charge,
	})
}

// DeleteCharge removes a charge entry (admin only)
func (h *ChargeHandler) DeleteCharge(c *fiber.Ctx) error {
	if err := h.store.DeleteCharge(c.Params("chargeID")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Charge deleted",
	})
}
