package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sahyadri-heights/carpool-backend/internal/middleware"
	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

// TermsHandler serves and publishes the carpool terms of use
type TermsHandler struct {
	store storage.Store
}

// NewTermsHandler creates a new terms handler
func NewTermsHandler(store storage.Store) *TermsHandler {
	return &TermsHandler{store: store}
}

// GetLatest returns the current terms version
func (h *TermsHandler) GetLatest(c *fiber.Ctx) error {
	doc, err := h.store.GetLatestTerms()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(doc)
}

// Publish creates a new terms version (admin only)
func (h *TermsHandler) Publish(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)

	var req struct {
		Body          string     `json:"body"`
		EffectiveFrom *time.Time `json:"effective_from"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Body is required",
		})
	}

	effective := time.Now()
	if req.EffectiveFrom != nil {
		effective = *req.EffectiveFrom
	}

	doc, err := h.store.CreateTermsDocument(&models.TermsDocument{
		Body:          req.Body,
		PublishedBy:   admin.UserID,
		EffectiveFrom: effective,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Terms published",
		"terms":   doc,
	})
}
