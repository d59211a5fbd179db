package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahyadri-heights/carpool-backend/internal/middleware"
	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

// NoticeHandler handles society notices
type NoticeHandler struct {
	store storage.Store
}

// NewNoticeHandler creates a new notice handler
func NewNoticeHandler(store storage.Store) *NoticeHandler {
	return &NoticeHandler{store: store}
}

// GetNotices lists notices, pinned first
func (h *NoticeHandler) GetNotices(c *fiber.Ctx) error {
	notices, err := h.store.GetNotices()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"notices": notices,
		"count":   len(notices),
	})
}

// CreateNotice posts a new notice (admin only)
func (h *NoticeHandler) CreateNotice(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)

	var req struct {
		Title  string `json:"title"`
		Body   string `json:"body"`
		Pinned bool   `json:"pinned"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	notice, err := h.store.CreateNotice(&models.Notice{
		Title:    req.Title,
		Body:     req.Body,
		PostedBy: admin.UserID,
		Pinned:   req.Pinned,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Notice posted",
		"notice":  notice,
	})
}

// UpdateNotice edits an existing notice (admin only)
func (h *NoticeHandler) UpdateNotice(c *fiber.Ctx) error {
	notice, err := h.store.GetNotice(c.Params("noticeID"))
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Title  *string `json:"title"`
		Body   *string `json:"body"`
		Pinned *bool   `json:"pinned"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil {
		notice.Title = *req.Title
	}
	if req.Body != nil {
		notice.Body = *req.Body
	}
	if req.Pinned != nil {
		notice.Pinned = *req.Pinned
	}

	if err := h.store.UpdateNotice(notice); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Notice updated",
		"notice":  notice,
	})
}

// DeleteNotice removes a notice (admin only)
func (h *NoticeHandler) DeleteNotice(c *fiber.Ctx) error {
	if err := h.store.DeleteNotice(c.Params("noticeID")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Notice deleted",
	})
}
