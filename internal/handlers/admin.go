package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/sahyadri-heights/carpool-backend/internal/apperr"
	"github.com/sahyadri-heights/carpool-backend/internal/middleware"
	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

// AdminHandler handles user management operations
type AdminHandler struct {
	store storage.Store
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store) *AdminHandler {
	return &AdminHandler{store: store}
}

// GetUsers lists residents, optionally filtered by approval status
func (h *AdminHandler) GetUsers(c *fiber.Ctx) error {
	status := c.Query("status")

	var users []*models.User
	var err error
	if status != "" {
		users, err = h.store.GetUsersByStatus(status)
	} else {
		users, err = h.store.GetAllUsers()
	}
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"users": users,
		"count": len(users),
	})
}

// UpdateUserStatus approves or rejects a resident account
func (h *AdminHandler) UpdateUserStatus(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Status != models.UserStatusApproved && req.Status != models.UserStatusRejected {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Status must be APPROVED or REJECTED",
		})
	}

	user, err := h.store.GetUserByID(c.Params("userID"))
	if err != nil {
		return respondError(c, err)
	}

	user.Status = req.Status
	if err := h.store.UpdateUser(user); err != nil {
		return respondError(c, err)
	}

	log.Printf("User %s %s by admin %s", user.UserID, req.Status, admin.UserID)
	return c.JSON(fiber.Map{
		"message": "User status updated",
		"user":    user,
	})
}

// SetUserRole changes a resident's role
func (h *AdminHandler) SetUserRole(c *fiber.Ctx) error {
	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Role must be USER or ADMIN",
		})
	}

	user, err := h.store.GetUserByID(c.Params("userID"))
	if err != nil {
		return respondError(c, err)
	}

	// Demoting the last admin would lock everyone out
	if user.IsAdmin() && req.Role == models.RoleUser {
		admins, err := h.store.CountAdmins()
		if err != nil {
			return respondError(c, err)
		}
		if admins <= 1 {
			return respondError(c, apperr.New(apperr.KindInvalidState, "Cannot demote the last admin"))
		}
	}

	user.Role = req.Role
	if err := h.store.UpdateUser(user); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "User role updated",
		"user":    user,
	})
}

// DeleteUser removes a resident account. Deleting the last remaining
// admin is refused.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	user, err := h.store.GetUserByID(c.Params("userID"))
	if err != nil {
		return respondError(c, err)
	}

	if user.IsAdmin() {
		admins, err := h.store.CountAdmins()
		if err != nil {
			return respondError(c, err)
		}
		if admins <= 1 {
			return respondError(c, apperr.New(apperr.KindInvalidState, "Cannot delete the last admin"))
		}
	}

	if err := h.store.DeleteUser(user.UserID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "User deleted",
	})
}
