package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahyadri-heights/carpool-backend/internal/middleware"
	"github.com/sahyadri-heights/carpool-backend/internal/services"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

// AuthHandler handles login and session requests
type AuthHandler struct {
	store    storage.Store
	otp      *services.OTPService
	sessions *services.SessionService
	google   services.GoogleVerifier
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(store storage.Store, otp *services.OTPService, sessions *services.SessionService, google services.GoogleVerifier) *AuthHandler {
	return &AuthHandler{
		store:    store,
		otp:      otp,
		sessions: sessions,
		google:   google,
	}
}

// RequestOTP issues a login code to the given email
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email is required",
		})
	}

	if err := h.otp.RequestOTP(req.Email); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Login code sent",
	})
}

// VerifyOTP verifies a login code and issues a session token
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Email == "" || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and code are required",
		})
	}

	user, err := h.otp.VerifyOTP(req.Email, req.Code)
	if err != nil {
		return respondError(c, err)
	}

	token, err := h.sessions.IssueToken(user)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// GoogleSignIn exchanges a Google ID token for a session
func (h *AuthHandler) GoogleSignIn(c *fiber.Ctx) error {
	if h.google == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Google sign-in is not configured",
		})
	}

	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := c.BodyParser(&req); err != nil || req.IDToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ID token is required",
		})
	}

	subject, email, err := h.google.Verify(req.IDToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Google sign-in failed",
		})
	}

	user, err := h.store.GetOrCreateUserByEmail(email)
	if err != nil {
		return respondError(c, err)
	}
	if user.GoogleSubject == "" {
		user.GoogleSubject = subject
		if err := h.store.UpdateUser(user); err != nil {
			return respondError(c, err)
		}
	}

	token, err := h.sessions.IssueToken(user)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Me returns the authenticated resident's own record
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}
