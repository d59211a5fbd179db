package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an error so handlers can map it to an HTTP status
// without string matching.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindInvalidState       Kind = "invalid_state"
	KindNoSeatsAvailable   Kind = "no_seats_available"
	KindTripEnded          Kind = "trip_ended"
	KindOwnTripRequest     Kind = "own_trip_request"
	KindTooManyAttempts    Kind = "too_many_attempts"
	KindInvalidOrExpired   Kind = "invalid_or_expired"
	KindEmailNotConfigured Kind = "email_provider_not_configured"
	KindEmailSendFailed    Kind = "email_send_failed"
	KindUnexpected         Kind = "unexpected"
)

// Error carries a kind plus a caller-safe message. Infrastructure
// details stay out of Message; they are logged where the error arises.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// New builds an Error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the kind from err, or KindUnexpected for anything
// that is not an *Error (storage and infra failures).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Is lets errors.Is match two app errors by kind
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// StatusCode maps an error kind to the HTTP status the API layer returns
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindForbidden:
		return fiber.StatusForbidden
	case KindInvalidState, KindOwnTripRequest, KindTripEnded:
		return fiber.StatusBadRequest
	case KindNoSeatsAvailable:
		return fiber.StatusConflict
	case KindTooManyAttempts:
		return fiber.StatusTooManyRequests
	case KindInvalidOrExpired:
		return fiber.StatusUnauthorized
	case KindEmailSendFailed:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// Message returns the caller-safe message for err. Non-app errors get a
// generic message so internals never leak to clients.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong"
}
