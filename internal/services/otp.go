package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sahyadri-heights/carpool-backend/internal/apperr"
	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
	"github.com/sahyadri-heights/carpool-backend/internal/utils"
)

const (
	otpExpiry        = 10 * time.Minute
	otpMaxAttempts   = 5
	otpRateWindow    = 60 * time.Second
	otpRatePerWindow = 3
)

// OTPService issues and verifies email login codes
type OTPService struct {
	store      storage.Store
	mailer     Mailer
	production bool
}

// NewOTPService creates a new OTP service. A nil mailer is allowed in
// development; the code is then surfaced through the server log.
func NewOTPService(store storage.Store, mailer Mailer, production bool) *OTPService {
	return &OTPService{store: store, mailer: mailer, production: production}
}

// RequestOTP issues a fresh code for the email and delivers it. The
// rate limit is counted from token rows in storage so it holds across
// server instances. Delivery happens after the token is persisted, so
// a send failure leaves a valid, resendable token behind.
func (s *OTPService) RequestOTP(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperr.New(apperr.KindInvalidState, "Email is required")
	}

	recent, err := s.store.CountOTPsSince(email, time.Now().Add(-otpRateWindow))
	if err != nil {
		return err
	}
	if recent >= otpRatePerWindow {
		return apperr.New(apperr.KindTooManyAttempts, "Too many codes requested, try again in a minute")
	}

	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return err
	}
	hash, err := utils.HashCode(code)
	if err != nil {
		return err
	}

	_, err = s.store.CreateOTP(&models.OtpToken{
		Email:     email,
		CodeHash:  hash,
		ExpiresAt: time.Now().Add(otpExpiry),
	})
	if err != nil {
		return err
	}

	if s.mailer == nil {
		if s.production {
			return apperr.New(apperr.KindEmailNotConfigured, "Email delivery is not configured")
		}
		log.Printf("⚠️  No mailer configured - OTP for %s is %s", email, code)
		return nil
	}

	subject := "Your carpool login code"
	text := fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, int(otpExpiry.Minutes()))
	html := fmt.Sprintf("<p>Your login code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>",
		code, int(otpExpiry.Minutes()))

	if _, err := s.mailer.Send(email, subject, html, text); err != nil {
		log.Printf("Failed to send OTP email to %s: %v", email, err)
		return apperr.New(apperr.KindEmailSendFailed, "Could not send the login code")
	}
	return nil
}

// VerifyOTP checks the candidate code against the most recent live
// token for the email. On success the token is consumed (one-way) and
// the resident record is resolved or created.
func (s *OTPService) VerifyOTP(email, code string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	token, err := s.store.GetLatestLiveOTP(email, time.Now())
	if err != nil {
		return nil, err
	}

	if token.Attempts >= otpMaxAttempts {
		return nil, apperr.New(apperr.KindTooManyAttempts, "Too many attempts, request a new code")
	}

	match, err := utils.VerifyCode(code, token.CodeHash)
	if err != nil {
		return nil, err
	}
	if !match {
		if err := s.store.IncrementOTPAttempts(token.ID); err != nil {
			return nil, err
		}
		return nil, apperr.New(apperr.KindInvalidOrExpired, "Invalid or expired code")
	}

	// Consume exactly once. A concurrent verification of the same token
	// loses here and sees it as already spent.
	if err := s.store.ConsumeOTP(token.ID); err != nil {
		return nil, err
	}

	return s.store.GetOrCreateUserByEmail(email)
}
