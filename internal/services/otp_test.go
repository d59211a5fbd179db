package services

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/sahyadri-heights/carpool-backend/internal/apperr"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// captureMailer records sends and exposes the code from the last email
type captureMailer struct {
	sent    int
	lastTo  string
	lastRaw string
	fail    bool
}

func (m *captureMailer) Send(to, subject, html, text string) (string, error) {
	if m.fail {
		return "", errors.New("provider unavailable")
	}
	m.sent++
	m.lastTo = to
	m.lastRaw = text
	return "msg_test", nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	code := codePattern.FindString(m.lastRaw)
	if code == "" {
		t.Fatalf("no 6-digit code in email body: %q", m.lastRaw)
	}
	return code
}

// wrongCodeFor returns a 6-digit code guaranteed to differ
func wrongCodeFor(code string) string {
	first := byte('0')
	if code[0] == '0' {
		first = '1'
	}
	return string(first) + code[1:]
}

func TestRequestOTP_DeliversCode(t *testing.T) {
	store := storage.NewMemoryStore()
	mailer := &captureMailer{}
	svc := NewOTPService(store, mailer, false)

	if err := svc.RequestOTP("Resident@Society.Test"); err != nil {
		t.Fatalf("requesting OTP: %v", err)
	}
	if mailer.sent != 1 {
		t.Fatalf("expected 1 email sent, got %d", mailer.sent)
	}
	// Email is normalized before storage and delivery
	if mailer.lastTo != "resident@society.test" {
		t.Fatalf("expected normalized recipient, got %q", mailer.lastTo)
	}
	mailer.lastCode(t)
}

func TestRequestOTP_RateLimitPerEmail(t *testing.T) {
	store := storage.NewMemoryStore()
	mailer := &captureMailer{}
	svc := NewOTPService(store, mailer, false)

	for i := 0; i < 3; i++ {
		if err := svc.RequestOTP("resident@society.test"); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}

	err := svc.RequestOTP("resident@society.test")
	expectKind(t, err, apperr.KindTooManyAttempts)

	// The refused request must not have minted a fourth token
	count, err := store.CountOTPsSince("resident@society.test", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("expected 3 stored tokens, got %d", count)
	}

	// Another resident is unaffected
	if err := svc.RequestOTP("neighbour@society.test"); err != nil {
		t.Fatalf("unrelated email caught in rate limit: %v", err)
	}
}

func TestRequestOTP_ProductionWithoutMailer(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, nil, true)

	err := svc.RequestOTP("resident@society.test")
	expectKind(t, err, apperr.KindEmailNotConfigured)
}

func TestRequestOTP_SendFailureKeepsToken(t *testing.T) {
	store := storage.NewMemoryStore()
	mailer := &captureMailer{fail: true}
	svc := NewOTPService(store, mailer, false)

	err := svc.RequestOTP("resident@society.test")
	expectKind(t, err, apperr.KindEmailSendFailed)

	// The token was persisted before the send, so a later resend or
	// out-of-band delivery can still use it
	if _, err := store.GetLatestLiveOTP("resident@society.test", time.Now()); err != nil {
		t.Fatalf("expected a live token after failed send: %v", err)
	}
}

func TestVerifyOTP_HappyPathCreatesUser(t *testing.T) {
	store := storage.NewMemoryStore()
	mailer := &captureMailer{}
	svc := NewOTPService(store, mailer, false)

	if err := svc.RequestOTP("resident@society.test"); err != nil {
		t.Fatal(err)
	}

	user, err := svc.VerifyOTP("resident@society.test", mailer.lastCode(t))
	if err != nil {
		t.Fatalf("verifying OTP: %v", err)
	}
	if user.Email != "resident@society.test" {
		t.Fatalf("unexpected user email %q", user.Email)
	}
	if user.UserID == "" {
		t.Fatal("expected a user ID to be assigned")
	}
}

func TestVerifyOTP_WrongThenRight(t *testing.T) {
	store := storage.NewMemoryStore()
	mailer := &captureMailer{}
	svc := NewOTPService(store, mailer, false)

	if err := svc.RequestOTP("resident@society.test"); err != nil {
		t.Fatal(err)
	}
	code := mailer.lastCode(t)

	_, err := svc.VerifyOTP("resident@society.test", wrongCodeFor(code))
	expectKind(t, err, apperr.KindInvalidOrExpired)

	token, err := store.GetLatestLiveOTP("resident@society.test", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if token.Attempts != 1 {
		t.Fatalf("expected 1 failed attempt recorded, got %d", token.Attempts)
	}

	if _, err := svc.VerifyOTP("resident@society.test", code); err != nil {
		t.Fatalf("correct code after one miss: %v", err)
	}
}

func TestVerifyOTP_ConsumeOnce(t *testing.T) {
	store := storage.NewMemoryStore()
	mailer := &captureMailer{}
	svc := NewOTPService(store, mailer, false)

	if err := svc.RequestOTP("resident@society.test"); err != nil {
		t.Fatal(err)
	}
	code := mailer.lastCode(t)

	if _, err := svc.VerifyOTP("resident@society.test", code); err != nil {
		t.Fatal(err)
	}

	// Replaying the same code must fail
	_, err := svc.VerifyOTP("resident@society.test", code)
	expectKind(t, err, apperr.KindInvalidOrExpired)
}

func TestVerifyOTP_AttemptCeiling(t *testing.T) {
	store := storage.NewMemoryStore()
	mailer := &captureMailer{}
	svc := NewOTPService(store, mailer, false)

	if err := svc.RequestOTP("resident@society.test"); err != nil {
		t.Fatal(err)
	}
	code := mailer.lastCode(t)
	bad := wrongCodeFor(code)

	for i := 0; i < 5; i++ {
		_, err := svc.VerifyOTP("resident@society.test", bad)
		expectKind(t, err, apperr.KindInvalidOrExpired)
	}

	// Even the correct code is refused once the ceiling is hit
	_, err := svc.VerifyOTP("resident@society.test", code)
	expectKind(t, err, apperr.KindTooManyAttempts)
}

func TestVerifyOTP_NoTokenIssued(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, &captureMailer{}, false)

	_, err := svc.VerifyOTP("resident@society.test", "123456")
	expectKind(t, err, apperr.KindInvalidOrExpired)
}

func TestVerifyOTP_LatestTokenWins(t *testing.T) {
	store := storage.NewMemoryStore()
	mailer := &captureMailer{}
	svc := NewOTPService(store, mailer, false)

	if err := svc.RequestOTP("resident@society.test"); err != nil {
		t.Fatal(err)
	}
	first := mailer.lastCode(t)

	if err := svc.RequestOTP("resident@society.test"); err != nil {
		t.Fatal(err)
	}
	second := mailer.lastCode(t)

	if first == second {
		t.Skip("codes collided, cannot distinguish tokens")
	}

	// Verification checks against the most recent issuance
	if _, err := svc.VerifyOTP("resident@society.test", second); err != nil {
		t.Fatalf("latest code rejected: %v", err)
	}
}
