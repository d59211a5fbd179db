package services

import (
	"testing"
	"time"

	"github.com/sahyadri-heights/carpool-backend/internal/models"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	sessions := NewSessionService("test-secret", time.Hour)
	user := &models.User{UserID: "USR00001", Email: "resident@society.test", Role: models.RoleUser}

	token, err := sessions.IssueToken(user)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	subject, err := sessions.ParseToken(token)
	if err != nil {
		t.Fatalf("parsing token: %v", err)
	}
	if subject != user.UserID {
		t.Fatalf("expected subject %s, got %s", user.UserID, subject)
	}
}

func TestSessionToken_WrongSecret(t *testing.T) {
	sessions := NewSessionService("test-secret", time.Hour)
	other := NewSessionService("different-secret", time.Hour)
	user := &models.User{UserID: "USR00001"}

	token, err := sessions.IssueToken(user)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("token signed with another secret should be rejected")
	}
}

func TestSessionToken_Expired(t *testing.T) {
	sessions := NewSessionService("test-secret", -time.Minute)
	user := &models.User{UserID: "USR00001"}

	token, err := sessions.IssueToken(user)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sessions.ParseToken(token); err == nil {
		t.Fatal("expired token should be rejected")
	}
}

func TestSessionToken_Garbage(t *testing.T) {
	sessions := NewSessionService("test-secret", time.Hour)
	if _, err := sessions.ParseToken("not.a.jwt"); err == nil {
		t.Fatal("garbage token should be rejected")
	}
}
