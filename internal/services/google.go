package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// GoogleVerifier validates a Google ID token and returns the identity
// it asserts. Treated as an opaque external collaborator.
type GoogleVerifier interface {
	Verify(idToken string) (subject, email string, err error)
}

// TokeninfoVerifier verifies ID tokens against Google's tokeninfo
// endpoint.
type TokeninfoVerifier struct {
	clientID string
	baseURL  string
	client   *http.Client
}

// NewTokeninfoVerifier builds a verifier from GOOGLE_CLIENT_ID.
// Returns nil when unset, which disables Google sign-in.
func NewTokeninfoVerifier() *TokeninfoVerifier {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	if clientID == "" {
		return nil
	}
	return &TokeninfoVerifier{
		clientID: clientID,
		baseURL:  "https://oauth2.googleapis.com",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type tokeninfoResponse struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Aud           string `json:"aud"`
}

// Verify checks the ID token and returns the Google subject and email
func (v *TokeninfoVerifier) Verify(idToken string) (string, string, error) {
	resp, err := v.client.Get(v.baseURL + "/tokeninfo?id_token=" + url.QueryEscape(idToken))
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("tokeninfo returned status %d", resp.StatusCode)
	}

	var info tokeninfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", err
	}
	if info.Aud != v.clientID {
		return "", "", fmt.Errorf("token audience mismatch")
	}
	if info.EmailVerified != "true" {
		return "", "", fmt.Errorf("email not verified by Google")
	}
	return info.Sub, info.Email, nil
}
