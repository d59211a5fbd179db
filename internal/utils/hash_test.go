package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestHashCode_RoundTrip(t *testing.T) {
	hash, err := HashCode("482913")
	if err != nil {
		t.Fatalf("hashing code: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("expected PHC-format hash, got %q", hash)
	}

	match, err := VerifyCode("482913", hash)
	if err != nil {
		t.Fatalf("verifying code: %v", err)
	}
	if !match {
		t.Fatal("correct code did not match its own hash")
	}

	match, err = VerifyCode("482914", hash)
	if err != nil {
		t.Fatal(err)
	}
	if match {
		t.Fatal("wrong code matched the hash")
	}
}

func TestHashCode_SaltedPerIssue(t *testing.T) {
	first, err := HashCode("000000")
	if err != nil {
		t.Fatal(err)
	}
	second, err := HashCode("000000")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("two hashes of the same code should differ by salt")
	}
}

func TestVerifyCode_MalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=32768,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=32768,t=2,p=1$not-base64!$aGFzaA",
	} {
		_, err := VerifyCode("123456", encoded)
		if !errors.Is(err, ErrInvalidHashFormat) {
			t.Fatalf("expected ErrInvalidHashFormat for %q, got %v", encoded, err)
		}
	}
}
