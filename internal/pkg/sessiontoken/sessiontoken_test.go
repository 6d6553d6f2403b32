package sessiontoken

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestSignParse_RoundTrip(t *testing.T) {
	userID := uuid.NewString()

	token, err := Sign("secret", userID)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Parse("secret", token)
	if err != nil {
		t.Fatal(err)
	}
	if got != userID {
		t.Errorf("parsed user id = %q, want %q", got, userID)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := Sign("secret-a", uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Parse("secret-b", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	if _, err := Parse("secret", "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
