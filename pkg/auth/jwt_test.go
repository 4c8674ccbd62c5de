package auth

import (
	"errors"
	"testing"
	"time"

	appErr "truco-service/pkg/errors"
)

func TestSeatTokenRoundTrip(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	token, err := s.GenerateSeatToken("p-1", "ABCD")
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	claims, err := s.ParseSeatToken(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.PlayerID != "p-1" || claims.RoomCode != "ABCD" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestSeatTokenWrongSecret(t *testing.T) {
	token, err := NewSigner("secret", time.Hour).GenerateSeatToken("p-1", "ABCD")
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if _, err := NewSigner("other", time.Hour).ParseSeatToken(token); !errors.Is(err, appErr.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSeatTokenExpired(t *testing.T) {
	s := NewSigner("secret", time.Minute)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	token, err := s.GenerateSeatToken("p-1", "ABCD")
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := s.ParseSeatToken(token); !errors.Is(err, appErr.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
