package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskgrove/backend/internal/streamer"
)

func TestGenerateAndValidateToken(t *testing.T) {
	s := NewAuthService("test-secret", time.Hour)

	token, err := s.GenerateToken("u1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID() != "u1" {
		t.Errorf("UserID = %q, want %q", claims.UserID(), "u1")
	}
	if claims.ChannelID != "" {
		t.Errorf("ChannelID = %q, want empty for bearer token", claims.ChannelID)
	}
	if claims.ID == "" {
		t.Error("expected a credential id")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	s := NewAuthService("secret-a", time.Hour)
	token, err := s.GenerateToken("u1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := NewAuthService("secret-b", time.Hour)
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	s := NewAuthService("test-secret", -time.Minute)
	token, err := s.GenerateToken("u1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := s.ValidateToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestStreamCredentialBinding(t *testing.T) {
	s := NewAuthService("test-secret", time.Hour)

	token, err := s.GenerateStreamToken("u1", "conn-1")
	if err != nil {
		t.Fatalf("GenerateStreamToken: %v", err)
	}

	userID, err := s.Validate(context.Background(), "conn-1", token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if userID != "u1" {
		t.Errorf("userID = %q, want %q", userID, "u1")
	}

	// The same token on a different connection must be rejected.
	if _, err := s.Validate(context.Background(), "conn-2", token); !errors.Is(err, streamer.ErrValidation) {
		t.Errorf("Validate on wrong connection = %v, want %v", err, streamer.ErrValidation)
	}
}

func TestValidateUnboundBearerToken(t *testing.T) {
	s := NewAuthService("test-secret", time.Hour)
	token, err := s.GenerateToken("u1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	// A plain bearer token carries no channel binding and is accepted
	// on any connection.
	userID, err := s.Validate(context.Background(), "any-conn", token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if userID != "u1" {
		t.Errorf("userID = %q, want %q", userID, "u1")
	}
}

func TestValidateGarbage(t *testing.T) {
	s := NewAuthService("test-secret", time.Hour)
	if _, err := s.Validate(context.Background(), "conn-1", "not a jwt"); !errors.Is(err, streamer.ErrValidation) {
		t.Errorf("Validate = %v, want %v", err, streamer.ErrValidation)
	}
}

func TestCredentialSuffix(t *testing.T) {
	claims := &Claims{}
	claims.ID = "0123456789abcdef"
	if got := claims.CredentialSuffix(); got != "89abcdef" {
		t.Errorf("CredentialSuffix = %q, want %q", got, "89abcdef")
	}

	claims.ID = "short"
	if got := claims.CredentialSuffix(); got != "short" {
		t.Errorf("CredentialSuffix = %q, want %q", got, "short")
	}
}
