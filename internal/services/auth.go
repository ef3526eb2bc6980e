// Package services contains the core business logic for Taskgrove.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskgrove/backend/internal/streamer"
)

// streamTokenDuration bounds how long a connection-bound stream
// credential stays usable. The client requests one right before the
// initialize handshake, so a short window is plenty.
const streamTokenDuration = 2 * time.Minute

// Claims represents the JWT payload for authenticated requests.
// Subject carries the user id and ID the credential id. ChannelID is
// set only on stream tokens, binding the credential to one connection.
type Claims struct {
	ChannelID string `json:"cid,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the authenticated user id.
func (c *Claims) UserID() string { return c.Subject }

// CredentialSuffix returns the trailing 8 characters of the credential
// id. Outgoing updates carry it so clients can recognize and suppress
// echoes of their own changes.
func (c *Claims) CredentialSuffix() string {
	if len(c.ID) <= 8 {
		return c.ID
	}
	return c.ID[len(c.ID)-8:]
}

// AuthService issues and validates JWTs for the request pipeline and
// for the stream initialize handshake. It implements
// streamer.CredentialValidator.
type AuthService struct {
	secret        []byte
	tokenDuration time.Duration
}

// NewAuthService creates an AuthService with the given signing secret
// and bearer token duration.
func NewAuthService(secret string, tokenDuration time.Duration) *AuthService {
	return &AuthService{
		secret:        []byte(secret),
		tokenDuration: tokenDuration,
	}
}

// GenerateToken creates a signed bearer JWT for the given user.
func (s *AuthService) GenerateToken(userID string) (string, error) {
	return s.sign(userID, "", s.tokenDuration)
}

// GenerateStreamToken creates a short-lived JWT bound to one stream
// connection, for use in the initialize handshake.
func (s *AuthService) GenerateStreamToken(userID, connectionID string) (string, error) {
	return s.sign(userID, connectionID, streamTokenDuration)
}

func (s *AuthService) sign(userID, channelID string, duration time.Duration) (string, error) {
	claims := Claims{
		ChannelID: channelID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "taskgrove",
			Subject:   userID,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies the JWT signature and expiry, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// Validate checks the credential presented in an initialize message.
// A token carrying a channel binding must have arrived on that exact
// connection. Returns the authenticated user id.
func (s *AuthService) Validate(_ context.Context, connectionID, token string) (string, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", streamer.ErrValidation, err)
	}
	if claims.ChannelID != "" && claims.ChannelID != connectionID {
		return "", fmt.Errorf("%w: credential bound to another stream", streamer.ErrValidation)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", streamer.ErrValidation)
	}
	return claims.Subject, nil
}
