package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/laibajaved880/team-chat/internal/store"
)

var (
	// ErrInvalidUsername is returned when the username is empty after
	// trimming or exceeds the length limit.
	ErrInvalidUsername = errors.New("invalid username")
)

const maxUsernameLen = 50

// Service provides lightweight named-session authentication: a username is
// accepted as-is (no passwords), ensured in the user store and bound to a
// signed session token.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// Login accepts a claimed username, creates the user on first sight and
// returns the canonical (trimmed) username with a session token.
func (s *Service) Login(ctx context.Context, username string) (string, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLen {
		return "", "", ErrInvalidUsername
	}

	if _, err := s.store.EnsureUser(ctx, username); err != nil {
		return "", "", fmt.Errorf("ensure user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, username)
	if err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	return username, token, nil
}

// ValidateToken validates a session token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
