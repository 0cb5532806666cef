package auth

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned by stores that distinguish a missing token from other failures.
var ErrSessionNotFound = errors.New("session not found")

// Store maps session tokens to session records.
// Implementations must be safe for concurrent use; the Manager
// serializes validate-and-delete sequences on top of them.
type Store interface {
	Put(ctx context.Context, token string, s *Session) error
	// Get returns found=false with a nil error when the token is unknown.
	Get(ctx context.Context, token string) (*Session, bool, error)
	Delete(ctx context.Context, token string) error
}

// TokenLister is implemented by stores that can enumerate their tokens.
// Sweeping is only possible for stores that implement it.
type TokenLister interface {
	Tokens(ctx context.Context) ([]string, error)
}
