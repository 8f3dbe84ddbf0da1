package auth

import "context"

// Identity is the caller resolved from a bearer token.
type Identity struct {
	UserID  string
	Email   string
	Name    string
	Picture string
}

// Verifier resolves a bearer token to an identity. Implementations return
// ErrInvalidToken for tokens that are malformed, expired or rejected.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
