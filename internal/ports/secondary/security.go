package secondary

import (
	"context"
	"time"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}

// TokenSubject is the identity embedded in issued tokens.
type TokenSubject struct {
	UserID int64
	Email  string
	Name   string
	Role   string
}

// IssuedToken is a signed token and its metadata.
type IssuedToken struct {
	Token     string
	ID        string // jti
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer interface {
	IssueAccess(subject TokenSubject) (IssuedToken, error)
	IssueRefresh(subject TokenSubject) (IssuedToken, error)
	// ParseAccess verifies an access token and returns its subject.
	ParseAccess(token string) (TokenSubject, error)
	// ParseRefresh verifies a refresh token and returns its subject and jti.
	ParseRefresh(token string) (TokenSubject, string, error)
}

// RefreshTokenStore tracks refresh tokens that are still redeemable.
type RefreshTokenStore interface {
	// Save records jti for userID until ttl elapses.
	Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error
	// Consume removes jti and returns its user. A missing or expired jti
	// returns ErrTokenNotFound.
	Consume(ctx context.Context, jti string) (int64, error)
	// Revoke removes jti if present.
	Revoke(ctx context.Context, jti string) error
}
