package primary

import (
	"context"

	"github.com/example/mes/internal/core/authz"
)

// AuthService defines the primary port for authentication.
type AuthService interface {
	// Login exchanges credentials for a token pair.
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)

	// Refresh redeems a refresh token, once, for a new token pair.
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)

	// Logout revokes a refresh token. It never fails; problems are logged.
	Logout(ctx context.Context, refreshToken string)

	// Authenticate resolves an access token to an active caller.
	Authenticate(ctx context.Context, accessToken string) (authz.Caller, error)
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Email    string
	Password string
}

// AuthTokens is the result of a successful login or refresh.
type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64 // seconds until the access token expires
	User         *User
}
