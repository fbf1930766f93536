package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/core/authz"
	coreuser "github.com/example/mes/internal/core/user"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/ports/secondary"
)

// TokenType is the scheme clients send access tokens with.
const TokenType = "Bearer"

// AuthServiceImpl implements the AuthService interface.
type AuthServiceImpl struct {
	userRepo secondary.UserRepository
	hasher   secondary.PasswordHasher
	issuer   secondary.TokenIssuer
	store    secondary.RefreshTokenStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService with injected dependencies.
func NewAuthService(
	userRepo secondary.UserRepository,
	hasher secondary.PasswordHasher,
	issuer secondary.TokenIssuer,
	store secondary.RefreshTokenStore,
	logger *zap.Logger,
) *AuthServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthServiceImpl{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// Login verifies credentials and issues a token pair. Unknown email and
// wrong password produce the same error.
func (s *AuthServiceImpl) Login(ctx context.Context, req primary.LoginRequest) (*primary.AuthTokens, error) {
	email := coreuser.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperr.Unauthenticated("Invalid email or password")
	}

	record, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthenticated("Invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := s.hasher.Compare(record.PasswordHash, req.Password); err != nil {
		return nil, apperr.Unauthenticated("Invalid email or password")
	}
	if !record.Active {
		return nil, apperr.Unauthenticated("Account is disabled")
	}

	return s.issuePair(ctx, record)
}

// Refresh redeems a refresh token for a new pair. Each refresh token is
// accepted once.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*primary.AuthTokens, error) {
	subject, jti, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperr.Unauthenticated("Invalid refresh token")
	}

	userID, err := s.store.Consume(ctx, jti)
	if err != nil {
		if errors.Is(err, secondary.ErrTokenNotFound) {
			return nil, apperr.Unauthenticated("Refresh token has expired or was already used")
		}
		return nil, fmt.Errorf("failed to redeem refresh token: %w", err)
	}
	if userID != subject.UserID {
		return nil, apperr.Unauthenticated("Invalid refresh token")
	}

	record, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthenticated("Invalid refresh token")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !record.Active {
		return nil, apperr.Unauthenticated("Account is disabled")
	}

	return s.issuePair(ctx, record)
}

// Logout revokes a refresh token. Invalid tokens are ignored.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) {
	_, jti, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return
	}
	if err := s.store.Revoke(ctx, jti); err != nil {
		s.logger.Warn("failed to revoke refresh token", zap.String("jti", jti), zap.Error(err))
	}
}

// Authenticate resolves an access token to the caller it was issued to.
// The account must still exist and be active; its stored role wins over the
// role embedded in the token.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, accessToken string) (authz.Caller, error) {
	subject, err := s.issuer.ParseAccess(accessToken)
	if err != nil {
		return authz.Caller{}, apperr.Unauthenticated("Invalid or expired token")
	}

	record, err := s.userRepo.GetByID(ctx, subject.UserID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return authz.Caller{}, apperr.Unauthenticated("Invalid or expired token")
		}
		return authz.Caller{}, fmt.Errorf("failed to load user: %w", err)
	}
	if !record.Active {
		return authz.Caller{}, apperr.Unauthenticated("Account is disabled")
	}
	role := models.Role(record.Role)
	if !role.Valid() {
		return authz.Caller{}, apperr.Unauthenticated("Invalid or expired token")
	}
	return authz.Caller{
		UserID: record.ID,
		Email:  record.Email,
		Name:   record.Name,
		Role:   role,
	}, nil
}

func (s *AuthServiceImpl) issuePair(ctx context.Context, record *secondary.UserRecord) (*primary.AuthTokens, error) {
	subject := secondary.TokenSubject{
		UserID: record.ID,
		Email:  record.Email,
		Name:   record.Name,
		Role:   record.Role,
	}
	access, err := s.issuer.IssueAccess(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefresh(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	now := s.now()
	if err := s.store.Save(ctx, refresh.ID, record.ID, refresh.ExpiresAt.Sub(now)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &primary.AuthTokens{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		TokenType:    TokenType,
		ExpiresIn:    int64(access.ExpiresAt.Sub(now).Seconds()),
		User:         recordToUser(record),
	}, nil
}
