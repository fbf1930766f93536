package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/mes/internal/ports/secondary"
)

// Token types carried in the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims are the JWT claims of both token types.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// JWTIssuer implements secondary.TokenIssuer with HS256-signed tokens.
type JWTIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTIssuer creates an issuer signing with secret.
func NewJWTIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

var _ secondary.TokenIssuer = (*JWTIssuer)(nil)

func (j *JWTIssuer) IssueAccess(subject secondary.TokenSubject) (secondary.IssuedToken, error) {
	return j.issue(subject, TokenTypeAccess, j.accessTTL)
}

func (j *JWTIssuer) IssueRefresh(subject secondary.TokenSubject) (secondary.IssuedToken, error) {
	return j.issue(subject, TokenTypeRefresh, j.refreshTTL)
}

func (j *JWTIssuer) ParseAccess(token string) (secondary.TokenSubject, error) {
	claims, err := j.parse(token, TokenTypeAccess)
	if err != nil {
		return secondary.TokenSubject{}, err
	}
	return subjectOf(claims), nil
}

func (j *JWTIssuer) ParseRefresh(token string) (secondary.TokenSubject, string, error) {
	claims, err := j.parse(token, TokenTypeRefresh)
	if err != nil {
		return secondary.TokenSubject{}, "", err
	}
	return subjectOf(claims), claims.ID, nil
}

func (j *JWTIssuer) issue(subject secondary.TokenSubject, typ string, ttl time.Duration) (secondary.IssuedToken, error) {
	now := j.now()
	expiresAt := now.Add(ttl)
	jti := uuid.New().String()

	claims := Claims{
		UserID: subject.UserID,
		Email:  subject.Email,
		Name:   subject.Name,
		Role:   subject.Role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subject.UserID, 10),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return secondary.IssuedToken{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return secondary.IssuedToken{Token: signed, ID: jti, ExpiresAt: expiresAt}, nil
}

func (j *JWTIssuer) parse(token, typ string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return j.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	if claims.Type != typ {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func subjectOf(c *Claims) secondary.TokenSubject {
	return secondary.TokenSubject{
		UserID: c.UserID,
		Email:  c.Email,
		Name:   c.Name,
		Role:   c.Role,
	}
}
