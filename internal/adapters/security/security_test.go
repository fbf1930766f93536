package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/mes/internal/ports/secondary"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("admin123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "admin123" || !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("expected a bcrypt hash, got %q", hash)
	}
	if err := h.Compare(hash, "admin123"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := h.Compare(hash, "admin124"); err == nil {
		t.Error("expected mismatch")
	}
}

func TestNewBcryptHasher_DefaultCost(t *testing.T) {
	if NewBcryptHasher(0).cost != bcrypt.DefaultCost {
		t.Error("expected default cost")
	}
}

var subject = secondary.TokenSubject{UserID: 7, Email: "worker@mes.com", Name: "Worker", Role: "WORKER"}

func newTestIssuer(now time.Time) *JWTIssuer {
	j := NewJWTIssuer("test-secret", "mes", time.Hour, 24*time.Hour)
	j.now = func() time.Time { return now }
	return j
}

func TestJWTIssuer_AccessRoundTrip(t *testing.T) {
	now := time.Now()
	j := newTestIssuer(now)

	issued, err := j.IssueAccess(subject)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if issued.ID == "" || !issued.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("unexpected metadata %+v", issued)
	}

	got, err := j.ParseAccess(issued.Token)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if got != subject {
		t.Errorf("expected %+v, got %+v", subject, got)
	}
}

func TestJWTIssuer_RefreshRoundTrip(t *testing.T) {
	j := newTestIssuer(time.Now())

	issued, err := j.IssueRefresh(subject)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}
	got, jti, err := j.ParseRefresh(issued.Token)
	if err != nil {
		t.Fatalf("ParseRefresh failed: %v", err)
	}
	if got.UserID != subject.UserID || jti != issued.ID {
		t.Errorf("unexpected subject %+v jti %q", got, jti)
	}
}

func TestJWTIssuer_RejectsWrongType(t *testing.T) {
	j := newTestIssuer(time.Now())
	access, _ := j.IssueAccess(subject)
	refresh, _ := j.IssueRefresh(subject)

	if _, _, err := j.ParseRefresh(access.Token); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("access token accepted as refresh: %v", err)
	}
	if _, err := j.ParseAccess(refresh.Token); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("refresh token accepted as access: %v", err)
	}
}

func TestJWTIssuer_RejectsInvalidTokens(t *testing.T) {
	now := time.Now()
	j := newTestIssuer(now)
	valid, _ := j.IssueAccess(subject)

	expired, _ := newTestIssuer(now.Add(-2 * time.Hour)).IssueAccess(subject)
	otherSecret, _ := NewJWTIssuer("other-secret", "mes", time.Hour, time.Hour).IssueAccess(subject)
	otherIssuer, _ := NewJWTIssuer("test-secret", "someone-else", time.Hour, time.Hour).IssueAccess(subject)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID: 7, Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "mes", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign HS512 token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"tampered", valid.Token[:len(valid.Token)-2] + "xx"},
		{"expired", expired.Token},
		{"other secret", otherSecret.Token},
		{"other issuer", otherIssuer.Token},
		{"unexpected algorithm", hs512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := j.ParseAccess(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
