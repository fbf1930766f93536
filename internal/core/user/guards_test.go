package user

import (
	"testing"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/models"
)

func TestCanChangeRole(t *testing.T) {
	tests := []struct {
		name     string
		ctx      RoleChangeContext
		wantErr  bool
		wantKind apperr.Kind
	}{
		{
			name: "admin promotes another user",
			ctx: RoleChangeContext{CallerID: 1, CallerRole: models.RoleAdmin, TargetID: 3,
				CurrentRole: models.RoleWorker, NewRole: models.RoleManager},
		},
		{
			name: "unchanged role is a no-op for a worker",
			ctx: RoleChangeContext{CallerID: 3, CallerRole: models.RoleWorker, TargetID: 3,
				CurrentRole: models.RoleWorker, NewRole: models.RoleWorker},
		},
		{
			name: "worker cannot promote self",
			ctx: RoleChangeContext{CallerID: 3, CallerRole: models.RoleWorker, TargetID: 3,
				CurrentRole: models.RoleWorker, NewRole: models.RoleAdmin},
			wantErr:  true,
			wantKind: apperr.KindForbidden,
		},
		{
			name: "manager cannot change own role",
			ctx: RoleChangeContext{CallerID: 2, CallerRole: models.RoleManager, TargetID: 2,
				CurrentRole: models.RoleManager, NewRole: models.RoleAdmin},
			wantErr:  true,
			wantKind: apperr.KindForbidden,
		},
		{
			name: "admin cannot demote self",
			ctx: RoleChangeContext{CallerID: 1, CallerRole: models.RoleAdmin, TargetID: 1,
				CurrentRole: models.RoleAdmin, NewRole: models.RoleWorker},
			wantErr:  true,
			wantKind: apperr.KindInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanChangeRole(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && apperr.KindOf(err) != tt.wantKind {
				t.Errorf("kind = %v, want %v", apperr.KindOf(err), tt.wantKind)
			}
		})
	}
}

func TestValidateCreate(t *testing.T) {
	valid := CreateInput{Email: "ops@mes.com", Name: "Ops", Password: "secret1"}
	if err := ValidateCreate(valid); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	err := ValidateCreate(CreateInput{Email: "not-an-email", Password: "123", Role: "OWNER"})
	e, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected apperr, got %v", err)
	}
	for _, field := range []string{"email", "name", "password", "role"} {
		if _, ok := e.Fields[field]; !ok {
			t.Errorf("missing field error for %s", field)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Admin@MES.com "); got != "admin@mes.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
