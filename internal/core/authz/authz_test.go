package authz

import (
	"testing"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/models"
)

var (
	admin   = Caller{UserID: 1, Role: models.RoleAdmin}
	manager = Caller{UserID: 2, Role: models.RoleManager}
	worker  = Caller{UserID: 3, Role: models.RoleWorker}
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name      string
		caller    Caller
		op        Operation
		wantErr   apperr.Kind
		wantScope Scope
	}{
		{"admin deletes work order", admin, OpWorkOrderDelete, 0, ScopeAll},
		{"manager cannot delete work order", manager, OpWorkOrderDelete, apperr.KindForbidden, 0},
		{"manager creates work order", manager, OpWorkOrderCreate, 0, ScopeAll},
		{"worker cannot create work order", worker, OpWorkOrderCreate, apperr.KindForbidden, 0},
		{"worker reads own work orders", worker, OpWorkOrderRead, 0, ScopeOwned},
		{"worker executes own work orders", worker, OpWorkOrderExecute, 0, ScopeOwned},
		{"worker cannot resolve issue", worker, OpIssueResolve, apperr.KindForbidden, 0},
		{"manager resolves issue", manager, OpIssueResolve, 0, ScopeAll},
		{"worker creates issue", worker, OpIssueCreate, 0, ScopeAll},
		{"worker cannot list users", worker, OpUserList, apperr.KindForbidden, 0},
		{"manager updates own profile only", manager, OpUserUpdate, 0, ScopeOwned},
		{"admin updates any profile", admin, OpUserUpdate, 0, ScopeAll},
		{"manager cannot create user", manager, OpUserCreate, apperr.KindForbidden, 0},
		{"worker cannot read dashboard", worker, OpDashboardRead, apperr.KindForbidden, 0},
		{"anonymous caller", Caller{}, OpWorkOrderRead, apperr.KindUnauthenticated, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capability, err := Authorize(tt.caller, tt.op)
			if tt.wantErr != 0 {
				if err == nil {
					t.Fatalf("expected %v error, got nil", tt.wantErr)
				}
				if apperr.KindOf(err) != tt.wantErr {
					t.Errorf("kind = %v, want %v", apperr.KindOf(err), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if capability.Scope() != tt.wantScope {
				t.Errorf("Scope = %v, want %v", capability.Scope(), tt.wantScope)
			}
		})
	}
}

func TestCheckOwner(t *testing.T) {
	workerCap := MustAuthorize(worker, OpWorkOrderRead)
	managerCap := MustAuthorize(manager, OpWorkOrderRead)

	if err := workerCap.CheckOwner("WorkOrder", worker.UserID); err != nil {
		t.Errorf("worker should access own resource: %v", err)
	}
	err := workerCap.CheckOwner("WorkOrder", 99)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("worker on foreign resource: got %v, want forbidden", err)
	}
	if !apperr.Is(workerCap.CheckOwner("WorkOrder", 0), apperr.KindForbidden) {
		t.Error("worker on unowned resource should be forbidden")
	}
	if err := managerCap.CheckOwner("WorkOrder", 99); err != nil {
		t.Errorf("manager should access any resource: %v", err)
	}
}

func TestPermits(t *testing.T) {
	c := MustAuthorize(admin, OpIssueRead)
	if err := c.Permits(OpIssueRead); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !apperr.Is(c.Permits(OpIssueDelete), apperr.KindForbidden) {
		t.Error("capability must not be reusable for another operation")
	}
	var zero Capability
	if !apperr.Is(zero.Permits(OpIssueRead), apperr.KindUnauthenticated) {
		t.Error("zero capability must be rejected")
	}
}

func TestOwnerFilter(t *testing.T) {
	if got := MustAuthorize(worker, OpWorkLogRead).OwnerFilter(); got != worker.UserID {
		t.Errorf("worker filter = %d, want %d", got, worker.UserID)
	}
	if got := MustAuthorize(manager, OpWorkLogRead).OwnerFilter(); got != 0 {
		t.Errorf("manager filter = %d, want 0", got)
	}
}
