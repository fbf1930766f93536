// Package authz evaluates role and ownership rules for every operation.
//
// A handler calls Authorize once with the authenticated Caller. The returned
// Capability is the only way to reach a service method; services use it to
// apply ownership checks to the resource they load.
package authz

import (
	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/models"
)

// Caller is the authenticated principal behind a request.
type Caller struct {
	UserID int64
	Email  string
	Name   string
	Role   models.Role
}

// IsAdmin reports whether the caller is an administrator.
func (c Caller) IsAdmin() bool { return c.Role == models.RoleAdmin }

// IsElevated reports whether the caller is an administrator or a manager.
func (c Caller) IsElevated() bool {
	return c.Role == models.RoleAdmin || c.Role == models.RoleManager
}

// System is the caller used by the CLI and the seeder.
func System() Caller {
	return Caller{UserID: 0, Email: "system@mes.local", Name: "system", Role: models.RoleAdmin}
}

// Operation names one guarded use case.
type Operation string

const (
	OpUserCreate   Operation = "user.create"
	OpUserList     Operation = "user.list"
	OpUserRead     Operation = "user.read"
	OpUserUpdate   Operation = "user.update"
	OpUserDelete   Operation = "user.delete"
	OpUserActivate Operation = "user.activate"

	OpWorkOrderCreate  Operation = "workorder.create"
	OpWorkOrderRead    Operation = "workorder.read"
	OpWorkOrderUpdate  Operation = "workorder.update"
	OpWorkOrderDelete  Operation = "workorder.delete"
	OpWorkOrderExecute Operation = "workorder.execute"

	OpIssueCreate  Operation = "issue.create"
	OpIssueRead    Operation = "issue.read"
	OpIssueUpdate  Operation = "issue.update"
	OpIssueResolve Operation = "issue.resolve"
	OpIssueDelete  Operation = "issue.delete"

	OpWorkLogCreate Operation = "worklog.create"
	OpWorkLogRead   Operation = "worklog.read"

	OpDashboardRead Operation = "dashboard.read"
)

// Scope is the breadth of a granted capability.
type Scope int

const (
	// ScopeOwned limits the capability to resources owned by the caller.
	ScopeOwned Scope = iota + 1
	// ScopeAll grants the capability over every resource.
	ScopeAll
)

type policy struct {
	full  []models.Role
	owned bool // roles outside full still get ScopeOwned
}

var (
	adminOnly   = policy{full: []models.Role{models.RoleAdmin}}
	elevated    = policy{full: []models.Role{models.RoleAdmin, models.RoleManager}}
	ownedOrElev = policy{full: []models.Role{models.RoleAdmin, models.RoleManager}, owned: true}
	ownedOrAdm  = policy{full: []models.Role{models.RoleAdmin}, owned: true}
	anyone      = policy{full: []models.Role{models.RoleAdmin, models.RoleManager, models.RoleWorker}}
)

var policies = map[Operation]policy{
	OpUserCreate:   adminOnly,
	OpUserList:     elevated,
	OpUserRead:     ownedOrElev,
	OpUserUpdate:   ownedOrAdm,
	OpUserDelete:   adminOnly,
	OpUserActivate: adminOnly,

	OpWorkOrderCreate:  elevated,
	OpWorkOrderRead:    ownedOrElev,
	OpWorkOrderUpdate:  elevated,
	OpWorkOrderDelete:  adminOnly,
	OpWorkOrderExecute: ownedOrElev,

	OpIssueCreate:  anyone,
	OpIssueRead:    ownedOrElev,
	OpIssueUpdate:  ownedOrElev,
	OpIssueResolve: elevated,
	OpIssueDelete:  adminOnly,

	OpWorkLogCreate: anyone,
	OpWorkLogRead:   ownedOrElev,

	OpDashboardRead: elevated,
}

// Capability is proof that a caller passed the role check for one operation.
// The zero value grants nothing.
type Capability struct {
	op     Operation
	caller Caller
	scope  Scope
}

// Authorize evaluates the role predicate of op for caller.
func Authorize(caller Caller, op Operation) (Capability, error) {
	if !caller.Role.Valid() {
		return Capability{}, apperr.Unauthenticated("Authentication required")
	}
	p, ok := policies[op]
	if !ok {
		return Capability{}, apperr.Forbidden("Access denied: unknown operation %s", op)
	}
	for _, r := range p.full {
		if caller.Role == r {
			return Capability{op: op, caller: caller, scope: ScopeAll}, nil
		}
	}
	if p.owned {
		return Capability{op: op, caller: caller, scope: ScopeOwned}, nil
	}
	return Capability{}, apperr.Forbidden("Access denied: %s is not permitted for role %s", op, caller.Role)
}

// MustAuthorize is Authorize for callers that are known to pass, such as System.
func MustAuthorize(caller Caller, op Operation) Capability {
	c, err := Authorize(caller, op)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Capability) Caller() Caller       { return c.caller }
func (c Capability) Operation() Operation { return c.op }
func (c Capability) Scope() Scope         { return c.scope }

// All reports whether the capability covers every resource.
func (c Capability) All() bool { return c.scope == ScopeAll }

// Permits fails unless c was granted for op.
func (c Capability) Permits(op Operation) error {
	if c.scope == 0 {
		return apperr.Unauthenticated("Authentication required")
	}
	if c.op != op {
		return apperr.Forbidden("Access denied: capability for %s cannot be used for %s", c.op, op)
	}
	return nil
}

// CheckOwner fails when the capability is owner-scoped and ownerID is not
// the caller. An ownerID of 0 means the resource has no owner.
func (c Capability) CheckOwner(resource string, ownerID int64) error {
	if c.scope == ScopeAll {
		return nil
	}
	if c.scope == ScopeOwned && ownerID != 0 && ownerID == c.caller.UserID {
		return nil
	}
	return apperr.ForbiddenResource(resource, "Access denied to %s", resource)
}

// OwnerFilter returns the owner id list queries must be restricted to,
// or 0 when the capability covers every resource.
func (c Capability) OwnerFilter() int64 {
	if c.scope == ScopeAll {
		return 0
	}
	return c.caller.UserID
}
