package primary

import (
	"context"
	"time"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/core/optional"
	"github.com/example/mes/internal/models"
)

// UserService defines the primary port for account management.
type UserService interface {
	// CreateUser creates an active account. Requires OpUserCreate.
	CreateUser(ctx context.Context, c authz.Capability, req CreateUserRequest) (*User, error)

	// GetUser retrieves an account. Requires OpUserRead.
	GetUser(ctx context.Context, c authz.Capability, id int64) (*User, error)

	// ListUsers lists every account. Requires OpUserList.
	ListUsers(ctx context.Context, c authz.Capability) ([]*User, error)

	// UpdateUser applies a partial update in a single write. Requires OpUserUpdate.
	UpdateUser(ctx context.Context, c authz.Capability, id int64, req UpdateUserRequest) (*User, error)

	// ChangePassword replaces the caller's own password after verifying the
	// current one. Requires OpUserUpdate.
	ChangePassword(ctx context.Context, c authz.Capability, req ChangePasswordRequest) error

	// SetActive activates or deactivates an account. Requires OpUserActivate.
	SetActive(ctx context.Context, c authz.Capability, id int64, active bool) (*User, error)

	// DeleteUser removes an account. Requires OpUserDelete.
	DeleteUser(ctx context.Context, c authz.Capability, id int64) error
}

// CreateUserRequest contains parameters for creating an account.
type CreateUserRequest struct {
	Email    string
	Name     string
	Password string
	Role     models.Role // empty means WORKER
}

// UpdateUserRequest contains a partial update. Only Set fields are written.
type UpdateUserRequest struct {
	Name     optional.Value[string]
	Role     optional.Value[models.Role]
	Active   optional.Value[bool]
	Password optional.Value[string]
}

// ChangePasswordRequest contains the current and the new password.
type ChangePasswordRequest struct {
	CurrentPassword string
	NewPassword     string
}

// User represents an account at the port boundary. The password hash never
// crosses this boundary.
type User struct {
	ID        int64
	Email     string
	Name      string
	Role      models.Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
