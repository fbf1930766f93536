// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
)

// UserAdapter is a thin adapter that translates CLI operations to UserService calls.
// CLI operations act as the system administrator.
type UserAdapter struct {
	service primary.UserService
	out     io.Writer
}

// NewUserAdapter creates a new UserAdapter with the given service.
func NewUserAdapter(service primary.UserService, out io.Writer) *UserAdapter {
	return &UserAdapter{
		service: service,
		out:     out,
	}
}

// Create creates a new account.
func (a *UserAdapter) Create(ctx context.Context, email, name, password, role string) error {
	user, err := a.service.CreateUser(ctx, authz.MustAuthorize(authz.System(), authz.OpUserCreate), primary.CreateUserRequest{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     models.Role(strings.ToUpper(role)),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Created user %d: %s (%s)\n", user.ID, user.Email, user.Role)
	return nil
}

// List lists every account.
func (a *UserAdapter) List(ctx context.Context) error {
	users, err := a.service.ListUsers(ctx, authz.MustAuthorize(authz.System(), authz.OpUserList))
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Fprintln(a.out, "No users found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-6s %-30s %-8s %-7s %s\n", "ID", "EMAIL", "ROLE", "ACTIVE", "NAME")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, u := range users {
		active := "yes"
		if !u.Active {
			active = "no"
		}
		fmt.Fprintf(a.out, "%-6d %-30s %-8s %-7s %s\n", u.ID, u.Email, u.Role, active, u.Name)
	}
	fmt.Fprintln(a.out)

	return nil
}

// SetActive activates or deactivates an account.
func (a *UserAdapter) SetActive(ctx context.Context, id int64, active bool) error {
	user, err := a.service.SetActive(ctx, authz.MustAuthorize(authz.System(), authz.OpUserActivate), id, active)
	if err != nil {
		return err
	}

	state := "activated"
	if !user.Active {
		state = "deactivated"
	}
	fmt.Fprintf(a.out, "✓ User %d %s\n", user.ID, state)
	return nil
}
