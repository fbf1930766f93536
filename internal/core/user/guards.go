// Package user contains the pure business logic for user accounts.
package user

import (
	"net/mail"
	"strings"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/models"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// DefaultRole is assigned when a new account names no role.
const DefaultRole = models.RoleWorker

// RoleChangeContext provides context for a role change guard.
type RoleChangeContext struct {
	CallerID    int64
	CallerRole  models.Role
	TargetID    int64
	CurrentRole models.Role
	NewRole     models.Role
}

// CanChangeRole evaluates whether caller may set the target's role.
// Rules:
// - Setting the current role again is a no-op
// - Only admins change roles
// - An admin may not demote themselves
func CanChangeRole(ctx RoleChangeContext) error {
	if ctx.NewRole == ctx.CurrentRole {
		return nil
	}
	if ctx.CallerRole != models.RoleAdmin {
		return apperr.ForbiddenResource("User", "Access denied: only administrators may change roles")
	}
	if ctx.CallerID == ctx.TargetID {
		return apperr.InvalidState("Administrators cannot change their own role")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail requires a parseable address.
func ValidateEmail(email string) error {
	if email == "" {
		return apperr.Validation("Email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Validation("Email must be a valid address")
	}
	return nil
}

// ValidatePassword enforces MinPasswordLength.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperr.Validation("Password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// CreateInput is the subset of a create request validated here.
type CreateInput struct {
	Email    string
	Name     string
	Password string
	Role     models.Role
}

// ValidateCreate checks field-level rules for a new account.
func ValidateCreate(in CreateInput) error {
	fields := map[string]string{}
	if err := ValidateEmail(in.Email); err != nil {
		fields["email"] = err.Error()
	}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "Name is required"
	}
	if err := ValidatePassword(in.Password); err != nil {
		fields["password"] = err.Error()
	}
	if in.Role != "" && !in.Role.Valid() {
		fields["role"] = "Role must be one of ADMIN, MANAGER, WORKER"
	}
	if len(fields) > 0 {
		return apperr.ValidationFields(fields)
	}
	return nil
}
