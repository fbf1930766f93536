package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/core/authz"
	coreuser "github.com/example/mes/internal/core/user"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/ports/secondary"
)

const (
	minNameLength = 2
	maxNameLength = 100
)

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	userRepo secondary.UserRepository
	hasher   secondary.PasswordHasher
	now      func() time.Time
}

// NewUserService creates a new UserService with injected dependencies.
func NewUserService(userRepo secondary.UserRepository, hasher secondary.PasswordHasher) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo: userRepo,
		hasher:   hasher,
		now:      time.Now,
	}
}

// CreateUser registers an account. Email is stored lowercased and must be
// unique.
func (s *UserServiceImpl) CreateUser(ctx context.Context, c authz.Capability, req primary.CreateUserRequest) (*primary.User, error) {
	if err := c.Permits(authz.OpUserCreate); err != nil {
		return nil, err
	}
	email := coreuser.NormalizeEmail(req.Email)
	if err := coreuser.ValidateCreate(coreuser.CreateInput{
		Email:    email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	}); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, apperr.Duplicate("Email already exists: %s", email)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = coreuser.DefaultRole
	}
	now := s.now()
	record := &secondary.UserRecord{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         string(role),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return recordToUser(record), nil
}

// GetUser retrieves an account. Workers may only read their own.
func (s *UserServiceImpl) GetUser(ctx context.Context, c authz.Capability, id int64) (*primary.User, error) {
	if err := c.Permits(authz.OpUserRead); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	return recordToUser(record), nil
}

// ListUsers lists every account.
func (s *UserServiceImpl) ListUsers(ctx context.Context, c authz.Capability) ([]*primary.User, error) {
	if err := c.Permits(authz.OpUserList); err != nil {
		return nil, err
	}
	records, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*primary.User, len(records))
	for i, r := range records {
		users[i] = recordToUser(r)
	}
	return users, nil
}

// UpdateUser applies the Set fields of req in a single write.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, c authz.Capability, id int64, req primary.UpdateUserRequest) (*primary.User, error) {
	if err := c.Permits(authz.OpUserUpdate); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	caller := c.Caller()

	fields := map[string]string{}
	rejectNull(fields, "name", req.Name.IsNull())
	rejectNull(fields, "role", req.Role.IsNull())
	rejectNull(fields, "isActive", req.Active.IsNull())
	rejectNull(fields, "password", req.Password.IsNull())

	changes := secondary.UserChanges{UpdatedAt: s.now()}
	if v, ok := req.Name.Get(); ok {
		name := strings.TrimSpace(v)
		if len(name) < minNameLength || len(name) > maxNameLength {
			fields["name"] = fmt.Sprintf("Name must be between %d and %d characters", minNameLength, maxNameLength)
		}
		changes.Name = &name
	}
	if v, ok := req.Password.Get(); ok {
		if err := coreuser.ValidatePassword(v); err != nil {
			fields["password"] = err.Error()
		}
	}
	if v, ok := req.Role.Get(); ok && !v.Valid() {
		fields["role"] = "Role must be one of ADMIN, MANAGER, WORKER"
	}
	if len(fields) > 0 {
		return nil, apperr.ValidationFields(fields)
	}

	if v, ok := req.Role.Get(); ok {
		if err := coreuser.CanChangeRole(coreuser.RoleChangeContext{
			CallerID:    caller.UserID,
			CallerRole:  caller.Role,
			TargetID:    id,
			CurrentRole: models.Role(record.Role),
			NewRole:     v,
		}); err != nil {
			return nil, err
		}
		role := string(v)
		changes.Role = &role
	}
	if v, ok := req.Active.Get(); ok && v != record.Active {
		if !caller.IsAdmin() {
			return nil, apperr.ForbiddenResource("User", "Access denied: only administrators may activate or deactivate accounts")
		}
		if !v && caller.UserID == id {
			return nil, apperr.InvalidState("Administrators cannot deactivate their own account")
		}
		changes.Active = &v
	}
	if v, ok := req.Password.Get(); ok {
		hash, err := s.hasher.Hash(v)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		changes.PasswordHash = &hash
	}

	if err := s.userRepo.Update(ctx, id, changes); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	updated, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated user: %w", err)
	}
	return recordToUser(updated), nil
}

// ChangePassword replaces the caller's own password after verifying the
// current one.
func (s *UserServiceImpl) ChangePassword(ctx context.Context, c authz.Capability, req primary.ChangePasswordRequest) error {
	if err := c.Permits(authz.OpUserUpdate); err != nil {
		return err
	}
	id := c.Caller().UserID
	record, err := s.load(ctx, c, id)
	if err != nil {
		return err
	}
	if req.CurrentPassword == "" {
		return apperr.ValidationFields(map[string]string{"currentPassword": "Current password is required"})
	}
	if err := coreuser.ValidatePassword(req.NewPassword); err != nil {
		return apperr.ValidationFields(map[string]string{"newPassword": err.Error()})
	}
	if err := s.hasher.Compare(record.PasswordHash, req.CurrentPassword); err != nil {
		return apperr.Validation("Current password is incorrect")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.Update(ctx, id, secondary.UserChanges{PasswordHash: &hash, UpdatedAt: s.now()}); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// SetActive enables or disables an account.
func (s *UserServiceImpl) SetActive(ctx context.Context, c authz.Capability, id int64, active bool) (*primary.User, error) {
	if err := c.Permits(authz.OpUserActivate); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, c, id); err != nil {
		return nil, err
	}
	if !active && c.Caller().UserID == id {
		return nil, apperr.InvalidState("Administrators cannot deactivate their own account")
	}
	if err := s.userRepo.Update(ctx, id, secondary.UserChanges{Active: &active, UpdatedAt: s.now()}); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	updated, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated user: %w", err)
	}
	return recordToUser(updated), nil
}

// DeleteUser removes an account.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, c authz.Capability, id int64) error {
	if err := c.Permits(authz.OpUserDelete); err != nil {
		return err
	}
	if _, err := s.load(ctx, c, id); err != nil {
		return err
	}
	if c.Caller().UserID == id {
		return apperr.InvalidState("Cannot delete your own account")
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserServiceImpl) load(ctx context.Context, c authz.Capability, id int64) (*secondary.UserRecord, error) {
	record, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.CheckOwner("User", record.ID); err != nil {
		return nil, err
	}
	return record, nil
}

func recordToUser(r *secondary.UserRecord) *primary.User {
	return &primary.User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Role:      models.Role(r.Role),
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
