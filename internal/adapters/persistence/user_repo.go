package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/ports/secondary"
)

// UserRepository implements secondary.UserRepository with gorm.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new gorm user repository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ secondary.UserRepository = (*UserRepository)(nil)

// Create persists a new user. A taken email returns a duplicate error.
func (r *UserRepository) Create(ctx context.Context, user *secondary.UserRecord) error {
	now := time.Now()
	stamp(&user.CreatedAt, now)
	stamp(&user.UpdatedAt, now)

	e := userToEntity(user)
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Duplicate("Email already exists: %s", user.Email)
		}
		return translateWriteError(err, "create", "User")
	}
	user.ID = e.ID
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*secondary.UserRecord, error) {
	var e userEntity
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return userFromEntity(&e), nil
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*secondary.UserRecord, error) {
	var e userEntity
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundBy("User", "email", email)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return userFromEntity(&e), nil
}

// List retrieves every user ordered by ID.
func (r *UserRepository) List(ctx context.Context) ([]*secondary.UserRecord, error) {
	var entities []userEntity
	if err := r.db.WithContext(ctx).Order("id").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	records := make([]*secondary.UserRecord, 0, len(entities))
	for i := range entities {
		records = append(records, userFromEntity(&entities[i]))
	}
	return records, nil
}

// Update writes the non-nil changes and updated_at in one statement.
func (r *UserRepository) Update(ctx context.Context, id int64, changes secondary.UserChanges) error {
	columns := map[string]any{"updated_at": utc(changes.UpdatedAt)}
	if changes.Name != nil {
		columns["name"] = *changes.Name
	}
	if changes.Role != nil {
		columns["role"] = *changes.Role
	}
	if changes.Active != nil {
		columns["is_active"] = *changes.Active
	}
	if changes.PasswordHash != nil {
		columns["password_hash"] = *changes.PasswordHash
	}

	result := r.db.WithContext(ctx).Model(&userEntity{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return translateWriteError(result.Error, "update", "User")
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("User", id)
	}
	return nil
}

// Delete removes a user. Users referenced by issues or work logs cannot be
// deleted and return a conflict error.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&userEntity{}, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return apperr.Conflict("User %d still has issues or work logs", id)
		}
		return translateWriteError(result.Error, "delete", "User")
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("User", id)
	}
	return nil
}

// ExistsByEmail reports whether an email is taken.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&userEntity{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// Exists reports whether a user exists.
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&userEntity{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return count > 0, nil
}
