// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"
)

// WorkOrderRepository defines the secondary port for work order persistence.
type WorkOrderRepository interface {
	// Create persists a new work order and sets its ID and Version.
	Create(ctx context.Context, wo *WorkOrderRecord) error

	// GetByID retrieves a work order by its ID.
	GetByID(ctx context.Context, id int64) (*WorkOrderRecord, error)

	// List retrieves work orders matching the given filters, newest first.
	List(ctx context.Context, filters WorkOrderFilters) ([]*WorkOrderRecord, error)

	// Update writes every mutable field of wo if its Version still matches
	// the stored one, then increments wo.Version.
	Update(ctx context.Context, wo *WorkOrderRecord) error

	// Delete removes a work order together with its logs and issues.
	Delete(ctx context.Context, id int64) error

	// ExistsByOrderNumber reports whether an order number is taken.
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// Exists reports whether a work order exists.
	Exists(ctx context.Context, id int64) (bool, error)
}

// WorkOrderRecord represents a work order as stored in persistence.
type WorkOrderRecord struct {
	ID             int64
	OrderNumber    string
	ProductName    string
	ProductCode    string
	Quantity       int
	DueDate        time.Time
	Priority       string
	Status         string
	Instructions   string
	Progress       int
	AssignedToID   int64  // 0 means unassigned
	AssignedToName string // read-only, joined from users
	ActualQuantity *int
	Notes          string
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
}

// WorkOrderFilters contains filter options for querying work orders.
type WorkOrderFilters struct {
	Status       string
	AssignedToID int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
}

// IssueRepository defines the secondary port for issue persistence.
type IssueRepository interface {
	// Create persists a new issue and sets its ID and Version.
	Create(ctx context.Context, issue *IssueRecord) error

	// GetByID retrieves an issue by its ID.
	GetByID(ctx context.Context, id int64) (*IssueRecord, error)

	// List retrieves issues matching the given filters, newest first.
	List(ctx context.Context, filters IssueFilters) ([]*IssueRecord, error)

	// Update is a compare-and-swap on Version, like WorkOrderRepository.Update.
	Update(ctx context.Context, issue *IssueRecord) error

	// Delete removes an issue.
	Delete(ctx context.Context, id int64) error
}

// IssueRecord represents an issue as stored in persistence.
type IssueRecord struct {
	ID              int64
	WorkOrderID     int64
	WorkOrderNumber string // read-only, joined from work_orders
	Title           string
	Description     string
	Priority        string
	Status          string
	Type            string
	Resolution      string
	ReporterID      int64
	ReporterName    string // read-only, joined from users
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
	Version         int64
}

// IssueFilters contains filter options for querying issues.
type IssueFilters struct {
	WorkOrderID int64
	Status      string
	Priority    string
	Type        string
	ReporterID  int64
	Limit       int
}

// WorkLogRepository defines the secondary port for work log persistence.
// Work logs are append-only: there is no update or delete.
type WorkLogRepository interface {
	// Create persists a new entry and sets its ID.
	Create(ctx context.Context, log *WorkLogRecord) error

	// GetByID retrieves an entry by its ID.
	GetByID(ctx context.Context, id int64) (*WorkLogRecord, error)

	// List retrieves entries matching the given filters, newest first.
	List(ctx context.Context, filters WorkLogFilters) ([]*WorkLogRecord, error)
}

// WorkLogRecord represents a work log entry as stored in persistence.
type WorkLogRecord struct {
	ID              int64
	WorkOrderID     int64
	WorkOrderNumber string // read-only
	WorkerID        int64
	WorkerName      string // read-only
	Action          string
	Notes           string
	Progress        *int
	CreatedAt       time.Time
}

// WorkLogFilters contains filter options for querying work logs.
type WorkLogFilters struct {
	WorkOrderID int64
	WorkerID    int64
	Action      string
	From        *time.Time
	To          *time.Time
	Limit       int
}

// UserRepository defines the secondary port for user persistence.
type UserRepository interface {
	// Create persists a new user and sets its ID.
	Create(ctx context.Context, user *UserRecord) error

	// GetByID retrieves a user by its ID.
	GetByID(ctx context.Context, id int64) (*UserRecord, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*UserRecord, error)

	// List retrieves every user ordered by ID.
	List(ctx context.Context) ([]*UserRecord, error)

	// Update applies the changes in one statement.
	Update(ctx context.Context, id int64, changes UserChanges) error

	// Delete removes a user.
	Delete(ctx context.Context, id int64) error

	// ExistsByEmail reports whether an email is taken.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Exists reports whether a user exists.
	Exists(ctx context.Context, id int64) (bool, error)
}

// UserRecord represents a user as stored in persistence.
type UserRecord struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserChanges lists the columns a user update writes. Nil fields are left
// untouched.
type UserChanges struct {
	Name         *string
	Role         *string
	Active       *bool
	PasswordHash *string
	UpdatedAt    time.Time
}
