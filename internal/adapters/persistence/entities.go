// Package persistence implements the repository ports with gorm. The same
// entities serve SQLite, whose schema comes from internal/db, and
// PostgreSQL, which is migrated from the entity definitions.
package persistence

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps are set by the caller, never by gorm.

type userEntity struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	Name         string    `gorm:"size:100;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Role         string    `gorm:"size:20;not null"`
	IsActive     bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (userEntity) TableName() string { return "users" }

type workOrderEntity struct {
	ID             int64       `gorm:"primaryKey;autoIncrement"`
	OrderNumber    string      `gorm:"size:50;not null;uniqueIndex"`
	ProductName    string      `gorm:"size:200;not null"`
	ProductCode    string      `gorm:"size:50"`
	Quantity       int         `gorm:"not null"`
	DueDate        time.Time   `gorm:"not null"`
	Priority       string      `gorm:"size:20;not null"`
	Status         string      `gorm:"size:20;not null;index:idx_work_orders_status"`
	Instructions   string      `gorm:"type:text"`
	Progress       int         `gorm:"not null"`
	AssignedToID   *int64      `gorm:"index:idx_work_orders_assigned_to"`
	AssignedTo     *userEntity `gorm:"foreignKey:AssignedToID;constraint:OnDelete:SET NULL"`
	ActualQuantity *int
	Notes          string `gorm:"type:text"`
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime:false;index:idx_work_orders_created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false"`
	Version        int64     `gorm:"not null"`
}

func (workOrderEntity) TableName() string { return "work_orders" }

type issueEntity struct {
	ID           int64            `gorm:"primaryKey;autoIncrement"`
	WorkOrderID  int64            `gorm:"not null;index:idx_issues_work_order"`
	WorkOrder    *workOrderEntity `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
	Title        string           `gorm:"size:200;not null"`
	Description  string           `gorm:"type:text"`
	Priority     string           `gorm:"size:20;not null"`
	Status       string           `gorm:"size:20;not null;index:idx_issues_status"`
	Type         string           `gorm:"size:50"`
	Resolution   string           `gorm:"type:text"`
	ReportedByID int64            `gorm:"not null;index:idx_issues_reported_by"`
	ReportedBy   *userEntity      `gorm:"foreignKey:ReportedByID"`
	CreatedAt    time.Time        `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime:false"`
	ResolvedAt   *time.Time
	Version      int64 `gorm:"not null"`
}

func (issueEntity) TableName() string { return "issues" }

type workLogEntity struct {
	ID          int64            `gorm:"primaryKey;autoIncrement"`
	WorkOrderID int64            `gorm:"not null;index:idx_work_logs_work_order"`
	WorkOrder   *workOrderEntity `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
	WorkerID    int64            `gorm:"not null;index:idx_work_logs_worker"`
	Worker      *userEntity      `gorm:"foreignKey:WorkerID"`
	Action      string           `gorm:"size:30;not null"`
	Notes       string           `gorm:"type:text"`
	Progress    *int
	CreatedAt   time.Time `gorm:"autoCreateTime:false;index:idx_work_logs_created_at"`
}

func (workLogEntity) TableName() string { return "work_logs" }

// AutoMigrate creates or updates the tables from the entity definitions.
// SQLite databases are migrated by internal/db instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userEntity{},
		&workOrderEntity{},
		&issueEntity{},
		&workLogEntity{},
	)
}
