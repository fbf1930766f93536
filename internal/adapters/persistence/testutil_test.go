// Package persistence_test contains integration tests for the gorm
// repositories against in-memory SQLite.
//
// Every test database is built by db.Open, which applies db.GetSchemaSQL(),
// so the entities are always checked against the authoritative schema.
// Do not create tables in test files; use setupTestDB and the seed* helpers.
package persistence_test

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/example/mes/internal/adapters/persistence"
	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/config"
	"github.com/example/mes/internal/db"
	"github.com/example/mes/internal/ports/secondary"
)

var baseTime = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}, db.Options{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close(gdb)
	})
	return gdb
}

// seedUser inserts a user and returns its ID.
func seedUser(t *testing.T, gdb *gorm.DB, email, name, role string) int64 {
	t.Helper()
	user := &secondary.UserRecord{
		Email:        email,
		Name:         name,
		PasswordHash: "hash",
		Role:         role,
		Active:       true,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
	if err := persistence.NewUserRepository(gdb).Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user.ID
}

// seedWorkOrder inserts a PENDING work order created at createdAt and
// returns it.
func seedWorkOrder(t *testing.T, gdb *gorm.DB, orderNumber string, assignee int64, createdAt time.Time) *secondary.WorkOrderRecord {
	t.Helper()
	wo := &secondary.WorkOrderRecord{
		OrderNumber:  orderNumber,
		ProductName:  "Bolt",
		ProductCode:  "B-1",
		Quantity:     100,
		DueDate:      baseTime.AddDate(0, 0, 7),
		Priority:     "MEDIUM",
		Status:       "PENDING",
		AssignedToID: assignee,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := persistence.NewWorkOrderRepository(gdb).Create(context.Background(), wo); err != nil {
		t.Fatalf("failed to seed work order: %v", err)
	}
	return wo
}

// seedIssue inserts an OPEN issue and returns it.
func seedIssue(t *testing.T, gdb *gorm.DB, workOrderID, reporterID int64, priority string) *secondary.IssueRecord {
	t.Helper()
	issue := &secondary.IssueRecord{
		WorkOrderID: workOrderID,
		Title:       "Jam",
		Description: "Feeder jammed",
		Priority:    priority,
		Status:      "OPEN",
		ReporterID:  reporterID,
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
	if err := persistence.NewIssueRepository(gdb).Create(context.Background(), issue); err != nil {
		t.Fatalf("failed to seed issue: %v", err)
	}
	return issue
}

// seedWorkLog inserts a work log entry and returns its ID.
func seedWorkLog(t *testing.T, gdb *gorm.DB, workOrderID, workerID int64, action string, at time.Time) int64 {
	t.Helper()
	entry := &secondary.WorkLogRecord{
		WorkOrderID: workOrderID,
		WorkerID:    workerID,
		Action:      action,
		CreatedAt:   at,
	}
	if err := persistence.NewWorkLogRepository(gdb).Create(context.Background(), entry); err != nil {
		t.Fatalf("failed to seed work log: %v", err)
	}
	return entry.ID
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !apperr.Is(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}
