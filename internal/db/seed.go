package db

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/secondary"
)

// DefaultAccount is a login created by SeedDefaultUsers.
type DefaultAccount struct {
	Email    string
	Name     string
	Password string
	Role     models.Role
}

// DefaultAccounts are the bootstrap logins, one per role.
var DefaultAccounts = []DefaultAccount{
	{Email: "admin@mes.com", Name: "Administrator", Password: "admin123", Role: models.RoleAdmin},
	{Email: "manager@mes.com", Name: "Manager", Password: "manager123", Role: models.RoleManager},
	{Email: "worker@mes.com", Name: "Worker", Password: "worker123", Role: models.RoleWorker},
}

// SeedDefaultUsers creates each of DefaultAccounts whose email is not yet
// taken and returns how many were created.
func SeedDefaultUsers(ctx context.Context, users secondary.UserRepository, hasher secondary.PasswordHasher, out io.Writer) (int, error) {
	if out == nil {
		out = io.Discard
	}

	created := 0
	for _, account := range DefaultAccounts {
		exists, err := users.ExistsByEmail(ctx, account.Email)
		if err != nil {
			return created, fmt.Errorf("seed users: %w", err)
		}
		if exists {
			continue
		}

		hash, err := hasher.Hash(account.Password)
		if err != nil {
			return created, fmt.Errorf("seed users: %w", err)
		}
		now := time.Now()
		record := &secondary.UserRecord{
			Email:        account.Email,
			Name:         account.Name,
			PasswordHash: hash,
			Role:         string(account.Role),
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, record); err != nil {
			return created, fmt.Errorf("seed users: %w", err)
		}
		created++
		fmt.Fprintf(out, "%s user created: %s / %s\n", account.Role, account.Email, account.Password)
	}
	return created, nil
}

// FixtureRepositories are the stores SeedFixtures writes to.
type FixtureRepositories struct {
	Users      secondary.UserRepository
	WorkOrders secondary.WorkOrderRepository
	Issues     secondary.IssueRepository
	WorkLogs   secondary.WorkLogRepository
}

// SeedFixtures populates an empty database with development data: the
// default accounts, a work order in each status, an open issue and the work
// logs of the finished order. It does nothing when work orders already exist.
func SeedFixtures(ctx context.Context, repos FixtureRepositories, hasher secondary.PasswordHasher, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	if _, err := SeedDefaultUsers(ctx, repos.Users, hasher, out); err != nil {
		return err
	}

	existing, err := repos.WorkOrders.List(ctx, secondary.WorkOrderFilters{Limit: 1})
	if err != nil {
		return fmt.Errorf("seed work orders: %w", err)
	}
	if len(existing) > 0 {
		fmt.Fprintln(out, "Work orders already present, skipping fixtures")
		return nil
	}

	worker, err := repos.Users.GetByEmail(ctx, "worker@mes.com")
	if err != nil {
		return fmt.Errorf("seed work orders: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	started := now.Add(-6 * time.Hour)
	completed := now.Add(-time.Hour)
	produced := 480

	orders := []*secondary.WorkOrderRecord{
		{
			OrderNumber: "WO-0001", ProductName: "Hex Bolt M8", ProductCode: "HB-M8",
			Quantity: 500, DueDate: now.AddDate(0, 0, 1), Priority: string(models.PriorityHigh),
			Status: string(models.WorkOrderCompleted), Progress: 100, AssignedToID: worker.ID,
			ActualQuantity: &produced, Notes: "20 units scrapped at inspection",
			StartedAt: &started, CompletedAt: &completed,
		},
		{
			OrderNumber: "WO-0002", ProductName: "Flange Nut M8", ProductCode: "FN-M8",
			Quantity: 1000, DueDate: now.AddDate(0, 0, 3), Priority: string(models.PriorityMedium),
			Status: string(models.WorkOrderInProgress), Progress: 35, AssignedToID: worker.ID,
			Instructions: "Use the torque-checked die set", StartedAt: &started,
		},
		{
			OrderNumber: "WO-0003", ProductName: "Spring Washer", ProductCode: "SW-08",
			Quantity: 2000, DueDate: now.AddDate(0, 0, 7), Priority: string(models.PriorityLow),
			Status: string(models.WorkOrderPending),
		},
	}
	for _, wo := range orders {
		wo.CreatedAt = now.Add(-24 * time.Hour)
		wo.UpdatedAt = now
		if err := repos.WorkOrders.Create(ctx, wo); err != nil {
			return fmt.Errorf("seed work orders: %w", err)
		}
	}
	fmt.Fprintf(out, "Created %d work orders\n", len(orders))

	logs := []*secondary.WorkLogRecord{
		{WorkOrderID: orders[0].ID, WorkerID: worker.ID, Action: string(models.ActionStart), CreatedAt: started},
		{WorkOrderID: orders[0].ID, WorkerID: worker.ID, Action: string(models.ActionComplete), Progress: intPtr(100), CreatedAt: completed},
		{WorkOrderID: orders[1].ID, WorkerID: worker.ID, Action: string(models.ActionStart), CreatedAt: started},
		{WorkOrderID: orders[1].ID, WorkerID: worker.ID, Action: string(models.ActionProgressUpdate), Progress: intPtr(35), CreatedAt: now},
	}
	for _, l := range logs {
		if err := repos.WorkLogs.Create(ctx, l); err != nil {
			return fmt.Errorf("seed work logs: %w", err)
		}
	}

	issue := &secondary.IssueRecord{
		WorkOrderID: orders[1].ID,
		Title:       "Die wear on station 3",
		Description: "Burrs on thread start after roughly 300 pieces",
		Priority:    string(models.PriorityHigh),
		Status:      string(models.IssueOpen),
		Type:        "EQUIPMENT",
		ReporterID:  worker.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repos.Issues.Create(ctx, issue); err != nil {
		return fmt.Errorf("seed issues: %w", err)
	}
	fmt.Fprintf(out, "Created %d work logs and 1 issue\n", len(logs))

	return nil
}

func intPtr(v int) *int { return &v }
