package app

import (
	"context"
	"testing"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/core/optional"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/ports/secondary"
)

func newTestIssueService() (*IssueServiceImpl, *mockIssueRepository, *mockWorkOrderRepository, *mockPublisher) {
	issueRepo := newMockIssueRepository()
	workOrderRepo := newMockWorkOrderRepository()
	publisher := &mockPublisher{}
	service := NewIssueService(issueRepo, workOrderRepo, publisher, nil)
	service.now = fixedNow
	return service, issueRepo, workOrderRepo, publisher
}

func seedIssue(repo *mockIssueRepository, status models.IssueStatus, reporter int64) *secondary.IssueRecord {
	return repo.seed(&secondary.IssueRecord{
		WorkOrderID: 1,
		Title:       "Machine jam",
		Description: "Feeder stuck",
		Priority:    string(models.PriorityHigh),
		Status:      string(status),
		ReporterID:  reporter,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	})
}

func TestCreateIssue_Success(t *testing.T) {
	service, _, workOrderRepo, publisher := newTestIssueService()
	wo := seedWorkOrder(workOrderRepo, models.WorkOrderInProgress, testWorker.UserID)

	issue, err := service.CreateIssue(context.Background(), capFor(testWorker, authz.OpIssueCreate), primary.CreateIssueRequest{
		WorkOrderID: wo.ID,
		Title:       "  Machine jam ",
		Description: "Feeder stuck on line 2",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if issue.Status != models.IssueOpen {
		t.Errorf("expected OPEN, got %s", issue.Status)
	}
	if issue.Priority != models.PriorityMedium {
		t.Errorf("expected default MEDIUM priority, got %s", issue.Priority)
	}
	if issue.ReporterID != testWorker.UserID {
		t.Errorf("expected reporter %d, got %d", testWorker.UserID, issue.ReporterID)
	}
	if issue.Title != "Machine jam" {
		t.Errorf("expected trimmed title, got %q", issue.Title)
	}
	if got := publisher.types(); len(got) != 1 || got[0] != secondary.EventIssueCreated {
		t.Errorf("expected created event, got %v", got)
	}
}

func TestCreateIssue_UnknownWorkOrder(t *testing.T) {
	service, _, _, _ := newTestIssueService()

	_, err := service.CreateIssue(context.Background(), capFor(testWorker, authz.OpIssueCreate), primary.CreateIssueRequest{
		WorkOrderID: 99,
		Title:       "Jam",
		Description: "Stuck",
	})
	assertKind(t, err, apperr.KindNotFound)
}

func TestCreateIssue_Validation(t *testing.T) {
	service, _, workOrderRepo, _ := newTestIssueService()
	wo := seedWorkOrder(workOrderRepo, models.WorkOrderPending, 0)

	_, err := service.CreateIssue(context.Background(), capFor(testWorker, authz.OpIssueCreate), primary.CreateIssueRequest{
		WorkOrderID: wo.ID,
		Title:       "",
		Priority:    "CRITICAL",
	})
	assertKind(t, err, apperr.KindValidation)
}

func TestGetIssue_Ownership(t *testing.T) {
	service, repo, _, _ := newTestIssueService()
	ctx := context.Background()
	issue := seedIssue(repo, models.IssueOpen, testWorker.UserID)

	if _, err := service.GetIssue(ctx, capFor(testWorker, authz.OpIssueRead), issue.ID); err != nil {
		t.Fatalf("reporter should read own issue, got %v", err)
	}
	_, err := service.GetIssue(ctx, capFor(testOther, authz.OpIssueRead), issue.ID)
	assertKind(t, err, apperr.KindForbidden)

	_, err = service.GetIssue(ctx, capFor(testOther, authz.OpIssueRead), 404)
	assertKind(t, err, apperr.KindNotFound)
}

func TestListIssues_WorkerSeesOwnReports(t *testing.T) {
	service, repo, _, _ := newTestIssueService()
	ctx := context.Background()
	seedIssue(repo, models.IssueOpen, testWorker.UserID)
	seedIssue(repo, models.IssueOpen, testOther.UserID)

	issues, err := service.ListIssues(ctx, capFor(testWorker, authz.OpIssueRead), primary.IssueFilters{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(issues) != 1 {
		t.Errorf("expected 1 issue, got %d", len(issues))
	}

	all, err := service.ListIssues(ctx, capFor(testManager, authz.OpIssueRead), primary.IssueFilters{Status: models.IssueOpen})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 issues, got %d", len(all))
	}
}

func TestUpdateIssue_FieldsAndNulls(t *testing.T) {
	service, repo, _, _ := newTestIssueService()
	issue := seedIssue(repo, models.IssueOpen, testWorker.UserID)
	repo.issues[issue.ID].Type = "MECHANICAL"

	updated, err := service.UpdateIssue(context.Background(), capFor(testWorker, authz.OpIssueUpdate), issue.ID, primary.UpdateIssueRequest{
		Title:    optional.Of("Feeder jam"),
		Priority: optional.Of(models.PriorityUrgent),
		Type:     optional.Null[string](),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Title != "Feeder jam" || updated.Priority != models.PriorityUrgent {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if updated.Type != "" {
		t.Errorf("null should clear type, got %q", updated.Type)
	}
	if updated.Description != "Feeder stuck" {
		t.Errorf("unset description changed: %q", updated.Description)
	}
}

func TestUpdateIssue_StatusTransitions(t *testing.T) {
	tests := []struct {
		name     string
		caller   authz.Caller
		from     models.IssueStatus
		to       models.IssueStatus
		wantKind  apperr.Kind
		wantOK    bool
		wantEvent string
	}{
		{"worker starts own issue", testWorker, models.IssueOpen, models.IssueInProgress, 0, true, ""},
		{"worker cannot resolve", testWorker, models.IssueInProgress, models.IssueResolved, apperr.KindForbidden, false, ""},
		{"manager resolves", testManager, models.IssueOpen, models.IssueResolved, 0, true, secondary.EventIssueResolved},
		{"manager cannot reopen", testManager, models.IssueResolved, models.IssueOpen, apperr.KindInvalidState, false, ""},
		{"manager closes resolved", testManager, models.IssueResolved, models.IssueClosed, 0, true, secondary.EventIssueClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _, publisher := newTestIssueService()
			issue := seedIssue(repo, tt.from, testWorker.UserID)

			updated, err := service.UpdateIssue(context.Background(), capFor(tt.caller, authz.OpIssueUpdate), issue.ID, primary.UpdateIssueRequest{
				Status: optional.Of(tt.to),
			})
			if !tt.wantOK {
				assertKind(t, err, tt.wantKind)
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if updated.Status != tt.to {
				t.Errorf("expected %s, got %s", tt.to, updated.Status)
			}
			if tt.to == models.IssueResolved && updated.ResolvedAt == nil {
				t.Error("expected resolvedAt to be set")
			}

			types := publisher.types()
			if tt.wantEvent == "" {
				if len(types) != 0 {
					t.Errorf("expected no events, got %v", types)
				}
				return
			}
			if len(types) != 1 || types[0] != tt.wantEvent {
				t.Errorf("expected [%s], got %v", tt.wantEvent, types)
			}
		})
	}
}

func TestUpdateIssue_StaleVersion(t *testing.T) {
	service, repo, _, _ := newTestIssueService()
	issue := seedIssue(repo, models.IssueOpen, testWorker.UserID)
	repo.issues[issue.ID].Version = 3

	_, err := service.UpdateIssue(context.Background(), capFor(testManager, authz.OpIssueUpdate), issue.ID, primary.UpdateIssueRequest{
		Title:   optional.Of("x"),
		Version: optional.Of(int64(2)),
	})
	assertKind(t, err, apperr.KindConflict)
}

func TestResolveIssue(t *testing.T) {
	service, repo, _, publisher := newTestIssueService()
	ctx := context.Background()
	issue := seedIssue(repo, models.IssueInProgress, testWorker.UserID)
	c := capFor(testManager, authz.OpIssueResolve)

	resolved, err := service.ResolveIssue(ctx, c, issue.ID, "Replaced feeder belt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resolved.Status != models.IssueResolved {
		t.Errorf("expected RESOLVED, got %s", resolved.Status)
	}
	if resolved.Resolution != "Replaced feeder belt" {
		t.Errorf("expected resolution stored, got %q", resolved.Resolution)
	}
	if resolved.ResolvedAt == nil || !resolved.ResolvedAt.Equal(testNow) {
		t.Errorf("expected resolvedAt %v, got %v", testNow, resolved.ResolvedAt)
	}
	if got := publisher.types(); len(got) != 1 || got[0] != secondary.EventIssueResolved {
		t.Errorf("expected resolved event, got %v", got)
	}

	_, err = service.ResolveIssue(ctx, c, issue.ID, "")
	assertKind(t, err, apperr.KindInvalidState)
}

func TestResolveIssue_WorkerNotAllowed(t *testing.T) {
	_, err := authz.Authorize(testWorker, authz.OpIssueResolve)
	assertKind(t, err, apperr.KindForbidden)
}

func TestCloseIssue(t *testing.T) {
	service, repo, _, _ := newTestIssueService()
	ctx := context.Background()
	open := seedIssue(repo, models.IssueOpen, testWorker.UserID)
	resolved := seedIssue(repo, models.IssueResolved, testWorker.UserID)
	c := capFor(testManager, authz.OpIssueResolve)

	_, err := service.CloseIssue(ctx, c, open.ID)
	assertKind(t, err, apperr.KindInvalidState)

	closed, err := service.CloseIssue(ctx, c, resolved.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if closed.Status != models.IssueClosed {
		t.Errorf("expected CLOSED, got %s", closed.Status)
	}
}

func TestDeleteIssue(t *testing.T) {
	service, repo, _, _ := newTestIssueService()
	ctx := context.Background()
	issue := seedIssue(repo, models.IssueOpen, testWorker.UserID)

	if err := service.DeleteIssue(ctx, capFor(testAdmin, authz.OpIssueDelete), issue.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := repo.issues[issue.ID]; ok {
		t.Error("expected issue to be deleted")
	}

	err := service.DeleteIssue(ctx, capFor(testAdmin, authz.OpIssueDelete), issue.ID)
	assertKind(t, err, apperr.KindNotFound)
}
