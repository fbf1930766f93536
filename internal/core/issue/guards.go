// Package issue contains the pure business logic for issue operations.
// Guards are pure functions that evaluate preconditions without side effects.
package issue

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/models"
)

// MaxTitleLength bounds issue titles.
const MaxTitleLength = 200

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an invalid-state error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return apperr.InvalidState("%s", r.Reason)
}

// StatusContext provides context for lifecycle guards.
type StatusContext struct {
	IssueID int64
	Status  models.IssueStatus
}

// CanResolve evaluates whether an issue can be resolved.
// Rules:
// - Status must be OPEN or IN_PROGRESS
func CanResolve(ctx StatusContext) GuardResult {
	if ctx.Status != models.IssueOpen && ctx.Status != models.IssueInProgress {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Can only resolve OPEN or IN_PROGRESS issues (issue %d is %s)", ctx.IssueID, ctx.Status),
		}
	}
	return GuardResult{Allowed: true}
}

// CanClose evaluates whether an issue can be closed.
// Rules:
// - Status must be RESOLVED
func CanClose(ctx StatusContext) GuardResult {
	if ctx.Status != models.IssueResolved {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Can only close RESOLVED issues (issue %d is %s)", ctx.IssueID, ctx.Status),
		}
	}
	return GuardResult{Allowed: true}
}

// forward lists the statuses reachable in one step from each status.
var forward = map[models.IssueStatus][]models.IssueStatus{
	models.IssueOpen:       {models.IssueInProgress, models.IssueResolved},
	models.IssueInProgress: {models.IssueResolved},
	models.IssueResolved:   {models.IssueClosed},
}

// ChangeContext provides context for a status change made through update.
type ChangeContext struct {
	IssueID  int64
	From     models.IssueStatus
	To       models.IssueStatus
	Elevated bool
}

// CanChangeStatus evaluates a direct status change.
// Rules:
// - Setting the current status again is a no-op
// - Only forward moves are allowed
// - RESOLVED and CLOSED may only be set by elevated callers
func CanChangeStatus(ctx ChangeContext) error {
	if ctx.From == ctx.To {
		return nil
	}
	if (ctx.To == models.IssueResolved || ctx.To == models.IssueClosed) && !ctx.Elevated {
		return apperr.ForbiddenResource("Issue", "Access denied: only managers may set issue status to %s", ctx.To)
	}
	for _, next := range forward[ctx.From] {
		if next == ctx.To {
			return nil
		}
	}
	return apperr.InvalidState("Cannot change issue %d status from %s to %s", ctx.IssueID, ctx.From, ctx.To)
}

// ResolveResult captures the fields a resolution writes.
type ResolveResult struct {
	NewStatus  models.IssueStatus
	ResolvedAt time.Time
}

// ApplyResolve returns the effects of resolving at now.
func ApplyResolve(now time.Time) ResolveResult {
	return ResolveResult{NewStatus: models.IssueResolved, ResolvedAt: now}
}

// InitialStatus returns the status every new issue starts in.
func InitialStatus() models.IssueStatus {
	return models.IssueOpen
}

// DefaultPriority returns p, or MEDIUM when p is empty.
func DefaultPriority(p models.Priority) models.Priority {
	if p == "" {
		return models.PriorityMedium
	}
	return p
}

// ValidateTitle requires a non-blank title within MaxTitleLength runes.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation("Title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apperr.Validation("Title must not exceed %d characters", MaxTitleLength)
	}
	return nil
}

// ValidateCreate checks field-level rules for a new issue.
func ValidateCreate(workOrderID int64, title, description string, priority models.Priority) error {
	fields := map[string]string{}
	if workOrderID <= 0 {
		fields["workOrderId"] = "Work order is required"
	}
	if err := ValidateTitle(title); err != nil {
		fields["title"] = err.Error()
	}
	if strings.TrimSpace(description) == "" {
		fields["description"] = "Description is required"
	}
	if priority != "" && !priority.Valid() {
		fields["priority"] = "Priority must be one of LOW, MEDIUM, HIGH, URGENT"
	}
	if len(fields) > 0 {
		return apperr.ValidationFields(fields)
	}
	return nil
}
