// Package worklog contains the pure rules for append-only work log entries.
package worklog

import (
	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/models"
)

// MaxNotesLength bounds the free-text notes on one entry.
const MaxNotesLength = 2000

// CreateInput is the subset of a create request validated here.
type CreateInput struct {
	WorkOrderID int64
	Action      models.LogAction
	Notes       string
	Progress    *int
}

// ValidateCreate checks field-level rules for a new entry.
func ValidateCreate(in CreateInput) error {
	fields := map[string]string{}
	if in.WorkOrderID <= 0 {
		fields["workOrderId"] = "Work order is required"
	}
	if !in.Action.Valid() {
		fields["action"] = "Action is required and must be a known log action"
	}
	if len(in.Notes) > MaxNotesLength {
		fields["notes"] = "Notes are too long"
	}
	if in.Progress != nil && (*in.Progress < 0 || *in.Progress > 100) {
		fields["progress"] = "Progress must be between 0 and 100"
	}
	if len(fields) > 0 {
		return apperr.ValidationFields(fields)
	}
	return nil
}
