// Package models holds the closed enumerations shared by the MES domain.
// Every enum is a string type so values round-trip unchanged through the
// database and the JSON API.
package models

import (
	"fmt"
	"strings"
)

// Role is the authorization role of a user.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleWorker  Role = "WORKER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleWorker:
		return true
	}
	return false
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return r, nil
}

// Priority is shared by work orders and issues.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Priorities lists every priority in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ParsePriority parses a priority name case-insensitively.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority: %s", s)
	}
	return p, nil
}

// WorkOrderStatus is the lifecycle state of a work order.
// PENDING -> IN_PROGRESS -> COMPLETED
type WorkOrderStatus string

const (
	WorkOrderPending    WorkOrderStatus = "PENDING"
	WorkOrderInProgress WorkOrderStatus = "IN_PROGRESS"
	WorkOrderCompleted  WorkOrderStatus = "COMPLETED"
)

// WorkOrderStatuses lists every work order status in lifecycle order.
var WorkOrderStatuses = []WorkOrderStatus{WorkOrderPending, WorkOrderInProgress, WorkOrderCompleted}

func (s WorkOrderStatus) Valid() bool {
	switch s {
	case WorkOrderPending, WorkOrderInProgress, WorkOrderCompleted:
		return true
	}
	return false
}

// ParseWorkOrderStatus parses a work order status case-insensitively.
func ParseWorkOrderStatus(s string) (WorkOrderStatus, error) {
	st := WorkOrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid work order status: %s", s)
	}
	return st, nil
}

// IssueStatus is the lifecycle state of an issue.
// OPEN -> IN_PROGRESS -> RESOLVED -> CLOSED (OPEN may skip straight to RESOLVED)
type IssueStatus string

const (
	IssueOpen       IssueStatus = "OPEN"
	IssueInProgress IssueStatus = "IN_PROGRESS"
	IssueResolved   IssueStatus = "RESOLVED"
	IssueClosed     IssueStatus = "CLOSED"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case IssueOpen, IssueInProgress, IssueResolved, IssueClosed:
		return true
	}
	return false
}

// ParseIssueStatus parses an issue status case-insensitively.
func ParseIssueStatus(s string) (IssueStatus, error) {
	st := IssueStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid issue status: %s", s)
	}
	return st, nil
}

// LogAction classifies a work log entry. Shop-floor clients post CREATE,
// UPDATE, START, PAUSE, RESUME, COMPLETE and CANCEL; PROGRESS_UPDATE, NOTE and
// ISSUE_REPORTED are accepted alongside them.
type LogAction string

const (
	ActionCreate         LogAction = "CREATE"
	ActionUpdate         LogAction = "UPDATE"
	ActionStart          LogAction = "START"
	ActionPause          LogAction = "PAUSE"
	ActionResume         LogAction = "RESUME"
	ActionProgressUpdate LogAction = "PROGRESS_UPDATE"
	ActionComplete       LogAction = "COMPLETE"
	ActionCancel         LogAction = "CANCEL"
	ActionNote           LogAction = "NOTE"
	ActionIssueReported  LogAction = "ISSUE_REPORTED"
)

func (a LogAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionStart, ActionPause, ActionResume,
		ActionComplete, ActionCancel, ActionProgressUpdate, ActionNote, ActionIssueReported:
		return true
	}
	return false
}

// ParseLogAction parses a log action case-insensitively.
func ParseLogAction(s string) (LogAction, error) {
	a := LogAction(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("invalid log action: %s", s)
	}
	return a, nil
}
