package domain

import (
	"fmt"
	"time"
)

type TimeEntryState string

const (
	TimeEntryDraft     TimeEntryState = "Draft"
	TimeEntryPending   TimeEntryState = "Pending"
	TimeEntryConcurred TimeEntryState = "Concurred"
	TimeEntryReturned  TimeEntryState = "Returned"
	TimeEntryRejected  TimeEntryState = "Rejected"
)

// TimeEntryStates lists every time entry state.
var TimeEntryStates = []TimeEntryState{
	TimeEntryDraft, TimeEntryPending, TimeEntryConcurred, TimeEntryReturned, TimeEntryRejected,
}

// timeEntryTransitions is the complete approval graph. Concurred and
// Rejected have no outgoing edges.
var timeEntryTransitions = map[TimeEntryState][]TimeEntryState{
	TimeEntryDraft:     {TimeEntryPending},
	TimeEntryPending:   {TimeEntryConcurred, TimeEntryReturned, TimeEntryRejected},
	TimeEntryReturned:  {TimeEntryPending},
	TimeEntryConcurred: {},
	TimeEntryRejected:  {},
}

// AllowedNextStates returns the states reachable in one step from s.
func AllowedNextStates(s TimeEntryState) []TimeEntryState {
	next := timeEntryTransitions[s]
	out := make([]TimeEntryState, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from → to is an edge of the approval graph.
func CanTransition(from, to TimeEntryState) bool {
	for _, s := range timeEntryTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type TimeEntry struct {
	TimeEntryID       TimeEntryID    `json:"timeEntryId"`
	TenantID          TenantID       `json:"tenantId"`
	UserID            UserID         `json:"userId"`
	TaskNodeID        *TaskNodeID    `json:"taskNodeId"`
	ContractID        *ContractID    `json:"contractId"`
	WorkDate          string         `json:"workDate"`
	NetMinutes        int            `json:"netMinutes"`
	Notes             string         `json:"notes,omitempty"`
	State             TimeEntryState `json:"state"`
	SubmittedUtc      *time.Time     `json:"submittedUtc"`
	ConcurredByUserID *UserID        `json:"concurredByUserId"`
	ConcurredUtc      *time.Time     `json:"concurredUtc"`
	LockedUtc         *time.Time     `json:"lockedUtc"`
	ReviewedByUserID  *UserID        `json:"reviewedByUserId"`
	ReviewedUtc       *time.Time     `json:"reviewedUtc"`
	ReturnReason      string         `json:"returnReason,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// IsLocked reports whether the entry has been concurred and must no longer
// be edited.
func (e *TimeEntry) IsLocked() bool { return e.LockedUtc != nil }

// Chargeable reports whether the entry counts toward charged hours.
func (e *TimeEntry) Chargeable() bool {
	return e.State == TimeEntryConcurred || e.State == TimeEntryPending
}

// Hours returns NetMinutes expressed in hours.
func (e *TimeEntry) Hours() float64 { return float64(e.NetMinutes) / 60 }

// Transition moves the entry to state `to`, stamping the review fields the
// new state requires. reason is kept only for Returned and Rejected.
// The entry is left untouched when the edge is not allowed.
func (e *TimeEntry) Transition(to TimeEntryState, by UserID, reason string, now time.Time) error {
	if !CanTransition(e.State, to) {
		return fmt.Errorf("%w: time entry %s cannot move from %s to %s", ErrInvalidTransition, e.TimeEntryID, e.State, to)
	}
	e.State = to
	switch to {
	case TimeEntryPending:
		e.SubmittedUtc = &now
		e.ReturnReason = ""
	case TimeEntryConcurred:
		e.ConcurredByUserID = &by
		e.ConcurredUtc = &now
		e.LockedUtc = &now
	case TimeEntryReturned, TimeEntryRejected:
		e.ReviewedByUserID = &by
		e.ReviewedUtc = &now
		e.ReturnReason = reason
	}
	return nil
}

// Validate checks the required time entry fields.
func (e *TimeEntry) Validate() error {
	var problems []string
	if e.TenantID == "" {
		problems = append(problems, "tenant ID is required")
	}
	if e.UserID == "" {
		problems = append(problems, "user ID is required")
	}
	if e.NetMinutes < 0 {
		problems = append(problems, fmt.Sprintf("net minutes must be >= 0, got %d", e.NetMinutes))
	}
	if e.WorkDate != "" {
		if _, err := time.Parse(DateLayout, e.WorkDate); err != nil {
			problems = append(problems, fmt.Sprintf("invalid work date %q (expected YYYY-MM-DD)", e.WorkDate))
		}
	}
	return joinProblems(problems)
}

// DateLayout is the calendar date format used by every date-only field.
const DateLayout = "2006-01-02"
