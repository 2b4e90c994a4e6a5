package store

import (
	"context"
	"fmt"

	"github.com/alexanderramin/delegate/internal/domain"
)

// TimeEntryFilter narrows ListTimeEntries. Zero fields match everything.
// From and To are inclusive YYYY-MM-DD bounds on WorkDate.
type TimeEntryFilter struct {
	TenantID   domain.TenantID
	UserID     domain.UserID
	TaskNodeID domain.TaskNodeID
	State      domain.TimeEntryState
	From       string
	To         string
}

func (f TimeEntryFilter) match(e *domain.TimeEntry) bool {
	switch {
	case f.TenantID != "" && e.TenantID != f.TenantID:
		return false
	case f.UserID != "" && e.UserID != f.UserID:
		return false
	case f.TaskNodeID != "" && (e.TaskNodeID == nil || *e.TaskNodeID != f.TaskNodeID):
		return false
	case f.State != "" && e.State != f.State:
		return false
	case f.From != "" && e.WorkDate < f.From:
		return false
	case f.To != "" && e.WorkDate > f.To:
		return false
	}
	return true
}

func (s *Store) FindTimeEntry(id domain.TimeEntryID) (domain.TimeEntry, bool) {
	var (
		e  domain.TimeEntry
		ok bool
	)
	s.view(func(st *domain.State) { e, ok = timeEntries.find(st, id) })
	return e, ok
}

func (s *Store) GetTimeEntry(id domain.TimeEntryID) (*domain.TimeEntry, error) {
	var (
		e   *domain.TimeEntry
		err error
	)
	s.view(func(st *domain.State) { e, err = timeEntries.get(st, id) })
	return e, err
}

func (s *Store) ListTimeEntries(f TimeEntryFilter) []domain.TimeEntry {
	var out []domain.TimeEntry
	s.view(func(st *domain.State) { out = timeEntries.list(st, f.match) })
	return out
}

func validateTimeEntry(st *domain.State, e *domain.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return invalid(err)
	}
	if !users.exists(st, e.UserID) {
		return invalidf("user %s does not exist", e.UserID)
	}
	if e.TaskNodeID != nil && !taskNodes.exists(st, *e.TaskNodeID) {
		return invalidf("task node %s does not exist", *e.TaskNodeID)
	}
	if e.ContractID != nil && !contracts.exists(st, *e.ContractID) {
		return invalidf("contract %s does not exist", *e.ContractID)
	}
	return nil
}

// CreateTimeEntry always creates a Draft entry, whatever state e carries.
// The tenant defaults to the user's, the contract to the task node's and
// the work date to today.
func (s *Store) CreateTimeEntry(ctx context.Context, e domain.TimeEntry) (domain.TimeEntry, error) {
	err := s.mutate(ctx, "CreateTimeEntry", map[string]any{"user_id": e.UserID}, func(st *domain.State) error {
		return s.insertTimeEntry(st, &e)
	})
	if err != nil {
		return domain.TimeEntry{}, err
	}
	return detach(e), nil
}

func (s *Store) insertTimeEntry(st *domain.State, e *domain.TimeEntry) error {
	e.TimeEntryID = domain.Coalesce(e.TimeEntryID, domain.TimeEntryID(domain.NewID(domain.PrefixTimeEntry)))
	if timeEntries.exists(st, e.TimeEntryID) {
		return invalidf("time entry %s already exists", e.TimeEntryID)
	}
	if u, err := users.ref(st, e.UserID); err == nil {
		e.TenantID = domain.Coalesce(e.TenantID, u.TenantID)
	}
	if e.ContractID == nil && e.TaskNodeID != nil {
		if n, err := taskNodes.ref(st, *e.TaskNodeID); err == nil && n.ContractID != nil {
			e.ContractID = domain.Ptr(*n.ContractID)
		}
	}
	now := s.now()
	e.WorkDate = domain.Coalesce(e.WorkDate, now.Format(domain.DateLayout))
	e.State = domain.TimeEntryDraft
	e.SubmittedUtc, e.ConcurredByUserID, e.ConcurredUtc, e.LockedUtc = nil, nil, nil, nil
	e.ReviewedByUserID, e.ReviewedUtc, e.ReturnReason = nil, nil, ""
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if err := validateTimeEntry(st, e); err != nil {
		return err
	}
	timeEntries.insert(st, *e)
	return nil
}

// UpdateTimeEntry edits an unlocked entry. State changes go through
// TransitionTimeEntry; fn may not alter the state or review stamps.
func (s *Store) UpdateTimeEntry(ctx context.Context, id domain.TimeEntryID, fn func(*domain.TimeEntry) error) (domain.TimeEntry, error) {
	var out domain.TimeEntry
	err := s.mutate(ctx, "UpdateTimeEntry", map[string]any{"time_entry_id": id}, func(st *domain.State) error {
		cur, err := timeEntries.ref(st, id)
		if err != nil {
			return err
		}
		if cur.IsLocked() {
			return fmt.Errorf("time entry %s: %w", id, ErrLocked)
		}
		orig := detach(*cur)
		out, err = timeEntries.update(st, id, fn, func(e *domain.TimeEntry) error {
			if e.State != orig.State {
				return invalidf("time entry state changes must use a transition")
			}
			e.SubmittedUtc, e.ConcurredByUserID, e.ConcurredUtc, e.LockedUtc = orig.SubmittedUtc, orig.ConcurredByUserID, orig.ConcurredUtc, orig.LockedUtc
			e.ReviewedByUserID, e.ReviewedUtc, e.ReturnReason = orig.ReviewedByUserID, orig.ReviewedUtc, orig.ReturnReason
			return validateTimeEntry(st, e)
		})
		return err
	})
	return out, err
}

// DeleteTimeEntry removes an unlocked entry.
func (s *Store) DeleteTimeEntry(ctx context.Context, id domain.TimeEntryID) error {
	return s.mutate(ctx, "DeleteTimeEntry", map[string]any{"time_entry_id": id}, func(st *domain.State) error {
		cur, err := timeEntries.ref(st, id)
		if err != nil {
			return err
		}
		if cur.IsLocked() {
			return fmt.Errorf("time entry %s: %w", id, ErrLocked)
		}
		timeEntries.remove(st, id)
		return nil
	})
}

// TransitionTimeEntry moves the entry along the approval graph, stamping
// the review fields, recording an audit log entry and notifying whoever
// acts next. reason is kept for Returned and Rejected.
func (s *Store) TransitionTimeEntry(ctx context.Context, id domain.TimeEntryID, to domain.TimeEntryState, userID domain.UserID, reason string) (domain.TimeEntry, error) {
	var out domain.TimeEntry
	fields := map[string]any{"time_entry_id": id, "to": to, "user_id": userID}
	err := s.mutate(ctx, "TransitionTimeEntry", fields, func(st *domain.State) error {
		cur, err := timeEntries.ref(st, id)
		if err != nil {
			return err
		}
		from := cur.State
		now := s.now()
		out, err = timeEntries.update(st, id, func(e *domain.TimeEntry) error {
			return e.Transition(to, userID, reason, now)
		}, nil)
		if err != nil {
			return err
		}

		detail := fmt.Sprintf("%s -> %s", from, to)
		if out.ReturnReason != "" {
			detail += ": " + out.ReturnReason
		}
		s.appendAudit(st, out.TenantID, userID, "timeEntry", string(id), "transition", detail)

		link := "time/" + string(id)
		switch to {
		case domain.TimeEntryPending:
			users.each(st, func(u *domain.User) {
				if u.TenantID == out.TenantID && u.UserID != out.UserID &&
					(u.Role == domain.UserApprover || u.Role == domain.UserAdmin) {
					s.notifyUser(st, out.TenantID, u.UserID, "Time entry awaiting review",
						fmt.Sprintf("%d minutes on %s", out.NetMinutes, out.WorkDate), link)
				}
			})
		case domain.TimeEntryConcurred, domain.TimeEntryReturned, domain.TimeEntryRejected:
			if out.UserID != userID {
				s.notifyUser(st, out.TenantID, out.UserID, "Time entry "+string(to), out.ReturnReason, link)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) SubmitTimeEntry(ctx context.Context, id domain.TimeEntryID, userID domain.UserID) (domain.TimeEntry, error) {
	return s.TransitionTimeEntry(ctx, id, domain.TimeEntryPending, userID, "")
}

func (s *Store) ConcurTimeEntry(ctx context.Context, id domain.TimeEntryID, userID domain.UserID) (domain.TimeEntry, error) {
	return s.TransitionTimeEntry(ctx, id, domain.TimeEntryConcurred, userID, "")
}

func (s *Store) ReturnTimeEntry(ctx context.Context, id domain.TimeEntryID, userID domain.UserID, reason string) (domain.TimeEntry, error) {
	return s.TransitionTimeEntry(ctx, id, domain.TimeEntryReturned, userID, reason)
}

func (s *Store) RejectTimeEntry(ctx context.Context, id domain.TimeEntryID, userID domain.UserID, reason string) (domain.TimeEntry, error) {
	return s.TransitionTimeEntry(ctx, id, domain.TimeEntryRejected, userID, reason)
}
