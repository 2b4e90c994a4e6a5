package store

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/delegate/internal/domain"
)

// SessionFilter narrows ListSessions. Zero fields match everything.
type SessionFilter struct {
	TenantID   domain.TenantID
	UserID     domain.UserID
	ActiveOnly bool
}

func (f SessionFilter) match(w *domain.WorkSession) bool {
	return (f.TenantID == "" || w.TenantID == f.TenantID) &&
		(f.UserID == "" || w.UserID == f.UserID) &&
		(!f.ActiveOnly || w.IsActive())
}

func (s *Store) FindSession(id domain.WorkSessionID) (domain.WorkSession, bool) {
	var (
		w  domain.WorkSession
		ok bool
	)
	s.view(func(st *domain.State) { w, ok = workSessions.find(st, id) })
	return w, ok
}

func (s *Store) ListSessions(f SessionFilter) []domain.WorkSession {
	var out []domain.WorkSession
	s.view(func(st *domain.State) { out = workSessions.list(st, f.match) })
	return out
}

// ActiveSession returns the user's Running or Paused session.
func (s *Store) ActiveSession(userID domain.UserID) (domain.WorkSession, bool) {
	active := s.ListSessions(SessionFilter{UserID: userID, ActiveOnly: true})
	if len(active) == 0 {
		return domain.WorkSession{}, false
	}
	return active[0], true
}

// SessionEvents returns the session's audit trail in insertion order.
func (s *Store) SessionEvents(id domain.WorkSessionID) []domain.WorkSessionEvent {
	var out []domain.WorkSessionEvent
	s.view(func(st *domain.State) {
		out = workSessionEvents.list(st, func(e *domain.WorkSessionEvent) bool { return e.WorkSessionID == id })
	})
	return out
}

// SessionTiming is a session's wall-clock and pause-excluded duration at a
// given instant.
type SessionTiming struct {
	Session domain.WorkSession
	Elapsed time.Duration
	Active  time.Duration
}

// SessionTiming measures the session against the store clock.
func (s *Store) SessionTiming(id domain.WorkSessionID) (SessionTiming, error) {
	var (
		out SessionTiming
		err error
	)
	s.view(func(st *domain.State) {
		var w *domain.WorkSession
		w, err = workSessions.ref(st, id)
		if err != nil {
			return
		}
		now := s.now()
		out = SessionTiming{
			Session: detach(*w),
			Elapsed: w.Elapsed(now),
			Active:  w.ActiveElapsed(st.WorkSessionEvents, now),
		}
	})
	return out, err
}

func (s *Store) appendSessionEvent(st *domain.State, w *domain.WorkSession, typ domain.SessionEventType, at time.Time) {
	workSessionEvents.insert(st, domain.WorkSessionEvent{
		WorkSessionEventID: domain.WorkSessionEventID(domain.NewID(domain.PrefixWorkSessionEvent)),
		WorkSessionID:      w.WorkSessionID,
		TenantID:           w.TenantID,
		Type:               typ,
		OccurredUtc:        at,
	})
	s.appendAudit(st, w.TenantID, w.UserID, "workSession", string(w.WorkSessionID), string(typ), "")
}

// StartSession opens a Running session for userID. A user holds at most
// one Running or Paused session at a time.
func (s *Store) StartSession(ctx context.Context, userID domain.UserID, taskNodeID *domain.TaskNodeID) (domain.WorkSession, error) {
	var out domain.WorkSession
	err := s.mutate(ctx, "StartSession", map[string]any{"user_id": userID}, func(st *domain.State) error {
		u, err := users.ref(st, userID)
		if err != nil {
			return invalid(err)
		}
		if taskNodeID != nil && !taskNodes.exists(st, *taskNodeID) {
			return invalidf("task node %s does not exist", *taskNodeID)
		}
		if n := workSessions.count(st, SessionFilter{UserID: userID, ActiveOnly: true}.match); n > 0 {
			return fmt.Errorf("user %s: %w", userID, ErrSessionActive)
		}
		now := s.now()
		out = domain.WorkSession{
			WorkSessionID: domain.WorkSessionID(domain.NewID(domain.PrefixWorkSession)),
			TenantID:      u.TenantID,
			UserID:        userID,
			TaskNodeID:    taskNodeID,
			State:         domain.SessionRunning,
			StartedUtc:    now,
		}
		workSessions.insert(st, out)
		s.appendSessionEvent(st, &out, domain.EventStart, now)
		return nil
	})
	return detach(out), err
}

// sessionStep applies one state change to a session and records its event.
func (s *Store) sessionStep(ctx context.Context, name string, id domain.WorkSessionID, typ domain.SessionEventType, step func(w *domain.WorkSession, now time.Time) error) (domain.WorkSession, error) {
	var out domain.WorkSession
	err := s.mutate(ctx, name, map[string]any{"session_id": id}, func(st *domain.State) error {
		now := s.now()
		var err error
		out, err = workSessions.update(st, id, func(w *domain.WorkSession) error { return step(w, now) }, nil)
		if err != nil {
			return err
		}
		s.appendSessionEvent(st, &out, typ, now)
		return nil
	})
	return out, err
}

// PauseSession moves a Running session to Paused.
func (s *Store) PauseSession(ctx context.Context, id domain.WorkSessionID) (domain.WorkSession, error) {
	return s.sessionStep(ctx, "PauseSession", id, domain.EventPause, func(w *domain.WorkSession, _ time.Time) error {
		return w.Pause()
	})
}

// ResumeSession moves a Paused session back to Running.
func (s *Store) ResumeSession(ctx context.Context, id domain.WorkSessionID) (domain.WorkSession, error) {
	return s.sessionStep(ctx, "ResumeSession", id, domain.EventResume, func(w *domain.WorkSession, _ time.Time) error {
		return w.Resume()
	})
}

// StopSession ends a Running or Paused session.
func (s *Store) StopSession(ctx context.Context, id domain.WorkSessionID) (domain.WorkSession, error) {
	return s.sessionStep(ctx, "StopSession", id, domain.EventStop, func(w *domain.WorkSession, now time.Time) error {
		return w.Stop(now)
	})
}

// StopSessionToTimeEntry stops the session and books its active minutes as
// a Draft time entry against the session's task node, in one persist.
func (s *Store) StopSessionToTimeEntry(ctx context.Context, id domain.WorkSessionID, notes string) (domain.WorkSession, domain.TimeEntry, error) {
	var (
		session domain.WorkSession
		entry   domain.TimeEntry
	)
	err := s.mutate(ctx, "StopSessionToTimeEntry", map[string]any{"session_id": id}, func(st *domain.State) error {
		cur, err := workSessions.ref(st, id)
		if err != nil {
			return err
		}
		now := s.now()
		stopped := detach(*cur)
		if err := stopped.Stop(now); err != nil {
			return err
		}
		active := stopped.ActiveElapsed(st.WorkSessionEvents, now)
		entry = domain.TimeEntry{
			UserID:     stopped.UserID,
			TenantID:   stopped.TenantID,
			TaskNodeID: stopped.TaskNodeID,
			WorkDate:   stopped.StartedUtc.Format(domain.DateLayout),
			NetMinutes: int(active / time.Minute),
			Notes:      domain.Coalesce(notes, "Work session "+string(id)),
		}
		if err := s.insertTimeEntry(st, &entry); err != nil {
			return err
		}
		*cur = stopped
		s.appendSessionEvent(st, &stopped, domain.EventStop, now)
		session = stopped
		return nil
	})
	return detach(session), detach(entry), err
}

// DeleteSession removes a session and its events.
func (s *Store) DeleteSession(ctx context.Context, id domain.WorkSessionID) error {
	return s.mutate(ctx, "DeleteSession", map[string]any{"session_id": id}, func(st *domain.State) error {
		if !workSessions.remove(st, id) {
			return workSessions.notFound(id)
		}
		cascade(st, ref{kind: kindWorkSession, id: string(id)})
		return nil
	})
}
