package domain

import (
	"fmt"
	"sort"
	"time"
)

type WorkSessionState string

const (
	SessionRunning WorkSessionState = "Running"
	SessionPaused  WorkSessionState = "Paused"
	SessionStopped WorkSessionState = "Stopped"
)

type SessionEventType string

const (
	EventStart  SessionEventType = "Start"
	EventPause  SessionEventType = "Pause"
	EventResume SessionEventType = "Resume"
	EventStop   SessionEventType = "Stop"
)

// WorkSession is a live timer owned by one user.
type WorkSession struct {
	WorkSessionID WorkSessionID    `json:"workSessionId"`
	TenantID      TenantID         `json:"tenantId"`
	UserID        UserID           `json:"userId"`
	TaskNodeID    *TaskNodeID      `json:"taskNodeId"`
	State         WorkSessionState `json:"state"`
	StartedUtc    time.Time        `json:"startedUtc"`
	StoppedUtc    *time.Time       `json:"stoppedUtc"`
}

// WorkSessionEvent is one entry of a session's audit trail.
type WorkSessionEvent struct {
	WorkSessionEventID WorkSessionEventID `json:"workSessionEventId"`
	WorkSessionID      WorkSessionID      `json:"workSessionId"`
	TenantID           TenantID           `json:"tenantId"`
	Type               SessionEventType   `json:"type"`
	OccurredUtc        time.Time          `json:"occurredUtc"`
}

// IsActive reports whether the session is Running or Paused.
func (s *WorkSession) IsActive() bool { return s.State != SessionStopped }

// Pause moves a Running session to Paused.
func (s *WorkSession) Pause() error {
	if s.State != SessionRunning {
		return fmt.Errorf("%w: session %s is %s, only Running sessions can pause", ErrInvalidTransition, s.WorkSessionID, s.State)
	}
	s.State = SessionPaused
	return nil
}

// Resume moves a Paused session back to Running.
func (s *WorkSession) Resume() error {
	if s.State != SessionPaused {
		return fmt.Errorf("%w: session %s is %s, only Paused sessions can resume", ErrInvalidTransition, s.WorkSessionID, s.State)
	}
	s.State = SessionRunning
	return nil
}

// Stop ends the session. Stopped is terminal.
func (s *WorkSession) Stop(now time.Time) error {
	if s.State == SessionStopped {
		return fmt.Errorf("%w: session %s is already stopped", ErrInvalidTransition, s.WorkSessionID)
	}
	s.State = SessionStopped
	s.StoppedUtc = &now
	return nil
}

// Elapsed is the wall-clock time since the session started, paused
// intervals included. A stopped session measures up to StoppedUtc.
func (s *WorkSession) Elapsed(now time.Time) time.Duration {
	end := now
	if s.StoppedUtc != nil {
		end = *s.StoppedUtc
	}
	if end.Before(s.StartedUtc) {
		return 0
	}
	return end.Sub(s.StartedUtc)
}

// ActiveElapsed is Elapsed minus every paused interval recorded in events.
// Events belonging to other sessions are ignored.
func (s *WorkSession) ActiveElapsed(events []WorkSessionEvent, now time.Time) time.Duration {
	own := make([]WorkSessionEvent, 0, len(events))
	for _, ev := range events {
		if ev.WorkSessionID == s.WorkSessionID {
			own = append(own, ev)
		}
	}
	sort.SliceStable(own, func(i, j int) bool { return own[i].OccurredUtc.Before(own[j].OccurredUtc) })

	end := now
	if s.StoppedUtc != nil {
		end = *s.StoppedUtc
	}

	var paused time.Duration
	var pausedAt *time.Time
	for i := range own {
		ev := own[i]
		switch ev.Type {
		case EventPause:
			if pausedAt == nil {
				t := ev.OccurredUtc
				pausedAt = &t
			}
		case EventResume:
			if pausedAt != nil {
				paused += ev.OccurredUtc.Sub(*pausedAt)
				pausedAt = nil
			}
		}
	}
	if pausedAt != nil && end.After(*pausedAt) {
		paused += end.Sub(*pausedAt)
	}

	active := s.Elapsed(now) - paused
	if active < 0 {
		return 0
	}
	return active
}
