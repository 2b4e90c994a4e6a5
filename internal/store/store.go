// Package store holds the in-memory state graph and every CRUD and workflow
// operation over it. Each mutation persists the whole state before it
// returns.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/persist"
)

// StateRepo persists the root state and the session marker.
// *persist.Adapter satisfies it.
type StateRepo interface {
	Load(ctx context.Context) (*domain.State, bool, error)
	Save(ctx context.Context, st *domain.State) error
	SaveAndClearSession(ctx context.Context, st *domain.State) error
	LoadSession(ctx context.Context) (*domain.SessionMarker, error)
	SaveSession(ctx context.Context, m domain.SessionMarker) error
	ClearSession(ctx context.Context) error
	Mode() persist.Mode
}

// SeedSource produces the initial state. *seed.Loader satisfies it.
type SeedSource interface {
	Load(ctx context.Context) (*domain.State, error)
}

// Listener receives a snapshot after every successful mutation. The
// snapshot is shared by every listener of that mutation and must be
// treated as read-only.
type Listener func(snapshot *domain.State)

type subscriber struct {
	id int
	fn Listener
}

// Store is the single owner of the state graph. It is safe for concurrent
// use; writers are serialized.
type Store struct {
	mu       sync.RWMutex
	state    *domain.State
	repo     StateRepo
	seed     SeedSource
	observer UseCaseObserver
	now      func() time.Time

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithObserver sets the use-case observer. The default discards events.
func WithObserver(o UseCaseObserver) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock replaces the UTC wall clock used for every timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open loads the persisted state, falling back to the seed when nothing is
// stored or the stored blob is unreadable. In demo mode a state with
// resetOnRefresh set is re-seeded on every open.
func Open(ctx context.Context, repo StateRepo, seed SeedSource, opts ...Option) (*Store, error) {
	s := &Store{
		repo:     repo,
		seed:     seed,
		observer: NoopUseCaseObserver{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	err := s.observe(ctx, "Open", nil, func() error {
		st, ok, err := repo.Load(ctx)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		demo := repo.Mode() == persist.ModeDemo
		if ok && !(demo && st.ResetOnRefresh) {
			st.DemoMode = demo
			st.Normalize()
			s.state = st
			return nil
		}

		resetOnRefresh := ok && st.ResetOnRefresh
		fresh, err := seed.Load(ctx)
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
		fresh.DemoMode = demo
		fresh.ResetOnRefresh = resetOnRefresh
		s.state = fresh
		return repo.Save(ctx, fresh)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time { return s.now() }

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn to run after every mutation. The returned func
// removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) observe(ctx context.Context, name string, fields map[string]any, fn func() error) error {
	start := time.Now()
	err := fn()
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: start,
	})
	return err
}

// view runs fn under the read lock.
func (s *Store) view(fn func(st *domain.State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// mutate runs fn under the write lock and persists the state when fn
// succeeds. fn must leave the state untouched when it returns an error.
// A persist failure is returned but the in-memory change stays.
func (s *Store) mutate(ctx context.Context, name string, fields map[string]any, fn func(st *domain.State) error) error {
	return s.mutateWith(ctx, name, fields, fn, s.repo.Save)
}

func (s *Store) mutateWith(ctx context.Context, name string, fields map[string]any, fn func(st *domain.State) error, save func(context.Context, *domain.State) error) error {
	return s.observe(ctx, name, fields, func() error {
		s.mu.Lock()
		if err := fn(s.state); err != nil {
			s.mu.Unlock()
			return err
		}
		saveErr := save(ctx, s.state)
		var snap *domain.State
		if s.hasSubscribers() {
			snap, _ = s.state.Clone()
		}
		s.mu.Unlock()

		if snap != nil {
			s.notify(snap)
		}
		if saveErr != nil {
			return fmt.Errorf("%w: %w", ErrPersist, saveErr)
		}
		return nil
	})
}

func (s *Store) hasSubscribers() bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs) > 0
}

func (s *Store) notify(snap *domain.State) {
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.fn(snap)
	}
}

// DemoMode reports whether the store was opened against the demo keys.
func (s *Store) DemoMode() bool {
	var demo bool
	s.view(func(st *domain.State) { demo = st.DemoMode })
	return demo
}

// ResetOnRefresh reports whether a demo state is re-seeded on open.
func (s *Store) ResetOnRefresh() bool {
	var v bool
	s.view(func(st *domain.State) { v = st.ResetOnRefresh })
	return v
}

// SetResetOnRefresh toggles re-seeding of the demo state on open.
func (s *Store) SetResetOnRefresh(ctx context.Context, enabled bool) error {
	return s.mutate(ctx, "SetResetOnRefresh", map[string]any{"enabled": enabled}, func(st *domain.State) error {
		st.ResetOnRefresh = enabled
		return nil
	})
}

// Company returns a copy of the company record, or nil when unset.
func (s *Store) Company() *domain.Company {
	var c *domain.Company
	s.view(func(st *domain.State) {
		if st.Company != nil {
			cp := *st.Company
			c = &cp
		}
	})
	return c
}

// UpdateCompany applies fn to the company record, creating it when absent.
func (s *Store) UpdateCompany(ctx context.Context, fn func(*domain.Company) error) (domain.Company, error) {
	var out domain.Company
	err := s.mutate(ctx, "UpdateCompany", nil, func(st *domain.State) error {
		var c domain.Company
		if st.Company != nil {
			c = *st.Company
		}
		if err := fn(&c); err != nil {
			return err
		}
		if c.Name == "" {
			return invalidf("company name is required")
		}
		st.Company = &c
		out = c
		return nil
	})
	return out, err
}

// Login records userID as the current user in the session marker.
func (s *Store) Login(ctx context.Context, userID domain.UserID) (domain.SessionMarker, error) {
	var marker domain.SessionMarker
	err := s.observe(ctx, "Login", map[string]any{"user_id": userID}, func() error {
		u, ok := s.FindUser(userID)
		if !ok {
			return users.notFound(userID)
		}
		marker = domain.SessionMarker{UserID: u.UserID, TenantID: u.TenantID}
		return s.repo.SaveSession(ctx, marker)
	})
	return marker, err
}

// Logout clears the session marker.
func (s *Store) Logout(ctx context.Context) error {
	return s.observe(ctx, "Logout", nil, func() error {
		return s.repo.ClearSession(ctx)
	})
}

// CurrentSession returns the session marker, or nil when nobody is logged
// in or the marker names a user that no longer exists.
func (s *Store) CurrentSession(ctx context.Context) (*domain.SessionMarker, error) {
	m, err := s.repo.LoadSession(ctx)
	if err != nil || m == nil {
		return nil, err
	}
	if _, ok := s.FindUser(m.UserID); !ok {
		return nil, nil
	}
	return m, nil
}

// appendAudit records a change in the audit log. Callers hold the write
// lock.
func (s *Store) appendAudit(st *domain.State, tenantID domain.TenantID, userID domain.UserID, entityType, entityID, action, detail string) {
	auditLogs.insert(st, domain.AuditLog{
		AuditLogID: domain.AuditLogID(domain.NewID(domain.PrefixAuditLog)),
		TenantID:   tenantID,
		UserID:     userID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Detail:     detail,
		CreatedAt:  s.now(),
	})
}

// notifyUser queues an in-app notification. Callers hold the write lock.
func (s *Store) notifyUser(st *domain.State, tenantID domain.TenantID, userID domain.UserID, title, body, link string) {
	notifications.insert(st, domain.Notification{
		NotificationID: domain.NotificationID(domain.NewID(domain.PrefixNotification)),
		TenantID:       tenantID,
		UserID:         userID,
		Title:          title,
		Body:           body,
		Link:           link,
		CreatedAt:      s.now(),
	})
}

// Counts returns the size of each collection keyed by its JSON name.
func (s *Store) Counts() map[string]int {
	out := map[string]int{}
	s.view(func(st *domain.State) {
		out["tenants"] = len(st.Tenants)
		out["users"] = len(st.Users)
		out["projects"] = len(st.Projects)
		out["tasks"] = len(st.Tasks)
		out["taskNodes"] = len(st.TaskNodes)
		out["taskAssignments"] = len(st.TaskAssignments)
		out["workItems"] = len(st.WorkItems)
		out["sprints"] = len(st.Sprints)
		out["roles"] = len(st.Roles)
		out["roleAssignments"] = len(st.RoleAssignments)
		out["raid"] = len(st.Raid)
		out["mappings"] = len(st.Mappings)
		out["contracts"] = len(st.Contracts)
		out["timeEntries"] = len(st.TimeEntries)
		out["workSessions"] = len(st.WorkSessions)
		out["workSessionEvents"] = len(st.WorkSessionEvents)
		out["notifications"] = len(st.Notifications)
		out["forumThreads"] = len(st.ForumThreads)
		out["forumPosts"] = len(st.ForumPosts)
		out["chatThreads"] = len(st.ChatThreads)
		out["chatMessages"] = len(st.ChatMessages)
		out["meetings"] = len(st.Meetings)
		out["deadlines"] = len(st.Deadlines)
		out["ptoEntries"] = len(st.PtoEntries)
		out["auditLogs"] = len(st.AuditLogs)
		out["skills"] = len(st.Skills)
		out["userSkills"] = len(st.UserSkills)
	})
	return out
}
