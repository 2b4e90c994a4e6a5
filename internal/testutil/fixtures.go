package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/persist"
	"github.com/alexanderramin/delegate/internal/seed"
	"github.com/alexanderramin/delegate/internal/store"
)

// Fixed IDs of the minimal fixture state.
const (
	TenantID   domain.TenantID = "TEN_test"
	AdminID    domain.UserID   = "USER_admin"
	WorkerID   domain.UserID   = "USER_worker"
	ApproverID domain.UserID   = "USER_approver"
)

// Epoch is the instant a fresh Clock starts at.
var Epoch = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

// Clock is a manually advanced clock for store.WithClock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock { return &Clock{now: Epoch} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StaticSeed serves a fixed state as the seed.
type StaticSeed struct {
	State *domain.State
	Err   error
}

func (s StaticSeed) Load(context.Context) (*domain.State, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.State.Clone()
}

// MinimalState holds one company, one tenant and an admin, a worker and an
// approver. Every other collection is empty.
func MinimalState() *domain.State {
	st := domain.NewState()
	st.Company = &domain.Company{Name: "Test Co"}
	st.Tenants = []domain.Tenant{{TenantID: TenantID, Name: "Test Tenant", CreatedAt: Epoch}}
	st.Users = []domain.User{
		{TenantID: TenantID, UserID: AdminID, DisplayName: "Admin", Role: domain.UserAdmin, CreatedAt: Epoch},
		{TenantID: TenantID, UserID: WorkerID, DisplayName: "Worker", Role: domain.UserWorker, CreatedAt: Epoch},
		{TenantID: TenantID, UserID: ApproverID, DisplayName: "Approver", Role: domain.UserApprover, CreatedAt: Epoch},
	}
	return st
}

// TestStore bundles a store with the pieces tests inspect.
type TestStore struct {
	*store.Store
	Backend *persist.MemoryBackend
	Adapter *persist.Adapter
	Clock   *Clock
}

// NewTestStore opens a store over an in-memory backend seeded with
// MinimalState and driven by a manual clock.
func NewTestStore(t *testing.T, opts ...store.Option) *TestStore {
	t.Helper()
	return NewTestStoreFrom(t, StaticSeed{State: MinimalState()}, opts...)
}

// NewTestStoreFrom is NewTestStore with a caller-chosen seed.
func NewTestStoreFrom(t *testing.T, src store.SeedSource, opts ...store.Option) *TestStore {
	t.Helper()
	backend := persist.NewMemoryBackend()
	adapter := persist.NewAdapter(backend, persist.ModeNormal, nil)
	clock := NewClock()
	s, err := store.Open(context.Background(), adapter, src, append([]store.Option{store.WithClock(clock.Now)}, opts...)...)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	return &TestStore{Store: s, Backend: backend, Adapter: adapter, Clock: clock}
}

// NewSeededStore opens a store over the embedded sample data.
func NewSeededStore(t *testing.T, opts ...store.Option) *TestStore {
	t.Helper()
	return NewTestStoreFrom(t, seed.Default(nil), opts...)
}

// Project options
type ProjectOption func(*domain.Project)

func WithMethodology(m domain.Methodology) ProjectOption {
	return func(p *domain.Project) { p.Methodology = m }
}

func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) { p.Status = s }
}

// WithStepNames replaces the default steps with freshly named ones.
func WithStepNames(names ...string) ProjectOption {
	return func(p *domain.Project) {
		p.Steps = make([]domain.Step, 0, len(names))
		for _, n := range names {
			p.Steps = append(p.Steps, domain.Step{ID: domain.StepID(domain.NewID(domain.PrefixStep)), Name: n, Color: "slate"})
		}
	}
}

func NewTestProject(name string, opts ...ProjectOption) domain.Project {
	p := domain.Project{
		TenantID:    TenantID,
		Name:        name,
		Category:    "Internal",
		Methodology: domain.MethodologyHybrid,
		StartDate:   "2025-01-01",
		EndDate:     "2025-12-31",
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Task node options
type NodeOption func(*domain.TaskNode)

func WithParentNode(id domain.TaskNodeID) NodeOption {
	return func(n *domain.TaskNode) { n.ParentTaskNodeID = &id }
}

func WithHours(scoped, allocated float64) NodeOption {
	return func(n *domain.TaskNode) {
		n.ScopedHours = scoped
		n.AllocatedHours = allocated
	}
}

func WithContract(id domain.ContractID) NodeOption {
	return func(n *domain.TaskNode) { n.ContractID = &id }
}

func NewTestTaskNode(title string, opts ...NodeOption) domain.TaskNode {
	n := domain.TaskNode{TenantID: TenantID, Title: title}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// Work item options
type WorkItemOption func(*domain.WorkItem)

func WithWorkItemStatus(s domain.WorkItemStatus) WorkItemOption {
	return func(w *domain.WorkItem) { w.Status = s }
}

func WithParentItem(id domain.WorkItemID) WorkItemOption {
	return func(w *domain.WorkItem) { w.ParentWorkItemID = &id }
}

func WithSprint(id domain.SprintID) WorkItemOption {
	return func(w *domain.WorkItem) { w.SprintID = &id }
}

func WithDependencies(ids ...domain.WorkItemID) WorkItemOption {
	return func(w *domain.WorkItem) { w.DependencyIDs = ids }
}

func NewTestWorkItem(projectID domain.ProjectID, title string, typ domain.WorkItemType, opts ...WorkItemOption) domain.WorkItem {
	w := domain.WorkItem{ProjectID: projectID, Title: title, WorkItemType: typ}
	for _, opt := range opts {
		opt(&w)
	}
	return w
}

// Time entry options
type TimeEntryOption func(*domain.TimeEntry)

func OnNode(id domain.TaskNodeID) TimeEntryOption {
	return func(e *domain.TimeEntry) { e.TaskNodeID = &id }
}

func OnDate(date string) TimeEntryOption {
	return func(e *domain.TimeEntry) { e.WorkDate = date }
}

func NewTestTimeEntry(userID domain.UserID, minutes int, opts ...TimeEntryOption) domain.TimeEntry {
	e := domain.TimeEntry{UserID: userID, NetMinutes: minutes, WorkDate: "2025-03-03"}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}
