package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/delegate/internal/domain"
)

// Contracts

func (s *Store) FindContract(id domain.ContractID) (domain.Contract, bool) {
	var (
		c  domain.Contract
		ok bool
	)
	s.view(func(st *domain.State) { c, ok = contracts.find(st, id) })
	return c, ok
}

func (s *Store) ListContracts(tenantID domain.TenantID) []domain.Contract {
	var out []domain.Contract
	s.view(func(st *domain.State) {
		out = contracts.list(st, func(c *domain.Contract) bool { return tenantID == "" || c.TenantID == tenantID })
	})
	return out
}

func (s *Store) CreateContract(ctx context.Context, c domain.Contract) (domain.Contract, error) {
	err := s.mutate(ctx, "CreateContract", map[string]any{"tenant_id": c.TenantID}, func(st *domain.State) error {
		if strings.TrimSpace(c.Name) == "" {
			return invalidf("contract name is required")
		}
		if c.TenantID == "" {
			return invalidf("contract tenant ID is required")
		}
		c.ContractID = domain.Coalesce(c.ContractID, domain.ContractID(domain.NewID(domain.PrefixContract)))
		if contracts.exists(st, c.ContractID) {
			return invalidf("contract %s already exists", c.ContractID)
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = s.now()
		}
		contracts.insert(st, c)
		return nil
	})
	if err != nil {
		return domain.Contract{}, err
	}
	return c, nil
}

func (s *Store) UpdateContract(ctx context.Context, id domain.ContractID, fn func(*domain.Contract) error) (domain.Contract, error) {
	var out domain.Contract
	err := s.mutate(ctx, "UpdateContract", map[string]any{"contract_id": id}, func(st *domain.State) error {
		var err error
		out, err = contracts.update(st, id, fn, func(c *domain.Contract) error {
			if strings.TrimSpace(c.Name) == "" {
				return invalidf("contract name is required")
			}
			return nil
		})
		return err
	})
	return out, err
}

// DeleteContract removes the contract together with its task node trees.
func (s *Store) DeleteContract(ctx context.Context, id domain.ContractID) error {
	return s.mutate(ctx, "DeleteContract", map[string]any{"contract_id": id}, func(st *domain.State) error {
		if !contracts.remove(st, id) {
			return contracts.notFound(id)
		}
		cascade(st, ref{kind: kindContract, id: string(id)})
		return nil
	})
}

// Task nodes

func (s *Store) FindTaskNode(id domain.TaskNodeID) (domain.TaskNode, bool) {
	var (
		n  domain.TaskNode
		ok bool
	)
	s.view(func(st *domain.State) { n, ok = taskNodes.find(st, id) })
	return n, ok
}

func (s *Store) GetTaskNode(id domain.TaskNodeID) (*domain.TaskNode, error) {
	var (
		n   *domain.TaskNode
		err error
	)
	s.view(func(st *domain.State) { n, err = taskNodes.get(st, id) })
	return n, err
}

// TaskNodeFilter narrows ListTaskNodes. Zero fields match everything.
// RootsOnly keeps nodes without a parent.
type TaskNodeFilter struct {
	TenantID   domain.TenantID
	ContractID domain.ContractID
	ParentID   domain.TaskNodeID
	RootsOnly  bool
}

func (f TaskNodeFilter) match(n *domain.TaskNode) bool {
	if f.TenantID != "" && n.TenantID != f.TenantID {
		return false
	}
	if f.ContractID != "" && (n.ContractID == nil || *n.ContractID != f.ContractID) {
		return false
	}
	if f.ParentID != "" && (n.ParentTaskNodeID == nil || *n.ParentTaskNodeID != f.ParentID) {
		return false
	}
	if f.RootsOnly && n.ParentTaskNodeID != nil {
		return false
	}
	return true
}

func (s *Store) ListTaskNodes(f TaskNodeFilter) []domain.TaskNode {
	var out []domain.TaskNode
	s.view(func(st *domain.State) { out = taskNodes.list(st, f.match) })
	return out
}

func validateTaskNode(st *domain.State, n *domain.TaskNode) error {
	if err := n.Validate(); err != nil {
		return invalid(err)
	}
	if n.ContractID != nil && !contracts.exists(st, *n.ContractID) {
		return invalidf("contract %s does not exist", *n.ContractID)
	}
	if n.ParentTaskNodeID == nil {
		return nil
	}
	parent, err := taskNodes.ref(st, *n.ParentTaskNodeID)
	if err != nil {
		return invalid(err)
	}
	if parent.TenantID != n.TenantID {
		return invalidf("parent task node %s belongs to another tenant", parent.TaskNodeID)
	}
	return checkParent(n.TaskNodeID, n.ParentTaskNodeID, func(id domain.TaskNodeID) *domain.TaskNodeID {
		if p, err := taskNodes.ref(st, id); err == nil {
			return p.ParentTaskNodeID
		}
		return nil
	})
}

// CreateTaskNode adds a node to the hours tree. A child inherits its
// parent's contract when it names none.
func (s *Store) CreateTaskNode(ctx context.Context, n domain.TaskNode) (domain.TaskNode, error) {
	err := s.mutate(ctx, "CreateTaskNode", map[string]any{"tenant_id": n.TenantID}, func(st *domain.State) error {
		n.TaskNodeID = domain.Coalesce(n.TaskNodeID, domain.TaskNodeID(domain.NewID(domain.PrefixTaskNode)))
		if taskNodes.exists(st, n.TaskNodeID) {
			return invalidf("task node %s already exists", n.TaskNodeID)
		}
		if n.ParentTaskNodeID != nil && n.ContractID == nil {
			if parent, err := taskNodes.ref(st, *n.ParentTaskNodeID); err == nil && parent.ContractID != nil {
				n.ContractID = domain.Ptr(*parent.ContractID)
			}
		}
		n.Status = domain.Coalesce(n.Status, domain.TaskNotStarted)
		if n.CreatedAt.IsZero() {
			n.CreatedAt = s.now()
		}
		if err := validateTaskNode(st, &n); err != nil {
			return err
		}
		taskNodes.insert(st, n)
		return nil
	})
	if err != nil {
		return domain.TaskNode{}, err
	}
	return detach(n), nil
}

// UpdateTaskNode applies fn to a copy of the node. Reparenting under one of
// its own descendants fails with ErrCycle.
func (s *Store) UpdateTaskNode(ctx context.Context, id domain.TaskNodeID, fn func(*domain.TaskNode) error) (domain.TaskNode, error) {
	var out domain.TaskNode
	err := s.mutate(ctx, "UpdateTaskNode", map[string]any{"task_node_id": id}, func(st *domain.State) error {
		var err error
		out, err = taskNodes.update(st, id, fn, func(n *domain.TaskNode) error { return validateTaskNode(st, n) })
		return err
	})
	return out, err
}

// DeleteTaskNode removes one node. Its children become roots and time
// entries or sessions pointing at it keep their history with no node.
func (s *Store) DeleteTaskNode(ctx context.Context, id domain.TaskNodeID) error {
	return s.mutate(ctx, "DeleteTaskNode", map[string]any{"task_node_id": id}, func(st *domain.State) error {
		if !taskNodes.remove(st, id) {
			return taskNodes.notFound(id)
		}
		cascade(st, ref{kind: kindTaskNode, id: string(id)})
		return nil
	})
}

// Task assignments

// TaskAssignmentFilter narrows ListTaskAssignments. Zero fields match
// everything.
type TaskAssignmentFilter struct {
	TenantID   domain.TenantID
	UserID     domain.UserID
	TaskID     domain.TaskID
	TaskNodeID domain.TaskNodeID
}

func (f TaskAssignmentFilter) match(a *domain.TaskAssignment) bool {
	switch {
	case f.TenantID != "" && a.TenantID != f.TenantID:
		return false
	case f.UserID != "" && a.UserID != f.UserID:
		return false
	case f.TaskID != "" && (a.TaskID == nil || *a.TaskID != f.TaskID):
		return false
	case f.TaskNodeID != "" && (a.TaskNodeID == nil || *a.TaskNodeID != f.TaskNodeID):
		return false
	}
	return true
}

func (s *Store) ListTaskAssignments(f TaskAssignmentFilter) []domain.TaskAssignment {
	var out []domain.TaskAssignment
	s.view(func(st *domain.State) { out = taskAssignments.list(st, f.match) })
	return out
}

// AssignTask joins a user to a task or task node. Assigning the same pair
// twice returns the existing assignment.
func (s *Store) AssignTask(ctx context.Context, a domain.TaskAssignment) (domain.TaskAssignment, error) {
	err := s.mutate(ctx, "AssignTask", map[string]any{"user_id": a.UserID}, func(st *domain.State) error {
		if err := a.Validate(); err != nil {
			return invalid(err)
		}
		u, err := users.ref(st, a.UserID)
		if err != nil {
			return invalid(err)
		}
		a.TenantID = domain.Coalesce(a.TenantID, u.TenantID)
		if a.TaskID != nil && !tasks.exists(st, *a.TaskID) {
			return invalidf("task %s does not exist", *a.TaskID)
		}
		if a.TaskNodeID != nil && !taskNodes.exists(st, *a.TaskNodeID) {
			return invalidf("task node %s does not exist", *a.TaskNodeID)
		}
		dup := taskAssignments.list(st, func(x *domain.TaskAssignment) bool {
			return x.UserID == a.UserID && samePtr(x.TaskID, a.TaskID) && samePtr(x.TaskNodeID, a.TaskNodeID)
		})
		if len(dup) > 0 {
			a = dup[0]
			return nil
		}
		a.TaskAssignmentID = domain.Coalesce(a.TaskAssignmentID, domain.TaskAssignmentID(domain.NewID(domain.PrefixTaskAssignment)))
		if a.CreatedAt.IsZero() {
			a.CreatedAt = s.now()
		}
		taskAssignments.insert(st, a)
		return nil
	})
	if err != nil {
		return domain.TaskAssignment{}, err
	}
	return detach(a), nil
}

func (s *Store) DeleteTaskAssignment(ctx context.Context, id domain.TaskAssignmentID) error {
	return s.mutate(ctx, "DeleteTaskAssignment", map[string]any{"task_assignment_id": id}, func(st *domain.State) error {
		if !taskAssignments.remove(st, id) {
			return taskAssignments.notFound(id)
		}
		return nil
	})
}

func samePtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Rollups

// CalculateTaskRollup aggregates the subtree rooted at id. Leaves report
// their own scoped and allocated hours plus the chargeable time booked
// against them; an internal node is the sum of its children and its own
// hours are ignored.
func (s *Store) CalculateTaskRollup(id domain.TaskNodeID) (domain.Rollup, error) {
	var (
		out domain.Rollup
		err error
	)
	s.view(func(st *domain.State) { out, err = rollup(st, id) })
	return out, err
}

func rollup(st *domain.State, id domain.TaskNodeID) (domain.Rollup, error) {
	root, err := taskNodes.ref(st, id)
	if err != nil {
		return domain.Rollup{}, err
	}

	children := make(map[domain.TaskNodeID][]*domain.TaskNode, len(st.TaskNodes))
	for i := range st.TaskNodes {
		n := &st.TaskNodes[i]
		if n.ParentTaskNodeID != nil {
			children[*n.ParentTaskNodeID] = append(children[*n.ParentTaskNodeID], n)
		}
	}
	charged := make(map[domain.TaskNodeID]float64)
	for i := range st.TimeEntries {
		e := &st.TimeEntries[i]
		if e.TaskNodeID != nil && e.Chargeable() {
			charged[*e.TaskNodeID] += e.Hours()
		}
	}

	onPath := make(map[domain.TaskNodeID]bool)
	var walk func(n *domain.TaskNode, depth int) (domain.Rollup, error)
	walk = func(n *domain.TaskNode, depth int) (domain.Rollup, error) {
		if depth > maxDepth {
			return domain.Rollup{}, fmt.Errorf("%w: task tree under %s deeper than %d", ErrCycle, id, maxDepth)
		}
		if onPath[n.TaskNodeID] {
			return domain.Rollup{}, fmt.Errorf("%w: task node %s revisited", ErrCycle, n.TaskNodeID)
		}
		kids := children[n.TaskNodeID]
		if len(kids) == 0 {
			return domain.Rollup{
				ScopedHours:    n.ScopedHours,
				AllocatedHours: n.AllocatedHours,
				ChargedHours:   charged[n.TaskNodeID],
			}, nil
		}
		onPath[n.TaskNodeID] = true
		defer delete(onPath, n.TaskNodeID)
		var sum domain.Rollup
		for _, k := range kids {
			r, err := walk(k, depth+1)
			if err != nil {
				return domain.Rollup{}, err
			}
			sum = sum.Add(r)
		}
		return sum, nil
	}
	return walk(root, 0)
}

// ChargedHours sums the chargeable hours booked directly against id.
func (s *Store) ChargedHours(id domain.TaskNodeID) float64 {
	var total float64
	s.view(func(st *domain.State) {
		for i := range st.TimeEntries {
			e := &st.TimeEntries[i]
			if e.TaskNodeID != nil && *e.TaskNodeID == id && e.Chargeable() {
				total += e.Hours()
			}
		}
	})
	return total
}
