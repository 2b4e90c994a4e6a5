package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/delegate/internal/domain"
)

// maxDepth bounds every parent-pointer walk.
const maxDepth = 64

// checkParent walks up from parent and fails with ErrCycle when it reaches
// self or runs deeper than maxDepth. parentOf returns nil at a root or for
// an unknown ID.
func checkParent[ID comparable](self ID, parent *ID, parentOf func(ID) *ID) error {
	cur := parent
	for depth := 0; cur != nil; depth++ {
		if *cur == self {
			return fmt.Errorf("%w: %v is its own ancestor", ErrCycle, self)
		}
		if depth >= maxDepth {
			return fmt.Errorf("%w: parent chain of %v deeper than %d", ErrCycle, self, maxDepth)
		}
		cur = parentOf(*cur)
	}
	return nil
}

func (s *Store) FindProject(id domain.ProjectID) (domain.Project, bool) {
	var (
		p  domain.Project
		ok bool
	)
	s.view(func(st *domain.State) { p, ok = projects.find(st, id) })
	return p, ok
}

func (s *Store) GetProject(id domain.ProjectID) (*domain.Project, error) {
	var (
		p   *domain.Project
		err error
	)
	s.view(func(st *domain.State) { p, err = projects.get(st, id) })
	return p, err
}

// ListProjects returns the projects of tenantID, or every project when
// tenantID is empty.
func (s *Store) ListProjects(tenantID domain.TenantID) []domain.Project {
	var out []domain.Project
	s.view(func(st *domain.State) {
		out = projects.list(st, func(p *domain.Project) bool {
			return tenantID == "" || p.TenantID == tenantID
		})
	})
	return out
}

// CreateProject fills in the ID, timestamp, status and default workflow
// steps where p leaves them empty.
func (s *Store) CreateProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	err := s.mutate(ctx, "CreateProject", map[string]any{"name": p.Name}, func(st *domain.State) error {
		if p.ProjectID == "" {
			p.ProjectID = domain.ProjectID(domain.NewID(domain.PrefixProject))
		} else if projects.exists(st, p.ProjectID) {
			return invalidf("project %s already exists", p.ProjectID)
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = s.now()
		}
		if p.Status == "" {
			p.Status = domain.ProjectPlanning
		}
		if len(p.Steps) == 0 {
			p.Steps = domain.DefaultSteps()
		}
		if err := p.Validate(); err != nil {
			return invalid(err)
		}
		if p.TenantID != "" && !tenants.exists(st, p.TenantID) {
			return invalidf("tenant %s does not exist", p.TenantID)
		}
		projects.insert(st, p)
		return nil
	})
	if err != nil {
		return domain.Project{}, err
	}
	return detach(p), nil
}

// UpdateProject applies fn to a copy of the project. Tasks sitting in a
// step the update removed move to the first remaining step; removing every
// step from a project that still has tasks is rejected. The project cannot
// change tenant.
func (s *Store) UpdateProject(ctx context.Context, id domain.ProjectID, fn func(*domain.Project) error) (domain.Project, error) {
	var out domain.Project
	err := s.mutate(ctx, "UpdateProject", map[string]any{"project_id": id}, func(st *domain.State) error {
		cur, err := projects.ref(st, id)
		if err != nil {
			return err
		}
		tenantID := cur.TenantID
		updated, err := projects.update(st, id, fn, func(p *domain.Project) error {
			if p.TenantID != tenantID {
				return invalidf("project %s cannot move to another tenant", id)
			}
			if err := p.Validate(); err != nil {
				return invalid(err)
			}
			if len(p.Steps) == 0 && tasks.count(st, func(t *domain.Task) bool { return t.ProjectID == id }) > 0 {
				return invalidf("project %s still has tasks and needs at least one step", id)
			}
			return nil
		})
		if err != nil {
			return err
		}
		reassignOrphanedTasks(st, &updated)
		out = updated
		return nil
	})
	return out, err
}

// reassignOrphanedTasks moves tasks whose step no longer exists to the
// project's first step.
func reassignOrphanedTasks(st *domain.State, p *domain.Project) {
	first, ok := p.FirstStep()
	if !ok {
		return
	}
	tasks.each(st, func(t *domain.Task) {
		if t.ProjectID == p.ProjectID && !p.HasStep(t.StatusStepID) {
			t.StatusStepID = first
		}
	})
}

// DeleteProject removes the project and everything scoped to it.
func (s *Store) DeleteProject(ctx context.Context, id domain.ProjectID) error {
	return s.mutate(ctx, "DeleteProject", map[string]any{"project_id": id}, func(st *domain.State) error {
		if !projects.remove(st, id) {
			return projects.notFound(id)
		}
		cascade(st, ref{kind: kindProject, id: string(id)})
		return nil
	})
}

// AddStep appends a workflow step to the project.
func (s *Store) AddStep(ctx context.Context, projectID domain.ProjectID, name, color string) (domain.Step, error) {
	step := domain.Step{ID: domain.StepID(domain.NewID(domain.PrefixStep)), Name: strings.TrimSpace(name), Color: color}
	if step.Name == "" {
		return domain.Step{}, invalidf("step name is required")
	}
	if step.Color == "" {
		step.Color = "slate"
	}
	_, err := s.UpdateProject(ctx, projectID, func(p *domain.Project) error {
		p.Steps = append(p.Steps, step)
		return nil
	})
	if err != nil {
		return domain.Step{}, err
	}
	return step, nil
}

// RemoveStep drops a workflow step; its tasks fall back to the first
// remaining step.
func (s *Store) RemoveStep(ctx context.Context, projectID domain.ProjectID, stepID domain.StepID) error {
	_, err := s.UpdateProject(ctx, projectID, func(p *domain.Project) error {
		if !p.HasStep(stepID) {
			return invalidf("step %s is not part of project %s", stepID, projectID)
		}
		kept := make([]domain.Step, 0, len(p.Steps))
		for _, st := range p.Steps {
			if st.ID != stepID {
				kept = append(kept, st)
			}
		}
		p.Steps = kept
		return nil
	})
	return err
}

// Tasks

func (s *Store) FindTask(id domain.TaskID) (domain.Task, bool) {
	var (
		t  domain.Task
		ok bool
	)
	s.view(func(st *domain.State) { t, ok = tasks.find(st, id) })
	return t, ok
}

func (s *Store) GetTask(id domain.TaskID) (*domain.Task, error) {
	var (
		t   *domain.Task
		err error
	)
	s.view(func(st *domain.State) { t, err = tasks.get(st, id) })
	return t, err
}

// ListTasks returns the tasks of projectID, or all tasks when it is empty.
func (s *Store) ListTasks(projectID domain.ProjectID) []domain.Task {
	var out []domain.Task
	s.view(func(st *domain.State) {
		out = tasks.list(st, func(t *domain.Task) bool { return projectID == "" || t.ProjectID == projectID })
	})
	return out
}

func validateTask(st *domain.State, t *domain.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return invalidf("task title is required")
	}
	p, err := projects.ref(st, t.ProjectID)
	if err != nil {
		return invalid(err)
	}
	if !p.HasStep(t.StatusStepID) {
		return invalidf("step %s is not part of project %s", t.StatusStepID, t.ProjectID)
	}
	if t.Priority != "" && !domain.ValidPriorities[t.Priority] {
		return invalidf("unknown priority %q", t.Priority)
	}
	if t.ParentTaskID != nil {
		parent, ok := tasks.find(st, *t.ParentTaskID)
		if !ok {
			return invalidf("parent task %s does not exist", *t.ParentTaskID)
		}
		if parent.ProjectID != t.ProjectID {
			return invalidf("parent task %s belongs to another project", parent.TaskID)
		}
		return checkParent(t.TaskID, t.ParentTaskID, func(id domain.TaskID) *domain.TaskID {
			if p, err := tasks.ref(st, id); err == nil {
				return p.ParentTaskID
			}
			return nil
		})
	}
	return nil
}

// CreateTask places the task in its project's first step unless t names
// one.
func (s *Store) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	err := s.mutate(ctx, "CreateTask", map[string]any{"project_id": t.ProjectID}, func(st *domain.State) error {
		p, err := projects.ref(st, t.ProjectID)
		if err != nil {
			return invalid(err)
		}
		if t.TaskID == "" {
			t.TaskID = domain.TaskID(domain.NewID(domain.PrefixTask))
		} else if tasks.exists(st, t.TaskID) {
			return invalidf("task %s already exists", t.TaskID)
		}
		if t.StatusStepID == "" {
			first, ok := p.FirstStep()
			if !ok {
				return invalidf("project %s has no workflow steps", p.ProjectID)
			}
			t.StatusStepID = first
		}
		t.TenantID = domain.Coalesce(t.TenantID, p.TenantID)
		t.Status = domain.Coalesce(t.Status, domain.TaskNotStarted)
		t.Priority = domain.Coalesce(t.Priority, domain.PriorityMedium)
		t.AssigneeUserIDs = domain.NonNil(t.AssigneeUserIDs)
		t.Tags = domain.NonNil(t.Tags)
		if t.CreatedAt.IsZero() {
			t.CreatedAt = s.now()
		}
		if err := validateTask(st, &t); err != nil {
			return err
		}
		tasks.insert(st, t)
		return nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	return detach(t), nil
}

// UpdateTask applies fn to a copy of the task. The task cannot change
// project.
func (s *Store) UpdateTask(ctx context.Context, id domain.TaskID, fn func(*domain.Task) error) (domain.Task, error) {
	var out domain.Task
	err := s.mutate(ctx, "UpdateTask", map[string]any{"task_id": id}, func(st *domain.State) error {
		cur, err := tasks.ref(st, id)
		if err != nil {
			return err
		}
		projectID := cur.ProjectID
		out, err = tasks.update(st, id, fn, func(t *domain.Task) error {
			if t.ProjectID != projectID {
				return invalidf("task %s cannot move to another project", id)
			}
			return validateTask(st, t)
		})
		return err
	})
	return out, err
}

// MoveTask sets the task's workflow step. The step must belong to the
// task's project.
func (s *Store) MoveTask(ctx context.Context, id domain.TaskID, stepID domain.StepID) (domain.Task, error) {
	var out domain.Task
	err := s.mutate(ctx, "MoveTask", map[string]any{"task_id": id, "step_id": stepID}, func(st *domain.State) error {
		var err error
		out, err = tasks.update(st, id, func(t *domain.Task) error {
			t.StatusStepID = stepID
			return nil
		}, func(t *domain.Task) error { return validateTask(st, t) })
		return err
	})
	return out, err
}

func (s *Store) DeleteTask(ctx context.Context, id domain.TaskID) error {
	return s.mutate(ctx, "DeleteTask", map[string]any{"task_id": id}, func(st *domain.State) error {
		if !tasks.remove(st, id) {
			return tasks.notFound(id)
		}
		cascade(st, ref{kind: kindTask, id: string(id)})
		return nil
	})
}
