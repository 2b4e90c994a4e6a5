package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/delegate/internal/domain"
)

// WorkItemFilter narrows ListWorkItems. Empty string fields match
// everything. A non-nil pointer filters on equality, and a pointer to the
// empty ID matches items where the field is unset.
type WorkItemFilter struct {
	Status       domain.WorkItemStatus
	WorkItemType domain.WorkItemType
	Kind         domain.WorkItemKind
	SprintID     *domain.SprintID
	ParentID     *domain.WorkItemID
}

func (f WorkItemFilter) match(w *domain.WorkItem) bool {
	if f.Status != "" && w.Status != f.Status {
		return false
	}
	if f.WorkItemType != "" && w.WorkItemType != f.WorkItemType {
		return false
	}
	if f.Kind != domain.KindUnknown && w.Kind() != f.Kind {
		return false
	}
	if f.SprintID != nil && !optionalEquals(w.SprintID, *f.SprintID) {
		return false
	}
	if f.ParentID != nil && !optionalEquals(w.ParentWorkItemID, *f.ParentID) {
		return false
	}
	return true
}

// optionalEquals treats a nil pointer as the empty value.
func optionalEquals[ID ~string](p *ID, want ID) bool {
	if p == nil {
		return want == ""
	}
	return *p == want
}

func (s *Store) FindWorkItem(id domain.WorkItemID) (domain.WorkItem, bool) {
	var (
		w  domain.WorkItem
		ok bool
	)
	s.view(func(st *domain.State) { w, ok = workItems.find(st, id) })
	return w, ok
}

func (s *Store) GetWorkItem(id domain.WorkItemID) (*domain.WorkItem, error) {
	var (
		w   *domain.WorkItem
		err error
	)
	s.view(func(st *domain.State) { w, err = workItems.get(st, id) })
	return w, err
}

// ListWorkItems returns the matching work items of projectID, or of every
// project when projectID is empty.
func (s *Store) ListWorkItems(projectID domain.ProjectID, f WorkItemFilter) []domain.WorkItem {
	var out []domain.WorkItem
	s.view(func(st *domain.State) {
		out = workItems.list(st, func(w *domain.WorkItem) bool {
			return (projectID == "" || w.ProjectID == projectID) && f.match(w)
		})
	})
	return out
}

func validateWorkItem(st *domain.State, w *domain.WorkItem) error {
	if err := w.Validate(); err != nil {
		return invalid(err)
	}
	if !projects.exists(st, w.ProjectID) {
		return invalidf("project %s does not exist", w.ProjectID)
	}
	if w.Priority != "" && !domain.ValidPriorities[w.Priority] {
		return invalidf("unknown priority %q", w.Priority)
	}
	if w.SprintID != nil {
		sp, err := sprints.ref(st, *w.SprintID)
		if err != nil {
			return invalid(err)
		}
		if sp.ProjectID != w.ProjectID {
			return invalidf("sprint %s belongs to another project", sp.SprintID)
		}
	}
	for _, dep := range w.DependencyIDs {
		if dep == w.WorkItemID {
			return invalidf("work item %s cannot depend on itself", dep)
		}
		if !workItems.exists(st, dep) {
			return invalidf("dependency %s does not exist", dep)
		}
	}
	if w.ParentWorkItemID == nil {
		return nil
	}
	parent, err := workItems.ref(st, *w.ParentWorkItemID)
	if err != nil {
		return invalid(err)
	}
	if parent.ProjectID != w.ProjectID {
		return invalidf("parent work item %s belongs to another project", parent.WorkItemID)
	}
	return checkParent(w.WorkItemID, w.ParentWorkItemID, func(id domain.WorkItemID) *domain.WorkItemID {
		if p, err := workItems.ref(st, id); err == nil {
			return p.ParentWorkItemID
		}
		return nil
	})
}

// CreateWorkItem fills defaults (ID, Backlog status, empty lists) and
// records a "created" audit entry.
func (s *Store) CreateWorkItem(ctx context.Context, w domain.WorkItem) (domain.WorkItem, error) {
	err := s.mutate(ctx, "CreateWorkItem", map[string]any{"project_id": w.ProjectID, "type": w.WorkItemType}, func(st *domain.State) error {
		w.WorkItemID = domain.Coalesce(w.WorkItemID, domain.WorkItemID(domain.NewID(domain.PrefixWorkItem)))
		if workItems.exists(st, w.WorkItemID) {
			return invalidf("work item %s already exists", w.WorkItemID)
		}
		w.Status = domain.Coalesce(w.Status, domain.StatusBacklog)
		w.Tags = domain.NonNil(w.Tags)
		w.DependencyIDs = domain.NonNil(w.DependencyIDs)
		w.RACI.ResponsibleUserIDs = domain.NonNil(w.RACI.ResponsibleUserIDs)
		w.RACI.ConsultedUserIDs = domain.NonNil(w.RACI.ConsultedUserIDs)
		w.RACI.InformedUserIDs = domain.NonNil(w.RACI.InformedUserIDs)
		w.Comments = domain.NonNil(w.Comments)
		if w.CreatedAt.IsZero() {
			w.CreatedAt = s.now()
		}
		if err := validateWorkItem(st, &w); err != nil {
			return err
		}
		w.Audit = append(domain.NonNil(w.Audit), domain.WorkItemAudit{Action: "created", CreatedAt: s.now()})
		workItems.insert(st, w)
		return nil
	})
	if err != nil {
		return domain.WorkItem{}, err
	}
	return detach(w), nil
}

// UpdateWorkItem applies fn to a copy of the item and appends an audit
// entry naming the status change, if any. The item cannot change project,
// and a mapped item cannot switch between agile and PMI types.
func (s *Store) UpdateWorkItem(ctx context.Context, id domain.WorkItemID, fn func(*domain.WorkItem) error) (domain.WorkItem, error) {
	var out domain.WorkItem
	err := s.mutate(ctx, "UpdateWorkItem", map[string]any{"work_item_id": id}, func(st *domain.State) error {
		cur, err := workItems.ref(st, id)
		if err != nil {
			return err
		}
		before := cur.Status
		projectID := cur.ProjectID
		kind := cur.Kind()
		out, err = workItems.update(st, id, func(w *domain.WorkItem) error {
			if err := fn(w); err != nil {
				return err
			}
			entry := domain.WorkItemAudit{Action: "updated", CreatedAt: s.now()}
			if w.Status != before {
				entry.Detail = fmt.Sprintf("status %s -> %s", before, w.Status)
			}
			w.Audit = append(w.Audit, entry)
			return nil
		}, func(w *domain.WorkItem) error {
			if w.ProjectID != projectID {
				return invalidf("work item %s cannot move to another project", id)
			}
			if w.Kind() != kind && mappings.count(st, func(m *domain.Mapping) bool { return m.References(id) }) > 0 {
				return invalidf("work item %s is mapped and cannot change from %s to %s", id, kind, w.Kind())
			}
			return validateWorkItem(st, w)
		})
		return err
	})
	return out, err
}

// AddComment appends a comment to the work item.
func (s *Store) AddComment(ctx context.Context, id domain.WorkItemID, userID domain.UserID, body string) (domain.WorkItem, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.WorkItem{}, invalidf("comment body is required")
	}
	var out domain.WorkItem
	err := s.mutate(ctx, "AddComment", map[string]any{"work_item_id": id}, func(st *domain.State) error {
		var err error
		out, err = workItems.update(st, id, func(w *domain.WorkItem) error {
			w.Comments = append(w.Comments, domain.Comment{UserID: userID, Body: body, CreatedAt: s.now()})
			return nil
		}, nil)
		return err
	})
	return out, err
}

// DeleteWorkItem removes the item, unlinks it from RAID entries and
// dependencies, orphans its children and drops its mappings.
func (s *Store) DeleteWorkItem(ctx context.Context, id domain.WorkItemID) error {
	return s.mutate(ctx, "DeleteWorkItem", map[string]any{"work_item_id": id}, func(st *domain.State) error {
		if !workItems.remove(st, id) {
			return workItems.notFound(id)
		}
		cascade(st, ref{kind: kindWorkItem, id: string(id)})
		return nil
	})
}

// Sprints

func (s *Store) FindSprint(id domain.SprintID) (domain.Sprint, bool) {
	var (
		sp domain.Sprint
		ok bool
	)
	s.view(func(st *domain.State) { sp, ok = sprints.find(st, id) })
	return sp, ok
}

func (s *Store) ListSprints(projectID domain.ProjectID) []domain.Sprint {
	var out []domain.Sprint
	s.view(func(st *domain.State) {
		out = sprints.list(st, func(sp *domain.Sprint) bool { return projectID == "" || sp.ProjectID == projectID })
	})
	return out
}

func validateSprint(st *domain.State, sp *domain.Sprint) error {
	if strings.TrimSpace(sp.Name) == "" {
		return invalidf("sprint name is required")
	}
	if !projects.exists(st, sp.ProjectID) {
		return invalidf("project %s does not exist", sp.ProjectID)
	}
	switch sp.Status {
	case domain.SprintPlanned, domain.SprintActive, domain.SprintCompleted:
	default:
		return invalidf("unknown sprint status %q", sp.Status)
	}
	return nil
}

func (s *Store) CreateSprint(ctx context.Context, sp domain.Sprint) (domain.Sprint, error) {
	err := s.mutate(ctx, "CreateSprint", map[string]any{"project_id": sp.ProjectID}, func(st *domain.State) error {
		sp.SprintID = domain.Coalesce(sp.SprintID, domain.SprintID(domain.NewID(domain.PrefixSprint)))
		if sprints.exists(st, sp.SprintID) {
			return invalidf("sprint %s already exists", sp.SprintID)
		}
		sp.Status = domain.Coalesce(sp.Status, domain.SprintPlanned)
		if sp.CreatedAt.IsZero() {
			sp.CreatedAt = s.now()
		}
		if err := validateSprint(st, &sp); err != nil {
			return err
		}
		sprints.insert(st, sp)
		return nil
	})
	if err != nil {
		return domain.Sprint{}, err
	}
	return sp, nil
}

func (s *Store) UpdateSprint(ctx context.Context, id domain.SprintID, fn func(*domain.Sprint) error) (domain.Sprint, error) {
	var out domain.Sprint
	err := s.mutate(ctx, "UpdateSprint", map[string]any{"sprint_id": id}, func(st *domain.State) error {
		var err error
		out, err = sprints.update(st, id, fn, func(sp *domain.Sprint) error { return validateSprint(st, sp) })
		return err
	})
	return out, err
}

// DeleteSprint removes the sprint; its work items return to the backlog.
func (s *Store) DeleteSprint(ctx context.Context, id domain.SprintID) error {
	return s.mutate(ctx, "DeleteSprint", map[string]any{"sprint_id": id}, func(st *domain.State) error {
		if !sprints.remove(st, id) {
			return sprints.notFound(id)
		}
		cascade(st, ref{kind: kindSprint, id: string(id)})
		return nil
	})
}

// Mappings

func (s *Store) ListMappings(projectID domain.ProjectID) []domain.Mapping {
	var out []domain.Mapping
	s.view(func(st *domain.State) {
		out = mappings.list(st, func(m *domain.Mapping) bool { return projectID == "" || m.ProjectID == projectID })
	})
	return out
}

// CreateMapping links an agile item to a PMI item of the same project. The
// project defaults to the agile item's.
func (s *Store) CreateMapping(ctx context.Context, m domain.Mapping) (domain.Mapping, error) {
	err := s.mutate(ctx, "CreateMapping", map[string]any{"agile": m.AgileWorkItemID, "pmi": m.PMIWorkItemID}, func(st *domain.State) error {
		agile, err := workItems.ref(st, m.AgileWorkItemID)
		if err != nil {
			return invalid(err)
		}
		pmi, err := workItems.ref(st, m.PMIWorkItemID)
		if err != nil {
			return invalid(err)
		}
		if agile.Kind() != domain.KindAgile {
			return invalidf("work item %s is %s, not an agile item", agile.WorkItemID, agile.WorkItemType)
		}
		if pmi.Kind() != domain.KindPMI {
			return invalidf("work item %s is %s, not a PMI item", pmi.WorkItemID, pmi.WorkItemType)
		}
		m.ProjectID = domain.Coalesce(m.ProjectID, agile.ProjectID)
		if agile.ProjectID != m.ProjectID || pmi.ProjectID != m.ProjectID {
			return invalidf("mapped work items must both belong to project %s", m.ProjectID)
		}
		dup := mappings.count(st, func(x *domain.Mapping) bool {
			return x.AgileWorkItemID == m.AgileWorkItemID && x.PMIWorkItemID == m.PMIWorkItemID
		})
		if dup > 0 {
			return invalidf("work items %s and %s are already mapped", m.AgileWorkItemID, m.PMIWorkItemID)
		}
		m.MappingID = domain.Coalesce(m.MappingID, domain.MappingID(domain.NewID(domain.PrefixMapping)))
		mappings.insert(st, m)
		return nil
	})
	if err != nil {
		return domain.Mapping{}, err
	}
	return m, nil
}

func (s *Store) DeleteMapping(ctx context.Context, id domain.MappingID) error {
	return s.mutate(ctx, "DeleteMapping", map[string]any{"mapping_id": id}, func(st *domain.State) error {
		if !mappings.remove(st, id) {
			return mappings.notFound(id)
		}
		return nil
	})
}

// RAID

// RaidFilter narrows ListRaid. Zero fields match everything.
type RaidFilter struct {
	Type     domain.RaidType
	Status   domain.RaidStatus
	Severity domain.Severity
}

func (f RaidFilter) match(r *domain.RaidEntry) bool {
	return (f.Type == "" || r.Type == f.Type) &&
		(f.Status == "" || r.Status == f.Status) &&
		(f.Severity == "" || r.Severity == f.Severity)
}

func (s *Store) FindRaidEntry(id domain.RaidID) (domain.RaidEntry, bool) {
	var (
		r  domain.RaidEntry
		ok bool
	)
	s.view(func(st *domain.State) { r, ok = raid.find(st, id) })
	return r, ok
}

func (s *Store) ListRaid(projectID domain.ProjectID, f RaidFilter) []domain.RaidEntry {
	var out []domain.RaidEntry
	s.view(func(st *domain.State) {
		out = raid.list(st, func(r *domain.RaidEntry) bool {
			return (projectID == "" || r.ProjectID == projectID) && f.match(r)
		})
	})
	return out
}

func validateRaid(st *domain.State, r *domain.RaidEntry) error {
	if strings.TrimSpace(r.Title) == "" {
		return invalidf("RAID title is required")
	}
	if !domain.ValidRaidTypes[r.Type] {
		return invalidf("unknown RAID type %q", r.Type)
	}
	if !projects.exists(st, r.ProjectID) {
		return invalidf("project %s does not exist", r.ProjectID)
	}
	if r.OwnerUserID != nil && !users.exists(st, *r.OwnerUserID) {
		return invalidf("owner %s does not exist", *r.OwnerUserID)
	}
	for _, id := range r.LinkedWorkItemIDs {
		if !workItems.exists(st, id) {
			return invalidf("linked work item %s does not exist", id)
		}
	}
	return nil
}

func (s *Store) CreateRaidEntry(ctx context.Context, r domain.RaidEntry) (domain.RaidEntry, error) {
	err := s.mutate(ctx, "CreateRaidEntry", map[string]any{"project_id": r.ProjectID, "type": r.Type}, func(st *domain.State) error {
		r.RaidID = domain.Coalesce(r.RaidID, domain.RaidID(domain.NewID(domain.PrefixRaid)))
		if raid.exists(st, r.RaidID) {
			return invalidf("RAID entry %s already exists", r.RaidID)
		}
		r.Status = domain.Coalesce(r.Status, domain.RaidOpen)
		r.Severity = domain.Coalesce(r.Severity, domain.SeverityMedium)
		r.LinkedWorkItemIDs = domain.NonNil(r.LinkedWorkItemIDs)
		if r.CreatedAt.IsZero() {
			r.CreatedAt = s.now()
		}
		if err := validateRaid(st, &r); err != nil {
			return err
		}
		raid.insert(st, r)
		return nil
	})
	if err != nil {
		return domain.RaidEntry{}, err
	}
	return detach(r), nil
}

func (s *Store) UpdateRaidEntry(ctx context.Context, id domain.RaidID, fn func(*domain.RaidEntry) error) (domain.RaidEntry, error) {
	var out domain.RaidEntry
	err := s.mutate(ctx, "UpdateRaidEntry", map[string]any{"raid_id": id}, func(st *domain.State) error {
		var err error
		out, err = raid.update(st, id, fn, func(r *domain.RaidEntry) error { return validateRaid(st, r) })
		return err
	})
	return out, err
}

// LinkRaid attaches a work item of the same project to a RAID entry.
// Linking twice is a no-op.
func (s *Store) LinkRaid(ctx context.Context, id domain.RaidID, workItemID domain.WorkItemID) (domain.RaidEntry, error) {
	return s.UpdateRaidEntry(ctx, id, func(r *domain.RaidEntry) error {
		w, ok := s.findWorkItemLocked(workItemID)
		if !ok {
			return invalidf("work item %s does not exist", workItemID)
		}
		if w.ProjectID != r.ProjectID {
			return invalidf("work item %s belongs to another project", workItemID)
		}
		if !contains(r.LinkedWorkItemIDs, workItemID) {
			r.LinkedWorkItemIDs = append(r.LinkedWorkItemIDs, workItemID)
		}
		return nil
	})
}

// UnlinkRaid detaches a work item from a RAID entry.
func (s *Store) UnlinkRaid(ctx context.Context, id domain.RaidID, workItemID domain.WorkItemID) (domain.RaidEntry, error) {
	return s.UpdateRaidEntry(ctx, id, func(r *domain.RaidEntry) error {
		r.LinkedWorkItemIDs = without(r.LinkedWorkItemIDs, workItemID)
		return nil
	})
}

// findWorkItemLocked reads the live state; the caller holds the lock.
func (s *Store) findWorkItemLocked(id domain.WorkItemID) (*domain.WorkItem, bool) {
	w, err := workItems.ref(s.state, id)
	return w, err == nil
}

func (s *Store) DeleteRaidEntry(ctx context.Context, id domain.RaidID) error {
	return s.mutate(ctx, "DeleteRaidEntry", map[string]any{"raid_id": id}, func(st *domain.State) error {
		if !raid.remove(st, id) {
			return raid.notFound(id)
		}
		return nil
	})
}
