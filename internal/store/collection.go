package store

import (
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/delegate/internal/domain"
)

// collection binds one State slice to its ID field so lookup, update and
// removal are written once. All methods expect the store lock to be held.
type collection[T any, ID ~string] struct {
	name  string
	items func(*domain.State) *[]T
	id    func(*T) *ID
}

func (c collection[T, ID]) indexOf(st *domain.State, id ID) int {
	items := *c.items(st)
	for i := range items {
		if *c.id(&items[i]) == id {
			return i
		}
	}
	return -1
}

func (c collection[T, ID]) exists(st *domain.State, id ID) bool {
	return c.indexOf(st, id) >= 0
}

// ref returns a pointer into the live slice. It is only valid until the
// slice is next modified.
func (c collection[T, ID]) ref(st *domain.State, id ID) (*T, error) {
	i := c.indexOf(st, id)
	if i < 0 {
		return nil, c.notFound(id)
	}
	return &(*c.items(st))[i], nil
}

// find returns a detached copy of the record.
func (c collection[T, ID]) find(st *domain.State, id ID) (T, bool) {
	i := c.indexOf(st, id)
	if i < 0 {
		var zero T
		return zero, false
	}
	return detach((*c.items(st))[i]), true
}

func (c collection[T, ID]) get(st *domain.State, id ID) (*T, error) {
	v, ok := c.find(st, id)
	if !ok {
		return nil, c.notFound(id)
	}
	return &v, nil
}

// list returns detached copies of every record keep accepts. A nil keep
// accepts all. The result is never nil.
func (c collection[T, ID]) list(st *domain.State, keep func(*T) bool) []T {
	items := *c.items(st)
	out := make([]T, 0, len(items))
	for i := range items {
		if keep == nil || keep(&items[i]) {
			out = append(out, detach(items[i]))
		}
	}
	return out
}

func (c collection[T, ID]) insert(st *domain.State, v T) {
	p := c.items(st)
	*p = append(*p, v)
}

// update applies fn to a copy of the record, restores its ID, runs
// validate and only then writes the copy back.
func (c collection[T, ID]) update(st *domain.State, id ID, fn func(*T) error, validate func(*T) error) (T, error) {
	var zero T
	i := c.indexOf(st, id)
	if i < 0 {
		return zero, c.notFound(id)
	}
	items := *c.items(st)
	cp := detach(items[i])
	if err := fn(&cp); err != nil {
		return zero, err
	}
	*c.id(&cp) = id
	if validate != nil {
		if err := validate(&cp); err != nil {
			return zero, err
		}
	}
	items[i] = cp
	return detach(cp), nil
}

func (c collection[T, ID]) remove(st *domain.State, id ID) bool {
	removed := c.removeWhere(st, func(v *T) bool { return *c.id(v) == id })
	return len(removed) > 0
}

// removeWhere drops every record pred matches and returns their IDs.
func (c collection[T, ID]) removeWhere(st *domain.State, pred func(*T) bool) []ID {
	p := c.items(st)
	kept := (*p)[:0]
	var removed []ID
	for i := range *p {
		if pred(&(*p)[i]) {
			removed = append(removed, *c.id(&(*p)[i]))
			continue
		}
		kept = append(kept, (*p)[i])
	}
	var zero T
	for i := len(kept); i < len(*p); i++ {
		(*p)[i] = zero
	}
	*p = kept
	return removed
}

// count returns how many records pred matches.
func (c collection[T, ID]) count(st *domain.State, pred func(*T) bool) int {
	n := 0
	items := *c.items(st)
	for i := range items {
		if pred(&items[i]) {
			n++
		}
	}
	return n
}

// each calls fn on every live record.
func (c collection[T, ID]) each(st *domain.State, fn func(*T)) {
	items := *c.items(st)
	for i := range items {
		fn(&items[i])
	}
}

func (c collection[T, ID]) notFound(id ID) error {
	return fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
}

// detach deep-copies v so callers never share slices or pointers with the
// live state. Records are plain JSON data, the same encoding Save writes, so
// a round-trip failure is a broken record type and panics rather than
// handing back an aliased value.
func detach[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("detach %T: %v", v, err))
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("detach %T: %v", v, err))
	}
	return out
}

var (
	tenants = collection[domain.Tenant, domain.TenantID]{"tenant",
		func(s *domain.State) *[]domain.Tenant { return &s.Tenants },
		func(v *domain.Tenant) *domain.TenantID { return &v.TenantID }}
	users = collection[domain.User, domain.UserID]{"user",
		func(s *domain.State) *[]domain.User { return &s.Users },
		func(v *domain.User) *domain.UserID { return &v.UserID }}
	projects = collection[domain.Project, domain.ProjectID]{"project",
		func(s *domain.State) *[]domain.Project { return &s.Projects },
		func(v *domain.Project) *domain.ProjectID { return &v.ProjectID }}
	tasks = collection[domain.Task, domain.TaskID]{"task",
		func(s *domain.State) *[]domain.Task { return &s.Tasks },
		func(v *domain.Task) *domain.TaskID { return &v.TaskID }}
	taskNodes = collection[domain.TaskNode, domain.TaskNodeID]{"task node",
		func(s *domain.State) *[]domain.TaskNode { return &s.TaskNodes },
		func(v *domain.TaskNode) *domain.TaskNodeID { return &v.TaskNodeID }}
	taskAssignments = collection[domain.TaskAssignment, domain.TaskAssignmentID]{"task assignment",
		func(s *domain.State) *[]domain.TaskAssignment { return &s.TaskAssignments },
		func(v *domain.TaskAssignment) *domain.TaskAssignmentID { return &v.TaskAssignmentID }}
	workItems = collection[domain.WorkItem, domain.WorkItemID]{"work item",
		func(s *domain.State) *[]domain.WorkItem { return &s.WorkItems },
		func(v *domain.WorkItem) *domain.WorkItemID { return &v.WorkItemID }}
	sprints = collection[domain.Sprint, domain.SprintID]{"sprint",
		func(s *domain.State) *[]domain.Sprint { return &s.Sprints },
		func(v *domain.Sprint) *domain.SprintID { return &v.SprintID }}
	roles = collection[domain.Role, domain.RoleID]{"role",
		func(s *domain.State) *[]domain.Role { return &s.Roles },
		func(v *domain.Role) *domain.RoleID { return &v.RoleID }}
	roleAssignments = collection[domain.RoleAssignment, domain.RoleAssignmentID]{"role assignment",
		func(s *domain.State) *[]domain.RoleAssignment { return &s.RoleAssignments },
		func(v *domain.RoleAssignment) *domain.RoleAssignmentID { return &v.AssignmentID }}
	raid = collection[domain.RaidEntry, domain.RaidID]{"raid entry",
		func(s *domain.State) *[]domain.RaidEntry { return &s.Raid },
		func(v *domain.RaidEntry) *domain.RaidID { return &v.RaidID }}
	mappings = collection[domain.Mapping, domain.MappingID]{"mapping",
		func(s *domain.State) *[]domain.Mapping { return &s.Mappings },
		func(v *domain.Mapping) *domain.MappingID { return &v.MappingID }}
	contracts = collection[domain.Contract, domain.ContractID]{"contract",
		func(s *domain.State) *[]domain.Contract { return &s.Contracts },
		func(v *domain.Contract) *domain.ContractID { return &v.ContractID }}
	timeEntries = collection[domain.TimeEntry, domain.TimeEntryID]{"time entry",
		func(s *domain.State) *[]domain.TimeEntry { return &s.TimeEntries },
		func(v *domain.TimeEntry) *domain.TimeEntryID { return &v.TimeEntryID }}
	workSessions = collection[domain.WorkSession, domain.WorkSessionID]{"work session",
		func(s *domain.State) *[]domain.WorkSession { return &s.WorkSessions },
		func(v *domain.WorkSession) *domain.WorkSessionID { return &v.WorkSessionID }}
	workSessionEvents = collection[domain.WorkSessionEvent, domain.WorkSessionEventID]{"work session event",
		func(s *domain.State) *[]domain.WorkSessionEvent { return &s.WorkSessionEvents },
		func(v *domain.WorkSessionEvent) *domain.WorkSessionEventID { return &v.WorkSessionEventID }}
	notifications = collection[domain.Notification, domain.NotificationID]{"notification",
		func(s *domain.State) *[]domain.Notification { return &s.Notifications },
		func(v *domain.Notification) *domain.NotificationID { return &v.NotificationID }}
	forumThreads = collection[domain.ForumThread, domain.ForumThreadID]{"forum thread",
		func(s *domain.State) *[]domain.ForumThread { return &s.ForumThreads },
		func(v *domain.ForumThread) *domain.ForumThreadID { return &v.ForumThreadID }}
	forumPosts = collection[domain.ForumPost, domain.ForumPostID]{"forum post",
		func(s *domain.State) *[]domain.ForumPost { return &s.ForumPosts },
		func(v *domain.ForumPost) *domain.ForumPostID { return &v.ForumPostID }}
	chatThreads = collection[domain.ChatThread, domain.ChatThreadID]{"chat thread",
		func(s *domain.State) *[]domain.ChatThread { return &s.ChatThreads },
		func(v *domain.ChatThread) *domain.ChatThreadID { return &v.ChatThreadID }}
	chatMessages = collection[domain.ChatMessage, domain.ChatMessageID]{"chat message",
		func(s *domain.State) *[]domain.ChatMessage { return &s.ChatMessages },
		func(v *domain.ChatMessage) *domain.ChatMessageID { return &v.ChatMessageID }}
	meetings = collection[domain.Meeting, domain.MeetingID]{"meeting",
		func(s *domain.State) *[]domain.Meeting { return &s.Meetings },
		func(v *domain.Meeting) *domain.MeetingID { return &v.MeetingID }}
	deadlines = collection[domain.Deadline, domain.DeadlineID]{"deadline",
		func(s *domain.State) *[]domain.Deadline { return &s.Deadlines },
		func(v *domain.Deadline) *domain.DeadlineID { return &v.DeadlineID }}
	ptoEntries = collection[domain.PtoEntry, domain.PtoEntryID]{"pto entry",
		func(s *domain.State) *[]domain.PtoEntry { return &s.PtoEntries },
		func(v *domain.PtoEntry) *domain.PtoEntryID { return &v.PtoEntryID }}
	auditLogs = collection[domain.AuditLog, domain.AuditLogID]{"audit log",
		func(s *domain.State) *[]domain.AuditLog { return &s.AuditLogs },
		func(v *domain.AuditLog) *domain.AuditLogID { return &v.AuditLogID }}
	skills = collection[domain.Skill, domain.SkillID]{"skill",
		func(s *domain.State) *[]domain.Skill { return &s.Skills },
		func(v *domain.Skill) *domain.SkillID { return &v.SkillID }}
	userSkills = collection[domain.UserSkill, domain.UserSkillID]{"user skill",
		func(s *domain.State) *[]domain.UserSkill { return &s.UserSkills },
		func(v *domain.UserSkill) *domain.UserSkillID { return &v.UserSkillID }}
)
