package store

import (
	"github.com/alexanderramin/delegate/internal/domain"
)

type entityKind string

const (
	kindProject     entityKind = "project"
	kindTask        entityKind = "task"
	kindTaskNode    entityKind = "taskNode"
	kindContract    entityKind = "contract"
	kindWorkItem    entityKind = "workItem"
	kindSprint      entityKind = "sprint"
	kindRole        entityKind = "role"
	kindUser        entityKind = "user"
	kindWorkSession entityKind = "workSession"
	kindForumThread entityKind = "forumThread"
	kindChatThread  entityKind = "chatThread"
	kindSkill       entityKind = "skill"
)

// ref names one deleted record whose own dependents still need handling.
type ref struct {
	kind entityKind
	id   string
}

type cascadeAction string

const (
	actionDelete cascadeAction = "delete"
	actionNull   cascadeAction = "null"
	actionPull   cascadeAction = "remove id"
)

// edge is one row of the dependency graph. apply updates the dependents of
// the deleted record id and returns any records it deleted.
type edge struct {
	dependent string
	action    cascadeAction
	apply     func(st *domain.State, id string) []ref
}

// cascades is the full dependency graph, keyed by the kind of the deleted
// record.
var cascades = map[entityKind][]edge{
	kindProject: {
		{"tasks", actionDelete, func(st *domain.State, id string) []ref {
			return refs(kindTask, tasks.removeWhere(st, func(t *domain.Task) bool { return string(t.ProjectID) == id }))
		}},
		{"workItems", actionDelete, func(st *domain.State, id string) []ref {
			return refs(kindWorkItem, workItems.removeWhere(st, func(w *domain.WorkItem) bool { return string(w.ProjectID) == id }))
		}},
		{"sprints", actionDelete, func(st *domain.State, id string) []ref {
			return refs(kindSprint, sprints.removeWhere(st, func(s *domain.Sprint) bool { return string(s.ProjectID) == id }))
		}},
		{"roles", actionDelete, func(st *domain.State, id string) []ref {
			return refs(kindRole, roles.removeWhere(st, func(r *domain.Role) bool { return string(r.ProjectID) == id }))
		}},
		{"roleAssignments", actionDelete, func(st *domain.State, id string) []ref {
			roleAssignments.removeWhere(st, func(a *domain.RoleAssignment) bool { return string(a.ProjectID) == id })
			return nil
		}},
		{"raid", actionDelete, func(st *domain.State, id string) []ref {
			raid.removeWhere(st, func(r *domain.RaidEntry) bool { return string(r.ProjectID) == id })
			return nil
		}},
		{"mappings", actionDelete, func(st *domain.State, id string) []ref {
			mappings.removeWhere(st, func(m *domain.Mapping) bool { return string(m.ProjectID) == id })
			return nil
		}},
		{"features.perProject", actionDelete, func(st *domain.State, id string) []ref {
			delete(st.Features.PerProject, domain.ProjectID(id))
			return nil
		}},
		{"forumThreads.projectId", actionNull, func(st *domain.State, id string) []ref {
			forumThreads.each(st, func(t *domain.ForumThread) { t.ProjectID = nullIf(t.ProjectID, domain.ProjectID(id)) })
			return nil
		}},
		{"meetings.projectId", actionNull, func(st *domain.State, id string) []ref {
			meetings.each(st, func(m *domain.Meeting) { m.ProjectID = nullIf(m.ProjectID, domain.ProjectID(id)) })
			return nil
		}},
		{"deadlines.projectId", actionNull, func(st *domain.State, id string) []ref {
			deadlines.each(st, func(d *domain.Deadline) { d.ProjectID = nullIf(d.ProjectID, domain.ProjectID(id)) })
			return nil
		}},
	},
	kindTask: {
		{"tasks.parentTaskId", actionNull, func(st *domain.State, id string) []ref {
			tasks.each(st, func(t *domain.Task) { t.ParentTaskID = nullIf(t.ParentTaskID, domain.TaskID(id)) })
			return nil
		}},
		{"taskAssignments", actionDelete, func(st *domain.State, id string) []ref {
			taskAssignments.removeWhere(st, func(a *domain.TaskAssignment) bool {
				return a.TaskID != nil && string(*a.TaskID) == id
			})
			return nil
		}},
	},
	kindTaskNode: {
		{"taskNodes.parentTaskNodeId", actionNull, func(st *domain.State, id string) []ref {
			taskNodes.each(st, func(n *domain.TaskNode) {
				n.ParentTaskNodeID = nullIf(n.ParentTaskNodeID, domain.TaskNodeID(id))
			})
			return nil
		}},
		{"taskAssignments", actionDelete, func(st *domain.State, id string) []ref {
			taskAssignments.removeWhere(st, func(a *domain.TaskAssignment) bool {
				return a.TaskNodeID != nil && string(*a.TaskNodeID) == id
			})
			return nil
		}},
		{"timeEntries.taskNodeId", actionNull, func(st *domain.State, id string) []ref {
			timeEntries.each(st, func(e *domain.TimeEntry) { e.TaskNodeID = nullIf(e.TaskNodeID, domain.TaskNodeID(id)) })
			return nil
		}},
		{"workSessions.taskNodeId", actionNull, func(st *domain.State, id string) []ref {
			workSessions.each(st, func(w *domain.WorkSession) { w.TaskNodeID = nullIf(w.TaskNodeID, domain.TaskNodeID(id)) })
			return nil
		}},
	},
	kindContract: {
		{"taskNodes", actionDelete, func(st *domain.State, id string) []ref {
			return refs(kindTaskNode, taskNodes.removeWhere(st, func(n *domain.TaskNode) bool {
				return n.ContractID != nil && string(*n.ContractID) == id
			}))
		}},
		{"timeEntries.contractId", actionNull, func(st *domain.State, id string) []ref {
			timeEntries.each(st, func(e *domain.TimeEntry) { e.ContractID = nullIf(e.ContractID, domain.ContractID(id)) })
			return nil
		}},
	},
	kindWorkItem: {
		{"workItems.parentWorkItemId", actionNull, func(st *domain.State, id string) []ref {
			workItems.each(st, func(w *domain.WorkItem) {
				w.ParentWorkItemID = nullIf(w.ParentWorkItemID, domain.WorkItemID(id))
			})
			return nil
		}},
		{"workItems.dependencyIds", actionPull, func(st *domain.State, id string) []ref {
			workItems.each(st, func(w *domain.WorkItem) { w.DependencyIDs = without(w.DependencyIDs, domain.WorkItemID(id)) })
			return nil
		}},
		{"raid.linkedWorkItemIds", actionPull, func(st *domain.State, id string) []ref {
			raid.each(st, func(r *domain.RaidEntry) {
				r.LinkedWorkItemIDs = without(r.LinkedWorkItemIDs, domain.WorkItemID(id))
			})
			return nil
		}},
		{"mappings", actionDelete, func(st *domain.State, id string) []ref {
			mappings.removeWhere(st, func(m *domain.Mapping) bool { return m.References(domain.WorkItemID(id)) })
			return nil
		}},
	},
	kindSprint: {
		{"workItems.sprintId", actionNull, func(st *domain.State, id string) []ref {
			workItems.each(st, func(w *domain.WorkItem) { w.SprintID = nullIf(w.SprintID, domain.SprintID(id)) })
			return nil
		}},
	},
	kindRole: {
		{"roles.parentRoleId", actionNull, func(st *domain.State, id string) []ref {
			roles.each(st, func(r *domain.Role) { r.ParentRoleID = nullIf(r.ParentRoleID, domain.RoleID(id)) })
			return nil
		}},
		{"roleAssignments", actionDelete, func(st *domain.State, id string) []ref {
			roleAssignments.removeWhere(st, func(a *domain.RoleAssignment) bool { return string(a.RoleID) == id })
			return nil
		}},
	},
	kindUser: {
		{"roleAssignments", actionDelete, func(st *domain.State, id string) []ref {
			roleAssignments.removeWhere(st, func(a *domain.RoleAssignment) bool { return string(a.UserID) == id })
			return nil
		}},
		{"taskAssignments", actionDelete, func(st *domain.State, id string) []ref {
			taskAssignments.removeWhere(st, func(a *domain.TaskAssignment) bool { return string(a.UserID) == id })
			return nil
		}},
		{"userSkills", actionDelete, func(st *domain.State, id string) []ref {
			userSkills.removeWhere(st, func(u *domain.UserSkill) bool { return string(u.UserID) == id })
			return nil
		}},
		{"notifications", actionDelete, func(st *domain.State, id string) []ref {
			notifications.removeWhere(st, func(n *domain.Notification) bool { return string(n.UserID) == id })
			return nil
		}},
		{"ptoEntries", actionDelete, func(st *domain.State, id string) []ref {
			ptoEntries.removeWhere(st, func(p *domain.PtoEntry) bool { return string(p.UserID) == id })
			return nil
		}},
		{"tasks.assigneeUserIds", actionPull, func(st *domain.State, id string) []ref {
			tasks.each(st, func(t *domain.Task) { t.AssigneeUserIDs = without(t.AssigneeUserIDs, domain.UserID(id)) })
			return nil
		}},
		{"workItems.raci", actionPull, func(st *domain.State, id string) []ref {
			uid := domain.UserID(id)
			workItems.each(st, func(w *domain.WorkItem) {
				w.RACI.ResponsibleUserIDs = without(w.RACI.ResponsibleUserIDs, uid)
				w.RACI.ConsultedUserIDs = without(w.RACI.ConsultedUserIDs, uid)
				w.RACI.InformedUserIDs = without(w.RACI.InformedUserIDs, uid)
				w.RACI.AccountableUserID = nullIf(w.RACI.AccountableUserID, uid)
			})
			return nil
		}},
		{"raid.ownerUserId", actionNull, func(st *domain.State, id string) []ref {
			raid.each(st, func(r *domain.RaidEntry) { r.OwnerUserID = nullIf(r.OwnerUserID, domain.UserID(id)) })
			return nil
		}},
		{"chatThreads.memberUserIds", actionPull, func(st *domain.State, id string) []ref {
			chatThreads.each(st, func(c *domain.ChatThread) { c.MemberUserIDs = without(c.MemberUserIDs, domain.UserID(id)) })
			return nil
		}},
		{"meetings.attendeeUserIds", actionPull, func(st *domain.State, id string) []ref {
			meetings.each(st, func(m *domain.Meeting) { m.AttendeeUserIDs = without(m.AttendeeUserIDs, domain.UserID(id)) })
			return nil
		}},
	},
	kindWorkSession: {
		{"workSessionEvents", actionDelete, func(st *domain.State, id string) []ref {
			workSessionEvents.removeWhere(st, func(e *domain.WorkSessionEvent) bool { return string(e.WorkSessionID) == id })
			return nil
		}},
	},
	kindForumThread: {
		{"forumPosts", actionDelete, func(st *domain.State, id string) []ref {
			forumPosts.removeWhere(st, func(p *domain.ForumPost) bool { return string(p.ForumThreadID) == id })
			return nil
		}},
	},
	kindChatThread: {
		{"chatMessages", actionDelete, func(st *domain.State, id string) []ref {
			chatMessages.removeWhere(st, func(m *domain.ChatMessage) bool { return string(m.ChatThreadID) == id })
			return nil
		}},
	},
	kindSkill: {
		{"userSkills", actionDelete, func(st *domain.State, id string) []ref {
			userSkills.removeWhere(st, func(u *domain.UserSkill) bool { return string(u.SkillID) == id })
			return nil
		}},
	},
}

// cascade applies the graph starting from a record the caller has already
// removed. Records deleted along the way are processed in turn.
func cascade(st *domain.State, root ref) {
	queue := []ref{root}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		for _, e := range cascades[r.kind] {
			queue = append(queue, e.apply(st, r.id)...)
		}
	}
}

func refs[ID ~string](kind entityKind, ids []ID) []ref {
	out := make([]ref, 0, len(ids))
	for _, id := range ids {
		out = append(out, ref{kind: kind, id: string(id)})
	}
	return out
}

// nullIf returns nil when p points at id, p otherwise.
func nullIf[ID comparable](p *ID, id ID) *ID {
	if p != nil && *p == id {
		return nil
	}
	return p
}

// without returns s minus every occurrence of v. The result is never nil.
func without[T comparable](s []T, v T) []T {
	out := make([]T, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func contains[T comparable](s []T, v T) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
