package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
	"github.com/alexanderramin/delegate/internal/testutil"
)

// dangling lists every foreign key in st that names a missing record.
func dangling(st *domain.State) []string {
	var out []string
	miss := func(format string, args ...any) { out = append(out, fmt.Sprintf(format, args...)) }

	has := struct {
		users     map[domain.UserID]bool
		projects  map[domain.ProjectID]bool
		tasks     map[domain.TaskID]bool
		nodes     map[domain.TaskNodeID]bool
		items     map[domain.WorkItemID]bool
		sprints   map[domain.SprintID]bool
		roles     map[domain.RoleID]bool
		contracts map[domain.ContractID]bool
		sessions  map[domain.WorkSessionID]bool
		threads   map[domain.ForumThreadID]bool
		chats     map[domain.ChatThreadID]bool
		skills    map[domain.SkillID]bool
	}{
		map[domain.UserID]bool{}, map[domain.ProjectID]bool{}, map[domain.TaskID]bool{},
		map[domain.TaskNodeID]bool{}, map[domain.WorkItemID]bool{}, map[domain.SprintID]bool{},
		map[domain.RoleID]bool{}, map[domain.ContractID]bool{}, map[domain.WorkSessionID]bool{},
		map[domain.ForumThreadID]bool{}, map[domain.ChatThreadID]bool{}, map[domain.SkillID]bool{},
	}
	for _, u := range st.Users {
		has.users[u.UserID] = true
	}
	for _, p := range st.Projects {
		has.projects[p.ProjectID] = true
	}
	for _, t := range st.Tasks {
		has.tasks[t.TaskID] = true
	}
	for _, n := range st.TaskNodes {
		has.nodes[n.TaskNodeID] = true
	}
	for _, w := range st.WorkItems {
		has.items[w.WorkItemID] = true
	}
	for _, s := range st.Sprints {
		has.sprints[s.SprintID] = true
	}
	for _, r := range st.Roles {
		has.roles[r.RoleID] = true
	}
	for _, c := range st.Contracts {
		has.contracts[c.ContractID] = true
	}
	for _, s := range st.WorkSessions {
		has.sessions[s.WorkSessionID] = true
	}
	for _, f := range st.ForumThreads {
		has.threads[f.ForumThreadID] = true
	}
	for _, c := range st.ChatThreads {
		has.chats[c.ChatThreadID] = true
	}
	for _, k := range st.Skills {
		has.skills[k.SkillID] = true
	}

	for _, t := range st.Tasks {
		if !has.projects[t.ProjectID] {
			miss("task %s -> project %s", t.TaskID, t.ProjectID)
		}
		if t.ParentTaskID != nil && !has.tasks[*t.ParentTaskID] {
			miss("task %s -> parent %s", t.TaskID, *t.ParentTaskID)
		}
		for _, u := range t.AssigneeUserIDs {
			if !has.users[u] {
				miss("task %s -> assignee %s", t.TaskID, u)
			}
		}
	}
	for _, a := range st.TaskAssignments {
		if a.TaskID != nil && !has.tasks[*a.TaskID] {
			miss("assignment %s -> task %s", a.TaskAssignmentID, *a.TaskID)
		}
		if a.TaskNodeID != nil && !has.nodes[*a.TaskNodeID] {
			miss("assignment %s -> node %s", a.TaskAssignmentID, *a.TaskNodeID)
		}
		if !has.users[a.UserID] {
			miss("assignment %s -> user %s", a.TaskAssignmentID, a.UserID)
		}
	}
	for _, n := range st.TaskNodes {
		if n.ParentTaskNodeID != nil && !has.nodes[*n.ParentTaskNodeID] {
			miss("node %s -> parent %s", n.TaskNodeID, *n.ParentTaskNodeID)
		}
		if n.ContractID != nil && !has.contracts[*n.ContractID] {
			miss("node %s -> contract %s", n.TaskNodeID, *n.ContractID)
		}
	}
	for _, w := range st.WorkItems {
		if !has.projects[w.ProjectID] {
			miss("work item %s -> project %s", w.WorkItemID, w.ProjectID)
		}
		if w.ParentWorkItemID != nil && !has.items[*w.ParentWorkItemID] {
			miss("work item %s -> parent %s", w.WorkItemID, *w.ParentWorkItemID)
		}
		if w.SprintID != nil && !has.sprints[*w.SprintID] {
			miss("work item %s -> sprint %s", w.WorkItemID, *w.SprintID)
		}
		for _, d := range w.DependencyIDs {
			if !has.items[d] {
				miss("work item %s -> dependency %s", w.WorkItemID, d)
			}
		}
		raci := append(append(append([]domain.UserID{}, w.RACI.ResponsibleUserIDs...), w.RACI.ConsultedUserIDs...), w.RACI.InformedUserIDs...)
		if w.RACI.AccountableUserID != nil {
			raci = append(raci, *w.RACI.AccountableUserID)
		}
		for _, u := range raci {
			if !has.users[u] {
				miss("work item %s -> RACI user %s", w.WorkItemID, u)
			}
		}
	}
	for _, s := range st.Sprints {
		if !has.projects[s.ProjectID] {
			miss("sprint %s -> project %s", s.SprintID, s.ProjectID)
		}
	}
	for _, r := range st.Roles {
		if !has.projects[r.ProjectID] {
			miss("role %s -> project %s", r.RoleID, r.ProjectID)
		}
		if r.ParentRoleID != nil && !has.roles[*r.ParentRoleID] {
			miss("role %s -> parent %s", r.RoleID, *r.ParentRoleID)
		}
	}
	for _, a := range st.RoleAssignments {
		if !has.roles[a.RoleID] || !has.projects[a.ProjectID] || !has.users[a.UserID] {
			miss("role assignment %s", a.AssignmentID)
		}
	}
	for _, r := range st.Raid {
		if !has.projects[r.ProjectID] {
			miss("raid %s -> project %s", r.RaidID, r.ProjectID)
		}
		if r.OwnerUserID != nil && !has.users[*r.OwnerUserID] {
			miss("raid %s -> owner %s", r.RaidID, *r.OwnerUserID)
		}
		for _, id := range r.LinkedWorkItemIDs {
			if !has.items[id] {
				miss("raid %s -> work item %s", r.RaidID, id)
			}
		}
	}
	for _, m := range st.Mappings {
		if !has.projects[m.ProjectID] || !has.items[m.AgileWorkItemID] || !has.items[m.PMIWorkItemID] {
			miss("mapping %s", m.MappingID)
		}
	}
	for _, e := range st.TimeEntries {
		if e.TaskNodeID != nil && !has.nodes[*e.TaskNodeID] {
			miss("time entry %s -> node %s", e.TimeEntryID, *e.TaskNodeID)
		}
		if e.ContractID != nil && !has.contracts[*e.ContractID] {
			miss("time entry %s -> contract %s", e.TimeEntryID, *e.ContractID)
		}
	}
	for _, s := range st.WorkSessions {
		if s.TaskNodeID != nil && !has.nodes[*s.TaskNodeID] {
			miss("session %s -> node %s", s.WorkSessionID, *s.TaskNodeID)
		}
	}
	for _, ev := range st.WorkSessionEvents {
		if !has.sessions[ev.WorkSessionID] {
			miss("session event %s -> session %s", ev.WorkSessionEventID, ev.WorkSessionID)
		}
	}
	for _, f := range st.ForumThreads {
		if f.ProjectID != nil && !has.projects[*f.ProjectID] {
			miss("forum thread %s -> project %s", f.ForumThreadID, *f.ProjectID)
		}
	}
	for _, p := range st.ForumPosts {
		if !has.threads[p.ForumThreadID] {
			miss("forum post %s -> thread %s", p.ForumPostID, p.ForumThreadID)
		}
	}
	for _, c := range st.ChatThreads {
		for _, u := range c.MemberUserIDs {
			if !has.users[u] {
				miss("chat thread %s -> member %s", c.ChatThreadID, u)
			}
		}
	}
	for _, m := range st.ChatMessages {
		if !has.chats[m.ChatThreadID] {
			miss("chat message %s -> thread %s", m.ChatMessageID, m.ChatThreadID)
		}
	}
	for _, m := range st.Meetings {
		if m.ProjectID != nil && !has.projects[*m.ProjectID] {
			miss("meeting %s -> project %s", m.MeetingID, *m.ProjectID)
		}
		for _, u := range m.AttendeeUserIDs {
			if !has.users[u] {
				miss("meeting %s -> attendee %s", m.MeetingID, u)
			}
		}
	}
	for _, d := range st.Deadlines {
		if d.ProjectID != nil && !has.projects[*d.ProjectID] {
			miss("deadline %s -> project %s", d.DeadlineID, *d.ProjectID)
		}
	}
	for _, us := range st.UserSkills {
		if !has.users[us.UserID] || !has.skills[us.SkillID] {
			miss("user skill %s", us.UserSkillID)
		}
	}
	for _, n := range st.Notifications {
		if !has.users[n.UserID] {
			miss("notification %s -> user %s", n.NotificationID, n.UserID)
		}
	}
	for _, p := range st.PtoEntries {
		if !has.users[p.UserID] {
			miss("pto %s -> user %s", p.PtoEntryID, p.UserID)
		}
	}
	for id := range st.Features.PerProject {
		if !has.projects[id] {
			miss("feature overrides -> project %s", id)
		}
	}
	return out
}

func assertNoDangling(t *testing.T, ts *testutil.TestStore) {
	t.Helper()
	st, err := ts.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, dangling(st))
}

var fixtureUsers = []domain.UserID{testutil.AdminID, testutil.WorkerID, testutil.ApproverID}

// populateProject builds a project with m tasks, n task assignments spread
// over them and k RAID entries each linked to its own work item, plus one
// of every other project-scoped record.
func populateProject(t *testing.T, ts *testutil.TestStore, n, m, k int) domain.Project {
	t.Helper()
	ctx := context.Background()

	p, err := ts.CreateProject(ctx, testutil.NewTestProject("Populated"))
	require.NoError(t, err)

	var taskIDs []domain.TaskID
	for i := 0; i < m; i++ {
		task := domain.Task{ProjectID: p.ProjectID, Title: fmt.Sprintf("task %d", i), AssigneeUserIDs: []domain.UserID{testutil.WorkerID}}
		if i > 0 {
			task.ParentTaskID = &taskIDs[0]
		}
		created, err := ts.CreateTask(ctx, task)
		require.NoError(t, err)
		taskIDs = append(taskIDs, created.TaskID)
	}
	for i := 0; i < n; i++ {
		taskID := taskIDs[i%m]
		_, err := ts.AssignTask(ctx, domain.TaskAssignment{UserID: fixtureUsers[(i/m)%len(fixtureUsers)], TaskID: &taskID})
		require.NoError(t, err)
	}

	sprint, err := ts.CreateSprint(ctx, domain.Sprint{ProjectID: p.ProjectID, Name: "Sprint 1"})
	require.NoError(t, err)
	story, err := ts.CreateWorkItem(ctx, testutil.NewTestWorkItem(p.ProjectID, "story", domain.WorkItemStory, testutil.WithSprint(sprint.SprintID)))
	require.NoError(t, err)
	pkg, err := ts.CreateWorkItem(ctx, testutil.NewTestWorkItem(p.ProjectID, "package", domain.WorkItemWorkPackage))
	require.NoError(t, err)
	_, err = ts.CreateMapping(ctx, domain.Mapping{AgileWorkItemID: story.WorkItemID, PMIWorkItemID: pkg.WorkItemID})
	require.NoError(t, err)

	for i := 0; i < k; i++ {
		w, err := ts.CreateWorkItem(ctx, testutil.NewTestWorkItem(p.ProjectID, fmt.Sprintf("risky %d", i), domain.WorkItemTask))
		require.NoError(t, err)
		_, err = ts.CreateRaidEntry(ctx, domain.RaidEntry{
			ProjectID: p.ProjectID, Type: domain.RaidRisk, Title: fmt.Sprintf("risk %d", i),
			LinkedWorkItemIDs: []domain.WorkItemID{w.WorkItemID, story.WorkItemID},
		})
		require.NoError(t, err)
	}

	lead, err := ts.CreateRole(ctx, domain.Role{ProjectID: p.ProjectID, Name: "Lead", IsLeadership: true})
	require.NoError(t, err)
	_, err = ts.CreateRole(ctx, domain.Role{ProjectID: p.ProjectID, Name: "Dev", ParentRoleID: &lead.RoleID})
	require.NoError(t, err)
	_, err = ts.AssignRole(ctx, lead.RoleID, testutil.WorkerID)
	require.NoError(t, err)

	require.NoError(t, ts.SetProjectFlag(ctx, p.ProjectID, "raid", false))
	_, err = ts.CreateForumThread(ctx, domain.ForumThread{TenantID: testutil.TenantID, ProjectID: &p.ProjectID, Title: "Kickoff", CreatedByUserID: testutil.AdminID})
	require.NoError(t, err)
	return p
}

func TestDeleteProject_LeavesNoDanglingReferences(t *testing.T) {
	sizes := []struct{ n, m, k int }{
		{0, 0, 0}, {0, 1, 0}, {1, 1, 1}, {3, 1, 0}, {0, 3, 3}, {5, 3, 1}, {9, 3, 3},
	}
	for _, sz := range sizes {
		t.Run(fmt.Sprintf("N=%d,M=%d,K=%d", sz.n, sz.m, sz.k), func(t *testing.T) {
			ts := testutil.NewTestStore(t)
			ctx := context.Background()
			keep := populateProject(t, ts, 1, 1, 1)
			doomed := populateProject(t, ts, sz.n, sz.m, sz.k)

			require.NoError(t, ts.DeleteProject(ctx, doomed.ProjectID))

			assertNoDangling(t, ts)
			_, ok := ts.FindProject(doomed.ProjectID)
			assert.False(t, ok)
			assert.Empty(t, ts.ListTasks(doomed.ProjectID))
			assert.Empty(t, ts.ListWorkItems(doomed.ProjectID, store.WorkItemFilter{}))
			assert.Empty(t, ts.ListRaid(doomed.ProjectID, store.RaidFilter{}))
			assert.Empty(t, ts.ListRoleAssignments(store.RoleAssignmentFilter{ProjectID: doomed.ProjectID}))

			// The other project is untouched.
			assert.Len(t, ts.ListTasks(keep.ProjectID), 1)
			assert.Len(t, ts.ListTaskAssignments(store.TaskAssignmentFilter{}), 1)
			assert.Len(t, ts.ListRaid(keep.ProjectID, store.RaidFilter{}), 1)
			assert.False(t, ts.IsFeatureEnabled("raid", keep.ProjectID))

			threads := ts.ListForumThreads(testutil.TenantID, "")
			require.Len(t, threads, 2)
		})
	}
}

func TestDeleteWorkItem_LeavesNoDanglingReferences(t *testing.T) {
	for _, k := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("K=%d", k), func(t *testing.T) {
			ts := testutil.NewTestStore(t)
			ctx := context.Background()
			p := populateProject(t, ts, 2, 2, k)

			items := ts.ListWorkItems(p.ProjectID, store.WorkItemFilter{WorkItemType: domain.WorkItemStory})
			require.Len(t, items, 1)
			story := items[0]

			child, err := ts.CreateWorkItem(ctx, testutil.NewTestWorkItem(p.ProjectID, "child", domain.WorkItemTask,
				testutil.WithParentItem(story.WorkItemID), testutil.WithDependencies(story.WorkItemID)))
			require.NoError(t, err)

			require.NoError(t, ts.DeleteWorkItem(ctx, story.WorkItemID))

			assertNoDangling(t, ts)
			got, ok := ts.FindWorkItem(child.WorkItemID)
			require.True(t, ok)
			assert.Nil(t, got.ParentWorkItemID)
			assert.Empty(t, got.DependencyIDs)
			assert.Empty(t, ts.ListMappings(p.ProjectID))
			for _, r := range ts.ListRaid(p.ProjectID, store.RaidFilter{}) {
				assert.Len(t, r.LinkedWorkItemIDs, 1, "only the story link is pulled")
			}
			assert.Len(t, ts.ListRaid(p.ProjectID, store.RaidFilter{}), k)
		})
	}
}

func TestDeleteTask_NullsChildrenAndDropsAssignments(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()
	p := populateProject(t, ts, 3, 3, 0)

	var root domain.Task
	for _, task := range ts.ListTasks(p.ProjectID) {
		if task.ParentTaskID == nil {
			root = task
		}
	}
	require.NotEmpty(t, root.TaskID)

	require.NoError(t, ts.DeleteTask(ctx, root.TaskID))

	assertNoDangling(t, ts)
	remaining := ts.ListTasks(p.ProjectID)
	require.Len(t, remaining, 2)
	for _, task := range remaining {
		assert.Nil(t, task.ParentTaskID)
	}
	assert.Len(t, ts.ListTaskAssignments(store.TaskAssignmentFilter{}), 2)
}

func TestDeleteSprint_ReturnsItemsToBacklog(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()
	p := populateProject(t, ts, 0, 0, 0)

	sprints := ts.ListSprints(p.ProjectID)
	require.Len(t, sprints, 1)
	require.NoError(t, ts.DeleteSprint(ctx, sprints[0].SprintID))

	assertNoDangling(t, ts)
	for _, w := range ts.ListWorkItems(p.ProjectID, store.WorkItemFilter{}) {
		assert.Nil(t, w.SprintID)
	}
}

func TestDeleteRole_PromotesChildrenAndDropsAssignments(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()
	p := populateProject(t, ts, 0, 0, 0)

	var lead domain.Role
	for _, r := range ts.ListRoles(p.ProjectID) {
		if r.IsLeadership {
			lead = r
		}
	}
	require.True(t, ts.IsProjectManager(testutil.WorkerID, p.ProjectID))

	require.NoError(t, ts.DeleteRole(ctx, lead.RoleID))

	assertNoDangling(t, ts)
	roles := ts.ListRoles(p.ProjectID)
	require.Len(t, roles, 1)
	assert.Nil(t, roles[0].ParentRoleID)
	assert.Empty(t, ts.ListRoleAssignments(store.RoleAssignmentFilter{ProjectID: p.ProjectID}))
	assert.False(t, ts.IsProjectManager(testutil.WorkerID, p.ProjectID))
}

func TestDeleteContract_RemovesNodeTreeAndKeepsEntries(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	c, err := ts.CreateContract(ctx, domain.Contract{TenantID: testutil.TenantID, Name: "Support"})
	require.NoError(t, err)
	root, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("root", testutil.WithContract(c.ContractID)))
	require.NoError(t, err)
	leaf, err := ts.CreateTaskNode(ctx, testutil.NewTestTaskNode("leaf", testutil.WithParentNode(root.TaskNodeID)))
	require.NoError(t, err)
	require.NotNil(t, leaf.ContractID, "child inherits the contract")

	_, err = ts.AssignTask(ctx, domain.TaskAssignment{UserID: testutil.WorkerID, TaskNodeID: &leaf.TaskNodeID})
	require.NoError(t, err)
	entry, err := ts.CreateTimeEntry(ctx, testutil.NewTestTimeEntry(testutil.WorkerID, 90, testutil.OnNode(leaf.TaskNodeID)))
	require.NoError(t, err)
	require.NotNil(t, entry.ContractID)

	require.NoError(t, ts.DeleteContract(ctx, c.ContractID))

	assertNoDangling(t, ts)
	assert.Empty(t, ts.ListTaskNodes(store.TaskNodeFilter{}))
	assert.Empty(t, ts.ListTaskAssignments(store.TaskAssignmentFilter{}))
	kept, ok := ts.FindTimeEntry(entry.TimeEntryID)
	require.True(t, ok, "time entries are history")
	assert.Nil(t, kept.TaskNodeID)
	assert.Nil(t, kept.ContractID)
}

func TestDeleteUser_StripsReferences(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()
	p := populateProject(t, ts, 3, 1, 1)

	w, err := ts.CreateWorkItem(ctx, domain.WorkItem{
		ProjectID: p.ProjectID, Title: "raci", WorkItemType: domain.WorkItemTask,
		RACI: domain.RACI{
			ResponsibleUserIDs: []domain.UserID{testutil.WorkerID, testutil.AdminID},
			AccountableUserID:  domain.Ptr(testutil.WorkerID),
		},
	})
	require.NoError(t, err)
	_, err = ts.CreateChatThread(ctx, domain.ChatThread{TenantID: testutil.TenantID, Name: "dm", MemberUserIDs: []domain.UserID{testutil.WorkerID, testutil.AdminID}})
	require.NoError(t, err)
	sess, err := ts.StartSession(ctx, testutil.WorkerID, nil)
	require.NoError(t, err)

	require.NoError(t, ts.DeleteUser(ctx, testutil.WorkerID))

	assertNoDangling(t, ts)
	got, _ := ts.FindWorkItem(w.WorkItemID)
	assert.Equal(t, []domain.UserID{testutil.AdminID}, got.RACI.ResponsibleUserIDs)
	assert.Nil(t, got.RACI.AccountableUserID)
	for _, task := range ts.ListTasks(p.ProjectID) {
		assert.Empty(t, task.AssigneeUserIDs)
	}
	_, ok := ts.FindSession(sess.WorkSessionID)
	assert.True(t, ok, "sessions are history")
}

func TestDeleteSession_RemovesEvents(t *testing.T) {
	ts := testutil.NewTestStore(t)
	ctx := context.Background()

	sess, err := ts.StartSession(ctx, testutil.WorkerID, nil)
	require.NoError(t, err)
	_, err = ts.PauseSession(ctx, sess.WorkSessionID)
	require.NoError(t, err)
	require.Len(t, ts.SessionEvents(sess.WorkSessionID), 2)

	require.NoError(t, ts.DeleteSession(ctx, sess.WorkSessionID))

	assertNoDangling(t, ts)
	assert.Empty(t, ts.SessionEvents(sess.WorkSessionID))
	assert.Equal(t, 0, ts.Counts()["workSessionEvents"])
}
