package formatter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/delegate/internal/domain"
)

var refNow = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func TestFormatProjectList(t *testing.T) {
	out := stripANSI(FormatProjectList([]domain.Project{
		{ProjectID: "PROJ_a", Name: "Website Relaunch", Methodology: domain.MethodologyAgile, Status: domain.ProjectActive, EndDate: "2025-03-04"},
		{ProjectID: "PROJ_b", Name: "Data Center Move", Methodology: domain.MethodologyPMI, Status: domain.ProjectOnHold},
	}, refNow))

	assert.Contains(t, out, "PROJECTS")
	assert.Contains(t, out, "Website Relaunch")
	assert.Contains(t, out, "● Active")
	assert.Contains(t, out, "Tomorrow")
	assert.Contains(t, out, "○ On Hold")
}

func TestFormatProjectDetail_ShowsBoard(t *testing.T) {
	steps := []domain.Step{{ID: "STEP_1", Name: "Backlog"}, {ID: "STEP_2", Name: "Done"}}
	p := domain.Project{ProjectID: "PROJ_a", Name: "Relaunch", Status: domain.ProjectPlanning, Steps: steps, Description: "Ship the new site."}
	out := stripANSI(FormatProjectDetail(ProjectDetail{
		Project: p,
		Tasks: []domain.Task{
			{TaskID: "TASK_1", Title: "Wireframes", StatusStepID: "STEP_1"},
			{TaskID: "TASK_2", Title: "Copy", StatusStepID: "STEP_1"},
		},
		WorkItems: 4,
		Flags:     map[string]bool{"raid": false, "chat": true},
	}, refNow))

	assert.Contains(t, out, "Backlog (2)")
	assert.Contains(t, out, "Done (0)")
	assert.Contains(t, out, "Wireframes")
	assert.Contains(t, out, "chat=on raid=off")
	assert.Contains(t, out, "Ship the new site.")
}

func TestFormatWorkItems_NestsChildren(t *testing.T) {
	epic := domain.WorkItemID("WI_epic")
	out := stripANSI(FormatWorkItems([]domain.WorkItem{
		{WorkItemID: "WI_story", Title: "Checkout", WorkItemType: domain.WorkItemStory, Status: domain.StatusInProgress, ParentWorkItemID: &epic, StoryPoints: 5},
		{WorkItemID: epic, Title: "Payments", WorkItemType: domain.WorkItemEpic, Status: domain.StatusBacklog},
	}))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if assert.Len(t, lines, 2) {
		assert.True(t, strings.HasPrefix(lines[0], "Payments"))
		assert.Contains(t, lines[1], "└─ ▶ Checkout")
		assert.Contains(t, lines[1], "story · 5pt · In Progress")
	}
}

func TestFormatRaid(t *testing.T) {
	out := stripANSI(FormatRaid([]domain.RaidEntry{
		{RaidID: "RAID_1", Type: domain.RaidRisk, Title: "Vendor delay", Severity: domain.SeverityCritical, Status: domain.RaidOpen, LinkedWorkItemIDs: []domain.WorkItemID{"WI_1", "WI_2"}},
	}))
	assert.Contains(t, out, "Vendor delay")
	assert.Contains(t, out, "● CRITICAL")
	assert.Contains(t, out, "R ")
}

func TestFormatTimeEntries_TotalsAndLock(t *testing.T) {
	node := domain.TaskNodeID("TN_1")
	locked := refNow
	out := stripANSI(FormatTimeEntries([]domain.TimeEntry{
		{TimeEntryID: "TE_1", WorkDate: "2025-03-01", UserID: "USR_a", TaskNodeID: &node, NetMinutes: 90, State: domain.TimeEntryDraft},
		{TimeEntryID: "TE_2", WorkDate: "2025-03-02", UserID: "USR_a", NetMinutes: 30, State: domain.TimeEntryConcurred, LockedUtc: &locked},
	}, map[domain.TaskNodeID]string{node: "Design"}))

	assert.Contains(t, out, "Design")
	assert.Contains(t, out, "1h 30m")
	assert.Contains(t, out, "🔒")
	assert.Contains(t, out, "2 entries, 2h total")
}

func TestFormatNodeTree_ShowsErrors(t *testing.T) {
	parent := domain.TaskNodeID("TN_root")
	out := stripANSI(FormatNodeTree([]NodeRollup{
		{Node: domain.TaskNode{TaskNodeID: parent, Title: "Phase 1"}, Rollup: domain.Rollup{AllocatedHours: 10, ChargedHours: 5}},
		{Node: domain.TaskNode{TaskNodeID: "TN_child", Title: "Build", ParentTaskNodeID: &parent}, Err: errors.New("cycle")},
	}))
	assert.Contains(t, out, "5h / 10h")
	assert.Contains(t, out, "[ cycle ]")
}

func TestFormatTimer(t *testing.T) {
	out := stripANSI(FormatTimer(SessionRow{
		Session: domain.WorkSession{WorkSessionID: "WS_1", State: domain.SessionPaused, StartedUtc: refNow},
		Elapsed: 90 * time.Minute,
		Active:  time.Hour,
	}, "Design"))
	assert.Contains(t, out, "WORK SESSION: DESIGN")
	assert.Contains(t, out, "1:00:00")
	assert.Contains(t, out, "1:30:00")
	assert.Contains(t, out, "0:30:00")
	assert.Contains(t, out, "Paused")
}

func TestFormatNotifications(t *testing.T) {
	assert.Contains(t, FormatNotifications(nil, refNow), "No notifications.")

	out := stripANSI(FormatNotifications([]domain.Notification{
		{NotificationID: "NTF_1", Title: "Entry returned", Body: "Please add notes", CreatedAt: refNow.Add(-10 * time.Minute)},
		{NotificationID: "NTF_2", Title: "Welcome", IsRead: true, CreatedAt: refNow.Add(-72 * time.Hour)},
	}, refNow))
	assert.Contains(t, out, "● Entry returned 10m ago")
	assert.Contains(t, out, "    Please add notes")
	assert.Contains(t, out, "  Welcome Feb 28, 2025")
}

func TestFormatFlags(t *testing.T) {
	f := domain.FeatureFlags{
		Global:     map[string]bool{"chat": true},
		PerProject: map[domain.ProjectID]map[string]bool{"PROJ_a": {"chat": false, "raid": true}},
	}
	out := stripANSI(FormatFlags(f, []string{"chat", "raid"}))
	assert.Contains(t, out, "PROJ_a=off")
	assert.Contains(t, out, "PROJ_a=on")
	assert.Contains(t, out, "(built-in)")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
