package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/delegate/internal/domain"
)

// FormatTimeEntries renders time entries with a total line.
func FormatTimeEntries(entries []domain.TimeEntry, nodeTitles map[domain.TaskNodeID]string) string {
	rows := make([][]string, 0, len(entries))
	total := 0
	for _, e := range entries {
		node := ""
		if e.TaskNodeID != nil {
			node = nodeTitles[*e.TaskNodeID]
			if node == "" {
				node = string(*e.TaskNodeID)
			}
		}
		lock := ""
		if e.IsLocked() {
			lock = "🔒"
		}
		rows = append(rows, []string{
			Dim(string(e.TimeEntryID)),
			e.WorkDate,
			string(e.UserID),
			OrDash(node),
			FormatMinutes(e.NetMinutes),
			TimeEntryStatePill(e.State) + lock,
			truncate(e.Notes, 32),
		})
		total += e.NetMinutes
	}
	return RenderTable([]string{"ID", "DATE", "USER", "NODE", "TIME", "STATE", "NOTES"}, rows) +
		Dim(fmt.Sprintf("%d entries, %s total", len(entries), FormatMinutes(total))) + "\n"
}

// NodeRollup pairs a task node with its computed rollup.
type NodeRollup struct {
	Node   domain.TaskNode
	Rollup domain.Rollup
	Err    error
}

// FormatNodeTree renders the task node hierarchy with a budget bar per node.
func FormatNodeTree(nodes []NodeRollup) string {
	tree := make([]TreeNode, 0, len(nodes))
	for _, n := range nodes {
		parent := ""
		if n.Node.ParentTaskNodeID != nil {
			parent = string(*n.Node.ParentTaskNodeID)
		}
		detail := RenderBudget(n.Rollup.ChargedHours, n.Rollup.AllocatedHours, 10)
		if n.Err != nil {
			detail = StyleRed.Render(n.Err.Error())
		}
		tree = append(tree, TreeNode{
			ID:       string(n.Node.TaskNodeID),
			ParentID: parent,
			Item: TreeItem{
				Title:  n.Node.Title + " " + Dim(string(n.Node.TaskNodeID)),
				Done:   n.Node.Status == domain.TaskDone,
				Active: n.Node.Status == domain.TaskInProgress,
				Detail: detail,
			},
		})
	}
	return RenderTree(BuildTree(tree))
}

// FormatRollup renders one node's rollup figures.
func FormatRollup(n domain.TaskNode, r domain.Rollup) string {
	return RenderBox(n.Title, RenderFields([][2]string{
		{"scoped", FormatHours(r.ScopedHours)},
		{"allocated", FormatHours(r.AllocatedHours)},
		{"charged", FormatHours(r.ChargedHours)},
		{"remaining", FormatHours(r.Remaining())},
		{"budget", RenderBudget(r.ChargedHours, r.AllocatedHours, 20)},
	}))
}

// SessionRow is a session with its measured timing.
type SessionRow struct {
	Session domain.WorkSession
	Elapsed time.Duration
	Active  time.Duration
}

// FormatSessions renders work sessions with wall-clock and active time.
func FormatSessions(rows []SessionRow) string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		node := ""
		if r.Session.TaskNodeID != nil {
			node = string(*r.Session.TaskNodeID)
		}
		out = append(out, []string{
			Dim(string(r.Session.WorkSessionID)),
			string(r.Session.UserID),
			OrDash(node),
			SessionStatePill(r.Session.State),
			r.Session.StartedUtc.Format(time.DateTime),
			FormatClock(r.Elapsed),
			FormatClock(r.Active),
		})
	}
	return RenderTable([]string{"ID", "USER", "NODE", "STATE", "STARTED", "ELAPSED", "ACTIVE"}, out)
}

// FormatTimer renders the live session view used by the watch command.
func FormatTimer(r SessionRow, nodeTitle string) string {
	title := "Work session"
	if nodeTitle != "" {
		title += ": " + nodeTitle
	}
	body := StyleBold.Render(FormatClock(r.Active)) + "  " + SessionStatePill(r.Session.State) + "\n\n" +
		RenderFields([][2]string{
			{"session", string(r.Session.WorkSessionID)},
			{"started", r.Session.StartedUtc.Local().Format(time.Kitchen)},
			{"elapsed", FormatClock(r.Elapsed)},
			{"paused", FormatClock(r.Elapsed - r.Active)},
		})
	return RenderBox(title, body)
}

// FormatNotifications renders a user's notifications, unread first marked.
func FormatNotifications(list []domain.Notification, now time.Time) string {
	if len(list) == 0 {
		return Dim("No notifications.") + "\n"
	}
	var b strings.Builder
	for _, n := range list {
		mark := Dim("  ")
		if !n.IsRead {
			mark = StyleYellow.Render("● ")
		}
		b.WriteString(mark + Bold(n.Title) + " " + Dim(HumanTimestamp(n.CreatedAt, now)+" "+string(n.NotificationID)) + "\n")
		if n.Body != "" {
			b.WriteString("    " + n.Body + "\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
