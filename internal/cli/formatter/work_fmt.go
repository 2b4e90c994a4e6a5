package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/delegate/internal/domain"
)

// FormatWorkItems renders work items as a parent/child tree with status
// and type badges.
func FormatWorkItems(items []domain.WorkItem) string {
	nodes := make([]TreeNode, 0, len(items))
	for _, w := range items {
		parent := ""
		if w.ParentWorkItemID != nil {
			parent = string(*w.ParentWorkItemID)
		}
		detail := string(w.WorkItemType)
		if w.StoryPoints > 0 {
			detail += fmt.Sprintf(" · %dpt", w.StoryPoints)
		}
		nodes = append(nodes, TreeNode{
			ID:       string(w.WorkItemID),
			ParentID: parent,
			Item: TreeItem{
				Title:  w.Title + " " + Dim(string(w.WorkItemID)),
				Done:   w.Status == domain.StatusDone,
				Active: w.Status == domain.StatusInProgress,
				Detail: detail + " · " + string(w.Status),
			},
		})
	}
	return RenderTree(BuildTree(nodes))
}

// FormatWorkItemDetail renders one item with its comments and audit trail.
func FormatWorkItemDetail(w domain.WorkItem, now time.Time) string {
	fields := [][2]string{
		{"id", string(w.WorkItemID)},
		{"type", KindBadge(w.WorkItemType)},
		{"status", WorkItemStatusPill(w.Status)},
		{"priority", OrDash(string(w.Priority))},
		{"category", OrDash(string(w.Category))},
		{"due", OrDash(w.DueDate)},
	}
	if w.SprintID != nil {
		fields = append(fields, [2]string{"sprint", string(*w.SprintID)})
	}
	if len(w.DependencyIDs) > 0 {
		fields = append(fields, [2]string{"depends on", joinIDs(w.DependencyIDs)})
	}
	if len(w.Tags) > 0 {
		fields = append(fields, [2]string{"tags", strings.Join(w.Tags, ", ")})
	}
	body := RenderFields(fields)
	if w.Description != "" {
		body += "\n" + w.Description + "\n"
	}
	if len(w.Comments) > 0 {
		body += "\n" + Header("Comments") + "\n"
		for _, c := range w.Comments {
			body += fmt.Sprintf("%s %s\n  %s\n", Bold(string(c.UserID)), Dim(HumanTimestamp(c.CreatedAt, now)), c.Body)
		}
	}
	if len(w.Audit) > 0 {
		body += "\n" + Header("History") + "\n"
		for _, a := range w.Audit {
			body += fmt.Sprintf("%s  %s %s\n", Dim(a.CreatedAt.Format(time.DateTime)), a.Action, a.Detail)
		}
	}
	return RenderBox(w.Title, body)
}

// FormatSprints renders sprints with their item counts.
func FormatSprints(sprints []domain.Sprint, itemCounts map[domain.SprintID]int) string {
	rows := make([][]string, 0, len(sprints))
	for _, sp := range sprints {
		rows = append(rows, []string{
			Dim(string(sp.SprintID)),
			Bold(sp.Name),
			string(sp.Status),
			OrDash(sp.StartDate) + " → " + OrDash(sp.EndDate),
			fmt.Sprint(itemCounts[sp.SprintID]),
		})
	}
	return RenderTable([]string{"ID", "NAME", "STATUS", "DATES", "ITEMS"}, rows)
}

// FormatRaid renders RAID entries grouped by the table order given.
func FormatRaid(entries []domain.RaidEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, r := range entries {
		owner := ""
		if r.OwnerUserID != nil {
			owner = string(*r.OwnerUserID)
		}
		rows = append(rows, []string{
			Dim(string(r.RaidID)),
			strings.ToUpper(string(r.Type[:1])),
			Bold(r.Title),
			SeverityIndicator(r.Severity),
			string(r.Status),
			OrDash(owner),
			fmt.Sprint(len(r.LinkedWorkItemIDs)),
		})
	}
	return RenderTable([]string{"ID", "T", "TITLE", "SEVERITY", "STATUS", "OWNER", "LINKS"}, rows)
}

// FormatMappings renders agile-to-PMI links using item titles.
func FormatMappings(mappings []domain.Mapping, titles map[domain.WorkItemID]string) string {
	rows := make([][]string, 0, len(mappings))
	for _, m := range mappings {
		rows = append(rows, []string{
			Dim(string(m.MappingID)),
			OrDash(titles[m.AgileWorkItemID]),
			"⇄",
			OrDash(titles[m.PMIWorkItemID]),
		})
	}
	return RenderTable([]string{"ID", "AGILE", "", "PMI"}, rows)
}

func joinIDs[ID ~string](ids []ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
