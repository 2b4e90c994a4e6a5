package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/delegate/internal/domain"
)

// FormatProjectList renders projects inside a bordered box.
func FormatProjectList(projects []domain.Project, now time.Time) string {
	headers := []string{"ID", "NAME", "MODE", "STATUS", "ENDS"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			Dim(string(p.ProjectID)),
			Bold(p.Name),
			string(p.Methodology),
			StatusPill(p.Status),
			DueDate(p.EndDate, now),
		})
	}
	return RenderBox("Projects", RenderTable(headers, rows))
}

// ProjectDetail is everything the project card shows.
type ProjectDetail struct {
	Project   domain.Project
	Tasks     []domain.Task
	WorkItems int
	Sprints   int
	Raid      int
	Roles     int
	Flags     map[string]bool
}

// FormatProjectDetail renders a metadata panel beside a kanban summary.
func FormatProjectDetail(d ProjectDetail, now time.Time) string {
	p := d.Project
	meta := RenderFields([][2]string{
		{"id", string(p.ProjectID)},
		{"status", StatusPill(p.Status)},
		{"mode", string(p.Methodology)},
		{"category", OrDash(p.Category)},
		{"customer", OrDash(p.Customer)},
		{"start", OrDash(p.StartDate)},
		{"end", OrDash(p.EndDate) + " " + DueDate(p.EndDate, now)},
		{"work items", fmt.Sprint(d.WorkItems)},
		{"sprints", fmt.Sprint(d.Sprints)},
		{"raid", fmt.Sprint(d.Raid)},
		{"roles", fmt.Sprint(d.Roles)},
	})
	if len(d.Flags) > 0 {
		var flags []string
		for _, name := range sortedKeys(d.Flags) {
			flags = append(flags, name+"="+OnOff(d.Flags[name]))
		}
		meta += Dim("flags") + "  " + strings.Join(flags, " ") + "\n"
	}
	if p.Description != "" {
		meta += "\n" + lipgloss.NewStyle().Width(48).Render(p.Description) + "\n"
	}

	board := FormatBoard(p, d.Tasks)
	return RenderBox(p.Name, lipgloss.JoinHorizontal(lipgloss.Top, meta, "    ", board))
}

// FormatBoard lists task counts and titles per workflow step.
func FormatBoard(p domain.Project, tasks []domain.Task) string {
	byStep := map[domain.StepID][]domain.Task{}
	for _, t := range tasks {
		byStep[t.StatusStepID] = append(byStep[t.StatusStepID], t)
	}
	var b strings.Builder
	for _, s := range p.Steps {
		list := byStep[s.ID]
		b.WriteString(StyleHeader.Render(s.Name) + Dim(fmt.Sprintf(" (%d) %s", len(list), s.ID)) + "\n")
		for _, t := range list {
			b.WriteString("  " + t.Title + " " + Dim(string(t.TaskID)) + "\n")
		}
	}
	return b.String()
}

// FormatSteps renders a project's workflow steps in order.
func FormatSteps(steps []domain.Step) string {
	rows := make([][]string, 0, len(steps))
	for i, s := range steps {
		rows = append(rows, []string{fmt.Sprint(i + 1), Dim(string(s.ID)), Bold(s.Name), s.Color})
	}
	return RenderTable([]string{"#", "ID", "NAME", "COLOR"}, rows)
}

// FormatTasks renders a project's tasks with their step names.
func FormatTasks(p domain.Project, tasks []domain.Task, now time.Time) string {
	stepNames := map[domain.StepID]string{}
	for _, s := range p.Steps {
		stepNames[s.ID] = s.Name
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			Dim(string(t.TaskID)),
			Bold(t.Title),
			OrDash(stepNames[t.StatusStepID]),
			OrDash(string(t.Priority)),
			fmt.Sprint(len(t.AssigneeUserIDs)),
			DueDate(t.DueDate, now),
		})
	}
	return RenderTable([]string{"ID", "TITLE", "STEP", "PRIORITY", "ASSIGNEES", "DUE"}, rows)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
