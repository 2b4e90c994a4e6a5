package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/delegate/internal/domain"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + strings.TrimRight(content, "\n"))
	}
	return boxStyle.Render(strings.TrimRight(content, "\n"))
}

// RelativeDateFrom returns a human-friendly relative date string from a reference time.
func RelativeDateFrom(t time.Time, now time.Time) string {
	days := int(math.Round(t.Sub(now).Hours() / 24))

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days > 0 && days < 14:
		return fmt.Sprintf("In %dd", days)
	case days > 0 && days < 60:
		return fmt.Sprintf("In %dw", days/7)
	case days > 0:
		return fmt.Sprintf("In %dmo", days/30)
	case days > -14:
		return fmt.Sprintf("%dd ago", -days)
	case days > -60:
		return fmt.Sprintf("%dw ago", -days/7)
	default:
		return fmt.Sprintf("%dmo ago", -days/30)
	}
}

// DueDate renders a YYYY-MM-DD date relative to now, colored by urgency.
// Unparseable or empty dates render as a dim placeholder.
func DueDate(date string, now time.Time) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return Dim("--")
	}
	text := RelativeDateFrom(t, now)
	switch days := t.Sub(now).Hours() / 24; {
	case days <= 2:
		return StyleRed.Render(text)
	case days <= 7:
		return StyleYellow.Render(text)
	}
	return StyleFg.Render(text)
}

// HumanTimestamp returns a relative timestamp such as "5m ago".
func HumanTimestamp(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006")
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// StatusPill returns a colored indicator for a project status.
func StatusPill(status domain.ProjectStatus) string {
	switch status {
	case domain.ProjectActive:
		return StyleGreen.Render("● Active")
	case domain.ProjectPlanning:
		return StyleBlue.Render("○ Planning")
	case domain.ProjectOnHold:
		return StyleYellow.Render("○ On Hold")
	case domain.ProjectCompleted:
		return StyleDim.Render("✔ Completed")
	case domain.ProjectCancelled:
		return StyleDim.Render("✖ Cancelled")
	default:
		return StyleDim.Render(string(status))
	}
}

// WorkItemStatusPill returns a colored indicator for a work item status.
func WorkItemStatusPill(status domain.WorkItemStatus) string {
	switch status {
	case domain.StatusBacklog:
		return StyleDim.Render("○ Backlog")
	case domain.StatusReady:
		return StyleBlue.Render("○ Ready")
	case domain.StatusInProgress:
		return StyleGreen.Render("● In Progress")
	case domain.StatusBlocked:
		return StyleRed.Render("■ Blocked")
	case domain.StatusInReview:
		return StylePurple.Render("◆ In Review")
	case domain.StatusDone:
		return StyleDim.Render("✔ Done")
	default:
		return StyleDim.Render(string(status))
	}
}

// TimeEntryStatePill returns a colored indicator for a time entry state.
func TimeEntryStatePill(state domain.TimeEntryState) string {
	switch state {
	case domain.TimeEntryDraft:
		return StyleDim.Render("○ Draft")
	case domain.TimeEntryPending:
		return StyleYellow.Render("◐ Pending")
	case domain.TimeEntryConcurred:
		return StyleGreen.Render("✔ Concurred")
	case domain.TimeEntryReturned:
		return StyleBlue.Render("↩ Returned")
	case domain.TimeEntryRejected:
		return StyleRed.Render("✖ Rejected")
	default:
		return StyleDim.Render(string(state))
	}
}

// SessionStatePill returns a colored indicator for a work session state.
func SessionStatePill(state domain.WorkSessionState) string {
	switch state {
	case domain.SessionRunning:
		return StyleGreen.Render("▶ Running")
	case domain.SessionPaused:
		return StyleYellow.Render("❚❚ Paused")
	case domain.SessionStopped:
		return StyleDim.Render("■ Stopped")
	default:
		return StyleDim.Render(string(state))
	}
}

// KindBadge labels a work item type with its family.
func KindBadge(t domain.WorkItemType) string {
	switch domain.KindOf(t) {
	case domain.KindAgile:
		return StyleBlue.Render(string(t))
	case domain.KindPMI:
		return StylePurple.Render(string(t))
	}
	return StyleDim.Render(string(t))
}

// OrDash renders s, or a dim dash when it is empty.
func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return Dim("--")
	}
	return s
}

// FormatMinutes converts raw minutes into human-friendly format.
func FormatMinutes(min int) string {
	if min <= 0 {
		return "0m"
	}
	h := min / 60
	m := min % 60
	if h > 0 && m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if h > 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatHours renders fractional hours with at most two decimals.
func FormatHours(h float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", h), "0"), ".")
	return s + "h"
}

// FormatClock renders a duration as H:MM:SS for the session timer.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
