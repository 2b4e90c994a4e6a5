package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a tree display.
type TreeItem struct {
	Title  string
	Level  int
	IsLast bool
	Done   bool
	Active bool
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
)

// RenderTree renders items as an indented tree with box-drawing
// connectors. Detail badges are right-aligned in a shared column.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type line struct{ content, badge string }
	lines := make([]line, len(items))
	width := 0

	for i, item := range items {
		var prefix string
		if item.Level > 0 {
			prefix = strings.Repeat(treePipe, item.Level-1)
			if item.IsLast {
				prefix += treeCorner
			} else {
				prefix += treeBranch
			}
		}

		title := item.Title
		switch {
		case item.Done:
			title = StyleGreen.Render("✔ ") + Dim(title)
		case item.Active:
			title = StyleYellowBold.Render("▶ " + title)
		}
		lines[i].content = Dim(prefix) + title
		if item.Detail != "" {
			lines[i].badge = StyleBlue.Render("[ " + item.Detail + " ]")
		}
		width = max(width, lipgloss.Width(lines[i].content))
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.content)
		if l.badge != "" {
			b.WriteString(strings.Repeat(" ", width-lipgloss.Width(l.content)) + "  " + l.badge)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// TreeNode is the input shape for BuildTree.
type TreeNode struct {
	ID       string
	ParentID string
	Item     TreeItem
}

// BuildTree orders nodes depth-first under their parents and fills in
// Level and IsLast. Nodes whose parent is missing are treated as roots.
// A node reached twice is skipped, so looping input still terminates.
func BuildTree(nodes []TreeNode) []TreeItem {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	children := map[string][]TreeNode{}
	var roots []TreeNode
	for _, n := range nodes {
		if n.ParentID == "" || !known[n.ParentID] || n.ParentID == n.ID {
			roots = append(roots, n)
			continue
		}
		children[n.ParentID] = append(children[n.ParentID], n)
	}

	var out []TreeItem
	seen := map[string]bool{}
	var walk func(list []TreeNode, level int)
	walk = func(list []TreeNode, level int) {
		for i, n := range list {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			item := n.Item
			item.Level = level
			item.IsLast = i == len(list)-1
			out = append(out, item)
			walk(children[n.ID], level+1)
		}
	}
	walk(roots, 0)
	return out
}
