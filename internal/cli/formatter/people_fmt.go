package formatter

import (
	"fmt"

	"github.com/alexanderramin/delegate/internal/domain"
)

// FormatUsers renders users with their tenant role.
func FormatUsers(users []domain.User) string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{Dim(string(u.UserID)), Bold(u.DisplayName), OrDash(u.Email), string(u.Role), Dim(string(u.TenantID))})
	}
	return RenderTable([]string{"ID", "NAME", "EMAIL", "ROLE", "TENANT"}, rows)
}

// FormatRoles renders a project's role hierarchy with member counts.
func FormatRoles(roles []domain.Role, members map[domain.RoleID][]string) string {
	nodes := make([]TreeNode, 0, len(roles))
	for _, r := range roles {
		parent := ""
		if r.ParentRoleID != nil {
			parent = string(*r.ParentRoleID)
		}
		title := r.Name
		if r.IsLeadership {
			title = StyleYellow.Render("★ ") + title
		}
		detail := fmt.Sprintf("%d members", len(members[r.RoleID]))
		nodes = append(nodes, TreeNode{
			ID:       string(r.RoleID),
			ParentID: parent,
			Item:     TreeItem{Title: title + " " + Dim(string(r.RoleID)), Detail: detail},
		})
	}
	return RenderTree(BuildTree(nodes))
}

// FormatFlags renders the flag table: one row per name with the global
// value and every project override.
func FormatFlags(f domain.FeatureFlags, names []string) string {
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		global := Dim("--")
		if v, ok := f.Global[name]; ok {
			global = OnOff(v)
		}
		overrides := ""
		for _, pid := range sortedKeys(stringKeyed(f.PerProject)) {
			if v, ok := f.PerProject[domain.ProjectID(pid)][name]; ok {
				overrides += pid + "=" + OnOff(v) + " "
			}
		}
		rows = append(rows, []string{Bold(name), global, OrDash(overrides)})
	}
	def := "default " + OnOff(f.Fallback())
	if f.Default == nil {
		def += Dim(" (built-in)")
	}
	return RenderTable([]string{"FLAG", "GLOBAL", "PROJECT OVERRIDES"}, rows) + Dim(def) + "\n"
}

func stringKeyed[K ~string, V any](m map[K]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
