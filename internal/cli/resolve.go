package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
)

type candidate struct {
	id   string
	name string
}

// resolve matches input against candidates in order of preference:
//  1. exact ID
//  2. case-insensitive name
//  3. unique ID prefix
func resolve(kind, input string, candidates []candidate) (string, error) {
	if input == "" {
		return "", fmt.Errorf("%s ID is required", kind)
	}
	for _, c := range candidates {
		if c.id == input {
			return c.id, nil
		}
	}

	var byName []string
	for _, c := range candidates {
		if c.name != "" && strings.EqualFold(c.name, input) {
			byName = append(byName, c.id)
		}
	}
	if len(byName) == 1 {
		return byName[0], nil
	}
	if len(byName) > 1 {
		return "", fmt.Errorf("%s name %q is ambiguous (%d matches)", kind, input, len(byName))
	}

	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c.id, input) {
			matches = append(matches, c.id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s not found: %q: %w", kind, input, store.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches)", kind, input, len(matches))
	}
}

func candidatesOf[T any](items []T, fn func(T) candidate) []candidate {
	out := make([]candidate, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}

func resolveProjectID(app *App, input string) (domain.ProjectID, error) {
	id, err := resolve("project", input, candidatesOf(app.Store.ListProjects(""), func(p domain.Project) candidate {
		return candidate{string(p.ProjectID), p.Name}
	}))
	return domain.ProjectID(id), err
}

func resolveUserID(app *App, input string) (domain.UserID, error) {
	id, err := resolve("user", input, candidatesOf(app.Store.ListUsers(""), func(u domain.User) candidate {
		return candidate{string(u.UserID), u.DisplayName}
	}))
	return domain.UserID(id), err
}

func resolveTenantID(app *App, input string) (domain.TenantID, error) {
	id, err := resolve("tenant", input, candidatesOf(app.Store.ListTenants(), func(t domain.Tenant) candidate {
		return candidate{string(t.TenantID), t.Name}
	}))
	return domain.TenantID(id), err
}

func resolveTaskID(app *App, projectID domain.ProjectID, input string) (domain.TaskID, error) {
	id, err := resolve("task", input, candidatesOf(app.Store.ListTasks(projectID), func(t domain.Task) candidate {
		return candidate{string(t.TaskID), t.Title}
	}))
	return domain.TaskID(id), err
}

func resolveStepID(p domain.Project, input string) (domain.StepID, error) {
	id, err := resolve("step", input, candidatesOf(p.Steps, func(s domain.Step) candidate {
		return candidate{string(s.ID), s.Name}
	}))
	return domain.StepID(id), err
}

func resolveNodeID(app *App, input string) (domain.TaskNodeID, error) {
	id, err := resolve("task node", input, candidatesOf(app.Store.ListTaskNodes(store.TaskNodeFilter{}), func(n domain.TaskNode) candidate {
		return candidate{string(n.TaskNodeID), n.Title}
	}))
	return domain.TaskNodeID(id), err
}

func resolveContractID(app *App, input string) (domain.ContractID, error) {
	id, err := resolve("contract", input, candidatesOf(app.Store.ListContracts(""), func(c domain.Contract) candidate {
		return candidate{string(c.ContractID), c.Name}
	}))
	return domain.ContractID(id), err
}

func resolveWorkItemID(app *App, projectID domain.ProjectID, input string) (domain.WorkItemID, error) {
	id, err := resolve("work item", input, candidatesOf(app.Store.ListWorkItems(projectID, store.WorkItemFilter{}), func(w domain.WorkItem) candidate {
		return candidate{string(w.WorkItemID), w.Title}
	}))
	return domain.WorkItemID(id), err
}

func resolveSprintID(app *App, projectID domain.ProjectID, input string) (domain.SprintID, error) {
	id, err := resolve("sprint", input, candidatesOf(app.Store.ListSprints(projectID), func(s domain.Sprint) candidate {
		return candidate{string(s.SprintID), s.Name}
	}))
	return domain.SprintID(id), err
}

func resolveRaidID(app *App, projectID domain.ProjectID, input string) (domain.RaidID, error) {
	id, err := resolve("RAID entry", input, candidatesOf(app.Store.ListRaid(projectID, store.RaidFilter{}), func(r domain.RaidEntry) candidate {
		return candidate{string(r.RaidID), r.Title}
	}))
	return domain.RaidID(id), err
}

func resolveRoleID(app *App, projectID domain.ProjectID, input string) (domain.RoleID, error) {
	id, err := resolve("role", input, candidatesOf(app.Store.ListRoles(projectID), func(r domain.Role) candidate {
		return candidate{string(r.RoleID), r.Name}
	}))
	return domain.RoleID(id), err
}

func resolveSessionID(app *App, input string) (domain.WorkSessionID, error) {
	id, err := resolve("session", input, candidatesOf(app.Store.ListSessions(store.SessionFilter{}), func(s domain.WorkSession) candidate {
		return candidate{id: string(s.WorkSessionID)}
	}))
	return domain.WorkSessionID(id), err
}

func resolveTimeEntryID(app *App, input string) (domain.TimeEntryID, error) {
	id, err := resolve("time entry", input, candidatesOf(app.Store.ListTimeEntries(store.TimeEntryFilter{}), func(e domain.TimeEntry) candidate {
		return candidate{id: string(e.TimeEntryID)}
	}))
	return domain.TimeEntryID(id), err
}

// parseEnum matches input against valid ignoring case, spaces, dashes and
// underscores, so "on-hold" selects "On Hold".
func parseEnum[T ~string](what, input string, valid ...T) (T, error) {
	norm := func(s string) string {
		return strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s))
	}
	want := norm(input)
	names := make([]string, len(valid))
	for i, v := range valid {
		if norm(string(v)) == want {
			return v, nil
		}
		names[i] = string(v)
	}
	var zero T
	return zero, fmt.Errorf("%w: unknown %s %q (want one of: %s)", store.ErrInvalid, what, input, strings.Join(names, ", "))
}
