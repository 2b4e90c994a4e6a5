package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alexanderramin/delegate/internal/cli/formatter"
	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
)

var (
	workItemStatuses = []domain.WorkItemStatus{domain.StatusBacklog, domain.StatusReady, domain.StatusInProgress, domain.StatusBlocked, domain.StatusInReview, domain.StatusDone}
	workItemTypes    = append(append([]domain.WorkItemType{}, domain.AgileTypes...), domain.PMITypes...)
	workItemKinds    = []domain.WorkItemKind{domain.KindAgile, domain.KindPMI}
	raidTypes        = []domain.RaidType{domain.RaidRisk, domain.RaidAssumption, domain.RaidIssue, domain.RaidDecision}
	raidStatuses     = []domain.RaidStatus{domain.RaidOpen, domain.RaidWatching, domain.RaidMitigated, domain.RaidClosed}
	severities       = []domain.Severity{domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh, domain.SeverityCritical}
	sprintStatuses   = []domain.SprintStatus{domain.SprintPlanned, domain.SprintActive, domain.SprintCompleted}
)

func newWorkCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Manage agile and PMI work items",
	}

	cmd.AddCommand(
		newWorkAddCmd(app),
		newWorkListCmd(app),
		newWorkShowCmd(app),
		newWorkUpdateCmd(app),
		newWorkCommentCmd(app),
		newWorkRemoveCmd(app),
	)

	return cmd
}

// workItemFlags holds the fields shared by work add and work update.
type workItemFlags struct {
	title, typ, status, priority, parent, sprint, due, description string
	points                                                         int
	estimate                                                       float64
	depends                                                        []string

	parentID  *domain.WorkItemID
	sprintID  *domain.SprintID
	dependIDs []domain.WorkItemID
}

func (f *workItemFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "Title")
	fs.StringVar(&f.typ, "type", "", "epic, story, task, bug, deliverable, workPackage, activity or milestone")
	fs.StringVar(&f.status, "status", "", "Backlog, Ready, In Progress, Blocked, In Review or Done")
	fs.StringVar(&f.priority, "priority", "", "Low, Medium, High or Urgent")
	fs.StringVar(&f.parent, "parent", "", "Parent work item")
	fs.StringVar(&f.sprint, "sprint", "", "Sprint")
	fs.StringVar(&f.due, "due", "", "Due date (YYYY-MM-DD)")
	fs.StringVar(&f.description, "description", "", "Description")
	fs.IntVar(&f.points, "points", 0, "Story points")
	fs.Float64Var(&f.estimate, "estimate", 0, "Estimated hours")
	fs.StringSliceVar(&f.depends, "depends-on", nil, "Work items this one depends on (repeatable)")
}

// resolveRefs turns the parent, sprint and dependency arguments into IDs
// of projectID. It reads the store, so it must run before any update
// callback.
func (f *workItemFlags) resolveRefs(flags *pflag.FlagSet, app *App, projectID domain.ProjectID) error {
	if flags.Changed("parent") && f.parent != "" {
		id, err := resolveWorkItemID(app, projectID, f.parent)
		if err != nil {
			return err
		}
		f.parentID = &id
	}
	if flags.Changed("sprint") && f.sprint != "" {
		id, err := resolveSprintID(app, projectID, f.sprint)
		if err != nil {
			return err
		}
		f.sprintID = &id
	}
	if flags.Changed("depends-on") {
		f.dependIDs = []domain.WorkItemID{}
		for _, d := range f.depends {
			id, err := resolveWorkItemID(app, projectID, d)
			if err != nil {
				return err
			}
			f.dependIDs = append(f.dependIDs, id)
		}
	}
	return nil
}

// apply copies every changed flag onto w. References come from an earlier
// resolveRefs call.
func (f *workItemFlags) apply(flags *pflag.FlagSet, w *domain.WorkItem) error {
	var err error
	if flags.Changed("title") {
		w.Title = f.title
	}
	if flags.Changed("description") {
		w.Description = f.description
	}
	if flags.Changed("type") {
		if w.WorkItemType, err = parseEnum("work item type", f.typ, workItemTypes...); err != nil {
			return err
		}
	}
	if flags.Changed("status") {
		if w.Status, err = parseEnum("status", f.status, workItemStatuses...); err != nil {
			return err
		}
	}
	if flags.Changed("priority") {
		if w.Priority, err = parseEnum("priority", f.priority, priorities...); err != nil {
			return err
		}
	}
	if flags.Changed("parent") {
		w.ParentWorkItemID = f.parentID
	}
	if flags.Changed("sprint") {
		w.SprintID = f.sprintID
	}
	if flags.Changed("depends-on") {
		w.DependencyIDs = f.dependIDs
	}
	if flags.Changed("due") {
		w.DueDate = f.due
	}
	if flags.Changed("points") {
		w.StoryPoints = f.points
	}
	if flags.Changed("estimate") {
		w.EstimateHours = f.estimate
	}
	return nil
}

func newWorkAddCmd(app *App) *cobra.Command {
	var projectFlag string
	var f workItemFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a work item",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, projectFlag)
			if err != nil {
				return err
			}
			if err := f.resolveRefs(cmd.Flags(), app, projectID); err != nil {
				return err
			}
			w := domain.WorkItem{ProjectID: projectID}
			if err := f.apply(cmd.Flags(), &w); err != nil {
				return err
			}
			w, err = app.Store.CreateWorkItem(cmd.Context(), w)
			if err != nil {
				return err
			}
			printf(cmd, "Created %s %s [%s]\n", w.WorkItemType, w.Title, w.WorkItemID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project")
	f.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newWorkListCmd(app *App) *cobra.Command {
	var projectFlag, status, typ, kind, sprint string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items as a tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, projectFlag)
			if err != nil {
				return err
			}
			var filter store.WorkItemFilter
			if status != "" {
				if filter.Status, err = parseEnum("status", status, workItemStatuses...); err != nil {
					return err
				}
			}
			if typ != "" {
				if filter.WorkItemType, err = parseEnum("work item type", typ, workItemTypes...); err != nil {
					return err
				}
			}
			if kind != "" {
				if filter.Kind, err = parseEnum("kind", kind, workItemKinds...); err != nil {
					return err
				}
			}
			if sprint != "" {
				id, err := resolveSprintID(app, projectID, sprint)
				if err != nil {
					return err
				}
				filter.SprintID = &id
			}

			items := app.Store.ListWorkItems(projectID, filter)
			if len(items) == 0 {
				printf(cmd, "No work items found.\n")
				return nil
			}
			write(cmd, formatter.FormatWorkItems(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project")
	cmd.Flags().StringVar(&status, "status", "", "Only items in this status")
	cmd.Flags().StringVar(&typ, "type", "", "Only items of this type")
	cmd.Flags().StringVar(&kind, "kind", "", "Only agile or pmi items")
	cmd.Flags().StringVar(&sprint, "sprint", "", "Only items in this sprint")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

// workItemArg resolves a work item argument, optionally scoped by --project.
func workItemArg(app *App, projectFlag, input string) (domain.WorkItem, error) {
	var projectID domain.ProjectID
	if projectFlag != "" {
		var err error
		if projectID, err = resolveProjectID(app, projectFlag); err != nil {
			return domain.WorkItem{}, err
		}
	}
	id, err := resolveWorkItemID(app, projectID, input)
	if err != nil {
		return domain.WorkItem{}, err
	}
	w, _ := app.Store.FindWorkItem(id)
	return w, nil
}

func newWorkShowCmd(app *App) *cobra.Command {
	var projectFlag string

	cmd := &cobra.Command{
		Use:   "show <work-item>",
		Short: "Show a work item with comments and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := workItemArg(app, projectFlag, args[0])
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", formatter.FormatWorkItemDetail(w, app.Store.Now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project context for item titles")
	return cmd
}

func newWorkUpdateCmd(app *App) *cobra.Command {
	var projectFlag string
	var f workItemFlags

	cmd := &cobra.Command{
		Use:   "update <work-item>",
		Short: "Update work item fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := workItemArg(app, projectFlag, args[0])
			if err != nil {
				return err
			}
			if err := f.resolveRefs(cmd.Flags(), app, w.ProjectID); err != nil {
				return err
			}
			before := w.Status
			w, err = app.Store.UpdateWorkItem(cmd.Context(), w.WorkItemID, func(w *domain.WorkItem) error {
				return f.apply(cmd.Flags(), w)
			})
			if err != nil {
				return err
			}
			if w.Status != before {
				printf(cmd, "Updated %s: %s -> %s\n", w.Title, before, w.Status)
				return nil
			}
			printf(cmd, "Updated %s\n", w.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project context for item titles")
	f.register(cmd.Flags())
	return cmd
}

func newWorkCommentCmd(app *App) *cobra.Command {
	var projectFlag string

	cmd := &cobra.Command{
		Use:   "comment <work-item> <text>",
		Short: "Comment on a work item as the acting user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.actor(cmd.Context())
			if err != nil {
				return err
			}
			w, err := workItemArg(app, projectFlag, args[0])
			if err != nil {
				return err
			}
			w, err = app.Store.AddComment(cmd.Context(), w.WorkItemID, u.UserID, args[1])
			if err != nil {
				return err
			}
			printf(cmd, "Commented on %s (%d comments)\n", w.Title, len(w.Comments))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project context for item titles")
	return cmd
}

func newWorkRemoveCmd(app *App) *cobra.Command {
	var projectFlag string

	cmd := &cobra.Command{
		Use:   "remove <work-item>",
		Short: "Delete a work item; children become top-level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := workItemArg(app, projectFlag, args[0])
			if err != nil {
				return err
			}
			if err := app.Store.DeleteWorkItem(cmd.Context(), w.WorkItemID); err != nil {
				return err
			}
			printf(cmd, "Removed %s %s\n", w.WorkItemType, w.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project context for item titles")
	return cmd
}

func newSprintCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprint",
		Short: "Manage sprints",
	}

	cmd.AddCommand(
		newSprintAddCmd(app),
		newSprintListCmd(app),
		newSprintRemoveCmd(app),
	)

	return cmd
}

func newSprintAddCmd(app *App) *cobra.Command {
	var projectFlag, name, goal, start, end, status string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a sprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, projectFlag)
			if err != nil {
				return err
			}
			sp := domain.Sprint{ProjectID: projectID, Name: name, Goal: goal, StartDate: start, EndDate: end}
			if status != "" {
				if sp.Status, err = parseEnum("sprint status", status, sprintStatuses...); err != nil {
					return err
				}
			}
			sp, err = app.Store.CreateSprint(cmd.Context(), sp)
			if err != nil {
				return err
			}
			printf(cmd, "Created sprint %s [%s]\n", sp.Name, sp.SprintID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project")
	cmd.Flags().StringVar(&name, "name", "", "Sprint name")
	cmd.Flags().StringVar(&goal, "goal", "", "Sprint goal")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "Planned, Active or Completed")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSprintListCmd(app *App) *cobra.Command {
	var projectFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's sprints",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, projectFlag)
			if err != nil {
				return err
			}
			sprints := app.Store.ListSprints(projectID)
			if len(sprints) == 0 {
				printf(cmd, "No sprints found.\n")
				return nil
			}
			counts := map[domain.SprintID]int{}
			for _, w := range app.Store.ListWorkItems(projectID, store.WorkItemFilter{}) {
				if w.SprintID != nil {
					counts[*w.SprintID]++
				}
			}
			write(cmd, formatter.FormatSprints(sprints, counts))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newSprintRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <sprint>",
		Short: "Delete a sprint; its items leave the sprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSprintID(app, "", args[0])
			if err != nil {
				return err
			}
			if err := app.Store.DeleteSprint(cmd.Context(), id); err != nil {
				return err
			}
			printf(cmd, "Removed sprint %s\n", id)
			return nil
		},
	}
}

func newRaidCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raid",
		Short: "Manage risks, assumptions, issues and decisions",
	}

	cmd.AddCommand(
		newRaidAddCmd(app),
		newRaidListCmd(app),
		newRaidLinkCmd(app),
		newRaidRemoveCmd(app),
	)

	return cmd
}

func newRaidAddCmd(app *App) *cobra.Command {
	var projectFlag, typ, title, description, severity, status, owner, due string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a RAID entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, projectFlag)
			if err != nil {
				return err
			}
			r := domain.RaidEntry{ProjectID: projectID, Title: title, Description: description, DueDate: due}
			if r.Type, err = parseEnum("RAID type", typ, raidTypes...); err != nil {
				return err
			}
			if severity != "" {
				if r.Severity, err = parseEnum("severity", severity, severities...); err != nil {
					return err
				}
			}
			if status != "" {
				if r.Status, err = parseEnum("RAID status", status, raidStatuses...); err != nil {
					return err
				}
			}
			if owner != "" {
				uid, err := resolveUserID(app, owner)
				if err != nil {
					return err
				}
				r.OwnerUserID = &uid
			}
			r, err = app.Store.CreateRaidEntry(cmd.Context(), r)
			if err != nil {
				return err
			}
			printf(cmd, "Created %s %s [%s]\n", r.Type, r.Title, r.RaidID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project")
	cmd.Flags().StringVar(&typ, "type", "", "risk, assumption, issue or decision")
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&severity, "severity", "", "Low, Medium, High or Critical")
	cmd.Flags().StringVar(&status, "status", "", "Open, Watching, Mitigated or Closed")
	cmd.Flags().StringVar(&owner, "owner", "", "Owning user")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newRaidListCmd(app *App) *cobra.Command {
	var projectFlag, typ, status, severity string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's RAID log",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, projectFlag)
			if err != nil {
				return err
			}
			var filter store.RaidFilter
			if typ != "" {
				if filter.Type, err = parseEnum("RAID type", typ, raidTypes...); err != nil {
					return err
				}
			}
			if status != "" {
				if filter.Status, err = parseEnum("RAID status", status, raidStatuses...); err != nil {
					return err
				}
			}
			if severity != "" {
				if filter.Severity, err = parseEnum("severity", severity, severities...); err != nil {
					return err
				}
			}
			entries := app.Store.ListRaid(projectID, filter)
			if len(entries) == 0 {
				printf(cmd, "No RAID entries found.\n")
				return nil
			}
			write(cmd, formatter.FormatRaid(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project")
	cmd.Flags().StringVar(&typ, "type", "", "Only this type")
	cmd.Flags().StringVar(&status, "status", "", "Only this status")
	cmd.Flags().StringVar(&severity, "severity", "", "Only this severity")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func newRaidLinkCmd(app *App) *cobra.Command {
	var unlink bool

	cmd := &cobra.Command{
		Use:   "link <raid> <work-item>",
		Short: "Link a RAID entry to a work item of the same project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raidID, err := resolveRaidID(app, "", args[0])
			if err != nil {
				return err
			}
			r, _ := app.Store.FindRaidEntry(raidID)
			workItemID, err := resolveWorkItemID(app, r.ProjectID, args[1])
			if err != nil {
				return err
			}
			if unlink {
				r, err = app.Store.UnlinkRaid(cmd.Context(), raidID, workItemID)
			} else {
				r, err = app.Store.LinkRaid(cmd.Context(), raidID, workItemID)
			}
			if err != nil {
				return err
			}
			printf(cmd, "%s now links %d work items\n", r.Title, len(r.LinkedWorkItemIDs))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unlink, "unlink", false, "Remove the link instead")
	return cmd
}

func newRaidRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <raid>",
		Short: "Delete a RAID entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRaidID(app, "", args[0])
			if err != nil {
				return err
			}
			if err := app.Store.DeleteRaidEntry(cmd.Context(), id); err != nil {
				return err
			}
			printf(cmd, "Removed RAID entry %s\n", id)
			return nil
		},
	}
}

func newMapCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map agile work items onto PMI work items",
	}

	cmd.AddCommand(
		newMapAddCmd(app),
		newMapListCmd(app),
		newMapRemoveCmd(app),
	)

	return cmd
}

func newMapAddCmd(app *App) *cobra.Command {
	var projectFlag, notes string

	cmd := &cobra.Command{
		Use:   "add <agile-item> <pmi-item>",
		Short: "Link an agile item to a PMI item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			agile, err := workItemArg(app, projectFlag, args[0])
			if err != nil {
				return err
			}
			pmi, err := workItemArg(app, projectFlag, args[1])
			if err != nil {
				return err
			}
			m, err := app.Store.CreateMapping(cmd.Context(), domain.Mapping{
				AgileWorkItemID: agile.WorkItemID,
				PMIWorkItemID:   pmi.WorkItemID,
				Notes:           notes,
			})
			if err != nil {
				return err
			}
			printf(cmd, "Mapped %s -> %s [%s]\n", agile.Title, pmi.Title, m.MappingID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project context for item titles")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	return cmd
}

func newMapListCmd(app *App) *cobra.Command {
	var projectFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, projectFlag)
			if err != nil {
				return err
			}
			mappings := app.Store.ListMappings(projectID)
			if len(mappings) == 0 {
				printf(cmd, "No mappings found.\n")
				return nil
			}
			titles := map[domain.WorkItemID]string{}
			for _, w := range app.Store.ListWorkItems(projectID, store.WorkItemFilter{}) {
				titles[w.WorkItemID] = w.Title
			}
			write(cmd, formatter.FormatMappings(mappings, titles))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newMapRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <mapping-id>",
		Short: "Delete a mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolve("mapping", args[0], candidatesOf(app.Store.ListMappings(""), func(m domain.Mapping) candidate {
				return candidate{id: string(m.MappingID)}
			}))
			if err != nil {
				return err
			}
			if err := app.Store.DeleteMapping(cmd.Context(), domain.MappingID(id)); err != nil {
				return fmt.Errorf("remove mapping: %w", err)
			}
			printf(cmd, "Removed mapping %s\n", id)
			return nil
		},
	}
}
