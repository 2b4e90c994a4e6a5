package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/delegate/internal/cli/formatter"
	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
)

var (
	methodologies   = []domain.Methodology{domain.MethodologyAgile, domain.MethodologyPMI, domain.MethodologyHybrid}
	projectStatuses = []domain.ProjectStatus{domain.ProjectPlanning, domain.ProjectActive, domain.ProjectOnHold, domain.ProjectCompleted, domain.ProjectCancelled}
	priorities      = []domain.Priority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityUrgent}
	taskStatuses    = []domain.TaskStatus{domain.TaskNotStarted, domain.TaskInProgress, domain.TaskBlocked, domain.TaskDone}
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectShowCmd(app),
		newProjectUpdateCmd(app),
		newProjectRemoveCmd(app),
		newProjectStepsCmd(app),
	)

	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var name, mode, category, customer, start, end, description, tenant string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && app.interactive() {
				if err := projectForm(&name, &mode, &end).Run(); err != nil {
					return err
				}
			}
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			methodology, err := parseEnum("methodology", mode, methodologies...)
			if err != nil {
				return err
			}

			p := domain.Project{
				Name:        name,
				Methodology: methodology,
				Category:    category,
				Customer:    customer,
				StartDate:   start,
				EndDate:     end,
				Description: description,
			}
			if tenant != "" {
				if p.TenantID, err = resolveTenantID(app, tenant); err != nil {
					return err
				}
			} else if u, err := app.actor(cmd.Context()); err == nil {
				p.TenantID = u.TenantID
			}

			p, err = app.Store.CreateProject(cmd.Context(), p)
			if err != nil {
				return err
			}
			printf(cmd, "Created project %s [%s]\n", p.Name, p.ProjectID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&mode, "mode", string(domain.MethodologyAgile), "Methodology: agile, pmi or hybrid")
	cmd.Flags().StringVar(&category, "category", "", "Project category")
	cmd.Flags().StringVar(&customer, "customer", "", "Customer name")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Owning tenant (defaults to the acting user's)")

	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tenantID domain.TenantID
			if tenant != "" {
				var err error
				if tenantID, err = resolveTenantID(app, tenant); err != nil {
					return err
				}
			}
			projects := app.Store.ListProjects(tenantID)
			if len(projects) == 0 {
				printf(cmd, "No projects found.\n")
				return nil
			}
			printf(cmd, "%s\n", formatter.FormatProjectList(projects, app.Store.Now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Only projects of this tenant")
	return cmd
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project>",
		Short: "Show a project with its board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			p, err := app.Store.GetProject(id)
			if err != nil {
				return err
			}

			flags := map[string]bool{}
			for _, name := range app.Store.FlagNames() {
				flags[name] = app.Store.ResolveFeature(name, p.TenantID, p.ProjectID)
			}
			printf(cmd, "%s\n", formatter.FormatProjectDetail(formatter.ProjectDetail{
				Project:   *p,
				Tasks:     app.Store.ListTasks(id),
				WorkItems: len(app.Store.ListWorkItems(id, store.WorkItemFilter{})),
				Sprints:   len(app.Store.ListSprints(id)),
				Raid:      len(app.Store.ListRaid(id, store.RaidFilter{})),
				Roles:     len(app.Store.ListRoles(id)),
				Flags:     flags,
			}, app.Store.Now()))
			return nil
		},
	}
}

func newProjectUpdateCmd(app *App) *cobra.Command {
	var name, status, mode, category, customer, start, end, description string

	cmd := &cobra.Command{
		Use:   "update <project>",
		Short: "Update project fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			p, err := app.Store.UpdateProject(cmd.Context(), id, func(p *domain.Project) error {
				if flags.Changed("name") {
					p.Name = name
				}
				if flags.Changed("status") {
					s, err := parseEnum("status", status, projectStatuses...)
					if err != nil {
						return err
					}
					p.Status = s
				}
				if flags.Changed("mode") {
					m, err := parseEnum("methodology", mode, methodologies...)
					if err != nil {
						return err
					}
					p.Methodology = m
				}
				if flags.Changed("category") {
					p.Category = category
				}
				if flags.Changed("customer") {
					p.Customer = customer
				}
				if flags.Changed("start") {
					p.StartDate = start
				}
				if flags.Changed("end") {
					p.EndDate = end
				}
				if flags.Changed("description") {
					p.Description = description
				}
				return nil
			})
			if err != nil {
				return err
			}
			printf(cmd, "Updated project %s (%s)\n", p.Name, p.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&status, "status", "", "Planning, Active, On Hold, Completed or Cancelled")
	cmd.Flags().StringVar(&mode, "mode", "", "Methodology: agile, pmi or hybrid")
	cmd.Flags().StringVar(&category, "category", "", "Category")
	cmd.Flags().StringVar(&customer, "customer", "", "Customer")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "Description")

	return cmd
}

func newProjectRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <project>",
		Short: "Delete a project and everything scoped to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			p, _ := app.Store.FindProject(id)
			if err := app.confirm(fmt.Sprintf("Delete project %q with its tasks, work items and roles", p.Name)); err != nil {
				return err
			}
			if err := app.Store.DeleteProject(cmd.Context(), id); err != nil {
				return err
			}
			printf(cmd, "Removed project %s\n", p.Name)
			return nil
		},
	}
}

func newProjectStepsCmd(app *App) *cobra.Command {
	var add, color, remove string

	cmd := &cobra.Command{
		Use:   "steps <project>",
		Short: "List, add or remove workflow steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			switch {
			case add != "":
				s, err := app.Store.AddStep(ctx, id, add, color)
				if err != nil {
					return err
				}
				printf(cmd, "Added step %s [%s]\n", s.Name, s.ID)
			case remove != "":
				p, err := app.Store.GetProject(id)
				if err != nil {
					return err
				}
				stepID, err := resolveStepID(*p, remove)
				if err != nil {
					return err
				}
				if err := app.Store.RemoveStep(ctx, id, stepID); err != nil {
					return err
				}
				printf(cmd, "Removed step %s\n", stepID)
			}

			p, err := app.Store.GetProject(id)
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatSteps(p.Steps))
			return nil
		},
	}

	cmd.Flags().StringVar(&add, "add", "", "Append a step with this name")
	cmd.Flags().StringVar(&color, "color", "slate", "Color of the added step")
	cmd.Flags().StringVar(&remove, "remove", "", "Remove this step; its tasks move to the first step")
	cmd.MarkFlagsMutuallyExclusive("add", "remove")

	return cmd
}

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage kanban tasks",
	}

	cmd.AddCommand(
		newTaskAddCmd(app),
		newTaskListCmd(app),
		newTaskMoveCmd(app),
		newTaskUpdateCmd(app),
		newTaskRemoveCmd(app),
	)

	return cmd
}

func newTaskAddCmd(app *App) *cobra.Command {
	var projectFlag, title, step, priority, due, description string
	var assignees []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, projectFlag)
			if err != nil {
				return err
			}
			t := domain.Task{ProjectID: projectID, Title: title, DueDate: due, Description: description}
			if step != "" {
				p, err := app.Store.GetProject(projectID)
				if err != nil {
					return err
				}
				if t.StatusStepID, err = resolveStepID(*p, step); err != nil {
					return err
				}
			}
			if priority != "" {
				if t.Priority, err = parseEnum("priority", priority, priorities...); err != nil {
					return err
				}
			}
			for _, a := range assignees {
				uid, err := resolveUserID(app, a)
				if err != nil {
					return err
				}
				t.AssigneeUserIDs = append(t.AssigneeUserIDs, uid)
			}

			t, err = app.Store.CreateTask(cmd.Context(), t)
			if err != nil {
				return err
			}
			printf(cmd, "Created task %s [%s]\n", t.Title, t.TaskID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project")
	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&step, "step", "", "Workflow step (defaults to the first)")
	cmd.Flags().StringVar(&priority, "priority", "", "Low, Medium, High or Urgent")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringSliceVar(&assignees, "assignee", nil, "Assigned user (repeatable)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newTaskListCmd(app *App) *cobra.Command {
	var projectFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, projectFlag)
			if err != nil {
				return err
			}
			p, err := app.Store.GetProject(projectID)
			if err != nil {
				return err
			}
			tasks := app.Store.ListTasks(projectID)
			if len(tasks) == 0 {
				printf(cmd, "No tasks found.\n")
				return nil
			}
			write(cmd, formatter.FormatTasks(*p, tasks, app.Store.Now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// taskInProject resolves a task argument, optionally scoped by --project.
func taskInProject(app *App, projectFlag, input string) (domain.Task, error) {
	var projectID domain.ProjectID
	if projectFlag != "" {
		var err error
		if projectID, err = resolveProjectID(app, projectFlag); err != nil {
			return domain.Task{}, err
		}
	}
	id, err := resolveTaskID(app, projectID, input)
	if err != nil {
		return domain.Task{}, err
	}
	t, _ := app.Store.FindTask(id)
	return t, nil
}

func newTaskMoveCmd(app *App) *cobra.Command {
	var projectFlag string

	cmd := &cobra.Command{
		Use:   "move <task> <step>",
		Short: "Move a task to another workflow step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := taskInProject(app, projectFlag, args[0])
			if err != nil {
				return err
			}
			p, err := app.Store.GetProject(t.ProjectID)
			if err != nil {
				return err
			}
			stepID, err := resolveStepID(*p, args[1])
			if err != nil {
				return err
			}
			if _, err := app.Store.MoveTask(cmd.Context(), t.TaskID, stepID); err != nil {
				return err
			}
			for _, s := range p.Steps {
				if s.ID == stepID {
					printf(cmd, "Moved %s to %s\n", t.Title, s.Name)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project context for task names")
	return cmd
}

func newTaskUpdateCmd(app *App) *cobra.Command {
	var projectFlag, title, priority, due, status, description string
	var assignees []string

	cmd := &cobra.Command{
		Use:   "update <task>",
		Short: "Update task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := taskInProject(app, projectFlag, args[0])
			if err != nil {
				return err
			}
			var assigneeIDs []domain.UserID
			for _, a := range assignees {
				uid, err := resolveUserID(app, a)
				if err != nil {
					return err
				}
				assigneeIDs = append(assigneeIDs, uid)
			}
			flags := cmd.Flags()
			updated, err := app.Store.UpdateTask(cmd.Context(), t.TaskID, func(t *domain.Task) error {
				if flags.Changed("title") {
					t.Title = title
				}
				if flags.Changed("description") {
					t.Description = description
				}
				if flags.Changed("due") {
					t.DueDate = due
				}
				if flags.Changed("priority") {
					p, err := parseEnum("priority", priority, priorities...)
					if err != nil {
						return err
					}
					t.Priority = p
				}
				if flags.Changed("status") {
					s, err := parseEnum("task status", status, taskStatuses...)
					if err != nil {
						return err
					}
					t.Status = s
				}
				if flags.Changed("assignee") {
					t.AssigneeUserIDs = domain.NonNil(assigneeIDs)
				}
				return nil
			})
			if err != nil {
				return err
			}
			printf(cmd, "Updated task %s\n", updated.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project context for task names")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&priority, "priority", "", "Low, Medium, High or Urgent")
	cmd.Flags().StringVar(&status, "status", "", "NotStarted, InProgress, Blocked or Done")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&assignees, "assignee", nil, "Replace assignees (repeatable)")

	return cmd
}

func newTaskRemoveCmd(app *App) *cobra.Command {
	var projectFlag string

	cmd := &cobra.Command{
		Use:   "remove <task>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := taskInProject(app, projectFlag, args[0])
			if err != nil {
				return err
			}
			if err := app.Store.DeleteTask(cmd.Context(), t.TaskID); err != nil {
				return err
			}
			printf(cmd, "Removed task %s\n", strings.TrimSpace(t.Title))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project context for task names")
	return cmd
}
