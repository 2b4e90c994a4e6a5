package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/delegate/internal/cli/formatter"
	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
)

func newNodeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage the task node hours tree",
	}

	cmd.AddCommand(
		newNodeAddCmd(app),
		newNodeListCmd(app),
		newNodeRollupCmd(app),
		newNodeRemoveCmd(app),
	)

	return cmd
}

func newNodeAddCmd(app *App) *cobra.Command {
	var title, parent, contract, tenant, due, description string
	var scoped, allocated float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task node",
		RunE: func(cmd *cobra.Command, args []string) error {
			n := domain.TaskNode{
				Title:          title,
				Description:    description,
				ScopedHours:    scoped,
				AllocatedHours: allocated,
				DueDate:        due,
			}
			var err error
			if parent != "" {
				id, err := resolveNodeID(app, parent)
				if err != nil {
					return err
				}
				n.ParentTaskNodeID = &id
			}
			if contract != "" {
				id, err := resolveContractID(app, contract)
				if err != nil {
					return err
				}
				n.ContractID = &id
			}
			if tenant != "" {
				if n.TenantID, err = resolveTenantID(app, tenant); err != nil {
					return err
				}
			} else if u, err := app.actor(cmd.Context()); err == nil {
				n.TenantID = u.TenantID
			}

			n, err = app.Store.CreateTaskNode(cmd.Context(), n)
			if err != nil {
				return err
			}
			printf(cmd, "Created task node %s [%s]\n", n.Title, n.TaskNodeID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Node title")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent node")
	cmd.Flags().StringVar(&contract, "contract", "", "Contract (inherited from the parent when omitted)")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant (defaults to the acting user's)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&scoped, "scoped", 0, "Scoped hours")
	cmd.Flags().Float64Var(&allocated, "allocated", 0, "Allocated hours")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newNodeListCmd(app *App) *cobra.Command {
	var contract, tenant string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the hours tree with charged against allocated",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter store.TaskNodeFilter
			var err error
			if contract != "" {
				if filter.ContractID, err = resolveContractID(app, contract); err != nil {
					return err
				}
			}
			if tenant != "" {
				if filter.TenantID, err = resolveTenantID(app, tenant); err != nil {
					return err
				}
			}
			nodes := app.Store.ListTaskNodes(filter)
			if len(nodes) == 0 {
				printf(cmd, "No task nodes found.\n")
				return nil
			}
			rows := make([]formatter.NodeRollup, 0, len(nodes))
			for _, n := range nodes {
				r, err := app.Store.CalculateTaskRollup(n.TaskNodeID)
				rows = append(rows, formatter.NodeRollup{Node: n, Rollup: r, Err: err})
			}
			write(cmd, formatter.FormatNodeTree(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&contract, "contract", "", "Only nodes of this contract")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Only nodes of this tenant")
	return cmd
}

func newNodeRollupCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rollup <node>",
		Short: "Sum scoped, allocated and charged hours over a subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveNodeID(app, args[0])
			if err != nil {
				return err
			}
			n, err := app.Store.GetTaskNode(id)
			if err != nil {
				return err
			}
			r, err := app.Store.CalculateTaskRollup(id)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", formatter.FormatRollup(*n, r))
			return nil
		},
	}
}

func newNodeRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <node>",
		Short: "Delete a task node; its children become roots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveNodeID(app, args[0])
			if err != nil {
				return err
			}
			if err := app.Store.DeleteTaskNode(cmd.Context(), id); err != nil {
				return err
			}
			printf(cmd, "Removed task node %s\n", id)
			return nil
		},
	}
}

func newTimeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "time",
		Short: "Record and review time entries",
	}

	cmd.AddCommand(
		newTimeAddCmd(app),
		newTimeListCmd(app),
		newTimeTransitionCmd(app, "submit", "Submit a draft or returned entry for review", domain.TimeEntryPending, false),
		newTimeTransitionCmd(app, "concur", "Approve a pending entry and lock it", domain.TimeEntryConcurred, false),
		newTimeTransitionCmd(app, "return", "Send a pending entry back to its author", domain.TimeEntryReturned, true),
		newTimeTransitionCmd(app, "reject", "Reject a pending entry", domain.TimeEntryRejected, true),
	)

	return cmd
}

func newTimeAddCmd(app *App) *cobra.Command {
	var node, date, notes, user string
	var minutes int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a draft time entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := domain.TimeEntry{NetMinutes: minutes, WorkDate: date, Notes: notes}
			if user != "" {
				id, err := resolveUserID(app, user)
				if err != nil {
					return err
				}
				e.UserID = id
			} else {
				u, err := app.actor(cmd.Context())
				if err != nil {
					return err
				}
				e.UserID = u.UserID
			}
			if node != "" {
				id, err := resolveNodeID(app, node)
				if err != nil {
					return err
				}
				e.TaskNodeID = &id
			}

			e, err := app.Store.CreateTimeEntry(cmd.Context(), e)
			if err != nil {
				return err
			}
			printf(cmd, "Recorded %s on %s [%s]\n", formatter.FormatMinutes(e.NetMinutes), e.WorkDate, e.TimeEntryID)
			return nil
		},
	}

	cmd.Flags().IntVar(&minutes, "minutes", 0, "Net minutes worked")
	cmd.Flags().StringVar(&date, "date", "", "Work date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&node, "node", "", "Task node charged")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&user, "user", "", "Record for this user instead of the acting one")
	_ = cmd.MarkFlagRequired("minutes")

	return cmd
}

func newTimeListCmd(app *App) *cobra.Command {
	var user, node, state, from, to string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List time entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.TimeEntryFilter{From: from, To: to}
			var err error
			switch {
			case user != "":
				if filter.UserID, err = resolveUserID(app, user); err != nil {
					return err
				}
			case !all:
				u, err := app.actor(cmd.Context())
				if err != nil {
					return err
				}
				filter.UserID = u.UserID
			}
			if node != "" {
				if filter.TaskNodeID, err = resolveNodeID(app, node); err != nil {
					return err
				}
			}
			if state != "" {
				if filter.State, err = parseEnum("time entry state", state, domain.TimeEntryStates...); err != nil {
					return err
				}
			}

			entries := app.Store.ListTimeEntries(filter)
			if len(entries) == 0 {
				printf(cmd, "No time entries found.\n")
				return nil
			}
			titles := map[domain.TaskNodeID]string{}
			for _, n := range app.Store.ListTaskNodes(store.TaskNodeFilter{}) {
				titles[n.TaskNodeID] = n.Title
			}
			write(cmd, formatter.FormatTimeEntries(entries, titles))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Entries of this user (defaults to the acting one)")
	cmd.Flags().BoolVar(&all, "all", false, "Entries of every user")
	cmd.Flags().StringVar(&node, "node", "", "Only entries on this task node")
	cmd.Flags().StringVar(&state, "state", "", "Draft, Pending, Concurred, Returned or Rejected")
	cmd.Flags().StringVar(&from, "from", "", "First work date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last work date (YYYY-MM-DD)")
	cmd.MarkFlagsMutuallyExclusive("user", "all")

	return cmd
}

// newTimeTransitionCmd builds one approval-graph command. The acting user
// is recorded as the reviewer.
func newTimeTransitionCmd(app *App, use, short string, to domain.TimeEntryState, needsReason bool) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   use + " <entry>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.actor(cmd.Context())
			if err != nil {
				return err
			}
			id, err := resolveTimeEntryID(app, args[0])
			if err != nil {
				return err
			}
			e, err := transitionTimeEntry(cmd.Context(), app, id, to, u.UserID, reason)
			if err != nil {
				return err
			}
			printf(cmd, "Time entry %s is now %s\n", e.TimeEntryID, e.State)
			return nil
		},
	}

	if needsReason {
		cmd.Flags().StringVar(&reason, "reason", "", "Why the entry is sent back")
		_ = cmd.MarkFlagRequired("reason")
	}
	return cmd
}

func transitionTimeEntry(ctx context.Context, app *App, id domain.TimeEntryID, to domain.TimeEntryState, userID domain.UserID, reason string) (domain.TimeEntry, error) {
	switch to {
	case domain.TimeEntryPending:
		return app.Store.SubmitTimeEntry(ctx, id, userID)
	case domain.TimeEntryConcurred:
		return app.Store.ConcurTimeEntry(ctx, id, userID)
	case domain.TimeEntryReturned:
		return app.Store.ReturnTimeEntry(ctx, id, userID, reason)
	case domain.TimeEntryRejected:
		return app.Store.RejectTimeEntry(ctx, id, userID, reason)
	}
	return domain.TimeEntry{}, fmt.Errorf("no command moves an entry to %s", to)
}
