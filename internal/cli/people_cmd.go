package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexanderramin/delegate/internal/cli/formatter"
	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
)

var userRoles = []domain.UserRole{domain.UserAdmin, domain.UserProjectManager, domain.UserApprover, domain.UserWorker}

func newUserCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(
		newUserAddCmd(app),
		newUserListCmd(app),
		newUserRemoveCmd(app),
	)

	return cmd
}

func newUserAddCmd(app *App) *cobra.Command {
	var name, email, role, tenant string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u := domain.User{DisplayName: name, Email: email}
			var err error
			if role != "" {
				if u.Role, err = parseEnum("role", role, userRoles...); err != nil {
					return err
				}
			}
			if tenant != "" {
				if u.TenantID, err = resolveTenantID(app, tenant); err != nil {
					return err
				}
			} else if actor, err := app.actor(cmd.Context()); err == nil {
				u.TenantID = actor.TenantID
			}
			u, err = app.Store.CreateUser(cmd.Context(), u)
			if err != nil {
				return err
			}
			printf(cmd, "Created user %s [%s] as %s\n", u.DisplayName, u.UserID, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&role, "role", "", "Admin, ProjectManager, Approver or Worker")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant (defaults to the acting user's)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newUserListCmd(app *App) *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tenantID domain.TenantID
			if tenant != "" {
				var err error
				if tenantID, err = resolveTenantID(app, tenant); err != nil {
					return err
				}
			}
			users := app.Store.ListUsers(tenantID)
			if len(users) == 0 {
				printf(cmd, "No users found.\n")
				return nil
			}
			write(cmd, formatter.FormatUsers(users))
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Only users of this tenant")
	return cmd
}

func newUserRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user>",
		Short: "Delete a user; their time entries are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveUserID(app, args[0])
			if err != nil {
				return err
			}
			u, _ := app.Store.FindUser(id)
			if err := app.Store.DeleteUser(cmd.Context(), id); err != nil {
				return err
			}
			printf(cmd, "Removed user %s\n", u.DisplayName)
			return nil
		},
	}
}

func newRoleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage a project's role hierarchy",
	}

	cmd.AddCommand(
		newRoleAddCmd(app),
		newRoleListCmd(app),
		newRoleAssignCmd(app),
		newRoleRemoveCmd(app),
	)

	return cmd
}

func newRoleAddCmd(app *App) *cobra.Command {
	var projectFlag, name, description, parent string
	var leadership bool
	var order int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, projectFlag)
			if err != nil {
				return err
			}
			r := domain.Role{ProjectID: projectID, Name: name, Description: description, IsLeadership: leadership, SortOrder: order}
			if parent != "" {
				id, err := resolveRoleID(app, projectID, parent)
				if err != nil {
					return err
				}
				r.ParentRoleID = &id
			}
			r, err = app.Store.CreateRole(cmd.Context(), r)
			if err != nil {
				return err
			}
			printf(cmd, "Created role %s [%s]\n", r.Name, r.RoleID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project")
	cmd.Flags().StringVar(&name, "name", "", "Role name")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent role")
	cmd.Flags().BoolVar(&leadership, "leadership", false, "Holders count as project managers")
	cmd.Flags().IntVar(&order, "order", 0, "Sort order among siblings")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newRoleListCmd(app *App) *cobra.Command {
	var projectFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a project's roles as a tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, projectFlag)
			if err != nil {
				return err
			}
			roles := app.Store.ListRoles(projectID)
			if len(roles) == 0 {
				printf(cmd, "No roles found.\n")
				return nil
			}
			members := map[domain.RoleID][]string{}
			for _, a := range app.Store.ListRoleAssignments(store.RoleAssignmentFilter{ProjectID: projectID}) {
				name := string(a.UserID)
				if u, ok := app.Store.FindUser(a.UserID); ok {
					name = u.DisplayName
				}
				members[a.RoleID] = append(members[a.RoleID], name)
			}
			write(cmd, formatter.FormatRoles(roles, members))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newRoleAssignCmd(app *App) *cobra.Command {
	var unassign bool

	cmd := &cobra.Command{
		Use:   "assign <role> <user>",
		Short: "Give a user a role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roleID, err := resolveRoleID(app, "", args[0])
			if err != nil {
				return err
			}
			userID, err := resolveUserID(app, args[1])
			if err != nil {
				return err
			}
			if unassign {
				for _, a := range app.Store.ListRoleAssignments(store.RoleAssignmentFilter{RoleID: roleID, UserID: userID}) {
					if err := app.Store.DeleteRoleAssignment(cmd.Context(), a.AssignmentID); err != nil {
						return err
					}
				}
				printf(cmd, "Unassigned %s from %s\n", userID, roleID)
				return nil
			}
			a, err := app.Store.AssignRole(cmd.Context(), roleID, userID)
			if err != nil {
				return err
			}
			printf(cmd, "Assigned %s to %s [%s]\n", userID, roleID, a.AssignmentID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unassign, "remove", false, "Remove the assignment instead")
	return cmd
}

func newRoleRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <role>",
		Short: "Delete a role; child roles become top-level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRoleID(app, "", args[0])
			if err != nil {
				return err
			}
			if err := app.Store.DeleteRole(cmd.Context(), id); err != nil {
				return err
			}
			printf(cmd, "Removed role %s\n", id)
			return nil
		},
	}
}

func newLoginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login <user>",
		Short: "Remember which user commands act as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveUserID(app, args[0])
			if err != nil {
				return err
			}
			m, err := app.Store.Login(cmd.Context(), id)
			if err != nil {
				return err
			}
			u, _ := app.Store.FindUser(m.UserID)
			printf(cmd, "Logged in as %s (%s)\n", u.DisplayName, m.TenantID)
			return nil
		},
	}
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store.Logout(cmd.Context()); err != nil {
				return err
			}
			printf(cmd, "Logged out\n")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the acting user and their permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.actor(cmd.Context())
			if err != nil {
				return err
			}
			write(cmd, formatter.RenderFields([][2]string{
				{"user", u.DisplayName + " " + formatter.Dim(string(u.UserID))},
				{"tenant", string(u.TenantID)},
				{"role", string(u.Role)},
				{"admin", formatter.OnOff(app.Store.IsAdmin(u.UserID))},
				{"approver", formatter.OnOff(app.Store.IsApprover(u.UserID, u.TenantID))},
			}))
			return nil
		},
	}
}
