package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/delegate/internal/cli/formatter"
	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
)

func newFlagCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flag",
		Short: "Inspect and change feature flags",
	}

	cmd.AddCommand(
		newFlagListCmd(app),
		newFlagSetCmd(app),
		newFlagUnsetCmd(app),
		newFlagCheckCmd(app),
		newFlagDefaultCmd(app),
	)

	return cmd
}

// parseOnOff accepts the usual spellings of a boolean switch.
func parseOnOff(input string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "on", "true", "yes", "1", "enable", "enabled":
		return true, nil
	case "off", "false", "no", "0", "disable", "disabled":
		return false, nil
	}
	return false, fmt.Errorf("%w: expected on or off, got %q", store.ErrInvalid, input)
}

// flagScope holds the --project / --tenant pair shared by set and unset.
type flagScope struct {
	project string
	tenant  string
}

func (f *flagScope) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.project, "project", "", "Apply to one project")
	cmd.Flags().StringVar(&f.tenant, "tenant", "", "Apply to one tenant")
	cmd.MarkFlagsMutuallyExclusive("project", "tenant")
}

func (f *flagScope) resolve(app *App) (domain.ProjectID, domain.TenantID, error) {
	var pid domain.ProjectID
	var tid domain.TenantID
	var err error
	if f.project != "" {
		if pid, err = resolveProjectID(app, f.project); err != nil {
			return "", "", err
		}
	}
	if f.tenant != "" {
		if tid, err = resolveTenantID(app, f.tenant); err != nil {
			return "", "", err
		}
	}
	return pid, tid, nil
}

func (f *flagScope) label(pid domain.ProjectID, tid domain.TenantID) string {
	switch {
	case pid != "":
		return "project " + string(pid)
	case tid != "":
		return "tenant " + string(tid)
	}
	return "global"
}

func newFlagListCmd(app *App) *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show every flag with its global value and overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var tid domain.TenantID
			if tenant != "" {
				var err error
				if tid, err = resolveTenantID(app, tenant); err != nil {
					return err
				}
			}
			names := app.Store.FlagNames()
			if len(names) == 0 {
				printf(cmd, "No flags defined.\n")
				return nil
			}
			write(cmd, formatter.FormatFlags(app.Store.Features(), names))

			tenantFlags := app.Store.TenantFlags(tid)
			if len(tenantFlags) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(tenantFlags))
			for _, tf := range tenantFlags {
				rows = append(rows, []string{string(tf.TenantID), formatter.Bold(tf.Name), formatter.OnOff(tf.Enabled)})
			}
			printf(cmd, "\n%s\n", formatter.Header("Tenant flags"))
			write(cmd, formatter.RenderTable([]string{"TENANT", "FLAG", "VALUE"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Only tenant flags of this tenant")
	return cmd
}

func newFlagSetCmd(app *App) *cobra.Command {
	var scope flagScope

	cmd := &cobra.Command{
		Use:   "set <name> <on|off>",
		Short: "Set a flag globally, for a project or for a tenant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseOnOff(args[1])
			if err != nil {
				return err
			}
			pid, tid, err := scope.resolve(app)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			switch {
			case pid != "":
				err = app.Store.SetProjectFlag(ctx, pid, args[0], enabled)
			case tid != "":
				err = app.Store.SetTenantFlag(ctx, tid, args[0], enabled)
			default:
				err = app.Store.SetGlobalFlag(ctx, args[0], enabled)
			}
			if err != nil {
				return err
			}
			printf(cmd, "%s is %s (%s)\n", args[0], formatter.OnOff(enabled), scope.label(pid, tid))
			return nil
		},
	}

	scope.register(cmd)
	return cmd
}

func newFlagUnsetCmd(app *App) *cobra.Command {
	var scope flagScope

	cmd := &cobra.Command{
		Use:   "unset <name>",
		Short: "Remove a flag value so the next layer decides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, tid, err := scope.resolve(app)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			switch {
			case pid != "":
				err = app.Store.UnsetProjectFlag(ctx, pid, args[0])
			case tid != "":
				err = app.Store.UnsetTenantFlag(ctx, tid, args[0])
			default:
				err = app.Store.UnsetGlobalFlag(ctx, args[0])
			}
			if err != nil {
				return err
			}
			printf(cmd, "Unset %s (%s)\n", args[0], scope.label(pid, tid))
			return nil
		},
	}

	scope.register(cmd)
	return cmd
}

func newFlagCheckCmd(app *App) *cobra.Command {
	var project, tenant string

	cmd := &cobra.Command{
		Use:   "check <name>",
		Short: "Resolve a flag for a project and tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pid domain.ProjectID
			var tid domain.TenantID
			var err error
			if project != "" {
				if pid, err = resolveProjectID(app, project); err != nil {
					return err
				}
			}
			if tenant != "" {
				if tid, err = resolveTenantID(app, tenant); err != nil {
					return err
				}
			}
			printf(cmd, "%s: %s\n", args[0], formatter.OnOff(app.Store.ResolveFeature(args[0], tid, pid)))
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project whose override applies")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant whose flag applies")
	return cmd
}

func newFlagDefaultCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "default <on|off|clear>",
		Short: "Change the value of flags no layer defines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value *bool
			if !strings.EqualFold(args[0], "clear") {
				v, err := parseOnOff(args[0])
				if err != nil {
					return err
				}
				value = &v
			}
			if err := app.Store.SetFlagDefault(cmd.Context(), value); err != nil {
				return err
			}
			f := app.Store.Features()
			printf(cmd, "Undefined flags now resolve %s\n", formatter.OnOff(f.Fallback()))
			return nil
		},
	}
}
