package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/delegate/internal/cli/formatter"
	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/seed"
)

func newNotifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Read the acting user's notifications",
	}

	cmd.AddCommand(
		newNotifyListCmd(app),
		newNotifyReadCmd(app),
	)

	return cmd
}

func newNotifyListCmd(app *App) *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.actor(cmd.Context())
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatNotifications(app.Store.ListNotifications(u.UserID, unread), app.Store.Now()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "Only unread notifications")
	return cmd
}

func newNotifyReadCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [notification]",
		Short: "Mark one notification, or all of them, read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.actor(cmd.Context())
			if err != nil {
				return err
			}
			if all {
				n, err := app.Store.MarkAllNotificationsRead(cmd.Context(), u.UserID)
				if err != nil {
					return err
				}
				printf(cmd, "Marked %d notifications read\n", n)
				return nil
			}
			if len(args) == 0 {
				return errors.New("name a notification or pass --all")
			}
			list := app.Store.ListNotifications(u.UserID, false)
			id, err := resolve("notification", args[0], candidatesOf(list, func(n domain.Notification) candidate {
				return candidate{id: string(n.NotificationID)}
			}))
			if err != nil {
				return err
			}
			if err := app.Store.MarkNotificationRead(cmd.Context(), domain.NotificationID(id)); err != nil {
				return err
			}
			printf(cmd, "Marked %s read\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Mark every notification read")
	return cmd
}

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Export, import or reset the whole state",
	}

	cmd.AddCommand(
		newDataExportCmd(app),
		newDataImportCmd(app),
		newDataResetCmd(app),
	)

	return cmd
}

func newDataExportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := app.Store.ExportJSON()
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := atomic.WriteFile(out, bytes.NewReader(data)); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			printf(cmd, "Exported %d bytes to %s\n", len(data), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "File to write (stdout when omitted)")
	return cmd
}

func newDataImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the state with an exported JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			if err := app.confirm("Replace all data with " + args[0]); err != nil {
				return err
			}
			res := app.Store.ImportState(cmd.Context(), data)
			if !res.Success {
				return fmt.Errorf("import failed: %s", res.Error)
			}
			printf(cmd, "Imported %s\n", args[0])
			return nil
		},
	}
}

func newDataResetCmd(app *App) *cobra.Command {
	var seedDir string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Replace the state with the seed data and log out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.confirm("Reset all data to the seed"); err != nil {
				return err
			}
			var err error
			if seedDir != "" {
				err = app.Store.ResetToSeed(cmd.Context(), seed.FromDir(seedDir, app.logger()))
			} else {
				err = app.Store.Reset(cmd.Context())
			}
			if err != nil {
				return err
			}
			counts := app.Store.Counts()
			printf(cmd, "Reset: %d projects, %d users, %d task nodes\n", counts["projects"], counts["users"], counts["taskNodes"])
			return nil
		},
	}

	cmd.Flags().StringVar(&seedDir, "seed-dir", "", "Load seed files from this directory instead")
	return cmd
}

func newStatsCmd(app *App) *cobra.Command {
	var prom bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show record counts, or store metrics in Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if prom {
				if app.Metrics == nil {
					return errors.New("metrics are not enabled")
				}
				return app.Metrics.WriteText(cmd.OutOrStdout())
			}
			counts := app.Store.Counts()
			names := make([]string, 0, len(counts))
			for name := range counts {
				names = append(names, name)
			}
			sort.Strings(names)
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				rows = append(rows, []string{name, strconv.Itoa(counts[name])})
			}
			write(cmd, formatter.RenderTable([]string{"COLLECTION", "RECORDS"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&prom, "prom", false, "Print metrics in the Prometheus exposition format")
	return cmd
}
