package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/metrics"
	"github.com/alexanderramin/delegate/internal/store"
)

// App holds everything CLI commands operate on.
type App struct {
	Store   *store.Store
	Metrics *metrics.Observer
	Logger  *slog.Logger

	// IsInteractive reports whether prompts can be shown. Nil means never.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Defaults to a huh form.
	Confirm func(prompt string) (bool, error)

	as        string
	assumeYes bool
}

var errNoActor = errors.New("no user logged in: run `delegate login <user>` or pass --as")

// NewRootCmd creates the top-level "delegate" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "delegate",
		Short:         "Project, work item and timesheet tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&app.as, "as", "", "Act as this user instead of the logged-in one")
	root.PersistentFlags().BoolVarP(&app.assumeYes, "yes", "y", false, "Answer yes to confirmation prompts")

	root.AddCommand(
		newProjectCmd(app),
		newTaskCmd(app),
		newNodeCmd(app),
		newWorkCmd(app),
		newSprintCmd(app),
		newRaidCmd(app),
		newMapCmd(app),
		newRoleCmd(app),
		newUserCmd(app),
		newTimeCmd(app),
		newSessionCmd(app),
		newFlagCmd(app),
		newNotifyCmd(app),
		newDataCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newStatsCmd(app),
	)

	return root
}

// actor returns the user commands act for: --as when given, otherwise the
// logged-in user.
func (a *App) actor(ctx context.Context) (domain.User, error) {
	if a.as != "" {
		id, err := resolveUserID(a, a.as)
		if err != nil {
			return domain.User{}, err
		}
		u, _ := a.Store.FindUser(id)
		return u, nil
	}
	m, err := a.Store.CurrentSession(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if m == nil {
		return domain.User{}, errNoActor
	}
	u, ok := a.Store.FindUser(m.UserID)
	if !ok {
		return domain.User{}, fmt.Errorf("logged-in user %s no longer exists: %w", m.UserID, errNoActor)
	}
	return u, nil
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// confirm guards destructive commands. --yes skips the question; without a
// terminal the command is refused instead of prompting.
func (a *App) confirm(prompt string) error {
	if a.assumeYes {
		return nil
	}
	if !a.interactive() {
		return fmt.Errorf("%s: pass --yes to confirm", prompt)
	}
	ask := a.Confirm
	if ask == nil {
		ask = huhConfirm
	}
	ok, err := ask(prompt + "?")
	if err != nil {
		return err
	}
	if !ok {
		return errAborted
	}
	return nil
}

var errAborted = errors.New("aborted")

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func write(cmd *cobra.Command, s string) {
	_, _ = io.WriteString(cmd.OutOrStdout(), s)
}
