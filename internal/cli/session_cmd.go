package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/delegate/internal/cli/formatter"
	"github.com/alexanderramin/delegate/internal/domain"
	"github.com/alexanderramin/delegate/internal/store"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Run work session timers",
	}

	cmd.AddCommand(
		newSessionStartCmd(app),
		newSessionStepCmd(app, "pause", "Pause the running session", app.Store.PauseSession),
		newSessionStepCmd(app, "resume", "Resume a paused session", app.Store.ResumeSession),
		newSessionStopCmd(app),
		newSessionListCmd(app),
		newSessionWatchCmd(app),
	)

	return cmd
}

// sessionArg resolves an explicit session argument or falls back to the
// acting user's open session.
func sessionArg(ctx context.Context, app *App, args []string) (domain.WorkSessionID, error) {
	if len(args) > 0 {
		return resolveSessionID(app, args[0])
	}
	u, err := app.actor(ctx)
	if err != nil {
		return "", err
	}
	s, ok := app.Store.ActiveSession(u.UserID)
	if !ok {
		return "", fmt.Errorf("%s has no open session: %w", u.DisplayName, store.ErrNotFound)
	}
	return s.WorkSessionID, nil
}

func newSessionStartCmd(app *App) *cobra.Command {
	var node string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a session for the acting user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.actor(cmd.Context())
			if err != nil {
				return err
			}
			var nodeID *domain.TaskNodeID
			if node != "" {
				id, err := resolveNodeID(app, node)
				if err != nil {
					return err
				}
				nodeID = &id
			}
			s, err := app.Store.StartSession(cmd.Context(), u.UserID, nodeID)
			if err != nil {
				return err
			}
			printf(cmd, "Started session %s at %s\n", s.WorkSessionID, s.StartedUtc.Local().Format("15:04"))
			return nil
		},
	}

	cmd.Flags().StringVar(&node, "node", "", "Task node to charge")
	return cmd
}

func newSessionStepCmd(app *App, use, short string, step func(context.Context, domain.WorkSessionID) (domain.WorkSession, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [session]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sessionArg(cmd.Context(), app, args)
			if err != nil {
				return err
			}
			s, err := step(cmd.Context(), id)
			if err != nil {
				return err
			}
			printf(cmd, "Session %s is %s\n", s.WorkSessionID, s.State)
			return nil
		},
	}
}

func newSessionStopCmd(app *App) *cobra.Command {
	var log bool
	var notes string

	cmd := &cobra.Command{
		Use:   "stop [session]",
		Short: "Stop a session, optionally booking it as a time entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := sessionArg(ctx, app, args)
			if err != nil {
				return err
			}
			if !log {
				s, err := app.Store.StopSession(ctx, id)
				if err != nil {
					return err
				}
				printf(cmd, "Session %s is %s\n", s.WorkSessionID, s.State)
				return nil
			}
			s, e, err := app.Store.StopSessionToTimeEntry(ctx, id, notes)
			if err != nil {
				return err
			}
			printf(cmd, "Session %s is %s; recorded %s as draft %s\n",
				s.WorkSessionID, s.State, formatter.FormatMinutes(e.NetMinutes), e.TimeEntryID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&log, "log", false, "Book the active minutes as a draft time entry")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the booked entry")
	return cmd
}

func newSessionListCmd(app *App) *cobra.Command {
	var user string
	var active, all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work sessions with elapsed and active time",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.SessionFilter{ActiveOnly: active}
			switch {
			case user != "":
				id, err := resolveUserID(app, user)
				if err != nil {
					return err
				}
				filter.UserID = id
			case !all:
				u, err := app.actor(cmd.Context())
				if err != nil {
					return err
				}
				filter.UserID = u.UserID
			}

			sessions := app.Store.ListSessions(filter)
			if len(sessions) == 0 {
				printf(cmd, "No sessions found.\n")
				return nil
			}
			rows := make([]formatter.SessionRow, 0, len(sessions))
			for _, s := range sessions {
				t, err := app.Store.SessionTiming(s.WorkSessionID)
				if err != nil {
					return err
				}
				rows = append(rows, formatter.SessionRow{Session: t.Session, Elapsed: t.Elapsed, Active: t.Active})
			}
			write(cmd, formatter.FormatSessions(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Sessions of this user (defaults to the acting one)")
	cmd.Flags().BoolVar(&all, "all", false, "Sessions of every user")
	cmd.Flags().BoolVar(&active, "active", false, "Only running or paused sessions")
	cmd.MarkFlagsMutuallyExclusive("user", "all")

	return cmd
}

func newSessionWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [session]",
		Short: "Show a live timer; p pauses or resumes, s stops, q quits",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sessionArg(cmd.Context(), app, args)
			if err != nil {
				return err
			}
			m := newWatchModel(cmd.Context(), app, id)
			if err := m.refresh(); err != nil {
				return err
			}
			if !app.interactive() {
				printf(cmd, "%s\n", m.View())
				return nil
			}
			return runWatch(cmd, m)
		},
	}
}
