// Command agenda prints the signed-in user's interview calendar in a terminal
// and can keep it refreshed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justsurfingit/interview-scheduler/internal/calendar"
	"github.com/justsurfingit/interview-scheduler/internal/client"
	"github.com/justsurfingit/interview-scheduler/internal/config"
	"github.com/justsurfingit/interview-scheduler/internal/logger"
	"github.com/justsurfingit/interview-scheduler/internal/models"
	"github.com/justsurfingit/interview-scheduler/internal/refresh"
)

type rootOptions struct {
	apiURL  string
	token   string
	role    string
	tz      string
	verbose bool
}

type monthOptions struct {
	month      string
	filter     calendar.Filter
	watch      bool
	serverView bool
	interval   time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, client.ErrSessionInvalidated) {
			fmt.Fprintln(os.Stderr, "Your session has ended. Sign in again and update AGENDA_TOKEN.")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "agenda",
		Short:         "Terminal view of your interview calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api", "", "API base URL (default $AGENDA_API_URL)")
	cmd.PersistentFlags().StringVar(&opts.token, "token", "", "bearer token (default $AGENDA_TOKEN)")
	cmd.PersistentFlags().StringVar(&opts.role, "role", "", "job_seeker, recruiter or admin (default $AGENDA_ROLE)")
	cmd.PersistentFlags().StringVar(&opts.tz, "tz", "", "IANA timezone for the grid (default $AGENDA_TZ)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newMonthCmd(opts), newRespondCmd(opts))
	return cmd
}

func newMonthCmd(root *rootOptions) *cobra.Command {
	opts := &monthOptions{}
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show a month grid of interviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(root)
			if err != nil {
				return err
			}
			defer app.close()
			if opts.interval <= 0 {
				opts.interval = app.cfg.RefreshInterval
			}
			if opts.watch {
				return app.watch(cmd.Context(), cmd.OutOrStdout(), opts)
			}
			return app.show(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.month, "month", "", "month to show as YYYY-MM (default current)")
	cmd.Flags().StringVar(&opts.filter.Search, "search", "", "match name, job title or interviewer")
	cmd.Flags().StringVar(&opts.filter.Status, "status", "", "only this status")
	cmd.Flags().StringVar(&opts.filter.Type, "type", "", "only this interview type")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "keep refreshing; SIGUSR1 refreshes immediately")
	cmd.Flags().BoolVar(&opts.serverView, "server-view", false, "let the API build the grid")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "refresh interval for --watch (default $AGENDA_REFRESH_INTERVAL)")
	return cmd
}

func newRespondCmd(root *rootOptions) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "respond <interview-id> <confirmed|cancelled|rescheduled>",
		Short: "Answer an interview invitation (job seekers)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid interview id %q", args[0])
			}
			status := models.NormalizeStatus(args[1])
			if !models.SeekerSettable(status) {
				return fmt.Errorf("status %q cannot be set by a job seeker", args[1])
			}
			app, err := newApp(root)
			if err != nil {
				return err
			}
			defer app.close()

			var notesPtr *string
			if cmd.Flags().Changed("notes") {
				notesPtr = &notes
			}
			rec, err := app.api.UpdateStatus(cmd.Context(), id, status, notesPtr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Interview %d with %s is now %s\n", rec.ID, rec.Name, calendar.StyleFor(rec.Status).Label)
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "message for the recruiter")
	return cmd
}

type app struct {
	cfg   *config.AgendaConfig
	loc   *time.Location
	api   *client.Client
	log   *zap.Logger
	color bool
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.LoadAgenda()
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.BaseURL = opts.apiURL
	}
	if opts.token != "" {
		cfg.Token = opts.token
	}
	if opts.role != "" {
		cfg.Role = opts.role
	}
	if opts.tz != "" {
		cfg.Timezone = opts.tz
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		return nil, errors.New("no token: pass --token or set AGENDA_TOKEN")
	}
	role, err := models.ParseRole(cfg.Role)
	if err != nil {
		return nil, err
	}

	env := "production"
	if opts.verbose {
		env = "development"
	}
	zlog, err := logger.New(env)
	if err != nil {
		return nil, err
	}

	session := client.NewSession(cfg.Token, role)
	api := client.New(cfg.BaseURL, session, client.WithLogger(zlog))
	return &app{
		cfg:   cfg,
		loc:   cfg.Location(),
		api:   api,
		log:   zlog,
		color: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

func (a *app) show(ctx context.Context, w io.Writer, opts *monthOptions) error {
	view, err := a.fetch(ctx, opts)
	if err != nil {
		return err
	}
	return renderMonth(w, *view, a.color)
}

// fetch builds the month view. By default the grid is built locally from the
// flat interview list so filters never need a round trip.
func (a *app) fetch(ctx context.Context, opts *monthOptions) (*calendar.MonthView, error) {
	if opts.serverView {
		return a.api.Month(ctx, opts.month, a.loc.String(), opts.filter)
	}

	b := calendar.NewBuilder(a.loc)
	ref, err := calendar.ParseMonth(opts.month, a.loc, b.Now())
	if err != nil {
		return nil, err
	}
	records, err := a.api.Interviews(ctx)
	if err != nil {
		return nil, err
	}
	view := b.Month(records, ref, opts.filter)
	return &view, nil
}

// watch re-renders on every refresh tick and on SIGUSR1 until the context ends
// or the session is invalidated.
func (a *app) watch(ctx context.Context, w io.Writer, opts *monthOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	trigger := refresh.Start(ctx, opts.interval)
	defer trigger.Stop()

	if len(visibilitySignals) > 0 {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, visibilitySignals...)
		defer signal.Stop(sigs)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-sigs:
					trigger.Notify(refresh.Visibility)
				}
			}
		}()
	}

	session := a.api.Session()
	session.OnInvalidated(func(ev client.InvalidatedEvent) {
		a.log.Warn("stopping watch", zap.Int("status", ev.Status), zap.String("reason", ev.Reason))
	})

	trigger.Notify(refresh.Manual)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-session.Done():
			ev, _ := session.Invalidated()
			return fmt.Errorf("%w: %s", client.ErrSessionInvalidated, ev.Reason)
		case reason, ok := <-trigger.C:
			if !ok {
				return nil
			}
			a.log.Debug("refresh", zap.Stringer("reason", reason))
			view, err := a.fetch(ctx, opts)
			if errors.Is(err, client.ErrSessionInvalidated) {
				continue
			}
			if err != nil {
				// keep the last good screen; the next tick retries
				a.log.Warn("refresh failed", zap.Error(err))
				continue
			}
			if a.color {
				_, _ = io.WriteString(w, "\033[H\033[2J")
			}
			if err := renderMonth(w, *view, a.color); err != nil {
				return err
			}
			fmt.Fprintf(w, "\nupdated %s (%s)\n", time.Now().In(a.loc).Format("15:04:05"), reason)
		}
	}
}
