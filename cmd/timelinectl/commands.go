package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/infra/calendar"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/daywindow"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/notification"
)

func newTodayCmd(opts *rootOptions) *cobra.Command {
	var nextDay, allNotifications bool

	cmd := &cobra.Command{
		Use:   "today",
		Short: "List the sessions visible today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.resolve(cmd.Context())
			if err != nil {
				return err
			}
			dayOpts := r.policy.day
			if cmd.Flags().Changed("next-day") {
				dayOpts.AlwaysIncludeNextDay = nextDay
			}
			if cmd.Flags().Changed("all-notifications") {
				dayOpts.IncludeAllNotifications = allNotifications
			}

			selection := daywindow.NewSelector().SessionsForDay(r.sessions, r.now, r.policy.zone, dayOpts)
			if opts.jsonOutput {
				return opts.writeJSON(cmd.OutOrStdout(), selection.Sessions)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "day: %s\n", selection.StartOfToday.In(r.policy.zone).Format(time.DateOnly))
			if selection.IncludesNextDay {
				_, _ = fmt.Fprintln(out, "includes next day")
			}
			printSessions(out, selection.Sessions, r.policy.zone)
			return nil
		},
	}

	cmd.Flags().BoolVar(&nextDay, "next-day", false, "always include tomorrow")
	cmd.Flags().BoolVar(&allNotifications, "all-notifications", false, "build reminders for the whole visible window")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var order string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if order != "newest" && order != "oldest" {
				return fmt.Errorf("invalid --order %q: want newest or oldest", order)
			}
			r, err := opts.resolve(cmd.Context())
			if err != nil {
				return err
			}

			past := daywindow.NewSelector().PastSessions(r.sessions, r.now, order == "newest")
			if opts.jsonOutput {
				return opts.writeJSON(cmd.OutOrStdout(), past)
			}
			printSessions(cmd.OutOrStdout(), past, r.policy.zone)
			return nil
		},
	}

	cmd.Flags().StringVar(&order, "order", "newest", "newest or oldest")
	return cmd
}

func newNotificationsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "List the reminders that would be registered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.resolve(cmd.Context())
			if err != nil {
				return err
			}

			result := notification.NewBuilder(r.policy.notification).Build(cmd.Context(), r.sessions, r.now, r.policy.zone)
			if opts.jsonOutput {
				return opts.writeJSON(cmd.OutOrStdout(), result.Requests)
			}

			out := cmd.OutOrStdout()
			for _, req := range result.Requests {
				line := req.TriggerAt.In(r.policy.zone).Format(time.RFC3339) + "\t" + req.ID
				if req.Repeats {
					line += fmt.Sprintf("\tdaily %02d:%02d", req.Hour, req.Minute)
				}
				_, _ = fmt.Fprintln(out, line)
			}
			_, _ = fmt.Fprintf(out, "%d of %d eligible, %d dropped, %d degraded\n",
				len(result.Requests), result.Eligible, result.Dropped, result.Degraded)
			return nil
		},
	}
}

func newICSCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export the timeline and its reminders as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.resolve(cmd.Context())
			if err != nil {
				return err
			}
			result := notification.NewBuilder(r.policy.notification).Build(cmd.Context(), r.sessions, r.now, r.policy.zone)

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return calendar.NewExporter().Export(w, r.sessions, result.Requests)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func printSessions(w io.Writer, sessions []domain.ScheduledSession, zone *time.Location) {
	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%-13s\t%s\t%s\n",
			s.StartDateTime.In(zone).Format("2006-01-02 15:04"),
			s.EndDateTime.In(zone).Format("2006-01-02 15:04"),
			s.State,
			s.Label,
			s.InstanceGuid,
		)
	}
}
