package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/adherence"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/expander"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/state"
)

type rootOptions struct {
	timelinePath  string
	upstream      bool
	studyID       string
	language      string
	eventsPath    string
	events        []string
	adherencePath string
	policyPath    string
	now           string
	tz            string
	jsonOutput    bool
}

// resolved is one participant's classified timeline as of now.
type resolved struct {
	sessions []domain.ScheduledSession
	now      time.Time
	policy   policy
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "timelinectl",
		Short:         "Resolve a study timeline from local fixture files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.timelinePath, "timeline", "", "timeline JSON file")
	flags.BoolVar(&opts.upstream, "upstream", false, "treat --timeline as a study service response")
	flags.StringVar(&opts.studyID, "study", "", "study id used with --upstream")
	flags.StringVar(&opts.language, "lang", "en", "label language used with --upstream")
	flags.StringVar(&opts.eventsPath, "events", "", "activity events JSON file")
	flags.StringArrayVar(&opts.events, "event", nil, "activity event as id=RFC3339, repeatable")
	flags.StringVar(&opts.adherencePath, "adherence", "", "adherence records JSON file")
	flags.StringVar(&opts.policyPath, "policy", "", "policy YAML file")
	flags.StringVar(&opts.now, "now", "", "evaluation instant in RFC3339, defaults to the current time")
	flags.StringVar(&opts.tz, "tz", "", "IANA time zone, overrides the policy file")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of text")
	_ = cmd.MarkPersistentFlagRequired("timeline")

	cmd.AddCommand(
		newTodayCmd(opts),
		newHistoryCmd(opts),
		newNotificationsCmd(opts),
		newICSCmd(opts),
	)

	return cmd
}

func (o *rootOptions) resolve(ctx context.Context) (*resolved, error) {
	p, err := loadPolicy(o.policyPath)
	if err != nil {
		return nil, err
	}
	if o.tz != "" {
		zone, err := time.LoadLocation(o.tz)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidTimeZone, o.tz)
		}
		p.zone = zone
	}

	now := time.Now()
	if o.now != "" {
		now, err = time.Parse(time.RFC3339, o.now)
		if err != nil {
			return nil, fmt.Errorf("invalid --now %q: %w", o.now, err)
		}
	}

	tmpl, err := loadTimeline(ctx, o.timelinePath, o.upstream, o.studyID, o.language)
	if err != nil {
		return nil, err
	}
	events, err := loadEvents(o.eventsPath, o.events)
	if err != nil {
		return nil, err
	}
	records, err := loadAdherence(o.adherencePath)
	if err != nil {
		return nil, err
	}

	sessions, _ := expander.NewExpander().Expand(ctx, tmpl, domain.EventIndex(events), p.zone)
	sessions, _ = adherence.NewMerger(p.stalePolicy).Merge(ctx, sessions, records)
	sessions = state.NewClassifier().Apply(sessions, now)

	return &resolved{sessions: sessions, now: now, policy: p}, nil
}

func (o *rootOptions) writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
