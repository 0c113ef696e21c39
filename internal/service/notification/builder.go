package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/period"
)

type Result struct {
	Requests []domain.NotificationRequest
	Eligible int
	Dropped  int
	Degraded int
}

type Builder struct {
	policy Policy
}

func NewBuilder(policy Policy) *Builder {
	return &Builder{policy: policy.normalized()}
}

func (b *Builder) Policy() Policy {
	return b.policy
}

type parsedTemplate struct {
	domain.NotificationTemplate
	offset   period.Period
	interval *period.Period
}

// Build turns the notification templates of open sessions into reminder
// requests firing at or after now, sorted by trigger instant and capped.
func (b *Builder) Build(ctx context.Context, sessions []domain.ScheduledSession, now time.Time, zone *time.Location) Result {
	if zone == nil {
		zone = time.UTC
	}

	candidates := make([]domain.ScheduledSession, 0, len(sessions))
	for _, s := range sessions {
		if len(s.Notifications) == 0 {
			continue
		}
		if s.State != "" && !s.State.IsOpen() {
			continue
		}
		candidates = append(candidates, s)
	}

	maxCap := b.policy.instanceCap(len(candidates))

	var result Result
	all := make([]domain.NotificationRequest, 0)
	for _, s := range candidates {
		for _, tmpl := range s.Notifications {
			parsed, err := parseTemplate(tmpl)
			if err != nil {
				slog.WarnContext(ctx, "skipping malformed notification template",
					slog.String("event", "notification.template.skip"),
					slog.String("instance_guid", s.InstanceGuid),
					slog.String("error", err.Error()),
				)
				continue
			}

			requests, degraded := b.expandTemplate(s, parsed, now, zone, maxCap)
			if degraded {
				result.Degraded++
			}
			all = append(all, requests...)
		}
	}

	all = dedupe(all)
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].TriggerAt.Equal(all[j].TriggerAt) {
			return all[i].TriggerAt.Before(all[j].TriggerAt)
		}
		return all[i].ID < all[j].ID
	})

	result.Eligible = len(all)
	limit := b.policy.Limit()
	if len(all) > limit {
		result.Dropped = len(all) - limit
		all = all[:limit]
	}
	result.Requests = all

	return result
}

func (b *Builder) expandTemplate(
	s domain.ScheduledSession,
	tmpl parsedTemplate,
	now time.Time,
	zone *time.Location,
	maxCap int,
) ([]domain.NotificationRequest, bool) {
	start := s.StartDateTime.In(zone)
	end := s.EndDateTime.In(zone)

	first := tmpl.offset.AddTo(start)
	if tmpl.NotifyAt == domain.NotifyAtWindowEnd {
		first = tmpl.offset.SubFrom(end)
	}

	if tmpl.interval == nil {
		if first.Before(now) {
			return nil, false
		}
		return []domain.NotificationRequest{b.request(s, tmpl, first)}, false
	}

	if tmpl.interval.IsDaily() && period.DaysBetween(start, end, zone) > maxCap {
		next := nextDailyFire(first, now, zone)
		req := b.request(s, tmpl, next)
		req.Repeats = true
		req.Hour = next.Hour()
		req.Minute = next.Minute()
		return []domain.NotificationRequest{req}, true
	}

	triggers := enumerate(first, end, *tmpl.interval)
	requests := make([]domain.NotificationRequest, 0, maxCap)
	for _, trigger := range triggers {
		if trigger.Before(now) {
			continue
		}
		requests = append(requests, b.request(s, tmpl, trigger))
		if len(requests) >= maxCap {
			break
		}
	}
	return requests, false
}

func (b *Builder) request(s domain.ScheduledSession, tmpl parsedTemplate, trigger time.Time) domain.NotificationRequest {
	return domain.NotificationRequest{
		ID:           domain.NotificationID(s.InstanceGuid, trigger),
		InstanceGuid: s.InstanceGuid,
		Category:     b.policy.Category,
		TriggerAt:    trigger,
		AllowSnooze:  tmpl.AllowSnooze,
		Subject:      tmpl.Message.Subject,
		Body:         tmpl.Message.Body,
	}
}

// enumerate lists trigger instants from first through end inclusive.
func enumerate(first, end time.Time, interval period.Period) []time.Time {
	if first.After(end) {
		return nil
	}

	if opt, ok := rruleOption(interval); ok {
		opt.Dtstart = first
		opt.Until = end
		if rule, err := rrule.NewRRule(opt); err == nil {
			return rule.Between(first, end, true)
		}
	}

	// Compound intervals such as P1DT12H step on local date-time.
	out := make([]time.Time, 0)
	for k := 0; ; k++ {
		next := interval.Scale(k).AddTo(first)
		if next.After(end) || (k > 0 && !next.After(out[len(out)-1])) {
			break
		}
		out = append(out, next)
	}
	return out
}

func rruleOption(p period.Period) (rrule.ROption, bool) {
	units := []struct {
		value int
		freq  rrule.Frequency
	}{
		{p.Years, rrule.YEARLY},
		{p.Months, rrule.MONTHLY},
		{p.Weeks, rrule.WEEKLY},
		{p.Days, rrule.DAILY},
		{p.Hours, rrule.HOURLY},
		{p.Minutes, rrule.MINUTELY},
		{p.Seconds, rrule.SECONDLY},
	}

	var opt rrule.ROption
	found := false
	for _, u := range units {
		if u.value == 0 {
			continue
		}
		if found || u.value < 0 {
			return rrule.ROption{}, false
		}
		found = true
		opt.Freq = u.freq
		opt.Interval = u.value
	}
	return opt, found
}

// nextDailyFire returns the first daily occurrence of first's wall-clock
// time that is not before now or first.
func nextDailyFire(first, now time.Time, zone *time.Location) time.Time {
	if !first.Before(now) {
		return first
	}
	local := first.In(zone)
	tod := &period.TimeOfDay{Hour: local.Hour(), Minute: local.Minute(), Second: local.Second()}
	candidate := period.Resolve(now, 0, tod, zone)
	if candidate.Before(now) {
		candidate = period.Resolve(now, 1, tod, zone)
	}
	return candidate
}

func dedupe(requests []domain.NotificationRequest) []domain.NotificationRequest {
	seen := make(map[string]struct{}, len(requests))
	out := requests[:0]
	for _, r := range requests {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func parseTemplate(tmpl domain.NotificationTemplate) (parsedTemplate, error) {
	parsed := parsedTemplate{NotificationTemplate: tmpl}

	switch tmpl.NotifyAt {
	case domain.NotifyAtWindowStart, domain.NotifyAtWindowEnd:
	case "":
		parsed.NotifyAt = domain.NotifyAtWindowStart
	default:
		return parsed, fmt.Errorf("unknown notify_at %q", tmpl.NotifyAt)
	}

	if tmpl.Offset != "" {
		offset, err := period.Parse(tmpl.Offset)
		if err != nil {
			return parsed, err
		}
		parsed.offset = offset
	}

	if tmpl.RepeatInterval != "" {
		interval, err := period.Parse(tmpl.RepeatInterval)
		if err != nil {
			return parsed, err
		}
		if interval.IsZero() {
			return parsed, fmt.Errorf("zero repeat interval")
		}
		parsed.interval = &interval
	}

	return parsed, nil
}
