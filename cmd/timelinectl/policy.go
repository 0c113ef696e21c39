package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/daywindow"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/notification"
)

type dayPolicy struct {
	AlwaysIncludeNextDay    bool `yaml:"always_include_next_day"`
	IncludeAllNotifications bool `yaml:"include_all_notifications"`
}

// policyFile is the YAML document accepted by --policy.
type policyFile struct {
	TimeZone     string              `yaml:"time_zone"`
	StalePolicy  domain.StalePolicy  `yaml:"stale_policy"`
	Day          dayPolicy           `yaml:"day"`
	Notification notification.Policy `yaml:"notification"`
}

type policy struct {
	zone         *time.Location
	stalePolicy  domain.StalePolicy
	day          daywindow.Options
	notification notification.Policy
}

func defaultPolicy() policy {
	return policy{
		zone:         time.UTC,
		stalePolicy:  domain.StalePolicyDiscard,
		notification: notification.DefaultPolicy(),
	}
}

func loadPolicy(path string) (policy, error) {
	p := defaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read policy file: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return p, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}

	if file.TimeZone != "" {
		zone, err := time.LoadLocation(file.TimeZone)
		if err != nil {
			return p, fmt.Errorf("%w: %s", domain.ErrInvalidTimeZone, file.TimeZone)
		}
		p.zone = zone
	}
	if file.StalePolicy != "" {
		if !file.StalePolicy.IsValid() {
			return p, fmt.Errorf("invalid stale_policy %q", file.StalePolicy)
		}
		p.stalePolicy = file.StalePolicy
	}
	p.day = daywindow.Options{
		AlwaysIncludeNextDay:    file.Day.AlwaysIncludeNextDay,
		IncludeAllNotifications: file.Day.IncludeAllNotifications,
	}

	n := file.Notification
	if n.MaxTotal > 0 {
		p.notification.MaxTotal = n.MaxTotal
	}
	if n.MaxPerCaller > 0 {
		p.notification.MaxPerCaller = n.MaxPerCaller
	}
	if n.PerInstanceCap > 0 {
		p.notification.PerInstanceCap = n.PerInstanceCap
	}
	if n.Category != "" {
		p.notification.Category = n.Category
	}

	return p, nil
}
