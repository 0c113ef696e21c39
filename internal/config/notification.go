package config

import (
	"os"
	"strconv"

	"github.com/KasumiMercury/primind-session-timeline/internal/service/notification"
)

const (
	notificationMaxTotalEnv       = "NOTIFICATION_MAX_TOTAL"
	notificationMaxPerCallerEnv   = "NOTIFICATION_MAX_PER_CALLER"
	notificationPerInstanceCapEnv = "NOTIFICATION_PER_INSTANCE_CAP"
	notificationCategoryEnv       = "NOTIFICATION_CATEGORY"
)

type NotificationConfig struct {
	MaxTotal       int
	MaxPerCaller   int
	PerInstanceCap int
	Category       string
}

func LoadNotificationConfig() *NotificationConfig {
	cfg := &NotificationConfig{
		MaxTotal:     notification.GlobalCeiling,
		MaxPerCaller: notification.GlobalCeiling,
		Category:     notification.DefaultCategory,
	}

	if v := os.Getenv(notificationMaxTotalEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.MaxTotal = parsed
		}
	}
	if v := os.Getenv(notificationMaxPerCallerEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.MaxPerCaller = parsed
		}
	}
	if v := os.Getenv(notificationPerInstanceCapEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.PerInstanceCap = parsed
		}
	}
	if v := os.Getenv(notificationCategoryEnv); v != "" {
		cfg.Category = v
	}

	return cfg
}

func (c *NotificationConfig) Policy() notification.Policy {
	return notification.Policy{
		MaxTotal:       c.MaxTotal,
		MaxPerCaller:   c.MaxPerCaller,
		PerInstanceCap: c.PerInstanceCap,
		Category:       c.Category,
	}
}
