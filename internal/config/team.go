package config

import (
	"time"
)

type TeamConfig struct {
	Workers      int           `yaml:"workers"`
	DryRun       bool          `yaml:"dry_run"`
	AdminUID     string        `yaml:"admin_uid"`
	LockTTL      time.Duration `yaml:"lock_ttl"`
	RunTimeout   time.Duration `yaml:"run_timeout"`
	ReportPrefix string        `yaml:"report_prefix"`
	LastRunTTL   time.Duration `yaml:"last_run_ttl"`
	NotifyTopic  string        `yaml:"notify_topic"`
}

func loadTeamConfig() *TeamConfig {
	return &TeamConfig{
		Workers:      getEnvAsInt("TEAM_COUNT_WORKERS", 8),
		DryRun:       getEnvAsBool("TEAM_COUNT_DRY_RUN", false),
		AdminUID:     getEnv("ADMIN_UID", ""),
		LockTTL:      getEnvAsDuration("TEAM_COUNT_LOCK_TTL", 30*time.Minute),
		RunTimeout:   getEnvAsDuration("TEAM_COUNT_RUN_TIMEOUT", time.Hour),
		ReportPrefix: getEnv("TEAM_COUNT_REPORT_PREFIX", "team-counts/"),
		LastRunTTL:   getEnvAsDuration("TEAM_COUNT_LAST_RUN_TTL", 7*24*time.Hour),
		NotifyTopic:  getEnv("TEAM_COUNT_NOTIFY_TOPIC", ""),
	}
}
