package config

type MetricsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Path           string `yaml:"path"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	JobName        string `yaml:"job_name"`
}

func loadMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled:        getEnvAsBool("METRICS_ENABLED", true),
		Path:           getEnv("METRICS_PATH", "/metrics"),
		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),
		JobName:        getEnv("METRICS_JOB_NAME", "team_counts"),
	}
}
