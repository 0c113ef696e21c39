package recorder

import (
	"os"
)

type Config struct {
	Disabled bool

	InfluxDBURL    string
	InfluxDBToken  string
	InfluxDBOrg    string
	InfluxDBBucket string

	BigQueryProjectID         string
	BigQueryDataset           string
	BigQueryTimelineTable     string
	BigQueryNotificationTable string
}

func LoadConfig() *Config {
	return &Config{
		Disabled: os.Getenv("TIMELINE_RESULTS_DISABLED") == "true",

		InfluxDBURL:    getEnvOrDefault("INFLUXDB_URL", "http://localhost:8086"),
		InfluxDBToken:  os.Getenv("INFLUXDB_TOKEN"),
		InfluxDBOrg:    os.Getenv("INFLUXDB_ORG"),
		InfluxDBBucket: getEnvOrDefault("INFLUXDB_BUCKET", "timeline_results"),

		BigQueryProjectID:         getEnvOrDefault("BIGQUERY_PROJECT_ID", os.Getenv("GOOGLE_CLOUD_PROJECT")),
		BigQueryDataset:           getEnvOrDefault("BIGQUERY_DATASET", "timeline_results"),
		BigQueryTimelineTable:     getEnvOrDefault("BIGQUERY_TABLE", "timeline_results"),
		BigQueryNotificationTable: getEnvOrDefault("BIGQUERY_NOTIFICATION_TABLE", "notification_results"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
