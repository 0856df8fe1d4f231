package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	GMAPI     GMAPIConfig     `yaml:"gmapi"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

type GMAPIConfig struct {
	// Mode "fake" runs the deterministic in-process stub instead of the
	// real platform; anything else uses HTTP against BaseURL.
	Mode    string `yaml:"mode"`
	BaseURL string `yaml:"base_url"`
	Hash    string `yaml:"hash"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type KafkaConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	SnapshotTopicName string `yaml:"snapshot_topic_name"`
}

type DashboardConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	SnapshotTTLSeconds int    `yaml:"snapshot_ttl_seconds"`

	RefreshMinSeconds int `yaml:"refresh_min_seconds"`
	RefreshMaxSeconds int `yaml:"refresh_max_seconds"`

	TripConcurrency       int `yaml:"trip_concurrency"`
	TripAttempts          int `yaml:"trip_attempts"`
	TripRetryPauseSeconds int `yaml:"trip_retry_pause_seconds"`

	APIRateLimitPerMinute int `yaml:"api_rate_limit_per_minute"`

	ReportPollIntervalSeconds int `yaml:"report_poll_interval_seconds"`
	ReportMaxPolls            int `yaml:"report_max_polls"`
	ReportPreDelayMillis      int `yaml:"report_pre_delay_millis"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
