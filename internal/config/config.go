// Package config provides configuration parsing and validation for the
// notifier service.
package config

import (
	"fmt"
	"time"

	"notifier/internal/limiter"
)

// Config holds all configuration parameters for the notifier service.
type Config struct {
	KafkaBrokers        string
	MessagesTopic       string
	NotificationsTopic  string
	OverloadTopic       string
	KeywordChangedTopic string
	ConsumerGroupID     string
	KeywordGroupID      string
	RedisAddr           string
	PostgresDSN         string
	AdminPort           string
	WorkerCount         int
	MaxTokens           int
	RefillPerMinute     int
	VersionPollInterval time.Duration
}

// Validate checks that all required configuration fields are set and have
// valid values. Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.MessagesTopic == "" {
		return fmt.Errorf("messages-topic cannot be empty")
	}
	if c.NotificationsTopic == "" {
		return fmt.Errorf("notifications-topic cannot be empty")
	}
	if c.OverloadTopic == "" {
		return fmt.Errorf("overload-topic cannot be empty")
	}
	if c.KeywordChangedTopic == "" {
		return fmt.Errorf("keyword-changed-topic cannot be empty")
	}
	if c.ConsumerGroupID == "" {
		return fmt.Errorf("consumer-group-id cannot be empty")
	}
	if c.KeywordGroupID == "" {
		return fmt.Errorf("keyword-group-id cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.AdminPort == "" {
		return fmt.Errorf("admin-port cannot be empty")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker-count must be >= 1")
	}
	if !(limiter.Config{MaxTokens: c.MaxTokens, RefillPerMinute: c.RefillPerMinute}).Valid() {
		return fmt.Errorf("max-tokens and refill-per-minute must be between %d and %d", limiter.MinSetting, limiter.MaxSetting)
	}
	if c.VersionPollInterval <= 0 {
		return fmt.Errorf("version-poll-interval must be > 0")
	}
	return nil
}
