package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envDataFile         = "ZK_DATA_FILE"
	envLogLevel         = "ZK_LOG_LEVEL"
	envAutosaveInterval = "ZK_AUTOSAVE_INTERVAL"
	envHealthPort       = "ZK_HEALTH_PORT"
	envMetricsPort      = "ZK_METRICS_PORT"
	envWebhookURL       = "ZK_WEBHOOK_URL"
	envWebhookTemplate  = "ZK_WEBHOOK_TEMPLATE"
	envSlackWebhookURL  = "ZK_SLACK_WEBHOOK_URL"
	envMessagesFile     = "ZK_MESSAGES_FILE"
	envSourcesFile      = "ZK_SOURCES_FILE"
	envStateFile        = "ZK_STATE_FILE"
	envNotifyDryRun     = "ZK_NOTIFY_DRY_RUN"
	envNotifyOnSuccess  = "ZK_NOTIFY_ON_SUCCESS"
)

const (
	defaultLogLevel         = "info"
	defaultAutosaveInterval = 5 * time.Minute
)

// Config describes runtime configuration loaded from the environment.
type Config struct {
	DataFile         string
	LogLevel         string
	AutosaveInterval time.Duration
	HealthPort       int
	MetricsPort      int
	WebhookURL       string
	WebhookTemplate  string
	SlackWebhookURL  string
	MessagesFile     string
	SourcesFile      string
	StateFile        string
	NotifyDryRun     bool
	NotifyOnSuccess  bool
}

// Load reads configuration from environment variables and a local .env file if present.
// Existing environment variables take precedence over values in .env.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		LogLevel:         defaultLogLevel,
		AutosaveInterval: defaultAutosaveInterval,
	}

	if value, ok := lookupTrimmed(envDataFile); ok {
		cfg.DataFile = value
	}

	if value, ok := lookupTrimmed(envLogLevel); ok && value != "" {
		cfg.LogLevel = value
	}

	if value, ok := lookupTrimmed(envAutosaveInterval); ok {
		interval, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envAutosaveInterval, err)
		}
		if interval <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envAutosaveInterval)
		}
		cfg.AutosaveInterval = interval
	}

	var err error
	if cfg.HealthPort, err = lookupPort(envHealthPort); err != nil {
		return Config{}, err
	}
	if cfg.MetricsPort, err = lookupPort(envMetricsPort); err != nil {
		return Config{}, err
	}

	if value, ok := lookupTrimmed(envWebhookURL); ok {
		cfg.WebhookURL = value
	}
	if value, ok := lookupTrimmed(envWebhookTemplate); ok {
		cfg.WebhookTemplate = value
	}
	if value, ok := lookupTrimmed(envSlackWebhookURL); ok {
		cfg.SlackWebhookURL = value
	}
	if value, ok := lookupTrimmed(envMessagesFile); ok {
		cfg.MessagesFile = value
	}
	if value, ok := lookupTrimmed(envSourcesFile); ok {
		cfg.SourcesFile = value
	}
	if value, ok := lookupTrimmed(envStateFile); ok {
		cfg.StateFile = value
	}

	if cfg.NotifyDryRun, err = lookupBool(envNotifyDryRun); err != nil {
		return Config{}, err
	}
	if cfg.NotifyOnSuccess, err = lookupBool(envNotifyOnSuccess); err != nil {
		return Config{}, err
	}

	if cfg.WebhookURL != "" {
		if err := validateURL(cfg.WebhookURL, envWebhookURL); err != nil {
			return Config{}, err
		}
	}
	if cfg.SlackWebhookURL != "" {
		if err := validateURL(cfg.SlackWebhookURL, envSlackWebhookURL); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func lookupPort(key string) (int, error) {
	value, ok := lookupTrimmed(key)
	if !ok || value == "" {
		return 0, nil
	}
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 0 and 65535", key)
	}
	return port, nil
}

func lookupBool(key string) (bool, error) {
	value, ok := lookupTrimmed(key)
	if !ok || value == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
