package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidationAndDefaults(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr bool
		want    Config
	}{
		{
			name: "defaults applied",
			env:  map[string]string{},
			want: Config{
				LogLevel:         defaultLogLevel,
				AutosaveInterval: defaultAutosaveInterval,
			},
		},
		{
			name: "data file trimmed",
			env: map[string]string{
				envDataFile: "  /tmp/doc.zk  ",
			},
			want: Config{
				DataFile:         "/tmp/doc.zk",
				LogLevel:         defaultLogLevel,
				AutosaveInterval: defaultAutosaveInterval,
			},
		},
		{
			name: "invalid autosave interval",
			env: map[string]string{
				envAutosaveInterval: "nope",
			},
			wantErr: true,
		},
		{
			name: "zero autosave interval",
			env: map[string]string{
				envAutosaveInterval: "0s",
			},
			wantErr: true,
		},
		{
			name: "negative autosave interval",
			env: map[string]string{
				envAutosaveInterval: "-5s",
			},
			wantErr: true,
		},
		{
			name: "invalid health port",
			env: map[string]string{
				envHealthPort: "http",
			},
			wantErr: true,
		},
		{
			name: "metrics port out of range",
			env: map[string]string{
				envMetricsPort: "70000",
			},
			wantErr: true,
		},
		{
			name: "invalid webhook url",
			env: map[string]string{
				envWebhookURL: "not-a-url",
			},
			wantErr: true,
		},
		{
			name: "invalid slack webhook url",
			env: map[string]string{
				envSlackWebhookURL: "not-a-url",
			},
			wantErr: true,
		},
		{
			name: "invalid dry run flag",
			env: map[string]string{
				envNotifyDryRun: "sometimes",
			},
			wantErr: true,
		},
		{
			name: "full configuration",
			env: map[string]string{
				envDataFile:         "/srv/zettel/main.zk",
				envLogLevel:         "debug",
				envAutosaveInterval: "45s",
				envHealthPort:       "8080",
				envMetricsPort:      "9090",
				envWebhookURL:       "https://example.com/hook",
				envWebhookTemplate:  `{"text":"{{ .Message }}"}`,
				envSlackWebhookURL:  "https://hooks.slack.com/services/T00/B00/XXX",
				envMessagesFile:     "messages.yaml",
				envSourcesFile:      "sources.yaml",
				envStateFile:        "watch.json",
				envNotifyDryRun:     "true",
				envNotifyOnSuccess:  "1",
			},
			want: Config{
				DataFile:         "/srv/zettel/main.zk",
				LogLevel:         "debug",
				AutosaveInterval: 45 * time.Second,
				HealthPort:       8080,
				MetricsPort:      9090,
				WebhookURL:       "https://example.com/hook",
				WebhookTemplate:  `{"text":"{{ .Message }}"}`,
				SlackWebhookURL:  "https://hooks.slack.com/services/T00/B00/XXX",
				MessagesFile:     "messages.yaml",
				SourcesFile:      "sources.yaml",
				StateFile:        "watch.json",
				NotifyDryRun:     true,
				NotifyOnSuccess:  true,
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			restoreDir := mustChdir(t, tmpDir)
			defer restoreDir()

			clearEnv(t)
			for key, value := range tc.env {
				t.Setenv(key, value)
			}

			got, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tc.want {
				t.Fatalf("unexpected config: %+v", got)
			}
		})
	}
}

func TestLoad_DotEnvAndEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	restoreDir := mustChdir(t, tmpDir)
	defer restoreDir()

	clearEnv(t)

	dotenv := []byte(`
# example .env
ZK_DATA_FILE=/from/dotenv.zk
ZK_SLACK_WEBHOOK_URL=https://hooks.slack.com/services/test
ZK_AUTOSAVE_INTERVAL=1m
`)

	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), dotenv, 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv(envDataFile, "/from/env.zk")

	got, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.DataFile != "/from/env.zk" {
		t.Fatalf("data file did not prefer env: %s", got.DataFile)
	}
	if got.SlackWebhookURL != "https://hooks.slack.com/services/test" {
		t.Fatalf("slack webhook url not loaded from .env: %s", got.SlackWebhookURL)
	}
	if got.AutosaveInterval != time.Minute {
		t.Fatalf("unexpected autosave interval: %s", got.AutosaveInterval)
	}
}

func TestSettings_MainDataFile(t *testing.T) {
	if _, ok := NewSettings("").MainDataFile(); ok {
		t.Fatalf("expected no data file")
	}
	if _, ok := NewSettings("   ").MainDataFile(); ok {
		t.Fatalf("blank path should count as unset")
	}

	path, ok := NewSettings(" /tmp/doc.zk ").MainDataFile()
	if !ok || path != "/tmp/doc.zk" {
		t.Fatalf("unexpected data file: %q (%v)", path, ok)
	}

	var nilSettings *Settings
	if _, ok := nilSettings.MainDataFile(); ok {
		t.Fatalf("nil settings should report no data file")
	}
}

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		envDataFile, envLogLevel, envAutosaveInterval, envHealthPort, envMetricsPort,
		envWebhookURL, envWebhookTemplate, envSlackWebhookURL, envMessagesFile, envSourcesFile,
		envStateFile, envNotifyDryRun, envNotifyOnSuccess,
	}
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unsetenv %s: %v", key, err)
		}
	}
}

func mustChdir(t *testing.T, dir string) func() {
	t.Helper()
	original, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	return func() {
		if err := os.Chdir(original); err != nil {
			t.Fatalf("restore dir: %v", err)
		}
	}
}
