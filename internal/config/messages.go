package config

import (
	"fmt"
	"os"

	"github.com/nholik/zksave/internal/status"
	"gopkg.in/yaml.v3"
)

// LoadMessages returns the default status messages overlaid with any
// non-empty values from the YAML file at path. An empty path yields the defaults.
func LoadMessages(path string) (status.Messages, error) {
	messages := status.DefaultMessages()
	if path == "" {
		return messages, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return status.Messages{}, fmt.Errorf("read messages file: %w", err)
	}

	var overrides status.Messages
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return status.Messages{}, fmt.Errorf("parse messages file: %w", err)
	}

	return messages.Merge(overrides), nil
}
