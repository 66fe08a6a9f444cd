package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Source binds a logical store to the file its content is read from.
type Source struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// SourcesFile is the parsed YAML structure for store sources:
// stores: [{name, path}]
type SourcesFile struct {
	Stores []Source `yaml:"stores"`
}

// LoadSourcesFile parses a YAML sources file from the given path.
// Relative source paths are resolved against the directory of the sources file.
// Returns nil if path is empty (no sources file).
func LoadSourcesFile(path string) ([]Source, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var sf SourcesFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	if err := validateSources(sf.Stores); err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(path)
	for i := range sf.Stores {
		if !filepath.IsAbs(sf.Stores[i].Path) {
			sf.Stores[i].Path = filepath.Join(baseDir, sf.Stores[i].Path)
		}
	}

	return sf.Stores, nil
}

func validateSources(sources []Source) error {
	if len(sources) == 0 {
		return fmt.Errorf("sources file contains no stores")
	}

	seen := make(map[string]bool)

	for i, s := range sources {
		if s.Name == "" {
			return fmt.Errorf("store %d: name is required", i)
		}

		if s.Path == "" {
			return fmt.Errorf("store %q: path is required", s.Name)
		}

		if seen[s.Name] {
			return fmt.Errorf("store %q: duplicate name", s.Name)
		}
		seen[s.Name] = true
	}

	return nil
}
