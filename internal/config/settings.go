package config

import "strings"

// Settings holds the location of the main data file. It is fixed for the
// life of a session, so the save worker may read it without locking.
type Settings struct {
	dataFile string
}

// NewSettings returns settings seeded with the given data file path.
func NewSettings(dataFile string) *Settings {
	return &Settings{dataFile: strings.TrimSpace(dataFile)}
}

// MainDataFile returns the configured data file, or false when none is set.
func (s *Settings) MainDataFile() (string, bool) {
	if s == nil || s.dataFile == "" {
		return "", false
	}
	return s.dataFile, true
}
