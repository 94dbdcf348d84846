package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings is the small persisted JSON sidecar living next to hash_cache.db,
// per spec.md §6 ("settings.json ... with at least {theme, language}"). The
// engine never interprets these fields; they exist purely as a passthrough
// for a GUI collaborator.
type Settings struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

// settingsFileName is fixed by spec.md §6.
const settingsFileName = "settings.json"

// LoadSettings reads settings.json from dir, returning zero-value Settings
// if the file does not yet exist.
func LoadSettings(dir string) (Settings, error) {
	data, err := os.ReadFile(filepath.Join(dir, settingsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("reading settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing settings: %w", err)
	}
	return s, nil
}

// SaveSettings writes settings.json to dir, creating the directory if
// necessary. The write is not atomic: settings.json is low-value config,
// not a source of truth the cache depends on for correctness.
func SaveSettings(dir string, s Settings) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, settingsFileName), data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
