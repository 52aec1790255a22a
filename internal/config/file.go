package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir

const (
	userConfigDir  = ".config/kbconsole"
	configFileName = "config.yaml"
)

// fileConfig mirrors the YAML layout. Pointers distinguish unset keys from
// zero values.
type fileConfig struct {
	Prompt     *string        `yaml:"prompt"`
	RootMenu   *string        `yaml:"root_menu"`
	Width      *int           `yaml:"width"`
	Height     *int           `yaml:"height"`
	Footer     *bool          `yaml:"footer"`
	HistoryDB  *string        `yaml:"history_db"`
	ProfileDir *string        `yaml:"profile_dir"`
	Latency    *time.Duration `yaml:"latency"`
	Interval   *time.Duration `yaml:"write_interval"`
	Logging    struct {
		File  *string `yaml:"file"`
		Trace *bool   `yaml:"trace"`
		Level *string `yaml:"level"`
	} `yaml:"logging"`

	found bool
}

var getUserConfigPath = func(env map[string]string) (string, error) {
	home := env["HOME"]
	if home == "" {
		var err error
		home, err = osUserHomeDir()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(home, userConfigDir, configFileName), nil
}

// loadFile reads path when it exists. A missing file is only an error when
// it was named explicitly.
func loadFile(path string, explicit bool) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return fc, nil
		}
		return fc, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("error parsing config %s: %w", path, err)
	}
	fc.found = true
	return fc, nil
}

// apply overlays the keys present in the file onto base.
func (fc fileConfig) apply(base Config) Config {
	merged := base
	if fc.Prompt != nil {
		merged.App.Prompt = *fc.Prompt
	}
	if fc.RootMenu != nil {
		merged.App.RootMenu = *fc.RootMenu
	}
	if fc.Width != nil {
		merged.App.Width = *fc.Width
	}
	if fc.Height != nil {
		merged.App.Height = *fc.Height
	}
	if fc.Footer != nil {
		merged.App.ShowFooter = *fc.Footer
	}
	if fc.HistoryDB != nil {
		merged.App.HistoryDB = *fc.HistoryDB
	}
	if fc.ProfileDir != nil {
		merged.App.ProfileDir = *fc.ProfileDir
	}
	if fc.Latency != nil {
		merged.App.Latency = *fc.Latency
	}
	if fc.Interval != nil {
		merged.App.WriteInterval = *fc.Interval
	}
	if fc.Logging.File != nil {
		merged.Logging.FilePath = *fc.Logging.File
	}
	if fc.Logging.Trace != nil {
		merged.Logging.Trace = *fc.Logging.Trace
	}
	if fc.Logging.Level != nil {
		merged.Logging.Level = *fc.Logging.Level
	}
	return merged
}
