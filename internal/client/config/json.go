package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/contentdesk/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent
// fields keep the value from the previous layer.
type JsonConfig struct {
	APIBaseURL     string          `json:"api_base_url"`
	StateDir       string          `json:"state_dir"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	LogLevel       string          `json:"log_level"`
	LogFile        string          `json:"log_file"`
}

// parseJSON overlays cfg with the values found in the JSON file at path.
func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.StateDir != "" {
		cfg.StateDir = jc.StateDir
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.LogFile != "" {
		cfg.LogFile = jc.LogFile
	}
	return nil
}
