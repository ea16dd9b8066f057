package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// mergeDotenv returns osEnv overlaid on the variables of the dotenv file.
// Real environment variables take precedence. A missing file is not an error.
func mergeDotenv(path string, osEnv map[string]string) (map[string]string, error) {
	merged := map[string]string{}
	if path != "" {
		vars, err := godotenv.Read(path)
		switch {
		case err == nil:
			for k, v := range vars {
				merged[k] = v
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	for k, v := range osEnv {
		merged[k] = v
	}
	return merged, nil
}

// parseEnv overlays cfg with CONTENTDESK_* variables from environ.
// Unset variables leave the current value alone.
func parseEnv(cfg *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
