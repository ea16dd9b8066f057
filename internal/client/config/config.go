package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/contentdesk/internal/filex"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
)

// Config holds runtime settings for the contentdesk CLI.
type Config struct {
	APIBaseURL     string        `env:"API_BASE_URL" validate:"required,url"`
	StateDir       string        `env:"STATE_DIR" validate:"required"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" validate:"gt=0"`
	LogLevel       string        `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFile        string        `env:"LOG_FILE"`
}

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CONTENTDESK_"

// ConfigFileEnv selects a JSON config file when -c is not given.
const ConfigFileEnv = EnvPrefix + "CONFIG"

// DBFileName is the SQLite file inside StateDir.
const DBFileName = "contentdesk.db"

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8080/api"
	c.StateDir = filex.DefaultStateDir()
	c.RequestTimeout = 15 * time.Second
	c.LogLevel = "warn"
	c.LogFile = ""
}

// Validate reports the first invalid field in a readable form.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Load builds a Config from defaults, then the JSON file (-c or
// CONTENTDESK_CONFIG), then ".env" and the process environment, then the
// flags explicitly set on fs. Later sources win. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	return load(fs, ".env", environ())
}

func load(fs *pflag.FlagSet, dotenvPath string, osEnv map[string]string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	env, err := mergeDotenv(dotenvPath, osEnv)
	if err != nil {
		return nil, err
	}

	path := configFilePath(fs, env)
	if path != "" {
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := parseEnv(cfg, env); err != nil {
		return nil, err
	}

	if err := parseFlags(cfg, fs); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFilePath(fs *pflag.FlagSet, env map[string]string) string {
	if fs != nil {
		if f := fs.Lookup(FlagConfig); f != nil && f.Value.String() != "" {
			return f.Value.String()
		}
	}
	return env[ConfigFileEnv]
}

func environ() map[string]string {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			out[k] = v
		}
	}
	return out
}
