package config

import (
	"github.com/spf13/pflag"
)

// Flag names.
const (
	FlagConfig   = "config"
	FlagAPIURL   = "api-url"
	FlagStateDir = "state-dir"
	FlagTimeout  = "timeout"
	FlagLogLevel = "log-level"
	FlagLogFile  = "log-file"
)

// BindFlags registers the configuration flags on fs. Their defaults are
// empty so that only explicitly set flags override other sources.
func BindFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagConfig, "c", "", "path to a JSON config file")
	fs.String(FlagAPIURL, "", "base URL of the content API (default http://localhost:8080/api)")
	fs.String(FlagStateDir, "", "directory for local state (default ~/.contentdesk)")
	fs.Duration(FlagTimeout, 0, "per-request timeout (default 15s)")
	fs.String(FlagLogLevel, "", "log level: debug, info, warn or error (default warn)")
	fs.String(FlagLogFile, "", "write logs to this file instead of stderr")
}

// parseFlags copies the flags that were set on the command line into cfg.
func parseFlags(cfg *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	var err error
	set := func(name string, apply func()) {
		if err == nil && fs.Changed(name) {
			apply()
		}
	}

	set(FlagAPIURL, func() { cfg.APIBaseURL, err = fs.GetString(FlagAPIURL) })
	set(FlagStateDir, func() { cfg.StateDir, err = fs.GetString(FlagStateDir) })
	set(FlagTimeout, func() { cfg.RequestTimeout, err = fs.GetDuration(FlagTimeout) })
	set(FlagLogLevel, func() { cfg.LogLevel, err = fs.GetString(FlagLogLevel) })
	set(FlagLogFile, func() { cfg.LogFile, err = fs.GetString(FlagLogFile) })

	return err
}
