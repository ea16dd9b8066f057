// Package config loads runtime configuration for the contentdesk CLI.
//
// Sources & precedence (later wins)
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected by -c/--config or CONTENTDESK_CONFIG.
//  3. Variables from ./.env, then the process environment (prefix CONTENTDESK_).
//  4. Command-line flags that were explicitly set.
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "15s" or
// integer nanoseconds:
//
//	{
//	  "api_base_url": "https://cms.example.com/api",
//	  "state_dir": "~/.contentdesk",
//	  "request_timeout": "15s",
//	  "log_level": "info",
//	  "log_file": ""
//	}
//
// # Environment
//
//	CONTENTDESK_API_BASE_URL, CONTENTDESK_STATE_DIR, CONTENTDESK_REQUEST_TIMEOUT,
//	CONTENTDESK_LOG_LEVEL, CONTENTDESK_LOG_FILE
//
// The result is validated before it is returned.
package config
