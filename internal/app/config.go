// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ExtensionsPath string // .js script extensions, file or directory

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	OutputFormat    string // json or yaml, for describe
	OutputPrefix    bool   // prefix block output with "[extension.opcode]"
	HTTPTimeout     time.Duration

	BridgeURL       string
	BridgeNamespace string
	BridgeInsecure  bool
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn' or 'error'", cfg.LogLevel)
	}

	switch cfg.OutputFormat {
	case "":
		cfg.OutputFormat = "json"
	case "json", "yaml":
	default:
		return nil, fmt.Errorf("invalid output format %q: must be 'json' or 'yaml'", cfg.OutputFormat)
	}

	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d is out of range", cfg.HealthcheckPort)
	}
	if cfg.HTTPTimeout < 0 {
		return nil, errors.New("HTTP timeout cannot be negative")
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	if cfg.BridgeURL != "" {
		u, err := url.Parse(cfg.BridgeURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid bridge URL %q", cfg.BridgeURL)
		}
		if cfg.BridgeNamespace == "" {
			cfg.BridgeNamespace = "/"
		}
	}

	return &cfg, nil
}
