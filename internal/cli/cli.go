// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/specialistvlad/blockext/internal/app"
)

// Command names.
const (
	CommandDescribe = "describe"
	CommandInvoke   = "invoke"
	CommandServe    = "serve"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Command is a parsed command line.
type Command struct {
	Name   string
	Args   []string
	Config *app.Config
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns the command to run, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Command, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("blockext", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
blockext - host for block-programming extensions.

Usage:
  blockext [options] describe [EXTENSION_ID | FILE]
  blockext [options] invoke EXTENSION_ID OPCODE [NAME=VALUE ...]
  blockext [options] serve

Commands:
  describe  Print the manifest of every registered extension, of one
            extension, or of a definition file (.hcl, .ext or .js).
  invoke    Run one block and print the value it reports.
  serve     Run the admin server and the editor bridge until interrupted.

Options:
`)
		flagSet.PrintDefaults()
	}

	extensionsFlag := flagSet.String("extensions", "", "Path to a .js extension or a directory of them.")
	eFlag := flagSet.String("e", "", "Path to a .js extension or a directory of them (shorthand).")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the admin HTTP server (health, metrics, extensions). 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	formatFlag := flagSet.String("format", "json", "Manifest output format for describe. Options: 'json' or 'yaml'.")
	prefixFlag := flagSet.Bool("prefix", false, "Prefix block output with [extension.opcode].")
	httpTimeoutFlag := flagSet.Duration("http-timeout", 30*time.Second, "Timeout of the HTTP client lent to extensions.")
	bridgeURLFlag := flagSet.String("bridge-url", "", "socket.io URL of the editor to serve. Empty disables the bridge.")
	bridgeNamespaceFlag := flagSet.String("bridge-namespace", "/", "socket.io namespace of the editor.")
	bridgeInsecureFlag := flagSet.Bool("bridge-insecure", false, "Skip TLS certificate verification for the bridge.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	name, rest := flagSet.Arg(0), flagSet.Args()[1:]

	switch name {
	case CommandDescribe:
		if len(rest) > 1 {
			return nil, false, usageError("describe takes at most one argument, got %d", len(rest))
		}
	case CommandInvoke:
		if len(rest) < 2 {
			return nil, false, usageError("invoke requires EXTENSION_ID and OPCODE")
		}
	case CommandServe:
		if len(rest) > 0 {
			return nil, false, usageError("serve takes no arguments")
		}
	default:
		return nil, false, usageError("unknown command %q: expected describe, invoke or serve", name)
	}

	extensionsPath := *extensionsFlag
	if extensionsPath == "" {
		extensionsPath = *eFlag
	}

	config, err := app.NewConfig(app.Config{
		ExtensionsPath:  extensionsPath,
		LogFormat:       strings.ToLower(*logFormatFlag),
		LogLevel:        strings.ToLower(*logLevelFlag),
		HealthcheckPort: *healthPortFlag,
		OutputFormat:    strings.ToLower(*formatFlag),
		OutputPrefix:    *prefixFlag,
		HTTPTimeout:     *httpTimeoutFlag,
		BridgeURL:       *bridgeURLFlag,
		BridgeNamespace: *bridgeNamespaceFlag,
		BridgeInsecure:  *bridgeInsecureFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "command", name, "config", config)
	return &Command{Name: name, Args: rest, Config: config}, false, nil
}
