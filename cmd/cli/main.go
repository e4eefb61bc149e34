// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/specialistvlad/blockext/internal/app"
	"github.com/specialistvlad/blockext/internal/cli"
)

// main is the entrypoint for the blockext application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			stop()
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW, errW io.Writer, args []string) (err error) {
	cmd, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical startup errors, so we recover here to
	// provide a clean error to the user.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	blockApp := app.NewApp(outW, errW, cmd.Config)
	defer blockApp.Close()

	switch cmd.Name {
	case cli.CommandDescribe:
		if len(cmd.Args) == 0 {
			return blockApp.Describe(outW, "")
		}
		target := cmd.Args[0]
		if filepath.Ext(target) != "" {
			if _, statErr := os.Stat(target); statErr == nil {
				return blockApp.DescribeFile(outW, target)
			}
		}
		return blockApp.Describe(outW, target)
	case cli.CommandInvoke:
		return blockApp.Invoke(ctx, outW, cmd.Args[0], cmd.Args[1], cmd.Args[2:])
	case cli.CommandServe:
		return blockApp.Serve(ctx)
	}
	return &cli.ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", cmd.Name)}
}
