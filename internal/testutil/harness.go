// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package testutil holds the shared harness for app-level tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/blockext/internal/app"
	"github.com/specialistvlad/blockext/internal/extension"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcome of starting an app under test.
type HarnessResult struct {
	App    *app.App
	Output *SafeBuffer
	Logs   *SafeBuffer
	Dir    string
	Err    error
}

// RunApp writes files (relative path to content) into a temporary directory,
// points cfg.ExtensionsPath at it when any file is given, and builds an App.
// A startup panic is returned as Err. With no modules the core modules load.
func RunApp(t *testing.T, cfg app.Config, files map[string]string, modules ...extension.Factory) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	if len(files) > 0 && cfg.ExtensionsPath == "" {
		cfg.ExtensionsPath = dir
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}

	res := &HarnessResult{Output: &SafeBuffer{}, Logs: &SafeBuffer{}, Dir: dir}
	t.Cleanup(func() {
		if os.Getenv("BLOCKEXT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), res.Logs.String())
		}
		if res.App != nil {
			res.App.Close()
		}
	})

	config, err := app.NewConfig(cfg)
	if err != nil {
		res.Err = err
		return res
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				res.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		res.App = app.NewApp(res.Output, res.Logs, config, modules...)
	}()
	return res
}
