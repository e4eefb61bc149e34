package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/blockext/internal/cli"
	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A missing extensions directory makes app.NewApp panic during startup.
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	args := []string{"-extensions", missing, "describe"}
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, logs, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.Contains(t, runErr.Error(), "application startup panicked")
	require.Contains(t, runErr.Error(), "failed to load script extensions")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Act ---
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	// --- Assert ---
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_Describe(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"describe", "sampleextension"})
	require.NoError(t, err)

	var manifest map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &manifest))
	require.Equal(t, "sampleextension", manifest["id"])
}

func TestRun_DescribeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "talk.ext")
	require.NoError(t, os.WriteFile(path, []byte("#extension talk \"Talk\"\n#block shout \"shout [TEXT]\"\n#endextension\n"), 0o600))

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-format", "yaml", "describe", path})
	require.NoError(t, err)
	require.Contains(t, out.String(), "opcode: talk_shout")
}

func TestRun_Invoke(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"invoke", "sampleextension", "getDouble", "NUM=21"})
	require.NoError(t, err)
	require.Equal(t, "42\n", out.String())

	out.Reset()
	err = run(context.Background(), out, &bytes.Buffer{}, []string{"-prefix", "invoke", "sampleextension", "sayHello", "NAME=gopher"})
	require.NoError(t, err)
	require.Equal(t, "[sampleextension.sayHello] Hello, gopher!\n", out.String())

	err = run(context.Background(), out, &bytes.Buffer{}, []string{"invoke", "sampleextension", "getTriple"})
	require.ErrorContains(t, err, "unknown opcode")
}
