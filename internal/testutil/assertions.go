// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertLogged checks that the captured logs contain every fragment.
func AssertLogged(t *testing.T, result *HarnessResult, fragments ...string) {
	t.Helper()
	logs := result.Logs.String()
	for _, f := range fragments {
		require.True(t, strings.Contains(logs, f), "expected log output to contain %q", f)
	}
}

// OutputLines returns the non-empty lines of block output.
func OutputLines(result *HarnessResult) []string {
	var lines []string
	for _, line := range strings.Split(result.Output.String(), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
