// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package block

import "regexp"

var placeholderPattern = regexp.MustCompile(`\[([\p{L}\p{N}_]+)\]`)

// Placeholders returns the argument tokens referenced by a text template, in
// order of first appearance. "[A] plus [B] plus [A]" yields [A B].
func Placeholders(text string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// Render substitutes each placeholder with the matching entry from values.
// Placeholders without an entry are left untouched.
func Render(text string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if v, ok := values[name]; ok {
			return v
		}
		return tok
	})
}
