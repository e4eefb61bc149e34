// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package block

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Validate checks every invariant of a manifest and returns a *ManifestError
// listing all problems, or nil if the manifest is well formed.
func Validate(m *Manifest) error {
	if m == nil {
		return &ManifestError{Problems: []error{fmt.Errorf("%w: manifest is nil", ErrInvalidDescriptor)}}
	}

	var problems []error
	if m.ID == "" {
		problems = append(problems, fmt.Errorf("%w: extension id must not be empty", ErrInvalidDescriptor))
	}
	if m.Name == "" {
		problems = append(problems, fmt.Errorf("%w: extension name must not be empty", ErrInvalidDescriptor))
	}

	seen := make(map[string]struct{}, len(m.Blocks))
	for i, b := range m.Blocks {
		if b.Opcode == "" {
			problems = append(problems, fmt.Errorf("%w: block #%d has an empty opcode", ErrInvalidDescriptor, i))
			continue
		}
		if _, dup := seen[b.Opcode]; dup {
			problems = append(problems, fmt.Errorf("block '%s': %w", b.Opcode, ErrDuplicateOpcode))
			continue
		}
		seen[b.Opcode] = struct{}{}
		problems = append(problems, validateDescriptor(b)...)
	}

	if len(problems) > 0 {
		return &ManifestError{Extension: m.ID, Problems: problems}
	}
	return nil
}

func validateDescriptor(b Descriptor) []error {
	var problems []error
	if !b.Type.Valid() {
		problems = append(problems, fmt.Errorf("block '%s': %w: unknown block type '%s'", b.Opcode, ErrInvalidDescriptor, b.Type))
	}

	placeholders := Placeholders(b.Text)
	used := make(map[string]struct{}, len(placeholders))
	for _, name := range placeholders {
		used[name] = struct{}{}
		if _, ok := b.Arguments[name]; !ok {
			problems = append(problems, fmt.Errorf("block '%s': %w: [%s] is not declared in arguments", b.Opcode, ErrUnboundPlaceholder, name))
		}
	}

	for _, name := range b.ArgumentNames() {
		spec := b.Arguments[name]
		if _, ok := used[name]; !ok {
			problems = append(problems, fmt.Errorf("block '%s': %w: '%s' does not appear in text %q", b.Opcode, ErrUnusedArgument, name, b.Text))
		}
		if spec.Name != "" && spec.Name != name {
			problems = append(problems, fmt.Errorf("block '%s': %w: argument '%s' is registered under key '%s'", b.Opcode, ErrInvalidDescriptor, spec.Name, name))
		}
		if !supportedArgumentType(spec.Type) {
			problems = append(problems, fmt.Errorf("block '%s', argument '%s': %w: unsupported type '%s'", b.Opcode, name, ErrInvalidDescriptor, ArgumentTypeName(spec.Type)))
			continue
		}
		if spec.Default.IsNull() || !spec.Default.IsKnown() {
			problems = append(problems, fmt.Errorf("block '%s', argument '%s': %w: no default value", b.Opcode, name, ErrDefaultType))
			continue
		}
		if !spec.Default.Type().Equals(spec.Type) {
			problems = append(problems, fmt.Errorf("block '%s', argument '%s': %w: declared '%s' but default is '%s'",
				b.Opcode, name, ErrDefaultType, ArgumentTypeName(spec.Type), ArgumentTypeName(spec.Default.Type())))
		}
	}
	return problems
}

func supportedArgumentType(t cty.Type) bool {
	return t.Equals(cty.String) || t.Equals(cty.Number) || t.Equals(cty.Bool)
}
