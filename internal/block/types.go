// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package block

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Type is the visual category of a block.
type Type string

const (
	// Command blocks perform a side effect and report nothing.
	Command Type = "command"
	// Reporter blocks report a single primitive value.
	Reporter Type = "reporter"
	// Boolean blocks report true or false.
	Boolean Type = "boolean"
	// Hat blocks start a script when their predicate turns true.
	Hat Type = "hat"
)

// ParseType converts a wire-format block type into a Type. "event" is accepted
// as an alias for hat blocks.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "command":
		return Command, nil
	case "reporter":
		return Reporter, nil
	case "boolean":
		return Boolean, nil
	case "hat", "event":
		return Hat, nil
	default:
		return "", fmt.Errorf("%w: unknown block type '%s'", ErrInvalidDescriptor, s)
	}
}

// Valid reports whether t is one of the known block types.
func (t Type) Valid() bool {
	switch t {
	case Command, Reporter, Boolean, Hat:
		return true
	}
	return false
}

// Reports reports whether blocks of this type produce a value.
func (t Type) Reports() bool {
	return t == Reporter || t == Boolean || t == Hat
}

// ParseArgumentType converts a wire-format argument type into a cty type.
func ParseArgumentType(s string) (cty.Type, error) {
	switch strings.ToLower(s) {
	case "string":
		return cty.String, nil
	case "number":
		return cty.Number, nil
	case "boolean", "bool":
		return cty.Bool, nil
	default:
		return cty.NilType, fmt.Errorf("%w: unsupported argument type '%s'", ErrInvalidDescriptor, s)
	}
}

// ArgumentTypeName is the inverse of ParseArgumentType.
func ArgumentTypeName(t cty.Type) string {
	switch {
	case t.Equals(cty.String):
		return "string"
	case t.Equals(cty.Number):
		return "number"
	case t.Equals(cty.Bool):
		return "boolean"
	case t == cty.NilType:
		return "none"
	default:
		return t.FriendlyName()
	}
}

// ArgumentSpec declares the type and default of a single block argument.
type ArgumentSpec struct {
	// Name matches the placeholder token in the descriptor's text.
	Name string

	// Type is one of cty.String, cty.Number or cty.Bool.
	Type cty.Type

	// Default must already have exactly Type; it is never converted.
	Default cty.Value
}

// Descriptor describes one block offered by an extension.
type Descriptor struct {
	Opcode    string
	Type      Type
	Text      string
	Arguments map[string]ArgumentSpec
}

// ArgumentNames returns the declared argument names in sorted order.
func (d Descriptor) ArgumentNames() []string {
	names := make([]string, 0, len(d.Arguments))
	for name := range d.Arguments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Manifest is the complete description of an extension.
type Manifest struct {
	ID     string
	Name   string
	Blocks []Descriptor
}

// Block looks up a descriptor by opcode.
func (m *Manifest) Block(opcode string) (Descriptor, bool) {
	for _, b := range m.Blocks {
		if b.Opcode == opcode {
			return b, true
		}
	}
	return Descriptor{}, false
}

// Opcodes returns the opcodes in manifest order.
func (m *Manifest) Opcodes() []string {
	ops := make([]string, 0, len(m.Blocks))
	for _, b := range m.Blocks {
		ops = append(ops, b.Opcode)
	}
	return ops
}

// Clone returns a deep copy of the manifest. cty values are immutable and are
// shared between the copies.
func (m *Manifest) Clone() *Manifest {
	if m == nil {
		return nil
	}
	out := &Manifest{
		ID:     m.ID,
		Name:   m.Name,
		Blocks: make([]Descriptor, len(m.Blocks)),
	}
	for i, b := range m.Blocks {
		args := make(map[string]ArgumentSpec, len(b.Arguments))
		for k, v := range b.Arguments {
			args[k] = v
		}
		b.Arguments = args
		out.Blocks[i] = b
	}
	return out
}
