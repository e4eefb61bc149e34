// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package dispatch

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/blockext/internal/block"
	"github.com/specialistvlad/blockext/internal/handlers"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ResolveArguments builds the record a handler receives. A declared argument
// missing from inputs, or given as null, is back-filled from its default.
// Keys the block does not declare are rejected. Every value is converted to
// the declared type, so "10" becomes the number 10 for a number argument.
func ResolveArguments(d block.Descriptor, inputs map[string]cty.Value) (handlers.Args, error) {
	var unexpected []string
	for name := range inputs {
		if _, ok := d.Arguments[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return nil, fmt.Errorf("%w: block '%s' does not declare %q", ErrUnexpectedArgument, d.Opcode, unexpected)
	}

	args := make(handlers.Args, len(d.Arguments))
	for name, spec := range d.Arguments {
		val, given := inputs[name]
		if !given || val.IsNull() {
			args[name] = spec.Default
			continue
		}
		if !val.IsWhollyKnown() {
			return nil, fmt.Errorf("%w: argument '%s' has no known value", ErrCoercion, name)
		}
		converted, err := convert.Convert(val, spec.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: argument '%s' cannot be used as %s: %v", ErrCoercion, name, block.ArgumentTypeName(spec.Type), err)
		}
		args[name] = converted
	}
	return args, nil
}

// NativeInputs converts plain Go values, as decoded from JSON or a command
// line, into cty values. A nil entry becomes null and so takes the default.
func NativeInputs(raw map[string]any) (map[string]cty.Value, error) {
	inputs := make(map[string]cty.Value, len(raw))
	for name, v := range raw {
		val, err := handlers.ToCtyValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w: argument '%s': %v", ErrCoercion, name, err)
		}
		inputs[name] = val
	}
	return inputs, nil
}
