// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/blockext/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// ParseAssignments turns NAME=VALUE pairs into string inputs. The dispatcher
// converts each value to the argument's declared type.
func ParseAssignments(pairs []string) (map[string]cty.Value, error) {
	inputs := make(map[string]cty.Value, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid argument %q: expected NAME=VALUE", pair)
		}
		if _, dup := inputs[name]; dup {
			return nil, fmt.Errorf("argument '%s' given more than once", name)
		}
		inputs[name] = cty.StringVal(value)
	}
	return inputs, nil
}

// Invoke runs one block and writes its reported value, if any, to w.
func (a *App) Invoke(ctx context.Context, w io.Writer, extensionID, opcode string, pairs []string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	inputs, err := ParseAssignments(pairs)
	if err != nil {
		return err
	}
	res, err := a.dispatcher.Invoke(ctx, extensionID, opcode, inputs)
	if err != nil {
		return err
	}
	a.logger.Debug("Block finished.", "invocation_id", res.InvocationID, "duration", res.Duration)

	value, err := res.Native()
	if err != nil {
		return err
	}
	if value != nil {
		fmt.Fprintln(w, value)
	}
	return nil
}
