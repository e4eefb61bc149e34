// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/specialistvlad/blockext/internal/block"
	"github.com/specialistvlad/blockext/internal/ctxlog"
	"github.com/specialistvlad/blockext/internal/handlers"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValidateHandlers performs a strict parity check between a manifest and its
// handler table. It checks presence in both directions, the handler variant
// against the block type and, for typed handlers, the input struct against
// the declared arguments.
func ValidateHandlers(ctx context.Context, m *block.Manifest, table *handlers.Handlers) error {
	if table == nil {
		return fmt.Errorf("%w: handler table is nil", ErrHandlerMismatch)
	}
	var errs []string
	logger := ctxlog.FromContext(ctx)

	declared := make(map[string]struct{}, len(m.Blocks))
	for _, d := range m.Blocks {
		declared[d.Opcode] = struct{}{}

		h, ok := table.Lookup(d.Opcode)
		if !ok {
			errs = append(errs, fmt.Sprintf("block '%s': manifest declares it, but no handler is registered", d.Opcode))
			continue
		}
		if !h.Kind.Accepts(d.Type) {
			errs = append(errs, fmt.Sprintf("block '%s': a %s handler cannot serve a %s block", d.Opcode, h.Kind, d.Type))
		}
		if h.InputType == nil {
			continue
		}
		errs = append(errs, checkInputStruct(logger.With("opcode", d.Opcode), d, h.InputType)...)
	}

	for _, op := range table.Opcodes() {
		if _, ok := declared[op]; !ok {
			errs = append(errs, fmt.Sprintf("handler '%s' is registered, but the manifest declares no such block", op))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrHandlerMismatch, strings.Join(errs, "\n- "))
	}
	return nil
}

func checkInputStruct(logger *slog.Logger, d block.Descriptor, inputType reflect.Type) []string {
	if inputType.Kind() != reflect.Struct {
		return []string{fmt.Sprintf("block '%s': handler input %s is not a struct", d.Opcode, inputType)}
	}

	var errs []string
	goInputs := make(map[string]reflect.StructField)
	for i := 0; i < inputType.NumField(); i++ {
		field := inputType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagName := strings.Split(field.Tag.Get("cty"), ",")[0]
		if tagName != "" && tagName != "-" {
			goInputs[tagName] = field
		}
	}

	for name := range goInputs {
		if _, ok := d.Arguments[name]; !ok {
			errs = append(errs, fmt.Sprintf("block '%s': Go struct has field for argument '%s' which is not declared in the manifest", d.Opcode, name))
		}
	}

	for _, name := range d.ArgumentNames() {
		spec := d.Arguments[name]
		field, ok := goInputs[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("block '%s': manifest declares argument '%s' which is not found in Go struct %s", d.Opcode, name, inputType))
			continue
		}

		goType, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface())
		if err != nil {
			errs = append(errs, fmt.Sprintf("block '%s', argument '%s': could not imply cty type from Go field type %s: %v", d.Opcode, name, field.Type, err))
			continue
		}
		if goType.Equals(cty.DynamicPseudoType) {
			logger.Warn("Handler field accepts any type, which disables static type checking.", "argument", name, "field", field.Name)
			continue
		}
		if !spec.Type.Equals(goType) {
			errs = append(errs, fmt.Sprintf("block '%s', argument '%s': type mismatch. Manifest requires '%s' but Go struct field '%s' provides '%s'",
				d.Opcode, name, block.ArgumentTypeName(spec.Type), field.Name, block.ArgumentTypeName(goType)))
		}
	}
	return errs
}
