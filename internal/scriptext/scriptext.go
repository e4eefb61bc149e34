// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package scriptext loads extensions written in JavaScript. A script assigns
// a class (or a plain object) to module.exports; the instance's getInfo()
// returns the manifest and every opcode is served by the method of the same
// name. console.log output is routed to the host's output sink.
package scriptext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/specialistvlad/blockext/internal/block"
	"github.com/specialistvlad/blockext/internal/extension"
	"github.com/specialistvlad/blockext/internal/handlers"
	"github.com/specialistvlad/blockext/internal/output"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrNoExport is returned when the script leaves module.exports empty.
	ErrNoExport = errors.New("script does not export an extension")
	// ErrMissingMethod is returned when an instance lacks getInfo or an opcode method.
	ErrMissingMethod = errors.New("missing method")
	// ErrScript wraps exceptions thrown by script code.
	ErrScript = errors.New("script error")
)

// Extension is a script-backed extension. Its VM is not safe for concurrent
// use, so every call into the script holds mu.
type Extension struct {
	manifest *block.Manifest
	handlers *handlers.Handlers
	caps     extension.Capabilities

	mu       sync.Mutex
	vm       *goja.Runtime
	instance *goja.Object

	// Set for the duration of a call, read by console.log.
	callCtx    context.Context
	callOpcode string
}

var _ extension.Extension = (*Extension)(nil)

// LoadFile reads and loads the script at path.
func LoadFile(caps extension.Capabilities, path string) (*Extension, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read extension script %s: %w", path, err)
	}
	return Load(caps, src, path)
}

// Factory returns an extension.Factory that loads src on every call.
func Factory(src []byte, filename string) extension.Factory {
	return func(caps extension.Capabilities) (extension.Extension, error) {
		return Load(caps, src, filename)
	}
}

// Load runs the script, instantiates its export, asks it for its manifest
// and binds one handler per declared block.
func Load(caps extension.Capabilities, src []byte, filename string) (*Extension, error) {
	e := &Extension{
		caps: caps.WithDefaults(),
		vm:   goja.New(),
	}
	if err := e.boot(src, filename); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	m, err := e.describe()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if err := block.Validate(m); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	table := handlers.New()
	for _, d := range m.Blocks {
		fn, ok := goja.AssertFunction(e.instance.Get(d.Opcode))
		if !ok {
			return nil, fmt.Errorf("%s: %w: no method for opcode '%s'", filename, ErrMissingMethod, d.Opcode)
		}
		table.RegisterHandler(d.Opcode, e.bind(d, fn))
	}

	e.manifest = m
	e.handlers = table
	e.caps.Logger.Debug("Loaded script extension.", "extension", m.ID, "file", filename, "blocks", len(m.Blocks))
	return e, nil
}

// Manifest implements extension.Extension.
func (e *Extension) Manifest() *block.Manifest {
	return e.manifest.Clone()
}

// Handlers implements extension.Extension.
func (e *Extension) Handlers() *handlers.Handlers {
	return e.handlers
}

func (e *Extension) boot(src []byte, filename string) error {
	vm := e.vm
	module := vm.NewObject()
	exports := vm.NewObject()
	console := vm.NewObject()
	if err := errors.Join(
		module.Set("exports", exports),
		console.Set("log", e.consoleLog),
		vm.Set("module", module),
		vm.Set("exports", exports),
		vm.Set("console", console),
	); err != nil {
		return err
	}

	if _, err := vm.RunScript(filename, string(src)); err != nil {
		return fmt.Errorf("%w: %v", ErrScript, err)
	}

	exported := module.Get("exports")
	if exported == nil || goja.IsUndefined(exported) || goja.IsNull(exported) {
		return ErrNoExport
	}
	if exported.SameAs(exports) && len(exports.Keys()) == 0 {
		return ErrNoExport
	}
	if _, isFunc := goja.AssertFunction(exported); isFunc {
		runtime := vm.NewObject()
		if err := runtime.Set("log", e.consoleLog); err != nil {
			return err
		}
		instance, err := vm.New(exported, runtime)
		if err != nil {
			return fmt.Errorf("%w: cannot construct extension: %v", ErrScript, err)
		}
		e.instance = instance
		return nil
	}
	e.instance = exported.ToObject(vm)
	return nil
}

func (e *Extension) describe() (*block.Manifest, error) {
	getInfo, ok := goja.AssertFunction(e.instance.Get("getInfo"))
	if !ok {
		return nil, fmt.Errorf("%w: getInfo", ErrMissingMethod)
	}
	res, err := getInfo(e.instance)
	if err != nil {
		return nil, fmt.Errorf("%w: getInfo: %v", ErrScript, err)
	}
	m, err := block.FromNative(res.Export())
	if err != nil {
		return nil, fmt.Errorf("invalid manifest from getInfo: %w", err)
	}
	return m, nil
}

func (e *Extension) bind(d block.Descriptor, fn goja.Callable) *handlers.RegisteredHandler {
	opcode := d.Opcode
	switch d.Type {
	case block.Command:
		return handlers.Command(func(ctx context.Context, args handlers.Args) error {
			_, err := e.call(ctx, opcode, fn, args)
			return err
		})
	case block.Reporter:
		return handlers.Reporter(func(ctx context.Context, args handlers.Args) (cty.Value, error) {
			res, err := e.call(ctx, opcode, fn, args)
			if err != nil {
				return cty.NilVal, err
			}
			return handlers.ToCtyValue(res)
		})
	default:
		return handlers.Predicate(func(ctx context.Context, args handlers.Args) (bool, error) {
			res, err := e.call(ctx, opcode, fn, args)
			if err != nil {
				return false, err
			}
			b, ok := res.(bool)
			if !ok {
				return false, fmt.Errorf("%s block '%s' returned %T, expected boolean", d.Type, opcode, res)
			}
			return b, nil
		})
	}
}

// call runs one opcode method with the record as its only argument and
// returns the exported result. Cancelling ctx interrupts the script.
func (e *Extension) call(ctx context.Context, opcode string, fn goja.Callable, args handlers.Args) (any, error) {
	record := make(map[string]any, len(args))
	for name, v := range args {
		n, err := block.ToNative(v)
		if err != nil {
			return nil, fmt.Errorf("argument '%s': %w", name, err)
		}
		record[name] = n
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.callCtx, e.callOpcode = ctx, opcode
	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(interrupted)
		e.vm.Interrupt(ctx.Err())
	})
	defer func() {
		if !stop() {
			// The interrupt must land before it is cleared, or it hits the next call.
			<-interrupted
		}
		e.vm.ClearInterrupt()
		e.callCtx, e.callOpcode = nil, ""
	}()

	res, err := fn(e.instance, e.vm.ToValue(record))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrScript, opcode, err)
	}
	return res.Export(), nil
}

func (e *Extension) consoleLog(call goja.FunctionCall) goja.Value {
	parts := make([]string, 0, len(call.Arguments))
	for _, arg := range call.Arguments {
		parts = append(parts, arg.String())
	}

	ctx := e.callCtx
	if ctx == nil {
		ctx = context.Background()
	}
	id := ""
	if e.manifest != nil {
		id = e.manifest.ID
	}
	ev := output.Event{Extension: id, Opcode: e.callOpcode, Text: strings.Join(parts, " ")}
	if err := e.caps.Output.Emit(ctx, ev); err != nil {
		e.caps.Logger.Warn("Failed to emit script output.", "error", err)
	}
	return goja.Undefined()
}
