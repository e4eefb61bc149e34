// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package sample is the reference extension: one command and one reporter.
package sample

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/specialistvlad/blockext/internal/extension"
	"github.com/specialistvlad/blockext/internal/handlers"
	"github.com/specialistvlad/blockext/internal/output"
)

// ID is the extension id declared in manifest.hcl.
const ID = "sampleextension"

//go:embed manifest.hcl
var manifest []byte

// SayHelloInput is the argument record of sayHello.
type SayHelloInput struct {
	Name string `cty:"NAME"`
}

// GetDoubleInput is the argument record of getDouble.
type GetDoubleInput struct {
	Num float64 `cty:"NUM"`
}

// New builds the extension.
func New(caps extension.Capabilities) (extension.Extension, error) {
	caps = caps.WithDefaults()

	h := handlers.New()
	h.RegisterHandler("sayHello", handlers.Command(func(ctx context.Context, in SayHelloInput) error {
		return caps.Output.Emit(ctx, output.Event{
			Extension: ID,
			Opcode:    "sayHello",
			Text:      fmt.Sprintf("Hello, %s!", in.Name),
		})
	}))
	h.RegisterHandler("getDouble", handlers.Reporter(func(ctx context.Context, in GetDoubleInput) (float64, error) {
		return in.Num * 2, nil
	}))

	return extension.FromDefinition(caps, manifest, "sample/manifest.hcl", h)
}
