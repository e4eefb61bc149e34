// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"context"
	"strings"

	"github.com/specialistvlad/blockext/internal/extension"
	"github.com/specialistvlad/blockext/internal/handlers"
	"github.com/specialistvlad/blockext/internal/output"
)

// EchoID is the id of the extension built by EchoModule.
const EchoID = "echo"

const echoDefinition = `
extension "echo" {
	name = "Echo"

	block "say" {
		type = command
		text = "say [TEXT]"
		argument "TEXT" {
			type    = string
			default = "hello"
		}
	}

	block "upper" {
		type = reporter
		text = "upper [TEXT]"
		argument "TEXT" {
			type    = string
			default = "hello"
		}
	}

	block "fail" {
		type = command
		text = "fail"
	}
}`

// EchoModule is a small extension for app tests: say emits its text, upper
// reports it upper-cased and fail always panics.
func EchoModule(caps extension.Capabilities) (extension.Extension, error) {
	caps = caps.WithDefaults()
	h := handlers.New()
	h.RegisterHandler("say", handlers.Command(func(ctx context.Context, in struct {
		Text string `cty:"TEXT"`
	}) error {
		return caps.Output.Emit(ctx, output.Event{Extension: EchoID, Opcode: "say", Text: in.Text})
	}))
	h.RegisterHandler("upper", handlers.Reporter(func(ctx context.Context, in struct {
		Text string `cty:"TEXT"`
	}) (string, error) {
		return strings.ToUpper(in.Text), nil
	}))
	h.RegisterHandler("fail", handlers.Command(func(ctx context.Context, in struct{}) error {
		panic("echo failure")
	}))
	return extension.FromDefinition(caps, []byte(echoDefinition), "echo.hcl", h)
}

// BrokenModule declares a block it has no handler for.
func BrokenModule(caps extension.Capabilities) (extension.Extension, error) {
	return extension.FromDefinition(caps, []byte(echoDefinition), "echo.hcl", handlers.New())
}
