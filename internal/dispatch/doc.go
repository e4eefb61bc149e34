// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package dispatch runs blocks. It is the boundary between the host's loosely
// typed block inputs and an extension's typed handlers.
//
// For every invocation the dispatcher looks the opcode up in the registry,
// builds the argument record (user input where given, the declared default
// otherwise, each value converted to the declared type), calls the handler
// and checks that the reported value fits the block type. Handler errors and
// panics never escape as anything but an *InvocationError, so a failing block
// fails only its own step.
package dispatch
