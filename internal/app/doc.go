// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package app contains the core application logic. It wires the built-in
// extensions and the user's script extensions into a registry, and exposes
// the operations the CLI offers (describe, invoke, serve) decoupled from any
// specific entrypoint.
package app
