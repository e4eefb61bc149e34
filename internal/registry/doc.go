// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package registry is the host-side gate every extension passes through.
//
// Registering an extension asks it for its manifest exactly once, validates
// the manifest, and then performs a strict parity check between the manifest
// and the Go handler table: every opcode has exactly one handler, every
// handler serves a declared opcode, each handler variant matches its block
// type, and typed handler inputs match the declared arguments by name and
// type. Only extensions that pass are visible to the dispatcher, so a
// mismatch between code and manifest is caught at load time instead of when
// a user runs a block.
package registry
