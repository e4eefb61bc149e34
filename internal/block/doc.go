// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package block defines the manifest an extension hands to the host: its
// identity and the ordered list of block descriptors it offers.
//
// # Core Concepts
//
//   - Manifest: the extension id (the dispatch namespace), its display name and
//     the blocks it provides, in the order the editor should show them.
//
//   - Descriptor: a single block. It names the opcode used for dispatch, the
//     block type (command, reporter, boolean or hat), a display template such as
//     "say hello [NAME]" and the schema of its arguments.
//
//   - ArgumentSpec: the declared cty type of an argument and its default value.
//
// Why validate here?
//
// A descriptor is a contract between the editor, which renders the text
// template and collects user input, and the Go handler, which consumes the
// typed argument record. If the two disagree the failure would only surface
// when a user runs the block. Validate turns every such disagreement into a
// load-time error so a broken extension never reaches the editor.
package block
