// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package definition turns extension definitions written by humans into
// block.Manifest values.
//
// Two formats are understood. The primary one is HCL, used by every built-in
// module to declare its blocks next to its Go handlers:
//
//	extension "sampleextension" {
//	  name = "Sample Extension"
//
//	  block "getDouble" {
//	    type = reporter
//	    text = "double of [NUM]"
//
//	    argument "NUM" {
//	      type    = number
//	      default = 10
//	    }
//	  }
//	}
//
// The second is the compact directive form used inside project sources, where
// every placeholder becomes a string argument:
//
//	#extension myext "My Extension"
//	    #block shout "shout [TEXT]"
//	    #reporter answer "answer of [Q]"
//	#endextension
//
// Why parse into the same model?
//
// Whatever the source, the host only ever sees the wire manifest. Parsing both
// formats into block.Manifest means one validator and one encoder serve all of
// them, and a definition error is reported with a file position before any
// handler is bound.
package definition
