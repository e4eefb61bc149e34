// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"github.com/specialistvlad/blockext/internal/extension"
	"github.com/specialistvlad/blockext/modules/env_vars"
	"github.com/specialistvlad/blockext/modules/http_client"
	"github.com/specialistvlad/blockext/modules/print"
	"github.com/specialistvlad/blockext/modules/sample"
)

// coreModules is the definitive list of the extensions compiled into the
// blockext binary.
var coreModules = []extension.Factory{
	sample.New,
	print.New,
	env_vars.New,
	http_client.New,
}
