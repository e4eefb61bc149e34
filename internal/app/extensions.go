// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"github.com/specialistvlad/blockext/internal/ctxlog"
	"github.com/specialistvlad/blockext/internal/fsutil"
	"github.com/specialistvlad/blockext/internal/scriptext"
)

// LoadExtensions loads every .js script extension under path and registers
// it. A script that fails to load or register is logged and skipped; only a
// path that cannot be searched is an error. It returns the number of
// extensions registered.
func (a *App) LoadExtensions(path string) (int, error) {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Loading script extensions...", "path", path)

	files, err := fsutil.FindFiles(path, "**/*.js")
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, file := range files {
		ext, err := scriptext.LoadFile(a.caps, file)
		if err != nil {
			logger.Error("Rejected script extension.", "file", file, "error", err)
			continue
		}
		if err := a.registry.Register(a.ctx, ext); err != nil {
			logger.Error("Rejected script extension.", "file", file, "error", err)
			continue
		}
		loaded++
	}
	logger.Info("Script extensions loaded.", "found", len(files), "registered", loaded)
	return loaded, nil
}
