// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"errors"

	"github.com/specialistvlad/blockext/internal/bridge"
	"github.com/specialistvlad/blockext/internal/ctxlog"
)

// Serve runs the admin server and, when configured, the editor bridge until
// ctx is cancelled or the bridge fails.
func (a *App) Serve(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Serve method started.")

	a.startAdminServer()

	var bridgeErr error
	if a.config.BridgeURL != "" {
		b := bridge.New(a.registry, a.dispatcher)
		bridgeErr = b.Run(ctx, bridge.Config{
			URL:                a.config.BridgeURL,
			Namespace:          a.config.BridgeNamespace,
			InsecureSkipVerify: a.config.BridgeInsecure,
		})
	} else {
		a.logger.Info("🚀 Serving extensions.", "extensions", a.registry.Len())
		<-ctx.Done()
	}

	shutdownErr := a.closeAdminServer()
	a.Close()
	a.logger.Debug("App.Serve method finished.")
	return errors.Join(bridgeErr, shutdownErr)
}
