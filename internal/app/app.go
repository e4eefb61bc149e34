// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/specialistvlad/blockext/internal/ctxlog"
	"github.com/specialistvlad/blockext/internal/dispatch"
	"github.com/specialistvlad/blockext/internal/extension"
	"github.com/specialistvlad/blockext/internal/output"
	"github.com/specialistvlad/blockext/internal/registry"
	"github.com/specialistvlad/blockext/modules/http_client"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	metrics    *prometheus.Registry
	caps       extension.Capabilities
	httpClient *http.Client
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Block output goes to
// outW and logs to logW. When no modules are given the core modules are
// registered. A built-in extension that fails to build or register is a
// programming error and panics; script extensions that fail are skipped.
func NewApp(outW, logW io.Writer, cfg *Config, modules ...extension.Factory) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	httpClient := http_client.NewClient(cfg.HTTPTimeout)
	caps := extension.Capabilities{
		Output:     output.NewWriterSink(outW, cfg.OutputPrefix),
		Logger:     logger,
		HTTPClient: httpClient,
	}

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for i, factory := range modules {
		ext, err := factory(caps)
		if err != nil {
			panic(fmt.Errorf("failed to build built-in extension #%d: %w", i, err))
		}
		if err := reg.Register(ctx, ext); err != nil {
			panic(err)
		}
	}
	logger.Debug("All built-in extensions registered.", "count", len(modules))

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "blockext",
			Name:      "extensions_registered",
			Help:      "Number of extensions in the registry.",
		}, func() float64 { return float64(reg.Len()) }),
	)

	a := &App{
		ctx:        ctx,
		outW:       outW,
		logger:     logger,
		config:     cfg,
		registry:   reg,
		dispatcher: dispatch.New(reg, dispatch.WithMetrics(dispatch.NewMetrics(metrics))),
		metrics:    metrics,
		caps:       caps,
		httpClient: httpClient,
	}

	if cfg.ExtensionsPath != "" {
		if _, err := a.LoadExtensions(cfg.ExtensionsPath); err != nil {
			panic(fmt.Errorf("failed to load script extensions: %w", err))
		}
	}
	logger.Debug("Registry ready.", "extensions", reg.Len())
	return a
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Dispatcher returns the application's dispatcher.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// Close releases resources held by the app.
func (a *App) Close() {
	http_client.CloseClient(a.httpClient)
}
