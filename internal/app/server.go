// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/blockext/internal/bridge"
	"github.com/specialistvlad/blockext/internal/ctxlog"
	"github.com/specialistvlad/blockext/internal/dispatch"
)

// Handler returns the admin HTTP API.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.healthHandler)
	r.Handle("/metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))
	r.Route("/extensions", func(er chi.Router) {
		er.Get("/", a.listExtensions)
		er.Get("/{id}", a.getExtension)
		er.Post("/{id}/blocks/{opcode}", a.invokeBlock)
	})
	return r
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) listExtensions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.registry.Extensions())
}

func (a *App) getExtension(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, ok := a.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("extension '%s' is not registered", id)})
		return
	}
	writeJSON(w, http.StatusOK, entry.Manifest())
}

type invokeBody struct {
	Arguments map[string]any `json:"arguments"`
}

func (a *App) invokeBlock(w http.ResponseWriter, r *http.Request) {
	id, opcode := chi.URLParam(r, "id"), chi.URLParam(r, "opcode")
	reply := bridge.InvokeReply{ID: middleware.GetReqID(r.Context())}

	var body invokeBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			reply.Error = fmt.Sprintf("invalid request body: %v", err)
			writeJSON(w, http.StatusBadRequest, reply)
			return
		}
	}

	ctx := ctxlog.WithLogger(r.Context(), a.logger)
	res, err := a.dispatcher.InvokeNative(ctx, id, opcode, body.Arguments)
	if err != nil {
		reply.Error = err.Error()
		var invErr *dispatch.InvocationError
		if errors.As(err, &invErr) {
			reply.InvocationID = invErr.InvocationID
		}
		switch {
		case errors.Is(err, dispatch.ErrUnknownExtension), errors.Is(err, dispatch.ErrUnknownOpcode):
			writeJSON(w, http.StatusNotFound, reply)
		case errors.Is(err, dispatch.ErrUnexpectedArgument):
			// The request names arguments the block does not have.
			writeJSON(w, http.StatusBadRequest, reply)
		case invErr != nil:
			writeJSON(w, http.StatusUnprocessableEntity, reply)
		default:
			writeJSON(w, http.StatusBadRequest, reply)
		}
		return
	}

	reply.InvocationID = res.InvocationID
	if reply.Value, err = res.Native(); err != nil {
		reply.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, reply)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// writeJSON encodes v before touching the response, so an unencodable value
// becomes a 500 instead of a success status with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": fmt.Sprintf("failed to encode response: %v", err)})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// startAdminServer runs the admin HTTP server in the background. A port of
// zero disables it.
func (a *App) startAdminServer() {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Configuring admin server.")
	if a.config.HealthcheckPort <= 0 {
		logger.Warn("Admin server not started: disabled")
		return
	}

	addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("🩺 Admin server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Admin server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeAdminServer() error {
	logger := ctxlog.FromContext(a.ctx)
	if a.httpServer == nil {
		logger.Debug("Admin server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down admin server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Admin server shutdown failed", "error", err)
		return err
	}
	logger.Debug("Admin server shut down gracefully.")
	return nil
}
