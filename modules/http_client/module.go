// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package http_client offers blocks that make HTTP requests with the client
// the host lends through extension.Capabilities.
package http_client

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/specialistvlad/blockext/internal/ctxlog"
	"github.com/specialistvlad/blockext/internal/extension"
	"github.com/specialistvlad/blockext/internal/handlers"
)

const ID = "http_client"

// maxBodyBytes caps how much of a response body fetch reports.
const maxBodyBytes = 1 << 20

//go:embed manifest.hcl
var manifest []byte

// FetchInput is the argument record of fetch.
type FetchInput struct {
	Method string `cty:"METHOD"`
	URL    string `cty:"URL"`
}

// URLInput is the argument record of statusCode and isReachable.
type URLInput struct {
	URL string `cty:"URL"`
}

type client struct {
	http *http.Client
}

// New builds the HTTP extension.
func New(caps extension.Capabilities) (extension.Extension, error) {
	caps = caps.WithDefaults()
	c := &client{http: caps.HTTPClient}

	h := handlers.New()
	h.RegisterHandler("fetch", handlers.Reporter(c.fetch))
	h.RegisterHandler("statusCode", handlers.Reporter(c.statusCode))
	h.RegisterHandler("isReachable", handlers.Predicate(c.isReachable))

	return extension.FromDefinition(caps, manifest, "http_client/manifest.hcl", h)
}

func (c *client) do(ctx context.Context, method, url string) (*http.Response, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	ctxlog.FromContext(ctx).Info("Making HTTP request", "method", method, "url", url)

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Received HTTP response", "status", resp.Status)
	return resp, nil
}

func (c *client) fetch(ctx context.Context, in FetchInput) (string, error) {
	resp, err := c.do(ctx, in.Method, in.URL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

func (c *client) statusCode(ctx context.Context, in URLInput) (int, error) {
	resp, err := c.do(ctx, http.MethodGet, in.URL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return resp.StatusCode, nil
}

// isReachable is true when the server answers with a status below 500. A
// transport failure is a false answer, not an error.
func (c *client) isReachable(ctx context.Context, in URLInput) (bool, error) {
	resp, err := c.do(ctx, http.MethodHead, in.URL)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		ctxlog.FromContext(ctx).Debug("Host is not reachable.", "error", err)
		return false, nil
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError, nil
}
