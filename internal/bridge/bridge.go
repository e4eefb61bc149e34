// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package bridge connects the host to a remote editor over socket.io. The
// editor asks for manifests with a "getInfo" event and runs blocks with
// "invoke"; the bridge answers with "manifest" and "result" events.
package bridge

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/blockext/internal/block"
	"github.com/specialistvlad/blockext/internal/ctxlog"
	"github.com/specialistvlad/blockext/internal/dispatch"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names on the wire.
const (
	EventGetInfo  = "getInfo"
	EventManifest = "manifest"
	EventInvoke   = "invoke"
	EventResult   = "result"
)

// InvokeRequest asks the host to run one block.
type InvokeRequest struct {
	ID        string         `json:"id"`
	Extension string         `json:"extension"`
	Opcode    string         `json:"opcode"`
	Arguments map[string]any `json:"arguments"`
}

// InvokeReply answers an InvokeRequest with the same ID. Error is empty on
// success.
type InvokeReply struct {
	ID           string `json:"id"`
	InvocationID string `json:"invocationId,omitempty"`
	Value        any    `json:"value"`
	Error        string `json:"error,omitempty"`
}

// Catalog lists the registered manifests.
type Catalog interface {
	Extensions() []*block.Manifest
}

// Invoker runs blocks.
type Invoker interface {
	InvokeNative(ctx context.Context, extensionID, opcode string, raw map[string]any) (*dispatch.Result, error)
}

// Config describes the remote endpoint.
type Config struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// Bridge serves manifests and invocations to a remote editor.
type Bridge struct {
	catalog Catalog
	invoker Invoker
}

// New creates a bridge.
func New(catalog Catalog, invoker Invoker) *Bridge {
	return &Bridge{catalog: catalog, invoker: invoker}
}

// Manifests returns every registered manifest in its wire shape, decoded into
// plain maps and slices.
func (b *Bridge) Manifests() ([]any, error) {
	data, err := json.Marshal(b.catalog.Extensions())
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifests: %w", err)
	}
	var out []any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode manifests: %w", err)
	}
	return out, nil
}

// HandleInvoke runs req and builds the reply. It never fails; errors are
// reported in the reply.
func (b *Bridge) HandleInvoke(ctx context.Context, req InvokeRequest) InvokeReply {
	reply := InvokeReply{ID: req.ID}
	res, err := b.invoker.InvokeNative(ctx, req.Extension, req.Opcode, req.Arguments)
	if err != nil {
		var invErr *dispatch.InvocationError
		if errors.As(err, &invErr) {
			reply.InvocationID = invErr.InvocationID
		}
		reply.Error = err.Error()
		return reply
	}
	reply.InvocationID = res.InvocationID
	value, err := res.Native()
	if err != nil {
		reply.Error = err.Error()
		return reply
	}
	reply.Value = value
	return reply
}

// DecodeInvokeRequest converts the payload of an "invoke" event.
func DecodeInvokeRequest(payload any) (InvokeRequest, error) {
	var req InvokeRequest
	data, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("invalid invoke payload: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("invalid invoke payload: %w", err)
	}
	if req.Extension == "" || req.Opcode == "" {
		return req, fmt.Errorf("invalid invoke payload: extension and opcode are required")
	}
	return req, nil
}

// Run connects to cfg.URL and serves requests until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context, cfg Config) error {
	logger := ctxlog.FromContext(ctx).With("component", "bridge", "url", cfg.URL)

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse bridge URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("bridge URL %q must include a scheme and host", cfg.URL)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	announce := func() {
		manifests, err := b.Manifests()
		if err != nil {
			logger.Error("Failed to build manifests for the editor.", "error", err)
			return
		}
		io.Emit(EventManifest, manifests)
		logger.Debug("Sent manifests.", "count", len(manifests))
	}

	connectChan := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Connected to editor.", "sid", io.Id())
		announce()
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connection refused")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})
	io.On(types.EventName(EventGetInfo), func(...any) {
		announce()
	})
	io.On(types.EventName(EventInvoke), func(data ...any) {
		if len(data) == 0 {
			logger.Warn("Ignoring invoke event without payload.")
			return
		}
		req, err := DecodeInvokeRequest(data[0])
		if err != nil {
			logger.Warn("Rejected invoke event.", "error", err)
			io.Emit(EventResult, InvokeReply{ID: req.ID, Error: err.Error()})
			return
		}
		go func() {
			reply := b.HandleInvoke(ctx, req)
			io.Emit(EventResult, reply)
		}()
	})

	logger.Debug("Connecting to editor...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	<-ctx.Done()
	logger.Info("Disconnecting from editor.", "sid", io.Id())
	io.Disconnect()
	return nil
}
