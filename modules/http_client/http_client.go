// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package http_client

import (
	"net/http"
	"time"
)

// NewClient returns the client lent to extensions through their
// capabilities. It is shared by every invocation.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// CloseClient releases the idle connections of a client built by NewClient.
func CloseClient(client *http.Client) {
	client.CloseIdleConnections()
}
