// ABOUTME: Hardened HTTP client shared by the fetch and search tools
// ABOUTME: Tight per-phase timeouts keep a slow remote from stalling a turn

package http

import (
	"net/http"
	"time"
)

// SecureClient creates an HTTP client with conservative timeouts on every
// phase of the exchange, not just an overall deadline.
func SecureClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			IdleConnTimeout:       30 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
		},
	}
}
