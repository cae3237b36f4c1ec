// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fieldsync/syncdrive/lib/netutil"
)

// logEntry mirrors wifiserver's GET /v1/logs envelope.
type logEntry struct {
	Name     string            `json:"name"`
	Size     int64             `json:"size"`
	ModTime  string            `json:"modTime"`
	Metadata map[string]string `json:"metadata"`
}

// transferSummary mirrors wifiserver's lastTransfer field.
type transferSummary struct {
	Success          bool    `json:"success"`
	BytesPerSecond   float64 `json:"bytesPerSecond"`
	BytesTransferred int64   `json:"bytesTransferred"`
	CorrelationID    string  `json:"correlationId"`
}

// adminStatus mirrors wifiserver's GET /v1/status envelope.
type adminStatus struct {
	USBState     string            `json:"usbState"`
	Firmware     map[string]string `json:"firmware"`
	LastTransfer *transferSummary  `json:"lastTransfer"`
}

// client is a small, read-only HTTP client for the agent's admin API.
type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL, token string) *client {
	return &client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *client) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, netutil.ErrorBody(resp.Body))
	}
	return netutil.DecodeResponse(resp.Body, out)
}

func (c *client) fetchStatus() (adminStatus, error) {
	var status adminStatus
	err := c.get("/v1/status", &status)
	return status, err
}

func (c *client) fetchLogs() ([]logEntry, error) {
	var entries []logEntry
	err := c.get("/v1/logs", &entries)
	return entries, err
}
