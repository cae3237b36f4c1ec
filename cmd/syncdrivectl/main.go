// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// syncdrivectl is a read-only terminal dashboard over a running
// syncdrive-agent: firmware status, USB lifecycle state, and recent
// transfer throughput, polled from the agent's admin HTTP endpoints.
// It has no write access to any core state.
package main

import (
	"flag"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fieldsync/syncdrive/cmd/syncdrivectl/dashboard"
	"github.com/fieldsync/syncdrive/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		baseURL      string
		token        string
		pollInterval time.Duration
	)
	flag.StringVar(&baseURL, "addr", "http://127.0.0.1:8443", "base URL of the syncdrive-agent admin API")
	flag.StringVar(&token, "token", "", "bearer token (not required for /v1/status from loopback)")
	flag.DurationVar(&pollInterval, "poll-interval", 2*time.Second, "how often to re-poll the agent")
	flag.Parse()

	model := dashboard.New(dashboard.Config{
		BaseURL:      baseURL,
		Token:        token,
		PollInterval: pollInterval,
	})

	program := tea.NewProgram(model)
	_, err := program.Run()
	return err
}
