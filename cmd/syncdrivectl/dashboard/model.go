// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// Config configures a dashboard Model.
type Config struct {
	BaseURL      string
	Token        string
	PollInterval time.Duration
}

// Model is the bubbletea model for syncdrivectl. It holds the latest
// poll results alongside its HTTP client and progress bar; the poll
// results change only in Update, in response to pollMsg.
type Model struct {
	client       *client
	pollInterval time.Duration
	progress     progress.Model

	status   adminStatus
	logs     []logEntry
	lastErr  error
	quitting bool
}

// New returns a ready Model. Call tea.NewProgram(model).Run() to start
// it; the first poll is scheduled as part of Init.
func New(cfg Config) Model {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return Model{
		client:       newClient(cfg.BaseURL, cfg.Token),
		pollInterval: cfg.PollInterval,
		progress:     progress.New(progress.WithDefaultGradient()),
	}
}

type pollMsg struct {
	status adminStatus
	logs   []logEntry
	err    error
}

type tickMsg time.Time

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.poll(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) poll() tea.Cmd {
	return func() tea.Msg {
		status, statusErr := m.client.fetchStatus()
		logs, logsErr := m.client.fetchLogs()
		err := statusErr
		if err == nil {
			err = logsErr
		}
		return pollMsg{status: status, logs: logs, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - 4
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.poll(), m.tick())
	case pollMsg:
		m.lastErr = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.logs = msg.logs
		}
		return m, nil
	}
	return m, nil
}
