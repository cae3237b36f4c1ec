// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	faintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			MarginRight(1)

	usbStateColor = map[string]lipgloss.Color{
		"Uninitialized": lipgloss.Color("245"),
		"Ready":         lipgloss.Color("220"),
		"Exposed":       lipgloss.Color("114"),
	}
	firmwareStatusColor = map[string]lipgloss.Color{
		"Received": lipgloss.Color("220"),
		"Verified": lipgloss.Color("75"),
		"Applied":  lipgloss.Color("114"),
		"Failed":   lipgloss.Color("196"),
	}
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := titleStyle.Render("syncdrivectl") + "  " + faintStyle.Render(m.client.baseURL)
	if m.lastErr != nil {
		header += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("poll error: "+m.lastErr.Error())
	}

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.usbPanel()),
		panelStyle.Render(m.firmwarePanel()),
		panelStyle.Render(m.transferPanel()),
	)

	footer := faintStyle.Render("q to quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, panels, footer)
}

func (m Model) usbPanel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("USB") + "\n")
	color, ok := usbStateColor[m.status.USBState]
	if !ok {
		color = lipgloss.Color("245")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(color).Render(m.status.USBState))
	b.WriteString("\n\n")
	b.WriteString(faintStyle.Render(fmt.Sprintf("%d logs known", len(m.logs))))
	return b.String()
}

func (m Model) firmwarePanel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Firmware") + "\n")
	if len(m.status.Firmware) == 0 {
		b.WriteString(faintStyle.Render("no records"))
		return b.String()
	}

	names := make([]string, 0, len(m.status.Firmware))
	for name := range m.status.Firmware {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		status := m.status.Firmware[name]
		color, ok := firmwareStatusColor[status]
		if !ok {
			color = lipgloss.Color("245")
		}
		b.WriteString(fmt.Sprintf("%s  %s\n", name, lipgloss.NewStyle().Foreground(color).Render(status)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) transferPanel() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Last transfer") + "\n")

	t := m.status.LastTransfer
	if t == nil {
		b.WriteString(faintStyle.Render("none yet"))
		return b.String()
	}

	status := "ok"
	if !t.Success {
		status = "failed"
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", status, faintStyle.Render(t.CorrelationID)))
	b.WriteString(fmt.Sprintf("%d bytes at %.0f B/s\n", t.BytesTransferred, t.BytesPerSecond))
	if t.Success {
		b.WriteString(m.progress.ViewAs(1.0))
	}
	return strings.TrimRight(b.String(), "\n")
}
