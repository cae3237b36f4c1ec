// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package logcollector

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogEntry describes one file found by Collect.
type LogEntry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Collector scans a single flat directory for log files.
type Collector struct {
	dir string
}

// New returns a Collector over dir. The directory is not created here;
// a missing directory surfaces as an error from Collect.
func New(dir string) *Collector {
	return &Collector{dir: dir}
}

// Collect lists the directory non-recursively and returns every entry
// whose name has no leading dot and does not end in ".tmp" or
// ".partial", sorted by name. A file that disappears between the
// directory read and the follow-up stat is skipped rather than treated
// as an error, since a concurrent writer removing a stale temp file is
// expected, ordinary behavior.
func (c *Collector) Collect() ([]LogEntry, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("logcollector: reading %s: %w", c.dir, err)
	}

	entries := make([]LogEntry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if !qualifies(name) {
			continue
		}
		info, err := dirEntry.Info()
		if err != nil {
			continue
		}
		if info.IsDir() {
			continue
		}
		entries = append(entries, LogEntry{
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Path joins name onto the collector's directory, for callers that
// need to open a file Collect reported.
func (c *Collector) Path(name string) string {
	return filepath.Join(c.dir, name)
}

func qualifies(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.HasSuffix(name, ".tmp") || strings.HasSuffix(name, ".partial") {
		return false
	}
	return true
}
