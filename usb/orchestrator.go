// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package usb

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// State is a position in the Orchestrator's lifecycle.
type State int

const (
	Uninitialized State = iota
	Ready
	Exposed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Ready:
		return "Ready"
	case Exposed:
		return "Exposed"
	default:
		return "Unknown"
	}
}

// FilePair names a source path on local disk and the destination
// filename it should take on the mounted image.
type FilePair struct {
	SourcePath string
	DestName   string
}

// Config configures an Orchestrator.
type Config struct {
	Backend PlatformBackend

	ImagePath    string
	MountDir     string
	GadgetName   string
	ImageSizeMB  int
	VolumeLabel  string
	VendorID     string
	ProductID    string
	Manufacturer string
	Product      string
	SerialNumber string
	MaxPowerMA   string

	// Logger receives operational messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// Orchestrator drives the Uninitialized -> Ready -> Exposed lifecycle
// over a single backing image and configfs gadget. Refresh is atomic
// with respect to any other method on the same instance — callers must
// not invoke an Orchestrator re-entrantly, enforced here with a mutex
// rather than left as an undocumented caller obligation.
type Orchestrator struct {
	mu sync.Mutex

	backend PlatformBackend
	cfg     Config
	logger  *slog.Logger

	state State
}

// New returns an Orchestrator in the Uninitialized state.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("usb: Backend is required")
	}
	if cfg.ImagePath == "" || cfg.MountDir == "" || cfg.GadgetName == "" {
		return nil, fmt.Errorf("usb: ImagePath, MountDir, and GadgetName are required")
	}
	if cfg.ImageSizeMB <= 0 {
		cfg.ImageSizeMB = 64
	}
	if cfg.VolumeLabel == "" {
		cfg.VolumeLabel = "SYNCDRIVE"
	}
	if cfg.MaxPowerMA == "" {
		cfg.MaxPowerMA = "120"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Orchestrator{
		backend: cfg.Backend,
		cfg:     cfg,
		logger:  logger,
		state:   Uninitialized,
	}, nil
}

// State returns the orchestrator's current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) gadgetDir() string {
	return filepath.Join("/sys/kernel/config/usb_gadget", o.cfg.GadgetName)
}

func (o *Orchestrator) lunFile() string {
	return filepath.Join(o.gadgetDir(), "functions", "mass_storage.usb0", "lun.0", "file")
}

func (o *Orchestrator) udcAttr() string {
	return filepath.Join(o.gadgetDir(), "UDC")
}

// Init is idempotent: it creates the image if absent, formats it, and
// lays down the configfs skeleton (identifiers, strings, a single
// configuration with MaxPower, a mass_storage function with one LUN
// marked removable/ro/nofua, linked into the configuration). The LUN
// backing-file and UDC attributes are left empty. On success it
// transitions Uninitialized -> Ready; it is a no-op returning true
// when already Ready or Exposed.
func (o *Orchestrator) Init() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != Uninitialized {
		return true
	}

	correlationID := uuid.NewString()

	if err := o.backend.AllocateImage(o.cfg.ImagePath, o.cfg.ImageSizeMB); err != nil {
		o.logger.Error("usb init: allocating image failed", "error", err, "correlation_id", correlationID)
		return false
	}
	if err := o.backend.FormatFAT32(o.cfg.ImagePath, o.cfg.VolumeLabel); err != nil {
		o.logger.Error("usb init: formatting image failed", "error", err, "correlation_id", correlationID)
		return false
	}
	if err := o.backend.CreateGadgetSkeleton(o.cfg.GadgetName); err != nil {
		o.logger.Error("usb init: configfs skeleton failed", "error", err, "correlation_id", correlationID)
		return false
	}

	gadgetDir := o.gadgetDir()
	attrs := map[string]string{
		filepath.Join(gadgetDir, "idVendor"):                                o.cfg.VendorID,
		filepath.Join(gadgetDir, "idProduct"):                               o.cfg.ProductID,
		filepath.Join(gadgetDir, "bcdUSB"):                                  "0x0200",
		filepath.Join(gadgetDir, "bcdDevice"):                               "0x0100",
		filepath.Join(gadgetDir, "strings", "0x409", "manufacturer"):        o.cfg.Manufacturer,
		filepath.Join(gadgetDir, "strings", "0x409", "product"):             o.cfg.Product,
		filepath.Join(gadgetDir, "strings", "0x409", "serialnumber"):        o.cfg.SerialNumber,
		filepath.Join(gadgetDir, "configs", "c.1", "MaxPower"):              o.cfg.MaxPowerMA,
		filepath.Join(gadgetDir, "configs", "c.1", "strings", "0x409", "configuration"): "Mass Storage",
		filepath.Join(gadgetDir, "functions", "mass_storage.usb0", "lun.0", "removable"): "1",
		filepath.Join(gadgetDir, "functions", "mass_storage.usb0", "lun.0", "ro"):        "1",
		filepath.Join(gadgetDir, "functions", "mass_storage.usb0", "lun.0", "nofua"):      "1",
	}
	for path, value := range attrs {
		if err := o.backend.WriteAttribute(path, value); err != nil {
			o.logger.Error("usb init: writing configfs attribute failed",
				"path", path, "error", err, "correlation_id", correlationID)
			return false
		}
	}

	o.state = Ready
	o.logger.Info("usb init complete", "correlation_id", correlationID)
	return true
}

// PrepareImage requires Ready. It mounts the image, copies every
// (source, dest) pair into the mount (overwriting), deletes any file
// present in the mount that is not named by the supplied set, syncs,
// and unmounts. An individual copy failure is logged and counted but
// does not abort the batch; PrepareImage returns false only on mount
// or unmount failure.
func (o *Orchestrator) PrepareImage(files []FilePair) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.prepareImageLocked(files)
}

func (o *Orchestrator) prepareImageLocked(files []FilePair) bool {
	if o.state != Ready {
		return false
	}

	correlationID := uuid.NewString()

	if err := o.backend.Mount(o.cfg.ImagePath, o.cfg.MountDir); err != nil {
		o.logger.Error("usb prepare_image: mount failed", "error", err, "correlation_id", correlationID)
		return false
	}

	wanted := make(map[string]bool, len(files))
	copied := 0
	for _, pair := range files {
		wanted[pair.DestName] = true
		if err := o.backend.CopyInto(o.cfg.MountDir, pair.SourcePath, pair.DestName); err != nil {
			o.logger.Warn("usb prepare_image: copy failed",
				"source", pair.SourcePath, "dest", pair.DestName, "error", err, "correlation_id", correlationID)
			continue
		}
		copied++
	}

	existing, err := o.backend.ListFiles(o.cfg.MountDir)
	if err == nil {
		for _, name := range existing {
			if !wanted[name] {
				if err := o.backend.DeleteFrom(o.cfg.MountDir, name); err != nil {
					o.logger.Warn("usb prepare_image: delete failed",
						"name", name, "error", err, "correlation_id", correlationID)
				}
			}
		}
	}

	if err := o.backend.Sync(); err != nil {
		o.logger.Warn("usb prepare_image: sync failed", "error", err, "correlation_id", correlationID)
	}

	if err := o.backend.Unmount(o.cfg.MountDir); err != nil {
		o.logger.Error("usb prepare_image: unmount failed", "error", err, "correlation_id", correlationID)
		return false
	}

	o.logger.Info("usb prepare_image complete",
		"copied", copied, "total", len(files), "correlation_id", correlationID)
	return true
}

// Expose requires Ready. It writes the image path into the LUN
// backing-file attribute, enumerates UDCs, and binds the gadget to the
// first one found. On success it transitions Ready -> Exposed.
// Failure to find a UDC, or to bind, is reported and leaves the state
// at Ready.
func (o *Orchestrator) Expose() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.exposeLocked()
}

func (o *Orchestrator) exposeLocked() bool {
	if o.state != Ready {
		return false
	}

	correlationID := uuid.NewString()

	if err := o.backend.WriteAttribute(o.lunFile(), o.cfg.ImagePath); err != nil {
		o.logger.Error("usb expose: setting LUN backing file failed", "error", err, "correlation_id", correlationID)
		return false
	}

	udcs, err := o.backend.ListUDCs()
	if err != nil || len(udcs) == 0 {
		o.logger.Error("usb expose: no UDC available", "error", err, "correlation_id", correlationID)
		return false
	}

	if err := o.backend.WriteAttribute(o.udcAttr(), udcs[0]); err != nil {
		o.logger.Error("usb expose: binding UDC failed", "udc", udcs[0], "error", err, "correlation_id", correlationID)
		return false
	}

	o.state = Exposed
	o.logger.Info("usb expose complete", "udc", udcs[0], "correlation_id", correlationID)
	return true
}

// Unexpose writes empty strings to the UDC and LUN backing-file
// attributes (the host sees a disconnect) and transitions
// Exposed -> Ready. From any other state it is a no-op returning true.
func (o *Orchestrator) Unexpose() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.unexposeLocked()
}

func (o *Orchestrator) unexposeLocked() bool {
	if o.state != Exposed {
		return true
	}

	correlationID := uuid.NewString()

	if err := o.backend.WriteAttribute(o.udcAttr(), ""); err != nil {
		o.logger.Warn("usb unexpose: clearing UDC failed", "error", err, "correlation_id", correlationID)
	}
	if err := o.backend.WriteAttribute(o.lunFile(), ""); err != nil {
		o.logger.Warn("usb unexpose: clearing LUN backing file failed", "error", err, "correlation_id", correlationID)
	}

	o.state = Ready
	o.logger.Info("usb unexpose complete", "correlation_id", correlationID)
	return true
}

// Refresh performs unexpose -> prepare_image -> expose. On a failed
// prepare_image it makes a best-effort attempt to re-expose with the
// previous contents before returning false, guaranteeing (per
// invariant I4) that the host never observes a torn filesystem.
func (o *Orchestrator) Refresh(files []FilePair) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	correlationID := uuid.NewString()
	o.logger.Info("usb refresh starting", "correlation_id", correlationID)

	o.unexposeLocked()

	if !o.prepareImageLocked(files) {
		o.logger.Error("usb refresh: prepare_image failed, re-exposing stale contents", "correlation_id", correlationID)
		o.exposeLocked()
		return false
	}

	if !o.exposeLocked() {
		o.logger.Error("usb refresh: re-expose failed", "correlation_id", correlationID)
		return false
	}

	o.logger.Info("usb refresh complete", "correlation_id", correlationID)
	return true
}

// Cleanup unexposes, unmounts (best-effort), and removes the configfs
// skeleton in reverse order of creation. It transitions back to
// Uninitialized regardless of the backend calls' outcomes — cleanup is
// meant to run even in a partially-broken state.
func (o *Orchestrator) Cleanup() {
	o.mu.Lock()
	defer o.mu.Unlock()

	correlationID := uuid.NewString()

	o.unexposeLocked()
	_ = o.backend.Unmount(o.cfg.MountDir)
	if err := o.backend.RemoveGadgetSkeleton(o.cfg.GadgetName); err != nil {
		o.logger.Warn("usb cleanup: removing configfs skeleton failed", "error", err, "correlation_id", correlationID)
	}

	o.state = Uninitialized
	o.logger.Info("usb cleanup complete", "correlation_id", correlationID)
}
