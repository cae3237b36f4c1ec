// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package usb

// PlatformBackend is the full set of privileged operations the
// Orchestrator ever asks the platform to perform. The orchestrator
// itself holds no knowledge of configfs paths, loop mounts, or
// mkfs.vfat invocations — those live entirely inside an
// implementation of this interface.
type PlatformBackend interface {
	// AllocateImage creates (or resizes) a zero-filled file of the
	// given size in megabytes at path.
	AllocateImage(path string, megabytes int) error

	// FormatFAT32 formats the file at path as a FAT32 volume with the
	// given label.
	FormatFAT32(path, label string) error

	// Mount loop-mounts imagePath at mountDir.
	Mount(imagePath, mountDir string) error
	// Unmount unmounts mountDir.
	Unmount(mountDir string) error
	// Sync flushes any pending writes to the backing image.
	Sync() error

	// CreateGadgetSkeleton lays down the configfs directory tree for a
	// gadget named name.
	CreateGadgetSkeleton(name string) error
	// RemoveGadgetSkeleton removes the configfs directory tree for a
	// gadget named name, in reverse order of creation.
	RemoveGadgetSkeleton(name string) error

	// WriteAttribute writes value to the configfs attribute file at
	// path (identifiers, MaxPower, LUN backing file, UDC binding).
	WriteAttribute(path, value string) error

	// ListUDCs enumerates the names of available USB device
	// controllers.
	ListUDCs() ([]string, error)

	// CopyInto copies sourcePath into mountDir under destName,
	// overwriting any existing file.
	CopyInto(mountDir, sourcePath, destName string) error
	// DeleteFrom deletes name from mountDir.
	DeleteFrom(mountDir, name string) error
	// ListFiles lists the regular files directly inside mountDir.
	ListFiles(mountDir string) ([]string, error)
}
