// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package usb

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// LinuxBackend is the production PlatformBackend. It prefers native
// syscalls (via golang.org/x/sys/unix) over shelling out: mounting,
// image truncation, configfs directory creation, and attribute writes
// all go through direct filesystem operations. Only FAT32 formatting
// and USB device controller enumeration touch anything outside plain
// file I/O — formatting because there is no syscall for "lay down a
// FAT32 filesystem", and UDC enumeration because it is nothing more
// than reading a directory.
type LinuxBackend struct{}

// NewLinuxBackend returns a ready LinuxBackend. It holds no state;
// every method is a thin, stateless wrapper over the kernel interface
// it targets.
func NewLinuxBackend() *LinuxBackend {
	return &LinuxBackend{}
}

func (b *LinuxBackend) AllocateImage(path string, megabytes int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("usb: creating image directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("usb: opening image file: %w", err)
	}
	defer file.Close()

	size := int64(megabytes) * 1024 * 1024
	if err := unix.Ftruncate(int(file.Fd()), size); err != nil {
		return fmt.Errorf("usb: truncating image to %d MB: %w", megabytes, err)
	}
	return nil
}

// FormatFAT32 shells out to mkfs.vfat with a fixed, fully-escaped
// argv — never a shell string — since there is no Linux syscall for
// laying down a FAT filesystem.
func (b *LinuxBackend) FormatFAT32(path, label string) error {
	cmd := exec.Command("mkfs.vfat", "-n", label, path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("usb: mkfs.vfat %s: %w: %s", path, err, out)
	}
	return nil
}

func (b *LinuxBackend) Mount(imagePath, mountDir string) error {
	if err := os.MkdirAll(mountDir, 0o755); err != nil {
		return fmt.Errorf("usb: creating mount dir: %w", err)
	}
	if err := unix.Mount(imagePath, mountDir, "vfat", unix.MS_NOATIME, ""); err != nil {
		return fmt.Errorf("usb: mounting %s at %s: %w", imagePath, mountDir, err)
	}
	return nil
}

func (b *LinuxBackend) Unmount(mountDir string) error {
	if err := unix.Unmount(mountDir, 0); err != nil {
		return fmt.Errorf("usb: unmounting %s: %w", mountDir, err)
	}
	return nil
}

func (b *LinuxBackend) Sync() error {
	unix.Sync()
	return nil
}

func (b *LinuxBackend) CreateGadgetSkeleton(name string) error {
	gadgetDir := gadgetPath(name)

	dirs := []string{
		gadgetDir,
		filepath.Join(gadgetDir, "strings", "0x409"),
		filepath.Join(gadgetDir, "configs", "c.1"),
		filepath.Join(gadgetDir, "configs", "c.1", "strings", "0x409"),
		filepath.Join(gadgetDir, "functions", "mass_storage.usb0"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("usb: creating configfs directory %s: %w", dir, err)
		}
	}

	link := filepath.Join(gadgetDir, "configs", "c.1", "mass_storage.usb0")
	target := filepath.Join(gadgetDir, "functions", "mass_storage.usb0")
	if _, err := os.Lstat(link); os.IsNotExist(err) {
		if err := os.Symlink(target, link); err != nil {
			return fmt.Errorf("usb: linking %s into configuration: %w", target, err)
		}
	}

	return nil
}

func (b *LinuxBackend) RemoveGadgetSkeleton(name string) error {
	gadgetDir := gadgetPath(name)

	// configfs requires removal in reverse order of creation: the
	// symlink first, then each directory from deepest to shallowest.
	removals := []string{
		filepath.Join(gadgetDir, "configs", "c.1", "mass_storage.usb0"),
		filepath.Join(gadgetDir, "configs", "c.1", "strings", "0x409"),
		filepath.Join(gadgetDir, "configs", "c.1"),
		filepath.Join(gadgetDir, "functions", "mass_storage.usb0"),
		filepath.Join(gadgetDir, "strings", "0x409"),
		gadgetDir,
	}
	for _, path := range removals {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("usb: removing configfs path %s: %w", path, err)
		}
	}
	return nil
}

func (b *LinuxBackend) WriteAttribute(path, value string) error {
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("usb: writing attribute %s: %w", path, err)
	}
	return nil
}

// ListUDCs enumerates /sys/class/udc by reading the directory — no
// external command is needed for this capability.
func (b *LinuxBackend) ListUDCs() ([]string, error) {
	entries, err := os.ReadDir("/sys/class/udc")
	if err != nil {
		return nil, fmt.Errorf("usb: listing USB device controllers: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

func (b *LinuxBackend) CopyInto(mountDir, sourcePath, destName string) error {
	in, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("usb: opening source %s: %w", sourcePath, err)
	}
	defer in.Close()

	dest := filepath.Join(mountDir, destName)
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("usb: opening destination %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("usb: copying %s into %s: %w", sourcePath, dest, err)
	}
	return nil
}

func (b *LinuxBackend) DeleteFrom(mountDir, name string) error {
	if err := os.Remove(filepath.Join(mountDir, name)); err != nil {
		return fmt.Errorf("usb: deleting %s: %w", name, err)
	}
	return nil
}

func (b *LinuxBackend) ListFiles(mountDir string) ([]string, error) {
	entries, err := os.ReadDir(mountDir)
	if err != nil {
		return nil, fmt.Errorf("usb: listing %s: %w", mountDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func gadgetPath(name string) string {
	return filepath.Join("/sys/kernel/config/usb_gadget", name)
}

var _ PlatformBackend = (*LinuxBackend)(nil)
