// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the syncdrive agent.
type Config struct {
	// Paths configures directory and file locations.
	Paths PathsConfig `yaml:"paths"`

	// WiFi configures the pull API boundary.
	WiFi WiFiConfig `yaml:"wifi"`

	// Transfer tunes the resumable chunked-transfer engine.
	Transfer TransferConfig `yaml:"transfer"`

	// USB configures the mass-storage gadget.
	USB USBConfig `yaml:"usb"`

	// PollInterval is how often the supervisor re-scans logs and
	// refreshes the USB image. Accepts a Go duration string, e.g. "30s".
	PollInterval string `yaml:"poll_interval"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Logs is the directory the log collector scans.
	Logs string `yaml:"logs"`

	// Staging is where received firmware is written pending verification.
	Staging string `yaml:"staging"`

	// Installed is where verified firmware is promoted.
	Installed string `yaml:"installed"`

	// USBImage is the path to the FAT32 backing image file.
	USBImage string `yaml:"usb_image"`

	// USBMount is the local directory the image is mounted at while Ready.
	USBMount string `yaml:"usb_mount"`
}

// WiFiConfig configures the Wi-Fi pull API.
type WiFiConfig struct {
	// BindAddr is the HTTP listen address, e.g. "0.0.0.0:8443".
	BindAddr string `yaml:"bind_addr"`

	// Token is the pre-shared bearer token required on every route except
	// /healthz. Prefer SYNCDRIVE_TOKEN over committing this to disk.
	Token string `yaml:"token"`

	// CipherKeyHex is the hex-encoded AES-256 key used to encrypt served
	// log bodies. Empty means logs are served unencrypted.
	CipherKeyHex string `yaml:"cipher_key_hex"`
}

// TransferConfig tunes the resumable chunked-transfer engine.
type TransferConfig struct {
	MaxRetries     int `yaml:"max_retries"`
	BaseBackoffMs  int `yaml:"base_backoff_ms"`
	ChunkSizeBytes int `yaml:"chunk_size_bytes"`
}

// USBConfig configures the mass-storage gadget identity.
type USBConfig struct {
	GadgetName   string `yaml:"gadget_name"`
	VendorID     string `yaml:"vendor_id"`
	ProductID    string `yaml:"product_id"`
	Manufacturer string `yaml:"manufacturer"`
	Product      string `yaml:"product"`
	SerialNumber string `yaml:"serial_number"`
	SizeMB       int    `yaml:"size_mb"`
	Label        string `yaml:"label"`
}

// Default returns the default configuration. These defaults are used as a
// base before loading the config file. They exist primarily to ensure all
// fields have sensible zero-values, not as a fallback — the config file is
// required.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Logs:      "${SYNCDRIVE_ROOT}/logs",
			Staging:   "${SYNCDRIVE_ROOT}/firmware/staging",
			Installed: "${SYNCDRIVE_ROOT}/firmware/installed",
			USBImage:  "${SYNCDRIVE_ROOT}/usb/backing.img",
			USBMount:  "${SYNCDRIVE_ROOT}/usb/mnt",
		},
		WiFi: WiFiConfig{
			BindAddr: "0.0.0.0:8443",
		},
		Transfer: TransferConfig{
			MaxRetries:     3,
			BaseBackoffMs:  1000,
			ChunkSizeBytes: 65536,
		},
		USB: USBConfig{
			GadgetName:   "syncdrive",
			VendorID:     "0x1d6b",
			ProductID:    "0x0104",
			Manufacturer: "Syncdrive",
			Product:      "Field Sync Drive",
			SerialNumber: "000000000001",
			SizeMB:       512,
			Label:        "SYNCDRIVE",
		},
		PollInterval: "30s",
	}
}

// Load loads configuration from the SYNCDRIVE_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults — if SYNCDRIVE_CONFIG is not set, this
// fails. This ensures deterministic, auditable configuration with no hidden
// overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("SYNCDRIVE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("SYNCDRIVE_CONFIG environment variable not set; " +
			"set it to the path of your syncdrive.yaml config file, or use --config")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, then applies the
// SYNCDRIVE_* scalar overrides and expands ${VAR} patterns in path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// applyEnvOverrides applies the small set of scalar environment variable
// overrides. These exist so operators never have to write a pre-shared
// token or cipher key to the config file on disk.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SYNCDRIVE_BIND_ADDR"); v != "" {
		c.WiFi.BindAddr = v
	}
	if v := os.Getenv("SYNCDRIVE_TOKEN"); v != "" {
		c.WiFi.Token = v
	}
	if v := os.Getenv("SYNCDRIVE_CIPHER_KEY_HEX"); v != "" {
		c.WiFi.CipherKeyHex = v
	}
	if v := os.Getenv("SYNCDRIVE_POLL_INTERVAL"); v != "" {
		c.PollInterval = v
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	if root := os.Getenv("SYNCDRIVE_ROOT"); root != "" {
		vars["SYNCDRIVE_ROOT"] = root
	}

	c.Paths.Logs = expandVars(c.Paths.Logs, vars)
	c.Paths.Staging = expandVars(c.Paths.Staging, vars)
	c.Paths.Installed = expandVars(c.Paths.Installed, vars)
	c.Paths.USBImage = expandVars(c.Paths.USBImage, vars)
	c.Paths.USBMount = expandVars(c.Paths.USBMount, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// PollDuration parses PollInterval, falling back to 30s if unset or invalid.
func (c *Config) PollDuration() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.Logs == "" {
		errs = append(errs, fmt.Errorf("paths.logs is required"))
	}
	if c.Paths.Staging == "" {
		errs = append(errs, fmt.Errorf("paths.staging is required"))
	}
	if c.Paths.Installed == "" {
		errs = append(errs, fmt.Errorf("paths.installed is required"))
	}
	if c.Paths.USBImage == "" {
		errs = append(errs, fmt.Errorf("paths.usb_image is required"))
	}
	if c.WiFi.BindAddr == "" {
		errs = append(errs, fmt.Errorf("wifi.bind_addr is required"))
	}
	if c.WiFi.Token == "" {
		errs = append(errs, fmt.Errorf("wifi.token is required"))
	}
	if c.Transfer.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("transfer.max_retries must be >= 1"))
	}
	if c.Transfer.ChunkSizeBytes < 1 {
		errs = append(errs, fmt.Errorf("transfer.chunk_size_bytes must be >= 1"))
	}
	if c.USB.SizeMB < 1 {
		errs = append(errs, fmt.Errorf("usb.size_mb must be >= 1"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	dirs := []string{
		c.Paths.Logs,
		c.Paths.Staging,
		c.Paths.Installed,
		filepath.Dir(c.Paths.USBImage),
		c.Paths.USBMount,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	return nil
}
