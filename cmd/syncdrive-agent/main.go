// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

// syncdrive-agent is the field-device process: it stages and promotes
// firmware, drives the USB mass-storage gadget that exposes collected
// logs to a technician, and serves the same logs and firmware intake
// over a Wi-Fi HTTP boundary. It is the single privileged process on
// the device; syncdrivectl talks to it only over that HTTP boundary.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fieldsync/syncdrive/cryptocore/cipher"
	"github.com/fieldsync/syncdrive/firmware"
	"github.com/fieldsync/syncdrive/lib/config"
	"github.com/fieldsync/syncdrive/lib/process"
	"github.com/fieldsync/syncdrive/logcollector"
	"github.com/fieldsync/syncdrive/metadata"
	"github.com/fieldsync/syncdrive/supervisor"
	"github.com/fieldsync/syncdrive/transfer"
	"github.com/fieldsync/syncdrive/usb"
	"github.com/fieldsync/syncdrive/wifiserver"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to syncdrive.yaml (defaults to $SYNCDRIVE_CONFIG)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return fmt.Errorf("preparing directories: %w", err)
	}

	stager, err := firmware.New(firmware.Config{
		StagingDir:   cfg.Paths.Staging,
		InstalledDir: cfg.Paths.Installed,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("starting firmware stager: %w", err)
	}

	transferEngine := transfer.New(transfer.Config{
		MaxRetries:    cfg.Transfer.MaxRetries,
		BaseBackoffMs: cfg.Transfer.BaseBackoffMs,
		ChunkSize:     cfg.Transfer.ChunkSizeBytes,
		Logger:        logger,
	})

	orchestrator, err := usb.New(usb.Config{
		Backend:      usb.NewLinuxBackend(),
		ImagePath:    cfg.Paths.USBImage,
		MountDir:     cfg.Paths.USBMount,
		GadgetName:   cfg.USB.GadgetName,
		ImageSizeMB:  cfg.USB.SizeMB,
		VolumeLabel:  cfg.USB.Label,
		VendorID:     cfg.USB.VendorID,
		ProductID:    cfg.USB.ProductID,
		Manufacturer: cfg.USB.Manufacturer,
		Product:      cfg.USB.Product,
		SerialNumber: cfg.USB.SerialNumber,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("starting usb orchestrator: %w", err)
	}

	collector := logcollector.New(cfg.Paths.Logs)
	registry := metadata.NewDefaultRegistry()

	var logCipher *cipher.Cipher
	if cfg.WiFi.CipherKeyHex != "" {
		raw, err := hex.DecodeString(cfg.WiFi.CipherKeyHex)
		if err != nil {
			return fmt.Errorf("decoding wifi.cipher_key_hex: %w", err)
		}
		secureKey, err := cipher.NewSecureKey(raw)
		if err != nil {
			return fmt.Errorf("protecting cipher key: %w", err)
		}
		defer secureKey.Close()
		logCipher, err = secureKey.Cipher()
		if err != nil {
			return fmt.Errorf("building cipher: %w", err)
		}
	}

	coreMu := &sync.Mutex{}

	server, err := wifiserver.New(wifiserver.Config{
		Collector:    collector,
		Metadata:     registry,
		Stager:       stager,
		Transfer:     transferEngine,
		Orchestrator: orchestrator,
		Cipher:       logCipher,
		Token:        cfg.WiFi.Token,
		CoreMu:       coreMu,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("starting wifi server: %w", err)
	}

	super := supervisor.New(supervisor.Config{
		Orchestrator: orchestrator,
		Collector:    collector,
		PollInterval: cfg.PollDuration(),
		CoreMu:       coreMu,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:    cfg.WiFi.BindAddr,
		Handler: server.Handler(),
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		logger.Info("wifi server listening", "addr", cfg.WiFi.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("wifi server failed", "error", err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := super.Run(ctx); err != nil {
			logger.Error("supervisor failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("wifi server shutdown did not complete cleanly", "error", err)
	}

	wg.Wait()
	return nil
}

func loadConfig(explicitPath string) (*config.Config, error) {
	if explicitPath != "" {
		return config.LoadFile(explicitPath)
	}
	return config.Load()
}
