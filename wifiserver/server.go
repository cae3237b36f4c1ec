// Copyright 2026 The Syncdrive Authors
// SPDX-License-Identifier: Apache-2.0

package wifiserver

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/fieldsync/syncdrive/cryptocore/cipher"
	"github.com/fieldsync/syncdrive/firmware"
	"github.com/fieldsync/syncdrive/lib/netutil"
	"github.com/fieldsync/syncdrive/logcollector"
	"github.com/fieldsync/syncdrive/metadata"
	"github.com/fieldsync/syncdrive/transfer"
	"github.com/fieldsync/syncdrive/usb"
)

// Config configures a Server.
type Config struct {
	Collector  *logcollector.Collector
	Metadata   *metadata.Registry
	Stager     *firmware.Stager
	Transfer   *transfer.Engine
	Orchestrator *usb.Orchestrator

	// Cipher, if non-nil, encrypts every log body served by
	// GET /v1/logs/{name} and the chunked variant. Nil means logs are
	// served as raw bytes.
	Cipher *cipher.Cipher

	// Token is the pre-shared bearer token required on every route
	// except /healthz and a loopback-originated /v1/status.
	Token string

	// SpoolDir holds temporary files for the chunked transfer route.
	// Created if absent.
	SpoolDir string

	// CoreMu serializes every handler call into FirmwareStager or
	// UsbOrchestrator with the supervisor's own poll loop, so the two
	// goroutine families never violate the single-caller-at-a-time
	// assumption those packages document.
	CoreMu *sync.Mutex

	Logger *slog.Logger
}

// Server is the Wi-Fi pull API.
type Server struct {
	cfg    Config
	logger *slog.Logger
	router *mux.Router

	statusMu     sync.Mutex
	lastTransfer *transferSummary
}

// New builds a Server and registers its routes. It does not start
// listening; call Handler to obtain the http.Handler or embed it in an
// http.Server.
func New(cfg Config) (*Server, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("wifiserver: Token is required")
	}
	if cfg.CoreMu == nil {
		cfg.CoreMu = &sync.Mutex{}
	}
	if cfg.SpoolDir == "" {
		cfg.SpoolDir = os.TempDir()
	}
	if err := os.MkdirAll(cfg.SpoolDir, 0o755); err != nil {
		return nil, fmt.Errorf("wifiserver: creating spool dir: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{cfg: cfg, logger: logger, router: mux.NewRouter()}
	s.routes()
	return s, nil
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/status", s.handleStatus).Methods(http.MethodGet)

	authenticated := s.router.NewRoute().Subrouter()
	authenticated.Use(s.requireBearerToken)
	authenticated.HandleFunc("/v1/logs", s.handleListLogs).Methods(http.MethodGet)
	authenticated.HandleFunc("/v1/logs/{name}", s.handleGetLog).Methods(http.MethodGet)
	authenticated.HandleFunc("/v1/logs/{name}/chunked", s.handleGetLogChunked).Methods(http.MethodGet)
	authenticated.HandleFunc("/v1/firmware/{name}", s.handleUploadFirmware).Methods(http.MethodPost)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// requireBearerToken rejects any request whose Authorization header is
// not exactly "Bearer <configured token>", compared in constant time.
func (s *Server) requireBearerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := uuid.NewString()
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			s.logger.Warn("wifi request missing bearer token",
				"path", r.URL.Path, "correlation_id", correlationID)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		presented := header[len(prefix):]
		if subtle.ConstantTimeCompare([]byte(presented), []byte(s.cfg.Token)) != 1 {
			s.logger.Warn("wifi request bad bearer token",
				"path", r.URL.Path, "correlation_id", correlationID)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logEnvelope is the JSON shape of one GET /v1/logs entry.
type logEnvelope struct {
	Name     string                     `json:"name"`
	Size     int64                      `json:"size"`
	ModTime  string                     `json:"modTime"`
	Metadata metadata.DeviceMetadata    `json:"metadata"`
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.cfg.Collector.Collect()
	if err != nil {
		http.Error(w, "listing logs failed", http.StatusInternalServerError)
		return
	}

	envelopes := make([]logEnvelope, 0, len(entries))
	for _, entry := range entries {
		env := logEnvelope{Name: entry.Name, Size: entry.Size, ModTime: entry.ModTime.UTC().Format(time.RFC3339)}
		if s.cfg.Metadata != nil {
			if data, err := os.ReadFile(s.cfg.Collector.Path(entry.Name)); err == nil {
				tag := strings.TrimPrefix(filepath.Ext(entry.Name), ".")
				if parsed, ok := s.cfg.Metadata.Parse(tag, data); ok {
					env.Metadata = parsed
				}
			}
		}
		envelopes = append(envelopes, env)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelopes)
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	sanitized, err := sanitizeName(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := os.ReadFile(s.cfg.Collector.Path(sanitized))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if s.cfg.Cipher != nil {
		encrypted, err := s.cfg.Cipher.Encrypt(data)
		if err != nil {
			http.Error(w, "encryption failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, base64.StdEncoding.EncodeToString(encrypted))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

// handleGetLogChunked exercises the resumable-copy path over HTTP: the
// requested log (optionally encrypted first) is written to a spool file
// via TransferEngine.TransferWithOffset, then streamed back from there.
func (s *Server) handleGetLogChunked(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	sanitized, err := sanitizeName(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	srcPath := s.cfg.Collector.Path(sanitized)
	source := srcPath

	if s.cfg.Cipher != nil {
		plaintext, err := os.ReadFile(srcPath)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		encrypted, err := s.cfg.Cipher.Encrypt(plaintext)
		if err != nil {
			http.Error(w, "encryption failed", http.StatusInternalServerError)
			return
		}
		encryptedPath := filepath.Join(s.cfg.SpoolDir, sanitized+".enc")
		if err := os.WriteFile(encryptedPath, encrypted, 0o600); err != nil {
			http.Error(w, "spooling encrypted log failed", http.StatusInternalServerError)
			return
		}
		defer os.Remove(encryptedPath)
		source = encryptedPath
	}

	spoolPath := filepath.Join(s.cfg.SpoolDir, sanitized+".spool")
	result := s.cfg.Transfer.Transfer(source, spoolPath, nil)
	defer os.Remove(spoolPath)
	s.RecordTransfer(result)

	if !result.Success {
		s.logger.Error("chunked log transfer failed",
			"name", sanitized, "error", result.ErrorMessage, "correlation_id", result.CorrelationID)
		http.Error(w, "transfer failed", http.StatusInternalServerError)
		return
	}

	spooled, err := os.Open(spoolPath)
	if err != nil {
		http.Error(w, "reading spool failed", http.StatusInternalServerError)
		return
	}
	defer spooled.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Correlation-ID", result.CorrelationID)
	if _, err := io.Copy(w, spooled); err != nil && !netutil.IsExpectedCloseError(err) {
		s.logger.Warn("chunked log stream interrupted",
			"name", sanitized, "error", err, "correlation_id", result.CorrelationID)
	}
}

// handleUploadFirmware accepts a firmware body and routes it through
// FirmwareStager.Receive. An X-Firmware-SHA256 header, if present,
// drives Verify then Apply in the same request.
func (s *Server) handleUploadFirmware(w http.ResponseWriter, r *http.Request) {
	rawName := mux.Vars(r)["name"]
	sanitized, err := sanitizeName(rawName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "reading upload body failed", http.StatusBadRequest)
		return
	}

	s.cfg.CoreMu.Lock()
	defer s.cfg.CoreMu.Unlock()

	if !s.cfg.Stager.Receive(sanitized, body) {
		http.Error(w, "receive rejected", http.StatusBadRequest)
		return
	}

	expectedHex := r.Header.Get("X-Firmware-SHA256")
	status := s.cfg.Stager.Status(sanitized)
	if expectedHex != "" {
		if s.cfg.Stager.Verify(sanitized, expectedHex) {
			s.cfg.Stager.Apply(sanitized)
		}
		status = s.cfg.Stager.Status(sanitized)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"name": sanitized, "status": status.String()})
}

// adminStatus is the JSON shape of GET /v1/status.
type adminStatus struct {
	USBState     string                    `json:"usbState"`
	Firmware     map[string]string         `json:"firmware"`
	LastTransfer *transferSummary          `json:"lastTransfer"`
}

type transferSummary struct {
	Success          bool    `json:"success"`
	BytesPerSecond   float64 `json:"bytesPerSecond"`
	BytesTransferred int64   `json:"bytesTransferred"`
	CorrelationID    string  `json:"correlationId"`
}

// RecordTransfer stores result as the most recent transfer for the
// admin status endpoint to report. The chunked log handler calls it
// after every transfer it runs.
func (s *Server) RecordTransfer(result transfer.Result) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.lastTransfer = &transferSummary{
		Success:          result.Success,
		BytesPerSecond:   result.BytesPerSecond,
		BytesTransferred: int64(result.BytesTransferred),
		CorrelationID:    result.CorrelationID,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) ||
			subtle.ConstantTimeCompare([]byte(header[len(prefix):]), []byte(s.cfg.Token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	s.cfg.CoreMu.Lock()
	firmwareStatus := make(map[string]string)
	if s.cfg.Stager != nil {
		for _, name := range s.cfg.Stager.Names() {
			firmwareStatus[name] = s.cfg.Stager.Status(name).String()
		}
	}
	usbState := "unknown"
	if s.cfg.Orchestrator != nil {
		usbState = s.cfg.Orchestrator.State().String()
	}
	s.cfg.CoreMu.Unlock()

	s.statusMu.Lock()
	status := adminStatus{USBState: usbState, Firmware: firmwareStatus, LastTransfer: s.lastTransfer}
	s.statusMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func isLoopback(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// sanitizeName enforces (I6): filepath.Base the incoming name, then
// reject anything that still contains a path separator or resolves to
// "." or "..".
func sanitizeName(name string) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid name %q", name)
	}
	if strings.ContainsRune(base, filepath.Separator) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid name %q", name)
	}
	return base, nil
}
