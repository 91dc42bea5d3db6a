// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/ManuGH/autolock/internal/config"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the environment before the daemon starts.
// logDir must already be resolved to an absolute path.
func PerformStartupChecks(logger zerolog.Logger, cfg config.AppConfig, logDir string) error {
	if err := checkLogDir(logger, logDir); err != nil {
		return fmt.Errorf("log directory check failed: %w", err)
	}
	checkStatusExposure(logger, cfg.Status)

	logger.Debug().Msg("startup checks passed")
	return nil
}

func checkLogDir(logger zerolog.Logger, path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	// Check write permissions by creating a temp file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Debug().Str("path", path).Msg("log directory is writable")
	return nil
}

// checkStatusExposure warns when the status API listens beyond loopback.
func checkStatusExposure(logger zerolog.Logger, st config.StatusConfig) {
	if st.ListenAddr == "" {
		return
	}
	host, _, err := net.SplitHostPort(st.ListenAddr)
	if err != nil {
		return
	}
	if host == "localhost" {
		return
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return
	}

	ev := logger.Warn().Str("addr", st.ListenAddr)
	if st.ShutdownEnabled {
		ev = ev.Bool("shutdown_enabled", true)
	}
	ev.Msg("status API listens on a non-loopback address")
}
