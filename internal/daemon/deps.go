// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Countdown is the part of the countdown timer the daemon owns.
type Countdown interface {
	Start()
	Close() error
}

// Bridge is the session event bridge.
type Bridge interface {
	Start(ctx context.Context) error
	Close() error
}

// Indicator is the periodic status refresher.
type Indicator interface {
	Start()
	Stop()
}

// ServerConfig holds the status API server settings.
type ServerConfig struct {
	ListenAddr      string // empty disables the status API
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns timeouts suited to a loopback JSON API.
func DefaultServerConfig(listenAddr string) ServerConfig {
	return ServerConfig{
		ListenAddr:      listenAddr,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	Countdown Countdown
	Bridge    Bridge
	Indicator Indicator // optional

	// LogSink is closed after "program stopped" is logged (optional).
	LogSink io.Closer

	// APIHandler is the status API (optional).
	APIHandler http.Handler
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.Countdown == nil {
		return ErrMissingCountdown
	}
	if d.Bridge == nil {
		return ErrMissingBridge
	}
	return nil
}
