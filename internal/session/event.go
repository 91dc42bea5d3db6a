// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"time"
)

// Reason is the kind of session switch reported by the OS.
type Reason int

const (
	// ReasonOther covers notifications AutoLock does not act on (console/remote connect, etc.).
	ReasonOther Reason = iota
	ReasonLogon
	ReasonLogoff
	ReasonLock
	ReasonUnlock
)

// String returns the lower-case reason name used in logs and metrics.
func (r Reason) String() string {
	switch r {
	case ReasonLogon:
		return "logon"
	case ReasonLogoff:
		return "logoff"
	case ReasonLock:
		return "lock"
	case ReasonUnlock:
		return "unlock"
	default:
		return "other"
	}
}

// Event is one session switch notification.
type Event struct {
	Reason    Reason
	SessionID string    // OS session identifier, if known
	At        time.Time // delivery time, if known
}

// Handler receives notifications on the source's delivery goroutine.
type Handler func(Event)

// Source is an OS session notification facility.
type Source interface {
	// Subscribe registers h and returns a handle that unregisters it.
	Subscribe(ctx context.Context, h Handler) (Subscription, error)
}

// Subscription is an active registration with a Source.
type Subscription interface {
	Close() error
}
