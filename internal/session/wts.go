// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import "context"

// WM_WTSSESSION_CHANGE wParam values.
const (
	wtsConsoleConnect    = 0x1
	wtsConsoleDisconnect = 0x2
	wtsRemoteConnect     = 0x3
	wtsRemoteDisconnect  = 0x4
	wtsSessionLogon      = 0x5
	wtsSessionLogoff     = 0x6
	wtsSessionLock       = 0x7
	wtsSessionUnlock     = 0x8
	wtsSessionRemoteCtrl = 0x9
)

func reasonFromWTS(code uintptr) Reason {
	switch code {
	case wtsSessionLogon:
		return ReasonLogon
	case wtsSessionLogoff:
		return ReasonLogoff
	case wtsSessionLock:
		return ReasonLock
	case wtsSessionUnlock:
		return ReasonUnlock
	default:
		return ReasonOther
	}
}

// awaitWindow waits for the notification thread's setup report. When ctx ends
// first it still waits for that report and then tears a live window down, so
// the thread never outlives an abandoned Subscribe.
func awaitWindow(ctx context.Context, ready <-chan error, done <-chan struct{}, teardown func()) error {
	select {
	case err := <-ready:
		if err != nil {
			<-done
		}
		return err
	case <-ctx.Done():
	}

	if err := <-ready; err != nil {
		<-done
		return ctx.Err()
	}
	teardown()
	return ctx.Err()
}
