// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID       = "run_id"
	FieldCountdownID = "countdown_id"
	FieldSessionID   = "session_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Countdown fields
	FieldTimeout   = "timeout"
	FieldRemaining = "remaining"
	FieldElapsed   = "elapsed"
	FieldReason    = "reason"

	// Path fields
	FieldPath = "path"
)
