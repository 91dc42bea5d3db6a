// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import "errors"

// ErrUnsupportedPlatform is returned by NewPlatformSource on platforms without
// a session notification facility.
var ErrUnsupportedPlatform = errors.New("session notifications are not supported on this platform")
