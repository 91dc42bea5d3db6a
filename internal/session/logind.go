// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"github.com/godbus/dbus/v5"
)

// systemd-logind D-Bus names.
const (
	logindDest         = "org.freedesktop.login1"
	logindManagerPath  = dbus.ObjectPath("/org/freedesktop/login1")
	logindManagerIface = "org.freedesktop.login1.Manager"
	logindSessionIface = "org.freedesktop.login1.Session"
	propertiesIface    = "org.freedesktop.DBus.Properties"
)

// classifyLogind maps a logind signal concerning our session to a Reason.
// Lock state is taken from the session's LockedHint property, which screen
// lockers maintain; SessionNew/SessionRemoved for our session id map to
// logon/logoff.
func classifyLogind(sig *dbus.Signal, sessionPath dbus.ObjectPath, sessionID string) (Reason, bool) {
	if sig == nil {
		return ReasonOther, false
	}

	switch sig.Name {
	case propertiesIface + ".PropertiesChanged":
		if sig.Path != sessionPath || len(sig.Body) < 2 {
			return ReasonOther, false
		}
		iface, ok := sig.Body[0].(string)
		if !ok || iface != logindSessionIface {
			return ReasonOther, false
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return ReasonOther, false
		}
		hint, ok := changed["LockedHint"]
		if !ok {
			return ReasonOther, false
		}
		locked, ok := hint.Value().(bool)
		if !ok {
			return ReasonOther, false
		}
		if locked {
			return ReasonLock, true
		}
		return ReasonUnlock, true

	case logindManagerIface + ".SessionNew", logindManagerIface + ".SessionRemoved":
		if len(sig.Body) < 1 {
			return ReasonOther, false
		}
		id, ok := sig.Body[0].(string)
		if !ok || id != sessionID {
			return ReasonOther, false
		}
		if sig.Name == logindManagerIface+".SessionNew" {
			return ReasonLogon, true
		}
		return ReasonLogoff, true
	}

	return ReasonOther, false
}
