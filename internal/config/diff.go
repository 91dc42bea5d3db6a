// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

// ChangeSummary describes the result of comparing two AppConfigs.
type ChangeSummary struct {
	ChangedFields   []string // YAML paths that changed
	RestartRequired bool     // nothing is hot reloadable, so any change needs a restart
}

// Diff compares two configurations. Version and ConfigPath are ignored.
func Diff(old, next AppConfig) ChangeSummary {
	var s ChangeSummary
	add := func(changed bool, field string) {
		if changed {
			s.ChangedFields = append(s.ChangedFields, field)
		}
	}

	add(old.LockTimeoutMinutes != next.LockTimeoutMinutes, "lockTimeoutMinutes")
	add(old.LogDirectory != next.LogDirectory, "logDirectory")
	add(old.LogLevel != next.LogLevel, "logLevel")
	add(old.Language != next.Language, "language")
	add(old.Status.ListenAddr != next.Status.ListenAddr, "status.listenAddr")
	add(old.Status.Metrics != next.Status.Metrics, "status.metrics")
	add(old.Status.ShutdownEnabled != next.Status.ShutdownEnabled, "status.shutdownEnabled")

	s.RestartRequired = len(s.ChangedFields) > 0
	return s
}
