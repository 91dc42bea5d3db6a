// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// clearEnv isolates a test from AUTOLOCK_* variables set in the environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvLockTimeoutMinutes, EnvLogDirectory, EnvLogLevel, EnvLanguage,
		EnvStatusListenAddr, EnvMetricsEnabled, EnvShutdownEnabled,
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autolock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := NewLoader("", "v1.0.0").Load()
	require.NoError(t, err)

	want := Defaults()
	want.Version = "v1.0.0"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 60, int(cfg.LockTimeout().Minutes()))
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	logDir := t.TempDir()
	path := writeConfig(t, `
lockTimeoutMinutes: 15
logDirectory: `+logDir+`
logLevel: DEBUG
language: en
status:
  listenAddr: "127.0.0.1:9000"
  metrics: false
`)

	cfg, err := NewLoader(path, "dev").Load()
	require.NoError(t, err)

	want := AppConfig{
		Version:            "dev",
		ConfigPath:         path,
		LockTimeoutMinutes: 15,
		LogDirectory:       logDir,
		LogLevel:           "debug",
		Language:           "en",
		Status: StatusConfig{
			ListenAddr:      "127.0.0.1:9000",
			Metrics:         false,
			ShutdownEnabled: true,
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "lockTimeoutMinutes: 15\nlanguage: en\n")

	t.Setenv(EnvLockTimeoutMinutes, "5")
	t.Setenv(EnvLanguage, "zh")
	t.Setenv(EnvShutdownEnabled, "no")
	t.Setenv(EnvStatusListenAddr, "")

	l := NewLoader(path, "")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.LockTimeoutMinutes)
	assert.Equal(t, "zh", cfg.Language)
	assert.False(t, cfg.Status.ShutdownEnabled)
	assert.Empty(t, cfg.Status.ListenAddr, "explicitly empty listen address disables the API")
	assert.Contains(t, l.ConsumedEnvKeys, EnvLockTimeoutMinutes)
	assert.Contains(t, l.ConsumedEnvKeys, EnvStatusListenAddr)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLockTimeoutMinutes, "ten")
	t.Setenv(EnvMetricsEnabled, "maybe")

	cfg, err := NewLoader("", "").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultLockTimeoutMinutes, cfg.LockTimeoutMinutes)
	assert.True(t, cfg.Status.Metrics)
}

func TestLoad_Rejects(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		file    string
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "unknown field", body: "lockTimeout: 5\n", wantErr: ErrUnknownConfigField},
		{name: "multiple documents", body: "language: en\n---\nlanguage: zh\n", wantErr: ErrMultipleDocuments},
		{name: "zero timeout", body: "lockTimeoutMinutes: 0\n", wantMsg: "lockTimeoutMinutes"},
		{name: "negative timeout", body: "lockTimeoutMinutes: -3\n", wantMsg: "lockTimeoutMinutes"},
		{name: "language", body: "language: fr\n", wantMsg: "language"},
		{name: "regional unsupported language", body: "language: fr-CA\n", wantMsg: "language"},
		{name: "malformed language", body: "language: \"??\"\n", wantMsg: "language"},
		{name: "log level", body: "logLevel: chatty\n", wantMsg: "logLevel"},
		{name: "listen addr", body: "status:\n  listenAddr: nope\n", wantMsg: "status.listenAddr"},
		{name: "extension", file: "autolock.json", body: "{}", wantErr: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := tt.file
			if name == "" {
				name = "autolock.yaml"
			}
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			_, err := NewLoader(path, "").Load()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := NewLoader(writeConfig(t, ""), "").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultLockTimeoutMinutes, cfg.LockTimeoutMinutes)
}

func TestMarshal_RoundTripsThroughLoader(t *testing.T) {
	clearEnv(t)
	cfg := Defaults()
	cfg.LockTimeoutMinutes = 30
	cfg.Status.ListenAddr = ""

	out, err := Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "lockTimeoutMinutes: 30")

	got, err := NewLoader(writeConfig(t, string(out)), "").Load()
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, got, cmp.FilterPath(func(p cmp.Path) bool {
		return p.String() == "ConfigPath"
	}, cmp.Ignore())); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff(t *testing.T) {
	old := Defaults()
	next := old
	next.Version = "other"
	assert.False(t, Diff(old, next).RestartRequired, "version is not configuration")

	next.LockTimeoutMinutes = 5
	next.Status.Metrics = false
	s := Diff(old, next)
	assert.True(t, s.RestartRequired)
	if diff := cmp.Diff([]string{"lockTimeoutMinutes", "status.metrics"}, s.ChangedFields); diff != "" {
		t.Errorf("changed fields (-want +got):\n%s", diff)
	}
}

func TestLoad_AcceptsRegionalLanguageTags(t *testing.T) {
	clearEnv(t)

	tests := map[string]string{
		"zh-CN":   "zh-cn",
		"en-US":   "en-us",
		"zh-Hans": "zh-hans",
	}
	for tag, want := range tests {
		t.Run(tag, func(t *testing.T) {
			cfg, err := NewLoader(writeConfig(t, "language: "+tag+"\n"), "").Load()
			require.NoError(t, err)
			assert.Equal(t, want, cfg.Language)
		})
	}
}
