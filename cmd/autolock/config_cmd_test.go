// SPDX-License-Identifier: MIT
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/autolock/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvLockTimeoutMinutes,
		config.EnvLogDirectory,
		config.EnvLogLevel,
		config.EnvLanguage,
		config.EnvStatusListenAddr,
		config.EnvMetricsEnabled,
		config.EnvShutdownEnabled,
		config.EnvConfigPath,
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func runConfig(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := runConfigCLIWithIO(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestConfigInitValidateDump(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "autolock.yaml")

	code, out, errOut := runConfig("init", "-f", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, path)

	code, _, errOut = runConfig("init", "-f", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "already exists")

	code, _, errOut = runConfig("init", "-f", path, "--force")
	assert.Equal(t, 0, code, errOut)

	code, out, errOut = runConfig("validate", "-f", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "is valid")

	code, out, errOut = runConfig("dump", "-f", path, "--format=json")
	require.Equal(t, 0, code, errOut)

	var dumped config.FileConfig
	require.NoError(t, json.Unmarshal([]byte(out), &dumped))
	require.NotNil(t, dumped.LockTimeoutMinutes)
	assert.Equal(t, config.DefaultLockTimeoutMinutes, *dumped.LockTimeoutMinutes)
	require.NotNil(t, dumped.Status)
	require.NotNil(t, dumped.Status.ListenAddr)
	assert.Equal(t, config.DefaultStatusListenAddr, *dumped.Status.ListenAddr)
}

func TestConfigValidate_Invalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "autolock.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lockTimeoutMinutes: 0\n"), 0o600))

	code, _, errOut := runConfig("validate", "--file", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "lockTimeoutMinutes")
}

func TestConfigValidate_UnknownField(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "autolock.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lockTimeout: 5\n"), 0o600))

	code, _, _ := runConfig("validate", "-f", path)
	assert.Equal(t, 1, code)
}

func TestConfigDump_YAMLFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvLockTimeoutMinutes, "15")

	code, out, errOut := runConfig("dump", "-f", "")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "lockTimeoutMinutes: 15")
}

func TestConfigCLI_Usage(t *testing.T) {
	code, _, errOut := runConfig()
	assert.Equal(t, 0, code)
	assert.Contains(t, errOut, "autolock config init")

	code, _, errOut = runConfig("bogus")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Unknown subcommand: bogus")

	code, _, _ = runConfig("dump", "--format=toml")
	assert.Equal(t, 2, code)
}

func TestResolveConfigPath(t *testing.T) {
	clearEnv(t)
	assert.Equal(t, "explicit.yaml", resolveConfigPath("  explicit.yaml "))

	t.Setenv(config.EnvConfigPath, "/etc/autolock.yaml")
	assert.Equal(t, "/etc/autolock.yaml", resolveConfigPath(""))
	assert.Equal(t, "explicit.yaml", resolveConfigPath("explicit.yaml"))
}
