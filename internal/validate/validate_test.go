// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Accumulates(t *testing.T) {
	v := New()
	assert.True(t, v.IsValid())
	assert.NoError(t, v.Err())

	v.Positive("lockTimeoutMinutes", 0)
	v.OneOf("language", "fr", []string{"en", "zh"})
	v.NotEmpty("logDirectory", "  ")

	require.False(t, v.IsValid())
	err := v.Err()
	require.Error(t, err)

	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Errors(), 3)
	assert.Equal(t, "lockTimeoutMinutes", verr.Errors()[0].Field)
	assert.Contains(t, err.Error(), `value must be one of [en zh], got "fr"`)
	assert.Contains(t, err.Error(), "; ")
}

func TestValidator_Range(t *testing.T) {
	v := New()
	v.Range("a", 1, 1, 10)
	v.Range("b", 10, 1, 10)
	assert.True(t, v.IsValid())

	v.Range("c", 11, 1, 10)
	require.Len(t, v.Errors(), 1)
	assert.Equal(t, "validation failed for c: value must be between 1 and 10, got 11", v.Errors()[0].Error())
}

func TestValidator_Directory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	tests := []struct {
		name      string
		path      string
		mustExist bool
		wantErr   bool
	}{
		{"existing", dir, true, false},
		{"missing optional", filepath.Join(dir, "missing"), false, false},
		{"missing required", filepath.Join(dir, "missing"), true, true},
		{"file", file, false, true},
		{"empty", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Directory("logDirectory", tt.path, tt.mustExist)
			assert.Equal(t, tt.wantErr, !v.IsValid(), "%v", v.Errors())
		})
	}
	assert.NoDirExists(t, filepath.Join(dir, "missing"), "validation never creates directories")
}

func TestValidator_ListenAddr(t *testing.T) {
	for _, ok := range []string{"127.0.0.1:8765", ":0", "[::1]:80", "localhost:65535"} {
		v := New()
		v.ListenAddr("status.listenAddr", ok)
		assert.True(t, v.IsValid(), ok)
	}
	for _, bad := range []string{"127.0.0.1", "host:http", "host:70000", ""} {
		v := New()
		v.ListenAddr("status.listenAddr", bad)
		assert.False(t, v.IsValid(), bad)
	}
}

func TestValidator_LogLevel(t *testing.T) {
	v := New()
	v.LogLevel("logLevel", "INFO")
	v.LogLevel("logLevel", "trace")
	assert.True(t, v.IsValid())

	v.LogLevel("logLevel", "verbose")
	assert.False(t, v.IsValid())
}

func TestValidator_Language(t *testing.T) {
	supported := []string{"en", "zh"}

	for _, tag := range []string{"en", "zh", "en-US", "zh-CN", "zh-Hans", "EN-gb"} {
		v := New()
		v.Language("language", tag, supported)
		assert.True(t, v.IsValid(), tag)
	}

	for _, tag := range []string{"", "fr", "fr-FR", "??", "not a tag"} {
		v := New()
		v.Language("language", tag, supported)
		assert.False(t, v.IsValid(), tag)
	}
}
