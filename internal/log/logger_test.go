// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithComponent_AttachesFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "autolock-test", Version: "v0", RunID: "run-1"})
	t.Cleanup(func() { Configure(Config{}) })

	logger := WithComponent("countdown")
	logger.Info().Str(FieldEvent, "countdown.started").Msg("countdown started")

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	assert.Equal(t, "autolock-test", fields["service"])
	assert.Equal(t, "v0", fields["version"])
	assert.Equal(t, "run-1", fields[FieldRunID])
	assert.Equal(t, "countdown", fields[FieldComponent])
	assert.Equal(t, "countdown.started", fields[FieldEvent])
	assert.Equal(t, "countdown started", fields["message"])
}

func TestConfigure_Reconfigures(t *testing.T) {
	var first, second bytes.Buffer
	Configure(Config{Output: &first})
	Configure(Config{Output: &second})
	t.Cleanup(func() { Configure(Config{}) })

	l := Base()
	l.Info().Msg("hello")
	assert.Zero(t, first.Len())
	assert.Contains(t, second.String(), "hello")
}
