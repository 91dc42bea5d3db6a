// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_NowAdvances(t *testing.T) {
	c := NewFake(epoch)
	require.True(t, c.Now().Equal(epoch))

	c.Advance(5 * time.Second)
	assert.True(t, c.Now().Equal(epoch.Add(5*time.Second)))
}

func TestFake_AfterFuncFiresAtDeadline(t *testing.T) {
	c := NewFake(epoch)
	var firedAt time.Time
	c.AfterFunc(3*time.Second, func() { firedAt = c.Now() })

	c.Advance(2 * time.Second)
	assert.True(t, firedAt.IsZero(), "timer fired early")

	c.Advance(10 * time.Second)
	assert.True(t, firedAt.Equal(epoch.Add(3*time.Second)), "callback should observe its own deadline")
	assert.True(t, c.Now().Equal(epoch.Add(12*time.Second)))
	assert.Equal(t, 0, c.Pending())
}

func TestFake_StopPreventsFire(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop(), "second Stop reports already stopped")

	c.Advance(time.Minute)
	assert.False(t, fired)
}

func TestFake_RearmingCallbackFiresEachInterval(t *testing.T) {
	c := NewFake(epoch)
	count := 0
	var tick func()
	tick = func() {
		count++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(10 * time.Second)
	assert.Equal(t, 10, count)
	assert.Equal(t, 1, c.Pending())
}

func TestFake_StopAfterFireReturnsFalse(t *testing.T) {
	c := NewFake(epoch)
	tm := c.AfterFunc(time.Second, func() {})
	c.Advance(time.Second)
	assert.False(t, tm.Stop())
}
