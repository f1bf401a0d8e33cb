// ABOUTME: Tests for the deterministic fake clock
// ABOUTME: Covers ordering, stop semantics and timers scheduled from callbacks
package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var fired []string
	c.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "late") })
	c.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "early") })

	c.Advance(200 * time.Millisecond)
	assert.Equal(t, []string{"early"}, fired)
	assert.Equal(t, 1, c.Pending())

	c.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"early", "late"}, fired)
	assert.Equal(t, start.Add(300*time.Millisecond), c.Now())
}

func TestFakeStop(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	require.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop reports timer no longer pending")

	c.Advance(2 * time.Second)
	assert.False(t, called)
	assert.Zero(t, c.Pending())
}

func TestFakeCallbackSchedulesFollowUp(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	count := 0
	var tick func()
	tick = func() {
		count++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(3 * time.Second)
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, c.Pending())
}
