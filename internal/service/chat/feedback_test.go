package chat

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterDefaults(t *testing.T) {
	e := NewEmitter(nil, 0, nil)
	assert.Equal(t, DefaultFeedbackTTL, e.TTL())

	fb := e.Emit()
	assert.Contains(t, DefaultFeedbackPool, fb.Token)
	assert.Equal(t, uint64(1), fb.Generation)
}

func TestEmitterUsesInjectedSource(t *testing.T) {
	pool := []string{"a", "b", "c"}
	first := NewEmitter(pool, time.Second, rand.NewPCG(7, 11))
	second := NewEmitter(pool, time.Second, rand.NewPCG(7, 11))

	for range 10 {
		a, b := first.Emit(), second.Emit()
		require.Equal(t, a.Token, b.Token)
		require.True(t, slices.Contains(pool, a.Token))
	}
}

func TestEmitterReplaceResetsExpiry(t *testing.T) {
	clock := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	e := NewEmitter([]string{"⭐"}, 3*time.Second, nil)
	e.now = func() time.Time { return clock }

	first := e.Emit()
	clock = clock.Add(2 * time.Second)
	second := e.Emit()

	assert.False(t, e.Expire(first.Generation), "stale generation must not clear the newer token")
	token, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, "⭐", token)
	assert.Equal(t, clock.Add(3*time.Second), second.ExpiresAt)

	assert.True(t, e.Expire(second.Generation))
	_, ok = e.Current()
	assert.False(t, ok)
	assert.False(t, e.Expire(second.Generation))
}

func TestEmitterCurrentHidesExpiredToken(t *testing.T) {
	clock := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	e := NewEmitter(nil, time.Second, nil)
	e.now = func() time.Time { return clock }

	e.Emit()
	_, ok := e.Current()
	require.True(t, ok)

	clock = clock.Add(time.Second)
	_, ok = e.Current()
	assert.False(t, ok)
}
