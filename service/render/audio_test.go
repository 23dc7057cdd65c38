package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brojonat/crypt/service/playback"
)

var t0 = time.Date(2024, 12, 25, 12, 0, 0, 0, time.UTC)

func TestAudioTracker_Smoothing(t *testing.T) {
	a := NewAudioTracker()

	a.Sample(playback.Levels{Bass: 1, Mid: 1, High: 1}, true, t0)
	got := a.Audio()
	assert.InDelta(t, 0.7, got.Bass, 1e-12)
	assert.InDelta(t, 0.6, got.Mid, 1e-12)
	assert.InDelta(t, 0.5, got.High, 1e-12)

	a.Sample(playback.Levels{Bass: 1, Mid: 1, High: 1}, true, t0)
	got = a.Audio()
	assert.InDelta(t, 0.91, got.Bass, 1e-12)
	assert.InDelta(t, 0.84, got.Mid, 1e-12)
	assert.InDelta(t, 0.75, got.High, 1e-12)
}

func TestAudioTracker_AttackDetection(t *testing.T) {
	a := NewAudioTracker()

	a.Sample(playback.Levels{Bass: 1}, true, t0)
	assert.InDelta(t, 0.82, a.Audio().Hit, 1e-12)
	assert.Len(t, a.Rings(t0, ringMaxAge), 1)
	assert.InDelta(t, 0.403, a.Threshold(), 1e-9)

	// Sustained bass is not a new attack.
	a.Sample(playback.Levels{Bass: 1}, true, t0)
	assert.InDelta(t, 0.82*0.82, a.Audio().Hit, 1e-12)
	assert.Len(t, a.Rings(t0, ringMaxAge), 1)
}

func TestAudioTracker_RiseBelowThresholdIsIgnored(t *testing.T) {
	a := NewAudioTracker()

	// A jump of 0.25 clears the delta but not 70% of the initial 0.4.
	a.Sample(playback.Levels{Bass: 0.25}, true, t0)

	assert.Zero(t, a.Audio().Hit)
	assert.Empty(t, a.Rings(t0, ringMaxAge))
}

func TestAudioTracker_SmallRiseIsIgnored(t *testing.T) {
	a := NewAudioTracker()
	a.Sample(playback.Levels{Bass: 0.5}, true, t0)
	before := len(a.Rings(t0, ringMaxAge))

	a.Sample(playback.Levels{Bass: 0.55}, true, t0)

	assert.Len(t, a.Rings(t0, ringMaxAge), before)
}

func TestAudioTracker_RingQueueIsBounded(t *testing.T) {
	a := NewAudioTracker()
	now := t0
	for i := 0; i < 7; i++ {
		a.Sample(playback.Levels{Bass: 1}, true, now)
		a.Sample(playback.Levels{}, true, now)
		now = now.Add(10 * time.Millisecond)
	}

	rings := a.Rings(now, ringMaxAge)
	require.Len(t, rings, maxHitRings)
	// The oldest two were dropped.
	assert.Equal(t, t0.Add(20*time.Millisecond), rings[0].Birth)
}

func TestAudioTracker_RingsExpire(t *testing.T) {
	a := NewAudioTracker()
	a.Sample(playback.Levels{Bass: 1}, true, t0)

	assert.Len(t, a.Rings(t0.Add(2*time.Second), ringMaxAge), 1)
	assert.Empty(t, a.Rings(t0.Add(2*time.Second+time.Millisecond), ringMaxAge))
}

func TestAudioTracker_PausedDecays(t *testing.T) {
	a := NewAudioTracker()
	a.Sample(playback.Levels{Bass: 1, Mid: 1, High: 1}, true, t0)
	threshold := a.Threshold()

	// Levels are ignored while paused.
	a.Sample(playback.Levels{Bass: 1, Mid: 1, High: 1}, false, t0)

	got := a.Audio()
	assert.InDelta(t, 0.7*0.95, got.Bass, 1e-12)
	assert.InDelta(t, 0.6*0.95, got.Mid, 1e-12)
	assert.InDelta(t, 0.5*0.95, got.High, 1e-12)
	assert.InDelta(t, 0.82*0.92, got.Hit, 1e-12)
	assert.Equal(t, threshold, a.Threshold())
}
