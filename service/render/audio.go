package render

import (
	"time"

	"github.com/brojonat/crypt/service/playback"
)

// Attack detection and smoothing constants.
const (
	hitDelta         = 0.08
	hitThresholdFrac = 0.7
	initialThreshold = 0.4
	thresholdDecay   = 0.995
	hitDecayPlaying  = 0.82
	hitDecayPaused   = 0.92
	pausedDecay      = 0.95
	maxHitRings      = 5
)

// HitRing is one bass burst, born at a wall-clock instant with the raw bass
// level that triggered it.
type HitRing struct {
	Birth     time.Time
	Intensity float64
}

// Audio is the smoothed audio state a frame is drawn from.
type Audio struct {
	Bass float64 `json:"bass"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
	Hit  float64 `json:"hit"`
}

// AudioTracker smooths raw band levels and detects bass attacks against a
// slowly adapting threshold.
type AudioTracker struct {
	audio     Audio
	lastBass  float64
	threshold float64
	rings     []HitRing
}

// NewAudioTracker returns a tracker at rest.
func NewAudioTracker() *AudioTracker {
	return &AudioTracker{threshold: initialThreshold}
}

// Sample folds one reading into the tracker. When playing is false the raw
// levels are ignored and everything decays toward silence.
func (a *AudioTracker) Sample(raw playback.Levels, playing bool, now time.Time) {
	if !playing {
		a.audio.Bass *= pausedDecay
		a.audio.Mid *= pausedDecay
		a.audio.High *= pausedDecay
		a.audio.Hit *= hitDecayPaused
		return
	}

	a.audio.Bass = a.audio.Bass*0.3 + raw.Bass*0.7
	a.audio.Mid = a.audio.Mid*0.4 + raw.Mid*0.6
	a.audio.High = a.audio.High*0.5 + raw.High*0.5

	if raw.Bass-a.lastBass > hitDelta && raw.Bass > a.threshold*hitThresholdFrac {
		a.audio.Hit = 1
		a.rings = append(a.rings, HitRing{Birth: now, Intensity: raw.Bass})
		if len(a.rings) > maxHitRings {
			a.rings = a.rings[len(a.rings)-maxHitRings:]
		}
	}
	a.lastBass = raw.Bass
	a.audio.Hit *= hitDecayPlaying
	a.threshold = a.threshold*thresholdDecay + raw.Bass*(1-thresholdDecay)
}

// Audio returns the current smoothed state.
func (a *AudioTracker) Audio() Audio { return a.audio }

// Threshold returns the adaptive attack threshold.
func (a *AudioTracker) Threshold() float64 { return a.threshold }

// Rings returns the live hit rings, dropping any older than maxAge at now.
func (a *AudioTracker) Rings(now time.Time, maxAge time.Duration) []HitRing {
	live := a.rings[:0]
	for _, r := range a.rings {
		if now.Sub(r.Birth) <= maxAge {
			live = append(live, r)
		}
	}
	a.rings = live
	return live
}
