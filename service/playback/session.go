// Package playback owns the single audio stream shared by every card on
// screen. Exactly one owner holds the stream at a time; amplitude data is
// only ever handed to that owner.
package playback

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brojonat/crypt/service/metrics"
)

// ErrNotOwner is returned when a caller acts on a stream it does not hold.
var ErrNotOwner = errors.New("caller does not own playback")

// Levels are band amplitudes in [0, 1].
type Levels struct {
	Bass float64 `json:"bass"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// Analyser bin ranges for each band, as [lo, hi).
const (
	bassLo, bassHi = 0, 7
	midLo, midHi   = 7, 31
	highLo, highHi = 31, 80
)

// SpectrumSize is the number of frequency bins an analyser reports.
const SpectrumSize = 128

// Bands reduces a byte frequency spectrum to raw band levels. Missing bins
// count as silence.
func Bands(spectrum []byte) Levels {
	avg := func(lo, hi int) float64 {
		var sum int
		for i := lo; i < hi && i < len(spectrum); i++ {
			sum += int(spectrum[i])
		}
		return float64(sum) / float64((hi-lo)*255)
	}
	return Levels{
		Bass: avg(bassLo, bassHi),
		Mid:  avg(midLo, midHi),
		High: avg(highLo, highHi),
	}
}

// Track identifies what is playing.
type Track struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Artist    string `json:"artist,omitempty"`
	StreamURL string `json:"streamUrl,omitempty"`
}

// State is a snapshot of the session.
type State struct {
	Handle   uuid.UUID     `json:"handle"`
	Owner    string        `json:"owner"`
	Track    Track         `json:"track"`
	Playing  bool          `json:"playing"`
	Position time.Duration `json:"position"`
}

// Session is the process-wide playback resource. The zero value is not
// usable; construct with NewSession.
type Session struct {
	mu sync.Mutex

	handle   uuid.UUID
	owner    string
	track    Track
	playing  bool
	position time.Duration // accumulated up to resumed
	resumed  time.Time
	levels   Levels

	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the clock used for position tracking.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates an idle session.
func NewSession(m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Session {
	s := &Session{
		now:     time.Now,
		metrics: m,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Play acquires the stream for owner. Calling Play with the track that owner
// already holds resumes it in place; anything else swaps the source, resets
// the position and silences the previous owner in one step.
func (s *Session) Play(owner string, track Track) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.owner == owner && s.track.ID == track.ID && s.handle != uuid.Nil {
		if !s.playing {
			s.playing = true
			s.resumed = s.now()
		}
		return s.stateLocked()
	}

	previous := s.owner
	s.handle = uuid.New()
	s.owner = owner
	s.track = track
	s.playing = true
	s.position = 0
	s.resumed = s.now()
	s.levels = Levels{}

	if previous != "" && previous != owner && s.metrics != nil {
		s.metrics.RecordPlaybackHandoff()
	}
	s.logger.Debug("playback acquired",
		"owner", owner,
		"previous_owner", previous,
		"track_id", track.ID,
		"handle", s.handle,
	)
	return s.stateLocked()
}

// Pause stops the clock without giving up ownership.
func (s *Session) Pause(owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwnerLocked(owner); err != nil {
		return err
	}
	if s.playing {
		s.position = s.positionLocked()
		s.playing = false
	}
	s.levels = Levels{}
	return nil
}

// Seek moves the playback position. Negative positions clamp to zero.
func (s *Session) Seek(owner string, pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwnerLocked(owner); err != nil {
		return err
	}
	s.position = max(pos, 0)
	s.resumed = s.now()
	return nil
}

// Release gives up the stream. The session becomes idle.
func (s *Session) Release(owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwnerLocked(owner); err != nil {
		return err
	}
	s.logger.Debug("playback released", "owner", owner, "handle", s.handle)
	s.handle = uuid.Nil
	s.owner = ""
	s.track = Track{}
	s.playing = false
	s.position = 0
	s.levels = Levels{}
	return nil
}

// Publish feeds the latest analyser levels. Only the owner may publish, and
// only while playing.
func (s *Session) Publish(owner string, levels Levels) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwnerLocked(owner); err != nil {
		return err
	}
	if s.playing {
		s.levels = levels
	}
	return nil
}

// Amplitude returns the levels for owner and whether owner is currently
// playing. Every caller other than the active owner gets silence.
func (s *Session) Amplitude(owner string) (Levels, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner == "" || owner != s.owner || !s.playing {
		return Levels{}, false
	}
	return s.levels, true
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) checkOwnerLocked(owner string) error {
	if owner == "" || owner != s.owner {
		return ErrNotOwner
	}
	return nil
}

func (s *Session) positionLocked() time.Duration {
	if !s.playing {
		return s.position
	}
	return s.position + s.now().Sub(s.resumed)
}

func (s *Session) stateLocked() State {
	return State{
		Handle:   s.handle,
		Owner:    s.owner,
		Track:    s.track,
		Playing:  s.playing,
		Position: s.positionLocked(),
	}
}
