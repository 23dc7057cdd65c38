package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brojonat/crypt/service/metrics"
	"github.com/brojonat/crypt/service/playback"
)

// AmplitudeSource supplies audio levels for a given owner. Only the current
// playback owner receives non-zero levels.
type AmplitudeSource interface {
	Amplitude(owner string) (playback.Levels, bool)
}

// Sink receives frames. Returning an error stops the loop.
type Sink func(ctx context.Context, f Frame) error

// Loop redraws a scene at a fixed rate until its context is cancelled.
type Loop struct {
	ID      uuid.UUID
	scene   *Scene
	source  AmplitudeSource
	owner   string
	fps     int
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewLoop creates a loop for scene. owner is the playback identity the
// loop listens for; fps must be positive.
func NewLoop(scene *Scene, source AmplitudeSource, owner string, fps int, m *metrics.Metrics, logger *slog.Logger) *Loop {
	if fps <= 0 {
		fps = 30
	}
	return &Loop{
		ID:      uuid.New(),
		scene:   scene,
		source:  source,
		owner:   owner,
		fps:     fps,
		now:     time.Now,
		metrics: m,
		logger:  logger,
	}
}

// Run draws frames into sink until ctx is done or sink fails. It returns nil
// on cancellation and leaves no timers behind.
func (l *Loop) Run(ctx context.Context, sink Sink) error {
	ticker := time.NewTicker(time.Second / time.Duration(l.fps))
	defer ticker.Stop()

	if l.metrics != nil {
		l.metrics.RecordRenderStreamChange(1)
		defer l.metrics.RecordRenderStreamChange(-1)
	}
	l.logger.DebugContext(ctx, "render loop started", "stream_id", l.ID, "owner", l.owner, "fps", l.fps)

	for {
		select {
		case <-ctx.Done():
			l.logger.DebugContext(ctx, "render loop stopped", "stream_id", l.ID)
			return nil
		case <-ticker.C:
			var (
				levels  playback.Levels
				playing bool
			)
			if l.source != nil {
				levels, playing = l.source.Amplitude(l.owner)
			}
			f := l.scene.Frame(l.now(), levels, playing)
			if err := sink(ctx, f); err != nil {
				return fmt.Errorf("failed to send frame %d: %w", f.Seq, err)
			}
		}
	}
}
