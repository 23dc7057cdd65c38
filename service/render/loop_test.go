package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/brojonat/crypt/service/metrics"
	"github.com/brojonat/crypt/service/playback"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var _ AmplitudeSource = (*playback.Session)(nil)

type fixedSource struct {
	owner  string
	levels playback.Levels
}

func (s fixedSource) Amplitude(owner string) (playback.Levels, bool) {
	if owner != s.owner {
		return playback.Levels{}, false
	}
	return s.levels, true
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestLoop_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	loop := NewLoop(newTestScene("abc123"), nil, "card-1", 120, m, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu     sync.Mutex
		frames []Frame
	)
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx, func(_ context.Context, f Frame) error {
			mu.Lock()
			defer mu.Unlock()
			frames = append(frames, f)
			if len(frames) == 3 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(frames), 3)
	for i, f := range frames {
		assert.Equal(t, i+1, f.Seq)
	}
	assert.Equal(t, 0.0, gaugeValue(t, reg, "crypt_render_streams_active"))
}

func TestLoop_SinkErrorStops(t *testing.T) {
	defer goleak.VerifyNone(t)
	boom := errors.New("client went away")
	loop := NewLoop(newTestScene("abc123"), nil, "card-1", 120, nil, discardLogger())

	err := loop.Run(context.Background(), func(context.Context, Frame) error { return boom })

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestLoop_OnlyOwnerHearsAudio(t *testing.T) {
	defer goleak.VerifyNone(t)
	src := fixedSource{owner: "card-1", levels: playback.Levels{Bass: 1}}

	first := func(owner string) Frame {
		loop := NewLoop(newTestScene("abc123"), src, owner, 120, nil, discardLogger())
		var got Frame
		stop := errors.New("stop")
		err := loop.Run(context.Background(), func(_ context.Context, f Frame) error {
			got = f
			return stop
		})
		require.ErrorIs(t, err, stop)
		return got
	}

	assert.InDelta(t, 0.7, first("card-1").Audio.Bass, 1e-12)
	assert.Zero(t, first("card-2").Audio.Bass)
}

func TestLoop_RunningGaugeWhileActive(t *testing.T) {
	defer goleak.VerifyNone(t)
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	loop := NewLoop(newTestScene("abc123"), nil, "card-1", 120, m, discardLogger())

	var during float64
	stop := errors.New("stop")
	_ = loop.Run(context.Background(), func(context.Context, Frame) error {
		during = gaugeValue(t, reg, "crypt_render_streams_active")
		return stop
	})

	assert.Equal(t, 1.0, during)
	assert.Equal(t, 0.0, gaugeValue(t, reg, "crypt_render_streams_active"))
}

func TestNewLoop_DefaultsFPS(t *testing.T) {
	loop := NewLoop(newTestScene("x"), nil, "", 0, nil, discardLogger())

	assert.Equal(t, 30, loop.fps)
}
