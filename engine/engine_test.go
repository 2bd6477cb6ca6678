package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLoop runs a fixed number of iterations, firing one resize before the first.
type fakeLoop struct {
	iterations int
	update     func()
	resize     func(width, height int)
	running    bool
	closes     int
}

func (l *fakeLoop) SetUpdateCallback(cb func()) { l.update = cb }
func (l *fakeLoop) SetResizeCallback(cb func(width, height int)) { l.resize = cb }
func (l *fakeLoop) IsRunning() bool { return l.running }
func (l *fakeLoop) Close() error {
	l.closes++
	l.running = false
	return nil
}

func (l *fakeLoop) ProcessMessages() {
	l.resize(640, 480)
	for i := 0; i < l.iterations && l.running; i++ {
		l.update()
	}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunDrainsFramesEachIteration(t *testing.T) {
	loop := &fakeLoop{iterations: 5, running: true}
	clock := time.Unix(50, 0)
	var (
		sizes  [][2]int
		ran    []int
		stamps []time.Time
	)
	e := NewEngine(loop,
		WithLogger(quiet()),
		WithClock(func() time.Time { clock = clock.Add(time.Millisecond); return clock }),
		WithResizeCallback(func(w, h int) { sizes = append(sizes, [2]int{w, h}) }),
		WithFrameCallback(func(n int) { ran = append(ran, n) }),
	)

	// A callback that re-requests itself runs exactly once per iteration.
	var tick scheduler.FrameCallback
	tick = func(now time.Time) {
		stamps = append(stamps, now)
		e.Frames().RequestFrame(tick)
	}
	e.Frames().RequestFrame(tick)

	e.Run()
	assert.Equal(t, [][2]int{{640, 480}}, sizes)
	assert.Equal(t, []int{1, 1, 1, 1, 1}, ran)
	require.Len(t, stamps, 5)
	for i := 1; i < len(stamps); i++ {
		assert.True(t, stamps[i].After(stamps[i-1]))
	}
	assert.Equal(t, 1, loop.closes, "run closes the window on exit")
}

func TestQuitStopsFramesAndIsIdempotent(t *testing.T) {
	loop := &fakeLoop{iterations: 10, running: true}
	calls := 0
	var e Engine
	e = NewEngine(loop, WithLogger(quiet()), WithFrameCallback(func(int) {
		calls++
		if calls == 3 {
			e.Quit()
		}
	}))
	e.Run()
	e.Quit()

	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, loop.closes)
}

func TestFrameLimit(t *testing.T) {
	assert.Zero(t, frameLimit(0))
	assert.Zero(t, frameLimit(-30))
	assert.Equal(t, 16666666*time.Nanosecond, frameLimit(60).Truncate(time.Nanosecond))
	assert.Equal(t, 10*time.Millisecond, frameLimit(100))
}

func TestNewEngineRequiresLoop(t *testing.T) {
	assert.Panics(t, func() { NewEngine(nil) })
}
