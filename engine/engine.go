package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scheduler"
)

// MessageLoop is the platform event pump the engine runs on. window.Window satisfies it.
type MessageLoop interface {
	// SetUpdateCallback registers the function called once per loop iteration, after input is processed.
	SetUpdateCallback(callback func())

	// SetResizeCallback registers the function called when the framebuffer size changes.
	SetResizeCallback(callback func(width, height int))

	// ProcessMessages blocks until the loop ends.
	ProcessMessages()

	// IsRunning reports whether the loop is still active.
	IsRunning() bool

	// Close ends the loop and releases the platform window.
	Close() error
}

// engine implements the Engine interface.
// Input callbacks and animation frames run serially on the message loop's thread.
type engine struct {
	mu     *sync.Mutex
	logger *slog.Logger

	loop   MessageLoop
	frames scheduler.FrameQueue
	now    func() time.Time

	profiler         *profiler.Profiler
	profilerOpts     []profiler.ProfilerBuilderOption
	profilingEnabled bool

	resizeCallback func(width, height int)
	frameCallback  func(ran int)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastFrame        time.Time
	quit             bool
	closed           bool
}

// Engine is the main entry point for the viewer runtime.
// It owns the animation-frame queue and runs it from the window's message loop,
// optionally frame-limited, with the profiler ticking once per frame.
type Engine interface {
	// Frames returns the animation-frame queue that schedulers request frames from.
	//
	// Returns:
	//   - scheduler.FrameQueue: the queue drained once per loop iteration
	Frames() scheduler.FrameQueue

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run drives the message loop until the window closes or Quit is called.
	Run()

	// Quit stops running frames and closes the window.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an engine bound to a message loop.
//
// Parameters:
//   - loop: the platform message loop; required
//   - options: functional options for engine configuration (profiling, frame limit, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(loop MessageLoop, options ...EngineBuilderOption) Engine {
	if loop == nil {
		panic("engine: NewEngine requires a non-nil MessageLoop")
	}
	e := &engine{
		mu:     &sync.Mutex{},
		logger: slog.Default(),
		loop:   loop,
		now:    time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.frames == nil {
		e.frames = scheduler.NewFrameQueue()
	}
	e.profiler = profiler.NewProfiler(append([]profiler.ProfilerBuilderOption{
		profiler.WithLogger(e.logger),
		profiler.WithClock(e.now),
	}, e.profilerOpts...)...)

	loop.SetResizeCallback(func(width, height int) {
		if e.resizeCallback != nil {
			e.resizeCallback(width, height)
		}
	})
	loop.SetUpdateCallback(e.step)
	return e
}

func (e *engine) Frames() scheduler.FrameQueue {
	return e.frames
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	e.profilingEnabled = true
	e.mu.Unlock()
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	e.profilingEnabled = false
	e.mu.Unlock()
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameLimit(fps)
}

func (e *engine) Run() {
	e.logger.Info("engine running")
	e.loop.ProcessMessages()
	e.Quit()
	e.logger.Info("engine stopped")
}

func (e *engine) Quit() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.quit, e.closed = true, true
	e.mu.Unlock()

	if e.loop.IsRunning() {
		if err := e.loop.Close(); err != nil {
			e.logger.Warn("window close failed", "err", err)
		}
	}
}

// step runs the animation frames that are due. With a frame limit, it sleeps off
// the rest of the frame budget first.
func (e *engine) step() {
	e.mu.Lock()
	if e.quit {
		e.mu.Unlock()
		return
	}
	limit := e.renderFrameLimit
	profiling := e.profilingEnabled
	last := e.lastFrame
	e.mu.Unlock()

	if limit > 0 && !last.IsZero() {
		if remaining := limit - e.now().Sub(last); remaining > 0 {
			time.Sleep(remaining)
		}
	}

	now := e.now()
	ran := e.frames.Run(now)

	e.mu.Lock()
	e.lastFrame = now
	e.mu.Unlock()

	if e.frameCallback != nil {
		e.frameCallback(ran)
	}
	if profiling {
		e.profiler.Tick()
	}
}

func frameLimit(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
