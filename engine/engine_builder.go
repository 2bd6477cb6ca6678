package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scheduler"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfilerOptions forwards options to the engine's profiler.
//
// Parameters:
//   - opts: profiler options, e.g. profiler.WithRenderCounter
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfilerOptions(opts ...profiler.ProfilerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.profilerOpts = append(e.profilerOpts, opts...)
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameLimit(fps)
	}
}

// WithFrameQueue sets the animation-frame queue. Defaults to scheduler.NewFrameQueue().
//
// Parameters:
//   - q: the queue
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameQueue(q scheduler.FrameQueue) EngineBuilderOption {
	return func(e *engine) {
		e.frames = q
	}
}

// WithResizeCallback sets the function called on framebuffer resize, normally viewer.Viewer.Resize.
//
// Parameters:
//   - callback: function receiving the new size in pixels
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithResizeCallback(callback func(width, height int)) EngineBuilderOption {
	return func(e *engine) {
		e.resizeCallback = callback
	}
}

// WithFrameCallback sets a function called after every loop iteration with the number of frame callbacks run.
//
// Parameters:
//   - callback: the function
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameCallback(callback func(ran int)) EngineBuilderOption {
	return func(e *engine) {
		e.frameCallback = callback
	}
}

// WithLogger sets the structured logger for the engine and its profiler.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces time.Now for frame timestamps.
//
// Parameters:
//   - now: the clock
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClock(now func() time.Time) EngineBuilderOption {
	return func(e *engine) {
		if now != nil {
			e.now = now
		}
	}
}
