package scheduler

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// RenderPolicy selects when the scheduler renders.
type RenderPolicy uint8

const (
	// PolicyOnDemand renders only after MarkDirty, once per flag-set.
	PolicyOnDemand RenderPolicy = iota
	// PolicyContinuous renders every frame.
	PolicyContinuous
)

func (p RenderPolicy) String() string {
	if p == PolicyContinuous {
		return "continuous"
	}
	return "on-demand"
}

// Target is the per-frame client of the scheduler, normally the active control mode.
type Target interface {
	// Animate advances the target by dt seconds.
	Animate(dt float32)
	// RenderPolicy is read every frame after Animate, so a target may switch policies at runtime.
	RenderPolicy() RenderPolicy
}

// RenderFunc draws one frame.
type RenderFunc func() error

// Scheduler drives a Target once per animation frame and decides whether to render.
// It keeps at most one frame request outstanding. A callback from a run that was
// stopped (or restarted) is ignored.
type Scheduler interface {
	// Start begins driving t, stopping any current run first.
	//
	// Parameters:
	//   - t: the target to animate each frame
	Start(t Target)

	// Stop cancels the outstanding frame request and detaches the target.
	// Safe to call when not running.
	Stop()

	// MarkDirty requests one render under PolicyOnDemand. Safe from any goroutine.
	MarkDirty()

	// Dirty reports whether a render is pending under PolicyOnDemand.
	Dirty() bool

	// Running reports whether a target is attached.
	Running() bool

	// Outstanding returns the number of frame requests this scheduler has pending (0 or 1).
	Outstanding() int

	// Frames returns the number of frames processed.
	Frames() uint64

	// Renders returns the number of successful or failed render calls.
	Renders() uint64
}

type schedulerImpl struct {
	mu *sync.Mutex

	req    FrameRequester
	render RenderFunc
	logger *slog.Logger

	target     Target
	running    bool
	generation uint64
	handle     FrameHandle
	pending    bool

	last     time.Time
	hasLast  bool
	maxDelta float32

	dirty   atomic.Bool
	frames  atomic.Uint64
	renders atomic.Uint64

	// lastRenderErr suppresses repeated identical render errors in the log.
	lastRenderErr string
}

var _ Scheduler = &schedulerImpl{}

// NewScheduler creates a stopped Scheduler. Panics if req or render is nil.
//
// Parameters:
//   - req: the frame requester to schedule on
//   - render: the function that draws a frame
//   - options: functional options to configure the scheduler
//
// Returns:
//   - Scheduler: the scheduler
func NewScheduler(req FrameRequester, render RenderFunc, options ...SchedulerBuilderOption) Scheduler {
	if req == nil {
		panic("scheduler: NewScheduler requires a non-nil FrameRequester")
	}
	if render == nil {
		panic("scheduler: NewScheduler requires a non-nil RenderFunc")
	}
	s := &schedulerImpl{
		mu:       &sync.Mutex{},
		req:      req,
		render:   render,
		logger:   slog.Default(),
		maxDelta: 0.1,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *schedulerImpl) Start(t Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
	s.target = t
	s.running = true
	s.hasLast = false
	s.schedule(s.generation)
}

func (s *schedulerImpl) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
}

// stop cancels the pending request and invalidates in-flight callbacks. Caller must hold the mutex.
func (s *schedulerImpl) stop() {
	if s.pending {
		s.req.CancelFrame(s.handle)
		s.pending = false
	}
	s.running = false
	s.target = nil
	s.generation++
}

// schedule requests the next frame for generation gen. Caller must hold the mutex.
func (s *schedulerImpl) schedule(gen uint64) {
	if s.pending {
		return
	}
	s.handle = s.req.RequestFrame(func(now time.Time) {
		s.frame(gen, now)
	})
	s.pending = true
}

func (s *schedulerImpl) frame(gen uint64, now time.Time) {
	s.mu.Lock()
	if !s.running || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.pending = false
	var dt float32
	if s.hasLast {
		dt = float32(now.Sub(s.last).Seconds())
	}
	s.last, s.hasLast = now, true
	dt = common.SanitizeDelta(dt, s.maxDelta)
	target := s.target
	s.mu.Unlock()

	target.Animate(dt)

	draw := s.dirty.Swap(false)
	if target.RenderPolicy() == PolicyContinuous {
		draw = true
	}
	if draw {
		s.renders.Add(1)
		s.logRenderError(s.render())
	}
	s.frames.Add(1)

	s.mu.Lock()
	if s.running && gen == s.generation {
		s.schedule(gen)
	}
	s.mu.Unlock()
}

func (s *schedulerImpl) logRenderError(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == s.lastRenderErr {
		return
	}
	if err != nil {
		s.logger.Warn("render failed", "err", err)
	} else {
		s.logger.Info("render recovered")
	}
	s.lastRenderErr = msg
}

func (s *schedulerImpl) MarkDirty() {
	s.dirty.Store(true)
}

func (s *schedulerImpl) Dirty() bool {
	return s.dirty.Load()
}

func (s *schedulerImpl) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *schedulerImpl) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return 1
	}
	return 0
}

func (s *schedulerImpl) Frames() uint64 {
	return s.frames.Load()
}

func (s *schedulerImpl) Renders() uint64 {
	return s.renders.Load()
}
