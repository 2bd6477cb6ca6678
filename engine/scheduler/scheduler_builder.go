package scheduler

import (
	"log/slog"
	"time"
)

// SchedulerBuilderOption is a functional option for configuring a Scheduler.
type SchedulerBuilderOption func(s *schedulerImpl)

// WithMaxDelta caps the frame delta handed to Animate, so a stalled frame cannot
// launch the simulation forward. Zero disables the cap.
//
// Parameters:
//   - d: the largest step a single frame may take
//
// Returns:
//   - SchedulerBuilderOption: option function to apply
func WithMaxDelta(d time.Duration) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		s.maxDelta = float32(d.Seconds())
	}
}

// WithLogger sets the logger used for render failures.
//
// Parameters:
//   - logger: the logger (nil keeps slog.Default)
//
// Returns:
//   - SchedulerBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}
