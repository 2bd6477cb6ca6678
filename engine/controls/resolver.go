package controls

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

type resolverImpl struct {
	mu        *sync.RWMutex
	factories map[Mode]Factory

	movement  MovementConfig
	orbit     OrbitConfig
	mapConfig OrbitConfig
	trackball TrackballConfig

	workers int
	poolMu  *sync.RWMutex
	pool    worker.DynamicWorkerPool
	taskID  atomic.Int64
}

// Resolver maps a mode name to the factory of its provider.
// Lookups may complete asynchronously; callers wait on the context.
type Resolver interface {
	// Resolve finds the factory for mode.
	//
	// Parameters:
	//   - ctx: bounds the wait for an asynchronous lookup
	//   - mode: the requested mode
	//
	// Returns:
	//   - Factory: the factory for mode
	//   - error: a *ConfigurationError for an unknown mode, or ctx.Err()
	Resolve(ctx context.Context, mode Mode) (Factory, error)

	// Register installs or replaces the factory for mode.
	//
	// Parameters:
	//   - mode: the mode tag
	//   - f: the factory; nil removes the mode
	Register(mode Mode, f Factory)

	// Modes returns every registered mode, sorted.
	//
	// Returns:
	//   - []Mode: the registered modes
	Modes() []Mode

	// Stop releases the lookup workers. Later lookups complete inline. Safe to call more than once.
	Stop()
}

var _ Resolver = &resolverImpl{}

// NewResolver creates a resolver with the four built-in modes registered.
//
// Parameters:
//   - options: functional options to configure the built-in modes and the lookup pool
//
// Returns:
//   - Resolver: the newly created resolver
func NewResolver(options ...ResolverBuilderOption) Resolver {
	r := &resolverImpl{
		mu:        &sync.RWMutex{},
		poolMu:    &sync.RWMutex{},
		factories: make(map[Mode]Factory),
		movement:  DefaultMovementConfig(),
		orbit:     DefaultOrbitConfig(),
		mapConfig: DefaultMapConfig(),
		trackball: DefaultTrackballConfig(),
		workers:   1,
	}
	for _, option := range options {
		option(r)
	}

	r.factories[ModePointerLock] = func(b Bindings) (Provider, error) {
		p, err := NewPointerLock(b, r.movement)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	r.factories[ModeMap] = func(b Bindings) (Provider, error) {
		return newOrbitProvider(ModeMap, b, r.mapConfig)
	}
	r.factories[ModeOrbit] = func(b Bindings) (Provider, error) {
		return newOrbitProvider(ModeOrbit, b, r.orbit)
	}
	r.factories[ModeTrackball] = func(b Bindings) (Provider, error) {
		t, err := NewTrackball(b, r.trackball)
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	if r.workers > 0 {
		r.pool = worker.NewDynamicWorkerPool(r.workers, 256, 1*time.Second)
	}
	return r
}

func newOrbitProvider(mode Mode, b Bindings, cfg OrbitConfig) (Provider, error) {
	o, err := NewOrbit(mode, b, cfg)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *resolverImpl) Resolve(ctx context.Context, mode Mode) (Factory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.poolMu.RLock()
	defer r.poolMu.RUnlock()
	if r.pool == nil {
		return r.lookup(mode)
	}

	type result struct {
		f   Factory
		err error
	}
	done := make(chan result, 1)
	r.pool.SubmitTask(worker.Task{
		ID: int(r.taskID.Add(1)),
		Do: func() (any, error) {
			f, err := r.lookup(mode)
			done <- result{f: f, err: err}
			return nil, nil
		},
	})

	select {
	case res := <-done:
		return res.f, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *resolverImpl) Register(mode Mode, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f == nil {
		delete(r.factories, mode)
		return
	}
	r.factories[mode] = f
}

func (r *resolverImpl) Modes() []Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	modes := make([]Mode, 0, len(r.factories))
	for m := range r.factories {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

func (r *resolverImpl) Stop() {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()
	if r.pool != nil {
		r.pool.Stop()
		r.pool = nil
	}
}

func (r *resolverImpl) lookup(mode Mode) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[mode]
	if !ok {
		return nil, &ConfigurationError{Mode: mode}
	}
	return f, nil
}
