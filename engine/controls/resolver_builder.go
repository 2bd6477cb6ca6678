package controls

// ResolverBuilderOption is a functional option for configuring a Resolver.
type ResolverBuilderOption func(*resolverImpl)

// WithMovement sets the walking constants of the pointer-lock mode.
//
// Parameters:
//   - cfg: the movement settings
//
// Returns:
//   - ResolverBuilderOption: a function that applies the settings
func WithMovement(cfg MovementConfig) ResolverBuilderOption {
	return func(r *resolverImpl) {
		r.movement = cfg
	}
}

// WithOrbit sets the orbit-mode settings.
//
// Parameters:
//   - cfg: the orbit settings
//
// Returns:
//   - ResolverBuilderOption: a function that applies the settings
func WithOrbit(cfg OrbitConfig) ResolverBuilderOption {
	return func(r *resolverImpl) {
		r.orbit = cfg
	}
}

// WithMap sets the map-mode settings.
//
// Parameters:
//   - cfg: the map settings
//
// Returns:
//   - ResolverBuilderOption: a function that applies the settings
func WithMap(cfg OrbitConfig) ResolverBuilderOption {
	return func(r *resolverImpl) {
		r.mapConfig = cfg
	}
}

// WithTrackball sets the trackball-mode settings.
//
// Parameters:
//   - cfg: the trackball settings
//
// Returns:
//   - ResolverBuilderOption: a function that applies the settings
func WithTrackball(cfg TrackballConfig) ResolverBuilderOption {
	return func(r *resolverImpl) {
		r.trackball = cfg
	}
}

// WithResolveWorkers sets the number of pool workers that run lookups.
// Zero resolves synchronously on the caller's goroutine.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - ResolverBuilderOption: a function that sets the worker count
func WithResolveWorkers(n int) ResolverBuilderOption {
	return func(r *resolverImpl) {
		if n < 0 {
			n = 0
		}
		r.workers = n
	}
}
