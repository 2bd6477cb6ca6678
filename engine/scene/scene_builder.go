package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithNodes adds initial nodes to the scene. Later nodes replace earlier ones with the same name.
//
// Parameters:
//   - nodes: the nodes to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithNodes(nodes ...*Node) SceneBuilderOption {
	return func(s *scene) {
		for _, n := range nodes {
			if _, ok := s.nodes[n.Name]; ok {
				s.nodes[n.Name] = n
				continue
			}
			s.insert(n)
		}
	}
}

// WithRaycastWorkers sets the number of worker goroutines used for chunk-parallel raycasts.
// Defaults to runtime.NumCPU()-1. A value of 1 or less disables the pool and casts serially.
//
// Parameters:
//   - n: the number of workers
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRaycastWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.raycastWorkers = n
	}
}

// WithParallelChunks sets the candidate chunk count at which raycasts switch to the worker pool.
//
// Parameters:
//   - n: the chunk threshold
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithParallelChunks(n int) SceneBuilderOption {
	return func(s *scene) {
		if n > 0 {
			s.parallelChunks = n
		}
	}
}
