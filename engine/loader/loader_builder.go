package loader

import "log/slog"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithChunkTriangles sets the triangles per culling/raycast chunk of produced meshes.
// Values <= 0 use scene.DefaultChunkTriangles.
//
// Parameters:
//   - n: triangles per chunk
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithChunkTriangles(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.chunkTriangles = n
	}
}

// WithLogger sets the structured logger used for load reports.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
