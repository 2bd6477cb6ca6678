package loader

import (
	"fmt"
	"os"
)

// loaderBackend reads one model file format into a world-space triangle list.
type loaderBackend interface {
	// Load parses the file at path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *geometry: the file's triangles
	//   - error: error if loading fails
	Load(path string) (*geometry, error)
}

// plyLoaderBackendImpl reads ascii and binary PLY files.
type plyLoaderBackendImpl struct{}

var _ loaderBackend = &plyLoaderBackendImpl{}

func newPLYLoaderBackend() loaderBackend {
	return &plyLoaderBackendImpl{}
}

func (b *plyLoaderBackendImpl) Load(path string) (*geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()
	return parsePLY(f)
}
