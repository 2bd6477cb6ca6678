package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnsupportedFormat is returned for model files whose extension no backend reads.
var ErrUnsupportedFormat = errors.New("loader: unsupported model format")

// Object places one model file in the world. It is the entry type of JSON object lists
// and of the [[objects]] config section.
type Object struct {
	// File is the model path, relative to the list file's directory unless absolute.
	File string `json:"file" toml:"file"`
	Name string `json:"name,omitempty" toml:"name"`
	// Position is an optional translation.
	Position []float32 `json:"position,omitempty" toml:"position"`
	// Scale is a uniform scale; 0 means 1.
	Scale float32 `json:"scale,omitempty" toml:"scale"`
	// Matrix is an optional column-major 4x4 transform applied after position and scale.
	Matrix []float32 `json:"matrix,omitempty" toml:"matrix"`
}

// Transform returns Matrix * T(Position) * S(Scale).
//
// Returns:
//   - mgl32.Mat4: the object's world transform
//   - error: error if Position or Matrix has the wrong length
func (o Object) Transform() (mgl32.Mat4, error) {
	m := mgl32.Ident4()
	if len(o.Matrix) > 0 {
		if len(o.Matrix) != 16 {
			return m, fmt.Errorf("object %q: matrix has %d values, want 16", o.name(), len(o.Matrix))
		}
		copy(m[:], o.Matrix)
	}
	if len(o.Position) > 0 {
		if len(o.Position) != 3 {
			return m, fmt.Errorf("object %q: position has %d values, want 3", o.name(), len(o.Position))
		}
		m = m.Mul4(mgl32.Translate3D(o.Position[0], o.Position[1], o.Position[2]))
	}
	if o.Scale != 0 && o.Scale != 1 {
		m = m.Mul4(mgl32.Scale3D(o.Scale, o.Scale, o.Scale))
	}
	return m, nil
}

func (o Object) name() string {
	if o.Name != "" {
		return o.Name
	}
	return o.File
}

type objectList struct {
	Objects []Object `json:"objects"`
}

// cacheEntry is a parsed file keyed by its modification time and size.
type cacheEntry struct {
	modTime time.Time
	size    int64
	geom    *geometry
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu     sync.RWMutex
	logger *slog.Logger

	chunkTriangles int
	cache          map[string]cacheEntry
	meshes         map[string]*scene.Mesh

	backends map[string]loaderBackend
}

// Loader reads model files into world-space scene meshes.
// glTF/GLB and PLY files load directly; .json files are object lists merged into one mesh.
// Parsed files are cached until their size or modification time changes.
type Loader interface {
	// Load reads a model file or object list.
	//
	// Parameters:
	//   - path: a .gltf, .glb, .ply or .json file
	//
	// Returns:
	//   - *scene.Mesh: the merged world-space mesh
	//   - error: ErrUnsupportedFormat, or a wrapped read/parse error
	Load(path string) (*scene.Mesh, error)

	// LoadObjects loads and merges a list of placed model files.
	//
	// Parameters:
	//   - baseDir: directory relative object paths resolve against
	//   - objects: the objects to place
	//
	// Returns:
	//   - *scene.Mesh: the merged world-space mesh
	//   - error: error if any object fails to load
	LoadObjects(baseDir string, objects []Object) (*scene.Mesh, error)

	// Get returns the mesh most recently produced by Load for a path, or nil.
	//
	// Parameters:
	//   - path: the path passed to Load
	//
	// Returns:
	//   - *scene.Mesh: the mesh or nil
	Get(path string) *scene.Mesh

	// Files returns every model file read by loads so far, for watching.
	//
	// Returns:
	//   - []string: cleaned file paths
	Files() []string
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the glTF and PLY backends registered.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	gltf := newGLTFLoaderBackend()
	l := &loader{
		logger: slog.Default(),
		cache:  make(map[string]cacheEntry),
		meshes: make(map[string]*scene.Mesh),
		backends: map[string]loaderBackend{
			".gltf": gltf,
			".glb":  gltf,
			".ply":  newPLYLoaderBackend(),
		},
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*scene.Mesh, error) {
	path = filepath.Clean(path)
	var (
		g   *geometry
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		g, err = l.loadObjectList(path)
	} else {
		g, err = l.geometry(path)
	}
	if err != nil {
		return nil, err
	}

	m, err := g.mesh(l.chunkTriangles)
	if err != nil {
		return nil, fmt.Errorf("failed to build mesh for %s: %w", path, err)
	}
	l.mu.Lock()
	l.meshes[path] = m
	l.mu.Unlock()

	l.logger.Info("model loaded", "path", path, "triangles", m.TriangleCount(), "chunks", len(m.Chunks()))
	return m, nil
}

func (l *loader) LoadObjects(baseDir string, objects []Object) (*scene.Mesh, error) {
	g, err := l.mergeObjects(baseDir, objects)
	if err != nil {
		return nil, err
	}
	return g.mesh(l.chunkTriangles)
}

func (l *loader) Get(path string) *scene.Mesh {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.meshes[filepath.Clean(path)]
}

func (l *loader) Files() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	files := make([]string, 0, len(l.cache))
	for path := range l.cache {
		files = append(files, path)
	}
	return files
}

func (l *loader) loadObjectList(path string) (*geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read object list: %w", err)
	}
	var list objectList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse object list %s: %w", path, err)
	}
	return l.mergeObjects(filepath.Dir(path), list.Objects)
}

func (l *loader) mergeObjects(baseDir string, objects []Object) (*geometry, error) {
	merged := &geometry{}
	for i, obj := range objects {
		if obj.File == "" {
			return nil, fmt.Errorf("object %d has no file", i)
		}
		m, err := obj.Transform()
		if err != nil {
			return nil, err
		}
		file := obj.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, filepath.FromSlash(file))
		}
		if strings.EqualFold(filepath.Ext(file), ".json") {
			return nil, fmt.Errorf("object %q: nested object lists are not supported", obj.name())
		}
		g, err := l.geometry(filepath.Clean(file))
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", obj.name(), err)
		}
		merged.merge(g, m)
	}
	return merged, nil
}

// geometry returns the cached parse of path, re-reading it when the file changed.
func (l *loader) geometry(path string) (*geometry, error) {
	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.mu.RLock()
	cached, ok := l.cache[path]
	l.mu.RUnlock()
	if ok && cached.size == info.Size() && cached.modTime.Equal(info.ModTime()) {
		return cached.geom, nil
	}

	g, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.mu.Lock()
	l.cache[path] = cacheEntry{modTime: info.ModTime(), size: info.Size(), geom: g}
	l.mu.Unlock()
	l.logger.Debug("model parsed", "path", path, "triangles", g.triangles())
	return g, nil
}

// resolveBackend selects a loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if b, ok := l.backends[ext]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}
