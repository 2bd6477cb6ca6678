package scene

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// ErrDuplicateNode is returned by Add when a node with the same name already exists.
var ErrDuplicateNode = errors.New("scene: duplicate node name")

// Node is a named entry in the scene graph.
// Nodes without a Mesh are logical anchors (e.g. a control rig) and are never hit by raycasts.
type Node struct {
	Name string
	Mesh *Mesh
	// Hidden nodes stay raycastable but are skipped by the renderer.
	Hidden bool
}

// Scene is the scene graph root shared by the renderer and every camera control mode.
// Thread-safe for concurrent access; meshes are immutable so raycasts run outside the lock.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Add inserts a node.
	//
	// Parameters:
	//   - n: the node to add
	//
	// Returns:
	//   - error: ErrDuplicateNode if the name is taken
	Add(n *Node) error

	// Set inserts a node or replaces the node with the same name.
	//
	// Parameters:
	//   - n: the node to store
	Set(n *Node)

	// Remove deletes a node by name.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - bool: true if a node was removed
	Remove(name string) bool

	// Find looks up a node by name.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - *Node: the node, or nil if absent
	Find(name string) *Node

	// Nodes returns all nodes in insertion order.
	//
	// Returns:
	//   - []*Node: a snapshot of the node list
	Nodes() []*Node

	// Count returns the number of nodes.
	Count() int

	// Version increments on every structural change. Renderers use it to detect stale GPU buffers.
	Version() uint64

	// SetChangeCallback sets the function called after every structural change.
	//
	// Parameters:
	//   - cb: function to call (or nil to disable)
	SetChangeCallback(cb func())

	// Raycast finds the nearest intersection of r with the mesh of the named node.
	// An absent node, a node without a mesh, or an empty mesh yields no hit, never an error.
	//
	// Parameters:
	//   - name: the node whose mesh is tested
	//   - r: the ray
	//   - near: minimum accepted distance
	//   - far: maximum accepted distance
	//
	// Returns:
	//   - common.Hit: the nearest hit (valid only when ok)
	//   - bool: true if something was hit
	Raycast(name string, r common.Ray, near, far float32) (common.Hit, bool)

	// Stop releases the raycast workers. Later raycasts run serially. Safe to call more than once.
	Stop()
}

type scene struct {
	mu *sync.RWMutex

	name    string
	nodes   map[string]*Node
	order   []string
	version uint64

	onChange func()

	// raycastPool tests chunks in parallel for meshes above parallelChunks chunks.
	// Workers persist between casts, avoiding per-frame goroutine spawn/teardown.
	// poolMu is held shared for the length of a parallel cast and exclusively by Stop.
	poolMu         *sync.RWMutex
	raycastPool    worker.DynamicWorkerPool
	raycastWorkers int
	parallelChunks int
}

var _ Scene = &scene{}

// NewScene creates an empty Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:             &sync.RWMutex{},
		poolMu:         &sync.RWMutex{},
		name:           name,
		nodes:          make(map[string]*Node),
		raycastWorkers: max(runtime.NumCPU()-1, 1),
		parallelChunks: 8,
	}
	for _, option := range options {
		option(s)
	}
	// Initialize the pool after options so WithRaycastWorkers can override the default.
	if s.raycastWorkers > 1 {
		s.raycastPool = worker.NewDynamicWorkerPool(s.raycastWorkers, 256, 1*time.Second)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Add(n *Node) error {
	s.mu.Lock()
	if _, ok := s.nodes[n.Name]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.Name)
	}
	s.insert(n)
	cb := s.onChange
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

func (s *scene) Set(n *Node) {
	s.mu.Lock()
	if _, ok := s.nodes[n.Name]; ok {
		s.nodes[n.Name] = n
		s.version++
	} else {
		s.insert(n)
	}
	cb := s.onChange
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// insert appends a new node. Caller must hold the write lock.
func (s *scene) insert(n *Node) {
	s.nodes[n.Name] = n
	s.order = append(s.order, n.Name)
	s.version++
}

func (s *scene) Remove(name string) bool {
	s.mu.Lock()
	if _, ok := s.nodes[name]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.nodes, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.version++
	cb := s.onChange
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
	return true
}

func (s *scene) Find(name string) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[name]
}

func (s *scene) Nodes() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Node, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.nodes[name])
	}
	return out
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func (s *scene) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *scene) SetChangeCallback(cb func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = cb
}

func (s *scene) Raycast(name string, r common.Ray, near, far float32) (common.Hit, bool) {
	s.mu.RLock()
	n := s.nodes[name]
	s.mu.RUnlock()

	if n == nil || n.Mesh == nil || r.Degenerate() || !(far > near) {
		return common.Hit{}, false
	}

	var candidates []Chunk
	for _, c := range n.Mesh.chunks {
		if r.IntersectsSphere(c.Center, c.Radius, far) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return common.Hit{}, false
	}

	var hit common.Hit
	var ok bool
	s.poolMu.RLock()
	if s.raycastPool != nil && len(candidates) >= s.parallelChunks {
		hit, ok = s.raycastParallel(n.Mesh, candidates, r, near, far)
	} else {
		hit, ok = raycastSerial(n.Mesh, candidates, r, near, far)
	}
	s.poolMu.RUnlock()
	if ok {
		hit.Object = name
	}
	return hit, ok
}

func (s *scene) Stop() {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	if s.raycastPool != nil {
		s.raycastPool.Stop()
		s.raycastPool = nil
	}
}

func raycastSerial(m *Mesh, chunks []Chunk, r common.Ray, near, far float32) (common.Hit, bool) {
	best := common.Hit{Distance: far}
	found := false
	for _, c := range chunks {
		if h, ok := m.raycastChunk(c, r, near, best.Distance); ok {
			best, found = h, true
		}
	}
	return best, found
}

// raycastParallel fans candidate chunks out over the worker pool.
// A WaitGroup acts as the barrier since pool.Wait() blocks until workers idle-exit.
func (s *scene) raycastParallel(m *Mesh, chunks []Chunk, r common.Ray, near, far float32) (common.Hit, bool) {
	type result struct {
		hit common.Hit
		ok  bool
	}
	results := make([]result, len(chunks))

	var wg sync.WaitGroup
	for i, c := range chunks {
		wg.Add(1)
		s.raycastPool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				h, ok := m.raycastChunk(c, r, near, far)
				results[i] = result{hit: h, ok: ok}
				return nil, nil
			},
		})
	}
	wg.Wait()

	best := common.Hit{Distance: far}
	found := false
	for _, res := range results {
		if res.ok && res.hit.Distance <= best.Distance {
			best, found = res.hit, true
		}
	}
	return best, found
}
