package renderer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// gpuMesh holds the uploaded buffers of one scene mesh.
type gpuMesh struct {
	vertex *wgpu.Buffer
	index  *wgpu.Buffer
}

func (m *gpuMesh) release() {
	m.vertex.Release()
	m.index.Release()
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu     *sync.Mutex
	logger *slog.Logger

	dev       *wgpuDevice
	pipeline  *wgpu.RenderPipeline
	layout    *wgpu.BindGroupLayout
	bindGroup *wgpu.BindGroup
	cameraBuf *wgpu.Buffer
	shadeBuf  *wgpu.Buffer

	meshes       map[*scene.Mesh]*gpuMesh
	sceneVersion uint64
	synced       bool
	width        int
	height       int
	stats        Stats
	released     bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	sampleCount          MSAASampleCount
	clearColor           uint32
	fogDistance          float32
	culling              bool
}

// Renderer draws scene meshes with a single height-shaded WebGPU pipeline.
// Mesh buffers are uploaded on first use and released once their mesh leaves the scene.
// Chunks outside the camera frustum are skipped.
type Renderer interface {
	// Render draws one frame of the scene from the camera and presents it.
	// Before the first non-zero Resize this is a no-op.
	//
	// Parameters:
	//   - s: the scene to draw
	//   - c: the camera to draw from
	//
	// Returns:
	//   - error: a frame error; the renderer stays usable
	Render(s scene.Scene, c camera.Camera) error

	// Resize reconfigures the swapchain and depth targets. Zero sizes are ignored.
	//
	// Parameters:
	//   - width: the new framebuffer width in pixels
	//   - height: the new framebuffer height in pixels
	Resize(width, height int)

	// Stats returns the statistics of the most recent frame.
	//
	// Returns:
	//   - Stats: draw and culling counters
	Stats() Stats

	// Release frees every GPU resource. The renderer must not be used afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a WebGPU renderer for a window surface.
// Device or pipeline creation failures panic, since nothing can be drawn without them.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, see window.Window.SurfaceDescriptor
//   - width: the initial framebuffer width in pixels
//   - height: the initial framebuffer height in pixels
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the newly created renderer
func NewRenderer(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...RendererBuilderOption) Renderer {
	if surfaceDescriptor == nil {
		panic("renderer: NewRenderer requires a surface descriptor")
	}
	r := &renderer{
		mu:          &sync.Mutex{},
		logger:      slog.Default(),
		meshes:      make(map[*scene.Mesh]*gpuMesh),
		presentMode: PresentModeVSync,
		sampleCount: MSAA4x,
		clearColor:  DefaultClearColor,
		fogDistance: DefaultFogDistance,
		culling:     true,
	}
	for _, option := range options {
		option(r)
	}

	dev, err := newWGPUDevice(surfaceDescriptor, r.forceFallbackAdapter, r.sampleCount, r.presentMode)
	if err != nil {
		panic(fmt.Sprintf("renderer: %v", err))
	}
	r.dev = dev
	if err := r.initPipeline(); err != nil {
		panic(fmt.Sprintf("renderer: %v", err))
	}
	r.logger.Info("renderer ready", "format", uint32(dev.surfaceFormat), "msaa", uint32(r.sampleCount))
	r.Resize(width, height)
	return r
}

func (r *renderer) initPipeline() error {
	var camU camera.GPUCameraUniform
	var shadeU gpuShadeUniform

	pipeline, layout, err := r.dev.createMeshPipeline(uint64(camU.Size()), uint64(shadeU.Size()))
	if err != nil {
		return err
	}
	r.pipeline, r.layout = pipeline, layout

	if r.cameraBuf, err = r.dev.createBuffer("Camera Uniform", wgpu.BufferUsageUniform, camU.Marshal()); err != nil {
		return err
	}
	if r.shadeBuf, err = r.dev.createBuffer("Shade Uniform", wgpu.BufferUsageUniform, shadeU.Marshal()); err != nil {
		return err
	}
	r.bindGroup, err = r.dev.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Mesh Uniforms",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.cameraBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: r.shadeBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	return nil
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released || width <= 0 || height <= 0 {
		return
	}
	if width == r.width && height == r.height {
		return
	}
	if err := r.dev.configure(width, height, r.clearValue()); err != nil {
		r.logger.Error("surface configuration failed", "width", width, "height", height, "err", err)
		return
	}
	r.width, r.height = width, height
}

func (r *renderer) Render(s scene.Scene, c camera.Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released || r.width == 0 || r.height == 0 {
		return nil
	}

	nodes := s.Nodes()
	if v := s.Version(); !r.synced || v != r.sceneVersion {
		if err := r.syncMeshes(nodes); err != nil {
			return err
		}
		r.sceneVersion, r.synced = v, true
	}

	var frustum *common.Frustum
	if r.culling {
		f := common.FrustumFromMatrix(c.ViewProjectionMatrix())
		frustum = &f
	}
	draws, stats := buildDrawList(nodes, frustum)

	camU := camera.UniformFromCamera(c)
	lo, hi := heightRange(nodes)
	shadeU := gpuShadeUniform{
		MinHeight:   lo,
		MaxHeight:   hi,
		FogDistance: r.fogDistance,
		FogColor:    colorFromHex(r.clearColor),
	}
	r.dev.queue.WriteBuffer(r.cameraBuf, 0, camU.Marshal())
	r.dev.queue.WriteBuffer(r.shadeBuf, 0, shadeU.Marshal())

	if err := r.dev.beginFrame(); err != nil {
		return err
	}
	pass := r.dev.framePass
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	var bound *scene.Mesh
	for _, d := range draws {
		gm := r.meshes[d.mesh]
		if gm == nil {
			continue
		}
		if d.mesh != bound {
			pass.SetVertexBuffer(0, gm.vertex, 0, wgpu.WholeSize)
			pass.SetIndexBuffer(gm.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
			bound = d.mesh
		}
		pass.DrawIndexed(d.indexCount, 1, d.firstIndex, 0, 0)
	}
	if err := r.dev.endFrame(); err != nil {
		return err
	}
	r.stats = stats
	return nil
}

// syncMeshes uploads meshes new to the scene and releases buffers of meshes no longer in it.
func (r *renderer) syncMeshes(nodes []*scene.Node) error {
	live := make(map[*scene.Mesh]bool, len(nodes))
	for _, n := range nodes {
		if n == nil || n.Mesh == nil || n.Mesh.TriangleCount() == 0 {
			continue
		}
		live[n.Mesh] = true
		if _, ok := r.meshes[n.Mesh]; ok {
			continue
		}
		gm, err := r.upload(n.Name, n.Mesh)
		if err != nil {
			return fmt.Errorf("renderer: upload %q: %w", n.Name, err)
		}
		r.meshes[n.Mesh] = gm
		r.logger.Debug("mesh uploaded", "node", n.Name, "triangles", n.Mesh.TriangleCount(), "chunks", len(n.Mesh.Chunks()))
	}
	for m, gm := range r.meshes {
		if !live[m] {
			gm.release()
			delete(r.meshes, m)
		}
	}
	return nil
}

func (r *renderer) upload(name string, m *scene.Mesh) (*gpuMesh, error) {
	vertex, err := r.dev.createBuffer(name+" Vertex Buffer", wgpu.BufferUsageVertex, common.SliceToBytes(m.Positions()))
	if err != nil {
		return nil, err
	}
	index, err := r.dev.createBuffer(name+" Index Buffer", wgpu.BufferUsageIndex, common.SliceToBytes(m.Indices()))
	if err != nil {
		vertex.Release()
		return nil, err
	}
	return &gpuMesh{vertex: vertex, index: index}, nil
}

func (r *renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true
	for m, gm := range r.meshes {
		gm.release()
		delete(r.meshes, m)
	}
	if r.bindGroup != nil {
		r.bindGroup.Release()
	}
	if r.cameraBuf != nil {
		r.cameraBuf.Release()
	}
	if r.shadeBuf != nil {
		r.shadeBuf.Release()
	}
	if r.layout != nil {
		r.layout.Release()
	}
	if r.pipeline != nil {
		r.pipeline.Release()
	}
	r.dev.release()
}

func (r *renderer) clearValue() wgpu.Color {
	c := colorFromHex(r.clearColor)
	return wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: 1}
}
