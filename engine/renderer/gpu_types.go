package renderer

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// meshShaderSource is the height-shaded mesh pipeline. Group 0 holds the camera and shade uniforms.
//
//go:embed assets/mesh.wgsl
var meshShaderSource string

// vertexStride is one tightly packed vec3<f32> position.
const vertexStride = 12

// gpuShadeUniform matches the ShadeUniform struct in assets/mesh.wgsl.
// Size: 32 bytes (WGSL aligned).
type gpuShadeUniform struct {
	MinHeight   float32    // offset  0
	MaxHeight   float32    // offset  4
	FogDistance float32    // offset  8
	_pad        float32    // offset 12
	FogColor    [4]float32 // offset 16
}

func (g *gpuShadeUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *gpuShadeUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.MinHeight))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.MaxHeight))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(g.FogDistance))
	for i, v := range g.FogColor {
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(v))
	}
	return buf
}
