package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// quadBuffer returns a unit quad on the XZ plane: 4 float positions then 6 uint16 indices.
func quadBuffer() []byte {
	var buf bytes.Buffer
	for _, p := range [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}} {
		for _, c := range p {
			_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(c))
		}
	}
	for _, i := range []uint16{0, 1, 2, 0, 2, 3} {
		_ = binary.Write(&buf, binary.LittleEndian, i)
	}
	return buf.Bytes()
}

const quadDocument = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"translation": [0, 2, 0], "children": [1]},
    {"mesh": 0, "scale": [2, 2, 2]}
  ],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 4, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5123, "count": 6, "type": "SCALAR"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteLength": 48},
    {"buffer": 0, "byteOffset": 48, "byteLength": 12}
  ],
  "buffers": [{%s"byteLength": 60}]
}`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeGLTF(t *testing.T, dir string) string {
	uri := `"uri": "data:application/octet-stream;base64,` + base64.StdEncoding.EncodeToString(quadBuffer()) + `", `
	return writeFile(t, dir, "quad.gltf", []byte(fmt.Sprintf(quadDocument, uri)))
}

func writeGLB(t *testing.T, dir string) string {
	jsonChunk := []byte(fmt.Sprintf(quadDocument, ""))
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	binChunk := quadBuffer()
	for len(binChunk)%4 != 0 {
		binChunk = append(binChunk, 0)
	}

	var buf bytes.Buffer
	total := 12 + 8 + len(jsonChunk) + 8 + len(binChunk)
	_ = binary.Write(&buf, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)})
	_ = binary.Write(&buf, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonChunk)), ChunkType: gltfGLBChunkJSON})
	buf.Write(jsonChunk)
	_ = binary.Write(&buf, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(binChunk)), ChunkType: gltfGLBChunkBIN})
	buf.Write(binChunk)
	return writeFile(t, dir, "quad.glb", buf.Bytes())
}

const asciiQuadPLY = `ply
format ascii 1.0
comment unit quad
element vertex 4
property float x
property float y
property float z
property uchar red
element face 1
property list uchar int vertex_indices
end_header
0 0 0 255
1 0 0 255
1 0 1 255
0 0 1 255
4 0 1 2 3
`

func assertBounds(t *testing.T, lo, hi, wantLo, wantHi mgl32.Vec3) {
	t.Helper()
	assert.True(t, lo.ApproxEqualThreshold(wantLo, 1e-5), "min %v, want %v", lo, wantLo)
	assert.True(t, hi.ApproxEqualThreshold(wantHi, 1e-5), "max %v, want %v", hi, wantHi)
}

func TestLoadGLTFAppliesNodeTransforms(t *testing.T) {
	l := NewLoader(WithLogger(quiet()))
	m, err := l.Load(writeGLTF(t, t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, 2, m.TriangleCount())
	lo, hi := m.Bounds()
	assertBounds(t, lo, hi, mgl32.Vec3{0, 2, 0}, mgl32.Vec3{2, 2, 2})
}

func TestLoadGLBMatchesGLTF(t *testing.T) {
	l := NewLoader(WithLogger(quiet()))
	m, err := l.Load(writeGLB(t, t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Indices())
	lo, hi := m.Bounds()
	assertBounds(t, lo, hi, mgl32.Vec3{0, 2, 0}, mgl32.Vec3{2, 2, 2})
}

func TestLoadRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(WithLogger(quiet()))

	_, err := l.Load(writeFile(t, dir, "model.obj", []byte("o cube")))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.Load(writeFile(t, dir, "old.gltf", []byte(`{"asset": {"version": "1.0"}}`)))
	assert.ErrorIs(t, err, errInvalidGLTFVersion)

	short := fmt.Sprintf(quadDocument, `"uri": "data:application/octet-stream;base64,AAAA", `)
	_, err = l.Load(writeFile(t, dir, "short.gltf", []byte(short)))
	assert.ErrorIs(t, err, errBufferSizeMismatch)

	_, err = l.Load(filepath.Join(dir, "missing.ply"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadASCIIPLYTriangulatesPolygons(t *testing.T) {
	l := NewLoader(WithLogger(quiet()))
	m, err := l.Load(writeFile(t, t.TempDir(), "quad.ply", []byte(asciiQuadPLY)))
	require.NoError(t, err)

	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Indices())
	lo, hi := m.Bounds()
	assertBounds(t, lo, hi, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 1})
}

func TestLoadBinaryPLY(t *testing.T) {
	for _, tc := range []struct {
		format string
		order  binary.ByteOrder
	}{
		{"binary_little_endian", binary.LittleEndian},
		{"binary_big_endian", binary.BigEndian},
	} {
		t.Run(tc.format, func(t *testing.T) {
			var buf bytes.Buffer
			buf.WriteString("ply\nformat " + tc.format + " 1.0\n" +
				"element vertex 3\nproperty double x\nproperty double y\nproperty double z\n" +
				"element face 1\nproperty list uchar uint vertex_index\nend_header\n")
			for _, p := range [][3]float64{{0, 0, 0}, {4, 0, 0}, {0, 3, 0}} {
				_ = binary.Write(&buf, tc.order, p)
			}
			_ = binary.Write(&buf, tc.order, uint8(3))
			_ = binary.Write(&buf, tc.order, []uint32{2, 1, 0})

			l := NewLoader(WithLogger(quiet()))
			m, err := l.Load(writeFile(t, t.TempDir(), "tri.ply", buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, []uint32{2, 1, 0}, m.Indices())
			lo, hi := m.Bounds()
			assertBounds(t, lo, hi, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{4, 3, 0})
		})
	}
}

func TestParsePLYErrors(t *testing.T) {
	_, err := parsePLY(bytes.NewBufferString("obj\n"))
	assert.ErrorIs(t, err, errInvalidPLYMagic)

	_, err = parsePLY(bytes.NewBufferString("ply\nformat binary_middle_endian 1.0\nend_header\n"))
	assert.ErrorIs(t, err, errInvalidPLYFormat)

	_, err = parsePLY(bytes.NewBufferString("ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nend_header\n1\n"))
	assert.ErrorIs(t, err, errPLYMissingXYZ)

	_, err = parsePLY(bytes.NewBufferString("ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n"))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestObjectTransformOrder(t *testing.T) {
	obj := Object{
		File:     "a.ply",
		Position: []float32{1, 0, 0},
		Scale:    2,
		Matrix:   []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 5, 0, 1},
	}
	m, err := obj.Transform()
	require.NoError(t, err)
	got := mgl32.TransformCoordinate(mgl32.Vec3{1, 1, 1}, m)
	assert.True(t, got.ApproxEqual(mgl32.Vec3{3, 7, 2}), "got %v", got)

	_, err = Object{File: "a.ply", Matrix: []float32{1, 2}}.Transform()
	assert.Error(t, err)
}

func TestLoadObjectListMergesPlacedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quad.ply", []byte(asciiQuadPLY))
	list := writeFile(t, dir, "scene.json", []byte(`{"objects": [
		{"file": "quad.ply", "name": "a"},
		{"file": "quad.ply", "name": "b", "position": [10, 0, 0], "scale": 2}
	]}`))

	l := NewLoader(WithLogger(quiet()))
	m, err := l.Load(list)
	require.NoError(t, err)

	assert.Equal(t, 4, m.TriangleCount())
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}, m.Indices())
	lo, hi := m.Bounds()
	assertBounds(t, lo, hi, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{12, 0, 2})
	assert.Same(t, m, l.Get(list))
	assert.Equal(t, []string{filepath.Join(dir, "quad.ply")}, l.Files())

	_, err = l.LoadObjects(dir, []Object{{Name: "nofile"}})
	assert.Error(t, err)
}

func TestLoadReparsesChangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quad.ply", []byte(asciiQuadPLY))
	l := NewLoader(WithLogger(quiet())).(*loader)

	_, err := l.Load(path)
	require.NoError(t, err)
	first := l.cache[path].geom

	_, err = l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, l.cache[path].geom, "unchanged files come from the cache")

	tri := "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
		"element face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n5 0 0\n0 0 5\n3 0 1 2\n"
	require.NoError(t, os.WriteFile(path, []byte(tri), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	m, err := l.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, first, l.cache[path].geom)
	assert.Equal(t, 1, m.TriangleCount())
}

func TestPrimitiveTopologies(t *testing.T) {
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 3, 2, 3, 4}, stripToList([]uint32{0, 1, 2, 3, 4}))
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, fanToList([]uint32{0, 1, 2, 3}))
	assert.Nil(t, stripToList([]uint32{0, 1}))
	assert.Nil(t, fanToList(nil))
}
