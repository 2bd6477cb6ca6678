package loader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor flattens the triangle primitives of a parsed glTF document
// into one world-space triangle list.
type gltfMeshExtractor interface {
	// Extract walks the default scene's node hierarchy, transforming every triangle
	// primitive by its node's world matrix. Point and line primitives are skipped.
	//
	// Returns:
	//   - *geometry: the merged triangles
	//   - error: error if the document is missing or an accessor is malformed
	Extract() (*geometry, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) Extract() (*geometry, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	g := &geometry{}
	visited := make([]bool, len(doc.Nodes))
	for _, root := range gltfRootNodes(doc) {
		if err := e.walk(doc, root, mgl32.Ident4(), visited, g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (e *gltfMeshExtractorImpl) walk(doc *gltfDocument, nodeIndex int, parent mgl32.Mat4, visited []bool, g *geometry) error {
	if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", nodeIndex)
	}
	if visited[nodeIndex] {
		return fmt.Errorf("node %d is reachable twice", nodeIndex)
	}
	visited[nodeIndex] = true

	node := &doc.Nodes[nodeIndex]
	world := parent.Mul4(gltfLocalMatrix(node))

	if node.Mesh != nil {
		if *node.Mesh < 0 || *node.Mesh >= len(doc.Meshes) {
			return fmt.Errorf("node %d: mesh index %d out of range", nodeIndex, *node.Mesh)
		}
		mesh := &doc.Meshes[*node.Mesh]
		for primIdx := range mesh.Primitives {
			if err := e.extractPrimitive(&mesh.Primitives[primIdx], world, g); err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", *node.Mesh, primIdx, err)
			}
		}
	}

	for _, child := range node.Children {
		if err := e.walk(doc, child, world, visited, g); err != nil {
			return err
		}
	}
	return nil
}

func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive, world mgl32.Mat4, g *geometry) error {
	mode := gltfPrimitiveModeTriangles
	if prim.Mode != nil {
		mode = *prim.Mode
	}
	if mode != gltfPrimitiveModeTriangles && mode != gltfPrimitiveModeTriangleStrip && mode != gltfPrimitiveModeTriangleFan {
		return nil
	}

	posAcc, ok := prim.Attributes[gltfAttributePosition]
	if !ok {
		return fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := e.parser.ReadVec3Accessor(posAcc)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = e.parser.ReadIndicesAccessor(*prim.Indices); err != nil {
			return fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	switch mode {
	case gltfPrimitiveModeTriangleStrip:
		indices = stripToList(indices)
	case gltfPrimitiveModeTriangleFan:
		indices = fanToList(indices)
	default:
		indices = indices[:len(indices)/3*3]
	}

	return g.append(positions, indices, world)
}

// gltfRootNodes returns the default scene's roots, falling back to every parentless node.
func gltfRootNodes(doc *gltfDocument) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}

// gltfLocalMatrix returns the node's local transform. Matrix takes precedence over TRS.
func gltfLocalMatrix(node *gltfNode) mgl32.Mat4 {
	if node.Matrix != nil {
		return mgl32.Mat4(*node.Matrix)
	}

	m := mgl32.Ident4()
	if t := node.Translation; t != nil {
		m = mgl32.Translate3D(t[0], t[1], t[2])
	}
	if r := node.Rotation; r != nil {
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
		if q.Len() > 0 {
			m = m.Mul4(q.Normalize().Mat4())
		}
	}
	if s := node.Scale; s != nil {
		m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return m
}

func stripToList(strip []uint32) []uint32 {
	if len(strip) < 3 {
		return nil
	}
	out := make([]uint32, 0, (len(strip)-2)*3)
	for i := 2; i < len(strip); i++ {
		if i%2 == 0 {
			out = append(out, strip[i-2], strip[i-1], strip[i])
		} else {
			out = append(out, strip[i-1], strip[i-2], strip[i])
		}
	}
	return out
}

func fanToList(fan []uint32) []uint32 {
	if len(fan) < 3 {
		return nil
	}
	out := make([]uint32, 0, (len(fan)-2)*3)
	for i := 2; i < len(fan); i++ {
		out = append(out, fan[0], fan[i-1], fan[i])
	}
	return out
}
