package loader

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	errInvalidPLYMagic  = errors.New("not a PLY file")
	errInvalidPLYFormat = errors.New("unsupported PLY format")
	errPLYMissingXYZ    = errors.New("PLY vertex element lacks x, y or z")
)

// plyScalar is one of the PLY scalar property types.
type plyScalar int

const (
	plyInvalid plyScalar = iota
	plyInt8
	plyUint8
	plyInt16
	plyUint16
	plyInt32
	plyUint32
	plyFloat32
	plyFloat64
)

var plyScalarNames = map[string]plyScalar{
	"char": plyInt8, "int8": plyInt8,
	"uchar": plyUint8, "uint8": plyUint8,
	"short": plyInt16, "int16": plyInt16,
	"ushort": plyUint16, "uint16": plyUint16,
	"int": plyInt32, "int32": plyInt32,
	"uint": plyUint32, "uint32": plyUint32,
	"float": plyFloat32, "float32": plyFloat32,
	"double": plyFloat64, "float64": plyFloat64,
}

func (s plyScalar) size() int {
	switch s {
	case plyInt8, plyUint8:
		return 1
	case plyInt16, plyUint16:
		return 2
	case plyInt32, plyUint32, plyFloat32:
		return 4
	case plyFloat64:
		return 8
	default:
		return 0
	}
}

type plyProperty struct {
	name string
	typ  plyScalar
	// countTyp is set for list properties.
	countTyp plyScalar
}

func (p plyProperty) isList() bool { return p.countTyp != plyInvalid }

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

type plyHeader struct {
	// order is nil for ascii bodies.
	order    binary.ByteOrder
	elements []plyElement
}

// plyValueReader reads successive scalar values from a PLY body.
type plyValueReader interface {
	next(t plyScalar) (float64, error)
}

// parsePLY reads the vertex and face elements of a PLY stream into a triangle list.
// Polygons are fan-triangulated; other elements and properties are skipped.
func parsePLY(r io.Reader) (*geometry, error) {
	br := bufio.NewReader(r)
	header, err := readPLYHeader(br)
	if err != nil {
		return nil, err
	}

	var values plyValueReader
	if header.order == nil {
		sc := bufio.NewScanner(br)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		sc.Split(bufio.ScanWords)
		values = &plyASCIIReader{sc: sc}
	} else {
		values = &plyBinaryReader{r: br, order: header.order}
	}

	var positions [][3]float32
	var indices []uint32
	for _, el := range header.elements {
		switch el.name {
		case "vertex":
			if positions, err = readPLYVertices(values, el); err != nil {
				return nil, err
			}
		case "face":
			if indices, err = readPLYFaces(values, el, indices); err != nil {
				return nil, err
			}
		default:
			if err := skipPLYElement(values, el); err != nil {
				return nil, err
			}
		}
	}

	g := &geometry{}
	if err := g.append(positions, indices, mgl32.Ident4()); err != nil {
		return nil, err
	}
	return g, nil
}

func readPLYHeader(br *bufio.Reader) (*plyHeader, error) {
	line, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != "ply" {
		return nil, errInvalidPLYMagic
	}

	h := &plyHeader{}
	formatSeen := false
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("PLY header: %w", err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "end_header":
			if !formatSeen {
				return nil, fmt.Errorf("%w: missing format line", errInvalidPLYFormat)
			}
			return h, nil
		case "comment", "obj_info":
		case "format":
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: %q", errInvalidPLYFormat, strings.TrimSpace(line))
			}
			switch fields[1] {
			case "ascii":
			case "binary_little_endian":
				h.order = binary.LittleEndian
			case "binary_big_endian":
				h.order = binary.BigEndian
			default:
				return nil, fmt.Errorf("%w: %s", errInvalidPLYFormat, fields[1])
			}
			formatSeen = true
		case "element":
			if len(fields) != 3 {
				return nil, fmt.Errorf("PLY header: bad element line %q", strings.TrimSpace(line))
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("PLY header: bad element count %q", fields[2])
			}
			h.elements = append(h.elements, plyElement{name: fields[1], count: n})
		case "property":
			if len(h.elements) == 0 {
				return nil, errors.New("PLY header: property before element")
			}
			prop, err := parsePLYProperty(fields)
			if err != nil {
				return nil, err
			}
			el := &h.elements[len(h.elements)-1]
			el.props = append(el.props, prop)
		default:
			return nil, fmt.Errorf("PLY header: unknown keyword %q", fields[0])
		}
	}
}

func parsePLYProperty(fields []string) (plyProperty, error) {
	if len(fields) == 5 && fields[1] == "list" {
		count, item := plyScalarNames[fields[2]], plyScalarNames[fields[3]]
		if count == plyInvalid || item == plyInvalid {
			return plyProperty{}, fmt.Errorf("PLY header: bad list types %s %s", fields[2], fields[3])
		}
		return plyProperty{name: fields[4], typ: item, countTyp: count}, nil
	}
	if len(fields) == 3 {
		t := plyScalarNames[fields[1]]
		if t == plyInvalid {
			return plyProperty{}, fmt.Errorf("PLY header: bad property type %s", fields[1])
		}
		return plyProperty{name: fields[2], typ: t}, nil
	}
	return plyProperty{}, fmt.Errorf("PLY header: bad property line %q", strings.Join(fields, " "))
}

func readPLYVertices(values plyValueReader, el plyElement) ([][3]float32, error) {
	slot := [3]int{-1, -1, -1}
	for i, p := range el.props {
		if p.isList() {
			continue
		}
		switch p.name {
		case "x":
			slot[0] = i
		case "y":
			slot[1] = i
		case "z":
			slot[2] = i
		}
	}
	if slot[0] < 0 || slot[1] < 0 || slot[2] < 0 {
		return nil, errPLYMissingXYZ
	}

	out := make([][3]float32, el.count)
	for v := range out {
		for i, p := range el.props {
			if p.isList() {
				if err := skipPLYList(values, p); err != nil {
					return nil, fmt.Errorf("vertex %d: %w", v, err)
				}
				continue
			}
			f, err := values.next(p.typ)
			if err != nil {
				return nil, fmt.Errorf("vertex %d: %w", v, err)
			}
			for k := range 3 {
				if slot[k] == i {
					out[v][k] = float32(f)
				}
			}
		}
	}
	return out, nil
}

func readPLYFaces(values plyValueReader, el plyElement, indices []uint32) ([]uint32, error) {
	for f := 0; f < el.count; f++ {
		for _, p := range el.props {
			if !p.isList() {
				if _, err := values.next(p.typ); err != nil {
					return nil, fmt.Errorf("face %d: %w", f, err)
				}
				continue
			}
			if p.name != "vertex_indices" && p.name != "vertex_index" {
				if err := skipPLYList(values, p); err != nil {
					return nil, fmt.Errorf("face %d: %w", f, err)
				}
				continue
			}

			n, err := values.next(p.countTyp)
			if err != nil {
				return nil, fmt.Errorf("face %d: %w", f, err)
			}
			if n < 0 {
				return nil, fmt.Errorf("face %d: negative vertex count %v", f, n)
			}
			poly := make([]uint32, int(n))
			for i := range poly {
				v, err := values.next(p.typ)
				if err != nil {
					return nil, fmt.Errorf("face %d: %w", f, err)
				}
				if v < 0 {
					return nil, fmt.Errorf("face %d: negative vertex index %v", f, v)
				}
				poly[i] = uint32(v)
			}
			indices = append(indices, fanToList(poly)...)
		}
	}
	return indices, nil
}

func skipPLYElement(values plyValueReader, el plyElement) error {
	for i := 0; i < el.count; i++ {
		for _, p := range el.props {
			var err error
			if p.isList() {
				err = skipPLYList(values, p)
			} else {
				_, err = values.next(p.typ)
			}
			if err != nil {
				return fmt.Errorf("%s %d: %w", el.name, i, err)
			}
		}
	}
	return nil
}

func skipPLYList(values plyValueReader, p plyProperty) error {
	n, err := values.next(p.countTyp)
	if err != nil {
		return err
	}
	for range int(n) {
		if _, err := values.next(p.typ); err != nil {
			return err
		}
	}
	return nil
}

type plyASCIIReader struct {
	sc *bufio.Scanner
}

func (r *plyASCIIReader) next(plyScalar) (float64, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(r.sc.Text(), 64)
}

type plyBinaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (r *plyBinaryReader) next(t plyScalar) (float64, error) {
	b := r.buf[:t.size()]
	if _, err := io.ReadFull(r.r, b); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	switch t {
	case plyInt8:
		return float64(int8(b[0])), nil
	case plyUint8:
		return float64(b[0]), nil
	case plyInt16:
		return float64(int16(r.order.Uint16(b))), nil
	case plyUint16:
		return float64(r.order.Uint16(b)), nil
	case plyInt32:
		return float64(int32(r.order.Uint32(b))), nil
	case plyUint32:
		return float64(r.order.Uint32(b)), nil
	case plyFloat32:
		return float64(math.Float32frombits(r.order.Uint32(b))), nil
	case plyFloat64:
		return math.Float64frombits(r.order.Uint64(b)), nil
	default:
		return 0, fmt.Errorf("invalid PLY scalar type %d", t)
	}
}
