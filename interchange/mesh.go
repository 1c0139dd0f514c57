package interchange

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Mesh is a display mesh. Vertices are flat xyz triples. Faces is a run of
// loops, each prefixed with its vertex count and followed by that many
// indices into the vertices. Colors, when present, hold one packed ARGB
// value per vertex.
type Mesh struct {
	Display
	Vertices []float64
	Faces    []int32
	Colors   []int32
	Units    string
}

func (m *Mesh) GeometryType() string { return TypeMesh }

func (m *Mesh) VertexCount() int { return len(m.Vertices) / 3 }

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) r3.Vector {
	return r3.Vector{X: m.Vertices[3*i], Y: m.Vertices[3*i+1], Z: m.Vertices[3*i+2]}
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(v r3.Vector) int32 {
	m.Vertices = append(m.Vertices, v.X, v.Y, v.Z)
	return int32(len(m.Vertices)/3 - 1)
}

// AddFace appends one face loop.
func (m *Mesh) AddFace(indices ...int32) {
	m.Faces = append(m.Faces, int32(len(indices)))
	m.Faces = append(m.Faces, indices...)
}

// EachFace calls fn with the indices of every face loop, stopping at the
// first error.
func (m *Mesh) EachFace(fn func(face []int32) error) error {
	for i := 0; i < len(m.Faces); {
		n := int(m.Faces[i])
		if n < 3 || i+1+n > len(m.Faces) {
			return fmt.Errorf("%w: face run at %d has count %d", ErrMalformed, i, n)
		}
		if err := fn(m.Faces[i+1 : i+1+n]); err != nil {
			return err
		}
		i += n + 1
	}
	return nil
}

// FaceCount returns the number of face loops; -1 if the encoding is broken.
func (m *Mesh) FaceCount() int {
	c := 0
	if err := m.EachFace(func([]int32) error { c++; return nil }); err != nil {
		return -1
	}
	return c
}

// Validate checks the face encoding, index bounds and color count.
func (m *Mesh) Validate() error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("%w: %d vertex coordinates", ErrMalformed, len(m.Vertices))
	}
	vc := int32(m.VertexCount())
	err := m.EachFace(func(face []int32) error {
		for _, i := range face {
			if i < 0 || i >= vc {
				return fmt.Errorf("%w: face index %d out of %d vertices", ErrMalformed, i, vc)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(m.Colors) != 0 && len(m.Colors) != int(vc) {
		return fmt.Errorf("%w: %d colors for %d vertices", ErrMalformed, len(m.Colors), vc)
	}
	return nil
}

// Paint colors every vertex with one color.
func (m *Mesh) Paint(argb int32) {
	m.Colors = make([]int32, m.VertexCount())
	for i := range m.Colors {
		m.Colors[i] = argb
	}
}

func (m *Mesh) Node() *Node {
	n := New(TypeMesh).
		Set("vertices", Floats(m.Vertices)).
		Set("faces", Ints(m.Faces)).
		Set("colors", Ints(m.Colors)).
		Set("units", String(m.Units))
	return m.encode(n)
}

// DecodeMesh ...
func DecodeMesh(n *Node) (*Mesh, error) {
	if n.Type() != TypeMesh {
		return nil, fmt.Errorf("%w: expected mesh, got %q", ErrMalformed, n.Type())
	}
	m := &Mesh{Units: units(n)}
	if v, ok := n.Get("vertices"); ok {
		if m.Vertices, ok = v.AsFloats(); !ok {
			return nil, fmt.Errorf("%w: mesh vertices are not numbers", ErrMalformed)
		}
	}
	if v, ok := n.Get("faces"); ok {
		if m.Faces, ok = v.AsInts(); !ok {
			return nil, fmt.Errorf("%w: mesh faces are not integers", ErrMalformed)
		}
	}
	if v, ok := n.Get("colors"); ok {
		if m.Colors, ok = v.AsInts(); !ok {
			return nil, fmt.Errorf("%w: mesh colors are not integers", ErrMalformed)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.Display.decode(n)
	return m, nil
}

// Vec is shorthand for an r3 vector.
func Vec(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}
