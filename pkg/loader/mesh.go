package loader

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// Stream is one tightly packed vertex attribute stream.
type Stream struct {
	ComponentType gltf.ComponentType
	Type          gltf.AccessorType
	Count         int
	Data          []byte // packed; stride equals the element size
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max mgl32.Vec3
}

// Center returns the box center.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extents.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Primitive is the decoded geometry of one drawable piece of a mesh.
type Primitive struct {
	Mode      gltf.PrimitiveMode
	Material  *uint32            // index into the document's materials
	Indices   []uint32           // widened from the index accessor; nil when non-indexed
	Streams   map[string]Stream  // keyed by attribute name ("POSITION", "TEXCOORD_0", ...)
	Positions []mgl32.Vec3       // decoded POSITION stream when float vec3
	Bounds    Bounds             // of Positions; zero when no positions decoded
}

// Mesh is the decoded form of one document mesh.
type Mesh struct {
	Name       string
	Primitives []*Primitive
}

// BuildPrimitive extracts one primitive's geometry: indices widened to
// uint32, every attribute as a packed stream, and positions with bounds when
// a float vec3 POSITION stream is present. It treats original and synthesized
// descriptions identically.
func BuildPrimitive(doc *gltf.Document, prim *gltf.Primitive, buffers [][]byte) (*Primitive, error) {
	p := &Primitive{
		Mode:     prim.Mode,
		Material: prim.Material,
	}

	if prim.Indices != nil {
		indices, err := ReadIndices(doc, buffers, int(*prim.Indices))
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		p.Indices = indices
	}

	names := make([]string, 0, len(prim.Attributes))
	for name := range prim.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	p.Streams = make(map[string]Stream, len(names))
	for _, name := range names {
		index := int(prim.Attributes[name])
		data, err := PackedData(doc, buffers, index)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		acc := doc.Accessors[index]
		p.Streams[name] = Stream{
			ComponentType: acc.ComponentType,
			Type:          acc.Type,
			Count:         int(acc.Count),
			Data:          data,
		}
	}

	if index, ok := prim.Attributes["POSITION"]; ok {
		acc := doc.Accessors[index]
		if acc.ComponentType == gltf.ComponentFloat && acc.Type == gltf.AccessorVec3 {
			positions, err := ReadPositions(doc, buffers, int(index))
			if err != nil {
				return nil, fmt.Errorf("positions: %w", err)
			}
			p.Positions = positions
			p.Bounds = boundsOf(positions)
		}
	}
	return p, nil
}

// boundsOf computes the axis-aligned bounds of points.
func boundsOf(points []mgl32.Vec3) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		for c := 0; c < 3; c++ {
			if p[c] < b.Min[c] {
				b.Min[c] = p[c]
			}
			if p[c] > b.Max[c] {
				b.Max[c] = p[c]
			}
		}
	}
	return b
}
