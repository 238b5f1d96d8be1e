package draco

import (
	"errors"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
)

// Synthesis errors.
var (
	ErrInconsistentPrimitive = errors.New("primitive does not match decoded layout")
)

// BuildDocument re-describes a successful decode as a minimal glTF document:
// one buffer sized to the decoded output, one buffer view and accessor for
// the index stream, one pair per attribute stream, and a single triangle-list
// primitive wired to them by semantic. The fragment mirrors what the source
// document would have declared had the geometry never been compressed, so a
// codec-agnostic consumer reads it with the decoded bytes standing in for
// the buffer contents.
//
// The index buffer view spans the entire output buffer and overlaps the
// attribute views; consumers address bytes through the accessors, never
// through raw views. Attribute accessors copy the original accessor's
// component type, element shape, count, and min/max bounds verbatim. The
// decoder is trusted to emit data matching the original declaration, and
// bounds are never recomputed from decoded bytes.
//
// The build is deterministic: identical inputs produce deeply equal
// fragments.
func (l *Link) BuildDocument(doc *gltf.Document, prim *gltf.Primitive, cfg *DecodeConfig) (*gltf.Document, error) {
	if prim.Indices == nil {
		return nil, fmt.Errorf("%w: primitive has no index accessor", ErrInconsistentPrimitive)
	}
	if int(*prim.Indices) >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: index accessor %d of %d", ErrInconsistentPrimitive, *prim.Indices, len(doc.Accessors))
	}
	oldIndices := doc.Accessors[*prim.Indices]

	out := &gltf.Document{
		Asset:   gltf.Asset{Version: "2.0"},
		Buffers: []*gltf.Buffer{{ByteLength: cfg.BufferSize}},
	}

	// Index stream: view 0, accessor 0.
	out.BufferViews = append(out.BufferViews, &gltf.BufferView{
		ByteLength: cfg.BufferSize,
		Target:     gltf.TargetArrayBuffer,
	})
	out.Accessors = append(out.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(0),
		ComponentType: indexComponentType(oldIndices),
		Type:          oldIndices.Type,
		Count:         oldIndices.Count,
	})

	attrs := make(gltf.Attribute, len(cfg.Attributes))
	for i, layout := range cfg.Attributes {
		sem, ok := l.Semantics[i]
		if !ok {
			return nil, fmt.Errorf("%w: no semantic for codec attribute %d", ErrInconsistentPrimitive, i)
		}
		name := sem.Attribute()
		oldIndex, ok := prim.Attributes[name]
		if !ok {
			return nil, fmt.Errorf("%w: no original accessor for %s", ErrInconsistentPrimitive, name)
		}
		if int(oldIndex) >= len(doc.Accessors) {
			return nil, fmt.Errorf("%w: accessor %d for %s out of range", ErrInconsistentPrimitive, oldIndex, name)
		}
		old := doc.Accessors[oldIndex]
		if uint64(layout.ByteOffset)+uint64(layout.ByteLength) > uint64(cfg.BufferSize) {
			return nil, fmt.Errorf("%w: %s layout spans %d..%d of %d-byte buffer", ErrInconsistentPrimitive,
				name, layout.ByteOffset, layout.ByteOffset+layout.ByteLength, cfg.BufferSize)
		}

		out.BufferViews = append(out.BufferViews, &gltf.BufferView{
			ByteOffset: layout.ByteOffset,
			ByteLength: layout.ByteLength,
			Target:     gltf.TargetArrayBuffer,
		})
		out.Accessors = append(out.Accessors, &gltf.Accessor{
			BufferView:    gltf.Index(uint32(len(out.BufferViews) - 1)),
			ComponentType: old.ComponentType,
			Type:          old.Type,
			Count:         old.Count,
			Min:           append(old.Min[:0:0], old.Min...),
			Max:           append(old.Max[:0:0], old.Max...),
		})
		attrs[name] = uint32(len(out.Accessors) - 1)
	}

	out.Meshes = []*gltf.Mesh{{
		Primitives: []*gltf.Primitive{{
			Attributes: attrs,
			Indices:    gltf.Index(0),
			Mode:       gltf.PrimitiveTriangles,
		}},
	}}
	return out, nil
}

// indexComponentType picks the synthesized index element type: the original
// accessor's, widened to 32-bit unsigned when its count cannot fit a 16-bit
// index range. Never narrows.
func indexComponentType(old *gltf.Accessor) gltf.ComponentType {
	switch old.ComponentType {
	case gltf.ComponentUbyte, gltf.ComponentUshort:
		if old.Count > math.MaxUint16 {
			return gltf.ComponentUint
		}
	}
	return old.ComponentType
}
