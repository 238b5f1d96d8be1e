package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// Accessor reading errors.
var (
	ErrAccessorOutOfRange   = errors.New("accessor out of range")
	ErrUnsupportedAccessor  = errors.New("unsupported accessor element type")
	ErrUnsupportedIndexType = errors.New("unsupported index component type")
)

// PackedData returns an accessor's elements as tightly packed bytes, honoring
// the accessor's byte offset and the buffer view's byte stride. An accessor
// without a buffer view yields zero-filled data, which is the document
// format's default-value rule and the behavior an undecoded compressed
// primitive falls back to.
func PackedData(doc *gltf.Document, buffers [][]byte, accessor int) ([]byte, error) {
	if accessor < 0 || accessor >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d of %d", ErrAccessorOutOfRange, accessor, len(doc.Accessors))
	}
	acc := doc.Accessors[accessor]
	elem := int(acc.ComponentType.ByteSize() * acc.Type.Components())
	if elem == 0 {
		return nil, fmt.Errorf("%w: accessor %d", ErrUnsupportedAccessor, accessor)
	}
	count := int(acc.Count)
	if acc.BufferView == nil {
		return make([]byte, count*elem), nil
	}

	vi := int(*acc.BufferView)
	if vi >= len(doc.BufferViews) {
		return nil, fmt.Errorf("%w: accessor %d references view %d of %d", ErrAccessorOutOfRange, accessor, vi, len(doc.BufferViews))
	}
	view := doc.BufferViews[vi]
	if int(view.Buffer) >= len(buffers) {
		return nil, fmt.Errorf("%w: view %d references buffer %d of %d", ErrAccessorOutOfRange, vi, view.Buffer, len(buffers))
	}
	raw := buffers[view.Buffer]
	end := int(view.ByteOffset) + int(view.ByteLength)
	if end > len(raw) {
		return nil, fmt.Errorf("%w: view %d spans %d..%d of %d-byte buffer", ErrAccessorOutOfRange,
			vi, view.ByteOffset, end, len(raw))
	}
	data := raw[view.ByteOffset:end]

	if count == 0 {
		return []byte{}, nil
	}
	stride := int(view.ByteStride)
	if stride == 0 {
		stride = elem
	}
	base := int(acc.ByteOffset)
	last := base + stride*(count-1) + elem
	if stride < elem || last > len(data) {
		return nil, fmt.Errorf("%w: accessor %d needs bytes up to %d, view %d holds %d", ErrAccessorOutOfRange,
			accessor, last, vi, len(data))
	}

	if stride == elem {
		out := make([]byte, count*elem)
		copy(out, data[base:base+count*elem])
		return out, nil
	}
	out := make([]byte, 0, count*elem)
	for i := 0; i < count; i++ {
		off := base + i*stride
		out = append(out, data[off:off+elem]...)
	}
	return out, nil
}

// ReadIndices reads a scalar index accessor, widening 8- and 16-bit indices
// to uint32.
func ReadIndices(doc *gltf.Document, buffers [][]byte, accessor int) ([]uint32, error) {
	packed, err := PackedData(doc, buffers, accessor)
	if err != nil {
		return nil, err
	}
	acc := doc.Accessors[accessor]
	if acc.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("%w: accessor %d is not scalar", ErrUnsupportedIndexType, accessor)
	}
	out := make([]uint32, acc.Count)
	switch acc.ComponentType {
	case gltf.ComponentUbyte:
		for i := range out {
			out[i] = uint32(packed[i])
		}
	case gltf.ComponentUshort:
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(packed[2*i:]))
		}
	case gltf.ComponentUint:
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(packed[4*i:])
		}
	default:
		return nil, fmt.Errorf("%w: accessor %d", ErrUnsupportedIndexType, accessor)
	}
	return out, nil
}

// ReadPositions decodes a float vec3 accessor into vectors.
func ReadPositions(doc *gltf.Document, buffers [][]byte, accessor int) ([]mgl32.Vec3, error) {
	packed, err := PackedData(doc, buffers, accessor)
	if err != nil {
		return nil, err
	}
	acc := doc.Accessors[accessor]
	if acc.ComponentType != gltf.ComponentFloat || acc.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("%w: accessor %d is not a float vec3", ErrUnsupportedAccessor, accessor)
	}
	out := make([]mgl32.Vec3, acc.Count)
	for i := range out {
		for c := 0; c < 3; c++ {
			bits := binary.LittleEndian.Uint32(packed[(3*i+c)*4:])
			out[i][c] = math.Float32frombits(bits)
		}
	}
	return out, nil
}
