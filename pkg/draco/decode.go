package draco

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
)

// Decode errors.
var (
	ErrBufferViewOutOfRange = errors.New("compressed payload buffer view out of range")
	ErrDecodeFailed         = errors.New("draco decode failed")
)

// AttributeLayout describes where one decoded attribute stream lives inside
// the decoder's output buffer and how its elements are typed.
type AttributeLayout struct {
	ByteOffset    uint32
	ByteLength    uint32
	ComponentType gltf.ComponentType // component type of one element
	Components    int                // components per element, e.g. 3 for a vec3
}

// DecodeConfig is the layout report of a successful decode: the total output
// buffer size and the per-attribute layout in codec index order.
type DecodeConfig struct {
	BufferSize uint32
	Attributes []AttributeLayout
}

// DecodeResult pairs the layout with the decoded bytes. Data[0] backs the
// synthesized buffer; decoders emitting a multi-buffer layout fill one entry
// per buffer.
type DecodeResult struct {
	Config DecodeConfig
	Data   [][]byte
}

// Decoder is the opaque mesh decompressor. Implementations operate purely on
// the supplied bytes: no I/O, no state retained between calls. A failed
// decode returns an error; partial output is never produced. The call blocks
// until decompression finishes.
//
// No codec binding ships with this module; integrators supply one (cgo
// bindings to the reference decoder exist in the ecosystem) or a pure-Go
// implementation.
type Decoder interface {
	DecodeMesh(data []byte) (*DecodeResult, error)
}

// Payload slices the compressed byte range for the link's buffer view out of
// the resolved document buffers. buffers holds one byte slice per document
// buffer, as produced by the surrounding loader.
func (l *Link) Payload(doc *gltf.Document, buffers [][]byte) ([]byte, error) {
	if l.BufferView < 0 || l.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("%w: view %d of %d", ErrBufferViewOutOfRange, l.BufferView, len(doc.BufferViews))
	}
	view := doc.BufferViews[l.BufferView]
	if int(view.Buffer) >= len(buffers) {
		return nil, fmt.Errorf("%w: view %d references buffer %d of %d", ErrBufferViewOutOfRange, l.BufferView, view.Buffer, len(buffers))
	}
	data := buffers[view.Buffer]
	end := int(view.ByteOffset) + int(view.ByteLength)
	if end > len(data) {
		return nil, fmt.Errorf("%w: view %d spans %d..%d of %d-byte buffer", ErrBufferViewOutOfRange,
			l.BufferView, view.ByteOffset, end, len(data))
	}
	return data[view.ByteOffset:end], nil
}

// Decode extracts the compressed payload and runs it through dec. Failures
// from the decoder itself wrap ErrDecodeFailed so callers can fall back to
// the primitive's uncompressed description.
func (l *Link) Decode(doc *gltf.Document, buffers [][]byte, dec Decoder) (*DecodeResult, error) {
	payload, err := l.Payload(doc, buffers)
	if err != nil {
		return nil, err
	}
	res, err := dec.DecodeMesh(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if res == nil {
		return nil, ErrDecodeFailed
	}
	return res, nil
}
