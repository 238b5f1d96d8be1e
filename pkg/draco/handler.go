package draco

import (
	"errors"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/meshtools/gltf-draco/pkg/loader"
)

// Handler replaces compressed primitives during loading. Primitives without
// the compression extension pass through untouched. A failed decode is logged
// and the primitive falls back to its uncompressed accessors; structural
// problems in the extension record or the document surface as errors.
type Handler struct {
	loader.NopHandler

	dec Decoder
	log *zap.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger routes decode diagnostics to l.
func WithLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.log = l
	}
}

// NewHandler returns a Handler decoding through dec.
func NewHandler(dec Decoder, opts ...HandlerOption) *Handler {
	h := &Handler{dec: dec, log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Primitive implements loader.Handler. It returns (nil, nil) when prim
// carries no compression extension, and also when the payload fails to
// decode, so the loader reads the primitive's own accessors instead.
func (h *Handler) Primitive(doc *gltf.Document, prim *gltf.Primitive, buffers [][]byte) (*loader.Replacement, error) {
	link, err := ParseLink(prim)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, nil
	}

	res, err := link.Decode(doc, buffers, h.dec)
	if err != nil {
		if errors.Is(err, ErrDecodeFailed) {
			h.log.Warn("draco decode failed",
				zap.Int("bufferView", link.BufferView),
				zap.Error(err))
			return nil, nil
		}
		return nil, err
	}

	frag, err := link.BuildDocument(doc, prim, &res.Config)
	if err != nil {
		return nil, err
	}
	return &loader.Replacement{Doc: frag, Data: res.Data}, nil
}
