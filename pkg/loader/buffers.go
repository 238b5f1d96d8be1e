package loader

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/qmuntal/gltf"
)

// Buffer resolution errors.
var (
	ErrNoBufferSource = errors.New("buffer has no data source")
	ErrShortBuffer    = errors.New("buffer shorter than declared length")
)

// ResolveBuffers materializes the bytes of every buffer in doc: data already
// attached by the decoder (GLB binary chunks) is used as-is, data URIs are
// decoded inline, and any other URI is read from fsys relative to the
// document. A nil fsys fails external references. Each returned slice is
// trimmed to the buffer's declared byte length.
func ResolveBuffers(doc *gltf.Document, fsys fs.FS) ([][]byte, error) {
	out := make([][]byte, len(doc.Buffers))
	for i, buf := range doc.Buffers {
		data, err := resolveBuffer(buf, fsys)
		if err != nil {
			return nil, fmt.Errorf("buffer %d: %w", i, err)
		}
		if len(data) < int(buf.ByteLength) {
			return nil, fmt.Errorf("buffer %d: %w: have %d, declared %d", i, ErrShortBuffer, len(data), buf.ByteLength)
		}
		out[i] = data[:buf.ByteLength]
	}
	return out, nil
}

func resolveBuffer(buf *gltf.Buffer, fsys fs.FS) ([]byte, error) {
	if len(buf.Data) > 0 {
		return buf.Data, nil
	}
	if buf.URI == "" {
		return nil, ErrNoBufferSource
	}
	if data, ok := decodeDataURI(buf.URI); ok {
		return data, nil
	}
	if fsys == nil {
		return nil, fmt.Errorf("%w: external uri %q", ErrNoBufferSource, buf.URI)
	}
	name := buf.URI
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return fs.ReadFile(fsys, name)
}

// decodeDataURI decodes a base64 data URI. Non-data URIs and URIs without a
// base64 payload report false.
func decodeDataURI(uri string) ([]byte, bool) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, false
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, false
	}
	meta, payload := uri[len("data:"):comma], uri[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	return data, true
}
