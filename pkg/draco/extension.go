package draco

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
)

// ExtensionName is the glTF extension identifier this package implements.
const ExtensionName = "KHR_draco_mesh_compression"

// Extension parsing errors.
var (
	ErrMalformedExtension   = errors.New("malformed KHR_draco_mesh_compression extension")
	ErrUnrecognizedSemantic = errors.New("unrecognized attribute semantic")
)

func init() {
	gltf.RegisterExtension(ExtensionName, Unmarshal)
}

// Extension mirrors the extension record attached to a mesh primitive: the
// buffer view holding the compressed payload and the mapping from attribute
// names to codec attribute indices.
type Extension struct {
	BufferView *uint32        `json:"bufferView"`
	Attributes map[string]int `json:"attributes"`
}

// Unmarshal decodes a raw extension record. It is registered with the gltf
// package, so documents decoded while this package is linked in carry
// *Extension values instead of raw JSON.
func Unmarshal(data []byte) (interface{}, error) {
	ext := new(Extension)
	if err := json.Unmarshal(data, ext); err != nil {
		return nil, err
	}
	return ext, nil
}

// Link resolves a primitive's extension record: which buffer view holds the
// compressed payload and which semantic each codec attribute index carries.
// Built once per primitive and read-only afterwards.
type Link struct {
	// Semantics maps codec attribute indices to classified semantics. Every
	// index named by the extension record has exactly one entry.
	Semantics map[int]Semantic
	// BufferView indexes the source document's buffer view list.
	BufferView int
}

// ParseLink inspects a primitive for the compression extension. A nil Link
// with a nil error means the primitive does not use the extension. A non-nil
// error is either ErrMalformedExtension (structure does not parse: missing
// bufferView or attributes, negative or duplicated codec indices) or
// ErrUnrecognizedSemantic (an attribute name that does not classify).
func ParseLink(prim *gltf.Primitive) (*Link, error) {
	raw, ok := prim.Extensions[ExtensionName]
	if !ok {
		return nil, nil
	}
	ext, err := asExtension(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtension, err)
	}

	if ext.BufferView == nil {
		return nil, fmt.Errorf("%w: missing bufferView", ErrMalformedExtension)
	}
	if ext.Attributes == nil {
		return nil, fmt.Errorf("%w: missing attributes", ErrMalformedExtension)
	}

	semantics := make(map[int]Semantic, len(ext.Attributes))
	for name, index := range ext.Attributes {
		if index < 0 {
			return nil, fmt.Errorf("%w: attribute %q has negative codec index %d", ErrMalformedExtension, name, index)
		}
		sem := ParseSemantic(name)
		if !sem.Recognized() {
			return nil, fmt.Errorf("%w: %q", ErrUnrecognizedSemantic, name)
		}
		if prev, dup := semantics[index]; dup {
			return nil, fmt.Errorf("%w: attributes %q and %q share codec index %d", ErrMalformedExtension, prev.Attribute(), name, index)
		}
		semantics[index] = sem
	}

	return &Link{Semantics: semantics, BufferView: int(*ext.BufferView)}, nil
}

// asExtension coerces the stored extension value. Decoded documents carry
// *Extension via the registered unmarshaler; documents assembled in memory may
// hold raw JSON or any JSON-shaped value.
func asExtension(value interface{}) (*Extension, error) {
	switch v := value.(type) {
	case *Extension:
		return v, nil
	case Extension:
		return &v, nil
	case json.RawMessage:
		return unmarshalExtension(v)
	case []byte:
		return unmarshalExtension(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return unmarshalExtension(data)
	}
}

func unmarshalExtension(data []byte) (*Extension, error) {
	ext := new(Extension)
	if err := json.Unmarshal(data, ext); err != nil {
		return nil, err
	}
	return ext, nil
}
