package loader

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
)

func dataURI(raw []byte) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(raw)
}

func decodeDocument(t *testing.T, src string) *gltf.Document {
	t.Helper()
	var doc gltf.Document
	if err := gltf.NewDecoder(strings.NewReader(src)).Decode(&doc); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return &doc
}

func floatBytes(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func u16Bytes(vals ...uint16) []byte {
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[2*i:], v)
	}
	return out
}

func u32Bytes(vals ...uint32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], v)
	}
	return out
}

// triangleBytes lays out the scene fixture's buffer: three vec3 positions,
// three ushort indices, two bytes of padding, then one animation's keyframe
// times and translation values.
func triangleBytes() []byte {
	var raw []byte
	raw = append(raw, floatBytes(0, 0, 0, 1, 0, 0, 0, 1, 0)...)
	raw = append(raw, u16Bytes(0, 1, 2)...)
	raw = append(raw, 0, 0)
	raw = append(raw, floatBytes(0, 1)...)
	raw = append(raw, floatBytes(0, 0, 0, 0, 0, 1)...)
	return raw
}

const sceneTemplate = `{
	"asset": {"version": "2.0"},
	"scene": 0,
	"scenes": [{"nodes": [2, 0]}],
	"nodes": [
		{"children": [1], "translation": [1, 0, 0]},
		{"mesh": 0, "translation": [0, 2, 0]},
		{"children": [3]},
		{"translation": [0, 0, 3]}
	],
	"buffers": [{"byteLength": %d, "uri": "%s"}],
	"bufferViews": [
		{"buffer": 0, "byteOffset": 0, "byteLength": 36},
		{"buffer": 0, "byteOffset": 36, "byteLength": 6},
		{"buffer": 0, "byteOffset": 44, "byteLength": 8},
		{"buffer": 0, "byteOffset": 52, "byteLength": 24}
	],
	"accessors": [
		{"bufferView": 0, "componentType": 5126, "type": "VEC3", "count": 3, "min": [0, 0, 0], "max": [1, 1, 0]},
		{"bufferView": 1, "componentType": 5123, "type": "SCALAR", "count": 3},
		{"bufferView": 2, "componentType": 5126, "type": "SCALAR", "count": 2, "min": [0], "max": [1]},
		{"bufferView": 3, "componentType": 5126, "type": "VEC3", "count": 2}
	],
	"meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "mode": 4}]}],
	"animations": [
		{
			"channels": [{"sampler": 0, "target": {"node": 1, "path": "translation"}}],
			"samplers": [{"input": 2, "output": 3}]
		},
		{
			"channels": [{"sampler": 0, "target": {"node": 3, "path": "translation"}}],
			"samplers": [{"input": 2, "output": 3}]
		}
	]
}`

// sceneFixture builds an indexed triangle under an animated two-root scene:
// scene roots 2 and 0 (that order), animations targeting nodes 1 and 3.
func sceneFixture(t *testing.T) (*gltf.Document, [][]byte) {
	t.Helper()
	raw := triangleBytes()
	doc := decodeDocument(t, fmt.Sprintf(sceneTemplate, len(raw), dataURI(raw)))
	buffers, err := ResolveBuffers(doc, nil)
	if err != nil {
		t.Fatalf("resolve fixture buffers: %v", err)
	}
	return doc, buffers
}

// pointReplacement builds a replacement fragment holding a single unindexed
// point position.
func pointReplacement(x, y, z float32) *Replacement {
	doc := &gltf.Document{
		Asset:       gltf.Asset{Version: "2.0"},
		Buffers:     []*gltf.Buffer{{ByteLength: 12}},
		BufferViews: []*gltf.BufferView{{ByteLength: 12}},
		Accessors: []*gltf.Accessor{{
			BufferView:    gltf.Index(0),
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec3,
			Count:         1,
		}},
		Meshes: []*gltf.Mesh{{Primitives: []*gltf.Primitive{{
			Attributes: gltf.Attribute{"POSITION": 0},
		}}}},
	}
	return &Replacement{Doc: doc, Data: [][]byte{floatBytes(x, y, z)}}
}
