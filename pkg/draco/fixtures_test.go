package draco

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
)

// fakeDecoder satisfies Decoder for tests, recording what it was fed.
type fakeDecoder struct {
	res   *DecodeResult
	err   error
	got   []byte
	calls int
}

func (f *fakeDecoder) DecodeMesh(data []byte) (*DecodeResult, error) {
	f.calls++
	f.got = append([]byte(nil), data...)
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

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

func dracoPayload() []byte {
	return []byte{'D', 'R', 'A', 'C', 'O', 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
}

const compressedTemplate = `{
	"asset": {"version": "2.0"},
	"extensionsUsed": ["KHR_draco_mesh_compression"],
	"extensionsRequired": ["KHR_draco_mesh_compression"],
	"buffers": [{"byteLength": %d, "uri": "%s"}],
	"bufferViews": [
		{"buffer": 0, "byteOffset": 4, "byteLength": 3},
		{"buffer": 0, "byteOffset": 0, "byteLength": 2},
		{"buffer": 0, "byteOffset": 0, "byteLength": %d}
	],
	"accessors": [
		{"componentType": 5126, "type": "VEC3", "count": 3, "min": [-1, -1, 0], "max": [1, 1, 0]},
		{"componentType": 5126, "type": "VEC3", "count": 3},
		{"componentType": 5123, "type": "SCALAR", "count": 3}
	],
	"meshes": [{"name": "compressed", "primitives": [{
		"attributes": {"POSITION": 0, "NORMAL": 1},
		"indices": 2,
		"mode": 4,
		"extensions": {"KHR_draco_mesh_compression": {
			"bufferView": 2,
			"attributes": {"POSITION": 0, "NORMAL": 1}
		}}
	}]}]
}`

// compressedFixture builds a document with a single draco-compressed
// primitive: POSITION and NORMAL at codec indices 0 and 1, the payload in
// buffer view 2, and accessors that carry no buffer views of their own.
func compressedFixture(t *testing.T) (*gltf.Document, [][]byte) {
	t.Helper()
	payload := dracoPayload()
	src := fmt.Sprintf(compressedTemplate, len(payload), dataURI(payload), len(payload))
	return decodeDocument(t, src), [][]byte{payload}
}

// fixtureDecodeResult lays out three vec3 positions, three vec3 normals, and
// three ushort indices the way a real decode of compressedFixture would.
func fixtureDecodeResult() *DecodeResult {
	const size = 96
	return &DecodeResult{
		Config: DecodeConfig{
			BufferSize: size,
			Attributes: []AttributeLayout{
				{ByteOffset: 12, ByteLength: 36, ComponentType: gltf.ComponentFloat, Components: 3},
				{ByteOffset: 48, ByteLength: 36, ComponentType: gltf.ComponentFloat, Components: 3},
			},
		},
		Data: [][]byte{make([]byte, size)},
	}
}
