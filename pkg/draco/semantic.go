// Package draco implements the KHR_draco_mesh_compression glTF extension:
// parsing the extension record attached to a mesh primitive, decoding the
// compressed payload through a pluggable decoder, and re-describing the
// decoded bytes as a plain glTF fragment (buffer, buffer views, accessors,
// primitive) that any codec-agnostic consumer can read unchanged.
package draco

import (
	"fmt"
	"strconv"
	"strings"
)

// SemanticKind enumerates the recognized vertex attribute meanings.
type SemanticKind uint8

const (
	SemanticUnrecognized SemanticKind = iota
	SemanticPosition
	SemanticNormal
	SemanticTangent
	SemanticColor    // COLOR_n
	SemanticTexCoord // TEXCOORD_n
	SemanticJoints   // JOINTS_n
	SemanticWeights  // WEIGHTS_n
	SemanticExtra    // application-specific, name prefixed with "_"
)

// String returns a human-readable kind name.
func (k SemanticKind) String() string {
	switch k {
	case SemanticPosition:
		return "Position"
	case SemanticNormal:
		return "Normal"
	case SemanticTangent:
		return "Tangent"
	case SemanticColor:
		return "Color"
	case SemanticTexCoord:
		return "TexCoord"
	case SemanticJoints:
		return "Joints"
	case SemanticWeights:
		return "Weights"
	case SemanticExtra:
		return "Extra"
	default:
		return "Unrecognized"
	}
}

// Semantic identifies the meaning of one vertex attribute stream. Set carries
// the set index for the multi-set kinds (COLOR_n, TEXCOORD_n, JOINTS_n,
// WEIGHTS_n); Name carries the application-specific name for Extra. The zero
// value is Unrecognized.
type Semantic struct {
	Kind SemanticKind
	Set  int    // set index for multi-set kinds
	Name string // name remainder for Extra
}

// ParseSemantic classifies a glTF attribute name. It is total: names that do
// not match any rule classify as Unrecognized rather than failing. Multi-set
// names require an unsigned decimal suffix fitting 32 bits; anything else
// (sign, empty, overflow, non-digits) makes the whole name unrecognized.
func ParseSemantic(name string) Semantic {
	switch name {
	case "POSITION":
		return Semantic{Kind: SemanticPosition}
	case "NORMAL":
		return Semantic{Kind: SemanticNormal}
	case "TANGENT":
		return Semantic{Kind: SemanticTangent}
	}

	switch {
	case strings.HasPrefix(name, "_"):
		return Semantic{Kind: SemanticExtra, Name: name[1:]}
	case strings.HasPrefix(name, "COLOR_"):
		return setSemantic(SemanticColor, name[len("COLOR_"):])
	case strings.HasPrefix(name, "TEXCOORD_"):
		return setSemantic(SemanticTexCoord, name[len("TEXCOORD_"):])
	case strings.HasPrefix(name, "JOINTS_"):
		return setSemantic(SemanticJoints, name[len("JOINTS_"):])
	case strings.HasPrefix(name, "WEIGHTS_"):
		return setSemantic(SemanticWeights, name[len("WEIGHTS_"):])
	}
	return Semantic{}
}

// setSemantic parses the numeric set suffix of a multi-set attribute name.
func setSemantic(kind SemanticKind, suffix string) Semantic {
	set, err := strconv.ParseUint(suffix, 10, 32)
	if err != nil {
		return Semantic{}
	}
	return Semantic{Kind: kind, Set: int(set)}
}

// Recognized reports whether s names a known semantic.
func (s Semantic) Recognized() bool {
	return s.Kind != SemanticUnrecognized
}

// Attribute returns the glTF attribute key for s, inverting ParseSemantic for
// every recognized semantic. Unrecognized semantics have no key.
func (s Semantic) Attribute() string {
	switch s.Kind {
	case SemanticPosition:
		return "POSITION"
	case SemanticNormal:
		return "NORMAL"
	case SemanticTangent:
		return "TANGENT"
	case SemanticColor:
		return fmt.Sprintf("COLOR_%d", s.Set)
	case SemanticTexCoord:
		return fmt.Sprintf("TEXCOORD_%d", s.Set)
	case SemanticJoints:
		return fmt.Sprintf("JOINTS_%d", s.Set)
	case SemanticWeights:
		return fmt.Sprintf("WEIGHTS_%d", s.Set)
	case SemanticExtra:
		return "_" + s.Name
	default:
		return ""
	}
}

// String returns the attribute key for recognized semantics.
func (s Semantic) String() string {
	if !s.Recognized() {
		return "unrecognized"
	}
	return s.Attribute()
}
