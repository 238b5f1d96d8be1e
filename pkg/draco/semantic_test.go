package draco

import "testing"

func TestParseSemantic(t *testing.T) {
	tests := []struct {
		name string
		want Semantic
	}{
		{"POSITION", Semantic{Kind: SemanticPosition}},
		{"NORMAL", Semantic{Kind: SemanticNormal}},
		{"TANGENT", Semantic{Kind: SemanticTangent}},
		{"COLOR_0", Semantic{Kind: SemanticColor, Set: 0}},
		{"TEXCOORD_0", Semantic{Kind: SemanticTexCoord, Set: 0}},
		{"TEXCOORD_3", Semantic{Kind: SemanticTexCoord, Set: 3}},
		{"JOINTS_2", Semantic{Kind: SemanticJoints, Set: 2}},
		{"WEIGHTS_1", Semantic{Kind: SemanticWeights, Set: 1}},
		{"_Foo", Semantic{Kind: SemanticExtra, Name: "Foo"}},
		{"_", Semantic{Kind: SemanticExtra, Name: ""}},
		{"_TEXCOORD_9", Semantic{Kind: SemanticExtra, Name: "TEXCOORD_9"}},
		// Non-numeric, signed, empty, or overflowing suffixes are unrecognized.
		{"COLOR_x", Semantic{}},
		{"COLOR_", Semantic{}},
		{"COLOR_-1", Semantic{}},
		{"TEXCOORD_4294967296", Semantic{}},
		{"FOO", Semantic{}},
		{"position", Semantic{}},
		{"TEXCOORD", Semantic{}},
		{"", Semantic{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSemantic(tt.name)
			if got != tt.want {
				t.Errorf("ParseSemantic(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}
}

func TestParseSemantic_Deterministic(t *testing.T) {
	names := []string{"POSITION", "TEXCOORD_3", "_Foo", "COLOR_x", "FOO"}
	for _, name := range names {
		first := ParseSemantic(name)
		for i := 0; i < 10; i++ {
			if got := ParseSemantic(name); got != first {
				t.Fatalf("ParseSemantic(%q) changed between calls: %+v vs %+v", name, first, got)
			}
		}
	}
}

func TestSemanticAttribute_RoundTrip(t *testing.T) {
	names := []string{
		"POSITION", "NORMAL", "TANGENT",
		"COLOR_0", "COLOR_7", "TEXCOORD_3", "JOINTS_0", "WEIGHTS_12",
		"_Foo", "_", "_custom_stream",
	}
	for _, name := range names {
		sem := ParseSemantic(name)
		if !sem.Recognized() {
			t.Fatalf("ParseSemantic(%q) unexpectedly unrecognized", name)
		}
		if got := sem.Attribute(); got != name {
			t.Errorf("ParseSemantic(%q).Attribute() = %q", name, got)
		}
	}
}

func TestSemanticString(t *testing.T) {
	if got := ParseSemantic("TEXCOORD_2").String(); got != "TEXCOORD_2" {
		t.Errorf("String() = %q, want TEXCOORD_2", got)
	}
	if got := (Semantic{}).String(); got != "unrecognized" {
		t.Errorf("String() = %q, want unrecognized", got)
	}
	if got := (Semantic{}).Attribute(); got != "" {
		t.Errorf("Attribute() on unrecognized = %q, want empty", got)
	}
}

func TestSemanticKindString(t *testing.T) {
	tests := []struct {
		kind SemanticKind
		want string
	}{
		{SemanticPosition, "Position"},
		{SemanticTexCoord, "TexCoord"},
		{SemanticExtra, "Extra"},
		{SemanticUnrecognized, "Unrecognized"},
		{SemanticKind(200), "Unrecognized"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("SemanticKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
