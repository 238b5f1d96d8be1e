package loader

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingHandler captures every load event and optionally answers the
// primitive pass with a fixed replacement or error.
type recordingHandler struct {
	NopHandler
	rep *Replacement
	err error

	animations []int
	collected  []int
	roots      []int
	nodes      []int
	worlds     []mgl32.Mat4
	scenes     []int
	results    []*Result
}

func (h *recordingHandler) Primitive(*gltf.Document, *gltf.Primitive, [][]byte) (*Replacement, error) {
	return h.rep, h.err
}

func (h *recordingHandler) Animation(_ *gltf.Document, index int) {
	h.animations = append(h.animations, index)
}

func (h *recordingHandler) AnimationsCollected(_ *gltf.Document, animations, roots []int) {
	h.collected = append([]int(nil), animations...)
	h.roots = append([]int(nil), roots...)
}

func (h *recordingHandler) Node(_ *gltf.Document, index int, world mgl32.Mat4) {
	h.nodes = append(h.nodes, index)
	h.worlds = append(h.worlds, world)
}

func (h *recordingHandler) SceneCompleted(_ *gltf.Document, scene int, result *Result) {
	h.scenes = append(h.scenes, scene)
	h.results = append(h.results, result)
}

func TestSessionLoad(t *testing.T) {
	doc, buffers := sceneFixture(t)
	h := &recordingHandler{}
	s := NewSession(NewRegistry(h))

	res, err := s.Load(doc, buffers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(res.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", res.Errors)
	}
	if len(res.Meshes) != 1 || res.Meshes[0].Name != "tri" || len(res.Meshes[0].Primitives) != 1 {
		t.Fatalf("Meshes = %+v, want one mesh with one primitive", res.Meshes)
	}
	if len(res.Meshes[0].Primitives[0].Positions) != 3 {
		t.Errorf("Positions = %v, want 3 entries", res.Meshes[0].Primitives[0].Positions)
	}

	if !reflect.DeepEqual(h.animations, []int{0, 1}) {
		t.Errorf("animation events = %v, want [0 1]", h.animations)
	}
	if !reflect.DeepEqual(h.collected, []int{0, 1}) {
		t.Errorf("collected animations = %v, want [0 1]", h.collected)
	}
	if !reflect.DeepEqual(h.roots, []int{0, 2}) {
		t.Errorf("animated roots = %v, want ascending [0 2]", h.roots)
	}

	// Scene lists root 2 first, then root 0; children follow their parents.
	if !reflect.DeepEqual(h.nodes, []int{2, 3, 0, 1}) {
		t.Fatalf("node walk = %v, want [2 3 0 1]", h.nodes)
	}
	worlds := make(map[int]mgl32.Mat4, len(h.nodes))
	for i, n := range h.nodes {
		worlds[n] = h.worlds[i]
	}
	if got := worlds[3].Col(3); got != (mgl32.Vec4{0, 0, 3, 1}) {
		t.Errorf("node 3 world translation = %v, want (0,0,3)", got)
	}
	if got := worlds[1].Col(3); got != (mgl32.Vec4{1, 2, 0, 1}) {
		t.Errorf("node 1 world translation = %v, want composed (1,2,0)", got)
	}

	if !reflect.DeepEqual(h.scenes, []int{0}) {
		t.Errorf("scene completions = %v, want [0]", h.scenes)
	}
	if len(h.results) != 1 || h.results[0] != res {
		t.Error("SceneCompleted did not receive the load result")
	}
}

func TestSessionLoad_NilRegistry(t *testing.T) {
	doc, buffers := sceneFixture(t)
	res, err := NewSession(nil).Load(doc, buffers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(res.Meshes) != 1 {
		t.Fatalf("Meshes = %+v, want the document mesh", res.Meshes)
	}
}

func TestSessionLoad_Substitution(t *testing.T) {
	doc, buffers := sceneFixture(t)
	h := &recordingHandler{rep: pointReplacement(7, 8, 9)}
	s := NewSession(NewRegistry(h))

	res, err := s.Load(doc, buffers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", res.Errors)
	}
	got := res.Meshes[0].Primitives[0].Positions
	if !reflect.DeepEqual(got, []mgl32.Vec3{{7, 8, 9}}) {
		t.Fatalf("Positions = %v, want replacement geometry", got)
	}
}

func TestSessionLoad_LastReplacementWins(t *testing.T) {
	doc, buffers := sceneFixture(t)
	first := &recordingHandler{rep: pointReplacement(1, 1, 1)}
	second := &recordingHandler{rep: pointReplacement(2, 2, 2)}

	res, err := NewSession(NewRegistry(first, second)).Load(doc, buffers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := res.Meshes[0].Primitives[0].Positions[0]; got != (mgl32.Vec3{2, 2, 2}) {
		t.Fatalf("Positions[0] = %v, want the later handler's replacement", got)
	}

	res, err = NewSession(NewRegistry(second, first)).Load(doc, buffers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := res.Meshes[0].Primitives[0].Positions[0]; got != (mgl32.Vec3{1, 1, 1}) {
		t.Fatalf("Positions[0] = %v, want registration order to decide", got)
	}
}

func TestSessionLoad_HandlerErrorFallsBack(t *testing.T) {
	doc, buffers := sceneFixture(t)
	boom := errors.New("boom")
	h := &recordingHandler{err: fmt.Errorf("decoding: %w", boom)}
	core, logs := observer.New(zapcore.WarnLevel)

	res, err := NewSession(NewRegistry(h), WithLogger(zap.New(core))).Load(doc, buffers)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil: primitive failures stay local", err)
	}

	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want one", res.Errors)
	}
	perr := res.Errors[0]
	if perr.Mesh != 0 || perr.Primitive != 0 || !errors.Is(perr, boom) {
		t.Errorf("error = %+v, want mesh 0 primitive 0 wrapping the handler error", perr)
	}
	if want := "mesh 0 primitive 0: decoding: boom"; perr.Error() != want {
		t.Errorf("Error() = %q, want %q", perr.Error(), want)
	}

	// The primitive still loads from its own description.
	if len(res.Meshes[0].Primitives) != 1 || len(res.Meshes[0].Primitives[0].Positions) != 3 {
		t.Error("failed primitive did not fall back to its stored geometry")
	}
	if logs.FilterMessage("primitive load failed").Len() != 1 {
		t.Errorf("failure not logged; entries: %+v", logs.All())
	}
}

func TestSessionLoad_BadReplacement(t *testing.T) {
	doc, buffers := sceneFixture(t)
	h := &recordingHandler{rep: &Replacement{Doc: &gltf.Document{}}}

	res, err := NewSession(NewRegistry(h)).Load(doc, buffers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], ErrBadReplacement) {
		t.Fatalf("Errors = %v, want ErrBadReplacement", res.Errors)
	}
	if len(res.Meshes[0].Primitives) != 1 {
		t.Error("primitive dropped instead of falling back")
	}
}

func TestSessionLoad_Playback(t *testing.T) {
	doc, buffers := sceneFixture(t)
	ph := &PlaybackHandler{}

	res, err := NewSession(NewRegistry(ph)).Load(doc, buffers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.Playback == nil {
		t.Fatal("Playback = nil, want descriptor")
	}
	// The last observed animation plays, from the lowest animated root.
	if res.Playback.Animation != 1 || res.Playback.Root != 0 {
		t.Fatalf("Playback = %+v, want animation 1 at root 0", res.Playback)
	}
}

func TestSessionLoad_PlaybackRequiresAnimationAndRoots(t *testing.T) {
	t.Run("no animations", func(t *testing.T) {
		doc, buffers := sceneFixture(t)
		doc.Animations = nil

		res, err := NewSession(NewRegistry(&PlaybackHandler{})).Load(doc, buffers)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if res.Playback != nil {
			t.Fatalf("Playback = %+v, want nil without animations", res.Playback)
		}
	})

	t.Run("no animated roots", func(t *testing.T) {
		doc, buffers := sceneFixture(t)
		doc.Scenes[0].Nodes = nil

		res, err := NewSession(NewRegistry(&PlaybackHandler{})).Load(doc, buffers)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if res.Playback != nil {
			t.Fatalf("Playback = %+v, want nil without animated roots", res.Playback)
		}
	})
}

func TestSessionLoad_NoScene(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc *gltf.Document)
	}{
		{
			name: "no scenes",
			mutate: func(doc *gltf.Document) {
				doc.Scene = nil
				doc.Scenes = nil
			},
		},
		{
			name: "declared scene out of range",
			mutate: func(doc *gltf.Document) {
				doc.Scene = gltf.Index(7)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, buffers := sceneFixture(t)
			tt.mutate(doc)
			h := &recordingHandler{}

			res, err := NewSession(NewRegistry(h, &PlaybackHandler{})).Load(doc, buffers)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(h.nodes) != 0 || len(h.scenes) != 0 {
				t.Errorf("walked %v, completed %v, want no scene traversal", h.nodes, h.scenes)
			}
			if h.collected == nil || len(h.roots) != 0 {
				t.Errorf("collected %v roots %v, want collection event with no roots", h.collected, h.roots)
			}
			if res.Playback != nil {
				t.Errorf("Playback = %+v, want nil without a scene", res.Playback)
			}
			if len(res.Meshes) != 1 {
				t.Error("meshes not loaded without a scene")
			}
		})
	}
}

func TestSessionLoad_SharedNodeVisitedOnce(t *testing.T) {
	doc, buffers := sceneFixture(t)
	// Node 3 now hangs under both roots.
	doc.Nodes[0].Children = append(doc.Nodes[0].Children, 3)
	h := &recordingHandler{}

	if _, err := NewSession(NewRegistry(h)).Load(doc, buffers); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	visits := 0
	for _, n := range h.nodes {
		if n == 3 {
			visits++
		}
	}
	if visits != 1 {
		t.Fatalf("node 3 visited %d times, want once", visits)
	}
}
