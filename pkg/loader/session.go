package loader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// PrimitiveError records a failure confined to one primitive. The load
// continues past it; the primitive keeps its original (possibly incomplete)
// description.
type PrimitiveError struct {
	Mesh      int
	Primitive int
	Err       error
}

// Error implements error.
func (e *PrimitiveError) Error() string {
	return fmt.Sprintf("mesh %d primitive %d: %v", e.Mesh, e.Primitive, e.Err)
}

// Unwrap returns the underlying error.
func (e *PrimitiveError) Unwrap() error {
	return e.Err
}

// Result accumulates one load pass.
type Result struct {
	Meshes   []*Mesh           // one entry per document mesh, in order
	Playback *Playback         // set by a PlaybackHandler, if registered
	Errors   []*PrimitiveError // per-primitive failures; the load continued
}

// Session drives documents through a handler registry. The session owns the
// registry single-threaded for the duration of a Load call; independent
// sessions do not share state and may run concurrently.
type Session struct {
	reg *Registry
	log *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger routes session diagnostics to l.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession returns a session over reg. A nil registry is treated as empty.
func NewSession(reg *Registry, opts ...Option) *Session {
	if reg == nil {
		reg = NewRegistry()
	}
	s := &Session{reg: reg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load runs doc through the handler chain: primitives (with substitution and
// mesh extraction), animation observation, animation-root collection, the
// scene walk, and scene completion. Per-primitive failures are recorded in
// the result and logged; they do not stop the load. The returned error is
// reserved for whole-document failures.
func (s *Session) Load(doc *gltf.Document, buffers [][]byte) (*Result, error) {
	res := &Result{}

	for mi, mesh := range doc.Meshes {
		m := &Mesh{Name: mesh.Name}
		for pi, prim := range mesh.Primitives {
			srcDoc, srcPrim, srcBuffers := doc, prim, buffers

			rep, errs := s.runPrimitive(doc, prim, buffers)
			for _, err := range errs {
				s.fail(res, mi, pi, err)
			}
			if rep != nil {
				p, err := rep.Primitive()
				if err != nil {
					s.fail(res, mi, pi, err)
				} else {
					srcDoc, srcPrim, srcBuffers = rep.Doc, p, rep.Data
				}
			}

			built, err := BuildPrimitive(srcDoc, srcPrim, srcBuffers)
			if err != nil {
				s.fail(res, mi, pi, err)
				continue
			}
			m.Primitives = append(m.Primitives, built)
		}
		res.Meshes = append(res.Meshes, m)
	}

	for ai := range doc.Animations {
		for _, h := range s.reg.handlers {
			h.Animation(doc, ai)
		}
	}

	scene, ok := defaultScene(doc)
	var roots []int
	if ok {
		roots = animationRoots(doc, scene)
	}
	animations := make([]int, len(doc.Animations))
	for i := range animations {
		animations[i] = i
	}
	for _, h := range s.reg.handlers {
		h.AnimationsCollected(doc, animations, roots)
	}

	if ok {
		s.walkScene(doc, scene)
		for _, h := range s.reg.handlers {
			h.SceneCompleted(doc, scene, res)
		}
	}
	return res, nil
}

// runPrimitive offers prim to every handler in order. The last non-nil
// replacement wins; handler errors are collected without stopping the chain.
func (s *Session) runPrimitive(doc *gltf.Document, prim *gltf.Primitive, buffers [][]byte) (*Replacement, []error) {
	var rep *Replacement
	var errs []error
	for _, h := range s.reg.handlers {
		r, err := h.Primitive(doc, prim, buffers)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if r != nil {
			rep = r
		}
	}
	return rep, errs
}

func (s *Session) fail(res *Result, mesh, prim int, err error) {
	s.log.Warn("primitive load failed",
		zap.Int("mesh", mesh),
		zap.Int("primitive", prim),
		zap.Error(err))
	res.Errors = append(res.Errors, &PrimitiveError{Mesh: mesh, Primitive: prim, Err: err})
}

// defaultScene picks the document's scene: the declared default, else the
// first listed.
func defaultScene(doc *gltf.Document) (int, bool) {
	if doc.Scene != nil {
		if int(*doc.Scene) < len(doc.Scenes) {
			return int(*doc.Scene), true
		}
		return 0, false
	}
	if len(doc.Scenes) > 0 {
		return 0, true
	}
	return 0, false
}

// walkScene visits every node reachable from the scene roots in document
// order, composing world transforms. Nodes are visited once even if the
// document declares them twice.
func (s *Session) walkScene(doc *gltf.Document, scene int) {
	seen := make(map[int]bool, len(doc.Nodes))
	var walk func(node int, parent mgl32.Mat4)
	walk = func(node int, parent mgl32.Mat4) {
		if node < 0 || node >= len(doc.Nodes) || seen[node] {
			return
		}
		seen[node] = true
		world := parent.Mul4(localTransform(doc.Nodes[node]))
		for _, h := range s.reg.handlers {
			h.Node(doc, node, world)
		}
		for _, child := range doc.Nodes[node].Children {
			walk(int(child), world)
		}
	}
	for _, root := range doc.Scenes[scene].Nodes {
		walk(int(root), mgl32.Ident4())
	}
}
