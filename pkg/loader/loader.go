// Package loader drives glTF documents through an ordered set of load
// handlers. Handlers may substitute a primitive's description with a
// replacement fragment (the draco package provides one such handler for
// compressed geometry), observe animations and nodes, and decorate the load
// result. The package also contains the codec-agnostic machinery the handlers
// rely on: buffer resolution, packed accessor reads, mesh extraction, and
// document rewriting.
package loader

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// ErrBadReplacement reports a replacement fragment that does not hold exactly
// one mesh with exactly one primitive.
var ErrBadReplacement = errors.New("replacement fragment must hold exactly one primitive")

// Replacement substitutes a primitive's description: a minimal document
// fragment plus the raw bytes backing its buffers, one slice per fragment
// buffer. The loader consumes it in place of the original primitive.
type Replacement struct {
	Doc  *gltf.Document
	Data [][]byte
}

// Primitive returns the fragment's single primitive.
func (r *Replacement) Primitive() (*gltf.Primitive, error) {
	if r.Doc == nil || len(r.Doc.Meshes) != 1 || len(r.Doc.Meshes[0].Primitives) != 1 {
		return nil, ErrBadReplacement
	}
	return r.Doc.Meshes[0].Primitives[0], nil
}

// Handler observes one load pass. Embed NopHandler to implement only the
// events of interest.
type Handler interface {
	// Primitive may return a replacement description for prim, nil to leave
	// it untouched, or an error recorded against the primitive. buffers holds
	// the resolved bytes of the document's buffers.
	Primitive(doc *gltf.Document, prim *gltf.Primitive, buffers [][]byte) (*Replacement, error)

	// Animation is called once per animation, in document order.
	Animation(doc *gltf.Document, index int)

	// AnimationsCollected reports every animation index and the loaded
	// scene's root nodes owning animated descendants, both ascending. Called
	// once per load, after Animation and before the node walk.
	AnimationsCollected(doc *gltf.Document, animations, roots []int)

	// Node is called for every node reachable from the loaded scene, with
	// the node's world transform.
	Node(doc *gltf.Document, index int, world mgl32.Mat4)

	// SceneCompleted is called after the scene walk with the accumulated
	// result; handlers may decorate it.
	SceneCompleted(doc *gltf.Document, scene int, result *Result)
}

// NopHandler implements Handler with no-ops.
type NopHandler struct{}

// Primitive implements Handler.
func (NopHandler) Primitive(*gltf.Document, *gltf.Primitive, [][]byte) (*Replacement, error) {
	return nil, nil
}

// Animation implements Handler.
func (NopHandler) Animation(*gltf.Document, int) {}

// AnimationsCollected implements Handler.
func (NopHandler) AnimationsCollected(*gltf.Document, []int, []int) {}

// Node implements Handler.
func (NopHandler) Node(*gltf.Document, int, mgl32.Mat4) {}

// SceneCompleted implements Handler.
func (NopHandler) SceneCompleted(*gltf.Document, int, *Result) {}

// Registry is an ordered handler list. A registry belongs to the sessions it
// is passed to and is owned single-threaded for the duration of a load pass;
// it is not safe for concurrent mutation.
type Registry struct {
	handlers []Handler
}

// NewRegistry returns a registry holding handlers in the given order.
func NewRegistry(handlers ...Handler) *Registry {
	return &Registry{handlers: handlers}
}

// Register appends h. Handlers run in registration order; for primitive
// substitution the last replacement wins.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}
