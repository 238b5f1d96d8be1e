package draco

import (
	"fmt"
	"sort"

	"github.com/qmuntal/gltf"
	"go.uber.org/multierr"

	"github.com/meshtools/gltf-draco/pkg/loader"
)

// ErrNoFallback reports a compressed primitive whose accessors carry no
// uncompressed data, so the compression record cannot be removed.
var ErrNoFallback = fmt.Errorf("primitive has no uncompressed fallback")

// Decompress returns a copy of doc in which every compressed primitive is
// rewritten to reference freshly decoded geometry, with unreferenced
// accessors, views, and buffers pruned. Primitives that fail to process keep
// their compressed form and contribute a *loader.PrimitiveError to the
// combined error; the returned document is usable either way. The extension
// declarations are dropped once no compression record remains.
func (h *Handler) Decompress(doc *gltf.Document, buffers [][]byte) (*gltf.Document, [][]byte, error) {
	out := loader.CopyDocument(doc)
	outBuffers := append([][]byte(nil), buffers...)

	var errs []error
	remaining := false
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			np := out.Meshes[mi].Primitives[pi]
			rep, err := h.Primitive(doc, prim, buffers)
			if err != nil {
				errs = append(errs, &loader.PrimitiveError{Mesh: mi, Primitive: pi, Err: err})
			}
			if rep == nil {
				if _, ok := np.Extensions[ExtensionName]; ok {
					remaining = true
				}
				continue
			}
			if err := substitute(out, np, rep, &outBuffers); err != nil {
				errs = append(errs, &loader.PrimitiveError{Mesh: mi, Primitive: pi, Err: err})
				if _, ok := np.Extensions[ExtensionName]; ok {
					remaining = true
				}
			}
		}
	}
	if !remaining {
		out.ExtensionsUsed = removeString(out.ExtensionsUsed, ExtensionName)
		out.ExtensionsRequired = removeString(out.ExtensionsRequired, ExtensionName)
	}
	outBuffers = pruneKeepingRecords(out, outBuffers)
	return out, outBuffers, multierr.Combine(errs...)
}

// pruneKeepingRecords garbage-collects unreferenced accessors, views, and
// buffers while keeping payload views of surviving compression records alive,
// then re-points those records at the views' post-prune indices. Pinning is
// deliberately lenient: a record that names a payload view keeps it even when
// the record fails full validation, so a primitive reported as unprocessable
// never ends up dangling.
func pruneKeepingRecords(doc *gltf.Document, buffers [][]byte) [][]byte {
	var pinned []int
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			if ext := recordExtension(prim); ext != nil {
				pinned = append(pinned, int(*ext.BufferView))
			}
		}
	}

	buffers, viewMap := loader.PruneKeepingViews(doc, buffers, pinned)

	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			ext := recordExtension(prim)
			if ext == nil {
				continue
			}
			v := int(*ext.BufferView)
			if v >= len(viewMap) || viewMap[v] < 0 {
				continue
			}
			// The record value may be shared with the source document, so
			// re-point a fresh copy instead of mutating in place.
			prim.Extensions[ExtensionName] = &Extension{
				BufferView: gltf.Index(uint32(viewMap[v])),
				Attributes: ext.Attributes,
			}
		}
	}
	return buffers
}

// recordExtension reads a primitive's compression record without validating
// its attribute map, returning nil when no record with a payload view exists.
func recordExtension(prim *gltf.Primitive) *Extension {
	raw, ok := prim.Extensions[ExtensionName]
	if !ok {
		return nil
	}
	ext, err := asExtension(raw)
	if err != nil || ext.BufferView == nil {
		return nil
	}
	return ext
}

// substitute grafts rep's geometry into out and points np at it. Validation
// happens before any mutation so a rejected replacement leaves out intact.
func substitute(out *gltf.Document, np *gltf.Primitive, rep *loader.Replacement, outBuffers *[][]byte) error {
	p, err := rep.Primitive()
	if err != nil {
		return err
	}
	frag := rep.Doc
	if len(rep.Data) < len(frag.Buffers) {
		return fmt.Errorf("%w: %d data blocks for %d buffers", loader.ErrBadReplacement, len(rep.Data), len(frag.Buffers))
	}
	for i, b := range frag.Buffers {
		if len(rep.Data[i]) < int(b.ByteLength) {
			return fmt.Errorf("%w: buffer %d holds %d bytes, declared %d", loader.ErrBadReplacement, i, len(rep.Data[i]), b.ByteLength)
		}
	}

	bufBase := len(out.Buffers)
	for i, b := range frag.Buffers {
		out.Buffers = append(out.Buffers, &gltf.Buffer{ByteLength: b.ByteLength, Data: rep.Data[i]})
		*outBuffers = append(*outBuffers, rep.Data[i])
	}
	viewBase := len(out.BufferViews)
	for _, v := range frag.BufferViews {
		nv := *v
		nv.Buffer += uint32(bufBase)
		out.BufferViews = append(out.BufferViews, &nv)
	}
	accBase := len(out.Accessors)
	for _, a := range frag.Accessors {
		na := *a
		if a.BufferView != nil {
			na.BufferView = gltf.Index(*a.BufferView + uint32(viewBase))
		}
		na.Min = append(a.Min[:0:0], a.Min...)
		na.Max = append(a.Max[:0:0], a.Max...)
		out.Accessors = append(out.Accessors, &na)
	}

	attrs := make(gltf.Attribute, len(p.Attributes))
	for name, index := range p.Attributes {
		attrs[name] = index + uint32(accBase)
	}
	np.Attributes = attrs
	if p.Indices != nil {
		np.Indices = gltf.Index(*p.Indices + uint32(accBase))
	} else {
		np.Indices = nil
	}
	np.Mode = p.Mode
	delete(np.Extensions, ExtensionName)
	if len(np.Extensions) == 0 {
		np.Extensions = nil
	}
	return nil
}

// Strip returns a copy of doc with compression records removed from every
// primitive whose accessors carry uncompressed fallback data, then prunes
// payloads nothing references. Primitives without a fallback keep their
// record and contribute a *loader.PrimitiveError wrapping ErrNoFallback; the
// extension declarations stay as long as any record remains.
func Strip(doc *gltf.Document, buffers [][]byte) (*gltf.Document, [][]byte, error) {
	out := loader.CopyDocument(doc)
	outBuffers := append([][]byte(nil), buffers...)

	var errs []error
	remaining := false
	for mi, mesh := range out.Meshes {
		for pi, np := range mesh.Primitives {
			if _, ok := np.Extensions[ExtensionName]; !ok {
				continue
			}
			if err := fallbackReady(out, np); err != nil {
				errs = append(errs, &loader.PrimitiveError{Mesh: mi, Primitive: pi, Err: err})
				remaining = true
				continue
			}
			delete(np.Extensions, ExtensionName)
			if len(np.Extensions) == 0 {
				np.Extensions = nil
			}
		}
	}
	if !remaining {
		out.ExtensionsUsed = removeString(out.ExtensionsUsed, ExtensionName)
		out.ExtensionsRequired = removeString(out.ExtensionsRequired, ExtensionName)
	}
	outBuffers = pruneKeepingRecords(out, outBuffers)
	return out, outBuffers, multierr.Combine(errs...)
}

// fallbackReady reports whether every accessor np references resolves to
// stored bytes. An accessor without a buffer view reads as zeros during
// loading, which is the compressed-only marker, not a fallback.
func fallbackReady(doc *gltf.Document, np *gltf.Primitive) error {
	check := func(index int, what string) error {
		if index < 0 || index >= len(doc.Accessors) {
			return fmt.Errorf("%w: %s accessor %d out of range", ErrInconsistentPrimitive, what, index)
		}
		if doc.Accessors[index].BufferView == nil {
			return fmt.Errorf("%w: %s accessor %d", ErrNoFallback, what, index)
		}
		return nil
	}

	names := make([]string, 0, len(np.Attributes))
	for name := range np.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := check(int(np.Attributes[name]), name); err != nil {
			return err
		}
	}
	if np.Indices != nil {
		if err := check(int(*np.Indices), "indices"); err != nil {
			return err
		}
	}
	return nil
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
