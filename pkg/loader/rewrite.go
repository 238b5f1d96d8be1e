package loader

import (
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// CopyDocument returns a copy of doc that is safe to restructure: buffers,
// buffer views, accessors, meshes, primitives, images, skins, and animation
// samplers are duplicated, along with the slices and maps referencing them.
// Leaf objects that rewriting never edits (nodes, scenes, materials,
// textures, cameras) are shared with the input.
func CopyDocument(doc *gltf.Document) *gltf.Document {
	out := new(gltf.Document)
	*out = *doc

	out.Buffers = make([]*gltf.Buffer, len(doc.Buffers))
	for i, b := range doc.Buffers {
		nb := *b
		out.Buffers[i] = &nb
	}
	out.BufferViews = make([]*gltf.BufferView, len(doc.BufferViews))
	for i, v := range doc.BufferViews {
		nv := *v
		out.BufferViews[i] = &nv
	}
	out.Accessors = make([]*gltf.Accessor, len(doc.Accessors))
	for i, a := range doc.Accessors {
		na := *a
		if a.BufferView != nil {
			na.BufferView = gltf.Index(*a.BufferView)
		}
		if a.Sparse != nil {
			sp := *a.Sparse
			na.Sparse = &sp
		}
		out.Accessors[i] = &na
	}
	out.Meshes = make([]*gltf.Mesh, len(doc.Meshes))
	for i, m := range doc.Meshes {
		nm := *m
		nm.Primitives = make([]*gltf.Primitive, len(m.Primitives))
		for j, p := range m.Primitives {
			nm.Primitives[j] = copyPrimitive(p)
		}
		out.Meshes[i] = &nm
	}
	out.Images = make([]*gltf.Image, len(doc.Images))
	for i, img := range doc.Images {
		ni := *img
		if img.BufferView != nil {
			ni.BufferView = gltf.Index(*img.BufferView)
		}
		out.Images[i] = &ni
	}
	out.Skins = make([]*gltf.Skin, len(doc.Skins))
	for i, s := range doc.Skins {
		ns := *s
		if s.InverseBindMatrices != nil {
			ns.InverseBindMatrices = gltf.Index(*s.InverseBindMatrices)
		}
		out.Skins[i] = &ns
	}
	out.Animations = make([]*gltf.Animation, len(doc.Animations))
	for i, a := range doc.Animations {
		na := *a
		na.Samplers = make([]*gltf.AnimationSampler, len(a.Samplers))
		for j, smp := range a.Samplers {
			nsmp := *smp
			na.Samplers[j] = &nsmp
		}
		out.Animations[i] = &na
	}
	out.ExtensionsUsed = append([]string(nil), doc.ExtensionsUsed...)
	out.ExtensionsRequired = append([]string(nil), doc.ExtensionsRequired...)
	return out
}

func copyPrimitive(p *gltf.Primitive) *gltf.Primitive {
	np := *p
	if p.Indices != nil {
		np.Indices = gltf.Index(*p.Indices)
	}
	if p.Material != nil {
		np.Material = gltf.Index(*p.Material)
	}
	if p.Attributes != nil {
		attrs := make(gltf.Attribute, len(p.Attributes))
		for name, index := range p.Attributes {
			attrs[name] = index
		}
		np.Attributes = attrs
	}
	if p.Targets != nil {
		targets := make([]gltf.Attribute, len(p.Targets))
		for i, target := range p.Targets {
			nt := make(gltf.Attribute, len(target))
			for name, index := range target {
				nt[name] = index
			}
			targets[i] = nt
		}
		np.Targets = targets
	}
	if p.Extensions != nil {
		exts := make(gltf.Extensions, len(p.Extensions))
		for name, value := range p.Extensions {
			exts[name] = value
		}
		np.Extensions = exts
	}
	return &np
}

// PruneUnreachable drops accessors, buffer views, and buffers nothing
// references, remapping every reference site in place. doc must be a
// CopyDocument result or otherwise safe to mutate. buffers, when non-nil, is
// the parallel byte-slice list; the pruned parallel list is returned.
//
// Reference sites covered: primitive attributes, indices, and morph targets;
// skin inverse bind matrices; animation sampler inputs and outputs; accessor
// buffer views including sparse index/value views; image buffer views; buffer
// view owning buffers.
func PruneUnreachable(doc *gltf.Document, buffers [][]byte) [][]byte {
	pruned, _ := PruneKeepingViews(doc, buffers, nil)
	return pruned
}

// PruneKeepingViews is PruneUnreachable with pinned buffer views: the listed
// view indices survive even when no accessor or image references them, for
// callers holding view references the pruner cannot see (extension payloads).
// The returned map translates pre-prune view indices to post-prune ones, -1
// for dropped views, so those references can be rewritten.
func PruneKeepingViews(doc *gltf.Document, buffers [][]byte, pinned []int) ([][]byte, []int) {
	// Accessors reachable from primitives, skins, and animation samplers.
	usedAcc := make(map[int]bool)
	markAcc := func(i int) {
		if i >= 0 && i < len(doc.Accessors) {
			usedAcc[i] = true
		}
	}
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			for _, index := range prim.Attributes {
				markAcc(int(index))
			}
			if prim.Indices != nil {
				markAcc(int(*prim.Indices))
			}
			for _, target := range prim.Targets {
				for _, index := range target {
					markAcc(int(index))
				}
			}
		}
	}
	for _, skin := range doc.Skins {
		if skin.InverseBindMatrices != nil {
			markAcc(int(*skin.InverseBindMatrices))
		}
	}
	for _, anim := range doc.Animations {
		for _, smp := range anim.Samplers {
			markAcc(int(smp.Input))
			markAcc(int(smp.Output))
		}
	}

	accMap := compact(len(doc.Accessors), usedAcc)
	newAccessors := make([]*gltf.Accessor, 0, len(usedAcc))
	for i, a := range doc.Accessors {
		if accMap[i] >= 0 {
			newAccessors = append(newAccessors, a)
		}
	}
	doc.Accessors = newAccessors

	remapAcc := func(i int) int {
		if i >= 0 && i < len(accMap) && accMap[i] >= 0 {
			return accMap[i]
		}
		return i
	}
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			for name, index := range prim.Attributes {
				prim.Attributes[name] = uint32(remapAcc(int(index)))
			}
			if prim.Indices != nil {
				prim.Indices = gltf.Index(uint32(remapAcc(int(*prim.Indices))))
			}
			for _, target := range prim.Targets {
				for name, index := range target {
					target[name] = uint32(remapAcc(int(index)))
				}
			}
		}
	}
	for _, skin := range doc.Skins {
		if skin.InverseBindMatrices != nil {
			skin.InverseBindMatrices = gltf.Index(uint32(remapAcc(int(*skin.InverseBindMatrices))))
		}
	}
	for _, anim := range doc.Animations {
		for _, smp := range anim.Samplers {
			smp.Input = uint32(remapAcc(int(smp.Input)))
			smp.Output = uint32(remapAcc(int(smp.Output)))
		}
	}

	// Buffer views reachable from accessors and images.
	usedView := make(map[int]bool)
	markView := func(i int) {
		if i >= 0 && i < len(doc.BufferViews) {
			usedView[i] = true
		}
	}
	for _, a := range doc.Accessors {
		if a.BufferView != nil {
			markView(int(*a.BufferView))
		}
		if a.Sparse != nil {
			markView(int(a.Sparse.Indices.BufferView))
			markView(int(a.Sparse.Values.BufferView))
		}
	}
	for _, img := range doc.Images {
		if img.BufferView != nil {
			markView(int(*img.BufferView))
		}
	}
	for _, i := range pinned {
		markView(i)
	}

	viewMap := compact(len(doc.BufferViews), usedView)
	newViews := make([]*gltf.BufferView, 0, len(usedView))
	for i, v := range doc.BufferViews {
		if viewMap[i] >= 0 {
			newViews = append(newViews, v)
		}
	}
	doc.BufferViews = newViews

	remapView := func(i int) int {
		if i >= 0 && i < len(viewMap) && viewMap[i] >= 0 {
			return viewMap[i]
		}
		return i
	}
	for _, a := range doc.Accessors {
		if a.BufferView != nil {
			a.BufferView = gltf.Index(uint32(remapView(int(*a.BufferView))))
		}
		if a.Sparse != nil {
			a.Sparse.Indices.BufferView = uint32(remapView(int(a.Sparse.Indices.BufferView)))
			a.Sparse.Values.BufferView = uint32(remapView(int(a.Sparse.Values.BufferView)))
		}
	}
	for _, img := range doc.Images {
		if img.BufferView != nil {
			img.BufferView = gltf.Index(uint32(remapView(int(*img.BufferView))))
		}
	}

	// Buffers reachable from buffer views.
	usedBuf := make(map[int]bool)
	for _, v := range doc.BufferViews {
		if int(v.Buffer) < len(doc.Buffers) {
			usedBuf[int(v.Buffer)] = true
		}
	}

	bufMap := compact(len(doc.Buffers), usedBuf)
	newBuffers := make([]*gltf.Buffer, 0, len(usedBuf))
	var newData [][]byte
	for i, b := range doc.Buffers {
		if bufMap[i] < 0 {
			continue
		}
		newBuffers = append(newBuffers, b)
		if buffers != nil && i < len(buffers) {
			newData = append(newData, buffers[i])
		}
	}
	doc.Buffers = newBuffers

	for _, v := range doc.BufferViews {
		if int(v.Buffer) < len(bufMap) && bufMap[v.Buffer] >= 0 {
			v.Buffer = uint32(bufMap[v.Buffer])
		}
	}

	if buffers == nil {
		return nil, viewMap
	}
	return newData, viewMap
}

// compact builds an old-to-new index map keeping used entries in order;
// dropped entries map to -1.
func compact(n int, used map[int]bool) []int {
	m := make([]int, n)
	next := 0
	for i := 0; i < n; i++ {
		if used[i] {
			m[i] = next
			next++
		} else {
			m[i] = -1
		}
	}
	return m
}

// ConsolidateBuffers merges every buffer into a single 4-byte-aligned buffer,
// rewriting buffer views to preserve their intra-buffer offsets. Overlapping
// views stay valid because bytes are moved per buffer, not per view. The
// merged bytes are attached to the surviving buffer and returned; buffers
// must hold the resolved bytes of doc's buffers.
func ConsolidateBuffers(doc *gltf.Document, buffers [][]byte) ([]byte, error) {
	if len(buffers) < len(doc.Buffers) {
		return nil, errors.Errorf("consolidate: %d buffers resolved, document declares %d", len(buffers), len(doc.Buffers))
	}

	offsets := make([]int, len(doc.Buffers))
	total := 0
	for i, b := range doc.Buffers {
		if len(buffers[i]) < int(b.ByteLength) {
			return nil, errors.Errorf("consolidate: buffer %d holds %d bytes, declared %d", i, len(buffers[i]), b.ByteLength)
		}
		total = align4(total)
		offsets[i] = total
		total += int(b.ByteLength)
	}

	merged := make([]byte, total)
	for i, b := range doc.Buffers {
		copy(merged[offsets[i]:], buffers[i][:b.ByteLength])
	}

	for _, v := range doc.BufferViews {
		if int(v.Buffer) >= len(offsets) {
			return nil, errors.Errorf("consolidate: view references buffer %d of %d", v.Buffer, len(doc.Buffers))
		}
		v.ByteOffset += uint32(offsets[v.Buffer])
		v.Buffer = 0
	}
	doc.Buffers = []*gltf.Buffer{{ByteLength: uint32(total), Data: merged}}
	return merged, nil
}

func align4(n int) int {
	return (n + 3) &^ 3
}
