package loader

import (
	"sort"

	"github.com/qmuntal/gltf"
)

// Playback describes which animation to start once a scene finishes loading
// and the root node to drive it from.
type Playback struct {
	Animation int // index into the document's animations
	Root      int // index into the document's nodes
}

// PlaybackHandler watches load events and attaches a Playback for the most
// recently observed animation to the lowest animated scene root. Register it
// alongside the decoding handlers to get a ready-to-play descriptor on the
// load result. Without an observed animation or an animated root the result
// is left untouched.
type PlaybackHandler struct {
	NopHandler
	animation *int
	roots     []int
}

// Animation implements Handler.
func (p *PlaybackHandler) Animation(_ *gltf.Document, index int) {
	idx := index
	p.animation = &idx
}

// AnimationsCollected implements Handler.
func (p *PlaybackHandler) AnimationsCollected(_ *gltf.Document, _ []int, roots []int) {
	p.roots = roots
}

// SceneCompleted implements Handler.
func (p *PlaybackHandler) SceneCompleted(_ *gltf.Document, _ int, result *Result) {
	if p.animation == nil || len(p.roots) == 0 {
		return
	}
	result.Playback = &Playback{Animation: *p.animation, Root: p.roots[0]}
}

// animationRoots returns the scene's root nodes whose subtrees contain a node
// targeted by an animation channel, ascending.
func animationRoots(doc *gltf.Document, scene int) []int {
	if scene < 0 || scene >= len(doc.Scenes) {
		return nil
	}
	targets := make(map[int]bool)
	for _, anim := range doc.Animations {
		for _, ch := range anim.Channels {
			if ch.Target.Node != nil {
				targets[int(*ch.Target.Node)] = true
			}
		}
	}
	if len(targets) == 0 {
		return nil
	}

	// Roots may share subtrees, so each query walks with its own visit set.
	var roots []int
	for _, root := range doc.Scenes[scene].Nodes {
		if subtreeContains(doc, int(root), targets, make(map[int]bool)) {
			roots = append(roots, int(root))
		}
	}
	sort.Ints(roots)
	return roots
}

// subtreeContains reports whether the subtree under node holds any target.
func subtreeContains(doc *gltf.Document, node int, targets, seen map[int]bool) bool {
	if node < 0 || node >= len(doc.Nodes) || seen[node] {
		return false
	}
	seen[node] = true
	if targets[node] {
		return true
	}
	for _, child := range doc.Nodes[node].Children {
		if subtreeContains(doc, int(child), targets, seen) {
			return true
		}
	}
	return false
}
