package loader

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// localTransform returns a node's local transform. A non-identity matrix wins
// over the translation/rotation/scale components; zero-valued components are
// treated as their document defaults (identity rotation, unit scale).
func localTransform(n *gltf.Node) mgl32.Mat4 {
	if m, ok := nodeMatrix(n); ok {
		return m
	}

	t := mgl32.Translate3D(n.Translation[0], n.Translation[1], n.Translation[2])
	r := nodeRotation(n).Mat4()
	sc := n.ScaleOrDefault()
	s := mgl32.Scale3D(sc[0], sc[1], sc[2])

	return t.Mul4(r).Mul4(s)
}

// nodeMatrix converts the node's column-major matrix; ok is false when the
// matrix is unset or identity, in which case the caller composes the
// transform from components.
func nodeMatrix(n *gltf.Node) (mgl32.Mat4, bool) {
	m := mgl32.Mat4(n.MatrixOrDefault())
	if m == mgl32.Ident4() {
		return mgl32.Mat4{}, false
	}
	return m, true
}

// nodeRotation returns the node's unit rotation quaternion. The document
// stores x, y, z, w; an all-zero value means unset.
func nodeRotation(n *gltf.Node) mgl32.Quat {
	q := n.RotationOrDefault()
	return mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], q[1], q[2]}}.Normalize()
}
