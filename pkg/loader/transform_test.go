package loader

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

func TestLocalTransform_Defaults(t *testing.T) {
	if got := localTransform(&gltf.Node{}); got != mgl32.Ident4() {
		t.Fatalf("localTransform(zero node) = %v, want identity", got)
	}
}

func TestLocalTransform_Matrix(t *testing.T) {
	n := &gltf.Node{}
	for i := 0; i < 16; i += 5 {
		n.Matrix[i] = 1
	}
	n.Matrix[12] = 3
	n.Matrix[13] = -2

	if got, want := localTransform(n), mgl32.Translate3D(3, -2, 0); got != want {
		t.Fatalf("localTransform() = %v, want %v", got, want)
	}
}

func TestLocalTransform_MatrixOverridesComponents(t *testing.T) {
	n := &gltf.Node{}
	for i := 0; i < 16; i += 5 {
		n.Matrix[i] = 1
	}
	n.Matrix[12] = 3
	n.Translation[1] = 9

	if got := localTransform(n).Col(3); got != (mgl32.Vec4{3, 0, 0, 1}) {
		t.Fatalf("translation = %v, want the matrix to win", got)
	}
}

func TestLocalTransform_Components(t *testing.T) {
	n := &gltf.Node{}
	n.Translation[0] = 1
	n.Scale[0], n.Scale[1], n.Scale[2] = 2, 2, 2

	want := mgl32.Translate3D(1, 0, 0).Mul4(mgl32.Scale3D(2, 2, 2))
	if got := localTransform(n); got != want {
		t.Fatalf("localTransform() = %v, want %v", got, want)
	}
}

func TestLocalTransform_Rotation(t *testing.T) {
	// Quarter turn about Z, stored x, y, z, w.
	n := &gltf.Node{}
	n.Rotation[2] = 0.7071067811865476
	n.Rotation[3] = 0.7071067811865476

	got := localTransform(n)
	want := mgl32.HomogRotate3DZ(math.Pi / 2)
	if !got.ApproxEqualThreshold(want, 1e-6) {
		t.Fatalf("localTransform() = %v, want ~%v", got, want)
	}
}

func TestLocalTransform_ZeroScaleMeansUnit(t *testing.T) {
	n := &gltf.Node{}
	n.Translation[2] = 4

	if got, want := localTransform(n), mgl32.Translate3D(0, 0, 4); got != want {
		t.Fatalf("localTransform() = %v, want unit scale, %v", got, want)
	}
}
