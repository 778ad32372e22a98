package xform

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/rig"
)

// bones closer than this to the editor up axis use the Z reference instead
const upAxisDotLimit = 0.95

// InitialBoneMatrix builds the canonical bind orientation of a bone from its
// editor-space head and tail. The result is in engine order with a zero
// translation row, ready to be stored in a skeleton file.
func InitialBoneMatrix(head, tail mgl32.Vec3) ([16]float32, error) {
	dir := tail.Sub(head)
	if dir.Len() == 0 {
		return [16]float32{}, errors.Wrapf(rig.ErrUnsupportedStructure, "zero length bone at %v", head)
	}
	z := dir.Normalize()

	var x, y mgl32.Vec3
	up := mgl32.Vec3{0, 1, 0}
	if float32(math.Abs(float64(z.Dot(up)))) > upAxisDotLimit {
		x = mgl32.Vec3{0, 0, 1}
		y = x.Cross(z).Normalize()
		x = y.Cross(z).Normalize()
	} else {
		x = z.Cross(up).Normalize()
		y = z.Cross(x).Normalize()
	}

	x, y, z = EditorToEngine(x), EditorToEngine(y), EditorToEngine(z)
	return [16]float32{
		x[0], x[1], x[2], 0,
		y[0], y[1], y[2], 0,
		z[0], z[1], z[2], 0,
		0, 0, 0, 1,
	}, nil
}

// D6Matrix is the frame a generic 6-dof joint is built in by the physics
// side: the bone direction in engine order with a fixed, slightly skewed
// right reference so it never lines up exactly with a bone.
func D6Matrix(head, tail mgl32.Vec3) ([16]float32, error) {
	dir := tail.Sub(head)
	if dir.Len() == 0 {
		return [16]float32{}, errors.Wrapf(rig.ErrUnsupportedStructure, "zero length bone at %v", head)
	}
	vec := EditorToEngine(dir.Normalize())
	right := mgl32.Vec3{0.0001, 1.0001, 0.000003}
	up := vec.Cross(right).Normalize()
	right = up.Cross(vec).Normalize()

	return [16]float32{
		right[0], right[1], right[2], 0,
		up[0], up[1], up[2], 0,
		vec[0], vec[1], vec[2], 0,
		0, 0, 0, 1,
	}, nil
}
