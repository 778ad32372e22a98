package joint

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/rig"
	"github.com/mogaika/overgrowth_browser/rig/xform"
)

// BoneRest is what reconstruction needs to know about a bone in the editor
// at bind pose. Vectors are editor space.
type BoneRest struct {
	Name   string
	Parent int32
	Head   mgl32.Vec3
	Tail   mgl32.Vec3
	XAxis  mgl32.Vec3 // world X axis of the bone
	ZAxis  mgl32.Vec3 // world Z axis of the bone
}

// Reconstruction describes the editor constraint to create for a joint.
type Reconstruction struct {
	Child int32
	Other int32
	// Name is set when neither bone is the other's parent, so the joint can
	// be matched to its second bone again on export.
	Name   string
	Limits Limits
	// Roll is added to the child's existing roll.
	Roll float32
}

func (r *Reconstruction) Parented() bool {
	return r.Name == ""
}

// Reconstruct picks the constrained child bone, restores its limits and
// computes the roll that lines the child's local axes up with the stored
// joint axis.
func Reconstruct(j Joint, bones []BoneRest) (Reconstruction, error) {
	var r Reconstruction
	if err := j.Validate(len(bones)); err != nil {
		return r, err
	}

	b0, b1 := j.BoneIDs[0], j.BoneIDs[1]
	childIsFirst := false
	switch {
	case bones[b0].Parent == b1:
		r.Child, r.Other = b0, b1
		childIsFirst = true
	case bones[b1].Parent == b0:
		r.Child, r.Other = b1, b0
	default:
		r.Child, r.Other = b1, b0
		r.Name = bones[b0].Name
	}
	child := &bones[r.Child]

	sa := j.StopAngles
	switch j.Type {
	case Fixed:
	case Hinge:
		r.Limits.Min[0], r.Limits.Max[0] = sa[0], sa[1]

		axis := xform.EngineToEditor(mgl32.Vec3(j.Axis))
		if childIsFirst {
			axis = axis.Mul(-1)
		}
		x := child.XAxis.Normalize().Dot(axis)
		y := child.ZAxis.Normalize().Dot(axis)
		r.Roll = float32(math.Atan2(float64(x), float64(y)) + math.Pi/2)
	case Amotor:
		r.Limits.Min = mgl32.Vec3{sa[AmotorXMin], sa[AmotorYMin], sa[AmotorZMin]}
		r.Limits.Max = mgl32.Vec3{sa[AmotorXMax], sa[AmotorYMax], sa[AmotorZMax]}

		d6, err := xform.D6Matrix(child.Head, child.Tail)
		if err != nil {
			return r, errors.Wrapf(err, "bone %d", r.Child)
		}
		axis := xform.EngineToEditor(xform.Row(d6, 0))
		x := -child.XAxis.Normalize().Dot(axis)
		y := -child.ZAxis.Normalize().Dot(axis)
		r.Roll = float32(math.Atan2(float64(x), float64(y)))
	default:
		return r, errors.Wrapf(rig.ErrUnsupportedStructure, "unknown joint type %d", int32(j.Type))
	}
	return r, nil
}
