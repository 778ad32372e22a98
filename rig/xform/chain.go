package xform

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/rig"
)

// InitialMatrices holds the bind orientation of every bone, indexed by bone.
// It is built once per skeleton and handed to every function that needs it.
type InitialMatrices []mgl32.Mat4

func NewInitialMatrices(stored [][16]float32) InitialMatrices {
	im := make(InitialMatrices, len(stored))
	for i := range stored {
		im[i] = ToMat4(stored[i])
	}
	return im
}

func checkLengths(parents []int32, mats []mgl32.Mat4, initial InitialMatrices) error {
	if len(mats) != len(parents) || len(initial) != len(parents) {
		return errors.Wrapf(rig.ErrInconsistentTopology,
			"%d parents, %d matrices, %d initial matrices", len(parents), len(mats), len(initial))
	}
	return nil
}

// ChainToWorld multiplies local transforms down the hierarchy:
// world[i] = world[parent] * local[i].
func ChainToWorld(parents []int32, locals []mgl32.Mat4) ([]mgl32.Mat4, error) {
	if len(locals) != len(parents) {
		return nil, errors.Wrapf(rig.ErrInconsistentTopology, "%d parents, %d matrices", len(parents), len(locals))
	}
	order, err := TopologicalOrder("bone", parents)
	if err != nil {
		return nil, err
	}
	world := make([]mgl32.Mat4, len(locals))
	for _, i := range order {
		if p := parents[i]; p == NoParent {
			world[i] = locals[i]
		} else {
			world[i] = world[p].Mul4(locals[i])
		}
	}
	return world, nil
}

// ComposeWorld turns per-bone local rotations into the world matrices stored
// in keyframes. Each bone's delta from bind pose is its parent's delta times
// its own local transform; the stored matrix is that delta applied to the
// bone's initial matrix.
func ComposeWorld(parents []int32, locals []mgl32.Mat4, initial InitialMatrices) ([]mgl32.Mat4, error) {
	if err := checkLengths(parents, locals, initial); err != nil {
		return nil, err
	}
	deltas, err := ChainToWorld(parents, locals)
	if err != nil {
		return nil, err
	}
	world := make([]mgl32.Mat4, len(deltas))
	for i := range deltas {
		world[i] = deltas[i].Mul4(initial[i])
	}
	return world, nil
}

// DecomposeLocal is the inverse of ComposeWorld.
func DecomposeLocal(parents []int32, world []mgl32.Mat4, initial InitialMatrices) ([]mgl32.Mat4, error) {
	if err := checkLengths(parents, world, initial); err != nil {
		return nil, err
	}
	order, err := TopologicalOrder("bone", parents)
	if err != nil {
		return nil, err
	}
	deltas := make([]mgl32.Mat4, len(world))
	for i := range world {
		deltas[i] = world[i].Mul4(initial[i].Inv())
	}
	locals := make([]mgl32.Mat4, len(world))
	for _, i := range order {
		if p := parents[i]; p == NoParent {
			locals[i] = deltas[i]
		} else {
			locals[i] = deltas[p].Inv().Mul4(deltas[i])
		}
	}
	return locals, nil
}

// ToBoneSpace expresses a parent-space rotation in the bone's own rest frame.
func ToBoneSpace(local, rest mgl32.Mat4) mgl32.Mat4 {
	return rest.Inv().Mul4(local).Mul4(rest)
}

func FromBoneSpace(boneLocal, rest mgl32.Mat4) mgl32.Mat4 {
	return rest.Mul4(boneLocal).Mul4(rest.Inv())
}
