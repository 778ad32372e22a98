package anm

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/overgrowth_browser/rig/xform"
)

func editorInitial(initial xform.InitialMatrices) xform.InitialMatrices {
	r := make(xform.InitialMatrices, len(initial))
	for i := range initial {
		r[i] = xform.ToMat4(xform.EngineToEditorMatrix(xform.FromMat4(initial[i])))
	}
	return r
}

// PoseFromKeyframe returns per-bone local transforms in editor axis order.
// initial holds the skeleton's stored bone matrices in engine order.
func PoseFromKeyframe(kf *Keyframe, parents []int32, initial xform.InitialMatrices) ([]mgl32.Mat4, error) {
	world := make([]mgl32.Mat4, len(kf.BoneMatrices))
	for i := range kf.BoneMatrices {
		world[i] = xform.ToMat4(xform.EngineToEditorMatrix(kf.BoneMatrices[i]))
	}
	return xform.DecomposeLocal(parents, world, editorInitial(initial))
}

// KeyframeFromPose is the inverse of PoseFromKeyframe. Only time and bone
// matrices of the result are set.
func KeyframeFromPose(time int32, locals []mgl32.Mat4, parents []int32, initial xform.InitialMatrices) (Keyframe, error) {
	world, err := xform.ComposeWorld(parents, locals, editorInitial(initial))
	if err != nil {
		return Keyframe{}, err
	}
	kf := Keyframe{Time: time, BoneMatrices: make([][16]float32, len(world))}
	for i := range world {
		kf.BoneMatrices[i] = xform.EditorToEngineMatrix(xform.FromMat4(world[i]))
	}
	return kf, nil
}
