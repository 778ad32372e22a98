// Package xform converts between the editor and engine axis conventions and
// composes bone matrices along a bone-parent forest.
//
// Matrices are stored in files as 16 floats, four rows of four. Loading those
// floats straight into an mgl32.Mat4 turns every stored row into a column, so
// the stored translation row ends up in Col(3) as mgl32 expects.
package xform

import (
	"github.com/go-gl/mathgl/mgl32"
)

// EditorToEngine maps an editor-space (Z up) vector to engine order (Y up).
func EditorToEngine(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[2], -v[1]}
}

// EngineToEditor is the inverse of EditorToEngine.
func EngineToEditor(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0], -v[2], v[1]}
}

// EditorToEngineMatrix remaps every stored row, basis rows and translation
// alike. The fourth component of each row is left as is.
func EditorToEngineMatrix(m [16]float32) [16]float32 {
	var r [16]float32
	for row := 0; row < 4; row++ {
		o := row * 4
		r[o+0], r[o+1], r[o+2], r[o+3] = m[o+0], m[o+2], -m[o+1], m[o+3]
	}
	return r
}

func EngineToEditorMatrix(m [16]float32) [16]float32 {
	var r [16]float32
	for row := 0; row < 4; row++ {
		o := row * 4
		r[o+0], r[o+1], r[o+2], r[o+3] = m[o+0], -m[o+2], m[o+1], m[o+3]
	}
	return r
}

func ToMat4(m [16]float32) mgl32.Mat4 {
	return mgl32.Mat4(m)
}

func FromMat4(m mgl32.Mat4) [16]float32 {
	return [16]float32(m)
}

// Row returns stored row i (basis row 0..2 or translation row 3).
func Row(m [16]float32, i int) mgl32.Vec3 {
	return mgl32.Vec3{m[i*4], m[i*4+1], m[i*4+2]}
}
