package joint

import (
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/rig"
	"github.com/mogaika/overgrowth_browser/utils"
)

// Decode reads one joint record: type, stop angles, two bone ids and,
// for hinges, the rotation axis.
func Decode(bs *utils.BufStack) (Joint, error) {
	var j Joint

	t, err := bs.ReadLI32()
	if err != nil {
		return j, errors.Wrapf(err, "type")
	}
	j.Type = Type(t)
	if !j.Type.Valid() {
		return j, errors.Wrapf(rig.ErrUnsupportedStructure, "unknown joint type %d", t)
	}

	if j.StopAngles, err = bs.ReadLFArray(j.Type.StopAngleCount()); err != nil {
		return j, errors.Wrapf(err, "stop angles")
	}

	ids, err := bs.ReadLI32Array(2)
	if err != nil {
		return j, errors.Wrapf(err, "bone ids")
	}
	j.BoneIDs = [2]int32{ids[0], ids[1]}

	if j.Type == Hinge {
		if j.Axis, err = bs.ReadVec3(); err != nil {
			return j, errors.Wrapf(err, "axis")
		}
	}
	return j, nil
}

func (j *Joint) Encode(bw *utils.BufWriter) error {
	if err := j.Validate(-1); err != nil {
		return err
	}
	bw.WriteLI32(int32(j.Type))
	bw.WriteLFArray(j.StopAngles)
	bw.WriteLI32Array(j.BoneIDs[:])
	if j.Type == Hinge {
		bw.WriteVec3(j.Axis)
	}
	return nil
}
