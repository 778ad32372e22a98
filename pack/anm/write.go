package anm

import (
	"io"

	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/rig"
	"github.com/mogaika/overgrowth_browser/utils"
)

// Marshal encodes the clip at the current version.
func (a *Animation) Marshal() ([]byte, error) {
	return a.MarshalVersion(Version)
}

// MarshalVersion encodes the clip at an older version. Clips carrying data
// the target version cannot store are rejected instead of silently trimmed.
func (a *Animation) MarshalVersion(version int32) ([]byte, error) {
	if version < 0 || version > Version {
		return nil, errors.Wrapf(rig.ErrUnsupportedVersion, "animation version %d", version)
	}
	if err := a.Validate(-1); err != nil {
		return nil, err
	}
	if err := a.fitsVersion(version); err != nil {
		return nil, err
	}

	bw := utils.NewBufWriter()
	bw.WriteLI32(version)
	if version >= versionCentered {
		bw.WriteBool(a.Centered)
	}
	bw.WriteBool(a.Looping)
	if version >= versionStart {
		bw.WriteLI32(a.Start)
	}
	bw.WriteLI32(a.End)

	bw.WriteInt(len(a.Keyframes))
	for i := range a.Keyframes {
		writeKeyframe(bw, version, a.Centered, &a.Keyframes[i])
	}
	return bw.Bytes(), nil
}

func (a *Animation) Write(w io.Writer) error {
	return WriteVersion(w, a, Version)
}

func WriteVersion(w io.Writer, a *Animation, version int32) error {
	data, err := a.MarshalVersion(version)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func writeKeyframe(bw *utils.BufWriter, version int32, centered bool, kf *Keyframe) {
	bw.WriteLI32(kf.Time)
	if version >= versionWeights {
		bw.WriteInt(len(kf.Weights))
		bw.WriteLFArray(kf.Weights)
	}

	bw.WriteInt(len(kf.BoneMatrices))
	for _, m := range kf.BoneMatrices {
		bw.WriteMatrix(m)
	}

	if version >= versionWeapons {
		bw.WriteInt(len(kf.WeaponMatrices))
		for _, wm := range kf.WeaponMatrices {
			bw.WriteMatrix(wm.Matrix)
			if version >= versionWeaponRelative {
				bw.WriteLI32(wm.RelativeID)
				bw.WriteLF(wm.RelativeWeight)
			}
		}
	}

	if version >= versionMobility {
		bw.WriteBool(kf.Mobility != nil)
		if kf.Mobility != nil {
			bw.WriteMatrix(*kf.Mobility)
		}
	}

	if version >= versionEvents {
		bw.WriteInt(len(kf.Events))
		for _, ev := range kf.Events {
			bw.WriteLI32(ev.Bone)
			bw.WriteString(ev.Name)
		}
	}

	if version >= versionIKBones {
		bw.WriteInt(len(kf.IKBones))
		for _, ik := range kf.IKBones {
			bw.WriteVec3(ik.Start)
			bw.WriteVec3(ik.End)
			bw.WriteInt(len(ik.Path))
			bw.WriteLI32Array(ik.Path)
			bw.WriteString(ik.Name)
		}
	}

	if version >= versionShapeKeys {
		bw.WriteInt(len(kf.ShapeKeys))
		for _, sk := range kf.ShapeKeys {
			bw.WriteLF(sk.Weight)
			bw.WriteString(sk.Name)
		}
	}

	if version >= versionStatusKeys {
		bw.WriteInt(len(kf.StatusKeys))
		for _, sk := range kf.StatusKeys {
			bw.WriteLF(sk.Weight)
			bw.WriteString(sk.Name)
		}
	}

	if centered {
		bw.WriteLF(kf.Rotation)
		bw.WriteVec3(kf.CenterOffset)
	}
}

func (a *Animation) fitsVersion(version int32) error {
	lost := func(what string, since int32) error {
		return errors.Wrapf(rig.ErrUnsupportedStructure, "%s needs version %d, writing %d", what, since, version)
	}
	if version < versionStart && a.Start != 0 {
		return lost("start time", versionStart)
	}
	if version < versionCentered && a.Centered {
		return lost("centering", versionCentered)
	}
	for i := range a.Keyframes {
		kf := &a.Keyframes[i]
		switch {
		case version < versionWeights && len(kf.Weights) != 0:
			return lost("weights", versionWeights)
		case version < versionWeapons && len(kf.WeaponMatrices) != 0:
			return lost("weapon matrices", versionWeapons)
		case version < versionMobility && kf.Mobility != nil:
			return lost("mobility", versionMobility)
		case version < versionEvents && len(kf.Events) != 0:
			return lost("events", versionEvents)
		case version < versionIKBones && len(kf.IKBones) != 0:
			return lost("ik bones", versionIKBones)
		case version < versionShapeKeys && len(kf.ShapeKeys) != 0:
			return lost("shape keys", versionShapeKeys)
		case version < versionStatusKeys && len(kf.StatusKeys) != 0:
			return lost("status keys", versionStatusKeys)
		}
		if version < versionWeaponRelative {
			for _, wm := range kf.WeaponMatrices {
				if wm.RelativeID != -1 || wm.RelativeWeight != 0 {
					return lost("weapon relative attachment", versionWeaponRelative)
				}
			}
		}
	}
	return nil
}
