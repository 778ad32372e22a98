package anm

import (
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/rig"
	"github.com/mogaika/overgrowth_browser/utils"
)

// Read decodes an animation file of any version up to Version.
func Read(data []byte) (*Animation, error) {
	bs := utils.NewBufStack("anm", data)
	a := &Animation{}
	if err := a.read(bs); err != nil {
		return nil, errors.Wrapf(err, "%v", bs)
	}
	if err := a.Validate(-1); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Animation) read(bs *utils.BufStack) error {
	var err error
	if a.Version, err = bs.ReadLI32(); err != nil {
		return errors.Wrapf(err, "version")
	}
	if a.Version < 0 || a.Version > Version {
		return errors.Wrapf(rig.ErrUnsupportedVersion, "animation version %d, maximal %d", a.Version, Version)
	}
	if a.Version >= versionCentered {
		if a.Centered, err = bs.ReadBool(); err != nil {
			return errors.Wrapf(err, "centered")
		}
	}
	if a.Looping, err = bs.ReadBool(); err != nil {
		return errors.Wrapf(err, "looping")
	}
	if a.Version >= versionStart {
		if a.Start, err = bs.ReadLI32(); err != nil {
			return errors.Wrapf(err, "start")
		}
	}
	if a.End, err = bs.ReadLI32(); err != nil {
		return errors.Wrapf(err, "end")
	}

	// time and bone matrix count at least
	count, err := bs.ReadCount("keyframe", 8)
	if err != nil {
		return err
	}
	a.Keyframes = make([]Keyframe, count)
	for i := range a.Keyframes {
		if err := a.readKeyframe(bs, &a.Keyframes[i]); err != nil {
			return errors.Wrapf(err, "keyframe %d", i)
		}
	}
	return nil
}

func (a *Animation) readKeyframe(bs *utils.BufStack, kf *Keyframe) error {
	var err error
	if kf.Time, err = bs.ReadLI32(); err != nil {
		return errors.Wrapf(err, "time")
	}

	if a.Version >= versionWeights {
		n, err := bs.ReadCount("weight", 4)
		if err != nil {
			return err
		}
		if kf.Weights, err = bs.ReadLFArray(n); err != nil {
			return errors.Wrapf(err, "weights")
		}
	}

	n, err := bs.ReadCount("bone matrix", 64)
	if err != nil {
		return err
	}
	kf.BoneMatrices = make([][16]float32, n)
	for i := range kf.BoneMatrices {
		if kf.BoneMatrices[i], err = bs.ReadMatrix(); err != nil {
			return errors.Wrapf(err, "bone matrix %d", i)
		}
	}

	if a.Version >= versionWeapons {
		if err := a.readWeapons(bs, kf); err != nil {
			return err
		}
	}

	if a.Version >= versionMobility {
		use, err := bs.ReadBool()
		if err != nil {
			return errors.Wrapf(err, "mobility flag")
		}
		if use {
			m, err := bs.ReadMatrix()
			if err != nil {
				return errors.Wrapf(err, "mobility")
			}
			kf.Mobility = &m
		}
	}

	if a.Version >= versionEvents {
		// bone and empty name
		n, err := bs.ReadCount("event", 8)
		if err != nil {
			return err
		}
		kf.Events = make([]Event, n)
		for i := range kf.Events {
			ev := &kf.Events[i]
			if ev.Bone, err = bs.ReadLI32(); err != nil {
				return errors.Wrapf(err, "event %d bone", i)
			}
			if ev.Name, err = bs.ReadString(); err != nil {
				return errors.Wrapf(err, "event %d name", i)
			}
		}
	}

	if a.Version >= versionIKBones {
		if err := readIKBones(bs, kf); err != nil {
			return err
		}
	}

	if a.Version >= versionShapeKeys {
		n, err := bs.ReadCount("shape key", 8)
		if err != nil {
			return err
		}
		kf.ShapeKeys = make([]ShapeKey, n)
		for i := range kf.ShapeKeys {
			if kf.ShapeKeys[i].Weight, kf.ShapeKeys[i].Name, err = readNamedWeight(bs); err != nil {
				return errors.Wrapf(err, "shape key %d", i)
			}
		}
	}

	if a.Version >= versionStatusKeys {
		n, err := bs.ReadCount("status key", 8)
		if err != nil {
			return err
		}
		kf.StatusKeys = make([]StatusKey, n)
		for i := range kf.StatusKeys {
			if kf.StatusKeys[i].Weight, kf.StatusKeys[i].Name, err = readNamedWeight(bs); err != nil {
				return errors.Wrapf(err, "status key %d", i)
			}
		}
	}

	if a.Centered {
		if kf.Rotation, err = bs.ReadLF(); err != nil {
			return errors.Wrapf(err, "rotation")
		}
		if kf.CenterOffset, err = bs.ReadVec3(); err != nil {
			return errors.Wrapf(err, "center offset")
		}
	}
	return nil
}

func (a *Animation) readWeapons(bs *utils.BufStack, kf *Keyframe) error {
	elemSize := 64
	if a.Version >= versionWeaponRelative {
		elemSize += 8
	}
	n, err := bs.ReadCount("weapon matrix", elemSize)
	if err != nil {
		return err
	}
	kf.WeaponMatrices = make([]WeaponMatrix, n)
	for i := range kf.WeaponMatrices {
		wm := &kf.WeaponMatrices[i]
		wm.RelativeID = -1
		if wm.Matrix, err = bs.ReadMatrix(); err != nil {
			return errors.Wrapf(err, "weapon matrix %d", i)
		}
		if a.Version >= versionWeaponRelative {
			if wm.RelativeID, err = bs.ReadLI32(); err != nil {
				return errors.Wrapf(err, "weapon %d relative id", i)
			}
			if wm.RelativeWeight, err = bs.ReadLF(); err != nil {
				return errors.Wrapf(err, "weapon %d relative weight", i)
			}
		}
	}
	return nil
}

func readIKBones(bs *utils.BufStack, kf *Keyframe) error {
	// two points, path length and name length
	n, err := bs.ReadCount("ik bone", 32)
	if err != nil {
		return err
	}
	kf.IKBones = make([]IKBone, n)
	for i := range kf.IKBones {
		ik := &kf.IKBones[i]
		if ik.Start, err = bs.ReadVec3(); err != nil {
			return errors.Wrapf(err, "ik bone %d start", i)
		}
		if ik.End, err = bs.ReadVec3(); err != nil {
			return errors.Wrapf(err, "ik bone %d end", i)
		}
		pathLen, err := bs.ReadCount("ik bone path", 4)
		if err != nil {
			return errors.Wrapf(err, "ik bone %d", i)
		}
		if ik.Path, err = bs.ReadLI32Array(pathLen); err != nil {
			return errors.Wrapf(err, "ik bone %d path", i)
		}
		if ik.Name, err = bs.ReadString(); err != nil {
			return errors.Wrapf(err, "ik bone %d name", i)
		}
	}
	return nil
}

func readNamedWeight(bs *utils.BufStack) (float32, string, error) {
	w, err := bs.ReadLF()
	if err != nil {
		return 0, "", err
	}
	name, err := bs.ReadString()
	if err != nil {
		return 0, "", err
	}
	return w, name, nil
}
