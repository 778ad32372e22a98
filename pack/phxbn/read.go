package phxbn

import (
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/rig"
	"github.com/mogaika/overgrowth_browser/rig/joint"
	"github.com/mogaika/overgrowth_browser/utils"
)

// Read decodes a skeleton file. Files older than version 11 do not store the
// corner count and need ReadWithMesh.
func Read(data []byte) (*Skeleton, error) {
	return ReadWithMesh(data, nil)
}

// ReadWithMesh decodes a skeleton file, taking the corner count from mesh
// when the file does not store one. mesh may be nil.
func ReadWithMesh(data []byte, mesh MeshTopology) (*Skeleton, error) {
	bs := utils.NewBufStack("phxbn", data)
	s := &Skeleton{}
	if err := s.read(bs, mesh); err != nil {
		return nil, errors.Wrapf(err, "%v", bs)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Skeleton) read(bs *utils.BufStack, mesh MeshTopology) error {
	var err error
	if s.Version, err = bs.ReadLI32(); err != nil {
		return errors.Wrapf(err, "version")
	}
	if s.Version < MinVersion {
		return errors.Wrapf(rig.ErrUnsupportedVersion, "skeleton version %d, minimal %d", s.Version, MinVersion)
	}
	if s.RiggingStage, err = bs.ReadLI32(); err != nil {
		return errors.Wrapf(err, "rigging stage")
	}
	if s.RiggingStage != RiggingStage {
		return errors.Wrapf(rig.ErrInvalidRiggingStage, "rigging stage %d", s.RiggingStage)
	}

	pointsCount, err := bs.ReadCount("point", 12)
	if err != nil {
		return err
	}
	s.Points = make([]Point, pointsCount)
	for i := range s.Points {
		if s.Points[i].Pos, err = bs.ReadVec3(); err != nil {
			return errors.Wrapf(err, "point %d", i)
		}
	}
	if _, err := bs.CheckCount("point parent", int32(pointsCount), 4); err != nil {
		return err
	}
	for i := range s.Points {
		if s.Points[i].Parent, err = bs.ReadLI32(); err != nil {
			return errors.Wrapf(err, "point %d parent", i)
		}
	}

	bonesCount, err := bs.ReadCount("bone", 8)
	if err != nil {
		return err
	}
	pointParents := s.PointParents()
	s.Bones = make([]Bone, bonesCount)
	for i := range s.Bones {
		b := &s.Bones[i]
		if b.Head, err = bs.ReadLI32(); err != nil {
			return errors.Wrapf(err, "bone %d head", i)
		}
		if b.Tail, err = bs.ReadLI32(); err != nil {
			return errors.Wrapf(err, "bone %d tail", i)
		}
		SwapNormalize(b, pointParents)
	}

	// parents, mass and com: 20 bytes per bone
	if _, err := bs.CheckCount("bone data", int32(bonesCount), 20); err != nil {
		return err
	}
	for i := range s.Bones {
		if s.Bones[i].Parent, err = bs.ReadLI32(); err != nil {
			return errors.Wrapf(err, "bone %d parent", i)
		}
	}
	for i := range s.Bones {
		if s.Bones[i].Mass, err = bs.ReadLF(); err != nil {
			return errors.Wrapf(err, "bone %d mass", i)
		}
	}
	for i := range s.Bones {
		if s.Bones[i].COM, err = bs.ReadVec3(); err != nil {
			return errors.Wrapf(err, "bone %d com", i)
		}
	}

	if s.Version >= versionInitialMatrices {
		if _, err := bs.CheckCount("bone matrix", int32(bonesCount), 64); err != nil {
			return err
		}
		for i := range s.Bones {
			if s.Bones[i].Matrix, err = bs.ReadMatrix(); err != nil {
				return errors.Wrapf(err, "bone %d matrix", i)
			}
		}
	}

	if err := s.readWeights(bs, mesh); err != nil {
		return errors.Wrapf(err, "weights")
	}

	if _, err := bs.CheckCount("parent id", int32(bonesCount), 4); err != nil {
		return err
	}
	if s.ParentIDs, err = bs.ReadLI32Array(bonesCount); err != nil {
		return errors.Wrapf(err, "parent ids")
	}

	// smallest joint is fixed: type and two bone ids
	jointsCount, err := bs.ReadCount("joint", 12)
	if err != nil {
		return err
	}
	s.Joints = make([]joint.Joint, jointsCount)
	for i := range s.Joints {
		if s.Joints[i], err = joint.Decode(bs); err != nil {
			return errors.Wrapf(err, "joint %d", i)
		}
	}

	if s.Version >= versionIKRoots {
		ikCount, err := bs.ReadCount("ik root", 12)
		if err != nil {
			return err
		}
		s.IKRoots = make([]IKRoot, ikCount)
		for i := range s.IKRoots {
			ik := &s.IKRoots[i]
			if ik.Bone, err = bs.ReadLI32(); err != nil {
				return errors.Wrapf(err, "ik root %d bone", i)
			}
			if ik.ChainLength, err = bs.ReadLI32(); err != nil {
				return errors.Wrapf(err, "ik root %d chain", i)
			}
			if ik.Name, err = bs.ReadString(); err != nil {
				return errors.Wrapf(err, "ik root %d name", i)
			}
		}
	}
	return nil
}

func (s *Skeleton) readWeights(bs *utils.BufStack, mesh MeshTopology) error {
	var corners int
	if s.Version >= versionCornerCount {
		var err error
		// weights and ids, 4 floats each per corner
		if corners, err = bs.ReadCount("corner", 32); err != nil {
			return err
		}
		if mesh != nil && corners != mesh.TriangleCount()*3 {
			return errors.Wrapf(rig.ErrInconsistentTopology, "%d corners stored for %d triangles", corners, mesh.TriangleCount())
		}
	} else {
		if mesh == nil {
			return errors.Wrapf(rig.ErrMissingExternalData, "version %d needs mesh triangle count", s.Version)
		}
		var err error
		if corners, err = bs.CheckCount("corner", int32(mesh.TriangleCount()*3), 32); err != nil {
			return err
		}
	}

	var err error
	if s.CornerWeights, err = bs.ReadLFArray(corners * 4); err != nil {
		return err
	}
	if s.CornerBoneIDs, err = bs.ReadLFArray(corners * 4); err != nil {
		return err
	}
	return nil
}
