package phxbn

import (
	"io"

	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/utils"
)

// Marshal encodes the skeleton at the current version with the corner count
// prefix. Swapped bones get their head and tail exchanged back.
func (s *Skeleton) Marshal() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	bw := utils.NewBufWriter()
	bw.WriteLI32(Version)
	bw.WriteLI32(RiggingStage)

	bw.WriteInt(len(s.Points))
	for i := range s.Points {
		bw.WriteVec3(s.Points[i].Pos)
	}
	for i := range s.Points {
		bw.WriteLI32(s.Points[i].Parent)
	}

	bw.WriteInt(len(s.Bones))
	for i := range s.Bones {
		b := s.Bones[i]
		if b.Swap {
			b.Head, b.Tail = b.Tail, b.Head
		}
		bw.WriteLI32(b.Head)
		bw.WriteLI32(b.Tail)
	}
	for i := range s.Bones {
		bw.WriteLI32(s.Bones[i].Parent)
	}
	for i := range s.Bones {
		bw.WriteLF(s.Bones[i].Mass)
	}
	for i := range s.Bones {
		bw.WriteVec3(s.Bones[i].COM)
	}
	for i := range s.Bones {
		bw.WriteMatrix(s.Bones[i].Matrix)
	}

	bw.WriteInt(s.CornerCount())
	bw.WriteLFArray(s.CornerWeights)
	bw.WriteLFArray(s.CornerBoneIDs)

	if s.ParentIDs != nil {
		bw.WriteLI32Array(s.ParentIDs)
	} else {
		for i := range s.Bones {
			bw.WriteLI32(s.Bones[i].Parent)
		}
	}

	bw.WriteInt(len(s.Joints))
	for i := range s.Joints {
		if err := s.Joints[i].Encode(bw); err != nil {
			return nil, errors.Wrapf(err, "joint %d", i)
		}
	}

	bw.WriteInt(len(s.IKRoots))
	for _, ik := range s.IKRoots {
		bw.WriteLI32(ik.Bone)
		bw.WriteLI32(ik.ChainLength)
		bw.WriteString(ik.Name)
	}

	return bw.Bytes(), nil
}

func (s *Skeleton) Write(w io.Writer) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
