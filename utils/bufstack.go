package utils

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/rig"
)

// BufStack is a little-endian read cursor over an in-memory file.
// Every read checks the remaining size and fails with rig.ErrTruncatedInput
// instead of panicking.
type BufStack struct {
	buf  []byte
	pos  int
	kind string
}

func NewBufStack(kind string, b []byte) *BufStack {
	return &BufStack{
		buf:  b,
		kind: kind,
	}
}

func (bs *BufStack) Pos() int       { return bs.pos }
func (bs *BufStack) Size() int      { return len(bs.buf) }
func (bs *BufStack) Remaining() int { return len(bs.buf) - bs.pos }

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>[p:0x%x,s:0x%x]", bs.kind, bs.pos, len(bs.buf))
}

func (bs *BufStack) Read(amount int) ([]byte, error) {
	if amount < 0 {
		return nil, errors.Wrapf(rig.ErrUnsupportedStructure, "%v: negative read of %d bytes", bs, amount)
	}
	if amount > bs.Remaining() {
		return nil, errors.Wrapf(rig.ErrTruncatedInput, "%v: need %d bytes, have %d", bs, amount, bs.Remaining())
	}
	oldPos := bs.pos
	bs.pos += amount
	return bs.buf[oldPos:bs.pos], nil
}

func (bs *BufStack) ReadLU32() (uint32, error) {
	b, err := bs.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (bs *BufStack) ReadLI32() (int32, error) {
	v, err := bs.ReadLU32()
	return int32(v), err
}

func (bs *BufStack) ReadLF() (float32, error) {
	v, err := bs.ReadLU32()
	return math.Float32frombits(v), err
}

func (bs *BufStack) ReadBool() (bool, error) {
	b, err := bs.Read(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// CheckCount validates a declared element count against the bytes left,
// before anything gets allocated for it.
func (bs *BufStack) CheckCount(what string, count int32, elemSize int) (int, error) {
	if count < 0 {
		return 0, errors.Wrapf(rig.ErrUnsupportedStructure, "%v: negative %s count %d", bs, what, count)
	}
	if elemSize > 0 && int64(count)*int64(elemSize) > int64(bs.Remaining()) {
		return 0, errors.Wrapf(&rig.CountOverrunError{
			What:      what,
			Count:     int(count),
			ElemSize:  elemSize,
			Remaining: bs.Remaining(),
		}, "%v", bs)
	}
	return int(count), nil
}

// ReadCount reads an int32 count prefix and checks it with CheckCount.
// elemSize is the minimal encoded size of one element.
func (bs *BufStack) ReadCount(what string, elemSize int) (int, error) {
	count, err := bs.ReadLI32()
	if err != nil {
		return 0, errors.Wrapf(err, "%s count", what)
	}
	return bs.CheckCount(what, count, elemSize)
}

func (bs *BufStack) ReadLI32Array(n int) ([]int32, error) {
	raw, err := bs.Read(n * 4)
	if err != nil {
		return nil, err
	}
	r := make([]int32, n)
	for i := range r {
		r[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return r, nil
}

func (bs *BufStack) ReadLFArray(n int) ([]float32, error) {
	raw, err := bs.Read(n * 4)
	if err != nil {
		return nil, err
	}
	r := make([]float32, n)
	for i := range r {
		r[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return r, nil
}

func (bs *BufStack) ReadVec3() (v [3]float32, err error) {
	raw, err := bs.Read(12)
	if err != nil {
		return v, err
	}
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return v, nil
}

func (bs *BufStack) ReadMatrix() (m [16]float32, err error) {
	raw, err := bs.Read(64)
	if err != nil {
		return m, err
	}
	for i := range m {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return m, nil
}

// ReadString reads an int32 byte length followed by the string bytes.
// Bytes that are not valid UTF-8 are decoded with the configured legacy charmap.
func (bs *BufStack) ReadString() (string, error) {
	l, err := bs.ReadCount("string", 1)
	if err != nil {
		return "", err
	}
	raw, err := bs.Read(l)
	if err != nil {
		return "", err
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	return LegacyBytesToString(raw)
}
