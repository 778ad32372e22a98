package utils

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// BufWriter accumulates little-endian primitives for a whole file.
// Output is only handed out once encoding finished, so a failed encode
// never leaves a partial file behind.
type BufWriter struct {
	buf bytes.Buffer
	tmp [4]byte
}

func NewBufWriter() *BufWriter {
	return &BufWriter{}
}

func (bw *BufWriter) WriteLU32(v uint32) {
	binary.LittleEndian.PutUint32(bw.tmp[:], v)
	bw.buf.Write(bw.tmp[:])
}

func (bw *BufWriter) WriteLI32(v int32) {
	bw.WriteLU32(uint32(v))
}

func (bw *BufWriter) WriteInt(v int) {
	bw.WriteLU32(uint32(int32(v)))
}

func (bw *BufWriter) WriteLF(v float32) {
	bw.WriteLU32(math.Float32bits(v))
}

func (bw *BufWriter) WriteBool(v bool) {
	if v {
		bw.buf.WriteByte(1)
	} else {
		bw.buf.WriteByte(0)
	}
}

func (bw *BufWriter) WriteString(s string) {
	bw.WriteInt(len(s))
	bw.buf.WriteString(s)
}

func (bw *BufWriter) WriteLI32Array(a []int32) {
	for _, v := range a {
		bw.WriteLI32(v)
	}
}

func (bw *BufWriter) WriteLFArray(a []float32) {
	for _, v := range a {
		bw.WriteLF(v)
	}
}

func (bw *BufWriter) WriteVec3(v [3]float32) {
	bw.WriteLFArray(v[:])
}

func (bw *BufWriter) WriteMatrix(m [16]float32) {
	bw.WriteLFArray(m[:])
}

func (bw *BufWriter) Len() int {
	return bw.buf.Len()
}

func (bw *BufWriter) Bytes() []byte {
	return bw.buf.Bytes()
}

func (bw *BufWriter) WriteTo(w io.Writer) (int64, error) {
	return bw.buf.WriteTo(w)
}
