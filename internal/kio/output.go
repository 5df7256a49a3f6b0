package kio

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"strconv"
)

// Output writes the same framing Input reads. Write errors are sticky: after
// the first failure every call returns it.
type Output struct {
	w      *bufio.Writer
	binary bool
	off    int64
	err    error
	buf    []byte
}

// NewOutput returns an Output writing to w in the given mode. Nothing is
// written until WriteHeader or a value call.
func NewOutput(w io.Writer, binary bool) *Output {
	return &Output{w: bufio.NewWriter(w), binary: binary}
}

// Binary reports the output mode.
func (o *Output) Binary() bool { return o.binary }

// Offset returns the number of bytes written so far, including buffered ones.
func (o *Output) Offset() int64 { return o.off }

// Err returns the first write error.
func (o *Output) Err() error { return o.err }

func (o *Output) write(p []byte) {
	if o.err != nil {
		return
	}
	n, err := o.w.Write(p)
	o.off += int64(n)
	if err != nil {
		o.err = &FormatError{Kind: KindIO, Op: "write", Offset: o.off, Err: err}
	}
}

func (o *Output) writeString(s string) {
	o.buf = append(o.buf[:0], s...)
	o.write(o.buf)
}

// WriteHeader writes NUL 'B' in binary mode and nothing in text mode.
func (o *Output) WriteHeader() error {
	if o.binary {
		o.write(BinaryHeader[:])
	}
	return o.err
}

// WriteToken writes tok followed by one space.
func (o *Output) WriteToken(tok string) error {
	o.writeString(tok)
	o.writeString(" ")
	return o.err
}

// Newline writes a line break in text mode. Binary mode has no line structure.
func (o *Output) Newline() error {
	if !o.binary {
		o.writeString("\n")
	}
	return o.err
}

// WriteString writes s verbatim in either mode.
func (o *Output) WriteString(s string) error {
	o.writeString(s)
	return o.err
}

// WriteInt32 writes a length-prefixed int32 or a decimal token.
func (o *Output) WriteInt32(v int32) error {
	if o.binary {
		var b [5]byte
		b[0] = 4
		binary.LittleEndian.PutUint32(b[1:], uint32(v))
		o.write(b[:])
		return o.err
	}
	o.writeString(strconv.FormatInt(int64(v), 10))
	o.writeString(" ")
	return o.err
}

// WriteFloat writes a length-prefixed float32 or a decimal token.
func (o *Output) WriteFloat(v float32) error {
	if o.binary {
		var b [5]byte
		b[0] = 4
		binary.LittleEndian.PutUint32(b[1:], math.Float32bits(v))
		o.write(b[:])
		return o.err
	}
	o.writeString(FormatFloat(v))
	o.writeString(" ")
	return o.err
}

func (o *Output) writeFloat32s(v []float32) {
	var b [4]byte
	for _, f := range v {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
		o.write(b[:])
	}
}

// WriteVector writes v as an FV block or a bracketed text vector.
func (o *Output) WriteVector(v []float32) error {
	if o.binary {
		_ = o.WriteToken(tagFloatVector)
		_ = o.WriteInt32(int32(len(v)))
		o.writeFloat32s(v)
		return o.err
	}
	o.writeString(" [ ")
	for _, f := range v {
		o.writeString(FormatFloat(f))
		o.writeString(" ")
	}
	o.writeString("]\n")
	return o.err
}

// WriteMatrix writes m as an FM block or a bracketed text matrix with one
// row per line.
func (o *Output) WriteMatrix(m Mat) error {
	if o.binary {
		_ = o.WriteToken(tagFloatMatrix)
		_ = o.WriteInt32(int32(m.R))
		_ = o.WriteInt32(int32(m.C))
		o.writeFloat32s(m.Data)
		return o.err
	}
	if m.C == 0 {
		o.writeString(" [ ]\n")
		return o.err
	}
	o.writeString(" [")
	for i := range m.R {
		o.writeString("\n  ")
		for _, f := range m.Row(i) {
			o.writeString(FormatFloat(f))
			o.writeString(" ")
		}
	}
	o.writeString("]\n")
	return o.err
}

// Flush writes any buffered data to the underlying writer.
func (o *Output) Flush() error {
	if o.err != nil {
		return o.err
	}
	if err := o.w.Flush(); err != nil {
		o.err = &FormatError{Kind: KindIO, Op: "flush", Offset: o.off, Err: err}
	}
	return o.err
}

// FormatFloat renders v with the fewest digits that parse back to the same
// float32, using the inf, -inf and nan literals for special values.
func FormatFloat(v float32) string {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 32)
}
