package kio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"slices"
)

// source is a byte reader with one byte of lookahead and a single-slot
// pushback buffer. off counts bytes consumed by the caller, so a pushed-back
// byte is not counted until it is read again.
type source struct {
	r       *bufio.Reader
	off     int64
	last    byte
	hasLast bool
	slot    byte
	pushed  bool
}

func newSource(rd io.Reader) *source {
	if br, ok := rd.(*bufio.Reader); ok {
		return &source{r: br}
	}
	return &source{r: bufio.NewReader(rd)}
}

func (s *source) peekByte() (byte, error) {
	if s.pushed {
		return s.slot, nil
	}
	b, err := s.r.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *source) readByte() (byte, error) {
	if s.pushed {
		s.pushed = false
		s.off++
		s.last, s.hasLast = s.slot, true
		return s.slot, nil
	}
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, err
	}
	s.off++
	s.last, s.hasLast = b, true
	return b, nil
}

// unreadByte returns the most recently read byte to the stream. Only one byte
// may be pushed back between reads.
func (s *source) unreadByte() error {
	if s.pushed || !s.hasLast {
		return errors.New("pushback slot unavailable")
	}
	s.slot, s.pushed = s.last, true
	s.hasLast = false
	s.off--
	return nil
}

func (s *source) readFull(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	n := 0
	if s.pushed {
		buf[0] = s.slot
		s.pushed = false
		n = 1
	}
	if _, err := io.ReadFull(s.r, buf[n:]); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	s.off += int64(len(buf))
	s.last, s.hasLast = buf[len(buf)-1], true
	return nil
}

// readFloat32s fills dst with little-endian float32 values.
func (s *source) readFloat32s(dst []float32) error {
	const chunk = 16 << 10
	var buf [chunk * 4]byte
	for len(dst) > 0 {
		n := min(len(dst), chunk)
		b := buf[:n*4]
		if err := s.readFull(b); err != nil {
			return err
		}
		for i := range n {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		}
		dst = dst[n:]
	}
	return nil
}

// readFloat32Block reads n little-endian float32 values. The result grows as
// data arrives, so a truncated stream fails before n values are allocated.
func (s *source) readFloat32Block(n int) ([]float32, error) {
	const chunk = 16 << 10
	out := make([]float32, 0, min(n, chunk))
	for len(out) < n {
		start := len(out)
		k := min(n-start, chunk)
		out = slices.Grow(out, k)[:start+k]
		if err := s.readFloat32s(out[start:]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
