// Package kio decodes the Kaldi-style framing used by nnet parameter files.
//
// A stream is either binary (it starts with NUL 'B') or text. Both modes are
// read through Input, which offers byte lookahead, whitespace-terminated
// tokens, length-prefixed or textual scalars, and bracketed or tagged float
// vectors and matrices.
package kio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strconv"
)

// BinaryHeader opens every binary stream.
var BinaryHeader = [2]byte{0, 'B'}

const maxTokenLen = 4096

// IsBinary reports whether head starts with the binary header.
func IsBinary(head []byte) bool {
	return bytes.HasPrefix(head, BinaryHeader[:])
}

// Input reads primitives from a stream whose mode was detected on open.
type Input struct {
	src    *source
	binary bool
}

// NewInput sniffs the first two bytes of r. NUL 'B' selects binary mode and is
// consumed; anything else selects text mode and nothing is consumed.
func NewInput(r io.Reader) *Input {
	in := &Input{src: newSource(r)}
	if head, err := in.src.r.Peek(2); err == nil && IsBinary(head) {
		_, _ = in.src.r.Discard(2)
		in.src.off = 2
		in.binary = true
	}
	return in
}

// Binary reports whether the stream was detected as binary.
func (in *Input) Binary() bool { return in.binary }

// Offset returns the number of bytes consumed so far.
func (in *Input) Offset() int64 { return in.src.off }

func (in *Input) fail(kind ErrorKind, op string, err error) *FormatError {
	return &FormatError{Kind: kind, Op: op, Offset: in.src.off, Err: err}
}

func (in *Input) ioErr(op string, err error) *FormatError {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return in.fail(KindIO, op, err)
}

func (in *Input) mismatch(kind ErrorKind, op string, want, got any) *FormatError {
	e := Mismatch(kind, op, want, got)
	e.Offset = in.src.off
	return e
}

func (in *Input) skipSpace() error {
	for {
		b, err := in.src.peekByte()
		if err != nil {
			return err
		}
		if !isSpace(b) {
			return nil
		}
		if _, err := in.src.readByte(); err != nil {
			return err
		}
	}
}

// Peek returns the next byte without consuming it. Text mode skips whitespace
// first. At the end of the stream it returns io.EOF.
func (in *Input) Peek() (byte, error) {
	if !in.binary {
		if err := in.skipSpace(); err != nil {
			return 0, in.peekErr(err)
		}
	}
	b, err := in.src.peekByte()
	if err != nil {
		return 0, in.peekErr(err)
	}
	return b, nil
}

func (in *Input) peekErr(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return in.fail(KindIO, "peek", err)
}

// readWord reads a run of bytes up to (not including) whitespace or any byte
// for which stop returns true.
func (in *Input) readWord(op string, stop func(byte) bool) (string, error) {
	var buf []byte
	for {
		b, err := in.src.peekByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", in.fail(KindIO, op, err)
		}
		if isSpace(b) || (stop != nil && stop(b)) {
			break
		}
		if len(buf) >= maxTokenLen {
			return "", in.fail(KindFraming, op, errors.New("token too long"))
		}
		_, _ = in.src.readByte()
		buf = append(buf, b)
	}
	if len(buf) == 0 {
		b, err := in.src.peekByte()
		if err != nil {
			return "", in.ioErr(op, err)
		}
		return "", &FormatError{Kind: KindTokenMismatch, Op: op, Token: string(b), Offset: in.src.off}
	}
	return string(buf), nil
}

// ReadToken reads one token and the single whitespace byte that terminates it.
// Text mode skips leading whitespace.
func (in *Input) ReadToken() (string, error) {
	const op = "read token"
	if !in.binary {
		if err := in.skipSpace(); err != nil {
			return "", in.ioErr(op, err)
		}
	}
	tok, err := in.readWord(op, nil)
	if err != nil {
		return "", err
	}
	b, err := in.src.readByte()
	if err != nil || !isSpace(b) {
		return "", &FormatError{
			Kind:   KindTokenMismatch,
			Op:     op,
			Token:  tok,
			Offset: in.src.off,
			Err:    errors.New("expected space after token"),
		}
	}
	return tok, nil
}

// PeekToken returns the first significant byte of the next token, looking past
// a leading '<'. The '<' stays in the stream.
func (in *Input) PeekToken() (byte, error) {
	const op = "peek token"
	if !in.binary {
		if err := in.skipSpace(); err != nil {
			return 0, in.peekErr(err)
		}
	}
	bracket := false
	if b, err := in.src.peekByte(); err == nil && b == '<' {
		_, _ = in.src.readByte()
		bracket = true
	}
	b, peekErr := in.src.peekByte()
	if bracket {
		if err := in.src.unreadByte(); err != nil {
			return 0, in.fail(KindIO, op, err)
		}
	}
	if peekErr != nil {
		return 0, in.peekErr(peekErr)
	}
	return b, nil
}

// ExpectToken reads one token and fails unless it equals want.
func (in *Input) ExpectToken(want string) error {
	got, err := in.ReadToken()
	if err != nil {
		return err
	}
	if got != want {
		e := in.mismatch(KindTokenMismatch, "expect token", want, got)
		e.Token = got
		return e
	}
	return nil
}

// ReadInt32 decodes a length-prefixed little-endian int32 in binary mode or a
// decimal token in text mode.
func (in *Input) ReadInt32() (int32, error) {
	const op = "read int32"
	if in.binary {
		n, err := in.src.readByte()
		if err != nil {
			return 0, in.ioErr(op, err)
		}
		if n != 4 {
			return 0, in.mismatch(KindFraming, op, "length byte 4", n)
		}
		var buf [4]byte
		if err := in.src.readFull(buf[:]); err != nil {
			return 0, in.ioErr(op, err)
		}
		return int32(binary.LittleEndian.Uint32(buf[:])), nil
	}
	if err := in.skipSpace(); err != nil {
		return 0, in.ioErr(op, err)
	}
	word, err := in.readWord(op, nil)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(word, 10, 32)
	if err != nil {
		return 0, &FormatError{Kind: KindTokenMismatch, Op: op, Token: word, Offset: in.src.off, Err: err}
	}
	return int32(v), nil
}

// ReadFloat decodes a float. Binary mode accepts 4-byte and 8-byte values,
// narrowing the latter to float32.
func (in *Input) ReadFloat() (float32, error) {
	const op = "read float"
	if in.binary {
		n, err := in.src.peekByte()
		if err != nil {
			return 0, in.ioErr(op, err)
		}
		switch n {
		case 4:
			_, _ = in.src.readByte()
			var buf [4]byte
			if err := in.src.readFull(buf[:]); err != nil {
				return 0, in.ioErr(op, err)
			}
			return math.Float32frombits(binary.LittleEndian.Uint32(buf[:])), nil
		case 8:
			_, _ = in.src.readByte()
			var buf [8]byte
			if err := in.src.readFull(buf[:]); err != nil {
				return 0, in.ioErr(op, err)
			}
			return float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[:]))), nil
		default:
			return 0, in.mismatch(KindFraming, op, "length byte 4 or 8", n)
		}
	}
	if err := in.skipSpace(); err != nil {
		return 0, in.ioErr(op, err)
	}
	word, err := in.readWord(op, nil)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(word, 32)
	if err != nil {
		return 0, &FormatError{Kind: KindTokenMismatch, Op: op, Token: word, Offset: in.src.off, Err: err}
	}
	return float32(v), nil
}
