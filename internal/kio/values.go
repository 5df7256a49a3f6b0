package kio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	tagFloatVector = "FV"
	tagFloatMatrix = "FM"
)

// textPrealloc caps the up-front capacity of a bracketed value; declared sizes
// are not trusted until the elements are actually present.
const textPrealloc = 1024

// elemCount returns rows*cols, or false if the product overflows int.
func elemCount(rows, cols int) (int, bool) {
	if rows < 0 || cols < 0 {
		return 0, false
	}
	if cols != 0 && rows > math.MaxInt/cols {
		return 0, false
	}
	return rows * cols, true
}

func elemStop(b byte) bool { return b == ']' || b == ';' }

// parseElem decodes one bracketed element: a decimal literal or a
// case-insensitive inf, infinity or nan, optionally signed.
func parseElem(word string) (float32, bool) {
	lower := strings.ToLower(word)
	sign := float32(1)
	body := lower
	switch {
	case strings.HasPrefix(body, "-"):
		sign, body = -1, body[1:]
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	}
	switch body {
	case "inf", "infinity":
		return sign * float32(math.Inf(1)), true
	case "nan":
		return float32(math.NaN()), true
	}
	v, err := strconv.ParseFloat(lower, 32)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return float32(v), true
}

func (in *Input) readElem(op string) (float32, error) {
	word, err := in.readWord(op, elemStop)
	if err != nil {
		return 0, err
	}
	v, ok := parseElem(word)
	if !ok {
		return 0, &FormatError{Kind: KindTokenMismatch, Op: op, Token: word, Offset: in.src.off,
			Err: errors.New("expected a number, inf or nan")}
	}
	return v, nil
}

// consumeLineEnd eats a "\r\n" or "\n" directly after a closing bracket.
func (in *Input) consumeLineEnd() {
	b, err := in.src.peekByte()
	if err != nil {
		return
	}
	if b == '\r' {
		_, _ = in.src.readByte()
		if b, err = in.src.peekByte(); err != nil {
			return
		}
	}
	if b == '\n' {
		_, _ = in.src.readByte()
	}
}

// openBracket reads the opening word of a bracketed value. It reports true if
// the word was the empty literal "[]".
func (in *Input) openBracket(op string) (bool, error) {
	if err := in.skipSpace(); err != nil {
		return false, in.ioErr(op, err)
	}
	word, err := in.readWord(op, nil)
	if err != nil {
		return false, err
	}
	switch word {
	case "[]":
		in.consumeLineEnd()
		return true, nil
	case "[":
		return false, nil
	default:
		e := in.mismatch(KindTokenMismatch, op, "[", word)
		e.Token = word
		return false, e
	}
}

func (in *Input) rejectBinaryStart(op string, bad string) error {
	b, err := in.src.peekByte()
	if err != nil {
		return in.ioErr(op, err)
	}
	if strings.IndexByte(bad, b) >= 0 {
		return in.fail(KindFraming, op, fmt.Errorf("unexpected token start %q", b))
	}
	return nil
}

func (in *Input) readDim(op string) (int, error) {
	v, err := in.ReadInt32()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, in.mismatch(KindSizeMismatch, op, "non-negative dimension", v)
	}
	return int(v), nil
}

// ReadVector reads a float vector of exactly n elements.
func (in *Input) ReadVector(n int) ([]float32, error) {
	const op = "read vector"
	if n < 0 {
		return nil, in.mismatch(KindSizeMismatch, op, "non-negative length", n)
	}
	if in.binary {
		if err := in.rejectBinaryStart(op, "D"); err != nil {
			return nil, err
		}
		if err := in.ExpectToken(tagFloatVector); err != nil {
			return nil, err
		}
		size, err := in.readDim(op)
		if err != nil {
			return nil, err
		}
		if size != n {
			return nil, in.mismatch(KindSizeMismatch, op, n, size)
		}
		out, err := in.src.readFloat32Block(n)
		if err != nil {
			return nil, in.ioErr(op, err)
		}
		return out, nil
	}

	empty, err := in.openBracket(op)
	if err != nil {
		return nil, err
	}
	if empty {
		if n != 0 {
			return nil, in.mismatch(KindSizeMismatch, op, n, 0)
		}
		return []float32{}, nil
	}
	out := make([]float32, 0, min(n, textPrealloc))
	count := 0
	for {
		b, err := in.src.peekByte()
		if err != nil {
			return nil, in.ioErr(op, err)
		}
		switch {
		case b == ']':
			_, _ = in.src.readByte()
			in.consumeLineEnd()
			if count != n {
				return nil, in.mismatch(KindSizeMismatch, op, n, count)
			}
			return out, nil
		case isSpace(b):
			_, _ = in.src.readByte()
		default:
			v, err := in.readElem(op)
			if err != nil {
				return nil, err
			}
			if count < n {
				out = append(out, v)
			}
			count++
		}
	}
}

// ReadMatrix reads a rows x cols float matrix. In text mode rows are separated
// by newlines or ';' and every row must have the same width.
func (in *Input) ReadMatrix(rows, cols int) (Mat, error) {
	const op = "read matrix"
	if rows < 0 || cols < 0 {
		return Mat{}, in.mismatch(KindSizeMismatch, op, "non-negative dimensions", fmt.Sprintf("%dx%d", rows, cols))
	}
	want := fmt.Sprintf("%dx%d", rows, cols)
	total, ok := elemCount(rows, cols)
	if !ok {
		return Mat{}, in.mismatch(KindSizeMismatch, op, "addressable matrix size", want)
	}
	if in.binary {
		if err := in.rejectBinaryStart(op, "CD"); err != nil {
			return Mat{}, err
		}
		if err := in.ExpectToken(tagFloatMatrix); err != nil {
			return Mat{}, err
		}
		r, err := in.readDim(op)
		if err != nil {
			return Mat{}, err
		}
		c, err := in.readDim(op)
		if err != nil {
			return Mat{}, err
		}
		if r != rows || c != cols {
			return Mat{}, in.mismatch(KindSizeMismatch, op, want, fmt.Sprintf("%dx%d", r, c))
		}
		data, err := in.src.readFloat32Block(total)
		if err != nil {
			return Mat{}, in.ioErr(op, err)
		}
		return Mat{R: rows, C: cols, Data: data}, nil
	}

	empty, err := in.openBracket(op)
	if err != nil {
		return Mat{}, err
	}
	if empty {
		if rows != 0 || cols != 0 {
			return Mat{}, in.mismatch(KindSizeMismatch, op, want, "0x0")
		}
		return NewMat(0, 0), nil
	}

	data := make([]float32, 0, min(total, textPrealloc))
	var (
		nrows  int
		width  = -1
		rowLen int
		count  int
	)
	closeRow := func() error {
		if rowLen == 0 {
			return nil
		}
		if width < 0 {
			width = rowLen
		} else if rowLen != width {
			return in.mismatch(KindSizeMismatch, op,
				fmt.Sprintf("%d columns in row %d", width, nrows), rowLen)
		}
		nrows++
		rowLen = 0
		return nil
	}
	for {
		b, err := in.src.peekByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Mat{}, in.ioErr(op, io.ErrUnexpectedEOF)
			}
			return Mat{}, in.ioErr(op, err)
		}
		switch {
		case b == ']':
			_, _ = in.src.readByte()
			if err := closeRow(); err != nil {
				return Mat{}, err
			}
			in.consumeLineEnd()
			if width < 0 {
				width = 0
			}
			if nrows != rows || width != cols {
				return Mat{}, in.mismatch(KindSizeMismatch, op, want, fmt.Sprintf("%dx%d", nrows, width))
			}
			return Mat{R: rows, C: cols, Data: data}, nil
		case b == '\n' || b == ';':
			_, _ = in.src.readByte()
			if err := closeRow(); err != nil {
				return Mat{}, err
			}
		case isSpace(b):
			_, _ = in.src.readByte()
		default:
			v, err := in.readElem(op)
			if err != nil {
				return Mat{}, err
			}
			if count < total {
				data = append(data, v)
			}
			count++
			rowLen++
		}
	}
}
