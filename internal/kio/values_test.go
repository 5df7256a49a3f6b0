package kio

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadVectorBinary(t *testing.T) {
	t.Parallel()
	bs := newBinStream().token("FV").int32(3).raw(1, 2, 3)
	v, err := NewInput(&bs.Buffer).ReadVector(3)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, v)
}

func TestReadVectorBinaryErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stream *binStream
		size   int
		want   error
	}{
		{name: "double vector", stream: newBinStream().token("DV").int32(1).raw(1), size: 1, want: ErrFraming},
		{name: "wrong tag", stream: newBinStream().token("FM").int32(1).raw(1), size: 1, want: ErrTokenMismatch},
		{name: "size mismatch", stream: newBinStream().token("FV").int32(2).raw(1, 2), size: 3, want: ErrSizeMismatch},
		{name: "truncated data", stream: newBinStream().token("FV").int32(3).raw(1, 2), size: 3, want: ErrIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewInput(&tt.stream.Buffer).ReadVector(tt.size)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadVectorTextSpecials(t *testing.T) {
	t.Parallel()
	v, err := textInput("[ 1 -inf NaN ]").ReadVector(3)
	require.NoError(t, err)
	require.Len(t, v, 3)
	assert.Equal(t, float32(1), v[0])
	assert.True(t, math.IsInf(float64(v[1]), -1))
	assert.True(t, math.IsNaN(float64(v[2])))
}

func TestReadVectorTextLiterals(t *testing.T) {
	t.Parallel()
	v, err := textInput(" [ INF Infinity +inf 2.5e1 -0.5]\n").ReadVector(5)
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(v[0]), 1))
	assert.True(t, math.IsInf(float64(v[1]), 1))
	assert.True(t, math.IsInf(float64(v[2]), 1))
	assert.Equal(t, float32(25), v[3])
	assert.Equal(t, float32(-0.5), v[4])
}

func TestReadVectorTextEmpty(t *testing.T) {
	t.Parallel()

	v, err := textInput("[]\n").ReadVector(0)
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = textInput("[] ").ReadVector(2)
	assert.ErrorIs(t, err, ErrSizeMismatch)

	v, err = textInput("[ ]").ReadVector(0)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestReadVectorTextSizeMismatch(t *testing.T) {
	t.Parallel()

	_, err := textInput("[ 1 2 ]").ReadVector(3)
	require.ErrorIs(t, err, ErrSizeMismatch)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "3", fe.Want)
	assert.Equal(t, "2", fe.Got)

	_, err = textInput("[ 1 2 3 4 ]").ReadVector(3)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestReadVectorTextMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "missing open bracket", input: "1 2 3 ]", want: ErrTokenMismatch},
		{name: "glued bracket", input: "[1 2 ]", want: ErrTokenMismatch},
		{name: "bad literal", input: "[ 1 foo 3 ]", want: ErrTokenMismatch},
		{name: "unterminated", input: "[ 1 2 3", want: ErrIO},
		{name: "empty stream", input: "", want: ErrIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := textInput(tt.input).ReadVector(3)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadVectorConsumesLineEnd(t *testing.T) {
	t.Parallel()

	for _, sep := range []string{"\n", "\r\n"} {
		in := textInput("[ 1 ]" + sep + "x ")
		_, err := in.ReadVector(1)
		require.NoError(t, err)
		b, err := in.src.peekByte()
		require.NoError(t, err)
		assert.Equal(t, byte('x'), b, "separator %q", sep)
	}
}

func TestReadMatrixBinary(t *testing.T) {
	t.Parallel()
	bs := newBinStream().token("FM").int32(2).int32(3).raw(1, 2, 3, 4, 5, 6)
	m, err := NewInput(&bs.Buffer).ReadMatrix(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, m.R)
	assert.Equal(t, 3, m.C)
	assert.Equal(t, []float32{4, 5, 6}, m.Row(1))
}

func TestReadMatrixBinaryErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stream *binStream
		want   error
	}{
		{name: "compressed", stream: newBinStream().token("CM"), want: ErrFraming},
		{name: "double", stream: newBinStream().token("DM"), want: ErrFraming},
		{name: "rows mismatch", stream: newBinStream().token("FM").int32(3).int32(2).raw(1, 2, 3, 4, 5, 6), want: ErrSizeMismatch},
		{name: "truncated", stream: newBinStream().token("FM").int32(2).int32(2).raw(1, 2, 3), want: ErrIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewInput(&tt.stream.Buffer).ReadMatrix(2, 2)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadMatrixText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "newline rows", input: " [\n  1 2 3 \n  4 5 6 ]\n"},
		{name: "semicolon rows", input: "[ 1 2 3 ; 4 5 6 ]"},
		{name: "crlf rows", input: "[\r\n 1 2 3\r\n 4 5 6\r\n]\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := textInput(tt.input).ReadMatrix(2, 3)
			require.NoError(t, err)
			assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, m.Data)
		})
	}
}

func TestReadMatrixTextSpecials(t *testing.T) {
	t.Parallel()
	m, err := textInput("[ nan 1\n -Inf 2 ]").ReadMatrix(2, 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(float64(m.At(0, 0))))
	assert.True(t, math.IsInf(float64(m.At(1, 0)), -1))
}

func TestReadMatrixTextMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		rows  int
		cols  int
		want  error
	}{
		{name: "ragged", input: "[ 1 2 3\n 4 5 ]", rows: 2, cols: 3, want: ErrSizeMismatch},
		{name: "too few rows", input: "[ 1 2 3 ]", rows: 2, cols: 3, want: ErrSizeMismatch},
		{name: "wrong width", input: "[ 1 2\n 3 4\n 5 6 ]", rows: 2, cols: 3, want: ErrSizeMismatch},
		{name: "empty for nonzero", input: "[]", rows: 1, cols: 1, want: ErrSizeMismatch},
		{name: "blank brackets for nonzero", input: "[\n]", rows: 1, cols: 1, want: ErrSizeMismatch},
		{name: "unterminated", input: "[ 1 2\n", rows: 1, cols: 2, want: ErrIO},
		{name: "garbage element", input: "[ 1 x ]", rows: 1, cols: 2, want: ErrTokenMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := textInput(tt.input).ReadMatrix(tt.rows, tt.cols)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadMatrixTextEmpty(t *testing.T) {
	t.Parallel()
	m, err := textInput("[]\n").ReadMatrix(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, m.R)
	assert.Equal(t, 0, m.C)
}

func TestOutputRoundTrip(t *testing.T) {
	t.Parallel()

	weights, err := NewMatFromData(2, 3, []float32{0.1, -2, 3.25e-7, float32(math.Inf(1)), 5, 1.0 / 3})
	require.NoError(t, err)
	bias := []float32{float32(math.NaN()), -1e30, 0}

	for _, bin := range []bool{true, false} {
		var buf bytes.Buffer
		out := NewOutput(&buf, bin)
		require.NoError(t, out.WriteHeader())
		require.NoError(t, out.WriteToken("<Tag>"))
		require.NoError(t, out.WriteInt32(-12))
		require.NoError(t, out.WriteFloat(0.125))
		require.NoError(t, out.WriteMatrix(weights))
		require.NoError(t, out.WriteVector(bias))
		require.NoError(t, out.Flush())
		assert.Equal(t, int64(buf.Len()), out.Offset())

		in := NewInput(&buf)
		assert.Equal(t, bin, in.Binary())
		require.NoError(t, in.ExpectToken("<Tag>"))
		i, err := in.ReadInt32()
		require.NoError(t, err)
		assert.Equal(t, int32(-12), i)
		f, err := in.ReadFloat()
		require.NoError(t, err)
		assert.Equal(t, float32(0.125), f)

		m, err := in.ReadMatrix(2, 3)
		require.NoError(t, err)
		for k := range weights.Data {
			assert.Equal(t, math.Float32bits(weights.Data[k]), math.Float32bits(m.Data[k]), "binary=%v element %d", bin, k)
		}

		v, err := in.ReadVector(3)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(float64(v[0])))
		assert.Equal(t, bias[1:], v[1:])
	}
}

func TestFormatFloat(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "inf", FormatFloat(float32(math.Inf(1))))
	assert.Equal(t, "-inf", FormatFloat(float32(math.Inf(-1))))
	assert.Equal(t, "nan", FormatFloat(float32(math.NaN())))
	assert.Equal(t, "0.1", FormatFloat(0.1))
	assert.Equal(t, "-3", FormatFloat(-3))
}

func TestHugeDeclaredSizesFailWithoutAllocating(t *testing.T) {
	t.Parallel()

	const huge = 2000000000

	t.Run("binary matrix", func(t *testing.T) {
		t.Parallel()
		bs := newBinStream().token("FM").int32(huge).int32(1).raw(1)
		_, err := NewInput(&bs.Buffer).ReadMatrix(huge, 1)
		assert.ErrorIs(t, err, ErrIO)
	})
	t.Run("binary vector", func(t *testing.T) {
		t.Parallel()
		bs := newBinStream().token("FV").int32(huge).raw(1, 2)
		_, err := NewInput(&bs.Buffer).ReadVector(huge)
		assert.ErrorIs(t, err, ErrIO)
	})
	t.Run("text matrix", func(t *testing.T) {
		t.Parallel()
		_, err := textInput("[ 1 ]\n").ReadMatrix(huge, huge)
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})
	t.Run("text vector", func(t *testing.T) {
		t.Parallel()
		_, err := textInput("[ 1 2 ]\n").ReadVector(huge)
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})
	t.Run("overflowing product", func(t *testing.T) {
		t.Parallel()
		_, err := textInput("[ 1 ]\n").ReadMatrix(math.MaxInt, 2)
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})
}

func TestReadMatrixBinaryAcrossChunks(t *testing.T) {
	t.Parallel()

	const rows, cols = 3, 10000
	data := make([]float32, rows*cols)
	for i := range data {
		data[i] = float32(i)
	}
	bs := newBinStream().token("FM").int32(rows).int32(cols).raw(data...)
	m, err := NewInput(&bs.Buffer).ReadMatrix(rows, cols)
	require.NoError(t, err)
	require.Len(t, m.Data, rows*cols)
	assert.Equal(t, float32(rows*cols-1), m.Data[rows*cols-1])
	assert.Equal(t, float32(cols), m.At(1, 0))
}

func TestElemCount(t *testing.T) {
	t.Parallel()

	n, ok := elemCount(3, 4)
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = elemCount(math.MaxInt/2+1, 2)
	assert.False(t, ok)
	_, ok = elemCount(-1, 2)
	assert.False(t, ok)

	n, ok = elemCount(math.MaxInt, 0)
	assert.True(t, ok)
	assert.Equal(t, 0, n)
}

func TestReadVectorNegativeLength(t *testing.T) {
	t.Parallel()
	_, err := textInput("[ ]\n").ReadVector(-1)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}
