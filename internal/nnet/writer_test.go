package nnet

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/nnetio/internal/kio"
)

func requireSameModel(t *testing.T, want, got *Model) {
	t.Helper()
	require.Equal(t, want.LayerSizes, got.LayerSizes)
	require.Equal(t, want.Components, got.Components)
	require.Equal(t, want.Terminals, got.Terminals)
	require.Equal(t, want.NumLayers(), got.NumLayers())
	for i := range want.Layers {
		w, g := want.Layers[i], got.Layers[i]
		assert.Equal(t, w.InputDim, g.InputDim)
		assert.Equal(t, w.OutputDim, g.OutputDim)
		assert.Equal(t, w.Attrs, g.Attrs)
		require.Len(t, g.Weights.Data, len(w.Weights.Data))
		for k := range w.Weights.Data {
			assert.Equal(t, math.Float32bits(w.Weights.Data[k]), math.Float32bits(g.Weights.Data[k]), "layer %d weight %d", i, k)
		}
		require.Len(t, g.Bias, len(w.Bias))
		for k := range w.Bias {
			assert.Equal(t, math.Float32bits(w.Bias[k]), math.Float32bits(g.Bias[k]), "layer %d bias %d", i, k)
		}
	}
}

func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()

	src, err := Load(strings.NewReader(twoLayerText))
	require.NoError(t, err)

	for _, bin := range []bool{true, false} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, src, bin))
		if bin {
			assert.Equal(t, []byte{0, 'B'}, buf.Bytes()[:2])
		}

		got, err := Load(&buf)
		require.NoError(t, err, "binary=%v", bin)
		assert.Equal(t, bin, got.Binary)
		requireSameModel(t, src, got)
	}
}

func TestWriteTextThenBinary(t *testing.T) {
	t.Parallel()

	src, err := Load(strings.NewReader(twoLayerText))
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, Write(&text, src, false))
	mid, err := Load(&text)
	require.NoError(t, err)

	var bin bytes.Buffer
	require.NoError(t, Write(&bin, mid, true))
	got, err := Load(&bin)
	require.NoError(t, err)
	requireSameModel(t, src, got)
}

func TestWriteHandBuiltModel(t *testing.T) {
	t.Parallel()

	w0, err := kio.NewMatFromData(2, 3, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	w1, err := kio.NewMatFromData(1, 2, []float32{-1, 1})
	require.NoError(t, err)
	m := &Model{Layers: []*Layer{
		{InputDim: 3, OutputDim: 2, Weights: w0, Bias: []float32{0, 1}},
		{InputDim: 2, OutputDim: 1, Weights: w1, Bias: []float32{0.5}},
	}}

	path := filepath.Join(t.TempDir(), "hand.nnet")
	require.NoError(t, WriteFile(path, m, true))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, got.Binary)
	assert.Equal(t, []int{3, 2, 1}, got.LayerSizes)
	assert.Equal(t, []float32{4, 5, 6}, got.Layers[0].Weights.Row(1))
	assert.Equal(t, 0, got.Terminals)
}

func TestWriteRejectsInconsistentLayer(t *testing.T) {
	t.Parallel()

	m := &Model{Layers: []*Layer{{InputDim: 3, OutputDim: 2, Weights: kio.NewMat(2, 2), Bias: []float32{0, 0}}}}
	err := Write(&bytes.Buffer{}, m, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match")
}

// TestLoadBinaryHandEncoded builds a binary stream byte by byte, including a
// double-width attribute value.
func TestLoadBinaryHandEncoded(t *testing.T) {
	t.Parallel()

	var b bytes.Buffer
	tok := func(s string) { b.WriteString(s + " ") }
	i32 := func(v int32) {
		b.WriteByte(4)
		_ = binary.Write(&b, binary.LittleEndian, v)
	}
	b.Write([]byte{0, 'B'})
	tok("<Nnet>")
	tok("<AffineTransform>")
	i32(2)
	i32(1)
	tok("<LearnRateCoef>")
	b.WriteByte(8)
	_ = binary.Write(&b, binary.LittleEndian, float64(0.75))
	tok("FM")
	i32(2)
	i32(1)
	_ = binary.Write(&b, binary.LittleEndian, []float32{3, 4})
	tok("FV")
	i32(2)
	_ = binary.Write(&b, binary.LittleEndian, []float32{-1, -2})
	tok("<!EndOfComponent>")
	tok("<Softmax>")
	i32(2)
	i32(2)
	tok("<!EndOfComponent>")
	tok("</Nnet>")

	m, err := Load(&b)
	require.NoError(t, err)
	assert.True(t, m.Binary)
	require.Equal(t, 1, m.NumLayers())
	assert.Equal(t, []int{1, 2}, m.LayerSizes)
	assert.Equal(t, []float32{3, 4}, m.Layers[0].Weights.Data)
	assert.Equal(t, []float32{-1, -2}, m.Layers[0].Bias)
	require.NotNil(t, m.Layers[0].Attrs.LearnRateCoef)
	assert.Equal(t, float32(0.75), *m.Layers[0].Attrs.LearnRateCoef)
	assert.Equal(t, 1, m.Terminals)
}

func TestLoadBinaryBadLengthByte(t *testing.T) {
	t.Parallel()

	var b bytes.Buffer
	b.Write([]byte{0, 'B'})
	b.WriteString("<Sigmoid> ")
	b.Write([]byte{2, 1, 0})
	_, err := Load(&b)
	assert.ErrorIs(t, err, kio.ErrFraming)
}
