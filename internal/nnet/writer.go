package nnet

import (
	"fmt"
	"io"

	"github.com/samcharles93/nnetio/internal/kio"
)

// Write serializes m in binary or text form so that Load reproduces it.
// Components are written in recorded order; a model built by hand without a
// component list is written as its affine layers only.
func Write(w io.Writer, m *Model, binary bool) error {
	out := kio.NewOutput(w, binary)
	_ = out.WriteHeader()
	_ = out.WriteToken(tokenNnetOpen)
	_ = out.Newline()

	comps := m.Components
	if len(comps) == 0 {
		comps = make([]Component, len(m.Layers))
		for i, l := range m.Layers {
			comps[i] = Component{Kind: AffineTransform, OutputDim: l.OutputDim, InputDim: l.InputDim, Layer: i}
		}
	}
	for i, c := range comps {
		if err := writeComponent(out, m, c); err != nil {
			return fmt.Errorf("component %d %s: %w", i, c.Kind, err)
		}
	}
	_ = out.WriteToken(tokenNnetClose)
	_ = out.Newline()
	return out.Flush()
}

func writeComponent(out *kio.Output, m *Model, c Component) error {
	_ = out.WriteToken(c.Kind.Token())
	_ = out.WriteInt32(int32(c.OutputDim))
	_ = out.WriteInt32(int32(c.InputDim))
	if c.Kind == AffineTransform {
		if c.Layer < 0 || c.Layer >= len(m.Layers) {
			return fmt.Errorf("layer index %d out of range", c.Layer)
		}
		l := m.Layers[c.Layer]
		if l.Weights.R != l.OutputDim || l.Weights.C != l.InputDim || len(l.Bias) != l.OutputDim {
			return fmt.Errorf("layer %d: weights %s bias %d do not match %dx%d",
				c.Layer, l.Weights, len(l.Bias), l.OutputDim, l.InputDim)
		}
		writeAttr(out, tokenLearnRateCoef, l.Attrs.LearnRateCoef)
		writeAttr(out, tokenBiasLearnRate, l.Attrs.BiasLearnRateCoef)
		writeAttr(out, tokenMaxNorm, l.Attrs.MaxNorm)
		_ = out.Newline()
		_ = out.WriteMatrix(l.Weights)
		_ = out.WriteVector(l.Bias)
	}
	_ = out.WriteToken(tokenEndOfComponent)
	return out.Newline()
}

func writeAttr(out *kio.Output, tok string, v *float32) {
	if v == nil {
		return
	}
	_ = out.WriteToken(tok)
	_ = out.WriteFloat(*v)
}
