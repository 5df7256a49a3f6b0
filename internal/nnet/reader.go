// Package nnet loads layered affine network parameters from Kaldi nnet1
// style model files in binary or text form.
package nnet

import (
	"errors"
	"fmt"
	"io"

	"github.com/samcharles93/nnetio/internal/kio"
	"github.com/samcharles93/nnetio/internal/logger"
)

const (
	tokenNnetOpen       = "<Nnet>"
	tokenNnetClose      = "</Nnet>"
	tokenEndOfComponent = "<!EndOfComponent>"
	tokenLearnRateCoef  = "<LearnRateCoef>"
	tokenBiasLearnRate  = "<BiasLearnRateCoef>"
	tokenMaxNorm        = "<MaxNorm>"
)

type options struct {
	maxLayers int
	log       logger.Logger
}

// Option configures a load.
type Option func(*options)

// WithMaxLayers bounds the number of affine layers a model may hold.
func WithMaxLayers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLayers = n
		}
	}
}

// WithLogger routes per-component diagnostics to l.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{maxLayers: MaxLayers, log: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Load reads a model from r. The stream mode is detected from its first bytes.
func Load(r io.Reader, opts ...Option) (*Model, error) {
	m := &Model{}
	if err := m.Load(r, opts...); err != nil {
		return nil, err
	}
	return m, nil
}

// Load resets m and repopulates it from r. On error m is left empty.
func (m *Model) Load(r io.Reader, opts ...Option) error {
	m.Reset()
	in := kio.NewInput(r)
	a := &assembler{in: in, model: m, opts: newOptions(opts)}
	m.Binary = in.Binary()
	if err := a.run(); err != nil {
		m.Reset()
		return err
	}
	a.opts.log.Debug("model loaded",
		"binary", m.Binary, "layers", len(m.Layers), "terminals", m.Terminals, "bytes", in.Offset())
	return nil
}

type assembler struct {
	in    *kio.Input
	model *Model
	opts  options
}

func (a *assembler) run() error {
	for {
		if _, err := a.in.Peek(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		tok, err := a.in.ReadToken()
		if err != nil {
			return err
		}
		if tok == tokenNnetOpen {
			if tok, err = a.in.ReadToken(); err != nil {
				return err
			}
		}
		if tok == tokenNnetClose {
			return nil
		}
		if err := a.readComponent(tok); err != nil {
			return fmt.Errorf("component %d %s: %w", len(a.model.Components), tok, err)
		}
		if err := a.skipSeparator(); err != nil {
			return err
		}
	}
}

// mismatch builds a declared-vs-observed error at the current stream offset.
func (a *assembler) mismatch(kind kio.ErrorKind, op string, want, got any) *kio.FormatError {
	e := kio.Mismatch(kind, op, want, got)
	e.Offset = a.in.Offset()
	return e
}

func (a *assembler) readComponent(tok string) error {
	kind, ok := parseComponent(tok)
	if !ok {
		return &kio.FormatError{Kind: kio.KindUnknownComponent, Op: "read component", Token: tok, Offset: a.in.Offset()}
	}
	dimOut, err := a.in.ReadInt32()
	if err != nil {
		return err
	}
	dimIn, err := a.in.ReadInt32()
	if err != nil {
		return err
	}
	if dimOut < 0 || dimIn < 0 {
		return a.mismatch(kio.KindSizeMismatch, "read component", "non-negative dimensions",
			fmt.Sprintf("out=%d in=%d", dimOut, dimIn))
	}
	a.opts.log.Debug("component", "token", tok, "out", dimOut, "in", dimIn, "offset", a.in.Offset())

	c := Component{Kind: kind, OutputDim: int(dimOut), InputDim: int(dimIn), Layer: -1}
	switch kind {
	case Softmax:
		a.model.Terminals++
	case Sigmoid:
	case AffineTransform:
		layer, err := a.readAffine(c.InputDim, c.OutputDim)
		if err != nil {
			return err
		}
		c.Layer = len(a.model.Layers)
		a.model.appendLayer(layer)
	}
	a.model.Components = append(a.model.Components, c)
	return nil
}

func (a *assembler) readAffine(dimIn, dimOut int) (*Layer, error) {
	attrs, err := a.readAttributes()
	if err != nil {
		return nil, err
	}
	if dimIn == 0 || dimOut == 0 {
		return nil, a.mismatch(kio.KindSizeMismatch, "read affine", "positive dimensions",
			fmt.Sprintf("out=%d in=%d", dimOut, dimIn))
	}
	m := a.model
	if len(m.Layers) >= a.opts.maxLayers {
		return nil, a.mismatch(kio.KindCapacityExceeded, "read affine",
			fmt.Sprintf("at most %d layers", a.opts.maxLayers), len(m.Layers)+1)
	}
	if n := len(m.LayerSizes); n > 0 && m.LayerSizes[n-1] != dimIn {
		return nil, a.mismatch(kio.KindDimensionChain, "read affine", m.LayerSizes[n-1], dimIn)
	}

	weights, err := a.in.ReadMatrix(dimOut, dimIn)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	bias, err := a.in.ReadVector(dimOut)
	if err != nil {
		return nil, fmt.Errorf("bias: %w", err)
	}
	return &Layer{
		InputDim:  dimIn,
		OutputDim: dimOut,
		Weights:   weights,
		Bias:      bias,
		Attrs:     attrs,
	}, nil
}

// readAttributes consumes the optional <Tag> value pairs preceding an affine
// transform's weights. Unknown tags are logged and skipped without a value.
func (a *assembler) readAttributes() (Attributes, error) {
	var attrs Attributes
	for {
		b, err := a.in.Peek()
		if errors.Is(err, io.EOF) {
			return attrs, nil
		}
		if err != nil {
			return attrs, err
		}
		if b != '<' {
			return attrs, nil
		}
		first, err := a.in.PeekToken()
		if err != nil && !errors.Is(err, io.EOF) {
			return attrs, err
		}
		tok, err := a.in.ReadToken()
		if err != nil {
			return attrs, err
		}
		var dst **float32
		switch first {
		case 'L', 'l':
			dst = &attrs.LearnRateCoef
		case 'B', 'b':
			dst = &attrs.BiasLearnRateCoef
		case 'M', 'm':
			dst = &attrs.MaxNorm
		default:
			a.opts.log.Warn("unknown layer attribute", "token", tok, "offset", a.in.Offset())
			continue
		}
		v, err := a.in.ReadFloat()
		if err != nil {
			return attrs, fmt.Errorf("attribute %s: %w", tok, err)
		}
		*dst = &v
	}
}

// skipSeparator consumes an <!EndOfComponent> marker if one follows.
func (a *assembler) skipSeparator() error {
	b, err := a.in.Peek()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	if b != '<' {
		return nil
	}
	first, err := a.in.PeekToken()
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if first != '!' {
		return nil
	}
	return a.in.ExpectToken(tokenEndOfComponent)
}
