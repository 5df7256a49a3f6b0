package nnet

import (
	"fmt"
	"strings"

	"github.com/samcharles93/nnetio/internal/kio"
)

// MaxLayers is the default bound on affine layers per model.
const MaxLayers = 10

// ComponentKind identifies a component in a serialized network.
type ComponentKind int

const (
	AffineTransform ComponentKind = iota + 1
	Sigmoid
	Softmax
)

func (k ComponentKind) String() string {
	switch k {
	case AffineTransform:
		return "AffineTransform"
	case Sigmoid:
		return "Sigmoid"
	case Softmax:
		return "Softmax"
	default:
		return fmt.Sprintf("component(%d)", int(k))
	}
}

// Token returns the tag used for k in model files.
func (k ComponentKind) Token() string {
	return "<" + k.String() + ">"
}

func parseComponent(tok string) (ComponentKind, bool) {
	switch strings.ToLower(tok) {
	case "<affinetransform>":
		return AffineTransform, true
	case "<sigmoid>":
		return Sigmoid, true
	case "<softmax>":
		return Softmax, true
	default:
		return 0, false
	}
}

// Component records one component header in file order. Layer is the index
// into Model.Layers for affine transforms and -1 otherwise.
type Component struct {
	Kind      ComponentKind
	OutputDim int
	InputDim  int
	Layer     int
}

// Attributes are the optional per-layer training settings. A nil field was
// not present in the file.
type Attributes struct {
	LearnRateCoef     *float32
	BiasLearnRateCoef *float32
	MaxNorm           *float32
}

// Layer is one affine transform: Weights is OutputDim x InputDim.
type Layer struct {
	InputDim  int
	OutputDim int
	Weights   kio.Mat
	Bias      []float32
	Attrs     Attributes
}

// Params returns the number of weights plus biases in the layer.
func (l *Layer) Params() int {
	return len(l.Weights.Data) + len(l.Bias)
}

// Model is an ordered chain of affine layers. LayerSizes[i] is the input
// dimension of layer i and the output dimension of layer i-1, so it holds
// len(Layers)+1 entries once any layer is present.
type Model struct {
	Layers     []*Layer
	LayerSizes []int
	Components []Component
	// Terminals counts softmax markers seen.
	Terminals int
	Binary    bool
}

// Reset releases every layer buffer and leaves an empty model.
func (m *Model) Reset() {
	for i := range m.Layers {
		m.Layers[i] = nil
	}
	m.Layers = nil
	m.LayerSizes = nil
	m.Components = nil
	m.Terminals = 0
	m.Binary = false
}

// NumLayers returns the number of affine layers.
func (m *Model) NumLayers() int { return len(m.Layers) }

// InputDim returns the input dimension of the network, or 0 if it is empty.
func (m *Model) InputDim() int {
	if len(m.LayerSizes) == 0 {
		return 0
	}
	return m.LayerSizes[0]
}

// OutputDim returns the output dimension of the network, or 0 if it is empty.
func (m *Model) OutputDim() int {
	if len(m.LayerSizes) == 0 {
		return 0
	}
	return m.LayerSizes[len(m.LayerSizes)-1]
}

// Params returns the total parameter count.
func (m *Model) Params() int {
	n := 0
	for _, l := range m.Layers {
		n += l.Params()
	}
	return n
}

// appendLayer attaches a fully read layer, extending the dimension chain.
func (m *Model) appendLayer(l *Layer) {
	if len(m.LayerSizes) == 0 {
		m.LayerSizes = append(m.LayerSizes, l.InputDim)
	}
	m.LayerSizes = append(m.LayerSizes, l.OutputDim)
	m.Layers = append(m.Layers, l)
}
