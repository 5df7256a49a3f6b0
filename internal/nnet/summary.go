package nnet

// LayerSummary describes one affine layer without its parameters.
type LayerSummary struct {
	Index             int      `json:"index"`
	InputDim          int      `json:"input_dim"`
	OutputDim         int      `json:"output_dim"`
	Params            int      `json:"params"`
	LearnRateCoef     *float32 `json:"learn_rate_coef,omitempty"`
	BiasLearnRateCoef *float32 `json:"bias_learn_rate_coef,omitempty"`
	MaxNorm           *float32 `json:"max_norm,omitempty"`
}

// Summary is the shape of a loaded model.
type Summary struct {
	Binary     bool           `json:"binary"`
	Layers     []LayerSummary `json:"layers"`
	LayerSizes []int          `json:"layer_sizes"`
	Components []string       `json:"components"`
	Terminals  int            `json:"terminals"`
	Parameters int            `json:"parameters"`
}

// Summarize returns the shape of m.
func (m *Model) Summarize() Summary {
	s := Summary{
		Binary:     m.Binary,
		Layers:     make([]LayerSummary, len(m.Layers)),
		LayerSizes: append([]int{}, m.LayerSizes...),
		Components: make([]string, len(m.Components)),
		Terminals:  m.Terminals,
		Parameters: m.Params(),
	}
	for i, l := range m.Layers {
		s.Layers[i] = LayerSummary{
			Index:             i,
			InputDim:          l.InputDim,
			OutputDim:         l.OutputDim,
			Params:            l.Params(),
			LearnRateCoef:     l.Attrs.LearnRateCoef,
			BiasLearnRateCoef: l.Attrs.BiasLearnRateCoef,
			MaxNorm:           l.Attrs.MaxNorm,
		}
	}
	for i, c := range m.Components {
		s.Components[i] = c.Kind.String()
	}
	return s
}
