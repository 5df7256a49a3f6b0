package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/nnetio/internal/kio"
	"github.com/samcharles93/nnetio/internal/nnet"
)

type inspectResult struct {
	Path  string        `json:"path"`
	Model *nnet.Summary `json:"model,omitempty"`
	Error string        `json:"error,omitempty"`
	Kind  string        `json:"kind,omitempty"`
}

func inspectCmd(g *globals) *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the layer structure of one or more models",
		ArgsUsage: "MODEL...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print results as JSON",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return errMissingModel
			}

			results := make([]inspectResult, 0, len(paths))
			var failed int
			for _, p := range paths {
				res := inspectResult{Path: p}
				m, err := g.loadModel(ctx, p)
				if err != nil {
					failed++
					res.Error = err.Error()
					if k := kio.KindOf(err); k != 0 {
						res.Kind = k.String()
					}
				} else {
					s := m.Summarize()
					res.Model = &s
				}
				results = append(results, res)
			}

			w := outWriter(cmd)
			if asJSON {
				data, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(w, string(data)); err != nil {
					return err
				}
			} else {
				for _, res := range results {
					printSummary(w, res)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d models failed to load", failed, len(paths))
			}
			return nil
		},
	}
}

func printSummary(w io.Writer, res inspectResult) {
	if res.Model == nil {
		_, _ = fmt.Fprintf(w, "%s: error: %s\n", res.Path, res.Error)
		return
	}
	s := res.Model
	mode := "text"
	if s.Binary {
		mode = "binary"
	}
	_, _ = fmt.Fprintf(w, "%s: %s, %d layers, %d parameters\n", res.Path, mode, len(s.Layers), s.Parameters)

	sizes := make([]string, len(s.LayerSizes))
	for i, n := range s.LayerSizes {
		sizes[i] = strconv.Itoa(n)
	}
	_, _ = fmt.Fprintf(w, "  layer sizes: %s\n", strings.Join(sizes, " -> "))
	_, _ = fmt.Fprintf(w, "  components:  %s\n", strings.Join(s.Components, " "))
	_, _ = fmt.Fprintf(w, "  terminals:   %d\n", s.Terminals)
	for _, l := range s.Layers {
		_, _ = fmt.Fprintf(w, "  layer %d: %d -> %d, %d params", l.Index, l.InputDim, l.OutputDim, l.Params)
		printAttr(w, "learn_rate_coef", l.LearnRateCoef)
		printAttr(w, "bias_learn_rate_coef", l.BiasLearnRateCoef)
		printAttr(w, "max_norm", l.MaxNorm)
		_, _ = fmt.Fprintln(w)
	}
}

func printAttr(w io.Writer, name string, v *float32) {
	if v == nil {
		return
	}
	_, _ = fmt.Fprintf(w, ", %s=%s", name, kio.FormatFloat(*v))
}
