package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/nnetio/internal/ark"
	"github.com/samcharles93/nnetio/internal/kio"
	"github.com/samcharles93/nnetio/internal/logger"
	"github.com/samcharles93/nnetio/internal/nnet"
)

func exportCmd(g *globals) *cli.Command {
	var arkPath, scpPath string

	return &cli.Command{
		Name:      "export",
		Usage:     "Write each layer's weights and bias to an archive with a script index",
		ArgsUsage: "MODEL",
		Flags: append(modeFlags(),
			&cli.StringFlag{
				Name:        "ark",
				Usage:       "archive output path",
				Required:    true,
				Destination: &arkPath,
			},
			&cli.StringFlag{
				Name:        "scp",
				Usage:       "script (index) output path",
				Required:    true,
				Destination: &scpPath,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errMissingModel
			}
			m, err := g.loadModel(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			binary, err := g.outputMode(cmd, m.Binary)
			if err != nil {
				return err
			}
			n, err := exportLayers(m, arkPath, scpPath, binary)
			if err != nil {
				return err
			}
			logger.FromContext(ctx).Info("exported layers", "ark", arkPath, "scp", scpPath, "entries", n)
			return nil
		},
	}
}

// exportLayers writes layerN.weights and layerN.bias (as a 1-row matrix) for
// every affine layer and returns the number of entries written.
func exportLayers(m *nnet.Model, arkPath, scpPath string, binary bool) (n int, err error) {
	w, err := ark.Create(arkPath, scpPath, binary)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for i, l := range m.Layers {
		if _, err := w.Write(l.Weights, fmt.Sprintf("layer%d.weights", i)); err != nil {
			return n, err
		}
		n++
		bias, err := kio.NewMatFromData(1, len(l.Bias), l.Bias)
		if err != nil {
			return n, err
		}
		if _, err := w.Write(bias, fmt.Sprintf("layer%d.bias", i)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
