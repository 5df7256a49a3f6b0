package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/nnetio/internal/logger"
	"github.com/samcharles93/nnetio/internal/nnet"
)

func convertCmd(g *globals) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Rewrite a model in binary or text form",
		ArgsUsage: "IN OUT",
		Flags:     modeFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("convert: expected IN and OUT, got %d arguments", cmd.Args().Len())
			}
			in, out := cmd.Args().Get(0), cmd.Args().Get(1)

			m, err := g.loadModel(ctx, in)
			if err != nil {
				return err
			}
			binary, err := g.outputMode(cmd, !m.Binary)
			if err != nil {
				return err
			}
			if err := nnet.WriteFile(out, m, binary); err != nil {
				return fmt.Errorf("convert %s: %w", out, err)
			}
			logger.FromContext(ctx).Info("converted model", "in", in, "out", out, "binary", binary, "layers", m.NumLayers())
			return nil
		},
	}
}
