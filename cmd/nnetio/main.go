package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/nnetio/internal/logger"
)

func main() {
	cfg, err := LoadConfig(configPath())
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "warning:", err)
	}
	if err := newApp(cfg).Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(cfg Config) *cli.Command {
	g := &globals{cfg: cfg}
	return &cli.Command{
		Name:  "nnetio",
		Usage: "Inspect, convert and export nnet parameter files",
		Flags: g.flags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			g.applyConfig(cmd)
			level := g.logLevel
			if g.debug {
				level = "debug"
			}
			log := logger.Setup(errWriter(cmd), level, g.logFormat)
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			inspectCmd(g),
			convertCmd(g),
			exportCmd(g),
			serveCmd(g),
			versionCmd(),
		},
	}
}
