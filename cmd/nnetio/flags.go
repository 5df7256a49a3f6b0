package main

import (
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/nnetio/internal/nnet"
)

// globals holds the root flags shared by every subcommand.
type globals struct {
	cfg       Config
	logLevel  string
	logFormat string
	debug     bool
	maxLayers int
}

func (g *globals) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &g.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &g.logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &g.debug,
		},
		&cli.IntFlag{
			Name:        "max-layers",
			Usage:       "maximum number of affine layers accepted per model",
			Value:       nnet.MaxLayers,
			Destination: &g.maxLayers,
		},
	}
}

// outputMode resolves the target stream mode from --binary/--text, then the
// config file, then fallback.
func (g *globals) outputMode(cmd *cli.Command, fallback bool) (bool, error) {
	bin, txt := cmd.Bool("binary"), cmd.Bool("text")
	switch {
	case bin && txt:
		return false, errConflictingModes
	case bin:
		return true, nil
	case txt:
		return false, nil
	case g.cfg.OutputBinary != nil:
		return *g.cfg.OutputBinary, nil
	default:
		return fallback, nil
	}
}

func modeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "binary", Aliases: []string{"b"}, Usage: "write binary output"},
		&cli.BoolFlag{Name: "text", Aliases: []string{"t"}, Usage: "write text output"},
	}
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
