package main

import (
	"context"
	"errors"
	"time"

	"github.com/samcharles93/nnetio/internal/logger"
	"github.com/samcharles93/nnetio/internal/metrics"
	"github.com/samcharles93/nnetio/internal/nnet"
)

var (
	errConflictingModes = errors.New("--binary and --text are mutually exclusive")
	errMissingModel     = errors.New("missing model path")
)

func (g *globals) loadOptions(ctx context.Context) []nnet.Option {
	opts := []nnet.Option{nnet.WithLogger(logger.FromContext(ctx))}
	if g.maxLayers > 0 {
		opts = append(opts, nnet.WithMaxLayers(g.maxLayers))
	}
	return opts
}

func (g *globals) loadModel(ctx context.Context, path string) (*nnet.Model, error) {
	log := logger.FromContext(ctx)
	start := time.Now()
	m, err := nnet.LoadFile(path, g.loadOptions(ctx)...)
	if err != nil {
		metrics.ObserveLoad("unknown", 0, time.Since(start), err)
		return nil, err
	}
	metrics.ObserveLoad(metrics.Mode(m.Binary), m.NumLayers(), time.Since(start), nil)
	log.Debug("loaded model", "path", path, "binary", m.Binary, "layers", m.NumLayers(), "elapsed", time.Since(start))
	return m, nil
}
