package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/nnetio/internal/api"
	"github.com/samcharles93/nnetio/internal/logger"
	"github.com/samcharles93/nnetio/internal/version"
)

func serveCmd(g *globals) *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxBody     int64
		keep        int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the model inspection API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-body",
				Usage:       "maximum request body in bytes",
				Value:       256 << 20,
				Destination: &maxBody,
			},
			&cli.IntFlag{
				Name:        "keep",
				Usage:       "number of inspections kept in memory",
				Value:       256,
				Destination: &keep,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			g.applyServeConfig(cmd, &addr)
			log := logger.FromContext(ctx)

			server := api.NewServer(api.Config{
				MaxLayers:    g.maxLayers,
				MaxBodyBytes: maxBody,
				Store:        api.NewInspectionStore(keep),
				Logger:       log,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "version", version.String())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
