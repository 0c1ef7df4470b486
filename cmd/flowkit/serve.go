package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/flowkit/internal/api"
	"github.com/samcharles93/flowkit/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr            string
		readTimeout     time.Duration
		maxBodyBytes    int64
		storeLimit      int64
		allowUnresolved bool
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the decode/encode REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-body-bytes",
				Usage:       "largest accepted request body",
				Value:       api.DefaultMaxBodyBytes,
				Destination: &maxBodyBytes,
			},
			&cli.Int64Flag{
				Name:        "store-limit",
				Usage:       "number of decoded documents kept in memory",
				Value:       api.DefaultStoreLimit,
				Destination: &storeLimit,
			},
			&cli.BoolFlag{
				Name:        "allow-unresolved",
				Usage:       "default for script encodes that do not pass allow_unresolved",
				Destination: &allowUnresolved,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, cfg, &addr, &maxBodyBytes, &storeLimit)
			applyPackConfig(cmd, cfg, &allowUnresolved)

			server := api.NewServer(api.NewDocumentStore(int(storeLimit)), api.Config{
				MaxBodyBytes:          maxBodyBytes,
				AllowUnresolvedLabels: allowUnresolved,
				Logger:                log,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "max_body_bytes", maxBodyBytes)
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
