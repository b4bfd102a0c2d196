// MIT License
//
// Copyright (c) 2025-2026 GrainLink Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/grainlink/grainlink/config"
	"github.com/grainlink/grainlink/grain"
	"github.com/grainlink/grainlink/log"
	"github.com/grainlink/grainlink/passivation"
	"github.com/grainlink/grainlink/persistence"
	"github.com/grainlink/grainlink/server"
	"github.com/grainlink/grainlink/shortener"
)

func main() {
	root := &cli.Command{
		Name:  "grainlink",
		Usage: "URL shortener backed by per-key virtual link actors",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the shortener HTTP server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "path to the YAML config file",
					},
				},
				Action: serve,
			},
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	logger := log.NewZap(log.ParseLevel(cfg.Log.Level), os.Stdout)
	defer func() {
		_ = logger.Flush()
	}()

	store, closeStore, err := buildStore(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	strategy := passivation.Strategy(passivation.NewLongLivedStrategy())
	if cfg.Directory.DeactivateAfter > 0 {
		strategy = passivation.NewTimeBasedStrategy(cfg.Directory.DeactivateAfter)
	}

	directory := grain.NewDirectory(store,
		grain.WithLogger(logger),
		grain.WithStoreTimeout(cfg.Directory.StoreTimeout),
		grain.WithInitTimeout(cfg.Directory.InitTimeout),
		grain.WithInitMaxRetries(cfg.Directory.InitMaxRetries),
		grain.WithPassivationStrategy(strategy))

	sctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := directory.Start(sctx); err != nil {
		return fmt.Errorf("starting link directory: %w", err)
	}
	defer func() {
		if err := directory.Stop(context.Background()); err != nil {
			logger.Errorf("failed to stop link directory cleanly: %v", err)
		}
	}()

	generator, err := shortener.NewSnowflakeGenerator(cfg.Shortener.NodeNumber)
	if err != nil {
		return err
	}

	service := shortener.NewService(directory, generator,
		shortener.WithServiceLogger(logger),
		shortener.WithCreateMaxAttempts(cfg.Shortener.CreateMaxAttempts))

	srv := server.NewServer(service, store,
		server.WithLogger(logger),
		server.WithListenAddr(cfg.Server.ListenAddr),
		server.WithBaseURL(cfg.Server.BaseURL),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout))

	return srv.Run(sctx)
}

func buildStore(cfg config.StoreConfig, logger log.Logger) (persistence.Store, func(), error) {
	switch cfg.Backend {
	case "memory":
		logger.Warn("using the in-memory store: all links are lost on restart")
		return persistence.NewMemoryStore(), func() {}, nil
	case "bolt":
		store, err := persistence.NewBoltStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening bolt store at %s: %w", cfg.Path, err)
		}
		closer := func() {
			if err := store.Close(); err != nil {
				logger.Errorf("failed to close bolt store: %v", err)
			}
		}
		return store, closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
