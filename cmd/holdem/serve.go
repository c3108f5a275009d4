package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/lox/llmholdem/internal/server"
)

// ServeCmd runs the HTTP surface and the analysis worker.
type ServeCmd struct {
	Addr     string `help:"Listen address (overrides server.address)"`
	AutoBots bool   `help:"Drive bot turns automatically after each command"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	sess, err := g.newSession(cfg, logger)
	if err != nil {
		return err
	}

	addr := cfg.Server.Address
	if c.Addr != "" {
		addr = c.Addr
	}
	var opts []server.Option
	if c.AutoBots {
		opts = append(opts, server.WithAutoBots())
	}
	srv := server.NewServer(addr, sess, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return srv.Start(ctx) })
	eg.Go(func() error { return sess.Run(ctx) })
	err = eg.Wait()
	logger.Info("Server stopped")
	return err
}
