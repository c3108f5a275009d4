package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/lox/llmholdem/internal/tui"
)

// PlayCmd runs the terminal client against an in-process table.
type PlayCmd struct {
	LogFile string `default:"holdem.log" type:"path" help:"Where to write logs while the terminal UI is running"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger, err := newLogger(logFile, cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	sess, err := g.newSession(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return sess.Run(ctx) })
	eg.Go(func() error {
		defer cancel()
		if err := tui.Run(ctx, sess, logger); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})
	return eg.Wait()
}
