package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/jukebox/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve exposes the resolver over HTTP until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cmd.String("addr")
	router := server.NewRouter(r.resolver, r.logger)
	return server.ListenAndServe(ctx, addr, router, r.logger)
}
