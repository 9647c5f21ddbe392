package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/koustreak/dbinit/internal/bootstrap"
	"github.com/koustreak/dbinit/internal/database"
	"github.com/koustreak/dbinit/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve health probes and run the startup hook",
		Long: `Serve starts the HTTP probes and runs the startup hook alongside them.
/readyz reports 503 until the hook has finished and 200 afterwards, whatever
the outcome. The process shuts down cleanly on SIGTERM or SIGINT.`,
		Args: cobra.NoArgs,
		RunE: a.serve,
	}
}

func (a *app) serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var last atomic.Pointer[bootstrap.Report]
	srv := server.New(a.cfg.Server, server.NewRouter(last.Load, a.log), a.log)

	var db database.DB
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})

	g.Go(func() error {
		hookCtx, cancel := context.WithTimeout(gctx, a.cfg.Bootstrap.Timeout)
		defer cancel()

		var r *bootstrap.Report
		r, db = a.runHook(hookCtx)
		last.Store(r)
		return nil
	})

	err := g.Wait()
	if db != nil {
		db.Close()
	}
	return err
}
