package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"codecraft/internal/gateway/app"
	"codecraft/internal/gateway/config"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web form and the RPC API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyPortFlag(cfg, port)
			log := opts.logger
			a, err := app.New(cfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, gctx := errgroup.WithContext(ctx)
			g.Go(a.Start)
			g.Go(func() error {
				<-gctx.Done()
				log.Info("Shutting down server...")
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := a.Shutdown(sctx); err != nil {
					log.Error("Server forced to shutdown", zap.Error(err))
					return err
				}
				return nil
			})
			err = g.Wait()
			log.Info("Server exiting")
			return err
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen address, overrides PORT (e.g. :8080)")
	return cmd
}

func applyPortFlag(cfg *config.Config, port string) {
	if port = strings.TrimSpace(port); port != "" {
		cfg.Port = config.NormalizePort(port)
	}
}
