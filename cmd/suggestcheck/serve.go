package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dshills/suggestcheck/internal/config"
	"github.com/dshills/suggestcheck/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	f := &engineFlags{}
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scenario runs over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.capture(cmd)
			return serve(cfg, port, f)
		},
	}

	f.register(cmd, cfg)
	cmd.Flags().StringVar(&port, "port", cfg.Port, "Listen address")
	return cmd
}

func serve(cfg *config.Config, port string, f *engineFlags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, reg, _, err := buildRunner(ctx, cfg, f)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	srv := server.New(port, server.NewHandler(r, reg, logger), cfg.CORSOrigins, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return exitError(3, "server: %v", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
