package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aevum11/ET-Physics-Toolbox/internal/config"
	"github.com/Aevum11/ET-Physics-Toolbox/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the intake HTTP(S) server",
		Long: `Start the intake server. All settings come from ET_* environment
variables; HTTPS is used when both TLS files exist at startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.InsecureAPIKey() {
		log.Printf("service=etnode msg=%q", "ET_API_KEY not set, running with the insecure default token")
	} else {
		log.Printf("service=etnode msg=%q", "API key active")
	}

	srv := server.New(cfg)

	// Serve in the background so we can watch for OS signals here.
	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSAvailable() {
			log.Printf("service=etnode msg=%q addr=%s version=%s commit=%s",
				"serving HTTPS", cfg.Addr, version, commit)
			errCh <- srv.StartTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		log.Printf("service=etnode msg=%q addr=%s version=%s commit=%s",
			"TLS material not found, serving plain HTTP", cfg.Addr, version, commit)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=etnode msg=%q signal=%s", "shutting_down", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		log.Printf("service=etnode msg=%q", "shutdown_complete")
		return nil
	case err := <-errCh:
		return err
	}
}
