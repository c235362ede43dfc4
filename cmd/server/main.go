package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/webinclude/internal/api"
	"github.com/dgallion1/webinclude/internal/config"
	"github.com/dgallion1/webinclude/internal/fetch"
	"github.com/dgallion1/webinclude/internal/include"
	"github.com/dgallion1/webinclude/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	headers, err := config.LoadHeaders(cfg.HeadersFile, log)
	if err != nil {
		log.Error("loading headers", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the fetch client and expander.
	client := fetch.NewClient(cfg.FetchTimeout, cfg.FetchMaxBytes, cfg.FetchUserAgent)
	expander := include.NewExpander(include.NewResolver(client, headers), log)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, expander, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, client.Stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
	}()

	log.Info("starting webinclude", "port", cfg.Port, "headers", len(headers), "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
