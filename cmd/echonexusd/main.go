// Command echonexusd runs the document processing daemon: the event log, the
// worker pool, and the HTTP API.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"echonexus/internal/config"
	"echonexus/internal/daemon"
	"echonexus/internal/logging"
	"echonexus/internal/memory"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	events, err := memory.Open(cfg)
	if err != nil {
		logger.Error("open event log", logging.Args(logging.Error(err))...)
		return
	}

	d, err := daemon.New(cfg, events, logger)
	if err != nil {
		logger.Error("create daemon", logging.Args(logging.Error(err))...)
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Args(logging.Error(err))...)
		return
	}

	<-ctx.Done()
	logger.Info("echonexusd shutting down")
}
