package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hnrobert/pagegate/internal/audit"
	"github.com/hnrobert/pagegate/internal/config"
	"github.com/hnrobert/pagegate/internal/credstore"
	"github.com/hnrobert/pagegate/internal/logger"
	"github.com/hnrobert/pagegate/internal/server"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("PAGEGATE_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.FileLogging() {
		if err := logger.Init(cfg.DataDir); err != nil {
			logger.Warn("File logging disabled: %v", err)
		}
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("%v", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Info("pagegate stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	store, err := credstore.Load(cfg.StorePath)
	if err != nil {
		return err
	}
	logger.Info("Loaded credential store %s", store.Path())

	var rec audit.Recorder = audit.Nop{}
	if p := cfg.AuditPath(); p != "" {
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return err
		}
		repo, err := audit.Open(ctx, p)
		if err != nil {
			return err
		}
		defer repo.Close()
		rec = repo
	}

	srv, err := server.New(cfg, store, rec)
	if err != nil {
		return err
	}
	logger.Info("pagegate listening on %s", cfg.ListenAddr)
	return srv.ListenAndServe(ctx)
}
