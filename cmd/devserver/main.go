// Command devserver runs an in-memory memo server for local development.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etitcombe/logifymw"
	"go.uber.org/zap"

	"mymemo-client/internal/config"
	"mymemo-client/internal/memoserver"
	"mymemo-client/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "configuration file")
	flag.Parse()

	cfg, err := config.NewLoader(*configPath).Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, _, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	server, err := memoserver.New(cfg.DevServer, logger)
	if err != nil {
		logger.Fatal("Failed to create memo server", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.DevServer.Address,
		Handler:      logifymw.LogIt2(zap.NewStdLog(logger.Named("access")), server.Handler()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.DevServer.Address),
			zap.String("environment", string(cfg.Environment)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
}
