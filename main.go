package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/router"
	"github.com/danielhkuo/quickly-vote/store"
	"github.com/danielhkuo/quickly-vote/store/memstore"
	"github.com/danielhkuo/quickly-vote/store/sqlstore"
	"github.com/danielhkuo/quickly-vote/voting"
)

// openStore selects the storage backend named by the configuration
func openStore(ctx context.Context, cfg cliparse.Config) (store.Store, func() error, error) {
	if cfg.DatabaseType == cliparse.DatabaseMemory {
		slog.Warn("using in-memory store; votes are lost on restart")
		return memstore.New(), func() error { return nil }, nil
	}

	s, err := sqlstore.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

func main() {
	var err error

	// A missing .env file is fine; the environment and flags still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Open store (schema is created on open)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, closeStore, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		slog.Error("store open failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("Store ready", "type", cfg.DatabaseType)

	// Create router
	svc := voting.New(st, cfg)
	mux := router.NewRouter(svc, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		// Wait for Ctrl-C signal, then let in-flight votes finish
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
		return
	}
	<-drained
	slog.Info("Server closed", "error", err)
}
