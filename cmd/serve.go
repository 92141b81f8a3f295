package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tomgalvin.uk/monoform/internal/convert"
	"tomgalvin.uk/monoform/internal/history"
	"tomgalvin.uk/monoform/internal/server"
)

const workerQueue = 16

func Serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", envOr(envAddr, ":8080"), "address to listen on")
	dsn := fs.String("db", envOr(envDb, "file:monoform.db"), "SQLite database for generated documents")
	level := fs.String("log-level", envOr(envLogLevel, "info"), "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := NewLogger(*level)
	if err != nil {
		return err
	}

	r, err := history.Open(*dsn)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker := convert.NewWorker(logger.With("src", "worker"), workerQueue)
	defer worker.Close()
	go worker.Run(ctx)

	si := server.NewServer(logger.With("src", "server"), worker, r)
	srv := http.Server{Addr: *addr, Handler: si.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Couldn't shut down cleanly", "err", err)
		}
	}()

	logger.Info("Starting server", "addr", *addr, "db", *dsn)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("Error starting server:\n%w", err)
	}
	logger.Info("Server stopped")
	return nil
}
