// Command codeloopd serves the sandbox as a standalone HTTP service (spec
// §6) for deployments that run the sandbox out-of-process from an
// orchestrator written in another language or process.
//
// Run with: go run ./cmd/codeloopd
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonwraymond/codeloop/sandbox"
	"github.com/jonwraymond/codeloop/transport/httpapi"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	addr := os.Getenv("CODELOOPD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	sb, err := sandbox.New(sandbox.Config{Logger: slogAdapter{logger}})
	if err != nil {
		logger.Error("failed to build sandbox", "error", err)
		os.Exit(1)
	}

	srv := httpapi.NewServer(addr, sb, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server exited", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// slogAdapter satisfies sandbox.Logger using a *slog.Logger. The printf-style
// Logf contract is formatted eagerly; a daemon's ambient logging doesn't
// need slog's structured-field machinery per call site.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Logf(format string, args ...any) {
	a.logger.Info(fmt.Sprintf(format, args...))
}
