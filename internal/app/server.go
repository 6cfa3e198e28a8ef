package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start serves HTTP and returns a channel that is closed once the process
// should stop, either on a termination signal or when the listener fails.
func (a *App) Start() <-chan struct{} {
	terminate := make(chan struct{})
	serveErr := make(chan error, 1)

	go func() {
		slog.Info("http server listening",
			"address", a.httpServer.Addr,
			"gate", a.gate != nil,
			"messaging", a.config.GetString("messaging.driver"),
		)

		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sig)

		select {
		case s := <-sig:
			slog.Info("termination signal received", "signal", s.String())
		case err := <-serveErr:
			slog.Error("http server stopped unexpectedly", "error", err)
		}

		if a.cancel != nil {
			a.cancel()
		}
		close(terminate)
	}()

	return terminate
}

// Stop drains in-flight requests, waits for the consumers, then runs the
// closers in registration order.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "consumer goroutines ended with error", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application stopped")
}
