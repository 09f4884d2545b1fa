package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
)

// startHTTPServer serves router until ctx is cancelled or the listener fails,
// then shuts everything down.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	cfg := app.config.Server
	server := &http.Server{
		Addr:         net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		app.cleanup()
		return fmt.Errorf("failed to listen on %s: %w", server.Addr, err)
	}
	return app.serve(ctx, server, listener)
}

func (app *application) serve(ctx context.Context, server *http.Server, listener net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("Shutting down server...")
	case err := <-serveErr:
		app.logger.Error("Server failed", "error", err)
		runErr = err
	}

	// Stopping the queue first resolves every request still waiting on a job,
	// so Shutdown can drain them.
	app.queue.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		if runErr == nil {
			runErr = fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	app.cleanup()

	app.logger.Info("Server shutdown completed")
	return runErr
}
