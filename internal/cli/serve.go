// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/geminichat/internal/server"
)

// shutdownGrace bounds how long in-flight requests may finish on exit.
const shutdownGrace = 10 * time.Second

// HandleServe runs the local web UI until interrupted.
func HandleServe(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Rest)
	addr := p.FlagOrDefault(app.Config.Server.Addr, "addr")

	srv := server.NewServer(app.Store, app.Chat).
		WithAddr(addr).
		WithLogger(app.Log).
		WithMetrics(app.Metrics).
		WithRateLimit(app.Config.Server.RateLimit, app.Config.Server.Burst)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if host, _, _ := net.SplitHostPort(addr); host != "" && host != "127.0.0.1" && host != "localhost" && host != "::1" {
		app.Log.Warn().Str("addr", addr).Msg("listening beyond loopback; anyone who can reach this address can use your API key")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	fmt.Fprintf(os.Stderr, "%s http://%s\n", SuccessStyle.Render("Serving on"), ln.Addr())
	fmt.Fprintln(os.Stderr, DimStyle.Render("Press Ctrl+C to stop."))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	app.Log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
