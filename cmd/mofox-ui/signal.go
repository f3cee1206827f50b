package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
// Callers should defer the returned cancel.
func setupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
