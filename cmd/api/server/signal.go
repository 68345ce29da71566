package server

import (
	"context"
	"os/signal"
	"syscall"
)

// WithSignal returns a context that ends on SIGINT or SIGTERM.
// The returned stop func unregisters the signals and releases the context.
func WithSignal(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
