package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"termagent/internal/logging"
)

// ForcedShutdownTimeout is how long Close may take after a termination
// signal before the process exits anyway.
const ForcedShutdownTimeout = 10 * time.Second

// interruptContext derives a context that Ctrl+C cancels, so an interrupt
// stops the running command or model call without leaving the REPL.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}

// ShutdownContext returns a context cancelled by SIGTERM or SIGQUIT. The
// returned stop function releases the signal handler.
func ShutdownContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGQUIT)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			logging.Debug("received signal", "signal", sig)
			time.AfterFunc(ForcedShutdownTimeout, func() {
				logging.Warn("forced shutdown due to timeout")
				os.Exit(1)
			})
			cancel()
		case <-done:
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		close(done)
		cancel()
	}
}
