package cli

import (
	"io"
	"log/slog"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestGracefulShutdownRunsCleanupAndCancels(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cleaned := make(chan struct{})
	ctx, done := GracefulShutdown(logger, time.Second, func() { close(cleaned) })

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("send signal: %v", err)
	}

	select {
	case <-cleaned:
	case <-time.After(5 * time.Second):
		t.Fatal("cleanup did not run")
	}
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled")
	}

	finished := make(chan struct{})
	go func() {
		WaitForShutdown(ctx, done)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(10 * time.Second):
		t.Fatal("WaitForShutdown did not return")
	}
}
