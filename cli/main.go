package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/scaffold-labs/musicsearch/cli/cmd"
)

func main() {
	// Interrupt cancels in-flight searches and ends diagnostics tail.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
