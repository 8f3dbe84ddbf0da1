// Command docctl is local tooling for the extraction pipeline:
//
//	go run ./cmd/docctl extract ./report.pdf
//	go run ./cmd/docctl enqueue --document-id <id> --path <key> --user <id>
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docchat-backend/internal/shared/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "docctl",
		Short:        "Operate the document extraction pipeline",
		SilenceUsage: true,
	}
	root.AddCommand(newExtractCmd(), newEnqueueCmd(), newTokenCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig is swapped in tests.
var loadConfig = config.Load
