package main

import (
	"log/slog"
	"os"

	"github.com/UkralStul/comment-store/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		slog.Error("comment store failed", "error", err)
		os.Exit(1)
	}
}
