// Package main runs the tableside operator CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tableside/tableside/internal/cmd/tablesidectl"
	"github.com/tableside/tableside/internal/platform/config"
)

func main() {
	root, err := tablesidectl.NewRootCommand()
	if err != nil {
		config.Exitf("configure: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		config.Exitf("%s: %v", root.Name(), err)
	}
}
