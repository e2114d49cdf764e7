// Package main starts the ordering MCP server for staff assistants.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	mcpcmd "github.com/tableside/tableside/internal/cmd/orderingmcp"
	"github.com/tableside/tableside/internal/platform/config"
)

func main() {
	cfg, err := mcpcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcpcmd.Run(ctx, cfg); err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}
