// Package main starts the ordering service process lifecycle.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	orderingcmd "github.com/tableside/tableside/internal/cmd/ordering"
	"github.com/tableside/tableside/internal/platform/config"
)

func main() {
	cfg, err := orderingcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orderingcmd.Run(ctx, cfg); err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}
