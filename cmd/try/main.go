// Package main is the entry point for the try CLI
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/amulcse/try/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	code := cli.New().Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
