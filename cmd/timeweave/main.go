// Package main starts the timeweave version-graph CLI.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	timeweavecmd "github.com/louisbranch/timeweave/internal/cmd/timeweave"
)

func main() {
	log.SetPrefix("[TIMEWEAVE] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := timeweavecmd.Run(ctx, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
