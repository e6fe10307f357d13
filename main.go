package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"enquiry-cli/internal/cli"
	"enquiry-cli/internal/display"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCmd(version).ExecuteContext(ctx)
	stop()
	if err != nil {
		if !cli.Reported(err) {
			display.Error(err.Error())
		}
		os.Exit(1)
	}
}
