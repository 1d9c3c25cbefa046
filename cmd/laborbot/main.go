package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Miura55/freee-labor-bot/internal/client/cmd"
)

// Set with -ldflags "-X main.version=... -X main.buildDate=...".
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.NewRootCmd(version, buildDate).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "laborbot:", err)
		os.Exit(1)
	}
}
