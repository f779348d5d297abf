// housectl is a command line client for SmartHouse Core.
//
// It lists, inspects, creates and removes houses, rooms and devices, toggles
// devices, watches a device by polling and prints house reports.
//
//	housectl --server http://127.0.0.1:8080 device list
//	housectl device toggle 3f1c...
//	housectl device watch --interval 2 3f1c...
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set at build time via ldflags
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := &app{out: os.Stdout}
	if err := newRootCommand(a).Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
