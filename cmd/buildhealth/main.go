// buildhealth inspects nightly build outcomes and per-system metadata.
//
// Usage:
//
//	buildhealth list [--json]
//	buildhealth show <system-id>
//	buildhealth tests <system-id> <build-id>
//	buildhealth import <dir>
//	buildhealth warm [--workers=N]
//	buildhealth schema [--dialect=sqlite|postgres] [--apply]
//
// Storage and metadata locations come from the BUILDHEALTH_* environment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
