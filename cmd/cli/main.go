// Command cli is an operator console for the treasury engine.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/amirasaad/treasury/infra/initializer"
	"github.com/amirasaad/treasury/pkg/config"
	"github.com/fatih/color"
	"golang.org/x/term"
)

func main() {
	color.NoColor = color.NoColor || !term.IsTerminal(int(os.Stdout.Fd()))

	if len(os.Args) < 2 {
		usage(os.Stdout)
		return
	}
	cfg, err := config.Load(".env")
	if err != nil {
		fail(os.Stderr, fmt.Errorf("failed to load configuration: %w", err))
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		fail(os.Stderr, fmt.Errorf("failed to initialize dependencies: %w", err))
	}
	defer deps.Close()

	if err := run(context.Background(), deps, os.Args[1:], os.Stdout); err != nil {
		_ = deps.Close()
		fail(os.Stderr, err)
	}
}

func fail(w io.Writer, err error) {
	_, _ = color.New(color.FgRed, color.Bold).Fprintln(w, "error:", err)
	os.Exit(1)
}

func usage(w io.Writer) {
	header := color.New(color.Bold)
	_, _ = header.Fprintln(w, "Usage: cli <command> [arguments]")
	_, _ = fmt.Fprintln(w, `Commands:
  asset create <name> <symbol> [balance]
  asset list
  deposit <asset_id> <amount> [tx_hash]
  withdraw <asset_id> <amount> [tx_hash]
  overview
  risk
  housekeeping
  ledger account <name>
  ledger reconcile
  audit <from YYYY-MM-DD> <to YYYY-MM-DD>`)
}
