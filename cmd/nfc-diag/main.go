package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/SimplyPrint/nfc-diag/internal/config"
	"github.com/SimplyPrint/nfc-diag/internal/core"
	"github.com/SimplyPrint/nfc-diag/internal/diag"
	"github.com/SimplyPrint/nfc-diag/internal/logging"
	"github.com/SimplyPrint/nfc-diag/internal/version"
)

// Version is set at build time via -ldflags "-X main.Version=v1.2.3"
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		return loadFailed(os.Stderr, err)
	}

	v := version.Resolve(Version)
	if cfg.ShowVersion {
		fmt.Println(version.Banner("nfc-diag", v))
		return 0
	}

	logging.Init(logging.DefaultMaxEntries, cfg.LogLevel)
	logging.Debugf(logging.CatSystem, "nfc-diag %s starting", v)
	if cfg.DumpLog {
		defer func() {
			if err := logging.Get().WriteJSON(os.Stderr); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write log: %v\n", err)
			}
		}()
	}

	// Ctrl-C ends the tag wait; handles are still released on the way out
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return diag.Run(ctx, diag.Options{
		Factory: core.DefaultContextFactory{},
		Out:     os.Stdout,
		Config:  cfg,
	})
}

// loadFailed returns the exit code for a config.Load error. Flag parse
// errors were already printed with the usage text.
func loadFailed(w io.Writer, err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if errors.Is(err, config.ErrUnexpectedArgs) {
		fmt.Fprintln(w, err)
	}
	return 2
}
