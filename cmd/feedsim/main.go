package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/okian/pulse/internal/feedsim"
	"github.com/okian/pulse/pkg/logger"
)

const defaultRunTimeout = 5 * time.Minute

const usage = `Pulse feed simulator

Creates a match, replays a generated feed timeline against it and verifies
the final state. Stale updates are accepted but must not change the match;
duplicate update ids must be acknowledged as duplicates.

Usage:
  go run ./cmd/feedsim [options]

Options:
`

func main() {
	var (
		baseURL    = flag.String("url", feedsim.DefaultBaseURL, "Base URL of the service")
		updates    = flag.Int("updates", feedsim.DefaultUpdates, "Fresh updates to send, kick-off and final whistle included")
		stale      = flag.Int("stale", feedsim.DefaultStale, "Out-of-order updates to interleave")
		duplicates = flag.Int("duplicates", feedsim.DefaultDuplicates, "Re-sent update ids to interleave")
		seed       = flag.Uint64("seed", 0, "Timeline seed (0 picks one from the clock)")
		timeout    = flag.Duration("timeout", feedsim.DefaultTimeout, "HTTP request timeout")
		verbose    = flag.Bool("verbose", false, "Log every submitted update")
	)
	flag.Usage = func() {
		os.Stderr.WriteString(usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := feedsim.Config{
		BaseURL:    *baseURL,
		Updates:    *updates,
		Stale:      *stale,
		Duplicates: *duplicates,
		Seed:       *seed,
		Timeout:    *timeout,
		Settle:     feedsim.DefaultSettle,
		Verbose:    *verbose,
	}

	if _, err := feedsim.Run(ctx, cfg); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "simulation failed (seed %d): %v\n", *seed, err)
		os.Exit(1)
	}
}
