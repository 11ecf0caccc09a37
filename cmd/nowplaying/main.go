// Command nowplaying runs the Spotify now-playing proxy, the portfolio site
// that embeds its widget, and a few local tools around them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/justestif/go-now-playing/internal/config"
	"github.com/justestif/go-now-playing/internal/logging"
)

func main() {
	if err := run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	logger, err := logging.New(os.Stderr, "")
	if err != nil {
		return err
	}

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "nowplaying",
		Usage:    "Serve the Spotify currently-playing track and the widget that shows it",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err = app.Run(ctx, args)
	if errors.Is(err, config.ErrMissingCredentials) || errors.Is(err, config.ErrInvalidConfig) {
		runner.logger.Error("configuration error", "err", err)
	}
	return err
}
