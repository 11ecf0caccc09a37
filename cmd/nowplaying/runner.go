package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/justestif/go-now-playing/internal/config"
	"github.com/justestif/go-now-playing/internal/logging"
)

// Runner holds the dependencies shared by every command.
type Runner struct {
	logger *log.Logger
	output io.Writer
	logOut io.Writer
}

// RunnerOpts configures a Runner.
type RunnerOpts struct {
	Logger *log.Logger
	Output io.Writer
	LogOut io.Writer
}

// NewRunner creates a Runner, defaulting to stdout for output and stderr for logs.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOut == nil {
		opts.LogOut = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = log.New(opts.LogOut)
	}

	return &Runner{
		logger: opts.Logger,
		output: opts.Output,
		logOut: opts.LogOut,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, invokeCommand, siteCommand, watchCommand, migrateCommand, initCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// loadConfig reads the --config flag and rebuilds the logger at the configured level.
func (r *Runner) loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(r.logOut, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	r.logger = logger

	return cfg, nil
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a TOML or YAML configuration file",
		Sources: cli.EnvVars("NOWPLAYING_CONFIG"),
	}
}
