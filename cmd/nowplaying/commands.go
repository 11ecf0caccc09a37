package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/justestif/go-now-playing/internal/api"
	"github.com/justestif/go-now-playing/internal/cache"
	"github.com/justestif/go-now-playing/internal/config"
	"github.com/justestif/go-now-playing/internal/nowplaying"
	"github.com/justestif/go-now-playing/internal/web"
	"github.com/justestif/go-now-playing/internal/widget"
	webfs "github.com/justestif/go-now-playing/web"
)

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the currently-playing endpoint",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

func invokeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "invoke",
		Usage:  "Run one now-playing invocation and print the status code and body",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Invoke,
	}
}

func siteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "site",
		Usage:  "Serve the portfolio page with the now-playing widget",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Site,
	}
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Show the now-playing widget in the terminal",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Exit after the first fetch resolves",
			},
		},
		Action: r.Watch,
	}
}

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Create the last-played-track table for the configured SQL cache",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Migrate,
	}
}

func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write an example configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path of the file to create",
				Value:   "config.toml",
			},
		},
		Action: r.Init,
	}
}

// newService opens the configured cache and wires the now-playing service.
// The returned close function is never nil.
func (r *Runner) newService(ctx context.Context, cfg *config.Config) (*nowplaying.Service, func(), error) {
	if err := cfg.Spotify.Validate(); err != nil {
		return nil, func() {}, err
	}

	store, closeStore, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening cache: %w", err)
	}

	svc, err := nowplaying.NewFromConfig(cfg.Spotify,
		nowplaying.WithStore(store),
		nowplaying.WithLogger(r.logger),
	)
	if err != nil {
		closeStore()
		return nil, func() {}, err
	}

	return svc, closeStore, nil
}

// Serve runs the API server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	svc, closeStore, err := r.newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	r.logger.Info("cache ready", "driver", cfg.Cache.Driver)

	server := api.NewServer(api.Config{
		Addr:           cfg.Server.Addr,
		Path:           cfg.Server.Path,
		APIKey:         cfg.Server.APIKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
	}, svc, r.logger)

	return server.Run(ctx)
}

// Invoke runs the service once and prints what the endpoint would answer.
func (r *Runner) Invoke(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	svc, closeStore, err := r.newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	status := http.StatusOK
	var body any
	res, err := svc.GetNowPlaying(ctx)
	if err != nil {
		status = http.StatusInternalServerError
		body = map[string]string{"error": err.Error()}
	} else {
		body = res.Body()
	}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}

	fmt.Fprintf(r.output, "Status Code: %d\n", status)
	fmt.Fprintf(r.output, "Response: %s\n", data)
	return nil
}

// Site serves the portfolio page until interrupted.
func (r *Runner) Site(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	if cfg.Widget.APIURL == "" || cfg.Widget.APIKey == "" {
		r.logger.Warn("missing PUBLIC_API_URL or PUBLIC_API_KEY", "offline", cfg.Widget.Offline)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Site.Addr,
		Title:       cfg.Site.Title,
		TemplatesFS: templates,
		StaticFS:    static,
		Widget:      widget.NewFromConfig(cfg.Widget, widget.WithLogger(r.logger)),
		Interval:    cfg.Widget.Interval,
		Logger:      r.logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run(ctx)
}

var (
	playingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#65a30d")).Bold(true)
	lastStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a8a29e"))
	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#57534e")).Italic(true)
)

// styleView renders v for the terminal. Hidden states render as "".
func styleView(v widget.View) string {
	text := v.Text()
	switch {
	case text == "":
		return ""
	case v.Loading():
		return loadingStyle.Render(text)
	case v.Track.IsPlaying:
		return playingStyle.Render(text)
	default:
		return lastStyle.Render(text)
	}
}

// Watch mounts the widget and prints each state change until interrupted.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	once := cmd.Bool("once")

	w := widget.NewFromConfig(cfg.Widget,
		widget.WithLogger(r.logger),
		widget.WithOnChange(func(v widget.View) {
			if line := styleView(v); line != "" {
				fmt.Fprintln(r.output, line)
			}
			if once && !v.Loading() {
				cancel()
			}
		}),
	)

	w.Mount(ctx)
	<-ctx.Done()
	w.Unmount()

	return nil
}

// Migrate creates the cache table for the sqlite and postgres drivers.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	switch cfg.Cache.Driver {
	case config.DriverSQLite, config.DriverPostgres:
	default:
		r.logger.Info("nothing to migrate", "driver", cfg.Cache.Driver)
		return nil
	}

	// Opening a SQL store creates its table.
	_, closeStore, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	closeStore()

	r.logger.Info("cache table ready", "driver", cfg.Cache.Driver, "table", cfg.Cache.Table)
	return nil
}

// Init writes the example configuration file.
func (r *Runner) Init(_ context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if err := config.WriteExample(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	return nil
}
