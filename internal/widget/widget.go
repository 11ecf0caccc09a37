// Package widget implements the now-playing widget: a polling state machine
// that fetches the proxy endpoint on a fixed interval and renders the result
// as an HTML fragment or a terminal line.
package widget

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/justestif/go-now-playing/internal/config"
	"github.com/justestif/go-now-playing/internal/track"
)

// DefaultInterval is the polling period.
const DefaultInterval = 30 * time.Second

// State is the widget's display state.
type State int

const (
	// StateLoading is the initial state, before the first fetch resolves.
	StateLoading State = iota
	// StateError means the last fetch failed or no endpoint is configured.
	StateError
	// StateReady holds the last fetched track, which may be nil.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// View is a snapshot of the widget.
type View struct {
	State State
	Track *track.Track
}

// Loading reports whether the first fetch is still pending.
func (v View) Loading() bool {
	return v.State == StateLoading
}

// Visible reports whether a track should be shown.
func (v View) Visible() bool {
	return v.State == StateReady && v.Track != nil && v.Track.Renderable()
}

// Prefix is the lead-in text for a visible track.
func (v View) Prefix() string {
	if v.Track != nil && v.Track.IsPlaying {
		return "Currently listening to: "
	}
	return "Last listened to: "
}

// Fetcher loads the current track. A nil track with a nil error means there
// is nothing to show.
type Fetcher interface {
	Fetch(ctx context.Context) (*track.Track, error)
}

// Widget polls a Fetcher while mounted.
type Widget struct {
	fetcher  Fetcher
	clock    clockwork.Clock
	interval time.Duration
	logger   *log.Logger
	onChange func(View)

	mu      sync.RWMutex
	view    View
	mounted bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Widget.
type Option func(*Widget)

// WithClock sets the clock driving the poll timer.
func WithClock(clock clockwork.Clock) Option {
	return func(w *Widget) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithInterval sets the polling period.
func WithInterval(d time.Duration) Option {
	return func(w *Widget) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(w *Widget) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOnChange registers a callback invoked after every state change.
// It runs on the poll goroutine and must not call Unmount.
func WithOnChange(fn func(View)) Option {
	return func(w *Widget) {
		w.onChange = fn
	}
}

// New creates an unmounted widget in the loading state.
func New(fetcher Fetcher, opts ...Option) *Widget {
	w := &Widget{
		fetcher:  fetcher,
		clock:    clockwork.NewRealClock(),
		interval: DefaultInterval,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewFromConfig picks the fetcher from cfg. Without both an endpoint URL and
// an API key no request is ever made: the offline policy decides between the
// sample track and the error state.
func NewFromConfig(cfg config.WidgetConfig, opts ...Option) *Widget {
	var fetcher Fetcher
	switch {
	case cfg.APIURL != "" && cfg.APIKey != "":
		fetcher = NewHTTPFetcher(cfg.APIURL, cfg.APIKey, cfg.Timeout)
	case cfg.Offline == config.OfflineHidden:
		fetcher = Unconfigured{}
	default:
		fetcher = Sample{}
	}

	return New(fetcher, append([]Option{WithInterval(cfg.Interval)}, opts...)...)
}

// View returns the current snapshot.
func (w *Widget) View() View {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.view
}

// Mount resets the widget to loading and starts polling: one fetch
// immediately, then one per interval until Unmount or ctx is cancelled.
// If ctx ends before the first fetch resolves the widget moves to the error
// state. Mounting a mounted widget does nothing.
func (w *Widget) Mount(ctx context.Context) {
	w.mu.Lock()
	if w.mounted {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.mounted = true
	w.cancel = cancel
	w.done = done
	w.view = View{State: StateLoading}
	w.mu.Unlock()

	w.notify(View{State: StateLoading})

	go w.poll(ctx, done)
}

// Unmount stops polling and waits for the poll goroutine to exit. Results
// that resolve after Unmount are discarded.
func (w *Widget) Unmount() {
	w.mu.Lock()
	if !w.mounted {
		w.mu.Unlock()
		return
	}
	w.mounted = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
}

func (w *Widget) poll(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer w.settle()

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			w.refresh(ctx)
		}
	}
}

// settle moves a widget still mounted and loading to the error state once
// polling stops without Unmount, as when the parent context is cancelled.
func (w *Widget) settle() {
	w.mu.Lock()
	if !w.mounted || w.view.State != StateLoading {
		w.mu.Unlock()
		return
	}
	w.view = View{State: StateError}
	w.mu.Unlock()

	w.notify(View{State: StateError})
}

// refresh runs one fetch and applies its outcome.
func (w *Widget) refresh(ctx context.Context) {
	w.logger.Debug("fetching currently playing track")

	t, err := w.fetcher.Fetch(ctx)
	if ctx.Err() != nil {
		return
	}

	v := View{State: StateReady, Track: t}
	switch {
	case err != nil:
		w.logger.Warn("could not load track", "err", err)
		v = View{State: StateError}
	case t != nil && !t.Renderable():
		w.logger.Debug("not showing non-track type", "type", t.Type)
		v.Track = nil
	}

	w.mu.Lock()
	if !w.mounted {
		w.mu.Unlock()
		return
	}
	w.view = v
	w.mu.Unlock()

	w.notify(v)
}

func (w *Widget) notify(v View) {
	if w.onChange != nil {
		w.onChange(v)
	}
}
