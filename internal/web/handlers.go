package web

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-now-playing/internal/widget"
)

// Widget is the mounted now-playing widget the site renders.
type Widget interface {
	Mount(ctx context.Context)
	Unmount()
	View() widget.View
}

// Handlers contains HTTP handlers for the site.
type Handlers struct {
	title     string
	interval  time.Duration
	widget    Widget
	templates *Templates
	logger    *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(title string, interval time.Duration, w Widget, templates *Templates, logger *log.Logger) *Handlers {
	return &Handlers{
		title:     title,
		interval:  interval,
		widget:    w,
		templates: templates,
		logger:    logger,
	}
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	np, err := h.nowPlaying()
	if err != nil {
		h.logger.Error("rendering widget", "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	data := PageData{
		Title:       h.title,
		CurrentPath: r.URL.Path,
		NowPlaying:  np,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		h.logger.Error("rendering home", "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

// NowPlaying returns the widget container without the page layout
// (GET /now-playing). The script swaps it in place of #now-playing.
func (h *Handlers) NowPlaying(w http.ResponseWriter, _ *http.Request) {
	np, err := h.nowPlaying()
	if err != nil {
		h.logger.Error("rendering widget", "err", err)
		http.Error(w, "Failed to render widget", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.templates.RenderPartial(w, "now_playing", np); err != nil {
		h.logger.Error("rendering now_playing", "err", err)
		http.Error(w, "Failed to render widget", http.StatusInternalServerError)
	}
}

func (h *Handlers) nowPlaying() (NowPlayingData, error) {
	fragment, err := h.widget.View().HTML()
	if err != nil {
		return NowPlayingData{}, err
	}
	return NowPlayingData{
		Fragment:       fragment,
		IntervalMillis: h.interval.Milliseconds(),
	}, nil
}
