// Package admin exposes the read-only HTTP inspection surface: health,
// current display state, counters, and render metrics.
package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"watchface/config"
	"watchface/face"
	"watchface/ui"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// stateResponse is the wire form of a display snapshot.
type stateResponse struct {
	Elapsed       string `json:"elapsed"`
	InstantMillis int64  `json:"instant_ms"`
	Instant       string `json:"instant"`
	Mode          string `json:"mode"`
	Draws         uint64 `json:"draws"`
}

type countersResponse struct {
	Draws          uint64 `json:"draws"`
	TickDraws      uint64 `json:"tick_draws"`
	AmbientDraws   uint64 `json:"ambient_draws"`
	Wakes          uint64 `json:"wakes"`
	Sleeps         uint64 `json:"sleeps"`
	TicksIgnored   uint64 `json:"ticks_ignored"`
	AmbientIgnored uint64 `json:"ambient_ignored"`
}

// metricsResponse carries the render-latency snapshot plus event totals.
// Latency fields are zero when the dashboard is disabled.
type metricsResponse struct {
	RenderP50Millis float64 `json:"render_p50_ms"`
	RenderP99Millis float64 `json:"render_p99_ms"`
	RenderSamples   int     `json:"render_samples"`
	FramesDrawn     uint64  `json:"frames_drawn"`
	FramesCoalesced uint64  `json:"frames_coalesced"`
	Draws           uint64  `json:"draws"`
	TicksIgnored    uint64  `json:"ticks_ignored"`
	AmbientIgnored  uint64  `json:"ambient_ignored"`
}

// Server serves the admin endpoints.
type Server struct {
	bind    string
	port    int
	ctrl    *face.Controller
	metrics *ui.Metrics
	srv     *http.Server
}

// NewServer builds the admin server; it does not listen until Start.
func NewServer(cfg config.AdminConfig, ctrl *face.Controller, metrics *ui.Metrics) *Server {
	return &Server{
		bind:    cfg.BindAddress,
		port:    cfg.HTTPPort,
		ctrl:    ctrl,
		metrics: metrics,
	}
}

// Handler returns the route tree (exposed for tests).
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/api/state", s.handleState)
	r.Get("/api/counters", s.handleCounters)
	r.Get("/api/metrics", s.handleMetrics)
	return r
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	if s == nil || s.port <= 0 {
		return
	}
	addr := fmt.Sprintf("%s:%d", s.bind, s.port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("Admin: listening on http://%s", addr)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Admin: server error: %v", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) {
	if s == nil || s.srv == nil {
		return
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("Admin: shutdown error: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	st := s.ctrl.Snapshot()
	writeJSON(w, stateResponse{
		Elapsed:       st.Elapsed,
		InstantMillis: st.Instant.UnixMilli(),
		Instant:       st.Instant.UTC().Format(time.RFC3339Nano),
		Mode:          st.Mode.String(),
		Draws:         st.Draws,
	})
}

func (s *Server) handleCounters(w http.ResponseWriter, _ *http.Request) {
	c := s.ctrl.CounterSnapshot()
	writeJSON(w, countersResponse{
		Draws:          c.Draws,
		TickDraws:      c.TickDraws,
		AmbientDraws:   c.AmbientDraws,
		Wakes:          c.Wakes,
		Sleeps:         c.Sleeps,
		TicksIgnored:   c.TicksIgnored,
		AmbientIgnored: c.AmbientIgnored,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	snap := s.metrics.RenderSnapshot()
	c := s.ctrl.CounterSnapshot()
	writeJSON(w, metricsResponse{
		RenderP50Millis: float64(snap.P50) / float64(time.Millisecond),
		RenderP99Millis: float64(snap.P99) / float64(time.Millisecond),
		RenderSamples:   snap.N,
		FramesDrawn:     s.metrics.FramesDrawn(),
		FramesCoalesced: s.metrics.FramesCoalesced(),
		Draws:           c.Draws,
		TicksIgnored:    c.TicksIgnored,
		AmbientIgnored:  c.AmbientIgnored,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Admin: encode response: %v", err)
	}
}
