// Package server exposes the engine over HTTP for headless use.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/mo"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/engine"
	"github.com/seamui/seamui/log"
	"github.com/seamui/seamui/metrics"
)

const shutdownTimeout = 10 * time.Second

// Sender queues engine commands.
type Sender interface {
	Send(cmd engine.Command) bool
}

// State is the read side of the anchor store.
type State interface {
	SnapshotLive() []anchor.Info
	SnapshotConfigured() []anchor.Info
	Get(key anchor.Key) mo.Option[anchor.Info]
	Counts() (configured, live int)
}

// Handler serves the HTTP API.
type Handler struct {
	engine  Sender
	state   State
	metrics *metrics.Metrics
}

// NewHandler returns a Handler. Metrics may be nil.
func NewHandler(engine Sender, state State, m *metrics.Metrics) *Handler {
	return &Handler{engine: engine, state: state, metrics: m}
}

// Router mounts every route, /metrics included when metrics are enabled.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	r.Use(metrics.RequestMiddleware(h.metrics))

	r.Get("/healthz", h.Health)
	if h.metrics != nil {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			h.metrics.Handler(func() { h.metrics.SetAnchors(h.state.Counts()) }).ServeHTTP(w, r)
		})
	}

	r.Post("/refresh", h.Refresh)
	r.Route("/anchors", func(r chi.Router) {
		r.Get("/", h.ListConfigured)
		r.Post("/", h.Follow)
		r.Get("/live", h.ListLive)
		r.Route("/{platform}/{room}", func(r chi.Router) {
			r.Delete("/", h.Unfollow)
			r.Post("/play", h.Play)
		})
	})

	return r
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// ListLive handles GET /anchors/live.
func (h *Handler) ListLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.state.SnapshotLive())
}

// ListConfigured handles GET /anchors.
func (h *Handler) ListConfigured(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.state.SnapshotConfigured())
}

type followRequest struct {
	Platform string `json:"platform"`
	RoomID   string `json:"room_id"`
}

// Follow handles POST /anchors with {"platform": "huya", "room_id": "123"}.
// The lookup runs asynchronously, so success is 202.
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	platform, err := anchor.ParsePlatform(req.Platform)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	key, err := anchor.NewKey(platform, req.RoomID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	h.send(w, engine.Follow{Platform: key.Platform, RoomID: key.RoomID})
}

// Unfollow handles DELETE /anchors/{platform}/{room}.
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}
	h.send(w, engine.Remove{Key: key})
}

// Play handles POST /anchors/{platform}/{room}/play.
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}

	info, found := h.state.Get(key).Get()
	if !found {
		writeError(w, http.StatusNotFound, errors.New("anchor is not followed"))
		return
	}
	if !info.Status.IsLive() {
		writeError(w, http.StatusConflict, errors.New("anchor is not live"))
		return
	}

	h.send(w, engine.Play{Sources: info.Status.URLs()})
}

// Refresh handles POST /refresh.
func (h *Handler) Refresh(w http.ResponseWriter, _ *http.Request) {
	h.send(w, engine.Refresh{})
}

func (h *Handler) send(w http.ResponseWriter, cmd engine.Command) {
	if !h.engine.Send(cmd) {
		writeError(w, http.StatusServiceUnavailable, errors.New("engine stopped"))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func keyParam(w http.ResponseWriter, r *http.Request) (anchor.Key, bool) {
	platform, err := anchor.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return anchor.Key{}, false
	}

	key, err := anchor.NewKey(platform, chi.URLParam(r, "room"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return anchor.Key{}, false
	}

	return key, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// ListenAndServe serves h on addr until ctx is cancelled, then drains
// connections for up to 10 seconds.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
