package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"train-tracker/internal/fleet"
	"train-tracker/internal/geo"
	"train-tracker/internal/order"
	"train-tracker/internal/rail"
	"train-tracker/internal/tracking"
)

// Tracker is the part of tracking.Manager the handlers use.
type Tracker interface {
	Current() (tracking.TripSnapshot, error)
	CurrentOrder() (order.Order, bool)
	Restart(ctx context.Context) error
	FleetSnapshots() []fleet.Snapshot
	View() geo.Viewport
	CenterAll() geo.Viewport
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	tracker Tracker
	fleet   *fleet.Simulator
	db      Pinger
	metrics http.Handler
}

// NewHandler creates the HTTP handler. db and metrics may be nil.
func NewHandler(t Tracker, sim *fleet.Simulator, db Pinger, metrics http.Handler) *Handler {
	return &Handler{tracker: t, fleet: sim, db: db, metrics: metrics}
}

// Router builds the chi router with CORS for the given origins.
func (h *Handler) Router(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/trip", h.GetTrip)
		r.Post("/trip/restart", h.RestartTrip)
		r.Get("/fleet", h.GetFleet)
		r.Get("/fleet/{id}", h.GetTrain)
		r.Post("/follow/{id}", h.Follow)
		r.Post("/follow/{id}/toggle", h.ToggleFollow)
		r.Delete("/follow", h.Unfollow)
		r.Get("/view", h.GetView)
		r.Post("/view/center-all", h.CenterAll)
	})
	return r
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

type FleetResponse struct {
	Trains   []fleet.Snapshot `json:"trains"`
	Count    int              `json:"count"`
	Summary  fleet.Summary    `json:"summary"`
	PolledAt time.Time        `json:"polledAt"`
}

type TrainResponse struct {
	Train fleet.Snapshot     `json:"train"`
	Marks []rail.StationMark `json:"marks"`
}

type FollowResponse struct {
	Following string `json:"following"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status["status"] = "error"
			status["database"] = "disconnected"
			status["error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "connected"
	}
	writeJSON(w, http.StatusOK, status)
}

// GetTrip handles GET /api/trip. Without a booking it answers 404 with the
// empty state the view shows.
func (h *Handler) GetTrip(w http.ResponseWriter, r *http.Request) {
	snap, err := h.tracker.Current()
	if errors.Is(err, tracking.ErrNoActiveTrip) {
		writeJSON(w, http.StatusNotFound, tracking.NoActiveTrip)
		return
	}
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) RestartTrip(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.Restart(r.Context()); err != nil {
		writeError(w, "Failed to restart tracking", http.StatusInternalServerError)
		log.Printf("restart tracking: %v", err)
		return
	}
	h.GetTrip(w, r)
}

// GetFleet handles GET /api/fleet?q=&status=&route=. The summary always
// covers the whole roster.
func (h *Handler) GetFleet(w http.ResponseWriter, r *http.Request) {
	q := fleet.Query{
		Search: r.URL.Query().Get("q"),
		Status: r.URL.Query().Get("status"),
		Route:  r.URL.Query().Get("route"),
	}
	all := h.fleet.Trains()
	keep := make(map[string]bool)
	for _, t := range fleet.Filter(all, q) {
		keep[t.ID] = true
	}
	snaps := make([]fleet.Snapshot, 0, len(keep))
	for _, s := range h.tracker.FleetSnapshots() {
		if keep[s.ID] {
			snaps = append(snaps, s)
		}
	}
	writeJSON(w, http.StatusOK, FleetResponse{
		Trains:   snaps,
		Count:    len(snaps),
		Summary:  fleet.Summarize(all),
		PolledAt: time.Now().UTC(),
	})
}

func (h *Handler) GetTrain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, ok := h.fleet.Train(id)
	if !ok {
		writeError(w, "Train not found", http.StatusNotFound)
		return
	}
	var snap fleet.Snapshot
	for _, s := range h.tracker.FleetSnapshots() {
		if s.ID == id {
			snap = s
		}
	}
	writeJSON(w, http.StatusOK, TrainResponse{Train: snap, Marks: t.Marks()})
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.fleet.Follow(id) {
		writeError(w, "Nothing to follow with id "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, FollowResponse{Following: h.fleet.Following()})
}

func (h *Handler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, known := h.fleet.Train(id); !known && !h.isTrip(id) {
		writeError(w, "Nothing to follow with id "+id, http.StatusNotFound)
		return
	}
	h.fleet.Toggle(id)
	writeJSON(w, http.StatusOK, FollowResponse{Following: h.fleet.Following()})
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.fleet.Unfollow()
	writeJSON(w, http.StatusOK, FollowResponse{})
}

func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.View())
}

func (h *Handler) CenterAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.CenterAll())
}

func (h *Handler) isTrip(id string) bool {
	o, ok := h.tracker.CurrentOrder()
	return ok && o.ID == id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
