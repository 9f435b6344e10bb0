package serverapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"eclipse/internal/game"
	"eclipse/internal/httpmw"
	"eclipse/internal/notify"
	"eclipse/internal/telemetry"
)

type Options struct {
	Engine    *game.Engine
	Telemetry telemetry.Repository
	// Recorder, when set, backs GET /api/notifications.
	Recorder *notify.Recorder
	// Relay, when set, is mounted at /relay for cloud sync peers.
	Relay http.Handler
	// Ready reports whether storage is reachable.
	Ready  func(ctx context.Context) error
	Logger *slog.Logger
}

func NewHandler(opts Options) (http.Handler, error) {
	if opts.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if opts.Telemetry == nil {
		opts.Telemetry = opts.Engine.Telemetry
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &handler{
		engine:    opts.Engine,
		telemetry: opts.Telemetry,
		recorder:  opts.Recorder,
		log:       opts.Logger,
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "eclipse",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{
					"ok":    false,
					"error": "storage unavailable",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "eclipse",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /api/state", h.state)
	mux.HandleFunc("POST /api/tick", h.tick)
	mux.HandleFunc("PUT /api/editing", h.setEditing)

	mux.HandleFunc("POST /api/tasks", h.createTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.editTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.deleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/complete", h.completeTask)
	mux.HandleFunc("POST /api/tasks/{id}/fail", h.failTask)
	mux.HandleFunc("POST /api/tasks/{id}/dismiss", h.dismissTask)
	mux.HandleFunc("POST /api/tasks/{id}/retry", h.retryTask)
	mux.HandleFunc("POST /api/tasks/{id}/subtasks", h.addSubtask)
	mux.HandleFunc("POST /api/tasks/{id}/subtasks/{sid}/complete", h.completeSubtask)

	mux.HandleFunc("POST /api/crisis/hubris", h.hubris)
	mux.HandleFunc("POST /api/crisis/humility", h.humility)
	mux.HandleFunc("POST /api/crisis/decomposition", h.decomposition)
	mux.HandleFunc("POST /api/crisis/abandon", h.abandon)

	mux.HandleFunc("POST /api/night", h.announceNight)
	mux.HandleFunc("DELETE /api/night", h.cancelNight)
	mux.HandleFunc("POST /api/night/resolve", h.resolveNight)

	mux.HandleFunc("GET /api/shop", h.shop)
	mux.HandleFunc("POST /api/shop/{offer}", h.purchase)
	mux.HandleFunc("POST /api/items/{id}/use", h.useItem)
	mux.HandleFunc("POST /api/structures/{type}/upgrade", h.upgrade)
	mux.HandleFunc("POST /api/factions/{id}/{action}", h.diplomacy)

	mux.HandleFunc("POST /api/alert/ack", h.ackAlert)
	mux.HandleFunc("DELETE /api/vision", h.dismissVision)
	mux.HandleFunc("PUT /api/settings", h.settings)

	mux.HandleFunc("GET /api/stats", h.stats)
	mux.HandleFunc("GET /api/notifications", h.notifications)

	if opts.Relay != nil {
		mux.Handle("GET /relay", opts.Relay)
	}

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// decodeJSON reads an optional body; an empty body leaves out untouched.
func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
