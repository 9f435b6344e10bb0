package serverapp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"eclipse/internal/building"
	"eclipse/internal/crisis"
	"eclipse/internal/game"
	"eclipse/internal/loot"
	"eclipse/internal/model"
	"eclipse/internal/notify"
	"eclipse/internal/telemetry"
)

type handler struct {
	engine    *game.Engine
	telemetry telemetry.Repository
	recorder  *notify.Recorder
	log       *slog.Logger
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrTaskNotFound),
		errors.Is(err, game.ErrSubtaskNotFound),
		errors.Is(err, game.ErrFactionNotFound),
		errors.Is(err, loot.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidPriority),
		errors.Is(err, game.ErrInvalidParent),
		errors.Is(err, game.ErrEmptyTitle),
		errors.Is(err, game.ErrUnknownAction),
		errors.Is(err, game.ErrSyncNeedsRoom),
		errors.Is(err, crisis.ErrDecompositionTooShort),
		errors.Is(err, loot.ErrUnknownOffer),
		errors.Is(err, building.ErrUnknownStructure):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInsufficient),
		errors.Is(err, game.ErrReputationTooLow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrTaskFailed),
		errors.Is(err, game.ErrTaskCompleted),
		errors.Is(err, game.ErrNotFailed),
		errors.Is(err, game.ErrNightPending),
		errors.Is(err, game.ErrNoAlert),
		errors.Is(err, game.ErrNoVision),
		errors.Is(err, crisis.ErrNoCrisis),
		errors.Is(err, crisis.ErrNoAeonBattle),
		errors.Is(err, crisis.ErrBattleExpired):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	writeErr(w, code, err.Error())
}

func (h *handler) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.State())
}

func (h *handler) tick(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.Tick(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) setEditing(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TaskID string `json:"taskId"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := h.engine.SetEditing(r.Context(), in.TaskID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	var in game.TaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	t, err := h.engine.CreateTask(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *handler) editTask(w http.ResponseWriter, r *http.Request) {
	var patch game.TaskPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	t, err := h.engine.EditTask(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) completeTask(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.CompleteTask(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) failTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.engine.FailTask(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) dismissTask(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DismissFailedTask(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) retryTask(w http.ResponseWriter, r *http.Request) {
	var in struct {
		StartTime time.Time `json:"startTime"`
		Deadline  time.Time `json:"deadline"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	t, err := h.engine.RetryFailedTask(r.Context(), r.PathValue("id"), in.StartTime, in.Deadline)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) addSubtask(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	s, err := h.engine.AddSubtask(r.Context(), r.PathValue("id"), in.Title)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *handler) completeSubtask(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.CompleteSubtask(r.Context(), r.PathValue("id"), r.PathValue("sid"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) hubris(w http.ResponseWriter, r *http.Request) {
	id, err := h.engine.ChooseHubris(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"taskId": id})
}

func (h *handler) humility(w http.ResponseWriter, r *http.Request) {
	cs, err := h.engine.ChooseHumility(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *handler) decomposition(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Steps []string `json:"steps"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	res, err := h.engine.SubmitDecomposition(r.Context(), in.Steps)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) abandon(w http.ResponseWriter, r *http.Request) {
	t, err := h.engine.AbandonAeonBattle(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) announceNight(w http.ResponseWriter, r *http.Request) {
	ev, err := h.engine.Night.Announce(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ev)
}

func (h *handler) cancelNight(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": h.engine.Night.Cancel()})
}

func (h *handler) resolveNight(w http.ResponseWriter, r *http.Request) {
	rep, err := h.engine.Night.Resolve(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *handler) shop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, loot.Shop)
}

func (h *handler) purchase(w http.ResponseWriter, r *http.Request) {
	it, err := h.engine.Purchase(r.Context(), r.PathValue("offer"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *handler) useItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.engine.UseItem(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *handler) upgrade(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.Upgrade(r.Context(), r.PathValue("type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) diplomacy(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.Diplomacy(r.Context(), model.FactionID(r.PathValue("id")), game.DiplomacyAction(r.PathValue("action")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) ackAlert(w http.ResponseWriter, r *http.Request) {
	a, err := h.engine.AcknowledgeAlert(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) dismissVision(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DismissVision(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) settings(w http.ResponseWriter, r *http.Request) {
	var in model.Settings
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	s, err := h.engine.UpdateSettings(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// stats summarizes telemetry over the last ?days= days (default 7).
func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErr(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}
	since := h.engine.Clock.Now().AddDate(0, 0, -days)
	events, err := h.telemetry.GetEvents(since, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := telemetry.CalculateStats(events, since)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) notifications(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		writeJSON(w, http.StatusOK, map[string]any{"notifications": []notify.Notification{}, "cues": []notify.Cue{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": h.recorder.Notifications(),
		"cues":          h.recorder.Cues(),
	})
}
