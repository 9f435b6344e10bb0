// Package crisis implements the deadline-pressure state machine:
// NONE -> CRISIS -> {HUBRIS, AEON_BATTLE} -> NONE.
package crisis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"eclipse/internal/config"
	"eclipse/internal/model"
)

var (
	ErrNoCrisis              = errors.New("no crisis awaiting a decision")
	ErrNoAeonBattle          = errors.New("no aeon battle in progress")
	ErrDecompositionTooShort = errors.New("decomposition needs more meaningful steps")
	ErrBattleExpired         = errors.New("aeon battle has expired")
)

// Trigger records one task crossing the threshold during a scan.
type Trigger struct {
	TaskID  string
	Title   string
	Alerted bool
}

// Scan marks every live task whose progress first reaches the threshold.
// Only the first crossing while the machine is idle raises the alert.
func Scan(st *model.GameState, now time.Time, b config.Balance) []Trigger {
	var out []Trigger
	for i := range st.Tasks {
		t := &st.Tasks[i]
		if t.Terminal() || t.CrisisTriggered || t.Progress(now) < b.CrisisThreshold {
			continue
		}
		t.CrisisTriggered = true
		tr := Trigger{TaskID: t.ID, Title: t.Title}
		if !st.Crisis.Active() {
			st.Crisis = model.CrisisState{Phase: model.CrisisActive, TaskID: t.ID, StartedAt: now}
			st.RaiseAlert(model.Alert{
				Kind:      model.AlertCrisis,
				Title:     "Crisis: " + t.Title,
				Message:   fmt.Sprintf("%q is %d%% through its window. Push on alone, or break it down?", t.Title, int(b.CrisisThreshold*100)),
				TaskID:    t.ID,
				CreatedAt: now,
			})
			tr.Alerted = true
		}
		st.Log(now, model.HistoryCrisis, fmt.Sprintf("The deadline of %q looms.", t.Title), t.ID)
		out = append(out, tr)
	}
	return out
}

// Hubris acknowledges the crisis without changing the task's structure.
func Hubris(st *model.GameState) (string, error) {
	if st.Crisis.Phase != model.CrisisActive {
		return "", ErrNoCrisis
	}
	taskID := st.Crisis.TaskID
	if i := st.TaskIndex(taskID); i >= 0 {
		st.Tasks[i].Hubris = true
	}
	clearCrisisAlert(st, taskID)
	st.Crisis = model.CrisisState{Phase: model.CrisisNone}
	return taskID, nil
}

// Humility starts the timed decomposition challenge.
func Humility(st *model.GameState, now time.Time, b config.Balance) (model.CrisisState, error) {
	if st.Crisis.Phase != model.CrisisActive {
		return model.CrisisState{}, ErrNoCrisis
	}
	clearCrisisAlert(st, st.Crisis.TaskID)
	st.Crisis = model.CrisisState{
		Phase:     model.CrisisAeonBattle,
		TaskID:    st.Crisis.TaskID,
		StartedAt: now,
		ExpiresAt: now.Add(b.AeonBattleWindow),
	}
	return st.Crisis, nil
}

// Steps trims the submitted steps and keeps the meaningful ones.
func Steps(raw []string, b config.Balance) ([]string, error) {
	var steps []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if len([]rune(s)) > b.AeonMinStepLen {
			steps = append(steps, s)
		}
	}
	if len(steps) < b.AeonMinSteps {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrDecompositionTooShort, len(steps), b.AeonMinSteps)
	}
	return steps, nil
}

// SubmitDecomposition wins the aeon battle: the steps become new subtasks of
// the crisis task. The caller spawns their adversaries.
func SubmitDecomposition(st *model.GameState, raw []string, now time.Time, b config.Balance) (int, []model.Subtask, error) {
	if st.Crisis.Phase != model.CrisisAeonBattle {
		return -1, nil, ErrNoAeonBattle
	}
	if now.After(st.Crisis.ExpiresAt) {
		return -1, nil, ErrBattleExpired
	}
	steps, err := Steps(raw, b)
	if err != nil {
		return -1, nil, err
	}
	idx := st.TaskIndex(st.Crisis.TaskID)
	st.Crisis = model.CrisisState{Phase: model.CrisisNone}
	if idx < 0 {
		return -1, nil, fmt.Errorf("crisis task vanished")
	}
	added := make([]model.Subtask, 0, len(steps))
	for _, s := range steps {
		added = append(added, model.Subtask{ID: uuid.NewString(), Title: s})
	}
	st.Tasks[idx].Subtasks = append(st.Tasks[idx].Subtasks, added...)
	return idx, added, nil
}

// Abandon ends the aeon battle as a loss and returns the task to fail.
func Abandon(st *model.GameState) (string, error) {
	if st.Crisis.Phase != model.CrisisAeonBattle {
		return "", ErrNoAeonBattle
	}
	taskID := st.Crisis.TaskID
	st.Crisis = model.CrisisState{Phase: model.CrisisNone}
	return taskID, nil
}

// Expire ends the aeon battle for taskID once its window has passed. It
// reports whether the task should now fail.
func Expire(st *model.GameState, taskID string, now time.Time) bool {
	c := st.Crisis
	if c.Phase != model.CrisisAeonBattle || c.TaskID != taskID || now.Before(c.ExpiresAt) {
		return false
	}
	st.Crisis = model.CrisisState{Phase: model.CrisisNone}
	return true
}

// Release drops any crisis state tied to taskID, used when the task ends
// through another path.
func Release(st *model.GameState, taskID string) {
	if st.Crisis.Active() && st.Crisis.TaskID == taskID {
		clearCrisisAlert(st, taskID)
		st.Crisis = model.CrisisState{Phase: model.CrisisNone}
	}
}

func clearCrisisAlert(st *model.GameState, taskID string) {
	if st.Alert != nil && st.Alert.Kind == model.AlertCrisis && st.Alert.TaskID == taskID {
		st.AckAlert()
		return
	}
	kept := st.PendingAlerts[:0]
	for _, a := range st.PendingAlerts {
		if a.Kind == model.AlertCrisis && a.TaskID == taskID {
			continue
		}
		kept = append(kept, a)
	}
	st.PendingAlerts = kept
}
