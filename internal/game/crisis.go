package game

import (
	"context"
	"fmt"

	"eclipse/internal/crisis"
	"eclipse/internal/model"
	"eclipse/internal/telemetry"
)

type DecompositionResult struct {
	TaskID   string          `json:"taskId"`
	Subtasks []model.Subtask `json:"subtasks"`
	Spawned  int             `json:"spawned"`
}

// ChooseHubris answers the open crisis by pushing on unaided.
func (e *Engine) ChooseHubris(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var taskID string
	_, err := e.Store.Update(func(st *model.GameState) error {
		id, err := crisis.Hubris(st)
		taskID = id
		return err
	})
	if err != nil {
		return "", fmt.Errorf("choose hubris: %w", err)
	}
	e.record(telemetry.EventCrisisResolved, telemetry.EventMetadata{"task_id": taskID, "choice": "hubris"})
	return taskID, nil
}

// ChooseHumility starts the aeon battle. If no decomposition arrives before
// the window closes the task fails.
func (e *Engine) ChooseHumility(ctx context.Context) (model.CrisisState, error) {
	if err := ctx.Err(); err != nil {
		return model.CrisisState{}, err
	}
	now := e.Clock.Now()
	var cs model.CrisisState
	_, err := e.Store.Update(func(st *model.GameState) error {
		c, err := crisis.Humility(st, now, e.Balance)
		cs = c
		return err
	})
	if err != nil {
		return model.CrisisState{}, fmt.Errorf("choose humility: %w", err)
	}

	taskID := cs.TaskID
	e.mu.Lock()
	if e.aeonTimer != nil {
		e.aeonTimer.Stop()
	}
	e.aeonTask = taskID
	e.aeonTimer = e.Clock.AfterFunc(cs.ExpiresAt.Sub(now), func() { e.expireAeon(taskID) })
	e.mu.Unlock()
	return cs, nil
}

// SubmitDecomposition wins the aeon battle: the steps become subtasks, each
// with its own adversary.
func (e *Engine) SubmitDecomposition(ctx context.Context, steps []string) (DecompositionResult, error) {
	if err := ctx.Err(); err != nil {
		return DecompositionResult{}, err
	}
	now := e.Clock.Now()
	var res DecompositionResult
	_, err := e.Store.Update(func(st *model.GameState) error {
		idx, added, err := crisis.SubmitDecomposition(st, steps, now, e.Balance)
		if err != nil {
			return err
		}
		before := len(st.Enemies)
		e.Spawner.SpawnSubtasks(st, st.Tasks[idx], added, now)
		res = DecompositionResult{TaskID: st.Tasks[idx].ID, Subtasks: added, Spawned: len(st.Enemies) - before}
		return nil
	})
	if err != nil {
		return DecompositionResult{}, fmt.Errorf("submit decomposition: %w", err)
	}
	e.stopAeonFor(res.TaskID)
	e.record(telemetry.EventCrisisResolved, telemetry.EventMetadata{"task_id": res.TaskID, "choice": "humility", "steps": len(res.Subtasks)})
	e.record(telemetry.EventAdversarySpawned, telemetry.EventMetadata{"task_id": res.TaskID, "count": res.Spawned})
	return res, nil
}

// AbandonAeonBattle gives up the decomposition, failing the task.
func (e *Engine) AbandonAeonBattle(ctx context.Context) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}
	now := e.Clock.Now()
	var out model.Task
	st, err := e.Store.Update(func(st *model.GameState) error {
		taskID, err := crisis.Abandon(st)
		if err != nil {
			return err
		}
		idx, err := findTask(st, taskID)
		if err != nil {
			return err
		}
		if !st.Tasks[idx].Terminal() {
			e.failTask(st, idx, now, "abandoned")
		}
		out = st.Tasks[idx]
		return nil
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("abandon aeon battle: %w", err)
	}
	e.stopAeonFor(out.ID)
	e.record(telemetry.EventCrisisResolved, telemetry.EventMetadata{"task_id": out.ID, "choice": "abandoned"})
	e.afterFailure(st, out.ID, out.Title, "abandoned")
	return out, nil
}

func (e *Engine) expireAeon(taskID string) {
	e.mu.Lock()
	if e.aeonTask == taskID {
		e.aeonTimer, e.aeonTask = nil, ""
	}
	e.mu.Unlock()

	now := e.Clock.Now()
	var title string
	st, err := e.Store.Update(func(st *model.GameState) error {
		if !crisis.Expire(st, taskID, now) {
			return errNoop
		}
		idx := st.TaskIndex(taskID)
		if idx < 0 || st.Tasks[idx].Terminal() {
			return nil
		}
		title = st.Tasks[idx].Title
		e.failTask(st, idx, now, "aeon battle lost")
		return nil
	})
	if err != nil {
		return
	}
	e.Log.Info("aeon battle expired", "task_id", taskID)
	e.record(telemetry.EventCrisisResolved, telemetry.EventMetadata{"task_id": taskID, "choice": "expired"})
	if title != "" {
		e.afterFailure(st, taskID, title, "aeon battle lost")
	}
}

func (e *Engine) stopAeonFor(taskID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.aeonTimer != nil && e.aeonTask == taskID {
		e.aeonTimer.Stop()
		e.aeonTimer, e.aeonTask = nil, ""
	}
}
