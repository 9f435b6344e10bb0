package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"eclipse/internal/adversary"
	"eclipse/internal/config"
	"eclipse/internal/crisis"
	"eclipse/internal/loot"
	"eclipse/internal/model"
	"eclipse/internal/notify"
	"eclipse/internal/npc"
	"eclipse/internal/telemetry"
	"eclipse/internal/world"
)

type TaskInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	StartTime   time.Time      `json:"startTime"`
	Deadline    time.Time      `json:"deadline"`
	Priority    model.Priority `json:"priority"`
	ParentID    string         `json:"parentId"`
	Subtasks    []string       `json:"subtasks"`
}

// TaskPatch changes only the fields that are set.
type TaskPatch struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	StartTime   *time.Time      `json:"startTime,omitempty"`
	Deadline    *time.Time      `json:"deadline,omitempty"`
	Priority    *model.Priority `json:"priority,omitempty"`
	ParentID    *string         `json:"parentId,omitempty"`
}

type CompletionResult struct {
	TaskID           string           `json:"taskId"`
	AlreadyCompleted bool             `json:"alreadyCompleted"`
	XP               int              `json:"xp"`
	Gold             int              `json:"gold"`
	Slain            int              `json:"slain"`
	Loot             *model.Item      `json:"loot,omitempty"`
	Minion           *model.Minion    `json:"minion,omitempty"`
	LevelsGained     int              `json:"levelsGained"`
	Tick             world.TickResult `json:"tick"`
}

type SubtaskResult struct {
	TaskID           string `json:"taskId"`
	SubtaskID        string `json:"subtaskId"`
	AlreadyCompleted bool   `json:"alreadyCompleted"`
	XP               int    `json:"xp"`
	Gold             int    `json:"gold"`
	LevelsGained     int    `json:"levelsGained"`
}

// Foresight is the reward multiplier for scheduling start well ahead of now.
func Foresight(now, start time.Time, b config.Balance) float64 {
	days := start.Sub(now).Hours() / 24
	switch {
	case days >= float64(b.ForesightDaysHigh):
		return 0.5
	case days >= float64(b.ForesightDaysMedium):
		return 0.25
	case days >= float64(b.ForesightDaysLow):
		return 0.1
	default:
		return 0
	}
}

// Rewards is the xp and gold for completing a task.
func Rewards(t model.Task, b config.Balance) (xp, gold int) {
	mult := 1 + t.ForesightBonus
	xp = int(math.Floor(float64(b.XPPerPriority*int(t.Priority)) * mult))
	gold = int(math.Floor(float64(b.GoldPerPriority*int(t.Priority)) * mult))
	return xp, gold
}

func priorityOrDefault(p model.Priority) (model.Priority, error) {
	if p == 0 {
		return model.PriorityMedium, nil
	}
	if !p.Valid() {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidPriority, p)
	}
	return p, nil
}

func findTask(st *model.GameState, id string) (int, error) {
	idx := st.TaskIndex(id)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return idx, nil
}

// live rejects tasks that can no longer change.
func live(t model.Task) error {
	switch {
	case t.Completed:
		return fmt.Errorf("%w: %s", ErrTaskCompleted, t.ID)
	case t.Failed:
		return fmt.Errorf("%w: %s", ErrTaskFailed, t.ID)
	}
	return nil
}

func newSubtasks(titles []string) []model.Subtask {
	var out []model.Subtask
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		out = append(out, model.Subtask{ID: uuid.NewString(), Title: title})
	}
	return out
}

// CreateTask adds a task and spawns its adversaries. A missing start means
// now; a deadline not after the start is corrected.
func (e *Engine) CreateTask(ctx context.Context, in TaskInput) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	p, err := priorityOrDefault(in.Priority)
	if err != nil {
		return model.Task{}, err
	}

	now := e.Clock.Now()
	start := in.StartTime
	if start.IsZero() {
		start = now
	}
	t := model.Task{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    in.Description,
		StartTime:      start,
		Deadline:       model.CorrectWindow(start, in.Deadline, e.Balance.DeadlineFallback),
		Priority:       p,
		ParentID:       in.ParentID,
		Subtasks:       newSubtasks(in.Subtasks),
		ForesightBonus: Foresight(now, start, e.Balance),
		CreatedAt:      now,
	}

	spawned := 0
	_, err = e.Store.Update(func(st *model.GameState) error {
		before := len(st.Enemies)
		st.Tasks = append(st.Tasks, t)
		e.Spawner.SpawnTask(st, t, now)
		spawned = len(st.Enemies) - before
		return nil
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}

	e.record(telemetry.EventTaskCreated, telemetry.EventMetadata{"task_id": t.ID, "priority": int(t.Priority), "foresight": t.ForesightBonus})
	e.record(telemetry.EventAdversarySpawned, telemetry.EventMetadata{"task_id": t.ID, "count": spawned})
	e.Log.Debug("task created", "task_id", t.ID, "priority", t.Priority.String(), "adversaries", spawned)
	return t, nil
}

// CompleteTask slays the task's adversaries, pays out and runs one world
// tick with the VICTORY trigger. Completing twice changes nothing.
func (e *Engine) CompleteTask(ctx context.Context, id string) (CompletionResult, error) {
	if err := ctx.Err(); err != nil {
		return CompletionResult{}, err
	}
	now := e.Clock.Now()
	b := e.Balance
	res := CompletionResult{TaskID: id}
	var title string

	st, err := e.Store.Update(func(st *model.GameState) error {
		idx, err := findTask(st, id)
		if err != nil {
			return err
		}
		t := &st.Tasks[idx]
		if t.Completed {
			res.AlreadyCompleted = true
			return errNoop
		}
		if t.Failed {
			return fmt.Errorf("%w: %s", ErrTaskFailed, id)
		}
		t.Completed = true
		title = t.Title
		task := *t

		removed := adversary.RemoveForTask(st, id)
		res.Slain = len(removed)
		var primary *model.Enemy
		for i := range removed {
			if removed[i].SubtaskID == "" {
				primary = &removed[i]
				break
			}
		}

		res.XP, res.Gold = Rewards(task, b)
		st.AddGold(res.Gold)
		if it, ok := loot.Roll(e.Content, e.Dice, st.Level, b); ok {
			st.Inventory = append(st.Inventory, it)
			res.Loot = &it
		}

		race := model.RaceUndead
		if primary != nil {
			race = primary.Race
			st.Graveyard.Push(model.GraveyardEntry{
				EnemyID:    primary.ID,
				Name:       primary.Name,
				Lineage:    primary.Lineage,
				Race:       primary.Race,
				FactionID:  primary.FactionID,
				Rank:       primary.Rank,
				TaskID:     id,
				DefeatedAt: now,
			})
		}
		m := model.Minion{ID: uuid.NewString(), Name: e.Content.MinionName(race), Race: race, FromTaskID: id, RaisedAt: now}
		st.Minions.Push(m)
		res.Minion = &m

		st.ApplyRealm(b.Realm.Victory)
		st.WinStreak++
		st.LossStreak = 0
		st.AddMana(b.VictoryManaReward)
		crisis.Release(st, id)

		msg := fmt.Sprintf("%q is done. %d foes fall.", task.Title, res.Slain)
		if primary != nil {
			msg = fmt.Sprintf("%q is done. %s %s falls.", task.Title, primary.Name, primary.Title)
		}
		st.Log(now, model.HistoryVictory, msg, id)
		res.LevelsGained = st.GainXP(res.XP, now, b)
		levelUp(st, res.LevelsGained, now)
		npc.Witness(st, now, msg, b)
		st.PushEffect("victory", now)

		res.Tick = e.World.Step(st, now, world.TriggerVictory)
		return nil
	})
	if errors.Is(err, errNoop) {
		return res, nil
	}
	if err != nil {
		return CompletionResult{}, fmt.Errorf("complete task: %w", err)
	}

	e.stopAeonFor(id)
	e.notify(st.Settings, "Victory", fmt.Sprintf("%q completed: +%d xp, +%d gold.", title, res.XP, res.Gold))
	e.play(st.Settings, notify.CueVictory)
	e.record(telemetry.EventTaskCompleted, telemetry.EventMetadata{"task_id": id, "xp": res.XP, "gold": res.Gold})
	e.record(telemetry.EventAdversarySlain, telemetry.EventMetadata{"task_id": id, "count": res.Slain})
	if res.Loot != nil {
		e.record(telemetry.EventLootCollected, telemetry.EventMetadata{"kind": string(res.Loot.Kind), "rarity": res.Loot.Rarity})
	}
	if res.LevelsGained > 0 {
		e.record(telemetry.EventLevelUp, telemetry.EventMetadata{"level": st.Level})
	}
	e.afterTick(res.Tick, st)
	return res, nil
}

// failTask applies the failure penalties. Adversaries stay until the task
// is dismissed or retried.
func (e *Engine) failTask(st *model.GameState, idx int, now time.Time, cause string) {
	b := e.Balance
	t := &st.Tasks[idx]
	t.Failed = true
	st.DamageHero(b.FailureHeroDamage)
	st.WinStreak = 0
	st.LossStreak++
	st.ApplyRealm(b.Realm.Neglect)
	crisis.Release(st, t.ID)
	st.Log(now, model.HistoryNeglect, fmt.Sprintf("%q was abandoned to the dark.", t.Title), cause)
	st.PushEffect("defeat", now)
}

func (e *Engine) afterFailure(st model.GameState, taskID, title, cause string) {
	e.notify(st.Settings, "Defeat", fmt.Sprintf("%q has failed.", title))
	e.play(st.Settings, notify.CueDefeat)
	e.record(telemetry.EventTaskFailed, telemetry.EventMetadata{"task_id": taskID, "cause": cause})
}

// FailTask marks a task as failed.
func (e *Engine) FailTask(ctx context.Context, id string) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}
	now := e.Clock.Now()
	var out model.Task
	st, err := e.Store.Update(func(st *model.GameState) error {
		idx, err := findTask(st, id)
		if err != nil {
			return err
		}
		if err := live(st.Tasks[idx]); err != nil {
			return err
		}
		e.failTask(st, idx, now, "manual")
		out = st.Tasks[idx]
		return nil
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("fail task: %w", err)
	}
	e.stopAeonFor(id)
	e.afterFailure(st, id, out.Title, "manual")
	return out, nil
}

// DismissFailedTask removes a failed task and its adversaries.
func (e *Engine) DismissFailedTask(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := e.Store.Update(func(st *model.GameState) error {
		idx, err := findTask(st, id)
		if err != nil {
			return err
		}
		if !st.Tasks[idx].Failed {
			return fmt.Errorf("%w: %s", ErrNotFailed, id)
		}
		adversary.RemoveForTask(st, id)
		st.Tasks = append(st.Tasks[:idx], st.Tasks[idx+1:]...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("dismiss task: %w", err)
	}
	e.record(telemetry.EventTaskDeleted, telemetry.EventMetadata{"task_id": id, "cause": "dismissed"})
	return nil
}

// RetryFailedTask replaces a failed task with a fresh one carrying the same
// title, description, priority and subtasks over a new window. A zero start
// means now; a zero deadline keeps the old window length.
func (e *Engine) RetryFailedTask(ctx context.Context, id string, start, deadline time.Time) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}
	now := e.Clock.Now()
	if start.IsZero() {
		start = now
	}
	var fresh model.Task
	_, err := e.Store.Update(func(st *model.GameState) error {
		idx, err := findTask(st, id)
		if err != nil {
			return err
		}
		old := st.Tasks[idx]
		if !old.Failed {
			return fmt.Errorf("%w: %s", ErrNotFailed, id)
		}
		end := deadline
		if end.IsZero() {
			end = start.Add(old.Deadline.Sub(old.StartTime))
		}
		subs := make([]model.Subtask, 0, len(old.Subtasks))
		for _, s := range old.Subtasks {
			subs = append(subs, model.Subtask{ID: uuid.NewString(), Title: s.Title, Completed: s.Completed})
		}
		fresh = model.Task{
			ID:             uuid.NewString(),
			Title:          old.Title,
			Description:    old.Description,
			StartTime:      start,
			Deadline:       model.CorrectWindow(start, end, e.Balance.DeadlineFallback),
			Priority:       old.Priority,
			ParentID:       old.ParentID,
			Subtasks:       subs,
			ForesightBonus: Foresight(now, start, e.Balance),
			CreatedAt:      now,
		}
		adversary.RemoveForTask(st, id)
		st.Tasks[idx] = fresh
		e.Spawner.SpawnTask(st, fresh, now)
		return nil
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("retry task: %w", err)
	}
	e.record(telemetry.EventTaskCreated, telemetry.EventMetadata{"task_id": fresh.ID, "priority": int(fresh.Priority), "retry_of": id})
	return fresh, nil
}

// CompleteSubtask slays only that subtask's adversary and pays the fixed
// stipend. No world tick runs.
func (e *Engine) CompleteSubtask(ctx context.Context, taskID, subtaskID string) (SubtaskResult, error) {
	if err := ctx.Err(); err != nil {
		return SubtaskResult{}, err
	}
	now := e.Clock.Now()
	b := e.Balance
	res := SubtaskResult{TaskID: taskID, SubtaskID: subtaskID}
	st, err := e.Store.Update(func(st *model.GameState) error {
		idx, err := findTask(st, taskID)
		if err != nil {
			return err
		}
		t := &st.Tasks[idx]
		if err := live(*t); err != nil {
			return err
		}
		si := t.SubtaskIndex(subtaskID)
		if si < 0 {
			return fmt.Errorf("%w: %s", ErrSubtaskNotFound, subtaskID)
		}
		if t.Subtasks[si].Completed {
			res.AlreadyCompleted = true
			return errNoop
		}
		t.Subtasks[si].Completed = true
		adversary.RemoveForSubtask(st, taskID, subtaskID)
		st.AddGold(b.SubtaskGold)
		res.Gold = b.SubtaskGold
		res.XP = b.SubtaskXP
		res.LevelsGained = st.GainXP(b.SubtaskXP, now, b)
		levelUp(st, res.LevelsGained, now)
		return nil
	})
	if errors.Is(err, errNoop) {
		return res, nil
	}
	if err != nil {
		return SubtaskResult{}, fmt.Errorf("complete subtask: %w", err)
	}
	e.record(telemetry.EventSubtaskCompleted, telemetry.EventMetadata{"task_id": taskID, "subtask_id": subtaskID})
	e.record(telemetry.EventAdversarySlain, telemetry.EventMetadata{"task_id": taskID, "count": 1})
	if res.LevelsGained > 0 {
		e.record(telemetry.EventLevelUp, telemetry.EventMetadata{"level": st.Level})
	}
	return res, nil
}

// EditTask changes a live task and refreshes its primary adversary.
func (e *Engine) EditTask(ctx context.Context, id string, patch TaskPatch) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.Task{}, ErrEmptyTitle
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return model.Task{}, fmt.Errorf("%w: got %d", ErrInvalidPriority, *patch.Priority)
	}
	var out model.Task
	_, err := e.Store.Update(func(st *model.GameState) error {
		idx, err := findTask(st, id)
		if err != nil {
			return err
		}
		t := &st.Tasks[idx]
		if err := live(*t); err != nil {
			return err
		}
		if patch.Title != nil {
			t.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.ParentID != nil {
			if *patch.ParentID == id {
				return fmt.Errorf("%w: task %s cannot be its own parent", ErrInvalidParent, id)
			}
			t.ParentID = *patch.ParentID
		}
		if patch.StartTime != nil {
			t.StartTime = *patch.StartTime
		}
		if patch.Deadline != nil {
			t.Deadline = *patch.Deadline
		}
		t.Deadline = model.CorrectWindow(t.StartTime, t.Deadline, e.Balance.DeadlineFallback)
		e.Spawner.Refresh(st, *t)
		out = *t
		return nil
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("edit task: %w", err)
	}
	return out, nil
}

// AddSubtask appends a subtask to a live task and spawns its adversary.
func (e *Engine) AddSubtask(ctx context.Context, taskID, title string) (model.Subtask, error) {
	if err := ctx.Err(); err != nil {
		return model.Subtask{}, err
	}
	subs := newSubtasks([]string{title})
	if len(subs) == 0 {
		return model.Subtask{}, ErrEmptyTitle
	}
	sub := subs[0]
	now := e.Clock.Now()
	_, err := e.Store.Update(func(st *model.GameState) error {
		idx, err := findTask(st, taskID)
		if err != nil {
			return err
		}
		t := &st.Tasks[idx]
		if err := live(*t); err != nil {
			return err
		}
		t.Subtasks = append(t.Subtasks, sub)
		e.Spawner.SpawnSubtasks(st, *t, subs, now)
		return nil
	})
	if err != nil {
		return model.Subtask{}, fmt.Errorf("add subtask: %w", err)
	}
	e.record(telemetry.EventAdversarySpawned, telemetry.EventMetadata{"task_id": taskID, "count": 1})
	return sub, nil
}

// DeleteTask removes a task in any state along with its adversaries.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := e.Store.Update(func(st *model.GameState) error {
		idx, err := findTask(st, id)
		if err != nil {
			return err
		}
		adversary.RemoveForTask(st, id)
		crisis.Release(st, id)
		st.Tasks = append(st.Tasks[:idx], st.Tasks[idx+1:]...)
		if st.UI.EditingTask == id {
			st.UI.EditingTask = ""
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	e.stopAeonFor(id)
	e.record(telemetry.EventTaskDeleted, telemetry.EventMetadata{"task_id": id})
	return nil
}

// SetEditing marks a task as being edited, which suspends the periodic
// tick. An empty id ends editing.
func (e *Engine) SetEditing(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := e.Store.Update(func(st *model.GameState) error {
		if id != "" {
			if _, err := findTask(st, id); err != nil {
				return err
			}
		}
		st.UI.EditingTask = id
		return nil
	})
	return err
}
