package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"eclipse/internal/adversary"
	"eclipse/internal/config"
	"eclipse/internal/content"
	"eclipse/internal/model"
	"eclipse/internal/notify"
	"eclipse/internal/store"
	"eclipse/internal/telemetry"
	"eclipse/internal/world"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newEngineForTest(dice content.Dice, mutate ...func(*model.GameState)) (*Engine, *FakeClock, *notify.Recorder, *telemetry.MemoryRepository) {
	b := config.Default()
	st := model.NewGameState(b)
	for _, m := range mutate {
		m(&st)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	fake := NewFakeClock(t0)
	rec := notify.NewRecorder(0)
	tel := telemetry.NewMemoryRepository(0).WithClock(fake.Now)

	e := New(store.New(st, b, log), Options{
		Content:   content.NewProcedural(content.NewRand(7)),
		Dice:      dice,
		Clock:     fake,
		Notifier:  rec,
		Cues:      rec,
		Telemetry: tel,
		Log:       log,
	})
	return e, fake, rec, tel
}

func eventsOf(t *testing.T, tel *telemetry.MemoryRepository, typ telemetry.EventType) []telemetry.Event {
	t.Helper()
	evs, err := tel.GetEvents(t0.Add(-time.Hour), []telemetry.EventType{typ})
	require.NoError(t, err)
	return evs
}

func TestCreateTask_HighOneHourTask(t *testing.T) {
	e, _, _, tel := newEngineForTest(&content.Script{})
	ctx := context.Background()

	task, err := e.CreateTask(ctx, TaskInput{
		Title:     "Ship the release",
		Priority:  model.PriorityHigh,
		StartTime: t0,
		Deadline:  t0.Add(time.Hour),
	})
	require.NoError(t, err)

	st := e.State()
	p := adversary.PrimaryFor(&st, task.ID)
	require.NotNil(t, p)
	assert.GreaterOrEqual(t, p.Rank, 3)
	assert.InDelta(t, 5.0, p.Scale, 1e-9)
	assert.Equal(t, 0.0, task.ForesightBonus)
	require.NoError(t, adversary.Verify(st))
	assert.Len(t, eventsOf(t, tel, telemetry.EventTaskCreated), 1)
}

func TestCreateTask_Validation(t *testing.T) {
	e, _, _, _ := newEngineForTest(&content.Script{})
	ctx := context.Background()

	t.Run("deadline before start is corrected", func(t *testing.T) {
		task, err := e.CreateTask(ctx, TaskInput{Title: "Backwards", StartTime: t0, Deadline: t0.Add(-time.Hour)})
		require.NoError(t, err)
		assert.Equal(t, t0.Add(time.Hour), task.Deadline)
		assert.Equal(t, model.PriorityMedium, task.Priority)
	})

	t.Run("missing start means now", func(t *testing.T) {
		task, err := e.CreateTask(ctx, TaskInput{Title: "Now", Priority: model.PriorityLow})
		require.NoError(t, err)
		assert.Equal(t, t0, task.StartTime)
		assert.True(t, task.Deadline.After(task.StartTime))
	})

	t.Run("subtasks spawn ringed adversaries", func(t *testing.T) {
		task, err := e.CreateTask(ctx, TaskInput{Title: "Big one", Subtasks: []string{"first", " ", "second"}})
		require.NoError(t, err)
		assert.Len(t, task.Subtasks, 2)
		require.NoError(t, adversary.Verify(e.State()))
	})

	_, err := e.CreateTask(ctx, TaskInput{Title: "   "})
	assert.ErrorIs(t, err, ErrEmptyTitle)
	_, err = e.CreateTask(ctx, TaskInput{Title: "x", Priority: 7})
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestForesight(t *testing.T) {
	b := config.Default()
	tests := []struct {
		lead time.Duration
		want float64
	}{
		{0, 0},
		{23 * time.Hour, 0},
		{24 * time.Hour, 0.1},
		{3 * 24 * time.Hour, 0.25},
		{6 * 24 * time.Hour, 0.25},
		{7 * 24 * time.Hour, 0.5},
		{30 * 24 * time.Hour, 0.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Foresight(t0, t0.Add(tt.lead), b), "lead %s", tt.lead)
	}
}

func TestCompleteTask(t *testing.T) {
	e, _, rec, tel := newEngineForTest(&content.Script{})
	ctx := context.Background()

	task, err := e.CreateTask(ctx, TaskInput{
		Title:     "Quarterly planning",
		StartTime: t0.Add(3 * 24 * time.Hour),
		Deadline:  t0.Add(4 * 24 * time.Hour),
		Subtasks:  []string{"outline", "draft"},
	})
	require.NoError(t, err)
	require.Equal(t, 0.25, task.ForesightBonus)
	require.Len(t, e.State().Enemies, 3)

	res, err := e.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyCompleted)
	assert.Equal(t, 250, res.XP)
	assert.Equal(t, 125, res.Gold)
	assert.Equal(t, 3, res.Slain)
	assert.Nil(t, res.Loot)
	require.NotNil(t, res.Minion)
	assert.Equal(t, world.TriggerVictory, res.Tick.Trigger)

	st := e.State()
	assert.Empty(t, st.Enemies)
	assert.Equal(t, 275, st.Gold)
	assert.Equal(t, 250, st.XP)
	assert.Equal(t, 55, st.Mana)
	assert.Equal(t, 1, st.WinStreak)
	assert.Equal(t, 0, st.LossStreak)
	assert.Equal(t, 1, st.Minions.Len())
	assert.Equal(t, 1, st.Graveyard.Len())
	assert.Equal(t, 55.0, st.Realm.Hope)
	assert.Equal(t, t0, st.LastTickAt)
	require.NoError(t, adversary.Verify(st))

	assert.Equal(t, []notify.Cue{notify.CueVictory}, rec.Cues())
	require.Len(t, rec.Notifications(), 1)
	assert.Equal(t, "Victory", rec.Notifications()[0].Title)
	assert.Len(t, eventsOf(t, tel, telemetry.EventTaskCompleted), 1)

	t.Run("completing twice changes nothing", func(t *testing.T) {
		again, err := e.CompleteTask(ctx, task.ID)
		require.NoError(t, err)
		assert.True(t, again.AlreadyCompleted)
		assert.Equal(t, 275, e.State().Gold)
		assert.Len(t, rec.Cues(), 1)
	})

	_, err = e.CompleteTask(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCompleteTask_LootAndLevelUp(t *testing.T) {
	e, _, _, tel := newEngineForTest(&content.Script{Floats: []float64{0.1}}, func(st *model.GameState) {
		st.XP = 950
	})
	ctx := context.Background()

	task, err := e.CreateTask(ctx, TaskInput{Title: "Small chore", Priority: model.PriorityLow, StartTime: t0, Deadline: t0.Add(time.Hour)})
	require.NoError(t, err)
	res, err := e.CompleteTask(ctx, task.ID)
	require.NoError(t, err)

	require.NotNil(t, res.Loot)
	assert.Equal(t, 1, res.LevelsGained)
	st := e.State()
	assert.Len(t, st.Inventory, 1)
	assert.Equal(t, 2, st.Level)
	assert.Equal(t, 50, st.XP)
	assert.Equal(t, 110, st.MaxHeroHP)
	require.NotNil(t, st.Alert)
	assert.Equal(t, model.AlertLevelUp, st.Alert.Kind)
	assert.Len(t, eventsOf(t, tel, telemetry.EventLootCollected), 1)
	assert.Len(t, eventsOf(t, tel, telemetry.EventLevelUp), 1)
}

func TestFailTask(t *testing.T) {
	e, _, rec, _ := newEngineForTest(&content.Script{}, func(st *model.GameState) {
		st.WinStreak = 3
	})
	ctx := context.Background()

	task, err := e.CreateTask(ctx, TaskInput{Title: "Water the plants", StartTime: t0, Deadline: t0.Add(time.Hour)})
	require.NoError(t, err)

	failed, err := e.FailTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, failed.Failed)

	st := e.State()
	assert.Equal(t, 90, st.HeroHP)
	assert.Equal(t, 0, st.WinStreak)
	assert.Equal(t, 1, st.LossStreak)
	assert.Equal(t, 47.0, st.Realm.Hope)
	assert.Len(t, st.Enemies, 1, "failed tasks keep their adversaries")
	require.NoError(t, adversary.Verify(st))
	last, ok := st.History.Last()
	require.True(t, ok)
	assert.Equal(t, model.HistoryNeglect, last.Type)
	assert.Equal(t, []notify.Cue{notify.CueDefeat}, rec.Cues())

	_, err = e.FailTask(ctx, task.ID)
	assert.ErrorIs(t, err, ErrTaskFailed)
	_, err = e.CompleteTask(ctx, task.ID)
	assert.ErrorIs(t, err, ErrTaskFailed)

	t.Run("dismiss", func(t *testing.T) {
		live, err := e.CreateTask(ctx, TaskInput{Title: "Still going"})
		require.NoError(t, err)
		assert.ErrorIs(t, e.DismissFailedTask(ctx, live.ID), ErrNotFailed)

		require.NoError(t, e.DismissFailedTask(ctx, task.ID))
		st := e.State()
		assert.Equal(t, -1, st.TaskIndex(task.ID))
		assert.Len(t, st.Enemies, 1)
		require.NoError(t, adversary.Verify(st))
		assert.ErrorIs(t, e.DismissFailedTask(ctx, task.ID), ErrTaskNotFound)
	})
}

func TestRetryFailedTask(t *testing.T) {
	e, _, _, _ := newEngineForTest(&content.Script{})
	ctx := context.Background()

	task, err := e.CreateTask(ctx, TaskInput{
		Title:     "Tax return",
		StartTime: t0,
		Deadline:  t0.Add(2 * time.Hour),
		Subtasks:  []string{"collect receipts", "fill the form"},
	})
	require.NoError(t, err)
	_, err = e.CompleteSubtask(ctx, task.ID, task.Subtasks[0].ID)
	require.NoError(t, err)

	_, err = e.RetryFailedTask(ctx, task.ID, t0.Add(24*time.Hour), time.Time{})
	assert.ErrorIs(t, err, ErrNotFailed)

	_, err = e.FailTask(ctx, task.ID)
	require.NoError(t, err)
	fresh, err := e.RetryFailedTask(ctx, task.ID, t0.Add(24*time.Hour), time.Time{})
	require.NoError(t, err)

	assert.NotEqual(t, task.ID, fresh.ID)
	assert.Equal(t, "Tax return", fresh.Title)
	assert.Equal(t, 2*time.Hour, fresh.Deadline.Sub(fresh.StartTime))
	assert.Equal(t, 0.1, fresh.ForesightBonus)
	require.Len(t, fresh.Subtasks, 2)
	assert.True(t, fresh.Subtasks[0].Completed)
	assert.False(t, fresh.Subtasks[1].Completed)

	st := e.State()
	require.Len(t, st.Tasks, 1)
	assert.Equal(t, fresh.ID, st.Tasks[0].ID)
	assert.Len(t, st.Enemies, 2)
	require.NoError(t, adversary.Verify(st))
}

func TestCompleteSubtask(t *testing.T) {
	e, _, _, tel := newEngineForTest(&content.Script{})
	ctx := context.Background()

	task, err := e.CreateTask(ctx, TaskInput{Title: "Move house", Subtasks: []string{"pack", "drive"}})
	require.NoError(t, err)
	sub := task.Subtasks[0]

	res, err := e.CompleteSubtask(ctx, task.ID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, res.XP)
	assert.Equal(t, 10, res.Gold)

	st := e.State()
	assert.Equal(t, 160, st.Gold)
	assert.Equal(t, 20, st.XP)
	assert.Len(t, st.Enemies, 2)
	assert.True(t, st.LastTickAt.IsZero(), "subtasks do not tick the world")
	require.NoError(t, adversary.Verify(st))
	assert.Len(t, eventsOf(t, tel, telemetry.EventSubtaskCompleted), 1)

	again, err := e.CompleteSubtask(ctx, task.ID, sub.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)
	assert.Equal(t, 160, e.State().Gold)

	_, err = e.CompleteSubtask(ctx, task.ID, "nope")
	assert.ErrorIs(t, err, ErrSubtaskNotFound)
}

func TestEditTask(t *testing.T) {
	e, _, _, _ := newEngineForTest(&content.Script{})
	ctx := context.Background()

	task, err := e.CreateTask(ctx, TaskInput{Title: "Sweep", Priority: model.PriorityLow, StartTime: t0, Deadline: t0.Add(time.Hour)})
	require.NoError(t, err)
	st := e.State()
	require.Equal(t, 1, adversary.PrimaryFor(&st, task.ID).Rank)

	high := model.PriorityHigh
	title := "Sweep the hall"
	moved := t0.Add(-time.Hour)
	edited, err := e.EditTask(ctx, task.ID, TaskPatch{Title: &title, Priority: &high, Deadline: &moved})
	require.NoError(t, err)
	assert.Equal(t, "Sweep the hall", edited.Title)
	assert.Equal(t, t0.Add(time.Hour), edited.Deadline)

	st = e.State()
	assert.Equal(t, 3, adversary.PrimaryFor(&st, task.ID).Rank)
	require.NoError(t, adversary.Verify(st))

	empty := " "
	_, err = e.EditTask(ctx, task.ID, TaskPatch{Title: &empty})
	assert.ErrorIs(t, err, ErrEmptyTitle)
	bad := model.Priority(9)
	_, err = e.EditTask(ctx, task.ID, TaskPatch{Priority: &bad})
	assert.ErrorIs(t, err, ErrInvalidPriority)
	self := task.ID
	_, err = e.EditTask(ctx, task.ID, TaskPatch{ParentID: &self})
	assert.ErrorIs(t, err, ErrInvalidParent)

	_, err = e.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	_, err = e.EditTask(ctx, task.ID, TaskPatch{Title: &title})
	assert.ErrorIs(t, err, ErrTaskCompleted)
}

func TestAddSubtaskAndDelete(t *testing.T) {
	e, _, _, _ := newEngineForTest(&content.Script{})
	ctx := context.Background()

	task, err := e.CreateTask(ctx, TaskInput{Title: "Garden", Subtasks: []string{"dig"}})
	require.NoError(t, err)

	sub, err := e.AddSubtask(ctx, task.ID, "plant")
	require.NoError(t, err)
	assert.Equal(t, "plant", sub.Title)
	st := e.State()
	assert.Len(t, st.Enemies, 3)
	require.NoError(t, adversary.Verify(st))

	_, err = e.AddSubtask(ctx, task.ID, "")
	assert.ErrorIs(t, err, ErrEmptyTitle)

	require.NoError(t, e.DeleteTask(ctx, task.ID))
	st = e.State()
	assert.Empty(t, st.Tasks)
	assert.Empty(t, st.Enemies)
	assert.ErrorIs(t, e.DeleteTask(ctx, task.ID), ErrTaskNotFound)
}

func TestNotificationsAndSoundFollowSettings(t *testing.T) {
	e, _, rec, _ := newEngineForTest(&content.Script{}, func(st *model.GameState) {
		st.Settings.Notifications = false
		st.Settings.Sound = false
	})
	ctx := context.Background()

	task, err := e.CreateTask(ctx, TaskInput{Title: "Quiet work"})
	require.NoError(t, err)
	_, err = e.CompleteTask(ctx, task.ID)
	require.NoError(t, err)

	assert.Empty(t, rec.Notifications())
	assert.Empty(t, rec.Cues())
}

func TestCancelledContext(t *testing.T) {
	e, _, _, _ := newEngineForTest(&content.Script{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.CreateTask(ctx, TaskInput{Title: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = e.Tick(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// Every sequence of player operations keeps the task-adversary binding.
func TestBindingInvariant_RandomOperations(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64Range(1, 1<<40).Draw(rt, "seed")
		e, fake, _, _ := newEngineForTest(content.NewRand(seed))
		ctx := context.Background()
		var ids []string

		steps := rapid.IntRange(1, 25).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			op := rapid.IntRange(0, 8).Draw(rt, "op")
			if len(ids) == 0 {
				op = 0
			}
			var id string
			if len(ids) > 0 {
				id = ids[rapid.IntRange(0, len(ids)-1).Draw(rt, "task")]
			}

			switch op {
			case 0:
				subs := make([]string, rapid.IntRange(0, 3).Draw(rt, "subtasks"))
				for j := range subs {
					subs[j] = "step"
				}
				task, err := e.CreateTask(ctx, TaskInput{
					Title:     "task",
					Priority:  model.Priority(rapid.IntRange(1, 3).Draw(rt, "priority")),
					StartTime: fake.Now().Add(time.Duration(rapid.IntRange(-120, 120).Draw(rt, "start")) * time.Minute),
					Deadline:  fake.Now().Add(time.Duration(rapid.IntRange(-60, 600).Draw(rt, "deadline")) * time.Minute),
					Subtasks:  subs,
				})
				if err != nil {
					rt.Fatalf("create: %v", err)
				}
				ids = append(ids, task.ID)
			case 1:
				_, _ = e.CompleteTask(ctx, id)
			case 2:
				_, _ = e.FailTask(ctx, id)
			case 3:
				st := e.State()
				if idx := st.TaskIndex(id); idx >= 0 {
					for _, s := range st.Tasks[idx].Subtasks {
						if !s.Completed {
							_, _ = e.CompleteSubtask(ctx, id, s.ID)
							break
						}
					}
				}
			case 4:
				_, _ = e.AddSubtask(ctx, id, "extra")
			case 5:
				p := model.Priority(rapid.IntRange(1, 3).Draw(rt, "new priority"))
				_, _ = e.EditTask(ctx, id, TaskPatch{Priority: &p})
			case 6:
				if fresh, err := e.RetryFailedTask(ctx, id, time.Time{}, time.Time{}); err == nil {
					ids = append(ids, fresh.ID)
				}
			case 7:
				_ = e.DeleteTask(ctx, id)
			case 8:
				fake.Advance(time.Duration(rapid.IntRange(1, 90).Draw(rt, "minutes")) * time.Minute)
				if _, err := e.Tick(ctx); err != nil {
					rt.Fatalf("tick: %v", err)
				}
			}

			if err := adversary.Verify(e.State()); err != nil {
				rt.Fatalf("after op %d: %v", op, err)
			}
		}
	})
}

func TestErrorsWrapSentinels(t *testing.T) {
	e, _, _, _ := newEngineForTest(&content.Script{})
	_, err := e.FailTask(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTaskNotFound))
	assert.Contains(t, err.Error(), "fail task")
}
