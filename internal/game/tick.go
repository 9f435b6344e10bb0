package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eclipse/internal/model"
	"eclipse/internal/telemetry"
	"eclipse/internal/world"
)

var errSkip = errors.New("tick suspended")

// Tick runs one timer-driven world step. While a task is being edited the
// tick does nothing and reports Skipped.
func (e *Engine) Tick(ctx context.Context) (world.TickResult, error) {
	if err := ctx.Err(); err != nil {
		return world.TickResult{}, err
	}
	now := e.Clock.Now()
	var res world.TickResult
	st, err := e.Store.Update(func(st *model.GameState) error {
		if st.UI.EditingTask != "" {
			return errSkip
		}
		res = e.World.Step(st, now, world.TriggerTimer)
		return nil
	})
	if errors.Is(err, errSkip) {
		return world.TickResult{Trigger: world.TriggerTimer, Skipped: true}, nil
	}
	if err != nil {
		return world.TickResult{}, fmt.Errorf("tick: %w", err)
	}
	e.afterTick(res, st)
	return res, nil
}

// Run ticks every interval until ctx is done.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	e.Log.Info("world running", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := e.Tick(ctx); err != nil && ctx.Err() == nil {
				e.Log.Error("tick failed", "err", err)
			}
		}
	}
}

// afterTick performs the side effects of a committed step: the siege clear
// timer, notifications and telemetry.
func (e *Engine) afterTick(res world.TickResult, st model.GameState) {
	if res.Siege != nil {
		e.scheduleSiegeClear(*res.Siege)
		e.notify(st.Settings, "Siege", res.Siege.Message)
	}
	for _, tr := range res.CrisisTriggers {
		e.record(telemetry.EventCrisisTriggered, telemetry.EventMetadata{"task_id": tr.TaskID, "alerted": tr.Alerted})
		if tr.Alerted {
			e.notify(st.Settings, "Crisis", fmt.Sprintf("%q is running out of time.", tr.Title))
		}
	}
	for _, n := range res.Maddened {
		e.notify(st.Settings, "Madness", n.Name+" has lost their mind.")
	}
	if len(res.WildSpawned) > 0 {
		e.record(telemetry.EventAdversarySpawned, telemetry.EventMetadata{"count": len(res.WildSpawned), "cause": "madness"})
	}
	e.record(telemetry.EventWorldTick, telemetry.EventMetadata{
		"trigger":   string(res.Trigger),
		"damage":    res.BaseDamage,
		"narrative": string(res.Narrative),
	})
}

// scheduleSiegeClear removes the siege map event once it expires, unless
// something else has replaced it by then.
func (e *Engine) scheduleSiegeClear(ev model.MapEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.siegeTimer != nil {
		e.siegeTimer.Stop()
	}
	id := ev.ID
	e.siegeID = id
	e.siegeTimer = e.Clock.AfterFunc(ev.ExpiresAt.Sub(ev.StartedAt), func() {
		e.mu.Lock()
		if e.siegeID == id {
			e.siegeTimer, e.siegeID = nil, ""
		}
		e.mu.Unlock()
		_, _ = e.Store.Update(func(st *model.GameState) error {
			if st.MapEvent == nil || st.MapEvent.ID != id {
				return errNoop
			}
			st.MapEvent = nil
			return nil
		})
	})
}
