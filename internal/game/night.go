package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"eclipse/internal/battle"
	"eclipse/internal/model"
	"eclipse/internal/notify"
	"eclipse/internal/telemetry"
)

// NightPhase is the two-step night assault: Announce shows the assault on
// the map, and Resolve fights it against whatever the realm looks like when
// the delay runs out.
type NightPhase struct {
	e *Engine

	mu      sync.Mutex
	timer   Timer
	eventID string
	// gen identifies the current announcement. A timer callback that lost
	// the race to Cancel or a direct Resolve sees a newer gen and does nothing.
	gen uint64
}

// Announce raises the NIGHT_ASSAULT map event and schedules Resolve. Only
// one assault can be pending.
func (n *NightPhase) Announce(ctx context.Context) (model.MapEvent, error) {
	if err := ctx.Err(); err != nil {
		return model.MapEvent{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		return model.MapEvent{}, ErrNightPending
	}

	e := n.e
	now := e.Clock.Now()
	ev := model.MapEvent{
		ID:        "night-" + uuid.NewString(),
		Kind:      model.MapEventNightAssault,
		Message:   "Torches gather at the edge of the realm. The assault comes at nightfall.",
		StartedAt: now,
		ExpiresAt: now.Add(e.Balance.NightDelay),
	}
	_, err := e.Store.Update(func(st *model.GameState) error {
		if f := st.LowestFaction(); f != nil {
			ev.FactionID = f.ID
		}
		st.MapEvent = &ev
		return nil
	})
	if err != nil {
		return model.MapEvent{}, fmt.Errorf("announce night: %w", err)
	}
	n.eventID = ev.ID
	n.gen++
	gen := n.gen
	n.timer = e.Clock.AfterFunc(e.Balance.NightDelay, func() {
		id, ok := n.claim(gen)
		if !ok {
			return
		}
		if _, err := n.fight(id); err != nil {
			e.Log.Error("night resolve failed", "err", err)
		}
	})
	return ev, nil
}

// claim consumes the pending announcement if gen is still current.
func (n *NightPhase) claim(gen uint64) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer == nil || n.gen != gen {
		return "", false
	}
	id := n.eventID
	n.timer, n.eventID = nil, ""
	n.gen++
	return id, true
}

func (n *NightPhase) Pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.timer != nil
}

// Cancel stops a pending assault and clears its map event. It reports
// whether one was pending.
func (n *NightPhase) Cancel() bool {
	n.mu.Lock()
	if n.timer == nil {
		n.mu.Unlock()
		return false
	}
	n.timer.Stop()
	id := n.eventID
	n.timer, n.eventID = nil, ""
	n.gen++
	n.mu.Unlock()

	_, _ = n.e.Store.Update(func(st *model.GameState) error {
		if st.MapEvent == nil || st.MapEvent.ID != id {
			return errNoop
		}
		st.MapEvent = nil
		return nil
	})
	return true
}

// Resolve fights the battle now. It may be called directly, in which case
// any pending announcement is consumed.
func (n *NightPhase) Resolve(ctx context.Context) (model.BattleReport, error) {
	if err := ctx.Err(); err != nil {
		return model.BattleReport{}, err
	}
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
	}
	id := n.eventID
	n.timer, n.eventID = nil, ""
	n.gen++
	n.mu.Unlock()
	return n.fight(id)
}

// fight resolves the battle against live state and clears the map event
// announced as id.
func (n *NightPhase) fight(id string) (model.BattleReport, error) {
	e := n.e
	now := e.Clock.Now()
	var (
		report model.BattleReport
		gained int
	)
	st, err := e.Store.Update(func(st *model.GameState) error {
		level := st.Level
		report = battle.Resolve(st, now, e.Balance, e.Dice)
		gained = st.Level - level
		levelUp(st, gained, now)
		if st.MapEvent != nil && (st.MapEvent.ID == id || st.MapEvent.Kind == model.MapEventNightAssault) {
			st.MapEvent = nil
		}
		if report.Outcome == model.OutcomeDefeat {
			st.PushEffect("defeat", now)
		} else {
			st.PushEffect("victory", now)
		}
		return nil
	})
	if err != nil {
		return model.BattleReport{}, fmt.Errorf("resolve night: %w", err)
	}

	e.Log.Info("night resolved", "outcome", string(report.Outcome), "threat", report.Threat, "defense", report.Defense)
	switch report.Outcome {
	case model.OutcomeDefeat:
		e.notify(st.Settings, "The walls broke", fmt.Sprintf("Threat %d overwhelmed defense %d. %d gold plundered.", report.Threat, report.Defense, report.GoldLost))
		e.play(st.Settings, notify.CueDefeat)
	default:
		e.notify(st.Settings, "The night held", fmt.Sprintf("Threat %d met defense %d. %d foes slain.", report.Threat, report.Defense, report.Kills))
		e.play(st.Settings, notify.CueVictory)
	}
	e.record(telemetry.EventNightResolved, telemetry.EventMetadata{
		"outcome": string(report.Outcome),
		"threat":  report.Threat,
		"defense": report.Defense,
		"kills":   report.Kills,
	})
	if gained > 0 {
		e.record(telemetry.EventLevelUp, telemetry.EventMetadata{"level": st.Level})
	}
	return report, nil
}
