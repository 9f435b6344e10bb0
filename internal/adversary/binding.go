// Package adversary keeps tasks and their adversaries in step: one primary
// adversary per live task plus one per open subtask.
package adversary

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"eclipse/internal/config"
	"eclipse/internal/content"
	"eclipse/internal/model"
)

type Spawner struct {
	Balance config.Balance
	Content content.Generator
	Dice    content.Dice
	Rules   []Rule
}

func NewSpawner(b config.Balance, gen content.Generator, d content.Dice) *Spawner {
	return &Spawner{Balance: b, Content: gen, Dice: d, Rules: Rules(b)}
}

// Rank derives adversary rank from priority and the current win streak.
func Rank(p model.Priority, winStreak int, revenge bool) int {
	r := int(p) + winStreak/2
	if revenge {
		r++
	}
	return min(10, max(1, r))
}

func Scale(p model.Priority, durationHours, capScale float64) float64 {
	s := 1.0 + 1.5*float64(p-1) + math.Max(0, durationHours)
	return math.Min(capScale, s)
}

// RingPosition places member i of n on a circle around center.
func RingPosition(center model.Vec3, i, n int, radius float64) model.Vec3 {
	if n <= 0 {
		n = 1
	}
	angle := float64(i) / float64(n) * 2 * math.Pi
	return model.Vec3{
		X: center.X + radius*math.Cos(angle),
		Y: center.Y,
		Z: center.Z + radius*math.Sin(angle),
	}
}

// Primary builds the task's primary adversary from the rule table.
func (s *Spawner) Primary(st *model.GameState, t model.Task, now time.Time) model.Enemy {
	pick := Evaluate(s.Rules, Input{Title: t.Title, Realm: st.Realm, Graveyard: st.Graveyard.Items()}, s.Dice)
	rank := Rank(t.Priority, st.WinStreak, pick.Revenge)
	id := s.Content.Identity(content.IdentityRequest{
		FactionID: pick.Faction,
		Race:      pick.Race,
		Priority:  t.Priority,
		Rank:      rank,
		Lineage:   pick.Lineage,
		TaskTitle: t.Title,
	})
	return model.Enemy{
		ID:        uuid.NewString(),
		TaskID:    t.ID,
		Name:      id.Name,
		Title:     id.Title,
		Lineage:   id.Lineage,
		Lore:      id.Lore,
		Race:      pick.Race,
		FactionID: pick.Faction,
		Rank:      rank,
		HP:        100 * rank,
		MaxHP:     100 * rank,
		Scale:     Scale(t.Priority, t.DurationHours(), s.Balance.ScaleCap),
		Position:  model.Vec3{X: s.Dice.Float64()*40 - 20, Z: s.Dice.Float64()*40 - 20},
		Revenge:   pick.Revenge,
		SpawnedAt: now,
	}
}

// Sub builds the adversary for subtask index i of n, ringed around center.
func (s *Spawner) Sub(t model.Task, sub model.Subtask, i, n int, center model.Vec3, now time.Time) model.Enemy {
	low := model.LowTierFactions()
	faction := low[s.Dice.IntN(len(low))]
	info, _ := model.LookupFaction(faction)
	rank := max(1, int(t.Priority)-1)
	start, end := sub.Window(t)
	radius := s.Balance.RingRadiusMin + s.Dice.Float64()*(s.Balance.RingRadiusMax-s.Balance.RingRadiusMin)

	id := s.Content.Identity(content.IdentityRequest{
		FactionID: faction,
		Race:      info.Race,
		Priority:  model.PriorityLow,
		Rank:      rank,
		TaskTitle: sub.Title,
		Subtask:   true,
	})
	return model.Enemy{
		ID:        uuid.NewString(),
		TaskID:    t.ID,
		SubtaskID: sub.ID,
		Name:      id.Name,
		Title:     id.Title,
		Lineage:   id.Lineage,
		Lore:      id.Lore,
		Race:      info.Race,
		FactionID: faction,
		Rank:      rank,
		HP:        100 * rank,
		MaxHP:     100 * rank,
		Scale:     Scale(model.PriorityLow, end.Sub(start).Hours(), s.Balance.ScaleCap),
		Position:  RingPosition(center, i, n, radius),
		SpawnedAt: now,
	}
}

// Wild spawns a HIGH priority adversary bound to no task.
func (s *Spawner) Wild(st *model.GameState, faction model.FactionID, now time.Time) model.Enemy {
	info, ok := model.LookupFaction(faction)
	if !ok {
		info, _ = model.LookupFaction(model.FactionShadowLegion)
	}
	rank := Rank(model.PriorityHigh, st.WinStreak, false)
	id := s.Content.Identity(content.IdentityRequest{
		FactionID: info.ID,
		Race:      info.Race,
		Priority:  model.PriorityHigh,
		Rank:      rank,
		TaskTitle: "the madness",
	})
	return model.Enemy{
		ID:        uuid.NewString(),
		Name:      id.Name,
		Title:     id.Title,
		Lineage:   id.Lineage,
		Lore:      id.Lore,
		Race:      info.Race,
		FactionID: info.ID,
		Rank:      rank,
		HP:        100 * rank,
		MaxHP:     100 * rank,
		Scale:     Scale(model.PriorityHigh, 1, s.Balance.ScaleCap),
		Position:  model.Vec3{X: s.Dice.Float64()*40 - 20, Z: s.Dice.Float64()*40 - 20},
		Wild:      true,
		SpawnedAt: now,
	}
}

// SpawnTask adds the primary adversary and one per open subtask.
func (s *Spawner) SpawnTask(st *model.GameState, t model.Task, now time.Time) {
	primary := s.Primary(st, t, now)
	st.Enemies = append(st.Enemies, primary)
	open := openSubtasks(t)
	for i, sub := range open {
		st.Enemies = append(st.Enemies, s.Sub(t, sub, i, len(open), primary.Position, now))
	}
}

// SpawnSubtasks adds adversaries for the given subtasks of t, ringed around
// the task's primary adversary.
func (s *Spawner) SpawnSubtasks(st *model.GameState, t model.Task, subs []model.Subtask, now time.Time) {
	center := model.Vec3{}
	if p := PrimaryFor(st, t.ID); p != nil {
		center = p.Position
	}
	n := len(openSubtasks(t))
	offset := n - len(subs)
	for i, sub := range subs {
		st.Enemies = append(st.Enemies, s.Sub(t, sub, offset+i, n, center, now))
	}
}

// Refresh recomputes rank and scale of every adversary bound to t after a
// task edit. Subtask adversaries follow the parent window unless the subtask
// has its own.
func (s *Spawner) Refresh(st *model.GameState, t model.Task) {
	for i := range st.Enemies {
		e := &st.Enemies[i]
		if e.Wild || e.TaskID != t.ID {
			continue
		}
		if e.SubtaskID == "" {
			e.Rank = Rank(t.Priority, st.WinStreak, e.Revenge)
			e.Scale = Scale(t.Priority, t.DurationHours(), s.Balance.ScaleCap)
		} else {
			j := t.SubtaskIndex(e.SubtaskID)
			if j < 0 {
				continue
			}
			start, end := t.Subtasks[j].Window(t)
			e.Rank = max(1, int(t.Priority)-1)
			e.Scale = Scale(model.PriorityLow, end.Sub(start).Hours(), s.Balance.ScaleCap)
		}
		e.MaxHP = 100 * e.Rank
		e.HP = min(e.HP, e.MaxHP)
		if e.HP == 0 {
			e.HP = e.MaxHP
		}
	}
}

func PrimaryFor(st *model.GameState, taskID string) *model.Enemy {
	for i := range st.Enemies {
		e := &st.Enemies[i]
		if e.TaskID == taskID && e.SubtaskID == "" && !e.Wild {
			return e
		}
	}
	return nil
}

// RemoveForTask drops every adversary bound to taskID and returns them.
func RemoveForTask(st *model.GameState, taskID string) []model.Enemy {
	return removeWhere(st, func(e model.Enemy) bool { return !e.Wild && e.TaskID == taskID })
}

func RemoveForSubtask(st *model.GameState, taskID, subtaskID string) []model.Enemy {
	return removeWhere(st, func(e model.Enemy) bool {
		return !e.Wild && e.TaskID == taskID && e.SubtaskID == subtaskID
	})
}

// RemoveWild drops up to n wild adversaries, oldest first.
func RemoveWild(st *model.GameState, n int) []model.Enemy {
	count := 0
	return removeWhere(st, func(e model.Enemy) bool {
		if e.Wild && count < n {
			count++
			return true
		}
		return false
	})
}

func removeWhere(st *model.GameState, drop func(model.Enemy) bool) []model.Enemy {
	var removed []model.Enemy
	kept := st.Enemies[:0]
	for _, e := range st.Enemies {
		if drop(e) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	st.Enemies = kept
	return removed
}

func openSubtasks(t model.Task) []model.Subtask {
	var out []model.Subtask
	for _, s := range t.Subtasks {
		if !s.Completed {
			out = append(out, s)
		}
	}
	return out
}

// Verify checks the binding: every live task has exactly one primary and one
// adversary per open subtask; completed tasks have none; no adversary points
// at a task that does not exist.
func Verify(st model.GameState) error {
	tasks := make(map[string]model.Task, len(st.Tasks))
	for _, t := range st.Tasks {
		tasks[t.ID] = t
	}
	primaries := map[string]int{}
	subs := map[string]int{}
	for _, e := range st.Enemies {
		if e.Wild {
			continue
		}
		t, ok := tasks[e.TaskID]
		if !ok {
			return fmt.Errorf("adversary %s bound to unknown task %s", e.ID, e.TaskID)
		}
		if t.Completed {
			return fmt.Errorf("adversary %s outlived completed task %s", e.ID, t.ID)
		}
		if e.SubtaskID == "" {
			primaries[e.TaskID]++
			continue
		}
		idx := t.SubtaskIndex(e.SubtaskID)
		if idx < 0 {
			return fmt.Errorf("adversary %s bound to unknown subtask %s", e.ID, e.SubtaskID)
		}
		if t.Subtasks[idx].Completed {
			return fmt.Errorf("adversary %s outlived completed subtask %s", e.ID, e.SubtaskID)
		}
		subs[e.TaskID+"/"+e.SubtaskID]++
	}
	for _, t := range st.Tasks {
		if t.Terminal() {
			continue
		}
		if n := primaries[t.ID]; n != 1 {
			return fmt.Errorf("task %s has %d primary adversaries", t.ID, n)
		}
		for _, s := range t.Subtasks {
			if s.Completed {
				continue
			}
			if n := subs[t.ID+"/"+s.ID]; n != 1 {
				return fmt.Errorf("subtask %s has %d adversaries", s.ID, n)
			}
		}
	}
	return nil
}
