// Package world advances the simulation by one tick. Each step is gated
// independently; a step that does not fire leaves the others alone.
package world

import (
	"fmt"
	"time"

	"eclipse/internal/adversary"
	"eclipse/internal/building"
	"eclipse/internal/config"
	"eclipse/internal/content"
	"eclipse/internal/crisis"
	"eclipse/internal/model"
	"eclipse/internal/npc"
)

type Trigger string

const (
	TriggerTimer   Trigger = "TIMER"
	TriggerVictory Trigger = "VICTORY"
)

type Simulator struct {
	Balance config.Balance
	Content content.Generator
	Dice    content.Dice
	Spawner *adversary.Spawner
}

type TickResult struct {
	Trigger        Trigger              `json:"trigger"`
	Skipped        bool                 `json:"skipped,omitempty"`
	BaseDamage     float64              `json:"baseDamage"`
	Regenerated    float64              `json:"regenerated"`
	CrisisTriggers []crisis.Trigger     `json:"crisisTriggers,omitempty"`
	Siege          *model.MapEvent      `json:"siege,omitempty"`
	Vision         *model.Vision        `json:"vision,omitempty"`
	Maddened       []model.NPC          `json:"maddened,omitempty"`
	WildSpawned    []model.Enemy        `json:"wildSpawned,omitempty"`
	WorldEvent     *content.WorldEvent  `json:"worldEvent,omitempty"`
	Character      *CharacterEvent      `json:"character,omitempty"`
	Upkeep         int                  `json:"upkeep"`
	Narrative      model.NarrativeStage `json:"narrative"`
}

type CharacterEvent struct {
	NPCID    string `json:"npcId"`
	Action   string `json:"action"`
	Amount   int    `json:"amount"`
	Dialogue string `json:"dialogue"`
}

const (
	ActionTheft   = "theft"
	ActionDrain   = "mana_drain"
	ActionSupport = "support"
)

// Step runs one tick against st at now.
func (s *Simulator) Step(st *model.GameState, now time.Time, trigger Trigger) TickResult {
	res := TickResult{Trigger: trigger}

	if trigger != TriggerVictory {
		s.combat(st, now, &res)
	}
	res.CrisisTriggers = crisis.Scan(st, now, s.Balance)
	s.siege(st, now, &res)
	s.vision(st, now, &res)
	s.drift(st, now, &res)
	s.factions(st, now, &res)
	s.character(st, now, &res)
	s.upkeep(st, now, &res)
	res.Narrative = s.narrate(st, now)

	st.LastTickAt = now
	return res
}

// combat accrues damage from adversaries of started, live tasks and lets
// the walls regenerate the base.
func (s *Simulator) combat(st *model.GameState, now time.Time, res *TickResult) {
	tasks := make(map[string]model.Task, len(st.Tasks))
	for _, t := range st.Tasks {
		tasks[t.ID] = t
	}
	var dmg float64
	for _, e := range st.Enemies {
		if e.Wild {
			continue
		}
		t, ok := tasks[e.TaskID]
		if !ok || t.Terminal() || !t.Started(now) {
			continue
		}
		dmg += float64(e.Rank) * 0.1 * float64(t.Priority)
	}
	regen := building.Regeneration(st.Structures, s.Balance)
	st.AdjustBase(regen - dmg)
	st.AddMana(building.ManaPerTick(st.Structures))
	res.BaseDamage = dmg
	res.Regenerated = regen
}

func (s *Simulator) siege(st *model.GameState, now time.Time, res *TickResult) {
	if st.MapEvent != nil || s.Dice.Float64() >= s.Balance.SiegeChance {
		return
	}
	f := hostileFaction(st)
	if f == nil {
		return
	}
	ev := &model.MapEvent{
		ID:        fmt.Sprintf("siege-%d", now.UnixNano()),
		Kind:      model.MapEventSiege,
		FactionID: f.ID,
		Message:   s.Content.Siege(*f),
		StartedAt: now,
		ExpiresAt: now.Add(s.Balance.SiegeDuration),
	}
	st.MapEvent = ev
	st.Log(now, model.HistorySiege, ev.Message, string(f.ID))
	c := *ev
	res.Siege = &c
}

// hostileFaction prefers the lowest-reputation faction that is at least
// hostile, then the lowest overall.
func hostileFaction(st *model.GameState) *model.FactionReputation {
	var pick *model.FactionReputation
	for i := range st.Factions {
		f := &st.Factions[i]
		if f.Status != model.FactionHostile && f.Status != model.FactionWar {
			continue
		}
		if pick == nil || f.Reputation < pick.Reputation {
			pick = f
		}
	}
	if pick != nil {
		return pick
	}
	return st.LowestFaction()
}

func (s *Simulator) vision(st *model.GameState, now time.Time, res *TickResult) {
	if st.Vision != nil {
		return
	}
	var urgent *model.Task
	for i := range st.Tasks {
		t := &st.Tasks[i]
		if t.Terminal() || t.Priority != model.PriorityHigh {
			continue
		}
		until := t.StartTime.Sub(now)
		if until >= 0 && until <= s.Balance.VisionWindow {
			urgent = t
			break
		}
	}
	chance := s.Balance.VisionChanceAmbient
	if urgent != nil {
		chance = s.Balance.VisionChanceUrgent
	}
	if s.Dice.Float64() >= chance {
		return
	}
	v := model.Vision{Message: s.Content.Vision(urgent), OfferedAt: now}
	if urgent != nil {
		v.TaskID = urgent.ID
	}
	st.Vision = &v
	c := v
	res.Vision = &c
}

func (s *Simulator) drift(st *model.GameState, now time.Time, res *TickResult) {
	mad := npc.Drift(st, now, s.Balance)
	for _, n := range mad {
		wild := s.Spawner.Wild(st, model.FactionDreadCult, now)
		st.Enemies = append(st.Enemies, wild)
		st.Log(now, model.HistoryMadness, fmt.Sprintf("%s lost their mind. %s now stalks the realm.", npc.Describe(n), wild.Name), n.ID)
		st.RaiseAlert(model.Alert{
			Kind:      model.AlertMadness,
			Title:     n.Name + " has gone mad",
			Message:   s.Content.Dialogue(n.ID, content.DialogueMadness),
			CreatedAt: now,
		})
		res.WildSpawned = append(res.WildSpawned, wild)
	}
	res.Maddened = mad
}

func (s *Simulator) factions(st *model.GameState, now time.Time, res *TickResult) {
	if s.Dice.Float64() >= s.Balance.FactionEventChance {
		return
	}
	ev, ok := s.Content.WorldEvent(st.Factions)
	if !ok {
		return
	}
	if f := st.Faction(ev.A); f != nil {
		f.Adjust(ev.DeltaA)
	}
	if f := st.Faction(ev.B); f != nil {
		f.Adjust(ev.DeltaB)
	}
	st.Log(now, model.HistoryWorldEvent, ev.Message, string(ev.Kind))
	res.WorldEvent = &ev
}

func (s *Simulator) character(st *model.GameState, now time.Time, res *TickResult) {
	if s.Dice.Float64() >= s.Balance.CharacterChance {
		return
	}
	n := npc.Pick(st, s.Dice.IntN)
	if n == nil {
		return
	}
	ev := CharacterEvent{NPCID: n.ID}
	var msg string
	switch {
	case n.Ally():
		ev.Action = ActionSupport
		ev.Amount = int(s.Balance.SupportAmount)
		ev.Dialogue = s.Content.Dialogue(n.ID, content.DialogueSupport)
		st.AdjustBase(s.Balance.SupportAmount)
		msg = fmt.Sprintf("%s shored up the walls.", npc.Describe(*n))
	case s.Dice.IntN(2) == 0:
		ev.Action = ActionTheft
		ev.Amount = min(st.Gold, s.Balance.TheftAmount)
		ev.Dialogue = s.Content.Dialogue(n.ID, content.DialogueTheft)
		st.AddGold(-ev.Amount)
		msg = fmt.Sprintf("%s made off with %d gold.", npc.Describe(*n), ev.Amount)
	default:
		ev.Action = ActionDrain
		ev.Amount = min(st.Mana, s.Balance.ManaDrainAmount)
		ev.Dialogue = s.Content.Dialogue(n.ID, content.DialogueDrain)
		st.AddMana(-ev.Amount)
		msg = fmt.Sprintf("%s siphoned %d mana.", npc.Describe(*n), ev.Amount)
	}
	n.Remember(now, msg, s.Balance.MemoryCap)
	st.Log(now, model.HistoryCharacter, fmt.Sprintf("%s %q", msg, ev.Dialogue), n.ID)
	res.Character = &ev
}

// UpkeepCost is the gold drained by one upkeep application.
func UpkeepCost(st model.GameState, b config.Balance) int {
	cost := b.UpkeepPerLevel*st.Structures.Total() + b.UpkeepPerMinion*st.Minions.Len()
	return min(b.UpkeepMax, cost)
}

func (s *Simulator) upkeep(st *model.GameState, now time.Time, res *TickResult) {
	if s.Dice.Float64() >= s.Balance.UpkeepChance {
		return
	}
	cost := min(st.Gold, UpkeepCost(*st, s.Balance))
	if cost <= 0 {
		return
	}
	st.AddGold(-cost)
	st.Log(now, model.HistoryWorldEvent, fmt.Sprintf("Upkeep of the realm cost %d gold.", cost), "upkeep")
	res.Upkeep = cost
}
