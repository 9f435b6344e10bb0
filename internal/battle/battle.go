// Package battle holds the night phase arithmetic: who attacks, how strong
// the assault is, how well the realm defends, and what the outcome costs.
package battle

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"eclipse/internal/adversary"
	"eclipse/internal/building"
	"eclipse/internal/config"
	"eclipse/internal/content"
	"eclipse/internal/model"
)

// Attacker is the lowest-reputation faction when it is negative, else the
// Shadow Legion.
func Attacker(st *model.GameState) model.FactionID {
	if low := st.LowestFaction(); low != nil && low.Reputation < 0 {
		return low.ID
	}
	return model.FactionShadowLegion
}

// Threat = base + Σ rank×perRank over present adversaries + 2×|min(0, rep)|.
func Threat(st *model.GameState, attacker model.FactionID, b config.Balance) int {
	threat := b.BaseThreat
	for _, e := range st.Enemies {
		threat += e.Rank * b.ThreatPerRank
	}
	if f := st.Faction(attacker); f != nil && f.Reputation < 0 {
		threat += 2 * -f.Reputation
	}
	return threat
}

type Defense struct {
	Walls   int `json:"walls"`
	Hero    int `json:"hero"`
	Minions int `json:"minions"`
	Morale  int `json:"morale"`
}

func (d Defense) Total() int { return d.Walls + d.Hero + d.Minions + d.Morale }

// Morale scales the raw defense by how hopeful the realm is. It is negative
// below 50 hope.
func Morale(raw int, hope float64) int {
	return int(math.Floor(float64(raw) * (hope - 50) / 100))
}

func ComputeDefense(st model.GameState, b config.Balance) Defense {
	d := Defense{
		Walls:   building.WallDefense(st.Structures, b),
		Hero:    st.Level*b.HeroDefensePerLvl + building.Equipment(st),
		Minions: st.Minions.Len() * b.MinionDefense,
	}
	d.Morale = Morale(d.Walls+d.Hero+d.Minions, st.Realm.Hope)
	return d
}

// Classify applies the outcome rules. Crushing requires the victory
// condition, the crushing level and a margin above half the threat.
func Classify(threat, defense, level int, b config.Balance) model.Outcome {
	diff := defense - threat
	if diff < 0 {
		return model.OutcomeDefeat
	}
	if level >= b.CrushingLevel && float64(diff) > 0.5*float64(threat) {
		return model.OutcomeCrushingVictory
	}
	return model.OutcomeVictory
}

// Resolve computes the battle from st as it is now and applies its
// consequences in place.
func Resolve(st *model.GameState, now time.Time, b config.Balance, d content.Dice) model.BattleReport {
	attacker := Attacker(st)
	threat := Threat(st, attacker, b)
	def := ComputeDefense(*st, b)
	defense := def.Total()

	r := model.BattleReport{
		ID:                uuid.NewString(),
		Threat:            threat,
		Defense:           defense,
		Morale:            def.Morale,
		Outcome:           Classify(threat, defense, st.Level, b),
		AttackerFactionID: attacker,
		ResolvedAt:        now,
	}

	switch r.Outcome {
	case model.OutcomeVictory, model.OutcomeCrushingVictory:
		r.Kills = 1 + d.IntN(5)
		r.XPGained = r.Kills * b.NightXPPerKill
		adversary.RemoveWild(st, r.Kills)
		st.ApplyRealm(b.Realm.Victory)
		if r.Outcome == model.OutcomeCrushingVictory {
			if f := st.Faction(attacker); f != nil {
				f.Adjust(b.CounterSiegeBump)
				if f.Status == model.FactionWar {
					f.Reputation = -59
					f.Status = model.StatusFor(f.Reputation)
				}
			}
			r.ConqueredFactionID = attacker
		}
		st.GainXP(r.XPGained, now, b)
		st.Log(now, model.HistoryVictory, victoryText(r), "night")
	default:
		r.Damage = math.Abs(float64(defense - threat))
		r.GoldLost = st.Gold * b.PlunderPct / 100
		st.AdjustBase(-r.Damage)
		st.AddGold(-r.GoldLost)
		st.LossStreak++
		st.ApplyRealm(b.Realm.Defeat)
		st.Log(now, model.HistoryDefeat, fmt.Sprintf("The walls broke. %.0f damage taken, %d gold plundered.", r.Damage, r.GoldLost), "night")
	}

	report := r
	st.LastBattle = &report
	st.RaiseAlert(model.Alert{
		Kind:      model.AlertBattleReport,
		Title:     string(r.Outcome),
		Message:   fmt.Sprintf("Threat %d against defense %d.", threat, defense),
		CreatedAt: now,
	})
	return r
}

func victoryText(r model.BattleReport) string {
	if r.Outcome == model.OutcomeCrushingVictory {
		return fmt.Sprintf("A crushing victory: %d foes slain and the attackers driven home.", r.Kills)
	}
	return fmt.Sprintf("The night held. %d foes slain.", r.Kills)
}
