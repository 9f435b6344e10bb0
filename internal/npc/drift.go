// Package npc ages the settlement's characters: sanity drift under fear and
// the memories they keep of what happened.
package npc

import (
	"fmt"
	"math"
	"strings"
	"time"

	"eclipse/internal/config"
	"eclipse/internal/model"
)

// Decay is the sanity lost per tick under the given realm mood.
func Decay(r model.RealmStats, b config.Balance) float64 {
	return math.Max(0, (r.Fear-r.Hope)*b.SanityDecayFactor)
}

// Drift applies one tick of sanity decay to every drifting NPC and returns
// those who went mad on this tick. Madness is permanent, so an NPC is
// returned at most once over its lifetime.
func Drift(st *model.GameState, now time.Time, b config.Balance) []model.NPC {
	decay := Decay(st.Realm, b)
	if decay == 0 {
		return nil
	}
	var mad []model.NPC
	for i := range st.NPCs {
		n := &st.NPCs[i]
		if !n.Drifts() {
			continue
		}
		n.Sanity = math.Max(0, n.Sanity-decay)
		if n.Sanity < b.MadnessThreshold {
			n.Status = model.NPCMad
			n.Remember(now, "The whispers won.", b.MemoryCap)
			mad = append(mad, *n)
		}
	}
	return mad
}

// Witness records an event in the memory of every NPC still of sound mind.
func Witness(st *model.GameState, now time.Time, text string, b config.Balance) {
	for i := range st.NPCs {
		n := &st.NPCs[i]
		if n.Status == model.NPCAlive || n.Status == model.NPCMarried {
			n.Remember(now, text, b.MemoryCap)
		}
	}
}

// Pick returns a random NPC able to act, or nil.
func Pick(st *model.GameState, roll func(n int) int) *model.NPC {
	var idx []int
	for i, n := range st.NPCs {
		if n.Status == model.NPCAlive || n.Status == model.NPCMarried {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil
	}
	return &st.NPCs[idx[roll(len(idx))]]
}

func Describe(n model.NPC) string {
	return fmt.Sprintf("%s the %s", n.Name, strings.ToLower(string(n.Role)))
}
