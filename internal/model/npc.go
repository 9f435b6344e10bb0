package model

import (
	"time"

	"eclipse/internal/ring"
)

type NPCRole string

const (
	RoleBlacksmith NPCRole = "BLACKSMITH"
	RoleScholar    NPCRole = "SCHOLAR"
	RoleMerchant   NPCRole = "MERCHANT"
	RoleGuard      NPCRole = "GUARD"
	RoleFarmer     NPCRole = "FARMER"
	RolePriest     NPCRole = "PRIEST"
	RoleBard       NPCRole = "BARD"
)

type NPCStatus string

const (
	NPCAlive   NPCStatus = "ALIVE"
	NPCMarried NPCStatus = "MARRIED"
	NPCExiled  NPCStatus = "EXILED"
	NPCMad     NPCStatus = "MAD"
	NPCDead    NPCStatus = "DEAD"
)

type NPCStats struct {
	Strength  int `json:"strength"`
	Intellect int `json:"intellect"`
	Loyalty   int `json:"loyalty"`
}

type Memory struct {
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

type NPC struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Role     NPCRole              `json:"role"`
	Race     Race                 `json:"race"`
	Traits   []string             `json:"traits,omitempty"`
	Stats    NPCStats             `json:"stats"`
	Status   NPCStatus            `json:"status"`
	Sanity   float64              `json:"sanity"`
	Memories *ring.Buffer[Memory] `json:"memories"`
}

// Drifts reports whether the NPC still takes part in sanity drift.
func (n NPC) Drifts() bool {
	return n.Status != NPCMad && n.Status != NPCExiled && n.Status != NPCDead
}

// Ally reports whether the NPC sides with the realm in character events.
func (n NPC) Ally() bool { return n.Stats.Loyalty >= 50 }

func (n *NPC) Remember(at time.Time, text string, capacity int) {
	if n.Memories == nil {
		n.Memories = ring.New[Memory](capacity)
	}
	n.Memories.Push(Memory{At: at, Text: text})
}

func (n NPC) clone() NPC {
	c := n
	if n.Traits != nil {
		c.Traits = append([]string(nil), n.Traits...)
	}
	c.Memories = n.Memories.Clone()
	return c
}

// DefaultNPCs is the starting cast of the settlement.
func DefaultNPCs(memoryCap int) []NPC {
	mk := func(id, name string, role NPCRole, race Race, traits []string, stats NPCStats) NPC {
		return NPC{
			ID:       id,
			Name:     name,
			Role:     role,
			Race:     race,
			Traits:   traits,
			Stats:    stats,
			Status:   NPCAlive,
			Sanity:   100,
			Memories: ring.New[Memory](memoryCap),
		}
	}
	return []NPC{
		mk("npc-smith", "Brannoc Emberhand", RoleBlacksmith, RaceDwarf, []string{"stubborn", "diligent"}, NPCStats{Strength: 8, Intellect: 4, Loyalty: 70}),
		mk("npc-scholar", "Ilsevel Quill", RoleScholar, RaceElf, []string{"curious"}, NPCStats{Strength: 2, Intellect: 9, Loyalty: 60}),
		mk("npc-merchant", "Oswin Coinwright", RoleMerchant, RaceHuman, []string{"greedy", "charming"}, NPCStats{Strength: 3, Intellect: 6, Loyalty: 30}),
		mk("npc-guard", "Marta Greyshield", RoleGuard, RaceHuman, []string{"loyal"}, NPCStats{Strength: 7, Intellect: 4, Loyalty: 85}),
		mk("npc-bard", "Pip Larkspur", RoleBard, RaceFey, []string{"fickle"}, NPCStats{Strength: 2, Intellect: 6, Loyalty: 40}),
	}
}
