package model

import "time"

type HistoryType string

const (
	HistoryVictory    HistoryType = "VICTORY"
	HistoryDefeat     HistoryType = "DEFEAT"
	HistoryWorldEvent HistoryType = "WORLD_EVENT"
	HistoryNeglect    HistoryType = "NEGLECT"
	HistoryCrisis     HistoryType = "CRISIS"
	HistoryMadness    HistoryType = "MADNESS"
	HistorySiege      HistoryType = "SIEGE"
	HistoryCharacter  HistoryType = "CHARACTER"
	HistoryTrade      HistoryType = "TRADE"
	HistoryDiplomacy  HistoryType = "DIPLOMACY"
	HistoryLevelUp    HistoryType = "LEVEL_UP"
)

type HistoryEntry struct {
	ID        string      `json:"id"`
	Type      HistoryType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Message   string      `json:"message"`
	Cause     string      `json:"cause,omitempty"`
}

type Outcome string

const (
	OutcomeVictory         Outcome = "VICTORY"
	OutcomeCrushingVictory Outcome = "CRUSHING_VICTORY"
	OutcomeDefeat          Outcome = "DEFEAT"
)

// BattleReport is produced once per night phase and never modified.
type BattleReport struct {
	ID                 string    `json:"id"`
	Threat             int       `json:"threat"`
	Defense            int       `json:"defense"`
	Morale             int       `json:"morale"`
	Outcome            Outcome   `json:"outcome"`
	Damage             float64   `json:"damage"`
	GoldLost           int       `json:"goldLost"`
	XPGained           int       `json:"xpGained"`
	Kills              int       `json:"kills"`
	AttackerFactionID  FactionID `json:"attackerFactionId"`
	ConqueredFactionID FactionID `json:"conqueredFactionId,omitempty"`
	ResolvedAt         time.Time `json:"resolvedAt"`
}

type NarrativeStage string

const (
	StageDawn     NarrativeStage = "DAWN"
	StageIncident NarrativeStage = "INCIDENT"
	StageRising   NarrativeStage = "RISING"
	StageClimax   NarrativeStage = "CLIMAX"
)

// Narrative is the story of one calendar day.
type Narrative struct {
	Day       string          `json:"day"`
	Stage     NarrativeStage  `json:"stage"`
	Intensity int             `json:"intensity"`
	Fragments []string        `json:"fragments,omitempty"`
	Seen      map[string]bool `json:"seen,omitempty"`
}

func (n Narrative) clone() Narrative {
	c := n
	if n.Fragments != nil {
		c.Fragments = append([]string(nil), n.Fragments...)
	}
	if n.Seen != nil {
		c.Seen = make(map[string]bool, len(n.Seen))
		for k, v := range n.Seen {
			c.Seen[k] = v
		}
	}
	return c
}
