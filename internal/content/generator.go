// Package content produces names, lore, loot and flavor text for the
// simulation. Nothing here affects game balance except through the values
// the caller asks for.
package content

import (
	"eclipse/internal/model"
)

type IdentityRequest struct {
	FactionID model.FactionID
	Race      model.Race
	Priority  model.Priority
	Rank      int
	Lineage   string // set for revenge spawns
	TaskTitle string
	Subtask   bool
}

type Identity struct {
	Name    string
	Title   string
	Lineage string
	Lore    string
}

type WorldEventKind string

const (
	EventWar       WorldEventKind = "WAR"
	EventAlliance  WorldEventKind = "ALLIANCE"
	EventPolitical WorldEventKind = "POLITICAL"
	EventMystic    WorldEventKind = "MYSTIC"
)

// WorldEvent is one procedural inter-faction happening.
type WorldEvent struct {
	Kind    WorldEventKind
	A, B    model.FactionID
	DeltaA  int
	DeltaB  int
	Message string
}

type DialogueContext string

const (
	DialogueTheft   DialogueContext = "theft"
	DialogueDrain   DialogueContext = "drain"
	DialogueSupport DialogueContext = "support"
	DialogueMadness DialogueContext = "madness"
	DialogueVictory DialogueContext = "victory"
)

// Generator is the content service the engine consumes.
type Generator interface {
	Identity(req IdentityRequest) Identity
	Item(effectiveLevel int) model.Item
	WorldEvent(factions []model.FactionReputation) (WorldEvent, bool)
	Dialogue(characterID string, ctx DialogueContext) string
	Narrative(entry model.HistoryEntry, stage model.NarrativeStage) string
	Siege(faction model.FactionReputation) string
	Vision(task *model.Task) string
	MinionName(race model.Race) string
}
