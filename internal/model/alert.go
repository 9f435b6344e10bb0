package model

import "time"

type AlertKind string

const (
	AlertCrisis       AlertKind = "CRISIS"
	AlertBattleReport AlertKind = "BATTLE_REPORT"
	AlertLevelUp      AlertKind = "LEVEL_UP"
	AlertMadness      AlertKind = "MADNESS"
	AlertInfo         AlertKind = "INFO"
)

// Alert is a blocking message that needs an explicit acknowledgement.
type Alert struct {
	ID        string    `json:"id"`
	Kind      AlertKind `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	TaskID    string    `json:"taskId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CrisisPhase string

const (
	CrisisNone       CrisisPhase = "NONE"
	CrisisActive     CrisisPhase = "CRISIS"
	CrisisHubris     CrisisPhase = "HUBRIS"
	CrisisAeonBattle CrisisPhase = "AEON_BATTLE"
)

type CrisisState struct {
	Phase     CrisisPhase `json:"phase"`
	TaskID    string      `json:"taskId,omitempty"`
	StartedAt time.Time   `json:"startedAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (c CrisisState) Active() bool { return c.Phase != "" && c.Phase != CrisisNone }

type MapEventKind string

const (
	MapEventSiege        MapEventKind = "SIEGE"
	MapEventNightAssault MapEventKind = "NIGHT_ASSAULT"
)

type MapEvent struct {
	ID        string       `json:"id"`
	Kind      MapEventKind `json:"kind"`
	FactionID FactionID    `json:"factionId,omitempty"`
	Message   string       `json:"message"`
	StartedAt time.Time    `json:"startedAt"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Vision is the distraction-mitigation overlay.
type Vision struct {
	TaskID    string    `json:"taskId,omitempty"`
	Message   string    `json:"message"`
	OfferedAt time.Time `json:"offeredAt"`
}

type Effect struct {
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
}

const maxEffects = 32

// UIState is owned by the presentation layer and only stored here.
type UIState struct {
	EditingTask string `json:"editingTask,omitempty"`
	OpenModal   string `json:"openModal,omitempty"`
}

type SyncConfig struct {
	Enabled bool   `json:"enabled"`
	RoomID  string `json:"roomId,omitempty"`
}

type Settings struct {
	Sync          SyncConfig `json:"sync"`
	Notifications bool       `json:"notifications"`
	Sound         bool       `json:"sound"`
}

type ItemKind string

const (
	ItemPotion    ItemKind = "POTION"
	ItemElixir    ItemKind = "ELIXIR"
	ItemEquipment ItemKind = "EQUIPMENT"
	ItemRelic     ItemKind = "RELIC"
)

type Item struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Kind   ItemKind `json:"kind"`
	Rarity string   `json:"rarity"`
	Power  int      `json:"power"`
	Value  int      `json:"value"`
}
