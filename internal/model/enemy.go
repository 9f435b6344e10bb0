package model

import "time"

type Race string

const (
	RaceHuman     Race = "HUMAN"
	RaceOrc       Race = "ORC"
	RaceElf       Race = "ELF"
	RaceUndead    Race = "UNDEAD"
	RaceGoblin    Race = "GOBLIN"
	RaceKobold    Race = "KOBOLD"
	RaceConstruct Race = "CONSTRUCT"
	RaceFey       Race = "FEY"
	RaceDemon     Race = "DEMON"
	RaceDwarf     Race = "DWARF"
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Enemy is the adversary bound to a task or subtask. Wild enemies belong
// to no task.
type Enemy struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId,omitempty"`
	SubtaskID string    `json:"subtaskId,omitempty"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Lineage   string    `json:"lineage"`
	Lore      string    `json:"lore,omitempty"`
	Race      Race      `json:"race"`
	FactionID FactionID `json:"factionId"`
	Rank      int       `json:"rank"`
	HP        int       `json:"hp"`
	MaxHP     int       `json:"maxHp"`
	Scale     float64   `json:"scale"`
	Position  Vec3      `json:"position"`
	Wild      bool      `json:"wild,omitempty"`
	Revenge   bool      `json:"revenge,omitempty"`
	SpawnedAt time.Time `json:"spawnedAt"`
}

func (e Enemy) Primary() bool { return !e.Wild && e.TaskID != "" && e.SubtaskID == "" }

type Minion struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Race       Race      `json:"race"`
	FromTaskID string    `json:"fromTaskId,omitempty"`
	RaisedAt   time.Time `json:"raisedAt"`
}

type GraveyardEntry struct {
	EnemyID    string    `json:"enemyId"`
	Name       string    `json:"name"`
	Lineage    string    `json:"lineage"`
	Race       Race      `json:"race"`
	FactionID  FactionID `json:"factionId"`
	Rank       int       `json:"rank"`
	TaskID     string    `json:"taskId,omitempty"`
	DefeatedAt time.Time `json:"defeatedAt"`
}
