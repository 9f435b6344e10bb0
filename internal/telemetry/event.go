package telemetry

import (
	"slices"
	"time"
)

type EventType string

const (
	EventTaskCreated       EventType = "task_created"
	EventTaskCompleted     EventType = "task_completed"
	EventTaskFailed        EventType = "task_failed"
	EventTaskDeleted       EventType = "task_deleted"
	EventSubtaskCompleted  EventType = "subtask_completed"
	EventAdversarySpawned  EventType = "adversary_spawned"
	EventAdversarySlain    EventType = "adversary_slain"
	EventCrisisTriggered   EventType = "crisis_triggered"
	EventCrisisResolved    EventType = "crisis_resolved"
	EventNightResolved     EventType = "night_resolved"
	EventWorldTick         EventType = "world_tick"
	EventLootCollected     EventType = "loot_collected"
	EventItemPurchased     EventType = "item_purchased"
	EventStructureUpgraded EventType = "structure_upgraded"
	EventDiplomacy         EventType = "diplomacy"
	EventLevelUp           EventType = "level_up"
)

type Event struct {
	ID        int       `json:"id" db:"id"`
	Type      EventType `json:"type" db:"type"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Metadata  string    `json:"metadata" db:"metadata"`
}

type EventMetadata map[string]interface{}

// Repository is where the engine records what happened in the realm, for
// the stats summary. Recording must never block gameplay for long.
type Repository interface {
	RecordEvent(eventType EventType, metadata EventMetadata) error
	GetEvents(since time.Time, eventTypes []EventType) ([]Event, error)
	Clear() error
}

func wanted(types []EventType, t EventType) bool {
	return len(types) == 0 || slices.Contains(types, t)
}
