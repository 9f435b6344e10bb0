package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period             string            `json:"period"`
	EventCounts        map[EventType]int `json:"event_counts"`
	Days               int               `json:"days"`
	TasksPerDay        float64           `json:"tasks_per_day"`
	TaskCompletions    int               `json:"task_completions"`
	TaskFailures       int               `json:"task_failures"`
	CompletionRate     float64           `json:"completion_rate"`
	AdversariesSpawned int               `json:"adversaries_spawned"`
	AdversariesSlain   int               `json:"adversaries_slain"`
	Crises             int               `json:"crises"`
	Battles            int               `json:"battles"`
	BattlesWon         int               `json:"battles_won"`
	WinRate            float64           `json:"win_rate"`
	Ticks              int               `json:"ticks"`
	LootByKind         map[string]int    `json:"loot_by_kind"`
	GoldSpent          int               `json:"gold_spent"`
}

// CalculateStats computes balance stats from events
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:      since.Format("2006-01-02"),
		EventCounts: make(map[EventType]int),
		LootByKind:  make(map[string]int),
	}
	days := make(map[string]bool)

	for _, event := range events {
		stats.EventCounts[event.Type]++
		days[event.Timestamp.Format("2006-01-02")] = true

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventTaskCompleted:
			stats.TaskCompletions++
		case EventTaskFailed:
			stats.TaskFailures++
		case EventAdversarySpawned:
			stats.AdversariesSpawned += count(metadata, "count")
		case EventAdversarySlain:
			stats.AdversariesSlain += count(metadata, "count")
		case EventCrisisTriggered:
			stats.Crises++
		case EventNightResolved:
			stats.Battles++
			if outcome, _ := metadata["outcome"].(string); outcome != "" && outcome != "DEFEAT" {
				stats.BattlesWon++
			}
		case EventWorldTick:
			stats.Ticks++
		case EventLootCollected:
			if kind, ok := metadata["kind"].(string); ok {
				stats.LootByKind[kind]++
			}
		case EventItemPurchased, EventStructureUpgraded, EventDiplomacy:
			if cost, ok := metadata["gold"].(float64); ok {
				stats.GoldSpent += int(cost)
			}
		}
	}

	stats.Days = len(days)
	if stats.Days > 0 {
		stats.TasksPerDay = float64(stats.TaskCompletions) / float64(stats.Days)
	}
	if n := stats.TaskCompletions + stats.TaskFailures; n > 0 {
		stats.CompletionRate = float64(stats.TaskCompletions) / float64(n)
	}
	if stats.Battles > 0 {
		stats.WinRate = float64(stats.BattlesWon) / float64(stats.Battles)
	}

	return stats, nil
}

// count reads an integer metadata field, defaulting to one.
func count(m EventMetadata, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 1
}
