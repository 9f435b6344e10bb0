package telemetry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

var day1 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func repositories(t *testing.T, clock *fakeClock) map[string]Repository {
	t.Helper()
	conn, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	sqlRepo, err := NewSQLiteRepository(conn)
	require.NoError(t, err)

	return map[string]Repository{
		"memory": NewMemoryRepository(0).WithClock(clock.now),
		"sqlite": sqlRepo.WithClock(clock.now),
	}
}

func TestRepositories(t *testing.T) {
	clock := &fakeClock{t: day1}
	for name, repo := range repositories(t, clock) {
		t.Run(name, func(t *testing.T) {
			clock.t = day1
			require.NoError(t, repo.RecordEvent(EventTaskCreated, EventMetadata{"task_id": "a"}))
			clock.t = day1.Add(time.Hour)
			require.NoError(t, repo.RecordEvent(EventTaskCompleted, EventMetadata{"task_id": "a"}))
			require.NoError(t, repo.RecordEvent(EventWorldTick, nil))

			all, err := repo.GetEvents(time.Time{}, nil)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, EventTaskCreated, all[0].Type)
			assert.JSONEq(t, `{"task_id":"a"}`, all[0].Metadata)

			later, err := repo.GetEvents(day1.Add(time.Minute), nil)
			require.NoError(t, err)
			assert.Len(t, later, 2)

			filtered, err := repo.GetEvents(time.Time{}, []EventType{EventTaskCompleted, EventTaskCreated})
			require.NoError(t, err)
			assert.Len(t, filtered, 2)

			require.NoError(t, repo.Clear())
			all, err = repo.GetEvents(time.Time{}, nil)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestCalculateStats(t *testing.T) {
	clock := &fakeClock{t: day1}
	repo := NewMemoryRepository(0).WithClock(clock.now)

	record := func(at time.Time, typ EventType, md EventMetadata) {
		clock.t = at
		require.NoError(t, repo.RecordEvent(typ, md))
	}
	record(day1, EventTaskCompleted, EventMetadata{})
	record(day1, EventTaskCompleted, EventMetadata{})
	record(day1, EventTaskFailed, EventMetadata{})
	record(day1, EventAdversarySpawned, EventMetadata{"count": 3})
	record(day1, EventAdversarySlain, EventMetadata{})
	record(day1.Add(24*time.Hour), EventTaskCompleted, EventMetadata{})
	record(day1.Add(24*time.Hour), EventNightResolved, EventMetadata{"outcome": "CRUSHING_VICTORY"})
	record(day1.Add(24*time.Hour), EventNightResolved, EventMetadata{"outcome": "DEFEAT"})
	record(day1.Add(24*time.Hour), EventLootCollected, EventMetadata{"kind": "POTION"})
	record(day1.Add(24*time.Hour), EventItemPurchased, EventMetadata{"gold": 40})

	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	stats, err := CalculateStats(events, day1)
	require.NoError(t, err)

	assert.Equal(t, "2026-05-01", stats.Period)
	assert.Equal(t, 2, stats.Days)
	assert.Equal(t, 3, stats.TaskCompletions)
	assert.Equal(t, 1.5, stats.TasksPerDay)
	assert.Equal(t, 0.75, stats.CompletionRate)
	assert.Equal(t, 3, stats.AdversariesSpawned)
	assert.Equal(t, 1, stats.AdversariesSlain)
	assert.Equal(t, 2, stats.Battles)
	assert.Equal(t, 0.5, stats.WinRate)
	assert.Equal(t, 1, stats.LootByKind["POTION"])
	assert.Equal(t, 40, stats.GoldSpent)
	assert.Equal(t, 3, stats.EventCounts[EventTaskCompleted])
}

func TestMemoryRepository_KeepsNewestEvents(t *testing.T) {
	clock := &fakeClock{t: day1}
	repo := NewMemoryRepository(3).WithClock(clock.now)

	for i := 0; i < 5; i++ {
		clock.t = day1.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.RecordEvent(EventWorldTick, EventMetadata{"n": i}))
	}

	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []int{3, 4, 5}, []int{events[0].ID, events[1].ID, events[2].ID})
	assert.JSONEq(t, `{"n":4}`, events[2].Metadata)
	assert.Equal(t, 2, repo.Evicted())

	require.NoError(t, repo.Clear())
	assert.Zero(t, repo.Evicted())
	require.NoError(t, repo.RecordEvent(EventWorldTick, nil))
	events, err = repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].ID)
}

func TestMemoryRepository_DefaultCapacity(t *testing.T) {
	repo := NewMemoryRepository(0)
	for i := 0; i < DefaultMemoryCapacity+10; i++ {
		require.NoError(t, repo.RecordEvent(EventWorldTick, nil))
	}
	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Len(t, events, DefaultMemoryCapacity)
	assert.Equal(t, 10, repo.Evicted())
}
