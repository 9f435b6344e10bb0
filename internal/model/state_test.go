package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"eclipse/internal/config"
)

func TestStatusFor_Bands(t *testing.T) {
	tests := []struct {
		rep  int
		want FactionStatus
	}{
		{-100, FactionWar},
		{-60, FactionWar},
		{-59, FactionHostile},
		{-20, FactionHostile},
		{-19, FactionNeutral},
		{19, FactionNeutral},
		{20, FactionFriendly},
		{59, FactionFriendly},
		{60, FactionAllied},
		{100, FactionAllied},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.rep), "rep %d", tt.rep)
	}
}

func TestCorrectWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, start.Add(time.Hour), CorrectWindow(start, start, time.Hour))
	assert.Equal(t, start.Add(time.Hour), CorrectWindow(start, start.Add(-time.Minute), time.Hour))
	assert.Equal(t, start.Add(2*time.Hour), CorrectWindow(start, start.Add(2*time.Hour), time.Hour))
}

func TestCorrectWindow_DeadlineAlwaysAfterStart(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := time.Unix(rapid.Int64Range(0, 4e9).Draw(rt, "start"), 0)
		offset := time.Duration(rapid.Int64Range(-1e6, 1e6).Draw(rt, "offset")) * time.Second
		got := CorrectWindow(start, start.Add(offset), time.Hour)
		if !got.After(start) {
			rt.Fatalf("deadline %v not after start %v", got, start)
		}
	})
}

func TestNormalize_ClampsBoundedQuantities(t *testing.T) {
	b := config.Default()
	rapid.Check(t, func(rt *rapid.T) {
		s := NewGameState(b)
		s.Gold = rapid.IntRange(-1000, 1000).Draw(rt, "gold")
		s.Mana = rapid.IntRange(-500, 500).Draw(rt, "mana")
		s.HeroHP = rapid.IntRange(-500, 500).Draw(rt, "heroHp")
		s.BaseHP = rapid.Float64Range(-2000, 2000).Draw(rt, "baseHp")
		s.Realm.Hope = rapid.Float64Range(-50, 150).Draw(rt, "hope")
		s.Realm.Fear = rapid.Float64Range(-50, 150).Draw(rt, "fear")
		s.Factions[0].Reputation = rapid.IntRange(-300, 300).Draw(rt, "rep")

		s.Normalize(b)

		if s.Gold < 0 {
			rt.Fatalf("gold %d negative", s.Gold)
		}
		if s.Mana < 0 || s.Mana > s.MaxMana {
			rt.Fatalf("mana %d outside [0,%d]", s.Mana, s.MaxMana)
		}
		if s.HeroHP < 0 || s.HeroHP > s.MaxHeroHP {
			rt.Fatalf("hero hp %d outside [0,%d]", s.HeroHP, s.MaxHeroHP)
		}
		if s.BaseHP < 0 || s.BaseHP > s.MaxBaseHP {
			rt.Fatalf("base hp %v outside [0,%v]", s.BaseHP, s.MaxBaseHP)
		}
		if s.Realm.Hope < 0 || s.Realm.Hope > 100 || s.Realm.Fear < 0 || s.Realm.Fear > 100 {
			rt.Fatalf("realm out of range: %+v", s.Realm)
		}
		rep := s.Factions[0]
		if rep.Reputation < -100 || rep.Reputation > 100 || rep.Status != StatusFor(rep.Reputation) {
			rt.Fatalf("faction out of range: %+v", rep)
		}
	})
}

func TestNormalize_RepairsMissingCollections(t *testing.T) {
	b := config.Default()
	s := GameState{BaseHP: math.NaN()}
	s.Normalize(b)

	assert.Equal(t, 1, s.Level)
	assert.NotNil(t, s.Tasks)
	assert.NotNil(t, s.Enemies)
	assert.Len(t, s.Factions, len(Factions()))
	assert.Equal(t, b.HistoryCap, s.History.Cap())
	assert.Equal(t, b.MinionCap, s.Minions.Cap())
	assert.Equal(t, b.GraveyardCap, s.Graveyard.Cap())
	assert.Equal(t, 0.0, s.BaseHP)
	assert.Equal(t, CrisisNone, s.Crisis.Phase)
}

func TestClone_IsDeep(t *testing.T) {
	b := config.Default()
	s := NewGameState(b)
	s.Tasks = append(s.Tasks, Task{ID: "t1", Subtasks: []Subtask{{ID: "s1", Title: "one"}}})
	s.Narrative.Seen = map[string]bool{"a": true}
	s.Log(time.Now(), HistoryVictory, "won", "")

	c := s.Clone()
	c.Tasks[0].Subtasks[0].Title = "changed"
	c.Factions[0].Reputation = 99
	c.Narrative.Seen["b"] = true
	c.Log(time.Now(), HistoryDefeat, "lost", "")
	c.NPCs[0].Remember(time.Now(), "a memory", b.MemoryCap)

	assert.Equal(t, "one", s.Tasks[0].Subtasks[0].Title)
	assert.NotEqual(t, 99, s.Factions[0].Reputation)
	assert.Len(t, s.Narrative.Seen, 1)
	assert.Equal(t, 1, s.History.Len())
	assert.Equal(t, 0, s.NPCs[0].Memories.Len())
}

func TestSanitize_ResetsTransientFields(t *testing.T) {
	s := NewGameState(config.Default())
	now := time.Now()
	s.RaiseAlert(Alert{Kind: AlertCrisis, Title: "crisis"})
	s.RaiseAlert(Alert{Kind: AlertInfo, Title: "queued"})
	s.Crisis = CrisisState{Phase: CrisisAeonBattle, TaskID: "t1"}
	s.MapEvent = &MapEvent{Kind: MapEventSiege}
	s.Vision = &Vision{Message: "focus"}
	s.PushEffect("victory", now)
	s.UI.EditingTask = "t1"
	s.Gold = 321

	clean := s.Sanitize()

	assert.Nil(t, clean.Alert)
	assert.Empty(t, clean.PendingAlerts)
	assert.Equal(t, CrisisNone, clean.Crisis.Phase)
	assert.Nil(t, clean.MapEvent)
	assert.Nil(t, clean.Vision)
	assert.Empty(t, clean.Effects)
	assert.Equal(t, UIState{}, clean.UI)
	assert.Equal(t, 321, clean.Gold)

	require.NotNil(t, s.Alert, "source state must not be touched")
}

func TestMergeRemote_KeepsLocalTransients(t *testing.T) {
	b := config.Default()
	local := NewGameState(b)
	local.UI.OpenModal = "shop"
	local.RaiseAlert(Alert{Kind: AlertCrisis})
	local.Crisis = CrisisState{Phase: CrisisActive, TaskID: "t1"}

	remote := NewGameState(b)
	remote.Gold = 999

	merged := MergeRemote(local, remote)
	assert.Equal(t, 999, merged.Gold)
	assert.Equal(t, "shop", merged.UI.OpenModal)
	require.NotNil(t, merged.Alert)
	assert.Equal(t, AlertCrisis, merged.Alert.Kind)
	assert.Equal(t, CrisisActive, merged.Crisis.Phase)
}

func TestAlertQueue(t *testing.T) {
	s := NewGameState(config.Default())
	_, ok := s.AckAlert()
	assert.False(t, ok)

	s.RaiseAlert(Alert{Title: "first"})
	s.RaiseAlert(Alert{Title: "second"})

	acked, ok := s.AckAlert()
	require.True(t, ok)
	assert.Equal(t, "first", acked.Title)
	require.NotNil(t, s.Alert)
	assert.Equal(t, "second", s.Alert.Title)

	_, ok = s.AckAlert()
	require.True(t, ok)
	assert.Nil(t, s.Alert)
}

func TestRealmApply_Clamps(t *testing.T) {
	r := RealmStats{Hope: 98, Fear: 1, Order: 50}
	got := r.Apply(config.RealmDelta{Hope: 5, Fear: -3, Order: 2})
	assert.Equal(t, RealmStats{Hope: 100, Fear: 0, Order: 52}, got)
}

func TestTaskProgress(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	task := Task{StartTime: start, Deadline: start.Add(4 * time.Hour)}
	assert.InDelta(t, 0.75, task.Progress(start.Add(3*time.Hour)), 1e-9)
	assert.InDelta(t, -0.25, task.Progress(start.Add(-time.Hour)), 1e-9)
	assert.Equal(t, 4.0, task.DurationHours())
}
