package model

import (
	"math"
	"time"

	"github.com/google/uuid"

	"eclipse/internal/config"
	"eclipse/internal/ring"
)

// GameState is the root aggregate. Every mutation goes through the store.
type GameState struct {
	Level          int     `json:"level"`
	XP             int     `json:"xp"`
	Gold           int     `json:"gold"`
	Mana           int     `json:"mana"`
	MaxMana        int     `json:"maxMana"`
	HeroHP         int     `json:"heroHp"`
	MaxHeroHP      int     `json:"maxHeroHp"`
	BaseHP         float64 `json:"baseHp"`
	MaxBaseHP      float64 `json:"maxBaseHp"`
	EquipmentBonus int     `json:"equipmentBonus"`
	WinStreak      int     `json:"winStreak"`
	LossStreak     int     `json:"lossStreak"`

	Tasks      []Task              `json:"tasks"`
	Enemies    []Enemy             `json:"enemies"`
	NPCs       []NPC               `json:"npcs"`
	Factions   []FactionReputation `json:"factions"`
	Realm      RealmStats          `json:"realm"`
	Structures Structures          `json:"structures"`
	Inventory  []Item              `json:"inventory"`

	History   *ring.Buffer[HistoryEntry]   `json:"history"`
	Minions   *ring.Buffer[Minion]         `json:"minions"`
	Graveyard *ring.Buffer[GraveyardEntry] `json:"graveyard"`

	LastBattle *BattleReport `json:"lastBattle,omitempty"`
	Narrative  Narrative     `json:"narrative"`
	Settings   Settings      `json:"settings"`
	LastTickAt time.Time     `json:"lastTickAt"`

	// Transient: reset by Sanitize, kept local on remote merge.
	Crisis        CrisisState `json:"crisis"`
	Alert         *Alert      `json:"alert,omitempty"`
	PendingAlerts []Alert     `json:"pendingAlerts,omitempty"`
	MapEvent      *MapEvent   `json:"mapEvent,omitempty"`
	Vision        *Vision     `json:"vision,omitempty"`
	Effects       []Effect    `json:"effects,omitempty"`
	UI            UIState     `json:"ui"`
}

// NewGameState returns the fresh default state.
func NewGameState(b config.Balance) GameState {
	return GameState{
		Level:      1,
		Gold:       150,
		Mana:       50,
		MaxMana:    100,
		HeroHP:     100,
		MaxHeroHP:  100,
		BaseHP:     500,
		MaxBaseHP:  500,
		Tasks:      []Task{},
		Enemies:    []Enemy{},
		NPCs:       DefaultNPCs(b.MemoryCap),
		Factions:   DefaultFactionTable(),
		Realm:      DefaultRealm(),
		Structures: DefaultStructures(),
		Inventory:  []Item{},
		History:    ring.New[HistoryEntry](b.HistoryCap),
		Minions:    ring.New[Minion](b.MinionCap),
		Graveyard:  ring.New[GraveyardEntry](b.GraveyardCap),
		Narrative:  Narrative{Stage: StageDawn},
		Settings:   Settings{Notifications: true, Sound: true},
		Crisis:     CrisisState{Phase: CrisisNone},
	}
}

// Clone returns a deep copy sharing no mutable memory with s.
func (s GameState) Clone() GameState {
	c := s
	if s.Tasks != nil {
		c.Tasks = make([]Task, len(s.Tasks))
		for i, t := range s.Tasks {
			c.Tasks[i] = t.clone()
		}
	}
	if s.Enemies != nil {
		c.Enemies = append([]Enemy(nil), s.Enemies...)
	}
	if s.NPCs != nil {
		c.NPCs = make([]NPC, len(s.NPCs))
		for i, n := range s.NPCs {
			c.NPCs[i] = n.clone()
		}
	}
	if s.Factions != nil {
		c.Factions = append([]FactionReputation(nil), s.Factions...)
	}
	if s.Inventory != nil {
		c.Inventory = append([]Item(nil), s.Inventory...)
	}
	c.History = s.History.Clone()
	c.Minions = s.Minions.Clone()
	c.Graveyard = s.Graveyard.Clone()
	if s.LastBattle != nil {
		r := *s.LastBattle
		c.LastBattle = &r
	}
	c.Narrative = s.Narrative.clone()
	if s.Alert != nil {
		a := *s.Alert
		c.Alert = &a
	}
	if s.PendingAlerts != nil {
		c.PendingAlerts = append([]Alert(nil), s.PendingAlerts...)
	}
	if s.MapEvent != nil {
		m := *s.MapEvent
		c.MapEvent = &m
	}
	if s.Vision != nil {
		v := *s.Vision
		c.Vision = &v
	}
	if s.Effects != nil {
		c.Effects = append([]Effect(nil), s.Effects...)
	}
	return c
}

// Normalize clamps every bounded quantity and repairs structural gaps such
// as missing collections. It never fails.
func (s *GameState) Normalize(b config.Balance) {
	if s.Level < 1 {
		s.Level = 1
	}
	s.XP = max(s.XP, 0)
	s.Gold = max(s.Gold, 0)
	s.MaxMana = max(s.MaxMana, 1)
	s.Mana = clampInt(s.Mana, 0, s.MaxMana)
	s.MaxHeroHP = max(s.MaxHeroHP, 1)
	s.HeroHP = clampInt(s.HeroHP, 0, s.MaxHeroHP)
	if math.IsNaN(s.MaxBaseHP) || s.MaxBaseHP <= 0 {
		s.MaxBaseHP = 500
	}
	s.BaseHP = clampFloat(s.BaseHP, 0, s.MaxBaseHP)
	s.EquipmentBonus = max(s.EquipmentBonus, 0)
	s.WinStreak = max(s.WinStreak, 0)
	s.LossStreak = max(s.LossStreak, 0)

	s.Realm = s.Realm.clamped()
	s.Structures.Forge = max(s.Structures.Forge, 0)
	s.Structures.Walls = max(s.Structures.Walls, 0)
	s.Structures.Library = max(s.Structures.Library, 0)
	s.Structures.Market = max(s.Structures.Market, 0)

	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	for i := range s.Tasks {
		t := &s.Tasks[i]
		t.Deadline = CorrectWindow(t.StartTime, t.Deadline, b.DeadlineFallback)
		if !t.Priority.Valid() {
			t.Priority = PriorityMedium
		}
	}
	if s.Enemies == nil {
		s.Enemies = []Enemy{}
	}
	for i := range s.Enemies {
		e := &s.Enemies[i]
		e.Rank = clampInt(e.Rank, 1, 10)
		e.MaxHP = max(e.MaxHP, 1)
		e.HP = clampInt(e.HP, 0, e.MaxHP)
	}
	if s.Inventory == nil {
		s.Inventory = []Item{}
	}
	if len(s.Factions) == 0 {
		s.Factions = DefaultFactionTable()
	}
	for i := range s.Factions {
		s.Factions[i].Adjust(0)
	}
	if s.NPCs == nil {
		s.NPCs = DefaultNPCs(b.MemoryCap)
	}
	for i := range s.NPCs {
		n := &s.NPCs[i]
		n.Sanity = clampFloat(n.Sanity, 0, 100)
		if n.Memories == nil {
			n.Memories = ring.New[Memory](b.MemoryCap)
		}
		n.Memories.Resize(b.MemoryCap)
	}

	if s.History == nil {
		s.History = ring.New[HistoryEntry](b.HistoryCap)
	}
	s.History.Resize(b.HistoryCap)
	if s.Minions == nil {
		s.Minions = ring.New[Minion](b.MinionCap)
	}
	s.Minions.Resize(b.MinionCap)
	if s.Graveyard == nil {
		s.Graveyard = ring.New[GraveyardEntry](b.GraveyardCap)
	}
	s.Graveyard.Resize(b.GraveyardCap)

	if s.Narrative.Stage == "" {
		s.Narrative.Stage = StageDawn
	}
	if s.Crisis.Phase == "" {
		s.Crisis.Phase = CrisisNone
	}
	if len(s.Effects) > maxEffects {
		s.Effects = s.Effects[len(s.Effects)-maxEffects:]
	}
}

// Sanitize returns a copy with every transient field reset to its neutral
// value. This is the shape that gets saved and pushed to remote peers.
func (s GameState) Sanitize() GameState {
	c := s.Clone()
	c.Crisis = CrisisState{Phase: CrisisNone}
	c.Alert = nil
	c.PendingAlerts = nil
	c.MapEvent = nil
	c.Vision = nil
	c.Effects = nil
	c.UI = UIState{}
	return c
}

// MergeRemote adopts remote as the new durable state while keeping the
// local transient and UI fields.
func MergeRemote(local, remote GameState) GameState {
	out := remote.Clone()
	l := local.Clone()
	out.Crisis = l.Crisis
	out.Alert = l.Alert
	out.PendingAlerts = l.PendingAlerts
	out.MapEvent = l.MapEvent
	out.Vision = l.Vision
	out.Effects = l.Effects
	out.UI = l.UI
	return out
}

func (s *GameState) TaskIndex(id string) int {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *GameState) Faction(id FactionID) *FactionReputation {
	for i := range s.Factions {
		if s.Factions[i].ID == id {
			return &s.Factions[i]
		}
	}
	return nil
}

// LowestFaction returns the faction with the lowest reputation. Ties keep
// catalog order.
func (s *GameState) LowestFaction() *FactionReputation {
	var low *FactionReputation
	for i := range s.Factions {
		if low == nil || s.Factions[i].Reputation < low.Reputation {
			low = &s.Factions[i]
		}
	}
	return low
}

// Log appends a history entry and returns it.
func (s *GameState) Log(at time.Time, typ HistoryType, msg, cause string) HistoryEntry {
	e := HistoryEntry{
		ID:        uuid.NewString(),
		Type:      typ,
		Timestamp: at,
		Message:   msg,
		Cause:     cause,
	}
	if s.History == nil {
		s.History = ring.New[HistoryEntry](config.Default().HistoryCap)
	}
	s.History.Push(e)
	return e
}

// RaiseAlert shows a as the active alert, or queues it behind the current one.
func (s *GameState) RaiseAlert(a Alert) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if s.Alert == nil {
		s.Alert = &a
		return
	}
	s.PendingAlerts = append(s.PendingAlerts, a)
}

// AckAlert clears the active alert and promotes the next queued one.
func (s *GameState) AckAlert() (Alert, bool) {
	if s.Alert == nil {
		return Alert{}, false
	}
	acked := *s.Alert
	s.Alert = nil
	if len(s.PendingAlerts) > 0 {
		next := s.PendingAlerts[0]
		s.PendingAlerts = s.PendingAlerts[1:]
		s.Alert = &next
	}
	return acked, true
}

func (s *GameState) PushEffect(kind string, at time.Time) {
	s.Effects = append(s.Effects, Effect{Kind: kind, At: at})
	if len(s.Effects) > maxEffects {
		s.Effects = s.Effects[len(s.Effects)-maxEffects:]
	}
}

// ApplyRealm shifts realm stats by a fixed delta.
func (s *GameState) ApplyRealm(d config.RealmDelta) {
	s.Realm = s.Realm.Apply(d)
}
