package config

import "time"

// Balance holds gameplay balance configuration
type Balance struct {
	// Task rewards
	XPPerPriority       int           `yaml:"xp_per_priority" json:"xp_per_priority"`
	GoldPerPriority     int           `yaml:"gold_per_priority" json:"gold_per_priority"`
	SubtaskXP           int           `yaml:"subtask_xp" json:"subtask_xp"`
	SubtaskGold         int           `yaml:"subtask_gold" json:"subtask_gold"`
	FailureHeroDamage   int           `yaml:"failure_hero_damage" json:"failure_hero_damage"`
	VictoryManaReward   int           `yaml:"victory_mana_reward" json:"victory_mana_reward"`
	XPPerLevel          int           `yaml:"xp_per_level" json:"xp_per_level"`
	HeroHPPerLevel      int           `yaml:"hero_hp_per_level" json:"hero_hp_per_level"`
	DeadlineFallback    time.Duration `yaml:"deadline_fallback" json:"deadline_fallback"`
	ForesightDaysHigh   int           `yaml:"foresight_days_high" json:"foresight_days_high"`
	ForesightDaysMedium int           `yaml:"foresight_days_medium" json:"foresight_days_medium"`
	ForesightDaysLow    int           `yaml:"foresight_days_low" json:"foresight_days_low"`

	// Loot
	LootBaseChance     float64 `yaml:"loot_base_chance" json:"loot_base_chance"`
	LootChancePerLevel float64 `yaml:"loot_chance_per_level" json:"loot_chance_per_level"`

	// Collections
	MinionCap    int `yaml:"minion_cap" json:"minion_cap"`
	GraveyardCap int `yaml:"graveyard_cap" json:"graveyard_cap"`
	HistoryCap   int `yaml:"history_cap" json:"history_cap"`
	MemoryCap    int `yaml:"memory_cap" json:"memory_cap"`

	// Reactive spawn rules
	RevengeChance    float64 `yaml:"revenge_chance" json:"revenge_chance"`
	FearThreshold    float64 `yaml:"fear_threshold" json:"fear_threshold"`
	OrderThreshold   float64 `yaml:"order_threshold" json:"order_threshold"`
	DespairThreshold float64 `yaml:"despair_threshold" json:"despair_threshold"`
	ScaleCap         float64 `yaml:"scale_cap" json:"scale_cap"`
	RingRadiusMin    float64 `yaml:"ring_radius_min" json:"ring_radius_min"`
	RingRadiusMax    float64 `yaml:"ring_radius_max" json:"ring_radius_max"`

	// Crisis
	CrisisThreshold  float64       `yaml:"crisis_threshold" json:"crisis_threshold"`
	AeonBattleWindow time.Duration `yaml:"aeon_battle_window" json:"aeon_battle_window"`
	AeonMinSteps     int           `yaml:"aeon_min_steps" json:"aeon_min_steps"`
	AeonMinStepLen   int           `yaml:"aeon_min_step_len" json:"aeon_min_step_len"`

	// Night phase
	NightDelay         time.Duration `yaml:"night_delay" json:"night_delay"`
	BaseThreat         int           `yaml:"base_threat" json:"base_threat"`
	ThreatPerRank      int           `yaml:"threat_per_rank" json:"threat_per_rank"`
	WallDefense        int           `yaml:"wall_defense" json:"wall_defense"`
	HeroDefensePerLvl  int           `yaml:"hero_defense_per_level" json:"hero_defense_per_level"`
	MinionDefense      int           `yaml:"minion_defense" json:"minion_defense"`
	CrushingLevel      int           `yaml:"crushing_level" json:"crushing_level"`
	CounterSiegeBump   int           `yaml:"counter_siege_bump" json:"counter_siege_bump"`
	PlunderPct         int           `yaml:"plunder_pct" json:"plunder_pct"`
	NightXPPerKill     int           `yaml:"night_xp_per_kill" json:"night_xp_per_kill"`

	// World tick
	WallRegenPerLevel   float64       `yaml:"wall_regen_per_level" json:"wall_regen_per_level"`
	SiegeChance         float64       `yaml:"siege_chance" json:"siege_chance"`
	SiegeDuration       time.Duration `yaml:"siege_duration" json:"siege_duration"`
	VisionWindow        time.Duration `yaml:"vision_window" json:"vision_window"`
	VisionChanceUrgent  float64       `yaml:"vision_chance_urgent" json:"vision_chance_urgent"`
	VisionChanceAmbient float64       `yaml:"vision_chance_ambient" json:"vision_chance_ambient"`
	SanityDecayFactor   float64       `yaml:"sanity_decay_factor" json:"sanity_decay_factor"`
	MadnessThreshold    float64       `yaml:"madness_threshold" json:"madness_threshold"`
	FactionEventChance  float64       `yaml:"faction_event_chance" json:"faction_event_chance"`
	CharacterChance     float64       `yaml:"character_chance" json:"character_chance"`
	TheftAmount         int           `yaml:"theft_amount" json:"theft_amount"`
	ManaDrainAmount     int           `yaml:"mana_drain_amount" json:"mana_drain_amount"`
	SupportAmount       float64       `yaml:"support_amount" json:"support_amount"`
	UpkeepChance        float64       `yaml:"upkeep_chance" json:"upkeep_chance"`
	UpkeepPerLevel      int           `yaml:"upkeep_per_level" json:"upkeep_per_level"`
	UpkeepPerMinion     int           `yaml:"upkeep_per_minion" json:"upkeep_per_minion"`
	UpkeepMax           int           `yaml:"upkeep_max" json:"upkeep_max"`

	// Narrative
	NarrativeIncident int `yaml:"narrative_incident" json:"narrative_incident"`
	NarrativeRising   int `yaml:"narrative_rising" json:"narrative_rising"`
	NarrativeClimax   int `yaml:"narrative_climax" json:"narrative_climax"`

	// Economy
	GiftCost        int `yaml:"gift_cost" json:"gift_cost"`
	GiftReputation  int `yaml:"gift_reputation" json:"gift_reputation"`
	TradeGold       int `yaml:"trade_gold" json:"trade_gold"`
	TradeReputation int `yaml:"trade_reputation" json:"trade_reputation"`
	TreatyMana      int `yaml:"treaty_mana" json:"treaty_mana"`
	TreatyRep       int `yaml:"treaty_reputation" json:"treaty_reputation"`
	UpgradeBaseCost int `yaml:"upgrade_base_cost" json:"upgrade_base_cost"`

	Realm RealmDeltas `yaml:"realm" json:"realm"`
}

// RealmDelta is a fixed hope/fear/order adjustment.
type RealmDelta struct {
	Hope  float64 `yaml:"hope" json:"hope"`
	Fear  float64 `yaml:"fear" json:"fear"`
	Order float64 `yaml:"order" json:"order"`
}

type RealmDeltas struct {
	Victory RealmDelta `yaml:"victory" json:"victory"`
	Defeat  RealmDelta `yaml:"defeat" json:"defeat"`
	Neglect RealmDelta `yaml:"neglect" json:"neglect"`
	Trade   RealmDelta `yaml:"trade" json:"trade"`
}

// Default returns the default balance configuration
func Default() Balance {
	return Balance{
		XPPerPriority:       100,
		GoldPerPriority:     50,
		SubtaskXP:           20,
		SubtaskGold:         10,
		FailureHeroDamage:   10,
		VictoryManaReward:   5,
		XPPerLevel:          1000,
		HeroHPPerLevel:      10,
		DeadlineFallback:    time.Hour,
		ForesightDaysHigh:   7,
		ForesightDaysMedium: 3,
		ForesightDaysLow:    1,

		LootBaseChance:     0.4,
		LootChancePerLevel: 0.005,

		MinionCap:    30,
		GraveyardCap: 10,
		HistoryCap:   500,
		MemoryCap:    12,

		RevengeChance:    0.15,
		FearThreshold:    70,
		OrderThreshold:   80,
		DespairThreshold: 20,
		ScaleCap:         15,
		RingRadiusMin:    3,
		RingRadiusMax:    5,

		CrisisThreshold:  0.75,
		AeonBattleWindow: 5 * time.Minute,
		AeonMinSteps:     3,
		AeonMinStepLen:   3,

		NightDelay:        12 * time.Second,
		BaseThreat:        50,
		ThreatPerRank:     10,
		WallDefense:       20,
		HeroDefensePerLvl: 15,
		MinionDefense:     5,
		CrushingLevel:     40,
		CounterSiegeBump:  25,
		PlunderPct:        10,
		NightXPPerKill:    10,

		WallRegenPerLevel:   0.5,
		SiegeChance:         0.02,
		SiegeDuration:       20 * time.Second,
		VisionWindow:        15 * time.Minute,
		VisionChanceUrgent:  0.3,
		VisionChanceAmbient: 0.005,
		SanityDecayFactor:   0.05,
		MadnessThreshold:    10,
		FactionEventChance:  0.08,
		CharacterChance:     0.05,
		TheftAmount:         15,
		ManaDrainAmount:     10,
		SupportAmount:       15,
		UpkeepChance:        0.01,
		UpkeepPerLevel:      2,
		UpkeepPerMinion:     1,
		UpkeepMax:           25,

		NarrativeIncident: 10,
		NarrativeRising:   30,
		NarrativeClimax:   60,

		GiftCost:        50,
		GiftReputation:  10,
		TradeGold:       30,
		TradeReputation: 2,
		TreatyMana:      20,
		TreatyRep:       15,
		UpgradeBaseCost: 100,

		Realm: RealmDeltas{
			Victory: RealmDelta{Hope: 5, Fear: -3, Order: 2},
			Defeat:  RealmDelta{Hope: -5, Fear: 5, Order: -2},
			Neglect: RealmDelta{Hope: -3, Fear: 4, Order: -1},
			Trade:   RealmDelta{Hope: 1, Order: 1},
		},
	}
}

// Casual returns easier balance for casual difficulty
func Casual() Balance {
	cfg := Default()
	cfg.FailureHeroDamage = 5
	cfg.RevengeChance = 0.05
	cfg.SiegeChance = 0.01
	cfg.SanityDecayFactor = 0.025
	cfg.PlunderPct = 5
	cfg.UpkeepChance = 0.005
	return cfg
}

// Hard returns harder balance for experienced players
func Hard() Balance {
	cfg := Default()
	cfg.FailureHeroDamage = 20
	cfg.RevengeChance = 0.25
	cfg.SiegeChance = 0.04
	cfg.SanityDecayFactor = 0.08
	cfg.PlunderPct = 20
	cfg.ThreatPerRank = 12
	return cfg
}

// Preset resolves a difficulty name. Unknown names fall back to Default.
func Preset(name string) Balance {
	switch name {
	case "casual":
		return Casual()
	case "hard":
		return Hard()
	default:
		return Default()
	}
}
