package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// balanceFile is the on-disk shape of a tuning file. Difficulty selects the
// preset that the rest of the file overlays.
type balanceFile struct {
	Difficulty string    `yaml:"difficulty"`
	Balance    yaml.Node `yaml:"balance"`
}

// LoadBalance reads a YAML tuning file. Keys absent from the file keep the
// value of the selected preset.
func LoadBalance(path string) (Balance, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, err
	}
	return ParseBalance(b)
}

func ParseBalance(b []byte) (Balance, error) {
	var f balanceFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Balance{}, fmt.Errorf("balance yaml: %w", err)
	}
	cfg := Preset(f.Difficulty)
	if f.Balance.Kind != 0 {
		if err := f.Balance.Decode(&cfg); err != nil {
			return Balance{}, fmt.Errorf("balance yaml: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Balance{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (b Balance) Validate() error {
	probs := map[string]float64{
		"revenge_chance":        b.RevengeChance,
		"siege_chance":          b.SiegeChance,
		"vision_chance_urgent":  b.VisionChanceUrgent,
		"vision_chance_ambient": b.VisionChanceAmbient,
		"faction_event_chance":  b.FactionEventChance,
		"character_chance":      b.CharacterChance,
		"upkeep_chance":         b.UpkeepChance,
	}
	for k, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", k, p)
		}
	}
	if b.CrisisThreshold <= 0 || b.CrisisThreshold >= 1 {
		return fmt.Errorf("crisis_threshold must be within (0,1), got %v", b.CrisisThreshold)
	}
	if b.MinionCap <= 0 || b.GraveyardCap <= 0 || b.HistoryCap <= 0 || b.MemoryCap <= 0 {
		return fmt.Errorf("collection caps must be positive")
	}
	if b.RingRadiusMin > b.RingRadiusMax {
		return fmt.Errorf("ring_radius_min %v exceeds ring_radius_max %v", b.RingRadiusMin, b.RingRadiusMax)
	}
	if b.DeadlineFallback <= 0 {
		return fmt.Errorf("deadline_fallback must be positive")
	}
	return nil
}
