package persistence

import (
	"encoding/json"
	"fmt"
	"math"

	"eclipse/internal/config"
	"eclipse/internal/model"
)

// Migration upgrades the raw state object of a save from version From to
// From+1. Apply edits data in place.
type Migration struct {
	From     int
	Describe string
	Apply    func(data map[string]any, b config.Balance) error
}

// Migrations is the ordered upgrade chain. Every step repairs exactly the
// field its version introduced.
var Migrations = []Migration{
	{
		From:     1,
		Describe: "gold is a finite number",
		Apply: func(data map[string]any, b config.Balance) error {
			g, ok := data["gold"].(float64)
			if !ok || math.IsNaN(g) || math.IsInf(g, 0) {
				data["gold"] = float64(model.NewGameState(b).Gold)
			}
			return nil
		},
	},
	{
		From:     2,
		Describe: "faction reputation table present",
		Apply: func(data map[string]any, _ config.Balance) error {
			if fs, ok := data["factions"].([]any); ok && len(fs) > 0 {
				return nil
			}
			return setDefault(data, "factions", model.DefaultFactionTable())
		},
	},
	{
		From:     3,
		Describe: "realm stats present",
		Apply: func(data map[string]any, _ config.Balance) error {
			if _, ok := data["realm"].(map[string]any); ok {
				return nil
			}
			return setDefault(data, "realm", model.DefaultRealm())
		},
	},
	{
		From:     4,
		Describe: "structures object present",
		Apply: func(data map[string]any, _ config.Balance) error {
			if _, ok := data["structures"].(map[string]any); ok {
				return nil
			}
			return setDefault(data, "structures", model.DefaultStructures())
		},
	},
}

// Migrate runs every step from version up to CurrentVersion. Saves newer
// than CurrentVersion are left untouched and decoded as far as possible.
func Migrate(data map[string]any, version int, b config.Balance) error {
	for _, m := range Migrations {
		if m.From < version {
			continue
		}
		if err := m.Apply(data, b); err != nil {
			return fmt.Errorf("migrate v%d→v%d (%s): %w", m.From, m.From+1, m.Describe, err)
		}
	}
	return nil
}

func setDefault(data map[string]any, key string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("default %s: %w", key, err)
	}
	var out any
	if err := json.Unmarshal(buf, &out); err != nil {
		return fmt.Errorf("default %s: %w", key, err)
	}
	data[key] = out
	return nil
}
