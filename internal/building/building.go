package building

import (
	"errors"
	"fmt"

	"eclipse/internal/config"
	"eclipse/internal/model"
)

type Type string

var ErrUnknownStructure = errors.New("unknown structure")

const (
	TypeForge   Type = "forge"
	TypeWalls   Type = "walls"
	TypeLibrary Type = "library"
	TypeMarket  Type = "market"
)

type Info struct {
	Type        Type   `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Effect      string `json:"effect"`
}

var Catalog = map[Type]Info{
	TypeForge: {
		Type:        TypeForge,
		Name:        "Forge",
		Description: "Arms the hero",
		Effect:      "+5 equipment per level",
	},
	TypeWalls: {
		Type:        TypeWalls,
		Name:        "Walls",
		Description: "Holds the line at night",
		Effect:      "+20 defense and base regeneration per level",
	},
	TypeLibrary: {
		Type:        TypeLibrary,
		Name:        "Library",
		Description: "Keeps the realm's mind clear",
		Effect:      "+2 mana per world tick per level",
	},
	TypeMarket: {
		Type:        TypeMarket,
		Name:        "Market",
		Description: "Trade with the factions",
		Effect:      "+5 gold per trade per level",
	},
}

func Parse(s string) (Type, error) {
	t := Type(s)
	if _, ok := Catalog[t]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownStructure, s)
	}
	return t, nil
}

// Level reads the current level of t.
func Level(s model.Structures, t Type) int {
	switch t {
	case TypeForge:
		return s.Forge
	case TypeWalls:
		return s.Walls
	case TypeLibrary:
		return s.Library
	case TypeMarket:
		return s.Market
	}
	return 0
}

// UpgradeCost is the gold needed to go from level to level+1.
func UpgradeCost(level int, b config.Balance) int {
	return b.UpgradeBaseCost * (level + 1)
}

// Upgrade raises t by one level, paying in gold. Levels never go down.
func Upgrade(st *model.GameState, t Type, b config.Balance) (int, error) {
	if _, ok := Catalog[t]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownStructure, t)
	}
	cost := UpgradeCost(Level(st.Structures, t), b)
	if err := st.SpendGold(cost); err != nil {
		return 0, err
	}
	switch t {
	case TypeForge:
		st.Structures.Forge++
	case TypeWalls:
		st.Structures.Walls++
	case TypeLibrary:
		st.Structures.Library++
	case TypeMarket:
		st.Structures.Market++
	}
	return Level(st.Structures, t), nil
}

// Equipment is the hero's gear bonus from the forge plus equipped items.
func Equipment(st model.GameState) int {
	return st.Structures.Forge*5 + st.EquipmentBonus
}

// WallDefense is the night defense contributed by the walls.
func WallDefense(s model.Structures, b config.Balance) int {
	return s.Walls * b.WallDefense
}

// Regeneration is the base hp restored per tick by the walls.
func Regeneration(s model.Structures, b config.Balance) float64 {
	return float64(s.Walls) * b.WallRegenPerLevel
}

// ManaPerTick is the library's contribution to mana each tick.
func ManaPerTick(s model.Structures) int { return 2 * s.Library }

// TradeBonus is extra gold per trade from the market.
func TradeBonus(s model.Structures) int { return 5 * s.Market }
