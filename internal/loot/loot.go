package loot

import (
	"math"

	"eclipse/internal/config"
	"eclipse/internal/content"
	"eclipse/internal/model"
)

// Chance is the probability of a drop at the given effective level, capped
// at 1.
func Chance(effectiveLevel int, b config.Balance) float64 {
	p := b.LootBaseChance + b.LootChancePerLevel*float64(max(0, effectiveLevel))
	return math.Min(1, math.Max(0, p))
}

// Roll decides whether a drop happens and, if so, asks the generator for it.
func Roll(gen content.Generator, d content.Dice, effectiveLevel int, b config.Balance) (model.Item, bool) {
	if d.Float64() >= Chance(effectiveLevel, b) {
		return model.Item{}, false
	}
	return gen.Item(effectiveLevel), true
}
