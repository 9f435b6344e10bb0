package loot

import (
	"errors"
	"fmt"

	"eclipse/internal/model"
)

var ErrItemNotFound = errors.New("item not found")

// Use consumes or equips an inventory item and returns it.
// Potions heal the hero, elixirs restore mana, equipment and relics add to
// the equipment bonus permanently.
func Use(st *model.GameState, itemID string) (model.Item, error) {
	idx := -1
	for i, it := range st.Inventory {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	it := st.Inventory[idx]
	switch it.Kind {
	case model.ItemPotion:
		st.HeroHP = min(st.MaxHeroHP, st.HeroHP+it.Power*2)
	case model.ItemElixir:
		st.AddMana(it.Power * 2)
	case model.ItemEquipment, model.ItemRelic:
		st.EquipmentBonus += it.Power
	default:
		return model.Item{}, fmt.Errorf("item %s cannot be used", it.Name)
	}
	st.Inventory = append(st.Inventory[:idx], st.Inventory[idx+1:]...)
	return it, nil
}
