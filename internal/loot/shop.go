package loot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"eclipse/internal/model"
)

// Offer is a fixed shop listing.
type Offer struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Kind  model.ItemKind `json:"kind"`
	Power int            `json:"power"`
	Price int            `json:"price"`
}

var ErrUnknownOffer = errors.New("unknown offer")

var Shop = []Offer{
	{ID: "potion", Name: "Healing Potion", Kind: model.ItemPotion, Power: 15, Price: 30},
	{ID: "elixir", Name: "Mana Elixir", Kind: model.ItemElixir, Power: 10, Price: 40},
	{ID: "equipment", Name: "Tempered Blade", Kind: model.ItemEquipment, Power: 5, Price: 50},
	{ID: "relic", Name: "Hourglass Relic", Kind: model.ItemRelic, Power: 12, Price: 150},
}

func FindOffer(id string) (Offer, bool) {
	for _, o := range Shop {
		if o.ID == id {
			return o, true
		}
	}
	return Offer{}, false
}

// Purchase buys an offer into the inventory. A short purse leaves the state
// untouched and returns a *model.InsufficientError.
func Purchase(st *model.GameState, offerID string) (model.Item, error) {
	o, ok := FindOffer(offerID)
	if !ok {
		return model.Item{}, fmt.Errorf("%w: %s", ErrUnknownOffer, offerID)
	}
	if err := st.SpendGold(o.Price); err != nil {
		return model.Item{}, err
	}
	it := model.Item{
		ID:     uuid.NewString(),
		Name:   o.Name,
		Kind:   o.Kind,
		Rarity: "COMMON",
		Power:  o.Power,
		Value:  o.Price,
	}
	st.Inventory = append(st.Inventory, it)
	return it, nil
}
