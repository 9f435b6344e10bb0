package game

import (
	"context"
	"fmt"

	"eclipse/internal/building"
	"eclipse/internal/loot"
	"eclipse/internal/model"
	"eclipse/internal/notify"
	"eclipse/internal/telemetry"
)

type DiplomacyAction string

const (
	DiplomacyGift   DiplomacyAction = "gift"
	DiplomacyTrade  DiplomacyAction = "trade"
	DiplomacyTreaty DiplomacyAction = "treaty"
)

// Minimum reputation for each action.
const (
	tradeMinRep  = 0
	treatyMinRep = 20
)

type DiplomacyResult struct {
	Action  DiplomacyAction         `json:"action"`
	Faction model.FactionReputation `json:"faction"`
	Gold    int                     `json:"gold"`
	Mana    int                     `json:"mana"`
}

type UpgradeResult struct {
	Structure building.Type `json:"structure"`
	Level     int           `json:"level"`
	Cost      int           `json:"cost"`
}

// Purchase buys a shop offer. A short purse changes nothing.
func (e *Engine) Purchase(ctx context.Context, offerID string) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}
	var it model.Item
	st, err := e.Store.Update(func(st *model.GameState) error {
		var err error
		it, err = loot.Purchase(st, offerID)
		return err
	})
	if err != nil {
		return model.Item{}, e.reject(fmt.Errorf("purchase %s: %w", offerID, err))
	}
	e.play(st.Settings, notify.CueClick)
	e.record(telemetry.EventItemPurchased, telemetry.EventMetadata{"offer": offerID, "kind": string(it.Kind), "gold": it.Value})
	return it, nil
}

// UseItem consumes or equips an inventory item.
func (e *Engine) UseItem(ctx context.Context, itemID string) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}
	var it model.Item
	st, err := e.Store.Update(func(st *model.GameState) error {
		var err error
		it, err = loot.Use(st, itemID)
		return err
	})
	if err != nil {
		return model.Item{}, fmt.Errorf("use item: %w", err)
	}
	e.play(st.Settings, notify.CueClick)
	return it, nil
}

// Upgrade raises a structure by one level.
func (e *Engine) Upgrade(ctx context.Context, structure string) (UpgradeResult, error) {
	if err := ctx.Err(); err != nil {
		return UpgradeResult{}, err
	}
	t, err := building.Parse(structure)
	if err != nil {
		return UpgradeResult{}, err
	}
	res := UpgradeResult{Structure: t}
	st, err := e.Store.Update(func(st *model.GameState) error {
		res.Cost = building.UpgradeCost(building.Level(st.Structures, t), e.Balance)
		lvl, err := building.Upgrade(st, t, e.Balance)
		res.Level = lvl
		return err
	})
	if err != nil {
		return UpgradeResult{}, e.reject(fmt.Errorf("upgrade %s: %w", t, err))
	}
	e.play(st.Settings, notify.CueClick)
	e.record(telemetry.EventStructureUpgraded, telemetry.EventMetadata{"structure": string(t), "level": res.Level, "gold": res.Cost})
	return res, nil
}

// Diplomacy performs a gift, trade or treaty with a faction.
func (e *Engine) Diplomacy(ctx context.Context, factionID model.FactionID, action DiplomacyAction) (DiplomacyResult, error) {
	if err := ctx.Err(); err != nil {
		return DiplomacyResult{}, err
	}
	now := e.Clock.Now()
	b := e.Balance
	res := DiplomacyResult{Action: action}
	st, err := e.Store.Update(func(st *model.GameState) error {
		f := st.Faction(factionID)
		if f == nil {
			return fmt.Errorf("%w: %s", ErrFactionNotFound, factionID)
		}
		switch action {
		case DiplomacyGift:
			if err := st.SpendGold(b.GiftCost); err != nil {
				return err
			}
			f.Adjust(b.GiftReputation)
			res.Gold = -b.GiftCost
			st.Log(now, model.HistoryDiplomacy, fmt.Sprintf("Gifts were sent to %s.", f.Name), string(f.ID))
		case DiplomacyTrade:
			if f.Reputation < tradeMinRep {
				return fmt.Errorf("%w: %s will not trade at %d", ErrReputationTooLow, f.Name, f.Reputation)
			}
			gold := b.TradeGold + building.TradeBonus(st.Structures)
			st.AddGold(gold)
			f.Adjust(b.TradeReputation)
			st.ApplyRealm(b.Realm.Trade)
			res.Gold = gold
			st.Log(now, model.HistoryTrade, fmt.Sprintf("Caravans returned from %s with %d gold.", f.Name, gold), string(f.ID))
		case DiplomacyTreaty:
			if f.Reputation < treatyMinRep {
				return fmt.Errorf("%w: %s will not sign at %d", ErrReputationTooLow, f.Name, f.Reputation)
			}
			if err := st.SpendMana(b.TreatyMana); err != nil {
				return err
			}
			f.Adjust(b.TreatyRep)
			res.Mana = -b.TreatyMana
			st.Log(now, model.HistoryDiplomacy, fmt.Sprintf("A treaty was sealed with %s.", f.Name), string(f.ID))
		default:
			return fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
		res.Faction = *f
		return nil
	})
	if err != nil {
		return DiplomacyResult{}, e.reject(fmt.Errorf("diplomacy: %w", err))
	}
	e.play(st.Settings, notify.CueClick)
	meta := telemetry.EventMetadata{"action": string(action), "faction": string(factionID)}
	if res.Gold < 0 {
		meta["gold"] = -res.Gold
	}
	e.record(telemetry.EventDiplomacy, meta)
	return res, nil
}

// AcknowledgeAlert dismisses the active alert and promotes the next queued
// one.
func (e *Engine) AcknowledgeAlert(ctx context.Context) (model.Alert, error) {
	if err := ctx.Err(); err != nil {
		return model.Alert{}, err
	}
	var acked model.Alert
	st, err := e.Store.Update(func(st *model.GameState) error {
		a, ok := st.AckAlert()
		if !ok {
			return ErrNoAlert
		}
		acked = a
		return nil
	})
	if err != nil {
		return model.Alert{}, err
	}
	e.play(st.Settings, notify.CueClick)
	return acked, nil
}

func (e *Engine) DismissVision(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := e.Store.Update(func(st *model.GameState) error {
		if st.Vision == nil {
			return ErrNoVision
		}
		st.Vision = nil
		return nil
	})
	return err
}

// UpdateSettings replaces the settings block.
func (e *Engine) UpdateSettings(ctx context.Context, s model.Settings) (model.Settings, error) {
	if err := ctx.Err(); err != nil {
		return model.Settings{}, err
	}
	st, err := e.Store.Update(func(st *model.GameState) error {
		if s.Sync.Enabled && s.Sync.RoomID == "" {
			return ErrSyncNeedsRoom
		}
		st.Settings = s
		return nil
	})
	if err != nil {
		return model.Settings{}, err
	}
	return st.Settings, nil
}
