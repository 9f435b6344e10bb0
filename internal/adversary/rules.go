package adversary

import (
	"strings"

	"eclipse/internal/config"
	"eclipse/internal/content"
	"eclipse/internal/model"
)

// Input is everything the faction rules look at.
type Input struct {
	Title     string
	Realm     model.RealmStats
	Graveyard []model.GraveyardEntry
}

// Pick is the outcome of the rule table.
type Pick struct {
	Rule    string
	Faction model.FactionID
	Race    model.Race
	Lineage string
	Revenge bool
}

// Rule returns ok=false to defer to the next rule.
type Rule struct {
	Name  string
	Match func(in Input, d content.Dice) (Pick, bool)
}

type Bucket struct {
	Name     string
	Faction  model.FactionID
	Keywords []string
}

var Buckets = []Bucket{
	{Name: "logic", Faction: model.FactionArcaneConclave, Keywords: []string{"code", "math", "study", "analyze", "analyse", "debug", "research", "exam"}},
	{Name: "creative", Faction: model.FactionFeyCourt, Keywords: []string{"design", "write", "draw", "paint", "music", "compose", "sketch"}},
	{Name: "administrative", Faction: model.FactionBureaucratGolems, Keywords: []string{"email", "report", "tax", "invoice", "form", "meeting", "paperwork", "budget"}},
}

// Rules builds the reactive faction table, evaluated top to bottom. The last
// rule always matches.
func Rules(b config.Balance) []Rule {
	return []Rule{
		{Name: "revenge", Match: func(in Input, d content.Dice) (Pick, bool) {
			if len(in.Graveyard) == 0 || d.Float64() >= b.RevengeChance {
				return Pick{}, false
			}
			last := in.Graveyard[len(in.Graveyard)-1]
			return Pick{Faction: last.FactionID, Race: last.Race, Lineage: last.Lineage, Revenge: true}, true
		}},
		threshold("fear", model.FactionDreadCult, func(r model.RealmStats) bool { return r.Fear > b.FearThreshold }),
		threshold("order", model.FactionIronInquisition, func(r model.RealmStats) bool { return r.Order > b.OrderThreshold }),
		threshold("despair", model.FactionCarrionHorde, func(r model.RealmStats) bool { return r.Hope < b.DespairThreshold }),
		{Name: "keyword", Match: func(in Input, _ content.Dice) (Pick, bool) {
			title := strings.ToLower(in.Title)
			for _, bk := range Buckets {
				for _, kw := range bk.Keywords {
					if strings.Contains(title, kw) {
						return factionPick(bk.Faction), true
					}
				}
			}
			return Pick{}, false
		}},
		{Name: "random", Match: func(_ Input, d content.Dice) (Pick, bool) {
			var main []model.FactionID
			for _, f := range model.Factions() {
				if !f.LowTier {
					main = append(main, f.ID)
				}
			}
			return factionPick(main[d.IntN(len(main))]), true
		}},
	}
}

func threshold(name string, id model.FactionID, cond func(model.RealmStats) bool) Rule {
	return Rule{Name: name, Match: func(in Input, _ content.Dice) (Pick, bool) {
		if !cond(in.Realm) {
			return Pick{}, false
		}
		return factionPick(id), true
	}}
}

func factionPick(id model.FactionID) Pick {
	p := Pick{Faction: id, Race: model.RaceOrc}
	if info, ok := model.LookupFaction(id); ok {
		p.Race = info.Race
	}
	return p
}

// Evaluate returns the first matching rule's pick.
func Evaluate(rules []Rule, in Input, d content.Dice) Pick {
	for _, r := range rules {
		if p, ok := r.Match(in, d); ok {
			p.Rule = r.Name
			return p
		}
	}
	return factionPick(model.FactionShadowLegion)
}
