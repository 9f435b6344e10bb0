package model

type FactionID string

const (
	FactionShadowLegion     FactionID = "SHADOW_LEGION"
	FactionDreadCult        FactionID = "DREAD_CULT"
	FactionIronInquisition  FactionID = "IRON_INQUISITION"
	FactionCarrionHorde     FactionID = "CARRION_HORDE"
	FactionArcaneConclave   FactionID = "ARCANE_CONCLAVE"
	FactionFeyCourt         FactionID = "FEY_COURT"
	FactionBureaucratGolems FactionID = "BUREAUCRAT_GOLEMS"
	FactionGoblinWarband    FactionID = "GOBLIN_WARBAND"
	FactionKoboldClans      FactionID = "KOBOLD_CLANS"
)

type FactionStatus string

const (
	FactionWar      FactionStatus = "WAR"
	FactionHostile  FactionStatus = "HOSTILE"
	FactionNeutral  FactionStatus = "NEUTRAL"
	FactionFriendly FactionStatus = "FRIENDLY"
	FactionAllied   FactionStatus = "ALLIED"
)

// FactionInfo is static catalog data for a faction.
type FactionInfo struct {
	ID       FactionID
	Name     string
	Race     Race
	LowTier  bool
	StartRep int
}

var factionCatalog = []FactionInfo{
	{ID: FactionShadowLegion, Name: "The Shadow Legion", Race: RaceUndead, StartRep: -40},
	{ID: FactionDreadCult, Name: "The Dread Cult", Race: RaceDemon, StartRep: -20},
	{ID: FactionIronInquisition, Name: "The Iron Inquisition", Race: RaceHuman, StartRep: 0},
	{ID: FactionCarrionHorde, Name: "The Carrion Horde", Race: RaceOrc, StartRep: -30},
	{ID: FactionArcaneConclave, Name: "The Arcane Conclave", Race: RaceElf, StartRep: 0},
	{ID: FactionFeyCourt, Name: "The Fey Court", Race: RaceFey, StartRep: 10},
	{ID: FactionBureaucratGolems, Name: "The Bureaucrat Golems", Race: RaceConstruct, StartRep: 5},
	{ID: FactionGoblinWarband, Name: "The Goblin Warband", Race: RaceGoblin, LowTier: true, StartRep: -20},
	{ID: FactionKoboldClans, Name: "The Kobold Clans", Race: RaceKobold, LowTier: true, StartRep: -10},
}

// Factions returns the static faction catalog in a fixed order.
func Factions() []FactionInfo {
	out := make([]FactionInfo, len(factionCatalog))
	copy(out, factionCatalog)
	return out
}

func LookupFaction(id FactionID) (FactionInfo, bool) {
	for _, f := range factionCatalog {
		if f.ID == id {
			return f, true
		}
	}
	return FactionInfo{}, false
}

// LowTierFactions are the only factions subtask adversaries are drawn from.
func LowTierFactions() []FactionID {
	var out []FactionID
	for _, f := range factionCatalog {
		if f.LowTier {
			out = append(out, f.ID)
		}
	}
	return out
}

type FactionReputation struct {
	ID         FactionID     `json:"id"`
	Name       string        `json:"name"`
	Reputation int           `json:"reputation"`
	Status     FactionStatus `json:"status"`
}

// StatusFor maps reputation onto its band.
func StatusFor(rep int) FactionStatus {
	switch {
	case rep <= -60:
		return FactionWar
	case rep <= -20:
		return FactionHostile
	case rep < 20:
		return FactionNeutral
	case rep < 60:
		return FactionFriendly
	default:
		return FactionAllied
	}
}

// Adjust moves reputation by delta, clamped to [-100,100], and refreshes status.
func (f *FactionReputation) Adjust(delta int) {
	f.Reputation = clampInt(f.Reputation+delta, -100, 100)
	f.Status = StatusFor(f.Reputation)
}

func DefaultFactionTable() []FactionReputation {
	out := make([]FactionReputation, 0, len(factionCatalog))
	for _, f := range factionCatalog {
		out = append(out, FactionReputation{
			ID:         f.ID,
			Name:       f.Name,
			Reputation: f.StartRep,
			Status:     StatusFor(f.StartRep),
		})
	}
	return out
}
