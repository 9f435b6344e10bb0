package content

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"eclipse/internal/model"
)

var (
	namePrefixes = []string{"Gor", "Vex", "Mal", "Thra", "Ul", "Zar", "Kre", "Mor", "Syl", "Dra", "Nix", "Orm"}
	nameSuffixes = []string{"ak", "eth", "ion", "mar", "dul", "ora", "ix", "gash", "wyn", "thas", "ul", "rok"}
	titles       = map[model.Priority][]string{
		model.PriorityLow:    {"the Lurker", "the Petty", "of the Gutter", "the Nuisance"},
		model.PriorityMedium: {"the Relentless", "the Gnawing", "of the Long Shadow", "the Tax-Collector"},
		model.PriorityHigh:   {"the Devourer", "Dread Sovereign", "the Unending", "Herald of Ruin"},
	}
	houses = []string{"Ashfall", "Blackmere", "Cinderholt", "Duskwane", "Grimhollow", "Ironveil", "Nightbloom", "Rotfen"}

	lootNames = map[model.ItemKind][]string{
		model.ItemPotion:    {"Draught of Mending", "Red Tincture", "Troll-Blood Flask"},
		model.ItemElixir:    {"Azure Elixir", "Starwell Distillate", "Moonpetal Essence"},
		model.ItemEquipment: {"Notched Blade", "Warden's Buckler", "Runed Gauntlets", "Oathsteel Helm"},
		model.ItemRelic:     {"Shard of the First Dawn", "Crown of Quiet Hours", "Hourglass of Focus"},
	}
	rarities = []string{"COMMON", "UNCOMMON", "RARE", "EPIC", "LEGENDARY"}

	dialogue = map[DialogueContext][]string{
		DialogueTheft:   {"Your coffers were lighter than you think.", "Gold belongs to those who watch it."},
		DialogueDrain:   {"Your wellspring tastes sweet tonight.", "Magic flows to the patient."},
		DialogueSupport: {"The walls will hold. I'll see to it.", "We stand with you, always."},
		DialogueMadness: {"The stars whisper your unfinished deeds!", "Too many shadows, too many!"},
		DialogueVictory: {"Another foe falls!", "The realm breathes easier."},
	}

	minionNames = []string{"Grub", "Skitter", "Bonejaw", "Ash", "Mote", "Clink", "Wisp", "Tallow"}
)

// Procedural is the default Generator. All randomness comes from Dice.
type Procedural struct {
	dice Dice
}

func NewProcedural(d Dice) *Procedural {
	return &Procedural{dice: d}
}

func (p *Procedural) pick(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[p.dice.IntN(len(list))]
}

func (p *Procedural) Identity(req IdentityRequest) Identity {
	name := p.pick(namePrefixes) + p.pick(nameSuffixes)
	lineage := req.Lineage
	if lineage == "" {
		lineage = "House " + p.pick(houses)
	}
	pool := titles[req.Priority]
	if pool == nil {
		pool = titles[model.PriorityMedium]
	}
	title := p.pick(pool)
	if req.Subtask {
		title = "the Lesser"
	}

	faction := string(req.FactionID)
	if info, ok := model.LookupFaction(req.FactionID); ok {
		faction = info.Name
	}
	lore := fmt.Sprintf("A rank %d %s of %s, born of %q.", req.Rank, strings.ToLower(string(req.Race)), faction, req.TaskTitle)
	if req.Lineage != "" {
		lore = fmt.Sprintf("Heir of the fallen %s, returned for vengeance.", req.Lineage)
	}
	return Identity{Name: name, Title: title, Lineage: lineage, Lore: lore}
}

func (p *Procedural) Item(effectiveLevel int) model.Item {
	kinds := []model.ItemKind{model.ItemPotion, model.ItemElixir, model.ItemEquipment, model.ItemRelic}
	kind := kinds[p.dice.IntN(len(kinds))]

	tier := min(len(rarities)-1, p.dice.IntN(1+effectiveLevel/10))
	power := 5 + 5*tier + effectiveLevel/5
	return model.Item{
		ID:     uuid.NewString(),
		Name:   p.pick(lootNames[kind]),
		Kind:   kind,
		Rarity: rarities[tier],
		Power:  power,
		Value:  power * 10,
	}
}

func (p *Procedural) WorldEvent(factions []model.FactionReputation) (WorldEvent, bool) {
	if len(factions) < 2 {
		return WorldEvent{}, false
	}
	i := p.dice.IntN(len(factions))
	j := p.dice.IntN(len(factions) - 1)
	if j >= i {
		j++
	}
	a, b := factions[i], factions[j]

	kinds := []WorldEventKind{EventWar, EventAlliance, EventPolitical, EventMystic}
	ev := WorldEvent{Kind: kinds[p.dice.IntN(len(kinds))], A: a.ID, B: b.ID}
	switch ev.Kind {
	case EventWar:
		ev.DeltaA, ev.DeltaB = -5, -5
		ev.Message = fmt.Sprintf("%s declared war upon %s.", a.Name, b.Name)
	case EventAlliance:
		ev.DeltaA, ev.DeltaB = 5, 5
		ev.Message = fmt.Sprintf("%s and %s swore an oath of alliance.", a.Name, b.Name)
	case EventPolitical:
		ev.DeltaA, ev.DeltaB = 3, -3
		ev.Message = fmt.Sprintf("%s outmaneuvered %s at the council of ash.", a.Name, b.Name)
	case EventMystic:
		ev.DeltaA, ev.DeltaB = -2, 2
		ev.Message = fmt.Sprintf("An omen over %s drew pilgrims from %s.", a.Name, b.Name)
	}
	return ev, true
}

func (p *Procedural) Dialogue(characterID string, ctx DialogueContext) string {
	line := p.pick(dialogue[ctx])
	if line == "" {
		line = "..."
	}
	return line
}

func (p *Procedural) Narrative(entry model.HistoryEntry, stage model.NarrativeStage) string {
	switch stage {
	case model.StageClimax:
		return "At the height of the struggle, " + lowerFirst(entry.Message)
	case model.StageRising:
		return "Tension mounts: " + lowerFirst(entry.Message)
	case model.StageIncident:
		return "Then, " + lowerFirst(entry.Message)
	default:
		return entry.Message
	}
}

func (p *Procedural) Siege(f model.FactionReputation) string {
	return fmt.Sprintf("War drums! %s probe the outer walls.", f.Name)
}

func (p *Procedural) Vision(t *model.Task) string {
	if t == nil {
		return "A quiet voice: what were you meant to be doing?"
	}
	return fmt.Sprintf("A vision of %q looms. Set the distractions aside.", t.Title)
}

func (p *Procedural) MinionName(race model.Race) string {
	return fmt.Sprintf("%s the %s", p.pick(minionNames), strings.ToLower(string(race)))
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
