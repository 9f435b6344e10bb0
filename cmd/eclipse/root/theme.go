package root

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"eclipse/internal/model"
)

const (
	IconEclipse = "🌘"
	IconSword   = "⚔️"
	IconCastle  = "🏰"
	IconScroll  = "📜"
	IconChart   = "📊"
	IconError   = "🧨"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("135") // violet
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// Meter renders cur/max, colored by how full it is.
func Meter(cur, max float64) string {
	text := fmt.Sprintf("%.0f/%.0f", cur, max)
	if max <= 0 {
		return Muted.Render(text)
	}
	switch r := cur / max; {
	case r >= 0.6:
		return Good.Render(text)
	case r >= 0.3:
		return Warn.Render(text)
	default:
		return Bad.Render(text)
	}
}

func FactionStatusText(s model.FactionStatus) string {
	switch s {
	case model.FactionWar, model.FactionHostile:
		return Bad.Render(string(s))
	case model.FactionNeutral:
		return Muted.Render(string(s))
	default:
		return Good.Render(string(s))
	}
}

func OutcomeText(o model.Outcome) string {
	if o == model.OutcomeDefeat {
		return Bad.Render(string(o))
	}
	return Good.Render(string(o))
}
