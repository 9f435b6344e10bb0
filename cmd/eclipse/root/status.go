package root

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"eclipse/internal/building"
	"eclipse/internal/model"
	"eclipse/internal/telemetry"
)

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the hero, the realm and the open fronts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), rt, newLogger(rt, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer a.close()

			st := a.store.Snapshot()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			renderStatus(cmd.OutOrStdout(), st, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw state as JSON")
	return cmd
}

func renderStatus(w io.Writer, st model.GameState, now time.Time) {
	fmt.Fprintln(w, Heading(IconEclipse, fmt.Sprintf("Level %d hero", st.Level)))
	fmt.Fprintln(w, LabelValue("XP", st.XP))
	fmt.Fprintln(w, LabelValue("Gold", Gold.Render(fmt.Sprint(st.Gold))))
	fmt.Fprintln(w, LabelValue("Mana", Meter(float64(st.Mana), float64(st.MaxMana))))
	fmt.Fprintln(w, LabelValue("Hero HP", Meter(float64(st.HeroHP), float64(st.MaxHeroHP))))
	fmt.Fprintln(w, LabelValue("Base HP", Meter(st.BaseHP, st.MaxBaseHP)))
	fmt.Fprintln(w, "")

	realm := []string{
		H2.Render("Realm"),
		LabelValue("Hope", fmt.Sprintf("%.0f", st.Realm.Hope)),
		LabelValue("Fear", fmt.Sprintf("%.0f", st.Realm.Fear)),
		LabelValue("Order", fmt.Sprintf("%.0f", st.Realm.Order)),
	}
	structures := []string{H2.Render(IconCastle + " Structures")}
	for _, t := range []building.Type{building.TypeForge, building.TypeWalls, building.TypeLibrary, building.TypeMarket} {
		structures = append(structures, LabelValue(building.Catalog[t].Name, building.Level(st.Structures, t)))
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
		Panel.Render(strings.Join(realm, "\n")),
		" ",
		Panel.Render(strings.Join(structures, "\n")),
	))
	fmt.Fprintln(w, "")

	open, failed := 0, 0
	for _, t := range st.Tasks {
		switch {
		case t.Failed:
			failed++
		case !t.Completed:
			open++
		}
	}
	fmt.Fprintln(w, H2.Render(IconSword+" Fronts"))
	fmt.Fprintf(w, "- %s %d %s\n", Key.Render("Open tasks:"), open, Muted.Render(fmt.Sprintf("(%d failed)", failed)))
	fmt.Fprintf(w, "- %s %d\n", Key.Render("Adversaries:"), len(st.Enemies))
	if st.Crisis.Active() {
		fmt.Fprintf(w, "- %s %s\n", Key.Render("Crisis:"), Bad.Render(string(st.Crisis.Phase)))
	}
	if st.MapEvent != nil {
		fmt.Fprintf(w, "- %s %s\n", Key.Render("Map event:"), Warn.Render(string(st.MapEvent.Kind)))
	}
	if r := st.LastBattle; r != nil {
		fmt.Fprintf(w, "- %s %s %s\n", Key.Render("Last battle:"), OutcomeText(r.Outcome),
			Muted.Render(fmt.Sprintf("(threat %d vs defense %d, %s ago)", r.Threat, r.Defense, now.Sub(r.ResolvedAt).Round(time.Minute))))
	}
	fmt.Fprintln(w, "")

	factions := append([]model.FactionReputation(nil), st.Factions...)
	sort.Slice(factions, func(i, j int) bool { return factions[i].Reputation < factions[j].Reputation })
	fmt.Fprintln(w, H2.Render(IconScroll+" Factions"))
	for _, f := range factions {
		fmt.Fprintf(w, "- %s %d %s\n", Key.Render(f.Name+":"), f.Reputation, FactionStatusText(f.Status))
	}
}

func newStatsCmd() *cobra.Command {
	var (
		days   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("days must be positive")
			}
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), rt, newLogger(rt, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer a.close()

			since := time.Now().AddDate(0, 0, -days)
			events, err := a.telemetry.GetEvents(since, nil)
			if err != nil {
				return err
			}
			stats, err := telemetry.CalculateStats(events, since)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			renderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "how many days back to summarize")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func renderStats(w io.Writer, s telemetry.Stats) {
	fmt.Fprintln(w, Heading(IconChart, "Since "+s.Period))
	fmt.Fprintln(w, LabelValue("Active days", s.Days))
	fmt.Fprintln(w, LabelValue("Tasks completed", fmt.Sprintf("%d (%.1f/day)", s.TaskCompletions, s.TasksPerDay)))
	fmt.Fprintln(w, LabelValue("Tasks failed", s.TaskFailures))
	fmt.Fprintln(w, LabelValue("Completion rate", fmt.Sprintf("%.0f%%", s.CompletionRate*100)))
	fmt.Fprintln(w, LabelValue("Adversaries", fmt.Sprintf("%d spawned, %d slain", s.AdversariesSpawned, s.AdversariesSlain)))
	fmt.Fprintln(w, LabelValue("Crises", s.Crises))
	fmt.Fprintln(w, LabelValue("Night battles", fmt.Sprintf("%d (%.0f%% won)", s.Battles, s.WinRate*100)))
	fmt.Fprintln(w, LabelValue("World ticks", s.Ticks))
	fmt.Fprintln(w, LabelValue("Gold spent", s.GoldSpent))
	if len(s.LootByKind) > 0 {
		kinds := make([]string, 0, len(s.LootByKind))
		for k := range s.LootByKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		parts := make([]string, 0, len(kinds))
		for _, k := range kinds {
			parts = append(parts, fmt.Sprintf("%s×%d", strings.ToLower(k), s.LootByKind[k]))
		}
		fmt.Fprintln(w, LabelValue("Loot", strings.Join(parts, ", ")))
	}
}
