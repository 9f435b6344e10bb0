package world

import (
	"time"

	"eclipse/internal/config"
	"eclipse/internal/model"
)

const maxFragments = 64

var intensityWeights = map[model.HistoryType]int{
	model.HistoryVictory:    5,
	model.HistoryDefeat:     10,
	model.HistoryCrisis:     8,
	model.HistoryMadness:    12,
	model.HistorySiege:      8,
	model.HistoryNeglect:    6,
	model.HistoryWorldEvent: 3,
	model.HistoryCharacter:  4,
}

// StageFor maps intensity onto the day's narrative stage.
func StageFor(intensity int, b config.Balance) model.NarrativeStage {
	switch {
	case intensity >= b.NarrativeClimax:
		return model.StageClimax
	case intensity >= b.NarrativeRising:
		return model.StageRising
	case intensity >= b.NarrativeIncident:
		return model.StageIncident
	default:
		return model.StageDawn
	}
}

// narrate folds today's unseen history entries into the day's story. Each
// entry contributes once; a new calendar day starts a fresh story.
func (s *Simulator) narrate(st *model.GameState, now time.Time) model.NarrativeStage {
	day := now.Format(time.DateOnly)
	if st.Narrative.Day != day {
		st.Narrative = model.Narrative{Day: day, Stage: model.StageDawn, Seen: map[string]bool{}}
	}
	if st.Narrative.Seen == nil {
		st.Narrative.Seen = map[string]bool{}
	}
	for _, e := range st.History.Items() {
		if st.Narrative.Seen[e.ID] || e.Timestamp.Format(time.DateOnly) != day {
			continue
		}
		st.Narrative.Seen[e.ID] = true
		w, ok := intensityWeights[e.Type]
		if !ok {
			w = 2
		}
		st.Narrative.Intensity += w
		st.Narrative.Stage = StageFor(st.Narrative.Intensity, s.Balance)
		st.Narrative.Fragments = append(st.Narrative.Fragments, s.Content.Narrative(e, st.Narrative.Stage))
	}
	if n := len(st.Narrative.Fragments); n > maxFragments {
		st.Narrative.Fragments = st.Narrative.Fragments[n-maxFragments:]
	}
	return st.Narrative.Stage
}
