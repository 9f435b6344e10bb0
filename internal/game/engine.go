package game

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eclipse/internal/adversary"
	"eclipse/internal/config"
	"eclipse/internal/content"
	"eclipse/internal/model"
	"eclipse/internal/notify"
	"eclipse/internal/store"
	"eclipse/internal/telemetry"
	"eclipse/internal/world"
)

// Engine runs every player and timer operation against the store. Each
// operation re-reads the live state inside a single store mutation.
type Engine struct {
	Store     *store.Store
	Balance   config.Balance
	Content   content.Generator
	Dice      content.Dice
	Spawner   *adversary.Spawner
	World     *world.Simulator
	Clock     Clock
	Notifier  notify.Notifier
	Cues      notify.Cues
	Telemetry telemetry.Repository
	Log       *slog.Logger
	Night     *NightPhase

	mu         sync.Mutex
	aeonTimer  Timer
	aeonTask   string
	siegeTimer Timer
	siegeID    string
}

// Options overrides the collaborators New would otherwise default.
type Options struct {
	Content   content.Generator
	Dice      content.Dice
	Clock     Clock
	Notifier  notify.Notifier
	Cues      notify.Cues
	Telemetry telemetry.Repository
	Log       *slog.Logger
}

func New(st *store.Store, opts Options) *Engine {
	b := st.Balance()
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Dice == nil {
		opts.Dice = content.NewRand(0)
	}
	if opts.Content == nil {
		opts.Content = content.NewProcedural(opts.Dice)
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.LogNotifier{Log: opts.Log}
	}
	if opts.Cues == nil {
		opts.Cues = notify.LogCues{Log: opts.Log}
	}
	if opts.Telemetry == nil {
		opts.Telemetry = telemetry.NewMemoryRepository(0).WithClock(opts.Clock.Now)
	}

	spawner := adversary.NewSpawner(b, opts.Content, opts.Dice)
	e := &Engine{
		Store:     st,
		Balance:   b,
		Content:   opts.Content,
		Dice:      opts.Dice,
		Spawner:   spawner,
		World:     &world.Simulator{Balance: b, Content: opts.Content, Dice: opts.Dice, Spawner: spawner},
		Clock:     opts.Clock,
		Notifier:  opts.Notifier,
		Cues:      opts.Cues,
		Telemetry: opts.Telemetry,
		Log:       opts.Log,
	}
	e.Night = &NightPhase{e: e}
	return e
}

// State returns the latest committed snapshot.
func (e *Engine) State() model.GameState {
	return e.Store.Snapshot()
}

// Shutdown stops every pending timer.
func (e *Engine) Shutdown() {
	e.Night.Cancel()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.aeonTimer != nil {
		e.aeonTimer.Stop()
		e.aeonTimer, e.aeonTask = nil, ""
	}
	if e.siegeTimer != nil {
		e.siegeTimer.Stop()
		e.siegeTimer, e.siegeID = nil, ""
	}
}

func (e *Engine) notify(s model.Settings, title, body string) {
	if s.Notifications {
		e.Notifier.Notify(title, body)
	}
}

func (e *Engine) play(s model.Settings, cue notify.Cue) {
	if s.Sound {
		e.Cues.Play(cue)
	}
}

func (e *Engine) record(typ telemetry.EventType, meta telemetry.EventMetadata) {
	if err := e.Telemetry.RecordEvent(typ, meta); err != nil {
		e.Log.Warn("telemetry record failed", "type", string(typ), "err", err)
	}
}

// reject plays the error cue for refusals the player caused and passes the
// error through.
func (e *Engine) reject(err error) error {
	if errors.Is(err, model.ErrInsufficient) || errors.Is(err, ErrReputationTooLow) {
		e.play(e.Store.Snapshot().Settings, notify.CueError)
	}
	return err
}

// levelUp raises the LEVEL_UP alert when levels were gained during a mutation.
func levelUp(st *model.GameState, gained int, at time.Time) {
	if gained <= 0 {
		return
	}
	st.RaiseAlert(model.Alert{
		Kind:      model.AlertLevelUp,
		Title:     fmt.Sprintf("Level %d", st.Level),
		Message:   fmt.Sprintf("The hero grows stronger. Max hp is now %d.", st.MaxHeroHP),
		CreatedAt: at,
	})
}
