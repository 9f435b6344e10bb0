package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eclipse/internal/config"
	"eclipse/internal/model"
	"eclipse/internal/store"
)

// Repository loads and saves GameState through a Backend.
type Repository struct {
	backend Backend
	balance config.Balance
	now     func() time.Time
	log     *slog.Logger
}

func NewRepository(backend Backend, b config.Balance, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.Default()
	}
	return &Repository{backend: backend, balance: b, now: time.Now, log: log}
}

// Load returns the saved state, or the default state when there is no
// save or it cannot be read.
func (r *Repository) Load(ctx context.Context) model.GameState {
	raw, err := r.backend.Read(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSave) {
			r.log.Warn("save backend read failed, starting fresh", "err", err)
		}
		return model.NewGameState(r.balance)
	}
	return Decode(raw, r.balance, r.log)
}

func (r *Repository) Save(ctx context.Context, st model.GameState) error {
	blob, err := Encode(st, r.now())
	if err != nil {
		return err
	}
	if err := r.backend.Write(ctx, blob); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Autosaver is a store observer that remembers the latest commit and
// writes it on a slower cadence than commits arrive.
type Autosaver struct {
	repo *Repository
	log  *slog.Logger

	mu     sync.Mutex
	latest store.Commit
	dirty  bool
}

func NewAutosaver(repo *Repository, log *slog.Logger) *Autosaver {
	if log == nil {
		log = slog.Default()
	}
	return &Autosaver{repo: repo, log: log}
}

func (a *Autosaver) Observe(c store.Commit) {
	if c.Origin == store.OriginLoad {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if c.Seq < a.latest.Seq {
		return
	}
	a.latest = c
	a.dirty = true
}

func (a *Autosaver) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

// Flush writes the latest commit if it has not been written yet.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if !a.dirty {
		a.mu.Unlock()
		return nil
	}
	c := a.latest
	a.dirty = false
	a.mu.Unlock()

	if err := a.repo.Save(ctx, c.State); err != nil {
		a.mu.Lock()
		if a.latest.Seq == c.Seq {
			a.dirty = true
		}
		a.mu.Unlock()
		return err
	}
	return nil
}

// Run flushes every interval until ctx is done, then flushes once more.
func (a *Autosaver) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := a.Flush(context.WithoutCancel(ctx)); err != nil {
				a.log.Error("final autosave failed", "err", err)
			}
			return
		case <-ticker.C:
			if err := a.Flush(ctx); err != nil {
				a.log.Error("autosave failed", "err", err)
			}
		}
	}
}
