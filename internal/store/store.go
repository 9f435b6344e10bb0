// Package store owns the committed GameState. All writes go through Apply
// (or one of its variants), which serializes commits and fans them out to
// observers.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"eclipse/internal/config"
	"eclipse/internal/model"
)

var ErrMutatorPanic = errors.New("mutator panicked")

// Origin tags where a commit came from so observers can avoid echoes.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
	OriginLoad   Origin = "load"
)

// Commit is what observers receive after every successful write. State is
// a private copy; observers may keep it but must not share it back.
type Commit struct {
	Seq    uint64
	State  model.GameState
	Origin Origin
}

// Observer is called synchronously after each commit, in commit order.
// Observe must not write back into the Store.
type Observer interface {
	Observe(Commit)
}

type ObserverFunc func(Commit)

func (f ObserverFunc) Observe(c Commit) { f(c) }

// Mutator is a pure transform from the prior state to the next one.
type Mutator func(model.GameState) model.GameState

type Store struct {
	mu        sync.Mutex
	state     model.GameState
	seq       uint64
	balance   config.Balance
	observers []Observer

	// notifyMu keeps observer delivery in commit order without holding mu.
	notifyMu sync.Mutex

	log *slog.Logger
}

func New(initial model.GameState, b config.Balance, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	st := initial.Clone()
	st.Normalize(b)
	return &Store{state: st, balance: b, log: log}
}

func (s *Store) Balance() config.Balance { return s.balance }

// Subscribe registers o for every subsequent commit.
func (s *Store) Subscribe(o Observer) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.observers = append(s.observers, o)
}

// Snapshot returns a copy of the latest committed state.
func (s *Store) Snapshot() model.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Apply runs m against a copy of the committed state and commits the
// normalized result. A panicking mutator leaves the prior state in place.
func (s *Store) Apply(m Mutator) model.GameState {
	st, _ := s.commit(OriginLocal, func(cur model.GameState) (model.GameState, error) {
		return m(cur), nil
	})
	return st
}

// Update is Apply for mutators that can refuse: a non-nil error discards
// the working copy and is returned as is.
func (s *Store) Update(fn func(*model.GameState) error) (model.GameState, error) {
	return s.commit(OriginLocal, func(cur model.GameState) (model.GameState, error) {
		if err := fn(&cur); err != nil {
			return model.GameState{}, err
		}
		return cur, nil
	})
}

// ApplyRemote adopts a state received from a peer, keeping local transient
// fields. Observers see it tagged OriginRemote.
func (s *Store) ApplyRemote(remote model.GameState) model.GameState {
	st, _ := s.commit(OriginRemote, func(cur model.GameState) (model.GameState, error) {
		return model.MergeRemote(cur, remote), nil
	})
	return st
}

// Replace swaps the whole state, as after a load or restore.
func (s *Store) Replace(next model.GameState, origin Origin) model.GameState {
	st, _ := s.commit(origin, func(model.GameState) (model.GameState, error) {
		return next, nil
	})
	return st
}

func (s *Store) commit(origin Origin, fn func(model.GameState) (model.GameState, error)) (model.GameState, error) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next, err := s.run(fn, s.state.Clone())
	if err != nil {
		cur := s.state.Clone()
		s.mu.Unlock()
		return cur, err
	}
	next.Normalize(s.balance)
	s.state = next.Clone()
	s.seq++
	c := Commit{Seq: s.seq, State: next.Clone(), Origin: origin}
	out := next
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		s.deliver(o, c)
	}
	return out, nil
}

func (s *Store) run(fn func(model.GameState) (model.GameState, error), work model.GameState) (out model.GameState, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("mutator panic", "panic", fmt.Sprint(r))
			err = fmt.Errorf("%w: %v", ErrMutatorPanic, r)
		}
	}()
	return fn(work)
}

func (s *Store) deliver(o Observer, c Commit) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("observer panic", "panic", fmt.Sprint(r), "seq", c.Seq)
		}
	}()
	o.Observe(c)
}
