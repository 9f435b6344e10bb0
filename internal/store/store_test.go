package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eclipse/internal/config"
	"eclipse/internal/model"
)

func newStoreForTest() *Store {
	b := config.Default()
	return New(model.NewGameState(b), b, nil)
}

func TestApply_CommitsAndNormalizes(t *testing.T) {
	s := newStoreForTest()

	got := s.Apply(func(st model.GameState) model.GameState {
		st.Gold = -40
		st.HeroHP = 9999
		return st
	})

	assert.Equal(t, 0, got.Gold)
	assert.Equal(t, got.MaxHeroHP, got.HeroHP)
	assert.Equal(t, got, s.Snapshot())
}

func TestApply_MutatorGetsACopy(t *testing.T) {
	s := newStoreForTest()
	before := s.Snapshot()

	var leaked model.GameState
	s.Apply(func(st model.GameState) model.GameState {
		leaked = st
		return st
	})
	leaked.Tasks = append(leaked.Tasks, model.Task{ID: "x"})
	leaked.NPCs[0].Name = "changed"

	after := s.Snapshot()
	assert.Empty(t, after.Tasks)
	assert.Equal(t, before.NPCs[0].Name, after.NPCs[0].Name)
}

func TestApply_PanicKeepsPriorState(t *testing.T) {
	s := newStoreForTest()
	s.Apply(func(st model.GameState) model.GameState {
		st.Gold = 321
		return st
	})

	got := s.Apply(func(st model.GameState) model.GameState {
		st.Gold = 0
		panic("boom")
	})

	assert.Equal(t, 321, got.Gold)
	assert.Equal(t, 321, s.Snapshot().Gold)
}

func TestUpdate_ErrorDiscardsChanges(t *testing.T) {
	s := newStoreForTest()
	var seen int
	s.Subscribe(ObserverFunc(func(Commit) { seen++ }))

	errNope := errors.New("nope")
	_, err := s.Update(func(st *model.GameState) error {
		st.Gold = 1
		return errNope
	})
	require.ErrorIs(t, err, errNope)
	assert.Equal(t, 150, s.Snapshot().Gold)
	assert.Zero(t, seen)

	got, err := s.Update(func(st *model.GameState) error {
		st.Gold = 1
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Gold)
	assert.Equal(t, 1, seen)
}

func TestObservers(t *testing.T) {
	s := newStoreForTest()

	var commits []Commit
	s.Subscribe(ObserverFunc(func(c Commit) { commits = append(commits, c) }))
	s.Subscribe(ObserverFunc(func(Commit) { panic("bad observer") }))

	s.Apply(func(st model.GameState) model.GameState { st.Gold = 10; return st })

	remote := model.NewGameState(config.Default())
	remote.Gold = 99
	remote.UI.EditingTask = "remote-ui"
	s.Apply(func(st model.GameState) model.GameState { st.UI.EditingTask = "local-ui"; return st })
	got := s.ApplyRemote(remote)

	require.Len(t, commits, 3)
	assert.Equal(t, OriginLocal, commits[0].Origin)
	assert.Equal(t, OriginRemote, commits[2].Origin)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{commits[0].Seq, commits[1].Seq, commits[2].Seq})
	assert.Equal(t, 99, got.Gold)
	assert.Equal(t, "local-ui", got.UI.EditingTask)

	commits[0].State.Gold = 5000
	assert.Equal(t, 99, s.Snapshot().Gold)
}

func TestReplace(t *testing.T) {
	s := newStoreForTest()
	var origin Origin
	s.Subscribe(ObserverFunc(func(c Commit) { origin = c.Origin }))

	next := model.NewGameState(config.Default())
	next.Level = 7
	got := s.Replace(next, OriginLoad)

	assert.Equal(t, 7, got.Level)
	assert.Equal(t, OriginLoad, origin)
}

func TestApply_ConcurrentWritersSerialize(t *testing.T) {
	s := newStoreForTest()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Apply(func(st model.GameState) model.GameState {
				st.Gold++
				return st
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 200, s.Snapshot().Gold)
}
