// Package cloud mirrors the durable part of the GameState to peers sharing
// a room. Pushes are fire-and-forget; the last push in a room wins.
package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"eclipse/internal/model"
)

// Store is the remote side of state sync.
type Store interface {
	Push(ctx context.Context, roomID string, st model.GameState) error
	// Subscribe registers onRemote for states pushed to roomID by others
	// until ctx is done.
	Subscribe(ctx context.Context, roomID string, onRemote func(model.GameState)) error
}

type MessageType string

const (
	MsgJoin  MessageType = "JOIN"
	MsgPush  MessageType = "PUSH"
	MsgState MessageType = "STATE"
)

// Message is the relay wire format.
type Message struct {
	Type  MessageType     `json:"type"`
	Room  string          `json:"room"`
	State json.RawMessage `json:"state,omitempty"`
}

func encodeState(t MessageType, room string, st model.GameState) ([]byte, error) {
	data, err := json.Marshal(st.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return json.Marshal(Message{Type: t, Room: room, State: data})
}

// MemoryStore is an in-process Store. Every subscriber of the room is
// called synchronously on Push.
type MemoryStore struct {
	mu     sync.Mutex
	rooms  map[string]model.GameState
	subs   map[string]map[int]func(model.GameState)
	nextID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]model.GameState),
		subs:  make(map[string]map[int]func(model.GameState)),
	}
}

func (m *MemoryStore) Push(ctx context.Context, roomID string, st model.GameState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean := st.Sanitize()
	m.mu.Lock()
	m.rooms[roomID] = clean
	var fns []func(model.GameState)
	for _, fn := range m.subs[roomID] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(clean.Clone())
	}
	return nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, roomID string, onRemote func(model.GameState)) error {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	if m.subs[roomID] == nil {
		m.subs[roomID] = make(map[int]func(model.GameState))
	}
	m.subs[roomID][id] = onRemote
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs[roomID], id)
		m.mu.Unlock()
	}()
	return nil
}

// Latest returns the last state pushed to roomID.
func (m *MemoryStore) Latest(roomID string) (model.GameState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.rooms[roomID]
	if !ok {
		return model.GameState{}, false
	}
	return st.Clone(), true
}
