package telemetry

import (
	"encoding/json"
	"sync"
	"time"

	"eclipse/internal/ring"
)

// DefaultMemoryCapacity bounds the in-process log used when no database is
// wired; a week of ticks at the default interval fits comfortably.
const DefaultMemoryCapacity = 4096

// MemoryRepository keeps the newest events in a ring. Older events are
// evicted, so stats over long periods undercount.
type MemoryRepository struct {
	mu      sync.RWMutex
	events  *ring.Buffer[Event]
	nextID  int
	evicted int
	now     func() time.Time
}

// NewMemoryRepository keeps at most capacity events; capacity <= 0 means
// DefaultMemoryCapacity.
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryRepository{
		events: ring.New[Event](capacity),
		nextID: 1,
		now:    time.Now,
	}
}

// WithClock stamps events with now instead of the wall clock.
func (r *MemoryRepository) WithClock(now func() time.Time) *MemoryRepository {
	r.now = now
	return r
}

func (r *MemoryRepository) RecordEvent(eventType EventType, metadata EventMetadata) error {
	md, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dropped := r.events.Push(Event{
		ID:        r.nextID,
		Type:      eventType,
		Timestamp: r.now(),
		Metadata:  string(md),
	}); dropped {
		r.evicted++
	}
	r.nextID++
	return nil
}

// GetEvents returns retained events at or after since, oldest first.
func (r *MemoryRepository) GetEvents(since time.Time, eventTypes []EventType) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Event
	for _, ev := range r.events.Items() {
		if ev.Timestamp.Before(since) || !wanted(eventTypes, ev.Type) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// Evicted is how many events the ring has dropped since the last Clear.
func (r *MemoryRepository) Evicted() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.evicted
}

func (r *MemoryRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = ring.New[Event](r.events.Cap())
	r.nextID, r.evicted = 1, 0
	return nil
}
