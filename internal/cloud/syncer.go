package cloud

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"eclipse/internal/model"
	"eclipse/internal/store"
)

// Syncer is a store observer that pushes locally originated commits to the
// configured room. Only the newest pending commit is pushed; failures are
// logged and not retried.
type Syncer struct {
	cloud   Store
	log     *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending *store.Commit
	wake    chan struct{}
	pushed  uint64
}

func NewSyncer(cloud Store, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{
		cloud:   cloud,
		log:     log,
		timeout: 5 * time.Second,
		wake:    make(chan struct{}, 1),
	}
}

func (s *Syncer) Observe(c store.Commit) {
	if c.Origin != store.OriginLocal {
		return
	}
	cfg := c.State.Settings.Sync
	if !cfg.Enabled || cfg.RoomID == "" {
		return
	}
	s.mu.Lock()
	if s.pending == nil || c.Seq > s.pending.Seq {
		s.pending = &c
	}
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run pushes pending commits until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			s.pushPending(ctx)
		}
	}
}

// Pushed is the sequence number of the last commit handed to the cloud.
func (s *Syncer) Pushed() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushed
}

func (s *Syncer) pushPending(ctx context.Context) {
	s.mu.Lock()
	c := s.pending
	s.pending = nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	room := c.State.Settings.Sync.RoomID
	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.cloud.Push(pctx, room, c.State.Sanitize()); err != nil {
		s.log.Warn("cloud push failed", "room", room, "seq", c.Seq, "err", err)
		return
	}
	s.mu.Lock()
	s.pushed = c.Seq
	s.mu.Unlock()
}

// Follow applies states pushed by other peers in roomID to st.
func Follow(ctx context.Context, cloud Store, st *store.Store, roomID string) error {
	return cloud.Subscribe(ctx, roomID, func(remote model.GameState) {
		st.ApplyRemote(remote)
	})
}
