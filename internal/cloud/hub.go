package cloud

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub is the relay server: it keeps the last state of every room and
// forwards each push to the other peers in that room.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[*peer]struct{}
	latest map[string]json.RawMessage

	upgrader websocket.Upgrader
	log      *slog.Logger
}

type peer struct {
	room string
	out  chan []byte
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		rooms:  make(map[string]map[*peer]struct{}),
		latest: make(map[string]json.RawMessage),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Rooms reports the number of peers per room.
func (h *Hub) Rooms() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]int, len(h.rooms))
	for room, peers := range h.rooms {
		out[room] = len(peers)
	}
	return out
}

func (h *Hub) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	p := h.handshake(conn)
	if p == nil {
		return
	}
	defer h.leave(p)

	done := make(chan struct{})
	defer close(done)

	// Writer goroutine.
	go func() {
		for {
			select {
			case <-done:
				return
			case b := <-p.out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	// Reader loop.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.log.Debug("relay: bad message", "err", err)
			continue
		}
		if msg.Type != MsgPush || len(msg.State) == 0 {
			continue
		}
		h.publish(p, msg.State)
	}
}

func (h *Hub) handshake(conn *websocket.Conn) *peer {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil
	}
	_ = conn.SetReadDeadline(time.Time{})

	var join Message
	if err := json.Unmarshal(raw, &join); err != nil || join.Type != MsgJoin || join.Room == "" {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected JOIN"), time.Now().Add(time.Second))
		return nil
	}

	p := &peer{room: join.Room, out: make(chan []byte, 16)}
	h.mu.Lock()
	if h.rooms[p.room] == nil {
		h.rooms[p.room] = make(map[*peer]struct{})
	}
	h.rooms[p.room][p] = struct{}{}
	last := h.latest[p.room]
	h.mu.Unlock()

	h.log.Info("relay: peer joined", "room", p.room)
	if last != nil {
		b, _ := json.Marshal(Message{Type: MsgState, Room: p.room, State: last})
		p.out <- b
	}
	return p
}

func (h *Hub) publish(from *peer, state json.RawMessage) {
	b, err := json.Marshal(Message{Type: MsgState, Room: from.room, State: state})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[from.room] = state
	for p := range h.rooms[from.room] {
		if p == from {
			continue
		}
		select {
		case p.out <- b:
		default:
			h.log.Warn("relay: dropping state for slow peer", "room", p.room)
		}
	}
}

func (h *Hub) leave(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[p.room], p)
	if len(h.rooms[p.room]) == 0 {
		delete(h.rooms, p.room)
	}
	h.log.Info("relay: peer left", "room", p.room)
}
