package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"eclipse/internal/model"
)

var ErrClosed = errors.New("cloud client closed")

// WSClient is a Store backed by a relay Hub. It keeps one connection per
// room, dialed lazily and redialed after a failure.
type WSClient struct {
	url    string
	dialer websocket.Dialer
	log    *slog.Logger

	mu       sync.Mutex
	conns    map[string]*roomConn
	handlers map[string]map[int]func(model.GameState)
	nextID   int
	closed   bool
}

type roomConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (rc *roomConn) write(b []byte) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	_ = rc.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return rc.conn.WriteMessage(websocket.TextMessage, b)
}

func NewWSClient(url string, log *slog.Logger) *WSClient {
	if log == nil {
		log = slog.Default()
	}
	return &WSClient{
		url:      url,
		dialer:   websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		log:      log,
		conns:    make(map[string]*roomConn),
		handlers: make(map[string]map[int]func(model.GameState)),
	}
}

func (c *WSClient) Push(ctx context.Context, roomID string, st model.GameState) error {
	rc, err := c.connect(ctx, roomID)
	if err != nil {
		return err
	}
	b, err := encodeState(MsgPush, roomID, st)
	if err != nil {
		return err
	}
	if err := rc.write(b); err != nil {
		c.drop(roomID, rc)
		return fmt.Errorf("push %s: %w", roomID, err)
	}
	return nil
}

func (c *WSClient) Subscribe(ctx context.Context, roomID string, onRemote func(model.GameState)) error {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	if c.handlers[roomID] == nil {
		c.handlers[roomID] = make(map[int]func(model.GameState))
	}
	c.handlers[roomID][id] = onRemote
	c.mu.Unlock()

	unregister := func() {
		c.mu.Lock()
		delete(c.handlers[roomID], id)
		c.mu.Unlock()
	}
	if _, err := c.connect(ctx, roomID); err != nil {
		unregister()
		return err
	}
	go func() {
		<-ctx.Done()
		unregister()
	}()
	return nil
}

// Close hangs up every room connection.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for room, rc := range c.conns {
		rc.conn.Close()
		delete(c.conns, room)
	}
	return nil
}

func (c *WSClient) connect(ctx context.Context, roomID string) (*roomConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if rc, ok := c.conns[roomID]; ok {
		return rc, nil
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	rc := &roomConn{conn: conn}
	join, _ := json.Marshal(Message{Type: MsgJoin, Room: roomID})
	if err := rc.write(join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join %s: %w", roomID, err)
	}
	c.conns[roomID] = rc
	go c.readLoop(roomID, rc)
	return rc, nil
}

func (c *WSClient) readLoop(roomID string, rc *roomConn) {
	defer c.drop(roomID, rc)
	for {
		_, raw, err := rc.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != MsgState {
			continue
		}
		var st model.GameState
		if err := json.Unmarshal(msg.State, &st); err != nil {
			c.log.Warn("cloud: undecodable remote state", "room", roomID, "err", err)
			continue
		}

		c.mu.Lock()
		var fns []func(model.GameState)
		for _, fn := range c.handlers[roomID] {
			fns = append(fns, fn)
		}
		c.mu.Unlock()
		for _, fn := range fns {
			fn(st.Clone())
		}
	}
}

func (c *WSClient) drop(roomID string, rc *roomConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conns[roomID] == rc {
		delete(c.conns, roomID)
	}
	rc.conn.Close()
}
