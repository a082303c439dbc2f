package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrTooManyConnections is returned by AddClient when the subscriber limit
// has been reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
)

// SnapshotSource returns the current lot state for join pushes.
type SnapshotSource interface {
	Snapshot() lot.Snapshot
}

type client struct {
	id   string
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("ws: client %s write error: %v", c.id, err)
			c.b.RemoveClient(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// Broadcaster fans every published snapshot out to all websocket
// subscribers. Sends never block: a subscriber whose buffer is full is
// disconnected.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	source   SnapshotSource
	maxConns int
	seq      uint64
	last     []byte
	dropped  atomic.Uint64
}

// NewBroadcaster returns a broadcaster that takes join snapshots from
// source. maxConns of 0 means no limit.
func NewBroadcaster(source SnapshotSource, maxConns int) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[*client]bool),
		source:   source,
		maxConns: maxConns,
	}
}

// AddClient registers conn and queues the current snapshot for it.
func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		return nil, ErrTooManyConnections
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		b:    b,
		send: make(chan []byte, sendBuffer),
	}
	b.clients[c] = true
	go c.writePump()

	// Registration and the join push happen under the write lock so a
	// concurrent Publish cannot slip an older state in after this one.
	data, err := json.Marshal(WSMessage{Type: MsgUpdate, Seq: b.seq, Payload: b.source.Snapshot()})
	if err != nil {
		log.Printf("ws: join marshal error: %v", err)
		return c, nil
	}
	c.send <- data
	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(c)
}

func (b *Broadcaster) removeLocked(c *client) {
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
}

// Publish sends snap to every subscriber. It satisfies lot.Publisher.
func (b *Broadcaster) Publish(snap lot.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	data, err := json.Marshal(WSMessage{Type: MsgUpdate, Seq: b.seq, Payload: snap})
	if err != nil {
		log.Printf("ws: broadcast marshal error: %v", err)
		return
	}
	b.last = data

	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			log.Printf("ws: client %s too slow, disconnecting", c.id)
			b.dropped.Add(1)
			b.removeLocked(c)
		}
	}
}

// LastPayload returns the most recently broadcast message, or nil if
// nothing has been published yet.
func (b *Broadcaster) LastPayload() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.last == nil {
		return nil
	}
	out := make([]byte, len(b.last))
	copy(out, b.last)
	return out
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Dropped returns how many subscribers were disconnected for being slow.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Stop disconnects every subscriber.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		b.removeLocked(c)
	}
}
