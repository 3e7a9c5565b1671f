package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Conn is the subset of the websocket connection the client needs. It is
// satisfied by *websocket.Conn and by in-memory fakes in tests.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	Close() error
}

// Connection states. A client only processes inbound events while joined.
const (
	StateConnecting int32 = iota
	StateJoined
	StateClosing
	StateClosed
)

// Client is the middleman between one websocket connection and the registry.
type Client struct {
	Registry *Registry
	Conn     Conn
	Group    string

	// Buffered channel of outbound events.
	Send chan []byte

	state    int32
	shutdown sync.Once
}

func NewClient(registry *Registry, conn Conn, group string) *Client {
	return &Client{
		Registry: registry,
		Conn:     conn,
		Group:    group,
		Send:     make(chan []byte, 256),
		state:    StateConnecting,
	}
}

// Enqueue implements Subscriber. It never blocks; a full buffer reports false
// so the registry can drop the member.
func (c *Client) Enqueue(event []byte) bool {
	select {
	case c.Send <- event:
		return true
	default:
		return false
	}
}

// Shutdown closes the outbound channel, waking the write pump. Safe to call
// more than once.
func (c *Client) Shutdown() {
	c.shutdown.Do(func() {
		close(c.Send)
	})
}

func (c *Client) State() int32 {
	return atomic.LoadInt32(&c.state)
}

func (c *Client) setState(s int32) {
	atomic.StoreInt32(&c.state, s)
}

// MarkJoined transitions connecting -> joined. It reports false when the
// client is not in the connecting state.
func (c *Client) MarkJoined() bool {
	return atomic.CompareAndSwapInt32(&c.state, StateConnecting, StateJoined)
}

// ReadPump pumps inbound frames from the websocket to onInbound. It blocks
// until the connection drops, then deregisters the client. Deregistration is
// idempotent, so it is safe regardless of how the connection ended.
func (c *Client) ReadPump(onInbound func(payload []byte)) {
	defer func() {
		c.setState(StateClosing)
		c.Registry.Leave(c.Group, c)
		c.Shutdown()
		c.Conn.Close()
		c.setState(StateClosed)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}
		if c.State() != StateJoined {
			continue
		}
		onInbound(payload)
	}
}

// WritePump pumps events from the Send channel to the websocket connection
// and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The registry shut us down.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, event); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
