package handler

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"live-chat-be/internal/constant"
	"live-chat-be/internal/dto"
	"live-chat-be/internal/realtime"
	"live-chat-be/internal/repository/memory"
	"live-chat-be/internal/repository/unitofwork"
	"live-chat-be/internal/service"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// fakeConn is an in-memory realtime.Conn. Inbound frames are fed through a
// channel; text frames written by the server are recorded.
type fakeConn struct {
	mu      sync.Mutex
	writes  [][]byte
	inbound chan []byte

	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case payload, ok := <-c.inbound:
		if !ok {
			return 0, nil, errors.New("connection closed")
		}
		return websocket.TextMessage, payload, nil
	case <-c.closed:
		return 0, nil, errors.New("connection closed")
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	c.writes = append(c.writes, buf)
	return nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }
func (c *fakeConn) SetReadLimit(limit int64)           {}
func (c *fakeConn) SetPongHandler(h func(string) error) {}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) textWrites() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

func (c *fakeConn) send(t *testing.T, payload []byte) {
	t.Helper()
	select {
	case c.inbound <- payload:
	case <-time.After(time.Second):
		t.Fatal("inbound buffer stuck")
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE conversations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			conversation_type TEXT NOT NULL DEFAULT 'chatbot',
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			content TEXT NOT NULL,
			sender TEXT NOT NULL,
			sender_name TEXT,
			message_type TEXT NOT NULL DEFAULT 'text',
			created_at DATETIME
		)`,
		`CREATE TABLE chat_sessions (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL UNIQUE,
			conversation_id TEXT UNIQUE,
			status TEXT NOT NULL DEFAULT 'waiting',
			advisor_id TEXT,
			metadata TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newTestHandler(t *testing.T) (*ChatHandler, *realtime.Registry) {
	t.Helper()

	db := newTestDB(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	chatService := service.NewChatService(
		unitofwork.NewRepositoryFactory(db),
		memory.NewSessionCache(),
		service.NewPublisherService("CHAT_MESSAGE_CREATED", pubSub),
		nil,
		nopLogger{},
	)
	registry := realtime.NewRegistry(nil, nopLogger{})
	return NewChatHandler(chatService, registry, nopLogger{}), registry
}

// connect runs a session on a fake connection and waits for the history
// replay so the caller sees a fully joined client.
func connect(t *testing.T, h *ChatHandler, roomId string) (*fakeConn, chan struct{}) {
	t.Helper()

	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		h.RunSession(conn, roomId)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(conn.textWrites()) >= 1
	}, time.Second, 5*time.Millisecond, "history replay not received")
	return conn, done
}

func waitClosed(t *testing.T, conn *fakeConn, done chan struct{}) {
	t.Helper()
	conn.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session did not end after close")
	}
}

func TestRunSessionHistoryReplay(t *testing.T) {
	h, registry := newTestHandler(t)

	conn, done := connect(t, h, "room1")
	defer waitClosed(t, conn, done)

	assert.Equal(t, 1, registry.GroupSize(constant.ChatGroupPrefix+"room1"))

	var history dto.ChatHistoryEvent
	require.NoError(t, json.Unmarshal(conn.textWrites()[0], &history))
	assert.Equal(t, constant.EventTypeChatHistory, history.Type)
	assert.NotNil(t, history.Messages)
	assert.Empty(t, history.Messages)
}

func TestRunSessionMessageFlow(t *testing.T) {
	h, registry := newTestHandler(t)

	sender, senderDone := connect(t, h, "room1")
	peer, peerDone := connect(t, h, "room1")
	defer waitClosed(t, peer, peerDone)

	assert.Equal(t, 2, registry.GroupSize(constant.ChatGroupPrefix+"room1"))

	sender.send(t, []byte(`{"message":"hola","sender":"user","sender_name":"Ana"}`))

	// Both the sender and the peer get the fan-out, exactly once.
	for _, conn := range []*fakeConn{sender, peer} {
		require.Eventually(t, func() bool {
			return len(conn.textWrites()) >= 2
		}, time.Second, 5*time.Millisecond)

		var event dto.ChatMessageEvent
		require.NoError(t, json.Unmarshal(conn.textWrites()[1], &event))
		assert.Equal(t, constant.EventTypeChatMessage, event.Type)
		assert.Equal(t, "hola", event.Message)
		assert.Equal(t, "user", event.Sender)
		assert.Equal(t, "Ana", event.SenderName)
		assert.NotEmpty(t, event.Timestamp)
	}
	assert.Len(t, sender.textWrites(), 2)

	// A disconnected member no longer receives broadcasts.
	waitClosed(t, sender, senderDone)
	require.Eventually(t, func() bool {
		return registry.GroupSize(constant.ChatGroupPrefix+"room1") == 1
	}, time.Second, 5*time.Millisecond)

	peer.send(t, []byte(`{"message":"sigues ahi?"}`))
	require.Eventually(t, func() bool {
		return len(peer.textWrites()) >= 3
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, sender.textWrites(), 2, "closed connection must not receive fan-out")
}

func TestRunSessionHistoryAfterMessages(t *testing.T) {
	h, _ := newTestHandler(t)

	sender, senderDone := connect(t, h, "room1")
	sender.send(t, []byte(`{"message":"primero","sender_name":"Ana"}`))
	require.Eventually(t, func() bool {
		return len(sender.textWrites()) >= 2
	}, time.Second, 5*time.Millisecond)
	waitClosed(t, sender, senderDone)

	// A late joiner replays what was said before it arrived.
	late, lateDone := connect(t, h, "room1")
	defer waitClosed(t, late, lateDone)

	var history dto.ChatHistoryEvent
	require.NoError(t, json.Unmarshal(late.textWrites()[0], &history))
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "primero", history.Messages[0].Content)
	assert.Equal(t, constant.SenderUser, history.Messages[0].Sender)
	assert.Equal(t, "Ana", history.Messages[0].SenderName)
}

func TestRunSessionDropsBadInbound(t *testing.T) {
	h, _ := newTestHandler(t)

	conn, done := connect(t, h, "room1")
	defer waitClosed(t, conn, done)

	conn.send(t, []byte(`not json`))
	conn.send(t, []byte(`{"message":""}`))

	// A valid message still goes through afterwards.
	conn.send(t, []byte(`{"message":"sigo aqui"}`))
	require.Eventually(t, func() bool {
		return len(conn.textWrites()) >= 2
	}, time.Second, 5*time.Millisecond)

	var event dto.ChatMessageEvent
	require.NoError(t, json.Unmarshal(conn.textWrites()[1], &event))
	assert.Equal(t, "sigo aqui", event.Message)
	assert.Len(t, conn.textWrites(), 2, "dropped frames must not broadcast")

	// Room isolation: the other room heard nothing.
	other, otherDone := connect(t, h, "room2")
	defer waitClosed(t, other, otherDone)
	assert.Len(t, other.textWrites(), 1)
}
