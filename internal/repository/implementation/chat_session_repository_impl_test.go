package implementation

import (
	"context"
	"testing"

	"live-chat-be/internal/constant"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(`CREATE TABLE chat_sessions (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL UNIQUE,
		conversation_id TEXT UNIQUE,
		status TEXT NOT NULL DEFAULT 'waiting',
		advisor_id TEXT,
		metadata TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)
	return db
}

func TestChatSessionGetOrCreate(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatSessionRepository(db)
	ctx := context.Background()

	first, created, err := repo.GetOrCreate(ctx, "room1", constant.SessionStatusActive)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "room1", first.RoomId)
	assert.Equal(t, constant.SessionStatusActive, first.Status)

	second, created, err := repo.GetOrCreate(ctx, "room1", constant.SessionStatusActive)
	require.NoError(t, err)
	assert.False(t, created, "second call must not create")
	assert.Equal(t, first.Id, second.Id)
}

func TestChatSessionLinkConversation(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatSessionRepository(db)
	ctx := context.Background()

	session, _, err := repo.GetOrCreate(ctx, "room1", constant.SessionStatusActive)
	require.NoError(t, err)

	t.Run("first link wins", func(t *testing.T) {
		conversationId := uuid.New()
		linked, err := repo.LinkConversation(ctx, session.Id, conversationId)
		require.NoError(t, err)
		require.NotNil(t, linked.ConversationId)
		assert.Equal(t, conversationId, *linked.ConversationId)
	})

	t.Run("second link is a no-op and returns the winner", func(t *testing.T) {
		winner := *session
		existing, err := repo.FindOne(ctx)
		require.NoError(t, err)
		require.NotNil(t, existing.ConversationId)

		loserConversation := uuid.New()
		linked, err := repo.LinkConversation(ctx, winner.Id, loserConversation)
		require.NoError(t, err)
		require.NotNil(t, linked.ConversationId)
		assert.NotEqual(t, loserConversation, *linked.ConversationId)
		assert.Equal(t, *existing.ConversationId, *linked.ConversationId)
	})
}
