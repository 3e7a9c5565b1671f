package service

import (
	"context"
	"testing"
	"time"

	"live-chat-be/internal/constant"
	"live-chat-be/internal/dto"
	"live-chat-be/internal/entity"
	"live-chat-be/internal/repository/specification"
	"live-chat-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerPromotesWaitingSession(t *testing.T) {
	db := newTestDB(t)
	uowFactory := unitofwork.NewRepositoryFactory(db)
	ctx := context.Background()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	publisher := NewPublisherService("CHAT_MESSAGE_CREATED", pubSub)
	consumer := NewConsumerService(pubSub, "CHAT_MESSAGE_CREATED", uowFactory, nopLogger{})
	require.NoError(t, consumer.Consume(ctx))

	// Seed a waiting session with a linked conversation.
	uow := uowFactory.NewUnitOfWork(ctx)
	conversation := &entity.Conversation{
		Id:               uuid.New(),
		UserId:           "user_room1",
		ConversationType: constant.ConversationTypeLiveChat,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, uow.ConversationRepository().Create(ctx, conversation))

	session := &entity.ChatSession{
		Id:        uuid.New(),
		RoomId:    "room1",
		Status:    constant.SessionStatusWaiting,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, uow.ChatSessionRepository().Create(ctx, session))
	session.ConversationId = &conversation.Id
	require.NoError(t, uow.ChatSessionRepository().Update(ctx, session))

	require.NoError(t, publisher.PublishMessageCreated(ctx, &dto.PublishChatMessageCreated{
		MessageId:      uuid.New(),
		ConversationId: conversation.Id,
		SessionId:      session.Id,
		RoomId:         "room1",
		Sender:         constant.SenderUser,
	}))

	require.Eventually(t, func() bool {
		got, err := uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().FindOne(ctx, specification.ByID{ID: session.Id})
		return err == nil && got != nil && got.Status == constant.SessionStatusActive
	}, 2*time.Second, 10*time.Millisecond, "session was not promoted to active")
}

func TestConsumerLeavesNonWaitingSessionAlone(t *testing.T) {
	db := newTestDB(t)
	uowFactory := unitofwork.NewRepositoryFactory(db)
	ctx := context.Background()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	publisher := NewPublisherService("CHAT_MESSAGE_CREATED", pubSub)
	consumer := NewConsumerService(pubSub, "CHAT_MESSAGE_CREATED", uowFactory, nopLogger{})
	require.NoError(t, consumer.Consume(ctx))

	uow := uowFactory.NewUnitOfWork(ctx)
	conversation := &entity.Conversation{
		Id:               uuid.New(),
		UserId:           "user_room1",
		ConversationType: constant.ConversationTypeLiveChat,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, uow.ConversationRepository().Create(ctx, conversation))
	seededAt := conversation.UpdatedAt

	session := &entity.ChatSession{
		Id:             uuid.New(),
		RoomId:         "room1",
		ConversationId: &conversation.Id,
		Status:         constant.SessionStatusClosed,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, uow.ChatSessionRepository().Create(ctx, session))

	require.NoError(t, publisher.PublishMessageCreated(ctx, &dto.PublishChatMessageCreated{
		MessageId:      uuid.New(),
		ConversationId: conversation.Id,
		SessionId:      session.Id,
		RoomId:         "room1",
		Sender:         constant.SenderUser,
	}))

	// The conversation is touched but the closed session is left alone.
	require.Eventually(t, func() bool {
		got, err := uowFactory.NewUnitOfWork(ctx).ConversationRepository().FindOne(ctx, specification.ByID{ID: conversation.Id})
		if err != nil || got == nil || got.UpdatedAt == nil {
			return false
		}
		return seededAt == nil || got.UpdatedAt.After(*seededAt)
	}, 2*time.Second, 10*time.Millisecond)

	got, err := uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().FindOne(ctx, specification.ByID{ID: session.Id})
	require.NoError(t, err)
	assert.Equal(t, constant.SessionStatusClosed, got.Status)
}
