package service

import (
	"context"
	"encoding/json"

	"live-chat-be/internal/constant"
	"live-chat-be/internal/dto"
	"live-chat-be/internal/pkg/logger"
	"live-chat-be/internal/repository/specification"
	"live-chat-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService keeps session and conversation bookkeeping off the hot
// broadcast path: every persisted message bumps the conversation's updated_at
// and promotes a still-waiting session to active.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishChatMessageCreated
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: payload.ConversationId})
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to load conversation", map[string]interface{}{"error": err.Error(), "conversation_id": payload.ConversationId})
		msg.Nack()
		return
	}
	if conversation != nil {
		// Save refreshes updated_at via autoUpdateTime.
		if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
			cs.logger.Error("ConsumerService", "Failed to touch conversation", map[string]interface{}{"error": err.Error(), "conversation_id": payload.ConversationId})
			msg.Nack()
			return
		}
	}

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: payload.SessionId})
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to load session", map[string]interface{}{"error": err.Error(), "session_id": payload.SessionId})
		msg.Nack()
		return
	}
	if session != nil && session.Status == constant.SessionStatusWaiting {
		session.Status = constant.SessionStatusActive
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			cs.logger.Error("ConsumerService", "Failed to promote session", map[string]interface{}{"error": err.Error(), "session_id": payload.SessionId})
			msg.Nack()
			return
		}
		cs.logger.Info("ConsumerService", "Session promoted to active", map[string]interface{}{"session_id": payload.SessionId, "room_id": payload.RoomId})
	}

	msg.Ack()
}
