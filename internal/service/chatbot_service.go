package service

import (
	"context"
	"fmt"
	"time"

	"live-chat-be/internal/constant"
	"live-chat-be/internal/dto"
	"live-chat-be/internal/entity"
	"live-chat-be/internal/pkg/logger"
	"live-chat-be/internal/repository/specification"
	"live-chat-be/internal/repository/unitofwork"
	"live-chat-be/pkg/llm"

	"github.com/google/uuid"
)

type IChatbotService interface {
	// SendMessage persists the user's message, asks the completion provider
	// for a reply over the conversation's recent history, persists the reply
	// and returns it.
	SendMessage(ctx context.Context, req *dto.ChatbotMessageRequest) (*dto.ChatbotMessageResponse, error)
}

type chatbotService struct {
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewChatbotService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	log logger.ILogger,
) IChatbotService {
	return &chatbotService{
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		logger:      log,
	}
}

func (cs *chatbotService) SendMessage(ctx context.Context, req *dto.ChatbotMessageRequest) (*dto.ChatbotMessageResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	userId := req.UserId
	if userId == "" {
		userId = "anonymous"
	}

	conversation, err := cs.resolveConversation(ctx, uow, req.ConversationId, userId)
	if err != nil {
		return nil, err
	}

	userMessage := &entity.Message{
		Id:             uuid.Must(uuid.NewV7()),
		ConversationId: conversation.Id,
		Content:        req.Message,
		Sender:         constant.SenderUser,
		MessageType:    constant.MessageTypeText,
		CreatedAt:      time.Now().UTC(),
	}
	if err := uow.MessageRepository().Create(ctx, userMessage); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	history, err := cs.buildContext(ctx, uow, conversation.Id)
	if err != nil {
		return nil, err
	}

	reply, err := cs.llmProvider.Chat(ctx, history, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("completion provider: %w", err)
	}

	botMessage := &entity.Message{
		Id:             uuid.Must(uuid.NewV7()),
		ConversationId: conversation.Id,
		Content:        reply,
		Sender:         constant.SenderBot,
		MessageType:    constant.MessageTypeText,
		CreatedAt:      time.Now().UTC(),
	}
	if err := uow.MessageRepository().Create(ctx, botMessage); err != nil {
		return nil, fmt.Errorf("persist bot message: %w", err)
	}

	return &dto.ChatbotMessageResponse{
		Response:       reply,
		ConversationId: conversation.Id,
		MessageId:      botMessage.Id,
	}, nil
}

func (cs *chatbotService) resolveConversation(ctx context.Context, uow unitofwork.UnitOfWork, conversationId *uuid.UUID, userId string) (*entity.Conversation, error) {
	if conversationId != nil {
		conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: *conversationId})
		if err != nil {
			return nil, err
		}
		if conversation != nil {
			return conversation, nil
		}
		// Unknown id falls through to a fresh conversation, matching the
		// forgiving behavior of the public widget.
	}

	conversation := &entity.Conversation{
		Id:               uuid.New(),
		UserId:           userId,
		ConversationType: constant.ConversationTypeChatbot,
		CreatedAt:        time.Now().UTC(),
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("create chatbot conversation: %w", err)
	}
	return conversation, nil
}

func (cs *chatbotService) buildContext(ctx context.Context, uow unitofwork.UnitOfWork, conversationId uuid.UUID) ([]llm.Message, error) {
	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		specification.Limit{Limit: constant.ChatbotContextLimit},
	)
	if err != nil {
		return nil, fmt.Errorf("load chatbot context: %w", err)
	}

	history := make([]llm.Message, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		role := "assistant"
		if messages[i].Sender == constant.SenderUser {
			role = "user"
		}
		history = append(history, llm.Message{
			Role:    role,
			Content: messages[i].Content,
		})
	}
	return history, nil
}
