package service

import (
	"context"

	"live-chat-be/internal/dto"
	"live-chat-be/internal/entity"
	"live-chat-be/internal/repository/specification"
	"live-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IConversationService interface {
	GetAllByUser(ctx context.Context, userId string) ([]*dto.ConversationResponse, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*dto.ConversationResponse, error)
	GetMessages(ctx context.Context, conversationId uuid.UUID) ([]*dto.MessageResponse, error)
}

type conversationService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewConversationService(uowFactory unitofwork.RepositoryFactory) IConversationService {
	return &conversationService{
		uowFactory: uowFactory,
	}
}

func (c *conversationService) GetAllByUser(ctx context.Context, userId string) ([]*dto.ConversationResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	conversations, err := uow.ConversationRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		res, err := c.buildResponse(ctx, uow, conversation)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, nil
}

func (c *conversationService) GetConversation(ctx context.Context, id uuid.UUID) (*dto.ConversationResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, nil
	}
	return c.buildResponse(ctx, uow, conversation)
}

func (c *conversationService) GetMessages(ctx context.Context, conversationId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, nil
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.OrderBy{Field: "id", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		result = append(result, messageToResponse(msg))
	}
	return result, nil
}

func (c *conversationService) buildResponse(ctx context.Context, uow unitofwork.UnitOfWork, conversation *entity.Conversation) (*dto.ConversationResponse, error) {
	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversation.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.OrderBy{Field: "id", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	messageDTOs := make([]dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		messageDTOs = append(messageDTOs, *messageToResponse(msg))
	}

	return &dto.ConversationResponse{
		Id:               conversation.Id,
		UserId:           conversation.UserId,
		ConversationType: conversation.ConversationType,
		CreatedAt:        conversation.CreatedAt,
		UpdatedAt:        conversation.UpdatedAt,
		Messages:         messageDTOs,
		MessageCount:     int64(len(messageDTOs)),
	}, nil
}

func messageToResponse(msg *entity.Message) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:          msg.Id,
		Content:     msg.Content,
		Sender:      msg.Sender,
		SenderName:  msg.SenderName,
		MessageType: msg.MessageType,
		CreatedAt:   msg.CreatedAt,
	}
}
