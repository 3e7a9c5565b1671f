package mapper

import (
	"encoding/json"
	"time"

	"live-chat-be/internal/entity"
	"live-chat-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]interface{}
	if len(s.Metadata) > 0 {
		// Metadata is written by us as a JSON object; treat a decode failure
		// as an absent value rather than failing the read path.
		if err := json.Unmarshal(s.Metadata, &metadata); err != nil {
			metadata = nil
		}
	}

	return &entity.ChatSession{
		Id:             s.Id,
		RoomId:         s.RoomId,
		ConversationId: s.ConversationId,
		Status:         s.Status,
		AdvisorId:      s.AdvisorId,
		Metadata:       metadata,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	var metadata datatypes.JSON
	if s.Metadata != nil {
		if raw, err := json.Marshal(s.Metadata); err == nil {
			metadata = raw
		}
	}

	return &model.ChatSession{
		Id:             s.Id,
		RoomId:         s.RoomId,
		ConversationId: s.ConversationId,
		Status:         s.Status,
		AdvisorId:      s.AdvisorId,
		Metadata:       metadata,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

// Conversation Mappers

func (m *ChatMapper) ConversationToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Conversation{
		Id:               c.Id,
		UserId:           c.UserId,
		ConversationType: c.ConversationType,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *ChatMapper) ConversationToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Conversation{
		Id:               c.Id,
		UserId:           c.UserId,
		ConversationType: c.ConversationType,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	return &entity.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		Content:        msg.Content,
		Sender:         msg.Sender,
		SenderName:     msg.SenderName,
		MessageType:    msg.MessageType,
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	return &model.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		Content:        msg.Content,
		Sender:         msg.Sender,
		SenderName:     msg.SenderName,
		MessageType:    msg.MessageType,
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *ChatMapper) MessagesToEntities(models []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(models))
	for i, msg := range models {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}
