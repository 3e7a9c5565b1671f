package dto

import (
	"github.com/google/uuid"
)

type ChatbotMessageRequest struct {
	Message        string     `json:"message" validate:"required"`
	ConversationId *uuid.UUID `json:"conversation_id,omitempty"`
	UserId         string     `json:"user_id,omitempty"`
}

type ChatbotMessageResponse struct {
	Response       string    `json:"response"`
	ConversationId uuid.UUID `json:"conversation_id"`
	MessageId      uuid.UUID `json:"message_id"`
}
