package dto

import (
	"time"

	"github.com/google/uuid"
)

type MessageResponse struct {
	Id          uuid.UUID `json:"id"`
	Content     string    `json:"content"`
	Sender      string    `json:"sender"`
	SenderName  *string   `json:"sender_name"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type ConversationResponse struct {
	Id               uuid.UUID         `json:"id"`
	UserId           string            `json:"user_id"`
	ConversationType string            `json:"conversation_type"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        *time.Time        `json:"updated_at"`
	Messages         []MessageResponse `json:"messages"`
	MessageCount     int64             `json:"message_count"`
}
