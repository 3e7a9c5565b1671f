package dto

import (
	"github.com/google/uuid"
)

// InboundChatEvent is the JSON payload a connected client sends.
// Sender and SenderName are optional and defaulted server-side.
type InboundChatEvent struct {
	Message    string `json:"message"`
	Sender     string `json:"sender,omitempty"`
	SenderName string `json:"sender_name,omitempty"`
}

// ChatHistoryEvent is sent exactly once, immediately after a successful join.
type ChatHistoryEvent struct {
	Type     string            `json:"type"`
	Messages []ChatHistoryItem `json:"messages"`
}

type ChatHistoryItem struct {
	Id         uuid.UUID `json:"id"`
	Content    string    `json:"content"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"sender_name"`
	Timestamp  string    `json:"timestamp"`
}

// ChatMessageEvent is fanned out to every member of the room's group,
// including the sender.
type ChatMessageEvent struct {
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"sender_name"`
	MessageId  uuid.UUID `json:"message_id"`
	Timestamp  string    `json:"timestamp"`
}

// PublishChatMessageCreated is the event bus payload emitted after a message
// has been persisted.
type PublishChatMessageCreated struct {
	MessageId      uuid.UUID `json:"message_id"`
	ConversationId uuid.UUID `json:"conversation_id"`
	SessionId      uuid.UUID `json:"session_id"`
	RoomId         string    `json:"room_id"`
	Sender         string    `json:"sender"`
}
