package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id             uuid.UUID
	RoomId         string
	ConversationId *uuid.UUID
	Status         string
	AdvisorId      *string
	Metadata       map[string]interface{}
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// HasConversation reports whether the lazy conversation link has been set.
func (s *ChatSession) HasConversation() bool {
	return s.ConversationId != nil
}
