package entity

import (
	"time"

	"github.com/google/uuid"
)

// Message is immutable once created. Ordering inside a conversation is by
// CreatedAt ascending with Id as the tie-breaker; ids are time-ordered (V7),
// so equal timestamps resolve in insertion order.
type Message struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	Content        string
	Sender         string
	SenderName     *string
	MessageType    string
	CreatedAt      time.Time
}
