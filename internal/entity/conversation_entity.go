package entity

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id               uuid.UUID
	UserId           string
	ConversationType string
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
