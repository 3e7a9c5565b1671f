package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatSession struct {
	Id             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoomId         string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	ConversationId *uuid.UUID `gorm:"type:uuid;uniqueIndex"` // one-to-one, linked lazily on first message
	Status         string     `gorm:"type:varchar(50);not null;default:'waiting'"`
	AdvisorId      *string    `gorm:"type:varchar(255)"`
	Metadata       datatypes.JSON
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`

	Conversation *Conversation `gorm:"foreignKey:ConversationId;constraint:OnDelete:CASCADE"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
