package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;index"`
	Content        string    `gorm:"type:text;not null"`
	Sender         string    `gorm:"type:varchar(50);not null"`
	SenderName     *string   `gorm:"type:varchar(255)"`
	MessageType    string    `gorm:"type:varchar(50);not null;default:'text'"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "messages"
}
