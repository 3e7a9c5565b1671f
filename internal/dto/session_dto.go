package dto

import (
	"time"

	"github.com/google/uuid"
)

type SessionResponse struct {
	Id             uuid.UUID              `json:"id"`
	RoomId         string                 `json:"room_id"`
	ConversationId *uuid.UUID             `json:"conversation_id"`
	Status         string                 `json:"status"`
	AdvisorId      *string                `json:"advisor_id"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      *time.Time             `json:"updated_at"`
}

type CloseSessionRequest struct {
	AdvisorId string                 `json:"advisor_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
