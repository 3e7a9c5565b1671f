package contract

import (
	"context"

	"live-chat-be/internal/entity"
	"live-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	Update(ctx context.Context, session *entity.ChatSession) error

	// GetOrCreate resolves the session for roomId, creating it with the given
	// status when absent. Concurrent calls for the same room always converge
	// on a single row (unique constraint on room_id). The boolean reports
	// whether this call created the row.
	GetOrCreate(ctx context.Context, roomId string, status string) (*entity.ChatSession, bool, error)

	// LinkConversation sets the conversation link if and only if it is still
	// unset (compare-and-set). It returns the authoritative session row, which
	// may carry a different conversation id when another writer won the race.
	LinkConversation(ctx context.Context, sessionId uuid.UUID, conversationId uuid.UUID) (*entity.ChatSession, error)

	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
