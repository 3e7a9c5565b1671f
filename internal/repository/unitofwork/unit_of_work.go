package unitofwork

import (
	"context"

	"live-chat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ConversationRepository() contract.ConversationRepository
	MessageRepository() contract.MessageRepository
}
