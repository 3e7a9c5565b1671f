package service

import (
	"context"
	"fmt"
	"testing"

	"live-chat-be/internal/constant"
	"live-chat-be/internal/dto"
	"live-chat-be/internal/repository/specification"
	"live-chat-be/internal/repository/unitofwork"
	"live-chat-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider echoes a canned reply and records the history it was given.
type stubProvider struct {
	reply       string
	lastHistory []llm.Message
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.lastHistory = history
	return s.reply, nil
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.reply, nil
}

func TestChatbotSendMessage(t *testing.T) {
	db := newTestDB(t)
	provider := &stubProvider{reply: "hola, soy el bot"}
	svc := NewChatbotService(unitofwork.NewRepositoryFactory(db), provider, nopLogger{})
	ctx := context.Background()

	t.Run("creates a chatbot conversation on first message", func(t *testing.T) {
		res, err := svc.SendMessage(ctx, &dto.ChatbotMessageRequest{Message: "hola", UserId: "u1"})
		require.NoError(t, err)
		assert.Equal(t, "hola, soy el bot", res.Response)
		assert.NotEqual(t, uuid.Nil, res.ConversationId)

		uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
		conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: res.ConversationId})
		require.NoError(t, err)
		require.NotNil(t, conversation)
		assert.Equal(t, constant.ConversationTypeChatbot, conversation.ConversationType)
		assert.Equal(t, "u1", conversation.UserId)

		// Both the user's message and the reply are persisted.
		count, err := uow.MessageRepository().Count(ctx, specification.ByConversationID{ConversationID: res.ConversationId})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("continues an existing conversation", func(t *testing.T) {
		first, err := svc.SendMessage(ctx, &dto.ChatbotMessageRequest{Message: "hola", UserId: "u2"})
		require.NoError(t, err)

		second, err := svc.SendMessage(ctx, &dto.ChatbotMessageRequest{
			Message:        "y ahora?",
			ConversationId: &first.ConversationId,
			UserId:         "u2",
		})
		require.NoError(t, err)
		assert.Equal(t, first.ConversationId, second.ConversationId)

		// The provider saw the whole exchange, user roles mapped.
		require.Len(t, provider.lastHistory, 3)
		assert.Equal(t, "user", provider.lastHistory[0].Role)
		assert.Equal(t, "assistant", provider.lastHistory[1].Role)
		assert.Equal(t, "y ahora?", provider.lastHistory[2].Content)
	})

	t.Run("unknown conversation id starts fresh", func(t *testing.T) {
		ghost := uuid.New()
		res, err := svc.SendMessage(ctx, &dto.ChatbotMessageRequest{
			Message:        "hola",
			ConversationId: &ghost,
		})
		require.NoError(t, err)
		assert.NotEqual(t, ghost, res.ConversationId)
	})

	t.Run("caps the provider context", func(t *testing.T) {
		res, err := svc.SendMessage(ctx, &dto.ChatbotMessageRequest{Message: "inicio", UserId: "u3"})
		require.NoError(t, err)

		for i := 0; i < constant.ChatbotContextLimit; i++ {
			_, err := svc.SendMessage(ctx, &dto.ChatbotMessageRequest{
				Message:        fmt.Sprintf("turno-%d", i),
				ConversationId: &res.ConversationId,
				UserId:         "u3",
			})
			require.NoError(t, err)
		}

		assert.Len(t, provider.lastHistory, constant.ChatbotContextLimit)
	})
}
