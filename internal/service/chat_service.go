package service

import (
	"context"
	"fmt"
	"time"

	"live-chat-be/internal/constant"
	"live-chat-be/internal/dto"
	"live-chat-be/internal/entity"
	"live-chat-be/internal/pkg/logger"
	"live-chat-be/internal/repository/memory"
	"live-chat-be/internal/repository/specification"
	"live-chat-be/internal/repository/unitofwork"
	"live-chat-be/pkg/events"

	"github.com/google/uuid"
)

// IEventPublisher pushes lifecycle events to the external event stream.
// Satisfied by pkg/nats.Publisher; nil-able when NATS is not configured.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IChatService interface {
	// GetOrCreateSession resolves the room's session, creating it as active
	// on first connect. Concurrent first-connects converge on one session.
	GetOrCreateSession(ctx context.Context, roomId string) (*entity.ChatSession, error)

	// SaveMessage persists a validated inbound message, lazily creating and
	// linking the conversation, and returns the broadcast event. The session
	// is updated in place with the authoritative conversation link.
	SaveMessage(ctx context.Context, session *entity.ChatSession, content, sender, senderName string) (*dto.ChatMessageEvent, error)

	// LoadHistory returns up to the most recent 50 messages of the session's
	// conversation in ascending creation order. Read-only.
	LoadHistory(ctx context.Context, session *entity.ChatSession) ([]dto.ChatHistoryItem, error)

	GetSessionByRoom(ctx context.Context, roomId string) (*dto.SessionResponse, error)
	CloseSession(ctx context.Context, roomId string, req *dto.CloseSessionRequest) (*dto.SessionResponse, error)
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	sessionCache     *memory.SessionCache
	publisherService IPublisherService
	eventPublisher   IEventPublisher
	logger           logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	sessionCache *memory.SessionCache,
	publisherService IPublisherService,
	eventPublisher IEventPublisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:       uowFactory,
		sessionCache:     sessionCache,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

func (s *chatService) GetOrCreateSession(ctx context.Context, roomId string) (*entity.ChatSession, error) {
	// An unlinked session is never served from cache: another instance may
	// have linked the conversation since we cached it, and joiners must see
	// that link to get their history replay.
	if cached, found := s.sessionCache.Get(roomId); found && cached.HasConversation() {
		copied := *cached
		return &copied, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Sessions born from a live connection are staffed and usable right away.
	session, created, err := uow.ChatSessionRepository().GetOrCreate(ctx, roomId, constant.SessionStatusActive)
	if err != nil {
		return nil, fmt.Errorf("resolve session for room %s: %w", roomId, err)
	}

	s.sessionCache.Save(session)

	if created {
		s.logger.Info("ChatService", "Chat session created", map[string]interface{}{"room_id": roomId, "session_id": session.Id})
		s.publishEvent(ctx, events.NewSessionCreated(session.Id.String(), roomId, session.Status))
	}

	copied := *session
	return &copied, nil
}

func (s *chatService) SaveMessage(ctx context.Context, session *entity.ChatSession, content, sender, senderName string) (*dto.ChatMessageEvent, error) {
	if err := s.ensureConversation(ctx, session); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// V7 ids are time-ordered, so the (created_at, id) sort resolves
	// equal timestamps in insertion order.
	msg := &entity.Message{
		Id:             uuid.Must(uuid.NewV7()),
		ConversationId: *session.ConversationId,
		Content:        content,
		Sender:         sender,
		SenderName:     &senderName,
		MessageType:    constant.MessageTypeText,
		CreatedAt:      time.Now().UTC(),
	}
	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message for room %s: %w", session.RoomId, err)
	}

	if err := s.publisherService.PublishMessageCreated(ctx, &dto.PublishChatMessageCreated{
		MessageId:      msg.Id,
		ConversationId: msg.ConversationId,
		SessionId:      session.Id,
		RoomId:         session.RoomId,
		Sender:         sender,
	}); err != nil {
		// Bookkeeping only; the message itself is already durable.
		s.logger.Warn("ChatService", "Failed to publish message-created event", map[string]interface{}{"error": err.Error(), "message_id": msg.Id})
	}

	return &dto.ChatMessageEvent{
		Type:       constant.EventTypeChatMessage,
		Message:    msg.Content,
		Sender:     msg.Sender,
		SenderName: senderName,
		MessageId:  msg.Id,
		Timestamp:  msg.CreatedAt.Format(time.RFC3339),
	}, nil
}

// ensureConversation lazily creates and links the session's conversation.
// The link is a compare-and-set: the loser of a first-message race rolls its
// conversation back and adopts the winner's.
func (s *chatService) ensureConversation(ctx context.Context, session *entity.ChatSession) error {
	if session.HasConversation() {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin conversation transaction: %w", err)
	}

	conversation := &entity.Conversation{
		Id:               uuid.New(),
		UserId:           fmt.Sprintf("user_%s", session.RoomId),
		ConversationType: constant.ConversationTypeLiveChat,
		CreatedAt:        time.Now().UTC(),
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		uow.Rollback()
		return fmt.Errorf("create conversation for room %s: %w", session.RoomId, err)
	}

	linked, err := uow.ChatSessionRepository().LinkConversation(ctx, session.Id, conversation.Id)
	if err != nil {
		uow.Rollback()
		return fmt.Errorf("link conversation for room %s: %w", session.RoomId, err)
	}

	won := linked.ConversationId != nil && *linked.ConversationId == conversation.Id
	if won {
		if err := uow.Commit(); err != nil {
			return fmt.Errorf("commit conversation for room %s: %w", session.RoomId, err)
		}
	} else {
		// Another member linked first; discard our conversation and re-read
		// the authoritative row.
		uow.Rollback()
		fresh := s.uowFactory.NewUnitOfWork(ctx)
		linked, err = fresh.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: session.Id})
		if err != nil {
			return fmt.Errorf("reload session for room %s: %w", session.RoomId, err)
		}
		if linked == nil || !linked.HasConversation() {
			return fmt.Errorf("session %s lost conversation link race but has no link", session.Id)
		}
	}

	*session = *linked
	s.sessionCache.Save(linked)
	return nil
}

func (s *chatService) LoadHistory(ctx context.Context, session *entity.ChatSession) ([]dto.ChatHistoryItem, error) {
	items := make([]dto.ChatHistoryItem, 0, constant.HistoryLimit)
	if !session.HasConversation() {
		return items, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Most recent N, then replayed oldest-first.
	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: *session.ConversationId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		specification.Limit{Limit: constant.HistoryLimit},
	)
	if err != nil {
		return nil, fmt.Errorf("load history for room %s: %w", session.RoomId, err)
	}

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		senderName := constant.DefaultSenderName
		if msg.SenderName != nil && *msg.SenderName != "" {
			senderName = *msg.SenderName
		}
		items = append(items, dto.ChatHistoryItem{
			Id:         msg.Id,
			Content:    msg.Content,
			Sender:     msg.Sender,
			SenderName: senderName,
			Timestamp:  msg.CreatedAt.Format(time.RFC3339),
		})
	}
	return items, nil
}

func (s *chatService) GetSessionByRoom(ctx context.Context, roomId string) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByRoomID{RoomID: roomId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	return sessionToResponse(session), nil
}

func (s *chatService) CloseSession(ctx context.Context, roomId string, req *dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByRoomID{RoomID: roomId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	session.Status = constant.SessionStatusClosed
	if req.AdvisorId != "" {
		advisorId := req.AdvisorId
		session.AdvisorId = &advisorId
	}
	if req.Metadata != nil {
		session.Metadata = req.Metadata
	}
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, fmt.Errorf("close session for room %s: %w", roomId, err)
	}

	s.sessionCache.Delete(roomId)
	s.publishEvent(ctx, events.NewSessionClosed(session.Id.String(), roomId, session.AdvisorId))

	return sessionToResponse(session), nil
}

func (s *chatService) publishEvent(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("ChatService", "Failed to publish lifecycle event", map[string]interface{}{"error": err.Error(), "event": event.EventType()})
	}
}

func sessionToResponse(session *entity.ChatSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:             session.Id,
		RoomId:         session.RoomId,
		ConversationId: session.ConversationId,
		Status:         session.Status,
		AdvisorId:      session.AdvisorId,
		Metadata:       session.Metadata,
		CreatedAt:      session.CreatedAt,
		UpdatedAt:      session.UpdatedAt,
	}
}
