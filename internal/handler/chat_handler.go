package handler

import (
	"context"
	"encoding/json"

	"live-chat-be/internal/constant"
	"live-chat-be/internal/dto"
	"live-chat-be/internal/entity"
	"live-chat-be/internal/pkg/logger"
	"live-chat-be/internal/realtime"
	"live-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ChatHandler upgrades websocket requests and drives the per-connection
// session: join the room's group, replay history once, then pump inbound
// messages through persistence and group fan-out.
type ChatHandler struct {
	chatService service.IChatService
	registry    *realtime.Registry
	logger      logger.ILogger
}

func NewChatHandler(chatService service.IChatService, registry *realtime.Registry, log logger.ILogger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		registry:    registry,
		logger:      log,
	}
}

func (h *ChatHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/chat/:roomId", h.ServeWs)
}

// ServeWs handles websocket requests from the peer.
func (h *ChatHandler) ServeWs(c *fiber.Ctx) error {
	roomId := c.Params("roomId")
	if roomId == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing room id"})
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ChatHandler", "Starting chat session", map[string]interface{}{"room_id": roomId})
		h.RunSession(conn, roomId)
		h.logger.Info("ChatHandler", "Chat session ended", map[string]interface{}{"room_id": roomId})
	})(c)
}

// RunSession runs the connection state machine on an accepted connection.
// It blocks until the connection drops.
//
// Join is all-or-nothing: a failure to resolve the session or load history
// deregisters the half-joined member and closes the connection before any
// event reaches the client.
func (h *ChatHandler) RunSession(conn realtime.Conn, roomId string) {
	ctx := context.Background()
	groupName := constant.ChatGroupPrefix + roomId

	session, err := h.chatService.GetOrCreateSession(ctx, roomId)
	if err != nil {
		h.logger.Error("ChatHandler", "Connection rejected: session resolve failed", map[string]interface{}{"error": err.Error(), "room_id": roomId})
		conn.Close()
		return
	}

	client := realtime.NewClient(h.registry, conn, groupName)
	h.registry.Join(groupName, client)

	history, err := h.chatService.LoadHistory(ctx, session)
	if err != nil {
		h.logger.Error("ChatHandler", "Connection rejected: history load failed", map[string]interface{}{"error": err.Error(), "room_id": roomId})
		h.registry.Leave(groupName, client)
		client.Shutdown()
		conn.Close()
		return
	}

	historyEvent, err := json.Marshal(dto.ChatHistoryEvent{
		Type:     constant.EventTypeChatHistory,
		Messages: history,
	})
	if err != nil {
		h.logger.Error("ChatHandler", "Connection rejected: history encode failed", map[string]interface{}{"error": err.Error(), "room_id": roomId})
		h.registry.Leave(groupName, client)
		client.Shutdown()
		conn.Close()
		return
	}
	client.Enqueue(historyEvent)
	client.MarkJoined()

	go client.WritePump()
	client.ReadPump(func(payload []byte) {
		h.handleInbound(ctx, session, groupName, payload)
	})
}

// handleInbound processes one inbound frame. Malformed payloads and empty
// messages are dropped without closing the connection; a persistence failure
// is local to this message and produces no broadcast.
func (h *ChatHandler) handleInbound(ctx context.Context, session *entity.ChatSession, groupName string, payload []byte) {
	var event dto.InboundChatEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Debug("ChatHandler", "Dropping malformed inbound event", map[string]interface{}{"room_id": session.RoomId})
		return
	}

	if event.Message == "" {
		return
	}
	if event.Sender == "" {
		event.Sender = constant.SenderUser
	}
	if event.SenderName == "" {
		event.SenderName = constant.DefaultSenderName
	}

	messageEvent, err := h.chatService.SaveMessage(ctx, session, event.Message, event.Sender, event.SenderName)
	if err != nil {
		h.logger.Error("ChatHandler", "Failed to persist message", map[string]interface{}{"error": err.Error(), "room_id": session.RoomId})
		return
	}

	data, err := json.Marshal(messageEvent)
	if err != nil {
		h.logger.Error("ChatHandler", "Failed to encode message event", map[string]interface{}{"error": err.Error(), "room_id": session.RoomId})
		return
	}

	// The sender gets its own echo through the same fan-out as everyone else.
	h.registry.Broadcast(groupName, data)
}
