package bootstrap

import (
	"context"
	"log"

	"live-chat-be/internal/config"
	"live-chat-be/internal/controller"
	"live-chat-be/internal/handler"
	"live-chat-be/internal/pkg/logger"
	"live-chat-be/internal/realtime"
	"live-chat-be/internal/repository/memory"
	"live-chat-be/internal/repository/unitofwork"
	"live-chat-be/internal/service"
	"live-chat-be/pkg/llm/factory"

	pktNats "live-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ConversationController controller.IConversationController
	ChatbotController      controller.IChatbotController
	SessionController      controller.ISessionController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	ChatHandler *handler.ChatHandler
	Registry    *realtime.Registry
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OpenAIAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// In-memory session cache
	sessionCache := memory.NewSessionCache()

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Lifecycle events are best-effort: only wire the publisher when NATS
	// actually came up, the service treats a nil publisher as "disabled".
	var eventPublisher service.IEventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// Realtime group registry
	realtimeLogger := logger.NewIsolatedLogger(cfg.Chat.RealtimeLogFilePath)
	registry := realtime.NewRegistry(rdb, realtimeLogger)

	// 3. Services
	publisherService := service.NewPublisherService(cfg.Chat.MessageCreatedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Chat.MessageCreatedTopic,
		uowFactory,
		sysLogger,
	)

	chatService := service.NewChatService(
		uowFactory,
		sessionCache,
		publisherService,
		eventPublisher,
		sysLogger,
	)
	conversationService := service.NewConversationService(uowFactory)
	chatbotService := service.NewChatbotService(
		uowFactory,
		llmProvider,
		sysLogger,
	)

	// WebSocket handler
	chatHandler := handler.NewChatHandler(chatService, registry, realtimeLogger)

	// 4. Controllers
	return &Container{
		ConversationController: controller.NewConversationController(conversationService),
		ChatbotController:      controller.NewChatbotController(chatbotService),
		SessionController:      controller.NewSessionController(chatService),

		ConsumerService: consumerService,

		ChatHandler: chatHandler,
		Registry:    registry,
	}
}
