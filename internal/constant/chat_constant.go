package constant

const (
	// Group names are derived from the room id with a fixed prefix, so two
	// rooms can never collide on a group name.
	ChatGroupPrefix = "chat_"

	// HistoryLimit caps the number of messages replayed on join.
	HistoryLimit = 50

	// ChatbotContextLimit caps the history sent to the completion provider.
	ChatbotContextLimit = 10

	SenderUser    = "user"
	SenderBot     = "bot"
	SenderAdvisor = "advisor"

	// DefaultSenderName is the placeholder shown when a client sends no name.
	DefaultSenderName = "Usuario"

	ConversationTypeChatbot  = "chatbot"
	ConversationTypeLiveChat = "live_chat"

	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"

	SessionStatusWaiting = "waiting"
	SessionStatusActive  = "active"
	SessionStatusClosed  = "closed"

	EventTypeChatHistory = "chat_history"
	EventTypeChatMessage = "chat_message"
)
