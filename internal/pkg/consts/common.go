package consts

const (
	// PlaceholderLastMessage 会话尚无消息时展示的预览
	PlaceholderLastMessage = "Start a conversation"
	UnknownSenderName      = "Unknown"
	SelfSenderName         = "You"
)

const (
	ProfileSearchLimit = 10
)
