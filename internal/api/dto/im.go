package dto

const (
	IntentSelect        = "select"
	IntentSend          = "send"
	IntentChatCreated   = "chat_created"
	IntentCreateChat    = "create_chat"
	IntentRefresh       = "refresh"
	IntentToggleSidebar = "toggle_sidebar"
)

const (
	FrameView   = "view"
	FrameNotice = "notice"
	FrameAck    = "ack"
	FrameError  = "error"
)

// IntentReq 展示层通过 WebSocket 上送的意图
type IntentReq struct {
	RequestID      string      `json:"requestId" validate:"max=64"`
	Type           string      `json:"type" validate:"required,oneof=select send chat_created create_chat refresh toggle_sidebar"`
	ConversationID string      `json:"conversationId" validate:"required_if=Type select,max=64"`
	Text           string      `json:"text" validate:"max=4000"`
	ChatID         string      `json:"chatId" validate:"required_if=Type chat_created,max=64"`
	Counterpart    *ContactDTO `json:"counterpart" validate:"required_if=Type chat_created"`
	Identifier     string      `json:"identifier" validate:"max=255"`
}

// ServerFrame 下行帧
type ServerFrame struct {
	Type      string      `json:"type"`
	RequestID string      `json:"requestId,omitempty"`
	Code      int         `json:"code,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// SendMessageReq REST 发送消息
type SendMessageReq struct {
	ChatID string `json:"chatId" binding:"required,max=64"`
	Text   string `json:"text" binding:"required,max=4000"`
}

// CreateChatReq 按用户名或邮箱发起单聊
type CreateChatReq struct {
	Identifier string `json:"identifier" binding:"required,max=255"`
}

type CreateChatResp struct {
	ChatID      string     `json:"chatId"`
	Counterpart ContactDTO `json:"counterpart"`
}

// TimelineResp 单个会话的完整时间线
type TimelineResp struct {
	Messages []MessageDTO   `json:"messages"`
	Groups   []DateGroupDTO `json:"groups"`
}
