package handler

import (
	"Parley/internal/api/dto"
	"Parley/internal/api/middleware"
	"Parley/internal/pkg/response"
	"Parley/internal/service"
	"time"

	"github.com/gin-gonic/gin"
)

// IMHandler 无状态的一次性查询与写入，供不维持长连接的客户端使用
type IMHandler struct {
	directory service.DirectoryService
	timeline  service.TimelineService
	sender    service.SendService
	chats     service.ChatService
	location  *time.Location
}

func NewIMHandler(directory service.DirectoryService, timeline service.TimelineService,
	sender service.SendService, chats service.ChatService) *IMHandler {
	return &IMHandler{
		directory: directory,
		timeline:  timeline,
		sender:    sender,
		chats:     chats,
		location:  time.Local,
	}
}

func currentUser(c *gin.Context) service.Identity {
	return service.Identity{
		ID:    c.GetString(middleware.UserIDKey),
		Email: c.GetString(middleware.UserEmailKey),
	}
}

// GetConversationList 获取会话列表
func (s *IMHandler) GetConversationList(c *gin.Context) {
	res, err := s.directory.Load(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// GetChatHistory 获取会话完整时间线
func (s *IMHandler) GetChatHistory(c *gin.Context) {
	chatID := c.Query("chatId")
	if chatID == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	msgs, err := s.timeline.Load(c.Request.Context(), chatID, currentUser(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	msgs = service.MarkAvatars(msgs)
	response.Success(c, dto.TimelineResp{
		Messages: msgs,
		Groups:   service.GroupByDate(msgs, s.location),
	})
}

// SendMessage 发送消息接口
func (s *IMHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.sender.Send(c.Request.Context(), req.ChatID, currentUser(c), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// CreateChat 按用户名或邮箱发起单聊
func (s *IMHandler) CreateChat(c *gin.Context) {
	var req dto.CreateChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	chatID, contact, err := s.chats.CreateChat(c.Request.Context(), currentUser(c), req.Identifier)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.CreateChatResp{ChatID: chatID, Counterpart: *contact})
}
