package handler

import (
	"Parley/internal/api/dto"
	"Parley/internal/api/middleware"
	"Parley/internal/pkg/logger"
	"Parley/internal/pkg/response"
	"Parley/internal/service"
	"Parley/internal/session"
	"context"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxFrameSize   = 16 << 10
	framesBuffer   = 16
	intentDeadline = 15 * time.Second
)

var validate = validator.New()

type WsHandler struct {
	deps     session.Deps
	registry *session.Registry
	upgrader websocket.Upgrader
}

func NewWsHandler(deps session.Deps, registry *session.Registry) *WsHandler {
	return NewWsHandlerWithOrigins(deps, registry, nil)
}

// NewWsHandlerWithOrigins 握手时按来源白名单校验 Origin
func NewWsHandlerWithOrigins(deps session.Deps, registry *session.Registry, allowed middleware.Origins) *WsHandler {
	return &WsHandler{
		deps:     deps,
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return allowed.Allowed(r.Header.Get("Origin"))
			},
		},
	}
}

// Connect 每个连接一个同步会话：上行意图，下行视图快照与提示
func (s *WsHandler) Connect(c *gin.Context) {
	user := currentUser(c)
	sess, err := session.New(user, s.deps)
	if err != nil {
		response.Error(c, service.UnauthorizedError)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "user_id", user.ID, "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	traceID := c.GetString(logger.TraceIDKey)
	if traceID == "" {
		traceID = uuid.NewString()
	}
	// 连接生命周期长于请求，不继承请求 Context
	ctx := logger.WithUserID(logger.WithTraceID(context.Background(), traceID), user.ID)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.registry.Add(sess)
	defer s.registry.Remove(sess)
	sess.Start(ctx)
	defer sess.Close()

	log.InfoContext(ctx, "用户 WS 连接已建立")

	frames := make(chan dto.ServerFrame, framesBuffer)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		// 写端退出后关闭连接以唤醒阻塞中的读
		defer func() {
			_ = conn.Close()
		}()
		s.writeLoop(ctx, conn, sess, frames)
	}()

	s.readLoop(ctx, conn, sess, frames)
	cancel()
	<-writerDone
	log.InfoContext(ctx, "用户 WS 连接已断开")
}

// readLoop 读取并逐条处理意图，连接断开或上下文取消时返回
func (s *WsHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session, frames chan<- dto.ServerFrame) {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WarnContext(ctx, "WS 读取失败", "err", err)
			}
			return
		}

		frame := s.handleIntent(ctx, sess, payload)
		select {
		case frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

func (s *WsHandler) handleIntent(ctx context.Context, sess *session.Session, payload []byte) dto.ServerFrame {
	var req dto.IntentReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return response.ErrorFrame("", err)
	}
	if err := validate.Struct(&req); err != nil {
		return response.ErrorFrame(req.RequestID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, intentDeadline)
	defer cancel()
	data, err := Dispatch(ctx, sess, &req)
	if err != nil {
		log.DebugContext(ctx, "意图处理失败", "type", req.Type, "err", err)
		return response.ErrorFrame(req.RequestID, err)
	}
	return response.Ack(req.RequestID, data)
}

// Dispatch 将意图路由到会话操作
func Dispatch(ctx context.Context, sess *session.Session, req *dto.IntentReq) (interface{}, error) {
	switch req.Type {
	case dto.IntentSelect:
		return nil, sess.Select(ctx, req.ConversationID)
	case dto.IntentSend:
		return nil, sess.Send(ctx, req.Text)
	case dto.IntentChatCreated:
		return nil, sess.ChatCreated(ctx, req.ChatID, *req.Counterpart)
	case dto.IntentCreateChat:
		chatID, err := sess.CreateChat(ctx, req.Identifier)
		if err != nil {
			return nil, err
		}
		return gin.H{"chatId": chatID}, nil
	case dto.IntentRefresh:
		return nil, sess.Refresh(ctx)
	case dto.IntentToggleSidebar:
		return nil, sess.ToggleSidebar(ctx)
	}
	return nil, service.ErrParamInvalid
}

// writeLoop 连接上唯一的写协程
func (s *WsHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session, frames <-chan dto.ServerFrame) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	// 首帧推送当前快照
	if err := writeFrame(conn, viewFrame(sess)); err != nil {
		return
	}

	for {
		var frame dto.ServerFrame
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-sess.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"), time.Now().Add(writeWait))
			return
		case <-sess.Updates():
			frame = viewFrame(sess)
		case notice := <-sess.Notices():
			frame = dto.ServerFrame{Type: dto.FrameNotice, Data: notice}
		case frame = <-frames:
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		if err := writeFrame(conn, frame); err != nil {
			log.WarnContext(ctx, "WS 推送失败", "type", frame.Type, "err", err)
			return
		}
	}
}

func viewFrame(sess *session.Session) dto.ServerFrame {
	return dto.ServerFrame{Type: dto.FrameView, Data: sess.View()}
}

func writeFrame(conn *websocket.Conn, frame dto.ServerFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}
