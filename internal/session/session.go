package session

import (
	"Parley/internal/api/dto"
	"Parley/internal/pkg/logger"
	"Parley/internal/pkg/realtime"
	"Parley/internal/service"
	"context"
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// State 会话生命周期
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
)

const (
	opsBuffer     = 64
	noticesBuffer = 16
)

// Deps 会话依赖的远端能力
type Deps struct {
	Directory service.DirectoryService
	Timeline  service.TimelineService
	Sender    service.SendService
	Chats     service.ChatService
	Realtime  realtime.Subscriber
	// Location 日期分组使用的时区，为空取本地时区
	Location *time.Location
}

// Session 单个登录用户的同步会话
// 所有状态只由 loop 协程读写，外部通过投递闭包修改
type Session struct {
	user   service.Identity
	deps   Deps
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	ops       chan func()
	inbox     *inbox
	quit      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once

	updates chan struct{}
	notices chan dto.NoticeDTO
	view    atomic.Pointer[dto.ViewDTO]

	// 以下字段仅在 loop 中访问
	state        State
	loading      bool
	convs        []*dto.ConversationDTO
	convIndex    map[string]int
	convSubs     map[string]realtime.Subscription
	pending      map[string]struct{}
	timelines    map[string]*timeline
	activeID     string
	autoSelected bool
	showSidebar  bool
	dirGen       uint64
	userSub      realtime.Subscription
}

func New(user service.Identity, deps Deps) (*Session, error) {
	if !user.Valid() {
		return nil, service.ErrParamInvalid
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	s := &Session{
		user:        user,
		deps:        deps,
		logger:      log.Default().With(logger.UserIDKey, user.ID),
		ops:         make(chan func(), opsBuffer),
		inbox:       newInbox(),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		updates:     make(chan struct{}, 1),
		notices:     make(chan dto.NoticeDTO, noticesBuffer),
		state:       StateUninitialized,
		convIndex:   make(map[string]int),
		convSubs:    make(map[string]realtime.Subscription),
		pending:     make(map[string]struct{}),
		timelines:   make(map[string]*timeline),
		showSidebar: true,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.view.Store(s.buildView())
	return s, nil
}

// Start 进入 Loading：订阅成员表并发起首次目录加载
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go func() {
			select {
			case <-ctx.Done():
				s.Close()
			case <-s.done:
			}
		}()
		go s.run()
		s.post(s.enter)
	})
}

// Close 停止事件循环并释放全部订阅，可重复调用
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		s.cancel()
		s.startOnce.Do(func() { close(s.done) })
	})
}

// Done 事件循环退出后关闭
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) User() service.Identity {
	return s.user
}

// Updates 视图变化信号，多次变化合并为一次
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

// Notices 需要提示给用户的瞬时消息
func (s *Session) Notices() <-chan dto.NoticeDTO {
	return s.notices
}

// View 最近一次发布的只读快照
func (s *Session) View() dto.ViewDTO {
	return *s.view.Load()
}

func (s *Session) run() {
	defer close(s.done)
	defer s.release()
	for {
		select {
		case fn := <-s.ops:
			fn()
		case <-s.inbox.wake:
			s.drainInbox()
		case <-s.quit:
			return
		}
	}
}

// post 投递闭包到事件循环，会话关闭后返回 false
func (s *Session) post(fn func()) bool {
	select {
	case <-s.quit:
		return false
	default:
	}
	select {
	case s.ops <- fn:
		return true
	case <-s.quit:
		return false
	}
}

// call 在事件循环中执行 fn 并等待结果
func (s *Session) call(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	if !s.post(func() { res <- fn() }) {
		return service.ErrSessionClosed
	}
	select {
	case err := <-res:
		return err
	case <-s.done:
		return service.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enter 首次进入 Loading
func (s *Session) enter() {
	s.state = StateLoading
	s.userSub = s.deps.Realtime.Subscribe(
		realtime.TableParticipants,
		realtime.EventInsert,
		realtime.Eq("user_id", s.user.ID),
		func(realtime.Change) { s.inbox.directoryChanged() },
	)
	s.logger.Info("Session started")
	s.loadDirectory()
}

// release 退出循环时释放全部订阅
func (s *Session) release() {
	if s.userSub != nil {
		s.userSub.Unsubscribe()
	}
	for id, sub := range s.convSubs {
		sub.Unsubscribe()
		delete(s.convSubs, id)
	}
	s.logger.Info("Session closed")
}

// publish 生成新快照并通知观察者
func (s *Session) publish() {
	s.view.Store(s.buildView())
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *Session) notify(title string, err error) {
	n := dto.NoticeDTO{Title: title, Destructive: true}
	if err != nil {
		n.Description = err.Error()
	}
	select {
	case s.notices <- n:
	default:
		s.logger.Warn("Notice dropped", "title", title)
	}
}
