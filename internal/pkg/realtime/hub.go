package realtime

import (
	"context"
	log "log/slog"
	"sync"
)

// Subscriber 订阅原语
type Subscriber interface {
	Subscribe(table string, kind EventKind, filter Filter, fn func(Change)) Subscription
}

// Subscription 订阅句柄，Unsubscribe 可重复调用
type Subscription interface {
	Unsubscribe()
}

// Publisher 将变更投递到推送通道
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Source 远端推送源 (Redis / Kafka-Canal / Postgres NOTIFY / Mongo change stream)
// Run 阻塞直到 ctx 结束，收到的变更交给 sink
type Source interface {
	Run(ctx context.Context, sink Publisher) error
}

type subscription struct {
	id     uint64
	table  string
	kind   EventKind
	filter Filter
	fn     func(Change)

	hub  *Hub
	once sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s.id)
	})
}

// Hub 进程内分发器：推送源写入，会话按表/事件/过滤订阅
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscription
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscription)}
}

func (h *Hub) Subscribe(table string, kind EventKind, filter Filter, fn func(Change)) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &subscription{
		id:     h.nextID,
		table:  table,
		kind:   kind,
		filter: filter,
		fn:     fn,
		hub:    h,
	}
	h.subs[sub.id] = sub
	log.Debug("realtime subscribed", "table", table, "event", kind, "filter", filter.String())
	return sub
}

// Publish 同步分发给所有命中的订阅者，回调不得阻塞，否则会拖住所有发布方
func (h *Hub) Publish(_ context.Context, change Change) error {
	h.mu.RLock()
	matched := make([]*subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.table == change.Table && sub.kind.Match(change.Kind) && sub.filter.Match(change.Record) {
			matched = append(matched, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range matched {
		sub.fn(change)
	}
	return nil
}

// Len 当前存活的订阅数
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}
