package session

import (
	"Parley/internal/model"
	"sync"
)

// inbox 推送回调与事件循环之间的交接区
// 回调只在这里登记并唤醒循环，从不阻塞发布方；同一会话的多条通知合并为一次处理
type inbox struct {
	mu    sync.Mutex
	dir   bool
	chats map[string]*chatSignal
	order []string
	wake  chan struct{}
}

// chatSignal 某个会话自上次处理以来的新消息汇总
type chatSignal struct {
	last    *model.Message // 最近一条可解析的消息，全部无法解析时为 nil
	foreign int            // 其中他人发送的条数
}

func newInbox() *inbox {
	return &inbox{
		chats: make(map[string]*chatSignal),
		wake:  make(chan struct{}, 1),
	}
}

func (b *inbox) directoryChanged() {
	b.mu.Lock()
	b.dir = true
	b.mu.Unlock()
	b.signal()
}

// messageInserted msg 为 nil 表示载荷无法解析，仍需重载时间线
func (b *inbox) messageInserted(chatID string, msg *model.Message, foreign bool) {
	b.mu.Lock()
	sig, ok := b.chats[chatID]
	if !ok {
		sig = &chatSignal{}
		b.chats[chatID] = sig
		b.order = append(b.order, chatID)
	}
	if msg != nil {
		sig.last = msg
		if foreign {
			sig.foreign++
		}
	}
	b.mu.Unlock()
	b.signal()
}

func (b *inbox) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// drain 取走全部待处理通知，会话按首次到达顺序返回
func (b *inbox) drain() (dir bool, order []string, chats map[string]*chatSignal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dir, order, chats = b.dir, b.order, b.chats
	b.dir = false
	b.order = nil
	b.chats = make(map[string]*chatSignal)
	return dir, order, chats
}
