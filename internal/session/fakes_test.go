package session

import (
	"Parley/internal/api/dto"
	"Parley/internal/pkg/realtime"
	"Parley/internal/service"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakeDirectory struct {
	mu     sync.Mutex
	result []dto.ConversationDTO
	err    error
	calls  int
}

func (f *fakeDirectory) set(convs []dto.ConversationDTO, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = convs
	f.err = err
}

func (f *fakeDirectory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeDirectory) Load(_ context.Context, _ string) ([]*dto.ConversationDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	res := make([]*dto.ConversationDTO, 0, len(f.result))
	for _, c := range f.result {
		c := c
		res = append(res, &c)
	}
	return res, nil
}

type fakeTimeline struct {
	mu    sync.Mutex
	data  map[string][]dto.MessageDTO
	err   map[string]error
	calls map[string]int
	// hold[chat][n] 第 n 次加载在返回前等待该通道关闭
	hold map[string]map[int]chan struct{}
}

func newFakeTimeline() *fakeTimeline {
	return &fakeTimeline{
		data:  make(map[string][]dto.MessageDTO),
		err:   make(map[string]error),
		calls: make(map[string]int),
		hold:  make(map[string]map[int]chan struct{}),
	}
}

func (f *fakeTimeline) set(chatID string, msgs ...dto.MessageDTO) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[chatID] = msgs
}

func (f *fakeTimeline) holdCall(chatID string, n int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hold[chatID] == nil {
		f.hold[chatID] = make(map[int]chan struct{})
	}
	ch := make(chan struct{})
	f.hold[chatID][n] = ch
	return ch
}

func (f *fakeTimeline) Calls(chatID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[chatID]
}

func (f *fakeTimeline) Load(_ context.Context, chatID, _ string) ([]dto.MessageDTO, error) {
	f.mu.Lock()
	n := f.calls[chatID]
	f.calls[chatID]++
	msgs := append([]dto.MessageDTO(nil), f.data[chatID]...)
	err := f.err[chatID]
	gate := f.hold[chatID][n]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

type fakeSender struct {
	mu    sync.Mutex
	reply *dto.MessageDTO
	err   error
	calls int
}

func (f *fakeSender) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSender) Send(_ context.Context, chatID string, user service.Identity, text string) (*dto.MessageDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	msg := *f.reply
	msg.ChatID = chatID
	msg.Content = text
	msg.Sender = dto.SenderDTO{ID: user.ID, Name: user.Email}
	msg.IsCurrentUser = true
	return &msg, nil
}

type fakeChats struct {
	chatID  string
	contact *dto.ContactDTO
	err     error
}

func (f *fakeChats) CreateChat(_ context.Context, _ service.Identity, _ string) (string, *dto.ContactDTO, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return f.chatID, f.contact, nil
}

type harness struct {
	t        *testing.T
	hub      *realtime.Hub
	dir      *fakeDirectory
	timeline *fakeTimeline
	sender   *fakeSender
	chats    *fakeChats
	sess     *Session
}

var me = service.Identity{ID: "me", Email: "me@example.com"}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		hub:      realtime.NewHub(),
		dir:      &fakeDirectory{},
		timeline: newFakeTimeline(),
		sender:   &fakeSender{reply: &dto.MessageDTO{ID: "m123", Timestamp: time.Now(), Local: true}},
		chats:    &fakeChats{},
	}
	sess, err := New(me, Deps{
		Directory: h.dir,
		Timeline:  h.timeline,
		Sender:    h.sender,
		Chats:     h.chats,
		Realtime:  h.hub,
		Location:  time.UTC,
	})
	require.NoError(t, err)
	h.sess = sess
	t.Cleanup(sess.Close)
	return h
}

func (h *harness) start() {
	h.sess.Start(context.Background())
}

func (h *harness) eventually(cond func(v dto.ViewDTO) bool, msg string) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return cond(h.sess.View()) }, waitFor, tick, msg)
}

func (h *harness) ready() {
	h.t.Helper()
	h.eventually(func(v dto.ViewDTO) bool { return v.State == string(StateReady) && !v.Loading }, "session never became ready")
}

// loaded 等待时间线首次加载完成
func (h *harness) loaded(chatID string) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		msgs, err := h.sess.Messages(context.Background(), chatID)
		return err == nil && msgs != nil
	}, waitFor, tick, "timeline %s never loaded", chatID)
}

func (h *harness) publish(table string, record map[string]any) {
	h.t.Helper()
	require.NoError(h.t, h.hub.Publish(context.Background(), realtime.Change{
		Table:  table,
		Kind:   realtime.EventInsert,
		Record: record,
	}))
}

func conv(id, contactID string) dto.ConversationDTO {
	return dto.ConversationDTO{
		ID:      id,
		Contact: dto.ContactDTO{ID: contactID, Name: contactID, Status: dto.StatusOffline},
		LastMessage: dto.LastMessageDTO{
			Content:   "Start a conversation",
			Timestamp: time.Now(),
			IsRead:    true,
		},
	}
}

func message(id, chatID, sender string, at time.Time) dto.MessageDTO {
	return dto.MessageDTO{
		ID:            id,
		ChatID:        chatID,
		Content:       "text " + id,
		Timestamp:     at,
		Sender:        dto.SenderDTO{ID: sender, Name: sender},
		IsCurrentUser: sender == me.ID,
	}
}

func ids(msgs []dto.MessageDTO) []string {
	res := make([]string, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, m.ID)
	}
	return res
}
