package service

import (
	"Parley/internal/model"
	"Parley/internal/repository"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var errBoom = errors.New("boom")

// memStore 内存版远端存储，支持按方法注入错误
type memStore struct {
	mu           sync.Mutex
	participants []*model.ChatParticipant
	profiles     map[string]*model.Profile
	messages     []*model.Message
	chats        map[string]*model.Chat

	failListByUser  bool
	failListByChat  map[string]bool
	failProfiles    bool
	failLatest      map[string]bool
	failListMsgs    bool
	failCreateMsg   bool
	failCreateChat  bool
	returnEmptyID   bool
	createdMessages int
}

func newMemStore() *memStore {
	return &memStore{
		profiles:       make(map[string]*model.Profile),
		chats:          make(map[string]*model.Chat),
		failListByChat: make(map[string]bool),
		failLatest:     make(map[string]bool),
	}
}

func (m *memStore) store() *repository.Store {
	return &repository.Store{
		Chats:        memChats{m},
		Participants: memParticipants{m},
		Profiles:     memProfiles{m},
		Messages:     memMessages{m},
	}
}

func (m *memStore) addProfile(id, username string) *model.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &model.Profile{ID: id, Username: username}
	m.profiles[id] = p
	return p
}

func (m *memStore) join(chatID string, userIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range userIDs {
		m.participants = append(m.participants, &model.ChatParticipant{ID: uuid.NewString(), ChatID: chatID, UserID: u})
	}
}

func (m *memStore) addMessage(chatID, senderID, content string, at time.Time) *model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := &model.Message{ID: uuid.NewString(), ChatID: chatID, SenderID: senderID, Content: content, CreatedAt: at}
	m.messages = append(m.messages, msg)
	return msg
}

type memChats struct{ m *memStore }

func (r memChats) CreateChat(_ context.Context, chat *model.Chat, participants []*model.ChatParticipant) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failCreateChat {
		return errBoom
	}
	r.m.chats[chat.ID] = chat
	for _, p := range participants {
		p.ChatID = chat.ID
		p.ID = uuid.NewString()
		r.m.participants = append(r.m.participants, p)
	}
	return nil
}

type memParticipants struct{ m *memStore }

func (r memParticipants) ListByUser(_ context.Context, userID string) ([]*model.ChatParticipant, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failListByUser {
		return nil, errBoom
	}
	var res []*model.ChatParticipant
	for _, p := range r.m.participants {
		if p.UserID == userID {
			res = append(res, p)
		}
	}
	return res, nil
}

func (r memParticipants) ListByChat(_ context.Context, chatID string) ([]*model.ChatParticipant, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failListByChat[chatID] {
		return nil, errBoom
	}
	var res []*model.ChatParticipant
	for _, p := range r.m.participants {
		if p.ChatID == chatID {
			res = append(res, p)
		}
	}
	return res, nil
}

type memProfiles struct{ m *memStore }

func (r memProfiles) GetByIDs(_ context.Context, ids []string) ([]*model.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failProfiles {
		return nil, errBoom
	}
	var res []*model.Profile
	for _, id := range ids {
		if p, ok := r.m.profiles[id]; ok {
			res = append(res, p)
		}
	}
	return res, nil
}

func (r memProfiles) Search(_ context.Context, term string, limit int) ([]*model.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failProfiles {
		return nil, errBoom
	}
	term = strings.ToLower(term)
	var res []*model.Profile
	for _, p := range r.m.profiles {
		email := ""
		if p.Email != nil {
			email = *p.Email
		}
		if strings.Contains(strings.ToLower(p.Username), term) || strings.Contains(strings.ToLower(email), term) {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Username < res[j].Username })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r memProfiles) TouchLastSeen(_ context.Context, ids []string, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, id := range ids {
		if p, ok := r.m.profiles[id]; ok {
			t := at
			p.LastSeen = &t
		}
	}
	return nil
}

type memMessages struct{ m *memStore }

func (r memMessages) ListByChat(_ context.Context, chatID string) ([]*model.Message, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failListMsgs {
		return nil, errBoom
	}
	var res []*model.Message
	for _, msg := range r.m.messages {
		if msg.ChatID == chatID {
			c := *msg
			res = append(res, &c)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (r memMessages) Latest(ctx context.Context, chatID string) (*model.Message, error) {
	r.m.mu.Lock()
	fail := r.m.failLatest[chatID]
	r.m.mu.Unlock()
	if fail {
		return nil, errBoom
	}
	msgs, err := r.ListByChat(ctx, chatID)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[len(msgs)-1], nil
}

func (r memMessages) Create(_ context.Context, msg *model.Message) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failCreateMsg {
		return errBoom
	}
	r.m.createdMessages++
	if !r.m.returnEmptyID && msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	c := *msg
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.m.messages = append(r.m.messages, &c)
	return nil
}
