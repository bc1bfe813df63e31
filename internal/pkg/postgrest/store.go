package postgrest

import (
	"Parley/internal/model"
	"Parley/internal/pkg/realtime"
	"Parley/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewStore 基于 PostgREST 的远端存储实现
func NewStore(c *Client) *repository.Store {
	return &repository.Store{
		Chats:        &chatRepo{c: c},
		Participants: &participantRepo{c: c},
		Profiles:     &profileRepo{c: c},
		Messages:     &messageRepo{c: c},
	}
}

type chatRepo struct{ c *Client }

// CreateChat 先写会话再批量写成员，成员写入失败时删除会话
func (r *chatRepo) CreateChat(ctx context.Context, chat *model.Chat, participants []*model.ChatParticipant) error {
	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}
	if _, err := r.c.Insert(ctx, realtime.TableChats, map[string]any{"id": chat.ID}); err != nil {
		return err
	}

	body := make([]map[string]any, 0, len(participants))
	for _, p := range participants {
		p.ChatID = chat.ID
		body = append(body, map[string]any{"chat_id": chat.ID, "user_id": p.UserID})
	}
	rows, err := r.c.Insert(ctx, realtime.TableParticipants, body)
	if err != nil {
		if delErr := r.c.Delete(ctx, realtime.TableChats, url.Values{"id": {eq(chat.ID)}}); delErr != nil {
			log.ErrorContext(ctx, "Failed to roll back chat", "chat_id", chat.ID, "err", delErr)
		}
		return err
	}
	for i, row := range rows {
		if i < len(participants) {
			participants[i].ID = row.String("id")
		}
	}
	return nil
}

type participantRepo struct{ c *Client }

func (r *participantRepo) ListByUser(ctx context.Context, userID string) ([]*model.ChatParticipant, error) {
	return r.list(ctx, url.Values{"user_id": {eq(userID)}})
}

func (r *participantRepo) ListByChat(ctx context.Context, chatID string) ([]*model.ChatParticipant, error) {
	return r.list(ctx, url.Values{"chat_id": {eq(chatID)}})
}

func (r *participantRepo) list(ctx context.Context, query url.Values) ([]*model.ChatParticipant, error) {
	query.Set("select", "*")
	query.Set("order", "created_at.asc")
	rows, err := r.c.Select(ctx, realtime.TableParticipants, query)
	if err != nil {
		return nil, err
	}
	res := make([]*model.ChatParticipant, 0, len(rows))
	for _, row := range rows {
		p, err := model.ParticipantFromRecord(row)
		if err != nil {
			log.WarnContext(ctx, "Skip malformed participant row", "err", err)
			continue
		}
		res = append(res, p)
	}
	return res, nil
}

type profileRepo struct{ c *Client }

func (r *profileRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.Profile, error) {
	if len(ids) == 0 {
		return []*model.Profile{}, nil
	}
	return r.list(ctx, url.Values{"id": {in(ids)}})
}

func (r *profileRepo) Search(ctx context.Context, term string, limit int) ([]*model.Profile, error) {
	pattern := quote("*" + term + "*")
	query := url.Values{
		"or":    {fmt.Sprintf("(username.ilike.%s,email.ilike.%s)", pattern, pattern)},
		"order": {"username.asc"},
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return r.list(ctx, query)
}

func (r *profileRepo) TouchLastSeen(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.c.Update(ctx, realtime.TableProfiles, url.Values{"id": {in(ids)}}, map[string]any{
		"last_seen": at.UTC().Format(time.RFC3339Nano),
	})
}

func (r *profileRepo) list(ctx context.Context, query url.Values) ([]*model.Profile, error) {
	query.Set("select", "id,username,display_name,email,avatar_url,last_seen")
	rows, err := r.c.Select(ctx, realtime.TableProfiles, query)
	if err != nil {
		return nil, err
	}
	res := make([]*model.Profile, 0, len(rows))
	for _, row := range rows {
		p, err := model.ProfileFromRecord(row)
		if err != nil {
			log.WarnContext(ctx, "Skip malformed profile row", "err", err)
			continue
		}
		res = append(res, p)
	}
	return res, nil
}

type messageRepo struct{ c *Client }

func (r *messageRepo) ListByChat(ctx context.Context, chatID string) ([]*model.Message, error) {
	return r.list(ctx, url.Values{
		"chat_id": {eq(chatID)},
		"order":   {"created_at.asc"},
	})
}

func (r *messageRepo) Latest(ctx context.Context, chatID string) (*model.Message, error) {
	msgs, err := r.list(ctx, url.Values{
		"chat_id": {eq(chatID)},
		"order":   {"created_at.desc"},
		"limit":   {"1"},
	})
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[0], nil
}

// Create id 与 created_at 由服务端生成并回填
func (r *messageRepo) Create(ctx context.Context, msg *model.Message) error {
	body := map[string]any{
		"chat_id":   msg.ChatID,
		"content":   msg.Content,
		"sender_id": msg.SenderID,
	}
	if msg.ID != "" {
		body["id"] = msg.ID
	}
	rows, err := r.c.Insert(ctx, realtime.TableMessages, body)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	created, err := model.MessageFromRecord(rows[0])
	if err != nil {
		log.WarnContext(ctx, "Unexpected message representation", "err", err)
		return nil
	}
	msg.ID = created.ID
	msg.CreatedAt = created.CreatedAt
	return nil
}

func (r *messageRepo) list(ctx context.Context, query url.Values) ([]*model.Message, error) {
	query.Set("select", "id,chat_id,content,sender_id,created_at")
	rows, err := r.c.Select(ctx, realtime.TableMessages, query)
	if err != nil {
		return nil, err
	}
	res := make([]*model.Message, 0, len(rows))
	for _, row := range rows {
		m, err := model.MessageFromRecord(row)
		if err != nil {
			log.WarnContext(ctx, "Skip malformed message row", "err", err)
			continue
		}
		res = append(res, m)
	}
	return res, nil
}
