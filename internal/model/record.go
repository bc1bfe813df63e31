package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrRecordMissingField = errors.New("record missing required field")
	ErrRecordBadTime      = errors.New("record has unparseable timestamp")
)

// Record 推送通道中未定型的行数据 (Canal / NOTIFY / Redis / change stream)
type Record map[string]any

// String 读取字段并统一转为字符串，Canal 的所有列值都是字符串
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Time 读取时间字段，兼容 RFC3339、MySQL DATETIME 与毫秒时间戳
func (r Record) Time(key string) (time.Time, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return time.Time{}, nil
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case float64:
		return time.UnixMilli(int64(t)), nil
	case int64:
		return time.UnixMilli(t), nil
	}
	return parseTime(r.String(key))
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrRecordBadTime, s)
}

// MessageFromRecord 校验并构造消息，缺少 id / chat_id 的行直接拒绝
func MessageFromRecord(r Record) (*Message, error) {
	msg := &Message{
		ID:       r.String("id"),
		ChatID:   r.String("chat_id"),
		Content:  r.String("content"),
		SenderID: r.String("sender_id"),
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("%w: id", ErrRecordMissingField)
	}
	if msg.ChatID == "" {
		return nil, fmt.Errorf("%w: chat_id", ErrRecordMissingField)
	}
	createdAt, err := r.Time("created_at")
	if err != nil {
		return nil, err
	}
	msg.CreatedAt = createdAt
	return msg, nil
}

// ParticipantFromRecord 校验并构造会话成员
func ParticipantFromRecord(r Record) (*ChatParticipant, error) {
	p := &ChatParticipant{
		ID:     r.String("id"),
		ChatID: r.String("chat_id"),
		UserID: r.String("user_id"),
	}
	if p.ChatID == "" {
		return nil, fmt.Errorf("%w: chat_id", ErrRecordMissingField)
	}
	if p.UserID == "" {
		return nil, fmt.Errorf("%w: user_id", ErrRecordMissingField)
	}
	createdAt, err := r.Time("created_at")
	if err != nil {
		return nil, err
	}
	p.CreatedAt = createdAt
	return p, nil
}

// ToRecord 将消息展开为推送载荷
func (m *Message) ToRecord() Record {
	return Record{
		"id":         m.ID,
		"chat_id":    m.ChatID,
		"content":    m.Content,
		"sender_id":  m.SenderID,
		"created_at": m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (p *ChatParticipant) ToRecord() Record {
	return Record{
		"id":         p.ID,
		"chat_id":    p.ChatID,
		"user_id":    p.UserID,
		"created_at": p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ProfileFromRecord 可空列缺失或为 null 时保持 nil
func ProfileFromRecord(r Record) (*Profile, error) {
	p := &Profile{
		ID:       r.String("id"),
		Username: r.String("username"),
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: id", ErrRecordMissingField)
	}
	p.DisplayName = r.optString("display_name")
	p.Email = r.optString("email")
	p.AvatarURL = r.optString("avatar_url")

	lastSeen, err := r.Time("last_seen")
	if err != nil {
		return nil, err
	}
	if !lastSeen.IsZero() {
		p.LastSeen = &lastSeen
	}
	return p, nil
}

func (r Record) optString(key string) *string {
	if v, ok := r[key]; !ok || v == nil {
		return nil
	}
	s := r.String(key)
	return &s
}
