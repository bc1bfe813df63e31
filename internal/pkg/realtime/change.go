package realtime

import (
	"Parley/internal/model"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventKind 行变更类型
type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
	EventAll    EventKind = "*"
)

const (
	TableChats        = "chats"
	TableParticipants = "chat_participants"
	TableMessages     = "messages"
	TableProfiles     = "profiles"
)

var (
	ErrBadFilter = errors.New("realtime: malformed filter")
	ErrBadChange = errors.New("realtime: malformed change")
)

// Change 一次远端行变更通知
type Change struct {
	Table      string       `json:"table"`
	Kind       EventKind    `json:"type"`
	Record     model.Record `json:"record"`
	CommitTime time.Time    `json:"commit_time"`
}

// Filter 仅支持 column=eq.value，零值匹配全部
type Filter struct {
	Column string
	Value  string
}

// Eq 构造等值过滤
func Eq(column, value string) Filter {
	return Filter{Column: column, Value: value}
}

// ParseFilter 解析 "user_id=eq.42" 形式的过滤表达式
func ParseFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}
	column, rest, ok := strings.Cut(expr, "=")
	if !ok || column == "" {
		return Filter{}, fmt.Errorf("%w: %q", ErrBadFilter, expr)
	}
	value, ok := strings.CutPrefix(rest, "eq.")
	if !ok {
		return Filter{}, fmt.Errorf("%w: only eq is supported: %q", ErrBadFilter, expr)
	}
	return Filter{Column: column, Value: value}, nil
}

func (f Filter) String() string {
	if f.Column == "" {
		return ""
	}
	return f.Column + "=eq." + f.Value
}

// Match 判断变更行是否命中过滤条件
func (f Filter) Match(r model.Record) bool {
	if f.Column == "" {
		return true
	}
	return r.String(f.Column) == f.Value
}

func (k EventKind) Match(other EventKind) bool {
	return k == EventAll || k == other
}
