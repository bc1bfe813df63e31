package session

import (
	"sort"
	"sync"
)

// Registry 本实例上存活的会话，同一用户可有多个连接
type Registry struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[*Session]struct{})}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s] = struct{}{}
}

func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// UserIDs 去重后的在线用户
func (r *Registry) UserIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{}, len(r.sessions))
	res := make([]string, 0, len(r.sessions))
	for s := range r.sessions {
		id := s.user.ID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	sort.Strings(res)
	return res
}

// CloseAll 停机时关闭全部会话
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[*Session]struct{})
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
