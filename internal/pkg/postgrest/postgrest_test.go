package postgrest

import (
	"Parley/internal/api/config"
	"Parley/internal/model"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	Method string
	Path   string
	Query  map[string]string
	Prefer string
	APIKey string
	Body   []byte
}

// fakeServer 按 "METHOD /path" 返回预置响应并记录请求
type fakeServer struct {
	mu       sync.Mutex
	requests []recorded
	replies  map[string]func(w http.ResponseWriter)
}

func newFakeServer(t *testing.T) (*fakeServer, *Client) {
	t.Helper()
	fs := &fakeServer{replies: make(map[string]func(w http.ResponseWriter))}
	srv := httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(srv.Close)

	c, err := NewClient(config.PostgRESTConfig{URL: srv.URL + "/", ApiKey: "anon-key", Timeout: 2})
	require.NoError(t, err)
	return fs, c
}

func (fs *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	q := make(map[string]string)
	for k, v := range r.URL.Query() {
		q[k] = v[0]
	}
	fs.mu.Lock()
	fs.requests = append(fs.requests, recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  q,
		Prefer: r.Header.Get("Prefer"),
		APIKey: r.Header.Get("apikey"),
		Body:   body,
	})
	reply := fs.replies[r.Method+" "+r.URL.Path]
	fs.mu.Unlock()

	if reply == nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
		return
	}
	reply(w)
}

func (fs *fakeServer) on(key string, status int, body string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.replies[key] = func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (fs *fakeServer) last() recorded {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.requests[len(fs.requests)-1]
}

func (fs *fakeServer) all() []recorded {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]recorded(nil), fs.requests...)
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(config.PostgRESTConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParticipantRepo_ListByUser(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.on("GET /chat_participants", http.StatusOK,
		`[{"id":"p1","chat_id":"c1","user_id":"u1","created_at":"2024-05-01T12:00:00Z"},{"id":"p2","user_id":"u1"}]`)

	rows, err := NewStore(c).Participants.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c1", rows[0].ChatID)

	req := fs.last()
	assert.Equal(t, "eq.u1", req.Query["user_id"])
	assert.Equal(t, "created_at.asc", req.Query["order"])
	assert.Equal(t, "anon-key", req.APIKey)
}

func TestProfileRepo_GetByIDsAndSearch(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.on("GET /profiles", http.StatusOK,
		`[{"id":"u2","username":"grace","display_name":null,"email":"grace@example.com","last_seen":"2024-05-01T12:00:00Z"}]`)
	store := NewStore(c)
	ctx := context.Background()

	empty, err := store.Profiles.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Empty(t, fs.all())

	got, err := store.Profiles.GetByIDs(ctx, []string{"u2", "u3"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].DisplayName)
	require.NotNil(t, got[0].Email)
	assert.True(t, got[0].Online())
	assert.Equal(t, `in.("u2","u3")`, fs.last().Query["id"])

	_, err = store.Profiles.Search(ctx, "Grace", 5)
	require.NoError(t, err)
	req := fs.last()
	assert.Equal(t, `(username.ilike."*Grace*",email.ilike."*Grace*")`, req.Query["or"])
	assert.Equal(t, "5", req.Query["limit"])
}

func TestProfileRepo_TouchLastSeen(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.on("PATCH /profiles", http.StatusNoContent, "")

	require.NoError(t, NewStore(c).Profiles.TouchLastSeen(context.Background(), []string{"u1"}, testTime()))
	req := fs.last()
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, `in.("u1")`, req.Query["id"])

	var body map[string]string
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, "2024-05-01T12:00:00Z", body["last_seen"])
}

func TestMessageRepo_CreateFillsServerFields(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.on("POST /messages", http.StatusCreated,
		`[{"id":"m-server","chat_id":"c1","content":"hi","sender_id":"u1","created_at":"2024-05-01T12:00:00Z"}]`)

	msg := &model.Message{ChatID: "c1", Content: "hi", SenderID: "u1"}
	require.NoError(t, NewStore(c).Messages.Create(context.Background(), msg))
	assert.Equal(t, "m-server", msg.ID)
	assert.Equal(t, testTime(), msg.CreatedAt.UTC())

	req := fs.last()
	assert.Equal(t, "return=representation", req.Prefer)
	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	_, hasID := body["id"]
	assert.False(t, hasID)
}

func TestMessageRepo_Latest(t *testing.T) {
	fs, c := newFakeServer(t)
	store := NewStore(c)

	latest, err := store.Messages.Latest(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	req := fs.last()
	assert.Equal(t, "created_at.desc", req.Query["order"])
	assert.Equal(t, "1", req.Query["limit"])
}

func TestChatRepo_CreateChatRollsBackOnParticipantFailure(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.on("POST /chats", http.StatusCreated, `[{"id":"c1"}]`)
	fs.on("POST /chat_participants", http.StatusConflict,
		`{"code":"23505","message":"duplicate key value violates unique constraint"}`)
	fs.on("DELETE /chats", http.StatusNoContent, "")

	chat := &model.Chat{ID: "c1"}
	err := NewStore(c).Chats.CreateChat(context.Background(), chat,
		[]*model.ChatParticipant{{UserID: "u1"}, {UserID: "u1"}})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "23505", apiErr.Code)

	req := fs.last()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "eq.c1", req.Query["id"])
}

func TestChatRepo_CreateChat(t *testing.T) {
	fs, c := newFakeServer(t)
	fs.on("POST /chats", http.StatusCreated, `[{"id":"c1"}]`)
	fs.on("POST /chat_participants", http.StatusCreated,
		`[{"id":"p1","chat_id":"c1","user_id":"u1"},{"id":"p2","chat_id":"c1","user_id":"u2"}]`)

	chat := &model.Chat{}
	participants := []*model.ChatParticipant{{UserID: "u1"}, {UserID: "u2"}}
	require.NoError(t, NewStore(c).Chats.CreateChat(context.Background(), chat, participants))
	assert.NotEmpty(t, chat.ID)
	assert.Equal(t, "p2", participants[1].ID)
	assert.Equal(t, chat.ID, participants[0].ChatID)
	assert.Len(t, fs.all(), 2)
}

func testTime() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}
