package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChat(t *testing.T) {
	m := newMemStore()
	m.addProfile("me", "alice")
	email := "bob@example.com"
	bob := m.addProfile("bob", "bobby")
	bob.Email = &email

	chatID, contact, err := NewChatService(m.store(), nil).CreateChat(context.Background(), Identity{ID: "me"}, "BOB@example")
	require.NoError(t, err)
	require.NotEmpty(t, chatID)
	require.NotNil(t, contact)
	assert.Equal(t, "bob", contact.ID)
	assert.Equal(t, "bobby", contact.Name)

	require.Contains(t, m.chats, chatID)
	var members []string
	for _, p := range m.participants {
		if p.ChatID == chatID {
			members = append(members, p.UserID)
		}
	}
	assert.ElementsMatch(t, []string{"me", "bob"}, members)
}

func TestCreateChat_Errors(t *testing.T) {
	m := newMemStore()
	m.addProfile("me", "alice")
	svc := NewChatService(m.store(), nil)
	me := Identity{ID: "me"}

	_, _, err := svc.CreateChat(context.Background(), me, "  ")
	assert.ErrorIs(t, err, ErrParamInvalid)

	_, _, err = svc.CreateChat(context.Background(), me, "zed")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, _, err = svc.CreateChat(context.Background(), me, "alice")
	assert.ErrorIs(t, err, ErrTargetUserInvalid)

	m.addProfile("bob", "bob")
	m.failCreateChat = true
	_, _, err = svc.CreateChat(context.Background(), me, "bob")
	assert.ErrorIs(t, err, ErrCreateChatFailed)
	assert.Empty(t, m.chats)
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(ErrSendFailed)
	assert.True(t, ok)
	assert.Equal(t, ServiceUnavailable, code)

	_, ok = CodeOf(errBoom)
	assert.False(t, ok)
}
