package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_BlankIsNoop(t *testing.T) {
	m := newMemStore()
	svc := NewSendService(m.store())
	me := Identity{ID: "me", Email: "me@example.com"}

	for _, text := range []string{"", "   ", "\n\t"} {
		msg, err := svc.Send(context.Background(), "c1", me, text)
		require.NoError(t, err)
		assert.Nil(t, msg)
	}

	msg, err := svc.Send(context.Background(), "", me, "hi")
	require.NoError(t, err)
	assert.Nil(t, msg)

	msg, err = svc.Send(context.Background(), "c1", Identity{}, "hi")
	require.NoError(t, err)
	assert.Nil(t, msg)

	assert.Zero(t, m.createdMessages)
}

func TestSend_UsesServerID(t *testing.T) {
	m := newMemStore()
	svc := NewSendService(m.store())

	msg, err := svc.Send(context.Background(), "c1", Identity{ID: "me", Email: "me@example.com"}, "hello")
	require.NoError(t, err)
	require.NotNil(t, msg)
	require.Len(t, m.messages, 1)

	assert.Equal(t, m.messages[0].ID, msg.ID)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "me@example.com", msg.Sender.Name)
	assert.Equal(t, "", msg.Sender.Avatar)
	assert.True(t, msg.IsCurrentUser)
	assert.True(t, msg.Local)
}

func TestSend_GeneratesLocalIDWhenServerOmitsIt(t *testing.T) {
	m := newMemStore()
	m.returnEmptyID = true

	msg, err := NewSendService(m.store()).Send(context.Background(), "c1", Identity{ID: "me"}, "hello")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "You", msg.Sender.Name)
}

func TestSend_Failure(t *testing.T) {
	m := newMemStore()
	m.failCreateMsg = true

	msg, err := NewSendService(m.store()).Send(context.Background(), "c1", Identity{ID: "me"}, "hello")
	require.ErrorIs(t, err, ErrSendFailed)
	require.ErrorIs(t, err, errBoom)
	assert.Nil(t, msg)
}

func TestSendThenLoad_RoundTrip(t *testing.T) {
	m := newMemStore()
	m.addProfile("me", "me")
	me := Identity{ID: "me"}

	sent, err := NewSendService(m.store()).Send(context.Background(), "c1", me, "ping")
	require.NoError(t, err)

	msgs, err := NewTimelineService(m.store(), nil).Load(context.Background(), "c1", me.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, sent.ID, msgs[0].ID)
	assert.Equal(t, sent.Content, msgs[0].Content)
	assert.Equal(t, sent.IsCurrentUser, msgs[0].IsCurrentUser)
}
