package service

import (
	"Parley/internal/api/dto"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeline_LoadOrdersAndStampsSenders(t *testing.T) {
	m := newMemStore()
	m.addProfile("me", "me")
	m.addProfile("bob", "bob")

	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	m.addMessage("c1", "bob", "second", base.Add(2*time.Minute))
	m.addMessage("c1", "me", "first", base)
	m.addMessage("c1", "stranger", "third", base.Add(3*time.Minute))
	m.addMessage("c2", "bob", "other chat", base)

	msgs, err := NewTimelineService(m.store(), nil).Load(context.Background(), "c1", "me")
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, "first", msgs[0].Content)
	assert.True(t, msgs[0].IsCurrentUser)
	assert.Equal(t, "me", msgs[0].Sender.Name)

	assert.Equal(t, "second", msgs[1].Content)
	assert.False(t, msgs[1].IsCurrentUser)
	assert.Equal(t, "bob", msgs[1].Sender.Name)

	assert.Equal(t, "Unknown", msgs[2].Sender.Name)
	assert.Equal(t, "", msgs[2].Sender.Avatar)

	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp))
	}
}

func TestTimeline_LoadIsIdempotent(t *testing.T) {
	m := newMemStore()
	m.addProfile("bob", "bob")
	at := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	m.addMessage("c1", "bob", "a", at)
	m.addMessage("c1", "bob", "b", at)
	m.addMessage("c1", "bob", "c", at.Add(time.Second))

	svc := NewTimelineService(m.store(), nil)
	first, err := svc.Load(context.Background(), "c1", "me")
	require.NoError(t, err)
	second, err := svc.Load(context.Background(), "c1", "me")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "a", first[0].Content)
	assert.Equal(t, "b", first[1].Content)
}

func TestTimeline_LoadFailures(t *testing.T) {
	m := newMemStore()
	m.addMessage("c1", "bob", "a", time.Now())

	m.failListMsgs = true
	_, err := NewTimelineService(m.store(), nil).Load(context.Background(), "c1", "me")
	require.ErrorIs(t, err, ErrFetchFailed)

	m.failListMsgs = false
	m.failProfiles = true
	_, err = NewTimelineService(m.store(), nil).Load(context.Background(), "c1", "me")
	require.ErrorIs(t, err, ErrFetchFailed)
}

func msgFrom(sender string, at time.Time) dto.MessageDTO {
	return dto.MessageDTO{ID: sender + at.String(), Sender: dto.SenderDTO{ID: sender}, Timestamp: at}
}

func TestMarkAvatars(t *testing.T) {
	at := time.Now()
	in := []dto.MessageDTO{msgFrom("A", at), msgFrom("A", at), msgFrom("B", at), msgFrom("A", at)}

	out := MarkAvatars(in)
	flags := make([]bool, len(out))
	for i, m := range out {
		flags[i] = m.ShowAvatar
	}
	assert.Equal(t, []bool{false, true, true, true}, flags)
	assert.False(t, in[3].ShowAvatar, "input must not be mutated")

	assert.Empty(t, MarkAvatars(nil))
	single := MarkAvatars([]dto.MessageDTO{msgFrom("A", at)})
	assert.True(t, single[0].ShowAvatar)
}

func TestGroupByDate(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, loc)
	day2 := time.Date(2024, 3, 2, 10, 0, 0, 0, loc)
	// 23:30 UTC 在 UTC+8 已经是第二天
	lateUTC := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)

	msgs := []dto.MessageDTO{
		{ID: "1", Timestamp: day1},
		{ID: "2", Timestamp: day2},
		{ID: "3", Timestamp: day1.Add(time.Hour)},
		{ID: "4", Timestamp: lateUTC},
	}

	groups := GroupByDate(msgs, loc)
	require.Len(t, groups, 2)
	assert.Equal(t, "2024-03-01", groups[0].Date)
	assert.Equal(t, "2024-03-02", groups[1].Date)

	ids := func(g dto.DateGroupDTO) []string {
		var res []string
		for _, m := range g.Messages {
			res = append(res, m.ID)
		}
		return res
	}
	assert.Equal(t, []string{"1", "3"}, ids(groups[0]))
	assert.Equal(t, []string{"2", "4"}, ids(groups[1]))

	assert.Empty(t, GroupByDate(nil, nil))
}
