package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
)

func TestUnreadCountsFromBeginningWhenNeverRead(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)

	for i := 0; i < 3; i++ {
		e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "msg"})
	}

	resp, err := e.readstates.Unread(ctx, bob.ID, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.UnreadCount)
}

func TestAdvanceCursorReducesUnread(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)

	var ids []int64
	for i := 0; i < 3; i++ {
		v := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "msg"})
		ids = append(ids, v.ID)
	}

	require.NoError(t, e.readstates.Advance(ctx, bob.ID, ch.ID, &model.UpdateReadStateRequest{LastReadMessageID: ids[1]}))

	resp, err := e.readstates.Unread(ctx, bob.ID, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.UnreadCount)

	// A stale regression keeps the highest cursor.
	require.NoError(t, e.readstates.Advance(ctx, bob.ID, ch.ID, &model.UpdateReadStateRequest{LastReadMessageID: ids[0]}))
	resp, err = e.readstates.Unread(ctx, bob.ID, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.UnreadCount)

	require.NoError(t, e.readstates.Advance(ctx, bob.ID, ch.ID, &model.UpdateReadStateRequest{LastReadMessageID: ids[2]}))
	resp, err = e.readstates.Unread(ctx, bob.ID, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.UnreadCount)
}

func TestAdvanceRejectsForeignMessages(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)
	other := e.channel(t, 1, "random", false, alice.ID)
	msg := e.send(t, alice.ID, other.ID, &model.SendMessageRequest{Content: "elsewhere"})

	err := e.readstates.Advance(ctx, alice.ID, ch.ID, &model.UpdateReadStateRequest{LastReadMessageID: msg.ID})
	assert.True(t, apperr.IsInvalidArgument(err))

	err = e.readstates.Advance(ctx, alice.ID, ch.ID, &model.UpdateReadStateRequest{LastReadMessageID: 99999})
	assert.True(t, apperr.IsInvalidArgument(err))
}

func TestUnreadExcludesDeletedAndReplies(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)

	root := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "root"})
	e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "reply", ParentMessageID: &root.ID})
	victim := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "gone"})
	require.NoError(t, e.messages.Delete(ctx, alice.ID, victim.ID))
	e.messages.Wait()

	resp, err := e.readstates.Unread(ctx, bob.ID, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.UnreadCount)
}

func TestUnreadRequiresAccess(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	private := e.channel(t, 1, "secret", true, alice.ID, alice.ID)

	_, err := e.readstates.Unread(ctx, bob.ID, private.ID)
	assert.True(t, apperr.IsForbidden(err))
}
