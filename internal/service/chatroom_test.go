package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
)

func TestOpenChatroomIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)

	first, err := e.chatrooms.Open(ctx, alice.ID, &model.CreateChatroomRequest{WorkspaceID: 1, TargetUserID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, "bob", first.Name)
	assert.Equal(t, bob.ID, first.TargetUserID)

	// Opening from either side returns the same room.
	second, err := e.chatrooms.Open(ctx, bob.ID, &model.CreateChatroomRequest{WorkspaceID: 1, TargetUserID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "alice", second.Name)
}

func TestOpenChatroomValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	outsider := e.user(t, "outsider", 2)

	_, err := e.chatrooms.Open(ctx, alice.ID, &model.CreateChatroomRequest{WorkspaceID: 1, TargetUserID: alice.ID})
	assert.True(t, apperr.IsInvalidArgument(err))

	_, err = e.chatrooms.Open(ctx, alice.ID, &model.CreateChatroomRequest{WorkspaceID: 1, TargetUserID: outsider.ID})
	assert.True(t, apperr.IsForbidden(err))

	_, err = e.chatrooms.Open(ctx, alice.ID, &model.CreateChatroomRequest{WorkspaceID: 1, TargetUserID: 99999})
	assert.True(t, apperr.IsNotFound(err))
}

func TestHideAndReopenChatroom(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)

	room, err := e.chatrooms.Open(ctx, alice.ID, &model.CreateChatroomRequest{WorkspaceID: 1, TargetUserID: bob.ID})
	require.NoError(t, err)

	require.NoError(t, e.chatrooms.Hide(ctx, alice.ID, room.ID))

	views, err := e.chatrooms.List(ctx, alice.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, views)

	// The other participant still sees the room.
	views, err = e.chatrooms.List(ctx, bob.ID, 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "alice", views[0].Name)

	// Reopening unhides for the caller.
	reopened, err := e.chatrooms.Open(ctx, alice.ID, &model.CreateChatroomRequest{WorkspaceID: 1, TargetUserID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, room.ID, reopened.ID)

	views, err = e.chatrooms.List(ctx, alice.ID, 1)
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestHideRejectsChannelsAndNonMembers(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	carol := e.user(t, "carol", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)

	err := e.chatrooms.Hide(ctx, alice.ID, ch.ID)
	assert.True(t, apperr.IsInvalidArgument(err))

	room, err := e.chatrooms.Open(ctx, alice.ID, &model.CreateChatroomRequest{WorkspaceID: 1, TargetUserID: bob.ID})
	require.NoError(t, err)
	err = e.chatrooms.Hide(ctx, carol.ID, room.ID)
	assert.True(t, apperr.IsForbidden(err))
}

func TestChatroomListCarriesUnreadCounts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)

	room, err := e.chatrooms.Open(ctx, alice.ID, &model.CreateChatroomRequest{WorkspaceID: 1, TargetUserID: bob.ID})
	require.NoError(t, err)

	e.send(t, alice.ID, room.ID, &model.SendMessageRequest{Content: "hi"})
	e.send(t, alice.ID, room.ID, &model.SendMessageRequest{Content: "there"})

	views, err := e.chatrooms.List(ctx, bob.ID, 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].UnreadCount)
}
