package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
)

func TestSendReturnsPersistedMessageAndPublishes(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)

	view := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "  hello world  "})

	assert.NotZero(t, view.ID)
	assert.Equal(t, "hello world", view.Content)
	assert.Equal(t, model.ConversationChannel, view.ConversationType)
	assert.Equal(t, "alice", view.UserName)

	events := e.pub.conversationEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventMessage, events[0].Type)
	assert.Equal(t, ch.ID, events[0].Conversation.ID)
}

func TestSendOrderingFollowsIDs(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)

	first := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "one"})
	second := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "two"})
	assert.Greater(t, second.ID, first.ID)

	resp, err := e.messages.List(context.Background(), alice.ID, ch.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "one", resp.Messages[0].Content)
	assert.Equal(t, "two", resp.Messages[1].Content)
}

func TestSendRejectsBlankContent(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)

	_, err := e.messages.Send(context.Background(), alice.ID, ch.ID, &model.SendMessageRequest{Content: "   "})
	assert.True(t, apperr.IsInvalidArgument(err))
}

func TestSendForbiddenForNonMembers(t *testing.T) {
	e := newTestEnv(t)
	alice := e.user(t, "alice", 1)
	mallory := e.user(t, "mallory", 2)
	private := e.channel(t, 1, "secret", true, alice.ID, alice.ID)

	// Workspace member without a membership row cannot post to a private channel.
	bob := e.user(t, "bob", 1)
	_, err := e.messages.Send(context.Background(), bob.ID, private.ID, &model.SendMessageRequest{Content: "hi"})
	assert.True(t, apperr.IsForbidden(err))

	// Non-workspace-member cannot post to a public channel.
	public := e.channel(t, 1, "general", false, alice.ID)
	_, err = e.messages.Send(context.Background(), mallory.ID, public.ID, &model.SendMessageRequest{Content: "hi"})
	assert.True(t, apperr.IsForbidden(err))

	// Public channels admit workspace members without explicit membership.
	_, err = e.messages.Send(context.Background(), bob.ID, public.ID, &model.SendMessageRequest{Content: "hi"})
	assert.NoError(t, err)
	e.messages.Wait()
}

func TestThreadValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)
	other := e.channel(t, 1, "random", false, alice.ID)

	root := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "root"})

	// Reply in the same conversation is fine.
	reply := e.send(t, bob.ID, ch.ID, &model.SendMessageRequest{Content: "reply", ParentMessageID: &root.ID})
	assert.Equal(t, root.ID, *reply.ParentMessageID)

	// Parent must live in the same conversation.
	_, err := e.messages.Send(ctx, bob.ID, other.ID, &model.SendMessageRequest{Content: "cross", ParentMessageID: &root.ID})
	assert.True(t, apperr.IsInvalidArgument(err))

	// Replies cannot nest.
	_, err = e.messages.Send(ctx, bob.ID, ch.ID, &model.SendMessageRequest{Content: "nested", ParentMessageID: &reply.ID})
	assert.True(t, apperr.IsInvalidArgument(err))

	// Chatrooms have no threads.
	room, err := e.chatrooms.Open(ctx, alice.ID, &model.CreateChatroomRequest{WorkspaceID: 1, TargetUserID: bob.ID})
	require.NoError(t, err)
	dm := e.send(t, alice.ID, room.ID, &model.SendMessageRequest{Content: "dm"})
	_, err = e.messages.Send(ctx, alice.ID, room.ID, &model.SendMessageRequest{Content: "thread?", ParentMessageID: &dm.ID})
	assert.True(t, apperr.IsInvalidArgument(err))
}

func TestEditIsAuthorOnlyAndRejectsDeleted(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)
	msg := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "tpyo"})

	_, err := e.messages.Edit(ctx, bob.ID, msg.ID, &model.UpdateMessageRequest{Content: "hijack"})
	assert.True(t, apperr.IsForbidden(err))

	view, err := e.messages.Edit(ctx, alice.ID, msg.ID, &model.UpdateMessageRequest{Content: "typo"})
	require.NoError(t, err)
	e.messages.Wait()
	assert.Equal(t, "typo", view.Content)
	assert.True(t, view.IsEdited)

	events := e.pub.conversationEvents()
	require.Len(t, events, 2)
	assert.Equal(t, model.EventMessageUpdated, events[1].Type)

	require.NoError(t, e.messages.Delete(ctx, alice.ID, msg.ID))
	e.messages.Wait()

	_, err = e.messages.Edit(ctx, alice.ID, msg.ID, &model.UpdateMessageRequest{Content: "too late"})
	assert.True(t, apperr.IsInvalidArgument(err))
}

func TestDeleteIsAuthorOnlyIdempotentAndCarriesOnlyIDs(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)
	msg := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "oops"})

	err := e.messages.Delete(ctx, bob.ID, msg.ID)
	assert.True(t, apperr.IsForbidden(err))

	require.NoError(t, e.messages.Delete(ctx, alice.ID, msg.ID))
	e.messages.Wait()

	events := e.pub.conversationEvents()
	require.Len(t, events, 2)
	deleted := events[1]
	assert.Equal(t, model.EventMessageDeleted, deleted.Type)
	assert.Equal(t, msg.ID, deleted.Payload["message_id"])
	assert.NotContains(t, deleted.Payload, "content")

	// Repeat delete is a no-op and publishes nothing further.
	require.NoError(t, e.messages.Delete(ctx, alice.ID, msg.ID))
	e.messages.Wait()
	assert.Len(t, e.pub.conversationEvents(), 2)

	// The stored body is the deletion marker.
	got, err := e.st.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DeletedMessageBody, got.Content)
}

func TestListExcludesDeletedAndReportsHasMore(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)

	var victim *model.MessageView
	for _, body := range []string{"a", "b", "c"} {
		v := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: body})
		if body == "b" {
			victim = v
		}
	}
	require.NoError(t, e.messages.Delete(ctx, alice.ID, victim.ID))
	e.messages.Wait()

	resp, err := e.messages.List(ctx, alice.ID, ch.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "a", resp.Messages[0].Content)
	assert.True(t, resp.HasMore)

	resp, err = e.messages.List(ctx, alice.ID, ch.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, resp.Messages, 2)
	assert.False(t, resp.HasMore)
}

func TestRepliesListingAndReplyCount(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID)

	root := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "root"})
	e.send(t, bob.ID, ch.ID, &model.SendMessageRequest{Content: "r1", ParentMessageID: &root.ID})
	e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{Content: "r2", ParentMessageID: &root.ID})

	resp, err := e.messages.ListThread(ctx, bob.ID, root.ID)
	require.NoError(t, err)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "r1", resp.Messages[0].Content)

	list, err := e.messages.List(ctx, alice.ID, ch.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list.Messages, 1)
	assert.Equal(t, 2, list.Messages[0].ReplyCount)
}
