package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgrid/messaging-platform/internal/model"
)

func TestUserMentionCreatesRowAndNotification(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID, alice.ID, bob.ID)

	msg := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{
		Content:  "hey @bob",
		Mentions: []model.MentionDirective{{UserID: &bob.ID, Kind: model.MentionUser}},
	})

	mentions, err := e.st.ListMentionsForMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, bob.ID, *mentions[0].UserID)
	assert.Equal(t, model.MentionUser, mentions[0].Kind)

	// Bob got a stored notification and a unicast event; alice got nothing.
	notifications, err := e.st.ListUnreadNotifications(ctx, bob.ID, 1)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "alice mentioned you: hey @bob", notifications[0].Content)
	assert.Equal(t, alice.ID, notifications[0].SenderID)
	require.NotNil(t, notifications[0].MessageID)
	assert.Equal(t, msg.ID, *notifications[0].MessageID)

	require.Len(t, e.pub.userEvents(bob.ID), 1)
	assert.Equal(t, model.EventMention, e.pub.userEvents(bob.ID)[0].Type)
	assert.Empty(t, e.pub.userEvents(alice.ID))
}

func TestDuplicateMentionDirectivesCollapse(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID, alice.ID, bob.ID)

	msg := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{
		Content: "@bob @bob",
		Mentions: []model.MentionDirective{
			{UserID: &bob.ID, Kind: model.MentionUser},
			{UserID: &bob.ID, Kind: model.MentionUser},
		},
	})

	mentions, err := e.st.ListMentionsForMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Len(t, mentions, 1)

	notifications, err := e.st.ListUnreadNotifications(ctx, bob.ID, 1)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
}

func TestGroupMentionExpandsToMembersExceptAuthor(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	carol := e.user(t, "carol", 1)
	ch := e.channel(t, 1, "general", false, alice.ID, alice.ID, bob.ID, carol.ID)

	msg := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{
		Content:  "@everyone standup",
		Mentions: []model.MentionDirective{{Kind: model.MentionEveryone}},
	})

	mentions, err := e.st.ListMentionsForMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Len(t, mentions, 2)

	for _, id := range []int64{bob.ID, carol.ID} {
		notifications, err := e.st.ListUnreadNotifications(ctx, id, 1)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, "alice mentioned @everyone: @everyone standup", notifications[0].Content)
	}

	// The author is excluded from their own group mention.
	notifications, err := e.st.ListUnreadNotifications(ctx, alice.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestSelfMentionProducesNoNotification(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	ch := e.channel(t, 1, "general", false, alice.ID, alice.ID)

	msg := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{
		Content:  "note to self",
		Mentions: []model.MentionDirective{{UserID: &alice.ID, Kind: model.MentionUser}},
	})

	// The mention row exists but no notification is dispatched.
	mentions, err := e.st.ListMentionsForMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Len(t, mentions, 1)

	notifications, err := e.st.ListUnreadNotifications(ctx, alice.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestMentionOfUserWithoutAccessIsSkipped(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	private := e.channel(t, 1, "secret", true, alice.ID, alice.ID)

	msg := e.send(t, alice.ID, private.ID, &model.SendMessageRequest{
		Content:  "@bob can't see this",
		Mentions: []model.MentionDirective{{UserID: &bob.ID, Kind: model.MentionUser}},
	})

	mentions, err := e.st.ListMentionsForMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Empty(t, mentions)

	notifications, err := e.st.ListUnreadNotifications(ctx, bob.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestHereMentionBehavesLikeEveryone(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID, alice.ID, bob.ID)

	msg := e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{
		Content:  "@here quick one",
		Mentions: []model.MentionDirective{{Kind: model.MentionHere}},
	})

	mentions, err := e.st.ListMentionsForMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, model.MentionHere, mentions[0].Kind)
	assert.Equal(t, bob.ID, *mentions[0].UserID)
}

func TestMentionReadStateFlow(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID, alice.ID, bob.ID)

	for i := 0; i < 2; i++ {
		e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{
			Content:  "ping",
			Mentions: []model.MentionDirective{{UserID: &bob.ID, Kind: model.MentionUser}},
		})
	}

	unread, err := e.mentions.ListUnread(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, unread, 2)

	require.NoError(t, e.mentions.MarkRead(ctx, bob.ID, unread[0].ID))
	remaining, err := e.mentions.ListUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	resp, err := e.mentions.MarkAllRead(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Updated)
}
