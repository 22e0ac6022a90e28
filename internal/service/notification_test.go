package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/pkg/logger"
)

// fakeSender records push attempts.
type fakeSender struct {
	mu     sync.Mutex
	tokens []string
	fail   bool
}

func (f *fakeSender) Send(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, deviceToken)
	if f.fail {
		return assert.AnError
	}
	return nil
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.tokens))
	copy(out, f.tokens)
	return out
}

func TestPushPrefersDesktopDevices(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	sender := &fakeSender{}
	notifications := NewNotificationService(e.st, e.pub, sender, logger.NewNop())

	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID, alice.ID, bob.ID)

	require.NoError(t, e.st.UpsertDevice(ctx, bob.ID, "desk-1", model.DeviceDesktopApp))
	require.NoError(t, e.st.UpsertDevice(ctx, bob.ID, "desk-2", model.DeviceDesktopApp))
	require.NoError(t, e.st.UpsertDevice(ctx, bob.ID, "phone-1", model.DeviceMobile))

	msg, err := e.st.CreateMessage(ctx, &model.Message{
		WorkspaceID: 1, ConversationID: ch.ID, UserID: alice.ID, Content: "hey",
	})
	require.NoError(t, err)

	notifications.DispatchMention(ctx, ch, msg, alice, bob.ID, model.MentionUser)

	// Only desktop endpoints receive the push.
	assert.ElementsMatch(t, []string{"desk-1", "desk-2"}, sender.sent())
}

func TestPushReachesAllDevicesWithoutDesktop(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	sender := &fakeSender{}
	notifications := NewNotificationService(e.st, e.pub, sender, logger.NewNop())

	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID, alice.ID, bob.ID)

	require.NoError(t, e.st.UpsertDevice(ctx, bob.ID, "web-1", model.DeviceWeb))
	require.NoError(t, e.st.UpsertDevice(ctx, bob.ID, "phone-1", model.DeviceMobile))

	msg, err := e.st.CreateMessage(ctx, &model.Message{
		WorkspaceID: 1, ConversationID: ch.ID, UserID: alice.ID, Content: "hey",
	})
	require.NoError(t, err)

	// With no desktop device active, every device receives the push.
	notifications.DispatchMention(ctx, ch, msg, alice, bob.ID, model.MentionUser)
	assert.ElementsMatch(t, []string{"web-1", "phone-1"}, sender.sent())
}

func TestPushFailureDoesNotLoseNotification(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	sender := &fakeSender{fail: true}
	notifications := NewNotificationService(e.st, e.pub, sender, logger.NewNop())

	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID, alice.ID, bob.ID)
	require.NoError(t, e.st.UpsertDevice(ctx, bob.ID, "desk-1", model.DeviceDesktopApp))

	msg, err := e.st.CreateMessage(ctx, &model.Message{
		WorkspaceID: 1, ConversationID: ch.ID, UserID: alice.ID, Content: "hey",
	})
	require.NoError(t, err)

	notifications.DispatchMention(ctx, ch, msg, alice, bob.ID, model.MentionUser)

	stored, err := e.st.ListUnreadNotifications(ctx, bob.ID, 1)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Len(t, e.pub.userEvents(bob.ID), 1)
}

func TestNotificationListCountsUnreadWithinPage(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID, alice.ID, bob.ID)

	// 25 mentions: the page holds the latest 20 and the unread count is
	// taken within that page.
	for i := 0; i < 25; i++ {
		e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{
			Content:  "ping",
			Mentions: []model.MentionDirective{{UserID: &bob.ID, Kind: model.MentionUser}},
		})
	}

	resp, err := e.notifications.List(ctx, bob.ID, 1)
	require.NoError(t, err)
	assert.Len(t, resp.Notifications, 20)
	assert.Equal(t, 20, resp.UnreadCount)
}

func TestMarkNotificationReadIsOwnerOnly(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", 1)
	bob := e.user(t, "bob", 1)
	ch := e.channel(t, 1, "general", false, alice.ID, alice.ID, bob.ID)

	e.send(t, alice.ID, ch.ID, &model.SendMessageRequest{
		Content:  "ping",
		Mentions: []model.MentionDirective{{UserID: &bob.ID, Kind: model.MentionUser}},
	})

	stored, err := e.st.ListUnreadNotifications(ctx, bob.ID, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	// Another user cannot mark it.
	err = e.notifications.MarkRead(ctx, alice.ID, stored[0].ID)
	assert.True(t, apperr.IsForbidden(err))

	require.NoError(t, e.notifications.MarkRead(ctx, bob.ID, stored[0].ID))
	// Idempotent.
	require.NoError(t, e.notifications.MarkRead(ctx, bob.ID, stored[0].ID))

	resp, err := e.notifications.MarkAllRead(ctx, bob.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Updated)
}
