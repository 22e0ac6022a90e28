package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/store"
	"github.com/teamgrid/messaging-platform/pkg/logger"
)

// fakePublisher records published envelopes instead of touching a broker.
type fakePublisher struct {
	mu   sync.Mutex
	conv []model.Envelope
	user map[int64][]model.Envelope
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{user: make(map[int64][]model.Envelope)}
}

func (p *fakePublisher) PublishConversation(env model.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conv = append(p.conv, env)
	return nil
}

func (p *fakePublisher) PublishUser(userID int64, env model.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.user[userID] = append(p.user[userID], env)
	return nil
}

func (p *fakePublisher) conversationEvents() []model.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Envelope, len(p.conv))
	copy(out, p.conv)
	return out
}

func (p *fakePublisher) userEvents(userID int64) []model.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Envelope, len(p.user[userID]))
	copy(out, p.user[userID])
	return out
}

type testEnv struct {
	st            *store.Store
	pub           *fakePublisher
	messages      *MessageService
	mentions      *MentionService
	notifications *NotificationService
	readstates    *ReadStateService
	chatrooms     *ChatroomService
	reactions     *ReactionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := logger.NewNop()
	pub := newFakePublisher()
	notifications := NewNotificationService(st, pub, nil, log)
	mentions := NewMentionService(st, notifications, log)
	messages := NewMessageService(st, pub, mentions, nil, log)
	readstates := NewReadStateService(st)

	return &testEnv{
		st:            st,
		pub:           pub,
		messages:      messages,
		mentions:      mentions,
		notifications: notifications,
		readstates:    readstates,
		chatrooms:     NewChatroomService(st, readstates, log),
		reactions:     NewReactionService(st),
	}
}

func (e *testEnv) user(t *testing.T, name string, workspaceID int64) *model.User {
	t.Helper()
	ctx := context.Background()
	u, err := e.st.CreateUser(ctx, name, "")
	require.NoError(t, err)
	require.NoError(t, e.st.AddWorkspaceMember(ctx, workspaceID, u.ID))
	return u
}

func (e *testEnv) channel(t *testing.T, workspaceID int64, name string, private bool, createdBy int64, members ...int64) *model.Conversation {
	t.Helper()
	ctx := context.Background()
	c, err := e.st.CreateConversation(ctx, &model.Conversation{
		WorkspaceID: workspaceID,
		Type:        model.ConversationChannel,
		Name:        name,
		IsPrivate:   private,
		CreatedBy:   createdBy,
	})
	require.NoError(t, err)
	for _, id := range members {
		require.NoError(t, e.st.AddConversationMember(ctx, c.ID, id))
	}
	return c
}

// send submits a message and drains the detached fanout before returning.
func (e *testEnv) send(t *testing.T, userID, conversationID int64, req *model.SendMessageRequest) *model.MessageView {
	t.Helper()
	view, err := e.messages.Send(context.Background(), userID, conversationID, req)
	require.NoError(t, err)
	e.messages.Wait()
	return view
}
