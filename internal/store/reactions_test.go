package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgrid/messaging-platform/internal/model"
)

func TestReactionsUniquePerUserAndEmoji(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	ch := seedChannel(t, st, 1, alice.ID, "general", false)
	msg := seedMessage(t, st, ch, alice.ID, "nice", nil)

	require.NoError(t, st.AddReaction(ctx, msg.ID, bob.ID, "+1"))
	// Duplicate add is swallowed.
	require.NoError(t, st.AddReaction(ctx, msg.ID, bob.ID, "+1"))
	require.NoError(t, st.AddReaction(ctx, msg.ID, alice.ID, "+1"))
	require.NoError(t, st.AddReaction(ctx, msg.ID, bob.ID, "eyes"))

	reactions, err := st.ListReactions(ctx, msg.ID)
	require.NoError(t, err)
	assert.Len(t, reactions["+1"], 2)
	assert.Len(t, reactions["eyes"], 1)

	require.NoError(t, st.RemoveReaction(ctx, msg.ID, bob.ID, "+1"))
	err = st.RemoveReaction(ctx, msg.ID, bob.ID, "+1")
	assert.Error(t, err)
}

func TestUpsertDeviceReassignsToken(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	require.NoError(t, st.UpsertDevice(ctx, alice.ID, "tok-1", model.DeviceDesktopApp))
	require.NoError(t, st.UpsertDevice(ctx, bob.ID, "tok-1", model.DeviceWeb))

	aliceDevices, err := st.ActiveDevices(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, aliceDevices)

	bobDevices, err := st.ActiveDevices(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobDevices, 1)
	assert.Equal(t, model.DeviceWeb, bobDevices[0].Class)

	require.NoError(t, st.DeactivateDevice(ctx, bob.ID, "tok-1"))
	bobDevices, err = st.ActiveDevices(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobDevices)
}
