// Package service implements the application's business operations on top of
// the store, the fanout relay, and the external collaborators.
package service

import (
	"context"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/store"
)

// Publisher is the slice of the fanout relay the services need. Local
// delivery happens when the bus loops publications back through the relay's
// subscriber, so services never touch the hub directly.
type Publisher interface {
	PublishConversation(env model.Envelope) error
	PublishUser(userID int64, env model.Envelope) error
}

// authorizeConversation enforces the access rule shared by every operation:
// chatrooms and private channels require an explicit membership row, public
// channels admit any workspace member.
func authorizeConversation(ctx context.Context, st *store.Store, conv *model.Conversation, userID int64) error {
	if conv.RequiresMembership() {
		ok, err := st.HasConversationMember(ctx, conv.ID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Forbidden("not a member of this conversation")
		}
		return nil
	}
	ok, err := st.IsWorkspaceMember(ctx, conv.WorkspaceID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("not a member of this workspace")
	}
	return nil
}
