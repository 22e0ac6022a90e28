package service

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/search"
	"github.com/teamgrid/messaging-platform/internal/store"
	"github.com/teamgrid/messaging-platform/pkg/logger"
	"github.com/teamgrid/messaging-platform/pkg/metrics"
)

const (
	// maxContentLength bounds message bodies in runes.
	maxContentLength = 4000

	// fanoutTimeout bounds the detached post-persist work: mention
	// resolution, event publication, and index ingestion.
	fanoutTimeout = 10 * time.Second

	defaultPageSize = 50
	maxPageSize     = 100
)

// MessageService is the ingestion pipeline: it validates, persists, and
// returns messages synchronously, then resolves mentions, publishes fanout
// events, and indexes content on a detached goroutine.
type MessageService struct {
	store     *store.Store
	publisher Publisher
	mentions  *MentionService
	indexer   search.Indexer // nil when indexing is not configured
	logger    *logger.Logger

	wg sync.WaitGroup
}

// NewMessageService creates the ingestion pipeline.
func NewMessageService(st *store.Store, pub Publisher, mentions *MentionService, idx search.Indexer, log *logger.Logger) *MessageService {
	return &MessageService{
		store:     st,
		publisher: pub,
		mentions:  mentions,
		indexer:   idx,
		logger:    log,
	}
}

// Wait blocks until all detached post-persist work has drained. Called on
// shutdown and by tests.
func (s *MessageService) Wait() {
	s.wg.Wait()
}

// Send validates and persists a message, returning it with its assigned id.
// Mention fanout, event publication, and indexing happen after return and
// never fail the send.
func (s *MessageService) Send(ctx context.Context, userID, conversationID int64, req *model.SendMessageRequest) (*model.MessageView, error) {
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeConversation(ctx, s.store, conv, userID); err != nil {
		return nil, err
	}
	if err := s.validateParent(ctx, conv, req.ParentMessageID); err != nil {
		return nil, err
	}

	msg, err := s.store.CreateMessage(ctx, &model.Message{
		WorkspaceID:     conv.WorkspaceID,
		ConversationID:  conv.ID,
		UserID:          userID,
		Content:         content,
		ParentMessageID: req.ParentMessageID,
	})
	if err != nil {
		return nil, err
	}
	msg.ConversationType = conv.Type
	metrics.MessagesTotal.WithLabelValues(string(conv.Type)).Inc()

	sender, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &model.MessageView{
		Message:       *msg,
		UserName:      sender.Name,
		UserAvatarURL: sender.AvatarURL,
	}

	directives := req.Mentions
	s.detach(func(ctx context.Context) {
		if err := s.publisher.PublishConversation(model.NewMessageEnvelope(view)); err != nil {
			s.logger.Error("failed to publish message event",
				zap.Int64("message_id", msg.ID), zap.Error(err))
		}
		s.mentions.Resolve(ctx, conv, msg, sender, directives)
		s.ingest(ctx, msg)
	})

	return view, nil
}

// Edit replaces a message body. Only the author may edit, and deleted
// messages reject edits.
func (s *MessageService) Edit(ctx context.Context, userID, messageID int64, req *model.UpdateMessageRequest) (*model.MessageView, error) {
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.UserID != userID {
		return nil, apperr.Forbidden("only the author may edit a message")
	}
	if msg.IsDeleted {
		return nil, apperr.InvalidArgument("message is deleted")
	}

	conv, err := s.store.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateMessageContent(ctx, messageID, content)
	if err != nil {
		return nil, err
	}
	updated.ConversationType = conv.Type

	view, err := s.buildView(ctx, conv, updated, nil)
	if err != nil {
		return nil, err
	}

	s.detach(func(ctx context.Context) {
		if err := s.publisher.PublishConversation(model.NewMessageUpdatedEnvelope(view)); err != nil {
			s.logger.Error("failed to publish message update event",
				zap.Int64("message_id", messageID), zap.Error(err))
		}
		s.reindex(ctx, updated)
	})

	return view, nil
}

// Delete soft-deletes a message. Only the author may delete; repeating the
// delete is a no-op and publishes nothing.
func (s *MessageService) Delete(ctx context.Context, userID, messageID int64) error {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.UserID != userID {
		return apperr.Forbidden("only the author may delete a message")
	}
	if msg.IsDeleted {
		return nil
	}

	conv, err := s.store.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeleteMessage(ctx, messageID); err != nil {
		return err
	}

	chunkID := msg.ChunkID
	s.detach(func(ctx context.Context) {
		env := model.NewMessageDeletedEnvelope(conv.Ref(), conv.WorkspaceID, messageID)
		if err := s.publisher.PublishConversation(env); err != nil {
			s.logger.Error("failed to publish message delete event",
				zap.Int64("message_id", messageID), zap.Error(err))
		}
		if s.indexer != nil && chunkID != nil {
			if err := s.indexer.DeleteChunk(ctx, *chunkID); err != nil {
				metrics.IndexFailures.Inc()
				s.logger.Warn("failed to delete index chunk",
					zap.Int64("message_id", messageID), zap.Error(err))
			}
		}
	})

	return nil
}

// List returns a page of non-deleted top-level messages in send order.
func (s *MessageService) List(ctx context.Context, userID, conversationID int64, limit, offset int) (*model.ListMessagesResponse, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeConversation(ctx, s.store, conv, userID); err != nil {
		return nil, err
	}

	// Fetch one extra row to detect a following page.
	msgs, err := s.store.ListTopLevelMessages(ctx, conversationID, limit+1, offset)
	if err != nil {
		return nil, err
	}
	hasMore := len(msgs) > limit
	if hasMore {
		msgs = msgs[:limit]
	}

	views, err := s.buildViews(ctx, conv, msgs, true)
	if err != nil {
		return nil, err
	}
	return &model.ListMessagesResponse{Messages: views, HasMore: hasMore}, nil
}

// ListThread returns a thread's replies in send order. The parent message
// stays addressable even when soft-deleted so existing threads render.
func (s *MessageService) ListThread(ctx context.Context, userID, parentMessageID int64) (*model.ListMessagesResponse, error) {
	parent, err := s.store.GetMessage(ctx, parentMessageID)
	if err != nil {
		return nil, err
	}
	if parent.ParentMessageID != nil {
		return nil, apperr.InvalidArgument("message is not a thread root")
	}

	conv, err := s.store.GetConversation(ctx, parent.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeConversation(ctx, s.store, conv, userID); err != nil {
		return nil, err
	}

	replies, err := s.store.ListThreadReplies(ctx, parentMessageID)
	if err != nil {
		return nil, err
	}
	views, err := s.buildViews(ctx, conv, replies, false)
	if err != nil {
		return nil, err
	}
	return &model.ListMessagesResponse{Messages: views}, nil
}

// Get returns one message with its aggregates.
func (s *MessageService) Get(ctx context.Context, userID, messageID int64) (*model.MessageView, error) {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	conv, err := s.store.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeConversation(ctx, s.store, conv, userID); err != nil {
		return nil, err
	}
	msg.ConversationType = conv.Type
	return s.buildView(ctx, conv, msg, nil)
}

func (s *MessageService) validateParent(ctx context.Context, conv *model.Conversation, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if conv.Type == model.ConversationChatroom {
		return apperr.InvalidArgument("chatrooms do not support threads")
	}
	parent, err := s.store.GetMessage(ctx, *parentID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.InvalidArgument("parent message does not exist")
		}
		return err
	}
	if parent.ConversationID != conv.ID {
		return apperr.InvalidArgument("parent message belongs to another conversation")
	}
	if parent.ParentMessageID != nil {
		return apperr.InvalidArgument("replies cannot be nested")
	}
	if parent.IsDeleted {
		return apperr.InvalidArgument("parent message is deleted")
	}
	return nil
}

func (s *MessageService) buildViews(ctx context.Context, conv *model.Conversation, msgs []model.Message, withReplyCounts bool) ([]model.MessageView, error) {
	views := make([]model.MessageView, 0, len(msgs))
	users := make(map[int64]*model.User)
	for i := range msgs {
		v, err := s.buildViewCached(ctx, conv, &msgs[i], users, withReplyCounts)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (s *MessageService) buildView(ctx context.Context, conv *model.Conversation, msg *model.Message, users map[int64]*model.User) (*model.MessageView, error) {
	if users == nil {
		users = make(map[int64]*model.User)
	}
	return s.buildViewCached(ctx, conv, msg, users, msg.ParentMessageID == nil)
}

func (s *MessageService) buildViewCached(ctx context.Context, conv *model.Conversation, msg *model.Message, users map[int64]*model.User, withReplyCount bool) (*model.MessageView, error) {
	sender, ok := users[msg.UserID]
	if !ok {
		u, err := s.store.GetUser(ctx, msg.UserID)
		if err != nil {
			return nil, err
		}
		users[msg.UserID] = u
		sender = u
	}

	view := &model.MessageView{
		Message:       *msg,
		UserName:      sender.Name,
		UserAvatarURL: sender.AvatarURL,
	}
	view.ConversationType = conv.Type

	if withReplyCount {
		n, err := s.store.CountReplies(ctx, msg.ID)
		if err != nil {
			return nil, err
		}
		view.ReplyCount = n
	}

	mentions, err := s.store.ListMentionsForMessage(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	for _, m := range mentions {
		view.Mentions = append(view.Mentions, model.MentionInfo{UserID: m.UserID, Kind: m.Kind})
	}

	reactions, err := s.store.ListReactions(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	if len(reactions) > 0 {
		view.Reactions = reactions
	}
	return view, nil
}

// ingest sends a new message to the external index and writes the assigned
// chunk id back. Failures are logged and dropped; the send already succeeded.
func (s *MessageService) ingest(ctx context.Context, msg *model.Message) {
	if s.indexer == nil {
		return
	}
	chunkID, err := s.indexer.IngestChunk(ctx, &search.IngestChunkRequest{
		Chunk:          msg.Content,
		ConversationID: msg.ConversationID,
		ThreadID:       msg.ThreadID(),
		UserID:         msg.UserID,
		CreatedAt:      msg.CreatedAt,
		UpdatedAt:      msg.UpdatedAt,
	})
	if err != nil {
		metrics.IndexFailures.Inc()
		s.logger.Warn("failed to ingest message into index",
			zap.Int64("message_id", msg.ID), zap.Error(err))
		return
	}
	if err := s.store.SetMessageChunkID(ctx, msg.ID, chunkID); err != nil {
		s.logger.Warn("failed to record chunk id",
			zap.Int64("message_id", msg.ID), zap.Error(err))
	}
}

func (s *MessageService) reindex(ctx context.Context, msg *model.Message) {
	if s.indexer == nil || msg.ChunkID == nil {
		return
	}
	err := s.indexer.UpdateChunk(ctx, *msg.ChunkID, &search.UpdateChunkRequest{
		Chunk:          msg.Content,
		ConversationID: msg.ConversationID,
		ThreadID:       msg.ThreadID(),
	})
	if err != nil {
		metrics.IndexFailures.Inc()
		s.logger.Warn("failed to update index chunk",
			zap.Int64("message_id", msg.ID), zap.Error(err))
	}
}

// detach runs fn on a goroutine with a bounded context, independent of the
// request lifecycle.
func (s *MessageService) detach(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func validateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", apperr.InvalidArgument("content must not be blank")
	}
	if !utf8.ValidString(trimmed) {
		return "", apperr.InvalidArgument("content must be valid UTF-8")
	}
	if utf8.RuneCountInString(trimmed) > maxContentLength {
		return "", apperr.InvalidArgument("content exceeds maximum length")
	}
	return trimmed, nil
}
