// Package relay bridges the cluster bus and the local session hub: accepted
// events are published cluster-wide, and every envelope arriving from the
// bus (including this process's own) is fanned out locally.
package relay

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/teamgrid/messaging-platform/internal/bus"
	"github.com/teamgrid/messaging-platform/internal/hub"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/pkg/logger"
	"github.com/teamgrid/messaging-platform/pkg/metrics"
)

// subjectPrefix namespaces all chat traffic on the bus.
const subjectPrefix = "chat."

// Relay is the cluster fanout component. It holds no ambient state: it is
// constructed, started, and stopped by the composition root.
type Relay struct {
	bus    bus.Bus
	hub    *hub.Hub
	logger *logger.Logger
	sub    bus.Subscription
}

// New creates a relay over the given bus and hub.
func New(b bus.Bus, h *hub.Hub, log *logger.Logger) *Relay {
	return &Relay{bus: b, hub: h, logger: log}
}

// Start begins the subscriber loop. Every envelope arriving on chat.>
// is delivered to this process's local subscribers.
func (r *Relay) Start() error {
	sub, err := r.bus.Subscribe(subjectPrefix+">", r.onEnvelope)
	if err != nil {
		return fmt.Errorf("failed to start relay subscriber: %w", err)
	}
	r.sub = sub
	r.logger.Info("cluster fanout relay started")
	return nil
}

// Stop tears down the subscriber loop.
func (r *Relay) Stop() {
	if r.sub != nil {
		if err := r.sub.Unsubscribe(); err != nil {
			r.logger.Warn("failed to unsubscribe relay", zap.Error(err))
		}
		r.sub = nil
	}
}

// PublishConversation broadcasts an envelope on its conversation topic.
// Local delivery happens when the bus loops the publication back through
// the subscriber, so publish order is preserved everywhere.
func (r *Relay) PublishConversation(env model.Envelope) error {
	return r.publish(env.Conversation.Topic(), env)
}

// PublishUser sends an envelope down one user's private queue. This is the
// unicast mention path, independent of conversation topics.
func (r *Relay) PublishUser(userID int64, env model.Envelope) error {
	return r.publish(model.UserTopic(userID), env)
}

func (r *Relay) publish(topic string, env model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	if err := r.bus.Publish(subjectPrefix+topic, data); err != nil {
		return fmt.Errorf("failed to publish envelope: %w", err)
	}
	metrics.EnvelopesPublished.WithLabelValues(string(env.Type)).Inc()
	return nil
}

func (r *Relay) onEnvelope(subject string, data []byte) {
	topic := strings.TrimPrefix(subject, subjectPrefix)

	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.logger.Warn("discarding malformed envelope",
			zap.String("subject", subject),
			zap.Error(err),
		)
		return
	}

	r.hub.DeliverLocal(topic, env)
}
