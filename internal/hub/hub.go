// Package hub tracks which live connections on this process are subscribed
// to which conversation topics, and delivers envelopes to them. It has no
// cluster visibility; the relay feeds it whatever arrives on the bus.
package hub

import (
	"hash/fnv"
	"sync"

	"go.uber.org/zap"

	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/pkg/logger"
	"github.com/teamgrid/messaging-platform/pkg/metrics"
)

// shardCount fixes the number of topic shards. Subscribes and deliveries on
// unrelated topics never contend on the same lock.
const shardCount = 32

// Conn is one live client connection. Envelopes are pushed into Events;
// a full buffer drops the envelope rather than blocking delivery to the
// rest of the topic.
type Conn struct {
	UserID int64
	Events chan model.Envelope

	mu     sync.Mutex
	topics map[string]struct{}
	closed bool
}

// NewConn creates a connection bound to an authenticated user.
func NewConn(userID int64, buffer int) *Conn {
	return &Conn{
		UserID: userID,
		Events: make(chan model.Envelope, buffer),
		topics: make(map[string]struct{}),
	}
}

func (c *Conn) trySend(env model.Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Events <- env:
		return true
	default:
		return false
	}
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Events)
	}
}

type shard struct {
	mu     sync.RWMutex
	topics map[string]map[*Conn]struct{}
}

// Hub is the per-process conversation session registry.
type Hub struct {
	shards [shardCount]*shard
	logger *logger.Logger
}

// New creates an empty hub.
func New(log *logger.Logger) *Hub {
	h := &Hub{logger: log}
	for i := range h.shards {
		h.shards[i] = &shard{topics: make(map[string]map[*Conn]struct{})}
	}
	return h
}

func (h *Hub) shardFor(topic string) *shard {
	f := fnv.New32a()
	f.Write([]byte(topic))
	return h.shards[f.Sum32()%shardCount]
}

// Subscribe adds the connection to a topic.
func (h *Hub) Subscribe(c *Conn, topic string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.topics[topic] = struct{}{}
	c.mu.Unlock()

	sh := h.shardFor(topic)
	sh.mu.Lock()
	conns, ok := sh.topics[topic]
	if !ok {
		conns = make(map[*Conn]struct{})
		sh.topics[topic] = conns
	}
	conns[c] = struct{}{}
	sh.mu.Unlock()
}

// Unsubscribe removes the connection from a topic.
func (h *Hub) Unsubscribe(c *Conn, topic string) {
	c.mu.Lock()
	delete(c.topics, topic)
	c.mu.Unlock()

	h.removeFromTopic(c, topic)
}

// Drop unsubscribes the connection from every topic and closes it.
// Called once when the client disconnects.
func (h *Hub) Drop(c *Conn) {
	c.mu.Lock()
	topics := make([]string, 0, len(c.topics))
	for t := range c.topics {
		topics = append(topics, t)
	}
	c.topics = make(map[string]struct{})
	c.mu.Unlock()

	for _, t := range topics {
		h.removeFromTopic(c, t)
	}
	c.close()
}

func (h *Hub) removeFromTopic(c *Conn, topic string) {
	sh := h.shardFor(topic)
	sh.mu.Lock()
	if conns, ok := sh.topics[topic]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(sh.topics, topic)
		}
	}
	sh.mu.Unlock()
}

// DeliverLocal fans an envelope out to every connection subscribed to the
// topic on this process.
func (h *Hub) DeliverLocal(topic string, env model.Envelope) {
	sh := h.shardFor(topic)
	sh.mu.RLock()
	conns := make([]*Conn, 0, len(sh.topics[topic]))
	for c := range sh.topics[topic] {
		conns = append(conns, c)
	}
	sh.mu.RUnlock()

	delivered := 0
	for _, c := range conns {
		if c.trySend(env) {
			delivered++
		} else {
			h.logger.Warn("dropping envelope for slow connection",
				zap.String("topic", topic),
				zap.Int64("user_id", c.UserID),
			)
		}
	}
	if delivered > 0 {
		metrics.EnvelopesDelivered.WithLabelValues(string(env.Type)).Add(float64(delivered))
	}
}

// Subscribers returns the number of local connections on a topic.
func (h *Hub) Subscribers(topic string) int {
	sh := h.shardFor(topic)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.topics[topic])
}
