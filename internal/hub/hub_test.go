package hub

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/pkg/logger"
)

func testEnvelope(id int64) model.Envelope {
	return model.Envelope{
		Type:         model.EventMessage,
		Conversation: model.ConversationRef{Type: model.ConversationChannel, ID: id},
		Payload:      map[string]any{"message_id": id},
	}
}

func TestDeliverLocalReachesSubscribers(t *testing.T) {
	h := New(logger.NewNop())
	a := NewConn(1, 4)
	b := NewConn(2, 4)

	h.Subscribe(a, "conv.channel.1")
	h.Subscribe(b, "conv.channel.1")

	h.DeliverLocal("conv.channel.1", testEnvelope(1))

	assert.Len(t, a.Events, 1)
	assert.Len(t, b.Events, 1)
}

func TestDeliveryIsScopedToTopic(t *testing.T) {
	h := New(logger.NewNop())
	a := NewConn(1, 4)
	b := NewConn(2, 4)

	h.Subscribe(a, "conv.channel.1")
	h.Subscribe(b, "conv.channel.2")

	h.DeliverLocal("conv.channel.1", testEnvelope(1))

	assert.Len(t, a.Events, 1)
	assert.Empty(t, b.Events)
}

func TestSlowConnectionDropsInsteadOfBlocking(t *testing.T) {
	h := New(logger.NewNop())
	c := NewConn(1, 1)
	h.Subscribe(c, "conv.channel.1")

	h.DeliverLocal("conv.channel.1", testEnvelope(1))
	// Buffer is full now; this delivery must drop without blocking.
	h.DeliverLocal("conv.channel.1", testEnvelope(2))

	require.Len(t, c.Events, 1)
	env := <-c.Events
	assert.Equal(t, int64(1), env.Payload["message_id"])
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := New(logger.NewNop())
	c := NewConn(1, 4)
	h.Subscribe(c, "conv.channel.1")
	h.Unsubscribe(c, "conv.channel.1")

	h.DeliverLocal("conv.channel.1", testEnvelope(1))
	assert.Empty(t, c.Events)
	assert.Equal(t, 0, h.Subscribers("conv.channel.1"))
}

func TestDropRemovesAllTopicsAndClosesConn(t *testing.T) {
	h := New(logger.NewNop())
	c := NewConn(1, 4)
	h.Subscribe(c, "conv.channel.1")
	h.Subscribe(c, "user.1")

	h.Drop(c)

	assert.Equal(t, 0, h.Subscribers("conv.channel.1"))
	assert.Equal(t, 0, h.Subscribers("user.1"))

	_, open := <-c.Events
	assert.False(t, open)

	// Delivery after drop must not panic or send.
	h.DeliverLocal("conv.channel.1", testEnvelope(1))
}

func TestConcurrentSubscribeAndDeliver(t *testing.T) {
	h := New(logger.NewNop())

	var wg sync.WaitGroup
	conns := make([]*Conn, 0, 32)
	var mu sync.Mutex

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := NewConn(int64(i), 256)
			topic := fmt.Sprintf("conv.channel.%d", i%4)
			h.Subscribe(c, topic)
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}(i)
	}

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.DeliverLocal(fmt.Sprintf("conv.channel.%d", i%4), testEnvelope(int64(i)))
		}(i)
	}

	wg.Wait()

	total := 0
	for _, topic := range []string{"conv.channel.0", "conv.channel.1", "conv.channel.2", "conv.channel.3"} {
		total += h.Subscribers(topic)
	}
	assert.Equal(t, 32, total)

	for _, c := range conns {
		h.Drop(c)
	}
}
