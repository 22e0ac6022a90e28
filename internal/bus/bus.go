// Package bus provides the cluster-wide broadcast medium.
package bus

// Handler receives a raw payload published on a subject.
type Handler func(subject string, data []byte)

// Subscription is an active subject subscription.
type Subscription interface {
	Unsubscribe() error
}

// Bus is the publish/subscribe channel the fanout relay rides on.
// Delivery is at-least-once and ordered per publisher.
type Bus interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler Handler) (Subscription, error)
}
