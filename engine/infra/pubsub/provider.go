// Package pubsub fans small notifications out to every running instance of
// the site.
package pubsub

import "context"

// Message is one payload received on a channel.
type Message struct {
	Channel string
	Payload []byte
}

// Subscription streams messages until Close is called or the subscribing
// context ends. Close is safe to call more than once.
type Subscription interface {
	Messages() <-chan Message
	Close() error
}

type Provider interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
	Publish(ctx context.Context, channel string, payload []byte) error
}
