package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const bufferSize = 32

var ErrNilClient = errors.New("pubsub: redis client is nil")

// RedisProvider publishes over Redis Pub/Sub. Delivery is at-most-once:
// instances that are down while a message is published never see it.
type RedisProvider struct {
	client *redis.Client
}

func NewRedisProvider(client *redis.Client) (*RedisProvider, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &RedisProvider{client: client}, nil
}

func (p *RedisProvider) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", channel, err)
	}
	return nil
}

// Subscribe waits for the subscription to be confirmed before returning, so
// a publish issued after Subscribe returns is always delivered.
func (p *RedisProvider) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := p.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", channel, err)
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &redisSubscription{ps: ps, cancel: cancel, out: make(chan Message, bufferSize)}
	go sub.forward(subCtx, ps.Channel())
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	cancel context.CancelFunc
	out    chan Message
	once   sync.Once
	err    error
}

func (s *redisSubscription) forward(ctx context.Context, in <-chan *redis.Message) {
	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			if msg == nil {
				continue
			}
			select {
			case s.out <- Message{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *redisSubscription) Messages() <-chan Message {
	return s.out
}

func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.err = s.ps.Close()
	})
	return s.err
}
