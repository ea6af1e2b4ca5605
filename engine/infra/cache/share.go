package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/focitech/focitech/engine/infra/pubsub"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/google/uuid"
)

// InvalidationChannel carries scope invalidations between site instances.
const InvalidationChannel = "focitech:cache:invalidate"

var ErrAlreadyShared = errors.New("cache is already shared")

type invalidation struct {
	Origin string   `json:"origin"`
	Scopes []string `json:"scopes"`
}

type peers struct {
	ctx    context.Context
	bus    pubsub.Provider
	sub    pubsub.Subscription
	origin string
	done   chan struct{}
}

// Share joins the cache to the other instances on bus. Local invalidations
// are published and remote ones applied until ctx ends or the cache closes.
// A nil cache ignores the call.
func (c *Cache) Share(ctx context.Context, bus pubsub.Provider) error {
	if c == nil {
		return nil
	}
	if c.peers != nil {
		return ErrAlreadyShared
	}
	sub, err := bus.Subscribe(ctx, InvalidationChannel)
	if err != nil {
		return fmt.Errorf("sharing page cache: %w", err)
	}
	p := &peers{
		ctx:    context.WithoutCancel(ctx),
		bus:    bus,
		sub:    sub,
		origin: uuid.NewString(),
		done:   make(chan struct{}),
	}
	c.peers = p
	go c.listen(p)
	return nil
}

func (c *Cache) listen(p *peers) {
	defer close(p.done)
	log := logger.FromContext(p.ctx)
	for msg := range p.sub.Messages() {
		var inv invalidation
		if err := json.Unmarshal(msg.Payload, &inv); err != nil {
			log.Warn("Ignoring malformed cache invalidation", "error", err)
			continue
		}
		if inv.Origin == p.origin {
			continue
		}
		c.bump(inv.Scopes...)
		log.Debug("Applied remote cache invalidation", "scopes", inv.Scopes, "origin", inv.Origin)
	}
}

func (p *peers) announce(scopes []string) {
	if p == nil || len(scopes) == 0 {
		return
	}
	payload, err := json.Marshal(invalidation{Origin: p.origin, Scopes: scopes})
	if err != nil {
		return
	}
	if err := p.bus.Publish(p.ctx, InvalidationChannel, payload); err != nil {
		logger.FromContext(p.ctx).Warn("Failed to publish cache invalidation", "scopes", scopes, "error", err)
	}
}

func (p *peers) close() {
	if p == nil {
		return
	}
	_ = p.sub.Close()
	<-p.done
}
