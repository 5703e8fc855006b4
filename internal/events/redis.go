package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ChannelPrefix namespaces the pub/sub channels, one per topic
const ChannelPrefix = "eduhub:"

// RedisBus delivers locally like LocalBus and also relays every event over
// Redis pub/sub, so other instances refetch after a mutation made here.
type RedisBus struct {
	local  *LocalBus
	client *redis.Client
	pubsub *redis.PubSub
	origin string
	logger *slog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewRedisBus connects to redisURL and starts the receive loop
func NewRedisBus(redisURL string, logger *slog.Logger) (*RedisBus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return newRedisBus(client, logger), nil
}

func newRedisBus(client *redis.Client, logger *slog.Logger) *RedisBus {
	b := &RedisBus{
		local:  NewLocalBus(logger),
		client: client,
		pubsub: client.PSubscribe(context.Background(), ChannelPrefix+"*"),
		origin: uuid.NewString(),
		logger: logger,
	}

	b.wg.Add(1)
	go b.receive()

	return b
}

// Publish delivers to local subscribers, then relays to other instances.
// A relay failure is returned after local delivery has happened.
func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	e.Origin = b.origin

	b.local.deliver(ctx, e)

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, ChannelPrefix+e.Topic, payload).Err(); err != nil {
		return fmt.Errorf("relay event: %w", err)
	}
	return nil
}

// Subscribe registers fn for topic on this instance
func (b *RedisBus) Subscribe(topic string, fn Handler) func() {
	return b.local.Subscribe(topic, fn)
}

func (b *RedisBus) receive() {
	defer b.wg.Done()

	for msg := range b.pubsub.Channel() {
		var e Event
		if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
			b.logger.Warn("dropping malformed event", "channel", msg.Channel, "error", err)
			continue
		}
		if e.Origin == b.origin {
			continue
		}
		if e.Topic == "" {
			e.Topic = strings.TrimPrefix(msg.Channel, ChannelPrefix)
		}
		b.local.deliver(context.Background(), e)
	}
}

// Close stops the receive loop and the client
func (b *RedisBus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		// Closing the subscription ends the Channel() range in receive
		if cerr := b.pubsub.Close(); cerr != nil {
			err = cerr
		}
		b.wg.Wait()
		if cerr := b.client.Close(); cerr != nil && err == nil {
			err = cerr
		}
		b.local.Close()
	})
	return err
}

var _ Bus = (*RedisBus)(nil)
