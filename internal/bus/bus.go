// Package bus fans alert deliveries out to every API instance so that
// websocket clients connected to any of them receive the push.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

// Delivery is one alert together with its resolved recipients
type Delivery struct {
	Alert      *domain.Alert `json:"alert"`
	Recipients []uuid.UUID   `json:"recipients"`
}

type Handler func(ctx context.Context, d Delivery)

type Bus interface {
	Publish(ctx context.Context, d Delivery) error
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
}

// LocalBus delivers within the process. Used when no Redis is configured.
type LocalBus struct {
	mu       sync.RWMutex
	handlers []Handler
	closed   bool
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) Publish(ctx context.Context, d Delivery) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("bus closed")
	}
	for _, h := range b.handlers {
		h(ctx, d)
	}
	return nil
}

func (b *LocalBus) Subscribe(_ context.Context, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("bus closed")
	}
	b.handlers = append(b.handlers, handler)
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.handlers = nil
	return nil
}

// RedisBus publishes deliveries on a Redis pub/sub channel. If publishing
// fails the delivery still reaches the local subscribers and Publish
// reports the failure.
type RedisBus struct {
	client  *redis.Client
	channel string
	local   *LocalBus
	logger  *slog.Logger

	mu   sync.Mutex
	subs []*redis.PubSub
	wg   sync.WaitGroup
}

func NewRedisBus(client *redis.Client, channel string, logger *slog.Logger) *RedisBus {
	return &RedisBus{
		client:  client,
		channel: channel,
		local:   NewLocalBus(),
		logger:  logger.With("component", "bus", "channel", channel),
	}
}

func (b *RedisBus) Publish(ctx context.Context, d Delivery) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("redis publish failed, delivering locally",
			"alert_id", d.Alert.ID,
			"error", err,
		)
		if localErr := b.local.Publish(ctx, d); localErr != nil {
			return errors.Join(fmt.Errorf("publish to redis: %w", err), localErr)
		}
		// Other instances missed the delivery
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

// Subscribe waits for the Redis subscription to be confirmed, then consumes
// messages in the background until ctx is done or the bus is closed.
func (b *RedisBus) Subscribe(ctx context.Context, handler Handler) error {
	if err := b.local.Subscribe(ctx, handler); err != nil {
		return err
	}

	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var d Delivery
				if err := json.Unmarshal([]byte(msg.Payload), &d); err != nil {
					b.logger.Warn("discarding malformed delivery", "error", err)
					continue
				}
				handler(ctx, d)
			}
		}
	}()

	return nil
}

// Ping checks the Redis connection
func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBus) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	var firstErr error
	for _, sub := range subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.wg.Wait()
	_ = b.local.Close()
	return firstErr
}

// New returns a Redis-backed bus when url is set, otherwise a local bus
func New(url, channel string, logger *slog.Logger) (Bus, error) {
	if url == "" {
		return NewLocalBus(), nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisBus(redis.NewClient(opts), channel, logger), nil
}
