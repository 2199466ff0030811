package redis

import (
	"context"
	"fmt"

	"github.com/timedrop/tdadmin/internal/domain"
)

// ToastBus implements domain.ToastBus over Redis Pub/Sub so every console
// replica's websocket clients see every toast. Channels are namespaced with
// the client prefix.
type ToastBus struct {
	client *Client
}

// NewToastBus creates a ToastBus backed by the given Client.
func NewToastBus(c *Client) *ToastBus {
	return &ToastBus{client: c}
}

// Publish sends a raw byte payload to a Redis Pub/Sub channel.
func (b *ToastBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Underlying().Publish(ctx, b.client.Key(channel), payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe creates a Redis Pub/Sub subscription and returns a read-only
// channel that emits raw byte payloads. The subscription is automatically
// closed when the context is cancelled; the returned channel is closed at
// that point as well.
func (b *ToastBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	pubsub := b.client.Underlying().Subscribe(ctx, b.client.Key(channel))

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Compile-time interface check.
var _ domain.ToastBus = (*ToastBus)(nil)
