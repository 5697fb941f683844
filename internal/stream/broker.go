package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Broker is the transport cache behind resumable streams. It keeps an
// ordered log of payloads per stream token (for replay) and a live channel
// (for in-progress subscribers). Entries expire on the broker's own clock;
// losing them only loses in-flight, not yet persisted output.
type Broker interface {
	// Append adds payload to the token's log and publishes it to live
	// subscribers.
	Append(ctx context.Context, token string, payload []byte) error

	// Replay returns every payload appended to the token's log so far.
	Replay(ctx context.Context, token string) ([][]byte, error)

	// Subscribe returns a channel of payloads published after the
	// subscription was established. The returned cancel func releases the
	// subscription and closes the channel.
	Subscribe(ctx context.Context, token string) (<-chan []byte, func(), error)

	// Exists reports whether the token's log exists and has not expired.
	Exists(ctx context.Context, token string) (bool, error)
}

// streamTTL is how long a stream's log survives after its last append:
// the lifetime of a generation plus a grace window for reconnects.
const streamTTL = time.Hour

// RedisBroker implements Broker on Redis: RPUSH-backed logs plus pub/sub
// channels, so any server process can serve a resume request.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker connects to Redis and verifies the connection.
func NewRedisBroker(ctx context.Context, redisURL string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBroker{client: client}, nil
}

// Close closes the Redis connection.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

// Ping checks the Redis connection.
func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Client exposes the underlying Redis client for collaborators that share
// the connection (rate limiting, health checks).
func (b *RedisBroker) Client() *redis.Client {
	return b.client
}

func logKey(token string) string {
	return fmt.Sprintf("stream:%s:log", token)
}

func channelKey(token string) string {
	return fmt.Sprintf("stream:%s", token)
}

// Append pushes the payload onto the log, refreshes its expiry, and
// publishes to the live channel in one pipeline.
func (b *RedisBroker) Append(ctx context.Context, token string, payload []byte) error {
	pipe := b.client.Pipeline()
	pipe.RPush(ctx, logKey(token), payload)
	pipe.Expire(ctx, logKey(token), streamTTL)
	pipe.Publish(ctx, channelKey(token), payload)
	_, err := pipe.Exec(ctx)
	return err
}

// Replay returns the full log for the token.
func (b *RedisBroker) Replay(ctx context.Context, token string) ([][]byte, error) {
	vals, err := b.client.LRange(ctx, logKey(token), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// Subscribe opens a pub/sub subscription on the token's channel.
func (b *RedisBroker) Subscribe(ctx context.Context, token string) (<-chan []byte, func(), error) {
	sub := b.client.Subscribe(ctx, channelKey(token))

	// Wait for the subscription to be established so no message published
	// after a subsequent Replay call can be missed.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, err
	}

	out := make(chan []byte, 32)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { sub.Close() }
	return out, cancel, nil
}

// Exists reports whether the token's log is still present.
func (b *RedisBroker) Exists(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, logKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
