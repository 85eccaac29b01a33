package jobs

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

// WakeBus nudges workers when a job lands, so they pick it up before the
// next poll tick. Publishing is best-effort: the poll loop is the delivery
// guarantee, the bus only trims latency.
type WakeBus interface {
	Publish(ctx context.Context, jobID string) error
	// Subscribe delivers wake signals on the returned channel until ctx
	// ends. The channel is never closed by the caller.
	Subscribe(ctx context.Context) (<-chan string, error)
	Close() error
}

type redisWakeBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisWakeBus connects to REDIS_ADDR and uses REDIS_JOBS_CHANNEL
// (default "jobs") for wake signals.
func NewRedisWakeBus(baseLog *logger.Logger) (WakeBus, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel := strings.TrimSpace(os.Getenv("REDIS_JOBS_CHANNEL"))
	if channel == "" {
		channel = "jobs"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisWakeBus{
		log:     baseLog.With("service", "JobWakeBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *redisWakeBus) Publish(ctx context.Context, jobID string) error {
	return b.rdb.Publish(ctx, b.channel, jobID).Err()
}

func (b *redisWakeBus) Subscribe(ctx context.Context) (<-chan string, error) {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan string, 16)
	go func() {
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				default:
					// a full buffer is fine, the poll tick covers it
				}
			}
		}
	}()
	return out, nil
}

func (b *redisWakeBus) Close() error { return b.rdb.Close() }

// noopWakeBus is the single-process fallback when redis is not configured.
type noopWakeBus struct{}

func NewNoopWakeBus() WakeBus { return noopWakeBus{} }

func (noopWakeBus) Publish(context.Context, string) error { return nil }

func (noopWakeBus) Subscribe(ctx context.Context) (<-chan string, error) {
	ch := make(chan string)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (noopWakeBus) Close() error { return nil }
