package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lexivault/application/ports"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

type invalidationMessage struct {
	Origin string                  `json:"origin"`
	Scope  ports.InvalidationScope `json:"scope"`
}

// RedisNotifier broadcasts scopes to other instances so they can drop their local
// caches. Each instance runs a forwarder that applies remote scopes.
type RedisNotifier struct {
	rdb     redisPublisher
	channel string
	origin  string
	logger  *zap.Logger
}

// NewRedisClient connects and pings. The caller owns the returned client.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRedisNotifier publishes on channel. origin identifies this instance so its
// own messages are ignored by its forwarder.
func NewRedisNotifier(rdb redisPublisher, channel, origin string, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		rdb:     rdb,
		channel: channel,
		origin:  origin,
		logger:  logger.With(zap.String("component", "RedisNotifier")),
	}
}

func (n *RedisNotifier) Invalidate(ctx context.Context, scope ports.InvalidationScope) error {
	raw, err := json.Marshal(invalidationMessage{Origin: n.origin, Scope: scope})
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// StartForwarder subscribes to the channel and applies scopes published by other
// instances to target. It returns once the subscription is confirmed; delivery
// continues until ctx is cancelled.
func (n *RedisNotifier) StartForwarder(ctx context.Context, rdb *goredis.Client, target ports.ChangeNotifier) error {
	sub := rdb.Subscribe(ctx, n.channel)

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				n.apply(ctx, m.Payload, target)
			}
		}
	}()
	return nil
}

func (n *RedisNotifier) apply(ctx context.Context, payload string, target ports.ChangeNotifier) {
	var msg invalidationMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		n.logger.Warn("Bad invalidation payload", zap.Error(err))
		return
	}
	if msg.Origin == n.origin {
		return
	}
	if err := target.Invalidate(ctx, msg.Scope); err != nil {
		n.logger.Warn("Remote invalidation failed",
			zap.String("origin", msg.Origin),
			zap.String("reason", msg.Scope.Reason),
			zap.Error(err),
		)
	}
}
