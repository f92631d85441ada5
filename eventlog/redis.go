package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/m2c2kit/m2c2"
)

// RedisLog stores each session as a Redis list of JSON events, with a
// sorted set indexing sessions by creation time.
type RedisLog struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisLog.
type RedisOption func(*RedisLog)

// WithPrefix sets the key prefix. The default is "m2c2:session:".
func WithPrefix(prefix string) RedisOption {
	return func(l *RedisLog) { l.prefix = prefix }
}

// WithTTL expires sessions ttl after their last append. Zero keeps them.
func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLog) { l.ttl = ttl }
}

// NewRedisLog connects to the Redis server at addr and pings it.
func NewRedisLog(ctx context.Context, addr, password string, db int, opts ...RedisOption) (*RedisLog, error) {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("eventlog: ping redis %s: %w", addr, err)
	}
	return NewRedisLogFromClient(client, opts...), nil
}

// NewRedisLogFromClient wraps an existing client.
func NewRedisLogFromClient(client *backend.Client, opts ...RedisOption) *RedisLog {
	l := &RedisLog{client: client, prefix: "m2c2:session:"}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLog) key(sessionID string) string { return l.prefix + sessionID }

func (l *RedisLog) indexKey() string { return l.prefix + "index" }

func (l *RedisLog) Append(ctx context.Context, sessionID string, events ...m2c2.Event) error {
	if len(events) == 0 {
		return nil
	}
	values := make([]any, len(events))
	for i, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("eventlog: encode %s event: %w", e.Type, err)
		}
		values[i] = data
	}

	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, l.key(sessionID), values...)
	pipe.ZAddNX(ctx, l.indexKey(), backend.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: sessionID,
	})
	if l.ttl > 0 {
		pipe.Expire(ctx, l.key(sessionID), l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("eventlog: append to redis: %w", err)
	}
	return nil
}

func (l *RedisLog) Load(ctx context.Context, sessionID string) ([]m2c2.Event, error) {
	raw, err := l.client.LRange(ctx, l.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("eventlog: read from redis: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrSessionNotFound
	}
	events := make([]m2c2.Event, len(raw))
	for i, s := range raw {
		if err := json.Unmarshal([]byte(s), &events[i]); err != nil {
			return nil, fmt.Errorf("eventlog: %s event %d: %w", sessionID, i, err)
		}
	}
	sortBySequence(events)
	return events, nil
}

// Sessions lists indexed sessions, dropping index entries whose list has
// expired.
func (l *RedisLog) Sessions(ctx context.Context) ([]string, error) {
	ids, err := l.client.ZRange(ctx, l.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("eventlog: list redis sessions: %w", err)
	}
	live := ids[:0]
	for _, id := range ids {
		n, err := l.client.Exists(ctx, l.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("eventlog: list redis sessions: %w", err)
		}
		if n == 0 {
			l.client.ZRem(ctx, l.indexKey(), id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

func (l *RedisLog) Close() error { return l.client.Close() }
