package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultStreamKey    = "tokenauth:audit"
	DefaultStreamMaxLen = 10000

	defaultWriteTimeout = 2 * time.Second
)

// RedisStreamConfig controls where events are appended.
type RedisStreamConfig struct {
	Key          string
	MaxLen       int64
	WriteTimeout time.Duration
}

// RedisStreamSink appends each event to a Redis stream with XADD, trimming the
// stream approximately to MaxLen entries.
type RedisStreamSink struct {
	client  redis.UniversalClient
	cfg     RedisStreamConfig
	failed  atomic.Uint64
	onError func(error)
}

// NewRedisStreamSink returns a sink writing to client. onError may be nil.
func NewRedisStreamSink(client redis.UniversalClient, cfg RedisStreamConfig, onError func(error)) *RedisStreamSink {
	if cfg.Key == "" {
		cfg.Key = DefaultStreamKey
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = DefaultStreamMaxLen
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &RedisStreamSink{client: client, cfg: cfg, onError: onError}
}

func (s *RedisStreamSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.client == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.cfg.Key,
		MaxLen: s.cfg.MaxLen,
		Approx: true,
		Values: streamValues(event),
	}).Err()
	if err != nil {
		s.failed.Add(1)
		if s.onError != nil {
			s.onError(err)
		}
	}
}

// Failed returns the number of events that could not be written.
func (s *RedisStreamSink) Failed() uint64 {
	if s == nil {
		return 0
	}
	return s.failed.Load()
}

func streamValues(event Event) map[string]interface{} {
	values := map[string]interface{}{
		"timestamp":  event.Timestamp.UTC().Format(time.RFC3339Nano),
		"event_type": event.EventType,
		"success":    strconv.FormatBool(event.Success),
	}
	if event.Subject != "" {
		values["subject"] = event.Subject
	}
	if event.TokenID != "" {
		values["token_id"] = event.TokenID
	}
	if event.Source != "" {
		values["source"] = event.Source
	}
	if event.IP != "" {
		values["ip"] = event.IP
	}
	if event.Reason != "" {
		values["reason"] = event.Reason
	}
	if len(event.Metadata) > 0 {
		if data, err := json.Marshal(event.Metadata); err == nil {
			values["metadata"] = string(data)
		}
	}
	return values
}
