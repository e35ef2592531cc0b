package tokenauth

import (
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/qplayer/tokenauth/internal/audit"
)

type AuditEvent = audit.Event

type AuditSink = audit.Sink

// AuditSinkFunc adapts a function to AuditSink.
type AuditSinkFunc = audit.SinkFunc

type NoOpSink = audit.NoOpSink

// MultiSink fans each event out to several sinks.
type MultiSink = audit.MultiSink

type ChannelSink = audit.ChannelSink

type JSONWriterSink = audit.JSONWriterSink

// RedisStreamSink appends audit events to a Redis stream.
type RedisStreamSink = audit.RedisStreamSink

type RedisStreamConfig = audit.RedisStreamConfig

// Audit event types.
const (
	AuditTokenIssued      = audit.EventTokenIssued
	AuditTokenIssueFailed = audit.EventTokenIssueFailed
	AuditTokenRejected    = audit.EventTokenRejected
	AuditTokenCleared     = audit.EventTokenCleared
)

// NewMultiSink skips nil sinks.
func NewMultiSink(sinks ...AuditSink) MultiSink {
	return audit.NewMultiSink(sinks...)
}

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewRedisStreamSink returns a sink that XADDs each event to cfg.Key,
// trimming the stream to roughly cfg.MaxLen entries. onError may be nil.
func NewRedisStreamSink(client redis.UniversalClient, cfg RedisStreamConfig, onError func(error)) *RedisStreamSink {
	return audit.NewRedisStreamSink(client, cfg, onError)
}
