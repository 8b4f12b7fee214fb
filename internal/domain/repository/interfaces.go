package repository

import (
	"context"
	"time"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
)

// SignalJournal persists derived signals for history queries.
type SignalJournal interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, e *models.SignalEvent) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.SignalEvent, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher fans signals out to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, e *models.SignalEvent) error
	Close() error
}

// SignalBroadcaster pushes signals to live subscribers.
type SignalBroadcaster interface {
	Broadcast(e *models.SignalEvent)
}

type Metrics interface {
	RecordRender(mode, format, result string)
	RecordSignal(bias, action, profile string)
	RecordCacheLookup(layer string, hit bool)
	RecordError(kind string)
	RecordConfidence(symbol string, confidence float64)
	RecordLatency(op string, seconds float64)
	SetStreamClients(n int)
}

// RenderCache stores rendered frames by request hash. pkg/cache backends
// satisfy it.
type RenderCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Name() string
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordRender(string, string, string) {}
func (NopMetrics) RecordSignal(string, string, string) {}
func (NopMetrics) RecordCacheLookup(string, bool)      {}
func (NopMetrics) RecordError(string)                  {}
func (NopMetrics) RecordConfidence(string, float64)    {}
func (NopMetrics) RecordLatency(string, float64)       {}
func (NopMetrics) SetStreamClients(int)                {}
