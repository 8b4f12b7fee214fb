package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
)

type flakySink struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
	ok       []*models.SignalRequest
}

func (s *flakySink) Emit(_ context.Context, req *models.SignalRequest) (*models.SignalEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return nil, s.err
	}
	s.ok = append(s.ok, req)
	return &models.SignalEvent{Symbol: req.Symbol}, nil
}

func (s *flakySink) delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ok)
}

func message(symbol string) *models.FocusPackMessage {
	return &models.FocusPackMessage{
		Symbol:       symbol,
		CurrentPrice: 100,
		FocusPack:    &models.FocusPack{Forecast: &models.Forecast{PricePath: []float64{101}}},
	}
}

func TestPipelineValidation(t *testing.T) {
	p := NewSignalPipeline(&flakySink{}, nil, nil)
	bad := []*models.FocusPackMessage{
		nil,
		{CurrentPrice: 1, FocusPack: &models.FocusPack{Forecast: &models.Forecast{}}},
		{Symbol: "BTC", FocusPack: &models.FocusPack{Forecast: &models.Forecast{}}},
		{Symbol: "BTC", CurrentPrice: 1, FocusPack: &models.FocusPack{}},
	}
	for i, m := range bad {
		if err := p.Process(context.Background(), m); !errors.Is(err, ErrInvalidPack) {
			t.Errorf("case %d: expected ErrInvalidPack, got %v", i, err)
		}
	}
}

func TestPipelineThrottle(t *testing.T) {
	sink := &flakySink{}
	p := NewSignalPipeline(sink, nil, nil, WithThrottle(time.Second))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	ctx := context.Background()
	_ = p.Process(ctx, message("btc"))
	_ = p.Process(ctx, message("BTC"))
	_ = p.Process(ctx, message("ETH"))
	now = now.Add(1500 * time.Millisecond)
	_ = p.Process(ctx, message("BTC"))

	if got := sink.delivered(); got != 3 {
		t.Fatalf("expected 3 delivered signals, got %d", got)
	}
	if sink.ok[0].Symbol != "BTC" {
		t.Fatalf("symbol should be normalized, got %q", sink.ok[0].Symbol)
	}
}

func TestPipelineRetryBuffer(t *testing.T) {
	sink := &flakySink{failures: 2, err: errors.New("journal down")}
	p := NewSignalPipeline(sink, nil, nil,
		WithThrottle(0),
		WithRetry(5, time.Millisecond, 4*time.Millisecond),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Process(ctx, message("BTC")); err != nil {
		t.Fatalf("buffered failure should not surface: %v", err)
	}
	if p.Pending() != 1 {
		t.Fatalf("expected 1 pending, got %d", p.Pending())
	}

	p.Start(ctx)
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for sink.delivered() == 0 {
		select {
		case <-deadline:
			t.Fatal("retry never delivered")
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestPipelineBufferFull(t *testing.T) {
	sink := &flakySink{failures: 10, err: errors.New("down")}
	p := NewSignalPipeline(sink, nil, nil, WithThrottle(0), WithBufferSize(1))
	ctx := context.Background()

	if err := p.Process(ctx, message("A")); err != nil {
		t.Fatalf("first failure should be buffered: %v", err)
	}
	if err := p.Process(ctx, message("B")); err == nil {
		t.Fatal("full buffer should return the downstream error")
	}
}

func TestPipelineNotRetryable(t *testing.T) {
	permanent := errors.New("bad profile")
	sink := &flakySink{failures: 1, err: permanent}
	p := NewSignalPipeline(sink, nil, nil,
		WithThrottle(0),
		WithRetryable(func(err error) bool { return !errors.Is(err, permanent) }),
	)
	if err := p.Process(context.Background(), message("A")); !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if p.Pending() != 0 {
		t.Fatal("permanent failures must not be buffered")
	}
}

func TestPipelineRestart(t *testing.T) {
	sink := &flakySink{failures: 1, err: errors.New("down")}
	p := NewSignalPipeline(sink, nil, nil, WithThrottle(0), WithRetry(3, time.Millisecond, time.Millisecond))
	ctx := context.Background()

	p.Start(ctx)
	p.Stop()
	p.Stop()
	if err := p.Process(ctx, message("BTC")); err != nil {
		t.Fatal(err)
	}

	p.Start(ctx)
	defer p.Stop()
	deadline := time.After(2 * time.Second)
	for sink.delivered() == 0 {
		select {
		case <-deadline:
			t.Fatal("restarted pipeline never drained the buffer")
		case <-time.After(2 * time.Millisecond):
		}
	}
}
