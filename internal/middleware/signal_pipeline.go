package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	domrepo "github.com/Shillmaster/JJcbjee/internal/domain/repository"
	applogger "github.com/Shillmaster/JJcbjee/pkg/logger"
	"github.com/Shillmaster/JJcbjee/pkg/util"
)

// ErrInvalidPack is returned for messages the pipeline refuses outright.
var ErrInvalidPack = errors.New("pipeline: invalid focus pack")

// SignalSink is the downstream the pipeline feeds. On failure it may still
// return the event it built; the retry then resubmits that same event.
type SignalSink interface {
	Emit(ctx context.Context, req *models.SignalRequest) (*models.SignalEvent, error)
}

type pending struct {
	req      *models.SignalRequest
	attempts int
}

// SignalPipeline sits between the focus-pack consumer and the signal
// service. It validates, throttles per symbol, and parks failed requests in a
// bounded retry buffer drained in the background.
type SignalPipeline struct {
	sink      SignalSink
	metrics   domrepo.Metrics
	log       *applogger.Logger
	throttle  time.Duration
	bufSize   int
	maxTries  int
	minWait   time.Duration
	maxWait   time.Duration
	retryable func(error) bool
	now       func() time.Time

	bufCh    chan pending
	stopCh   chan struct{}
	done     chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

type PipelineOption func(*SignalPipeline)

// WithThrottle sets the minimum gap between two signals for one symbol.
// Zero disables throttling.
func WithThrottle(d time.Duration) PipelineOption {
	return func(p *SignalPipeline) {
		if d >= 0 {
			p.throttle = d
		}
	}
}

// WithBufferSize bounds the retry buffer.
func WithBufferSize(n int) PipelineOption {
	return func(p *SignalPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithRetry sets attempts per request and the backoff window.
func WithRetry(maxTries int, minWait, maxWait time.Duration) PipelineOption {
	return func(p *SignalPipeline) {
		if maxTries > 0 {
			p.maxTries = maxTries
		}
		if minWait > 0 {
			p.minWait = minWait
		}
		if maxWait >= p.minWait {
			p.maxWait = maxWait
		}
	}
}

// WithRetryable decides which sink errors are worth another attempt.
func WithRetryable(fn func(error) bool) PipelineOption {
	return func(p *SignalPipeline) { p.retryable = fn }
}

func NewSignalPipeline(sink SignalSink, metrics domrepo.Metrics, log *applogger.Logger, opts ...PipelineOption) *SignalPipeline {
	if log == nil {
		log = applogger.Nop()
	}
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	p := &SignalPipeline{
		sink:      sink,
		metrics:   metrics,
		log:       log,
		throttle:  time.Second,
		bufSize:   256,
		maxTries:  5,
		minWait:   50 * time.Millisecond,
		maxWait:   2 * time.Second,
		retryable: func(error) bool { return true },
		now:       time.Now,
		lastSeen:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan pending, p.bufSize)
	return p
}

// Start launches the retry drainer. A stopped pipeline may be started again.
func (p *SignalPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stopCh, p.done
	p.mu.Unlock()

	go p.drain(ctx, stop, done)
}

func (p *SignalPipeline) drain(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	backoff := p.minWait
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case item := <-p.bufCh:
			e, err := p.sink.Emit(ctx, item.req)
			if err == nil {
				backoff = p.minWait
				p.log.Debug("signal retry succeeded", applogger.String("symbol", item.req.Symbol))
				continue
			}
			item.attempts++
			if item.attempts >= p.maxTries || !p.retryable(err) {
				p.metrics.RecordError("pipeline_retry_exhausted")
				p.log.Error("signal dropped after retries",
					applogger.String("symbol", item.req.Symbol),
					applogger.Int("attempts", item.attempts),
					applogger.Error(err),
				)
				continue
			}
			pin(item.req, e)
			if backoff < p.maxWait {
				backoff *= 2
				if backoff > p.maxWait {
					backoff = p.maxWait
				}
			}
			t := time.NewTimer(backoff)
			select {
			case <-stop:
				t.Stop()
				return
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			p.enqueue(item)
		}
	}
}

// Stop halts the drainer and waits for it. Buffered requests stay queued
// for a later Start.
func (p *SignalPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	stop, done := p.stopCh, p.done
	p.mu.Unlock()
	close(stop)
	<-done
}

// Pending reports the retry buffer depth.
func (p *SignalPipeline) Pending() int {
	return len(p.bufCh)
}

// Process validates, throttles and forwards msg. A retryable downstream
// failure parks the request and returns nil; an error is returned only when
// the buffer is full, so the caller's own retry takes over.
func (p *SignalPipeline) Process(ctx context.Context, msg *models.FocusPackMessage) error {
	start := p.now()
	if err := validateMessage(msg); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	symbol := util.NormalizeSymbol(msg.Symbol)
	if !p.allow(symbol, start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	req := &models.SignalRequest{
		Symbol:       symbol,
		CurrentPrice: msg.CurrentPrice,
		Profile:      msg.Profile,
		AsOf:         msg.AsOf,
		FocusPack:    msg.FocusPack,
	}
	if e, err := p.sink.Emit(ctx, req); err != nil {
		p.metrics.RecordError("pipeline_process")
		if !p.retryable(err) {
			return err
		}
		pin(req, e)
		if !p.enqueue(pending{req: req, attempts: 1}) {
			return fmt.Errorf("pipeline downstream: %w", err)
		}
		return nil
	}
	p.metrics.RecordLatency("pipeline_process", p.now().Sub(start).Seconds())
	return nil
}

// pin fixes the event identity on req so a retry redelivers the same event.
func pin(req *models.SignalRequest, e *models.SignalEvent) {
	if e == nil || e.ID == "" {
		return
	}
	req.EventID = e.ID
	req.AsOf = e.AsOf.UnixMilli()
}

func (p *SignalPipeline) enqueue(item pending) bool {
	select {
	case p.bufCh <- item:
		return true
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return false
	}
}

func validateMessage(m *models.FocusPackMessage) error {
	switch {
	case m == nil:
		return fmt.Errorf("%w: message nil", ErrInvalidPack)
	case util.NormalizeSymbol(m.Symbol) == "":
		return fmt.Errorf("%w: symbol empty", ErrInvalidPack)
	case m.CurrentPrice <= 0:
		return fmt.Errorf("%w: current price must be positive", ErrInvalidPack)
	case m.FocusPack == nil || (m.FocusPack.Overlay == nil && m.FocusPack.Forecast == nil):
		return fmt.Errorf("%w: no overlay or forecast", ErrInvalidPack)
	}
	return nil
}

func (p *SignalPipeline) allow(symbol string, now time.Time) bool {
	if p.throttle <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSeen[symbol]
	if ok && now.Sub(last) < p.throttle {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
