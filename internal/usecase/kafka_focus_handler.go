package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	domrepo "github.com/Shillmaster/JJcbjee/internal/domain/repository"
	mid "github.com/Shillmaster/JJcbjee/internal/middleware"
	pkgkafka "github.com/Shillmaster/JJcbjee/pkg/kafka"
)

// FocusProcessor accepts decoded focus packs. The signal pipeline
// implements it.
type FocusProcessor interface {
	Process(ctx context.Context, msg *models.FocusPackMessage) error
}

// KafkaFocusHandler decodes focus-pack messages and hands them to the
// pipeline. Transient errors trigger the consumer's retry; malformed or
// invalid packs are marked permanent and go straight to the DLQ.
type KafkaFocusHandler struct {
	topic   string
	proc    FocusProcessor
	metrics domrepo.Metrics
}

func NewKafkaFocusHandler(topic string, proc FocusProcessor, metrics domrepo.Metrics) *KafkaFocusHandler {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	return &KafkaFocusHandler{topic: topic, proc: proc, metrics: metrics}
}

func (h *KafkaFocusHandler) Topic() string { return h.topic }

func (h *KafkaFocusHandler) Handle(ctx context.Context, b []byte) error {
	var m models.FocusPackMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode focus pack: %w", err))
	}
	if m.AsOf > 0 {
		h.metrics.RecordLatency("focus_e2e", time.Since(asOfTime(m.AsOf, time.Now())).Seconds())
	}
	if err := h.proc.Process(ctx, &m); err != nil {
		if !IsRetryable(err) {
			h.metrics.RecordError("consumer_invalid")
			return pkgkafka.Permanent(err)
		}
		h.metrics.RecordError("consumer_process")
		return err
	}
	return nil
}

// IsRetryable reports whether a signal failure may succeed on another
// attempt. Bad input never does.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrNoForecast), errors.Is(err, mid.ErrInvalidPack):
		return false
	}
	return true
}

var _ pkgkafka.MessageHandler = (*KafkaFocusHandler)(nil)
