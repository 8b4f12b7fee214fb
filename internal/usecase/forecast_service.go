package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	domrepo "github.com/Shillmaster/JJcbjee/internal/domain/repository"
	"github.com/Shillmaster/JJcbjee/internal/services/chart"
	"github.com/Shillmaster/JJcbjee/internal/services/signal"
	"github.com/Shillmaster/JJcbjee/pkg/cache"
	"github.com/Shillmaster/JJcbjee/pkg/canvas"
	applogger "github.com/Shillmaster/JJcbjee/pkg/logger"
	"github.com/Shillmaster/JJcbjee/pkg/util"
)

var (
	// ErrNoForecast means the request carries nothing to classify or draw.
	ErrNoForecast = errors.New("usecase: focus pack has no forecast data")
	// ErrInvalidRequest wraps request problems the validator cannot see.
	ErrInvalidRequest = errors.New("usecase: invalid request")
	// ErrJournalDisabled is returned by History when no journal is wired.
	ErrJournalDisabled = errors.New("usecase: signal journal disabled")
	// ErrDownstream means the journal or publisher rejected an event.
	ErrDownstream = errors.New("usecase: signal sink failed")
)

const (
	FormatPNG = "png"
	FormatOps = "ops"

	defaultTickSize = 0.01
	defaultWidth    = 960
	historyMaxRows  = 1000
)

// ForecastServiceConfig holds render and signal defaults. Width, Height
// and Mode apply when a render request leaves them unset.
type ForecastServiceConfig struct {
	Profiles       signal.Profiles
	DefaultProfile string
	Width          int
	Height         int
	Mode           string
	DPI            float64
	CacheTTL       time.Duration
}

// ServiceOption wires an optional dependency.
type ServiceOption func(*ForecastService)

func WithJournal(j domrepo.SignalJournal) ServiceOption {
	return func(s *ForecastService) { s.journal = j }
}

func WithPublisher(p domrepo.SignalPublisher) ServiceOption {
	return func(s *ForecastService) { s.publisher = p }
}

func WithBroadcaster(b domrepo.SignalBroadcaster) ServiceOption {
	return func(s *ForecastService) { s.broadcaster = b }
}

func WithRenderCache(c domrepo.RenderCache) ServiceOption {
	return func(s *ForecastService) { s.cache = c }
}

func WithMetrics(m domrepo.Metrics) ServiceOption {
	return func(s *ForecastService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// ForecastService derives timing signals and renders forecast frames.
// Journal, publisher, broadcaster and cache are all optional.
type ForecastService struct {
	cfg         ForecastServiceConfig
	journal     domrepo.SignalJournal
	publisher   domrepo.SignalPublisher
	broadcaster domrepo.SignalBroadcaster
	cache       domrepo.RenderCache
	metrics     domrepo.Metrics
	log         *applogger.Logger

	now   func() time.Time
	newID func() string
}

func NewForecastService(cfg ForecastServiceConfig, log *applogger.Logger, opts ...ServiceOption) *ForecastService {
	if cfg.Profiles == nil {
		cfg.Profiles = signal.DefaultProfiles()
	}
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = signal.FullProfile.Name
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Mode == "" {
		cfg.Mode = string(chart.ModeHybrid)
	}
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if log == nil {
		log = applogger.Nop()
	}
	s := &ForecastService{
		cfg:     cfg,
		metrics: domrepo.NopMetrics{},
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ForecastService) profile(name string) (signal.Profile, error) {
	if name == "" {
		name = s.cfg.DefaultProfile
	}
	p, err := s.cfg.Profiles.Get(name)
	if err != nil {
		return signal.Profile{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return p, nil
}

// Signal derives, journals, publishes and broadcasts one timing signal.
// Journal and publish failures are logged; the event is still returned.
func (s *ForecastService) Signal(ctx context.Context, req *models.SignalRequest) (*models.SignalEvent, error) {
	e, err := s.emit(ctx, req)
	if errors.Is(err, ErrDownstream) {
		return e, nil
	}
	return e, err
}

// Emit is Signal for asynchronous callers. A journal or publish failure is
// returned wrapped in ErrDownstream together with the event; resubmitting
// with EventID and AsOf taken from that event stores and publishes the same
// event again without broadcasting it twice.
func (s *ForecastService) Emit(ctx context.Context, req *models.SignalRequest) (*models.SignalEvent, error) {
	return s.emit(ctx, req)
}

func (s *ForecastService) emit(ctx context.Context, req *models.SignalRequest) (*models.SignalEvent, error) {
	start := s.now()
	if req == nil || req.FocusPack == nil {
		return nil, ErrNoForecast
	}
	symbol := util.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	p, err := s.profile(req.Profile)
	if err != nil {
		return nil, err
	}

	sig := signal.Derive(req.FocusPack, req.CurrentPrice, p)
	if sig.Degenerate {
		s.log.Warn("quantiles out of order",
			applogger.String("symbol", symbol),
			applogger.Strings("violations", sig.Violations),
		)
		s.metrics.RecordError("degenerate_quantiles")
	}

	redelivery := req.EventID != ""
	id := req.EventID
	if !redelivery {
		id = s.newID()
	}
	e := &models.SignalEvent{
		ID:           id,
		Symbol:       symbol,
		Profile:      p.Name,
		AsOf:         asOfTime(req.AsOf, start),
		CurrentPrice: req.CurrentPrice,
		Target:       RoundToTick(sig.TargetPrice, req.TickSize),
		Signal:       sig,
		CreatedAt:    start.UTC(),
	}

	if !redelivery {
		s.metrics.RecordSignal(string(sig.Bias), string(sig.TimingAction), p.Name)
		s.metrics.RecordConfidence(symbol, sig.Confidence)
	}

	var sinkErrs []error
	if s.journal != nil {
		if err := s.journal.Store(ctx, e); err != nil {
			s.metrics.RecordError("journal")
			s.log.Error("journal signal failed", applogger.String("id", e.ID), applogger.Error(err))
			sinkErrs = append(sinkErrs, fmt.Errorf("journal: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.metrics.RecordError("publish")
			s.log.Error("publish signal failed", applogger.String("id", e.ID), applogger.Error(err))
			sinkErrs = append(sinkErrs, fmt.Errorf("publish: %w", err))
		}
	}
	if s.broadcaster != nil && !redelivery {
		s.broadcaster.Broadcast(e)
	}

	s.metrics.RecordLatency("signal", s.now().Sub(start).Seconds())
	s.log.Debug("signal derived",
		applogger.String("symbol", symbol),
		applogger.String("bias", string(sig.Bias)),
		applogger.String("action", string(sig.TimingAction)),
		applogger.Float64("confidence", sig.Confidence),
	)
	if len(sinkErrs) > 0 {
		return e, fmt.Errorf("%w: %w", ErrDownstream, errors.Join(sinkErrs...))
	}
	return e, nil
}

// asOfTime accepts unix seconds or milliseconds; zero means now.
func asOfTime(v int64, now time.Time) time.Time {
	switch {
	case v <= 0:
		return now.UTC()
	case v > 1e12:
		return time.UnixMilli(v).UTC()
	default:
		return time.Unix(v, 0).UTC()
	}
}

// RoundToTick rounds price to the nearest multiple of tick and formats it
// with the tick's precision.
func RoundToTick(price, tick float64) string {
	if tick <= 0 {
		tick = defaultTickSize
	}
	t := decimal.NewFromFloat(tick)
	places := int32(0)
	if exp := t.Exponent(); exp < 0 {
		places = -exp
	}
	return decimal.NewFromFloat(price).Div(t).Round(0).Mul(t).StringFixed(places)
}

// RenderResult is one encoded frame.
type RenderResult struct {
	ID          string              `json:"id"`
	ContentType string              `json:"contentType"`
	Body        []byte              `json:"-"`
	Width       int                 `json:"width"`
	Height      int                 `json:"height"`
	Mode        chart.Mode          `json:"mode"`
	Cached      bool                `json:"cached"`
	Signal      models.TimingSignal `json:"signal"`
}

// opsFrame is the JSON body for format=ops.
type opsFrame struct {
	ID      string           `json:"id"`
	Width   int              `json:"width"`
	Height  int              `json:"height"`
	Mode    chart.Mode       `json:"mode"`
	Frame   *canvas.Recorder `json:"frame"`
	Summary *signal.Summary  `json:"summary,omitempty"`
}

// Render draws the request as PNG or as a recorded op list. Identical
// requests are served from the render cache.
func (s *ForecastService) Render(ctx context.Context, req *models.RenderRequest) (*RenderResult, error) {
	start := s.now()
	if req == nil || req.FocusPack == nil || (req.FocusPack.Forecast == nil && req.FocusPack.Overlay == nil) {
		return nil, ErrNoForecast
	}
	modeName, width, height := req.Mode, req.Width, req.Height
	if modeName == "" {
		modeName = s.cfg.Mode
	}
	if width == 0 {
		width, height = s.cfg.Width, s.cfg.Height
	}
	mode, err := chart.ParseMode(modeName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	format := req.Format
	if format == "" {
		format = FormatPNG
	}
	if format != FormatPNG && format != FormatOps {
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidRequest, format)
	}
	p, err := s.profile(req.Profile)
	if err != nil {
		return nil, err
	}

	pack := req.FocusPack
	sig := signal.Derive(pack, req.CurrentPrice, p)
	sc := chart.NewScene(width, height, mode)
	res := &RenderResult{
		ContentType: contentType(format),
		Width:       sc.Width,
		Height:      sc.Height,
		Mode:        mode,
		Signal:      sig,
	}

	key := ""
	if s.cache != nil {
		key, err = renderKey(req)
		if err != nil {
			return nil, err
		}
		body, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			s.metrics.RecordCacheLookup(s.cache.Name(), true)
			s.metrics.RecordRender(string(mode), format, "cached")
			res.ID = key
			res.Body = body
			res.Cached = true
			return res, nil
		case errors.Is(err, cache.ErrCacheMiss):
			s.metrics.RecordCacheLookup(s.cache.Name(), false)
		default:
			s.metrics.RecordError("cache")
			s.log.Warn("render cache read failed", applogger.Error(err))
		}
	}

	in := chart.SceneInput{
		CurrentPrice: req.CurrentPrice,
		History:      req.History,
		Forecast:     pack.Forecast,
		Match:        pack.PrimaryMatch,
	}
	if pack.Overlay != nil {
		q := sig.Quantiles
		in.Quantiles = &q
	}

	res.ID = key
	if res.ID == "" {
		res.ID = s.newID()
	}
	var summary *signal.Summary
	if req.Summary {
		sum := signal.Summarize(sig)
		summary = &sum
	}

	switch format {
	case FormatOps:
		rec := canvas.NewRecorder()
		sc.Compose(rec, in)
		res.Body, err = json.Marshal(opsFrame{
			ID:      res.ID,
			Width:   sc.Width,
			Height:  sc.Height,
			Mode:    mode,
			Frame:   rec,
			Summary: summary,
		})
	default:
		res.Body, err = s.renderPNG(sc, in, summary)
	}
	if err != nil {
		s.metrics.RecordRender(string(mode), format, "error")
		s.metrics.RecordError("render")
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, res.Body, s.cfg.CacheTTL); err != nil {
			s.metrics.RecordError("cache")
			s.log.Warn("render cache write failed", applogger.Error(err))
		}
	}

	s.metrics.RecordRender(string(mode), format, "ok")
	s.metrics.RecordLatency("render", s.now().Sub(start).Seconds())
	return res, nil
}

func (s *ForecastService) renderPNG(sc chart.Scene, in chart.SceneInput, summary *signal.Summary) ([]byte, error) {
	r, err := canvas.NewRaster(sc.Width, sc.Height, canvas.WithDPI(s.cfg.DPI))
	if err != nil {
		return nil, err
	}
	sc.Compose(r, in)
	if summary != nil {
		chart.DrawSummaryCard(r.Image(), *summary)
	}
	var buf bytes.Buffer
	if err := r.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderKey(req *models.RenderRequest) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("render key: %w", err)
	}
	return cache.GenerateKeyWithParams("render", req.Format, cache.HashKey(raw)), nil
}

func contentType(format string) string {
	if format == FormatOps {
		return "application/json"
	}
	return "image/png"
}

// History returns journaled events for symbol, newest first.
func (s *ForecastService) History(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.SignalEvent, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	if limit <= 0 || limit > historyMaxRows {
		limit = historyMaxRows
	}
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	out, err := s.journal.Query(ctx, symbol, from, to, limit)
	if err != nil {
		s.metrics.RecordError("journal")
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	return out, nil
}
