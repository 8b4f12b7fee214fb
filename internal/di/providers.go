package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domrepo "github.com/Shillmaster/JJcbjee/internal/domain/repository"
	"github.com/Shillmaster/JJcbjee/internal/handler/api"
	"github.com/Shillmaster/JJcbjee/internal/handler/ws"
	mid "github.com/Shillmaster/JJcbjee/internal/middleware"
	internalrepo "github.com/Shillmaster/JJcbjee/internal/repository"
	"github.com/Shillmaster/JJcbjee/internal/service/ratelimit"
	"github.com/Shillmaster/JJcbjee/internal/services/signal"
	"github.com/Shillmaster/JJcbjee/internal/usecase"
	"github.com/Shillmaster/JJcbjee/pkg/cache"
	pkgch "github.com/Shillmaster/JJcbjee/pkg/clickhouse"
	"github.com/Shillmaster/JJcbjee/pkg/config"
	xhttp "github.com/Shillmaster/JJcbjee/pkg/http"
	pkgkafka "github.com/Shillmaster/JJcbjee/pkg/kafka"
	"github.com/Shillmaster/JJcbjee/pkg/logger"
	"github.com/Shillmaster/JJcbjee/pkg/metrics"
	"github.com/Shillmaster/JJcbjee/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideLogger builds the process logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&cfg.Logger)
}

// ProvideRegistry returns a private registry so tests and the app never
// collide on the global one.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) domrepo.Metrics {
	return metrics.New(reg)
}

// ProvideRenderCache builds the frame cache named by cache.driver.
func ProvideRenderCache(cfg *config.Config, log *logger.Logger) (cache.Service, error) {
	c := cfg.Cache
	switch c.Driver {
	case "", "memory":
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(c.MemorySize),
			cache.WithMemoryDefaultTTL(c.TTL),
		), nil
	case "redis", "layered":
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(c.Redis.Host),
			cache.WithRedisPort(c.Redis.Port),
			cache.WithRedisPassword(c.Redis.Password),
			cache.WithRedisDB(c.Redis.DB),
			cache.WithRedisPrefix(c.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		log.Info("render cache connected",
			logger.String("driver", c.Driver),
			logger.String("addr", fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)),
		)
		if c.Driver == "redis" {
			return rc, nil
		}
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(c.MemorySize),
			cache.WithLayeredMemoryTTL(c.TTL),
		), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", c.Driver)
	}
}

// ProvideClickHouseClient returns nil when no host is configured.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	ch := cfg.ClickHouse
	if ch.Host == "" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, false),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.ReadTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSignalJournal creates the database and signal table.
func ProvideSignalJournal(client *pkgch.Client, cfg *config.Config, log *logger.Logger) (*internalrepo.ClickHouseSignalJournal, error) {
	if client == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse database: %w", err)
	}
	j := internalrepo.NewClickHouseSignalJournal(client, cfg.ClickHouse.Database, log)
	if err := j.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	log.Info("signal journal ready", logger.String("database", cfg.ClickHouse.Database))
	return j, nil
}

// ProvideKafkaProducer returns nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	k := cfg.Kafka
	if len(k.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithMaxAttempts(k.Producer.MaxAttempts),
		pkgkafka.WithBatching(k.Producer.BatchSize, k.Producer.BatchBytes, k.Producer.Linger),
		pkgkafka.WithTimeouts(k.Producer.WriteTimeout, k.Producer.WriteTimeout),
		pkgkafka.WithAsync(k.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalPublisher returns nil when there is no producer.
func ProvideSignalPublisher(p *pkgkafka.Producer, cfg *config.Config) *internalrepo.KafkaSignalPublisher {
	if p == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(p, cfg.Kafka.SignalTopic)
}

// ProvideHub creates the websocket fan-out hub.
func ProvideHub(cfg *config.Config, log *logger.Logger, m domrepo.Metrics) *ws.Hub {
	return ws.NewHub(ws.HubConfig{
		PingInterval:   cfg.Stream.PingInterval,
		WriteWait:      cfg.Stream.WriteWait,
		SendBuffer:     cfg.Stream.SendBuffer,
		AllowedOrigins: cfg.Server.CORSOrigins,
	}, log, m)
}

// ProvideForecastService wires the optional sinks only when they exist,
// so a nil pointer never hides inside a non-nil interface.
func ProvideForecastService(
	cfg *config.Config,
	log *logger.Logger,
	m domrepo.Metrics,
	rc cache.Service,
	journal *internalrepo.ClickHouseSignalJournal,
	publisher *internalrepo.KafkaSignalPublisher,
	hub *ws.Hub,
) *usecase.ForecastService {
	opts := []usecase.ServiceOption{
		usecase.WithMetrics(m),
		usecase.WithRenderCache(rc),
		usecase.WithBroadcaster(hub),
	}
	if journal != nil {
		opts = append(opts, usecase.WithJournal(journal))
	}
	if publisher != nil {
		opts = append(opts, usecase.WithPublisher(publisher))
	}

	full, compact := cfg.Signal.Full, cfg.Signal.Compact
	profiles := signal.Profiles{
		signal.FullProfile.Name: {
			Name:          signal.FullProfile.Name,
			Threshold:     full.Threshold,
			MagnitudeGate: full.MagnitudeGate,
		},
		signal.CompactProfile.Name: {
			Name:          signal.CompactProfile.Name,
			Threshold:     compact.Threshold,
			MagnitudeGate: compact.MagnitudeGate,
		},
	}

	return usecase.NewForecastService(usecase.ForecastServiceConfig{
		Profiles:       profiles,
		DefaultProfile: cfg.Render.Profile,
		Width:          cfg.Render.Width,
		Height:         cfg.Render.Height,
		Mode:           cfg.Render.Mode,
		DPI:            cfg.Render.DPI,
		CacheTTL:       cfg.Cache.TTL,
	}, log.With(logger.String("component", "forecast")), opts...)
}

// ProvideSignalPipeline throttles and buffers signals driven by Kafka.
func ProvideSignalPipeline(cfg *config.Config, svc *usecase.ForecastService, m domrepo.Metrics, log *logger.Logger) *mid.SignalPipeline {
	return mid.NewSignalPipeline(svc, m, log.With(logger.String("component", "pipeline")),
		mid.WithThrottle(cfg.Signal.Throttle),
		mid.WithBufferSize(cfg.Signal.RetryBuffer),
		mid.WithRetryable(usecase.IsRetryable),
	)
}

func ProvideFocusHandler(cfg *config.Config, pipe *mid.SignalPipeline, m domrepo.Metrics) *usecase.KafkaFocusHandler {
	return usecase.NewKafkaFocusHandler(cfg.Kafka.FocusTopic, pipe, m)
}

// ProvideKafkaConsumer returns nil when no brokers are configured.
func ProvideKafkaConsumer(cfg *config.Config, log *logger.Logger, reg *prometheus.Registry) (*pkgkafka.Consumer, error) {
	k := cfg.Kafka
	if len(k.Brokers) == 0 {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(k.Brokers),
		pkgkafka.WithConsumerGroupID(k.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(k.Consumer.Workers),
		pkgkafka.WithConsumerRetry(k.Consumer.RetryMax, k.Consumer.BackoffMin, k.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(k.Consumer.DLQTopic),
		pkgkafka.WithConsumerBufferSize(k.Consumer.BufferSize),
		pkgkafka.WithConsumerLogger(log.With(logger.String("component", "consumer"))),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.Refill)
}

// ProvideAPIHandler registers health checks for every wired backend.
func ProvideAPIHandler(
	log *logger.Logger,
	svc *usecase.ForecastService,
	limiter *ratelimit.Limiter,
	rc cache.Service,
	journal *internalrepo.ClickHouseSignalJournal,
) *api.ForecastEchoHandler {
	h := api.NewForecastEchoHandler(log, svc, limiter)
	if journal != nil {
		h.AddHealthCheck("clickhouse", journal.Health)
	}
	if p, ok := rc.(interface{ Ping(context.Context) error }); ok {
		h.AddHealthCheck(rc.Name(), p.Ping)
	}
	return h
}

func ProvideHTTPServer(cfg *config.Config, log *logger.Logger, reg *prometheus.Registry, h *api.ForecastEchoHandler, hub *ws.Hub) *xhttp.Server {
	s := cfg.Server
	return xhttp.NewServer(xhttp.Handlers{h, hub}, log,
		xhttp.WithPort(s.Port),
		xhttp.WithTimeouts(s.ReadTimeout, s.WriteTimeout, s.ShutdownTimeout),
		xhttp.WithMetricsPath(s.MetricsPath),
		xhttp.WithCORSOrigins(s.CORSOrigins),
		xhttp.WithRegistry(reg),
	)
}

// ProvideApp assembles the lifecycle. Closers run in order after intake
// and workers stop.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	httpServer *xhttp.Server,
	hub *ws.Hub,
	pipe *mid.SignalPipeline,
	consumer *pkgkafka.Consumer,
	focus *usecase.KafkaFocusHandler,
	limiter *ratelimit.Limiter,
	rc cache.Service,
	journal *internalrepo.ClickHouseSignalJournal,
	producer *pkgkafka.Producer,
) *server.App {
	deps := server.Deps{
		HTTP:     httpServer,
		Hub:      hub,
		Pipeline: pipe,
		Limiter:  limiter,
		Closers:  []server.Closer{{Name: "cache", Close: rc.Close}},
	}
	if consumer != nil {
		deps.Consumer = consumer
		deps.FocusHandler = focus
	}
	if producer != nil {
		deps.Closers = append(deps.Closers, server.Closer{Name: "kafka-producer", Close: producer.Close})
	}
	if journal != nil {
		deps.Closers = append(deps.Closers, server.Closer{Name: "clickhouse", Close: journal.Close})
	}
	return server.New(cfg, log, deps)
}
