package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Shillmaster/JJcbjee/pkg/logger"
)

type Config struct {
	Environment string        `yaml:"environment"`
	Server      Server        `yaml:"server"`
	Logger      logger.Config `yaml:"logger"`
	Render      Render        `yaml:"render"`
	Signal      Signal        `yaml:"signal"`
	Cache       Cache         `yaml:"cache"`
	Kafka       Kafka         `yaml:"kafka"`
	ClickHouse  ClickHouse    `yaml:"clickhouse"`
	Stream      Stream        `yaml:"stream"`
	RateLimit   RateLimit     `yaml:"ratelimit"`
}

type Server struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MetricsPath     string        `yaml:"metrics_path"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type Render struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Mode    string  `yaml:"mode"`
	Profile string  `yaml:"profile"`
	DPI     float64 `yaml:"dpi"`
}

type SignalProfile struct {
	Threshold     float64 `yaml:"threshold"`
	MagnitudeGate float64 `yaml:"magnitude_gate"`
}

type Signal struct {
	Full    SignalProfile `yaml:"full"`
	Compact SignalProfile `yaml:"compact"`
	// Throttle is the minimum gap between two pipeline signals per symbol.
	Throttle time.Duration `yaml:"throttle"`
	// RetryBuffer bounds the pipeline's retry queue.
	RetryBuffer int `yaml:"retry_buffer"`
}

type Cache struct {
	Driver     string        `yaml:"driver"` // memory, redis or layered
	TTL        time.Duration `yaml:"ttl"`
	MemorySize int           `yaml:"memory_size"`
	Redis      struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
}

type Kafka struct {
	Brokers     []string `yaml:"brokers"`
	FocusTopic  string   `yaml:"focus_topic"`
	SignalTopic string   `yaml:"signal_topic"`
	Compression string   `yaml:"compression"`
	Producer    struct {
		MaxAttempts  int           `yaml:"max_attempts"`
		Linger       time.Duration `yaml:"linger"`
		BatchSize    int           `yaml:"batch_size"`
		BatchBytes   int           `yaml:"batch_bytes"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id"`
		Workers    int           `yaml:"workers"`
		BufferSize int           `yaml:"buffer_size"`
		RetryMax   int           `yaml:"retry_max"`
		BackoffMin time.Duration `yaml:"backoff_min"`
		BackoffMax time.Duration `yaml:"backoff_max"`
		DLQTopic   string        `yaml:"dlq_topic"`
	} `yaml:"consumer"`
}

type ClickHouse struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	Database         string        `yaml:"database"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time"`
}

type Stream struct {
	PingInterval time.Duration `yaml:"ping_interval"`
	WriteWait    time.Duration `yaml:"write_wait"`
	SendBuffer   int           `yaml:"send_buffer"`
}

type RateLimit struct {
	Capacity float64 `yaml:"capacity"`
	Refill   float64 `yaml:"refill_per_sec"`
}

// Default returns a config that runs with no external services.
func Default() *Config {
	c := &Config{
		Environment: "development",
		Server: Server{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MetricsPath:     "/metrics",
		},
		Logger: logger.Config{Level: "info", Format: "json", Output: "stdout"},
		Render: Render{Width: 960, Mode: "hybrid", Profile: "full", DPI: 72},
		Signal: Signal{
			Full:        SignalProfile{Threshold: 55, MagnitudeGate: 0.015},
			Compact:     SignalProfile{Threshold: 50},
			Throttle:    time.Second,
			RetryBuffer: 256,
		},
		Cache:     Cache{Driver: "memory", TTL: 5 * time.Minute, MemorySize: 512},
		Stream:    Stream{PingInterval: 30 * time.Second, WriteWait: 10 * time.Second, SendBuffer: 32},
		RateLimit: RateLimit{Capacity: 20, Refill: 5},
	}
	c.Cache.Redis.Host = "localhost"
	c.Cache.Redis.Port = 6379
	c.Cache.Redis.Prefix = "forecast"
	c.Kafka.FocusTopic = "forecast.focus"
	c.Kafka.SignalTopic = "forecast.signals"
	c.Kafka.Compression = "snappy"
	c.Kafka.Producer.MaxAttempts = 3
	c.Kafka.Producer.Linger = 50 * time.Millisecond
	c.Kafka.Producer.BatchSize = 100
	c.Kafka.Producer.BatchBytes = 1 << 20
	c.Kafka.Producer.WriteTimeout = 10 * time.Second
	c.Kafka.Consumer.GroupID = "forecast-signals"
	c.Kafka.Consumer.Workers = 2
	c.Kafka.Consumer.BufferSize = 64
	c.Kafka.Consumer.RetryMax = 3
	c.Kafka.Consumer.BackoffMin = 50 * time.Millisecond
	c.Kafka.Consumer.BackoffMax = 2 * time.Second
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "forecast"
	c.ClickHouse.User = "default"
	return c
}

// Load reads a YAML file over Default() and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, err := splitHostPort(v)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR: %w", err)
		}
		c.Cache.Redis.Host, c.Cache.Redis.Port = host, port
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Cache.Driver {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.driver must be memory, redis or layered, got '%s'", c.Cache.Driver)
	}
	switch c.Render.Mode {
	case "hybrid", "arrow":
	default:
		return fmt.Errorf("render.mode must be hybrid or arrow, got '%s'", c.Render.Mode)
	}
	for name, p := range map[string]SignalProfile{"full": c.Signal.Full, "compact": c.Signal.Compact} {
		if p.Threshold < 0 || p.Threshold > 100 {
			return fmt.Errorf("signal.%s.threshold must be within [0,100]", name)
		}
		if p.MagnitudeGate < 0 {
			return fmt.Errorf("signal.%s.magnitude_gate must not be negative", name)
		}
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.FocusTopic == "" {
		return fmt.Errorf("kafka.focus_topic is required when brokers are set")
	}
	if c.RateLimit.Capacity < 1 || c.RateLimit.Refill <= 0 {
		return fmt.Errorf("ratelimit needs capacity >= 1 and a positive refill")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func splitHostPort(addr string) (string, int, error) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return addr, 6379, nil
	}
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		return "", 0, err
	}
	return addr[:i], port, nil
}
