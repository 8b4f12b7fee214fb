package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: staging
server:
  port: 9090
signal:
  compact:
    threshold: 45
cache:
  driver: layered
  ttl: 1m
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "staging" || c.Server.Port != 9090 {
		t.Fatalf("yaml values not applied: %+v", c.Server)
	}
	if c.Signal.Compact.Threshold != 45 || c.Signal.Full.Threshold != 55 {
		t.Fatalf("profile thresholds = %+v", c.Signal)
	}
	if c.Cache.Driver != "layered" || c.Cache.TTL != time.Minute {
		t.Fatalf("cache = %+v", c.Cache)
	}
	if c.Server.ShutdownTimeout != 10*time.Second {
		t.Fatal("unset fields should keep defaults")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"driver":    "cache:\n  driver: disk\n",
		"mode":      "render:\n  mode: pie\n",
		"threshold": "signal:\n  full:\n    threshold: 120\n",
		"topic":     "kafka:\n  brokers: [k:9092]\n  focus_topic: \"\"\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ENVIRONMENT":     "production",
		"HTTP_PORT":       "7070",
		"KAFKA_BROKERS":   "k1:9092, k2:9092,",
		"REDIS_ADDR":      "cache.internal:6380",
		"CLICKHOUSE_HOST": "ch",
	}
	c := Default()
	if err := c.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if c.Environment != "production" || c.Server.Port != 7070 || c.ClickHouse.Host != "ch" {
		t.Fatalf("env not applied: %+v", c)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", c.Kafka.Brokers)
	}
	if c.Cache.Redis.Host != "cache.internal" || c.Cache.Redis.Port != 6380 {
		t.Fatalf("redis = %s:%d", c.Cache.Redis.Host, c.Cache.Redis.Port)
	}

	bad := Default()
	if err := bad.applyEnv(func(k string) string {
		if k == "HTTP_PORT" {
			return "http"
		}
		return ""
	}); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestSampleConfigLoads(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("sample config: %v", err)
	}
	if c.Kafka.Consumer.DLQTopic == "" {
		t.Fatal("sample config should name a DLQ topic")
	}
}
