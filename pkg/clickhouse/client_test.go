package clickhouse

import (
	"net/url"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	cfg := *defaultConfig()
	cfg.Host = "ch.local"
	cfg.Database = "forecast"
	cfg.User = "svc"
	cfg.Password = "p@ss"
	cfg.MaxExecTime = 30 * time.Second
	cfg.AsyncInsert = true
	cfg.WaitForAsync = true

	u, err := url.Parse(BuildDSN(cfg))
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.local:9000" || u.Path != "/forecast" {
		t.Fatalf("unexpected dsn %s", u)
	}
	if pw, _ := u.User.Password(); u.User.Username() != "svc" || pw != "p@ss" {
		t.Fatalf("credentials not preserved: %s", u.User)
	}
	q := u.Query()
	if q.Get("max_execution_time") != "30" || q.Get("async_insert") != "1" || q.Get("wait_for_async_insert") != "1" {
		t.Fatalf("settings = %v", q)
	}
	if q.Get("dial_timeout") != "5s" {
		t.Fatalf("dial_timeout = %q", q.Get("dial_timeout"))
	}
}

func TestBuildDSNHTTP(t *testing.T) {
	cfg := ClientConfig{Host: "h", Port: 8123, Database: "d", UseHTTP: true}
	if got := BuildDSN(cfg); got != "http://h:8123/d" {
		t.Fatalf("dsn = %s", got)
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Fatal("expected error without host")
	}
}
