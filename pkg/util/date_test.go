package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeDate(t *testing.T) {
	got, ok := ParseTime("2024-03-01")
	if !ok || got.Day() != 1 || got.Month() != time.March {
		t.Fatalf("unexpected %v %v", got, ok)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
	if _, ok := ParseTime("yesterday"); ok {
		t.Fatal("expected failure")
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestClampRange(t *testing.T) {
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, -6, 0)

	f, tt := ClampRange(to, from, 0)
	if !f.Equal(from) || !tt.Equal(to) {
		t.Fatalf("range should be reordered: %v %v", f, tt)
	}
	f, _ = ClampRange(from, to, 30*24*time.Hour)
	if got := to.Sub(f); got != 30*24*time.Hour {
		t.Fatalf("span = %v", got)
	}
}

func TestStrings(t *testing.T) {
	if ParseIntDefault("x", 7) != 7 || ParseIntDefault("12", 7) != 12 {
		t.Fatal("ParseIntDefault")
	}
	if ClampInt(0, 1, 5) != 1 || ClampInt(9, 1, 5) != 5 || ClampInt(3, 1, 5) != 3 {
		t.Fatal("ClampInt")
	}
	if NormalizeSymbol(" btc ") != "BTC" {
		t.Fatal("NormalizeSymbol")
	}
}
