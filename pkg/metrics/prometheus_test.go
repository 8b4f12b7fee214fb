package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordRender("hybrid", "png", "ok")
	r.RecordRender("hybrid", "png", "ok")
	r.RecordSignal("BULLISH", "ENTER", "full")
	r.RecordCacheLookup("memory", true)
	r.RecordCacheLookup("memory", false)
	r.RecordError("journal")
	r.RecordConfidence("BTC", 61)
	r.SetStreamClients(3)

	if v := testutil.ToFloat64(r.renders.WithLabelValues("hybrid", "png", "ok")); v != 2 {
		t.Fatalf("renders = %v", v)
	}
	if v := testutil.ToFloat64(r.signals.WithLabelValues("BULLISH", "ENTER", "full")); v != 1 {
		t.Fatalf("signals = %v", v)
	}
	if v := testutil.ToFloat64(r.cacheLookups.WithLabelValues("memory", "true")); v != 1 {
		t.Fatalf("cache hits = %v", v)
	}
	if v := testutil.ToFloat64(r.confidence.WithLabelValues("BTC")); v != 61 {
		t.Fatalf("confidence = %v", v)
	}
	if v := testutil.ToFloat64(r.streamClients); v != 3 {
		t.Fatalf("stream clients = %v", v)
	}
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Fatal("second registration on one registry should panic")
		}
	}()
	New(reg)
}
