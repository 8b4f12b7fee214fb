package signal

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
)

func f64(v float64) *float64 { return &v }
func iptr(v int) *int        { return &v }

func pack(q models.Quantiles, hit float64, n int) *models.FocusPack {
	return &models.FocusPack{Overlay: &models.Overlay{
		Stats: &models.SummaryStats{HitRate: f64(hit), SampleSize: iptr(n)},
		DistributionSeries: &models.DistributionSeries{
			P10: []float64{0, q.P10},
			P25: []float64{0, q.P25},
			P50: []float64{0, q.P50},
			P75: []float64{0, q.P75},
			P90: []float64{0, q.P90},
		},
	}}
}

func TestClassifyBias(t *testing.T) {
	cases := []struct {
		name string
		q    models.Quantiles
		want models.Bias
	}{
		{"bullish", models.Quantiles{P25: -0.01, P50: 0.02, P75: 0.04}, models.BiasBullish},
		{"bullish blocked by fat left tail", models.Quantiles{P25: -0.03, P50: 0.02, P75: 0.04}, models.BiasNeutral},
		{"bearish", models.Quantiles{P25: -0.04, P50: -0.02, P75: 0.01}, models.BiasBearish},
		{"bearish blocked by fat right tail", models.Quantiles{P25: -0.04, P50: -0.02, P75: 0.03}, models.BiasNeutral},
		{"flat", models.Quantiles{P25: -0.01, P50: 0.005, P75: 0.01}, models.BiasNeutral},
		{"negative flat", models.Quantiles{P25: -0.01, P50: -0.005, P75: 0.01}, models.BiasNeutral},
	}
	for _, c := range cases {
		if got := Classify(c.q); got != c.want {
			t.Errorf("%s: got %s want %s", c.name, got, c.want)
		}
	}
}

func TestBoundaryCaseAgainstBothProfiles(t *testing.T) {
	q := models.Quantiles{P10: -0.05, P25: 0, P50: 0.02, P75: 0.05, P90: 0.08}

	full := Derive(pack(q, 0.7, 20), 100, FullProfile)
	if math.Abs(full.Confidence-49) > 1e-9 {
		t.Fatalf("confidence = %v want 49", full.Confidence)
	}
	if full.Bias != models.BiasBullish {
		t.Fatalf("bias = %s", full.Bias)
	}
	if full.TimingAction != models.ActionWait {
		t.Fatalf("full action = %s", full.TimingAction)
	}
	compact := Derive(pack(q, 0.7, 20), 100, CompactProfile)
	if compact.TimingAction != models.ActionWait {
		t.Fatalf("compact action at 49 = %s", compact.TimingAction)
	}

	// 75 * 0.7 = 52.5: clears compact, not full
	full = Derive(pack(q, 0.75, 20), 100, FullProfile)
	compact = Derive(pack(q, 0.75, 20), 100, CompactProfile)
	if full.TimingAction != models.ActionWait || compact.TimingAction != models.ActionEnter {
		t.Fatalf("52.5: full=%s compact=%s", full.TimingAction, compact.TimingAction)
	}

	// 90 * 0.7 = 63 clears both
	full = Derive(pack(q, 0.9, 20), 100, FullProfile)
	if full.TimingAction != models.ActionEnter {
		t.Fatalf("63: full=%s", full.TimingAction)
	}
}

func TestMagnitudeGateOnlyInFullProfile(t *testing.T) {
	// p50 0.01 is bullish but under the 0.015 gate
	q := models.Quantiles{P10: 0.008, P25: 0.009, P50: 0.01, P75: 0.011, P90: 0.012}
	full := Derive(pack(q, 0.9, 30), 100, FullProfile)
	compact := Derive(pack(q, 0.9, 30), 100, CompactProfile)
	if full.TimingAction != models.ActionWait {
		t.Fatalf("full ignored gate: %s (conf %v)", full.TimingAction, full.Confidence)
	}
	if compact.TimingAction != models.ActionEnter {
		t.Fatalf("compact gated: %s (conf %v)", compact.TimingAction, compact.Confidence)
	}

	bear := models.Quantiles{P10: -0.012, P25: -0.011, P50: -0.01, P75: -0.009, P90: -0.008}
	if got := Derive(pack(bear, 0.9, 30), 100, CompactProfile).TimingAction; got != models.ActionExit {
		t.Fatalf("compact bearish = %s", got)
	}
	if got := Derive(pack(bear, 0.9, 30), 100, FullProfile).TimingAction; got != models.ActionWait {
		t.Fatalf("full bearish under gate = %s", got)
	}
}

func TestConfidenceMonotonicInDispersion(t *testing.T) {
	prev := math.Inf(1)
	for spread := 0.0; spread <= 0.2; spread += 0.005 {
		q := models.Quantiles{P10: -spread / 2, P50: 0.03, P90: spread / 2}
		c := Confidence(q, 0.8, 20)
		if c > prev+1e-12 {
			t.Fatalf("confidence rose with dispersion %v: %v > %v", spread, c, prev)
		}
		prev = c
	}
}

func TestConfidenceMonotonicInHitRate(t *testing.T) {
	q := models.Quantiles{P10: -0.02, P50: 0.03, P90: 0.05}
	prev := -1.0
	for hit := 0.0; hit <= 1.0; hit += 0.05 {
		c := Confidence(q, hit, 20)
		if c < prev-1e-12 {
			t.Fatalf("confidence fell with hit rate %v", hit)
		}
		prev = c
	}
}

func TestSmallSamplePenalty(t *testing.T) {
	q := models.Quantiles{P10: -0.02, P50: 0.03, P90: 0.05}
	big := Confidence(q, 0.8, 10)
	small := Confidence(q, 0.8, 9)
	if small > 0.8*big+1e-9 {
		t.Fatalf("small sample %v exceeds 0.8x %v", small, big)
	}
}

func TestConfidenceClampedAndFloored(t *testing.T) {
	if c := Confidence(models.Quantiles{}, 2, 50); c != 100 {
		t.Fatalf("not clamped to 100: %v", c)
	}
	if c := Confidence(models.Quantiles{}, -1, 50); c != 0 {
		t.Fatalf("not clamped to 0: %v", c)
	}
	// p50 = 0 uses the 0.01 floor instead of dividing by zero
	c := Confidence(models.Quantiles{P10: -0.001, P90: 0.001}, 1, 50)
	if math.IsNaN(c) || math.Abs(c-94) > 1e-9 {
		t.Fatalf("floored confidence = %v want 94", c)
	}
}

func TestResolveFallbacks(t *testing.T) {
	in := Resolve(&models.Overlay{})
	want := models.Quantiles{P10: -0.15, P25: -0.05, P50: 0, P75: 0.05, P90: 0.15}
	if in.Quantiles != want {
		t.Fatalf("quantiles = %+v", in.Quantiles)
	}
	if in.HitRate != 0.5 || in.SampleSize != 0 {
		t.Fatalf("hit=%v n=%d", in.HitRate, in.SampleSize)
	}

	in = Resolve(&models.Overlay{
		Stats: &models.SummaryStats{
			P10Return:    f64(-0.07),
			MedianReturn: f64(0.01),
			P90Return:    f64(0.09),
		},
		DistributionSeries: &models.DistributionSeries{P25: []float64{}},
		Matches:            []json.RawMessage{json.RawMessage(`{}`), json.RawMessage(`{}`)},
	})
	if in.Quantiles.P10 != -0.07 || in.Quantiles.P50 != 0.01 || in.Quantiles.P90 != 0.09 {
		t.Fatalf("stats fallbacks not used: %+v", in.Quantiles)
	}
	if in.Quantiles.P25 != -0.05 {
		t.Fatalf("empty series should fall back: %v", in.Quantiles.P25)
	}
	if in.SampleSize != 2 {
		t.Fatalf("sample size from matches = %d", in.SampleSize)
	}
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	p := pack(models.Quantiles{P10: -0.05, P25: 0, P50: 0.02, P75: 0.05, P90: 0.08}, 0.7, 20)
	before := append([]float64(nil), p.Overlay.DistributionSeries.P50...)
	_ = Derive(p, 100, FullProfile)
	for i := range before {
		if p.Overlay.DistributionSeries.P50[i] != before[i] {
			t.Fatalf("p50 series mutated")
		}
	}
}

func TestDeriveAbsentData(t *testing.T) {
	s := Derive(nil, 250, FullProfile)
	if s.Bias != models.BiasNeutral || s.TimingAction != models.ActionWait || s.Confidence != 0 {
		t.Fatalf("nil pack signal = %+v", s)
	}
	if s.TargetPrice != 250 {
		t.Fatalf("target = %v", s.TargetPrice)
	}
}

func TestDeriveWithoutOverlayUsesFallbacks(t *testing.T) {
	s := Derive(&models.FocusPack{}, 250, FullProfile)
	// hitRate 0.5, spread 0.30 over the 0.01 floor caps the penalty, n=0.
	if math.Abs(s.Confidence-28) > 1e-9 {
		t.Fatalf("confidence = %v, want 28", s.Confidence)
	}
	if s.Bias != models.BiasNeutral || s.TimingAction != models.ActionWait {
		t.Fatalf("fallback signal = %+v", s)
	}
	if math.Abs(s.TailRisk-0.15) > 1e-12 || s.TargetPrice != 250 || s.HitRate != 0.5 {
		t.Fatalf("fallback signal = %+v", s)
	}
	if s.Degenerate {
		t.Fatal("fallback quantiles are ordered")
	}
}

func TestTailRiskAndTarget(t *testing.T) {
	s := Derive(pack(models.Quantiles{P10: -0.08, P25: -0.01, P50: 0.03, P75: 0.05, P90: 0.1}, 0.6, 12), 200, FullProfile)
	if math.Abs(s.TailRisk-0.08) > 1e-12 {
		t.Fatalf("tail risk = %v", s.TailRisk)
	}
	if math.Abs(s.TargetPrice-206) > 1e-9 {
		t.Fatalf("target = %v", s.TargetPrice)
	}
}

func TestDegenerateQuantilesPassThrough(t *testing.T) {
	q := models.Quantiles{P10: 0.05, P25: 0.04, P50: 0.02, P75: 0.03, P90: -0.01}
	s := Derive(pack(q, 0.7, 20), 100, FullProfile)
	if !s.Degenerate {
		t.Fatalf("degenerate not flagged")
	}
	if len(s.Violations) != 3 {
		t.Fatalf("violations = %v", s.Violations)
	}
	if s.Quantiles != q {
		t.Fatalf("quantiles were altered: %+v", s.Quantiles)
	}
}

func TestProfilesGet(t *testing.T) {
	ps := DefaultProfiles()
	if p, err := ps.Get("compact"); err != nil || p.Threshold != 50 {
		t.Fatalf("compact = %+v %v", p, err)
	}
	if _, err := ps.Get("nope"); err == nil {
		t.Fatalf("expected unknown profile error")
	}
}
