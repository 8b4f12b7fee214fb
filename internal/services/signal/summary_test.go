package signal

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
)

func TestSummarize(t *testing.T) {
	s := Summarize(models.TimingSignal{
		Bias:         models.BiasBullish,
		Confidence:   49,
		TailRisk:     0.05,
		TimingAction: models.ActionWait,
		TargetPrice:  102345.6,
		SampleSize:   20,
		HitRate:      0.7,
		Quantiles:    models.Quantiles{P10: -0.05, P25: -0.01, P50: 0.02, P75: 0.05, P90: 0.08},
	})

	checks := map[string][2]string{
		"expected": {s.Expected, "+2.00%"},
		"target":   {s.Target, "$102,346"},
		"range":    {s.Range, "-5.0% -> 8.0%"},
		"zone":     {s.WorkingZone, "-1.0% -> 5.0%"},
		"conf":     {s.Confidence, "49%"},
		"tail":     {s.TailRisk, "-5.0%"},
		"hit":      {s.HitRate, "70%"},
		"n":        {s.SampleSize, "20 matches"},
		"glyph":    {s.BiasGlyph, "^"},
		"hint":     {s.Hint, "Insufficient edge for timing trade"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s: got %q want %q", name, c[0], c[1])
		}
	}
	if s.Band != BandFair {
		t.Errorf("band = %s", s.Band)
	}
	if len(s.Lines()) != 10 {
		t.Errorf("lines = %d", len(s.Lines()))
	}
}

func TestConfidenceBand(t *testing.T) {
	if ConfidenceBand(61) != BandStrong || ConfidenceBand(60) != BandFair || ConfidenceBand(40) != BandWeak {
		t.Fatalf("band edges wrong")
	}
}

func TestGroupThousands(t *testing.T) {
	cases := map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -45000: "-45,000"}
	for in, want := range cases {
		if got := groupThousands(decimal.NewFromInt(in)); got != want {
			t.Errorf("%d: got %s want %s", in, got, want)
		}
	}
	if got := groupThousands(decimal.NewFromFloat(1999.5)); got != "2,000" {
		t.Fatalf("fraction should round before grouping, got %s", got)
	}
}
