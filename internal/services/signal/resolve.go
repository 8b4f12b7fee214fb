package signal

import "github.com/Shillmaster/JJcbjee/internal/domain/models"

// Fallbacks is the default table applied when neither a quantile series nor
// its stats equivalent is present.
type Fallbacks struct {
	P10, P25, P50, P75, P90 float64
	HitRate                 float64
}

// DefaultFallbacks are the documented constants.
var DefaultFallbacks = Fallbacks{
	P10:     -0.15,
	P25:     -0.05,
	P50:     0,
	P75:     0.05,
	P90:     0.15,
	HitRate: 0.5,
}

// Inputs is a fully resolved distribution: no optional fields remain.
type Inputs struct {
	Quantiles  models.Quantiles
	SampleSize int
	HitRate    float64
}

// Resolve reduces an overlay to concrete inputs. Each value is taken from the
// last element of its series, then the stats equivalent, then the table.
// A nil overlay resolves entirely from the table.
func Resolve(ov *models.Overlay) Inputs {
	return ResolveWith(ov, DefaultFallbacks)
}

// ResolveWith is Resolve with a custom fallback table.
func ResolveWith(ov *models.Overlay, fb Fallbacks) Inputs {
	var (
		series models.DistributionSeries
		stats  models.SummaryStats
		nMatch int
	)
	if ov != nil {
		if ov.DistributionSeries != nil {
			series = *ov.DistributionSeries
		}
		if ov.Stats != nil {
			stats = *ov.Stats
		}
		nMatch = len(ov.Matches)
	}

	in := Inputs{
		Quantiles: models.Quantiles{
			P10: pick(series.P10, stats.P10Return, fb.P10),
			P25: pick(series.P25, nil, fb.P25),
			P50: pick(series.P50, stats.MedianReturn, fb.P50),
			P75: pick(series.P75, nil, fb.P75),
			P90: pick(series.P90, stats.P90Return, fb.P90),
		},
		HitRate: fb.HitRate,
	}
	if stats.HitRate != nil {
		in.HitRate = *stats.HitRate
	}
	switch {
	case stats.SampleSize != nil && *stats.SampleSize > 0:
		in.SampleSize = *stats.SampleSize
	default:
		in.SampleSize = nMatch
	}
	return in
}

func pick(series []float64, stat *float64, def float64) float64 {
	if len(series) > 0 {
		return series[len(series)-1]
	}
	if stat != nil {
		return *stat
	}
	return def
}

// Violations lists adjacent quantile pairs that are out of order.
func Violations(q models.Quantiles) []string {
	var out []string
	pairs := []struct {
		name string
		lo   float64
		hi   float64
	}{
		{"p10>p25", q.P10, q.P25},
		{"p25>p50", q.P25, q.P50},
		{"p50>p75", q.P50, q.P75},
		{"p75>p90", q.P75, q.P90},
	}
	for _, p := range pairs {
		if p.lo > p.hi {
			out = append(out, p.name)
		}
	}
	return out
}
