// Package signal turns a forecast distribution into a timing signal.
// Everything here is a pure function of its arguments.
package signal

import (
	"math"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
)

const (
	// BiasMove is the p50 magnitude a direction needs.
	BiasMove = 0.005
	// BiasSkew bounds the opposite-side quartile (p25 for bullish, p75 for bearish).
	BiasSkew = 0.02

	dispersionFloor   = 0.01
	dispersionWeight  = 0.3
	minSampleSize     = 10
	smallSampleFactor = 0.8
)

// Direction classifies p50 alone. The arrow renderer uses this rule.
func Direction(p50 float64) models.Bias {
	switch {
	case p50 > BiasMove:
		return models.BiasBullish
	case p50 < -BiasMove:
		return models.BiasBearish
	default:
		return models.BiasNeutral
	}
}

// Classify applies the full bias rule; the first match wins.
func Classify(q models.Quantiles) models.Bias {
	switch {
	case q.P50 > BiasMove && q.P25 > -BiasSkew:
		return models.BiasBullish
	case q.P50 < -BiasMove && q.P75 < BiasSkew:
		return models.BiasBearish
	default:
		return models.BiasNeutral
	}
}

// Confidence scores the distribution in [0,100]. Wide p10..p90 spread
// relative to the expected move and small samples both reduce it.
func Confidence(q models.Quantiles, hitRate float64, sampleSize int) float64 {
	dispersion := math.Abs(q.P90 - q.P10)
	penalty := math.Min(dispersion/math.Max(math.Abs(q.P50), dispersionFloor), 1) * dispersionWeight

	sampleFactor := 1.0
	if sampleSize < minSampleSize {
		sampleFactor = smallSampleFactor
	}

	c := hitRate * 100 * (1 - penalty) * sampleFactor
	return math.Min(100, math.Max(0, c))
}

// Derive classifies the pack's overlay under the given profile. A nil pack
// yields NEUTRAL/WAIT with zero confidence. A pack without an overlay is
// scored from the fallback table alone.
func Derive(pack *models.FocusPack, currentPrice float64, p Profile) models.TimingSignal {
	if pack == nil {
		return Neutral(currentPrice)
	}
	return FromInputs(Resolve(pack.Overlay), currentPrice, p)
}

// Neutral is the signal for missing data.
func Neutral(currentPrice float64) models.TimingSignal {
	return models.TimingSignal{
		Bias:         models.BiasNeutral,
		TimingAction: models.ActionWait,
		TargetPrice:  currentPrice,
		HitRate:      DefaultFallbacks.HitRate,
	}
}

// FromInputs derives a signal from already resolved inputs.
func FromInputs(in Inputs, currentPrice float64, p Profile) models.TimingSignal {
	q := in.Quantiles
	bias := Classify(q)
	conf := Confidence(q, in.HitRate, in.SampleSize)
	violations := Violations(q)

	return models.TimingSignal{
		Bias:         bias,
		Confidence:   conf,
		TailRisk:     math.Abs(q.P10),
		TimingAction: p.Action(bias, conf, q.P50),
		TargetPrice:  currentPrice * (1 + q.P50),
		SampleSize:   in.SampleSize,
		HitRate:      in.HitRate,
		Quantiles:    q,
		Degenerate:   len(violations) > 0,
		Violations:   violations,
	}
}
