package models

import "encoding/json"

// FocusPack is the upstream forecasting payload for one asset at one
// evaluation time. Every field is optional.
type FocusPack struct {
	Meta         *PackMeta     `json:"meta,omitempty"`
	Overlay      *Overlay      `json:"overlay,omitempty"`
	Forecast     *Forecast     `json:"forecast,omitempty"`
	PrimaryMatch *PrimaryMatch `json:"primaryMatch,omitempty"`
}

type PackMeta struct {
	Symbol  string `json:"symbol,omitempty"`
	Horizon string `json:"horizon,omitempty"`
}

// Overlay carries the forecast distribution: per-day quantile series plus
// summary stats used as fallbacks.
type Overlay struct {
	Stats              *SummaryStats       `json:"stats,omitempty"`
	DistributionSeries *DistributionSeries `json:"distributionSeries,omitempty"`
	// Matches is opaque; only its length is used.
	Matches []json.RawMessage `json:"matches,omitempty"`
}

// SummaryStats fields are pointers so that "absent" and zero differ.
type SummaryStats struct {
	SampleSize   *int     `json:"sampleSize,omitempty"`
	HitRate      *float64 `json:"hitRate,omitempty"`
	MedianReturn *float64 `json:"medianReturn,omitempty"`
	P10Return    *float64 `json:"p10Return,omitempty"`
	P90Return    *float64 `json:"p90Return,omitempty"`
}

// DistributionSeries holds returns per forecast day; index 0 is one day ahead.
type DistributionSeries struct {
	P10 []float64 `json:"p10,omitempty"`
	P25 []float64 `json:"p25,omitempty"`
	P50 []float64 `json:"p50,omitempty"`
	P75 []float64 `json:"p75,omitempty"`
	P90 []float64 `json:"p90,omitempty"`
}

// Forecast is the model-generated (synthetic) path.
type Forecast struct {
	PricePath []float64 `json:"pricePath,omitempty"`
}

// PrimaryMatch is the best historical analog chosen upstream.
type PrimaryMatch struct {
	ReplayPath []float64 `json:"replayPath,omitempty"`
	Similarity *float64  `json:"similarity,omitempty"`
}

// Horizon returns the synthetic path length.
func (f *Forecast) Horizon() int {
	if f == nil {
		return 0
	}
	return len(f.PricePath)
}

// FocusPackMessage is the Kafka envelope for an incoming focus pack.
type FocusPackMessage struct {
	Symbol       string     `json:"symbol"`
	CurrentPrice float64    `json:"currentPrice"`
	AsOf         int64      `json:"asof"`
	Profile      string     `json:"profile,omitempty"`
	FocusPack    *FocusPack `json:"focusPack"`
}
