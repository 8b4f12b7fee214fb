package models

import "time"

type Bias string

const (
	BiasBullish Bias = "BULLISH"
	BiasBearish Bias = "BEARISH"
	BiasNeutral Bias = "NEUTRAL"
)

type TimingAction string

const (
	ActionEnter TimingAction = "ENTER"
	ActionExit  TimingAction = "EXIT"
	ActionWait  TimingAction = "WAIT"
)

// Quantiles are the last-day returns of the forecast distribution.
type Quantiles struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// TimingSignal is derived on every call and never stored by the deriver.
type TimingSignal struct {
	Bias         Bias         `json:"bias"`
	Confidence   float64      `json:"confidence"`
	TailRisk     float64      `json:"tailRisk"`
	TimingAction TimingAction `json:"timingAction"`
	TargetPrice  float64      `json:"targetPrice"`
	SampleSize   int          `json:"sampleSize"`
	HitRate      float64      `json:"hitRate"`
	Quantiles    Quantiles    `json:"quantiles"`
	// Degenerate is set when the quantiles are not monotonic; values are
	// still used as given.
	Degenerate bool     `json:"degenerate,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// SignalEvent is a TimingSignal stamped for journaling and fan-out.
type SignalEvent struct {
	ID           string       `json:"id"`
	Symbol       string       `json:"symbol"`
	Profile      string       `json:"profile"`
	AsOf         time.Time    `json:"asof"`
	CurrentPrice float64      `json:"currentPrice"`
	Target       string       `json:"target"`
	Signal       TimingSignal `json:"signal"`
	CreatedAt    time.Time    `json:"createdAt"`
}
