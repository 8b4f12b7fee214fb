package models

// Requests for the forecast HTTP endpoints.

type SignalRequest struct {
	Symbol       string     `json:"symbol" validate:"required"`
	CurrentPrice float64    `json:"currentPrice" validate:"gt=0"`
	Profile      string     `json:"profile" default:"full" validate:"oneof=full compact"`
	TickSize     float64    `json:"tickSize" default:"0.01" validate:"gt=0"`
	AsOf         int64      `json:"asof"`
	FocusPack    *FocusPack `json:"focusPack" validate:"required"`
	// EventID pins the event id on redelivery so sinks can deduplicate.
	EventID string `json:"-"`
}

type RenderRequest struct {
	Symbol       string     `json:"symbol" validate:"required"`
	CurrentPrice float64    `json:"currentPrice" validate:"gt=0"`
	Mode         string     `json:"mode" validate:"omitempty,oneof=hybrid arrow"`
	Format       string     `json:"format" default:"png" validate:"oneof=png ops"`
	Width        int        `json:"width" validate:"gte=0,lte=4096"`
	Height       int        `json:"height" validate:"gte=0,lte=4096"`
	Profile      string     `json:"profile" default:"full" validate:"oneof=full compact"`
	Summary      bool       `json:"summary"`
	History      []float64  `json:"history,omitempty" validate:"max=5000"`
	FocusPack    *FocusPack `json:"focusPack" validate:"required"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}
