package signal

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
)

// Band grades confidence for display.
type Band string

const (
	BandStrong Band = "strong"
	BandFair   Band = "fair"
	BandWeak   Band = "weak"
)

// ConfidenceBand buckets confidence: above 60 strong, above 40 fair.
func ConfidenceBand(confidence float64) Band {
	switch {
	case confidence > 60:
		return BandStrong
	case confidence > 40:
		return BandFair
	default:
		return BandWeak
	}
}

// Summary is the display form of a TimingSignal, one string per panel row.
type Summary struct {
	Title       string              `json:"title"`
	Bias        models.Bias         `json:"bias"`
	BiasGlyph   string              `json:"biasGlyph"`
	Expected    string              `json:"expected"`
	Target      string              `json:"target"`
	Range       string              `json:"range"`
	WorkingZone string              `json:"workingZone"`
	Confidence  string              `json:"confidence"`
	Band        Band                `json:"band"`
	SampleSize  string              `json:"sampleSize"`
	TailRisk    string              `json:"tailRisk"`
	HitRate     string              `json:"hitRate"`
	Action      models.TimingAction `json:"action"`
	Hint        string              `json:"hint"`
}

var enPrinter = message.NewPrinter(language.English)

var hints = map[models.TimingAction]string{
	models.ActionEnter: "Favorable short-term setup detected",
	models.ActionExit:  "Negative short-term pressure",
	models.ActionWait:  "Insufficient edge for timing trade",
}

// Summarize formats s for a summary panel.
func Summarize(s models.TimingSignal) Summary {
	q := s.Quantiles
	return Summary{
		Title:       "7D OUTLOOK",
		Bias:        s.Bias,
		BiasGlyph:   glyph(s.Bias),
		Expected:    signedPct(q.P50, 2),
		Target:      "$" + groupThousands(decimal.NewFromFloat(s.TargetPrice)),
		Range:       fmt.Sprintf("%s -> %s", pct(q.P10, 1), pct(q.P90, 1)),
		WorkingZone: fmt.Sprintf("%s -> %s", pct(q.P25, 1), pct(q.P75, 1)),
		Confidence:  fmt.Sprintf("%.0f%%", s.Confidence),
		Band:        ConfidenceBand(s.Confidence),
		SampleSize:  fmt.Sprintf("%d matches", s.SampleSize),
		TailRisk:    "-" + pct(s.TailRisk, 1),
		HitRate:     fmt.Sprintf("%.0f%%", s.HitRate*100),
		Action:      s.TimingAction,
		Hint:        hints[s.TimingAction],
	}
}

// Lines renders the summary as label/value rows.
func (s Summary) Lines() []string {
	return []string{
		fmt.Sprintf("%s  %s %s", s.Title, s.BiasGlyph, s.Bias),
		"Expected (P50)  " + s.Expected,
		"Target Price    " + s.Target,
		"Range P10-P90   " + s.Range,
		"Working P25-P75 " + s.WorkingZone,
		"Confidence      " + s.Confidence,
		"Sample Size     " + s.SampleSize,
		"Tail Risk (P10) " + s.TailRisk,
		"Hit Rate        " + s.HitRate,
		fmt.Sprintf("TIMING %s  %s", s.Action, s.Hint),
	}
}

// glyph returns ASCII direction marks; bitmap fonts lack arrows.
func glyph(b models.Bias) string {
	switch b {
	case models.BiasBullish:
		return "^"
	case models.BiasBearish:
		return "v"
	default:
		return ">"
	}
}

func pct(v float64, places int) string {
	return fmt.Sprintf("%.*f%%", places, v*100)
}

func signedPct(v float64, places int) string {
	if v >= 0 {
		return "+" + pct(v, places)
	}
	return pct(v, places)
}

// groupThousands rounds d to a whole number and groups its digits with
// commas.
func groupThousands(d decimal.Decimal) string {
	return enPrinter.Sprintf("%d", d.Round(0).IntPart())
}
