package signal

import (
	"fmt"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
)

// Profile parameterizes the timing action for one presentation.
type Profile struct {
	Name string `json:"name" yaml:"name"`
	// Threshold is the confidence that must be exceeded (strictly).
	Threshold float64 `json:"threshold" yaml:"threshold"`
	// MagnitudeGate is the |p50| that must be exceeded; zero disables the gate.
	MagnitudeGate float64 `json:"magnitudeGate" yaml:"magnitude_gate"`
}

var (
	FullProfile    = Profile{Name: "full", Threshold: 55, MagnitudeGate: 0.015}
	CompactProfile = Profile{Name: "compact", Threshold: 50}
)

// Action maps bias and confidence to ENTER, EXIT or WAIT.
func (p Profile) Action(bias models.Bias, confidence, p50 float64) models.TimingAction {
	if confidence <= p.Threshold {
		return models.ActionWait
	}
	switch bias {
	case models.BiasBullish:
		if p.MagnitudeGate == 0 || p50 > p.MagnitudeGate {
			return models.ActionEnter
		}
	case models.BiasBearish:
		if p.MagnitudeGate == 0 || p50 < -p.MagnitudeGate {
			return models.ActionExit
		}
	}
	return models.ActionWait
}

// Profiles resolves profiles by name.
type Profiles map[string]Profile

// DefaultProfiles holds the built-in full and compact profiles.
func DefaultProfiles() Profiles {
	return Profiles{
		FullProfile.Name:    FullProfile,
		CompactProfile.Name: CompactProfile,
	}
}

// Get returns the named profile.
func (ps Profiles) Get(name string) (Profile, error) {
	p, ok := ps[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown signal profile %q", name)
	}
	return p, nil
}
