package config

import (
	"fmt"
	"math"
)

type ProfileKind string

const (
	KindConst  ProfileKind = "const"
	KindStep   ProfileKind = "step"
	KindRamp   ProfileKind = "ramp"
	KindSine   ProfileKind = "sine"
	KindSquare ProfileKind = "square"
)

// Profile is an open-loop excitation signal evaluated per tick, environment
// and axis. Spread scales the amplitude by (1 + Spread*env) so that batch
// slots see distinct histories.
type Profile struct {
	Kind      ProfileKind `yaml:"kind"`
	Amplitude []float64   `yaml:"amplitude,flow"`
	Offset    []float64   `yaml:"offset,omitempty,flow"`
	Start     int         `yaml:"start,omitempty"`
	Frequency float64     `yaml:"frequency,omitempty"`
	Spread    float64     `yaml:"spread,omitempty"`
}

func (p Profile) Validate(dim int) error {
	switch p.Kind {
	case KindConst, KindStep, KindRamp, KindSine, KindSquare, "":
	default:
		return fmt.Errorf("%w: unknown profile kind %q", ErrInvalidScenario, p.Kind)
	}
	if len(p.Amplitude) != 0 && len(p.Amplitude) != dim {
		return fmt.Errorf("%w: amplitude has %d axes, want %d", ErrInvalidScenario, len(p.Amplitude), dim)
	}
	if len(p.Offset) != 0 && len(p.Offset) != dim {
		return fmt.Errorf("%w: offset has %d axes, want %d", ErrInvalidScenario, len(p.Offset), dim)
	}
	if (p.Kind == KindSine || p.Kind == KindSquare) && p.Frequency <= 0 {
		return fmt.Errorf("%w: %s profile needs a positive frequency", ErrInvalidScenario, p.Kind)
	}
	return nil
}

// Fill writes the profile value at the given tick into dst.
func (p Profile) Fill(dst []float64, tick, env int, dt float64) {
	t := float64(tick-p.Start) * dt
	for k := range dst {
		amp := at(p.Amplitude, k) * (1 + p.Spread*float64(env))
		dst[k] = at(p.Offset, k) + amp*p.shape(tick, t)
	}
}

func (p Profile) shape(tick int, t float64) float64 {
	switch p.Kind {
	case KindStep:
		if tick >= p.Start {
			return 1
		}
		return 0
	case KindRamp:
		return math.Max(0, t)
	case KindSine:
		return math.Sin(2 * math.Pi * p.Frequency * t)
	case KindSquare:
		if math.Sin(2*math.Pi*p.Frequency*t) >= 0 {
			return 1
		}
		return -1
	default:
		return 1
	}
}

func at(v []float64, k int) float64 {
	if k < len(v) {
		return v[k]
	}
	return 0
}
