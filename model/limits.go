package model

import (
	"fmt"

	"github.com/c360/hlxmatrix/errors"
)

// Identifier counts.
const (
	MaxZones            = 24
	MaxGroups           = 10
	MaxSources          = 8
	MaxEqualizerPresets = 10
	MaxEqualizerBands   = 10
	MaxFavorites        = 10
)

// Value limits.
const (
	MaxNameLength = 16

	VolumeMin = -80
	VolumeMax = 0

	BalanceMax = 80

	EqualizerLevelMin = -12
	EqualizerLevelMax = 12

	ToneMin = -12
	ToneMax = 12

	CrossoverMin = 20
	CrossoverMax = 20000

	BrightnessMin = 0
	BrightnessMax = 3
)

// Status is the result of a setter.
type Status int

const (
	// Invalid means the value was rejected; the setter also returns an error.
	Invalid Status = -1
	// Applied means the value was written.
	Applied Status = 0
	// AlreadySet means the value was already current and nothing changed.
	AlreadySet Status = 1
)

// OK reports whether s is Applied or AlreadySet.
func (s Status) OK() bool { return s >= 0 }

// Changed reports whether s is Applied.
func (s Status) Changed() bool { return s == Applied }

func (s Status) String() string {
	switch s {
	case Invalid:
		return "Invalid"
	case Applied:
		return "Applied"
	case AlreadySet:
		return "AlreadySet"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// set writes v to *field when it differs.
func set[T comparable](field *T, v T) Status {
	if *field == v {
		return AlreadySet
	}
	*field = v
	return Applied
}

func inRange(what string, v, lo, hi int) error {
	if v < lo || v > hi {
		return errors.Rangef(what, v, lo, hi)
	}
	return nil
}

// ValidateVolume checks a volume level.
func ValidateVolume(v int) error { return inRange("volume", v, VolumeMin, VolumeMax) }

// ValidateBalance checks a signed balance.
func ValidateBalance(v int) error { return inRange("balance", v, -BalanceMax, BalanceMax) }

// ValidateEqualizerLevel checks an equalizer band level.
func ValidateEqualizerLevel(v int) error {
	return inRange("equalizer level", v, EqualizerLevelMin, EqualizerLevelMax)
}

// ValidateTone checks a bass or treble level.
func ValidateTone(v int) error { return inRange("tone", v, ToneMin, ToneMax) }

// ValidateCrossover checks a crossover frequency in Hz.
func ValidateCrossover(hz int) error { return inRange("crossover", hz, CrossoverMin, CrossoverMax) }

// ValidateBrightness checks a front panel brightness.
func ValidateBrightness(v int) error { return inRange("brightness", v, BrightnessMin, BrightnessMax) }

// ValidateName checks a name: 1 to MaxNameLength printable ASCII bytes,
// none of them a quote or frame delimiter.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name: %w", errors.ErrInvalidArgument)
	}
	if len(name) > MaxNameLength {
		return errors.Rangef("name length", len(name), 1, MaxNameLength)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x20 || c > 0x7e {
			return fmt.Errorf("name byte %#x at %d not printable: %w", c, i, errors.ErrInvalidArgument)
		}
		switch c {
		case '"', '[', ']', '(', ')':
			return fmt.Errorf("name contains %q: %w", c, errors.ErrInvalidArgument)
		}
	}
	return nil
}

// Clamp saturates v into [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
