package model

import "github.com/c360/hlxmatrix/errors"

// ZoneID identifies a zone, 1..MaxZones.
type ZoneID int

// GroupID identifies a group, 1..MaxGroups.
type GroupID int

// SourceID identifies a source, 1..MaxSources.
type SourceID int

// PresetID identifies an equalizer preset, 1..MaxEqualizerPresets.
type PresetID int

// BandID identifies an equalizer band, 1..MaxEqualizerBands.
type BandID int

// FavoriteID identifies a favorite, 1..MaxFavorites.
type FavoriteID int

// Validate returns ErrRange when id is outside 1..MaxZones.
func (id ZoneID) Validate() error { return inRange("zone", int(id), 1, MaxZones) }

// Validate returns ErrRange when id is outside 1..MaxGroups.
func (id GroupID) Validate() error { return inRange("group", int(id), 1, MaxGroups) }

// Validate returns ErrRange when id is outside 1..MaxSources.
func (id SourceID) Validate() error { return inRange("source", int(id), 1, MaxSources) }

// Validate returns ErrRange when id is outside 1..MaxEqualizerPresets.
func (id PresetID) Validate() error {
	return inRange("equalizer preset", int(id), 1, MaxEqualizerPresets)
}

// Validate returns ErrRange when id is outside 1..MaxEqualizerBands.
func (id BandID) Validate() error { return inRange("equalizer band", int(id), 1, MaxEqualizerBands) }

// Validate returns ErrRange when id is outside 1..MaxFavorites.
func (id FavoriteID) Validate() error { return inRange("favorite", int(id), 1, MaxFavorites) }

// SoundMode selects a zone's equalizer path. The values are the wire digits.
type SoundMode int

const (
	SoundModeDisabled SoundMode = iota
	SoundModeZoneEqualizer
	SoundModePreset
	SoundModeTone
	SoundModeLowpass
	SoundModeHighpass
)

// Validate returns ErrRange for an unknown mode.
func (m SoundMode) Validate() error {
	return inRange("sound mode", int(m), int(SoundModeDisabled), int(SoundModeHighpass))
}

func (m SoundMode) String() string {
	switch m {
	case SoundModeDisabled:
		return "Disabled"
	case SoundModeZoneEqualizer:
		return "ZoneEqualizer"
	case SoundModePreset:
		return "Preset"
	case SoundModeTone:
		return "Tone"
	case SoundModeLowpass:
		return "Lowpass"
	case SoundModeHighpass:
		return "Highpass"
	default:
		return "Unknown"
	}
}

// BalanceFromWire normalizes a tagged wire balance. L is negative, R is
// positive and both L0 and R0 are zero.
func BalanceFromWire(channel string, magnitude int) (int, error) {
	if err := inRange("balance magnitude", magnitude, 0, BalanceMax); err != nil {
		return 0, err
	}
	switch channel {
	case "L":
		return -magnitude, nil
	case "R":
		return magnitude, nil
	}
	return 0, errors.WrapInvalid(errors.ErrInvalidArgument, "model", "BalanceFromWire", "channel "+channel)
}

// BalanceToWire renders a signed balance as channel and magnitude. Zero is
// rendered as L0.
func BalanceToWire(balance int) (string, int) {
	if balance > 0 {
		return "R", balance
	}
	return "L", -balance
}
