package model

import "fmt"

// Tone is a zone's bass and treble pair.
type Tone struct {
	Bass   int `json:"bass"`
	Treble int `json:"treble"`
}

// Crossover holds a zone's highpass and lowpass frequencies in Hz.
type Crossover struct {
	Highpass int `json:"highpass"`
	Lowpass  int `json:"lowpass"`
}

// Zone is one audio output region.
type Zone struct {
	ID              ZoneID                 `json:"id"`
	Name            string                 `json:"name"`
	Mute            bool                   `json:"mute"`
	Volume          int                    `json:"volume"`
	VolumeFixed     bool                   `json:"volume_fixed"`
	Balance         int                    `json:"balance"`
	Source          SourceID               `json:"source"`
	SoundMode       SoundMode              `json:"sound_mode"`
	Tone            Tone                   `json:"tone"`
	EqualizerBands  [MaxEqualizerBands]int `json:"equalizer_bands"`
	EqualizerPreset PresetID               `json:"equalizer_preset"`
	Crossover       Crossover              `json:"crossover"`
}

// Default zone settings.
const (
	DefaultZoneVolume = -40
	DefaultHighpass   = CrossoverMin
	DefaultLowpass    = CrossoverMax
)

// NewZone returns a zone with default settings.
func NewZone(id ZoneID) *Zone {
	return &Zone{
		ID:              id,
		Name:            fmt.Sprintf("Zone %d", id),
		Volume:          DefaultZoneVolume,
		Source:          1,
		EqualizerPreset: 1,
		Crossover:       Crossover{Highpass: DefaultHighpass, Lowpass: DefaultLowpass},
	}
}

// SetName sets the zone name.
func (z *Zone) SetName(name string) (Status, error) {
	if err := ValidateName(name); err != nil {
		return Invalid, err
	}
	return set(&z.Name, name), nil
}

// SetMute sets the mute flag.
func (z *Zone) SetMute(mute bool) (Status, error) {
	return set(&z.Mute, mute), nil
}

// SetVolume sets the volume level.
func (z *Zone) SetVolume(level int) (Status, error) {
	if err := ValidateVolume(level); err != nil {
		return Invalid, err
	}
	return set(&z.Volume, level), nil
}

// SetVolumeFixed sets the volume lock.
func (z *Zone) SetVolumeFixed(fixed bool) (Status, error) {
	return set(&z.VolumeFixed, fixed), nil
}

// SetBalance sets the signed balance, negative toward left.
func (z *Zone) SetBalance(balance int) (Status, error) {
	if err := ValidateBalance(balance); err != nil {
		return Invalid, err
	}
	return set(&z.Balance, balance), nil
}

// SetSource selects the zone's source.
func (z *Zone) SetSource(source SourceID) (Status, error) {
	if err := source.Validate(); err != nil {
		return Invalid, err
	}
	return set(&z.Source, source), nil
}

// SetSoundMode selects the equalizer path.
func (z *Zone) SetSoundMode(mode SoundMode) (Status, error) {
	if err := mode.Validate(); err != nil {
		return Invalid, err
	}
	return set(&z.SoundMode, mode), nil
}

// SetTone sets bass and treble together.
func (z *Zone) SetTone(bass, treble int) (Status, error) {
	if err := ValidateTone(bass); err != nil {
		return Invalid, err
	}
	if err := ValidateTone(treble); err != nil {
		return Invalid, err
	}
	return set(&z.Tone, Tone{Bass: bass, Treble: treble}), nil
}

// SetEqualizerBand sets one band of the zone equalizer.
func (z *Zone) SetEqualizerBand(band BandID, level int) (Status, error) {
	if err := band.Validate(); err != nil {
		return Invalid, err
	}
	if err := ValidateEqualizerLevel(level); err != nil {
		return Invalid, err
	}
	return set(&z.EqualizerBands[band-1], level), nil
}

// EqualizerBand returns the level of band.
func (z *Zone) EqualizerBand(band BandID) (int, error) {
	if err := band.Validate(); err != nil {
		return 0, err
	}
	return z.EqualizerBands[band-1], nil
}

// SetEqualizerPreset selects the preset used in preset sound mode.
func (z *Zone) SetEqualizerPreset(preset PresetID) (Status, error) {
	if err := preset.Validate(); err != nil {
		return Invalid, err
	}
	return set(&z.EqualizerPreset, preset), nil
}

// SetHighpass sets the highpass crossover frequency.
func (z *Zone) SetHighpass(hz int) (Status, error) {
	if err := ValidateCrossover(hz); err != nil {
		return Invalid, err
	}
	return set(&z.Crossover.Highpass, hz), nil
}

// SetLowpass sets the lowpass crossover frequency.
func (z *Zone) SetLowpass(hz int) (Status, error) {
	if err := ValidateCrossover(hz); err != nil {
		return Invalid, err
	}
	return set(&z.Crossover.Lowpass, hz), nil
}
