package model

import (
	"fmt"
	"sort"

	"github.com/c360/hlxmatrix/errors"
)

// Snapshot is a deep, JSON-serializable copy of a Model.
type Snapshot struct {
	Zones            []Zone            `json:"zones"`
	Groups           []Group           `json:"groups"`
	EqualizerPresets []EqualizerPreset `json:"equalizer_presets"`
	Sources          []Source          `json:"sources"`
	Favorites        []Favorite        `json:"favorites"`
	FrontPanel       FrontPanel        `json:"front_panel"`
	Network          Network           `json:"network"`
	Infrared         Infrared          `json:"infrared"`
}

// Snapshot copies the model. The copy shares no memory with m.
func (m *Model) Snapshot() Snapshot {
	s := Snapshot{
		Zones:            make([]Zone, len(m.zones)),
		Groups:           make([]Group, len(m.groups)),
		EqualizerPresets: make([]EqualizerPreset, len(m.presets)),
		Sources:          make([]Source, len(m.sources)),
		Favorites:        make([]Favorite, len(m.favorites)),
		FrontPanel:       m.FrontPanel,
		Network:          m.Network,
		Infrared:         m.Infrared,
	}
	for i, z := range m.zones {
		s.Zones[i] = *z
	}
	for i, g := range m.groups {
		s.Groups[i] = g.clone()
	}
	for i, p := range m.presets {
		s.EqualizerPresets[i] = *p
	}
	for i, src := range m.sources {
		s.Sources[i] = *src
	}
	for i, f := range m.favorites {
		s.Favorites[i] = *f
	}
	return s
}

// Restore replaces the model's state with s after validating it. On error
// the model is unchanged.
func (m *Model) Restore(s Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	for i := range s.Zones {
		*m.zones[i] = s.Zones[i]
	}
	for i := range s.Groups {
		g := s.Groups[i].clone()
		sort.Slice(g.Members, func(a, b int) bool { return g.Members[a] < g.Members[b] })
		*m.groups[i] = g
	}
	for i := range s.EqualizerPresets {
		*m.presets[i] = s.EqualizerPresets[i]
	}
	for i := range s.Sources {
		*m.sources[i] = s.Sources[i]
	}
	for i := range s.Favorites {
		*m.favorites[i] = s.Favorites[i]
	}
	m.FrontPanel = s.FrontPanel
	m.Network = s.Network
	m.Infrared = s.Infrared
	return nil
}

// Validate checks that s has one entry per identifier, in order, and that
// every value is within its limits.
func (s Snapshot) Validate() error {
	if err := count("zones", len(s.Zones), MaxZones); err != nil {
		return err
	}
	if err := count("groups", len(s.Groups), MaxGroups); err != nil {
		return err
	}
	if err := count("equalizer presets", len(s.EqualizerPresets), MaxEqualizerPresets); err != nil {
		return err
	}
	if err := count("sources", len(s.Sources), MaxSources); err != nil {
		return err
	}
	if err := count("favorites", len(s.Favorites), MaxFavorites); err != nil {
		return err
	}

	for i := range s.Zones {
		if err := validateZone(ZoneID(i+1), s.Zones[i]); err != nil {
			return err
		}
	}
	for i, g := range s.Groups {
		if g.ID != GroupID(i+1) {
			return fmt.Errorf("group %d at index %d: %w", g.ID, i, errors.ErrInvalidArgument)
		}
		if err := ValidateName(g.Name); err != nil {
			return err
		}
		if err := ValidateVolume(g.Volume); err != nil {
			return err
		}
		for _, z := range g.Members {
			if err := z.Validate(); err != nil {
				return err
			}
		}
		for _, src := range g.Sources {
			if err := src.Validate(); err != nil {
				return err
			}
		}
	}
	for i, p := range s.EqualizerPresets {
		if p.ID != PresetID(i+1) {
			return fmt.Errorf("equalizer preset %d at index %d: %w", p.ID, i, errors.ErrInvalidArgument)
		}
		if err := ValidateName(p.Name); err != nil {
			return err
		}
		for _, level := range p.Bands {
			if err := ValidateEqualizerLevel(level); err != nil {
				return err
			}
		}
	}
	for i, src := range s.Sources {
		if src.ID != SourceID(i+1) {
			return fmt.Errorf("source %d at index %d: %w", src.ID, i, errors.ErrInvalidArgument)
		}
		if err := ValidateName(src.Name); err != nil {
			return err
		}
	}
	for i, f := range s.Favorites {
		if f.ID != FavoriteID(i+1) {
			return fmt.Errorf("favorite %d at index %d: %w", f.ID, i, errors.ErrInvalidArgument)
		}
		if err := ValidateName(f.Name); err != nil {
			return err
		}
	}
	if err := ValidateBrightness(s.FrontPanel.Brightness); err != nil {
		return err
	}
	if _, err := NormalizeEUI48(s.Network.EUI48); err != nil {
		return err
	}
	return nil
}

func count(what string, got, want int) error {
	if got != want {
		return fmt.Errorf("snapshot has %d %s, want %d: %w", got, what, want, errors.ErrInvalidArgument)
	}
	return nil
}

func validateZone(id ZoneID, z Zone) error {
	if z.ID != id {
		return fmt.Errorf("zone %d at position %d: %w", z.ID, id, errors.ErrInvalidArgument)
	}
	if err := ValidateName(z.Name); err != nil {
		return err
	}
	if err := ValidateVolume(z.Volume); err != nil {
		return err
	}
	if err := ValidateBalance(z.Balance); err != nil {
		return err
	}
	if err := z.Source.Validate(); err != nil {
		return err
	}
	if err := z.SoundMode.Validate(); err != nil {
		return err
	}
	if err := ValidateTone(z.Tone.Bass); err != nil {
		return err
	}
	if err := ValidateTone(z.Tone.Treble); err != nil {
		return err
	}
	for _, level := range z.EqualizerBands {
		if err := ValidateEqualizerLevel(level); err != nil {
			return err
		}
	}
	if err := z.EqualizerPreset.Validate(); err != nil {
		return err
	}
	if err := ValidateCrossover(z.Crossover.Highpass); err != nil {
		return err
	}
	return ValidateCrossover(z.Crossover.Lowpass)
}
