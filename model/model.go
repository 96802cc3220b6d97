package model

import (
	"fmt"

	"github.com/c360/hlxmatrix/errors"
)

// DefaultEUI48 is the address a fresh model reports.
const DefaultEUI48 = "00:50:C2:00:00:01"

// Model aggregates every entity of one matrix.
type Model struct {
	zones      []*Zone
	groups     []*Group
	presets    []*EqualizerPreset
	sources    []*Source
	favorites  []*Favorite
	FrontPanel FrontPanel
	Network    Network
	Infrared   Infrared
}

// New returns a model with every identifier populated with defaults.
func New() *Model {
	m := &Model{}
	m.reset()
	return m
}

// reset writes defaults in place so entity pointers stay valid.
func (m *Model) reset() {
	if m.zones == nil {
		m.zones = make([]*Zone, MaxZones)
		m.groups = make([]*Group, MaxGroups)
		m.presets = make([]*EqualizerPreset, MaxEqualizerPresets)
		m.sources = make([]*Source, MaxSources)
		m.favorites = make([]*Favorite, MaxFavorites)
		for i := range m.zones {
			m.zones[i] = &Zone{}
		}
		for i := range m.groups {
			m.groups[i] = &Group{}
		}
		for i := range m.presets {
			m.presets[i] = &EqualizerPreset{}
		}
		for i := range m.sources {
			m.sources[i] = &Source{}
		}
		for i := range m.favorites {
			m.favorites[i] = &Favorite{}
		}
	}

	for i, z := range m.zones {
		*z = *NewZone(ZoneID(i + 1))
	}
	for i, g := range m.groups {
		*g = *NewGroup(GroupID(i + 1))
	}
	for i, p := range m.presets {
		*p = EqualizerPreset{ID: PresetID(i + 1), Name: fmt.Sprintf("Preset %d", i+1)}
	}
	for i, s := range m.sources {
		*s = Source{ID: SourceID(i + 1), Name: fmt.Sprintf("Source %d", i+1)}
	}
	for i, f := range m.favorites {
		*f = Favorite{ID: FavoriteID(i + 1), Name: fmt.Sprintf("Favorite %d", i+1)}
	}
	m.FrontPanel = FrontPanel{Brightness: BrightnessMax}
	m.Network = Network{DHCPv4Enabled: true, SDDPEnabled: true, EUI48: DefaultEUI48}
	m.Infrared = Infrared{}
}

// Reset restores every entity to its defaults.
func (m *Model) Reset() { m.reset() }

// Zone returns the zone with the given id.
func (m *Model) Zone(id ZoneID) (*Zone, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return m.zones[id-1], nil
}

// Group returns the group with the given id.
func (m *Model) Group(id GroupID) (*Group, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return m.groups[id-1], nil
}

// EqualizerPreset returns the preset with the given id.
func (m *Model) EqualizerPreset(id PresetID) (*EqualizerPreset, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return m.presets[id-1], nil
}

// Source returns the source with the given id.
func (m *Model) Source(id SourceID) (*Source, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return m.sources[id-1], nil
}

// Favorite returns the favorite with the given id.
func (m *Model) Favorite(id FavoriteID) (*Favorite, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return m.favorites[id-1], nil
}

// Zones returns every zone in id order.
func (m *Model) Zones() []*Zone { return m.zones }

// Groups returns every group in id order.
func (m *Model) Groups() []*Group { return m.groups }

// EqualizerPresets returns every preset in id order.
func (m *Model) EqualizerPresets() []*EqualizerPreset { return m.presets }

// Sources returns every source in id order.
func (m *Model) Sources() []*Source { return m.sources }

// Favorites returns every favorite in id order.
func (m *Model) Favorites() []*Favorite { return m.favorites }

// GroupsContaining returns the groups zone belongs to, in id order.
func (m *Model) GroupsContaining(zone ZoneID) []GroupID {
	var out []GroupID
	for _, g := range m.groups {
		if g.HasMember(zone) {
			out = append(out, g.ID)
		}
	}
	return out
}

// ZoneByName returns the id of the first zone named name.
func (m *Model) ZoneByName(name string) (ZoneID, error) {
	for _, z := range m.zones {
		if z.Name == name {
			return z.ID, nil
		}
	}
	return 0, notFound("zone", name)
}

// GroupByName returns the id of the first group named name.
func (m *Model) GroupByName(name string) (GroupID, error) {
	for _, g := range m.groups {
		if g.Name == name {
			return g.ID, nil
		}
	}
	return 0, notFound("group", name)
}

// EqualizerPresetByName returns the id of the first preset named name.
func (m *Model) EqualizerPresetByName(name string) (PresetID, error) {
	for _, p := range m.presets {
		if p.Name == name {
			return p.ID, nil
		}
	}
	return 0, notFound("equalizer preset", name)
}

// SourceByName returns the id of the first source named name.
func (m *Model) SourceByName(name string) (SourceID, error) {
	for _, s := range m.sources {
		if s.Name == name {
			return s.ID, nil
		}
	}
	return 0, notFound("source", name)
}

// FavoriteByName returns the id of the first favorite named name.
func (m *Model) FavoriteByName(name string) (FavoriteID, error) {
	for _, f := range m.favorites {
		if f.Name == name {
			return f.ID, nil
		}
	}
	return 0, notFound("favorite", name)
}

func notFound(what, name string) error {
	return fmt.Errorf("%s named %q: %w", what, name, errors.ErrNotFound)
}
