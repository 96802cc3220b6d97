package model

import (
	"fmt"
	"sort"
)

// Group is a named set of zones operated together.
//
// Mute, Volume and Sources are the aggregate of the member zones, kept
// current by whoever mutates the zones. Sources holds several sources
// when the group is split.
type Group struct {
	ID      GroupID    `json:"id"`
	Name    string     `json:"name"`
	Mute    bool       `json:"mute"`
	Volume  int        `json:"volume"`
	Sources []SourceID `json:"sources"`
	Members []ZoneID   `json:"members"`
}

// NewGroup returns an empty group.
func NewGroup(id GroupID) *Group {
	return &Group{
		ID:     id,
		Name:   fmt.Sprintf("Group %d", id),
		Volume: VolumeMin,
	}
}

// SetName sets the group name.
func (g *Group) SetName(name string) (Status, error) {
	if err := ValidateName(name); err != nil {
		return Invalid, err
	}
	return set(&g.Name, name), nil
}

// SetMute sets the group mute.
func (g *Group) SetMute(mute bool) (Status, error) {
	return set(&g.Mute, mute), nil
}

// SetVolume sets the group volume.
func (g *Group) SetVolume(level int) (Status, error) {
	if err := ValidateVolume(level); err != nil {
		return Invalid, err
	}
	return set(&g.Volume, level), nil
}

// SetSource sets a single group source.
func (g *Group) SetSource(source SourceID) (Status, error) {
	if err := source.Validate(); err != nil {
		return Invalid, err
	}
	return g.SetSources([]SourceID{source})
}

// SetSources replaces the source set. Order and duplicates in sources do
// not matter.
func (g *Group) SetSources(sources []SourceID) (Status, error) {
	normalized := make([]SourceID, 0, len(sources))
	seen := make(map[SourceID]bool, len(sources))
	for _, s := range sources {
		if err := s.Validate(); err != nil {
			return Invalid, err
		}
		if !seen[s] {
			seen[s] = true
			normalized = append(normalized, s)
		}
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i] < normalized[j] })

	if equalSources(g.Sources, normalized) {
		return AlreadySet, nil
	}
	g.Sources = normalized
	return Applied, nil
}

// Source returns the group's single source. ok is false when the group
// has no source or is split.
func (g *Group) Source() (source SourceID, ok bool) {
	if len(g.Sources) != 1 {
		return 0, false
	}
	return g.Sources[0], true
}

// Split reports whether members are on more than one source.
func (g *Group) Split() bool { return len(g.Sources) > 1 }

// HasMember reports whether zone belongs to the group.
func (g *Group) HasMember(zone ZoneID) bool {
	i := sort.Search(len(g.Members), func(i int) bool { return g.Members[i] >= zone })
	return i < len(g.Members) && g.Members[i] == zone
}

// AddMember adds zone to the group.
func (g *Group) AddMember(zone ZoneID) (Status, error) {
	if err := zone.Validate(); err != nil {
		return Invalid, err
	}
	i := sort.Search(len(g.Members), func(i int) bool { return g.Members[i] >= zone })
	if i < len(g.Members) && g.Members[i] == zone {
		return AlreadySet, nil
	}
	g.Members = append(g.Members, 0)
	copy(g.Members[i+1:], g.Members[i:])
	g.Members[i] = zone
	return Applied, nil
}

// RemoveMember removes zone from the group.
func (g *Group) RemoveMember(zone ZoneID) (Status, error) {
	if err := zone.Validate(); err != nil {
		return Invalid, err
	}
	i := sort.Search(len(g.Members), func(i int) bool { return g.Members[i] >= zone })
	if i >= len(g.Members) || g.Members[i] != zone {
		return AlreadySet, nil
	}
	g.Members = append(g.Members[:i], g.Members[i+1:]...)
	return Applied, nil
}

func equalSources(a, b []SourceID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (g *Group) clone() Group {
	c := *g
	c.Sources = append([]SourceID(nil), g.Sources...)
	c.Members = append([]ZoneID(nil), g.Members...)
	return c
}
