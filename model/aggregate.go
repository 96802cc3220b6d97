package model

import "sort"

// Aggregate is the group state implied by its member zones.
type Aggregate struct {
	Mute    bool
	Volume  int
	Sources []SourceID
}

// Aggregate computes the state of a group with the given members:
// muted when every member is muted, the floor of the mean member volume,
// and the sorted distinct member sources. An empty group is unmuted at
// VolumeMin with no sources.
func (m *Model) Aggregate(members []ZoneID) (Aggregate, error) {
	if len(members) == 0 {
		return Aggregate{Volume: VolumeMin, Sources: []SourceID{}}, nil
	}
	agg := Aggregate{Mute: true}
	sum := 0
	seen := make(map[SourceID]bool)
	for _, id := range members {
		zone, err := m.Zone(id)
		if err != nil {
			return Aggregate{}, err
		}
		agg.Mute = agg.Mute && zone.Mute
		sum += zone.Volume
		if !seen[zone.Source] {
			seen[zone.Source] = true
			agg.Sources = append(agg.Sources, zone.Source)
		}
	}
	sort.Slice(agg.Sources, func(i, j int) bool { return agg.Sources[i] < agg.Sources[j] })
	agg.Volume = floorDiv(sum, len(members))
	return agg, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
