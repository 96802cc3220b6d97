package client

import (
	"log/slog"
	"sort"

	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/model"
)

// Deriver keeps client group aggregates consistent with member zones.
//
// The wire reports a group mute, source or volume command only at group
// level. The Deriver fans each command out to the member zones, then
// recomputes the group aggregates:
//
//	mute    = every member muted
//	volume  = floor(mean member volume), VolumeMin when empty
//	sources = distinct member sources; more than one means split
//
// Zone changes observed outside a fan-out and outside a refresh re-derive
// every group containing the zone. The deriving flag breaks the cycle
// between the two directions.
type Deriver struct {
	model      *model.Model
	zones      *Zones
	groups     *Groups
	refreshing func() bool
	logger     *slog.Logger

	deriving bool
	steps    int
}

// Deriving reports whether a group command is being fanned out.
func (d *Deriver) Deriving() bool { return d.deriving }

// Steps returns the number of zone and group applications made by the
// most recent group command.
func (d *Deriver) Steps() int { return d.steps }

// Observe reacts to one event from the controllers.
func (d *Deriver) Observe(e event.Event) error {
	switch e := e.(type) {
	case event.GroupSetMute:
		return d.command(e.Group, false, func(zone model.ZoneID) error {
			_, err := d.zones.HandleMuteChange(zone, e.Mute)
			return err
		})
	case event.GroupSetSource:
		return d.command(e.Group, false, func(zone model.ZoneID) error {
			_, err := d.zones.HandleSourceChange(zone, e.Source)
			return err
		})
	case event.GroupSetVolume:
		return d.command(e.Group, true, func(zone model.ZoneID) error {
			_, err := d.zones.HandleVolumeChange(zone, e.Volume)
			return err
		})
	case event.GroupIncreaseVolume:
		return d.command(e.Group, true, d.stepVolume(+1))
	case event.GroupDecreaseVolume:
		return d.command(e.Group, true, d.stepVolume(-1))

	case event.ZoneMute:
		return d.zoneChanged(e.Zone)
	case event.ZoneSource:
		return d.zoneChanged(e.Zone)
	case event.ZoneVolume:
		return d.zoneChanged(e.Zone)

	case event.GroupZoneAdded:
		return d.membershipChanged(e.Group)
	case event.GroupZoneRemoved:
		return d.membershipChanged(e.Group)

	case event.RefreshComplete:
		if d.refreshing() {
			return nil
		}
		return d.DeriveAll()
	}
	return nil
}

func (d *Deriver) stepVolume(delta int) func(model.ZoneID) error {
	return func(id model.ZoneID) error {
		zone, err := d.model.Zone(id)
		if err != nil {
			return err
		}
		level := model.Clamp(zone.Volume+delta, model.VolumeMin, model.VolumeMax)
		_, err = d.zones.HandleVolumeChange(id, level)
		return err
	}
}

// command fans apply out to the members of group id and re-derives the
// groups touched. Volume commands unmute first: the group-level unmute is
// published before any zone event, and each zone is unmuted before its
// volume changes.
func (d *Deriver) command(id model.GroupID, unmute bool, apply func(model.ZoneID) error) error {
	group, err := d.model.Group(id)
	if err != nil {
		return err
	}

	d.deriving = true
	d.steps = 0
	defer func() { d.deriving = false }()

	if unmute && group.Mute {
		if _, err := d.groups.setMute(group, false); err != nil {
			return err
		}
	}

	members := append([]model.ZoneID(nil), group.Members...)
	for _, zone := range members {
		if unmute {
			if _, err := d.zones.HandleMuteChange(zone, false); err != nil {
				return err
			}
		}
		if err := apply(zone); err != nil {
			return err
		}
		d.steps++
	}

	if err := d.Derive(id); err != nil {
		return err
	}
	d.steps++

	// Zones shared with other groups changed under the guard.
	for _, other := range d.overlapping(id, members) {
		if err := d.Derive(other); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deriver) overlapping(id model.GroupID, members []model.ZoneID) []model.GroupID {
	set := make(map[model.GroupID]bool)
	for _, zone := range members {
		for _, g := range d.model.GroupsContaining(zone) {
			if g != id {
				set[g] = true
			}
		}
	}
	out := make([]model.GroupID, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (d *Deriver) zoneChanged(zone model.ZoneID) error {
	if d.deriving || d.refreshing() {
		return nil
	}
	for _, g := range d.model.GroupsContaining(zone) {
		if err := d.Derive(g); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deriver) membershipChanged(id model.GroupID) error {
	if d.deriving || d.refreshing() {
		return nil
	}
	return d.Derive(id)
}

// Derive recomputes the aggregates of group id and publishes a group event
// for each aggregate that changed, mute first, then source, then volume.
func (d *Deriver) Derive(id model.GroupID) error {
	group, err := d.model.Group(id)
	if err != nil {
		return err
	}
	agg, err := d.model.Aggregate(group.Members)
	if err != nil {
		return err
	}
	if _, err := d.groups.setMute(group, agg.Mute); err != nil {
		return err
	}
	if _, err := d.groups.setSources(group, agg.Sources); err != nil {
		return err
	}
	_, err = d.groups.setVolume(group, agg.Volume)
	return err
}

// DeriveAll re-derives every group.
func (d *Deriver) DeriveAll() error {
	for _, g := range d.model.Groups() {
		if err := d.Derive(g.ID); err != nil {
			return err
		}
	}
	return nil
}
