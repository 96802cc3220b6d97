package server

import (
	"slices"

	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// Groups answers group requests. Mute, source and volume commands are
// applied to the member zones and acknowledged with the group frame only.
// The group's own mute, volume and sources always equal the aggregate of
// its members, so a command to an empty group is acknowledged without
// effect.
type Groups struct {
	base
}

func (g *Groups) register(t *dispatch.Table) {
	t.Register(grammar.GroupQuery, g.onQuery)
	on(t, grammar.GroupName, g.setName)
	on(t, grammar.GroupMute, func(e event.GroupMute) error { return g.setMute(e.Group, e.Mute) })
	t.Register(grammar.GroupMuteToggle, g.onMuteToggle)
	on(t, grammar.GroupSource, g.setSource)
	on(t, grammar.GroupVolume, g.setVolume)
	t.Register(grammar.GroupVolumeAdjust, g.onVolumeAdjust)
	on(t, grammar.GroupZoneAdd, g.addZone)
	on(t, grammar.GroupZoneRemove, g.removeZone)
}

func (g *Groups) setName(e event.GroupName) error {
	group, err := g.model.Group(e.Group)
	if err != nil {
		return err
	}
	status, err := group.SetName(e.Name)
	return g.change(status, err, e)
}

// members runs fn on each member zone, publishing the zone events it
// returns, then re-derives the group and publishes what changed.
func (g *Groups) members(group *model.Group, fn func(*model.Zone) []event.Event) error {
	before := aggregateOf(group)
	r := g.reply()
	for _, id := range group.Members {
		zone, err := g.model.Zone(id)
		if err != nil {
			return err
		}
		r.Publish(fn(zone)...)
	}
	if err := g.settle(group, before); err != nil {
		return err
	}
	// Overlapping groups follow their shared zones.
	for _, id := range group.Members {
		g.zoneChanged(id)
	}
	return nil
}

func (g *Groups) setMute(id model.GroupID, mute bool) error {
	group, err := g.model.Group(id)
	if err != nil {
		return err
	}
	err = g.members(group, func(zone *model.Zone) []event.Event {
		return changed(zone.SetMute(mute))(event.ZoneMute{Zone: zone.ID, Mute: mute})
	})
	if err != nil {
		return err
	}
	g.reply().Broadcast(grammar.GroupMute.Format(grammar.MuteToken(mute), int(id)))
	return nil
}

func (g *Groups) onMuteToggle(c grammar.Captures) error {
	id, err := groupAt(c, 0)
	if err != nil {
		return err
	}
	group, err := g.model.Group(id)
	if err != nil {
		return err
	}
	return g.setMute(id, !group.Mute)
}

func (g *Groups) setSource(e event.GroupSource) error {
	group, err := g.model.Group(e.Group)
	if err != nil {
		return err
	}
	source := e.Sources[0]
	err = g.members(group, func(zone *model.Zone) []event.Event {
		return changed(zone.SetSource(source))(event.ZoneSource{Zone: zone.ID, Source: source})
	})
	if err != nil {
		return err
	}
	g.reply().Broadcast(grammar.GroupSource.Format(int(e.Group), int(source)))
	return nil
}

// volume sets every member to level(zone), unmuting it first.
func (g *Groups) volume(group *model.Group, level func(*model.Zone) int) error {
	return g.members(group, func(zone *model.Zone) []event.Event {
		out := changed(zone.SetMute(false))(event.ZoneMute{Zone: zone.ID, Mute: false})
		v := level(zone)
		return append(out, changed(zone.SetVolume(v))(event.ZoneVolume{Zone: zone.ID, Volume: v})...)
	})
}

func (g *Groups) setVolume(e event.GroupVolume) error {
	group, err := g.model.Group(e.Group)
	if err != nil {
		return err
	}
	if err := g.volume(group, func(*model.Zone) int { return e.Volume }); err != nil {
		return err
	}
	g.reply().Broadcast(grammar.GroupVolume.Format(int(e.Group), e.Volume))
	return nil
}

func (g *Groups) onVolumeAdjust(c grammar.Captures) error {
	id, err := groupAt(c, 1)
	if err != nil {
		return err
	}
	group, err := g.model.Group(id)
	if err != nil {
		return err
	}
	delta := step(c[0])
	err = g.volume(group, func(zone *model.Zone) int {
		return model.Clamp(zone.Volume+delta, model.VolumeMin, model.VolumeMax)
	})
	if err != nil {
		return err
	}
	g.reply().Broadcast(grammar.GroupVolumeAdjust.Format(c[0], int(id)))
	return nil
}

func (g *Groups) addZone(e event.GroupZoneAdded) error {
	return g.membership(e.Group, e, func(group *model.Group) (model.Status, error) { return group.AddMember(e.Zone) })
}

func (g *Groups) removeZone(e event.GroupZoneRemoved) error {
	return g.membership(e.Group, e, func(group *model.Group) (model.Status, error) { return group.RemoveMember(e.Zone) })
}

func (g *Groups) membership(id model.GroupID, e event.Event, set func(*model.Group) (model.Status, error)) error {
	group, err := g.model.Group(id)
	if err != nil {
		return err
	}
	before := aggregateOf(group)
	status, err := set(group)
	if err := g.change(status, err, e); err != nil {
		return err
	}
	return g.settle(group, before)
}

func (g *Groups) onQuery(c grammar.Captures) error {
	id, err := groupAt(c, 0)
	if err != nil {
		return err
	}
	group, err := g.model.Group(id)
	if err != nil {
		return err
	}
	r := g.reply()
	for _, e := range groupState(group) {
		r.state(e)
	}
	r.Respond(grammar.GroupQuery.Format(int(id)))
	return nil
}

// zoneChanged re-derives every group containing zone.
func (g *Groups) zoneChanged(zone model.ZoneID) {
	for _, id := range g.model.GroupsContaining(zone) {
		group, err := g.model.Group(id)
		if err != nil {
			continue
		}
		if err := g.settle(group, aggregateOf(group)); err != nil {
			g.logger.Error("Group derivation failed", "group", int(id), "error", err)
		}
	}
}

// settle recomputes group from its members and publishes the group
// properties that differ from before.
func (g *Groups) settle(group *model.Group, before model.Aggregate) error {
	agg, err := g.model.Aggregate(group.Members)
	if err != nil {
		return err
	}
	if _, err := group.SetVolume(agg.Volume); err != nil {
		return err
	}
	if _, err := group.SetSources(agg.Sources); err != nil {
		return err
	}
	_, _ = group.SetMute(agg.Mute)

	r := g.reply()
	if group.Mute != before.Mute {
		r.Publish(event.GroupMute{Group: group.ID, Mute: group.Mute})
	}
	if !slices.Equal(group.Sources, before.Sources) {
		r.Publish(event.GroupSource{Group: group.ID, Sources: slices.Clone(group.Sources)})
	}
	if group.Volume != before.Volume {
		r.Publish(event.GroupVolume{Group: group.ID, Volume: group.Volume})
	}
	return nil
}

func (g *Groups) state() []event.Event {
	var out []event.Event
	for _, group := range g.model.Groups() {
		out = append(out, groupState(group)...)
	}
	return out
}

// groupState lists a group's name and members in query order.
func groupState(group *model.Group) []event.Event {
	out := []event.Event{event.GroupName{Group: group.ID, Name: group.Name}}
	for _, zone := range group.Members {
		out = append(out, event.GroupZoneAdded{Group: group.ID, Zone: zone})
	}
	return out
}

func aggregateOf(group *model.Group) model.Aggregate {
	return model.Aggregate{Mute: group.Mute, Volume: group.Volume, Sources: slices.Clone(group.Sources)}
}

// changed returns a function yielding e when status is Applied.
func changed(status model.Status, _ error) func(event.Event) []event.Event {
	return func(e event.Event) []event.Event {
		if status.Changed() {
			return []event.Event{e}
		}
		return nil
	}
}
