package client

import (
	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// Groups mirrors group names and membership. Group mute, source and volume
// frames from the server are commands for the member zones; they are
// published as internal events for the Deriver, which keeps the group
// aggregates.
type Groups struct {
	base

	// seen holds one member set per group query in flight. Every set of a
	// group records each member reported until its own query ends.
	seen map[model.GroupID][]*memberSet
}

type memberSet struct {
	zones map[model.ZoneID]bool
}

// Max returns the number of groups.
func (g *Groups) Max() int { return model.MaxGroups }

// Get returns the group with the given id.
func (g *Groups) Get(id model.GroupID) (*model.Group, error) { return g.model.Group(id) }

// LookupByName returns the id of the group named name.
func (g *Groups) LookupByName(name string) (model.GroupID, error) { return g.model.GroupByName(name) }

// Query asks the server for a group's name and members. Members the reply
// does not list are removed when the query completes.
func (g *Groups) Query(id model.GroupID) (*exchange.Handle, error) { return g.query(id, nil) }

func (g *Groups) query(id model.GroupID, after func(error)) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	set := &memberSet{zones: make(map[model.ZoneID]bool)}
	g.seen[id] = append(g.seen[id], set)
	h, err := g.send(grammar.GroupQuery.Format(int(id)), grammar.GroupQuery, acceptAt(0, int(id)),
		func(grammar.Captures) error { return g.reconcileMembers(id, set) },
		func(err error) {
			g.forget(id, set)
			if after != nil {
				after(err)
			}
		})
	if err != nil {
		g.forget(id, set)
	}
	return h, err
}

// forget drops one query's member set.
func (g *Groups) forget(id model.GroupID, set *memberSet) {
	sets := g.seen[id]
	for i, s := range sets {
		if s == set {
			sets = append(sets[:i], sets[i+1:]...)
			break
		}
	}
	if len(sets) == 0 {
		delete(g.seen, id)
		return
	}
	g.seen[id] = sets
}

// Refresh queries every group and publishes RefreshComplete once all
// queries completed.
func (g *Groups) Refresh() error { return g.refreshThen(nil) }

func (g *Groups) refreshThen(after func(error)) error {
	return g.runRefresh(model.MaxGroups, func(i int, done func(error)) error {
		_, err := g.query(model.GroupID(i), done)
		return err
	}, after)
}

// SetName renames a group.
func (g *Groups) SetName(id model.GroupID, name string) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateName(name); err != nil {
		return nil, err
	}
	return g.send(grammar.GroupName.Format(int(id), name), grammar.GroupName, acceptAt(0, int(id)),
		handler(grammar.GroupName, g.applyName), nil)
}

// SetMute mutes or unmutes every zone of a group.
func (g *Groups) SetMute(id model.GroupID, mute bool) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return g.send(grammar.GroupMute.Format(grammar.MuteToken(mute), int(id)), grammar.GroupMute, acceptAt(1, int(id)),
		handler(grammar.GroupMute, g.applyMute), nil)
}

// ToggleMute flips a group's mute. The server answers with the resulting
// state.
func (g *Groups) ToggleMute(id model.GroupID) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return g.send(grammar.GroupMuteToggle.Format(int(id)), grammar.GroupMute, acceptAt(1, int(id)),
		handler(grammar.GroupMute, g.applyMute), nil)
}

// SetSource selects source on every zone of a group.
func (g *Groups) SetSource(id model.GroupID, source model.SourceID) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := source.Validate(); err != nil {
		return nil, err
	}
	return g.send(grammar.GroupSource.Format(int(id), int(source)), grammar.GroupSource, acceptAt(0, int(id)),
		handler(grammar.GroupSource, g.applySource), nil)
}

// SetVolume sets the volume of every zone of a group.
func (g *Groups) SetVolume(id model.GroupID, level int) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateVolume(level); err != nil {
		return nil, err
	}
	return g.send(grammar.GroupVolume.Format(int(id), level), grammar.GroupVolume, acceptAt(0, int(id)),
		handler(grammar.GroupVolume, g.applyVolume), nil)
}

// IncreaseVolume raises every zone of a group one step.
func (g *Groups) IncreaseVolume(id model.GroupID) (*exchange.Handle, error) {
	return g.adjustVolume(id, grammar.TokenUp)
}

// DecreaseVolume lowers every zone of a group one step.
func (g *Groups) DecreaseVolume(id model.GroupID) (*exchange.Handle, error) {
	return g.adjustVolume(id, grammar.TokenDown)
}

func (g *Groups) adjustVolume(id model.GroupID, direction string) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return g.send(grammar.GroupVolumeAdjust.Format(direction, int(id)), grammar.GroupVolumeAdjust, acceptAt(1, int(id)),
		g.onVolumeAdjust, nil)
}

// AddZone adds a zone to a group.
func (g *Groups) AddZone(id model.GroupID, zone model.ZoneID) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := zone.Validate(); err != nil {
		return nil, err
	}
	return g.send(grammar.GroupZoneAdd.Format(int(id), int(zone)), grammar.GroupZoneAdd, acceptPair(int(id), int(zone)),
		handler(grammar.GroupZoneAdd, g.applyZoneAdded), nil)
}

// RemoveZone removes a zone from a group.
func (g *Groups) RemoveZone(id model.GroupID, zone model.ZoneID) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := zone.Validate(); err != nil {
		return nil, err
	}
	return g.send(grammar.GroupZoneRemove.Format(int(id), int(zone)), grammar.GroupZoneRemove, acceptPair(int(id), int(zone)),
		handler(grammar.GroupZoneRemove, g.applyZoneRemoved), nil)
}

func acceptPair(group, zone int) func(grammar.Captures) bool {
	first, second := acceptAt(0, group), acceptAt(1, zone)
	return func(c grammar.Captures) bool { return first(c) && second(c) }
}

// HandleNameChange applies an observed group name.
func (g *Groups) HandleNameChange(id model.GroupID, name string) (model.Status, error) {
	group, err := g.model.Group(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := group.SetName(name)
	return g.publish(status, err, event.GroupName{Group: id, Name: name})
}

// HandleMuteChange forwards an observed group mute command to the Deriver.
func (g *Groups) HandleMuteChange(id model.GroupID, mute bool) (model.Status, error) {
	return g.command(id, event.GroupSetMute{Group: id, Mute: mute})
}

// HandleSourceChange forwards an observed group source command.
func (g *Groups) HandleSourceChange(id model.GroupID, source model.SourceID) (model.Status, error) {
	if err := source.Validate(); err != nil {
		return model.Invalid, err
	}
	return g.command(id, event.GroupSetSource{Group: id, Source: source})
}

// HandleVolumeChange forwards an observed group volume command.
func (g *Groups) HandleVolumeChange(id model.GroupID, level int) (model.Status, error) {
	if err := model.ValidateVolume(level); err != nil {
		return model.Invalid, err
	}
	return g.command(id, event.GroupSetVolume{Group: id, Volume: level})
}

// HandleIncreaseVolume forwards an observed group volume step up.
func (g *Groups) HandleIncreaseVolume(id model.GroupID) (model.Status, error) {
	return g.command(id, event.GroupIncreaseVolume{Group: id})
}

// HandleDecreaseVolume forwards an observed group volume step down.
func (g *Groups) HandleDecreaseVolume(id model.GroupID) (model.Status, error) {
	return g.command(id, event.GroupDecreaseVolume{Group: id})
}

func (g *Groups) command(id model.GroupID, e event.Event) (model.Status, error) {
	if err := id.Validate(); err != nil {
		return model.Invalid, err
	}
	g.bus.Publish(e)
	return model.Applied, nil
}

// HandleZoneAdded applies an observed membership addition.
func (g *Groups) HandleZoneAdded(id model.GroupID, zone model.ZoneID) (model.Status, error) {
	group, err := g.model.Group(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := group.AddMember(zone)
	if err == nil {
		for _, set := range g.seen[id] {
			set.zones[zone] = true
		}
	}
	return g.publish(status, err, event.GroupZoneAdded{Group: id, Zone: zone})
}

// HandleZoneRemoved applies an observed membership removal.
func (g *Groups) HandleZoneRemoved(id model.GroupID, zone model.ZoneID) (model.Status, error) {
	group, err := g.model.Group(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := group.RemoveMember(zone)
	return g.publish(status, err, event.GroupZoneRemoved{Group: id, Zone: zone})
}

// reconcileMembers drops members the finished query did not report.
func (g *Groups) reconcileMembers(id model.GroupID, seen *memberSet) error {
	group, err := g.model.Group(id)
	if err != nil {
		return err
	}
	stale := make([]model.ZoneID, 0)
	for _, zone := range group.Members {
		if !seen.zones[zone] {
			stale = append(stale, zone)
		}
	}
	for _, zone := range stale {
		if _, err := g.HandleZoneRemoved(id, zone); err != nil {
			return err
		}
	}
	return nil
}

// setMute, setSources and setVolume write derived aggregates.
func (g *Groups) setMute(group *model.Group, mute bool) (model.Status, error) {
	status, err := group.SetMute(mute)
	return g.publish(status, err, event.GroupMute{Group: group.ID, Mute: mute})
}

func (g *Groups) setSources(group *model.Group, sources []model.SourceID) (model.Status, error) {
	status, err := group.SetSources(sources)
	if err != nil {
		return model.Invalid, err
	}
	snapshot := make([]model.SourceID, len(group.Sources))
	copy(snapshot, group.Sources)
	return g.publish(status, nil, event.GroupSource{Group: group.ID, Sources: snapshot})
}

func (g *Groups) setVolume(group *model.Group, level int) (model.Status, error) {
	status, err := group.SetVolume(level)
	return g.publish(status, err, event.GroupVolume{Group: group.ID, Volume: level})
}

func (g *Groups) applyName(e event.GroupName) error {
	_, err := g.HandleNameChange(e.Group, e.Name)
	return err
}

func (g *Groups) applyMute(e event.GroupMute) error {
	_, err := g.HandleMuteChange(e.Group, e.Mute)
	return err
}

func (g *Groups) applySource(e event.GroupSource) error {
	_, err := g.HandleSourceChange(e.Group, e.Sources[0])
	return err
}

func (g *Groups) applyVolume(e event.GroupVolume) error {
	_, err := g.HandleVolumeChange(e.Group, e.Volume)
	return err
}

func (g *Groups) applyZoneAdded(e event.GroupZoneAdded) error {
	_, err := g.HandleZoneAdded(e.Group, e.Zone)
	return err
}

func (g *Groups) applyZoneRemoved(e event.GroupZoneRemoved) error {
	_, err := g.HandleZoneRemoved(e.Group, e.Zone)
	return err
}

func (g *Groups) onVolumeAdjust(c grammar.Captures) error {
	id, err := c.Int(1)
	if err != nil {
		return err
	}
	if c[0] == grammar.TokenUp {
		_, err = g.HandleIncreaseVolume(model.GroupID(id))
	} else {
		_, err = g.HandleDecreaseVolume(model.GroupID(id))
	}
	return err
}

func (g *Groups) register(t *dispatch.Table) {
	on(t, grammar.GroupName, g.applyName)
	on(t, grammar.GroupMute, g.applyMute)
	on(t, grammar.GroupSource, g.applySource)
	on(t, grammar.GroupVolume, g.applyVolume)
	t.Register(grammar.GroupVolumeAdjust, g.onVolumeAdjust)
	on(t, grammar.GroupZoneAdd, g.applyZoneAdded)
	on(t, grammar.GroupZoneRemove, g.applyZoneRemoved)
	ignore(t, g.logger, grammar.GroupQuery)
}
