package server

import (
	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// Zones answers zone requests.
type Zones struct {
	base

	// touched is called after a zone changed so groups can follow.
	touched func(model.ZoneID)
}

func (z *Zones) register(t *dispatch.Table) {
	t.Register(grammar.ZoneQuery, z.onQuery)
	on(t, grammar.ZoneName, func(e event.ZoneName) error {
		return z.apply(e.Zone, e, func(zone *model.Zone) (model.Status, error) { return zone.SetName(e.Name) })
	})
	on(t, grammar.ZoneVolume, z.setVolume)
	t.Register(grammar.ZoneVolumeAdjust, z.onVolumeAdjust)
	on(t, grammar.ZoneVolumeFixed, func(e event.ZoneVolumeLocked) error {
		return z.apply(e.Zone, e, func(zone *model.Zone) (model.Status, error) { return zone.SetVolumeFixed(e.Locked) })
	})
	on(t, grammar.ZoneMute, z.setMute)
	t.Register(grammar.ZoneMuteToggle, z.onMuteToggle)
	on(t, grammar.ZoneSource, func(e event.ZoneSource) error {
		return z.apply(e.Zone, e, func(zone *model.Zone) (model.Status, error) { return zone.SetSource(e.Source) })
	})
	t.Register(grammar.AllZonesSource, z.onAllZonesSource)
	on(t, grammar.ZoneBalance, z.setBalance)
	t.Register(grammar.ZoneBalanceAdjust, z.onBalanceAdjust)
	on(t, grammar.ZoneSoundMode, func(e event.ZoneSoundMode) error {
		return z.apply(e.Zone, e, func(zone *model.Zone) (model.Status, error) { return zone.SetSoundMode(e.Mode) })
	})
	on(t, grammar.ZoneTone, z.setTone)
	t.Register(grammar.ZoneToneAdjust, z.onToneAdjust)
	on(t, grammar.ZoneEqualizerBand, z.setEqualizerBand)
	t.Register(grammar.ZoneEqualizerBandAdjust, z.onEqualizerBandAdjust)
	on(t, grammar.ZoneEqualizerPreset, func(e event.ZoneEqualizerPreset) error {
		return z.apply(e.Zone, e, func(zone *model.Zone) (model.Status, error) { return zone.SetEqualizerPreset(e.Preset) })
	})
	on(t, grammar.ZoneHighpassCrossover, func(e event.ZoneHighpassCrossover) error {
		return z.apply(e.Zone, e, func(zone *model.Zone) (model.Status, error) { return zone.SetHighpass(e.Frequency) })
	})
	on(t, grammar.ZoneLowpassCrossover, func(e event.ZoneLowpassCrossover) error {
		return z.apply(e.Zone, e, func(zone *model.Zone) (model.Status, error) { return zone.SetLowpass(e.Frequency) })
	})
}

// apply runs set on zone id and acknowledges with e.
func (z *Zones) apply(id model.ZoneID, e event.Event, set func(*model.Zone) (model.Status, error)) error {
	zone, err := z.model.Zone(id)
	if err != nil {
		return err
	}
	status, err := set(zone)
	if err := z.change(status, err, e); err != nil {
		return err
	}
	if status.Changed() && z.touched != nil {
		z.touched(id)
	}
	return nil
}

func (z *Zones) setVolume(e event.ZoneVolume) error {
	return z.apply(e.Zone, e, func(zone *model.Zone) (model.Status, error) { return zone.SetVolume(e.Volume) })
}

func (z *Zones) setMute(e event.ZoneMute) error {
	return z.apply(e.Zone, e, func(zone *model.Zone) (model.Status, error) { return zone.SetMute(e.Mute) })
}

func (z *Zones) setBalance(e event.ZoneBalance) error {
	return z.apply(e.Zone, e, func(zone *model.Zone) (model.Status, error) { return zone.SetBalance(e.Balance) })
}

func (z *Zones) setTone(e event.ZoneTone) error {
	return z.apply(e.Zone, e, func(zone *model.Zone) (model.Status, error) { return zone.SetTone(e.Bass, e.Treble) })
}

func (z *Zones) setEqualizerBand(e event.ZoneEqualizerBand) error {
	return z.apply(e.Zone, e, func(zone *model.Zone) (model.Status, error) { return zone.SetEqualizerBand(e.Band, e.Level) })
}

func (z *Zones) onQuery(c grammar.Captures) error {
	id, err := zoneAt(c, 0)
	if err != nil {
		return err
	}
	zone, err := z.model.Zone(id)
	if err != nil {
		return err
	}
	r := z.reply()
	for _, e := range zoneState(zone) {
		r.state(e)
	}
	r.Respond(grammar.ZoneQuery.Format(int(id)))
	return nil
}

func (z *Zones) onVolumeAdjust(c grammar.Captures) error {
	id, err := zoneAt(c, 0)
	if err != nil {
		return err
	}
	zone, err := z.model.Zone(id)
	if err != nil {
		return err
	}
	level := model.Clamp(zone.Volume+step(c[1]), model.VolumeMin, model.VolumeMax)
	return z.setVolume(event.ZoneVolume{Zone: id, Volume: level})
}

func (z *Zones) onMuteToggle(c grammar.Captures) error {
	id, err := zoneAt(c, 0)
	if err != nil {
		return err
	}
	zone, err := z.model.Zone(id)
	if err != nil {
		return err
	}
	return z.setMute(event.ZoneMute{Zone: id, Mute: !zone.Mute})
}

func (z *Zones) onBalanceAdjust(c grammar.Captures) error {
	id, err := zoneAt(c, 0)
	if err != nil {
		return err
	}
	zone, err := z.model.Zone(id)
	if err != nil {
		return err
	}
	delta := 1
	if c[1] == grammar.TokenLeft {
		delta = -1
	}
	balance := model.Clamp(zone.Balance+delta, -model.BalanceMax, model.BalanceMax)
	return z.setBalance(event.ZoneBalance{Zone: id, Balance: balance})
}

func (z *Zones) onToneAdjust(c grammar.Captures) error {
	id, err := zoneAt(c, 0)
	if err != nil {
		return err
	}
	zone, err := z.model.Zone(id)
	if err != nil {
		return err
	}
	bass, treble := zone.Tone.Bass, zone.Tone.Treble
	if c[1] == grammar.TokenBass {
		bass = model.Clamp(bass+step(c[2]), model.ToneMin, model.ToneMax)
	} else {
		treble = model.Clamp(treble+step(c[2]), model.ToneMin, model.ToneMax)
	}
	return z.setTone(event.ZoneTone{Zone: id, Bass: bass, Treble: treble})
}

func (z *Zones) onEqualizerBandAdjust(c grammar.Captures) error {
	id, err := zoneAt(c, 0)
	if err != nil {
		return err
	}
	band, err := bandAt(c, 1)
	if err != nil {
		return err
	}
	zone, err := z.model.Zone(id)
	if err != nil {
		return err
	}
	level, err := zone.EqualizerBand(band)
	if err != nil {
		return err
	}
	level = model.Clamp(level+step(c[2]), model.EqualizerLevelMin, model.EqualizerLevelMax)
	return z.setEqualizerBand(event.ZoneEqualizerBand{Zone: id, Band: band, Level: level})
}

// onAllZonesSource switches every zone to one source. Each zone is
// acknowledged in id order, then the command itself.
func (z *Zones) onAllZonesSource(c grammar.Captures) error {
	v, err := c.Int(0)
	if err != nil {
		return err
	}
	source := model.SourceID(v)
	if err := source.Validate(); err != nil {
		return err
	}
	for _, zone := range z.model.Zones() {
		e := event.ZoneSource{Zone: zone.ID, Source: source}
		if err := z.apply(zone.ID, e, func(zone *model.Zone) (model.Status, error) { return zone.SetSource(source) }); err != nil {
			return err
		}
	}
	z.reply().Broadcast(grammar.AllZonesSource.Format(int(source)))
	return nil
}

func (z *Zones) state() []event.Event {
	var out []event.Event
	for _, zone := range z.model.Zones() {
		out = append(out, zoneState(zone)...)
	}
	return out
}

// zoneState lists every property of zone in query order.
func zoneState(zone *model.Zone) []event.Event {
	id := zone.ID
	out := []event.Event{
		event.ZoneName{Zone: id, Name: zone.Name},
		event.ZoneVolume{Zone: id, Volume: zone.Volume},
		event.ZoneVolumeLocked{Zone: id, Locked: zone.VolumeFixed},
		event.ZoneMute{Zone: id, Mute: zone.Mute},
		event.ZoneSource{Zone: id, Source: zone.Source},
		event.ZoneBalance{Zone: id, Balance: zone.Balance},
		event.ZoneSoundMode{Zone: id, Mode: zone.SoundMode},
		event.ZoneTone{Zone: id, Bass: zone.Tone.Bass, Treble: zone.Tone.Treble},
	}
	for i, level := range zone.EqualizerBands {
		out = append(out, event.ZoneEqualizerBand{Zone: id, Band: model.BandID(i + 1), Level: level})
	}
	return append(out,
		event.ZoneEqualizerPreset{Zone: id, Preset: zone.EqualizerPreset},
		event.ZoneHighpassCrossover{Zone: id, Frequency: zone.Crossover.Highpass},
		event.ZoneLowpassCrossover{Zone: id, Frequency: zone.Crossover.Lowpass},
	)
}
