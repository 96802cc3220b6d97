package client

import (
	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// Zones mirrors the matrix zones.
type Zones struct {
	base
}

// Max returns the number of zones.
func (z *Zones) Max() int { return model.MaxZones }

// Get returns the zone with the given id.
func (z *Zones) Get(id model.ZoneID) (*model.Zone, error) { return z.model.Zone(id) }

// LookupByName returns the id of the zone named name.
func (z *Zones) LookupByName(name string) (model.ZoneID, error) { return z.model.ZoneByName(name) }

// Query asks the server for every property of zone id.
func (z *Zones) Query(id model.ZoneID) (*exchange.Handle, error) { return z.query(id, nil) }

func (z *Zones) query(id model.ZoneID, after func(error)) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return z.send(grammar.ZoneQuery.Format(int(id)), grammar.ZoneQuery, acceptAt(0, int(id)), nil, after)
}

// Refresh queries every zone and publishes RefreshComplete once all
// queries completed.
func (z *Zones) Refresh() error { return z.refreshThen(nil) }

func (z *Zones) refreshThen(after func(error)) error {
	return z.runRefresh(model.MaxZones, func(i int, done func(error)) error {
		_, err := z.query(model.ZoneID(i), done)
		return err
	}, after)
}

// request sends a zone command whose response carries the zone id at
// capture index.
func (z *Zones) request(id model.ZoneID, payload string, expect *grammar.Pattern, index int, apply dispatch.Handler) (*exchange.Handle, error) {
	return z.send(payload, expect, acceptAt(index, int(id)), apply, nil)
}

// SetName renames a zone.
func (z *Zones) SetName(id model.ZoneID, name string) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateName(name); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneName.Format(int(id), name), grammar.ZoneName, 0,
		handler(grammar.ZoneName, z.applyName))
}

// SetVolume sets a zone's volume level.
func (z *Zones) SetVolume(id model.ZoneID, level int) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateVolume(level); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneVolume.Format(int(id), level), grammar.ZoneVolume, 0,
		handler(grammar.ZoneVolume, z.applyVolume))
}

// IncreaseVolume raises a zone's volume one step.
func (z *Zones) IncreaseVolume(id model.ZoneID) (*exchange.Handle, error) {
	return z.adjustVolume(id, grammar.TokenUp)
}

// DecreaseVolume lowers a zone's volume one step.
func (z *Zones) DecreaseVolume(id model.ZoneID) (*exchange.Handle, error) {
	return z.adjustVolume(id, grammar.TokenDown)
}

func (z *Zones) adjustVolume(id model.ZoneID, direction string) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneVolumeAdjust.Format(int(id), direction), grammar.ZoneVolume, 0,
		handler(grammar.ZoneVolume, z.applyVolume))
}

// SetVolumeFixed locks or unlocks a zone's volume.
func (z *Zones) SetVolumeFixed(id model.ZoneID, fixed bool) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneVolumeFixed.Format(int(id), grammar.Flag(fixed)), grammar.ZoneVolumeFixed, 0,
		handler(grammar.ZoneVolumeFixed, z.applyVolumeLocked))
}

// SetMute mutes or unmutes a zone.
func (z *Zones) SetMute(id model.ZoneID, mute bool) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneMute.Format(grammar.MuteToken(mute), int(id)), grammar.ZoneMute, 1,
		handler(grammar.ZoneMute, z.applyMute))
}

// ToggleMute flips a zone's mute. The server answers with the resulting
// state, so the outcome does not depend on the local value.
func (z *Zones) ToggleMute(id model.ZoneID) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneMuteToggle.Format(int(id)), grammar.ZoneMute, 1,
		handler(grammar.ZoneMute, z.applyMute))
}

// SetSource selects a zone's source.
func (z *Zones) SetSource(id model.ZoneID, source model.SourceID) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := source.Validate(); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneSource.Format(int(id), int(source)), grammar.ZoneSource, 0,
		handler(grammar.ZoneSource, z.applySource))
}

// SetAllSources selects source on every zone.
func (z *Zones) SetAllSources(source model.SourceID) (*exchange.Handle, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}
	return z.send(grammar.AllZonesSource.Format(int(source)), grammar.AllZonesSource,
		acceptAt(0, int(source)), z.onAllZonesSource, nil)
}

// SetBalance sets a zone's balance, negative toward the left.
func (z *Zones) SetBalance(id model.ZoneID, balance int) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateBalance(balance); err != nil {
		return nil, err
	}
	channel, magnitude := model.BalanceToWire(balance)
	return z.request(id, grammar.ZoneBalance.Format(int(id), channel, magnitude), grammar.ZoneBalance, 0,
		handler(grammar.ZoneBalance, z.applyBalance))
}

// IncreaseBalanceLeft moves a zone's balance one step left.
func (z *Zones) IncreaseBalanceLeft(id model.ZoneID) (*exchange.Handle, error) {
	return z.adjustBalance(id, grammar.TokenLeft)
}

// IncreaseBalanceRight moves a zone's balance one step right.
func (z *Zones) IncreaseBalanceRight(id model.ZoneID) (*exchange.Handle, error) {
	return z.adjustBalance(id, grammar.TokenRight)
}

func (z *Zones) adjustBalance(id model.ZoneID, channel string) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneBalanceAdjust.Format(int(id), channel), grammar.ZoneBalance, 0,
		handler(grammar.ZoneBalance, z.applyBalance))
}

// SetSoundMode selects a zone's equalizer path.
func (z *Zones) SetSoundMode(id model.ZoneID, mode model.SoundMode) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneSoundMode.Format(int(id), int(mode)), grammar.ZoneSoundMode, 0,
		handler(grammar.ZoneSoundMode, z.applySoundMode))
}

// SetTone sets a zone's bass and treble together.
func (z *Zones) SetTone(id model.ZoneID, bass, treble int) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateTone(bass); err != nil {
		return nil, err
	}
	if err := model.ValidateTone(treble); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneTone.Format(int(id), bass, treble), grammar.ZoneTone, 0,
		handler(grammar.ZoneTone, z.applyTone))
}

// IncreaseBass raises a zone's bass one step.
func (z *Zones) IncreaseBass(id model.ZoneID) (*exchange.Handle, error) {
	return z.adjustTone(id, grammar.TokenBass, grammar.TokenUp)
}

// DecreaseBass lowers a zone's bass one step.
func (z *Zones) DecreaseBass(id model.ZoneID) (*exchange.Handle, error) {
	return z.adjustTone(id, grammar.TokenBass, grammar.TokenDown)
}

// IncreaseTreble raises a zone's treble one step.
func (z *Zones) IncreaseTreble(id model.ZoneID) (*exchange.Handle, error) {
	return z.adjustTone(id, grammar.TokenTreble, grammar.TokenUp)
}

// DecreaseTreble lowers a zone's treble one step.
func (z *Zones) DecreaseTreble(id model.ZoneID) (*exchange.Handle, error) {
	return z.adjustTone(id, grammar.TokenTreble, grammar.TokenDown)
}

func (z *Zones) adjustTone(id model.ZoneID, channel, direction string) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneToneAdjust.Format(int(id), channel, direction), grammar.ZoneTone, 0,
		handler(grammar.ZoneTone, z.applyTone))
}

// SetEqualizerBand sets one band of a zone's equalizer.
func (z *Zones) SetEqualizerBand(id model.ZoneID, band model.BandID, level int) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := band.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateEqualizerLevel(level); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneEqualizerBand.Format(int(id), int(band), level), grammar.ZoneEqualizerBand, 0,
		handler(grammar.ZoneEqualizerBand, z.applyEqualizerBand))
}

// IncreaseEqualizerBand raises one band of a zone's equalizer one step.
func (z *Zones) IncreaseEqualizerBand(id model.ZoneID, band model.BandID) (*exchange.Handle, error) {
	return z.adjustEqualizerBand(id, band, grammar.TokenUp)
}

// DecreaseEqualizerBand lowers one band of a zone's equalizer one step.
func (z *Zones) DecreaseEqualizerBand(id model.ZoneID, band model.BandID) (*exchange.Handle, error) {
	return z.adjustEqualizerBand(id, band, grammar.TokenDown)
}

func (z *Zones) adjustEqualizerBand(id model.ZoneID, band model.BandID, direction string) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := band.Validate(); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneEqualizerBandAdjust.Format(int(id), int(band), direction), grammar.ZoneEqualizerBand, 0,
		handler(grammar.ZoneEqualizerBand, z.applyEqualizerBand))
}

// SetEqualizerPreset selects the preset a zone uses in preset mode.
func (z *Zones) SetEqualizerPreset(id model.ZoneID, preset model.PresetID) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := preset.Validate(); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneEqualizerPreset.Format(int(id), int(preset)), grammar.ZoneEqualizerPreset, 0,
		handler(grammar.ZoneEqualizerPreset, z.applyEqualizerPreset))
}

// SetHighpass sets a zone's highpass crossover frequency.
func (z *Zones) SetHighpass(id model.ZoneID, hz int) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateCrossover(hz); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneHighpassCrossover.Format(int(id), hz), grammar.ZoneHighpassCrossover, 0,
		handler(grammar.ZoneHighpassCrossover, z.applyHighpass))
}

// SetLowpass sets a zone's lowpass crossover frequency.
func (z *Zones) SetLowpass(id model.ZoneID, hz int) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateCrossover(hz); err != nil {
		return nil, err
	}
	return z.request(id, grammar.ZoneLowpassCrossover.Format(int(id), hz), grammar.ZoneLowpassCrossover, 0,
		handler(grammar.ZoneLowpassCrossover, z.applyLowpass))
}

// HandleNameChange applies an observed zone name.
func (z *Zones) HandleNameChange(id model.ZoneID, name string) (model.Status, error) {
	zone, err := z.model.Zone(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := zone.SetName(name)
	return z.publish(status, err, event.ZoneName{Zone: id, Name: name})
}

// HandleMuteChange applies an observed zone mute state.
func (z *Zones) HandleMuteChange(id model.ZoneID, mute bool) (model.Status, error) {
	zone, err := z.model.Zone(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := zone.SetMute(mute)
	return z.publish(status, err, event.ZoneMute{Zone: id, Mute: mute})
}

// HandleVolumeChange applies an observed zone volume.
func (z *Zones) HandleVolumeChange(id model.ZoneID, level int) (model.Status, error) {
	zone, err := z.model.Zone(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := zone.SetVolume(level)
	return z.publish(status, err, event.ZoneVolume{Zone: id, Volume: level})
}

// HandleVolumeLockedChange applies an observed volume lock.
func (z *Zones) HandleVolumeLockedChange(id model.ZoneID, locked bool) (model.Status, error) {
	zone, err := z.model.Zone(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := zone.SetVolumeFixed(locked)
	return z.publish(status, err, event.ZoneVolumeLocked{Zone: id, Locked: locked})
}

// HandleSourceChange applies an observed zone source.
func (z *Zones) HandleSourceChange(id model.ZoneID, source model.SourceID) (model.Status, error) {
	zone, err := z.model.Zone(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := zone.SetSource(source)
	return z.publish(status, err, event.ZoneSource{Zone: id, Source: source})
}

// HandleAllSourcesChange applies source to every zone in id order.
func (z *Zones) HandleAllSourcesChange(source model.SourceID) error {
	if err := source.Validate(); err != nil {
		return err
	}
	for _, zone := range z.model.Zones() {
		if _, err := z.HandleSourceChange(zone.ID, source); err != nil {
			return err
		}
	}
	return nil
}

// HandleBalanceChange applies an observed balance.
func (z *Zones) HandleBalanceChange(id model.ZoneID, balance int) (model.Status, error) {
	zone, err := z.model.Zone(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := zone.SetBalance(balance)
	return z.publish(status, err, event.ZoneBalance{Zone: id, Balance: balance})
}

// HandleSoundModeChange applies an observed sound mode.
func (z *Zones) HandleSoundModeChange(id model.ZoneID, mode model.SoundMode) (model.Status, error) {
	zone, err := z.model.Zone(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := zone.SetSoundMode(mode)
	return z.publish(status, err, event.ZoneSoundMode{Zone: id, Mode: mode})
}

// HandleToneChange applies an observed bass and treble pair.
func (z *Zones) HandleToneChange(id model.ZoneID, bass, treble int) (model.Status, error) {
	zone, err := z.model.Zone(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := zone.SetTone(bass, treble)
	return z.publish(status, err, event.ZoneTone{Zone: id, Bass: bass, Treble: treble})
}

// HandleEqualizerBandChange applies an observed equalizer band level.
func (z *Zones) HandleEqualizerBandChange(id model.ZoneID, band model.BandID, level int) (model.Status, error) {
	zone, err := z.model.Zone(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := zone.SetEqualizerBand(band, level)
	return z.publish(status, err, event.ZoneEqualizerBand{Zone: id, Band: band, Level: level})
}

// HandleEqualizerPresetChange applies an observed preset selection.
func (z *Zones) HandleEqualizerPresetChange(id model.ZoneID, preset model.PresetID) (model.Status, error) {
	zone, err := z.model.Zone(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := zone.SetEqualizerPreset(preset)
	return z.publish(status, err, event.ZoneEqualizerPreset{Zone: id, Preset: preset})
}

// HandleHighpassChange applies an observed highpass crossover.
func (z *Zones) HandleHighpassChange(id model.ZoneID, hz int) (model.Status, error) {
	zone, err := z.model.Zone(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := zone.SetHighpass(hz)
	return z.publish(status, err, event.ZoneHighpassCrossover{Zone: id, Frequency: hz})
}

// HandleLowpassChange applies an observed lowpass crossover.
func (z *Zones) HandleLowpassChange(id model.ZoneID, hz int) (model.Status, error) {
	zone, err := z.model.Zone(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := zone.SetLowpass(hz)
	return z.publish(status, err, event.ZoneLowpassCrossover{Zone: id, Frequency: hz})
}

func (z *Zones) applyName(e event.ZoneName) error {
	_, err := z.HandleNameChange(e.Zone, e.Name)
	return err
}

func (z *Zones) applyMute(e event.ZoneMute) error {
	_, err := z.HandleMuteChange(e.Zone, e.Mute)
	return err
}

func (z *Zones) applyVolume(e event.ZoneVolume) error {
	_, err := z.HandleVolumeChange(e.Zone, e.Volume)
	return err
}

func (z *Zones) applyVolumeLocked(e event.ZoneVolumeLocked) error {
	_, err := z.HandleVolumeLockedChange(e.Zone, e.Locked)
	return err
}

func (z *Zones) applySource(e event.ZoneSource) error {
	_, err := z.HandleSourceChange(e.Zone, e.Source)
	return err
}

func (z *Zones) applyBalance(e event.ZoneBalance) error {
	_, err := z.HandleBalanceChange(e.Zone, e.Balance)
	return err
}

func (z *Zones) applySoundMode(e event.ZoneSoundMode) error {
	_, err := z.HandleSoundModeChange(e.Zone, e.Mode)
	return err
}

func (z *Zones) applyTone(e event.ZoneTone) error {
	_, err := z.HandleToneChange(e.Zone, e.Bass, e.Treble)
	return err
}

func (z *Zones) applyEqualizerBand(e event.ZoneEqualizerBand) error {
	_, err := z.HandleEqualizerBandChange(e.Zone, e.Band, e.Level)
	return err
}

func (z *Zones) applyEqualizerPreset(e event.ZoneEqualizerPreset) error {
	_, err := z.HandleEqualizerPresetChange(e.Zone, e.Preset)
	return err
}

func (z *Zones) applyHighpass(e event.ZoneHighpassCrossover) error {
	_, err := z.HandleHighpassChange(e.Zone, e.Frequency)
	return err
}

func (z *Zones) applyLowpass(e event.ZoneLowpassCrossover) error {
	_, err := z.HandleLowpassChange(e.Zone, e.Frequency)
	return err
}

func (z *Zones) onAllZonesSource(c grammar.Captures) error {
	source, err := c.Int(0)
	if err != nil {
		return err
	}
	return z.HandleAllSourcesChange(model.SourceID(source))
}

func (z *Zones) register(t *dispatch.Table) {
	on(t, grammar.ZoneName, z.applyName)
	on(t, grammar.ZoneMute, z.applyMute)
	on(t, grammar.ZoneVolume, z.applyVolume)
	on(t, grammar.ZoneVolumeFixed, z.applyVolumeLocked)
	on(t, grammar.ZoneSource, z.applySource)
	on(t, grammar.ZoneBalance, z.applyBalance)
	on(t, grammar.ZoneSoundMode, z.applySoundMode)
	on(t, grammar.ZoneTone, z.applyTone)
	on(t, grammar.ZoneEqualizerBand, z.applyEqualizerBand)
	on(t, grammar.ZoneEqualizerPreset, z.applyEqualizerPreset)
	on(t, grammar.ZoneHighpassCrossover, z.applyHighpass)
	on(t, grammar.ZoneLowpassCrossover, z.applyLowpass)
	t.Register(grammar.AllZonesSource, z.onAllZonesSource)
	ignore(t, z.logger, grammar.ZoneQuery)
}
