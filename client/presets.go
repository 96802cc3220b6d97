package client

import (
	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// EqualizerPresets mirrors the named equalizer presets.
type EqualizerPresets struct {
	base
}

// Max returns the number of presets.
func (p *EqualizerPresets) Max() int { return model.MaxEqualizerPresets }

// Get returns the preset with the given id.
func (p *EqualizerPresets) Get(id model.PresetID) (*model.EqualizerPreset, error) {
	return p.model.EqualizerPreset(id)
}

// LookupByName returns the id of the preset named name.
func (p *EqualizerPresets) LookupByName(name string) (model.PresetID, error) {
	return p.model.EqualizerPresetByName(name)
}

// Query asks the server for a preset's name and bands.
func (p *EqualizerPresets) Query(id model.PresetID) (*exchange.Handle, error) { return p.query(id, nil) }

func (p *EqualizerPresets) query(id model.PresetID, after func(error)) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return p.send(grammar.EqualizerPresetQuery.Format(int(id)), grammar.EqualizerPresetQuery, acceptAt(0, int(id)), nil, after)
}

// Refresh queries every preset.
func (p *EqualizerPresets) Refresh() error { return p.refreshThen(nil) }

func (p *EqualizerPresets) refreshThen(after func(error)) error {
	return p.runRefresh(model.MaxEqualizerPresets, func(i int, done func(error)) error {
		_, err := p.query(model.PresetID(i), done)
		return err
	}, after)
}

// SetName renames a preset.
func (p *EqualizerPresets) SetName(id model.PresetID, name string) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateName(name); err != nil {
		return nil, err
	}
	return p.send(grammar.EqualizerPresetName.Format(int(id), name), grammar.EqualizerPresetName, acceptAt(0, int(id)),
		handler(grammar.EqualizerPresetName, p.applyName), nil)
}

// SetBand sets one band of a preset.
func (p *EqualizerPresets) SetBand(id model.PresetID, band model.BandID, level int) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := band.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateEqualizerLevel(level); err != nil {
		return nil, err
	}
	return p.send(grammar.EqualizerPresetBand.Format(int(id), int(band), level), grammar.EqualizerPresetBand,
		acceptAt(0, int(id)), handler(grammar.EqualizerPresetBand, p.applyBand), nil)
}

// IncreaseBand raises one band of a preset one step.
func (p *EqualizerPresets) IncreaseBand(id model.PresetID, band model.BandID) (*exchange.Handle, error) {
	return p.adjustBand(id, band, grammar.TokenUp)
}

// DecreaseBand lowers one band of a preset one step.
func (p *EqualizerPresets) DecreaseBand(id model.PresetID, band model.BandID) (*exchange.Handle, error) {
	return p.adjustBand(id, band, grammar.TokenDown)
}

func (p *EqualizerPresets) adjustBand(id model.PresetID, band model.BandID, direction string) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := band.Validate(); err != nil {
		return nil, err
	}
	return p.send(grammar.EqualizerPresetBandAdjust.Format(int(id), int(band), direction), grammar.EqualizerPresetBand,
		acceptAt(0, int(id)), handler(grammar.EqualizerPresetBand, p.applyBand), nil)
}

// HandleNameChange applies an observed preset name.
func (p *EqualizerPresets) HandleNameChange(id model.PresetID, name string) (model.Status, error) {
	preset, err := p.model.EqualizerPreset(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := preset.SetName(name)
	return p.publish(status, err, event.EqualizerPresetName{Preset: id, Name: name})
}

// HandleBandChange applies an observed preset band level.
func (p *EqualizerPresets) HandleBandChange(id model.PresetID, band model.BandID, level int) (model.Status, error) {
	preset, err := p.model.EqualizerPreset(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := preset.SetBand(band, level)
	return p.publish(status, err, event.EqualizerPresetBand{Preset: id, Band: band, Level: level})
}

func (p *EqualizerPresets) applyName(e event.EqualizerPresetName) error {
	_, err := p.HandleNameChange(e.Preset, e.Name)
	return err
}

func (p *EqualizerPresets) applyBand(e event.EqualizerPresetBand) error {
	_, err := p.HandleBandChange(e.Preset, e.Band, e.Level)
	return err
}

func (p *EqualizerPresets) register(t *dispatch.Table) {
	on(t, grammar.EqualizerPresetName, p.applyName)
	on(t, grammar.EqualizerPresetBand, p.applyBand)
	ignore(t, p.logger, grammar.EqualizerPresetQuery)
}
