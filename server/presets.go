package server

import (
	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// EqualizerPresets answers equalizer preset requests.
type EqualizerPresets struct {
	base
}

func (p *EqualizerPresets) register(t *dispatch.Table) {
	t.Register(grammar.EqualizerPresetQuery, p.onQuery)
	on(t, grammar.EqualizerPresetName, func(e event.EqualizerPresetName) error {
		preset, err := p.model.EqualizerPreset(e.Preset)
		if err != nil {
			return err
		}
		status, err := preset.SetName(e.Name)
		return p.change(status, err, e)
	})
	on(t, grammar.EqualizerPresetBand, p.setBand)
	t.Register(grammar.EqualizerPresetBandAdjust, p.onBandAdjust)
}

func (p *EqualizerPresets) setBand(e event.EqualizerPresetBand) error {
	preset, err := p.model.EqualizerPreset(e.Preset)
	if err != nil {
		return err
	}
	status, err := preset.SetBand(e.Band, e.Level)
	return p.change(status, err, e)
}

func (p *EqualizerPresets) onBandAdjust(c grammar.Captures) error {
	id, err := presetAt(c, 0)
	if err != nil {
		return err
	}
	band, err := bandAt(c, 1)
	if err != nil {
		return err
	}
	preset, err := p.model.EqualizerPreset(id)
	if err != nil {
		return err
	}
	level, err := preset.Band(band)
	if err != nil {
		return err
	}
	level = model.Clamp(level+step(c[2]), model.EqualizerLevelMin, model.EqualizerLevelMax)
	return p.setBand(event.EqualizerPresetBand{Preset: id, Band: band, Level: level})
}

func (p *EqualizerPresets) onQuery(c grammar.Captures) error {
	id, err := presetAt(c, 0)
	if err != nil {
		return err
	}
	preset, err := p.model.EqualizerPreset(id)
	if err != nil {
		return err
	}
	r := p.reply()
	for _, e := range presetState(preset) {
		r.state(e)
	}
	r.Respond(grammar.EqualizerPresetQuery.Format(int(id)))
	return nil
}

func (p *EqualizerPresets) state() []event.Event {
	var out []event.Event
	for _, preset := range p.model.EqualizerPresets() {
		out = append(out, presetState(preset)...)
	}
	return out
}

func presetState(preset *model.EqualizerPreset) []event.Event {
	out := []event.Event{event.EqualizerPresetName{Preset: preset.ID, Name: preset.Name}}
	for i, level := range preset.Bands {
		out = append(out, event.EqualizerPresetBand{Preset: preset.ID, Band: model.BandID(i + 1), Level: level})
	}
	return out
}
