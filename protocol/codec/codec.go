// Package codec converts between state-change events and response frame
// payloads.
//
// The server renders its replies and broadcasts through Encode; the client
// decodes notifications through DecodeFrom after the dispatcher picked the
// pattern. Encode followed by Decode returns the original event for every
// variant that has a wire form.
package codec

import (
	"fmt"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// Encode renders e as a response payload. Events without a wire form
// (RefreshComplete, ControllerError, the internal set commands) and a
// split GroupSource return ErrInvalidArgument.
func Encode(e event.Event) (string, error) {
	switch e := e.(type) {
	case event.ZoneMute:
		return grammar.ZoneMute.Format(grammar.MuteToken(e.Mute), int(e.Zone)), nil
	case event.ZoneSource:
		return grammar.ZoneSource.Format(int(e.Zone), int(e.Source)), nil
	case event.ZoneVolume:
		return grammar.ZoneVolume.Format(int(e.Zone), e.Volume), nil
	case event.ZoneName:
		return grammar.ZoneName.Format(int(e.Zone), e.Name), nil
	case event.ZoneBalance:
		channel, magnitude := model.BalanceToWire(e.Balance)
		return grammar.ZoneBalance.Format(int(e.Zone), channel, magnitude), nil
	case event.ZoneTone:
		return grammar.ZoneTone.Format(int(e.Zone), e.Bass, e.Treble), nil
	case event.ZoneSoundMode:
		return grammar.ZoneSoundMode.Format(int(e.Zone), int(e.Mode)), nil
	case event.ZoneEqualizerBand:
		return grammar.ZoneEqualizerBand.Format(int(e.Zone), int(e.Band), e.Level), nil
	case event.ZoneEqualizerPreset:
		return grammar.ZoneEqualizerPreset.Format(int(e.Zone), int(e.Preset)), nil
	case event.ZoneVolumeLocked:
		return grammar.ZoneVolumeFixed.Format(int(e.Zone), grammar.Flag(e.Locked)), nil
	case event.ZoneHighpassCrossover:
		return grammar.ZoneHighpassCrossover.Format(int(e.Zone), e.Frequency), nil
	case event.ZoneLowpassCrossover:
		return grammar.ZoneLowpassCrossover.Format(int(e.Zone), e.Frequency), nil

	case event.GroupMute:
		return grammar.GroupMute.Format(grammar.MuteToken(e.Mute), int(e.Group)), nil
	case event.GroupSource:
		if len(e.Sources) != 1 {
			return "", fmt.Errorf("group %d has %d sources: %w", e.Group, len(e.Sources), errors.ErrInvalidArgument)
		}
		return grammar.GroupSource.Format(int(e.Group), int(e.Sources[0])), nil
	case event.GroupVolume:
		return grammar.GroupVolume.Format(int(e.Group), e.Volume), nil
	case event.GroupName:
		return grammar.GroupName.Format(int(e.Group), e.Name), nil
	case event.GroupZoneAdded:
		return grammar.GroupZoneAdd.Format(int(e.Group), int(e.Zone)), nil
	case event.GroupZoneRemoved:
		return grammar.GroupZoneRemove.Format(int(e.Group), int(e.Zone)), nil
	case event.GroupIncreaseVolume:
		return grammar.GroupVolumeAdjust.Format(grammar.TokenUp, int(e.Group)), nil
	case event.GroupDecreaseVolume:
		return grammar.GroupVolumeAdjust.Format(grammar.TokenDown, int(e.Group)), nil

	case event.EqualizerPresetName:
		return grammar.EqualizerPresetName.Format(int(e.Preset), e.Name), nil
	case event.EqualizerPresetBand:
		return grammar.EqualizerPresetBand.Format(int(e.Preset), int(e.Band), e.Level), nil
	case event.SourceName:
		return grammar.SourceName.Format(int(e.Source), e.Name), nil
	case event.FavoriteName:
		return grammar.FavoriteName.Format(int(e.Favorite), e.Name), nil
	case event.FrontPanelBrightness:
		return grammar.FrontPanelBrightness.Format(e.Brightness), nil
	case event.FrontPanelLocked:
		return grammar.FrontPanelLocked.Format(grammar.Flag(e.Locked)), nil
	case event.NetworkDHCPv4Enabled:
		return grammar.NetworkDHCPv4.Format(grammar.Flag(e.Enabled)), nil
	case event.NetworkSDDPEnabled:
		return grammar.NetworkSDDP.Format(grammar.Flag(e.Enabled)), nil
	case event.NetworkEthernetEUI48:
		return grammar.NetworkEUI48.Format(e.Address), nil
	case event.InfraredDisabled:
		return grammar.InfraredDisabled.Format(grammar.Flag(e.Disabled)), nil
	}

	if e == nil {
		return "", fmt.Errorf("nil event: %w", errors.ErrInvalidArgument)
	}
	return "", fmt.Errorf("%s has no wire form: %w", e.Kind(), errors.ErrInvalidArgument)
}

// MustEncode is Encode for events the caller built from validated model
// state. It panics on error.
func MustEncode(e event.Event) string {
	payload, err := Encode(e)
	if err != nil {
		panic(err)
	}
	return payload
}

type decoder func(grammar.Captures) (event.Event, error)

// decodable lists the patterns with an event form, in match order.
var decodable = []*grammar.Pattern{
	grammar.ZoneMute, grammar.ZoneSource, grammar.ZoneVolume, grammar.ZoneName,
	grammar.ZoneBalance, grammar.ZoneTone, grammar.ZoneSoundMode,
	grammar.ZoneEqualizerBand, grammar.ZoneEqualizerPreset, grammar.ZoneVolumeFixed,
	grammar.ZoneHighpassCrossover, grammar.ZoneLowpassCrossover,
	grammar.GroupMute, grammar.GroupSource, grammar.GroupVolume, grammar.GroupName,
	grammar.GroupZoneAdd, grammar.GroupZoneRemove, grammar.GroupVolumeAdjust,
	grammar.EqualizerPresetName, grammar.EqualizerPresetBand,
	grammar.SourceName, grammar.FavoriteName,
	grammar.FrontPanelBrightness, grammar.FrontPanelLocked,
	grammar.NetworkDHCPv4, grammar.NetworkSDDP, grammar.NetworkEUI48,
	grammar.InfraredDisabled,
}

var decoders = map[*grammar.Pattern]decoder{
	grammar.ZoneMute:              decodeZoneMute,
	grammar.ZoneSource:            decodeZoneSource,
	grammar.ZoneVolume:            decodeZoneVolume,
	grammar.ZoneName:              decodeZoneName,
	grammar.ZoneBalance:           decodeZoneBalance,
	grammar.ZoneTone:              decodeZoneTone,
	grammar.ZoneSoundMode:         decodeZoneSoundMode,
	grammar.ZoneEqualizerBand:     decodeZoneEqualizerBand,
	grammar.ZoneEqualizerPreset:   decodeZoneEqualizerPreset,
	grammar.ZoneVolumeFixed:       decodeZoneVolumeLocked,
	grammar.ZoneHighpassCrossover: decodeZoneHighpass,
	grammar.ZoneLowpassCrossover:  decodeZoneLowpass,
	grammar.GroupMute:             decodeGroupMute,
	grammar.GroupSource:           decodeGroupSource,
	grammar.GroupVolume:           decodeGroupVolume,
	grammar.GroupName:             decodeGroupName,
	grammar.GroupZoneAdd:          decodeGroupZoneAdded,
	grammar.GroupZoneRemove:       decodeGroupZoneRemoved,
	grammar.GroupVolumeAdjust:     decodeGroupVolumeAdjust,
	grammar.EqualizerPresetName:   decodePresetName,
	grammar.EqualizerPresetBand:   decodePresetBand,
	grammar.SourceName:            decodeSourceName,
	grammar.FavoriteName:          decodeFavoriteName,
	grammar.FrontPanelBrightness:  decodeBrightness,
	grammar.FrontPanelLocked:      decodePanelLocked,
	grammar.NetworkDHCPv4:         decodeDHCPv4,
	grammar.NetworkSDDP:           decodeSDDP,
	grammar.NetworkEUI48:          decodeEUI48,
	grammar.InfraredDisabled:      decodeInfrared,
}

// Decode finds the pattern payload matches and decodes it.
func Decode(payload string) (event.Event, error) {
	for _, p := range decodable {
		if p.Match(payload) {
			captures, err := p.Parse(payload)
			if err != nil {
				return nil, err
			}
			return DecodeFrom(p, captures)
		}
	}
	return nil, fmt.Errorf("no event pattern matches %q: %w", payload, errors.ErrParseMismatch)
}

// DecodeFrom decodes captures already parsed with p. Values are range
// checked against the model limits.
func DecodeFrom(p *grammar.Pattern, captures grammar.Captures) (event.Event, error) {
	decode, ok := decoders[p]
	if !ok {
		return nil, fmt.Errorf("%s has no event form: %w", p.Name(), errors.ErrInvalidArgument)
	}
	return decode(captures)
}

// Decodable reports whether p has an event form.
func Decodable(p *grammar.Pattern) bool {
	_, ok := decoders[p]
	return ok
}
