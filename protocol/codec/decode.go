package codec

import (
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// ints parses the captures at indexes as integers.
func ints(c grammar.Captures, indexes ...int) ([]int, error) {
	out := make([]int, len(indexes))
	for i, idx := range indexes {
		v, err := c.Int(idx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func zoneArg(c grammar.Captures, i int) (model.ZoneID, error) {
	v, err := c.Int(i)
	if err != nil {
		return 0, err
	}
	id := model.ZoneID(v)
	return id, id.Validate()
}

func groupArg(c grammar.Captures, i int) (model.GroupID, error) {
	v, err := c.Int(i)
	if err != nil {
		return 0, err
	}
	id := model.GroupID(v)
	return id, id.Validate()
}

func bandArg(c grammar.Captures, i int) (model.BandID, error) {
	v, err := c.Int(i)
	if err != nil {
		return 0, err
	}
	id := model.BandID(v)
	return id, id.Validate()
}

func presetArg(c grammar.Captures, i int) (model.PresetID, error) {
	v, err := c.Int(i)
	if err != nil {
		return 0, err
	}
	id := model.PresetID(v)
	return id, id.Validate()
}

func sourceArg(c grammar.Captures, i int) (model.SourceID, error) {
	v, err := c.Int(i)
	if err != nil {
		return 0, err
	}
	id := model.SourceID(v)
	return id, id.Validate()
}

func nameArg(c grammar.Captures, i int) (string, error) {
	name := c[i]
	return name, model.ValidateName(name)
}

func decodeZoneMute(c grammar.Captures) (event.Event, error) {
	zone, err := zoneArg(c, 1)
	if err != nil {
		return nil, err
	}
	return event.ZoneMute{Zone: zone, Mute: c[0] != grammar.TokenUnmuted}, nil
}

func decodeZoneSource(c grammar.Captures) (event.Event, error) {
	zone, err := zoneArg(c, 0)
	if err != nil {
		return nil, err
	}
	source, err := sourceArg(c, 1)
	if err != nil {
		return nil, err
	}
	return event.ZoneSource{Zone: zone, Source: source}, nil
}

func decodeZoneVolume(c grammar.Captures) (event.Event, error) {
	zone, err := zoneArg(c, 0)
	if err != nil {
		return nil, err
	}
	level, err := c.Int(1)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateVolume(level); err != nil {
		return nil, err
	}
	return event.ZoneVolume{Zone: zone, Volume: level}, nil
}

func decodeZoneName(c grammar.Captures) (event.Event, error) {
	zone, err := zoneArg(c, 0)
	if err != nil {
		return nil, err
	}
	name, err := nameArg(c, 1)
	if err != nil {
		return nil, err
	}
	return event.ZoneName{Zone: zone, Name: name}, nil
}

func decodeZoneBalance(c grammar.Captures) (event.Event, error) {
	zone, err := zoneArg(c, 0)
	if err != nil {
		return nil, err
	}
	magnitude, err := c.Int(2)
	if err != nil {
		return nil, err
	}
	balance, err := model.BalanceFromWire(c[1], magnitude)
	if err != nil {
		return nil, err
	}
	return event.ZoneBalance{Zone: zone, Balance: balance}, nil
}

func decodeZoneTone(c grammar.Captures) (event.Event, error) {
	zone, err := zoneArg(c, 0)
	if err != nil {
		return nil, err
	}
	v, err := ints(c, 1, 2)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateTone(v[0]); err != nil {
		return nil, err
	}
	if err := model.ValidateTone(v[1]); err != nil {
		return nil, err
	}
	return event.ZoneTone{Zone: zone, Bass: v[0], Treble: v[1]}, nil
}

func decodeZoneSoundMode(c grammar.Captures) (event.Event, error) {
	zone, err := zoneArg(c, 0)
	if err != nil {
		return nil, err
	}
	v, err := c.Int(1)
	if err != nil {
		return nil, err
	}
	mode := model.SoundMode(v)
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	return event.ZoneSoundMode{Zone: zone, Mode: mode}, nil
}

func decodeZoneEqualizerBand(c grammar.Captures) (event.Event, error) {
	zone, err := zoneArg(c, 0)
	if err != nil {
		return nil, err
	}
	band, err := bandArg(c, 1)
	if err != nil {
		return nil, err
	}
	level, err := c.Int(2)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateEqualizerLevel(level); err != nil {
		return nil, err
	}
	return event.ZoneEqualizerBand{Zone: zone, Band: band, Level: level}, nil
}

func decodeZoneEqualizerPreset(c grammar.Captures) (event.Event, error) {
	zone, err := zoneArg(c, 0)
	if err != nil {
		return nil, err
	}
	preset, err := presetArg(c, 1)
	if err != nil {
		return nil, err
	}
	return event.ZoneEqualizerPreset{Zone: zone, Preset: preset}, nil
}

func decodeZoneVolumeLocked(c grammar.Captures) (event.Event, error) {
	zone, err := zoneArg(c, 0)
	if err != nil {
		return nil, err
	}
	locked, err := c.Bool(1)
	if err != nil {
		return nil, err
	}
	return event.ZoneVolumeLocked{Zone: zone, Locked: locked}, nil
}

func crossoverArgs(c grammar.Captures) (model.ZoneID, int, error) {
	zone, err := zoneArg(c, 0)
	if err != nil {
		return 0, 0, err
	}
	hz, err := c.Int(1)
	if err != nil {
		return 0, 0, err
	}
	return zone, hz, model.ValidateCrossover(hz)
}

func decodeZoneHighpass(c grammar.Captures) (event.Event, error) {
	zone, hz, err := crossoverArgs(c)
	if err != nil {
		return nil, err
	}
	return event.ZoneHighpassCrossover{Zone: zone, Frequency: hz}, nil
}

func decodeZoneLowpass(c grammar.Captures) (event.Event, error) {
	zone, hz, err := crossoverArgs(c)
	if err != nil {
		return nil, err
	}
	return event.ZoneLowpassCrossover{Zone: zone, Frequency: hz}, nil
}

func decodeGroupMute(c grammar.Captures) (event.Event, error) {
	group, err := groupArg(c, 1)
	if err != nil {
		return nil, err
	}
	return event.GroupMute{Group: group, Mute: c[0] != grammar.TokenUnmuted}, nil
}

func decodeGroupSource(c grammar.Captures) (event.Event, error) {
	group, err := groupArg(c, 0)
	if err != nil {
		return nil, err
	}
	source, err := sourceArg(c, 1)
	if err != nil {
		return nil, err
	}
	return event.GroupSource{Group: group, Sources: []model.SourceID{source}}, nil
}

func decodeGroupVolume(c grammar.Captures) (event.Event, error) {
	group, err := groupArg(c, 0)
	if err != nil {
		return nil, err
	}
	level, err := c.Int(1)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateVolume(level); err != nil {
		return nil, err
	}
	return event.GroupVolume{Group: group, Volume: level}, nil
}

func decodeGroupName(c grammar.Captures) (event.Event, error) {
	group, err := groupArg(c, 0)
	if err != nil {
		return nil, err
	}
	name, err := nameArg(c, 1)
	if err != nil {
		return nil, err
	}
	return event.GroupName{Group: group, Name: name}, nil
}

func groupZoneArgs(c grammar.Captures) (model.GroupID, model.ZoneID, error) {
	group, err := groupArg(c, 0)
	if err != nil {
		return 0, 0, err
	}
	zone, err := zoneArg(c, 1)
	return group, zone, err
}

func decodeGroupZoneAdded(c grammar.Captures) (event.Event, error) {
	group, zone, err := groupZoneArgs(c)
	if err != nil {
		return nil, err
	}
	return event.GroupZoneAdded{Group: group, Zone: zone}, nil
}

func decodeGroupZoneRemoved(c grammar.Captures) (event.Event, error) {
	group, zone, err := groupZoneArgs(c)
	if err != nil {
		return nil, err
	}
	return event.GroupZoneRemoved{Group: group, Zone: zone}, nil
}

func decodeGroupVolumeAdjust(c grammar.Captures) (event.Event, error) {
	group, err := groupArg(c, 1)
	if err != nil {
		return nil, err
	}
	if c[0] == grammar.TokenUp {
		return event.GroupIncreaseVolume{Group: group}, nil
	}
	return event.GroupDecreaseVolume{Group: group}, nil
}

func decodePresetName(c grammar.Captures) (event.Event, error) {
	preset, err := presetArg(c, 0)
	if err != nil {
		return nil, err
	}
	name, err := nameArg(c, 1)
	if err != nil {
		return nil, err
	}
	return event.EqualizerPresetName{Preset: preset, Name: name}, nil
}

func decodePresetBand(c grammar.Captures) (event.Event, error) {
	preset, err := presetArg(c, 0)
	if err != nil {
		return nil, err
	}
	band, err := bandArg(c, 1)
	if err != nil {
		return nil, err
	}
	level, err := c.Int(2)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateEqualizerLevel(level); err != nil {
		return nil, err
	}
	return event.EqualizerPresetBand{Preset: preset, Band: band, Level: level}, nil
}

func decodeSourceName(c grammar.Captures) (event.Event, error) {
	source, err := sourceArg(c, 0)
	if err != nil {
		return nil, err
	}
	name, err := nameArg(c, 1)
	if err != nil {
		return nil, err
	}
	return event.SourceName{Source: source, Name: name}, nil
}

func decodeFavoriteName(c grammar.Captures) (event.Event, error) {
	v, err := c.Int(0)
	if err != nil {
		return nil, err
	}
	favorite := model.FavoriteID(v)
	if err := favorite.Validate(); err != nil {
		return nil, err
	}
	name, err := nameArg(c, 1)
	if err != nil {
		return nil, err
	}
	return event.FavoriteName{Favorite: favorite, Name: name}, nil
}

func decodeBrightness(c grammar.Captures) (event.Event, error) {
	level, err := c.Int(0)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateBrightness(level); err != nil {
		return nil, err
	}
	return event.FrontPanelBrightness{Brightness: level}, nil
}

func decodePanelLocked(c grammar.Captures) (event.Event, error) {
	locked, err := c.Bool(0)
	if err != nil {
		return nil, err
	}
	return event.FrontPanelLocked{Locked: locked}, nil
}

func decodeDHCPv4(c grammar.Captures) (event.Event, error) {
	enabled, err := c.Bool(0)
	if err != nil {
		return nil, err
	}
	return event.NetworkDHCPv4Enabled{Enabled: enabled}, nil
}

func decodeSDDP(c grammar.Captures) (event.Event, error) {
	enabled, err := c.Bool(0)
	if err != nil {
		return nil, err
	}
	return event.NetworkSDDPEnabled{Enabled: enabled}, nil
}

func decodeEUI48(c grammar.Captures) (event.Event, error) {
	address, err := model.NormalizeEUI48(c[0])
	if err != nil {
		return nil, err
	}
	return event.NetworkEthernetEUI48{Address: address}, nil
}

func decodeInfrared(c grammar.Captures) (event.Event, error) {
	disabled, err := c.Bool(0)
	if err != nil {
		return nil, err
	}
	return event.InfraredDisabled{Disabled: disabled}, nil
}
