package event

import "github.com/c360/hlxmatrix/model"

// Event is one state change.
type Event interface {
	Kind() Kind
}

type (
	ZoneMute struct {
		Zone model.ZoneID `json:"zone"`
		Mute bool         `json:"mute"`
	}
	ZoneSource struct {
		Zone   model.ZoneID   `json:"zone"`
		Source model.SourceID `json:"source"`
	}
	ZoneVolume struct {
		Zone   model.ZoneID `json:"zone"`
		Volume int          `json:"volume"`
	}
	ZoneName struct {
		Zone model.ZoneID `json:"zone"`
		Name string       `json:"name"`
	}
	ZoneBalance struct {
		Zone    model.ZoneID `json:"zone"`
		Balance int          `json:"balance"`
	}
	ZoneTone struct {
		Zone   model.ZoneID `json:"zone"`
		Bass   int          `json:"bass"`
		Treble int          `json:"treble"`
	}
	ZoneSoundMode struct {
		Zone model.ZoneID    `json:"zone"`
		Mode model.SoundMode `json:"mode"`
	}
	ZoneEqualizerBand struct {
		Zone  model.ZoneID `json:"zone"`
		Band  model.BandID `json:"band"`
		Level int          `json:"level"`
	}
	ZoneEqualizerPreset struct {
		Zone   model.ZoneID   `json:"zone"`
		Preset model.PresetID `json:"preset"`
	}
	ZoneVolumeLocked struct {
		Zone   model.ZoneID `json:"zone"`
		Locked bool         `json:"locked"`
	}
	ZoneHighpassCrossover struct {
		Zone      model.ZoneID `json:"zone"`
		Frequency int          `json:"frequency"`
	}
	ZoneLowpassCrossover struct {
		Zone      model.ZoneID `json:"zone"`
		Frequency int          `json:"frequency"`
	}
)

type (
	GroupMute struct {
		Group model.GroupID `json:"group"`
		Mute  bool          `json:"mute"`
	}
	// GroupSource carries the set of sources among the members. More than
	// one element means the group is split.
	GroupSource struct {
		Group   model.GroupID    `json:"group"`
		Sources []model.SourceID `json:"sources"`
	}
	GroupVolume struct {
		Group  model.GroupID `json:"group"`
		Volume int           `json:"volume"`
	}
	GroupName struct {
		Group model.GroupID `json:"group"`
		Name  string        `json:"name"`
	}
	GroupZoneAdded struct {
		Group model.GroupID `json:"group"`
		Zone  model.ZoneID  `json:"zone"`
	}
	GroupZoneRemoved struct {
		Group model.GroupID `json:"group"`
		Zone  model.ZoneID  `json:"zone"`
	}
)

type (
	EqualizerPresetName struct {
		Preset model.PresetID `json:"preset"`
		Name   string         `json:"name"`
	}
	EqualizerPresetBand struct {
		Preset model.PresetID `json:"preset"`
		Band   model.BandID   `json:"band"`
		Level  int            `json:"level"`
	}
	SourceName struct {
		Source model.SourceID `json:"source"`
		Name   string         `json:"name"`
	}
	FavoriteName struct {
		Favorite model.FavoriteID `json:"favorite"`
		Name     string           `json:"name"`
	}
	FrontPanelBrightness struct {
		Brightness int `json:"brightness"`
	}
	FrontPanelLocked struct {
		Locked bool `json:"locked"`
	}
	NetworkDHCPv4Enabled struct {
		Enabled bool `json:"enabled"`
	}
	NetworkSDDPEnabled struct {
		Enabled bool `json:"enabled"`
	}
	NetworkEthernetEUI48 struct {
		Address string `json:"address"`
	}
	InfraredDisabled struct {
		Disabled bool `json:"disabled"`
	}
)

// RefreshComplete fires once per Refresh of a domain, after every query
// of that refresh finished.
type RefreshComplete struct {
	Domain Domain `json:"domain"`
}

// ControllerError reports a failure that has no synchronous caller, such
// as an exchange timeout or a lost transport.
type ControllerError struct {
	ErrorKind string `json:"kind"`
	Detail    string `json:"detail"`
}

// Internal group commands.
type (
	GroupSetMute struct {
		Group model.GroupID
		Mute  bool
	}
	GroupSetSource struct {
		Group  model.GroupID
		Source model.SourceID
	}
	GroupSetVolume struct {
		Group  model.GroupID
		Volume int
	}
	GroupIncreaseVolume struct {
		Group model.GroupID
	}
	GroupDecreaseVolume struct {
		Group model.GroupID
	}
)

func (ZoneMute) Kind() Kind              { return KindZoneMute }
func (ZoneSource) Kind() Kind            { return KindZoneSource }
func (ZoneVolume) Kind() Kind            { return KindZoneVolume }
func (ZoneName) Kind() Kind              { return KindZoneName }
func (ZoneBalance) Kind() Kind           { return KindZoneBalance }
func (ZoneTone) Kind() Kind              { return KindZoneTone }
func (ZoneSoundMode) Kind() Kind         { return KindZoneSoundMode }
func (ZoneEqualizerBand) Kind() Kind     { return KindZoneEqualizerBand }
func (ZoneEqualizerPreset) Kind() Kind   { return KindZoneEqualizerPreset }
func (ZoneVolumeLocked) Kind() Kind      { return KindZoneVolumeLocked }
func (ZoneHighpassCrossover) Kind() Kind { return KindZoneHighpassCrossover }
func (ZoneLowpassCrossover) Kind() Kind  { return KindZoneLowpassCrossover }
func (GroupMute) Kind() Kind             { return KindGroupMute }
func (GroupSource) Kind() Kind           { return KindGroupSource }
func (GroupVolume) Kind() Kind           { return KindGroupVolume }
func (GroupName) Kind() Kind             { return KindGroupName }
func (GroupZoneAdded) Kind() Kind        { return KindGroupZoneAdded }
func (GroupZoneRemoved) Kind() Kind      { return KindGroupZoneRemoved }
func (EqualizerPresetName) Kind() Kind   { return KindEqualizerPresetName }
func (EqualizerPresetBand) Kind() Kind   { return KindEqualizerPresetBand }
func (SourceName) Kind() Kind            { return KindSourceName }
func (FavoriteName) Kind() Kind          { return KindFavoriteName }
func (FrontPanelBrightness) Kind() Kind  { return KindFrontPanelBrightness }
func (FrontPanelLocked) Kind() Kind      { return KindFrontPanelLocked }
func (NetworkDHCPv4Enabled) Kind() Kind  { return KindNetworkDHCPv4Enabled }
func (NetworkSDDPEnabled) Kind() Kind    { return KindNetworkSDDPEnabled }
func (NetworkEthernetEUI48) Kind() Kind  { return KindNetworkEthernetEUI48 }
func (InfraredDisabled) Kind() Kind      { return KindInfraredDisabled }
func (RefreshComplete) Kind() Kind       { return KindRefreshComplete }
func (ControllerError) Kind() Kind       { return KindControllerError }
func (GroupSetMute) Kind() Kind          { return KindGroupSetMute }
func (GroupSetSource) Kind() Kind        { return KindGroupSetSource }
func (GroupSetVolume) Kind() Kind        { return KindGroupSetVolume }
func (GroupIncreaseVolume) Kind() Kind   { return KindGroupIncreaseVolume }
func (GroupDecreaseVolume) Kind() Kind   { return KindGroupDecreaseVolume }

// IsInternal reports whether e must not reach external subscribers.
func IsInternal(e Event) bool {
	return e != nil && e.Kind().Internal()
}
