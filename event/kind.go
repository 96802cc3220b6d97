// Package event defines the typed state-change events of the HLX engine and
// the synchronous bus that carries them.
//
// The event set is closed. Each variant is a small value struct carrying a
// snapshot of the changed fields; subscribers never receive references into
// the model.
package event

// Kind enumerates the event variants.
type Kind int

const (
	KindZoneMute Kind = iota + 1
	KindZoneSource
	KindZoneVolume
	KindZoneName
	KindZoneBalance
	KindZoneTone
	KindZoneSoundMode
	KindZoneEqualizerBand
	KindZoneEqualizerPreset
	KindZoneVolumeLocked
	KindZoneHighpassCrossover
	KindZoneLowpassCrossover
	KindGroupMute
	KindGroupSource
	KindGroupVolume
	KindGroupName
	KindGroupZoneAdded
	KindGroupZoneRemoved
	KindEqualizerPresetName
	KindEqualizerPresetBand
	KindSourceName
	KindFavoriteName
	KindFrontPanelBrightness
	KindFrontPanelLocked
	KindNetworkDHCPv4Enabled
	KindNetworkSDDPEnabled
	KindNetworkEthernetEUI48
	KindInfraredDisabled
	KindRefreshComplete
	KindControllerError

	// Internal kinds carry group commands from the group controller to the
	// deriver. They never leave the client application.
	KindGroupSetMute
	KindGroupSetSource
	KindGroupSetVolume
	KindGroupIncreaseVolume
	KindGroupDecreaseVolume
)

var kindNames = map[Kind]string{
	KindZoneMute:              "ZoneMute",
	KindZoneSource:            "ZoneSource",
	KindZoneVolume:            "ZoneVolume",
	KindZoneName:              "ZoneName",
	KindZoneBalance:           "ZoneBalance",
	KindZoneTone:              "ZoneTone",
	KindZoneSoundMode:         "ZoneSoundMode",
	KindZoneEqualizerBand:     "ZoneEqualizerBand",
	KindZoneEqualizerPreset:   "ZoneEqualizerPreset",
	KindZoneVolumeLocked:      "ZoneVolumeLocked",
	KindZoneHighpassCrossover: "ZoneHighpassCrossover",
	KindZoneLowpassCrossover:  "ZoneLowpassCrossover",
	KindGroupMute:             "GroupMute",
	KindGroupSource:           "GroupSource",
	KindGroupVolume:           "GroupVolume",
	KindGroupName:             "GroupName",
	KindGroupZoneAdded:        "GroupZoneAdded",
	KindGroupZoneRemoved:      "GroupZoneRemoved",
	KindEqualizerPresetName:   "EqualizerPresetName",
	KindEqualizerPresetBand:   "EqualizerPresetBand",
	KindSourceName:            "SourceName",
	KindFavoriteName:          "FavoriteName",
	KindFrontPanelBrightness:  "FrontPanelBrightness",
	KindFrontPanelLocked:      "FrontPanelLocked",
	KindNetworkDHCPv4Enabled:  "NetworkDHCPv4Enabled",
	KindNetworkSDDPEnabled:    "NetworkSDDPEnabled",
	KindNetworkEthernetEUI48:  "NetworkEthernetEUI48",
	KindInfraredDisabled:      "InfraredDisabled",
	KindRefreshComplete:       "RefreshComplete",
	KindControllerError:       "ControllerError",
	KindGroupSetMute:          "GroupSetMute",
	KindGroupSetSource:        "GroupSetSource",
	KindGroupSetVolume:        "GroupSetVolume",
	KindGroupIncreaseVolume:   "GroupIncreaseVolume",
	KindGroupDecreaseVolume:   "GroupDecreaseVolume",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Internal reports whether k must stay inside the client application.
func (k Kind) Internal() bool {
	return k >= KindGroupSetMute && k <= KindGroupDecreaseVolume
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindZoneMute; k <= KindGroupDecreaseVolume; k++ {
		out = append(out, k)
	}
	return out
}

// Domain names a controller, used by RefreshComplete.
type Domain int

const (
	DomainZones Domain = iota + 1
	DomainGroups
	DomainEqualizerPresets
	DomainSources
	DomainFavorites
	DomainFrontPanel
	DomainNetwork
	DomainInfrared
	DomainConfiguration
)

func (d Domain) String() string {
	switch d {
	case DomainZones:
		return "Zones"
	case DomainGroups:
		return "Groups"
	case DomainEqualizerPresets:
		return "EqualizerPresets"
	case DomainSources:
		return "Sources"
	case DomainFavorites:
		return "Favorites"
	case DomainFrontPanel:
		return "FrontPanel"
	case DomainNetwork:
		return "Network"
	case DomainInfrared:
		return "Infrared"
	case DomainConfiguration:
		return "Configuration"
	default:
		return "Unknown"
	}
}
