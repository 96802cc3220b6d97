package grammar

// Object and operation tokens.
const (
	TokenZone            = "O"
	TokenGroup           = "G"
	TokenEqualizerPreset = "EP"
	TokenSource          = "I"
	TokenFavorite        = "F"
	TokenFrontPanel      = "FP"
	TokenNetwork         = "E"
	TokenInfrared        = "IR"
	TokenQuery           = "Q"
	TokenName            = "N"
	TokenUp              = "U"
	TokenDown            = "D"
	TokenLeft            = "L"
	TokenRight           = "R"
	TokenUnmuted         = "U"
	TokenBass            = "B"
	TokenTreble          = "T"
)

// Zone.
var (
	ZoneQuery               = mustCompile("ZoneQuery", `QO(\d+)`, 1, "QO%d")
	ZoneName                = mustCompile("ZoneName", `NO(\d+)"([^"]*)"`, 2, `NO%d"%s"`)
	ZoneVolume              = mustCompile("ZoneVolume", `VO(\d+)R(-?\d+)`, 2, "VO%dR%d")
	ZoneVolumeAdjust        = mustCompile("ZoneVolumeAdjust", `VO(\d+)([UD])`, 2, "VO%d%s")
	ZoneVolumeFixed         = mustCompile("ZoneVolumeFixed", `VFO(\d+)R([01])`, 2, "VFO%dR%d")
	ZoneMute                = mustCompile("ZoneMute", `V(U?)MO(\d+)`, 2, "V%sMO%d")
	ZoneMuteToggle          = mustCompile("ZoneMuteToggle", `VMO(\d+)T`, 1, "VMO%dT")
	ZoneSource              = mustCompile("ZoneSource", `CO(\d+)I(\d+)`, 2, "CO%dI%d")
	AllZonesSource          = mustCompile("AllZonesSource", `XC(\d+)`, 1, "XC%d")
	ZoneBalance             = mustCompile("ZoneBalance", `BO(\d+)([LR])(\d+)`, 3, "BO%d%s%d")
	ZoneBalanceAdjust       = mustCompile("ZoneBalanceAdjust", `BO(\d+)([LR])U`, 2, "BO%d%sU")
	ZoneSoundMode           = mustCompile("ZoneSoundMode", `EMO(\d+)M(\d+)`, 2, "EMO%dM%d")
	ZoneTone                = mustCompile("ZoneTone", `TO(\d+)B(-?\d+)T(-?\d+)`, 3, "TO%dB%dT%d")
	ZoneToneAdjust          = mustCompile("ZoneToneAdjust", `TO(\d+)([BT])([UD])`, 3, "TO%d%s%s")
	ZoneEqualizerBand       = mustCompile("ZoneEqualizerBand", `EO(\d+)B(\d+)R(-?\d+)`, 3, "EO%dB%dR%d")
	ZoneEqualizerBandAdjust = mustCompile("ZoneEqualizerBandAdjust", `EO(\d+)B(\d+)([UD])`, 3, "EO%dB%d%s")
	ZoneEqualizerPreset     = mustCompile("ZoneEqualizerPreset", `EO(\d+)P(\d+)`, 2, "EO%dP%d")
	ZoneHighpassCrossover   = mustCompile("ZoneHighpassCrossover", `EHO(\d+)F(\d+)`, 2, "EHO%dF%d")
	ZoneLowpassCrossover    = mustCompile("ZoneLowpassCrossover", `ELO(\d+)F(\d+)`, 2, "ELO%dF%d")
)

// Group.
var (
	GroupQuery        = mustCompile("GroupQuery", `QG(\d+)`, 1, "QG%d")
	GroupName         = mustCompile("GroupName", `NG(\d+)"([^"]*)"`, 2, `NG%d"%s"`)
	GroupMute         = mustCompile("GroupMute", `G(U?)M(\d+)`, 2, "G%sM%d")
	GroupMuteToggle   = mustCompile("GroupMuteToggle", `GMT(\d+)`, 1, "GMT%d")
	GroupSource       = mustCompile("GroupSource", `GC(\d+),(\d+)`, 2, "GC%d,%d")
	GroupVolume       = mustCompile("GroupVolume", `GV(\d+),(-?\d+)`, 2, "GV%d,%d")
	GroupVolumeAdjust = mustCompile("GroupVolumeAdjust", `GV([UD])(\d+)`, 2, "GV%s%d")
	GroupZoneAdd      = mustCompile("GroupZoneAdd", `G(\d+)AO(\d+)`, 2, "G%dAO%d")
	GroupZoneRemove   = mustCompile("GroupZoneRemove", `G(\d+)RO(\d+)`, 2, "G%dRO%d")
)

// Equalizer preset.
var (
	EqualizerPresetQuery      = mustCompile("EqualizerPresetQuery", `QEP(\d+)`, 1, "QEP%d")
	EqualizerPresetName       = mustCompile("EqualizerPresetName", `NEP(\d+)"([^"]*)"`, 2, `NEP%d"%s"`)
	EqualizerPresetBand       = mustCompile("EqualizerPresetBand", `EP(\d+)B(\d+)R(-?\d+)`, 3, "EP%dB%dR%d")
	EqualizerPresetBandAdjust = mustCompile("EqualizerPresetBandAdjust", `EP(\d+)B(\d+)([UD])`, 3, "EP%dB%d%s")
)

// Source and favorite.
var (
	SourceQuery   = mustCompile("SourceQuery", `QI(\d+)`, 1, "QI%d")
	SourceName    = mustCompile("SourceName", `NI(\d+)"([^"]*)"`, 2, `NI%d"%s"`)
	FavoriteQuery = mustCompile("FavoriteQuery", `QF(\d+)`, 1, "QF%d")
	FavoriteName  = mustCompile("FavoriteName", `NF(\d+)"([^"]*)"`, 2, `NF%d"%s"`)
)

// Front panel, network and infrared.
var (
	FrontPanelQuery      = mustCompile("FrontPanelQuery", `QFP`, 0, "QFP")
	FrontPanelBrightness = mustCompile("FrontPanelBrightness", `FPB(\d+)`, 1, "FPB%d")
	FrontPanelLocked     = mustCompile("FrontPanelLocked", `FPL([01])`, 1, "FPL%d")

	NetworkQuery     = mustCompile("NetworkQuery", `QE`, 0, "QE")
	NetworkDHCPv4    = mustCompile("NetworkDHCPv4", `EDHCP([01])`, 1, "EDHCP%d")
	NetworkSDDP      = mustCompile("NetworkSDDP", `ESDDP([01])`, 1, "ESDDP%d")
	NetworkEUI48     = mustCompile("NetworkEUI48", `EMAC([0-9A-Fa-f]{2}(?:[:-][0-9A-Fa-f]{2}){5})`, 1, "EMAC%s")
	InfraredQuery    = mustCompile("InfraredQuery", `QIR`, 0, "QIR")
	InfraredDisabled = mustCompile("InfraredDisabled", `IRL([01])`, 1, "IRL%d")
)

// Configuration and errors.
var (
	ConfigurationQuery = mustCompile("ConfigurationQuery", `QX`, 0, "QX")
	ConfigurationSave  = mustCompile("ConfigurationSave", `SAVE`, 0, "SAVE")
	ConfigurationLoad  = mustCompile("ConfigurationLoad", `LOAD`, 0, "LOAD")
	ConfigurationReset = mustCompile("ConfigurationReset", `RESET`, 0, "RESET")
	Error              = mustCompile("Error", `ERR`, 0, "ERR")
)

// Flag renders a boolean as its wire digit.
func Flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// MuteToken renders a mute state: empty for muted, "U" for unmuted.
func MuteToken(muted bool) string {
	if muted {
		return ""
	}
	return TokenUnmuted
}
