package model

import (
	"fmt"
	"net"
	"strings"

	"github.com/c360/hlxmatrix/errors"
)

// EqualizerPreset is a named set of band levels.
type EqualizerPreset struct {
	ID    PresetID               `json:"id"`
	Name  string                 `json:"name"`
	Bands [MaxEqualizerBands]int `json:"bands"`
}

// SetName sets the preset name.
func (p *EqualizerPreset) SetName(name string) (Status, error) {
	if err := ValidateName(name); err != nil {
		return Invalid, err
	}
	return set(&p.Name, name), nil
}

// SetBand sets one band level.
func (p *EqualizerPreset) SetBand(band BandID, level int) (Status, error) {
	if err := band.Validate(); err != nil {
		return Invalid, err
	}
	if err := ValidateEqualizerLevel(level); err != nil {
		return Invalid, err
	}
	return set(&p.Bands[band-1], level), nil
}

// Band returns the level of band.
func (p *EqualizerPreset) Band(band BandID) (int, error) {
	if err := band.Validate(); err != nil {
		return 0, err
	}
	return p.Bands[band-1], nil
}

// Source is an audio input.
type Source struct {
	ID   SourceID `json:"id"`
	Name string   `json:"name"`
}

// SetName sets the source name.
func (s *Source) SetName(name string) (Status, error) {
	if err := ValidateName(name); err != nil {
		return Invalid, err
	}
	return set(&s.Name, name), nil
}

// Favorite is a named favorite slot.
type Favorite struct {
	ID   FavoriteID `json:"id"`
	Name string     `json:"name"`
}

// SetName sets the favorite name.
func (f *Favorite) SetName(name string) (Status, error) {
	if err := ValidateName(name); err != nil {
		return Invalid, err
	}
	return set(&f.Name, name), nil
}

// FrontPanel holds the display brightness and the panel lock.
type FrontPanel struct {
	Brightness int  `json:"brightness"`
	Locked     bool `json:"locked"`
}

// SetBrightness sets the display brightness.
func (f *FrontPanel) SetBrightness(level int) (Status, error) {
	if err := ValidateBrightness(level); err != nil {
		return Invalid, err
	}
	return set(&f.Brightness, level), nil
}

// SetLocked sets the panel lock.
func (f *FrontPanel) SetLocked(locked bool) (Status, error) {
	return set(&f.Locked, locked), nil
}

// Network holds the Ethernet settings.
type Network struct {
	DHCPv4Enabled bool   `json:"dhcpv4_enabled"`
	SDDPEnabled   bool   `json:"sddp_enabled"`
	EUI48         string `json:"eui48"`
}

// SetDHCPv4Enabled sets whether DHCPv4 is used.
func (n *Network) SetDHCPv4Enabled(enabled bool) (Status, error) {
	return set(&n.DHCPv4Enabled, enabled), nil
}

// SetSDDPEnabled sets whether SDDP discovery is answered.
func (n *Network) SetSDDPEnabled(enabled bool) (Status, error) {
	return set(&n.SDDPEnabled, enabled), nil
}

// SetEUI48 sets the Ethernet address. Colon or hyphen separators are
// accepted; the stored form is upper case with colons.
func (n *Network) SetEUI48(address string) (Status, error) {
	normalized, err := NormalizeEUI48(address)
	if err != nil {
		return Invalid, err
	}
	return set(&n.EUI48, normalized), nil
}

// NormalizeEUI48 parses a six-octet hardware address and returns it upper
// case with colon separators.
func NormalizeEUI48(address string) (string, error) {
	hw, err := net.ParseMAC(address)
	if err != nil || len(hw) != 6 {
		return "", fmt.Errorf("EUI-48 %q: %w", address, errors.ErrInvalidArgument)
	}
	return strings.ToUpper(hw.String()), nil
}

// Infrared holds the IR receiver setting.
type Infrared struct {
	Disabled bool `json:"disabled"`
}

// SetDisabled sets whether the IR receiver is ignored.
func (i *Infrared) SetDisabled(disabled bool) (Status, error) {
	return set(&i.Disabled, disabled), nil
}
