package client

import (
	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// singleton runs the one-query refresh of a device-wide domain.
func (b *base) singleton(query *grammar.Pattern, after func(error)) error {
	return b.runRefresh(1, func(_ int, done func(error)) error {
		_, err := b.send(query.Format(), query, nil, nil, done)
		return err
	}, after)
}

// FrontPanel mirrors the front panel display and lock.
type FrontPanel struct {
	base
}

// Get returns the front panel state.
func (f *FrontPanel) Get() *model.FrontPanel { return &f.model.FrontPanel }

// Query asks the server for the front panel state.
func (f *FrontPanel) Query() (*exchange.Handle, error) {
	return f.send(grammar.FrontPanelQuery.Format(), grammar.FrontPanelQuery, nil, nil, nil)
}

func (f *FrontPanel) Refresh() error { return f.refreshThen(nil) }

func (f *FrontPanel) refreshThen(after func(error)) error {
	return f.singleton(grammar.FrontPanelQuery, after)
}

// SetBrightness sets the display brightness.
func (f *FrontPanel) SetBrightness(level int) (*exchange.Handle, error) {
	if err := model.ValidateBrightness(level); err != nil {
		return nil, err
	}
	return f.send(grammar.FrontPanelBrightness.Format(level), grammar.FrontPanelBrightness, nil,
		handler(grammar.FrontPanelBrightness, f.applyBrightness), nil)
}

// SetLocked locks or unlocks the front panel controls.
func (f *FrontPanel) SetLocked(locked bool) (*exchange.Handle, error) {
	return f.send(grammar.FrontPanelLocked.Format(grammar.Flag(locked)), grammar.FrontPanelLocked, nil,
		handler(grammar.FrontPanelLocked, f.applyLocked), nil)
}

// HandleBrightnessChange applies an observed brightness.
func (f *FrontPanel) HandleBrightnessChange(level int) (model.Status, error) {
	status, err := f.model.FrontPanel.SetBrightness(level)
	return f.publish(status, err, event.FrontPanelBrightness{Brightness: level})
}

// HandleLockedChange applies an observed lock state.
func (f *FrontPanel) HandleLockedChange(locked bool) (model.Status, error) {
	status, err := f.model.FrontPanel.SetLocked(locked)
	return f.publish(status, err, event.FrontPanelLocked{Locked: locked})
}

func (f *FrontPanel) applyBrightness(e event.FrontPanelBrightness) error {
	_, err := f.HandleBrightnessChange(e.Brightness)
	return err
}

func (f *FrontPanel) applyLocked(e event.FrontPanelLocked) error {
	_, err := f.HandleLockedChange(e.Locked)
	return err
}

func (f *FrontPanel) register(t *dispatch.Table) {
	on(t, grammar.FrontPanelBrightness, f.applyBrightness)
	on(t, grammar.FrontPanelLocked, f.applyLocked)
	ignore(t, f.logger, grammar.FrontPanelQuery)
}

// Network mirrors the Ethernet settings.
type Network struct {
	base
}

// Get returns the network state.
func (n *Network) Get() *model.Network { return &n.model.Network }

// Query asks the server for the network state.
func (n *Network) Query() (*exchange.Handle, error) {
	return n.send(grammar.NetworkQuery.Format(), grammar.NetworkQuery, nil, nil, nil)
}

func (n *Network) Refresh() error { return n.refreshThen(nil) }

func (n *Network) refreshThen(after func(error)) error {
	return n.singleton(grammar.NetworkQuery, after)
}

// SetDHCPv4Enabled turns DHCPv4 addressing on or off.
func (n *Network) SetDHCPv4Enabled(enabled bool) (*exchange.Handle, error) {
	return n.send(grammar.NetworkDHCPv4.Format(grammar.Flag(enabled)), grammar.NetworkDHCPv4, nil,
		handler(grammar.NetworkDHCPv4, n.applyDHCPv4), nil)
}

// SetSDDPEnabled turns SDDP announcements on or off.
func (n *Network) SetSDDPEnabled(enabled bool) (*exchange.Handle, error) {
	return n.send(grammar.NetworkSDDP.Format(grammar.Flag(enabled)), grammar.NetworkSDDP, nil,
		handler(grammar.NetworkSDDP, n.applySDDP), nil)
}

// HandleDHCPv4Change applies an observed DHCPv4 setting.
func (n *Network) HandleDHCPv4Change(enabled bool) (model.Status, error) {
	status, err := n.model.Network.SetDHCPv4Enabled(enabled)
	return n.publish(status, err, event.NetworkDHCPv4Enabled{Enabled: enabled})
}

// HandleSDDPChange applies an observed SDDP setting.
func (n *Network) HandleSDDPChange(enabled bool) (model.Status, error) {
	status, err := n.model.Network.SetSDDPEnabled(enabled)
	return n.publish(status, err, event.NetworkSDDPEnabled{Enabled: enabled})
}

// HandleEUI48Change applies an observed Ethernet address.
func (n *Network) HandleEUI48Change(address string) (model.Status, error) {
	status, err := n.model.Network.SetEUI48(address)
	if err != nil {
		return model.Invalid, err
	}
	return n.publish(status, nil, event.NetworkEthernetEUI48{Address: n.model.Network.EUI48})
}

func (n *Network) applyDHCPv4(e event.NetworkDHCPv4Enabled) error {
	_, err := n.HandleDHCPv4Change(e.Enabled)
	return err
}

func (n *Network) applySDDP(e event.NetworkSDDPEnabled) error {
	_, err := n.HandleSDDPChange(e.Enabled)
	return err
}

func (n *Network) applyEUI48(e event.NetworkEthernetEUI48) error {
	_, err := n.HandleEUI48Change(e.Address)
	return err
}

func (n *Network) register(t *dispatch.Table) {
	on(t, grammar.NetworkDHCPv4, n.applyDHCPv4)
	on(t, grammar.NetworkSDDP, n.applySDDP)
	on(t, grammar.NetworkEUI48, n.applyEUI48)
	ignore(t, n.logger, grammar.NetworkQuery)
}

// Infrared mirrors the IR receiver setting.
type Infrared struct {
	base
}

// Get returns the infrared state.
func (i *Infrared) Get() *model.Infrared { return &i.model.Infrared }

// Query asks the server for the infrared state.
func (i *Infrared) Query() (*exchange.Handle, error) {
	return i.send(grammar.InfraredQuery.Format(), grammar.InfraredQuery, nil, nil, nil)
}

func (i *Infrared) Refresh() error { return i.refreshThen(nil) }

func (i *Infrared) refreshThen(after func(error)) error {
	return i.singleton(grammar.InfraredQuery, after)
}

// SetDisabled makes the matrix ignore or obey its IR receiver.
func (i *Infrared) SetDisabled(disabled bool) (*exchange.Handle, error) {
	return i.send(grammar.InfraredDisabled.Format(grammar.Flag(disabled)), grammar.InfraredDisabled, nil,
		handler(grammar.InfraredDisabled, i.applyDisabled), nil)
}

// HandleDisabledChange applies an observed IR setting.
func (i *Infrared) HandleDisabledChange(disabled bool) (model.Status, error) {
	status, err := i.model.Infrared.SetDisabled(disabled)
	return i.publish(status, err, event.InfraredDisabled{Disabled: disabled})
}

func (i *Infrared) applyDisabled(e event.InfraredDisabled) error {
	_, err := i.HandleDisabledChange(e.Disabled)
	return err
}

func (i *Infrared) register(t *dispatch.Table) {
	on(t, grammar.InfraredDisabled, i.applyDisabled)
	ignore(t, i.logger, grammar.InfraredQuery)
}
