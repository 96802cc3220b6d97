package server

import (
	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// FrontPanel answers display requests.
type FrontPanel struct {
	base
}

func (f *FrontPanel) register(t *dispatch.Table) {
	t.Register(grammar.FrontPanelQuery, func(grammar.Captures) error {
		return f.query(f.state(), grammar.FrontPanelQuery.Format())
	})
	on(t, grammar.FrontPanelBrightness, func(e event.FrontPanelBrightness) error {
		status, err := f.model.FrontPanel.SetBrightness(e.Brightness)
		return f.change(status, err, e)
	})
	on(t, grammar.FrontPanelLocked, func(e event.FrontPanelLocked) error {
		status, err := f.model.FrontPanel.SetLocked(e.Locked)
		return f.change(status, err, e)
	})
}

func (f *FrontPanel) state() []event.Event {
	return []event.Event{
		event.FrontPanelBrightness{Brightness: f.model.FrontPanel.Brightness},
		event.FrontPanelLocked{Locked: f.model.FrontPanel.Locked},
	}
}

// Network answers Ethernet requests. The hardware address is reported
// but cannot be set over the wire.
type Network struct {
	base
}

func (n *Network) register(t *dispatch.Table) {
	t.Register(grammar.NetworkQuery, func(grammar.Captures) error {
		return n.query(n.state(), grammar.NetworkQuery.Format())
	})
	on(t, grammar.NetworkDHCPv4, func(e event.NetworkDHCPv4Enabled) error {
		status, err := n.model.Network.SetDHCPv4Enabled(e.Enabled)
		return n.change(status, err, e)
	})
	on(t, grammar.NetworkSDDP, func(e event.NetworkSDDPEnabled) error {
		status, err := n.model.Network.SetSDDPEnabled(e.Enabled)
		return n.change(status, err, e)
	})
}

func (n *Network) state() []event.Event {
	return []event.Event{
		event.NetworkDHCPv4Enabled{Enabled: n.model.Network.DHCPv4Enabled},
		event.NetworkSDDPEnabled{Enabled: n.model.Network.SDDPEnabled},
		event.NetworkEthernetEUI48{Address: n.model.Network.EUI48},
	}
}

// Infrared answers IR receiver requests.
type Infrared struct {
	base
}

func (i *Infrared) register(t *dispatch.Table) {
	t.Register(grammar.InfraredQuery, func(grammar.Captures) error {
		return i.query(i.state(), grammar.InfraredQuery.Format())
	})
	on(t, grammar.InfraredDisabled, func(e event.InfraredDisabled) error {
		status, err := i.model.Infrared.SetDisabled(e.Disabled)
		return i.change(status, err, e)
	})
}

func (i *Infrared) state() []event.Event {
	return []event.Event{event.InfraredDisabled{Disabled: i.model.Infrared.Disabled}}
}
