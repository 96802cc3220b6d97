package client

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/pkg/clock"
)

func refreshCompletions(events []event.Event) []event.Domain {
	var out []event.Domain
	for _, e := range events {
		if rc, ok := e.(event.RefreshComplete); ok {
			out = append(out, rc.Domain)
		}
	}
	return out
}

func TestNewRequiresTimers(t *testing.T) {
	_, err := New(Deps{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotInitialized)
	assert.True(t, errors.IsFatal(err))
}

func TestRepeatedNotificationPublishesOnce(t *testing.T) {
	h := newHarness(t)

	h.notify("BO4L3", "BO4L3", "BO4L3")

	assert.Equal(t, []event.Event{event.ZoneBalance{Zone: 4, Balance: -3}}, h.events())
}

func TestZeroBalanceNormalized(t *testing.T) {
	h := newHarness(t)
	h.notify("BO4R5")
	h.reset()

	h.notify("BO4L0")
	h.notify("BO4R0")

	assert.Equal(t, []event.Event{event.ZoneBalance{Zone: 4, Balance: 0}}, h.events())
}

func TestZoneMutatorValidation(t *testing.T) {
	h := newHarness(t)
	zones := h.app.Zones()

	tests := []struct {
		name string
		call func() (*exchange.Handle, error)
		kind error
	}{
		{"zone zero", func() (*exchange.Handle, error) { return zones.SetVolume(0, -10) }, errors.ErrRange},
		{"zone past max", func() (*exchange.Handle, error) { return zones.SetMute(25, true) }, errors.ErrRange},
		{"volume too loud", func() (*exchange.Handle, error) { return zones.SetVolume(1, 5) }, errors.ErrRange},
		{"volume too quiet", func() (*exchange.Handle, error) { return zones.SetVolume(1, -81) }, errors.ErrRange},
		{"empty name", func() (*exchange.Handle, error) { return zones.SetName(1, "") }, errors.ErrInvalidArgument},
		{"long name", func() (*exchange.Handle, error) { return zones.SetName(1, "abcdefghijklmnopq") }, errors.ErrRange},
		{"source zero", func() (*exchange.Handle, error) { return zones.SetSource(1, 0) }, errors.ErrRange},
		{"all sources past max", func() (*exchange.Handle, error) { return zones.SetAllSources(9) }, errors.ErrRange},
		{"band zero", func() (*exchange.Handle, error) { return zones.SetEqualizerBand(1, 0, 0) }, errors.ErrRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, err := tt.call()
			assert.Nil(t, handle)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
	assert.Empty(t, h.sink.frames)
	assert.Empty(t, h.events())
}

func TestZoneMutatorFrames(t *testing.T) {
	h := newHarness(t)
	zones := h.app.Zones()

	tests := []struct {
		call     func() (*exchange.Handle, error)
		request  string
		response string
		want     event.Event
	}{
		{func() (*exchange.Handle, error) { return zones.SetVolume(3, -25) }, "[VO3R-25]", "VO3R-25", event.ZoneVolume{Zone: 3, Volume: -25}},
		{func() (*exchange.Handle, error) { return zones.IncreaseVolume(3) }, "[VO3U]", "VO3R-24", event.ZoneVolume{Zone: 3, Volume: -24}},
		{func() (*exchange.Handle, error) { return zones.SetMute(3, true) }, "[VMO3]", "VMO3", event.ZoneMute{Zone: 3, Mute: true}},
		{func() (*exchange.Handle, error) { return zones.ToggleMute(3) }, "[VMO3T]", "VUMO3", event.ZoneMute{Zone: 3, Mute: false}},
		{func() (*exchange.Handle, error) { return zones.SetSource(3, 6) }, "[CO3I6]", "CO3I6", event.ZoneSource{Zone: 3, Source: 6}},
		{func() (*exchange.Handle, error) { return zones.SetBalance(3, 4) }, "[BO3R4]", "BO3R4", event.ZoneBalance{Zone: 3, Balance: 4}},
		{func() (*exchange.Handle, error) { return zones.IncreaseBass(3) }, "[TO3BU]", "TO3B1T0", event.ZoneTone{Zone: 3, Bass: 1, Treble: 0}},
		{func() (*exchange.Handle, error) { return zones.SetEqualizerBand(3, 2, -4) }, "[EO3B2R-4]", "EO3B2R-4", event.ZoneEqualizerBand{Zone: 3, Band: 2, Level: -4}},
	}
	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			h.reset()
			handle, err := tt.call()
			require.NoError(t, err)
			assert.Equal(t, tt.request, h.lastFrame())

			h.notify(tt.response)

			assert.Equal(t, exchange.Completed, handle.State())
			assert.Equal(t, []event.Event{tt.want}, h.events())
		})
	}
}

func TestResponseForAnotherZoneIsNotification(t *testing.T) {
	h := newHarness(t)
	handle, err := h.app.Zones().SetVolume(3, -25)
	require.NoError(t, err)

	h.notify("VO4R-60")

	assert.Equal(t, exchange.Pending, handle.State())
	assert.Equal(t, []event.Event{event.ZoneVolume{Zone: 4, Volume: -60}}, h.events())
}

func TestRejectedRequestReported(t *testing.T) {
	h := newHarness(t)
	handle, err := h.app.Zones().SetVolume(3, -25)
	require.NoError(t, err)

	h.notify("ERR")

	assert.Equal(t, exchange.Failed, handle.State())
	assert.ErrorIs(t, handle.Err(), errors.ErrRequestRejected)
	require.Len(t, h.events(), 1)
	assert.Equal(t, "RequestRejected", h.events()[0].(event.ControllerError).ErrorKind)
	zone, _ := h.app.Zones().Get(3)
	assert.Equal(t, model.DefaultZoneVolume, zone.Volume)
}

func TestRefreshCompletesOnce(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.app.Zones().Refresh())
	assert.Equal(t, RefreshRequested, h.app.Zones().RefreshState())

	// A second request joins the outstanding refresh.
	require.NoError(t, h.app.Zones().Refresh())

	for i := 1; i <= model.MaxZones; i++ {
		assert.Empty(t, refreshCompletions(h.events()), "after %d answers", i-1)
		require.NotNil(t, h.app.Exchanges().Pending())
		h.notify(h.app.Exchanges().Pending().Payload())
	}

	assert.Equal(t, []event.Domain{event.DomainZones}, refreshCompletions(h.events()))
	assert.Equal(t, RefreshDone, h.app.Zones().RefreshState())
	assert.Nil(t, h.app.Exchanges().Pending())

	h.notify("QO1", "VO1R-3")
	assert.Len(t, refreshCompletions(h.events()), 1)
}

func TestRefreshAbandonedOnFailure(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.app.Sources().Refresh())

	h.notify("QI1")
	h.clock.Advance(testTimeout)

	assert.Empty(t, refreshCompletions(h.events()))
	assert.Equal(t, RefreshIdle, h.app.Sources().RefreshState())
	assert.False(t, h.app.Refreshing())
}

func TestRefreshSuppressesDerivation(t *testing.T) {
	h := newHarness(t)
	h.notify("G1AO2", "G1AO5")
	h.reset()
	require.NoError(t, h.app.Zones().Refresh())

	h.notify("VMO2", "VMO5")
	group, _ := h.app.Groups().Get(1)
	assert.False(t, group.Mute)

	h.echoPending()

	assert.True(t, group.Mute)
	assert.Contains(t, h.events(), event.GroupMute{Group: 1, Mute: true})
}

func TestConfigurationRefresh(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.app.Configuration().Refresh())
	assert.True(t, h.app.Refreshing())

	answered := h.echoPending()

	want := model.MaxZones + model.MaxGroups + model.MaxEqualizerPresets +
		model.MaxSources + model.MaxFavorites + 3
	assert.Equal(t, want, answered)
	assert.Equal(t, []event.Domain{
		event.DomainZones,
		event.DomainGroups,
		event.DomainEqualizerPresets,
		event.DomainSources,
		event.DomainFavorites,
		event.DomainFrontPanel,
		event.DomainNetwork,
		event.DomainInfrared,
		event.DomainConfiguration,
	}, refreshCompletions(h.events()))
	assert.False(t, h.app.Refreshing())
}

func TestGroupQueryReconcilesMembers(t *testing.T) {
	h := newHarness(t)
	h.notify("G1AO2", "G1AO5")
	h.reset()

	handle, err := h.app.Groups().Query(1)
	require.NoError(t, err)
	assert.Equal(t, "[QG1]", h.lastFrame())

	h.notify(`NG1"Upstairs"`, "G1AO2", "G1AO7", "QG1")

	assert.Equal(t, exchange.Completed, handle.State())
	group, _ := h.app.Groups().Get(1)
	assert.Equal(t, "Upstairs", group.Name)
	assert.ElementsMatch(t, []model.ZoneID{2, 7}, group.Members)
	assert.Contains(t, h.events(), event.GroupZoneAdded{Group: 1, Zone: 7})
	assert.Contains(t, h.events(), event.GroupZoneRemoved{Group: 1, Zone: 5})
}

func TestOverlappingGroupQueriesKeepMembers(t *testing.T) {
	h := newHarness(t)
	h.notify("G1AO2", "G1AO5")
	h.reset()

	first, err := h.app.Groups().Query(1)
	require.NoError(t, err)
	second, err := h.app.Groups().Query(1)
	require.NoError(t, err)

	h.notify(`NG1"Group 1"`, "G1AO2", "G1AO5", "QG1")
	assert.Equal(t, exchange.Completed, first.State())
	assert.Equal(t, "[QG1]", h.lastFrame())

	h.notify(`NG1"Group 1"`, "G1AO2", "G1AO5", "QG1")
	assert.Equal(t, exchange.Completed, second.State())

	group, _ := h.app.Groups().Get(1)
	assert.ElementsMatch(t, []model.ZoneID{2, 5}, group.Members)
	for _, e := range h.events() {
		assert.NotEqual(t, event.KindGroupZoneRemoved, e.Kind(), "no member removed: %#v", e)
	}
}

func TestGroupMembershipCommands(t *testing.T) {
	h := newHarness(t)

	handle, err := h.app.Groups().AddZone(2, 8)
	require.NoError(t, err)
	assert.Equal(t, "[G2AO8]", h.lastFrame())
	h.notify("G2AO8")
	assert.Equal(t, exchange.Completed, handle.State())

	handle, err = h.app.Groups().RemoveZone(2, 8)
	require.NoError(t, err)
	assert.Equal(t, "[G2RO8]", h.lastFrame())
	h.notify("G2RO8")
	assert.Equal(t, exchange.Completed, handle.State())

	assert.Equal(t, []event.Event{
		event.GroupZoneAdded{Group: 2, Zone: 8},
		event.GroupSource{Group: 2, Sources: []model.SourceID{1}},
		event.GroupVolume{Group: 2, Volume: model.DefaultZoneVolume},
		event.GroupZoneRemoved{Group: 2, Zone: 8},
		event.GroupSource{Group: 2, Sources: []model.SourceID{}},
		event.GroupVolume{Group: 2, Volume: model.VolumeMin},
	}, h.events())
}

func TestGroupNameAlreadySet(t *testing.T) {
	h := newHarness(t)

	status, err := h.app.Groups().HandleNameChange(4, "Patio")
	require.NoError(t, err)
	assert.Equal(t, model.Applied, status)
	status, err = h.app.Groups().HandleNameChange(4, "Patio")
	require.NoError(t, err)
	assert.Equal(t, model.AlreadySet, status)

	assert.Equal(t, []event.Event{event.GroupName{Group: 4, Name: "Patio"}}, h.events())
}

func TestAllZonesSource(t *testing.T) {
	h := newHarness(t)
	handle, err := h.app.Zones().SetAllSources(4)
	require.NoError(t, err)
	assert.Equal(t, "[XC4]", h.lastFrame())

	h.notify("XC4")

	assert.Equal(t, exchange.Completed, handle.State())
	assert.Len(t, h.events(), model.MaxZones)
	for _, z := range h.app.Model().Zones() {
		assert.Equal(t, model.SourceID(4), z.Source)
	}
}

func TestLoadRefreshesGroups(t *testing.T) {
	h := newHarness(t)
	h.notify("G3AO1")

	handle, err := h.app.Configuration().LoadFromBackup()
	require.NoError(t, err)
	h.notify("LOAD")
	assert.Equal(t, exchange.Completed, handle.State())
	assert.True(t, h.app.Groups().Refreshing())

	h.echoPending()

	group, _ := h.app.Groups().Get(3)
	assert.Empty(t, group.Members)
	assert.Equal(t, []event.Domain{event.DomainGroups}, refreshCompletions(h.events()))
}

func TestDeviceControllers(t *testing.T) {
	h := newHarness(t)

	handle, err := h.app.FrontPanel().SetBrightness(2)
	require.NoError(t, err)
	assert.Equal(t, "[FPB2]", h.lastFrame())
	h.notify("FPB2")
	assert.Equal(t, exchange.Completed, handle.State())

	h.notify("EDHCP0", "ESDDP0", "EMAC00-1a-2B-3c-4D-5e", "IRL1")

	assert.Equal(t, 2, h.app.FrontPanel().Get().Brightness)
	assert.False(t, h.app.Network().Get().DHCPv4Enabled)
	assert.False(t, h.app.Network().Get().SDDPEnabled)
	assert.Equal(t, "00:1A:2B:3C:4D:5E", h.app.Network().Get().EUI48)
	assert.True(t, h.app.Infrared().Get().Disabled)

	_, err = h.app.FrontPanel().SetBrightness(model.BrightnessMax + 1)
	assert.ErrorIs(t, err, errors.ErrRange)
}

func TestDetachFailsOutstandingExchanges(t *testing.T) {
	h := newHarness(t)
	first, err := h.app.Zones().Query(1)
	require.NoError(t, err)
	second, err := h.app.Zones().Query(2)
	require.NoError(t, err)

	h.app.Detach(nil)

	assert.Equal(t, exchange.Failed, first.State())
	assert.Equal(t, exchange.Failed, second.State())
	assert.ErrorIs(t, first.Err(), errors.ErrTransportLost)
	require.Len(t, h.events(), 2)
	for _, e := range h.events() {
		assert.Equal(t, "TransportLost", e.(event.ControllerError).ErrorKind)
	}

	// Without a connection requests fail at send time.
	h.reset()
	third, err := h.app.Zones().Query(3)
	require.NoError(t, err)
	assert.Equal(t, exchange.Failed, third.State())
	assert.ErrorIs(t, third.Err(), errors.ErrTransportLost)
	assert.ErrorIs(t, third.Err(), errors.ErrNoConnection)
}

func TestFramingOverflowIsFatal(t *testing.T) {
	h := newHarness(t)
	long := make([]byte, 0, 1100)
	long = append(long, '(')
	for len(long) < 1100 {
		long = append(long, 'A')
	}

	h.app.Receive(long)

	require.Len(t, h.fatal, 1)
	assert.ErrorIs(t, h.fatal[0], errors.ErrFramingOverflow)
	require.Len(t, h.events(), 1)
	assert.Equal(t, "FramingOverflow", h.events()[0].(event.ControllerError).ErrorKind)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.FramingOverflows.WithLabelValues(metric.EndpointClient)))
}

func TestUnknownFrameIgnored(t *testing.T) {
	h := newHarness(t)

	h.app.Receive([]byte("(ZZZ9)[QO1]"))

	assert.Empty(t, h.events())
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.UnmatchedFrames.WithLabelValues(metric.EndpointClient)))
}

func TestLateEchoAfterTimeoutIgnored(t *testing.T) {
	h := newHarness(t)
	handle, err := h.app.Sources().Query(2)
	require.NoError(t, err)
	h.clock.Advance(testTimeout)
	require.Equal(t, exchange.TimedOut, handle.State())
	h.reset()

	h.notify("QI2")

	assert.Empty(t, h.events())
}

func TestNewUsesRealClockCompatibleTimers(t *testing.T) {
	app, err := New(Deps{Timers: clock.Real()})
	require.NoError(t, err)
	assert.False(t, app.Refreshing())
	assert.Nil(t, app.Exchanges().Pending())
}
