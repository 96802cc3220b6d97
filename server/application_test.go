package server

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/model"
)

func TestNewValidatesQueueLimits(t *testing.T) {
	_, err := New(Deps{EgressCapacity: -1})
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	_, err = New(Deps{EgressCapacity: 4, EgressWatermark: 5})
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	app, err := New(Deps{})
	require.NoError(t, err)
	assert.Equal(t, DefaultEgressCapacity, app.egressCapacity)
	assert.Equal(t, DefaultEgressCapacity*3/4, app.egressHigh)
	assert.Equal(t, app.egressHigh/2, app.egressLow)
}

func TestChangeIsBroadcastToEverySession(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()
	b, _ := h.open()

	h.request(a, "VO3R-20")

	assert.Equal(t, []string{"(VO3R-20)"}, frames(a))
	assert.Equal(t, []string{"(VO3R-20)"}, frames(b))
	assert.Equal(t, []event.Event{event.ZoneVolume{Zone: 3, Volume: -20}}, h.events())
	zone, err := h.app.Model().Zone(3)
	require.NoError(t, err)
	assert.Equal(t, -20, zone.Volume)
}

func TestAlreadySetIsAcknowledgedWithoutEvent(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()

	h.request(a, fmt.Sprintf("VO3R%d", model.DefaultZoneVolume))

	assert.Equal(t, []string{fmt.Sprintf("(VO3R%d)", model.DefaultZoneVolume)}, frames(a))
	assert.Empty(t, h.events())
}

func TestRejectedRequestsAnswerRequesterWithError(t *testing.T) {
	for name, payload := range map[string]string{
		"out of range":  "VO3R-90",
		"unknown zone":  "VO25R-10",
		"unmatched":     "HELLO",
		"response only": "EMAC00:11:22:33:44:55",
		"bad name":      `NO1""`,
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, Deps{})
			a, _ := h.open()
			b, _ := h.open()
			before := h.app.Model().Snapshot()

			h.request(a, payload)

			assert.Equal(t, []string{"(ERR)"}, frames(a))
			assert.Empty(t, frames(b))
			assert.Empty(t, h.events())
			assert.Equal(t, before, h.app.Model().Snapshot())
		})
	}
}

func TestRejectedRequestIsCountedByKind(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()

	h.request(a, "VO3R-90", "HELLO")

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ControllerErrors.WithLabelValues("Range")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ControllerErrors.WithLabelValues("ParseMismatch")))
}

func TestResponseFramesAreIgnored(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()

	h.app.Receive(a, []byte("(VO3R-20)"))

	assert.Empty(t, frames(a))
	assert.Empty(t, h.events())
}

func TestZoneQueryAnswersRequesterOnly(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()
	b, _ := h.open()

	h.request(a, "QO1")

	got := frames(a)
	require.Len(t, got, 22)
	assert.Equal(t, []string{`(NO1"Zone 1")`, "(VO1R-40)", "(VFO1R0)", "(VUMO1)", "(CO1I1)", "(BO1L0)"}, got[:6])
	assert.Equal(t, "(EO1B1R0)", got[8])
	assert.Equal(t, "(EO1B10R0)", got[17])
	assert.Equal(t, []string{"(EO1P1)", "(EHO1F20)", "(ELO1F20000)", "(QO1)"}, got[18:])
	assert.Empty(t, frames(b))
	assert.Empty(t, h.events())
}

func TestAdjustmentsClampAndToggle(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()

	h.request(a, "VO1R0", "VO1U", "VMO1T", "BO1LU", "TO1BD", "EO1B3U", "EP2B4D")

	assert.Equal(t, []string{
		"(VO1R0)", "(VO1R0)", "(VMO1)", "(BO1L1)", "(TO1B-1T0)", "(EO1B3R1)", "(EP2B4R-1)",
	}, frames(a))
	assert.Equal(t, []event.Event{
		event.ZoneVolume{Zone: 1, Volume: 0},
		event.ZoneMute{Zone: 1, Mute: true},
		event.ZoneBalance{Zone: 1, Balance: -1},
		event.ZoneTone{Zone: 1, Bass: -1, Treble: 0},
		event.ZoneEqualizerBand{Zone: 1, Band: 3, Level: 1},
		event.EqualizerPresetBand{Preset: 2, Band: 4, Level: -1},
	}, h.events())
}

func TestAllZonesSourceAcknowledgesEachZone(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()

	h.request(a, "XC2")

	got := frames(a)
	require.Len(t, got, model.MaxZones+1)
	for i := 0; i < model.MaxZones; i++ {
		assert.Equal(t, fmt.Sprintf("(CO%dI2)", i+1), got[i])
	}
	assert.Equal(t, "(XC2)", got[model.MaxZones])
	assert.Len(t, h.events(), model.MaxZones)
}

func TestDeviceQueries(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()

	h.request(a, "QFP", "QE", "QIR", "QI2", "QF3", "QEP1")

	got := frames(a)
	assert.Equal(t, []string{
		"(FPB3)", "(FPL0)", "(QFP)",
		"(EDHCP1)", "(ESDDP1)", "(EMAC" + model.DefaultEUI48 + ")", "(QE)",
		"(IRL0)", "(QIR)",
		`(NI2"Source 2")`, "(QI2)",
		`(NF3"Favorite 3")`, "(QF3)",
		`(NEP1"Preset 1")`,
	}, got[:14])
	assert.Equal(t, "(QEP1)", got[len(got)-1])
	assert.Len(t, got, 14+model.MaxEqualizerBands+1)
}

func TestDeviceSettings(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()

	h.request(a, "FPB1", "FPL1", "EDHCP0", "ESDDP0", "IRL1", `NI2"Tuner"`, `NF1"Jazz"`)

	assert.Equal(t, []event.Event{
		event.FrontPanelBrightness{Brightness: 1},
		event.FrontPanelLocked{Locked: true},
		event.NetworkDHCPv4Enabled{Enabled: false},
		event.NetworkSDDPEnabled{Enabled: false},
		event.InfraredDisabled{Disabled: true},
		event.SourceName{Source: 2, Name: "Tuner"},
		event.FavoriteName{Favorite: 1, Name: "Jazz"},
	}, h.events())
	m := h.app.Model()
	assert.Equal(t, model.FrontPanel{Brightness: 1, Locked: true}, m.FrontPanel)
	assert.True(t, m.Infrared.Disabled)
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()
	b, _ := h.open()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, []*Session{a, b}, h.app.Sessions())
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.Sessions))

	h.app.Close(a, nil)
	h.app.Close(a, errors.ErrTransportLost)

	assert.Equal(t, []*Session{b}, h.app.Sessions())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Sessions))
	assert.NoError(t, a.Err())
	select {
	case <-a.Done():
	default:
		t.Fatal("closed session not done")
	}

	h.request(b, "VO1R-1")
	assert.Empty(t, frames(a))
	assert.Equal(t, []string{"(VO1R-1)"}, frames(b))
}
