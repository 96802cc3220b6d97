package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/model"
)

func TestConfigurationQueryDumpsEverything(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()

	h.request(a, "QX")

	got := frames(a)
	assert.Equal(t, `(NO1"Zone 1")`, got[0])
	assert.Equal(t, "(QX)", got[len(got)-1])
	assert.Contains(t, got, `(NG10"Group 10")`)
	assert.Contains(t, got, `(NEP10"Preset 10")`)
	assert.Contains(t, got, "(IRL0)")
	assert.Empty(t, h.events())
}

func TestSaveAnswersRequesterOnly(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()
	b, _ := h.open()

	h.request(a, "SAVE")

	assert.Equal(t, []string{"(SAVE)"}, frames(a))
	assert.Empty(t, frames(b))
}

func TestLoadRestoresBackupAndPublishesDifferences(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()
	b, _ := h.open()
	h.request(a, "VO1R-10", "G1AO1", "SAVE", "VO1R-30", "G2AO4")
	h.reset(a, b)

	h.request(a, "LOAD")

	got := frames(b)
	assert.Equal(t, "(LOAD)", got[len(got)-1])
	assert.Contains(t, got, "(VO1R-10)")
	assert.Equal(t, got, frames(a))

	events := h.events()
	assert.Contains(t, events, event.ZoneVolume{Zone: 1, Volume: -10})
	assert.Contains(t, events, event.GroupZoneRemoved{Group: 2, Zone: 4})
	assert.Contains(t, events, event.GroupVolume{Group: 1, Volume: -10})
	assert.Contains(t, events, event.GroupVolume{Group: 2, Volume: model.VolumeMin})

	group, err := h.app.Model().Group(2)
	require.NoError(t, err)
	assert.Empty(t, group.Members)
	zone, err := h.app.Model().Zone(1)
	require.NoError(t, err)
	assert.Equal(t, -10, zone.Volume)
}

func TestLoadWithoutBackupIsRejected(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()

	h.request(a, "LOAD")

	assert.Equal(t, []string{"(ERR)"}, frames(a))
}

func TestBackupCommandsNeedStore(t *testing.T) {
	app, err := New(Deps{})
	require.NoError(t, err)
	s, err := app.Open(nil)
	require.NoError(t, err)

	app.Receive(s, []byte("[SAVE][LOAD]"))

	assert.Equal(t, []string{"(ERR)", "(ERR)"}, frames(s))
}

func TestResetRestoresDefaults(t *testing.T) {
	h := newHarness(t, Deps{})
	a, _ := h.open()
	h.request(a, `NO3"Patio"`, "FPB0")
	h.reset(a)

	h.request(a, "RESET")

	got := frames(a)
	assert.Equal(t, "(RESET)", got[len(got)-1])
	assert.Contains(t, got, `(NO3"Zone 3")`)
	assert.Equal(t, []event.Event{
		event.ZoneName{Zone: 3, Name: "Zone 3"},
		event.FrontPanelBrightness{Brightness: model.BrightnessMax},
	}, h.events())
}
