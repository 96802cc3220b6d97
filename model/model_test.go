package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/errors"
)

func TestStatus(t *testing.T) {
	assert.True(t, Applied.OK())
	assert.True(t, AlreadySet.OK())
	assert.False(t, Invalid.OK())
	assert.True(t, Applied.Changed())
	assert.False(t, AlreadySet.Changed())
	assert.Equal(t, "AlreadySet", AlreadySet.String())
	assert.Equal(t, "Status(7)", Status(7).String())
}

func TestIdentifiers_Validate(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"zone 0", ZoneID(0).Validate()},
		{"zone 25", ZoneID(MaxZones + 1).Validate()},
		{"group 11", GroupID(MaxGroups + 1).Validate()},
		{"source 9", SourceID(MaxSources + 1).Validate()},
		{"preset 0", PresetID(0).Validate()},
		{"band 11", BandID(MaxEqualizerBands + 1).Validate()},
		{"favorite -1", FavoriteID(-1).Validate()},
		{"sound mode 6", SoundMode(6).Validate()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, errors.ErrRange)
		})
	}

	assert.NoError(t, ZoneID(1).Validate())
	assert.NoError(t, ZoneID(MaxZones).Validate())
	assert.NoError(t, SoundModeHighpass.Validate())
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Kitchen"))
	assert.NoError(t, ValidateName("1234567890123456"))

	assert.ErrorIs(t, ValidateName(""), errors.ErrInvalidArgument)
	assert.ErrorIs(t, ValidateName("12345678901234567"), errors.ErrRange)
	for _, bad := range []string{`a"b`, "a[b", "a]b", "a(b", "a)b", "tab\there", "caf\xc3\xa9"} {
		assert.ErrorIs(t, ValidateName(bad), errors.ErrInvalidArgument, bad)
	}
}

func testZone(m *Model) *Zone {
	z, _ := m.Zone(3)
	return z
}

func testGroup(m *Model) *Group {
	g, _ := m.Group(1)
	return g
}

func testPreset(m *Model) *EqualizerPreset {
	p, _ := m.EqualizerPreset(2)
	return p
}

func testSource(m *Model) *Source {
	s, _ := m.Source(2)
	return s
}

func testFavorite(m *Model) *Favorite {
	f, _ := m.Favorite(2)
	return f
}

// Applying a setter twice yields Applied then AlreadySet and leaves the
// model identical after each call.
func TestSetters_Idempotent(t *testing.T) {
	tests := []struct {
		name  string
		apply func(m *Model) (Status, error)
	}{
		{"zone name", func(m *Model) (Status, error) { return testZone(m).SetName("Kitchen") }},
		{"zone mute", func(m *Model) (Status, error) { return testZone(m).SetMute(true) }},
		{"zone volume", func(m *Model) (Status, error) { return testZone(m).SetVolume(-20) }},
		{"zone volume fixed", func(m *Model) (Status, error) { return testZone(m).SetVolumeFixed(true) }},
		{"zone balance", func(m *Model) (Status, error) { return testZone(m).SetBalance(-10) }},
		{"zone source", func(m *Model) (Status, error) { return testZone(m).SetSource(4) }},
		{"zone sound mode", func(m *Model) (Status, error) { return testZone(m).SetSoundMode(SoundModeTone) }},
		{"zone tone", func(m *Model) (Status, error) { return testZone(m).SetTone(-2, 4) }},
		{"zone band", func(m *Model) (Status, error) { return testZone(m).SetEqualizerBand(5, 6) }},
		{"zone preset", func(m *Model) (Status, error) { return testZone(m).SetEqualizerPreset(7) }},
		{"zone highpass", func(m *Model) (Status, error) { return testZone(m).SetHighpass(80) }},
		{"zone lowpass", func(m *Model) (Status, error) { return testZone(m).SetLowpass(12000) }},
		{"group name", func(m *Model) (Status, error) { return testGroup(m).SetName("Down") }},
		{"group mute", func(m *Model) (Status, error) { return testGroup(m).SetMute(true) }},
		{"group volume", func(m *Model) (Status, error) { return testGroup(m).SetVolume(-30) }},
		{"group sources", func(m *Model) (Status, error) { return testGroup(m).SetSources([]SourceID{3, 1, 3}) }},
		{"group member", func(m *Model) (Status, error) { return testGroup(m).AddMember(5) }},
		{"preset name", func(m *Model) (Status, error) { return testPreset(m).SetName("Jazz") }},
		{"preset band", func(m *Model) (Status, error) { return testPreset(m).SetBand(10, -12) }},
		{"source name", func(m *Model) (Status, error) { return testSource(m).SetName("Tuner") }},
		{"favorite name", func(m *Model) (Status, error) { return testFavorite(m).SetName("Radio") }},
		{"brightness", func(m *Model) (Status, error) { return m.FrontPanel.SetBrightness(1) }},
		{"panel lock", func(m *Model) (Status, error) { return m.FrontPanel.SetLocked(true) }},
		{"dhcp", func(m *Model) (Status, error) { return m.Network.SetDHCPv4Enabled(false) }},
		{"sddp", func(m *Model) (Status, error) { return m.Network.SetSDDPEnabled(false) }},
		{"eui48", func(m *Model) (Status, error) { return m.Network.SetEUI48("00-50-c2-aa-bb-cc") }},
		{"infrared", func(m *Model) (Status, error) { return m.Infrared.SetDisabled(true) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()

			status, err := tt.apply(m)
			require.NoError(t, err)
			assert.Equal(t, Applied, status)
			after := m.Snapshot()

			status, err = tt.apply(m)
			require.NoError(t, err)
			assert.Equal(t, AlreadySet, status)
			if diff := cmp.Diff(after, m.Snapshot()); diff != "" {
				t.Errorf("model changed on AlreadySet (-first +second):\n%s", diff)
			}
		})
	}
}

func TestSetters_RejectOutOfRange(t *testing.T) {
	m := New()
	z, err := m.Zone(1)
	require.NoError(t, err)
	before := m.Snapshot()

	checks := []func() (Status, error){
		func() (Status, error) { return z.SetVolume(VolumeMin - 1) },
		func() (Status, error) { return z.SetVolume(VolumeMax + 1) },
		func() (Status, error) { return z.SetBalance(BalanceMax + 1) },
		func() (Status, error) { return z.SetSource(0) },
		func() (Status, error) { return z.SetTone(0, ToneMax+1) },
		func() (Status, error) { return z.SetEqualizerBand(1, EqualizerLevelMin-1) },
		func() (Status, error) { return z.SetEqualizerBand(0, 0) },
		func() (Status, error) { return z.SetHighpass(CrossoverMin - 1) },
		func() (Status, error) { return z.SetLowpass(CrossoverMax + 1) },
		func() (Status, error) { return m.FrontPanel.SetBrightness(BrightnessMax + 1) },
	}
	for i, check := range checks {
		status, err := check()
		assert.Equal(t, Invalid, status, "check %d", i)
		assert.ErrorIs(t, err, errors.ErrRange, "check %d", i)
	}

	status, err := m.Network.SetEUI48("not-a-mac")
	assert.Equal(t, Invalid, status)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	assert.Empty(t, cmp.Diff(before, m.Snapshot()))
}

func TestBalanceNormalization(t *testing.T) {
	for k := 0; k <= BalanceMax; k++ {
		left, err := BalanceFromWire("L", k)
		require.NoError(t, err)
		assert.Equal(t, -k, left)

		right, err := BalanceFromWire("R", k)
		require.NoError(t, err)
		assert.Equal(t, k, right)
	}

	zeroL, _ := BalanceFromWire("L", 0)
	zeroR, _ := BalanceFromWire("R", 0)
	assert.Equal(t, zeroL, zeroR)

	_, err := BalanceFromWire("L", BalanceMax+1)
	assert.ErrorIs(t, err, errors.ErrRange)
	_, err = BalanceFromWire("C", 1)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	channel, magnitude := BalanceToWire(0)
	assert.Equal(t, "L", channel)
	assert.Equal(t, 0, magnitude)
	channel, magnitude = BalanceToWire(-12)
	assert.Equal(t, "L", channel)
	assert.Equal(t, 12, magnitude)
	channel, magnitude = BalanceToWire(30)
	assert.Equal(t, "R", channel)
	assert.Equal(t, 30, magnitude)
}

func TestGroup_Members(t *testing.T) {
	g := NewGroup(1)

	for _, z := range []ZoneID{5, 2, 9} {
		status, err := g.AddMember(z)
		require.NoError(t, err)
		assert.Equal(t, Applied, status)
	}
	assert.Equal(t, []ZoneID{2, 5, 9}, g.Members)
	assert.True(t, g.HasMember(5))
	assert.False(t, g.HasMember(4))

	status, err := g.RemoveMember(5)
	require.NoError(t, err)
	assert.Equal(t, Applied, status)
	status, err = g.RemoveMember(5)
	require.NoError(t, err)
	assert.Equal(t, AlreadySet, status)
	assert.Equal(t, []ZoneID{2, 9}, g.Members)

	_, err = g.AddMember(MaxZones + 1)
	assert.ErrorIs(t, err, errors.ErrRange)
}

func TestGroup_Sources(t *testing.T) {
	g := NewGroup(1)
	_, ok := g.Source()
	assert.False(t, ok)

	_, err := g.SetSources([]SourceID{3, 1})
	require.NoError(t, err)
	assert.True(t, g.Split())
	_, ok = g.Source()
	assert.False(t, ok)

	status, err := g.SetSource(2)
	require.NoError(t, err)
	assert.Equal(t, Applied, status)
	src, ok := g.Source()
	assert.True(t, ok)
	assert.Equal(t, SourceID(2), src)
	assert.False(t, g.Split())
}

func TestModel_Defaults(t *testing.T) {
	m := New()
	assert.Len(t, m.Zones(), MaxZones)
	assert.Len(t, m.Groups(), MaxGroups)
	assert.Len(t, m.EqualizerPresets(), MaxEqualizerPresets)
	assert.Len(t, m.Sources(), MaxSources)
	assert.Len(t, m.Favorites(), MaxFavorites)

	z, err := m.Zone(7)
	require.NoError(t, err)
	assert.Equal(t, "Zone 7", z.Name)
	assert.Equal(t, ZoneID(7), z.ID)

	_, err = m.Zone(0)
	assert.ErrorIs(t, err, errors.ErrRange)
	_, err = m.Group(MaxGroups + 1)
	assert.ErrorIs(t, err, errors.ErrRange)

	assert.NoError(t, m.Snapshot().Validate())
}

func TestModel_LookupByName(t *testing.T) {
	m := New()
	z, _ := m.Zone(3)
	_, _ = z.SetName("Kitchen")

	id, err := m.ZoneByName("Kitchen")
	require.NoError(t, err)
	assert.Equal(t, ZoneID(3), id)

	_, err = m.ZoneByName("Attic")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	gid, err := m.GroupByName("Group 4")
	require.NoError(t, err)
	assert.Equal(t, GroupID(4), gid)

	sid, err := m.SourceByName("Source 8")
	require.NoError(t, err)
	assert.Equal(t, SourceID(8), sid)

	pid, err := m.EqualizerPresetByName("Preset 2")
	require.NoError(t, err)
	assert.Equal(t, PresetID(2), pid)

	fid, err := m.FavoriteByName("Favorite 10")
	require.NoError(t, err)
	assert.Equal(t, FavoriteID(10), fid)
}

func TestModel_GroupsContaining(t *testing.T) {
	m := New()
	g1, _ := m.Group(1)
	g3, _ := m.Group(3)
	_, _ = g1.AddMember(2)
	_, _ = g3.AddMember(2)
	_, _ = g3.AddMember(4)

	assert.Equal(t, []GroupID{1, 3}, m.GroupsContaining(2))
	assert.Equal(t, []GroupID{3}, m.GroupsContaining(4))
	assert.Empty(t, m.GroupsContaining(5))
}

func TestSnapshot_DeepCopyAndRestore(t *testing.T) {
	m := New()
	g, _ := m.Group(1)
	_, _ = g.AddMember(2)
	z, _ := m.Zone(2)
	_, _ = z.SetEqualizerBand(1, 5)

	snap := m.Snapshot()

	_, _ = g.AddMember(3)
	_, _ = z.SetEqualizerBand(1, -5)
	assert.Equal(t, []ZoneID{2}, snap.Groups[0].Members)
	assert.Equal(t, 5, snap.Zones[1].EqualizerBands[0])

	require.NoError(t, m.Restore(snap))
	if diff := cmp.Diff(snap, m.Snapshot()); diff != "" {
		t.Errorf("restore mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	m := New()
	z, _ := m.Zone(5)
	_, _ = z.SetBalance(-15)
	_, _ = m.Network.SetEUI48("00:50:c2:12:34:56")

	data, err := json.Marshal(m.Snapshot())
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored := New()
	require.NoError(t, restored.Restore(decoded))
	assert.Empty(t, cmp.Diff(m.Snapshot(), restored.Snapshot()))
	assert.Equal(t, "00:50:C2:12:34:56", restored.Network.EUI48)
}

func TestSnapshot_RestoreRejectsInvalid(t *testing.T) {
	m := New()
	before := m.Snapshot()

	bad := m.Snapshot()
	bad.Zones = bad.Zones[:3]
	assert.ErrorIs(t, m.Restore(bad), errors.ErrInvalidArgument)

	bad = m.Snapshot()
	bad.Zones[0].Volume = 10
	assert.ErrorIs(t, m.Restore(bad), errors.ErrRange)

	assert.Empty(t, cmp.Diff(before, m.Snapshot()))
}

func TestModel_Reset(t *testing.T) {
	m := New()
	z, _ := m.Zone(1)
	_, _ = z.SetMute(true)
	m.Reset()
	z, _ = m.Zone(1)
	assert.False(t, z.Mute)
}

func TestAggregate(t *testing.T) {
	m := New()
	z2, _ := m.Zone(2)
	z5, _ := m.Zone(5)
	z2.Volume, z5.Volume = -1, 0
	z2.Source, z5.Source = 3, 1
	z2.Mute = true

	agg, err := m.Aggregate([]ZoneID{2, 5})
	require.NoError(t, err)
	assert.Equal(t, Aggregate{Mute: false, Volume: -1, Sources: []SourceID{1, 3}}, agg)

	z5.Mute = true
	agg, err = m.Aggregate([]ZoneID{5, 2})
	require.NoError(t, err)
	assert.True(t, agg.Mute)

	agg, err = m.Aggregate(nil)
	require.NoError(t, err)
	assert.Equal(t, Aggregate{Volume: VolumeMin, Sources: []SourceID{}}, agg)

	_, err = m.Aggregate([]ZoneID{99})
	assert.ErrorIs(t, err, errors.ErrRange)
}
