package discovery

import (
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/errors"
)

func entry(instance string, port int, v4, v6 []net.IP, text ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, Service, Domain)
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = text
	return e
}

func TestFromEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry *zeroconf.ServiceEntry
		want  Server
		ok    bool
	}{
		{
			name:  "ipv4 preferred",
			entry: entry("rack-1", 4999, []net.IP{net.ParseIP("192.168.1.20")}, []net.IP{net.ParseIP("fe80::1")}, "zones=8"),
			want:  Server{Instance: "rack-1", Host: "192.168.1.20", Port: 4999, Text: map[string]string{"zones": "8"}},
			ok:    true,
		},
		{
			name:  "ipv6 only",
			entry: entry("rack-2", 5000, nil, []net.IP{net.ParseIP("fe80::2")}),
			want:  Server{Instance: "rack-2", Host: "fe80::2", Port: 5000},
			ok:    true,
		},
		{name: "no address", entry: entry("rack-3", 5000, nil, nil)},
		{name: "no port", entry: entry("rack-4", 0, []net.IP{net.ParseIP("10.0.0.1")}, nil)},
		{name: "nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fromEntry(tt.entry)
			require.Equal(t, tt.ok, ok)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("fromEntry() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTrackerDedupesByInstance(t *testing.T) {
	tr := newTracker()
	v4 := []net.IP{net.ParseIP("10.0.0.5")}

	s, ok := tr.add(entry("rack-1", 4999, v4, nil))
	require.True(t, ok)
	assert.Equal(t, "10.0.0.5:4999", s.Addr())

	_, ok = tr.add(entry("rack-1", 4999, v4, nil))
	assert.False(t, ok)

	_, ok = tr.add(entry("rack-2", 4999, v4, nil))
	assert.True(t, ok)
}

func TestTextRecords(t *testing.T) {
	records := encodeText(map[string]string{"zones": "8", "model": "HLX"})
	assert.Equal(t, []string{"model=HLX", "zones=8"}, records)
	assert.Equal(t, map[string]string{"model": "HLX", "zones": "8"}, decodeText(records))
	assert.Equal(t, map[string]string{"flag": ""}, decodeText([]string{"flag"}))
}

func TestAdvertiseValidatesArguments(t *testing.T) {
	_, err := Advertise("", 4999, nil, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	_, err = Advertise("rack", 0, nil, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	var a *Advertisement
	assert.NotPanics(t, a.Shutdown)
}

func TestServerAddrIPv6(t *testing.T) {
	s := Server{Host: "fe80::2", Port: 5000}
	assert.Equal(t, "[fe80::2]:5000", s.Addr())
}
