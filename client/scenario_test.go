package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/model"
)

// ScenarioSuite runs the end-to-end client scenarios against a scripted
// server.
type ScenarioSuite struct {
	suite.Suite
	h *harness
}

func TestScenarioSuite(t *testing.T) {
	suite.Run(t, new(ScenarioSuite))
}

func (s *ScenarioSuite) SetupTest() {
	s.h = newHarness(s.T())
	// Group 1 = {2, 5}.
	s.h.notify("G1AO2", "G1AO5")
	s.h.reset()
}

func (s *ScenarioSuite) group(id model.GroupID) *model.Group {
	g, err := s.h.app.Groups().Get(id)
	s.Require().NoError(err)
	return g
}

func (s *ScenarioSuite) zone(id model.ZoneID) *model.Zone {
	z, err := s.h.app.Zones().Get(id)
	s.Require().NoError(err)
	return z
}

func (s *ScenarioSuite) TestGroupMuteFanOut() {
	s.h.notify("VUMO2", "VUMO5", "VO2R-10", "VO5R-20")
	s.h.reset()

	s.h.notify("GM1")

	s.Equal([]event.Event{
		event.ZoneMute{Zone: 2, Mute: true},
		event.ZoneMute{Zone: 5, Mute: true},
		event.GroupMute{Group: 1, Mute: true},
	}, s.h.events())
	s.True(s.zone(2).Mute)
	s.True(s.zone(5).Mute)
	s.True(s.group(1).Mute)
}

func (s *ScenarioSuite) TestSplitGroupSetSource() {
	s.h.notify("CO2I1", "CO5I3")
	s.Require().True(s.group(1).Split())
	s.Equal([]model.SourceID{1, 3}, s.group(1).Sources)
	s.h.reset()

	s.h.notify("GC1,2")

	s.Equal([]event.Event{
		event.ZoneSource{Zone: 2, Source: 2},
		event.ZoneSource{Zone: 5, Source: 2},
		event.GroupSource{Group: 1, Sources: []model.SourceID{2}},
	}, s.h.events())
	s.False(s.group(1).Split())
	source, ok := s.group(1).Source()
	s.True(ok)
	s.Equal(model.SourceID(2), source)
}

func (s *ScenarioSuite) TestGroupVolumeIncreaseSaturates() {
	s.h.notify("VO2R-1", "VO5R0")
	s.Equal(-1, s.group(1).Volume)
	s.h.reset()

	s.h.notify("GVU1")

	s.Equal([]event.Event{
		event.ZoneVolume{Zone: 2, Volume: 0},
		event.GroupVolume{Group: 1, Volume: 0},
	}, s.h.events())
	s.Equal(0, s.zone(2).Volume)
	s.Equal(0, s.zone(5).Volume)
	s.Equal(s.h.app.Deriver().Steps(), len(s.group(1).Members)+1)
}

func (s *ScenarioSuite) TestGroupVolumeDecrease() {
	s.h.notify("VO2R-80", "VO5R-40")
	s.h.reset()

	s.h.notify("GVD1")

	s.Equal([]event.Event{
		event.ZoneVolume{Zone: 5, Volume: -41},
		event.GroupVolume{Group: 1, Volume: -61},
	}, s.h.events())
}

func (s *ScenarioSuite) TestMutedGroupVolumeChangeUnmutes() {
	s.h.notify("VO2R-30", "VO5R-30", "VMO2", "VMO5")
	s.Require().True(s.group(1).Mute)
	s.Require().Equal(-30, s.group(1).Volume)
	s.h.reset()

	s.h.notify("GV1,-20")

	s.Equal([]event.Event{
		event.GroupMute{Group: 1, Mute: false},
		event.ZoneMute{Zone: 2, Mute: false},
		event.ZoneVolume{Zone: 2, Volume: -20},
		event.ZoneMute{Zone: 5, Mute: false},
		event.ZoneVolume{Zone: 5, Volume: -20},
		event.GroupVolume{Group: 1, Volume: -20},
	}, s.h.events())
	s.False(s.group(1).Mute)
}

func (s *ScenarioSuite) TestIdempotentSetName() {
	_, err := s.h.app.Zones().SetName(3, "Kitchen")
	s.Require().NoError(err)
	s.Equal(`[NO3"Kitchen"]`, s.h.lastFrame())
	s.h.notify(`NO3"Kitchen"`)
	s.Equal([]event.Event{event.ZoneName{Zone: 3, Name: "Kitchen"}}, s.h.events())

	h, err := s.h.app.Zones().SetName(3, "Kitchen")
	s.Require().NoError(err)
	s.h.notify(`NO3"Kitchen"`)
	s.Equal(exchange.Completed, h.State())
	s.Len(s.h.events(), 1)

	status, err := s.h.app.Zones().HandleNameChange(3, "Kitchen")
	s.NoError(err)
	s.Equal(model.AlreadySet, status)
}

func (s *ScenarioSuite) TestExchangeTimeoutAndRecovery() {
	first, err := s.h.app.Zones().Query(1)
	s.Require().NoError(err)

	s.h.clock.Advance(testTimeout)
	s.Equal(exchange.TimedOut, first.State())
	s.ErrorIs(first.Err(), errors.ErrExchangeTimeout)
	s.Equal([]event.Event{event.ControllerError{
		ErrorKind: "ExchangeTimeout",
		Detail:    first.Err().Error(),
	}}, s.h.events())

	s.h.clock.Advance(10 * time.Millisecond)
	second, err := s.h.app.Zones().Query(2)
	s.Require().NoError(err)
	s.Equal(exchange.Pending, second.State())
	s.Equal("[QO2]", s.h.lastFrame())

	s.h.notify(`NO2"Den"`, "QO2")
	s.Equal(exchange.Completed, second.State())
	s.Equal("Den", s.zone(2).Name)
}

func (s *ScenarioSuite) TestInternalEventsNeverLeak() {
	s.h.notify("GVU1", "GVD1", "GV1,-50", "GM1", "GUM1", "GC1,4")
	for _, e := range s.h.events() {
		s.False(event.IsInternal(e), "leaked %s", e.Kind())
	}
}

func (s *ScenarioSuite) TestDerivationTerminatesInMembersPlusOne() {
	s.h.notify("G1AO7", "G1AO9")
	members := len(s.group(1).Members)
	s.Require().Equal(4, members)

	for _, frame := range []string{"GM1", "GC1,3", "GV1,-12", "GVU1", "GVD1"} {
		s.h.notify(frame)
		s.Equal(members+1, s.h.app.Deriver().Steps(), frame)
		s.False(s.h.app.Deriver().Deriving())
	}
}

func (s *ScenarioSuite) TestOverlappingGroupRederived() {
	// Zone 5 is also in group 2 with zone 6.
	s.h.notify("G2AO5", "G2AO6", "VUMO5", "VUMO6")
	s.h.reset()

	s.h.notify("GM1")

	s.False(s.group(2).Mute)
	s.Contains(s.h.events(), event.GroupMute{Group: 1, Mute: true})
	s.NotContains(s.h.events(), event.GroupMute{Group: 2, Mute: true})

	s.h.notify("VMO6")
	s.True(s.group(2).Mute)
}
