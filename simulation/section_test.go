package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSection(t *testing.T) {
	Convey("Given a section with an overlapping speed restriction", t, func() {
		sec, err := NewSection("S1", 1000, 0, FlowBoth,
			[]Connection{{ConnectsTo: "S2", WhenAt: EndStraight}},
			[]Restriction{{StartKm: 0.2, EndKm: 0.6, MaxVelocity: 30}},
		)
		So(err, ShouldBeNil)

		Convey("It reports the restricted speed inside the restricted range", func() {
			So(sec.MaximumVelocityAtRelativePosition(0.4), ShouldEqual, 30)
		})

		Convey("It reports the default speed outside the restricted range", func() {
			So(sec.MaximumVelocityAtRelativePosition(0.9), ShouldEqual, DefaultMaxVelocity)
		})

		Convey("AccessibleConnections filters by origin", func() {
			So(sec.AccessibleConnections("end"), ShouldResemble, []string{"S2"})
			So(sec.AccessibleConnections("start"), ShouldBeEmpty)
		})

		Convey("It is not a turnout with only one neighbour", func() {
			So(sec.IsTurnout(), ShouldBeFalse)
		})

		Convey("Interdict/ClearInterdiction toggle exactly once", func() {
			So(sec.Interdict(), ShouldBeNil)
			So(sec.Interdicted, ShouldBeTrue)
			So(sec.Interdict(), ShouldNotBeNil)
			So(sec.ClearInterdiction(), ShouldBeNil)
			So(sec.Interdicted, ShouldBeFalse)
			So(sec.ClearInterdiction(), ShouldNotBeNil)
		})
	})

	Convey("Given a section with three distinct neighbours", t, func() {
		sec, err := NewSection("Turnout", 200, 0, FlowBoth, []Connection{
			{ConnectsTo: "A", WhenAt: StartStraight},
			{ConnectsTo: "B", WhenAt: EndStraight},
			{ConnectsTo: "C", WhenAt: EndDeviated},
		}, nil)
		So(err, ShouldBeNil)

		Convey("It is a turnout", func() {
			So(sec.IsTurnout(), ShouldBeTrue)
		})

		Convey("RelativeOrigin resolves the connecting endpoint", func() {
			So(sec.RelativeOrigin("C"), ShouldEqual, EndDeviated)
			So(sec.RelativeOrigin("nowhere"), ShouldEqual, Endpoint(""))
		})
	})

	Convey("NewSection rejects an unknown connection endpoint", t, func() {
		_, err := NewSection("Bad", 100, 0, FlowBoth,
			[]Connection{{ConnectsTo: "X", WhenAt: "sideways"}}, nil)
		So(err, ShouldNotBeNil)
		So(IsKind(err, InvalidChoice), ShouldBeTrue)
	})
}
