package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTimeDynamics(t *testing.T) {
	Convey("Given a TimeDynamics with a 30s step and a mock clock", t, func() {
		mock := quartz.NewMock(t)
		td := NewTimeDynamics(30, 0, mock)

		Convey("Stepping advances both the step counter and the simulated clock", func() {
			td.Step()
			td.Step()
			So(td.CurrentStep, ShouldEqual, 2)
			So(td.CurrentTimestamp, ShouldEqual, 60.0)
			So(td.ElapsedSimulated(), ShouldEqual, 60.0)
		})

		Convey("Reset rewinds to the configured origin", func() {
			td.Step()
			td.Reset()
			So(td.CurrentStep, ShouldEqual, 0)
			So(td.CurrentTimestamp, ShouldEqual, 0.0)
		})

		Convey("Cloning produces an independent counter sharing the same origin", func() {
			clone := td.Clone()
			clone.Step()
			So(clone.CurrentStep, ShouldEqual, 1)
			So(td.CurrentStep, ShouldEqual, 0)
		})

		Convey("ElapsedWallClock follows the injected clock, not the simulated one", func() {
			mock.Advance(5 * time.Second).MustWait(context.Background())
			So(td.ElapsedWallClock().Seconds(), ShouldEqual, 5.0)
		})
	})

	Convey("FormatInterval renders HH:MM:SS", t, func() {
		So(FormatInterval(3661), ShouldEqual, "01:01:01")
		So(FormatInterval(59), ShouldEqual, "00:00:59")
	})
}
