package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTrainEquation(t *testing.T) {
	Convey("Given a TrainEquation with a 30s step", t, func() {
		td := NewTimeDynamics(30, 0, nil)
		eq := NewTrainEquation(DefaultCostCoefficients(), td)

		Convey("CalculateNextStepPosition advances proportionally to velocity and step duration", func() {
			eq.DesiredVelocity = 10 // m/s
			eq.UpdateVelocity()
			next := eq.CalculateNextStepPosition(1000, 0.0)
			So(next, ShouldEqual, 0.3) // 10 m/s * 30s = 300m of 1000m section
		})

		Convey("CalculateNextStepPosition is a no-op on a zero-length section", func() {
			So(eq.CalculateNextStepPosition(0, 0.4), ShouldEqual, 0.4)
		})

		Convey("CalculateCost matches the weighted-sum formula", func() {
			c := DefaultCostCoefficients()
			cost := eq.CalculateCost(100, 50, 10, 2, 500)
			expected := c.CostNormalizer * (100*c.MeterTravelledCost +
				50*c.TravelingTimeCost +
				10*c.StoppedTimeCost +
				500*c.DistanceToGoalCost +
				2*c.ActionCost)
			So(cost, ShouldEqual, expected)
		})
	})
}
