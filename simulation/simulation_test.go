package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// buildStraightLineRoute returns a four-section straight line A-B-C-D. The
// finish section used by tests (C) is not a dead end, so a train reaching it
// is never forced into the Reverse action — it simply crosses the midpoint
// of C under MoveStraight and is retired by HasFinished() on the next tick.
func buildStraightLineRoute(t *testing.T) *Route {
	t.Helper()
	a := mustSection(t, "A", []Connection{{ConnectsTo: "B", WhenAt: EndStraight}})
	b := mustSection(t, "B", []Connection{
		{ConnectsTo: "A", WhenAt: StartStraight},
		{ConnectsTo: "C", WhenAt: EndStraight},
	})
	// C is deliberately longer than a single tick's travel distance (500m at
	// max speed over a 30s step) so the train's relative position spends at
	// least one tick past the 0.5 finish threshold before it would reach C's
	// far end, giving retireFinishedTrains() a chance to observe it there.
	c, err := NewSection("C", 1500, 1000, FlowBoth, []Connection{
		{ConnectsTo: "B", WhenAt: StartStraight},
		{ConnectsTo: "D", WhenAt: EndStraight},
	}, nil)
	if err != nil {
		t.Fatalf("building section C: %v", err)
	}
	d := mustSection(t, "D", []Connection{{ConnectsTo: "C", WhenAt: StartStraight}})

	route, err := NewRoute("straight-line", "single-track test line", []*Section{a, b, c, d}, NewCache())
	if err != nil {
		t.Fatalf("building route: %v", err)
	}
	return route
}

func TestSimulationSingleTrainReachesDestination(t *testing.T) {
	Convey("Given a single train queued from A to C on a straight line", t, func() {
		route := buildStraightLineRoute(t)
		a, _ := route.SectionsMapper.FindSectionByName("A")
		c, _ := route.SectionsMapper.FindSectionByName("C")

		queue := []QueuedTrain{{Options: TrainOptions{
			Prefix:        "T1",
			StartSection:  a,
			FinishSection: c,
			Direction:     Normal,
			Priority:      1,
			Length:        50,
		}}}

		opts := DefaultOptions()
		opts.MaxSteps = 50

		sim := NewSimulation(route, queue, nil, opts, nil)

		Convey("Running it to completion finishes without aborting or hitting a limit", func() {
			sim.Run()

			So(sim.HasAborted, ShouldBeFalse)
			So(sim.HasCompletedEveryTrain, ShouldBeTrue)
			So(sim.HasReachedStepLimit, ShouldBeFalse)
			So(sim.HasReachedCostLimit, ShouldBeFalse)
			So(sim.CurrentStep, ShouldBeLessThan, opts.MaxSteps)
			So(sim.GetStatusText(), ShouldEqual, StatusSuccess)
			So(len(sim.Results.Frames), ShouldBeGreaterThan, 0)
		})
	})
}

func pendingQueuedTrain(t *testing.T, route *Route) []QueuedTrain {
	t.Helper()
	a, _ := route.SectionsMapper.FindSectionByName("A")
	c, _ := route.SectionsMapper.FindSectionByName("C")
	// Never actually ready to admit (StepToAdd far in the future): its only
	// purpose is to keep HasCompletedEveryTrain() false so the test can
	// isolate the step/cost/no-movement ordering below it.
	return []QueuedTrain{{Options: TrainOptions{
		Prefix: "Pending", StartSection: a, FinishSection: c,
		Direction: Normal, Priority: 1, Length: 50, StepToAdd: 1_000_000,
	}}}
}

func TestSimulationStopConditionsApplyAtMostOneMultiplier(t *testing.T) {
	Convey("Given a simulation whose step limit and no-movement limit are both exceeded on the same tick", t, func() {
		route := buildStraightLineRoute(t)
		opts := DefaultOptions()
		opts.MaxSteps = 10
		opts.MaxStepsWithoutTrainMovement = 3

		sim := NewSimulation(route, pendingQueuedTrain(t, route), nil, opts, nil)
		sim.CurrentStep = opts.MaxSteps
		sim.Dispatcher.StepsWithoutMovement = opts.MaxStepsWithoutTrainMovement + 5
		sim.AccumulatedCost = 100

		Convey("Only the step-limit multiplier is applied, not also the no-movement one", func() {
			sim.checkStopConditions()

			So(sim.HasReachedStepLimit, ShouldBeTrue)
			So(sim.HasReachedNoMovementStepLimit, ShouldBeFalse)
			So(sim.AccumulatedCost, ShouldEqual, 100*opts.StepLimitMultiplier)
		})
	})

	Convey("Given a simulation whose cost limit and no-movement limit are both exceeded on the same tick", t, func() {
		route := buildStraightLineRoute(t)
		opts := DefaultOptions()
		opts.MaxStepsWithoutTrainMovement = 3
		opts.MaxCost = 50

		sim := NewSimulation(route, pendingQueuedTrain(t, route), nil, opts, nil)
		sim.Dispatcher.StepsWithoutMovement = opts.MaxStepsWithoutTrainMovement + 5
		sim.AccumulatedCost = 100

		Convey("Only the cost-limit multiplier is applied", func() {
			sim.checkStopConditions()

			So(sim.HasReachedCostLimit, ShouldBeTrue)
			So(sim.HasReachedNoMovementStepLimit, ShouldBeFalse)
			So(sim.AccumulatedCost, ShouldEqual, 100*opts.CostLimitMultiplier)
		})
	})
}
