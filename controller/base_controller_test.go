package controller

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/fndando/dispatchsim/simulation"
)

func mustSection(t *testing.T, name string, connections []simulation.Connection) *simulation.Section {
	t.Helper()
	sec, err := simulation.NewSection(name, 500, 0, simulation.FlowBoth, connections, nil)
	if err != nil {
		t.Fatalf("building section %s: %v", name, err)
	}
	return sec
}

// buildStraightLineRoute mirrors the simulation package's own test fixture:
// a four-section straight line whose finish section (C) is not a dead end.
func buildStraightLineRoute(t *testing.T) *simulation.Route {
	t.Helper()
	a := mustSection(t, "A", []simulation.Connection{{ConnectsTo: "B", WhenAt: simulation.EndStraight}})
	b := mustSection(t, "B", []simulation.Connection{
		{ConnectsTo: "A", WhenAt: simulation.StartStraight},
		{ConnectsTo: "C", WhenAt: simulation.EndStraight},
	})
	c, err := simulation.NewSection("C", 1500, 1000, simulation.FlowBoth, []simulation.Connection{
		{ConnectsTo: "B", WhenAt: simulation.StartStraight},
		{ConnectsTo: "D", WhenAt: simulation.EndStraight},
	}, nil)
	if err != nil {
		t.Fatalf("building section C: %v", err)
	}
	d := mustSection(t, "D", []simulation.Connection{{ConnectsTo: "C", WhenAt: simulation.StartStraight}})

	route, err := simulation.NewRoute("straight-line", "single-track test line", []*simulation.Section{a, b, c, d}, simulation.NewCache())
	if err != nil {
		t.Fatalf("building route: %v", err)
	}
	return route
}

func singleTrainQueue(t *testing.T, route *simulation.Route) []simulation.QueuedTrain {
	t.Helper()
	a, _ := route.SectionsMapper.FindSectionByName("A")
	c, _ := route.SectionsMapper.FindSectionByName("C")
	return []simulation.QueuedTrain{{Options: simulation.TrainOptions{
		Prefix:        "T1",
		StartSection:  a,
		FinishSection: c,
		Direction:     simulation.Normal,
		Priority:      1,
		Length:        50,
	}}}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.SolutionsSize = 4
	opts.MaxThreadWorkers = 2
	opts.MaxIterations = 20
	opts.SimulationOptions.MaxSteps = 50
	opts.Seed = 1
	return opts
}

func TestRandomControllerRunsToStopCondition(t *testing.T) {
	Convey("Given a Random controller over a single-train straight line", t, func() {
		route := buildStraightLineRoute(t)
		queue := singleTrainQueue(t, route)
		c := NewRandomController(route, queue, testOptions(), nil)

		Convey("Running it reaches a stop condition and records a best solution", func() {
			c.Run()

			So(c.StopReason, ShouldNotBeEmpty)
			So(c.IterationsCounter, ShouldBeGreaterThan, 0)
			So(c.BestSolutionResults, ShouldNotBeNil)
			So(c.BestSolutionCost, ShouldBeLessThan, math.MaxFloat64)
		})
	})
}

func TestGeneticControllerRunsToStopCondition(t *testing.T) {
	Convey("Given a Genetic controller over a single-train straight line", t, func() {
		route := buildStraightLineRoute(t)
		queue := singleTrainQueue(t, route)
		c := NewGeneticController(route, queue, testOptions(), nil)

		Convey("Running it reaches a stop condition without losing track of the population size", func() {
			c.Run()

			So(c.StopReason, ShouldNotBeEmpty)
			So(c.BestSolutionResults, ShouldNotBeNil)
			So(len(c.Solutions), ShouldBeGreaterThan, 0)
		})
	})
}

func TestPSOControllerRunsToStopCondition(t *testing.T) {
	Convey("Given a PSO controller over a single-train straight line", t, func() {
		route := buildStraightLineRoute(t)
		queue := singleTrainQueue(t, route)
		c := NewPSOController(route, queue, testOptions(), nil)

		Convey("Running it reaches a stop condition and tracks a global best particle", func() {
			c.Run()

			So(c.StopReason, ShouldNotBeEmpty)
			So(c.BestSolutionResults, ShouldNotBeNil)
			So(c.bestGlobal, ShouldNotBeNil)
		})
	})
}

func TestUpdateBestSolutionPrefersCompletedTrains(t *testing.T) {
	Convey("Given a controller with one completed and one aborted solution", t, func() {
		route := buildStraightLineRoute(t)
		queue := singleTrainQueue(t, route)
		opts := testOptions()
		c := &BaseController{
			Options:            opts,
			Route:              route,
			Trains:             queue,
			BestSolutionCost:   1e18,
			BestSolutionStatus: "---",
			logger:             noopLogger(),
		}

		completed := simulation.NewSimulation(route, queue, nil, opts.SimulationOptions, nil)
		completed.HasCompletedEveryTrain = true
		completed.AccumulatedCost = 10
		completed.Results = &simulation.SimulationResults{SimulationUUID: "completed"}

		aborted := simulation.NewSimulation(route, queue, nil, opts.SimulationOptions, nil)
		aborted.HasCompletedEveryTrain = false
		aborted.AccumulatedCost = 1 // cheaper, but didn't finish every train
		aborted.Results = &simulation.SimulationResults{SimulationUUID: "aborted"}

		c.Solutions = []*simulation.Simulation{completed, aborted}

		Convey("The completed one wins even though its cost is higher", func() {
			c.updateBestSolution()

			So(c.BestSolutionResults.SimulationUUID, ShouldEqual, "completed")
			So(c.BestSolutionCost, ShouldEqual, 10)
		})
	})
}

func noopLogger() log.Logger {
	return log.New()
}
