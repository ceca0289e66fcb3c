// Package controller implements the population-based metaheuristic search
// over per-train action scripts described in spec.md §4.8: a BaseController
// carries the worker pool, best-solution tracking and stop-condition check
// common to all three families, and Random/Genetic/PSO each override just
// their step logic and call back into the base behaviour, mirroring
// original_source/controller/core/base_controller.py's
// super().take_step_actions() pattern.
package controller

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	log "gopkg.in/inconshreveable/log15.v2"

	"github.com/fndando/dispatchsim/simulation"
)

// stepTaker is the per-family override point. Run() dispatches to it each
// controller step; concrete controllers call BaseController.TakeStepActions
// at the point their own step logic ends, matching the Python super() call.
type stepTaker interface {
	takeStepActions()
}

// BaseController owns the candidate population, the worker pool, and the
// best-solution-so-far bookkeeping shared by every controller family
// (spec.md §4.8).
type BaseController struct {
	Name   string
	Abbrev string

	Options Options

	Route  *simulation.Route
	Trains []simulation.QueuedTrain

	Solutions []*simulation.Simulation

	BestSolutionResults         *simulation.SimulationResults
	BestSolutionCost            float64
	BestSolutionLastUpdatedStep int
	BestSolutionStatus          simulation.Status

	IterationsCounter           int
	SuccessfulIterationsCounter int
	StopReason                  string
	BestCostPerStep             []float64

	CurrentStep int
	Runtime     time.Duration

	running    bool
	logger     log.Logger
	seedSource *rand.Rand

	self stepTaker
}

func newBaseController(name, abbrev string, route *simulation.Route, trains []simulation.QueuedTrain, opts Options, logger log.Logger) *BaseController {
	if logger == nil {
		logger = log.New()
	}
	logger = logger.New("controller", name)
	return &BaseController{
		Name:               name,
		Abbrev:             abbrev,
		Options:            opts,
		Route:              route,
		Trains:             trains,
		BestSolutionCost:   math.Inf(1),
		BestSolutionStatus: "---",
		logger:             logger,
		seedSource:         rand.New(rand.NewSource(opts.Seed)),
	}
}

func cloneQueue(q []simulation.QueuedTrain) []simulation.QueuedTrain {
	out := make([]simulation.QueuedTrain, len(q))
	copy(out, q)
	return out
}

// newSolution builds (without registering) a candidate simulation scripted
// with the given per-train action lists. A nil map leaves every train to
// choose actions at random each tick, which is exactly what the Random
// controller wants. Each candidate gets its own seed derived from the
// controller's own seed stream, so that worker-pool interleaving across a
// population remains reproducible but candidates don't share one RNG
// stream (spec.md §9 "Random streams").
func (b *BaseController) newSolution(trainsActions map[string][]simulation.ActionKind) *simulation.Simulation {
	opts := b.Options.SimulationOptions
	opts.Seed = b.seedSource.Int63()
	return simulation.NewSimulation(b.Route, cloneQueue(b.Trains), trainsActions, opts, b.logger)
}

// createSolution builds and registers a new candidate simulation.
func (b *BaseController) createSolution(trainsActions map[string][]simulation.ActionKind) {
	b.Solutions = append(b.Solutions, b.newSolution(trainsActions))
}

// Run drives controller steps until a stop condition fires.
func (b *BaseController) Run() {
	b.running = true
	start := time.Now()
	for b.running {
		b.self.takeStepActions()
	}
	b.Runtime = time.Since(start)
}

// TakeStepActions is the common step body every controller family's
// takeStepActions() delegates to once its own family-specific operators
// have run (spec.md §4.8 "BaseController.run()").
func (b *BaseController) TakeStepActions() {
	b.runUnsolvedSolutions()
	b.updateBestSolution()
	b.checkStopConditions()
	b.CurrentStep++
}

// runUnsolvedSolutions drives every unfinished candidate to completion on a
// bounded worker pool (spec.md §5 "Scheduling"), capped so the controller
// never exceeds max_iterations mid-batch.
func (b *BaseController) runUnsolvedSolutions() {
	start := time.Now()

	var unsolved []*simulation.Simulation
	for _, s := range b.Solutions {
		if !s.HasFinished {
			unsolved = append(unsolved, s)
		}
	}

	if b.Options.MaxIterations > 0 {
		remaining := b.Options.MaxIterations - b.IterationsCounter
		if remaining < 0 {
			remaining = 0
		}
		if len(unsolved) > remaining {
			unsolved = unsolved[:remaining]
		}
	}

	workers := b.Options.MaxThreadWorkers
	if workers > len(unsolved) {
		workers = len(unsolved)
	}
	if workers < 1 {
		workers = 1
	}

	b.logger.Info("starting unsolved solutions", "count", len(unsolved), "step", b.CurrentStep, "workers", workers)

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for _, s := range unsolved {
		s := s
		g.Go(func() error {
			s.Run()
			return nil
		})
	}
	g.Wait()

	b.IterationsCounter += len(unsolved)
	for _, s := range unsolved {
		if s.HasCompletedEveryTrain {
			b.SuccessfulIterationsCounter++
		}
	}

	b.logger.Info("finished solutions", "count", len(unsolved), "step", b.CurrentStep, "elapsed", time.Since(start))
}

// updateBestSolution prefers simulations that completed every train; if
// none did, it considers the whole population (spec.md §4.8 "Best-solution
// update").
func (b *BaseController) updateBestSolution() {
	var completed []*simulation.Simulation
	for _, s := range b.Solutions {
		if s.HasCompletedEveryTrain {
			completed = append(completed, s)
		}
	}
	pool := b.Solutions
	if len(completed) > 0 {
		pool = completed
	}

	for _, s := range pool {
		if s.AccumulatedCost < b.BestSolutionCost {
			b.BestSolutionResults = s.Results
			b.BestSolutionCost = s.AccumulatedCost
			b.BestSolutionLastUpdatedStep = b.CurrentStep
			b.BestSolutionStatus = s.GetStatusText()
			b.BestSolutionResults.ControllerName = b.Name

			b.logger.Info("updated global best", "cost", b.BestSolutionCost, "step", b.BestSolutionLastUpdatedStep, "status", b.BestSolutionStatus)
		}
	}
	b.BestCostPerStep = append(b.BestCostPerStep, b.BestSolutionCost)
}

func (b *BaseController) checkStopConditions() {
	if b.Options.MaxIterations > 0 && b.IterationsCounter >= b.Options.MaxIterations {
		b.stop("reached maximum iterations count")
		return
	}
	if b.Options.MaxConsecutiveStepsWithSameBest > 0 {
		delta := b.BestSolutionLastUpdatedStep + b.Options.MaxConsecutiveStepsWithSameBest - 1
		if b.CurrentStep >= delta {
			b.stop(fmt.Sprintf("same best cost for %d steps", b.Options.MaxConsecutiveStepsWithSameBest))
		}
	}
}

func (b *BaseController) stop(reason string) {
	b.running = false
	b.StopReason = reason
	b.logger.Info("controller stopped", "step", b.CurrentStep, "reason", reason)
}

// Report renders the plain-text controller summary (spec.md §6 "Outputs").
func (b *BaseController) Report() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n== %s Report ==\n", b.Name)
	sb.WriteString("Options used:\n")
	fmt.Fprintf(&sb, "\tCONTROLLER - max_thread_workers: %d\n", b.Options.MaxThreadWorkers)
	fmt.Fprintf(&sb, "\tCONTROLLER - max_iterations: %d\n", b.Options.MaxIterations)
	fmt.Fprintf(&sb, "\tCONTROLLER - max_consecutive_steps_with_same_best: %d\n", b.Options.MaxConsecutiveStepsWithSameBest)
	fmt.Fprintf(&sb, "\nTotal steps: %d\n", b.CurrentStep)
	fmt.Fprintf(&sb, "Total iterations: %d\n", b.IterationsCounter)
	fmt.Fprintf(&sb, "Total successful iterations: %d\n", b.SuccessfulIterationsCounter)
	fmt.Fprintf(&sb, "Stop reason: %s\n", b.StopReason)

	uuid, steps := "---", "---"
	if b.BestSolutionResults != nil {
		uuid = b.BestSolutionResults.SimulationUUID
		steps = strconv.Itoa(len(b.BestSolutionResults.Frames))
	}
	fmt.Fprintf(&sb, "Best solution UUID: %s\n", uuid)
	fmt.Fprintf(&sb, "Best solution cost: %v\n", b.BestSolutionCost)
	fmt.Fprintf(&sb, "Best solution status: %s\n", b.BestSolutionStatus)
	fmt.Fprintf(&sb, "Best solution total steps: %s\n", steps)
	fmt.Fprintf(&sb, "Controller total runtime: %s\n", simulation.FormatInterval(b.Runtime.Seconds()))
	return sb.String()
}

// historyActions reconstructs the scripted action sequence a train actually
// took, for reuse as the "gene" sequence by the GA and PSO controllers.
func historyActions(t *simulation.Train) []simulation.ActionKind {
	return historyActionsRange(t, 0, len(t.ActionsHistory))
}

func historyActionsRange(t *simulation.Train, from, to int) []simulation.ActionKind {
	out := make([]simulation.ActionKind, 0, to-from)
	for _, entry := range t.ActionsHistory[from:to] {
		kind, err := simulation.FindAction(entry.ActionName)
		if err == nil {
			out = append(out, kind)
		}
	}
	return out
}
