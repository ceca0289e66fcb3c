package simulation

import (
	"github.com/google/uuid"
	log "gopkg.in/inconshreveable/log15.v2"
)

// Status is the human-readable lifecycle status of a Simulation.
type Status string

const (
	StatusRunning Status = "RUNNING"
	StatusPaused  Status = "PAUSED"
	StatusSuccess Status = "SUCCESS"
	StatusFail    Status = "FAIL"
)

// Simulation drives one dispatcher through its tick loop to termination,
// enforcing the stop conditions in spec.md §4.7 and recording a per-tick
// frame log (spec.md §3).
type Simulation struct {
	UUID    string
	Options Options

	Route        *Route
	TimeDynamics *TimeDynamics
	Dispatcher   *Dispatcher
	Results      *SimulationResults

	CurrentStep     int
	AccumulatedCost float64

	running                         bool
	HasFinished                     bool
	HasCompletedEveryTrain          bool
	HasReachedStepLimit             bool
	HasReachedCostLimit             bool
	HasReachedNoMovementStepLimit   bool
	HasAborted                      bool
	AbortReason                     string

	logger log.Logger
}

// NewSimulation builds a Simulation over route with the given queued trains
// and prescribed action scripts. opts is used as given unless its
// StepDuration is zero; then DefaultOptions() is used instead, keeping only
// opts' non-zero MaxCost and MaxSteps plus its Seed and ControllerName.
func NewSimulation(route *Route, queue []QueuedTrain, trainsActions map[string][]ActionKind, opts Options, logger log.Logger) *Simulation {
	if opts.StepDuration == 0 {
		opts = mergeDefaults(opts)
	}
	if logger == nil {
		logger = log.New()
	}
	id := uuid.NewString()
	logger = logger.New("simulation", id)

	timeDynamics := NewTimeDynamics(opts.StepDuration, 0, nil)

	s := &Simulation{
		UUID:         id,
		Options:      opts,
		Route:        route,
		TimeDynamics: timeDynamics,
		Dispatcher:   NewDispatcher(route, timeDynamics, queue, trainsActions, opts.Seed, logger),
		Results:      &SimulationResults{SimulationUUID: id, ControllerName: opts.ControllerName},
		logger:       logger,
	}
	return s
}

func mergeDefaults(opts Options) Options {
	defaults := DefaultOptions()
	if opts.StepDuration != 0 {
		defaults.StepDuration = opts.StepDuration
	}
	if opts.MaxCost != 0 {
		defaults.MaxCost = opts.MaxCost
	}
	if opts.MaxSteps != 0 {
		defaults.MaxSteps = opts.MaxSteps
	}
	defaults.Seed = opts.Seed
	defaults.ControllerName = opts.ControllerName
	return defaults
}

// GetStatusText reports the simulation's current lifecycle status.
func (s *Simulation) GetStatusText() Status {
	if s.running {
		return StatusRunning
	}
	if !s.HasFinished {
		return StatusPaused
	}
	if s.HasCompletedEveryTrain {
		return StatusSuccess
	}
	return StatusFail
}

// Start transitions the simulation into the running state and evaluates
// stop conditions once (a zero-train simulation may terminate immediately).
func (s *Simulation) Start() {
	s.running = true
	s.checkStopConditions()
}

func (s *Simulation) stop() {
	s.running = false
}

// Step performs one full tick: advance the clock, run the dispatcher,
// record a frame, accumulate cost, then check stop conditions. Cost
// accumulates as the sum, over every train, of that train's own running
// accumulated_cost (original_source/simulation/simulation.py:109) — not
// its per-tick instant cost, so this grows faster than a plain per-tick
// sum as ticks pass.
func (s *Simulation) Step() {
	if s.running {
		s.TimeDynamics.Step()
		s.Dispatcher.Step()
		s.Results.RegisterFrame(s)

		for _, t := range s.Dispatcher.Trains {
			s.AccumulatedCost += t.AccumulatedCost
		}

		if aborted, reason := s.Dispatcher.Aborted(); aborted {
			s.abort(reason)
		}
	}

	s.checkStopConditions()
	s.CurrentStep++
}

func (s *Simulation) abort(reason string) {
	s.stop()
	s.HasAborted = true
	s.AbortReason = reason
	s.AccumulatedCost *= s.Options.AbortCostMultiplier
	s.logger.Warn("simulation aborted", "reason", reason)
}

// Run steps the simulation to termination.
func (s *Simulation) Run() {
	s.Start()
	for s.running {
		s.Step()
	}
}

// checkStopConditions evaluates the five terminal conditions in the order
// given by spec.md §4.7; the first one reached wins and its multiplier is
// applied exactly once (spec.md §8 "cost penalty chain" / §9 open question
// (c)) — unlike original_source/simulation.py, which evaluates every check
// unconditionally and can compound multipliers when two limits are hit on
// the same tick.
func (s *Simulation) checkStopConditions() {
	if s.HasAborted {
		s.HasFinished = true
		return
	}

	if s.Dispatcher.HasCompletedEveryTrain() {
		s.HasCompletedEveryTrain = true
		s.stop()
		s.HasFinished = true
		return
	}

	if s.Options.MaxSteps > 0 && s.CurrentStep >= s.Options.MaxSteps {
		s.HasReachedStepLimit = true
		s.AccumulatedCost *= s.Options.StepLimitMultiplier
		s.stop()
		s.HasFinished = true
		return
	}

	if s.AccumulatedCost >= s.Options.MaxCost {
		s.HasReachedCostLimit = true
		s.AccumulatedCost *= s.Options.CostLimitMultiplier
		s.stop()
		s.HasFinished = true
		return
	}

	if s.Options.MaxStepsWithoutTrainMovement > 0 && s.Dispatcher.StepsWithoutMovement > s.Options.MaxStepsWithoutTrainMovement {
		s.HasReachedNoMovementStepLimit = true
		s.AccumulatedCost *= s.Options.WithoutMovementMultiplier
		s.stop()
		s.HasFinished = true
		return
	}

	s.HasFinished = false
}

// GetTrainsInstantCost sums the instant cost across all active trains.
func (s *Simulation) GetTrainsInstantCost() float64 {
	total := 0.0
	for _, t := range s.Dispatcher.Trains {
		total += t.InstantCost
	}
	return total
}
