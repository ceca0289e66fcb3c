package simulation

import (
	"fmt"
	"math/rand"
)

// Direction is the nominal direction of travel a train was created with.
type Direction string

const (
	Normal   Direction = "normal"
	Reversed Direction = "reversed"
)

// RollingStockUnit reports whether one physical unit of a train's
// consist is able to move. A train with any non-operative unit is itself
// inoperative for the tick (spec.md §4.4 step 1, grounded on
// original_source/model/train.py's check_condition/rolling_stock).
type RollingStockUnit interface {
	IsOperative() bool
}

// ActionHistoryEntry records one action taken by a train, used both for
// reporting and as the "gene" sequence the GA/PSO controllers operate on.
type ActionHistoryEntry struct {
	Step             int
	ActionName       string
	ActionAbbrev     string
	AtSection        string
	AtPosition       float64
	Reversed         bool
	AccumulatedCost  float64
	InstantCost      float64
}

// TrainOptions configures a Train at construction time (spec.md §3, §6).
type TrainOptions struct {
	Prefix                       string
	StartSection                 *Section
	FinishSection                *Section
	Direction                    Direction
	Priority                     int
	Length                       float64
	Weight                       float64
	StepToAdd                    int
	MayInvadeInterdictedSections bool
	AllowReverseAction           bool
	RollingStock                 []RollingStockUnit
	Coefficients                 CostCoefficients
}

// Train is a per-simulation agent advancing one tick at a time, exclusively
// owned by a single Dispatcher within a single Simulation (spec.md §3).
type Train struct {
	Options TrainOptions

	Prefix   string
	Priority int
	IsReversed bool

	TimeDynamics *TimeDynamics
	Equation     *TrainEquation
	rng          *rand.Rand

	CurrentHeadSection *Section
	RelativePosition   float64
	SectionStart       Endpoint

	NextStraightSection     *Section
	NextDeviatedSection     *Section
	NextTurnoutSection      *Section
	PreviousStraightSection *Section
	PreviousDeviatedSection *Section
	PreviousTurnoutSection  *Section

	RoutesBetweenClosestTurnouts [][]string
	PossibleActions              []ActionKind

	TrainsAhead  []*Train
	TrainsBehind []*Train

	ActionsQueue   []ActionKind
	ActionsHistory []ActionHistoryEntry

	ExecutingAction *Action

	Odometer      float64
	TravelingTime float64
	StoppedTime   float64

	LastAccumulatedCost float64
	AccumulatedCost     float64
	InstantCost         float64

	Operative bool
}

// NewTrain builds a Train bound to its own TimeDynamics clone (callers pass
// the dispatcher's cloned dynamics) and a seeded RNG stream (spec.md §9
// "Random streams": per-simulation reproducibility requires an explicit
// seed, not the global math/rand source).
func NewTrain(opts TrainOptions, timeDynamics *TimeDynamics, seed int64) *Train {
	priority := opts.Priority
	if priority < 1 {
		priority = 1
	}
	coeff := opts.Coefficients
	if coeff == (CostCoefficients{}) {
		coeff = DefaultCostCoefficients()
	}
	opts.Coefficients = coeff

	t := &Train{
		Options:            opts,
		Prefix:             opts.Prefix,
		Priority:           priority,
		TimeDynamics:       timeDynamics,
		rng:                rand.New(rand.NewSource(seed)),
		CurrentHeadSection: opts.StartSection,
		SectionStart:       EndStraight,
		RelativePosition:   0.5,
		Operative:          true,
		IsReversed:         opts.Direction == Reversed,
	}
	t.Equation = NewTrainEquation(coeff, timeDynamics)
	return t
}

func (t *Train) String() string { return fmt.Sprintf("<Train_%s>", t.Prefix) }

// Stop sets the desired velocity to zero.
func (t *Train) Stop() {
	t.Equation.DesiredVelocity = 0
}

// GoAtMaximumSpeed sets the desired velocity to the maximum allowed at the
// train's current position, signed by direction of travel.
func (t *Train) GoAtMaximumSpeed() {
	maxKmH := t.CurrentHeadSection.MaximumVelocityAtRelativePosition(t.RelativePosition)
	sign := 1.0
	if t.IsReversed {
		sign = -1.0
	}
	t.Equation.DesiredVelocity = (maxKmH / 3.6) * sign
}

// KeepGoingIfNotAtSectionEnd drives at maximum speed unless already at the
// section end, in which case it stops — the common "approach and wait"
// behaviour shared by WaitOvertake and WaitCrossing.
func (t *Train) KeepGoingIfNotAtSectionEnd() {
	if !t.IsAtSectionEnd() {
		t.GoAtMaximumSpeed()
		return
	}
	t.Stop()
}

// IsAtSectionEnd reports whether the train has reached the end of its
// current section in its direction of travel.
func (t *Train) IsAtSectionEnd() bool {
	if t.IsReversed {
		return t.RelativePosition <= 0.0
	}
	return t.RelativePosition >= 1.0
}

// HasFinished is true iff the head section equals the finish section and
// the relative position has crossed the midpoint in the direction of
// travel (spec.md §4.4 — intentionally allows "finished" before fully
// clearing the destination section, per spec.md §9 open question (b)).
func (t *Train) HasFinished() bool {
	if t.Options.FinishSection == nil || t.CurrentHeadSection == nil || t.CurrentHeadSection.Name != t.Options.FinishSection.Name {
		return false
	}
	if t.IsReversed {
		return t.RelativePosition <= 0.5
	}
	return t.RelativePosition >= 0.5
}

// IsAtTurnoutClosing reports whether the train is about to enter a closing
// turnout: its next straight section is the next turnout, that turnout has
// exactly one successor beyond it and more than one predecessor, in the
// train's direction of travel.
func (t *Train) IsAtTurnoutClosing() bool {
	if t.NextStraightSection == nil || t.NextTurnoutSection == nil || t.NextStraightSection.Name != t.NextTurnoutSection.Name {
		return false
	}
	after, before := "end", "start"
	if t.IsReversed {
		after, before = "start", "end"
	}
	return len(t.NextTurnoutSection.AccessibleConnections(after)) == 1 &&
		len(t.NextTurnoutSection.AccessibleConnections(before)) > 1
}

// HasHigherPriorityTrainsBehind reports whether any trailing train has
// priority greater than or equal to this train's.
func (t *Train) HasHigherPriorityTrainsBehind() bool {
	for _, behind := range t.TrainsBehind {
		if behind.Priority >= t.Priority {
			return true
		}
	}
	return false
}

// Step performs the per-tick kinematic update and action bookkeeping
// described in spec.md §4.4.
func (t *Train) Step() {
	t.checkCondition()
	t.Equation.UpdateVelocity()
	t.updatePosition()

	if t.Operative {
		t.checkExecutingAction()
	}

	t.updateTimes()
}

func (t *Train) checkCondition() {
	t.Operative = true
	for _, unit := range t.Options.RollingStock {
		if !unit.IsOperative() {
			t.Operative = false
			break
		}
	}
}

func (t *Train) updatePosition() {
	newPosition := t.Equation.CalculateNextStepPosition(t.CurrentHeadSection.Length, t.RelativePosition)
	if newPosition < 0 {
		newPosition = 0
	} else if newPosition > 1 {
		newPosition = 1
	}
	delta := t.CurrentHeadSection.Length * (newPosition - t.RelativePosition)
	if delta < 0 {
		delta = -delta
	}
	t.Odometer += delta
	t.RelativePosition = newPosition
}

func (t *Train) checkExecutingAction() {
	if t.ExecutingAction != nil && wasExecuted(t.ExecutingAction, t) {
		t.ExecutingAction = nil
	}
	if t.ExecutingAction == nil {
		t.Stop()
		t.setNextAction()
	}
}

func (t *Train) setNextAction() {
	if len(t.PossibleActions) == 0 {
		return
	}
	if len(t.ActionsQueue) > 0 {
		selected := t.ActionsQueue[0]
		t.ActionsQueue = t.ActionsQueue[1:]
		if containsKind(t.PossibleActions, selected) {
			t.setAction(selected)
			return
		}
	}
	choice := t.PossibleActions[t.rng.Intn(len(t.PossibleActions))]
	t.setAction(choice)
}

func containsKind(kinds []ActionKind, k ActionKind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

func (t *Train) setAction(kind ActionKind) {
	t.ExecutingAction = &Action{Kind: kind}
	t.ActionsHistory = append(t.ActionsHistory, ActionHistoryEntry{
		Step:            t.TimeDynamics.CurrentStep,
		ActionName:      actionName(kind),
		ActionAbbrev:    actionAbbrev(kind),
		AtSection:       t.CurrentHeadSection.Name,
		AtPosition:      t.RelativePosition,
		Reversed:        t.IsReversed,
		AccumulatedCost: t.AccumulatedCost,
		InstantCost:     t.InstantCost,
	})
}

func (t *Train) updateTimes() {
	if t.Equation.Velocity != 0 {
		t.TravelingTime += t.TimeDynamics.StepDuration
	} else {
		t.StoppedTime += t.TimeDynamics.StepDuration
	}
}
