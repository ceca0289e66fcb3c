package simulation

import (
	"math/rand"

	log "gopkg.in/inconshreveable/log15.v2"
)

// QueuedTrain describes a train waiting to be admitted into the simulation.
type QueuedTrain struct {
	Options TrainOptions
}

// Dispatcher owns the active train set and the per-section occupancy index,
// and runs one tick at a time (spec.md §3, §4.6).
type Dispatcher struct {
	Route        *Route
	TimeDynamics *TimeDynamics

	Trains       []*Train
	TrainsQueue  []QueuedTrain
	TrainsActions map[string][]ActionKind

	OccupancyDict map[string][]*Train

	StepsWithoutMovement int
	lastPositions        []float64

	seedSource *rand.Rand

	aborted      bool
	abortReason  string

	logger log.Logger
}

// NewDispatcher builds a Dispatcher over the given route, queued trains,
// and prescribed per-prefix action scripts, seeded for reproducibility
// (spec.md §9).
func NewDispatcher(route *Route, timeDynamics *TimeDynamics, queue []QueuedTrain, trainsActions map[string][]ActionKind, seed int64, logger log.Logger) *Dispatcher {
	occupancy := make(map[string][]*Train, len(route.Sections))
	for _, s := range route.Sections {
		occupancy[s.Name] = nil
	}
	if trainsActions == nil {
		trainsActions = map[string][]ActionKind{}
	}
	if logger == nil {
		logger = log.New()
	}
	return &Dispatcher{
		Route:         route,
		TimeDynamics:  timeDynamics,
		TrainsQueue:   queue,
		TrainsActions: trainsActions,
		OccupancyDict: occupancy,
		seedSource:    rand.New(rand.NewSource(seed)),
		logger:        logger,
	}
}

func (d *Dispatcher) abortf(kind Kind, format string, args ...interface{}) {
	d.abortErr(NewError(kind, format, args...))
}

func (d *Dispatcher) abortErr(err error) {
	if d.aborted {
		return
	}
	d.aborted = true
	d.abortReason = err.Error()
	d.logger.Warn("dispatcher aborted", "reason", d.abortReason)
}

// Aborted reports whether a ConflictCondition fault aborted this tick.
func (d *Dispatcher) Aborted() (bool, string) { return d.aborted, d.abortReason }

// Step performs one full dispatcher tick (spec.md §4.6).
func (d *Dispatcher) Step() {
	d.checkTrainsToAdd()
	d.updateOccupancyDict()
	d.retireFinishedTrains()

	for _, train := range d.Trains {
		train.Step()
		if train.ExecutingAction != nil {
			execute(train.ExecutingAction.Kind, d, train)
		}
		d.updateTrainSections(train)
		d.updateOccupancyDict()
		d.updateTrainPossibleActions(train)
		d.updateRelatedTrains(train)
		d.updateTrainCost(train)
	}

	if len(d.Trains) > 0 {
		d.updateStepsWithoutMovement()
	} else {
		d.StepsWithoutMovement = 0
	}
}

func (d *Dispatcher) checkTrainsToAdd() {
	if len(d.TrainsQueue) == 0 {
		return
	}

	var remaining []QueuedTrain
	for _, q := range d.TrainsQueue {
		if d.isTrainReadyToBeAdded(q) {
			if err := d.admitTrain(q); err != nil {
				d.abortErr(err)
			}
		} else {
			remaining = append(remaining, q)
		}
	}
	d.TrainsQueue = remaining
}

func (d *Dispatcher) isTrainReadyToBeAdded(q QueuedTrain) bool {
	isReversed := q.Options.Direction == Reversed
	if q.Options.StepToAdd > 0 {
		return d.TimeDynamics.CurrentStep >= q.Options.StepToAdd && !d.IsSectionOccupied(q.Options.StartSection, isReversed)
	}
	return !d.IsSectionOccupied(q.Options.StartSection, isReversed)
}

func (d *Dispatcher) admitTrain(q QueuedTrain) error {
	isReversed := q.Options.Direction == Reversed
	if d.IsSectionOccupied(q.Options.StartSection, isReversed) {
		return NewError(ConflictCondition, "error while adding train %s: section %s is already occupied", q.Options.Prefix, q.Options.StartSection.Name)
	}

	seed := d.seedSource.Int63()
	train := NewTrain(q.Options, d.TimeDynamics.Clone(), seed)
	if actions, ok := d.TrainsActions[train.Prefix]; ok {
		train.ActionsQueue = append([]ActionKind{}, actions...)
	}

	d.Trains = append(d.Trains, train)
	d.logger.Debug("admitted train", "prefix", train.Prefix, "start", q.Options.StartSection.Name, "reversed", isReversed)
	return nil
}

func (d *Dispatcher) retireFinishedTrains() {
	kept := d.Trains[:0:0]
	for _, t := range d.Trains {
		if !t.HasFinished() {
			kept = append(kept, t)
		}
	}
	d.Trains = kept
}

// IsSectionOccupied reports whether the section is occupied for the given
// direction, including the turnout pass-through rule: a turnout with no
// direct occupant is occupied iff every successor in the relevant direction
// is itself occupied (spec.md §4.6).
func (d *Dispatcher) IsSectionOccupied(section *Section, reversed bool) bool {
	if section == nil {
		return true
	}
	occupants := d.OccupancyDict[section.Name]
	if section.IsTurnout() && len(occupants) == 0 {
		nexts := d.Route.SectionsMapper.GetNextSections(section, reversed)
		if len(nexts) == 0 {
			return false
		}
		for _, next := range nexts {
			if !d.IsSectionOccupied(next, reversed) {
				return false
			}
		}
		return true
	}
	return len(occupants) > 0
}

// IsRouteAvailable reports whether every section named in the route is
// unoccupied when approached from the opposite direction (the direction a
// crossing/overtaking move would use).
func (d *Dispatcher) IsRouteAvailable(sectionNames []string, reversed bool) bool {
	for _, name := range sectionNames {
		section, err := d.Route.SectionsMapper.FindSectionByName(name)
		if err != nil {
			return false
		}
		if d.IsSectionOccupied(section, !reversed) {
			return false
		}
	}
	return true
}

// MoveTrainToSection relocates a train's head onto newSection, honouring
// the interdiction rule (spec.md §4, supplemented from original_source).
func (d *Dispatcher) MoveTrainToSection(t *Train, newSection *Section) error {
	if newSection == nil {
		return NewError(ConflictCondition, "next section for train %s is nil", t.Prefix)
	}
	if newSection.Interdicted && !t.Options.MayInvadeInterdictedSections {
		return NewError(ConflictCondition, "next section (%s) is interdicted and train %s is not allowed to invade", newSection.Name, t.Prefix)
	}

	t.SectionStart = t.CurrentHeadSection.RelativeOrigin(newSection.Name)
	t.CurrentHeadSection = newSection
	if t.IsReversed {
		t.RelativePosition = 1.0
	} else {
		t.RelativePosition = 0.0
	}
	d.logger.Debug("train moved", "prefix", t.Prefix, "to", newSection.Name, "step", d.TimeDynamics.CurrentStep)
	return nil
}

func (d *Dispatcher) updateTrainSections(t *Train) {
	nexts := d.Route.SectionsMapper.GetNextSections(t.CurrentHeadSection, t.IsReversed)
	prevs := d.Route.SectionsMapper.GetPreviousSections(t.CurrentHeadSection, t.IsReversed)

	t.NextStraightSection = at(nexts, 0)
	t.NextDeviatedSection = at(nexts, 1)
	t.NextTurnoutSection = d.Route.SectionsMapper.GetNextTurnout(t.CurrentHeadSection, t.IsReversed)

	t.PreviousStraightSection = at(prevs, 0)
	t.PreviousDeviatedSection = at(prevs, 1)
	t.PreviousTurnoutSection = d.Route.SectionsMapper.GetPreviousTurnout(t.CurrentHeadSection, t.IsReversed)

	t.RoutesBetweenClosestTurnouts = d.Route.SectionsMapper.GetRoutesBetweenSections(
		t.PreviousTurnoutSection, t.NextTurnoutSection, t.IsReversed, nil,
	)
}

func at(sections []*Section, idx int) *Section {
	if idx < len(sections) {
		return sections[idx]
	}
	return nil
}

func (d *Dispatcher) updateTrainPossibleActions(t *Train) {
	possible := make([]ActionKind, 0, len(AllActions))
	for _, kind := range AllActions {
		if isApplicable(kind, d, t) {
			possible = append(possible, kind)
		}
	}
	t.PossibleActions = possible
}

func (d *Dispatcher) updateRelatedTrains(t *Train) {
	ahead := d.trainsMovingOppositeFromSection(t.CurrentHeadSection, t.IsReversed)
	behind := d.trainsMovingNormalBeforeSection(t.CurrentHeadSection, t.IsReversed)

	filteredAhead := ahead[:0:0]
	for _, other := range ahead {
		if other.Prefix == t.Prefix {
			continue
		}
		if other.CurrentHeadSection.Name == t.CurrentHeadSection.Name && other.RelativePosition < t.RelativePosition {
			continue
		}
		filteredAhead = append(filteredAhead, other)
	}
	t.TrainsAhead = filteredAhead

	filteredBehind := behind[:0:0]
	for _, other := range behind {
		if other.Prefix == t.Prefix {
			continue
		}
		if other.CurrentHeadSection.Name == t.CurrentHeadSection.Name && other.RelativePosition > t.RelativePosition {
			continue
		}
		filteredBehind = append(filteredBehind, other)
	}
	t.TrainsBehind = filteredBehind
}

func (d *Dispatcher) trainsMovingNormalBeforeSection(section *Section, reversed bool) []*Train {
	if section == nil {
		return nil
	}
	direction := Normal
	if reversed {
		direction = Reversed
	}
	out := d.trainsInSection(section, direction)
	for _, before := range d.Route.SectionsMapper.GetAllSectionsBefore(section, reversed) {
		out = append(out, d.trainsInSection(before, direction)...)
	}
	return dedupeTrains(out)
}

func (d *Dispatcher) trainsMovingOppositeFromSection(section *Section, reversed bool) []*Train {
	if section == nil {
		return nil
	}
	direction := Reversed
	if reversed {
		direction = Normal
	}
	out := d.trainsInSection(section, direction)
	for _, after := range d.Route.SectionsMapper.GetAllSectionsAfter(section, reversed) {
		out = append(out, d.trainsInSection(after, direction)...)
	}
	return dedupeTrains(out)
}

func (d *Dispatcher) trainsInSection(section *Section, direction Direction) []*Train {
	var out []*Train
	for _, t := range d.Trains {
		if t.CurrentHeadSection.Name != section.Name {
			continue
		}
		wantReversed := direction == Reversed
		if t.IsReversed == wantReversed {
			out = append(out, t)
		}
	}
	return out
}

func dedupeTrains(trains []*Train) []*Train {
	seen := map[string]bool{}
	out := make([]*Train, 0, len(trains))
	for _, t := range trains {
		if seen[t.Prefix] {
			continue
		}
		seen[t.Prefix] = true
		out = append(out, t)
	}
	return out
}

func (d *Dispatcher) updateTrainCost(t *Train) {
	t.LastAccumulatedCost = t.AccumulatedCost
	distanceToGoal := d.trainDistanceToGoal(t)
	t.InstantCost = float64(t.Priority) * t.Equation.CalculateCost(
		t.Odometer, t.TravelingTime, t.StoppedTime, len(t.ActionsHistory), distanceToGoal,
	)
	t.AccumulatedCost += t.InstantCost
}

func (d *Dispatcher) trainDistanceToGoal(t *Train) float64 {
	distance := d.Route.SectionsMapper.GetDistanceBetweenSections(t.CurrentHeadSection, t.Options.FinishSection, t.IsReversed)
	if isInf(distance) {
		total := 0.0
		for _, s := range d.Route.Sections {
			total += s.Length
		}
		// Unreachable in the current direction: the original replaces the
		// whole distance-to-goal with 2*total track length, not just the
		// GetDistanceBetweenSections term (dispatcher.py:229-231).
		return 2 * total
	}
	traveled := t.RelativePosition * t.CurrentHeadSection.Length
	if t.IsReversed {
		traveled = (1 - t.RelativePosition) * t.CurrentHeadSection.Length
	}
	return distance - traveled - t.Options.FinishSection.Length + t.Options.Length
}

func isInf(f float64) bool { return f > 1e300 }

func (d *Dispatcher) updateOccupancyDict() {
	occupancy := make(map[string][]*Train, len(d.Route.Sections))
	for _, s := range d.Route.Sections {
		occupancy[s.Name] = nil
	}
	for _, t := range d.Trains {
		occupancy[t.CurrentHeadSection.Name] = append(occupancy[t.CurrentHeadSection.Name], t)
	}
	d.OccupancyDict = occupancy
}

func (d *Dispatcher) updateStepsWithoutMovement() {
	positions := make([]float64, len(d.Trains))
	for i, t := range d.Trains {
		positions[i] = t.RelativePosition
	}
	if !floatSlicesEqual(positions, d.lastPositions) {
		d.lastPositions = positions
		d.StepsWithoutMovement = 0
	} else {
		d.StepsWithoutMovement++
	}
}

func floatSlicesEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// HasCompletedEveryTrain reports whether the queue is empty and every
// active train has finished.
func (d *Dispatcher) HasCompletedEveryTrain() bool {
	if len(d.TrainsQueue) != 0 {
		return false
	}
	for _, t := range d.Trains {
		if !t.HasFinished() {
			return false
		}
	}
	return true
}

// FindTrainByPrefix returns the active train with the given prefix, or nil.
func (d *Dispatcher) FindTrainByPrefix(prefix string) *Train {
	for _, t := range d.Trains {
		if t.Prefix == prefix {
			return t
		}
	}
	return nil
}
