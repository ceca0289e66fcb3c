package simulation

// ActionKind enumerates the closed set of five actions a train can take
// (spec.md §4.5). Encoded as a tagged union rather than open subclassing,
// per spec.md §9 "Polymorphic actions": applicability and execution are
// pattern-matched functions over the kind, with any per-variant runtime
// state (lookup train, moving-towards section, executed flag) carried on
// the Action value itself.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionMoveStraight
	ActionMoveDeviate
	ActionWaitOvertake
	ActionWaitCrossing
	ActionReverse
)

// AllActions is the closed, ordered action set. Order matters for the PSO
// controller's position-index mapping (spec.md §4.8).
var AllActions = []ActionKind{
	ActionMoveStraight,
	ActionMoveDeviate,
	ActionWaitOvertake,
	ActionWaitCrossing,
	ActionReverse,
}

func actionName(k ActionKind) string {
	switch k {
	case ActionMoveStraight:
		return "move_straight"
	case ActionMoveDeviate:
		return "move_to_deviated"
	case ActionWaitOvertake:
		return "wait_for_overtake"
	case ActionWaitCrossing:
		return "wait_for_crossing"
	case ActionReverse:
		return "reverse"
	default:
		return "none"
	}
}

func actionAbbrev(k ActionKind) string {
	switch k {
	case ActionMoveStraight:
		return "MST"
	case ActionMoveDeviate:
		return "MDV"
	case ActionWaitOvertake:
		return "WOT"
	case ActionWaitCrossing:
		return "WCR"
	case ActionReverse:
		return "REV"
	default:
		return "---"
	}
}

// FindAction resolves an action by its name or abbreviation, failing with
// NotFound if the keyword names nothing in the closed set.
func FindAction(keyword string) (ActionKind, error) {
	for _, k := range AllActions {
		if actionName(k) == keyword || actionAbbrev(k) == keyword {
			return k, nil
		}
	}
	return ActionNone, NewError(NotFound, "action %q wasn't found", keyword)
}

// Action is the mutable runtime state of one in-flight action instance.
type Action struct {
	Kind                 ActionKind
	MovingTowardsSection string
	LookupTrain          *Train
	Executed             bool
}

func (a *Action) Describe() string {
	switch a.Kind {
	case ActionMoveStraight:
		return "Mov. str. to " + a.MovingTowardsSection
	case ActionMoveDeviate:
		return "Mov. dev. to " + a.MovingTowardsSection
	case ActionWaitOvertake:
		if a.LookupTrain != nil {
			return "Wait. OVT by " + a.LookupTrain.Prefix
		}
		return "Wait. OVT by ---"
	case ActionWaitCrossing:
		if a.LookupTrain != nil {
			return "Wait. CRS with " + a.LookupTrain.Prefix
		}
		return "Wait. CRS with ---"
	case ActionReverse:
		return "Reverse"
	default:
		return "No action (idle)"
	}
}

// isApplicable dispatches to the per-kind applicability predicate
// (spec.md §4.5).
func isApplicable(kind ActionKind, d *Dispatcher, t *Train) bool {
	switch kind {
	case ActionMoveStraight:
		return t.NextStraightSection != nil && !d.IsSectionOccupied(t.NextStraightSection, t.IsReversed)
	case ActionMoveDeviate:
		return t.NextDeviatedSection != nil && !d.IsSectionOccupied(t.NextDeviatedSection, t.IsReversed)
	case ActionWaitOvertake:
		return waitOvertakeApplicable(d, t)
	case ActionWaitCrossing:
		return waitCrossingApplicable(d, t)
	case ActionReverse:
		return reverseApplicable(d, t)
	default:
		return false
	}
}

func waitOvertakeApplicable(d *Dispatcher, t *Train) bool {
	if !t.IsAtTurnoutClosing() {
		return false
	}
	if len(t.RoutesBetweenClosestTurnouts) <= 1 {
		return false
	}
	if !anyRouteAvailable(d, t.RoutesBetweenClosestTurnouts, t.IsReversed) {
		return false
	}
	if len(t.TrainsBehind) == 0 {
		return false
	}
	return t.HasHigherPriorityTrainsBehind()
}

func waitCrossingApplicable(d *Dispatcher, t *Train) bool {
	if t.NextStraightSection == nil || !t.NextStraightSection.IsTurnout() {
		return false
	}
	allOthersAheadWaitingCrossing := true
	for _, other := range t.TrainsAhead {
		if other.ExecutingAction == nil || other.ExecutingAction.Kind != ActionWaitCrossing {
			allOthersAheadWaitingCrossing = false
			break
		}
	}
	if len(t.TrainsAhead) == 0 {
		allOthersAheadWaitingCrossing = false
	}
	if !anyRouteAvailable(d, t.RoutesBetweenClosestTurnouts, t.IsReversed) {
		return false
	}
	return len(t.RoutesBetweenClosestTurnouts) > 1 && len(t.TrainsAhead) > 0 && !allOthersAheadWaitingCrossing
}

func reverseApplicable(d *Dispatcher, t *Train) bool {
	nextSections := d.Route.SectionsMapper.GetNextSections(t.CurrentHeadSection, t.IsReversed)
	if len(nextSections) == 0 {
		return true
	}
	inStraightSection := !t.CurrentHeadSection.IsTurnout()
	if !inStraightSection {
		return false
	}
	for _, s := range nextSections {
		if !d.IsSectionOccupied(s, t.IsReversed) {
			return false
		}
	}
	return true
}

func anyRouteAvailable(d *Dispatcher, routes [][]string, reversed bool) bool {
	for _, route := range routes {
		if d.IsRouteAvailable(route, reversed) {
			return true
		}
	}
	return false
}

// execute dispatches to the per-kind execution effect (spec.md §4.5).
func execute(kind ActionKind, d *Dispatcher, t *Train) {
	action := t.ExecutingAction
	switch kind {
	case ActionMoveStraight:
		d.moveTo(action, t, t.NextStraightSection)
	case ActionMoveDeviate:
		d.moveTo(action, t, t.NextDeviatedSection)
	case ActionWaitOvertake:
		t.KeepGoingIfNotAtSectionEnd()
		if action.LookupTrain == nil && len(t.TrainsBehind) > 0 {
			action.LookupTrain = t.TrainsBehind[0]
		}
		action.Executed = len(t.TrainsBehind) == 0 || !trainInList(t.TrainsBehind, action.LookupTrain)
	case ActionWaitCrossing:
		t.KeepGoingIfNotAtSectionEnd()
		if action.LookupTrain == nil && len(t.TrainsAhead) > 0 {
			action.LookupTrain = t.TrainsAhead[0]
		}
		action.Executed = len(t.TrainsAhead) == 0 || !trainInList(t.TrainsAhead, action.LookupTrain)
	case ActionReverse:
		executeReverse(action, t)
	}
}

func executeReverse(action *Action, t *Train) {
	if !t.IsAtSectionEnd() {
		t.GoAtMaximumSpeed()
		return
	}
	t.IsReversed = !t.IsReversed
	if t.SectionStart == EndStraight || t.SectionStart == EndDeviated {
		t.SectionStart = StartStraight
	} else {
		t.SectionStart = EndStraight
	}
	action.Executed = true
}

func trainInList(list []*Train, needle *Train) bool {
	if needle == nil {
		return false
	}
	for _, t := range list {
		if t.Prefix == needle.Prefix {
			return true
		}
	}
	return false
}

// wasExecuted reports whether the in-flight action is done. Move actions
// latch Executed directly via moveTo; wait actions additionally complete
// once their lookup train has passed, per their execute() above.
func wasExecuted(a *Action, t *Train) bool {
	return a.Executed
}

// moveTo embodies the common move protocol shared by MoveStraight and
// MoveDeviate (spec.md §4.5 "move_to"): drive to section end, then either
// relocate onto an unoccupied next section or stay put, marking the action
// executed in either case once the end is reached.
func (d *Dispatcher) moveTo(action *Action, t *Train, next *Section) {
	if next != nil {
		action.MovingTowardsSection = next.Name
	}

	if !t.IsAtSectionEnd() {
		t.GoAtMaximumSpeed()
		return
	}
	t.Stop()

	if next == nil {
		d.abortf(ConflictCondition, "tried to move train %s into a non-existing section", t.Prefix)
		action.Executed = true
		return
	}

	if !d.IsSectionOccupied(next, t.IsReversed) {
		if err := d.MoveTrainToSection(t, next); err != nil {
			d.abortErr(err)
		}
	}
	action.Executed = true
}
