package simulation

// CostCoefficients holds the per-train coefficients feeding TrainEquation's
// cost calculation (spec.md §4.3).
type CostCoefficients struct {
	CostNormalizer      float64
	MeterTravelledCost  float64
	TravelingTimeCost   float64
	StoppedTimeCost     float64
	DistanceToGoalCost  float64
	ActionCost          float64
}

// DefaultCostCoefficients matches the defaults given in spec.md §4.3 /
// original_source/model/train.py's TrainOptions.
func DefaultCostCoefficients() CostCoefficients {
	return CostCoefficients{
		CostNormalizer:     1e-9,
		MeterTravelledCost: 0.2,
		TravelingTimeCost:  0.4,
		StoppedTimeCost:    0.3,
		DistanceToGoalCost: 0.5,
		ActionCost:         100,
	}
}

// TrainEquation is the first-order kinematic update and cost model for one
// train (spec.md §4.3). No ramp-up/down is modelled: velocity jumps
// directly to the desired value each tick.
type TrainEquation struct {
	coefficients   CostCoefficients
	timeDynamics   *TimeDynamics
	Velocity       float64 // m/s, signed: negative while reversed
	DesiredVelocity float64 // m/s
}

// NewTrainEquation builds a TrainEquation bound to the given train's time
// dynamics and cost coefficients.
func NewTrainEquation(coefficients CostCoefficients, timeDynamics *TimeDynamics) *TrainEquation {
	return &TrainEquation{coefficients: coefficients, timeDynamics: timeDynamics}
}

// UpdateVelocity sets the current velocity to the desired velocity
// (first-order, no ramp).
func (e *TrainEquation) UpdateVelocity() {
	e.Velocity = e.DesiredVelocity
}

// CalculateNextStepPosition returns the next relative position along a
// section of the given length, starting from lastRelativePosition.
func (e *TrainEquation) CalculateNextStepPosition(sectionLength, lastRelativePosition float64) float64 {
	if sectionLength == 0 {
		return lastRelativePosition
	}
	lastRealPosition := sectionLength * lastRelativePosition
	newRealPosition := e.Velocity*e.timeDynamics.StepDuration + lastRealPosition
	return newRealPosition / sectionLength
}

// CalculateCost computes the instant (pre-priority-weighting) cost
// contribution of a train given its current distance to goal, per the
// formula in spec.md §4.3.
func (e *TrainEquation) CalculateCost(odometer, travelingTime, stoppedTime float64, actionsHistoryLen int, distanceToGoal float64) float64 {
	c := e.coefficients
	return c.CostNormalizer * (
		odometer*c.MeterTravelledCost +
			travelingTime*c.TravelingTimeCost +
			stoppedTime*c.StoppedTimeCost +
			distanceToGoal*c.DistanceToGoalCost +
			float64(actionsHistoryLen)*c.ActionCost)
}
