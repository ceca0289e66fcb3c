package simulation

// Options configures one Simulation run (spec.md §6).
type Options struct {
	StepDuration                  float64 // seconds
	MaxCost                       float64
	MaxSteps                      int
	MaxStepsWithoutTrainMovement  int
	AbortCostMultiplier           float64
	StepLimitMultiplier           float64
	CostLimitMultiplier           float64
	WithoutMovementMultiplier     float64
	ControllerName                string
	Seed                          int64
}

// DefaultOptions returns the defaults listed in spec.md §6.
func DefaultOptions() Options {
	return Options{
		StepDuration:                 30,
		MaxCost:                      1e6,
		MaxSteps:                     1000,
		MaxStepsWithoutTrainMovement: 10,
		AbortCostMultiplier:          100,
		StepLimitMultiplier:          10,
		CostLimitMultiplier:          10,
		WithoutMovementMultiplier:    10,
		ControllerName:               "No Controller",
	}
}
