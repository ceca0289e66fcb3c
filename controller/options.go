package controller

import (
	"runtime"

	"github.com/fndando/dispatchsim/simulation"
)

// Options configures one controller run (spec.md §6 nested option mapping).
type Options struct {
	SolutionsSize                   int
	MaxThreadWorkers                int
	MaxIterations                   int
	MaxConsecutiveStepsWithSameBest int
	SimulationOptions               simulation.Options
	Seed                            int64

	// GA options (spec.md §4.8 "Genetic controller").
	TrainCrossingProbability    float64
	SelectionPreserveRatio      float64
	SolutionMutationProbability float64
	TrainMutationProbability    float64
	GeneMutationOccurrence      float64

	// PSO options (spec.md §4.8 "PSO controller").
	InertialParameter                float64
	PersonalAccelerationCoefficient  float64
	GlobalAccelerationCoefficient    float64
}

// DefaultOptions returns the defaults listed in spec.md §6.
func DefaultOptions() Options {
	return Options{
		SolutionsSize:                   20,
		MaxThreadWorkers:                runtime.NumCPU() * 2,
		MaxIterations:                   50,
		MaxConsecutiveStepsWithSameBest: 3,
		SimulationOptions:               simulation.DefaultOptions(),

		TrainCrossingProbability:    0.8,
		SelectionPreserveRatio:      0.6,
		SolutionMutationProbability: 0.3,
		TrainMutationProbability:    0.5,
		GeneMutationOccurrence:      0.5,

		InertialParameter:               0.1,
		PersonalAccelerationCoefficient: 0.5,
		GlobalAccelerationCoefficient:   0.3,
	}
}
