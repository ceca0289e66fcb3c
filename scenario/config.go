// Package scenario wires a route, a train list, and the controller option
// bag into a running search, and renders the resulting report. It is the
// Go equivalent of the teacher's top-level simulation-runner glue, adapted
// from the real-time ts2 product into a batch driver for the controller
// family (spec.md §2 "Scenario driver").
package scenario

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/fndando/dispatchsim/controller"
	"github.com/fndando/dispatchsim/simulation"
)

// ControllerConfig is the nested option bag spec.md §6 describes, decoded
// from HCL (ground: lox-pokerforbots/internal/server/config.go's
// ServerConfig/LoadServerConfig). Route topology and train lists stay JSON
// (§6 gives JSON-shaped field names) and are loaded separately by
// route_loader.go.
type ControllerConfig struct {
	Base       BaseSettings       `hcl:"base,block"`
	Simulation SimulationSettings `hcl:"simulation_options,block"`
	Genetic    GeneticSettings    `hcl:"genetic,block"`
	PSO        PSOSettings        `hcl:"pso,block"`
}

// BaseSettings covers the fields spec.md §6 lists outside simulation_options
// and the metaheuristic-specific blocks.
type BaseSettings struct {
	SolutionsSize                   int `hcl:"solutions_size,optional"`
	MaxThreadWorkers                int `hcl:"max_thread_workers,optional"`
	MaxIterations                   int `hcl:"max_iterations,optional"`
	MaxConsecutiveStepsWithSameBest int `hcl:"max_consecutive_steps_with_same_best,optional"`
	Seed                            int `hcl:"seed,optional"`
}

// SimulationSettings mirrors simulation.Options' HCL-exposed fields.
type SimulationSettings struct {
	StepDuration                 float64 `hcl:"step_duration,optional"`
	MaxSteps                     int     `hcl:"max_steps,optional"`
	MaxCost                      float64 `hcl:"max_cost,optional"`
	MaxStepsWithoutTrainMovement int     `hcl:"max_steps_without_train_movement,optional"`
	AbortCostMultiplier          float64 `hcl:"abort_cost_multiplier,optional"`
	StepLimitMultiplier          float64 `hcl:"step_limit_multiplier,optional"`
	CostLimitMultiplier          float64 `hcl:"cost_limit_multiplier,optional"`
	WithoutMovementMultiplier    float64 `hcl:"without_movement_multiplier,optional"`
}

// GeneticSettings is the GA option group (spec.md §6 "GA options").
type GeneticSettings struct {
	TrainCrossingProbability    float64 `hcl:"train_crossing_probability,optional"`
	SelectionPreserveRatio      float64 `hcl:"selection_preserve_ratio,optional"`
	SolutionMutationProbability float64 `hcl:"solution_mutation_probability,optional"`
	TrainMutationProbability    float64 `hcl:"train_mutation_probability,optional"`
	GeneMutationOccurrence      float64 `hcl:"gene_mutation_occurrence,optional"`
}

// PSOSettings is the particle-swarm option group (spec.md §6 "PSO options").
type PSOSettings struct {
	InertialParameter               float64 `hcl:"inertial,optional"`
	PersonalAccelerationCoefficient float64 `hcl:"personal,optional"`
	GlobalAccelerationCoefficient   float64 `hcl:"global,optional"`
}

// DefaultControllerConfig mirrors controller.DefaultOptions() field for
// field, so a config file only needs to override what it changes.
func DefaultControllerConfig() *ControllerConfig {
	d := controller.DefaultOptions()
	return &ControllerConfig{
		Base: BaseSettings{
			SolutionsSize:                   d.SolutionsSize,
			MaxThreadWorkers:                d.MaxThreadWorkers,
			MaxIterations:                   d.MaxIterations,
			MaxConsecutiveStepsWithSameBest: d.MaxConsecutiveStepsWithSameBest,
			Seed:                            int(d.Seed),
		},
		Simulation: SimulationSettings{
			StepDuration:                 d.SimulationOptions.StepDuration,
			MaxSteps:                     d.SimulationOptions.MaxSteps,
			MaxCost:                      d.SimulationOptions.MaxCost,
			MaxStepsWithoutTrainMovement: d.SimulationOptions.MaxStepsWithoutTrainMovement,
			AbortCostMultiplier:          d.SimulationOptions.AbortCostMultiplier,
			StepLimitMultiplier:          d.SimulationOptions.StepLimitMultiplier,
			CostLimitMultiplier:          d.SimulationOptions.CostLimitMultiplier,
			WithoutMovementMultiplier:    d.SimulationOptions.WithoutMovementMultiplier,
		},
		Genetic: GeneticSettings{
			TrainCrossingProbability:    d.TrainCrossingProbability,
			SelectionPreserveRatio:      d.SelectionPreserveRatio,
			SolutionMutationProbability: d.SolutionMutationProbability,
			TrainMutationProbability:    d.TrainMutationProbability,
			GeneMutationOccurrence:      d.GeneMutationOccurrence,
		},
		PSO: PSOSettings{
			InertialParameter:               d.InertialParameter,
			PersonalAccelerationCoefficient: d.PersonalAccelerationCoefficient,
			GlobalAccelerationCoefficient:   d.GlobalAccelerationCoefficient,
		},
	}
}

// LoadControllerConfig loads a controller option bag from an HCL file,
// falling back to defaults when the file doesn't exist (ground:
// lox-pokerforbots/internal/server/config.go's LoadServerConfig).
func LoadControllerConfig(filename string) (*ControllerConfig, error) {
	if filename == "" {
		return DefaultControllerConfig(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultControllerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	config := *DefaultControllerConfig()
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	return &config, nil
}

// ToOptions converts the decoded HCL config into a controller.Options,
// leaving anything left unset at its loaded value (callers always start
// from DefaultControllerConfig so zero-value gaps don't occur).
func (c *ControllerConfig) ToOptions() controller.Options {
	return controller.Options{
		SolutionsSize:                   c.Base.SolutionsSize,
		MaxThreadWorkers:                c.Base.MaxThreadWorkers,
		MaxIterations:                   c.Base.MaxIterations,
		MaxConsecutiveStepsWithSameBest: c.Base.MaxConsecutiveStepsWithSameBest,
		Seed:                            int64(c.Base.Seed),
		SimulationOptions: simulation.Options{
			StepDuration:                 c.Simulation.StepDuration,
			MaxCost:                      c.Simulation.MaxCost,
			MaxSteps:                     c.Simulation.MaxSteps,
			MaxStepsWithoutTrainMovement: c.Simulation.MaxStepsWithoutTrainMovement,
			AbortCostMultiplier:          c.Simulation.AbortCostMultiplier,
			StepLimitMultiplier:          c.Simulation.StepLimitMultiplier,
			CostLimitMultiplier:          c.Simulation.CostLimitMultiplier,
			WithoutMovementMultiplier:    c.Simulation.WithoutMovementMultiplier,
			ControllerName:               "",
		},
		TrainCrossingProbability:         c.Genetic.TrainCrossingProbability,
		SelectionPreserveRatio:           c.Genetic.SelectionPreserveRatio,
		SolutionMutationProbability:      c.Genetic.SolutionMutationProbability,
		TrainMutationProbability:         c.Genetic.TrainMutationProbability,
		GeneMutationOccurrence:           c.Genetic.GeneMutationOccurrence,
		InertialParameter:                c.PSO.InertialParameter,
		PersonalAccelerationCoefficient:  c.PSO.PersonalAccelerationCoefficient,
		GlobalAccelerationCoefficient:    c.PSO.GlobalAccelerationCoefficient,
	}
}
